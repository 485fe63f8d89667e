package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/papersync/papersync/internal/models"
)

// Chain tries a sequence of extractors in order and returns the first
// successful result. Handwriting trips up smaller models often enough
// that a fallback list beats any single provider.
type Chain struct {
	extractors []Extractor
	logger     *slog.Logger
}

// NewChain builds a fallback chain over the given extractors.
func NewChain(logger *slog.Logger, extractors ...Extractor) *Chain {
	return &Chain{extractors: extractors, logger: logger}
}

// Name lists the chained providers.
func (c *Chain) Name() string {
	name := "chain"
	for _, e := range c.extractors {
		name += " " + e.Name()
	}
	return name
}

// Extract runs each extractor until one succeeds. All failures are
// joined into the returned error when every provider fails.
func (c *Chain) Extract(ctx context.Context, image []byte) ([]models.ExtractedEntry, error) {
	if len(c.extractors) == 0 {
		return nil, errors.New("ocr: no extractors configured")
	}
	var errs []error
	for _, e := range c.extractors {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		entries, err := e.Extract(ctx, image)
		if err == nil {
			return entries, nil
		}
		c.logger.Warn("ocr provider failed, trying next", "provider", e.Name(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
	}
	return nil, fmt.Errorf("ocr: all providers failed: %w", errors.Join(errs...))
}
