// Package ocr extracts structured planner entries from scanned page
// images using vision-capable model providers.
package ocr

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/papersync/papersync/internal/models"
)

// Extractor turns a scanned page image into structured entries.
type Extractor interface {
	Extract(ctx context.Context, image []byte) ([]models.ExtractedEntry, error)
	Name() string
}

// extractionPrompt instructs the vision model to emit the entry list as
// JSON. Both providers share it so their outputs stay interchangeable.
const extractionPrompt = `You are reading a photo of a handwritten weekly school planner.
Extract every task and note you can see. Respond with ONLY a JSON array, no prose.
Each element: {"day": "<weekday name or empty>", "subject": "<subject or empty>",
"content": "<text>", "is_task": true|false, "is_completed": true|false,
"due_date": "<YYYY-MM-DD or empty>"}.
Use an empty day for items in a general or notes section.`

// ErrNoEntries is returned when a provider answered but produced no
// usable entries.
var ErrNoEntries = errors.New("ocr: no entries extracted")

// parseEntries decodes a model's text answer into entries. Models wrap
// JSON in code fences or an {"entries": [...]} envelope often enough
// that both are tolerated.
func parseEntries(answer string) ([]models.ExtractedEntry, error) {
	s := strings.TrimSpace(answer)
	if after, ok := strings.CutPrefix(s, "```json"); ok {
		s = after
	} else if after, ok := strings.CutPrefix(s, "```"); ok {
		s = after
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	s = strings.TrimSpace(s)

	var entries []models.ExtractedEntry
	if err := json.Unmarshal([]byte(s), &entries); err == nil {
		return entries, nil
	}
	var envelope struct {
		Entries []models.ExtractedEntry `json:"entries"`
	}
	if err := json.Unmarshal([]byte(s), &envelope); err != nil {
		return nil, errors.New("ocr: model answer is not a JSON entry list")
	}
	return envelope.Entries, nil
}
