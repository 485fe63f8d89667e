// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/papersync/papersync/internal/api"
	"github.com/papersync/papersync/internal/escl"
	"github.com/papersync/papersync/internal/history"
	"github.com/papersync/papersync/internal/ocr"
	"github.com/papersync/papersync/internal/sse"
	"github.com/papersync/papersync/internal/storage"
	"github.com/papersync/papersync/internal/syncservice"
	"github.com/papersync/papersync/internal/vault"
	"github.com/papersync/papersync/internal/week"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("github_enabled", cfg.GitHub.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return fmt.Errorf("create vault dir: %w", err)
	}

	// Local vault storage.
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	localNotes := vault.NewNotes(store)

	// Optional remote vault mirror.
	var remoteNotes *vault.Notes
	if cfg.GitHub.Enabled {
		remote := storage.NewGitHub(cfg.GitHub.Owner, cfg.GitHub.Repo, cfg.GitHub.Branch, cfg.GitHub.Token)
		remoteNotes = vault.NewNotes(remote)
		logger.Info("Remote vault enabled",
			slog.String("owner", cfg.GitHub.Owner),
			slog.String("repo", cfg.GitHub.Repo),
			slog.String("branch", cfg.GitHub.Branch))
	}

	// Sync history database.
	db, err := history.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init history: %w", err)
	}
	defer db.Close()

	// SSE broker.
	broker := sse.NewBroker()
	defer broker.Close()

	// Scanner client and OCR chain.
	scan := escl.NewClient(cfg.Scanner.RequestTimeout)
	extractor := buildExtractor(cfg.OCR, logger)

	// Build sync service and router.
	svc := syncservice.NewService(localNotes, remoteNotes, db, broker, logger)
	handler := api.NewHandler(svc, scan, vault.NewSettings(store), db, extractor, cfg.Scanner.DiscoveryTimeout)
	apiRouter := api.NewRouter(handler, cfg.Auth.AuthEnabled(), cfg.Auth.Token, http.HandlerFunc(broker.ServeHTTP))

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the local vault for hand edits and push refresh events.
	g.Go(func() error {
		err := vault.Watch(gCtx, cfg.Vault.Path, logger, func(kind string, id week.ID) {
			eventType := sse.TypeNoteChanged
			if kind == "deleted" {
				eventType = sse.TypeNoteDeleted
			}
			broker.PublishNoteEvent(eventType, string(id))
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("vault watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// buildExtractor assembles the OCR fallback chain from configuration.
// Returns nil when no providers are configured.
func buildExtractor(cfg OCRConfig, logger *slog.Logger) ocr.Extractor {
	var extractors []ocr.Extractor
	for _, p := range cfg.Providers {
		switch p.Provider {
		case OCRProviderOllama:
			extractors = append(extractors, ocr.NewOllama(p.BaseURL, p.Model, cfg.RequestTimeout))
		case OCRProviderGemini:
			extractors = append(extractors, ocr.NewGemini(p.BaseURL, p.Model, p.APIKey, cfg.RequestTimeout))
		}
	}
	if len(extractors) == 0 {
		return nil
	}
	if len(extractors) == 1 {
		return extractors[0]
	}
	return ocr.NewChain(logger, extractors...)
}
