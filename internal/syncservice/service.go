// Package syncservice orchestrates the read-merge-write cycle that
// lands extracted planner entries in the vault.
package syncservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/papersync/papersync/internal/apperr"
	"github.com/papersync/papersync/internal/history"
	"github.com/papersync/papersync/internal/merge"
	"github.com/papersync/papersync/internal/models"
	"github.com/papersync/papersync/internal/sse"
	"github.com/papersync/papersync/internal/vault"
	"github.com/papersync/papersync/internal/week"
)

// Result reports what one sync accomplished. Local and remote outcomes
// are separate: a note saved locally with a failed remote push is a
// partial success, not a failure.
type Result struct {
	Week         week.ID `json:"week"`
	SavedLocal   bool    `json:"saved_local"`
	SyncedRemote bool    `json:"synced_remote"`
	NewTasks     int     `json:"new_tasks"`
	TotalTasks   int     `json:"total_tasks"`
	Message      string  `json:"message"`
}

// Service merges extracted entries into weekly notes.
type Service struct {
	local   *vault.Notes
	remote  *vault.Notes // nil when no remote vault is configured
	history *history.DB  // nil when history is disabled
	broker  *sse.Broker
	logger  *slog.Logger
	now     func() time.Time
}

// NewService wires a sync service. remote and hist may be nil.
func NewService(local *vault.Notes, remote *vault.Notes, hist *history.DB, broker *sse.Broker, logger *slog.Logger) *Service {
	return &Service{
		local:   local,
		remote:  remote,
		history: hist,
		broker:  broker,
		logger:  logger,
		now:     time.Now,
	}
}

// SetClock overrides the timestamp source. Tests only.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Sync merges entries into the note for id and persists it. The local
// write must succeed; the remote write is best-effort and reported in
// the result rather than failing the sync.
func (s *Service) Sync(ctx context.Context, id week.ID, entries []models.ExtractedEntry) (Result, error) {
	if len(entries) == 0 {
		return Result{}, apperr.Validation("no entries to sync")
	}
	if !id.Valid() {
		return Result{}, apperr.Validation("invalid week id %q", id)
	}

	existing, err := s.local.Read(id)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			s.logger.Warn("existing note unreadable, starting fresh", "week", id, "error", err)
		}
		existing = nil
	}
	before := countTasks(existing)

	merged := merge.Merge(entries, id, existing, s.now())
	if err := s.local.Write(merged); err != nil {
		return Result{}, fmt.Errorf("sync week %s: %w", id, err)
	}

	total := countTasks(merged)
	result := Result{
		Week:       id,
		SavedLocal: true,
		NewTasks:   total - before,
		TotalTasks: total,
		Message:    "saved locally",
	}

	if s.remote != nil {
		if err := s.remote.Write(merged); err != nil {
			s.logger.Warn("remote vault write failed", "week", id, "error", err)
			result.Message = "saved locally; remote sync failed: " + err.Error()
		} else {
			result.SyncedRemote = true
			result.Message = "saved locally and synced to remote"
		}
	}

	s.recordHistory(result)
	if s.broker != nil {
		s.broker.PublishNoteEvent(sse.TypeNoteSynced, string(id))
	}
	s.logger.Info("sync completed",
		"week", id,
		"new_tasks", result.NewTasks,
		"total_tasks", result.TotalTasks,
		"remote", result.SyncedRemote)
	return result, nil
}

// Note returns the stored note for id.
func (s *Service) Note(ctx context.Context, id week.ID) (*models.WeeklyNote, error) {
	if !id.Valid() {
		return nil, apperr.Validation("invalid week id %q", id)
	}
	return s.local.Read(id)
}

// Markdown returns the stored note's raw Markdown source.
func (s *Service) Markdown(ctx context.Context, id week.ID) (string, error) {
	if !id.Valid() {
		return "", apperr.Validation("invalid week id %q", id)
	}
	return s.local.ReadRaw(id)
}

// List returns the ids of all stored weekly notes.
func (s *Service) List(ctx context.Context) ([]week.ID, error) {
	return s.local.List()
}

func (s *Service) recordHistory(r Result) {
	if s.history == nil {
		return
	}
	_, err := s.history.Record(history.Entry{
		Week:         string(r.Week),
		NewTasks:     r.NewTasks,
		TotalTasks:   r.TotalTasks,
		RemoteSynced: r.SyncedRemote,
		Message:      r.Message,
	})
	if err != nil {
		s.logger.Warn("history record failed", "week", r.Week, "error", err)
	}
}

func countTasks(note *models.WeeklyNote) int {
	if note == nil {
		return 0
	}
	n := len(note.GeneralTasks)
	for _, day := range note.Days {
		for _, entry := range day.Entries {
			n += len(entry.Tasks)
		}
	}
	return n
}
