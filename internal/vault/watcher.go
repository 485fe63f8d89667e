package vault

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/papersync/papersync/internal/week"
)

// ChangeCallback is called when a weekly note file changes on disk.
// kind is "updated" or "deleted".
type ChangeCallback func(kind string, id week.ID)

// Watch observes the Weekly directory of a local vault and reports
// note changes until ctx is cancelled. Hand edits are the norm for
// this vault, so the watcher exists to push refresh events to clients
// rather than to maintain any index.
//
// Rapid successive writes to the same file (editors, atomic renames)
// are debounced per path.
func Watch(ctx context.Context, vaultRoot string, logger *slog.Logger, cb ChangeCallback) error {
	dir := filepath.Join(vaultRoot, filepath.FromSlash(WeeklyDir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("dir", dir))

	const debounce = 200 * time.Millisecond
	pending := map[string]string{} // path -> kind
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}
	flush := func() {
		for path, kind := range pending {
			id := WeekFromPath(WeeklyDir + "/" + filepath.Base(path))
			if id == "" {
				continue
			}
			logger.Debug("watcher: note changed",
				slog.String("week", string(id)), slog.String("kind", kind))
			if cb != nil {
				cb(kind, id)
			}
		}
		pending = map[string]string{}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			flush()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if !strings.HasSuffix(name, ".md") || strings.HasPrefix(name, ".") {
				continue
			}
			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0:
				if _, statErr := os.Stat(ev.Name); statErr == nil {
					pending[ev.Name] = "updated"
				} else {
					pending[ev.Name] = "deleted"
				}
				schedule()
			case ev.Op&fsnotify.Remove != 0:
				pending[ev.Name] = "deleted"
				schedule()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: error", slog.String("error", err.Error()))
		}
	}
}
