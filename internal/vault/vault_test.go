package vault

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/papersync/papersync/internal/apperr"
	"github.com/papersync/papersync/internal/models"
	"github.com/papersync/papersync/internal/storage"
	"github.com/papersync/papersync/internal/week"
)

func testNotes(t *testing.T) (*Notes, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return NewNotes(store), dir
}

func TestNotePath(t *testing.T) {
	if got := NotePath("2026-W05"); got != "PaperSync/Weekly/2026-W05.md" {
		t.Errorf("NotePath = %q", got)
	}
}

func TestWeekFromPath(t *testing.T) {
	cases := map[string]week.ID{
		"PaperSync/Weekly/2026-W05.md":     "2026-W05",
		"PaperSync/Weekly/Overview.md":     "",
		"PaperSync/Weekly/sub/2026-W05.md": "",
		"Other/2026-W05.md":                "",
	}
	for path, want := range cases {
		if got := WeekFromPath(path); got != want {
			t.Errorf("WeekFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestNotesWriteReadRoundTrip(t *testing.T) {
	notes, _ := testNotes(t)
	note := &models.WeeklyNote{
		Week:      "2026-W05",
		DateRange: models.DateRange{Start: "2026-01-26", End: "2026-02-01"},
		Days: []models.DayRecord{
			{Date: "2026-01-26", DayName: "Monday", Entries: []models.SubjectEntry{
				{Subject: "Math", Tasks: []models.Task{{Content: "HW"}}},
			}},
		},
		GeneralTasks: []models.Task{},
	}
	if err := notes.Write(note); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := notes.Read("2026-W05")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(got, note) {
		t.Errorf("round trip mismatch:\n got  %#v\n want %#v", got, note)
	}
}

func TestNotesRead_NotFound(t *testing.T) {
	notes, _ := testNotes(t)
	if _, err := notes.Read("2026-W99"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestNotesList(t *testing.T) {
	notes, _ := testNotes(t)
	for _, id := range []week.ID{"2026-W05", "2026-W03", "2026-W04"} {
		note := &models.WeeklyNote{Week: id, Days: []models.DayRecord{}, GeneralTasks: []models.Task{}}
		if err := notes.Write(note); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	ids, err := notes.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []week.ID{"2026-W03", "2026-W04", "2026-W05"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
}

func TestSettings_MissingFilesAreEmpty(t *testing.T) {
	dir := t.TempDir()
	store, _ := storage.NewFS(dir)
	s := NewSettings(store)

	subjects, err := s.Subjects()
	if err != nil || len(subjects) != 0 {
		t.Errorf("subjects = %v, %v", subjects, err)
	}
	tt, err := s.Timetable()
	if err != nil || len(tt) != 0 {
		t.Errorf("timetable = %v, %v", tt, err)
	}
}

func TestSettings_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	store, _ := storage.NewFS(dir)
	s := NewSettings(store)

	in := []Subject{{ID: "math", Name: "Math", Color: "#ff0000"}}
	if err := s.SaveSubjects(in); err != nil {
		t.Fatalf("SaveSubjects: %v", err)
	}
	out, err := s.Subjects()
	if err != nil {
		t.Fatalf("Subjects: %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Errorf("subjects = %v", out)
	}

	tt := Timetable{"Monday": {"Math", "Physics"}}
	if err := s.SaveTimetable(tt); err != nil {
		t.Fatalf("SaveTimetable: %v", err)
	}
	got, err := s.Timetable()
	if err != nil {
		t.Fatalf("Timetable: %v", err)
	}
	if !reflect.DeepEqual(got, tt) {
		t.Errorf("timetable = %v", got)
	}
}

func TestWatch_ReportsNoteChanges(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []week.ID
	done := make(chan struct{})
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	go func() {
		defer close(done)
		_ = Watch(ctx, dir, logger, func(kind string, id week.ID) {
			mu.Lock()
			got = append(got, id)
			mu.Unlock()
		})
	}()

	// Give the watcher time to install.
	time.Sleep(300 * time.Millisecond)

	weekly := filepath.Join(dir, "PaperSync", "Weekly")
	if err := os.WriteFile(filepath.Join(weekly, "2026-W05.md"), []byte("# x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("no change event received")
		case <-time.After(50 * time.Millisecond):
		}
	}

	mu.Lock()
	first := got[0]
	mu.Unlock()
	if first != "2026-W05" {
		t.Errorf("week = %s", first)
	}

	cancel()
	<-done
}
