package vault

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/papersync/papersync/internal/apperr"
	"github.com/papersync/papersync/internal/storage"
)

// Subject is one entry of the user's subject list.
type Subject struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Timetable maps canonical weekday names to the ordered subject names
// taught that day.
type Timetable map[string][]string

// Settings bundles the vault-resident configuration files.
type Settings struct {
	store storage.Provider
}

// NewSettings creates a settings accessor over store.
func NewSettings(store storage.Provider) *Settings {
	return &Settings{store: store}
}

// Subjects loads the subject list; a missing file is an empty list.
func (s *Settings) Subjects() ([]Subject, error) {
	var out []Subject
	if err := s.load(SubjectsPath, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Subject{}
	}
	return out, nil
}

// SaveSubjects persists the subject list.
func (s *Settings) SaveSubjects(subjects []Subject) error {
	return s.save(SubjectsPath, subjects)
}

// Timetable loads the weekly timetable; a missing file is empty.
func (s *Settings) Timetable() (Timetable, error) {
	var out Timetable
	if err := s.load(TimetablePath, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = Timetable{}
	}
	return out, nil
}

// SaveTimetable persists the timetable.
func (s *Settings) SaveTimetable(t Timetable) error {
	return s.save(TimetablePath, t)
}

func (s *Settings) load(path string, target any) error {
	data, err := s.store.Read(path)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("vault: decode %s: %w", path, err)
	}
	return nil
}

func (s *Settings) save(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("vault: encode %s: %w", path, err)
	}
	return s.store.Write(path, append(data, '\n'))
}
