package vault

import (
	"sort"

	"github.com/papersync/papersync/internal/models"
	"github.com/papersync/papersync/internal/notecodec"
	"github.com/papersync/papersync/internal/storage"
	"github.com/papersync/papersync/internal/week"
)

// Notes is the weekly-note repository over one blob store.
type Notes struct {
	store storage.Provider
}

// NewNotes creates a note repository backed by store.
func NewNotes(store storage.Provider) *Notes {
	return &Notes{store: store}
}

// Read loads and decodes the note for the given week. Not-found
// surfaces as apperr.ErrNotFound from the store, untouched.
func (n *Notes) Read(id week.ID) (*models.WeeklyNote, error) {
	data, err := n.store.Read(NotePath(id))
	if err != nil {
		return nil, err
	}
	return notecodec.Parse(string(data), id), nil
}

// ReadRaw returns the note's Markdown source.
func (n *Notes) ReadRaw(id week.ID) (string, error) {
	data, err := n.store.Read(NotePath(id))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Write serializes and persists the note.
func (n *Notes) Write(note *models.WeeklyNote) error {
	return n.store.Write(NotePath(note.Week), []byte(notecodec.Serialize(note)))
}

// List returns the ids of all stored weekly notes, sorted ascending
// (the id format makes lexicographic order chronological).
func (n *Notes) List() ([]week.ID, error) {
	items, err := n.store.List(WeeklyDir)
	if err != nil {
		return nil, err
	}
	var ids []week.ID
	for _, item := range items {
		if id := WeekFromPath(item.Path); id != "" {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
