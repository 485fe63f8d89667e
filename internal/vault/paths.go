// Package vault gives the blob store its PaperSync shape: fixed file
// paths, the weekly-note repository, settings files, and a watcher for
// externally edited notes.
package vault

import (
	"strings"

	"github.com/papersync/papersync/internal/week"
)

// Fixed vault layout. These paths are part of the file-format contract
// and are not configurable.
const (
	Root          = "PaperSync"
	WeeklyDir     = "PaperSync/Weekly"
	ConfigPath    = "PaperSync/.papersync/config.json"
	SubjectsPath  = "PaperSync/.papersync/subjects.json"
	TimetablePath = "PaperSync/.papersync/timetable.json"
	OverviewPath  = "Overview.md"
)

// NotePath returns the vault path of a week's note.
func NotePath(id week.ID) string {
	return WeeklyDir + "/" + string(id) + ".md"
}

// WeekFromPath extracts the week id from a weekly note path, or "" when
// the path is not a weekly note.
func WeekFromPath(path string) week.ID {
	rest, ok := strings.CutPrefix(path, WeeklyDir+"/")
	if !ok {
		return ""
	}
	name, ok := strings.CutSuffix(rest, ".md")
	if !ok || strings.Contains(name, "/") {
		return ""
	}
	id := week.ID(name)
	if !id.Valid() {
		return ""
	}
	return id
}
