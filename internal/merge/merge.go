// Package merge reconciles freshly extracted planner entries with a
// previously persisted weekly note.
//
// The merge is additive and non-destructive: days, subjects, and tasks
// present in the existing note but absent from the new batch are
// carried through unchanged, so later syncs augment rather than
// replace. Deduplication is exact content-string equality, and the
// existing task's completion state and due date win over any new
// occurrence of the same content.
package merge

import (
	"time"

	"github.com/papersync/papersync/internal/models"
	"github.com/papersync/papersync/internal/week"
)

// GeneralSubject routes an entry to week-level general tasks instead of
// a day's subject entries. An empty subject does the same.
const GeneralSubject = "General Tasks"

// subjectGroup keeps first-occurrence subject order within one day.
type subjectGroup struct {
	order []string
	tasks map[string][]models.Task
}

// Merge combines an extracted entry batch with an optional existing
// note into a new WeeklyNote for the given week. It is a pure, total
// transformation: there is no failure mode. Callers that could not read
// an existing note pass nil, collapsing to the fresh-note case.
func Merge(entries []models.ExtractedEntry, id week.ID, existing *models.WeeklyNote, now time.Time) *models.WeeklyNote {
	var newGeneral []models.Task
	dayGroups := map[string]*subjectGroup{}

	for _, e := range entries {
		if e.Subject == "" || e.Subject == GeneralSubject {
			newGeneral = append(newGeneral, taskOf(e))
			continue
		}
		day := week.Canonical(e.Day)
		g := dayGroups[day]
		if g == nil {
			g = &subjectGroup{tasks: map[string][]models.Task{}}
			dayGroups[day] = g
		}
		if _, seen := g.tasks[e.Subject]; !seen {
			g.order = append(g.order, e.Subject)
		}
		g.tasks[e.Subject] = append(g.tasks[e.Subject], taskOf(e))
	}

	start, end := week.Range(id)
	note := &models.WeeklyNote{
		Week:         id,
		DateRange:    models.DateRange{Start: start, End: end},
		SyncedAt:     now.UTC().Format(time.RFC3339),
		Days:         []models.DayRecord{},
		GeneralTasks: []models.Task{},
	}

	for _, dayName := range week.Weekdays {
		g := dayGroups[dayName]
		if g == nil && existing == nil {
			continue
		}
		existingDay := findDay(existing, dayName)
		if g == nil && existingDay == nil {
			continue
		}

		var merged []models.SubjectEntry
		updated := map[string]bool{}
		if g != nil {
			for _, subj := range g.order {
				updated[subj] = true
				merged = append(merged, models.SubjectEntry{
					Subject: subj,
					Tasks:   mergeTasks(findSubjectTasks(existingDay, subj), g.tasks[subj]),
				})
			}
		}
		// Subjects with no new entries this round carry through unchanged,
		// after the updated ones.
		if existingDay != nil {
			for _, se := range existingDay.Entries {
				if !updated[se.Subject] {
					merged = append(merged, se)
				}
			}
		}

		if len(merged) > 0 {
			note.Days = append(note.Days, models.DayRecord{
				Date:    week.DateForWeekday(dayName, id),
				DayName: dayName,
				Entries: merged,
			})
		}
	}

	if existing != nil {
		note.GeneralTasks = append(note.GeneralTasks, existing.GeneralTasks...)
	}
	for _, t := range newGeneral {
		if !hasContent(note.GeneralTasks, t.Content) {
			note.GeneralTasks = append(note.GeneralTasks, t)
		}
	}
	return note
}

func taskOf(e models.ExtractedEntry) models.Task {
	return models.Task{Content: e.Content, IsCompleted: e.IsCompleted, DueDate: e.DueDate}
}

func findDay(n *models.WeeklyNote, dayName string) *models.DayRecord {
	if n == nil {
		return nil
	}
	for i := range n.Days {
		if n.Days[i].DayName == dayName {
			return &n.Days[i]
		}
	}
	return nil
}

func findSubjectTasks(day *models.DayRecord, subject string) []models.Task {
	if day == nil {
		return nil
	}
	for _, se := range day.Entries {
		if se.Subject == subject {
			return se.Tasks
		}
	}
	return nil
}

// mergeTasks appends each new task to a copy of the base list unless an
// existing task already has identical content.
func mergeTasks(base, incoming []models.Task) []models.Task {
	out := append([]models.Task(nil), base...)
	for _, t := range incoming {
		if !hasContent(out, t.Content) {
			out = append(out, t)
		}
	}
	return out
}

func hasContent(tasks []models.Task, content string) bool {
	for _, t := range tasks {
		if t.Content == content {
			return true
		}
	}
	return false
}
