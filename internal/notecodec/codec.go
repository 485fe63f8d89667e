// Package notecodec serializes and parses weekly planner notes to and
// from Markdown with a YAML frontmatter block.
//
// The pair is an exact round-trip for any note satisfying the model
// invariants: Parse(Serialize(n), n.Week) == n field for field,
// including task order, completion flags, and due dates. Parsing is
// deliberately permissive — the files it reads may be hand-edited, so
// malformed input degrades to defaults instead of failing.
package notecodec

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/papersync/papersync/internal/models"
	"github.com/papersync/papersync/internal/week"
)

var (
	frontmatterRe = regexp.MustCompile(`(?s)\A---\r?\n(.*?)\r?\n---\r?\n?`)
	dayHeadingRe  = regexp.MustCompile(`^## ([^,]+?)(?:,\s*(.+))?$`)
	subjectRe     = regexp.MustCompile(`^### (.+)$`)
	taskRe        = regexp.MustCompile(`^- \[([ xX])\] (.+)$`)
	dueRe         = regexp.MustCompile(`\s*\[due::\s*(\d{4}-\d{2}-\d{2})\]`)
)

const generalHeading = "## General Tasks"

// Serialize renders a WeeklyNote as Markdown. Days are emitted in array
// order, separated by horizontal rules; general tasks form a trailing
// section with no subject sub-heading.
func Serialize(n *models.WeeklyNote) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "week: %s\n", n.Week)
	fmt.Fprintf(&b, "date_range: %s to %s\n", n.DateRange.Start, n.DateRange.End)
	if n.SyncedAt != "" {
		fmt.Fprintf(&b, "synced_at: %s\n", n.SyncedAt)
	}
	b.WriteString("---\n")

	for i, day := range n.Days {
		b.WriteString("\n")
		if i > 0 {
			b.WriteString("---\n\n")
		}
		if hd := headingDate(day.Date); hd != "" {
			fmt.Fprintf(&b, "## %s, %s\n", day.DayName, hd)
		} else {
			fmt.Fprintf(&b, "## %s\n", day.DayName)
		}
		for _, e := range day.Entries {
			fmt.Fprintf(&b, "\n### %s\n\n", e.Subject)
			for _, t := range e.Tasks {
				b.WriteString(taskLine(t))
			}
		}
	}

	if len(n.GeneralTasks) > 0 {
		b.WriteString("\n---\n\n" + generalHeading + "\n\n")
		for _, t := range n.GeneralTasks {
			b.WriteString(taskLine(t))
		}
	}
	return b.String()
}

func headingDate(isoDate string) string {
	t, err := week.ParseISO(isoDate)
	if err != nil {
		return ""
	}
	return week.HumanDate(t)
}

func taskLine(t models.Task) string {
	box := " "
	if t.IsCompleted {
		box = "x"
	}
	line := fmt.Sprintf("- [%s] %s", box, t.Content)
	if t.DueDate != "" {
		line += fmt.Sprintf(" [due:: %s]", t.DueDate)
	}
	return line + "\n"
}

// Parse reconstructs a WeeklyNote from Markdown. Days are kept in the
// order their headings appear (not forced to canonical weekday order).
// Subjects with no tasks and days with no subject entries vanish; tasks
// outside any subject or the general section are dropped.
func Parse(markdown string, id week.ID) *models.WeeklyNote {
	fm, body := splitFrontmatter(markdown)

	note := &models.WeeklyNote{
		Week:         id,
		SyncedAt:     fm["synced_at"],
		Days:         []models.DayRecord{},
		GeneralTasks: []models.Task{},
	}
	if start, end, ok := strings.Cut(fm["date_range"], " to "); ok {
		note.DateRange = models.DateRange{Start: strings.TrimSpace(start), End: strings.TrimSpace(end)}
	}

	type dayState struct {
		name, date string
		entries    []models.SubjectEntry
	}
	var (
		day       *dayState
		subject   string
		tasks     []models.Task
		inGeneral bool
	)

	flushSubject := func() {
		if day != nil && subject != "" && len(tasks) > 0 {
			day.entries = append(day.entries, models.SubjectEntry{Subject: subject, Tasks: tasks})
		}
		subject = ""
		tasks = nil
	}
	flushDay := func() {
		flushSubject()
		if day != nil && len(day.entries) > 0 {
			note.Days = append(note.Days, models.DayRecord{Date: day.date, DayName: day.name, Entries: day.entries})
		}
		day = nil
	}

	for _, raw := range strings.Split(body, "\n") {
		line := strings.TrimRight(raw, "\r")
		switch {
		case strings.EqualFold(line, generalHeading):
			flushDay()
			inGeneral = true

		case dayHeadingRe.MatchString(line):
			m := dayHeadingRe.FindStringSubmatch(line)
			flushDay()
			inGeneral = false
			name := strings.TrimSpace(m[1])
			day = &dayState{name: name, date: resolveDate(name, m[2], id)}

		case subjectRe.MatchString(line):
			if day != nil && !inGeneral {
				flushSubject()
				subject = strings.TrimSpace(subjectRe.FindStringSubmatch(line)[1])
			}

		case taskRe.MatchString(line):
			t := parseTask(taskRe.FindStringSubmatch(line))
			if inGeneral {
				note.GeneralTasks = append(note.GeneralTasks, t)
			} else if day != nil && subject != "" {
				tasks = append(tasks, t)
			}
		}
	}
	flushDay()
	return note
}

// Body returns the Markdown body with any frontmatter block removed.
func Body(markdown string) string {
	_, body := splitFrontmatter(markdown)
	return body
}

// splitFrontmatter separates the leading --- delimited block from the
// body and flattens it into a string map. Missing or malformed
// frontmatter yields an empty map, never an error.
func splitFrontmatter(markdown string) (map[string]string, string) {
	m := frontmatterRe.FindStringSubmatch(markdown)
	if m == nil {
		return map[string]string{}, markdown
	}
	body := markdown[len(m[0]):]

	fm := map[string]string{}
	if err := yaml.Unmarshal([]byte(m[1]), &fm); err == nil {
		return fm, body
	}
	// Not valid YAML — fall back to splitting each line on the first colon.
	fm = map[string]string{}
	for _, line := range strings.Split(m[1], "\n") {
		if key, value, ok := strings.Cut(line, ":"); ok {
			fm[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}
	return fm, body
}

// resolveDate derives a day's date from its heading text, falling back
// to week arithmetic when the text is absent or unparseable.
func resolveDate(dayName, dateText string, id week.ID) string {
	if dateText != "" {
		if t, err := week.ParseHumanDate(dateText, id.Year()); err == nil {
			return week.FormatISO(t)
		}
	}
	return week.DateForWeekday(dayName, id)
}

func parseTask(m []string) models.Task {
	t := models.Task{IsCompleted: m[1] == "x" || m[1] == "X"}
	content := m[2]
	if dm := dueRe.FindStringSubmatch(content); dm != nil {
		t.DueDate = dm[1]
		content = dueRe.ReplaceAllString(content, "")
	}
	t.Content = strings.TrimSpace(content)
	return t
}
