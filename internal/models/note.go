// Package models defines the domain types for PaperSync.
package models

import "github.com/papersync/papersync/internal/week"

// Task is a single checklist item. Identity for deduplication is the
// exact Content string (case- and whitespace-sensitive).
type Task struct {
	Content     string `json:"content"`
	IsCompleted bool   `json:"is_completed"`
	DueDate     string `json:"due_date,omitempty"` // YYYY-MM-DD
}

// SubjectEntry groups a day's tasks under one free-form subject label.
// Subjects are unique within a day; matching is exact string equality.
type SubjectEntry struct {
	Subject string `json:"subject"`
	Tasks   []Task `json:"tasks"`
}

// DayRecord holds one calendar day's subject entries. Days with zero
// entries are omitted from both the model and the serialized note.
type DayRecord struct {
	Date    string         `json:"date"` // YYYY-MM-DD
	DayName string         `json:"day_name"`
	Entries []SubjectEntry `json:"entries"`
}

// DateRange is the inclusive Monday..Sunday span of a week.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WeeklyNote is the aggregate record of a week's tasks: day-scoped
// subject entries plus week-level general tasks. It lives only for the
// duration of one read-merge-write cycle and is never cached.
type WeeklyNote struct {
	Week         week.ID     `json:"week"`
	DateRange    DateRange   `json:"date_range"`
	SyncedAt     string      `json:"synced_at,omitempty"` // ISO-8601 timestamp
	Days         []DayRecord `json:"days"`
	GeneralTasks []Task      `json:"general_tasks"`
}

// ExtractedEntry is one OCR-extracted planner line, the merge engine's
// input. Day is free-form and normalized before grouping; an empty or
// "General Tasks" subject routes the entry to the week's general tasks.
type ExtractedEntry struct {
	ID          string `json:"id"`
	Day         string `json:"day"`
	Subject     string `json:"subject"`
	Content     string `json:"content"`
	IsTask      bool   `json:"is_task"`
	IsCompleted bool   `json:"is_completed"`
	IsNew       bool   `json:"is_new"`
	DueDate     string `json:"due_date,omitempty"`
}

// FileMeta is lightweight metadata for a vault file, returned by list
// operations.
type FileMeta struct {
	Path      string `json:"path"`
	Checksum  string `json:"checksum"`
	UpdatedAt string `json:"updated_at,omitempty"`
}
