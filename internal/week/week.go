// Package week implements ISO-8601 week arithmetic for weekly planner notes.
//
// A week is identified by an opaque "YYYY-Www" string (week 1 is the week
// containing the year's first Thursday, equivalently the week containing
// January 4th). All functions are pure and total: malformed identifiers
// degrade to zero values rather than panicking.
package week

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ID identifies an ISO-8601 week, formatted "YYYY-Www".
type ID string

var idRe = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)

// Weekdays lists the canonical day names in ISO order, Monday first.
var Weekdays = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

var weekdayOffsets = map[string]int{
	"Monday":    0,
	"Tuesday":   1,
	"Wednesday": 2,
	"Thursday":  3,
	"Friday":    4,
	"Saturday":  5,
	"Sunday":    6,
}

// Valid reports whether id has "YYYY-Www" syntax.
func (id ID) Valid() bool {
	return idRe.MatchString(string(id))
}

// FromDate returns the ID of the ISO week containing t.
func FromDate(t time.Time) ID {
	year, wk := t.ISOWeek()
	return ID(fmt.Sprintf("%04d-W%02d", year, wk))
}

// parts splits an ID into its year and week number.
func (id ID) parts() (year, wk int, err error) {
	m := idRe.FindStringSubmatch(string(id))
	if m == nil {
		return 0, 0, fmt.Errorf("week: malformed id %q", string(id))
	}
	year, _ = strconv.Atoi(m[1])
	wk, _ = strconv.Atoi(m[2])
	return year, wk, nil
}

// StartDate returns the Monday beginning the identified week.
//
// The first ISO week's Monday is located by rewinding January 1st to the
// Monday on/before it; when January 1st falls after Thursday that Monday
// belongs to the previous year's last week, so the first week starts seven
// days later.
func StartDate(id ID) (time.Time, error) {
	year, wk, err := id.parts()
	if err != nil {
		return time.Time{}, err
	}
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	dayOffset := (int(jan1.Weekday()) + 6) % 7
	firstMonday := jan1.AddDate(0, 0, -dayOffset)
	if dayOffset > 3 {
		firstMonday = firstMonday.AddDate(0, 0, 7)
	}
	return firstMonday.AddDate(0, 0, (wk-1)*7), nil
}

// EndDate returns the Sunday ending the identified week (start + 6 days).
func EndDate(id ID) (time.Time, error) {
	start, err := StartDate(id)
	if err != nil {
		return time.Time{}, err
	}
	return start.AddDate(0, 0, 6), nil
}

// Range returns the week's start and end as ISO dates. A malformed id
// yields empty strings; parse-time tolerance is the caller's contract.
func Range(id ID) (start, end string) {
	s, err := StartDate(id)
	if err != nil {
		return "", ""
	}
	return FormatISO(s), FormatISO(s.AddDate(0, 0, 6))
}

// DateForWeekday returns the ISO date of the named weekday within the week.
// Unrecognized day names resolve to the week's Monday.
func DateForWeekday(dayName string, id ID) string {
	start, err := StartDate(id)
	if err != nil {
		return ""
	}
	offset := weekdayOffsets[Canonical(dayName)]
	return FormatISO(start.AddDate(0, 0, offset))
}

// Canonical normalizes a free-form weekday name ("monday", "MONDAY") to its
// canonical capitalization. Unrecognized names pass through unchanged.
func Canonical(dayName string) string {
	for _, d := range Weekdays {
		if strings.EqualFold(d, dayName) {
			return d
		}
	}
	return dayName
}

// FormatISO formats t as YYYY-MM-DD.
func FormatISO(t time.Time) string {
	return t.Format("2006-01-02")
}

// ParseISO parses a YYYY-MM-DD date.
func ParseISO(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// HumanDate formats t in the long-month "January 2" form used on day headings.
func HumanDate(t time.Time) string {
	return t.Format("January 2")
}

// ParseHumanDate parses a "January 2" heading date, attaching the given year.
func ParseHumanDate(s string, year int) (time.Time, error) {
	t, err := time.Parse("January 2", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(year, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// Year returns the calendar year component of the id, or 0 when malformed.
func (id ID) Year() int {
	year, _, err := id.parts()
	if err != nil {
		return 0
	}
	return year
}
