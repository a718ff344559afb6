package core

import (
	"fmt"
	"regexp"
	"time"
)

// DefaultTimezone is the canonical timezone for month boundaries, report
// keys, and scheduler fires. All date math goes through one location so a
// rollover at midnight and an expense posted at 23:59 agree on the month.
const DefaultTimezone = "Asia/Jerusalem"

var monthKeyRe = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{4}$`)

// Location resolves the canonical timezone, falling back to UTC when the
// zone database is unavailable.
func Location() *time.Location {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// MonthKey formats t's month as "MM/YYYY" in the canonical timezone.
func MonthKey(t time.Time) string {
	t = t.In(Location())
	return fmt.Sprintf("%02d/%d", int(t.Month()), t.Year())
}

// ValidMonthKey reports whether s is a well-formed "MM/YYYY" key.
func ValidMonthKey(s string) bool {
	return monthKeyRe.MatchString(s)
}

// MonthBounds returns [start, end) of the month containing t in the
// canonical timezone.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	loc := Location()
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// PreviousMonthKey returns the key of the month before the one containing t.
func PreviousMonthKey(t time.Time) string {
	start, _ := MonthBounds(t)
	return MonthKey(start.AddDate(0, 0, -1))
}
