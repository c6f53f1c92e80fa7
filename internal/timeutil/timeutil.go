// Package timeutil handles conversions between local calendar time and
// the absolute UTC instants used for storage and comparison.
package timeutil

import (
	"fmt"
	"time"
)

// StampLayout is the persisted timestamp format: ISO-8601 in UTC with an
// explicit +00:00 offset, at whole-second granularity.
const StampLayout = "2006-01-02T15:04:05-07:00"

// FormatStamp renders an instant in the canonical storage form. The
// result is stable under re-parsing, so it doubles as a comparison key.
func FormatStamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(StampLayout)
}

// ParseStamp parses a canonical timestamp back into a UTC instant.
// It also accepts the Z-suffixed RFC 3339 form, which imported data
// may carry.
func ParseStamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// CombineDateTime builds a UTC instant from a local "YYYY-MM-DD" date
// and an optional "HH:MM" time of day. An empty timeStr means local
// midnight. A nil loc means the machine's local timezone.
func CombineDateTime(dateStr, timeStr string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation("2006-01-02", dateStr, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", dateStr, err)
	}
	if timeStr == "" {
		return day.UTC(), nil
	}
	tod, err := time.Parse("15:04", timeStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", timeStr, err)
	}
	local := time.Date(day.Year(), day.Month(), day.Day(), tod.Hour(), tod.Minute(), 0, 0, loc)
	return local.UTC(), nil
}

// DayWindow returns the absolute interval [local midnight, next local
// midnight) covering the calendar day that contains t in loc. The end is
// computed by zoned date arithmetic, so days shortened or stretched by a
// DST transition keep their real length.
func DayWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start.UTC(), end.UTC()
}

// ToLocal projects a UTC instant into loc for display. A nil loc means
// the machine's local timezone.
func ToLocal(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc)
}
