// Package ics imports events from iCalendar files.
package ics

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"agenda/internal/model"
)

// Parse reads an iCalendar payload and converts every VEVENT into an
// Event ready for storage. Times without a timezone are interpreted in
// loc (nil means the machine's local timezone); all results are UTC.
func Parse(r io.Reader, loc *time.Location) ([]model.Event, error) {
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	var events []model.Event
	for _, ve := range cal.Events() {
		ev, err := parseVEvent(ve, loc)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (model.Event, error) {
	var ev model.Event

	ev.Title = "Untitled"
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil && p.Value != "" {
		ev.Title = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		ev.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		ev.Location = p.Value
	}

	dtstart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtstart == nil || dtstart.Value == "" {
		return ev, fmt.Errorf("event %q: missing DTSTART", ev.Title)
	}
	ev.AllDay = isDateValue(dtstart)

	start, err := parsePropTime(dtstart, loc)
	if err != nil {
		return ev, fmt.Errorf("event %q: %w", ev.Title, err)
	}
	ev.Start = start

	// DTEND wins; a DURATION property is honored in its absence. An
	// event carrying neither lasts one hour.
	ev.End = start.Add(time.Hour)
	if dtend := ve.GetProperty(ical.ComponentPropertyDtEnd); dtend != nil && dtend.Value != "" {
		end, err := parsePropTime(dtend, loc)
		if err != nil {
			return ev, fmt.Errorf("event %q: %w", ev.Title, err)
		}
		ev.End = end
	} else if p := ve.GetProperty(ical.ComponentPropertyDuration); p != nil && p.Value != "" {
		d, err := parseICSDuration(p.Value)
		if err != nil {
			return ev, fmt.Errorf("event %q: %w", ev.Title, err)
		}
		ev.End = start.Add(d)
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		ev.RRule = p.Value
	}

	// EXDATE can appear multiple times, each carrying a comma-separated
	// list of instants.
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			t, err := parseICSTime(part, propLocation(p, loc))
			if err != nil {
				return ev, fmt.Errorf("event %q: exdate: %w", ev.Title, err)
			}
			ev.ExDates = append(ev.ExDates, t)
		}
	}

	return ev, nil
}

// isDateValue reports whether a DTSTART/DTEND property carries a bare
// date (VALUE=DATE or no time component).
func isDateValue(p *ical.IANAProperty) bool {
	if params := p.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			return true
		}
	}
	return !strings.Contains(p.Value, "T")
}

func parsePropTime(p *ical.IANAProperty, loc *time.Location) (time.Time, error) {
	return parseICSTime(p.Value, propLocation(p, loc))
}

// propLocation resolves the property's TZID parameter, falling back to
// loc for floating times.
func propLocation(p *ical.IANAProperty, loc *time.Location) *time.Location {
	if params := p.ICalParameters; params != nil {
		if tzs, ok := params["TZID"]; ok && len(tzs) > 0 {
			if tzloc, err := time.LoadLocation(tzs[0]); err == nil {
				return tzloc
			}
		}
	}
	return loc
}

// parseICSDuration parses an RFC 5545 DURATION value, e.g. "PT1H30M",
// "P2D" or "-PT15M". Calendar durations use nominal day and week
// lengths.
func parseICSDuration(v string) (time.Duration, error) {
	s := strings.TrimSpace(v)
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if !strings.HasPrefix(s, "P") {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	s = s[1:]

	var d time.Duration
	var num int64
	hasNum := false
	inTime := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			num = num*10 + int64(r-'0')
			hasNum = true
		case r == 'T':
			inTime = true
		default:
			if !hasNum {
				return 0, fmt.Errorf("invalid duration %q", v)
			}
			var unit time.Duration
			switch {
			case r == 'W' && !inTime:
				unit = 7 * 24 * time.Hour
			case r == 'D' && !inTime:
				unit = 24 * time.Hour
			case r == 'H' && inTime:
				unit = time.Hour
			case r == 'M' && inTime:
				unit = time.Minute
			case r == 'S' && inTime:
				unit = time.Second
			default:
				return 0, fmt.Errorf("invalid duration %q", v)
			}
			d += time.Duration(num) * unit
			num = 0
			hasNum = false
		}
	}
	if hasNum {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	if neg {
		d = -d
	}
	return d, nil
}

// parseICSTime parses the basic ICS DATE/DATE-TIME forms into a UTC
// instant. Floating values are interpreted in loc.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case strings.HasSuffix(v, "Z"):
		t, err := time.Parse("20060102T150405Z", v)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date-time %q: %w", v, err)
		}
		return t.UTC(), nil
	case strings.Contains(v, "T"):
		t, err := time.ParseInLocation("20060102T150405", v, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date-time %q: %w", v, err)
		}
		return t.UTC(), nil
	default:
		t, err := time.ParseInLocation("20060102", v, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q: %w", v, err)
		}
		return t.UTC(), nil
	}
}
