// Package expand turns stored events into concrete occurrences within a
// time window.
package expand

import (
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"agenda/internal/model"
)

// Event expands a single event against [windowStart, windowEnd].
//
// A non-recurring event yields its one occurrence iff it overlaps the
// window half-open: End > windowStart && Start < windowEnd. A recurring
// event enumerates its rule inclusive of both window bounds; the rule
// engine's native between semantics are kept as-is. Exception instants
// are compared at whole-second precision.
func Event(ev *model.Event, windowStart, windowEnd time.Time) ([]model.Occurrence, error) {
	duration := ev.Duration()

	if ev.RRule == "" {
		if ev.End.After(windowStart) && ev.Start.Before(windowEnd) {
			return []model.Occurrence{{Event: ev, Start: ev.Start, End: ev.Start.Add(duration)}}, nil
		}
		return nil, nil
	}

	rule, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		return nil, fmt.Errorf("parse rrule %q: %w", ev.RRule, err)
	}
	rule.DTStart(ev.Start.UTC())

	exset := make(map[time.Time]struct{}, len(ev.ExDates))
	for _, ex := range ev.ExDates {
		exset[ex.UTC().Truncate(time.Second)] = struct{}{}
	}

	var out []model.Occurrence
	for _, start := range rule.Between(windowStart.UTC(), windowEnd.UTC(), true) {
		if _, skip := exset[start.UTC().Truncate(time.Second)]; skip {
			continue
		}
		out = append(out, model.Occurrence{Event: ev, Start: start, End: start.Add(duration)})
	}
	return out, nil
}

// Between expands every event against the same window and merges the
// results, sorted ascending by start. The sort is stable, so events that
// start at the same instant keep the order of the input slice. It fails
// on the first malformed recurrence rule; callers that must survive a
// bad event expand per event instead.
func Between(events []model.Event, windowStart, windowEnd time.Time) ([]model.Occurrence, error) {
	var out []model.Occurrence
	for i := range events {
		occs, err := Event(&events[i], windowStart, windowEnd)
		if err != nil {
			return nil, fmt.Errorf("expand event %d: %w", events[i].ID, err)
		}
		out = append(out, occs...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}
