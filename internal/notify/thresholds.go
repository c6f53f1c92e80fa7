package notify

import (
	"sort"
	"time"
)

// Threshold maps a name from the vocabulary to the maximum lead time it
// covers.
type Threshold struct {
	Name string
	Max  time.Duration
}

// DefaultThresholds are the standard lead-time buckets, ordered
// ascending as Pick expects. "now" is not listed: it is an
// unconditional window handled by Pick itself.
var DefaultThresholds = []Threshold{
	{Name: "hour", Max: time.Hour},
	{Name: "day", Max: 24 * time.Hour},
	{Name: "week", Max: 7 * 24 * time.Hour},
	{Name: "month", Max: 30 * 24 * time.Hour},
}

// nowWindow is the lead time below which an occurrence is "now",
// regardless of the configured thresholds.
const nowWindow = 4 * time.Minute

// Sorted returns a copy of thresholds ordered ascending by Max, the
// order Pick expects. Callers with custom thresholds sort once up
// front rather than on every Pick.
func Sorted(thresholds []Threshold) []Threshold {
	out := make([]Threshold, len(thresholds))
	copy(out, thresholds)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Max < out[j].Max })
	return out
}

// Pick returns the threshold name for the given time remaining until an
// occurrence: the tightest configured bound not yet breached, or "now"
// within the final four minutes. It returns "" when the occurrence has
// already started or is further out than the widest bound. The
// thresholds must be ordered ascending by Max (see Sorted).
func Pick(until time.Duration, thresholds []Threshold) string {
	if until < 0 {
		return ""
	}
	if until <= nowWindow {
		return "now"
	}
	for _, t := range thresholds {
		if until <= t.Max {
			return t.Name
		}
	}
	return ""
}

// Horizon returns the widest configured lead time, which bounds how far
// ahead a scheduling pass needs to look.
func Horizon(thresholds []Threshold) time.Duration {
	var max time.Duration
	for _, t := range thresholds {
		if t.Max > max {
			max = t.Max
		}
	}
	return max
}
