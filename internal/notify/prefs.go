// Package notify implements per-event notification preferences, the
// mapping from lead time to a named threshold, and desktop delivery.
package notify

import (
	"fmt"
	"strings"
)

// Vocabulary is the fixed set of threshold names in canonical order.
var Vocabulary = []string{"month", "week", "day", "hour", "now"}

// Preference is a canonical comma-separated subset of the threshold
// vocabulary, or the sentinel "never".
type Preference string

// Never disables all notifications for an event.
const Never = Preference("never")

// DefaultPreference allows every threshold.
const DefaultPreference = Preference("month,week,day,hour,now")

// Normalize turns free-form user input into a canonical Preference.
// Tokens are trimmed, lowercased, deduplicated and reordered into the
// canonical order. "default"/"defaults" yield DefaultPreference, "never"
// yields Never. Every invalid token is reported, not just the first.
func Normalize(input string) (Preference, error) {
	v := strings.ToLower(strings.TrimSpace(input))
	if v == "" {
		return "", fmt.Errorf("empty notify value")
	}
	switch v {
	case "default", "defaults":
		return DefaultPreference, nil
	case "never":
		return Never, nil
	}

	tokens := make(map[string]bool)
	var invalid []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !validToken(part) {
			invalid = append(invalid, part)
			continue
		}
		tokens[part] = true
	}
	if len(invalid) > 0 {
		return "", fmt.Errorf("invalid threshold(s): %s", strings.Join(invalid, ", "))
	}
	if len(tokens) == 0 {
		return "", fmt.Errorf("no thresholds specified")
	}

	ordered := make([]string, 0, len(tokens))
	for _, name := range Vocabulary {
		if tokens[name] {
			ordered = append(ordered, name)
		}
	}
	return Preference(strings.Join(ordered, ",")), nil
}

// Allows reports whether the preference permits the named threshold.
func (p Preference) Allows(threshold string) bool {
	if p == Never {
		return false
	}
	for _, name := range strings.Split(string(p), ",") {
		if name == threshold {
			return true
		}
	}
	return false
}

func validToken(s string) bool {
	for _, name := range Vocabulary {
		if s == name {
			return true
		}
	}
	return false
}
