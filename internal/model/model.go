// Package model defines the domain types used across the application.
package model

import "time"

// Event represents a stored calendar event, possibly recurring.
// Start and End are absolute UTC instants; End is always after Start.
type Event struct {
	ID          int64
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	AllDay      bool
	RRule       string      // iCalendar RRULE string, empty for one-off events
	ExDates     []time.Time // recurrence instances to suppress
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Duration returns the fixed length shared by every occurrence of the event.
func (e *Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Occurrence is one concrete time instance of an event. It is derived on
// every expansion and never persisted; (Event.ID, Start) identifies it.
type Occurrence struct {
	Event *Event
	Start time.Time
	End   time.Time
}

// DisplayTitle returns the title with the location appended, if any.
func (o Occurrence) DisplayTitle() string {
	if o.Event.Location != "" {
		return o.Event.Title + " @ " + o.Event.Location
	}
	return o.Event.Title
}

// DisplayTimeRange renders the occurrence's time span in the given
// timezone for display. All-day events show only the date.
func (o Occurrence) DisplayTimeRange(loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	s := o.Start.In(loc)
	e := o.End.In(loc)
	if o.Event.AllDay {
		return s.Format("2006-01-02") + " (all day)"
	}
	if s.Year() == e.Year() && s.YearDay() == e.YearDay() {
		return s.Format("2006-01-02 15:04") + " - " + e.Format("15:04")
	}
	return s.Format("2006-01-02 15:04") + " - " + e.Format("2006-01-02 15:04")
}
