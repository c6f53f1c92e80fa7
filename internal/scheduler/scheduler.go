// Package scheduler runs the periodic notification pass over upcoming
// occurrences.
package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"agenda/internal/expand"
	"agenda/internal/model"
	"agenda/internal/notify"
	"agenda/internal/storage"
	"agenda/internal/timeutil"
)

// deliverTimeout bounds a single delivery call so a hung notification
// service cannot stall the whole pass.
const deliverTimeout = 30 * time.Second

// Notifier is the interface for delivering desktop notifications.
type Notifier interface {
	Deliver(ctx context.Context, summary, body string) error
}

// Scheduler periodically scans upcoming occurrences and sends each due
// notification at most once per (occurrence, threshold) pair.
type Scheduler struct {
	store      storage.Storage
	notifier   Notifier
	log        *slog.Logger
	tick       time.Duration
	thresholds []notify.Threshold
	display    *time.Location
	now        func() time.Time
}

// New creates a Scheduler with the default thresholds and a 5-minute
// check interval.
func New(store storage.Storage, notifier Notifier, log *slog.Logger) *Scheduler {
	return &Scheduler{
		store:      store,
		notifier:   notifier,
		log:        log,
		tick:       5 * time.Minute,
		thresholds: notify.DefaultThresholds,
		display:    time.Local,
		now:        time.Now,
	}
}

// SetTickInterval overrides the default 5-minute check interval.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// SetThresholds overrides the default lead-time buckets. The slice is
// copied and sorted once here, so passes pick from it directly.
func (s *Scheduler) SetThresholds(thresholds []notify.Threshold) {
	s.thresholds = notify.Sorted(thresholds)
}

// SetClock overrides the time source (useful for testing).
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// SetDisplayLocation overrides the timezone used in notification bodies.
func (s *Scheduler) SetDisplayLocation(loc *time.Location) {
	s.display = loc
}

// Run starts the scheduler loop, blocking until ctx is cancelled. Every
// pass catches its own errors, so the loop never terminates on one.
func (s *Scheduler) Run(ctx context.Context) {
	s.CheckOnce(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CheckOnce(ctx)
		}
	}
}

// CheckOnce performs one scheduling pass and returns the number of
// notifications actually sent. Failures on a single event or occurrence
// are logged and skipped; they never abort the pass.
func (s *Scheduler) CheckOnce(ctx context.Context) int {
	now := s.now().UTC()
	horizon := now.Add(notify.Horizon(s.thresholds))

	events, err := s.store.ListEvents(ctx)
	if err != nil {
		s.log.Error("list events", "error", err)
		return 0
	}

	var occs []model.Occurrence
	for i := range events {
		expanded, err := expand.Event(&events[i], now, horizon)
		if err != nil {
			s.log.Error("expand event", "event_id", events[i].ID, "error", err)
			continue
		}
		occs = append(occs, expanded...)
	}
	sort.SliceStable(occs, func(i, j int) bool { return occs[i].Start.Before(occs[j].Start) })

	prefs := make(map[int64]notify.Preference)
	sent := 0

	for _, occ := range occs {
		if ctx.Err() != nil {
			return sent
		}

		threshold := notify.Pick(occ.Start.Sub(now), s.thresholds)
		if threshold == "" {
			continue
		}

		pref, ok := prefs[occ.Event.ID]
		if !ok {
			pref, err = s.store.GetNotifyPreference(ctx, occ.Event.ID)
			if err != nil {
				s.log.Error("get notify preference", "event_id", occ.Event.ID, "error", err)
				continue
			}
			prefs[occ.Event.ID] = pref
		}
		if !pref.Allows(threshold) {
			continue
		}

		startKey := timeutil.FormatStamp(occ.Start)
		exists, err := s.store.NotificationExists(ctx, occ.Event.ID, startKey, threshold)
		if err != nil {
			s.log.Error("check notification", "event_id", occ.Event.ID, "error", err)
			continue
		}
		if exists {
			continue
		}

		summary, body := FormatNotification(occ, threshold, s.display)
		dctx, cancel := context.WithTimeout(ctx, deliverTimeout)
		err = s.notifier.Deliver(dctx, summary, body)
		cancel()
		if err != nil {
			// No record is written, so the next pass retries.
			s.log.Error("deliver notification", "event_id", occ.Event.ID,
				"start", startKey, "threshold", threshold, "error", err)
			continue
		}

		if err := s.store.RecordNotification(ctx, occ.Event.ID, startKey, threshold); err != nil {
			s.log.Error("record notification", "event_id", occ.Event.ID,
				"start", startKey, "threshold", threshold, "error", err)
			continue
		}
		sent++
		s.log.Info("notified", "event_id", occ.Event.ID, "start", startKey,
			"threshold", threshold, "prefs", string(pref))
	}

	if sent > 0 {
		s.log.Info("pass complete", "sent", sent)
	}
	return sent
}

var whenPhrases = map[string]string{
	"now":   "now",
	"hour":  "in about an hour",
	"day":   "today",
	"week":  "within a week",
	"month": "within a month",
}

// FormatNotification builds the summary and body for a due occurrence.
func FormatNotification(occ model.Occurrence, threshold string, loc *time.Location) (string, string) {
	when, ok := whenPhrases[threshold]
	if !ok {
		when = "soon"
	}
	local := timeutil.ToLocal(occ.Start, loc)
	body := when + "\n" + local.Format("2006-01-02 15:04")
	if occ.Event.Location != "" {
		body += " — " + occ.Event.Location
	}
	return "Upcoming: " + occ.Event.Title, body
}
