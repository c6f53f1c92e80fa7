package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"agenda/internal/model"
	"agenda/internal/notify"
	"agenda/internal/timeutil"
)

var ignoreTimestamps = cmpopts.IgnoreFields(model.Event{}, "CreatedAt", "UpdatedAt")

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestEventCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	tests := []struct {
		name  string
		event model.Event
	}{
		{
			name: "basic event",
			event: model.Event{
				Title:       "Dentist",
				Description: "Bring insurance card",
				Location:    "Main St 5",
				Start:       time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC),
				End:         time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "recurring all-day event with exceptions",
			event: model.Event{
				Title:  "Standup",
				Start:  time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC),
				End:    time.Date(2025, 7, 8, 0, 0, 0, 0, time.UTC),
				AllDay: true,
				RRule:  "FREQ=WEEKLY;BYDAY=MO",
				ExDates: []time.Time{
					time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC),
					time.Date(2025, 7, 28, 0, 0, 0, 0, time.UTC),
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := tt.event
			if err := s.CreateEvent(ctx, &ev); err != nil {
				t.Fatalf("create: %v", err)
			}
			if ev.ID == 0 {
				t.Fatal("expected non-zero ID")
			}
			if ev.CreatedAt.IsZero() || ev.UpdatedAt.IsZero() {
				t.Fatal("expected timestamps to be set")
			}

			got, err := s.GetEvent(ctx, ev.ID)
			if err != nil {
				t.Fatalf("get: %v", err)
			}

			want := tt.event
			want.ID = ev.ID
			if diff := cmp.Diff(want, *got, ignoreTimestamps); diff != "" {
				t.Errorf("GetEvent mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUpdateEvent(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	ev := model.Event{
		Title: "Old title",
		Start: time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := s.CreateEvent(ctx, &ev); err != nil {
		t.Fatalf("create: %v", err)
	}

	ev.Title = "New title"
	ev.Location = "Elsewhere"
	ev.Start = time.Date(2025, 7, 2, 9, 0, 0, 0, time.UTC)
	ev.End = time.Date(2025, 7, 2, 9, 30, 0, 0, time.UTC)
	if err := s.UpdateEvent(ctx, &ev); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := s.GetEvent(ctx, ev.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(ev, *got, ignoreTimestamps); diff != "" {
		t.Errorf("UpdateEvent mismatch (-want +got):\n%s", diff)
	}
}

func TestListEventsOrderedByStart(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	later := model.Event{
		Title: "Later",
		Start: time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC),
	}
	earlier := model.Event{
		Title: "Earlier",
		Start: time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC),
	}
	for _, ev := range []*model.Event{&later, &earlier} {
		if err := s.CreateEvent(ctx, ev); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := s.ListEvents(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Title != "Earlier" || got[1].Title != "Later" {
		t.Errorf("unexpected order: %q, %q", got[0].Title, got[1].Title)
	}
}

func TestIDsNeverReused(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	first := model.Event{
		Title: "First",
		Start: time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := s.CreateEvent(ctx, &first); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.DeleteEvent(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	second := first
	second.ID = 0
	if err := s.CreateEvent(ctx, &second); err != nil {
		t.Fatalf("create again: %v", err)
	}
	if second.ID <= first.ID {
		t.Errorf("expected fresh ID > %d, got %d", first.ID, second.ID)
	}
}

func TestNotifyPreference(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	ev := model.Event{
		Title: "Meeting",
		Start: time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := s.CreateEvent(ctx, &ev); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Nothing stored: the default set applies.
	pref, err := s.GetNotifyPreference(ctx, ev.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if pref != notify.DefaultPreference {
		t.Errorf("expected default preference, got %q", pref)
	}

	if err := s.SetNotifyPreference(ctx, ev.ID, "hour,now"); err != nil {
		t.Fatalf("set: %v", err)
	}
	pref, err = s.GetNotifyPreference(ctx, ev.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if pref != "hour,now" {
		t.Errorf("expected %q, got %q", "hour,now", pref)
	}

	// Upsert overwrites entirely.
	if err := s.SetNotifyPreference(ctx, ev.ID, notify.Never); err != nil {
		t.Fatalf("set never: %v", err)
	}
	pref, err = s.GetNotifyPreference(ctx, ev.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if pref != notify.Never {
		t.Errorf("expected never, got %q", pref)
	}
}

func TestNotificationLedger(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	ev := model.Event{
		Title: "Meeting",
		Start: time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := s.CreateEvent(ctx, &ev); err != nil {
		t.Fatalf("create: %v", err)
	}

	start := timeutil.FormatStamp(ev.Start)

	exists, err := s.NotificationExists(ctx, ev.ID, start, "hour")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Fatal("expected no record before insert")
	}

	if err := s.RecordNotification(ctx, ev.ID, start, "hour"); err != nil {
		t.Fatalf("record: %v", err)
	}
	// Inserting the same key again is not an error.
	if err := s.RecordNotification(ctx, ev.ID, start, "hour"); err != nil {
		t.Fatalf("record again: %v", err)
	}

	exists, err = s.NotificationExists(ctx, ev.ID, start, "hour")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !exists {
		t.Fatal("expected record after insert")
	}

	// A different threshold is an independent key.
	exists, err = s.NotificationExists(ctx, ev.ID, start, "now")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Fatal("expected no record for other threshold")
	}
}

func TestDeleteEventCascade(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	ev := model.Event{
		Title: "Doomed",
		Start: time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := s.CreateEvent(ctx, &ev); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.SetNotifyPreference(ctx, ev.ID, "hour"); err != nil {
		t.Fatalf("set pref: %v", err)
	}
	start := timeutil.FormatStamp(ev.Start)
	if err := s.RecordNotification(ctx, ev.ID, start, "hour"); err != nil {
		t.Fatalf("record: %v", err)
	}

	if err := s.DeleteEvent(ctx, ev.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := s.GetEvent(ctx, ev.ID); err == nil {
		t.Fatal("expected error getting deleted event")
	}

	pref, err := s.GetNotifyPreference(ctx, ev.ID)
	if err != nil {
		t.Fatalf("get pref: %v", err)
	}
	if pref != notify.DefaultPreference {
		t.Errorf("expected default preference after cascade, got %q", pref)
	}

	exists, err := s.NotificationExists(ctx, ev.ID, start, "hour")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Error("expected notification records to be deleted")
	}
}
