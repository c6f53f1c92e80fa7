package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"agenda/internal/model"
	"agenda/internal/notify"
	"agenda/internal/timeutil"
	"agenda/migrations"
)

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=OFF"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("disable foreign keys: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateEvent inserts a new event and populates its ID and timestamps.
func (s *SQLite) CreateEvent(ctx context.Context, ev *model.Event) error {
	now := time.Now().UTC().Truncate(time.Second)
	stamp := timeutil.FormatStamp(now)
	exdates, err := dumpExDates(ev.ExDates)
	if err != nil {
		return fmt.Errorf("encode exdates: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO events (title, description, location, start_utc, end_utc, all_day, rrule, exdates, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.Title, nullString(ev.Description), nullString(ev.Location),
		timeutil.FormatStamp(ev.Start), timeutil.FormatStamp(ev.End),
		boolToInt(ev.AllDay), nullString(ev.RRule), exdates, stamp, stamp,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	ev.ID = id
	ev.CreatedAt = now
	ev.UpdatedAt = now
	return nil
}

// GetEvent returns a single event by its ID.
func (s *SQLite) GetEvent(ctx context.Context, id int64) (*model.Event, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, location, start_utc, end_utc, all_day, rrule, exdates, created_at, updated_at
		 FROM events WHERE id = ?`, id,
	)
	return scanEvent(row)
}

// ListEvents returns all events ordered by start time, then ID.
func (s *SQLite) ListEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, location, start_utc, end_utc, all_day, rrule, exdates, created_at, updated_at
		 FROM events ORDER BY start_utc, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []model.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

// UpdateEvent persists changes to an existing event and refreshes its
// updated_at stamp.
func (s *SQLite) UpdateEvent(ctx context.Context, ev *model.Event) error {
	now := time.Now().UTC().Truncate(time.Second)
	exdates, err := dumpExDates(ev.ExDates)
	if err != nil {
		return fmt.Errorf("encode exdates: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE events SET title = ?, description = ?, location = ?, start_utc = ?, end_utc = ?,
		        all_day = ?, rrule = ?, exdates = ?, updated_at = ?
		 WHERE id = ?`,
		ev.Title, nullString(ev.Description), nullString(ev.Location),
		timeutil.FormatStamp(ev.Start), timeutil.FormatStamp(ev.End),
		boolToInt(ev.AllDay), nullString(ev.RRule), exdates,
		timeutil.FormatStamp(now), ev.ID,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	ev.UpdatedAt = now
	return nil
}

// DeleteEvent removes an event together with its notification preference
// and notification records.
func (s *SQLite) DeleteEvent(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM notifications WHERE event_id = ?`, id); err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM event_notify WHERE event_id = ?`, id); err != nil {
		return fmt.Errorf("delete event_notify: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return tx.Commit()
}

// GetNotifyPreference returns the stored preference for an event, or the
// default set when none was stored.
func (s *SQLite) GetNotifyPreference(ctx context.Context, eventID int64) (notify.Preference, error) {
	var pref string
	err := s.db.QueryRowContext(ctx,
		`SELECT notify FROM event_notify WHERE event_id = ?`, eventID,
	).Scan(&pref)
	if err == sql.ErrNoRows || (err == nil && pref == "") {
		return notify.DefaultPreference, nil
	}
	if err != nil {
		return "", fmt.Errorf("query notify preference: %w", err)
	}
	return notify.Preference(pref), nil
}

// SetNotifyPreference stores or overwrites the preference for an event.
func (s *SQLite) SetNotifyPreference(ctx context.Context, eventID int64, pref notify.Preference) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO event_notify (event_id, notify) VALUES (?, ?)
		 ON CONFLICT(event_id) DO UPDATE SET notify = excluded.notify`,
		eventID, string(pref),
	)
	if err != nil {
		return fmt.Errorf("set notify preference: %w", err)
	}
	return nil
}

// NotificationExists checks whether a notification was already sent for
// the given (event, occurrence start, threshold) key.
func (s *SQLite) NotificationExists(ctx context.Context, eventID int64, occurrenceStart, threshold string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE event_id = ? AND occurrence_start = ? AND threshold = ?`,
		eventID, occurrenceStart, threshold,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check notification: %w", err)
	}
	return count > 0, nil
}

// RecordNotification records a sent notification. The insert is
// idempotent: a record that already exists is left untouched.
func (s *SQLite) RecordNotification(ctx context.Context, eventID int64, occurrenceStart, threshold string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO notifications (event_id, occurrence_start, threshold, notified_at)
		 VALUES (?, ?, ?, ?)`,
		eventID, occurrenceStart, threshold, timeutil.FormatStamp(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("record notification: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func dumpExDates(exdates []time.Time) (string, error) {
	stamps := make([]string, 0, len(exdates))
	for _, d := range exdates {
		stamps = append(stamps, timeutil.FormatStamp(d))
	}
	b, err := json.Marshal(stamps)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func loadExDates(raw sql.NullString) ([]time.Time, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var stamps []string
	if err := json.Unmarshal([]byte(raw.String), &stamps); err != nil {
		return nil, fmt.Errorf("decode exdates: %w", err)
	}
	if len(stamps) == 0 {
		return nil, nil
	}
	out := make([]time.Time, 0, len(stamps))
	for _, s := range stamps {
		t, err := timeutil.ParseStamp(s)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanEvent(row scannable) (*model.Event, error) {
	var (
		ev                        model.Event
		desc, loc, rrule, exdates sql.NullString
		startStr, endStr          string
		created, updated          sql.NullString
		allDay                    int
	)
	err := row.Scan(&ev.ID, &ev.Title, &desc, &loc, &startStr, &endStr, &allDay, &rrule, &exdates, &created, &updated)
	if err != nil {
		return nil, fmt.Errorf("scan event: %w", err)
	}
	ev.Description = desc.String
	ev.Location = loc.String
	ev.RRule = rrule.String
	ev.AllDay = allDay == 1
	if ev.Start, err = timeutil.ParseStamp(startStr); err != nil {
		return nil, err
	}
	if ev.End, err = timeutil.ParseStamp(endStr); err != nil {
		return nil, err
	}
	if ev.ExDates, err = loadExDates(exdates); err != nil {
		return nil, err
	}
	if created.Valid {
		ev.CreatedAt, _ = timeutil.ParseStamp(created.String)
	}
	if updated.Valid {
		ev.UpdatedAt, _ = timeutil.ParseStamp(updated.String)
	}
	return &ev, nil
}
