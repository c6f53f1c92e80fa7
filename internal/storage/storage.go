// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"

	"agenda/internal/model"
	"agenda/internal/notify"
)

// Storage is the interface for all persistence operations.
type Storage interface {
	CreateEvent(ctx context.Context, ev *model.Event) error
	GetEvent(ctx context.Context, id int64) (*model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	UpdateEvent(ctx context.Context, ev *model.Event) error
	DeleteEvent(ctx context.Context, id int64) error

	GetNotifyPreference(ctx context.Context, eventID int64) (notify.Preference, error)
	SetNotifyPreference(ctx context.Context, eventID int64, pref notify.Preference) error

	NotificationExists(ctx context.Context, eventID int64, occurrenceStart, threshold string) (bool, error)
	RecordNotification(ctx context.Context, eventID int64, occurrenceStart, threshold string) error

	Close() error
}
