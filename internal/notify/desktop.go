package notify

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	notifyObj    = "org.freedesktop.Notifications"
	notifyPath   = "/org/freedesktop/Notifications"
	notifyMethod = "org.freedesktop.Notifications.Notify"
)

// Desktop delivers notifications through the freedesktop notification
// service on the D-Bus session bus.
type Desktop struct {
	conn    *dbus.Conn
	appName string
}

// NewDesktop connects to the session bus.
func NewDesktop(appName string) (*Desktop, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	return &Desktop{conn: conn, appName: appName}, nil
}

// Deliver posts a single desktop notification. The call is bounded by
// ctx, so a hung notification service fails the delivery instead of
// stalling the caller.
func (d *Desktop) Deliver(ctx context.Context, summary, body string) error {
	obj := d.conn.Object(notifyObj, notifyPath)
	call := obj.CallWithContext(ctx, notifyMethod, 0,
		d.appName,                 // app_name
		uint32(0),                 // replaces_id
		"",                        // app_icon
		summary,                   // summary
		body,                      // body
		[]string{},                // actions
		map[string]dbus.Variant{}, // hints
		int32(-1),                 // expire_timeout: server default
	)
	if call.Err != nil {
		return fmt.Errorf("notify %q: %w", summary, call.Err)
	}
	return nil
}

// Close releases the bus connection.
func (d *Desktop) Close() error {
	return d.conn.Close()
}
