// Package notify tells the desktop user that a transfer session finished.
package notify

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/kriansa/mtp-copy/internal/log"
	"github.com/kriansa/mtp-copy/internal/version"
)

const (
	dbusService   = "org.freedesktop.Notifications"
	dbusPath      = "/org/freedesktop/Notifications"
	dbusInterface = "org.freedesktop.Notifications"

	// defaultTimeout lets the notification server pick the expiry
	defaultTimeout = int32(-1)
)

// Notifier delivers a short message to the user
type Notifier interface {
	Notify(summary, body string) error
}

// Nop discards notifications
type Nop struct{}

func (Nop) Notify(string, string) error { return nil }

// DBusNotifier sends notifications through org.freedesktop.Notifications
type DBusNotifier struct {
	conn    DBusConnection
	appName string
	icon    string
}

// DBusNotifierOption is a functional option for DBusNotifier
type DBusNotifierOption func(*DBusNotifier)

// WithConnection sets a custom DBus connection (for testing)
func WithConnection(conn DBusConnection) DBusNotifierOption {
	return func(n *DBusNotifier) {
		n.conn = conn
	}
}

// WithIcon sets the icon name shown with the notification
func WithIcon(icon string) DBusNotifierOption {
	return func(n *DBusNotifier) {
		n.icon = icon
	}
}

// NewDBusNotifier connects to the session bus unless a connection is given
func NewDBusNotifier(opts ...DBusNotifierOption) (*DBusNotifier, error) {
	n := &DBusNotifier{
		appName: version.Name,
		icon:    "drive-removable-media",
	}
	for _, opt := range opts {
		opt(n)
	}

	if n.conn == nil {
		conn, err := ConnectSessionBus()
		if err != nil {
			return nil, fmt.Errorf("connect to session bus: %w", err)
		}
		n.conn = conn
	}

	return n, nil
}

// Notify shows summary and body as a desktop notification
func (n *DBusNotifier) Notify(summary, body string) error {
	obj := n.conn.Object(dbusService, dbus.ObjectPath(dbusPath))

	call := obj.Call(dbusInterface+".Notify", 0,
		n.appName,
		uint32(0),
		n.icon,
		summary,
		body,
		[]string{},
		map[string]dbus.Variant{},
		defaultTimeout,
	)
	if call.Err != nil {
		return fmt.Errorf("Notify: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return fmt.Errorf("store Notify result: %w", err)
	}

	log.Debug("notification sent", "id", id, "summary", summary)
	return nil
}

// Close closes the DBus connection
func (n *DBusNotifier) Close() error {
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
