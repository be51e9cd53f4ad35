package notification

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/dtroode/appblock/internal/logger"
	"github.com/dtroode/appblock/internal/model"
)

const (
	dbusDestination = "org.freedesktop.Notifications"
	dbusObjectPath  = "/org/freedesktop/Notifications"
	methodNotify    = dbusDestination + ".Notify"
	methodClose     = dbusDestination + ".CloseNotification"

	appName = "appblock"
	appIcon = "security-high"
)

var _ model.NotificationService = (*DBus)(nil)

type busObject interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// DBus shows the companion notification through the freedesktop
// notification server. The notification is resident and never expires.
type DBus struct {
	obj    busObject
	conn   *dbus.Conn
	title  string
	body   string
	logger *logger.Logger

	mu sync.Mutex
	id uint32
}

// NewDBus connects to the session bus.
func NewDBus(title, body string, logger *logger.Logger) (*DBus, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	n := newDBus(conn.Object(dbusDestination, dbus.ObjectPath(dbusObjectPath)), title, body, logger)
	n.conn = conn

	return n, nil
}

func newDBus(obj busObject, title, body string, logger *logger.Logger) *DBus {
	return &DBus{
		obj:    obj,
		title:  title,
		body:   body,
		logger: logger,
	}
}

func (n *DBus) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.id != 0 {
		return nil
	}

	hints := map[string]dbus.Variant{
		"resident": dbus.MakeVariant(true),
		"urgency":  dbus.MakeVariant(byte(1)),
	}
	call := n.obj.CallWithContext(ctx, methodNotify, 0,
		appName, uint32(0), appIcon, n.title, n.body, []string{}, hints, int32(0))

	var id uint32
	if err := call.Store(&id); err != nil {
		return fmt.Errorf("failed to show notification: %w", err)
	}
	n.id = id

	n.logger.Debug("DBus notification: shown", "id", id)
	return nil
}

func (n *DBus) Stop(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.id == 0 {
		return nil
	}

	if call := n.obj.CallWithContext(ctx, methodClose, 0, n.id); call.Err != nil {
		return fmt.Errorf("failed to close notification: %w", call.Err)
	}

	n.logger.Debug("DBus notification: closed", "id", n.id)
	n.id = 0
	return nil
}

// Close releases the bus connection.
func (n *DBus) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Close()
}

var _ model.NotificationService = Silent{}

// Silent is used when no notification surface is available.
type Silent struct{}

func (Silent) Start(context.Context) error { return nil }

func (Silent) Stop(context.Context) error { return nil }
