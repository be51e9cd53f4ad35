package bridge

import (
	"context"
	"errors"

	"github.com/dtroode/appblock/internal/model"
	"github.com/dtroode/appblock/internal/permission"
)

var (
	_ model.Navigator            = navigator{}
	_ model.NotificationService  = notifier{}
	_ permission.Capability      = accessibility{}
	_ permission.GatedCapability = notificationPermission{}
	_ permission.Capability      = deviceAdmin{}
)

// Navigator sends the user home through the shim.
func (h *Hub) Navigator() model.Navigator { return navigator{h} }

// Notifier shows the companion notification through the shim. The wanted
// state survives reattaches.
func (h *Hub) Notifier() model.NotificationService { return notifier{h} }

func (h *Hub) Accessibility() permission.Capability { return accessibility{h} }

func (h *Hub) NotificationPermission() permission.GatedCapability {
	return notificationPermission{h}
}

func (h *Hub) DeviceAdmin() permission.Capability { return deviceAdmin{h} }

// platformState returns the last reported state. Before the attached shim
// reports anything the state is unknown.
func (h *Hub) platformState() (PlatformState, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current == nil || !h.known {
		return PlatformState{}, ErrNotAttached
	}
	return h.state, nil
}

type navigator struct{ h *Hub }

func (n navigator) GoHome(ctx context.Context, opts model.HomeOptions) error {
	return n.h.send(ctx, CommandGoHome, map[string]interface{}{"flags": homeFlags(opts)})
}

type notifier struct{ h *Hub }

func (n notifier) Start(ctx context.Context) error {
	return n.set(ctx, true, CommandStartNotification)
}

func (n notifier) Stop(ctx context.Context) error {
	return n.set(ctx, false, CommandStopNotification)
}

func (n notifier) set(ctx context.Context, on bool, cmd CommandType) error {
	n.h.mu.Lock()
	n.h.notificationOn = on
	n.h.mu.Unlock()

	// replayed on attach
	if err := n.h.send(ctx, cmd, nil); err != nil && !errors.Is(err, ErrNotAttached) {
		return err
	}
	return nil
}

type accessibility struct{ h *Hub }

func (a accessibility) Query(context.Context) (bool, error) {
	state, err := a.h.platformState()
	return state.AccessibilityEnabled, err
}

func (a accessibility) Request(ctx context.Context) error {
	return a.h.send(ctx, CommandOpenAccessibilitySettings, nil)
}

func (a accessibility) Observe(onChange func()) func() {
	a.h.mu.Lock()
	id := a.h.nextObserver
	a.h.nextObserver++
	a.h.observers[id] = onChange
	a.h.mu.Unlock()

	return func() {
		a.h.mu.Lock()
		delete(a.h.observers, id)
		a.h.mu.Unlock()
	}
}

type notificationPermission struct{ h *Hub }

// Supported assumes support while the platform is unknown so that the
// request is not skipped.
func (n notificationPermission) Supported() bool {
	state, err := n.h.platformState()
	return err != nil || state.NotificationSupported
}

func (n notificationPermission) Query(context.Context) (bool, error) {
	state, err := n.h.platformState()
	return state.NotificationGranted, err
}

func (n notificationPermission) Request(ctx context.Context) error {
	return n.h.send(ctx, CommandRequestNotificationPermission, nil)
}

func (n notificationPermission) Observe(func()) func() { return func() {} }

type deviceAdmin struct{ h *Hub }

func (d deviceAdmin) Query(context.Context) (bool, error) {
	state, err := d.h.platformState()
	return state.AdminActive, err
}

func (d deviceAdmin) Request(ctx context.Context) error {
	return d.h.send(ctx, CommandRequestDeviceAdmin, nil)
}

func (d deviceAdmin) Observe(func()) func() { return func() {} }
