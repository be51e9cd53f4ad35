package permission

import (
	"context"
	"errors"
	"sync"

	"github.com/dtroode/appblock/internal/logger"
)

// ErrAccessibilityDenied is returned when the user refuses the
// accessibility prompt. The caller is expected to close the UI.
var ErrAccessibilityDenied = errors.New("accessibility permission denied")

// Capability is a platform permission that can be queried, requested and
// observed for changes.
type Capability interface {
	Query(ctx context.Context) (bool, error)
	Request(ctx context.Context) error
	Observe(onChange func()) (unregister func())
}

// GatedCapability is only available on some platform versions.
type GatedCapability interface {
	Capability
	Supported() bool
}

// Store persists the ladder inputs.
type Store interface {
	WatchAccessibilityEnabled(ctx context.Context) <-chan bool
	WatchAccessibilityRunning(ctx context.Context) <-chan bool
	WatchNotificationStored(ctx context.Context) <-chan bool
	WatchDeviceAdminStored(ctx context.Context) <-chan bool
	StoreAccessibilityEnabled(ctx context.Context, enabled bool) error
	StoreNotification(ctx context.Context, granted bool) error
	StoreDeviceAdmin(ctx context.Context, granted bool) error
}

type request int

const (
	requestNone request = iota
	requestNotification
	requestDeviceAdmin
)

// Cascade re-evaluates the permission ladder from the top whenever one of
// its inputs changes or the host resumes, and performs the side effect of
// the current step.
type Cascade struct {
	store         Store
	accessibility Capability
	notification  GatedCapability
	deviceAdmin   Capability
	logger        *logger.Logger

	mu         sync.Mutex
	gate       GateState
	step       Step
	pending    request
	unregister func()
	listeners  map[chan Step]struct{}
}

func NewCascade(
	store Store,
	accessibility Capability,
	notification GatedCapability,
	deviceAdmin Capability,
	logger *logger.Logger,
) *Cascade {
	// Start satisfied so nothing is prompted before the store is read.
	gate := GateState{
		AccessibilityApproved: true,
		AccessibilityRunning:  true,
		NotificationStored:    true,
		DeviceAdminStored:     true,
	}

	return &Cascade{
		store:         store,
		accessibility: accessibility,
		notification:  notification,
		deviceAdmin:   deviceAdmin,
		logger:        logger,
		gate:          gate,
		step:          Decide(gate),
		listeners:     make(map[chan Step]struct{}),
	}
}

// Run follows the stored inputs until ctx is done.
func (c *Cascade) Run(ctx context.Context) {
	approved := c.store.WatchAccessibilityEnabled(ctx)
	running := c.store.WatchAccessibilityRunning(ctx)
	notification := c.store.WatchNotificationStored(ctx)
	deviceAdmin := c.store.WatchDeviceAdminStored(ctx)

	defer c.unregisterObserver()

	// Every watch emits its current value first; the ladder is evaluated
	// only once all four are known.
	var initial GateState
	for _, in := range []struct {
		ch  <-chan bool
		dst *bool
	}{
		{approved, &initial.AccessibilityApproved},
		{running, &initial.AccessibilityRunning},
		{notification, &initial.NotificationStored},
		{deviceAdmin, &initial.DeviceAdminStored},
	} {
		select {
		case <-ctx.Done():
			return
		case value, ok := <-in.ch:
			if !ok {
				return
			}
			*in.dst = value
		}
	}
	c.setGate(func(g *GateState) { *g = initial })
	c.evaluate(ctx)

	for {
		var ok bool
		var value bool

		select {
		case <-ctx.Done():
			return
		case value, ok = <-approved:
			if ok {
				c.setGate(func(g *GateState) { g.AccessibilityApproved = value })
			}
		case value, ok = <-running:
			if ok {
				c.setGate(func(g *GateState) { g.AccessibilityRunning = value })
			}
		case value, ok = <-notification:
			if ok {
				c.setGate(func(g *GateState) { g.NotificationStored = value })
			}
		case value, ok = <-deviceAdmin:
			if ok {
				c.setGate(func(g *GateState) { g.DeviceAdminStored = value })
			}
		}
		if !ok {
			return
		}

		c.evaluate(ctx)
	}
}

func (c *Cascade) setGate(f func(*GateState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f(&c.gate)
}

// Resume re-probes accessibility enablement, as when the host screen
// comes back to the foreground, and re-evaluates the ladder.
func (c *Cascade) Resume(ctx context.Context) {
	enabled, err := c.accessibility.Query(ctx)
	if err != nil {
		c.logger.Warn("Permission cascade: failed to query accessibility", "error", err.Error())
	} else if err := c.store.StoreAccessibilityEnabled(ctx, enabled); err != nil {
		c.logger.Warn("Permission cascade: failed to store accessibility", "error", err.Error())
	} else {
		c.setGate(func(g *GateState) { g.AccessibilityApproved = enabled })
	}

	c.evaluate(ctx)
}

// Step returns the current step.
func (c *Cascade) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Gate returns the current inputs.
func (c *Cascade) Gate() GateState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gate
}

// Watch emits the current step and every change until ctx is done.
func (c *Cascade) Watch(ctx context.Context) <-chan Step {
	ch := make(chan Step, 1)

	c.mu.Lock()
	ch <- c.step
	c.listeners[ch] = struct{}{}
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.mu.Lock()
		delete(c.listeners, ch)
		close(ch)
		c.mu.Unlock()
	}()

	return ch
}

// ApproveAccessibility answers the accessibility prompt positively: the
// observer is registered and the settings screen opened.
func (c *Cascade) ApproveAccessibility(ctx context.Context) error {
	c.mu.Lock()
	if c.unregister == nil {
		c.unregister = c.accessibility.Observe(func() {
			c.Resume(context.WithoutCancel(ctx))
		})
	}
	c.mu.Unlock()

	return c.accessibility.Request(ctx)
}

// DenyAccessibility answers the accessibility prompt negatively.
func (c *Cascade) DenyAccessibility() error {
	c.unregisterObserver()
	return ErrAccessibilityDenied
}

// OnNotificationResult records the outcome of the notification request.
func (c *Cascade) OnNotificationResult(ctx context.Context, granted bool) {
	c.finishRequest(requestNotification)
	if err := c.store.StoreNotification(ctx, granted); err != nil {
		c.logger.Warn("Permission cascade: failed to store notification result", "error", err.Error())
	}
}

// OnDeviceAdminResult records the outcome of the device admin request.
func (c *Cascade) OnDeviceAdminResult(ctx context.Context, granted bool) {
	c.finishRequest(requestDeviceAdmin)
	if err := c.store.StoreDeviceAdmin(ctx, granted); err != nil {
		c.logger.Warn("Permission cascade: failed to store device admin result", "error", err.Error())
	}
}

// CancelPending forgets the request awaiting a result, as when the
// platform that would answer it goes away. The next evaluation issues it
// again.
func (c *Cascade) CancelPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = requestNone
}

func (c *Cascade) finishRequest(r request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == r {
		c.pending = requestNone
	}
}

func (c *Cascade) unregisterObserver() {
	c.mu.Lock()
	unregister := c.unregister
	c.unregister = nil
	c.mu.Unlock()

	if unregister != nil {
		unregister()
	}
}

func (c *Cascade) evaluate(ctx context.Context) {
	c.mu.Lock()
	step := Decide(c.gate)
	changed := step != c.step
	c.step = step

	if changed {
		for ch := range c.listeners {
			select {
			case ch <- step:
			default:
				select {
				case <-ch:
				default:
				}
				ch <- step
			}
		}
	}

	next := requestNone
	switch step {
	case StepNotification:
		next = requestNotification
	case StepDeviceAdmin:
		next = requestDeviceAdmin
	}
	// a request awaiting its result is not issued again; leaving its step
	// abandons it
	if c.pending != next {
		c.pending = requestNone
	}
	issue := next != requestNone && c.pending != next
	if issue {
		c.pending = next
	}
	c.mu.Unlock()

	if changed {
		c.logger.Info("Permission cascade: step changed", "step", step.String())
	}
	if step >= StepNotification {
		c.unregisterObserver()
	}

	switch {
	case issue && next == requestNotification:
		c.requestNotification(ctx)
	case issue && next == requestDeviceAdmin:
		c.requestDeviceAdmin(ctx)
	}
}

func (c *Cascade) requestNotification(ctx context.Context) {
	if !c.notification.Supported() {
		c.OnNotificationResult(ctx, true)
		return
	}

	granted, err := c.notification.Query(ctx)
	if err != nil {
		c.logger.Warn("Permission cascade: failed to query notification permission", "error", err.Error())
	}
	if granted {
		c.OnNotificationResult(ctx, true)
		return
	}

	if err := c.notification.Request(ctx); err != nil {
		c.logger.Error("Permission cascade: failed to request notification permission", "error", err.Error())
		c.finishRequest(requestNotification)
	}
}

func (c *Cascade) requestDeviceAdmin(ctx context.Context) {
	active, err := c.deviceAdmin.Query(ctx)
	if err != nil {
		c.logger.Warn("Permission cascade: failed to query device admin", "error", err.Error())
	}
	if active {
		c.OnDeviceAdminResult(ctx, true)
		return
	}

	if err := c.deviceAdmin.Request(ctx); err != nil {
		c.logger.Error("Permission cascade: failed to request device admin", "error", err.Error())
		c.finishRequest(requestDeviceAdmin)
	}
}
