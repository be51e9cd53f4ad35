package monitor

import (
	"context"
	"sync/atomic"

	"github.com/dtroode/appblock/internal/logger"
	"github.com/dtroode/appblock/internal/model"
	"github.com/dtroode/appblock/internal/rules"
)

// BlockState is the switch the monitor follows.
type BlockState interface {
	Watch(ctx context.Context) <-chan bool
}

// RunningStore records whether the monitor is attached to the event source.
type RunningStore interface {
	StoreAccessibilityRunning(ctx context.Context, running bool) error
}

// RulesProvider returns the detection rules in effect.
type RulesProvider interface {
	Current() rules.Rules
}

// Monitor inspects foreground UI events and sends the user home when the
// blocked application shows one of its recognised pages.
type Monitor struct {
	blockState BlockState
	running    RunningStore
	navigator  model.Navigator
	notifier   model.NotificationService
	rules      RulesProvider
	logger     *logger.Logger

	blocked atomic.Bool
	done    chan struct{}
}

func New(
	blockState BlockState,
	running RunningStore,
	navigator model.Navigator,
	notifier model.NotificationService,
	rules RulesProvider,
	logger *logger.Logger,
) *Monitor {
	return &Monitor{
		blockState: blockState,
		running:    running,
		navigator:  navigator,
		notifier:   notifier,
		rules:      rules,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Start marks the monitor as not yet connected and follows the block
// state until ctx is done. The companion notification runs exactly while
// blocking is enabled and is stopped on shutdown.
func (m *Monitor) Start(ctx context.Context) {
	m.setRunning(ctx, false)

	states := m.blockState.Watch(ctx)

	go func() {
		defer close(m.done)
		defer m.stopNotification(context.WithoutCancel(ctx))

		for blocked := range states {
			m.blocked.Store(blocked)
			if blocked {
				m.startNotification(ctx)
			} else {
				m.stopNotification(ctx)
			}
		}
	}()
}

// Done is closed once the monitor has shut down.
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}

// Connected is called when the event source attaches.
func (m *Monitor) Connected(ctx context.Context) {
	m.setRunning(ctx, true)
}

// Disconnected is called when the event source goes away.
func (m *Monitor) Disconnected(ctx context.Context) {
	m.setRunning(ctx, false)
}

// Blocked reports the cached block state.
func (m *Monitor) Blocked() bool {
	return m.blocked.Load()
}

// HandleEvent inspects a single event. It never fails; anything that
// cannot be inspected results in no action.
func (m *Monitor) HandleEvent(ctx context.Context, ev model.UIEvent) {
	if ev.Kind != model.EventWindowStateChanged && ev.Kind != model.EventViewClicked {
		return
	}
	// hot path: nothing else is looked at while unblocked
	if !m.blocked.Load() {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Monitor: event inspection panicked", "package", ev.Package, "panic", r)
		}
	}()

	if !m.matches(ev) {
		return
	}

	m.logger.Debug("Monitor: blocked page detected", "package", ev.Package)
	if err := m.navigator.GoHome(ctx, model.DefaultHomeOptions); err != nil {
		m.logger.Error("Monitor: failed to go home", "error", err.Error())
	}
}

func (m *Monitor) matches(ev model.UIEvent) bool {
	r := m.rules.Current()
	if r.TargetPackage == "" || ev.Package != r.TargetPackage {
		return false
	}
	if ev.Root == nil {
		return false
	}

	nodes := ev.Root.FindByText(r.ButtonLabel)
	descriptions := make([]string, 0, len(nodes))
	for _, n := range nodes {
		descriptions = append(descriptions, n.ContentDescription)
	}

	return r.MatchesWebPage(descriptions) || r.MatchesSearchPage(ev.Text)
}

func (m *Monitor) setRunning(ctx context.Context, running bool) {
	if err := m.running.StoreAccessibilityRunning(ctx, running); err != nil {
		m.logger.Warn("Monitor: failed to store running state", "running", running, "error", err.Error())
	}
}

func (m *Monitor) startNotification(ctx context.Context) {
	if err := m.notifier.Start(ctx); err != nil {
		m.logger.Error("Monitor: failed to start notification", "error", err.Error())
	}
}

func (m *Monitor) stopNotification(ctx context.Context) {
	if err := m.notifier.Stop(ctx); err != nil {
		m.logger.Error("Monitor: failed to stop notification", "error", err.Error())
	}
}
