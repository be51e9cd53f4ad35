package flow

import (
	"context"
	"sync"

	"github.com/dtroode/appblock/internal/logger"
)

// stateHolder keeps the latest state of a flow and publishes every
// update to conflating watchers.
type stateHolder[S any] struct {
	mu    sync.Mutex
	state S
	subs  map[chan S]struct{}
}

func newStateHolder[S any](initial S) *stateHolder[S] {
	return &stateHolder[S]{
		state: initial,
		subs:  make(map[chan S]struct{}),
	}
}

func (h *stateHolder[S]) get() S {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *stateHolder[S]) update(f func(S) S) S {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.state = f(h.state)
	for ch := range h.subs {
		select {
		case ch <- h.state:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- h.state
		}
	}

	return h.state
}

func (h *stateHolder[S]) watch(ctx context.Context) <-chan S {
	ch := make(chan S, 1)

	h.mu.Lock()
	ch <- h.state
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, ch)
		close(ch)
		h.mu.Unlock()
	}()

	return ch
}

// EventKind enumerates one-shot UI events.
type EventKind int

const (
	EventToast EventKind = iota
	EventNavigate
	EventShowLoading
	EventHideLoading
	EventMatch
	EventNotMatch
	EventBlockStateChanged
	EventEmailSent
)

func (k EventKind) String() string {
	switch k {
	case EventToast:
		return "toast"
	case EventNavigate:
		return "navigate"
	case EventShowLoading:
		return "show_loading"
	case EventHideLoading:
		return "hide_loading"
	case EventMatch:
		return "match"
	case EventNotMatch:
		return "not_match"
	case EventBlockStateChanged:
		return "block_state_changed"
	case EventEmailSent:
		return "email_sent"
	default:
		return "unknown"
	}
}

// Event is a one-shot notification for the rendering layer. Err is set
// on toasts that report a failure.
type Event struct {
	Kind EventKind
	Err  error
}

const eventBuffer = 32

type eventQueue struct {
	name   string
	ch     chan Event
	logger *logger.Logger
}

func newEventQueue(name string, logger *logger.Logger) *eventQueue {
	return &eventQueue{
		name:   name,
		ch:     make(chan Event, eventBuffer),
		logger: logger,
	}
}

// emit never blocks; events nobody reads are dropped.
func (q *eventQueue) emit(ev Event) {
	select {
	case q.ch <- ev:
	default:
		q.logger.Warn(q.name+" flow: event dropped", "kind", ev.Kind.String())
	}
}

func (q *eventQueue) toast(err error) {
	q.emit(Event{Kind: EventToast, Err: err})
}
