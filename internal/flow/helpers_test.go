package flow

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dtroode/appblock/internal/datastore"
	"github.com/dtroode/appblock/internal/testutil"
)

func newStore(t *testing.T, initial map[string]string) *datastore.Store {
	t.Helper()

	store := datastore.New(datastore.NewMemoryBackend(initial), testutil.MakeNoopLogger())
	require.NoError(t, store.Load(context.Background()))
	return store
}

// drain returns the kinds of all events emitted so far.
func drain(events <-chan Event) []EventKind {
	var kinds []EventKind
	for {
		select {
		case ev := <-events:
			kinds = append(kinds, ev.Kind)
		default:
			return kinds
		}
	}
}

type manualTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time)}
}

func (m *manualTicker) start(time.Duration) (<-chan time.Time, func()) {
	m.stopped.Store(false)
	return m.ch, func() { m.stopped.Store(true) }
}

func (m *manualTicker) tick(t *testing.T, n int) {
	t.Helper()

	for range n {
		select {
		case m.ch <- time.Now():
		case <-time.After(time.Second):
			t.Fatal("countdown is not consuming ticks")
		}
	}
}
