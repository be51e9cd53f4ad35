package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/appblock/internal/datastore"
	"github.com/dtroode/appblock/internal/mocks"
	"github.com/dtroode/appblock/internal/testutil"
)

var errDiskFull = errors.New("disk full")

func newStore(t *testing.T, initial map[string]string) *datastore.Store {
	t.Helper()

	store := datastore.New(datastore.NewMemoryBackend(initial), testutil.MakeNoopLogger())
	require.NoError(t, store.Load(context.Background()))
	return store
}

func newFailingStore(t *testing.T) *datastore.Store {
	t.Helper()

	backend := mocks.NewPreferenceBackend(t)
	backend.On("GetAll", mock.Anything).Return(map[string]string{}, nil)
	backend.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(errDiskFull)

	store := datastore.New(backend, testutil.MakeNoopLogger())
	require.NoError(t, store.Load(context.Background()))
	return store
}

func next[T any](t *testing.T, ch <-chan T) T {
	t.Helper()

	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for value")
		var zero T
		return zero
	}
}
