package datastore

import (
	"context"
	"maps"
	"sync"

	"github.com/dtroode/appblock/internal/model"
)

var _ model.PreferenceBackend = (*MemoryBackend)(nil)

// MemoryBackend is a non-persistent backend.
type MemoryBackend struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryBackend creates a backend seeded with initial values.
func NewMemoryBackend(initial map[string]string) *MemoryBackend {
	values := make(map[string]string, len(initial))
	maps.Copy(values, initial)
	return &MemoryBackend{values: values}
}

func (b *MemoryBackend) GetAll(_ context.Context) (map[string]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return maps.Clone(b.values), nil
}

func (b *MemoryBackend) Set(_ context.Context, name, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.values[name] = value
	return nil
}
