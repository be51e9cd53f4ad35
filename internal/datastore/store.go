package datastore

import (
	"context"
	"fmt"
	"sync"

	"github.com/dtroode/appblock/internal/logger"
	"github.com/dtroode/appblock/internal/model"
)

var _ model.PreferenceStore = (*Store)(nil)

type subscriber struct {
	ch chan model.Preference
}

// Store keeps an in-memory snapshot of every preference and broadcasts
// changes to watchers. Writes go to the backend before the snapshot.
type Store struct {
	backend model.PreferenceBackend
	logger  *logger.Logger

	mu     sync.RWMutex
	values map[string]string
	subs   map[string]map[*subscriber]struct{}
}

// New creates a Store over backend. Call Load before use.
func New(backend model.PreferenceBackend, logger *logger.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  logger,
		values:  make(map[string]string),
		subs:    make(map[string]map[*subscriber]struct{}),
	}
}

// Load replaces the snapshot with the backend contents and notifies watchers.
func (s *Store) Load(ctx context.Context) error {
	values, err := s.backend.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load preferences: %w", err)
	}
	if values == nil {
		values = make(map[string]string)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.values
	s.values = values
	for name := range s.subs {
		prev, hadPrev := old[name]
		cur, hasCur := values[name]
		if prev != cur || hadPrev != hasCur {
			s.publishLocked(name, model.Preference{Value: cur, Present: hasCur})
		}
	}

	s.logger.Debug("Preference store: loaded", "count", len(values))
	return nil
}

// Get returns the current value of name.
func (s *Store) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[name]
	return value, ok
}

// Set persists value and notifies watchers of name.
func (s *Store) Set(ctx context.Context, name, value string) error {
	if err := s.backend.Set(ctx, name, value); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.values[name]
	s.values[name] = value
	if ok && prev == value {
		return nil
	}
	s.publishLocked(name, model.Preference{Value: value, Present: true})

	return nil
}

// Watch emits the current value of name, then every change, until ctx is
// done. A slow reader only observes the latest value.
func (s *Store) Watch(ctx context.Context, name string) <-chan model.Preference {
	sub := &subscriber{ch: make(chan model.Preference, 1)}

	s.mu.Lock()
	value, ok := s.values[name]
	sub.ch <- model.Preference{Value: value, Present: ok}
	if s.subs[name] == nil {
		s.subs[name] = make(map[*subscriber]struct{})
	}
	s.subs[name][sub] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()

		s.mu.Lock()
		delete(s.subs[name], sub)
		if len(s.subs[name]) == 0 {
			delete(s.subs, name)
		}
		close(sub.ch)
		s.mu.Unlock()
	}()

	return sub.ch
}

func (s *Store) publishLocked(name string, pref model.Preference) {
	for sub := range s.subs[name] {
		select {
		case sub.ch <- pref:
		default:
			// drop the stale value, keep the latest
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- pref
		}
	}
}
