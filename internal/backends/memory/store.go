package memory

import (
	"context"
	"maps"
	"sync"

	"naasprov/internal/ports"
)

// Store is a process-local StateStore. Nothing survives the process; it backs dry runs and tests.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
	sets   int
}

func NewStore(seed map[string]string) *Store {
	values := maps.Clone(seed)
	if values == nil {
		values = map[string]string{}
	}
	return &Store{values: values}
}

func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *Store) Set(_ context.Context, updates map[string]string) error {
	if len(updates) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range updates {
		s.values[k] = v
	}
	s.sets++
	return nil
}

func (s *Store) Reload(_ context.Context) error { return nil }

func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values)
}

// Writes returns how many non-empty Set calls the store has served.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sets
}

var _ ports.StateStore = (*Store)(nil)
