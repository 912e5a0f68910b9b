package redis

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"naasprov/internal/ports"
	"naasprov/internal/types"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	stateKeyNameTemplate = "_naasprov_state_%s"
)

// Store keeps the workflow state in one redis hash per namespace. HSET applies all fields of an update in
// a single command, so concurrent writers never observe a partial update.
type Store struct {
	cli *redis.Client
	key string

	mu     sync.RWMutex
	values map[string]string
}

// NewStore loads the namespace hash into memory.
func NewStore(ctx context.Context, cli *redis.Client, namespace string) (*Store, error) {
	s := &Store{
		cli:    cli,
		key:    getStateKeyName(namespace),
		values: map[string]string{},
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values)
}

func (s *Store) Reload(ctx context.Context) error {
	out := s.cli.HGetAll(ctx, s.key)
	if out.Err() != nil {
		return types.Err(types.ErrStorage, out.Err(), "redis HGETALL %s", s.key)
	}
	values := out.Val()
	if values == nil {
		values = map[string]string{}
	}
	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
	return nil
}

func (s *Store) Set(ctx context.Context, updates map[string]string) error {
	if len(updates) == 0 {
		return nil
	}
	fields := make(map[string]any, len(updates))
	for k, v := range updates {
		fields[k] = v
	}
	if err := s.cli.HSet(ctx, s.key, fields).Err(); err != nil {
		return types.Err(types.ErrStorage, err, "redis HSET %s", s.key)
	}
	s.mu.Lock()
	for k, v := range updates {
		s.values[k] = v
	}
	s.mu.Unlock()
	log.WithFields(log.Fields{"key": s.key, "fields": len(updates)}).Debug("redis state updated")
	return nil
}

func getStateKeyName(namespace string) string {
	return fmt.Sprintf(stateKeyNameTemplate, namespace)
}

var _ ports.StateStore = (*Store)(nil)
