package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/petland/petcare-console/internal/core/ports"
)

// StateStore keeps the persisted session entries in Redis.
// Key format: <namespace>:session:<key>
type StateStore struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

var _ ports.StateStore = (*StateStore)(nil)

// NewStateStore wraps client. A zero ttl keeps entries until deleted.
func NewStateStore(client *redis.Client, namespace string, ttl time.Duration) *StateStore {
	return &StateStore{client: client, namespace: namespace, ttl: ttl}
}

func (s *StateStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis state get %q: %w", key, err)
	}
	return v, true, nil
}

// Set writes the entry, refreshing its expiry when a ttl is configured.
func (s *StateStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis state set %q: %w", key, err)
	}
	return nil
}

func (s *StateStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis state delete: %w", err)
	}
	return nil
}

func (s *StateStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *StateStore) key(k string) string {
	return fmt.Sprintf("%s:session:%s", s.namespace, k)
}
