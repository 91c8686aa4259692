// Package memory is a process-local StateStore. Sessions do not survive a
// restart; use it for tests and throwaway runs.
package memory

import (
	"context"
	"sync"

	"github.com/petland/petcare-console/internal/core/ports"
)

type StateStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

var _ ports.StateStore = (*StateStore)(nil)

func NewStateStore() *StateStore {
	return &StateStore{entries: make(map[string]string)}
}

func (s *StateStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	return v, ok, nil
}

func (s *StateStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	return nil
}

func (s *StateStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.entries, k)
	}
	return nil
}

func (s *StateStore) Ping(context.Context) error { return nil }

// Len returns the number of stored entries.
func (s *StateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
