package cache

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"
)

// MemoryStore keeps entries in process memory. Entries are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

// Get returns a copy of the entry stored under key
func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	entry.Value = slices.Clone(entry.Value)
	return &entry, nil
}

// Set stores a copy of entry under key
func (s *MemoryStore) Set(_ context.Context, key string, entry *Entry) error {
	stored := *entry
	stored.Value = slices.Clone(entry.Value)

	s.mu.Lock()
	s.entries[key] = stored
	s.mu.Unlock()
	return nil
}

// Delete removes key
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Prune removes all stale entries
func (s *MemoryStore) Prune(_ context.Context) error {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	maps.DeleteFunc(s.entries, func(_ string, e Entry) bool {
		return e.Stale(now)
	})
	return nil
}

// Ping always succeeds
func (*MemoryStore) Ping(context.Context) error {
	return nil
}

// Close is a no-op
func (*MemoryStore) Close() error {
	return nil
}

// Len returns the number of entries, stale ones included
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
