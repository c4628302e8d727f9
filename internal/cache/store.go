package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=store.go Store

var (
	// ErrNotFound is returned by Store.Get when the key holds no entry
	ErrNotFound = errors.New("cache entry not found")

	// ErrUnknownBackend is returned by NewStore for an unsupported backend name
	ErrUnknownBackend = errors.New("unknown cache backend")
)

// Entry is a cached value together with its lifetime
type Entry struct {
	Value     []byte    `json:"value"`
	StoredAt  time.Time `json:"stored_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewEntry creates an entry stored at now that expires after lifetime.
// A zero or negative lifetime produces an entry that is already stale.
func NewEntry(value []byte, now time.Time, lifetime time.Duration) *Entry {
	if lifetime < 0 {
		lifetime = 0
	}
	return &Entry{
		Value:     value,
		StoredAt:  now,
		ExpiresAt: now.Add(lifetime),
	}
}

// Stale reports whether the entry has expired at now
func (e *Entry) Stale(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Store is a key-value backend for cache entries
type Store interface {
	// Get returns the entry for key, stale or not. ErrNotFound is returned on a miss.
	Get(ctx context.Context, key string) (*Entry, error)

	// Set stores entry under key, replacing any previous entry
	Set(ctx context.Context, key string, entry *Entry) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Prune physically removes stale entries
	Prune(ctx context.Context) error

	// Ping reports whether the backend is reachable
	Ping(ctx context.Context) error

	// Close releases the backend's resources
	Close() error
}

func encodeEntry(entry *Entry) ([]byte, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return data, nil
}

func decodeEntry(data []byte) (*Entry, error) {
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return &entry, nil
}
