package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	selectEntrySQL = `SELECT value, stored_at, expires_at FROM cache_items WHERE key = $1`

	upsertEntrySQL = `INSERT INTO cache_items (key, value, stored_at, expires_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value, stored_at = EXCLUDED.stored_at, expires_at = EXCLUDED.expires_at`

	deleteEntrySQL = `DELETE FROM cache_items WHERE key = $1`

	pruneEntriesSQL = `DELETE FROM cache_items WHERE expires_at <= now()`
)

// PostgresStore keeps entries in the cache_items table. The schema is
// created by the migrate command.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore wraps an existing connection pool. The store takes
// ownership of the pool and closes it in Close.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Get reads the row for key
func (s *PostgresStore) Get(ctx context.Context, key string) (*Entry, error) {
	var entry Entry
	err := s.pool.QueryRow(ctx, selectEntrySQL, key).Scan(&entry.Value, &entry.StoredAt, &entry.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return &entry, nil
}

// Set inserts or replaces the row for key
func (s *PostgresStore) Set(ctx context.Context, key string, entry *Entry) error {
	if _, err := s.pool.Exec(ctx, upsertEntrySQL, key, entry.Value, entry.StoredAt, entry.ExpiresAt); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Delete removes the row for key
func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, deleteEntrySQL, key); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Prune deletes all expired rows
func (s *PostgresStore) Prune(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, pruneEntriesSQL); err != nil {
		return fmt.Errorf("failed to prune cache entries: %w", err)
	}
	return nil
}

// Ping checks the database connection
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
