package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marcosimbuerger/monitoring-station/internal/config"
)

// connectAttempts bounds the startup connection retries of networked backends
const connectAttempts = 5

// NewStore creates the store selected by cfg. Networked backends are pinged
// with exponential backoff before the store is returned.
func NewStore(ctx context.Context, cfg *config.Config) (Store, error) {
	backend := cfg.GetCacheBackend()
	slog.Info("Creating cache store", "backend", backend)

	switch backend {
	case config.BackendMemory:
		return NewMemoryStore(), nil

	case config.BackendFile:
		return NewFileStore(cfg.GetCachePath())

	case config.BackendLevelDB:
		return NewLevelDBStore(cfg.GetCachePath())

	case config.BackendPostgres:
		connStr, err := cfg.Cache.Postgres.GetConnectionString()
		if err != nil {
			return nil, fmt.Errorf("failed to build postgres connection string: %w", err)
		}
		pool, err := pgxpool.New(ctx, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		store := NewPostgresStore(pool)
		if err := waitReady(ctx, backend, store); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil

	case config.BackendRedis:
		store, err := NewRedisStore(cfg.Cache.Redis.URL)
		if err != nil {
			return nil, err
		}
		if err := waitReady(ctx, backend, store); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, backend)
	}
}

// waitReady pings store until it answers or the attempts are exhausted
func waitReady(ctx context.Context, backend string, store Store) error {
	_, err := backoff.Retry(ctx,
		func() (struct{}, error) {
			return struct{}{}, store.Ping(ctx)
		},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(connectAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Warn("Cache backend not ready, retrying", "backend", backend, "error", err, "retry_in", next)
		}),
	)
	if err != nil {
		return fmt.Errorf("cache backend %s is not reachable: %w", backend, err)
	}
	return nil
}
