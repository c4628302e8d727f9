// Package cache stores the aggregated website data for a bounded time window
// in one of several storage backends.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/marcosimbuerger/monitoring-station/internal/fetcher"
	"github.com/marcosimbuerger/monitoring-station/internal/otel"
	"github.com/marcosimbuerger/monitoring-station/internal/telemetry"
)

const (
	// Key is the single key the aggregated website data is stored under
	Key = "monitoring_satellite_websites_data"

	// DefaultLifetime is how long a non-empty result stays fresh
	DefaultLifetime = 3600 * time.Second
)

// Cache operation names used in metrics
const (
	opSet    = "set"
	opDelete = "delete"
	opPrune  = "prune"
)

// WebsiteDataCache serves aggregated website data from a Store and refreshes
// it from an Aggregator when the stored entry is missing or stale.
type WebsiteDataCache struct {
	store      Store
	aggregator fetcher.Aggregator
	lifetime   time.Duration
	metrics    *telemetry.CacheMetrics
	tracer     trace.Tracer
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a WebsiteDataCache
type Option func(*WebsiteDataCache)

// WithLifetime sets how long a non-empty result stays fresh
func WithLifetime(d time.Duration) Option {
	return func(c *WebsiteDataCache) {
		c.lifetime = d
	}
}

// WithMetrics sets the cache metrics
func WithMetrics(m *telemetry.CacheMetrics) Option {
	return func(c *WebsiteDataCache) {
		c.metrics = m
	}
}

// WithTracer sets the tracer
func WithTracer(t trace.Tracer) Option {
	return func(c *WebsiteDataCache) {
		c.tracer = t
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(c *WebsiteDataCache) {
		c.logger = l
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *WebsiteDataCache) {
		c.now = now
	}
}

// New creates a cache over store that refreshes from aggregator
func New(store Store, aggregator fetcher.Aggregator, opts ...Option) *WebsiteDataCache {
	c := &WebsiteDataCache{
		store:      store,
		aggregator: aggregator,
		lifetime:   DefaultLifetime,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the aggregated website data. With useCache set, a fresh
// stored result is returned as is; otherwise the data is recomputed and
// stored. Without useCache the store is neither read nor written.
// Storage failures never fail the call.
func (c *WebsiteDataCache) Fetch(ctx context.Context, useCache bool) fetcher.AggregateResult {
	ctx, span := otel.StartSpan(ctx, c.tracer, "cache.Fetch",
		trace.WithAttributes(otel.AttrCacheKey.String(Key)),
	)
	defer span.End()

	if !useCache {
		c.metrics.RecordRequest(ctx, telemetry.CacheBypass)
		span.SetAttributes(otel.AttrCacheResult.String(telemetry.CacheBypass))
		return c.compute(ctx)
	}

	if result, ok := c.lookup(ctx); ok {
		c.metrics.RecordRequest(ctx, telemetry.CacheHit)
		span.SetAttributes(
			otel.AttrCacheResult.String(telemetry.CacheHit),
			otel.AttrResultCount.Int(len(result)),
		)
		return result
	}

	c.metrics.RecordRequest(ctx, telemetry.CacheMiss)
	span.SetAttributes(otel.AttrCacheResult.String(telemetry.CacheMiss))

	result := c.compute(ctx)
	c.save(ctx, result)
	span.SetAttributes(otel.AttrResultCount.Int(len(result)))
	return result
}

func (c *WebsiteDataCache) compute(ctx context.Context) fetcher.AggregateResult {
	if c.aggregator == nil {
		c.logger.Error("No aggregator configured, returning empty result")
		return fetcher.AggregateResult{}
	}
	result := c.aggregator.Fetch(ctx)
	if result == nil {
		return fetcher.AggregateResult{}
	}
	return result
}

// lookup returns the stored result if there is a fresh, decodable one
func (c *WebsiteDataCache) lookup(ctx context.Context) (fetcher.AggregateResult, bool) {
	entry, err := c.store.Get(ctx, Key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.logger.Warn("Failed to read cache, recomputing", "key", Key, "error", err)
		}
		return nil, false
	}

	if entry.Stale(c.now()) {
		c.logger.Debug("Cache entry is stale", "key", Key, "expired_at", entry.ExpiresAt)
		return nil, false
	}

	var result fetcher.AggregateResult
	if err := json.Unmarshal(entry.Value, &result); err != nil {
		c.logger.Warn("Failed to decode cache entry, recomputing", "key", Key, "error", err)
		return nil, false
	}
	if result == nil {
		result = fetcher.AggregateResult{}
	}
	return result, true
}

// save writes result with the configured lifetime, or a zero lifetime when
// it is empty so that the next call recomputes
func (c *WebsiteDataCache) save(ctx context.Context, result fetcher.AggregateResult) {
	value, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("Failed to encode website data", "error", err)
		c.metrics.RecordOperation(ctx, opSet, false)
		return
	}

	lifetime := c.lifetime
	if len(result) == 0 {
		lifetime = 0
	}

	if err := c.store.Set(ctx, Key, NewEntry(value, c.now(), lifetime)); err != nil {
		c.logger.Warn("Failed to write cache", "key", Key, "error", err)
		c.metrics.RecordOperation(ctx, opSet, false)
		return
	}
	c.metrics.RecordOperation(ctx, opSet, true)
	c.logger.Debug("Stored website data", "key", Key, "records", len(result), "lifetime", lifetime)
}

// Delete removes the stored website data. A missing entry is not an error.
func (c *WebsiteDataCache) Delete(ctx context.Context) error {
	ctx, span := otel.StartSpan(ctx, c.tracer, "cache.Delete",
		trace.WithAttributes(otel.AttrCacheKey.String(Key)),
	)
	defer span.End()

	err := c.store.Delete(ctx, Key)
	c.metrics.RecordOperation(ctx, opDelete, err == nil)
	if err != nil {
		otel.RecordError(span, err)
		return err
	}
	c.logger.Info("Cache cleared", "key", Key)
	return nil
}

// Prune asks the backend to remove stale entries
func (c *WebsiteDataCache) Prune(ctx context.Context) error {
	ctx, span := otel.StartSpan(ctx, c.tracer, "cache.Prune")
	defer span.End()

	err := c.store.Prune(ctx)
	c.metrics.RecordOperation(ctx, opPrune, err == nil)
	if err != nil {
		otel.RecordError(span, err)
		return err
	}
	c.logger.Info("Cache pruned")
	return nil
}

// Ping reports whether the backend is reachable
func (c *WebsiteDataCache) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

// Close releases the backend
func (c *WebsiteDataCache) Close() error {
	return c.store.Close()
}
