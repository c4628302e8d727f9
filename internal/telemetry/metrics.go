package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// FetchMetricsMeterName is the name used for the fetch metrics meter
	FetchMetricsMeterName = "github.com/marcosimbuerger/monitoring-station/fetch"

	// CacheMetricsMeterName is the name used for the cache metrics meter
	CacheMetricsMeterName = "github.com/marcosimbuerger/monitoring-station/cache"
)

// Outcomes of a single satellite request
const (
	OutcomeOK             = "ok"
	OutcomeInvalidConfig  = "invalid_config"
	OutcomeTransportError = "transport_error"
	OutcomeBadStatus      = "bad_status"
	OutcomeUnauthorized   = "unauthorized"
	OutcomeInvalidBody    = "invalid_body"
)

// Results of a cache lookup
const (
	CacheHit    = "hit"
	CacheMiss   = "miss"
	CacheBypass = "bypass"
)

// FetchMetrics holds the OpenTelemetry instruments for satellite fetches
type FetchMetrics struct {
	siteFetches   metric.Int64Counter
	fetchDuration metric.Float64Histogram
	websitesTotal metric.Int64Gauge
}

// NewFetchMetrics creates a new FetchMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewFetchMetrics(provider metric.MeterProvider) (*FetchMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(FetchMetricsMeterName)

	siteFetches, err := meter.Int64Counter(
		"monitoring_station_site_fetch_total",
		metric.WithDescription("Number of satellite requests by website and outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	fetchDuration, err := meter.Float64Histogram(
		"monitoring_station_fetch_duration_seconds",
		metric.WithDescription("Duration of a full fetch over all websites in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120),
	)
	if err != nil {
		return nil, err
	}

	websitesTotal, err := meter.Int64Gauge(
		"monitoring_station_websites_total",
		metric.WithDescription("Number of websites in the last aggregated result"),
		metric.WithUnit("{website}"),
	)
	if err != nil {
		return nil, err
	}

	return &FetchMetrics{
		siteFetches:   siteFetches,
		fetchDuration: fetchDuration,
		websitesTotal: websitesTotal,
	}, nil
}

// RecordSiteFetch counts one satellite request with its outcome
func (m *FetchMetrics) RecordSiteFetch(ctx context.Context, site, outcome string) {
	if m == nil || m.siteFetches == nil {
		return
	}

	m.siteFetches.Add(ctx, 1, metric.WithAttributes(
		attribute.String("site", site),
		attribute.String("outcome", outcome),
	))
}

// RecordFetch records the duration of a full fetch and the number of websites it returned
func (m *FetchMetrics) RecordFetch(ctx context.Context, duration time.Duration, websites int) {
	if m == nil {
		return
	}

	m.fetchDuration.Record(ctx, duration.Seconds())
	m.websitesTotal.Record(ctx, int64(websites))
}

// CacheMetrics holds the OpenTelemetry instruments for the cache layer
type CacheMetrics struct {
	requests   metric.Int64Counter
	operations metric.Int64Counter
}

// NewCacheMetrics creates a new CacheMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewCacheMetrics(provider metric.MeterProvider) (*CacheMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(CacheMetricsMeterName)

	requests, err := meter.Int64Counter(
		"monitoring_station_cache_requests_total",
		metric.WithDescription("Number of cache lookups by result"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	operations, err := meter.Int64Counter(
		"monitoring_station_cache_operations_total",
		metric.WithDescription("Number of cache write, delete and prune operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	return &CacheMetrics{
		requests:   requests,
		operations: operations,
	}, nil
}

// RecordRequest counts a cache lookup as hit, miss or bypass
func (m *CacheMetrics) RecordRequest(ctx context.Context, result string) {
	if m == nil || m.requests == nil {
		return
	}

	m.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordOperation counts a backend operation such as set, delete or prune
func (m *CacheMetrics) RecordOperation(ctx context.Context, operation string, success bool) {
	if m == nil || m.operations == nil {
		return
	}

	m.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("success", success),
	))
}
