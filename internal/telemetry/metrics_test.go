package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// collectMetric returns the named metric from the given scope, failing the test if absent
func collectMetric(t *testing.T, reader sdkmetric.Reader, scopeName, metricName string) metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	for _, scope := range rm.ScopeMetrics {
		if scope.Scope.Name != scopeName {
			continue
		}
		for _, m := range scope.Metrics {
			if m.Name == metricName {
				return m
			}
		}
	}
	t.Fatalf("metric %s not found in scope %s", metricName, scopeName)
	return metricdata.Metrics{}
}

func sumByAttributes(t *testing.T, m metricdata.Metrics) map[attribute.Distinct]int64 {
	t.Helper()

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum data type")

	out := make(map[attribute.Distinct]int64)
	for _, dp := range sum.DataPoints {
		out[dp.Attributes.Equivalent()] = dp.Value
	}
	return out
}

func TestNewFetchMetrics(t *testing.T) {
	t.Parallel()

	t.Run("returns nil when provider is nil", func(t *testing.T) {
		t.Parallel()

		metrics, err := NewFetchMetrics(nil)
		require.NoError(t, err)
		assert.Nil(t, metrics)
	})

	t.Run("creates metrics with SDK provider", func(t *testing.T) {
		t.Parallel()

		mp := sdkmetric.NewMeterProvider()
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewFetchMetrics(mp)
		require.NoError(t, err)
		require.NotNil(t, metrics)
		assert.NotNil(t, metrics.siteFetches)
		assert.NotNil(t, metrics.fetchDuration)
		assert.NotNil(t, metrics.websitesTotal)
	})
}

func TestFetchMetrics_Record(t *testing.T) {
	t.Parallel()

	t.Run("no-op when metrics is nil", func(t *testing.T) {
		t.Parallel()

		var metrics *FetchMetrics
		// Should not panic
		metrics.RecordSiteFetch(context.Background(), "Pizza", OutcomeOK)
		metrics.RecordFetch(context.Background(), time.Second, 1)
	})

	t.Run("counts site fetches by site and outcome", func(t *testing.T) {
		t.Parallel()

		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewFetchMetrics(mp)
		require.NoError(t, err)

		ctx := context.Background()
		metrics.RecordSiteFetch(ctx, "Pizza", OutcomeOK)
		metrics.RecordSiteFetch(ctx, "Pizza", OutcomeOK)
		metrics.RecordSiteFetch(ctx, "Burger", OutcomeBadStatus)

		values := sumByAttributes(t, collectMetric(t, reader, FetchMetricsMeterName, "monitoring_station_site_fetch_total"))

		pizzaOK := attribute.NewSet(attribute.String("site", "Pizza"), attribute.String("outcome", OutcomeOK))
		burgerBad := attribute.NewSet(attribute.String("site", "Burger"), attribute.String("outcome", OutcomeBadStatus))
		assert.Equal(t, int64(2), values[pizzaOK.Equivalent()])
		assert.Equal(t, int64(1), values[burgerBad.Equivalent()])
	})

	t.Run("records duration in seconds and the website gauge", func(t *testing.T) {
		t.Parallel()

		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewFetchMetrics(mp)
		require.NoError(t, err)

		metrics.RecordFetch(context.Background(), 1500*time.Millisecond, 2)

		hist, ok := collectMetric(t, reader, FetchMetricsMeterName, "monitoring_station_fetch_duration_seconds").
			Data.(metricdata.Histogram[float64])
		require.True(t, ok, "expected histogram data type")
		require.NotEmpty(t, hist.DataPoints)
		assert.InDelta(t, 1.5, hist.DataPoints[0].Sum, 0.001)

		gauge, ok := collectMetric(t, reader, FetchMetricsMeterName, "monitoring_station_websites_total").
			Data.(metricdata.Gauge[int64])
		require.True(t, ok, "expected gauge data type")
		require.Len(t, gauge.DataPoints, 1)
		assert.Equal(t, int64(2), gauge.DataPoints[0].Value)
	})
}

func TestNewCacheMetrics(t *testing.T) {
	t.Parallel()

	metrics, err := NewCacheMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, metrics)

	var nilMetrics *CacheMetrics
	// Should not panic
	nilMetrics.RecordRequest(context.Background(), CacheHit)
	nilMetrics.RecordOperation(context.Background(), "set", true)
}

func TestCacheMetrics_Record(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	metrics, err := NewCacheMetrics(mp)
	require.NoError(t, err)
	require.NotNil(t, metrics)

	ctx := context.Background()
	metrics.RecordRequest(ctx, CacheMiss)
	metrics.RecordRequest(ctx, CacheHit)
	metrics.RecordRequest(ctx, CacheHit)
	metrics.RecordRequest(ctx, CacheBypass)
	metrics.RecordOperation(ctx, "set", true)
	metrics.RecordOperation(ctx, "delete", false)

	requests := sumByAttributes(t, collectMetric(t, reader, CacheMetricsMeterName, "monitoring_station_cache_requests_total"))
	for result, want := range map[string]int64{CacheHit: 2, CacheMiss: 1, CacheBypass: 1} {
		set := attribute.NewSet(attribute.String("result", result))
		assert.Equal(t, want, requests[set.Equivalent()], "result %s", result)
	}

	ops := sumByAttributes(t, collectMetric(t, reader, CacheMetricsMeterName, "monitoring_station_cache_operations_total"))
	failedDelete := attribute.NewSet(attribute.String("operation", "delete"), attribute.Bool("success", false))
	assert.Equal(t, int64(1), ops[failedDelete.Equivalent()])
}
