package telemetry

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// HTTPMetricsMeterName is the meter of the API server instruments
const HTTPMetricsMeterName = "github.com/marcosimbuerger/monitoring-station/http"

// unknownRoute replaces paths chi could not route, keeping label cardinality bounded
const unknownRoute = "unknown_route"

// HTTPMetrics records request counts, latency and in-flight requests of the API server
type HTTPMetrics struct {
	requests metric.Int64Counter
	latency  metric.Float64Histogram
	inFlight metric.Int64UpDownCounter
}

// NewHTTPMetrics registers the API server instruments. A nil provider yields nil metrics.
func NewHTTPMetrics(provider metric.MeterProvider) (*HTTPMetrics, error) {
	if provider == nil {
		return nil, nil
	}
	meter := provider.Meter(HTTPMetricsMeterName)

	var m HTTPMetrics
	var errs [3]error
	m.requests, errs[0] = meter.Int64Counter("monitoring_station_http_requests_total",
		metric.WithDescription("API requests by route and status"),
		metric.WithUnit("{request}"),
	)
	// Website listings wait for every satellite on a cache miss, hence the long tail
	m.latency, errs[1] = meter.Float64Histogram("monitoring_station_http_request_duration_seconds",
		metric.WithDescription("API request latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.025, 0.1, 0.5, 1, 5, 15, 30, 60),
	)
	m.inFlight, errs[2] = meter.Int64UpDownCounter("monitoring_station_http_active_requests",
		metric.WithDescription("API requests currently being served"),
		metric.WithUnit("{request}"),
	)
	if err := errors.Join(errs[:]...); err != nil {
		return nil, err
	}
	return &m, nil
}

// Middleware wraps next with the instruments. A nil receiver passes requests through.
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		began := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		m.inFlight.Add(ctx, 1, metric.WithAttributes(semconv.HTTPRequestMethodKey.String(r.Method)))
		defer m.inFlight.Add(ctx, -1, metric.WithAttributes(semconv.HTTPRequestMethodKey.String(r.Method)))

		next.ServeHTTP(ww, r)

		attrs := metric.WithAttributeSet(attribute.NewSet(
			semconv.HTTPRequestMethodKey.String(r.Method),
			semconv.HTTPRouteKey.String(getRoutePattern(r)),
			semconv.HTTPResponseStatusCode(ww.Status()),
		))
		m.requests.Add(ctx, 1, attrs)
		m.latency.Record(ctx, time.Since(began).Seconds(), attrs)
	})
}

// getRoutePattern returns the chi route that matched r. It is only known
// after the router has handled the request.
func getRoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return unknownRoute
}

// MetricsMiddleware builds the metrics middleware for the API router
func MetricsMiddleware(provider metric.MeterProvider) (func(http.Handler) http.Handler, error) {
	metrics, err := NewHTTPMetrics(provider)
	if err != nil {
		return nil, err
	}
	return metrics.Middleware, nil
}
