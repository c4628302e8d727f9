package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Telemetry owns the tracer and meter providers of a serve process
type Telemetry struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	registry       *prometheus.Registry
}

// Option configures New
type Option func(*options)

type options struct {
	config *Config
}

// WithTelemetryConfig passes the telemetry section of the station configuration
func WithTelemetryConfig(cfg *Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// New sets up tracing and metrics as configured. Without a configuration, or
// with telemetry disabled, both providers are no-ops. Call Shutdown on exit.
func New(ctx context.Context, opts ...Option) (*Telemetry, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	cfg := o.config
	if cfg == nil || !cfg.Enabled {
		slog.Debug("Telemetry disabled")
		return &Telemetry{
			tracerProvider: tracenoop.NewTracerProvider(),
			meterProvider:  metricnoop.NewMeterProvider(),
		}, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry configuration: %w", err)
	}

	settings := cfg.exportSettings()
	slog.Info("Initializing telemetry",
		"service_name", settings.serviceName,
		"service_version", settings.serviceVersion,
	)

	tel := &Telemetry{}
	if cfg.PrometheusEnabled() {
		tel.registry = prometheus.NewRegistry()
	}

	var err error
	if tel.tracerProvider, err = newTracerProvider(ctx, settings, cfg.Tracing); err != nil {
		return nil, fmt.Errorf("failed to create tracer provider: %w", err)
	}
	if tel.meterProvider, err = newMeterProvider(ctx, settings, cfg.Metrics, tel.registry); err != nil {
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create meter provider: %w", err)
	}
	return tel, nil
}

// TracerProvider returns the configured tracer provider
func (t *Telemetry) TracerProvider() trace.TracerProvider {
	return t.tracerProvider
}

// MeterProvider returns the configured meter provider
func (t *Telemetry) MeterProvider() metric.MeterProvider {
	return t.meterProvider
}

// PrometheusHandler serves the scrape endpoint, or is nil when Prometheus is off
func (t *Telemetry) PrometheusHandler() http.Handler {
	if t.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}

type shutdowner interface {
	Shutdown(context.Context) error
}

// Shutdown flushes pending spans and metrics. Calling it again is harmless.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	// The no-op providers do not implement shutdowner
	for name, p := range map[string]any{"tracer": t.tracerProvider, "meter": t.meterProvider} {
		s, ok := p.(shutdowner)
		if !ok {
			continue
		}
		if err := s.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown %s provider: %w", name, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	slog.Debug("Telemetry shut down")
	return nil
}
