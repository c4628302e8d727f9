package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// PushInterval is how often metrics are pushed to the OTLP endpoint
const PushInterval = time.Minute

var errNoRegistry = errors.New("a Prometheus registry is required")

// newMeterProvider builds the metric pipeline behind the fetch, cache and HTTP
// instruments. OTLP push and Prometheus pull can be enabled independently; with
// neither a no-op provider is returned. reg is only consulted for Prometheus.
func newMeterProvider(
	ctx context.Context, s exportSettings, mc *MetricsConfig, reg *prometheus.Registry,
) (metric.MeterProvider, error) {
	if !mc.active() {
		slog.Info("Metrics disabled, using no-op meter provider")
		return noop.NewMeterProvider(), nil
	}

	res, err := s.resource(ctx)
	if err != nil {
		return nil, err
	}
	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if mc.Enabled {
		reader, err := pushReader(ctx, s)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdkmetric.WithReader(reader))
		slog.Info("OTLP metrics export enabled", "endpoint", s.endpoint, "insecure", s.insecure)
	}

	if mc.Prometheus {
		if reg == nil {
			return nil, errNoRegistry
		}
		reader, err := otelprom.New(otelprom.WithRegisterer(reg))
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus reader: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(reader))
		slog.Info("Prometheus metrics enabled")
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)
	return mp, nil
}

func pushReader(ctx context.Context, s exportSettings) (sdkmetric.Reader, error) {
	exporterOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(s.endpoint)}
	if s.insecure {
		exporterOpts = append(exporterOpts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}
	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(PushInterval)), nil
}
