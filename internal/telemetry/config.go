// Package telemetry provides OpenTelemetry instrumentation for the monitoring station.
// Traces and metrics are exported over OTLP/HTTP; metrics can also be scraped
// in the Prometheus exposition format.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/marcosimbuerger/monitoring-station/internal/versions"
)

const (
	// DefaultServiceName identifies the station when no service name is configured
	DefaultServiceName = "monitoring-station"

	// DefaultEndpoint is the local OTLP/HTTP collector
	DefaultEndpoint = "localhost:4318"

	// DefaultSampling traces one request in twenty
	DefaultSampling = 0.05
)

// Config is the telemetry section of the station configuration.
//
//	telemetry:
//	  enabled: true
//	  endpoint: otel-collector:4318
//	  insecure: true
//	  tracing:
//	    enabled: true
//	    sampling: 0.2
//	  metrics:
//	    enabled: false
//	    prometheus: true
type Config struct {
	Enabled        bool   `yaml:"enabled"`
	ServiceName    string `yaml:"serviceName,omitempty"`
	ServiceVersion string `yaml:"serviceVersion,omitempty"`

	// Endpoint is host:port; the exporters append /v1/traces and /v1/metrics
	Endpoint string `yaml:"endpoint,omitempty"`

	// Insecure sends telemetry over plain HTTP
	Insecure bool `yaml:"insecure,omitempty"`

	Tracing *TracingConfig `yaml:"tracing,omitempty"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// TracingConfig controls span export
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Sampling is the ratio of traces kept, in (0, 1]
	Sampling *float64 `yaml:"sampling,omitempty"`
}

// MetricsConfig controls the metric readers
type MetricsConfig struct {
	// Enabled pushes metrics to the OTLP endpoint
	Enabled bool `yaml:"enabled"`

	// Prometheus serves the same instruments on /metrics
	Prometheus bool `yaml:"prometheus,omitempty"`
}

// exportSettings is what the trace and metric pipelines have in common
type exportSettings struct {
	serviceName    string
	serviceVersion string
	endpoint       string
	insecure       bool
}

func defaultExportSettings() exportSettings {
	return exportSettings{
		serviceName:    DefaultServiceName,
		serviceVersion: versions.Version,
		endpoint:       DefaultEndpoint,
	}
}

// exportSettings resolves the configured values over the defaults
func (c *Config) exportSettings() exportSettings {
	s := defaultExportSettings()
	if c == nil {
		return s
	}
	if c.ServiceName != "" {
		s.serviceName = c.ServiceName
	}
	if c.ServiceVersion != "" {
		s.serviceVersion = c.ServiceVersion
	}
	if c.Endpoint != "" {
		s.endpoint = c.Endpoint
	}
	s.insecure = c.Insecure
	return s
}

// resource describes the station process to the collector.
// resource.New is used instead of resource.Default to avoid schema URL conflicts.
func (s exportSettings) resource(ctx context.Context) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(s.serviceName),
			semconv.ServiceVersion(s.serviceVersion),
		),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// PrometheusEnabled reports whether metrics should be exposed for scraping
func (c *Config) PrometheusEnabled() bool {
	return c != nil && c.Enabled && c.Metrics != nil && c.Metrics.Prometheus
}

func (c *TracingConfig) active() bool {
	return c != nil && c.Enabled
}

// ratio returns the configured sampling ratio or DefaultSampling
func (c *TracingConfig) ratio() float64 {
	if c == nil || c.Sampling == nil {
		return DefaultSampling
	}
	return *c.Sampling
}

// active reports whether any metrics reader is configured
func (c *MetricsConfig) active() bool {
	return c != nil && (c.Enabled || c.Prometheus)
}

// Validate checks the telemetry section. A nil or disabled section is valid.
func (c *Config) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	if c.Tracing.active() && c.Tracing.Sampling != nil {
		if s := *c.Tracing.Sampling; s <= 0 || s > 1 {
			return fmt.Errorf("tracing: sampling must be greater than 0.0 and at most 1.0, got %g", s)
		}
	}
	return nil
}
