package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/marcosimbuerger/monitoring-station/internal/api"
	"github.com/marcosimbuerger/monitoring-station/internal/cache"
	"github.com/marcosimbuerger/monitoring-station/internal/config"
	"github.com/marcosimbuerger/monitoring-station/internal/fetcher"
	"github.com/marcosimbuerger/monitoring-station/internal/httpclient"
	"github.com/marcosimbuerger/monitoring-station/internal/service"
	"github.com/marcosimbuerger/monitoring-station/internal/telemetry"
)

const (
	// TracerName is the tracer used by the pipeline components
	TracerName = "github.com/marcosimbuerger/monitoring-station"

	defaultRequestTimeout = 30 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 45 * time.Second
	defaultIdleTimeout    = 60 * time.Second
	reloadTimeout         = 10 * time.Second
)

// MonitoringAppOptions configures the app builder
type MonitoringAppOptions func(*monitoringAppConfig) error

type monitoringAppConfig struct {
	config     *config.Config
	configPath string

	// Optional component overrides (primarily for testing)
	source     fetcher.WebsiteSource
	store      cache.Store
	httpClient httpclient.Client

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	metricsHandler http.Handler
}

func baseConfig(opts ...MonitoringAppOptions) (*monitoringAppConfig, error) {
	cfg := &monitoringAppConfig{
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) MonitoringAppOptions {
	return func(cfg *monitoringAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithConfigPath loads the configuration from path and, for the server,
// reloads it whenever the file changes
func WithConfigPath(path string) MonitoringAppOptions {
	return func(cfg *monitoringAppConfig) error {
		if path == "" {
			return fmt.Errorf("config path cannot be empty")
		}
		cfg.configPath = path
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) MonitoringAppOptions {
	return func(cfg *monitoringAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}
		_, port, err := net.SplitHostPort(addr)
		if err != nil {
			return fmt.Errorf("address is not valid: %w", err)
		}
		if port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		cfg.address = addr
		return nil
	}
}

// WithMiddlewares replaces the default HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) MonitoringAppOptions {
	return func(cfg *monitoringAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithWebsiteSource overrides where the fetcher reads the websites from
func WithWebsiteSource(src fetcher.WebsiteSource) MonitoringAppOptions {
	return func(cfg *monitoringAppConfig) error {
		cfg.source = src
		return nil
	}
}

// WithStore injects a cache store instead of creating one from the config
func WithStore(s cache.Store) MonitoringAppOptions {
	return func(cfg *monitoringAppConfig) error {
		cfg.store = s
		return nil
	}
}

// WithHTTPClient injects the client used to query satellites
func WithHTTPClient(c httpclient.Client) MonitoringAppOptions {
	return func(cfg *monitoringAppConfig) error {
		cfg.httpClient = c
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider
func WithMeterProvider(mp metric.MeterProvider) MonitoringAppOptions {
	return func(cfg *monitoringAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider
func WithTracerProvider(tp trace.TracerProvider) MonitoringAppOptions {
	return func(cfg *monitoringAppConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// WithMetricsHandler serves h on /metrics
func WithMetricsHandler(h http.Handler) MonitoringAppOptions {
	return func(cfg *monitoringAppConfig) error {
		cfg.metricsHandler = h
		return nil
	}
}

// loadConfig fills cfg.config from cfg.configPath when no config was given
func (b *monitoringAppConfig) loadConfig() error {
	if b.config != nil {
		return nil
	}
	if b.configPath == "" {
		return fmt.Errorf("config cannot be nil")
	}
	loaded, err := config.LoadConfig(config.WithConfigPath(b.configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	b.config = loaded
	return nil
}

func (b *monitoringAppConfig) tracer() trace.Tracer {
	if b.tracerProvider == nil {
		return nil
	}
	return b.tracerProvider.Tracer(TracerName)
}

// BuildComponents assembles the pipeline without an HTTP server. The CLI
// commands use it directly; the caller closes the returned components.
func BuildComponents(ctx context.Context, opts ...MonitoringAppOptions) (*AppComponents, error) {
	b, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}
	if err := b.loadConfig(); err != nil {
		return nil, err
	}
	return buildComponents(ctx, b)
}

func buildComponents(ctx context.Context, b *monitoringAppConfig) (*AppComponents, error) {
	slog.Info("Initializing pipeline components")

	if b.source == nil {
		b.source = b.config
	}
	if b.httpClient == nil {
		b.httpClient = httpclient.NewDefaultClient(b.config.GetFetchTimeout())
	}

	fetchMetrics, err := telemetry.NewFetchMetrics(b.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetch metrics: %w", err)
	}
	cacheMetrics, err := telemetry.NewCacheMetrics(b.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache metrics: %w", err)
	}
	tracer := b.tracer()

	websiteFetcher, err := fetcher.New(b.source, b.httpClient,
		fetcher.WithConcurrency(b.config.GetFetchConcurrency()),
		fetcher.WithMetrics(fetchMetrics),
		fetcher.WithTracer(tracer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}

	store := b.store
	if store == nil {
		store, err = cache.NewStore(ctx, b.config)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache store: %w", err)
		}
	}

	websiteCache := cache.New(store, websiteFetcher,
		cache.WithLifetime(b.config.GetCacheLifetime()),
		cache.WithMetrics(cacheMetrics),
		cache.WithTracer(tracer),
	)

	svc, err := service.New(websiteCache, service.WithTracer(tracer))
	if err != nil {
		_ = websiteCache.Close()
		return nil, fmt.Errorf("failed to create service: %w", err)
	}

	slog.Info("Pipeline components initialized",
		"backend", b.config.GetCacheBackend(),
		"lifetime", b.config.GetCacheLifetime(),
		"concurrency", b.config.GetFetchConcurrency())

	return &AppComponents{
		Fetcher: websiteFetcher,
		Cache:   websiteCache,
		Service: svc,
	}, nil
}

// NewMonitoringApp builds the server application. With WithConfigPath the
// configuration file is watched and every valid change clears the cache.
func NewMonitoringApp(ctx context.Context, opts ...MonitoringAppOptions) (*MonitoringApp, error) {
	b, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	app := &MonitoringApp{}

	if b.config == nil && b.configPath != "" {
		cm, err := config.NewConfigManager(b.configPath, config.WithReloadHook(app.onConfigReload))
		if err != nil {
			return nil, err
		}
		app.configManager = cm
		b.config = cm.GetConfig()
		if b.source == nil {
			b.source = cm
		}
	}
	if b.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if b.address == "" {
		b.address = b.config.GetAddress()
	}

	components, err := buildComponents(ctx, b)
	if err != nil {
		app.closeConfigManager()
		return nil, fmt.Errorf("failed to build components: %w", err)
	}

	httpServer, err := buildHTTPServer(b, components.Service)
	if err != nil {
		_ = components.Close()
		app.closeConfigManager()
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)
	app.config = b.config
	app.components = components
	app.httpServer = httpServer
	app.ctx = appCtx
	app.cancelFunc = cancel

	return app, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
func buildHTTPServer(b *monitoringAppConfig, svc service.MonitoringService) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Metrics and tracing go first to capture every request
	if b.tracerProvider != nil {
		b.middlewares = append([]func(http.Handler) http.Handler{telemetry.TracingMiddleware(b.tracerProvider)}, b.middlewares...)
		slog.Info("HTTP tracing middleware enabled")
	}
	if b.meterProvider != nil {
		metricsMiddleware, err := telemetry.MetricsMiddleware(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
		}
		if metricsMiddleware != nil {
			b.middlewares = append([]func(http.Handler) http.Handler{metricsMiddleware}, b.middlewares...)
			slog.Info("HTTP metrics middleware enabled")
		}
	}

	serverOpts := []api.ServerOption{api.WithMiddlewares(b.middlewares...)}
	if b.metricsHandler != nil {
		serverOpts = append(serverOpts, api.WithMetricsHandler(b.metricsHandler))
	}
	if sat := b.config.GetExampleSatellite(); sat != nil {
		serverOpts = append(serverOpts, api.WithExampleSatellite(sat.User, sat.Password))
		slog.Info("Example satellite enabled", "path", api.ExamplePrefix)
	}

	server := &http.Server{
		Addr:         b.address,
		Handler:      api.NewServer(svc, serverOpts...),
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
