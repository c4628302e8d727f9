package api

import (
	_ "embed"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"gopkg.in/yaml.v3"

	"github.com/marcosimbuerger/monitoring-station/internal/api/satellite"
	v1 "github.com/marcosimbuerger/monitoring-station/internal/api/v1"
	"github.com/marcosimbuerger/monitoring-station/internal/service"
)

// ExamplePrefix is where the example satellite is mounted
const ExamplePrefix = "/example"

//go:embed openapi.yaml
var openAPIYAML []byte

// openAPIJSON is openAPIYAML converted once at package load
var openAPIJSON = mustConvertOpenAPI(openAPIYAML)

func mustConvertOpenAPI(doc []byte) []byte {
	var spec map[string]any
	if err := yaml.Unmarshal(doc, &spec); err != nil {
		panic("embedded OpenAPI document is not valid YAML: " + err.Error())
	}
	out, err := json.Marshal(spec)
	if err != nil {
		panic("embedded OpenAPI document cannot be represented as JSON: " + err.Error())
	}
	return out
}

// ServerOption configures the API server
type ServerOption func(*serverConfig)

type serverConfig struct {
	middlewares    []func(http.Handler) http.Handler
	metricsHandler http.Handler
	satelliteUser  string
	satellitePass  string
	satelliteOn    bool
}

// WithMiddlewares adds middleware to the server
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithMetricsHandler serves h on /metrics
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.metricsHandler = h
	}
}

// WithExampleSatellite mounts the example satellite under /example
func WithExampleSatellite(user, password string) ServerOption {
	return func(cfg *serverConfig) {
		cfg.satelliteOn = true
		cfg.satelliteUser = user
		cfg.satellitePass = password
	}
}

// NewServer creates and configures the HTTP router with the given service and options
func NewServer(svc service.MonitoringService, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()
	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	r.Mount("/", v1.HealthRouter(svc))
	r.Mount("/api/v1", v1.Router(svc))

	r.Get("/openapi.json", serveOpenAPI(openAPIJSON, "application/json"))
	r.Get("/openapi.yaml", serveOpenAPI(openAPIYAML, "application/x-yaml"))

	if cfg.metricsHandler != nil {
		r.Handle("/metrics", cfg.metricsHandler)
	}
	if cfg.satelliteOn {
		r.Mount(ExamplePrefix, satellite.Router(cfg.satelliteUser, cfg.satellitePass))
	}

	return r
}

func serveOpenAPI(doc []byte, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(doc)
	}
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.DebugContext(r.Context(), "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
