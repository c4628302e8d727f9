package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/marcosimbuerger/monitoring-station/internal/config"
	"github.com/marcosimbuerger/monitoring-station/internal/httpclient"
	"github.com/marcosimbuerger/monitoring-station/internal/otel"
	"github.com/marcosimbuerger/monitoring-station/internal/telemetry"
	"github.com/marcosimbuerger/monitoring-station/internal/validators"
)

// SatellitePath is appended to a website URL to reach its monitoring satellite
const SatellitePath = "/monitoring-satellite/v1/get"

var (
	errEmptyBody = errors.New("response body is empty")
	errNotObject = errors.New("response is not a JSON object")
)

// WebsiteDataFetcher queries the monitoring satellite of every configured website.
type WebsiteDataFetcher struct {
	source      WebsiteSource
	client      httpclient.Client
	concurrency int
	metrics     *telemetry.FetchMetrics
	tracer      trace.Tracer
	logger      *slog.Logger
}

var _ Aggregator = (*WebsiteDataFetcher)(nil)

// Option configures a WebsiteDataFetcher
type Option func(*WebsiteDataFetcher)

// WithConcurrency sets how many satellites are queried at once.
// Values below 2 query them one after another.
func WithConcurrency(n int) Option {
	return func(f *WebsiteDataFetcher) {
		f.concurrency = n
	}
}

// WithMetrics sets the fetch metrics
func WithMetrics(m *telemetry.FetchMetrics) Option {
	return func(f *WebsiteDataFetcher) {
		f.metrics = m
	}
}

// WithTracer sets the tracer
func WithTracer(t trace.Tracer) Option {
	return func(f *WebsiteDataFetcher) {
		f.tracer = t
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(f *WebsiteDataFetcher) {
		f.logger = l
	}
}

// New creates a fetcher for the websites of source. It returns ErrNoWebsites
// when source yields no website at all.
func New(source WebsiteSource, client httpclient.Client, opts ...Option) (*WebsiteDataFetcher, error) {
	if source == nil || len(source.Websites()) == 0 {
		return nil, ErrNoWebsites
	}
	if client == nil {
		return nil, fmt.Errorf("http client is required")
	}

	f := &WebsiteDataFetcher{
		source:      source,
		client:      client,
		concurrency: 1,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Endpoint returns the satellite endpoint of a website base URL
func Endpoint(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + SatellitePath
}

// Fetch queries every configured website once. Websites that are misconfigured
// or do not answer with a usable status are left out; the order of the
// remaining records follows the configuration.
func (f *WebsiteDataFetcher) Fetch(ctx context.Context) AggregateResult {
	runID := uuid.NewString()
	ctx, span := otel.StartSpan(ctx, f.tracer, "fetcher.Fetch",
		trace.WithAttributes(otel.AttrFetchRunID.String(runID)),
	)
	defer span.End()

	start := time.Now()
	logger := f.logger.With("run_id", runID)
	websites := f.source.Websites()

	// One slot per website keeps the configuration order under concurrency
	slots := make([]*SiteRecord, len(websites))
	if f.concurrency < 2 {
		for i, website := range websites {
			slots[i] = f.fetchWebsite(ctx, logger, website)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(f.concurrency)
		for i, website := range websites {
			g.Go(func() error {
				slots[i] = f.fetchWebsite(ctx, logger, website)
				return nil
			})
		}
		_ = g.Wait()
	}

	result := make(AggregateResult, 0, len(slots))
	for _, record := range slots {
		if record != nil {
			result = append(result, *record)
		}
	}

	duration := time.Since(start)
	span.SetAttributes(otel.AttrResultCount.Int(len(result)))
	f.metrics.RecordFetch(ctx, duration, len(result))

	logger.Info("Fetched website data",
		"websites", len(websites),
		"records", len(result),
		"duration", duration,
	)
	return result
}

// fetchWebsite returns the record of one website, or nil if it has to be skipped
func (f *WebsiteDataFetcher) fetchWebsite(ctx context.Context, logger *slog.Logger, website config.Website) *SiteRecord {
	name := website.Name()

	if err := validators.CheckWebsite(website); err != nil {
		logger.Debug("Skipping website with invalid configuration", "website", name, "error", err)
		f.metrics.RecordSiteFetch(ctx, name, telemetry.OutcomeInvalidConfig)
		return nil
	}

	url := website.URL()
	ctx, span := otel.StartSpan(ctx, f.tracer, "fetcher.fetchWebsite",
		trace.WithAttributes(
			otel.AttrWebsiteName.String(name),
			otel.AttrWebsiteURL.String(url),
		),
	)
	defer span.End()

	body, err := f.client.Get(ctx, Endpoint(url), httpclient.WithBasicAuth(website.User(), website.Password()))
	if err != nil {
		otel.RecordError(span, err)

		var httpErr *httpclient.HTTPError
		switch {
		case errors.As(err, &httpErr) && httpErr.AuthFailed():
			logger.Warn("Satellite rejected the configured credentials",
				"website", name, "status_code", httpErr.StatusCode)
			f.metrics.RecordSiteFetch(ctx, name, telemetry.OutcomeUnauthorized)
			return nil
		case httpErr != nil:
			logger.Warn("Satellite answered with an error status",
				"website", name, "status_code", httpErr.StatusCode)
			f.metrics.RecordSiteFetch(ctx, name, telemetry.OutcomeBadStatus)
			return nil
		}

		logger.Warn("Failed to reach satellite", "website", name, "error", err)
		f.metrics.RecordSiteFetch(ctx, name, telemetry.OutcomeTransportError)
		return nil
	}

	status, err := decodeStatus(body)
	if err != nil {
		otel.RecordError(span, err)
		logger.Warn("Satellite returned an unusable response", "website", name, "error", err)
		f.metrics.RecordSiteFetch(ctx, name, telemetry.OutcomeInvalidBody)
		return nil
	}

	f.metrics.RecordSiteFetch(ctx, name, telemetry.OutcomeOK)
	return &SiteRecord{
		Name:   name,
		URL:    url,
		Status: validators.SanitizeResponse(status),
	}
}

// decodeStatus parses a satellite response. Empty bodies, anything other than
// a JSON object, and objects without any member are rejected.
func decodeStatus(body []byte) (map[string]any, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errEmptyBody
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("response is not valid JSON")
	}
	if !gjson.ParseBytes(body).IsObject() {
		return nil, errNotObject
	}

	// Numbers keep their literal text, so "php_version": 7.40 stays "7.40"
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var status map[string]any
	if err := dec.Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(status) == 0 {
		return nil, errEmptyBody
	}
	return status, nil
}
