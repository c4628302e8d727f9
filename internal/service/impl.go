package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/marcosimbuerger/monitoring-station/internal/fetcher"
	"github.com/marcosimbuerger/monitoring-station/internal/filtering"
	"github.com/marcosimbuerger/monitoring-station/internal/otel"
)

type monitoringService struct {
	cache  WebsiteCache
	filter filtering.FilterService
	tracer trace.Tracer
}

var _ MonitoringService = (*monitoringService)(nil)

// ServiceOption configures the monitoring service
//
//nolint:revive // This name is fine
type ServiceOption func(*monitoringService)

// WithFilterService replaces the default name/cms/version filter
func WithFilterService(f filtering.FilterService) ServiceOption {
	return func(s *monitoringService) {
		s.filter = f
	}
}

// WithTracer sets the tracer for service spans
func WithTracer(t trace.Tracer) ServiceOption {
	return func(s *monitoringService) {
		s.tracer = t
	}
}

// New creates a MonitoringService over cache
func New(cache WebsiteCache, opts ...ServiceOption) (MonitoringService, error) {
	if cache == nil {
		return nil, fmt.Errorf("website cache is required")
	}
	s := &monitoringService{
		cache:  cache,
		filter: filtering.NewDefaultFilterService(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func applyOptions[T ListWebsitesOptions | GetWebsiteOptions](opts []Option[T]) (*T, error) {
	o := new(T)
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (s *monitoringService) CheckReadiness(ctx context.Context) error {
	if err := s.cache.Ping(ctx); err != nil {
		return fmt.Errorf("cache backend not ready: %w", err)
	}
	return nil
}

func (s *monitoringService) ListWebsites(
	ctx context.Context,
	opts ...Option[ListWebsitesOptions],
) (fetcher.AggregateResult, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "service.ListWebsites")
	defer span.End()

	o, err := applyOptions(opts)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	result := s.cache.Fetch(ctx, !o.BypassCache)
	result = s.filter.Apply(result, o.Criteria)
	span.SetAttributes(otel.AttrResultCount.Int(len(result)))
	return result, nil
}

func (s *monitoringService) GetWebsite(
	ctx context.Context,
	name string,
	opts ...Option[GetWebsiteOptions],
) (*fetcher.SiteRecord, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "service.GetWebsite",
		trace.WithAttributes(otel.AttrWebsiteName.String(name)),
	)
	defer span.End()

	o, err := applyOptions(opts)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	for _, record := range s.cache.Fetch(ctx, !o.BypassCache) {
		if record.Name == name {
			return &record, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrWebsiteNotFound, name)
}

func (s *monitoringService) ClearCache(ctx context.Context) error {
	if err := s.cache.Delete(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

func (s *monitoringService) PruneCache(ctx context.Context) error {
	if err := s.cache.Prune(ctx); err != nil {
		return fmt.Errorf("failed to prune cache: %w", err)
	}
	return nil
}
