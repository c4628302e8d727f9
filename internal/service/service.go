// Package service provides the operations the HTTP API exposes on top of
// the website data cache.
package service

import (
	"context"
	"errors"

	"github.com/marcosimbuerger/monitoring-station/internal/fetcher"
	"github.com/marcosimbuerger/monitoring-station/internal/filtering"
)

var (
	// ErrWebsiteNotFound is returned when no record carries the requested name
	ErrWebsiteNotFound = errors.New("website not found")
	// ErrInvalidFilter is returned for malformed filter criteria
	ErrInvalidFilter = errors.New("invalid filter")
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go MonitoringService,WebsiteCache

// MonitoringService defines the operations on the aggregated website data
type MonitoringService interface {
	// CheckReadiness reports whether the cache backend is reachable
	CheckReadiness(ctx context.Context) error

	// ListWebsites returns the aggregated website data, optionally filtered
	ListWebsites(ctx context.Context, opts ...Option[ListWebsitesOptions]) (fetcher.AggregateResult, error)

	// GetWebsite returns the record of a single website by name
	GetWebsite(ctx context.Context, name string, opts ...Option[GetWebsiteOptions]) (*fetcher.SiteRecord, error)

	// ClearCache removes the stored website data
	ClearCache(ctx context.Context) error

	// PruneCache removes stale entries from the cache backend
	PruneCache(ctx context.Context) error
}

// WebsiteCache is the part of cache.WebsiteDataCache the service relies on
type WebsiteCache interface {
	Fetch(ctx context.Context, useCache bool) fetcher.AggregateResult
	Delete(ctx context.Context) error
	Prune(ctx context.Context) error
	Ping(ctx context.Context) error
}

// Option sets an option for ListWebsites or GetWebsite
type Option[T ListWebsitesOptions | GetWebsiteOptions] func(*T) error

// ListWebsitesOptions is the options for the ListWebsites operation
type ListWebsitesOptions struct {
	BypassCache bool
	Criteria    *filtering.Criteria
}

// GetWebsiteOptions is the options for the GetWebsite operation
type GetWebsiteOptions struct {
	BypassCache bool
}

// WithoutCache recomputes the data instead of reading the cache
func WithoutCache[T ListWebsitesOptions | GetWebsiteOptions]() Option[T] {
	return func(o *T) error {
		switch opts := any(o).(type) {
		case *ListWebsitesOptions:
			opts.BypassCache = true
		case *GetWebsiteOptions:
			opts.BypassCache = true
		}
		return nil
	}
}

// WithCriteria filters the listed websites
func WithCriteria(criteria *filtering.Criteria) Option[ListWebsitesOptions] {
	return func(o *ListWebsitesOptions) error {
		if err := criteria.Validate(); err != nil {
			return errors.Join(ErrInvalidFilter, err)
		}
		o.Criteria = criteria
		return nil
	}
}
