package app

import (
	"github.com/marcosimbuerger/monitoring-station/internal/cache"
	"github.com/marcosimbuerger/monitoring-station/internal/fetcher"
	"github.com/marcosimbuerger/monitoring-station/internal/service"
)

// AppComponents groups the fetch-validate-aggregate-cache pipeline
//
//nolint:revive // This name is fine
type AppComponents struct {
	// Fetcher queries the satellites of the configured websites
	Fetcher *fetcher.WebsiteDataFetcher

	// Cache serves the aggregated result from the configured backend
	Cache *cache.WebsiteDataCache

	// Service exposes the cache to the HTTP API
	Service service.MonitoringService
}

// Close releases the cache backend
func (c *AppComponents) Close() error {
	if c == nil || c.Cache == nil {
		return nil
	}
	return c.Cache.Close()
}
