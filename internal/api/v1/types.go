package v1

import "github.com/marcosimbuerger/monitoring-station/internal/fetcher"

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status" example:"healthy"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status string `json:"status" example:"ready"`
}

// WebsitesResponse is the body of the website list
type WebsitesResponse struct {
	Websites fetcher.AggregateResult `json:"websites"`
	Count    int                     `json:"count"`
}
