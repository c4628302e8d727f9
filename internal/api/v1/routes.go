// Package v1 provides the REST handlers for the aggregated website data.
package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marcosimbuerger/monitoring-station/internal/api/common"
	"github.com/marcosimbuerger/monitoring-station/internal/filtering"
	"github.com/marcosimbuerger/monitoring-station/internal/service"
	"github.com/marcosimbuerger/monitoring-station/internal/versions"
)

// Routes holds the handlers of the v1 API
type Routes struct {
	service service.MonitoringService
}

// NewRoutes creates a new Routes instance with the provided service
func NewRoutes(svc service.MonitoringService) *Routes {
	return &Routes{service: svc}
}

// Router creates the router mounted at /api/v1
func Router(svc service.MonitoringService) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()
	r.Get("/websites", routes.listWebsites)
	r.Get("/websites/{name}", routes.getWebsite)
	r.Delete("/cache", routes.clearCache)
	r.Post("/cache/prune", routes.pruneCache)

	return r
}

// HealthRouter creates a router for health check endpoints
func HealthRouter(svc service.MonitoringService) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(svc))
	r.Get("/version", versionHandler)

	return r
}

// listWebsites handles GET /api/v1/websites
//
// Query parameters:
//
//	cache=false       recompute instead of reading the cache
//	include, exclude  glob patterns on the website name
//	cms, exclude_cms  CMS names, case-insensitive
//	cms_version       semver range on the CMS version
//	php_version       semver range on the PHP version
func (rr *Routes) listWebsites(w http.ResponseWriter, r *http.Request) {
	useCache, err := common.QueryBool(r, "cache", true)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	criteria := &filtering.Criteria{
		NameInclude: common.QueryList(r, "include"),
		NameExclude: common.QueryList(r, "exclude"),
		CMSInclude:  common.QueryList(r, "cms"),
		CMSExclude:  common.QueryList(r, "exclude_cms"),
		CMSVersion:  r.URL.Query().Get("cms_version"),
		PHPVersion:  r.URL.Query().Get("php_version"),
	}

	opts := []service.Option[service.ListWebsitesOptions]{service.WithCriteria(criteria)}
	if !useCache {
		opts = append(opts, service.WithoutCache[service.ListWebsitesOptions]())
	}

	result, err := rr.service.ListWebsites(r.Context(), opts...)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	common.WriteJSONResponse(w, WebsitesResponse{Websites: result, Count: len(result)}, http.StatusOK)
}

// getWebsite handles GET /api/v1/websites/{name}
func (rr *Routes) getWebsite(w http.ResponseWriter, r *http.Request) {
	name, err := common.GetAndValidateURLParam(r, "name")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	useCache, err := common.QueryBool(r, "cache", true)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	var opts []service.Option[service.GetWebsiteOptions]
	if !useCache {
		opts = append(opts, service.WithoutCache[service.GetWebsiteOptions]())
	}

	record, err := rr.service.GetWebsite(r.Context(), name, opts...)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	common.WriteJSONResponse(w, record, http.StatusOK)
}

// clearCache handles DELETE /api/v1/cache
func (rr *Routes) clearCache(w http.ResponseWriter, r *http.Request) {
	if err := rr.service.ClearCache(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pruneCache handles POST /api/v1/cache/prune
func (rr *Routes) pruneCache(w http.ResponseWriter, r *http.Request) {
	if err := rr.service.PruneCache(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidFilter):
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrWebsiteNotFound):
		common.WriteErrorResponse(w, err.Error(), http.StatusNotFound)
	default:
		slog.Error("Request failed", "error", err)
		common.WriteErrorResponse(w, err.Error(), http.StatusInternalServerError)
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, HealthResponse{Status: "healthy"}, http.StatusOK)
}

func readinessHandler(svc service.MonitoringService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.CheckReadiness(r.Context()); err != nil {
			common.WriteErrorResponse(w, "Service not ready: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		common.WriteJSONResponse(w, ReadinessResponse{Status: "ready"}, http.StatusOK)
	}
}

func versionHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
}
