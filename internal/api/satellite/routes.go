// Package satellite serves a stand-in monitoring satellite so that a
// station can be tried out without a real website behind it.
package satellite

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marcosimbuerger/monitoring-station/internal/api/common"
)

const (
	// Path is the satellite endpoint relative to the satellite base URL
	Path = "/monitoring-satellite/v1/get"

	realm = "monitoring-satellite"
)

// Status is the payload the example satellite reports
var Status = map[string]string{
	"cms":         "Drupal",
	"cms_version": "9.0.2",
	"php_version": "7.4",
}

// Router serves the satellite endpoint behind basic auth with the given
// credentials
func Router(user, password string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.BasicAuth(realm, map[string]string{user: password}))
	r.Get(Path, func(w http.ResponseWriter, _ *http.Request) {
		common.WriteJSONResponse(w, Status, http.StatusOK)
	})
	return r
}
