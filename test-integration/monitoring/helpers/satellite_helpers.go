package helpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"

	"github.com/marcosimbuerger/monitoring-station/internal/api/satellite"
)

// SatelliteServer is a monitoring satellite whose payload can be changed
// while the test runs
type SatelliteServer struct {
	*httptest.Server

	User     string
	Password string

	mu      sync.RWMutex
	payload []byte
	status  int
	hits    atomic.Int32
}

// NewSatelliteServer starts a satellite that answers with the given payload
// behind basic auth
func NewSatelliteServer(user, password string, payload map[string]any) *SatelliteServer {
	s := &SatelliteServer{User: user, Password: password, status: http.StatusOK}
	s.SetPayload(payload)

	s.Server = httptest.NewUnstartedServer(http.HandlerFunc(s.handle))
	s.Config.SetKeepAlivesEnabled(false)
	s.Start()
	return s
}

// DrupalPayload is the status reported by the example satellite
func DrupalPayload() map[string]any {
	payload := make(map[string]any, len(satellite.Status))
	for k, v := range satellite.Status {
		payload[k] = v
	}
	return payload
}

func (s *SatelliteServer) handle(w http.ResponseWriter, r *http.Request) {
	s.hits.Add(1)

	user, password, ok := r.BasicAuth()
	if r.URL.Path != satellite.Path || !ok || user != s.User || password != s.Password {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(s.status)
	_, _ = w.Write(s.payload)
}

// SetPayload replaces the reported status
func (s *SatelliteServer) SetPayload(payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	s.payload = data
	s.mu.Unlock()
}

// SetRawResponse makes the satellite answer with an arbitrary status and body
func (s *SatelliteServer) SetRawResponse(status int, body string) {
	s.mu.Lock()
	s.status = status
	s.payload = []byte(body)
	s.mu.Unlock()
}

// Hits returns the number of requests received
func (s *SatelliteServer) Hits() int {
	return int(s.hits.Load())
}
