package helpers

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/onsi/gomega"

	stationapp "github.com/marcosimbuerger/monitoring-station/internal/app"
)

// WebsitesResponse mirrors the body of GET /api/v1/websites
type WebsitesResponse struct {
	Websites []map[string]any `json:"websites"`
	Count    int              `json:"count"`
}

// ServerTestHelper manages the monitoring station lifecycle for testing
type ServerTestHelper struct {
	ctx        context.Context
	listener   net.Listener
	baseURL    string
	httpClient *http.Client
	app        *stationapp.MonitoringApp
}

// NewServerTestHelper reserves a local port so the base URL is known before
// the configuration is written
func NewServerTestHelper(ctx context.Context) (*ServerTestHelper, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to reserve port: %w", err)
	}

	return &ServerTestHelper{
		ctx:      ctx,
		listener: ln,
		baseURL:  "http://" + ln.Addr().String(),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// StartServer starts the monitoring station with the given configuration file
func (s *ServerTestHelper) StartServer(configPath string) error {
	app, err := stationapp.NewMonitoringApp(s.ctx,
		stationapp.WithConfigPath(configPath),
		stationapp.WithAddress(s.listener.Addr().String()),
	)
	if err != nil {
		_ = s.listener.Close()
		return fmt.Errorf("failed to build app: %w", err)
	}
	s.app = app

	go func() {
		if err := app.Serve(s.listener); err != nil {
			fmt.Fprintf(os.Stderr, "Server start failed: %v\n", err)
		}
	}()

	return nil
}

// StopServer gracefully stops the server
func (s *ServerTestHelper) StopServer() error {
	if s.app != nil {
		return s.app.Stop(5 * time.Second)
	}
	return s.listener.Close()
}

// WaitForServerReady waits for the server to be ready to accept requests
func (s *ServerTestHelper) WaitForServerReady(timeout time.Duration) {
	gomega.Eventually(func() error {
		resp, err := s.httpClient.Get(s.baseURL + "/readiness")
		if err != nil {
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return nil
	}, timeout, 100*time.Millisecond).Should(gomega.Succeed(), "Server should be ready")
}

// Do sends a request with the given method to path
func (s *ServerTestHelper) Do(method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(s.ctx, method, s.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return s.httpClient.Do(req)
}

// GetWebsites requests /api/v1/websites with an optional query string
// and decodes the response
func (s *ServerTestHelper) GetWebsites(query string) WebsitesResponse {
	path := "/api/v1/websites"
	if query != "" {
		path += "?" + query
	}

	resp, err := s.Do(http.MethodGet, path)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	defer func() {
		_ = resp.Body.Close()
	}()
	gomega.Expect(resp.StatusCode).To(gomega.Equal(http.StatusOK))

	var body WebsitesResponse
	gomega.Expect(json.NewDecoder(resp.Body).Decode(&body)).To(gomega.Succeed())
	return body
}

// Names returns the website names of a response in order
func (r WebsitesResponse) Names() []string {
	names := make([]string, 0, len(r.Websites))
	for _, w := range r.Websites {
		names = append(names, fmt.Sprint(w["name"]))
	}
	return names
}

// GetBaseURL returns the base URL of the server
func (s *ServerTestHelper) GetBaseURL() string {
	return s.baseURL
}
