// Package httpclient provides the HTTP client used to query monitoring satellites.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/marcosimbuerger/monitoring-station/internal/versions"
)

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client

const (
	// DefaultTimeout applies when NewDefaultClient is given no timeout
	DefaultTimeout = 10 * time.Second

	// MaxResponseSize caps a satellite status document at 1MB
	MaxResponseSize = 1 << 20
)

// UserAgent identifies the station to satellites
var UserAgent = "monitoring-station/" + versions.Version

// Client is an interface for HTTP operations
type Client interface {
	// Get fetches url and returns the body of a 200 response.
	// Any other status is reported as *HTTPError.
	Get(ctx context.Context, url string, opts ...RequestOption) ([]byte, error)
}

// RequestOption configures a single request
type RequestOption func(*http.Request)

// WithBasicAuth sets the credentials a satellite expects
func WithBasicAuth(user, password string) RequestOption {
	return func(req *http.Request) {
		req.SetBasicAuth(user, password)
	}
}

// DefaultClient is the net/http backed Client
type DefaultClient struct {
	client *http.Client
}

// NewDefaultClient returns a Client whose requests time out after timeout,
// or DefaultTimeout when timeout is zero
func NewDefaultClient(timeout time.Duration) Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &DefaultClient{client: &http.Client{Timeout: timeout}}
}

// Get implements Client. The trace context of ctx is propagated to the satellite.
func (c *DefaultClient) Get(ctx context.Context, url string, opts ...RequestOption) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, NewHTTPError(resp.StatusCode, url, resp.Status)
	}
	return readLimited(resp)
}

// readLimited reads the body, refusing anything above MaxResponseSize
func readLimited(resp *http.Response) ([]byte, error) {
	if resp.ContentLength > MaxResponseSize {
		return nil, fmt.Errorf("response of %d bytes exceeds maximum allowed size of %d bytes",
			resp.ContentLength, MaxResponseSize)
	}

	// One byte past the limit tells an oversized body from one that fits exactly
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeds maximum allowed size of %d bytes", MaxResponseSize)
	}
	return body, nil
}
