package httpclient

import (
	"fmt"
	"net/http"
	"net/url"
)

// HTTPError is returned when a satellite answers with anything but 200 OK
type HTTPError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for URL %s: %s", e.StatusCode, redact(e.URL), e.Message)
}

// AuthFailed reports whether the satellite rejected the configured basic auth credentials
func (e *HTTPError) AuthFailed() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// NewHTTPError builds the error for a response with statusCode from rawURL
func NewHTTPError(statusCode int, rawURL, message string) error {
	return &HTTPError{StatusCode: statusCode, URL: rawURL, Message: message}
}

// redact hides a password embedded in the URL so it does not end up in logs
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.User == nil {
		return rawURL
	}
	return u.Redacted()
}
