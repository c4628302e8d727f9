package fetcher_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"

	"github.com/marcosimbuerger/monitoring-station/internal/config"
	"github.com/marcosimbuerger/monitoring-station/internal/fetcher"
	"github.com/marcosimbuerger/monitoring-station/internal/httpclient"
	"github.com/marcosimbuerger/monitoring-station/internal/httpclient/mocks"
	"github.com/marcosimbuerger/monitoring-station/internal/telemetry"
)

const drupalStatus = `{"cms":"Drupal","cms_version":"9.0.2","php_version":"7.4"}`

// newSatellite starts a monitoring satellite that requires foo/bar basic auth.
// Keep-alives are disabled so closing one server does not affect parallel tests.
func newSatellite(t *testing.T, body string, delay time.Duration, hits *atomic.Int32) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if r.URL.Path != fetcher.SatellitePath {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		user, password, ok := r.BasicAuth()
		if !ok || user != "foo" || password != "bar" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		time.Sleep(delay)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	server.Config.SetKeepAlivesEnabled(false)
	t.Cleanup(server.Close)
	return server
}

func website(name, url string) config.Website {
	return config.Website{
		"name": name,
		"url":  url,
		"basic_auth": map[string]any{
			"user":     "foo",
			"password": "bar",
		},
	}
}

func source(websites ...config.Website) *config.Config {
	return &config.Config{Sites: websites}
}

func drupalRecord(name, url string) fetcher.SiteRecord {
	return fetcher.SiteRecord{
		Name: name,
		URL:  url,
		Status: map[string]any{
			"cms":         "Drupal",
			"cms_version": "9.0.2",
			"php_version": "7.4",
		},
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	client := httpclient.NewDefaultClient(time.Second)

	tests := []struct {
		name    string
		source  fetcher.WebsiteSource
		client  httpclient.Client
		wantErr error
		errMsg  string
	}{
		{
			name:    "nil source",
			source:  nil,
			client:  client,
			wantErr: fetcher.ErrNoWebsites,
		},
		{
			name:    "no websites",
			source:  source(),
			client:  client,
			wantErr: fetcher.ErrNoWebsites,
		},
		{
			name:   "nil client",
			source: source(website("Pizza", "https://pizza.example.com")),
			client: nil,
			errMsg: "http client is required",
		},
		{
			name:   "valid",
			source: source(website("Pizza", "https://pizza.example.com")),
			client: client,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, err := fetcher.New(tt.source, tt.client)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, f)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			default:
				require.NoError(t, err)
				assert.NotNil(t, f)
			}
		})
	}
}

func TestEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		expected string
	}{
		{"https://pizza.example.com", "https://pizza.example.com/monitoring-satellite/v1/get"},
		{"https://pizza.example.com/", "https://pizza.example.com/monitoring-satellite/v1/get"},
		{"https://pizza.example.com//", "https://pizza.example.com/monitoring-satellite/v1/get"},
		{"https://example.com/pizza", "https://example.com/pizza/monitoring-satellite/v1/get"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, fetcher.Endpoint(tt.in))
		})
	}
}

func TestFetch_EndToEnd(t *testing.T) {
	t.Parallel()

	for _, concurrency := range []int{1, 4} {
		t.Run(fmt.Sprintf("concurrency %d", concurrency), func(t *testing.T) {
			t.Parallel()

			pizza := newSatellite(t, drupalStatus, 0, nil)
			burger := newSatellite(t, drupalStatus, 0, nil)

			f, err := fetcher.New(
				source(website("Pizza", pizza.URL), website("Burger", burger.URL)),
				httpclient.NewDefaultClient(5*time.Second),
				fetcher.WithConcurrency(concurrency),
			)
			require.NoError(t, err)

			result := f.Fetch(context.Background())

			assert.Equal(t, fetcher.AggregateResult{
				drupalRecord("Pizza", pizza.URL),
				drupalRecord("Burger", burger.URL),
			}, result)
		})
	}
}

func TestFetch_ParsedConfig(t *testing.T) {
	t.Parallel()

	pizza := newSatellite(t, drupalStatus, 0, nil)
	burger := newSatellite(t, `{"cms":"WordPress","cms_version":6.4,"php_version":8.2}`, 0, nil)

	cfg, err := config.Parse(fmt.Appendf(nil, `websites:
  - name: Pizza
    url: %s
    basic_auth:
      user: foo
      password: bar
  - name: Burger
    url: %s/
    basic_auth:
      user: foo
      password: bar
`, pizza.URL, burger.URL))
	require.NoError(t, err)

	f, err := fetcher.New(cfg, httpclient.NewDefaultClient(5*time.Second))
	require.NoError(t, err)

	assert.Equal(t, fetcher.AggregateResult{
		drupalRecord("Pizza", pizza.URL),
		{
			Name: "Burger",
			URL:  burger.URL + "/",
			Status: map[string]any{
				"cms":         "WordPress",
				"cms_version": "6.4",
				"php_version": "8.2",
			},
		},
	}, f.Fetch(context.Background()))
}

func TestFetch_PreservesOrderUnderConcurrency(t *testing.T) {
	t.Parallel()

	// Earlier websites answer later
	slow := newSatellite(t, drupalStatus, 300*time.Millisecond, nil)
	medium := newSatellite(t, drupalStatus, 150*time.Millisecond, nil)
	fast := newSatellite(t, drupalStatus, 0, nil)

	f, err := fetcher.New(
		source(website("Slow", slow.URL), website("Medium", medium.URL), website("Fast", fast.URL)),
		httpclient.NewDefaultClient(5*time.Second),
		fetcher.WithConcurrency(3),
	)
	require.NoError(t, err)

	result := f.Fetch(context.Background())

	require.Len(t, result, 3)
	assert.Equal(t, "Slow", result[0].Name)
	assert.Equal(t, "Medium", result[1].Name)
	assert.Equal(t, "Fast", result[2].Name)
}

func TestFetch_SkipsInvalidWebsiteWithoutRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		invalid config.Website
	}{
		{
			name:    "missing name",
			invalid: config.Website{"url": "https://a.example.com", "basic_auth": map[string]any{"user": "foo", "password": "bar"}},
		},
		{
			name:    "missing url",
			invalid: config.Website{"name": "A", "basic_auth": map[string]any{"user": "foo", "password": "bar"}},
		},
		{
			name:    "missing user",
			invalid: config.Website{"name": "A", "url": "https://a.example.com", "basic_auth": map[string]any{"password": "bar"}},
		},
		{
			name:    "missing password",
			invalid: config.Website{"name": "A", "url": "https://a.example.com", "basic_auth": map[string]any{"user": "foo"}},
		},
		{
			name:    "empty password",
			invalid: config.Website{"name": "A", "url": "https://a.example.com", "basic_auth": map[string]any{"user": "foo", "password": ""}},
		},
		{
			name:    "basic auth is not a mapping",
			invalid: config.Website{"name": "A", "url": "https://a.example.com", "basic_auth": "foo:bar"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			client := mocks.NewMockClient(ctrl)

			// Only the valid website is requested
			client.EXPECT().
				Get(gomock.Any(), "https://b.example.com/monitoring-satellite/v1/get", gomock.Any()).
				Return([]byte(drupalStatus), nil).
				Times(1)

			f, err := fetcher.New(source(tt.invalid, website("B", "https://b.example.com")), client)
			require.NoError(t, err)

			result := f.Fetch(context.Background())

			assert.Equal(t, fetcher.AggregateResult{drupalRecord("B", "https://b.example.com")}, result)
		})
	}
}

func TestFetch_SkipsUnusableResponses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body []byte
		err  error
	}{
		{name: "transport error", err: errors.New("connection refused")},
		{name: "non-200 status", err: httpclient.NewHTTPError(http.StatusForbidden, "https://a.example.com", "403 Forbidden")},
		{name: "empty body", body: []byte("")},
		{name: "whitespace body", body: []byte("  \n")},
		{name: "invalid JSON", body: []byte("<html>maintenance</html>")},
		{name: "JSON array", body: []byte(`[{"cms":"Drupal"}]`)},
		{name: "JSON string", body: []byte(`"Drupal"`)},
		{name: "empty object", body: []byte(`{}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			client := mocks.NewMockClient(ctrl)
			client.EXPECT().
				Get(gomock.Any(), "https://a.example.com/monitoring-satellite/v1/get", gomock.Any()).
				Return(tt.body, tt.err).
				Times(1)

			f, err := fetcher.New(source(website("A", "https://a.example.com")), client)
			require.NoError(t, err)

			result := f.Fetch(context.Background())

			require.NotNil(t, result)
			assert.Empty(t, result)
		})
	}
}

func TestFetch_PartialFailure(t *testing.T) {
	t.Parallel()

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	down.Config.SetKeepAlivesEnabled(false)
	t.Cleanup(down.Close)
	up := newSatellite(t, drupalStatus, 0, nil)

	f, err := fetcher.New(
		source(website("Down", down.URL), website("Up", up.URL)),
		httpclient.NewDefaultClient(5*time.Second),
	)
	require.NoError(t, err)

	assert.Equal(t, fetcher.AggregateResult{drupalRecord("Up", up.URL)}, f.Fetch(context.Background()))
}

func TestFetch_Idempotent(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	pizza := newSatellite(t, drupalStatus, 0, &hits)

	f, err := fetcher.New(source(website("Pizza", pizza.URL)), httpclient.NewDefaultClient(5*time.Second))
	require.NoError(t, err)

	first := f.Fetch(context.Background())
	second := f.Fetch(context.Background())

	assert.Equal(t, first, second)
	assert.Equal(t, int32(2), hits.Load(), "every fetch queries the satellite exactly once")
}

func TestFetch_SanitizesResponse(t *testing.T) {
	t.Parallel()

	body := `{"cms":"<script>x</script>Drupal","cms_version":"<b>9.0.2</b>","php_version":"","secret":"s3cr3t"}`
	pizza := newSatellite(t, body, 0, nil)

	f, err := fetcher.New(source(website("Pizza", pizza.URL)), httpclient.NewDefaultClient(5*time.Second))
	require.NoError(t, err)

	result := f.Fetch(context.Background())

	require.Len(t, result, 1)
	assert.Equal(t, map[string]any{
		"cms":         "xDrupal",
		"cms_version": "9.0.2",
	}, result[0].Status)
}

func TestFetch_PicksUpSourceChanges(t *testing.T) {
	t.Parallel()

	pizza := newSatellite(t, drupalStatus, 0, nil)
	burger := newSatellite(t, drupalStatus, 0, nil)

	cfg := source(website("Pizza", pizza.URL))
	f, err := fetcher.New(cfg, httpclient.NewDefaultClient(5*time.Second))
	require.NoError(t, err)
	require.Len(t, f.Fetch(context.Background()), 1)

	cfg.Sites = append(cfg.Sites, website("Burger", burger.URL))
	assert.Len(t, f.Fetch(context.Background()), 2)
}

func TestFetch_Telemetry(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := telemetry.NewFetchMetrics(mp)
	require.NoError(t, err)

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	pizza := newSatellite(t, drupalStatus, 0, nil)

	f, err := fetcher.New(
		source(website("Pizza", pizza.URL), config.Website{"name": "Broken"}),
		httpclient.NewDefaultClient(5*time.Second),
		fetcher.WithMetrics(metrics),
		fetcher.WithTracer(tp.Tracer("test")),
	)
	require.NoError(t, err)

	require.Len(t, f.Fetch(context.Background()), 1)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	outcomes := map[attribute.Distinct]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "monitoring_station_site_fetch_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				outcomes[dp.Attributes.Equivalent()] = dp.Value
			}
		}
	}

	ok := attribute.NewSet(attribute.String("site", "Pizza"), attribute.String("outcome", telemetry.OutcomeOK))
	invalid := attribute.NewSet(attribute.String("site", "Broken"), attribute.String("outcome", telemetry.OutcomeInvalidConfig))
	assert.Equal(t, int64(1), outcomes[ok.Equivalent()])
	assert.Equal(t, int64(1), outcomes[invalid.Equivalent()])

	var names []string
	for _, span := range exporter.GetSpans() {
		names = append(names, span.Name)
	}
	assert.ElementsMatch(t, []string{"fetcher.fetchWebsite", "fetcher.Fetch"}, names)
}
