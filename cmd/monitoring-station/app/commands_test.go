package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcosimbuerger/monitoring-station/internal/api/satellite"
	"github.com/marcosimbuerger/monitoring-station/internal/config"
)

// newSatellite starts the example satellite and counts its requests
func newSatellite(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	hits := &atomic.Int32{}
	router := satellite.Router("foo", "bar")
	server := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		router.ServeHTTP(w, r)
	}))
	server.Config.SetKeepAlivesEnabled(false)
	server.Start()
	t.Cleanup(server.Close)

	return server, hits
}

func writeConfig(t *testing.T, satelliteURL string) string {
	t.Helper()

	dir := t.TempDir()
	content := fmt.Sprintf(`websites:
  - name: Pizza
    url: %s
    basic_auth:
      user: foo
      password: bar
  - name: Burger
    url: %s/
    basic_auth:
      user: foo
      password: wrong
cache:
  backend: file
  file:
    path: %s
`, satelliteURL, satelliteURL, filepath.Join(dir, "cache"))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "version", "--format", "json")
	require.NoError(t, err)

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.NotEmpty(t, info["version"])
	assert.NotEmpty(t, info["go_version"])

	out, err = execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "monitoring-station "))
}

func TestFetchCmd(t *testing.T) {
	t.Parallel()

	server, hits := newSatellite(t)
	path := writeConfig(t, server.URL)

	out, err := execute(t, "fetch", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, msgFinished+"\n", out)
	assert.Equal(t, int32(2), hits.Load())

	// Served from the cache
	out, err = execute(t, "fetch", "--config", path, "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())

	var records []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, map[string]string{
		"name":        "Pizza",
		"url":         server.URL,
		"cms":         "Drupal",
		"cms_version": "9.0.2",
		"php_version": "7.4",
	}, records[0])

	_, err = execute(t, "fetch", "--config", path, "--no-cache")
	require.NoError(t, err)
	assert.Equal(t, int32(4), hits.Load())

	out, err = execute(t, "fetch", "--config", path, "--format", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Pizza")
	assert.Contains(t, out, "9.0.2")
	assert.NotContains(t, out, "Burger")

	_, err = execute(t, "fetch", "--config", path, "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestCacheMaintenanceCmds(t *testing.T) {
	t.Parallel()

	server, hits := newSatellite(t)
	path := writeConfig(t, server.URL)

	_, err := execute(t, "fetch", "--config", path)
	require.NoError(t, err)

	out, err := execute(t, "prune-cache", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, msgPruned+"\n", out)

	// A fresh entry survives pruning
	_, err = execute(t, "fetch", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())

	out, err = execute(t, "clear-cache", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, msgCleared+"\n", out)

	_, err = execute(t, "fetch", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, int32(4), hits.Load())
}

func TestConfigFromEnvironment(t *testing.T) {
	server, _ := newSatellite(t)
	t.Setenv(config.EnvPrefix+"_CONFIG", writeConfig(t, server.URL))

	out, err := execute(t, "clear-cache")
	require.NoError(t, err)
	assert.Equal(t, msgCleared+"\n", out)
}

func TestCommandErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	noWebsites := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(noWebsites, []byte("websites: []\n"), 0600))

	memoryOnly := filepath.Join(dir, "memory.yaml")
	require.NoError(t, os.WriteFile(memoryOnly, []byte(`websites:
  - name: Pizza
    url: https://pizza.example.com
cache:
  backend: memory
`), 0600))

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "fetch without config",
			args:    []string{"fetch"},
			wantErr: "a configuration file is required",
		},
		{
			name:    "fetch without websites",
			args:    []string{"fetch", "--config", noWebsites},
			wantErr: "at least one website must be configured",
		},
		{
			name:    "fetch with missing file",
			args:    []string{"fetch", "--config", filepath.Join(dir, "missing.yaml")},
			wantErr: "failed to load configuration",
		},
		{
			name:    "serve without websites",
			args:    []string{"serve", "--config", noWebsites},
			wantErr: "at least one website must be configured",
		},
		{
			name:    "migrate without postgres",
			args:    []string{"migrate", "up", "--config", memoryOnly, "--yes"},
			wantErr: "postgres cache configuration is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReport(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, report(cmd, nil, msgCleared))
	require.ErrorIs(t, report(cmd, assert.AnError, msgCleared), ErrCommandFailed)
	assert.Equal(t, msgCleared+"\n"+msgFailed+"\n", out.String())
}
