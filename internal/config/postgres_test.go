package config

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSecret(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pg-password")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestPostgresConfig_GetPassword(t *testing.T) {
	t.Parallel()

	password, err := (&PostgresConfig{PasswordFile: writeSecret(t, "  s3cret\n\t")}).GetPassword()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", password)

	_, err = (&PostgresConfig{PasswordFile: "/nonexistent/pg-password"}).GetPassword()
	require.ErrorContains(t, err, "failed to read password from file")
}

func TestPostgresConfig_GetPassword_FromEnv(t *testing.T) {
	t.Setenv(DatabasePasswordEnv, "from-env")

	password, err := (&PostgresConfig{}).GetPassword()
	require.NoError(t, err)
	assert.Equal(t, "from-env", password)

	// A password file wins over the environment
	password, err = (&PostgresConfig{PasswordFile: writeSecret(t, "from-file")}).GetPassword()
	require.NoError(t, err)
	assert.Equal(t, "from-file", password)
}

func TestPostgresConfig_GetPassword_Missing(t *testing.T) {
	t.Setenv(DatabasePasswordEnv, "")

	_, err := (&PostgresConfig{}).GetPassword()
	require.ErrorContains(t, err, DatabasePasswordEnv)
}

func TestPostgresConfig_GetConnectionString(t *testing.T) {
	t.Parallel()

	const tricky = "p@ss:w/rd?&!#$% "
	secret := writeSecret(t, tricky)

	tests := []struct {
		name        string
		cfg         PostgresConfig
		wantHost    string
		wantDB      string
		wantSSLMode string
	}{
		{
			name:        "defaults for port and sslmode",
			cfg:         PostgresConfig{Host: "localhost", User: "monitoring", Database: "monitoring"},
			wantHost:    "localhost:5432",
			wantDB:      "monitoring",
			wantSSLMode: "require",
		},
		{
			name:        "explicit port and sslmode",
			cfg:         PostgresConfig{Host: "db.internal", Port: 5433, User: "station", Database: "cache", SSLMode: "disable"},
			wantHost:    "db.internal:5433",
			wantDB:      "cache",
			wantSSLMode: "disable",
		},
		{
			name:        "ipv6 host",
			cfg:         PostgresConfig{Host: "::1", Port: 5432, User: "station", Database: "cache"},
			wantHost:    "[::1]:5432",
			wantDB:      "cache",
			wantSSLMode: "require",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := tt.cfg
			cfg.PasswordFile = secret
			dsn, err := cfg.GetConnectionString()
			require.NoError(t, err)

			u, err := url.Parse(dsn)
			require.NoError(t, err)
			assert.Equal(t, "postgres", u.Scheme)
			assert.Equal(t, tt.wantHost, u.Host)
			assert.Equal(t, "/"+tt.wantDB, u.Path)
			assert.Equal(t, tt.cfg.User, u.User.Username())
			password, ok := u.User.Password()
			require.True(t, ok)
			// The trailing space is trimmed with the rest of the file's whitespace
			assert.Equal(t, "p@ss:w/rd?&!#$%", password)
			assert.Equal(t, tt.wantSSLMode, u.Query().Get("sslmode"))
		})
	}
}

func TestPostgresConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     PostgresConfig
		wantErr string
	}{
		{name: "complete", cfg: PostgresConfig{Host: "db", Database: "cache"}},
		{name: "missing host", cfg: PostgresConfig{Database: "cache"}, wantErr: "cache.postgres is missing host"},
		{name: "missing both", cfg: PostgresConfig{}, wantErr: "cache.postgres is missing host, database"},
		{name: "port out of range", cfg: PostgresConfig{Host: "db", Database: "cache", Port: 70000}, wantErr: "out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.cfg.validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}
