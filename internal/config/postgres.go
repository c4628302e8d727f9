package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DatabasePasswordEnv is read when no password file is configured
const DatabasePasswordEnv = EnvPrefix + "_DATABASE_PASSWORD"

const defaultPostgresPort = 5432

// PostgresConfig locates the database of the postgres cache backend.
// The password never appears in the config file itself.
//
//	cache:
//	  backend: postgres
//	  postgres:
//	    host: db.internal
//	    port: 5432
//	    user: monitoring
//	    database: monitoring
//	    passwordFile: /run/secrets/pg-password
//	    sslMode: verify-full
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port,omitempty"`
	User     string `yaml:"user"`
	Database string `yaml:"database"`

	// PasswordFile holds the password; surrounding whitespace is ignored
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// SSLMode is passed to the driver as sslmode; "require" when empty
	SSLMode string `yaml:"sslMode,omitempty"`
}

// GetPassword reads PasswordFile, or DatabasePasswordEnv when no file is set
func (p *PostgresConfig) GetPassword() (string, error) {
	if p.PasswordFile == "" {
		if pw := os.Getenv(DatabasePasswordEnv); pw != "" {
			return pw, nil
		}
		return "", fmt.Errorf("no database password configured: set passwordFile or %s", DatabasePasswordEnv)
	}

	raw, err := os.ReadFile(filepath.Clean(p.PasswordFile))
	if err != nil {
		return "", fmt.Errorf("failed to read password from file %s: %w", p.PasswordFile, err)
	}
	return strings.TrimSpace(string(raw)), nil
}

// GetConnectionString returns a postgres:// URL for pgx and golang-migrate
func (p *PostgresConfig) GetConnectionString() (string, error) {
	password, err := p.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := p.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}
	port := p.Port
	if port == 0 {
		port = defaultPostgresPort
	}

	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, password),
		Host:     net.JoinHostPort(p.Host, strconv.Itoa(port)),
		Path:     "/" + p.Database,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return dsn.String(), nil
}

func (p *PostgresConfig) validate() error {
	var missing []string
	if p.Host == "" {
		missing = append(missing, "host")
	}
	if p.Database == "" {
		missing = append(missing, "database")
	}
	if len(missing) > 0 {
		return fmt.Errorf("cache.postgres is missing %s", strings.Join(missing, ", "))
	}
	if p.Port < 0 || p.Port > 65535 {
		return fmt.Errorf("cache.postgres.port %d is out of range", p.Port)
	}
	return nil
}
