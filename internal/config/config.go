// Package config provides configuration loading and management for the monitoring station.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/marcosimbuerger/monitoring-station/internal/telemetry"
)

// EnvPrefix is the prefix for environment variables read through viper
const EnvPrefix = "MONITORING_STATION"

const (
	// BackendMemory keeps the cache in process memory
	BackendMemory = "memory"

	// BackendFile keeps one JSON file per cache key in a directory
	BackendFile = "file"

	// BackendLevelDB keeps the cache in an embedded LevelDB database
	BackendLevelDB = "leveldb"

	// BackendPostgres keeps the cache in a PostgreSQL table
	BackendPostgres = "postgres"

	// BackendRedis keeps the cache in Redis
	BackendRedis = "redis"
)

const (
	// DefaultLifetime is the cache lifetime in seconds used when none is configured
	DefaultLifetime = 3600

	// DefaultFetchTimeout bounds a single satellite request
	DefaultFetchTimeout = 10 * time.Second

	// DefaultCacheDir is where the file backend stores entries by default
	DefaultCacheDir = "./data/cache"

	// DefaultLevelDBDir is where the leveldb backend stores its database by default
	DefaultLevelDBDir = "./data/leveldb"

	// DefaultAddress is the default listen address of the API server
	DefaultAddress = ":8080"
)

// Option configures LoadConfig
type Option func(*loaderConfig) error

type loaderConfig struct {
	path string
}

// WithConfigPath names the YAML file to load. Symlinks are resolved up front
// so the file that is validated is the file that is read; a relative path
// must stay below the working directory.
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return errors.New("path is required")
		}
		resolved, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}
		if !filepath.IsAbs(resolved) && !filepath.IsLocal(resolved) {
			return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
		}
		cfg.path = resolved
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// Sites is the ordered list of monitored websites
	Sites []Website `yaml:"websites"`

	Cache     *CacheConfig      `yaml:"cache,omitempty"`
	Fetch     *FetchConfig      `yaml:"fetch,omitempty"`
	Server    *ServerConfig     `yaml:"server,omitempty"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// Website is one configured website as written in the config file. It is kept
// as a raw mapping so that missing or wrong-typed values surface during
// validation instead of while decoding.
type Website map[string]any

// UnmarshalYAML decodes the entry into a plain map so nested mappings such as
// basic_auth stay map[string]any instead of taking the Website type.
func (w *Website) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*w = raw
	return nil
}

// Name returns the website name
func (w Website) Name() string {
	return stringValue(w["name"])
}

// URL returns the website base URL
func (w Website) URL() string {
	return stringValue(w["url"])
}

// User returns the basic auth user
func (w Website) User() string {
	return stringValue(w.basicAuth()["user"])
}

// Password returns the basic auth password
func (w Website) Password() string {
	return stringValue(w.basicAuth()["password"])
}

func (w Website) basicAuth() map[string]any {
	auth, _ := w["basic_auth"].(map[string]any)
	return auth
}

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

// CacheConfig defines the cache backend and lifetime
type CacheConfig struct {
	// Backend selects the storage: memory, file, leveldb, postgres or redis
	// Defaults to "file"
	Backend string `yaml:"backend,omitempty"`

	// Lifetime is the number of seconds a non-empty result stays fresh
	// Defaults to 3600
	Lifetime *int `yaml:"lifetime,omitempty"`

	File     *FileCacheConfig  `yaml:"file,omitempty"`
	LevelDB  *FileCacheConfig  `yaml:"leveldb,omitempty"`
	Postgres *PostgresConfig   `yaml:"postgres,omitempty"`
	Redis    *RedisCacheConfig `yaml:"redis,omitempty"`
}

// FileCacheConfig defines a directory-backed cache location
type FileCacheConfig struct {
	Path string `yaml:"path"`
}

// RedisCacheConfig defines the Redis connection
type RedisCacheConfig struct {
	// URL is a redis:// or rediss:// connection URL
	URL string `yaml:"url"`
}

// FetchConfig controls how satellites are queried
type FetchConfig struct {
	// Timeout bounds a single satellite request (e.g., "10s")
	Timeout string `yaml:"timeout,omitempty"`

	// Concurrency is the number of satellites queried at once
	// Defaults to 1, which queries them one after another
	Concurrency int `yaml:"concurrency,omitempty"`
}

// ServerConfig defines the API server settings
type ServerConfig struct {
	Address          string                  `yaml:"address,omitempty"`
	ExampleSatellite *ExampleSatelliteConfig `yaml:"exampleSatellite,omitempty"`
}

// ExampleSatelliteConfig enables a built-in demo satellite endpoint
type ExampleSatelliteConfig struct {
	Enabled  bool   `yaml:"enabled"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// LoadConfig reads and validates the configuration file named by WithConfigPath
func LoadConfig(opts ...Option) (*Config, error) {
	var lc loaderConfig
	for _, opt := range opts {
		if err := opt(&lc); err != nil {
			return nil, err
		}
	}
	if lc.path == "" {
		return nil, errors.New("path is required")
	}

	raw, err := os.ReadFile(lc.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML document
func Parse(data []byte) (*Config, error) {
	if err := validateDocument(data); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Websites returns the configured websites in file order
func (c *Config) Websites() []Website {
	return c.Sites
}

// GetCacheBackend returns the cache backend, using "file" if not specified
func (c *Config) GetCacheBackend() string {
	if c.Cache == nil || c.Cache.Backend == "" {
		return BackendFile
	}
	return c.Cache.Backend
}

// GetCacheLifetime returns the cache lifetime, using DefaultLifetime if not specified
func (c *Config) GetCacheLifetime() time.Duration {
	if c.Cache == nil || c.Cache.Lifetime == nil {
		return DefaultLifetime * time.Second
	}
	return time.Duration(*c.Cache.Lifetime) * time.Second
}

// GetCachePath returns the directory used by the file and leveldb backends
func (c *Config) GetCachePath() string {
	switch c.GetCacheBackend() {
	case BackendLevelDB:
		if c.Cache != nil && c.Cache.LevelDB != nil && c.Cache.LevelDB.Path != "" {
			return c.Cache.LevelDB.Path
		}
		return DefaultLevelDBDir
	default:
		if c.Cache != nil && c.Cache.File != nil && c.Cache.File.Path != "" {
			return c.Cache.File.Path
		}
		return DefaultCacheDir
	}
}

// GetFetchTimeout returns the per-request timeout
func (c *Config) GetFetchTimeout() time.Duration {
	if c.Fetch == nil || c.Fetch.Timeout == "" {
		return DefaultFetchTimeout
	}
	// Already validated in validate()
	d, _ := time.ParseDuration(c.Fetch.Timeout)
	return d
}

// GetFetchConcurrency returns the number of satellites queried at once
func (c *Config) GetFetchConcurrency() int {
	if c.Fetch == nil || c.Fetch.Concurrency < 1 {
		return 1
	}
	return c.Fetch.Concurrency
}

// GetAddress returns the API listen address
func (c *Config) GetAddress() string {
	if c.Server == nil || c.Server.Address == "" {
		return DefaultAddress
	}
	return c.Server.Address
}

// GetExampleSatellite returns the example satellite settings, or nil when disabled
func (c *Config) GetExampleSatellite() *ExampleSatelliteConfig {
	if c.Server == nil || c.Server.ExampleSatellite == nil || !c.Server.ExampleSatellite.Enabled {
		return nil
	}
	sat := *c.Server.ExampleSatellite
	if sat.User == "" {
		sat.User = "foo"
	}
	if sat.Password == "" {
		sat.Password = "bar"
	}
	return &sat
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	return c.validate()
}

func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if len(c.Sites) == 0 {
		return fmt.Errorf("at least one website must be configured")
	}

	if err := c.validateCache(); err != nil {
		return err
	}

	if c.Fetch != nil {
		if c.Fetch.Timeout != "" {
			if _, err := time.ParseDuration(c.Fetch.Timeout); err != nil {
				return fmt.Errorf("fetch.timeout must be a valid duration (e.g., '10s'): %w", err)
			}
		}
		if c.Fetch.Concurrency < 0 {
			return fmt.Errorf("fetch.concurrency must be at least 1, got %d", c.Fetch.Concurrency)
		}
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	return nil
}

// validateCache validates the cache section
func (c *Config) validateCache() error {
	if c.Cache == nil {
		return nil
	}

	if c.Cache.Lifetime != nil && *c.Cache.Lifetime < 0 {
		return fmt.Errorf("cache.lifetime must not be negative, got %d", *c.Cache.Lifetime)
	}

	switch c.GetCacheBackend() {
	case BackendMemory, BackendFile, BackendLevelDB:
		return nil
	case BackendPostgres:
		if c.Cache.Postgres == nil {
			return fmt.Errorf("cache.postgres is required when backend is %s", BackendPostgres)
		}
		return c.Cache.Postgres.validate()
	case BackendRedis:
		if c.Cache.Redis == nil || c.Cache.Redis.URL == "" {
			return fmt.Errorf("cache.redis.url is required when backend is %s", BackendRedis)
		}
		return nil
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
}
