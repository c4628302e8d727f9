package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	// reloadDebounce collapses the burst of events a single save produces
	reloadDebounce = 150 * time.Millisecond

	// reloadMaxDelay bounds how long a steady stream of writes can postpone a reload
	reloadMaxDelay = time.Second
)

// ConfigManager holds the live website configuration of a running server.
// The file is only ever read; changes come from editors, volume mounts or
// configuration management tools.
//
//nolint:revive // config.ConfigManager reads better at call sites than config.Manager
type ConfigManager interface {
	// GetConfig returns the configuration currently in effect
	GetConfig() *Config

	// Websites returns the websites of the configuration currently in effect
	Websites() []Website

	// ReloadConfig re-reads the file. An invalid file is rejected and the
	// current configuration stays in effect.
	ReloadConfig() error

	// WatchConfig reloads on every change of the file until ctx is done or
	// Close is called. Only one watch may run at a time.
	WatchConfig(ctx context.Context) error

	// Close stops a running watch
	Close() error
}

// LoaderFunc reads a configuration from path
type LoaderFunc func(path string) (*Config, error)

// ReloadFunc is called after a new configuration has been applied
type ReloadFunc func(cfg *Config)

type configManager struct {
	path    string
	loader  LoaderFunc
	hooks   []ReloadFunc
	current atomic.Pointer[Config]

	// reloadMu keeps hooks in the order their configurations were applied
	reloadMu sync.Mutex

	watching atomic.Bool
	// listening is set once the directory watch is in place
	listening atomic.Bool
	closed       chan struct{}
	closeOnce sync.Once
}

// ConfigManagerOption customizes NewConfigManager
//
//nolint:revive // matches ConfigManager
type ConfigManagerOption func(*configManager)

// WithLoader replaces the file loader, mostly for tests
func WithLoader(loader LoaderFunc) ConfigManagerOption {
	return func(cm *configManager) {
		cm.loader = loader
	}
}

// WithReloadHook registers fn to run after every successful reload.
// The hook is not called for the initial load.
func WithReloadHook(fn ReloadFunc) ConfigManagerOption {
	return func(cm *configManager) {
		cm.hooks = append(cm.hooks, fn)
	}
}

// NewConfigManager loads the configuration at path. It fails if the initial
// configuration cannot be loaded or is invalid.
func NewConfigManager(path string, opts ...ConfigManagerOption) (ConfigManager, error) {
	cm := &configManager{
		path: path,
		loader: func(p string) (*Config, error) {
			return LoadConfig(WithConfigPath(p))
		},
		closed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(cm)
	}

	cfg, err := cm.read()
	if err != nil {
		return nil, fmt.Errorf("failed to load initial configuration: %w", err)
	}
	cm.current.Store(cfg)
	return cm, nil
}

func (cm *configManager) GetConfig() *Config {
	// Callers get their own copy of the top level; nested values are never mutated
	snapshot := *cm.current.Load()
	return &snapshot
}

func (cm *configManager) Websites() []Website {
	return cm.current.Load().Websites()
}

func (cm *configManager) read() (*Config, error) {
	cfg, err := cm.loader(cm.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (cm *configManager) ReloadConfig() error {
	cm.reloadMu.Lock()
	defer cm.reloadMu.Unlock()

	cfg, err := cm.read()
	if err != nil {
		return err
	}
	cm.current.Store(cfg)
	slog.Info("Configuration reloaded", "path", cm.path, "websites", len(cfg.Sites))

	for _, hook := range cm.hooks {
		hook(cfg)
	}
	return nil
}

// WatchConfig watches the directory rather than the file so that atomic
// renames and the symlink swaps of mounted volumes are noticed.
func (cm *configManager) WatchConfig(ctx context.Context) error {
	if !cm.watching.CompareAndSwap(false, true) {
		return errors.New("config watcher is already running")
	}
	defer cm.watching.Store(false)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	target := filepath.Clean(cm.path)
	dir := filepath.Dir(target)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch config directory %s: %w", dir, err)
	}
	cm.listening.Store(true)
	defer cm.listening.Store(false)
	slog.Info("Watching configuration file", "path", cm.path)

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	defer debounce.Stop()
	var pendingSince time.Time

	for {
		select {
		case <-ctx.Done():
			slog.Info("Config watcher stopped")
			return ctx.Err()

		case <-cm.closed:
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher event channel closed")
			}
			if !affects(event, target) {
				continue
			}
			slog.Debug("Config file event", "op", event.Op.String(), "name", event.Name)
			now := time.Now()
			if pendingSince.IsZero() {
				pendingSince = now
			}
			debounce.Reset(reloadDelay(pendingSince, now))

		case <-debounce.C:
			pendingSince = time.Time{}
			if err := cm.ReloadConfig(); err != nil {
				slog.Error("Rejected config update, keeping the previous configuration", "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher error channel closed")
			}
			slog.Error("File watcher error", "error", err)
		}
	}
}

// reloadDelay is the wait before reloading for an event seen at now, when the
// oldest unapplied event arrived at pendingSince
func reloadDelay(pendingSince, now time.Time) time.Duration {
	left := reloadMaxDelay - now.Sub(pendingSince)
	return max(min(reloadDebounce, left), 0)
}

// affects reports whether event may have changed the file at target.
// Kubernetes mounts publish updates by swapping the ..data symlink.
func affects(event fsnotify.Event, target string) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(event.Name)
	return name == target || filepath.Base(name) == "..data"
}

func (cm *configManager) Close() error {
	cm.closeOnce.Do(func() { close(cm.closed) })
	return nil
}
