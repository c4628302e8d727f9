// Package app wires the monitoring station together and manages the server lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/marcosimbuerger/monitoring-station/internal/config"
)

// MonitoringApp encapsulates all components needed to run the API server
type MonitoringApp struct {
	config        *config.Config
	configManager config.ConfigManager
	components    *AppComponents
	httpServer    *http.Server

	ctx        context.Context
	cancelFunc context.CancelFunc
}

// Start runs the config watcher in the background and serves HTTP until
// the server is stopped
func (app *MonitoringApp) Start() error {
	ln, err := net.Listen("tcp", app.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", app.httpServer.Addr, err)
	}
	return app.Serve(ln)
}

// Serve is Start on an existing listener
func (app *MonitoringApp) Serve(ln net.Listener) error {
	if app.configManager != nil {
		go func() {
			if err := app.configManager.WatchConfig(app.ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("Config watcher stopped", "error", err)
			}
		}()
	}

	slog.Info("Server listening", "address", ln.Addr().String())
	if err := app.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Stop gracefully stops the server, the config watcher and the cache backend
func (app *MonitoringApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
	}
	app.closeConfigManager()
	if err := app.components.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close cache: %w", err))
	}

	slog.Info("Server shutdown complete")
	return errors.Join(errs...)
}

// onConfigReload drops the cached data so the next request reflects the
// new website list
func (app *MonitoringApp) onConfigReload(cfg *config.Config) {
	if app.components == nil || app.components.Cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
	defer cancel()

	if err := app.components.Cache.Delete(ctx); err != nil {
		slog.Error("Failed to clear cache after config reload", "error", err)
		return
	}
	slog.Info("Cache cleared after config reload", "websites", len(cfg.Websites()))
}

func (app *MonitoringApp) closeConfigManager() {
	if app.configManager == nil {
		return
	}
	if err := app.configManager.Close(); err != nil {
		slog.Error("Failed to close config manager", "error", err)
	}
}

// GetConfig returns the configuration the app was started with
func (app *MonitoringApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server
func (app *MonitoringApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

// Components returns the pipeline components
func (app *MonitoringApp) Components() *AppComponents {
	return app.components
}
