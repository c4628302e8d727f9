// Package main is the entry point for the monitoring station.
package main

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/marcosimbuerger/monitoring-station/cmd/monitoring-station/app"
	"github.com/marcosimbuerger/monitoring-station/internal/config"
	"github.com/marcosimbuerger/monitoring-station/internal/otel"
)

// logLevel reads MONITORING_STATION_LOG_LEVEL, then LOG_LEVEL. Anything
// slog understands is accepted ("debug", "WARN", "info+2"), plus "warning".
func logLevel() slog.Level {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()

	raw := strings.TrimSpace(v.GetString("log_level"))
	if raw == "" {
		raw = strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	}
	if raw == "" {
		return slog.LevelInfo
	}
	if strings.EqualFold(raw, "warning") {
		return slog.LevelWarn
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		slog.Warn("Invalid log level, using INFO", "value", raw)
		return slog.LevelInfo
	}
	return level
}

func main() {
	// stdout is reserved for command output such as fetch --format json
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel()})
	slog.SetDefault(slog.New(otel.NewCorrelatedHandler(handler)))

	if err := app.NewRootCmd().Execute(); err != nil {
		if !errors.Is(err, app.ErrCommandFailed) {
			slog.Error("Command failed", "error", err)
		}
		os.Exit(1)
	}
}
