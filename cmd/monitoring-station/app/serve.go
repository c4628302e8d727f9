package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	stationapp "github.com/marcosimbuerger/monitoring-station/internal/app"
	"github.com/marcosimbuerger/monitoring-station/internal/config"
	"github.com/marcosimbuerger/monitoring-station/internal/telemetry"
)

const defaultGracefulTimeout = 30 * time.Second

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the monitoring station API server",
		Long: `Start the API server that serves the aggregated website data as JSON.

The configuration file is watched; every valid change is applied without a
restart and clears the cache.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, v)
		},
	}

	cmd.Flags().String("address", "", "Address to listen on (overrides server.address)")
	if err := v.BindPFlag("address", cmd.Flags().Lookup("address")); err != nil {
		slog.Error("Error binding address flag", "error", err)
	}
	return cmd
}

func runServe(cmd *cobra.Command, v *viper.Viper) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path, err := configPath(v)
	if err != nil {
		return err
	}

	// Telemetry is set up once from the initial configuration
	cfg, err := config.LoadConfig(config.WithConfigPath(path))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown telemetry", "error", err)
		}
	}()

	opts := []stationapp.MonitoringAppOptions{
		stationapp.WithConfigPath(path),
	}
	if address := v.GetString("address"); address != "" {
		opts = append(opts, stationapp.WithAddress(address))
	}
	if cfg.Telemetry != nil && cfg.Telemetry.Enabled {
		opts = append(opts,
			stationapp.WithMeterProvider(tel.MeterProvider()),
			stationapp.WithTracerProvider(tel.TracerProvider()),
		)
	}
	if handler := tel.PrometheusHandler(); handler != nil {
		opts = append(opts, stationapp.WithMetricsHandler(handler))
	}

	monitoringApp, err := stationapp.NewMonitoringApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create monitoring app: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- monitoringApp.Start()
	}()

	select {
	case err := <-errCh:
		_ = monitoringApp.Stop(defaultGracefulTimeout)
		return err
	case <-ctx.Done():
		slog.Info("Received shutdown signal")
	}

	if err := monitoringApp.Stop(defaultGracefulTimeout); err != nil {
		return err
	}
	return <-errCh
}
