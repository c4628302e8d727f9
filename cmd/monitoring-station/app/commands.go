// Package app provides the command line interface of the monitoring station.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	stationapp "github.com/marcosimbuerger/monitoring-station/internal/app"
	"github.com/marcosimbuerger/monitoring-station/internal/config"
	"github.com/marcosimbuerger/monitoring-station/internal/versions"
)

// ErrCommandFailed is returned after a command has already reported its
// failure to the user
var ErrCommandFailed = errors.New("command failed")

// NewRootCmd creates the root command with all subcommands. Every call
// returns an independent command tree with its own viper instance.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	rootCmd := &cobra.Command{
		Use:               "monitoring-station",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		SilenceErrors:     true,
		Short:             "Website status poller",
		Long: `Monitoring station collects the CMS and PHP versions of websites that run a
monitoring satellite, caches the aggregated result and serves it as JSON.`,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				slog.Error("Error displaying help", "error", err)
			}
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Path to configuration file (YAML format)")
	if err := v.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")); err != nil {
		slog.Error("Error binding config flag", "error", err)
	}

	rootCmd.AddCommand(newFetchCmd(v))
	rootCmd.AddCommand(newClearCacheCmd(v))
	rootCmd.AddCommand(newPruneCacheCmd(v))
	rootCmd.AddCommand(newServeCmd(v))
	rootCmd.AddCommand(newMigrateCmd(v))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// configPath returns the --config flag, or MONITORING_STATION_CONFIG
func configPath(v *viper.Viper) (string, error) {
	path := v.GetString("config")
	if path == "" {
		return "", fmt.Errorf("a configuration file is required (--config or %s_CONFIG)", config.EnvPrefix)
	}
	return path, nil
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versions.GetVersionInfo()
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return fmt.Errorf("failed to get format flag: %w", err)
			}

			if format == "json" {
				output, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to format version info as JSON: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(output))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), info.String())
			return nil
		},
	}
	cmd.Flags().String("format", "", "Output format (json)")
	return cmd
}

// withComponents is shared by the cache commands
func withComponents(
	cmd *cobra.Command, v *viper.Viper, fn func(ctx context.Context, c *stationapp.AppComponents) error,
) error {
	path, err := configPath(v)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	c, err := stationapp.BuildComponents(ctx, stationapp.WithConfigPath(path))
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			slog.Warn("Failed to close cache", "error", err)
		}
	}()

	return fn(ctx, c)
}
