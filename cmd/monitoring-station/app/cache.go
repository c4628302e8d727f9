package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	stationapp "github.com/marcosimbuerger/monitoring-station/internal/app"
	"github.com/marcosimbuerger/monitoring-station/internal/fetcher"
)

const (
	msgFinished = "Finished!"
	msgCleared  = "Cleared!"
	msgPruned   = "Pruned!"
	msgFailed   = "Something went wrong!"
)

func newFetchCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the data of all configured websites",
		Long: `Fetch queries the monitoring satellite of every configured website and stores
the aggregated result in the cache. A fresh cached result is reused unless
--no-cache is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			noCache, err := cmd.Flags().GetBool("no-cache")
			if err != nil {
				return fmt.Errorf("failed to get no-cache flag: %w", err)
			}
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return fmt.Errorf("failed to get format flag: %w", err)
			}
			if format != "" && format != "json" && format != "table" {
				return fmt.Errorf("unknown output format %q", format)
			}

			return withComponents(cmd, v, func(ctx context.Context, c *stationapp.AppComponents) error {
				result := c.Cache.Fetch(ctx, !noCache)
				slog.Info("Website data fetched", "websites", len(result), "cache", !noCache)

				switch format {
				case "json":
					output, err := json.MarshalIndent(result, "", "  ")
					if err != nil {
						return fmt.Errorf("failed to format result as JSON: %w", err)
					}
					fmt.Fprintln(cmd.OutOrStdout(), string(output))
					return nil
				case "table":
					return renderTable(cmd, result)
				default:
					fmt.Fprintln(cmd.OutOrStdout(), msgFinished)
					return nil
				}
			})
		},
	}
	cmd.Flags().Bool("no-cache", false, "Bypass the cache and query every satellite")
	cmd.Flags().String("format", "", "Output format (json, table)")
	return cmd
}

// tableColumns are the status keys shown by fetch --format table
var tableColumns = []string{"cms", "cms_version", "php_version"}

func renderTable(cmd *cobra.Command, result fetcher.AggregateResult) error {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Name", "URL", "CMS", "CMS Version", "PHP Version")

	for _, record := range result {
		row := []any{record.Name, record.URL}
		for _, key := range tableColumns {
			value, ok := record.Status[key]
			if !ok {
				value = "-"
			}
			row = append(row, fmt.Sprint(value))
		}
		if err := table.Append(row...); err != nil {
			return fmt.Errorf("failed to add table row: %w", err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

func newClearCacheCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache",
		Short: "Remove the cached website data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withComponents(cmd, v, func(ctx context.Context, c *stationapp.AppComponents) error {
				return report(cmd, c.Cache.Delete(ctx), msgCleared)
			})
		},
	}
}

func newPruneCacheCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "prune-cache",
		Short: "Remove stale entries from the cache backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withComponents(cmd, v, func(ctx context.Context, c *stationapp.AppComponents) error {
				return report(cmd, c.Cache.Prune(ctx), msgPruned)
			})
		},
	}
}

// report prints the outcome of a cache maintenance command
func report(cmd *cobra.Command, err error, success string) error {
	if err != nil {
		slog.Error("Cache operation failed", "command", cmd.Name(), "error", err)
		fmt.Fprintln(cmd.OutOrStdout(), msgFailed)
		return ErrCommandFailed
	}
	fmt.Fprintln(cmd.OutOrStdout(), success)
	return nil
}
