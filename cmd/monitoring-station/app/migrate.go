package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/marcosimbuerger/monitoring-station/database"
	"github.com/marcosimbuerger/monitoring-station/internal/config"
)

func newMigrateCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tool",
		Long:  `Manage the schema of the postgres cache backend. Use with 'up' or 'down' subcommands.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}

	cmd.PersistentFlags().BoolP("yes", "y", false, "Answer yes to all questions")
	cmd.PersistentFlags().UintP("num-steps", "n", 0, "Number of steps to migrate down (0 = all)")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, v, "apply", func(connString string, _ int) error {
				return database.MigrateUp(connString)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Revert database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, v, "revert", database.MigrateDown)
		},
	})

	return cmd
}

func runMigrate(cmd *cobra.Command, v *viper.Viper, verb string, migrate func(string, int) error) error {
	path, err := configPath(v)
	if err != nil {
		return err
	}
	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return fmt.Errorf("failed to get yes flag: %w", err)
	}
	steps, err := cmd.Flags().GetUint("num-steps")
	if err != nil {
		return fmt.Errorf("failed to get num-steps flag: %w", err)
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(path))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Cache == nil || cfg.Cache.Postgres == nil {
		return fmt.Errorf("postgres cache configuration is required")
	}
	db := cfg.Cache.Postgres

	connString, err := db.GetConnectionString()
	if err != nil {
		return fmt.Errorf("failed to get connection string: %w", err)
	}

	if !yes {
		fmt.Fprintf(cmd.OutOrStdout(), "About to %s migrations on %s@%s:%d/%s. Continue? (yes/no): ",
			verb, db.User, db.Host, db.Port, db.Database)
		var response string
		if _, err := fmt.Fscanln(cmd.InOrStdin(), &response); err != nil {
			return fmt.Errorf("failed to read user input: %w", err)
		}
		if response != "yes" && response != "y" {
			slog.Info("Migration cancelled by user")
			return nil
		}
	}

	slog.Info("Running database migrations", "direction", cmd.Name())
	if err := migrate(connString, int(steps)); err != nil { //nolint:gosec // steps is a small flag value
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
