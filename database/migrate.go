package database

import (
	"fmt"
	"log/slog"
)

// MigrateUp applies all pending migrations
func MigrateUp(connString string) error {
	m, err := NewFromConnectionString(connString)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if err := ignoreNoChange(m.Up()); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	logVersion(m)
	return nil
}

// MigrateDown reverts the given number of migrations. A steps value of zero
// or less reverts all of them.
func MigrateDown(connString string, steps int) error {
	m, err := NewFromConnectionString(connString)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if steps <= 0 {
		err = m.Down()
	} else {
		err = m.Steps(-steps)
	}
	if err := ignoreNoChange(err); err != nil {
		return fmt.Errorf("failed to revert migrations: %w", err)
	}

	logVersion(m)
	return nil
}

func logVersion(m Migrator) {
	version, dirty, err := m.Version()
	if err != nil {
		slog.Info("Database schema has no applied migrations")
		return
	}
	slog.Info("Database schema version", "version", version, "dirty", dirty)
}

func closeMigrator(m Migrator) {
	srcErr, dbErr := m.Close()
	if srcErr != nil || dbErr != nil {
		slog.Warn("Failed to close migrator", "source_error", srcErr, "database_error", dbErr)
	}
}
