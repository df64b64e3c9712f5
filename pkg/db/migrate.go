package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFiles embed.FS

// Migrate applies every pending embedded migration for the dialect to the
// database behind databaseURL (postgres://... or sqlite://path).
func Migrate(dialect, databaseURL string) error {
	if _, err := DriverName(dialect); err != nil {
		return err
	}

	src, err := iofs.New(migrationFiles, "migrations/"+dialect)
	if err != nil {
		return fmt.Errorf("failed to load %s migrations: %w", dialect, err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to init migrate: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
