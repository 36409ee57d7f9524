package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"skillswap/internal/config"
	"skillswap/internal/database/migrations"
	"skillswap/internal/logger"
)

// Migrate applies the embedded migrations for cfg.Driver. It opens its own
// connection and closes it before returning.
func Migrate(cfg config.Database, log *logger.Logger) error {
	log = logger.OrNop(log).With("component", "migrate", "driver", cfg.Driver)

	switch cfg.Driver {
	case config.DriverPostgres, config.DriverSQLite:
	default:
		return fmt.Errorf("unsupported driver %q", cfg.Driver)
	}

	src, err := iofs.New(migrations.FS, cfg.Driver)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.MigrateURL())
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			log.Warn("Closing migrator failed", "source_error", srcErr, "database_error", dbErr)
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Debug("Schema is up to date")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	log.Info("Migrations applied", "version", version, "dirty", dirty)
	return nil
}
