// Package dbtest opens migrated databases for tests.
package dbtest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"skillswap/internal/config"
	"skillswap/internal/database"
	"skillswap/internal/logger"
)

var errMissingDSN = errors.New("missing TEST_POSTGRES_DSN")

// Open returns a fresh SQLite database under t.TempDir with the schema applied.
func Open(tb testing.TB) *database.DB {
	tb.Helper()

	cfg := config.Database{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(tb.TempDir(), "skillswap.db"),
	}
	return open(tb, cfg)
}

var (
	pgOnce sync.Once
	pgErr  error
)

// OpenPostgres connects to TEST_POSTGRES_DSN and skips the test when it is
// unset. Migrations run once per process; tests must use unique usernames.
func OpenPostgres(tb testing.TB) *database.DB {
	tb.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	cfg := config.Database{Driver: config.DriverPostgres, URL: dsn}

	pgOnce.Do(func() {
		if dsn == "" {
			pgErr = errMissingDSN
			return
		}
		pgErr = database.Migrate(cfg, logger.Nop())
	})
	if errors.Is(pgErr, errMissingDSN) {
		tb.Skip("set TEST_POSTGRES_DSN to run postgres integration tests")
	}
	if pgErr != nil {
		tb.Fatalf("migrate postgres: %v", pgErr)
	}

	db, err := database.Open(context.Background(), cfg, logger.Nop())
	if err != nil {
		tb.Fatalf("open postgres: %v", err)
	}
	tb.Cleanup(func() { _ = db.Close() })
	return db
}

func open(tb testing.TB, cfg config.Database) *database.DB {
	tb.Helper()

	if err := database.Migrate(cfg, logger.Nop()); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	db, err := database.Open(context.Background(), cfg, logger.Nop())
	if err != nil {
		tb.Fatalf("open database: %v", err)
	}
	tb.Cleanup(func() {
		if err := db.Close(); err != nil {
			tb.Errorf("close database: %v", err)
		}
	})
	return db
}
