package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	unsetEnv(t, "PORT", "APP_ENV", "DATABASE_URL", "DB_DRIVER", "DB_HOST", "DB_NAME", "STARTING_POINTS", "RUN_MIGRATIONS")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10, cfg.StartingPoints)
	assert.True(t, cfg.RunMigrations)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "skillswap", cfg.Database.Name)
}

func TestLoadSQLite(t *testing.T) {
	t.Setenv("DB_DRIVER", " SQLite ")
	t.Setenv("SQLITE_PATH", "/tmp/swap.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "sqlite:///tmp/swap.db", cfg.Database.MigrateURL())
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := Config{Database: Database{Driver: "mysql"}}
	assert.Error(t, cfg.Validate())
}

func TestValidateRequiresSecretInProduction(t *testing.T) {
	cfg := Config{Env: "production", Database: Database{Driver: DriverPostgres}}
	assert.Error(t, cfg.Validate())

	cfg.SessionSecret = "0123456789abcdef0123456789abcdef"
	assert.NoError(t, cfg.Validate())
}

func TestPostgresURLs(t *testing.T) {
	d := Database{
		Driver:   DriverPostgres,
		Host:     "db",
		Port:     "5433",
		User:     "swap",
		Password: "p@ss word",
		Name:     "skills",
		SSLMode:  "disable",
	}

	assert.Equal(t, "host=db port=5433 user=swap password=p@ss word dbname=skills sslmode=disable", d.ConnString())
	assert.Equal(t, "postgres://swap:p%40ss%20word@db:5433/skills?sslmode=disable", d.MigrateURL())
}

func TestDatabaseURLOverrides(t *testing.T) {
	d := Database{Driver: DriverPostgres, URL: "postgres://u:p@h:1/db?sslmode=require", Host: "ignored"}

	assert.Equal(t, d.URL, d.ConnString())
	assert.Equal(t, d.URL, d.MigrateURL())
}
