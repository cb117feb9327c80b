package db

import (
	"path/filepath"
	"testing"

	"github.com/goran-ethernal/ChainDemux/internal/logger"
	"github.com/goran-ethernal/ChainDemux/pkg/config"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/stretchr/testify/require"
)

const testMigration = `-- +migrate Down
DROP TABLE IF EXISTS sample;

-- +migrate Up
CREATE TABLE sample (id INTEGER PRIMARY KEY, value TEXT);
`

func tableExists(t *testing.T, cfg config.DatabaseConfig, name string) bool {
	t.Helper()

	db, err := NewSQLiteDBFromConfig(cfg)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&count))

	return count == 1
}

func TestRunMigrations(t *testing.T) {
	cfg := config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "migrations.db")}
	cfg.ApplyDefaults()

	db, err := NewSQLiteDBFromConfig(cfg)
	require.NoError(t, err)
	defer db.Close()

	migrations := []Migration{{ID: "001_sample.sql", SQL: testMigration, Prefix: "test_"}}
	log := logger.NewNopLogger()

	require.NoError(t, RunMigrations(log, db, migrations))
	require.True(t, tableExists(t, cfg, "sample"))

	// already applied migrations are skipped
	require.NoError(t, RunMigrations(log, db, migrations))

	require.NoError(t, RunMigrationsExtended(log, db, migrations, migrate.Down, NoLimitMigrations))
	require.False(t, tableExists(t, cfg, "sample"))
}

func TestRunMigrations_MissingSeparator(t *testing.T) {
	cfg := config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "migrations.db")}
	cfg.ApplyDefaults()

	db, err := NewSQLiteDBFromConfig(cfg)
	require.NoError(t, err)
	defer db.Close()

	err = RunMigrations(logger.NewNopLogger(), db, []Migration{{ID: "broken.sql", SQL: "CREATE TABLE x (id INTEGER);"}})
	require.ErrorContains(t, err, "missing")
}
