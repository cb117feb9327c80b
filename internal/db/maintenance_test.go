package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goran-ethernal/ChainDemux/internal/common"
	"github.com/goran-ethernal/ChainDemux/internal/logger"
	"github.com/goran-ethernal/ChainDemux/pkg/config"
	"github.com/stretchr/testify/require"
)

func setupMaintenanceTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "maintenance.db")

	dbConfig := config.DatabaseConfig{Path: dbPath}
	dbConfig.ApplyDefaults()

	db, err := NewSQLiteDBFromConfig(dbConfig)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS test_data (id INTEGER PRIMARY KEY, data TEXT)`)
	require.NoError(t, err)

	return db, dbPath
}

func TestMaintainer_RunMaintenance(t *testing.T) {
	db, dbPath := setupMaintenanceTestDB(t)

	for i := range 500 {
		_, err := db.Exec(`INSERT INTO test_data (data) VALUES (?)`, i)
		require.NoError(t, err)
	}
	_, err := db.Exec(`DELETE FROM test_data`)
	require.NoError(t, err)

	m := NewMaintainer(dbPath, db, nil, logger.NewNopLogger())
	require.NoError(t, m.RunMaintenance(context.Background()))

	stats := m.Stats()
	require.Equal(t, uint64(1), stats.Runs)
	require.NoError(t, stats.LastError)
	require.False(t, stats.LastRun.IsZero())
}

func TestMaintainer_CanceledContext(t *testing.T) {
	db, dbPath := setupMaintenanceTestDB(t)
	m := NewMaintainer(dbPath, db, nil, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, m.RunMaintenance(ctx), context.Canceled)
	require.Zero(t, m.Stats().Runs)
}

func TestMaintainer_MaintenanceWaitsForOperations(t *testing.T) {
	db, dbPath := setupMaintenanceTestDB(t)
	m := NewMaintainer(dbPath, db, nil, logger.NewNopLogger())

	unlock := m.AcquireOperationLock()

	var done atomic.Bool
	go func() {
		_ = m.RunMaintenance(context.Background())
		done.Store(true)
	}()

	time.Sleep(50 * time.Millisecond)
	require.False(t, done.Load())

	unlock()
	require.Eventually(t, done.Load, time.Second, 5*time.Millisecond)
}

func TestMaintainer_Background(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *config.MaintenanceConfig
		expectRuns  bool
		expectFirst bool
	}{
		{name: "nil config", cfg: nil},
		{name: "disabled", cfg: &config.MaintenanceConfig{CheckInterval: common.NewDuration(10 * time.Millisecond)}},
		{
			name:       "periodic",
			cfg:        &config.MaintenanceConfig{Enabled: true, CheckInterval: common.NewDuration(10 * time.Millisecond)},
			expectRuns: true,
		},
		{
			name: "on startup",
			cfg: &config.MaintenanceConfig{
				Enabled:         true,
				VacuumOnStartup: true,
				CheckInterval:   common.NewDuration(time.Hour),
			},
			expectRuns:  true,
			expectFirst: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, dbPath := setupMaintenanceTestDB(t)
			m := NewMaintainer(dbPath, db, tt.cfg, logger.NewNopLogger())

			require.NoError(t, m.Start(context.Background()))
			defer m.Stop()

			if tt.expectFirst {
				require.Equal(t, uint64(1), m.Stats().Runs)
			}

			if tt.expectRuns {
				require.Eventually(t, func() bool { return m.Stats().Runs > 0 }, time.Second, 5*time.Millisecond)
				return
			}

			time.Sleep(50 * time.Millisecond)
			require.Zero(t, m.Stats().Runs)
		})
	}
}

func TestMaintainer_StartTwice(t *testing.T) {
	db, dbPath := setupMaintenanceTestDB(t)
	m := NewMaintainer(dbPath, db, &config.MaintenanceConfig{Enabled: true}, logger.NewNopLogger())

	require.NoError(t, m.Start(context.Background()))
	require.Error(t, m.Start(context.Background()))

	m.Stop()
	m.Stop()
}
