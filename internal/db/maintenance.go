package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goran-ethernal/ChainDemux/internal/logger"
	"github.com/goran-ethernal/ChainDemux/pkg/config"
)

// Maintainer runs WAL checkpoints and VACUUM against a SQLite database.
// Block handling holds a shared operation lock, maintenance holds it exclusively,
// so maintenance never interleaves with a block transaction or a rollback.
type Maintainer struct {
	db     *sql.DB
	dbPath string
	cfg    config.MaintenanceConfig
	log    *logger.Logger

	// readers are store operations, the writer is maintenance
	opLock sync.RWMutex

	cancel context.CancelFunc
	wg     sync.WaitGroup

	statsMu sync.Mutex
	stats   MaintenanceStats
}

// MaintenanceStats provides visibility into maintenance runs.
type MaintenanceStats struct {
	LastRun   time.Time
	Runs      uint64
	LastError error
}

// NewMaintainer creates a Maintainer. A nil cfg disables background maintenance;
// the operation lock and RunMaintenance keep working.
func NewMaintainer(dbPath string, db *sql.DB, cfg *config.MaintenanceConfig, log *logger.Logger) *Maintainer {
	m := &Maintainer{
		db:     db,
		dbPath: dbPath,
		log:    log,
	}

	if cfg != nil {
		m.cfg = *cfg
	}
	m.cfg.ApplyDefaults()

	return m
}

// Start begins background maintenance if enabled.
func (m *Maintainer) Start(ctx context.Context) error {
	if !m.cfg.Enabled {
		m.log.Debug("background database maintenance is disabled")
		return nil
	}

	if m.cancel != nil {
		return errors.New("database maintenance already started")
	}

	ctx, m.cancel = context.WithCancel(ctx)

	if m.cfg.VacuumOnStartup {
		if err := m.RunMaintenance(ctx); err != nil {
			m.log.Warnf("startup maintenance failed: %v", err)
		}
	}

	m.wg.Add(1)
	go m.loop(ctx, m.cfg.CheckInterval.Duration)

	m.log.Infof("background database maintenance started: interval=%s checkpoint_mode=%s",
		m.cfg.CheckInterval.Duration, m.cfg.WALCheckpointMode)

	return nil
}

// Stop stops background maintenance and waits for an in-flight run.
func (m *Maintainer) Stop() {
	if m.cancel == nil {
		return
	}

	m.cancel()
	m.wg.Wait()
	m.cancel = nil
}

// AcquireOperationLock takes the shared operation lock and returns its release function.
func (m *Maintainer) AcquireOperationLock() func() {
	m.opLock.RLock()
	return m.opLock.RUnlock
}

// Stats returns a copy of the maintenance statistics.
func (m *Maintainer) Stats() MaintenanceStats {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()

	return m.stats
}

func (m *Maintainer) loop(ctx context.Context, interval time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.RunMaintenance(ctx); err != nil {
				m.log.Warnf("periodic maintenance failed: %v", err)
			}
		}
	}
}

// RunMaintenance checkpoints the WAL and vacuums the database while holding the operation lock exclusively.
func (m *Maintainer) RunMaintenance(ctx context.Context) error {
	start := time.Now()

	m.opLock.Lock()
	defer m.opLock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	initialSize, err := DBTotalSize(m.dbPath)
	if err != nil {
		m.log.Warnf("failed to get database size: %v", err)
	}

	var runErr error
	if err := m.walCheckpoint(ctx); err != nil {
		runErr = fmt.Errorf("WAL checkpoint failed: %w", err)
	}

	if err := Vacuum(m.db); err != nil && runErr == nil {
		runErr = err
	}

	finalSize, err := DBTotalSize(m.dbPath)
	if err != nil {
		m.log.Warnf("failed to get database size: %v", err)
	}

	report := maintenanceReport{
		finishedAt: time.Now().UTC(),
		duration:   time.Since(start),
		sizeBefore: initialSize,
		sizeAfter:  finalSize,
		err:        runErr,
	}
	report.observe()

	m.statsMu.Lock()
	m.stats.LastRun = report.finishedAt
	m.stats.Runs++
	m.stats.LastError = runErr
	m.statsMu.Unlock()

	if runErr != nil {
		return runErr
	}

	m.log.Infof("database maintenance completed: duration=%s size_before=%d size_after=%d reclaimed=%d",
		report.duration, initialSize, finalSize, report.reclaimed())

	return nil
}

func (m *Maintainer) walCheckpoint(ctx context.Context) error {
	var mode string
	if err := m.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
		return fmt.Errorf("failed to check journal mode: %w", err)
	}

	if !strings.EqualFold(mode, "wal") {
		return nil
	}

	var busy, logFrames, checkpointed int
	query := fmt.Sprintf("PRAGMA wal_checkpoint(%s)", m.cfg.WALCheckpointMode)
	if err := m.db.QueryRowContext(ctx, query).Scan(&busy, &logFrames, &checkpointed); err != nil {
		return err
	}

	walCheckpoints.WithLabelValues(strings.ToLower(m.cfg.WALCheckpointMode)).Inc()

	if busy > 0 {
		m.log.Warnf("WAL checkpoint left %d busy pages", busy)
	}

	m.log.Debugf("WAL checkpoint: mode=%s log_frames=%d checkpointed=%d",
		m.cfg.WALCheckpointMode, logFrames, checkpointed)

	return nil
}
