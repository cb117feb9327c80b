package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goran-ethernal/ChainDemux/internal/db"
	"github.com/goran-ethernal/ChainDemux/internal/logger"
	"github.com/goran-ethernal/ChainDemux/internal/metrics"
	"github.com/goran-ethernal/ChainDemux/pkg/block"
	"github.com/goran-ethernal/ChainDemux/pkg/config"
	"github.com/goran-ethernal/ChainDemux/pkg/handler"
	"github.com/russross/meddler"
)

//go:embed migrations/001_index_state.sql
var indexStateMigration string

const (
	indexStateID = 1
	metricsDB    = "state"
)

var _ handler.StateStore = (*Store)(nil)

// RollbackFunc reverts application tables to their content as of blockNumber.
type RollbackFunc func(ctx context.Context, tx *sql.Tx, blockNumber uint64) error

type indexStateRow struct {
	ID                 int64  `meddler:"id,pk"`
	BlockNumber        uint64 `meddler:"block_number"`
	BlockHash          string `meddler:"block_hash"`
	HandlerVersionName string `meddler:"handler_version_name"`
	IsReplay           bool   `meddler:"is_replay"`
	UpdatedAt          int64  `meddler:"updated_at"`
}

// Option customizes a Store.
type Option func(*Store)

// WithMigrations adds application migrations applied by Setup after the store's own.
func WithMigrations(migrations ...db.Migration) Option {
	return func(s *Store) {
		s.migrations = append(s.migrations, migrations...)
	}
}

// WithRollback registers a hook reverting application tables on rollback.
// Hooks run in registration order, in the same transaction as the index state restore.
func WithRollback(fn RollbackFunc) Option {
	return func(s *Store) {
		s.rollbacks = append(s.rollbacks, fn)
	}
}

// Store is a state store on SQLite. The application state handed to updaters is the *sql.Tx
// of the block being handled.
type Store struct {
	db         *sql.DB
	log        *logger.Logger
	maintainer *db.Maintainer

	migrations []db.Migration
	rollbacks  []RollbackFunc

	setupOnce sync.Once
	setupErr  error
}

// New opens the database described by cfg.
func New(cfg config.DatabaseConfig, log *logger.Logger, opts ...Option) (*Store, error) {
	if log == nil {
		return nil, errors.New("logger is required")
	}

	if cfg.Path == "" {
		return nil, errors.New("database path is required")
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sqlDB, err := db.NewSQLiteDBFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	s := &Store{
		db:         sqlDB,
		log:        log,
		maintainer: db.NewMaintainer(cfg.Path, sqlDB, cfg.Maintenance, log),
		migrations: []db.Migration{{ID: "001_index_state.sql", SQL: indexStateMigration, Prefix: "state_"}},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// DB returns the underlying database for read queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Setup applies the migrations and starts background maintenance. It is idempotent.
func (s *Store) Setup(ctx context.Context) error {
	s.setupOnce.Do(func() {
		if err := db.RunMigrations(s.log, s.db, s.migrations); err != nil {
			s.setupErr = err
			return
		}

		s.setupErr = s.maintainer.Start(ctx)
	})

	return s.setupErr
}

// LoadIndexState returns the persisted checkpoint.
func (s *Store) LoadIndexState(ctx context.Context) (handler.IndexState, error) {
	start := time.Now()
	defer func() { metrics.DBQueryDuration(metricsDB, "load_index_state", time.Since(start)) }()
	metrics.DBQueryInc(metricsDB, "load_index_state")

	var row indexStateRow
	if err := meddler.QueryRow(s.db, &row, `SELECT * FROM index_state WHERE id = ?`, indexStateID); err != nil {
		metrics.DBErrorsInc(metricsDB, "load_index_state")
		return handler.IndexState{}, fmt.Errorf("failed to load index state: %w", err)
	}

	return handler.IndexState{
		BlockNumber:        row.BlockNumber,
		BlockHash:          row.BlockHash,
		HandlerVersionName: row.HandlerVersionName,
		IsReplay:           row.IsReplay,
	}, nil
}

// HandleWithState runs handle inside one transaction and commits it if handle succeeds.
func (s *Store) HandleWithState(
	ctx context.Context,
	handle func(state any, bctx handler.BlockContext) error,
) error {
	return s.inTx(ctx, "handle_block", func(tx *sql.Tx) error {
		return handle(tx, handler.BlockContext{})
	})
}

// UpdateIndexState writes the checkpoint and its history entry, and prunes history below the
// last irreversible block. state must be the transaction passed to HandleWithState.
func (s *Store) UpdateIndexState(
	ctx context.Context,
	state any,
	next *block.NextBlock,
	isReplay bool,
	versionName string,
	_ handler.BlockContext,
) error {
	tx, ok := state.(*sql.Tx)
	if !ok {
		return fmt.Errorf("expected *sql.Tx state, got %T", state)
	}

	metrics.DBQueryInc(metricsDB, "update_index_state")

	row := &indexStateRow{
		ID:                 indexStateID,
		BlockNumber:        next.Block.Number(),
		BlockHash:          next.Block.Hash(),
		HandlerVersionName: versionName,
		IsReplay:           isReplay,
		UpdatedAt:          time.Now().Unix(),
	}
	if err := meddler.Update(tx, "index_state", row); err != nil {
		return fmt.Errorf("failed to update index state: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO index_state_history (block_number, block_hash, handler_version_name, is_replay)
		VALUES (?, ?, ?, ?)`,
		row.BlockNumber, row.BlockHash, row.HandlerVersionName, row.IsReplay,
	); err != nil {
		return fmt.Errorf("failed to record index state history: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM index_state_history WHERE block_number < ?`, next.LastIrreversibleBlockNumber,
	); err != nil {
		return fmt.Errorf("failed to prune index state history: %w", err)
	}

	return nil
}

// RollbackTo runs the application rollback hooks and restores the checkpoint recorded for blockNumber.
// Without a recorded checkpoint the position is set to blockNumber with no hash and no version.
// Nothing happens when no block above blockNumber was handled.
func (s *Store) RollbackTo(ctx context.Context, blockNumber uint64) error {
	return s.inTx(ctx, "rollback", func(tx *sql.Tx) error {
		var current uint64
		if err := tx.QueryRowContext(ctx,
			`SELECT block_number FROM index_state WHERE id = ?`, indexStateID,
		).Scan(&current); err != nil {
			return fmt.Errorf("failed to read index state: %w", err)
		}

		if current <= blockNumber {
			return nil
		}

		for _, rollback := range s.rollbacks {
			if err := rollback(ctx, tx, blockNumber); err != nil {
				return fmt.Errorf("application rollback to block %d failed: %w", blockNumber, err)
			}
		}

		restored := indexStateRow{ID: indexStateID, BlockNumber: blockNumber, UpdatedAt: time.Now().Unix()}

		err := tx.QueryRowContext(ctx, `
			SELECT block_hash, handler_version_name, is_replay FROM index_state_history WHERE block_number = ?`,
			blockNumber,
		).Scan(&restored.BlockHash, &restored.HandlerVersionName, &restored.IsReplay)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to read index state history: %w", err)
		}

		if errors.Is(err, sql.ErrNoRows) && blockNumber > 0 {
			s.log.Warnf("no index state recorded for block %d, restoring position without hash", blockNumber)
		}

		if err := meddler.Update(tx, "index_state", &restored); err != nil {
			return fmt.Errorf("failed to restore index state: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM index_state_history WHERE block_number > ?`, blockNumber,
		); err != nil {
			return fmt.Errorf("failed to truncate index state history: %w", err)
		}

		s.log.Infof("state rolled back to block %d", blockNumber)

		return nil
	})
}

// Close stops maintenance and closes the database.
func (s *Store) Close() error {
	s.maintainer.Stop()
	return s.db.Close()
}

func (s *Store) inTx(ctx context.Context, operation string, fn func(tx *sql.Tx) error) (err error) {
	unlock := s.maintainer.AcquireOperationLock()
	defer unlock()

	start := time.Now()
	metrics.DBQueryInc(metricsDB, operation)
	defer func() {
		metrics.DBQueryDuration(metricsDB, operation, time.Since(start))
		if err != nil {
			metrics.DBErrorsInc(metricsDB, operation)
		}
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Errorw("failed to roll back transaction", "operation", operation, "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
