package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/goran-ethernal/ChainDemux/internal/logger"
	"github.com/goran-ethernal/ChainDemux/pkg/block"
	"github.com/goran-ethernal/ChainDemux/pkg/handler"
)

var _ handler.StateStore = (*Store[int])(nil)

// ErrNotInTransaction is returned when the index state is updated outside of HandleWithState.
var ErrNotInTransaction = errors.New("index state can only be updated from within HandleWithState")

// SnapshotNotFoundError is returned when a rollback target is older than the retained snapshots.
type SnapshotNotFoundError struct {
	BlockNumber       uint64
	OldestBlockNumber uint64
}

func (e *SnapshotNotFoundError) Error() string {
	return fmt.Sprintf("cannot roll back to block %d: oldest retained snapshot is at block %d",
		e.BlockNumber, e.OldestBlockNumber)
}

type snapshot[S any] struct {
	index handler.IndexState
	state S
}

type transaction struct {
	index *handler.IndexState
	lib   uint64
}

// Store keeps application state of type S in memory.
// A snapshot is retained for every handled block that is not yet irreversible, so rollbacks
// can restore the state as of any reversible block.
type Store[S any] struct {
	mu    sync.Mutex
	clone func(S) S
	log   *logger.Logger

	state     S
	index     handler.IndexState
	snapshots []snapshot[S]
	tx        *transaction
}

// NewStore creates a Store starting from initial. clone must return a deep copy of its argument.
func NewStore[S any](initial S, clone func(S) S, log *logger.Logger) *Store[S] {
	return &Store[S]{
		clone:     clone,
		log:       log,
		state:     initial,
		snapshots: []snapshot[S]{{state: clone(initial)}},
	}
}

// Setup is a no-op.
func (s *Store[S]) Setup(context.Context) error {
	return nil
}

// LoadIndexState returns the index state of the last committed block.
func (s *Store[S]) LoadIndexState(context.Context) (handler.IndexState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.index, nil
}

// UpdateIndexState records the index state for the block handled by the enclosing HandleWithState.
func (s *Store[S]) UpdateIndexState(
	_ context.Context,
	_ any,
	next *block.NextBlock,
	isReplay bool,
	versionName string,
	_ handler.BlockContext,
) error {
	if s.tx == nil {
		return ErrNotInTransaction
	}

	s.tx.index = &handler.IndexState{
		BlockNumber:        next.Block.Number(),
		BlockHash:          next.Block.Hash(),
		HandlerVersionName: versionName,
		IsReplay:           isReplay,
	}
	s.tx.lib = next.LastIrreversibleBlockNumber

	return nil
}

// HandleWithState passes a copy of the state to handle and commits it only if handle succeeds.
func (s *Store[S]) HandleWithState(
	ctx context.Context,
	handle func(state any, bctx handler.BlockContext) error,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := s.clone(s.state)
	s.tx = &transaction{}
	defer func() { s.tx = nil }()

	if err := handle(working, handler.BlockContext{}); err != nil {
		return err
	}

	s.state = working

	if s.tx.index == nil {
		return nil
	}

	s.index = *s.tx.index
	s.snapshots = append(s.snapshots, snapshot[S]{index: s.index, state: s.clone(working)})
	s.prune(s.tx.lib)

	return nil
}

// RollbackTo restores the state and index state as of blockNumber.
func (s *Store[S]) RollbackTo(_ context.Context, blockNumber uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index.BlockNumber <= blockNumber {
		return nil
	}

	i := len(s.snapshots) - 1
	for i >= 0 && s.snapshots[i].index.BlockNumber > blockNumber {
		i--
	}

	if i < 0 {
		oldest := s.index.BlockNumber
		if len(s.snapshots) > 0 {
			oldest = s.snapshots[0].index.BlockNumber
		}

		return &SnapshotNotFoundError{BlockNumber: blockNumber, OldestBlockNumber: oldest}
	}

	from := s.index.BlockNumber
	restored := s.snapshots[i]
	s.state = s.clone(restored.state)
	s.index = restored.index
	clear(s.snapshots[i+1:])
	s.snapshots = s.snapshots[:i+1]

	s.log.Debugf("rolled back in-memory state from block %d to block %d", from, s.index.BlockNumber)

	return nil
}

// State returns a copy of the committed state.
func (s *Store[S]) State() S {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.clone(s.state)
}

// prune drops snapshots that can no longer be rolled back to, keeping the one at lib.
func (s *Store[S]) prune(lib uint64) {
	keepFrom := 0
	for keepFrom < len(s.snapshots)-1 && s.snapshots[keepFrom+1].index.BlockNumber <= lib {
		keepFrom++
	}

	if keepFrom == 0 {
		return
	}

	clear(s.snapshots[:keepFrom])
	s.snapshots = s.snapshots[keepFrom:]
}
