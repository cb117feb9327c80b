package reader

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/goran-ethernal/ChainDemux/internal/common"
	"github.com/goran-ethernal/ChainDemux/internal/logger"
	"github.com/goran-ethernal/ChainDemux/internal/metrics"
	"github.com/goran-ethernal/ChainDemux/pkg/block"
	"github.com/goran-ethernal/ChainDemux/pkg/config"
	"github.com/goran-ethernal/ChainDemux/pkg/reader"
)

var _ reader.Reader = (*Reader)(nil)

// Reader turns a block source into a linear, hash-chained stream of blocks.
// It keeps a bounded window of recently accepted blocks to detect and resolve forks.
// All methods except Info must be called from a single goroutine.
type Reader struct {
	source reader.BlockSource
	log    *logger.Logger

	configuredStartAtBlock int64
	onlyIrreversible       bool
	maxHistoryLength       int
	maxReloadAttempts      int

	startAtBlock                uint64
	currentBlockNumber          uint64
	headBlockNumber             uint64
	lastIrreversibleBlockNumber uint64

	// currentBlockData is the last accepted block, blockHistory holds its
	// accepted predecessors from oldest to newest.
	currentBlockData *block.Block
	blockHistory     []*block.Block
	initialized      bool

	info atomic.Pointer[reader.Info]
}

// NewReader creates a new Reader pulling blocks from source.
func NewReader(source reader.BlockSource, cfg config.ReaderConfig, log *logger.Logger) (*Reader, error) {
	if source == nil {
		return nil, errors.New("block source is required")
	}

	if log == nil {
		return nil, errors.New("logger is required")
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Reader{
		source:                 source,
		log:                    log,
		configuredStartAtBlock: cfg.StartAtBlock,
		onlyIrreversible:       cfg.OnlyIrreversible,
		maxHistoryLength:       cfg.MaxHistoryLength,
		maxReloadAttempts:      cfg.MaxReloadAttempts,
	}

	if cfg.StartAtBlock > 0 {
		r.startAtBlock = uint64(cfg.StartAtBlock)
		r.currentBlockNumber = r.startAtBlock - 1
	}

	r.publishInfo()
	metrics.ComponentHealthSet(common.ComponentReader, true)

	return r, nil
}

// Initialize sets up the block source, resolves the start block and loads the history window.
// It is idempotent.
func (r *Reader) Initialize(ctx context.Context) error {
	if r.initialized {
		return nil
	}

	if err := r.source.Setup(ctx); err != nil {
		return fmt.Errorf("failed to set up block source: %w", err)
	}

	if err := r.refreshLastIrreversible(ctx); err != nil {
		return err
	}

	if err := r.refreshHead(ctx); err != nil {
		return err
	}

	if r.configuredStartAtBlock < 0 {
		r.startAtBlock = r.tailStart(uint64(-r.configuredStartAtBlock))
	}

	if r.startAtBlock-1 <= r.headBlockNumber {
		if err := r.reloadHistory(ctx, r.startAtBlock-1); err != nil {
			return err
		}
	} else {
		// starting ahead of the chain, the first block is accepted without a parent to check
		r.currentBlockNumber = r.startAtBlock - 1
	}

	r.initialized = true
	r.publishInfo()

	r.log.Infof("reader initialized: start_at_block=%d head_block=%d last_irreversible_block=%d only_irreversible=%t",
		r.startAtBlock, r.headBlockNumber, r.lastIrreversibleBlockNumber, r.onlyIrreversible)

	return nil
}

// GetNextBlock returns the block following the last delivered one.
// When that block does not chain onto the last delivered block, the fork is resolved and the
// first block of the new branch is returned with IsRollback set.
// IsNewBlock is false when the reader is at the head and nothing new is available.
func (r *Reader) GetNextBlock(ctx context.Context) (*block.NextBlock, error) {
	if err := r.Initialize(ctx); err != nil {
		return nil, err
	}

	meta := block.Meta{}

	if err := r.refreshLastIrreversible(ctx); err != nil {
		return nil, err
	}

	if r.currentBlockNumber >= r.headBlockNumber {
		if err := r.refreshHead(ctx); err != nil {
			return nil, err
		}
	}

	if r.currentBlockNumber < r.headBlockNumber {
		unvalidated, err := r.getBlock(ctx, r.currentBlockNumber+1)
		if err != nil {
			return nil, err
		}

		if r.currentBlockData == nil || unvalidated.Info.PreviousBlockHash == r.currentBlockData.Hash() {
			r.acceptBlock(unvalidated)
			meta.IsNewBlock = true
		} else {
			r.log.Warnf("fork detected: block_number=%d block_hash=%s previous_block_hash=%s expected_previous_hash=%s",
				unvalidated.Number(), unvalidated.Hash(), unvalidated.Info.PreviousBlockHash, r.currentBlockData.Hash())

			if err := r.resolveFork(ctx); err != nil {
				return nil, err
			}

			meta.IsNewBlock = true
			meta.IsRollback = true

			// the new branch may be shorter than the old one
			if err := r.refreshHead(ctx); err != nil {
				return nil, err
			}
		}
	}

	meta.IsEarliestBlock = r.currentBlockNumber == r.startAtBlock
	r.publishInfo()

	return &block.NextBlock{
		Block:                       r.currentBlockData,
		Meta:                        meta,
		LastIrreversibleBlockNumber: r.lastIrreversibleBlockNumber,
	}, nil
}

// SeekToBlock repositions the reader so that the next GetNextBlock returns blockNumber.
func (r *Reader) SeekToBlock(ctx context.Context, blockNumber uint64) error {
	if err := r.Initialize(ctx); err != nil {
		return err
	}

	if blockNumber < r.startAtBlock {
		return &ImproperStartAtBlockError{BlockNumber: blockNumber, StartAtBlock: r.startAtBlock}
	}

	if err := r.refreshLastIrreversible(ctx); err != nil {
		return err
	}

	if err := r.refreshHead(ctx); err != nil {
		return err
	}

	if blockNumber > r.headBlockNumber+1 {
		return &ImproperSeekToBlockError{BlockNumber: blockNumber, HeadBlockNumber: r.headBlockNumber}
	}

	if blockNumber-1 != r.currentBlockNumber || (blockNumber > 1 && r.currentBlockData == nil) {
		if err := r.reloadHistory(ctx, blockNumber-1); err != nil {
			return err
		}
	}

	r.publishInfo()
	r.log.Infof("reader seeked: next_block=%d head_block=%d", blockNumber, r.headBlockNumber)

	return nil
}

// Info returns a snapshot of the reader position.
func (r *Reader) Info() reader.Info {
	return *r.info.Load()
}

// resolveFork walks back the history window until the source's copy of a block chains onto the
// cached copy of its parent. The matching block becomes the current block.
func (r *Reader) resolveFork(ctx context.Context) error {
	stale := r.currentBlockData
	forkTip := stale.Number()

	for {
		if stale.Number() <= r.lastIrreversibleBlockNumber {
			return NewUnresolvedForkError(stale.Number(), r.lastIrreversibleBlockNumber,
				"fork would rewind an irreversible block")
		}

		if len(r.blockHistory) == 0 {
			return NewUnresolvedForkError(stale.Number(), r.lastIrreversibleBlockNumber,
				"block history exhausted before a common ancestor was found")
		}

		previous := r.blockHistory[len(r.blockHistory)-1]

		refetched, err := r.getBlock(ctx, stale.Number())
		if err != nil {
			return err
		}

		if refetched.Info.PreviousBlockHash == previous.Hash() {
			r.log.Infof("fork resolved: block_number=%d block_hash=%s previous_block_hash=%s depth=%d",
				refetched.Number(), refetched.Hash(), refetched.Info.PreviousBlockHash, forkTip-refetched.Number()+1)

			r.currentBlockData = refetched
			r.currentBlockNumber = refetched.Number()
			forkResolvedLog(forkTip - refetched.Number() + 1)

			return nil
		}

		r.log.Infof("fork mismatch: block_number=%d previous_block_hash=%s cached_block_number=%d cached_block_hash=%s",
			refetched.Number(), refetched.Info.PreviousBlockHash, previous.Number(), previous.Hash())

		stale = previous
		r.blockHistory = r.blockHistory[:len(r.blockHistory)-1]
	}
}

// reloadHistory makes blockNumber the current block and refills the history window below it.
// Block 0 is the sentinel before the first block and has no data.
// The window is replaced only once a chained range was fetched, so a failed reload keeps the
// previous position and history intact.
func (r *Reader) reloadHistory(ctx context.Context, blockNumber uint64) error {
	if blockNumber == 0 {
		r.setWindow(0, nil, nil)
		return nil
	}

	from := r.historyFloor(blockNumber)

	for attempt := 1; attempt <= r.maxReloadAttempts; attempt++ {
		historyReloadAttempts.Inc()

		blocks, err := r.fetchRange(ctx, from, blockNumber)
		if err != nil {
			return err
		}

		if isChained(blocks) {
			last := len(blocks) - 1
			r.setWindow(blockNumber, blocks[last], blocks[:last])

			r.log.Debugf("history reloaded: from_block=%d to_block=%d attempt=%d", from, blockNumber, attempt)

			return nil
		}

		r.log.Warnf("microfork detected while reloading history: from_block=%d to_block=%d attempt=%d",
			from, blockNumber, attempt)
	}

	return &ReloadHistoryError{BlockNumber: blockNumber, Attempts: r.maxReloadAttempts}
}

func (r *Reader) setWindow(blockNumber uint64, current *block.Block, history []*block.Block) {
	r.currentBlockNumber = blockNumber
	r.currentBlockData = current
	r.blockHistory = history
}

// historyFloor returns the oldest block kept in the window ending at blockNumber.
func (r *Reader) historyFloor(blockNumber uint64) uint64 {
	from := max(r.lastIrreversibleBlockNumber, 1)
	if from > blockNumber {
		from = blockNumber
	}

	if window := uint64(r.maxHistoryLength); blockNumber > window && blockNumber-window > from {
		from = blockNumber - window
	}

	return from
}

func (r *Reader) fetchRange(ctx context.Context, from, to uint64) ([]*block.Block, error) {
	blocks := make([]*block.Block, 0, to-from+1)
	for n := from; n <= to; n++ {
		b, err := r.getBlock(ctx, n)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}

	return blocks, nil
}

func isChained(blocks []*block.Block) bool {
	for i := 1; i < len(blocks); i++ {
		if !blocks[i].Info.Follows(blocks[i-1].Info) {
			return false
		}
	}

	return true
}

func (r *Reader) acceptBlock(b *block.Block) {
	if r.currentBlockData != nil {
		r.blockHistory = append(r.blockHistory, r.currentBlockData)
	}

	r.currentBlockData = b
	r.currentBlockNumber = b.Number()
	r.pruneHistory()
}

// pruneHistory drops entries below the last irreversible block and trims the window to its maximum length.
func (r *Reader) pruneHistory() {
	drop := 0
	for drop < len(r.blockHistory) && r.blockHistory[drop].Number() < r.lastIrreversibleBlockNumber {
		drop++
	}

	if excess := len(r.blockHistory) - drop - r.maxHistoryLength; excess > 0 {
		drop += excess
	}

	if drop > 0 {
		r.blockHistory = slices.Delete(r.blockHistory, 0, drop)
	}
}

func (r *Reader) getBlock(ctx context.Context, blockNumber uint64) (*block.Block, error) {
	b, err := r.source.GetBlock(ctx, blockNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get block %d: %w", blockNumber, err)
	}

	if b == nil {
		return nil, fmt.Errorf("block source returned no data for block %d", blockNumber)
	}

	if b.Number() != blockNumber {
		return nil, &UnexpectedBlockNumberError{Requested: blockNumber, Received: b.Number()}
	}

	return b, nil
}

func (r *Reader) refreshLastIrreversible(ctx context.Context) error {
	lib, err := r.source.GetLastIrreversibleBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("failed to get last irreversible block number: %w", err)
	}

	r.lastIrreversibleBlockNumber = lib

	return nil
}

// refreshHead updates the head. In only-irreversible mode the head is the last irreversible block.
func (r *Reader) refreshHead(ctx context.Context) error {
	if r.onlyIrreversible {
		r.headBlockNumber = r.lastIrreversibleBlockNumber
		return nil
	}

	head, err := r.source.GetHeadBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("failed to get head block number: %w", err)
	}

	r.headBlockNumber = head

	return nil
}

// tailStart resolves a negative start block relative to the head.
func (r *Reader) tailStart(behindHead uint64) uint64 {
	if behindHead >= r.headBlockNumber {
		return 1
	}

	return r.headBlockNumber - behindHead
}

func (r *Reader) publishInfo() {
	r.info.Store(&reader.Info{
		CurrentBlockNumber:          r.currentBlockNumber,
		StartAtBlock:                r.startAtBlock,
		HeadBlockNumber:             r.headBlockNumber,
		OnlyIrreversible:            r.onlyIrreversible,
		LastIrreversibleBlockNumber: r.lastIrreversibleBlockNumber,
	})

	positionLog(r.currentBlockNumber, r.headBlockNumber, r.lastIrreversibleBlockNumber)
}
