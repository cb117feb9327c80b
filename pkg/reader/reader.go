package reader

import (
	"context"

	"github.com/goran-ethernal/ChainDemux/pkg/block"
)

// BlockSource is implemented by chain adapters that the reader pulls blocks from.
type BlockSource interface {
	// Setup prepares the source. It must be idempotent.
	Setup(ctx context.Context) error

	// GetHeadBlockNumber returns the number of the newest block known to the source.
	GetHeadBlockNumber(ctx context.Context) (uint64, error)

	// GetLastIrreversibleBlockNumber returns the highest block the source considers final.
	GetLastIrreversibleBlockNumber(ctx context.Context) (uint64, error)

	// GetBlock returns the block with the given number on the source's current canonical chain.
	GetBlock(ctx context.Context, blockNumber uint64) (*block.Block, error)
}

// Reader turns a possibly forking block source into a linear, hash-chained stream of blocks.
type Reader interface {
	// Initialize performs one-time setup. GetNextBlock calls it when needed.
	Initialize(ctx context.Context) error

	// GetNextBlock returns the next validated block, resolving forks when detected.
	GetNextBlock(ctx context.Context) (*block.NextBlock, error)

	// SeekToBlock repositions the reader so that the next GetNextBlock returns blockNumber.
	SeekToBlock(ctx context.Context, blockNumber uint64) error

	// Info returns a snapshot of the reader position. It is safe to call concurrently.
	Info() Info
}

// Info is a read-only snapshot of the reader state.
type Info struct {
	CurrentBlockNumber          uint64 `json:"currentBlockNumber"`
	StartAtBlock                uint64 `json:"startAtBlock"`
	HeadBlockNumber             uint64 `json:"headBlockNumber"`
	OnlyIrreversible            bool   `json:"onlyIrreversible"`
	LastIrreversibleBlockNumber uint64 `json:"lastIrreversibleBlockNumber"`
}
