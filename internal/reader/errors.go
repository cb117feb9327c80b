package reader

import "fmt"

// UnresolvedForkError is returned when fork resolution would have to rewind
// past the cached history or the last irreversible block.
type UnresolvedForkError struct {
	BlockNumber                 uint64
	LastIrreversibleBlockNumber uint64
	Details                     string
}

func (e *UnresolvedForkError) Error() string {
	return fmt.Sprintf("unresolved fork at block %d (last irreversible block %d): %s",
		e.BlockNumber, e.LastIrreversibleBlockNumber, e.Details)
}

// NewUnresolvedForkError creates a new UnresolvedForkError.
func NewUnresolvedForkError(blockNumber, lastIrreversible uint64, details string) error {
	return &UnresolvedForkError{
		BlockNumber:                 blockNumber,
		LastIrreversibleBlockNumber: lastIrreversible,
		Details:                     details,
	}
}

// ReloadHistoryError is returned when the history window keeps changing while it is being reloaded.
type ReloadHistoryError struct {
	BlockNumber uint64
	Attempts    int
}

func (e *ReloadHistoryError) Error() string {
	return fmt.Sprintf("could not reload history for block %d: chain kept changing after %d attempts",
		e.BlockNumber, e.Attempts)
}

// ImproperStartAtBlockError is returned when seeking before the configured start block.
type ImproperStartAtBlockError struct {
	BlockNumber  uint64
	StartAtBlock uint64
}

func (e *ImproperStartAtBlockError) Error() string {
	return fmt.Sprintf("cannot seek to block %d before the start block %d", e.BlockNumber, e.StartAtBlock)
}

// ImproperSeekToBlockError is returned when seeking further than one block past the head.
type ImproperSeekToBlockError struct {
	BlockNumber     uint64
	HeadBlockNumber uint64
}

func (e *ImproperSeekToBlockError) Error() string {
	return fmt.Sprintf("cannot seek to block %d: head block is %d", e.BlockNumber, e.HeadBlockNumber)
}

// UnexpectedBlockNumberError is returned when the source answers GetBlock with a different block.
type UnexpectedBlockNumberError struct {
	Requested uint64
	Received  uint64
}

func (e *UnexpectedBlockNumberError) Error() string {
	return fmt.Sprintf("block source returned block %d when block %d was requested", e.Received, e.Requested)
}
