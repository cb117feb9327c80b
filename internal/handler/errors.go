package handler

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingHandlerVersion is returned when a handler is built without handler versions.
	ErrMissingHandlerVersion = errors.New("at least one handler version is required")

	// ErrNotInitialized is returned when a block is handled before a successful initialization.
	ErrNotInitialized = errors.New("handler is not initialized")
)

// DuplicateHandlerVersionError is returned when two handler versions share a name.
type DuplicateHandlerVersionError struct {
	VersionName string
}

func (e *DuplicateHandlerVersionError) Error() string {
	return fmt.Sprintf("handler version name %q is used more than once", e.VersionName)
}

// MismatchedBlockHashError is returned when a block does not chain onto the last processed block.
type MismatchedBlockHashError struct {
	BlockNumber          uint64
	PreviousBlockHash    string
	LastProcessedBlockNo uint64
	LastProcessedHash    string
}

func (e *MismatchedBlockHashError) Error() string {
	return fmt.Sprintf("block %d has previous hash %q but the last processed block %d has hash %q",
		e.BlockNumber, e.PreviousBlockHash, e.LastProcessedBlockNo, e.LastProcessedHash)
}
