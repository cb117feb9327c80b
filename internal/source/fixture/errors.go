package fixture

import "fmt"

// BlockNotFoundError is returned when a block number is outside the fixture chain.
type BlockNotFoundError struct {
	BlockNumber uint64
	Length      int
}

func (e *BlockNotFoundError) Error() string {
	return fmt.Sprintf("block %d does not exist in the fixture chain of %d blocks", e.BlockNumber, e.Length)
}

// BlockPositionError is returned when a block is stored at a position that does not match its number.
type BlockPositionError struct {
	BlockNumber uint64
	Position    int
}

func (e *BlockPositionError) Error() string {
	return fmt.Sprintf("fixture block %d is stored at position %d; blocks must start at 1 and be contiguous",
		e.BlockNumber, e.Position)
}
