package ethereum

import "fmt"

// BlockNotFoundError is returned when the node does not know a block with the requested number.
type BlockNotFoundError struct {
	BlockNumber uint64
}

func (e *BlockNotFoundError) Error() string {
	return fmt.Sprintf("block %d not found on the node", e.BlockNumber)
}

// InvalidEventSignatureError is returned for an event that is not of the form "Name(type1,type2,...)".
type InvalidEventSignatureError struct {
	Contract  string
	Signature string
}

func (e *InvalidEventSignatureError) Error() string {
	return fmt.Sprintf("contract %s: invalid event signature %q (expected format: EventName(type1,type2,...))",
		e.Contract, e.Signature)
}
