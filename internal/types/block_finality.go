package types

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
)

// BlockFinality selects how the Ethereum block source decides which blocks are irreversible.
type BlockFinality string

const (
	// FinalityFinalized trusts the node's finalized block tag.
	FinalityFinalized BlockFinality = "finalized"

	// FinalitySafe trusts the node's safe block tag.
	FinalitySafe BlockFinality = "safe"

	// FinalityLatest treats blocks a fixed number of blocks behind head as irreversible.
	FinalityLatest BlockFinality = "latest"
)

// String returns the string representation of BlockFinality.
func (f BlockFinality) String() string {
	return string(f)
}

// IsValid checks if the BlockFinality value is valid.
func (f BlockFinality) IsValid() bool {
	switch f {
	case FinalityFinalized, FinalitySafe, FinalityLatest:
		return true
	default:
		return false
	}
}

// Tag returns the JSON-RPC block tag for f, as a number usable with HeaderByNumber.
func (f BlockFinality) Tag() *big.Int {
	switch f {
	case FinalityFinalized:
		return big.NewInt(int64(rpc.FinalizedBlockNumber))
	case FinalitySafe:
		return big.NewInt(int64(rpc.SafeBlockNumber))
	default:
		return big.NewInt(int64(rpc.LatestBlockNumber))
	}
}

// Lagged reports whether irreversibility is derived from head instead of a node tag.
func (f BlockFinality) Lagged() bool {
	return f == FinalityLatest
}

// IrreversibleAt returns the last irreversible block for head under a fixed lag, floored at genesis.
func IrreversibleAt(head, lag uint64) uint64 {
	if head < lag {
		return 0
	}

	return head - lag
}

// ParseBlockFinality parses a string into a BlockFinality type.
func ParseBlockFinality(s string) (BlockFinality, error) {
	f := BlockFinality(strings.ToLower(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", fmt.Errorf("invalid block finality: %s (must be one of: finalized, safe, latest)", s)
	}
	return f, nil
}
