package block

import "time"

// EmptyHash is the sentinel previous hash expected before the very first block of a stream.
const EmptyHash = ""

// Info identifies a block by number and hash and links it to its parent.
type Info struct {
	BlockNumber       uint64    `json:"blockNumber" yaml:"blockNumber" toml:"blockNumber" mapstructure:"blockNumber"`
	BlockHash         string    `json:"blockHash" yaml:"blockHash" toml:"blockHash" mapstructure:"blockHash"`
	PreviousBlockHash string    `json:"previousBlockHash" yaml:"previousBlockHash" toml:"previousBlockHash" mapstructure:"previousBlockHash"` //nolint:lll
	Timestamp         time.Time `json:"timestamp" yaml:"timestamp" toml:"timestamp" mapstructure:"timestamp"`
}

// Follows reports whether b continues the chain ending at parent.
func (b Info) Follows(parent Info) bool {
	return b.BlockNumber == parent.BlockNumber+1 && b.PreviousBlockHash == parent.BlockHash
}

// Action is a single typed operation carried by a block.
// Type is a namespaced identifier such as "token::transfer". Payload is opaque to the engine.
type Action struct {
	Type    string `json:"type" yaml:"type" toml:"type" mapstructure:"type"`
	Payload any    `json:"payload" yaml:"payload" toml:"payload" mapstructure:"payload"`
}

// Block is an immutable unit produced by a block source. The order of actions is significant.
type Block struct {
	Info    Info     `json:"blockInfo" yaml:"blockInfo" toml:"blockInfo" mapstructure:"blockInfo"`
	Actions []Action `json:"actions" yaml:"actions" toml:"actions" mapstructure:"actions"`
}

// Number is a shortcut for b.Info.BlockNumber.
func (b *Block) Number() uint64 {
	return b.Info.BlockNumber
}

// Hash is a shortcut for b.Info.BlockHash.
func (b *Block) Hash() string {
	return b.Info.BlockHash
}

// Meta annotates a block delivered by the reader. It is computed per call and never persisted.
type Meta struct {
	IsRollback      bool `json:"isRollback"`
	IsEarliestBlock bool `json:"isEarliestBlock"`
	IsNewBlock      bool `json:"isNewBlock"`
}

// NextBlock is the unit passed from the reader to the handler.
type NextBlock struct {
	Block                       *Block `json:"block"`
	Meta                        Meta   `json:"blockMeta"`
	LastIrreversibleBlockNumber uint64 `json:"lastIrreversibleBlockNumber"`
}
