package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/goran-ethernal/ChainDemux/internal/logger"
	"github.com/goran-ethernal/ChainDemux/pkg/block"
	"github.com/goran-ethernal/ChainDemux/pkg/reader"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

var _ reader.BlockSource = (*Source)(nil)

// File is the on-disk layout of a fixture chain.
type File struct {
	// IrreversibleLag is the distance between the head and the last irreversible block.
	IrreversibleLag uint64 `mapstructure:"irreversibleLag"`

	Blocks []*block.Block `mapstructure:"blocks"`
}

// Source serves blocks from a static, in-memory chain.
// The chain can be replaced at any time to simulate forks.
type Source struct {
	mu sync.RWMutex

	blocks           []*block.Block
	irreversibleLag  uint64
	lastIrreversible *uint64
	log              *logger.Logger
}

// NewSource creates a Source serving blocks. Block n must be stored at index n-1.
func NewSource(blocks []*block.Block, irreversibleLag uint64, log *logger.Logger) *Source {
	return &Source{
		blocks:          blocks,
		irreversibleLag: irreversibleLag,
		log:             log,
	}
}

// NewSourceFromFile loads a fixture chain from a .json, .yaml, .yml or .toml file.
func NewSourceFromFile(path string, log *logger.Logger) (*Source, error) {
	file, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	log.Infof("loaded fixture chain: path=%s blocks=%d irreversible_lag=%d",
		path, len(file.Blocks), file.IrreversibleLag)

	return NewSource(file.Blocks, file.IrreversibleLag, log), nil
}

// LoadFile reads a fixture file, auto-detecting the format by extension.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}

	var raw map[string]any

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	default:
		return nil, fmt.Errorf("unsupported fixture file format: %s (supported: .yaml, .yml, .json, .toml)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse fixture file: %w", err)
	}

	var file File
	if err := Decode(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to decode fixture file: %w", err)
	}

	return &file, nil
}

// Decode converts loosely typed fixture data (as produced by the json, yaml and toml decoders)
// into out. Timestamps may be RFC3339 strings.
func Decode(input any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(input)
}

// Setup is a no-op, the chain is already in memory.
func (s *Source) Setup(context.Context) error {
	return nil
}

// GetHeadBlockNumber returns the number of the last block of the chain.
func (s *Source) GetHeadBlockNumber(context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.head()
}

// GetLastIrreversibleBlockNumber returns the head minus the irreversible lag,
// or the explicitly set value capped at the head.
func (s *Source) GetLastIrreversibleBlockNumber(context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	head, err := s.head()
	if err != nil {
		return 0, err
	}

	if s.lastIrreversible != nil {
		return min(*s.lastIrreversible, head), nil
	}

	if head < s.irreversibleLag {
		return 0, nil
	}

	return head - s.irreversibleLag, nil
}

// GetBlock returns block blockNumber of the current chain.
func (s *Source) GetBlock(_ context.Context, blockNumber uint64) (*block.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if blockNumber == 0 || blockNumber > uint64(len(s.blocks)) {
		return nil, &BlockNotFoundError{BlockNumber: blockNumber, Length: len(s.blocks)}
	}

	b := s.blocks[blockNumber-1]
	if b.Number() != blockNumber {
		return nil, &BlockPositionError{BlockNumber: b.Number(), Position: int(blockNumber)}
	}

	return b, nil
}

// SetBlockchain replaces the chain.
func (s *Source) SetBlockchain(blocks []*block.Block) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blocks = blocks
	if s.log != nil {
		s.log.Debugf("fixture chain replaced: blocks=%d", len(blocks))
	}
}

// SetLastIrreversible pins the last irreversible block number, overriding the lag.
func (s *Source) SetLastIrreversible(blockNumber uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastIrreversible = &blockNumber
}

func (s *Source) head() (uint64, error) {
	if len(s.blocks) == 0 {
		return 0, nil
	}

	last := s.blocks[len(s.blocks)-1]
	if last.Number() != uint64(len(s.blocks)) {
		return 0, &BlockPositionError{BlockNumber: last.Number(), Position: len(s.blocks)}
	}

	return last.Number(), nil
}

// NewBlock builds a fixture block with a deterministic timestamp.
func NewBlock(number uint64, hash, previousHash string, actions ...block.Action) *block.Block {
	return &block.Block{
		Info: block.Info{
			BlockNumber:       number,
			BlockHash:         hash,
			PreviousBlockHash: previousHash,
			Timestamp:         time.Unix(int64(number)*2, 0).UTC(), //nolint:gosec,mnd
		},
		Actions: actions,
	}
}
