package ethereum

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/goran-ethernal/ChainDemux/internal/logger"
	itypes "github.com/goran-ethernal/ChainDemux/internal/types"
	"github.com/goran-ethernal/ChainDemux/pkg/block"
	"github.com/goran-ethernal/ChainDemux/pkg/config"
	"github.com/goran-ethernal/ChainDemux/pkg/reader"
	"github.com/goran-ethernal/ChainDemux/pkg/rpc"
)

var _ reader.BlockSource = (*Source)(nil)

// ActionType returns the action type of logs emitted by contract for the given event name.
func ActionType(contract common.Address, eventName string) string {
	return contract.Hex() + "::" + eventName
}

// Source serves blocks from an EVM JSON-RPC node.
// A block carries one action per log emitted by the configured contracts, in log index order.
// The action payload is the types.Log.
type Source struct {
	client       rpc.EthClient
	finality     itypes.BlockFinality
	finalizedLag uint64

	addresses []common.Address
	topics    [][]common.Hash
	// contract -> event topic -> action type
	actionTypes map[common.Address]map[common.Hash]string

	log *logger.Logger
}

// NewSource creates a Source from the source configuration.
func NewSource(client rpc.EthClient, cfg config.SourceConfig, log *logger.Logger) (*Source, error) {
	finality, err := itypes.ParseBlockFinality(cfg.Finality)
	if err != nil {
		return nil, err
	}

	s := &Source{
		client:       client,
		finality:     finality,
		finalizedLag: cfg.FinalizedLag,
		actionTypes:  make(map[common.Address]map[common.Hash]string, len(cfg.Contracts)),
		log:          log,
	}

	var eventTopics []common.Hash

	for _, contract := range cfg.Contracts {
		if !common.IsHexAddress(contract.Address) {
			return nil, fmt.Errorf("invalid contract address: %s", contract.Address)
		}

		address := common.HexToAddress(contract.Address)
		if _, exists := s.actionTypes[address]; !exists {
			s.addresses = append(s.addresses, address)
			s.actionTypes[address] = make(map[common.Hash]string, len(contract.Events))
		}

		for _, eventSig := range contract.Events {
			name, err := eventName(eventSig)
			if err != nil {
				return nil, &InvalidEventSignatureError{Contract: contract.Address, Signature: eventSig}
			}

			topic := crypto.Keccak256Hash([]byte(eventSig))
			s.actionTypes[address][topic] = ActionType(address, name)
			if !slices.Contains(eventTopics, topic) {
				eventTopics = append(eventTopics, topic)
			}

			log.Debugf("watching event: contract=%s event=%s topic=%s", address.Hex(), eventSig, topic.Hex())
		}
	}

	s.topics = [][]common.Hash{eventTopics}

	return s, nil
}

// Setup checks that the node is reachable.
func (s *Source) Setup(ctx context.Context) error {
	header, err := s.client.GetLatestBlockHeader(ctx)
	if err != nil {
		return fmt.Errorf("failed to reach the node: %w", err)
	}

	s.log.Infof("connected to node: head=%d finality=%s contracts=%d",
		header.Number.Uint64(), s.finality, len(s.addresses))

	return nil
}

// GetHeadBlockNumber returns the number of the latest block.
func (s *Source) GetHeadBlockNumber(ctx context.Context) (uint64, error) {
	header, err := s.client.GetLatestBlockHeader(ctx)
	if err != nil {
		return 0, err
	}

	return header.Number.Uint64(), nil
}

// GetLastIrreversibleBlockNumber resolves the last irreversible block from the configured finality.
// With latest finality the block is head - FinalizedLag, floored at genesis.
func (s *Source) GetLastIrreversibleBlockNumber(ctx context.Context) (uint64, error) {
	if s.finality.Lagged() {
		header, err := s.client.GetLatestBlockHeader(ctx)
		if err != nil {
			return 0, err
		}

		return itypes.IrreversibleAt(header.Number.Uint64(), s.finalizedLag), nil
	}

	var (
		header *types.Header
		err    error
	)

	switch s.finality {
	case itypes.FinalityFinalized:
		header, err = s.client.GetFinalizedBlockHeader(ctx)
	case itypes.FinalitySafe:
		header, err = s.client.GetSafeBlockHeader(ctx)
	default:
		return 0, fmt.Errorf("invalid finality mode: %s", s.finality)
	}

	if err != nil {
		return 0, err
	}

	return header.Number.Uint64(), nil
}

// GetBlock builds block blockNumber from its header and the logs of the configured contracts.
// Logs are queried by block hash so header and actions always belong to the same block.
func (s *Source) GetBlock(ctx context.Context, blockNumber uint64) (*block.Block, error) {
	header, err := s.client.GetBlockHeader(ctx, blockNumber)
	if errors.Is(err, ethereum.NotFound) || (err == nil && header == nil) {
		return nil, &BlockNotFoundError{BlockNumber: blockNumber}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get header of block %d: %w", blockNumber, err)
	}

	hash := header.Hash()
	b := &block.Block{
		Info: block.Info{
			BlockNumber:       blockNumber,
			BlockHash:         hash.Hex(),
			PreviousBlockHash: header.ParentHash.Hex(),
			Timestamp:         time.Unix(int64(header.Time), 0).UTC(),
		},
	}

	if len(s.addresses) == 0 {
		return b, nil
	}

	logs, err := s.client.GetLogs(ctx, ethereum.FilterQuery{
		BlockHash: &hash,
		Addresses: s.addresses,
		Topics:    s.topics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get logs of block %d: %w", blockNumber, err)
	}

	slices.SortFunc(logs, func(a, b types.Log) int {
		return cmp.Compare(a.Index, b.Index)
	})

	for _, l := range logs {
		if l.Removed || len(l.Topics) == 0 {
			continue
		}

		actionType, ok := s.actionTypes[l.Address][l.Topics[0]]
		if !ok {
			continue
		}

		b.Actions = append(b.Actions, block.Action{Type: actionType, Payload: l})
	}

	s.log.Debugw("block fetched", "block", blockNumber, "hash", b.Hash(), "actions", len(b.Actions))

	return b, nil
}

// Close closes the underlying RPC client.
func (s *Source) Close() {
	s.client.Close()
}

// eventName extracts the name from an event signature such as "Transfer(address,address,uint256)".
func eventName(signature string) (string, error) {
	name, args, ok := strings.Cut(signature, "(")
	if !ok || name == "" || !strings.HasSuffix(args, ")") || strings.ContainsAny(name, " \t") {
		return "", fmt.Errorf("invalid event signature: %s", signature)
	}

	return name, nil
}
