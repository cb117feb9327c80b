package ethereum

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/goran-ethernal/ChainDemux/internal/logger"
	rpcmocks "github.com/goran-ethernal/ChainDemux/internal/rpc/mocks"
	"github.com/goran-ethernal/ChainDemux/pkg/config"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	tokenAddress   = "0x1111111111111111111111111111111111111111"
	transferSig    = "Transfer(address,address,uint256)"
	approvalSig    = "Approval(address,address,uint256)"
	otherTokenAddr = "0x2222222222222222222222222222222222222222"
)

var (
	transferTopic = crypto.Keccak256Hash([]byte(transferSig))
	approvalTopic = crypto.Keccak256Hash([]byte(approvalSig))
)

func createTestHeader(blockNum uint64, parentHash common.Hash) *types.Header {
	return &types.Header{
		Number:     new(big.Int).SetUint64(blockNum),
		ParentHash: parentHash,
		Difficulty: big.NewInt(1),
		GasLimit:   8000000,
		Time:       1700000000 + blockNum,
	}
}

func testSourceConfig(finality string, lag uint64) config.SourceConfig {
	return config.SourceConfig{
		Type:         config.SourceTypeEthereum,
		RPCURL:       "http://localhost:8545",
		Finality:     finality,
		FinalizedLag: lag,
		Contracts: []config.ContractConfig{
			{Address: tokenAddress, Events: []string{transferSig, approvalSig}},
			{Address: otherTokenAddr, Events: []string{transferSig}},
		},
	}
}

func setupTestSource(t *testing.T, finality string, lag uint64) (*Source, *rpcmocks.EthClient) {
	t.Helper()

	client := rpcmocks.NewEthClient(t)
	s, err := NewSource(client, testSourceConfig(finality, lag), logger.NewNopLogger())
	require.NoError(t, err)

	return s, client
}

func TestNewSource(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(cfg *config.SourceConfig)
		expectedErr string
	}{
		{
			name:   "valid",
			modify: func(*config.SourceConfig) {},
		},
		{
			name:        "invalid finality",
			modify:      func(cfg *config.SourceConfig) { cfg.Finality = "pending" },
			expectedErr: "invalid block finality",
		},
		{
			name:        "invalid address",
			modify:      func(cfg *config.SourceConfig) { cfg.Contracts[0].Address = "0xnothex" },
			expectedErr: "invalid contract address",
		},
		{
			name:        "event without arguments",
			modify:      func(cfg *config.SourceConfig) { cfg.Contracts[0].Events = []string{"Transfer"} },
			expectedErr: "invalid event signature",
		},
		{
			name:        "event without name",
			modify:      func(cfg *config.SourceConfig) { cfg.Contracts[0].Events = []string{"(address)"} },
			expectedErr: "invalid event signature",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testSourceConfig("finalized", 0)
			tt.modify(&cfg)

			s, err := NewSource(rpcmocks.NewEthClient(t), cfg, logger.NewNopLogger())
			if tt.expectedErr != "" {
				require.ErrorContains(t, err, tt.expectedErr)
				return
			}

			require.NoError(t, err)
			require.Len(t, s.addresses, 2)
			require.Equal(t, [][]common.Hash{{transferTopic, approvalTopic}}, s.topics)
		})
	}
}

func TestSource_Setup(t *testing.T) {
	s, client := setupTestSource(t, "finalized", 0)
	ctx := context.Background()

	client.EXPECT().GetLatestBlockHeader(ctx).Return(createTestHeader(100, common.Hash{}), nil).Once()
	require.NoError(t, s.Setup(ctx))

	client.EXPECT().GetLatestBlockHeader(ctx).Return(nil, errors.New("connection refused")).Once()
	require.ErrorContains(t, s.Setup(ctx), "failed to reach the node")
}

func TestSource_GetHeadBlockNumber(t *testing.T) {
	s, client := setupTestSource(t, "finalized", 0)
	ctx := context.Background()

	client.EXPECT().GetLatestBlockHeader(ctx).Return(createTestHeader(150, common.Hash{}), nil).Once()

	head, err := s.GetHeadBlockNumber(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(150), head)
}

func TestSource_GetLastIrreversibleBlockNumber(t *testing.T) {
	tests := []struct {
		name     string
		finality string
		lag      uint64
		setup    func(client *rpcmocks.EthClient)
		expected uint64
	}{
		{
			name:     "finalized tag",
			finality: "finalized",
			setup: func(client *rpcmocks.EthClient) {
				client.EXPECT().GetFinalizedBlockHeader(mock.Anything).
					Return(createTestHeader(90, common.Hash{}), nil).Once()
			},
			expected: 90,
		},
		{
			name:     "safe tag",
			finality: "safe",
			setup: func(client *rpcmocks.EthClient) {
				client.EXPECT().GetSafeBlockHeader(mock.Anything).
					Return(createTestHeader(95, common.Hash{}), nil).Once()
			},
			expected: 95,
		},
		{
			name:     "latest with lag",
			finality: "latest",
			lag:      10,
			setup: func(client *rpcmocks.EthClient) {
				client.EXPECT().GetLatestBlockHeader(mock.Anything).
					Return(createTestHeader(100, common.Hash{}), nil).Once()
			},
			expected: 90,
		},
		{
			name:     "latest with lag above head",
			finality: "latest",
			lag:      200,
			setup: func(client *rpcmocks.EthClient) {
				client.EXPECT().GetLatestBlockHeader(mock.Anything).
					Return(createTestHeader(100, common.Hash{}), nil).Once()
			},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, client := setupTestSource(t, tt.finality, tt.lag)
			tt.setup(client)

			lib, err := s.GetLastIrreversibleBlockNumber(context.Background())
			require.NoError(t, err)
			require.Equal(t, tt.expected, lib)
		})
	}
}

func TestSource_GetBlock(t *testing.T) {
	s, client := setupTestSource(t, "finalized", 0)
	ctx := context.Background()

	parent := common.HexToHash("0xabc")
	header := createTestHeader(101, parent)
	hash := header.Hash()

	token := common.HexToAddress(tokenAddress)
	other := common.HexToAddress(otherTokenAddr)

	logs := []types.Log{
		{Address: other, Topics: []common.Hash{transferTopic}, Index: 3, BlockHash: hash},
		{Address: token, Topics: []common.Hash{transferTopic}, Index: 0, BlockHash: hash},
		{Address: token, Topics: []common.Hash{approvalTopic}, Index: 1, BlockHash: hash},
		{Address: token, Topics: []common.Hash{transferTopic}, Index: 2, BlockHash: hash, Removed: true},
		// approval is not watched on the second contract
		{Address: other, Topics: []common.Hash{approvalTopic}, Index: 4, BlockHash: hash},
	}

	client.EXPECT().GetBlockHeader(ctx, uint64(101)).Return(header, nil).Once()
	client.EXPECT().GetLogs(ctx, mock.MatchedBy(func(q ethereum.FilterQuery) bool {
		return q.BlockHash != nil && *q.BlockHash == hash && len(q.Addresses) == 2
	})).Return(logs, nil).Once()

	b, err := s.GetBlock(ctx, 101)
	require.NoError(t, err)

	require.Equal(t, uint64(101), b.Number())
	require.Equal(t, hash.Hex(), b.Hash())
	require.Equal(t, parent.Hex(), b.Info.PreviousBlockHash)
	require.Equal(t, int64(1700000101), b.Info.Timestamp.Unix())

	require.Len(t, b.Actions, 3)
	require.Equal(t, ActionType(token, "Transfer"), b.Actions[0].Type)
	require.Equal(t, ActionType(token, "Approval"), b.Actions[1].Type)
	require.Equal(t, ActionType(other, "Transfer"), b.Actions[2].Type)

	payload, ok := b.Actions[2].Payload.(types.Log)
	require.True(t, ok)
	require.Equal(t, uint(3), payload.Index)
}

func TestSource_GetBlockErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown block", func(t *testing.T) {
		s, client := setupTestSource(t, "finalized", 0)
		client.EXPECT().GetBlockHeader(ctx, uint64(500)).Return(nil, ethereum.NotFound).Once()

		_, err := s.GetBlock(ctx, 500)
		var notFound *BlockNotFoundError
		require.ErrorAs(t, err, &notFound)
		require.Equal(t, uint64(500), notFound.BlockNumber)
	})

	t.Run("logs request fails", func(t *testing.T) {
		s, client := setupTestSource(t, "finalized", 0)
		client.EXPECT().GetBlockHeader(ctx, uint64(5)).Return(createTestHeader(5, common.Hash{}), nil).Once()
		client.EXPECT().GetLogs(ctx, mock.Anything).Return(nil, errors.New("503 service unavailable")).Once()

		_, err := s.GetBlock(ctx, 5)
		require.ErrorContains(t, err, "failed to get logs of block 5")
	})
}
