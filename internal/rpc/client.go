package rpc

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/goran-ethernal/ChainDemux/internal/logger"
	itypes "github.com/goran-ethernal/ChainDemux/internal/types"
	"github.com/goran-ethernal/ChainDemux/pkg/config"
	pkgrpc "github.com/goran-ethernal/ChainDemux/pkg/rpc"
)

var _ pkgrpc.EthClient = (*Client)(nil)

// headerReader is the subset of ethclient.Client used to fetch headers and logs.
type headerReader interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)
	Close()
}

// Client wraps the Ethereum RPC client with retries and request metrics.
// It implements the pkgrpc.EthClient interface.
type Client struct {
	eth   headerReader
	retry *config.RetryConfig
	log   *logger.Logger
}

// NewClient creates a new RPC client connected to the given endpoint.
// A nil retry config executes every request once.
func NewClient(ctx context.Context, endpoint string, retry *config.RetryConfig, log *logger.Logger) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	return newClient(ethclient.NewClient(rpcClient), retry, log), nil
}

func newClient(eth headerReader, retry *config.RetryConfig, log *logger.Logger) *Client {
	return &Client{
		eth:   eth,
		retry: retry,
		log:   log,
	}
}

// Close closes the RPC client connection.
func (c *Client) Close() {
	c.eth.Close()
}

// GetLogs retrieves logs matching the given filter query.
func (c *Client) GetLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	var logs []types.Log

	err := c.call(ctx, "eth_getLogs", func() error {
		var err error
		logs, err = c.eth.FilterLogs(ctx, query)
		return err
	})

	return logs, err
}

// GetBlockHeader retrieves the header for a specific block number.
func (c *Client) GetBlockHeader(ctx context.Context, blockNum uint64) (*types.Header, error) {
	return c.headerByNumber(ctx, new(big.Int).SetUint64(blockNum))
}

// GetLatestBlockHeader retrieves the latest block header.
func (c *Client) GetLatestBlockHeader(ctx context.Context) (*types.Header, error) {
	return c.headerByNumber(ctx, nil)
}

// GetFinalizedBlockHeader retrieves the finalized block header.
func (c *Client) GetFinalizedBlockHeader(ctx context.Context) (*types.Header, error) {
	return c.headerByNumber(ctx, itypes.FinalityFinalized.Tag())
}

// GetSafeBlockHeader retrieves the safe block header.
func (c *Client) GetSafeBlockHeader(ctx context.Context) (*types.Header, error) {
	return c.headerByNumber(ctx, itypes.FinalitySafe.Tag())
}

func (c *Client) headerByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	var header *types.Header

	err := c.call(ctx, "eth_getBlockByNumber", func() error {
		var err error
		header, err = c.eth.HeaderByNumber(ctx, number)
		return err
	})

	return header, err
}

// call runs fn with retries and records the request metrics for method.
func (c *Client) call(ctx context.Context, method string, fn func() error) error {
	start := time.Now()
	RPCMethodInc(method)

	err := retryWithBackoff(ctx, c.retry, method, fn)
	RPCMethodDuration(method, time.Since(start))

	if err != nil {
		RPCMethodError(method, errorType(err))
		c.log.Debugf("rpc request failed: method=%s error=%v", method, err)
	}

	return err
}

// errorType classifies err for the error metric label.
func errorType(err error) string {
	switch {
	case errors.Is(err, ethereum.NotFound):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "context"
	case retryableError(err):
		return "retryable"
	default:
		return "other"
	}
}
