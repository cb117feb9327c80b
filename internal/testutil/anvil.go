// Package testutil runs a local anvil node for tests that need a real EVM JSON-RPC endpoint.
package testutil

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"net"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/stretchr/testify/require"
)

const (
	// anvil default private key (first account)
	anvilPrivateKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

	readyTimeout = 10 * time.Second
)

// AnvilInstance manages an anvil node started for a single test.
type AnvilInstance struct {
	cmd     *exec.Cmd
	URL     string
	Client  *ethclient.Client
	Signer  *bind.TransactOpts
	ChainID *big.Int

	privateKey *ecdsa.PrivateKey
}

// SkipIfAnvilNotAvailable skips the test if anvil is not in PATH.
func SkipIfAnvilNotAvailable(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("anvil"); err != nil {
		t.Skip("anvil not found in PATH, skipping integration test")
	}
}

// StartAnvil starts anvil on a free port and stops it when the test ends.
// Without --block-time every transaction is mined in its own block.
func StartAnvil(t *testing.T) *AnvilInstance {
	t.Helper()

	port := freePort(t)
	url := fmt.Sprintf("http://127.0.0.1:%d", port)

	cmd := exec.Command("anvil", "--port", fmt.Sprintf("%d", port), "--silent")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	require.NoError(t, cmd.Start(), "failed to start anvil")

	instance := &AnvilInstance{cmd: cmd, URL: url}
	t.Cleanup(instance.Stop)

	client, err := ethclient.Dial(url)
	require.NoError(t, err, "failed to connect to anvil")
	instance.Client = client

	ctx, cancel := context.WithTimeout(t.Context(), readyTimeout)
	defer cancel()

	require.Eventually(t, func() bool {
		chainID, err := client.ChainID(ctx)
		if err != nil {
			return false
		}
		instance.ChainID = chainID
		return true
	}, readyTimeout, 100*time.Millisecond, "anvil did not become ready")

	instance.privateKey, err = crypto.HexToECDSA(anvilPrivateKey)
	require.NoError(t, err, "failed to parse private key")

	instance.Signer, err = bind.NewKeyedTransactorWithChainID(instance.privateKey, instance.ChainID)
	require.NoError(t, err, "failed to create signer")

	return instance
}

// Stop kills the anvil process.
func (a *AnvilInstance) Stop() {
	if a.Client != nil {
		a.Client.Close()
	}
	if a.cmd != nil && a.cmd.Process != nil {
		_ = a.cmd.Process.Kill()
		_ = a.cmd.Wait()
	}
}

// Snapshot records the current chain state. Reverting to it and sending different transactions
// produces an alternative chain at the same heights.
func (a *AnvilInstance) Snapshot(t *testing.T) string {
	t.Helper()

	var id string
	require.NoError(t, a.Client.Client().Call(&id, "evm_snapshot"), "failed to create snapshot")

	return id
}

// Revert rewinds the chain to the snapshot.
func (a *AnvilInstance) Revert(t *testing.T, id string) {
	t.Helper()

	var success bool
	require.NoError(t, a.Client.Client().Call(&success, "evm_revert", id), "failed to revert to snapshot")
	require.True(t, success, "snapshot revert returned false")
}

// Mine mines numBlocks empty blocks.
func (a *AnvilInstance) Mine(t *testing.T, numBlocks int) {
	t.Helper()

	for range numBlocks {
		var result string
		require.NoError(t, a.Client.Client().Call(&result, "evm_mine"), "failed to mine block")
	}
}

// BlockNumber returns the number of the latest block.
func (a *AnvilInstance) BlockNumber(t *testing.T) uint64 {
	t.Helper()

	n, err := a.Client.BlockNumber(t.Context())
	require.NoError(t, err, "failed to get block number")

	return n
}

func freePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err, "failed to get free port")
	defer listener.Close()

	return listener.Addr().(*net.TCPAddr).Port
}
