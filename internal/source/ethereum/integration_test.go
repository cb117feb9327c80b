package ethereum_test

import (
	"context"
	"slices"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	internalhandler "github.com/goran-ethernal/ChainDemux/internal/handler"
	"github.com/goran-ethernal/ChainDemux/internal/logger"
	internalreader "github.com/goran-ethernal/ChainDemux/internal/reader"
	"github.com/goran-ethernal/ChainDemux/internal/rpc"
	"github.com/goran-ethernal/ChainDemux/internal/source/ethereum"
	"github.com/goran-ethernal/ChainDemux/internal/store/memory"
	"github.com/goran-ethernal/ChainDemux/internal/testutil"
	internalwatcher "github.com/goran-ethernal/ChainDemux/internal/watcher"
	"github.com/goran-ethernal/ChainDemux/pkg/block"
	"github.com/goran-ethernal/ChainDemux/pkg/config"
	"github.com/goran-ethernal/ChainDemux/pkg/handler"
	"github.com/stretchr/testify/require"
)

// emittedIDs is the application state: the ids of every indexed event in chain order.
type emittedIDs struct {
	ids []uint64
}

func cloneIDs(s *emittedIDs) *emittedIDs {
	return &emittedIDs{ids: slices.Clone(s.ids)}
}

type pipeline struct {
	store   *memory.Store[*emittedIDs]
	handler *internalhandler.Handler
	watcher *internalwatcher.Watcher
}

func newPipeline(t *testing.T, anvil *testutil.AnvilInstance, emitter *testutil.Emitter) *pipeline {
	t.Helper()

	ctx := context.Background()
	log := logger.NewNopLogger()

	client, err := rpc.NewClient(ctx, anvil.URL, &config.RetryConfig{MaxAttempts: 1}, log)
	require.NoError(t, err)

	source, err := ethereum.NewSource(client, config.SourceConfig{
		Finality:     "latest",
		FinalizedLag: 10,
		Contracts: []config.ContractConfig{
			{Address: emitter.Address.Hex(), Events: []string{testutil.EmitterEvent}},
		},
	}, log)
	require.NoError(t, err)
	t.Cleanup(source.Close)

	r, err := internalreader.NewReader(source, config.ReaderConfig{}, log)
	require.NoError(t, err)

	store := memory.NewStore(&emittedIDs{}, cloneIDs, log)

	versions := []handler.Version{
		{
			Name: "v1",
			Updaters: []handler.Updater{
				{
					ActionType: ethereum.ActionType(emitter.Address, "TestEvent"),
					Apply: func(_ context.Context, state any, payload any, _ block.Info, _ handler.BlockContext) (string, error) {
						l := payload.(types.Log)
						s := state.(*emittedIDs)
						s.ids = append(s.ids, l.Topics[1].Big().Uint64())
						return "", nil
					},
				},
			},
		},
	}

	h, err := internalhandler.NewHandler(versions, store, config.HandlerConfig{}, log)
	require.NoError(t, err)

	w, err := internalwatcher.NewWatcher(r, h, config.WatcherConfig{}, log)
	require.NoError(t, err)

	return &pipeline{store: store, handler: h, watcher: w}
}

func TestIntegration_ForkAgainstAnvil(t *testing.T) {
	testutil.SkipIfAnvilNotAvailable(t)

	ctx := context.Background()
	anvil := testutil.StartAnvil(t)

	emitter, err := anvil.DeployEmitter(ctx)
	require.NoError(t, err)

	_, err = emitter.Emit(ctx, 1, "canonical")
	require.NoError(t, err)

	forkPoint := anvil.Snapshot(t)

	_, err = emitter.Emit(ctx, 2, "stale")
	require.NoError(t, err)
	_, err = emitter.EmitMany(ctx, 3, 2, "stale")
	require.NoError(t, err)

	p := newPipeline(t, anvil, emitter)

	require.NoError(t, p.watcher.Watch(ctx, false))
	require.Equal(t, []uint64{1, 2, 3, 4}, p.store.State().ids)
	require.Equal(t, anvil.BlockNumber(t), p.handler.Info().LastProcessedBlockNumber)

	// the replacement branch is one block longer so the reader sees a new head
	anvil.Revert(t, forkPoint)

	_, err = emitter.EmitMany(ctx, 20, 3, "fork")
	require.NoError(t, err)
	_, err = emitter.Emit(ctx, 30, "fork")
	require.NoError(t, err)
	anvil.Mine(t, 1)

	require.NoError(t, p.watcher.Watch(ctx, false))
	require.Equal(t, []uint64{1, 20, 21, 22, 30}, p.store.State().ids)

	head := anvil.BlockNumber(t)
	info := p.handler.Info()
	require.Equal(t, head, info.LastProcessedBlockNumber)

	header, err := anvil.Client.HeaderByNumber(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, header.Hash().Hex(), info.LastProcessedBlockHash)
}
