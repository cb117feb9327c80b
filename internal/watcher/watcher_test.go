package watcher

import (
	"context"
	"errors"
	"maps"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goran-ethernal/ChainDemux/internal/common"
	internalhandler "github.com/goran-ethernal/ChainDemux/internal/handler"
	"github.com/goran-ethernal/ChainDemux/internal/logger"
	internalreader "github.com/goran-ethernal/ChainDemux/internal/reader"
	"github.com/goran-ethernal/ChainDemux/internal/source/fixture"
	"github.com/goran-ethernal/ChainDemux/internal/store/memory"
	"github.com/goran-ethernal/ChainDemux/pkg/block"
	"github.com/goran-ethernal/ChainDemux/pkg/config"
	"github.com/goran-ethernal/ChainDemux/pkg/handler"
	"github.com/goran-ethernal/ChainDemux/pkg/watcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type balances map[string]int

func transfer(amount int) block.Action {
	return block.Action{Type: "token::transfer", Payload: amount}
}

type testEnv struct {
	source  *fixture.Source
	store   *memory.Store[balances]
	reader  *internalreader.Reader
	handler *internalhandler.Handler
	watcher *Watcher
	effects atomic.Int64
}

func newTestEnv(t *testing.T, chain []*block.Block, irreversibleLag uint64, cfg config.WatcherConfig) *testEnv {
	t.Helper()

	cloneBalances := func(b balances) balances {
		return maps.Clone(b)
	}

	env := &testEnv{
		source: fixture.NewSource(chain, irreversibleLag, logger.NewNopLogger()),
		store:  memory.NewStore(balances{}, cloneBalances, logger.NewNopLogger()),
	}

	versions := []handler.Version{{
		Name: "v1",
		Updaters: []handler.Updater{{
			ActionType: "token::transfer",
			Apply: func(_ context.Context, state any, payload any, _ block.Info, _ handler.BlockContext) (string, error) {
				state.(balances)["total"] += payload.(int)
				return "", nil
			},
		}},
		Effects: []handler.Effect{{
			ActionType: "token::transfer",
			Run: func(context.Context, any, block.Info, handler.BlockContext) error {
				env.effects.Add(1)
				return nil
			},
		}},
	}}

	var err error
	env.reader, err = internalreader.NewReader(env.source, config.ReaderConfig{}, logger.NewNopLogger())
	require.NoError(t, err)

	env.handler, err = internalhandler.NewHandler(versions, env.store, config.HandlerConfig{}, logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = env.handler.Close(ctx)
	})

	env.watcher, err = NewWatcher(env.reader, env.handler, cfg, logger.NewNopLogger())
	require.NoError(t, err)

	return env
}

func testChain() []*block.Block {
	return []*block.Block{
		fixture.NewBlock(1, "h1", "h0", transfer(42)),
		fixture.NewBlock(2, "h2", "h1", transfer(24)),
		fixture.NewBlock(3, "h3", "h2"),
		fixture.NewBlock(4, "h4", "h3"),
	}
}

func TestNewWatcher_Validation(t *testing.T) {
	env := newTestEnv(t, testChain(), 0, config.WatcherConfig{})

	_, err := NewWatcher(nil, env.handler, config.WatcherConfig{}, logger.NewNopLogger())
	require.ErrorContains(t, err, "reader is required")

	_, err = NewWatcher(env.reader, nil, config.WatcherConfig{}, logger.NewNopLogger())
	require.ErrorContains(t, err, "handler is required")

	_, err = NewWatcher(env.reader, env.handler, config.WatcherConfig{}, nil)
	require.ErrorContains(t, err, "logger is required")

	require.Equal(t, watcher.StatusInitial, env.watcher.Info().Watcher.IndexingStatus)
}

func TestWatcher_Watch(t *testing.T) {
	env := newTestEnv(t, testChain(), 0, config.WatcherConfig{})

	require.NoError(t, env.watcher.Watch(context.Background(), false))
	require.NoError(t, env.handler.WaitForEffects())

	require.Equal(t, 66, env.store.State()["total"])
	require.Equal(t, int64(2), env.effects.Load())

	info := env.watcher.Info()
	require.Equal(t, uint64(4), info.Reader.CurrentBlockNumber)
	require.Equal(t, uint64(4), info.Reader.HeadBlockNumber)
	require.Equal(t, uint64(4), info.Handler.LastProcessedBlockNumber)
	require.Equal(t, "h4", info.Handler.LastProcessedBlockHash)
	require.Positive(t, info.Watcher.CurrentBlockVelocity)
	require.Positive(t, info.Watcher.CurrentBlockInterval)
	require.GreaterOrEqual(t, info.Watcher.MaxBlockVelocity, info.Watcher.CurrentBlockVelocity)
	require.Empty(t, info.Watcher.Error)
	require.Equal(t, watcher.StatusIndexing, info.Watcher.IndexingStatus, "a pass without Run still reports indexing")

	// nothing new at the head
	require.NoError(t, env.watcher.Watch(context.Background(), false))
	require.Equal(t, 66, env.store.State()["total"])
}

func TestWatcher_Replay(t *testing.T) {
	env := newTestEnv(t, testChain(), 0, config.WatcherConfig{})

	require.NoError(t, env.watcher.Watch(context.Background(), true))
	require.NoError(t, env.handler.WaitForEffects())

	require.Equal(t, 66, env.store.State()["total"])
	require.Zero(t, env.effects.Load())

	env.source.SetBlockchain(append(testChain(), fixture.NewBlock(5, "h5", "h4", transfer(1))))

	require.NoError(t, env.watcher.Watch(context.Background(), false))
	require.NoError(t, env.handler.WaitForEffects())

	require.Equal(t, 67, env.store.State()["total"])
	require.Equal(t, int64(1), env.effects.Load())
}

func TestWatcher_Fork(t *testing.T) {
	env := newTestEnv(t, testChain(), 3, config.WatcherConfig{})
	require.NoError(t, env.watcher.Watch(context.Background(), false))
	require.Equal(t, 66, env.store.State()["total"])

	env.source.SetBlockchain([]*block.Block{
		fixture.NewBlock(1, "h1", "h0", transfer(42)),
		fixture.NewBlock(2, "h2", "h1", transfer(24)),
		fixture.NewBlock(3, "foo", "h2", transfer(100)),
		fixture.NewBlock(4, "wrench", "foo"),
		fixture.NewBlock(5, "madeit", "wrench", transfer(1000)),
	})

	require.NoError(t, env.watcher.Watch(context.Background(), false))

	require.Equal(t, 1166, env.store.State()["total"])

	info := env.watcher.Info()
	require.Equal(t, uint64(5), info.Handler.LastProcessedBlockNumber)
	require.Equal(t, "madeit", info.Handler.LastProcessedBlockHash)
}

func TestWatcher_SeeksToLastProcessedBlock(t *testing.T) {
	env := newTestEnv(t, testChain(), 0, config.WatcherConfig{})
	require.NoError(t, env.watcher.Watch(context.Background(), false))

	env.source.SetBlockchain(append(testChain(), fixture.NewBlock(5, "h5", "h4", transfer(7))))

	// a fresh reader starts again at block 1 while the handler is already at block 4
	r, err := internalreader.NewReader(env.source, config.ReaderConfig{}, logger.NewNopLogger())
	require.NoError(t, err)

	w, err := NewWatcher(r, env.handler, config.WatcherConfig{}, logger.NewNopLogger())
	require.NoError(t, err)

	require.NoError(t, w.Watch(context.Background(), false))

	require.Equal(t, 73, env.store.State()["total"])
	require.Equal(t, uint64(5), w.Info().Handler.LastProcessedBlockNumber)
	require.Equal(t, uint64(5), w.Info().Reader.CurrentBlockNumber)
}

func TestWatcher_StartPause(t *testing.T) {
	env := newTestEnv(t, testChain(), 0, config.WatcherConfig{})
	w := env.watcher

	require.False(t, w.Pause())
	require.True(t, w.Start())
	require.False(t, w.Start())
	require.Equal(t, watcher.StatusIndexing, w.Info().Watcher.IndexingStatus)

	require.True(t, w.Pause())
	require.False(t, w.Pause())
	require.Equal(t, watcher.StatusPausing, w.Info().Watcher.IndexingStatus)

	// a pause requested before the pass prevents any block from being read
	require.NoError(t, w.Watch(context.Background(), false))
	require.Zero(t, w.Info().Handler.LastProcessedBlockNumber)

	require.True(t, w.Start())
	require.NoError(t, w.Watch(context.Background(), false))
	require.Equal(t, uint64(4), w.Info().Handler.LastProcessedBlockNumber)
}

func TestWatcher_Run(t *testing.T) {
	env := newTestEnv(t, testChain(), 0, config.WatcherConfig{PollInterval: common.NewDuration(10 * time.Millisecond)})
	w := env.watcher

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, w.Run(ctx))
	}()

	require.Eventually(t, func() bool {
		return w.Info().Handler.LastProcessedBlockNumber == 4
	}, time.Second, 5*time.Millisecond)

	require.True(t, w.Pause())
	require.Eventually(t, func() bool {
		return w.Info().Watcher.IndexingStatus == watcher.StatusPaused
	}, time.Second, 5*time.Millisecond)

	env.source.SetBlockchain(append(testChain(), fixture.NewBlock(5, "h5", "h4", transfer(1))))

	// paused watcher does not pick up new blocks
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, uint64(4), w.Info().Handler.LastProcessedBlockNumber)

	require.True(t, w.Start())
	require.Eventually(t, func() bool {
		return w.Info().Handler.LastProcessedBlockNumber == 5
	}, time.Second, 5*time.Millisecond)

	cancel()
	wg.Wait()

	require.Equal(t, watcher.StatusStopped, w.Info().Watcher.IndexingStatus)
	require.Equal(t, 67, env.store.State()["total"])
}

// failingHandler fails every block until it is healed.
type failingHandler struct {
	handler.Handler
	fail atomic.Bool
}

func (f *failingHandler) HandleBlock(ctx context.Context, next *block.NextBlock, isReplay bool) (uint64, error) {
	if f.fail.Load() {
		return 0, errors.New("state store unavailable")
	}

	return f.Handler.HandleBlock(ctx, next, isReplay)
}

func TestWatcher_ErrorStopsIndexing(t *testing.T) {
	env := newTestEnv(t, testChain(), 0, config.WatcherConfig{})

	failing := &failingHandler{Handler: env.handler}
	failing.fail.Store(true)

	w, err := NewWatcher(env.reader, failing, config.WatcherConfig{}, logger.NewNopLogger())
	require.NoError(t, err)
	require.True(t, w.Start())

	err = w.Watch(context.Background(), false)
	require.ErrorContains(t, err, "state store unavailable")

	info := w.Info()
	require.Equal(t, watcher.StatusStopped, info.Watcher.IndexingStatus)
	require.Equal(t, "failed to handle block 1: state store unavailable", info.Watcher.Error)
	require.False(t, w.Pause())

	// the reader already delivered block 1, the handler asks for it again
	failing.fail.Store(false)
	require.True(t, w.Start())
	require.NoError(t, w.Watch(context.Background(), false))

	info = w.Info()
	require.Empty(t, info.Watcher.Error)
	require.Equal(t, uint64(4), info.Handler.LastProcessedBlockNumber)
	require.Equal(t, 66, env.store.State()["total"])
}

func TestWatcher_UpdaterErrorRecovers(t *testing.T) {
	src := fixture.NewSource(testChain(), 0, logger.NewNopLogger())
	store := memory.NewStore(balances{}, func(b balances) balances { return maps.Clone(b) }, logger.NewNopLogger())

	var diskFull atomic.Bool
	diskFull.Store(true)

	versions := []handler.Version{{
		Name: "v1",
		Updaters: []handler.Updater{{
			ActionType: "token::transfer",
			Apply: func(_ context.Context, state any, payload any, info block.Info, _ handler.BlockContext) (string, error) {
				if info.BlockNumber == 2 && diskFull.Load() {
					return "", errors.New("disk full")
				}
				state.(balances)["total"] += payload.(int)
				return "", nil
			},
		}},
	}}

	r, err := internalreader.NewReader(src, config.ReaderConfig{}, logger.NewNopLogger())
	require.NoError(t, err)
	h, err := internalhandler.NewHandler(versions, store, config.HandlerConfig{}, logger.NewNopLogger())
	require.NoError(t, err)
	w, err := NewWatcher(r, h, config.WatcherConfig{}, logger.NewNopLogger())
	require.NoError(t, err)

	require.Error(t, w.Watch(context.Background(), false))

	info := w.Info()
	require.Equal(t, watcher.StatusStopped, info.Watcher.IndexingStatus)
	require.Equal(t, "failed to handle block 2: updater for action token::transfer failed: disk full", info.Watcher.Error)
	require.Equal(t, 42, store.State()["total"], "the failed block left no partial state")

	// a direct pass that succeeds clears the error and resumes without Start
	diskFull.Store(false)
	require.NoError(t, w.Watch(context.Background(), false))

	info = w.Info()
	require.Empty(t, info.Watcher.Error)
	require.Equal(t, watcher.StatusIndexing, info.Watcher.IndexingStatus)
	require.Equal(t, uint64(4), info.Handler.LastProcessedBlockNumber)
	require.Equal(t, 66, store.State()["total"])
}

func TestWatcher_CanceledContext(t *testing.T) {
	env := newTestEnv(t, testChain(), 0, config.WatcherConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, env.watcher.Watch(ctx, false), context.Canceled)
	require.Empty(t, env.watcher.Info().Watcher.Error)
}

func TestVelocityWindow(t *testing.T) {
	v := newVelocityWindow(2)

	velocity, interval, maxVelocity := v.current()
	require.Zero(t, velocity)
	require.Zero(t, interval)
	require.Zero(t, maxVelocity)

	require.InDelta(t, 10.0, v.record(100*time.Millisecond), 1e-9)
	require.InDelta(t, 5.0, v.record(300*time.Millisecond), 1e-9)
	// the first interval leaves the window
	require.InDelta(t, 2.5, v.record(500*time.Millisecond), 1e-9)

	velocity, interval, maxVelocity = v.current()
	require.InDelta(t, 2.5, velocity, 1e-9)
	require.InDelta(t, 0.4, interval, 1e-9)
	require.InDelta(t, 10.0, maxVelocity, 1e-9)
}
