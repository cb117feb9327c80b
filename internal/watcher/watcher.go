package watcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goran-ethernal/ChainDemux/internal/common"
	"github.com/goran-ethernal/ChainDemux/internal/logger"
	"github.com/goran-ethernal/ChainDemux/internal/metrics"
	"github.com/goran-ethernal/ChainDemux/pkg/config"
	"github.com/goran-ethernal/ChainDemux/pkg/handler"
	"github.com/goran-ethernal/ChainDemux/pkg/reader"
	"github.com/goran-ethernal/ChainDemux/pkg/watcher"
)

var _ watcher.Controller = (*Watcher)(nil)

// Watcher drives a Reader and a Handler in a poll loop.
// Start, Pause and Info may be called from any goroutine.
type Watcher struct {
	reader  reader.Reader
	handler handler.Handler
	log     *logger.Logger

	pollInterval time.Duration
	replay       bool
	velocity     *velocityWindow

	mu          sync.Mutex
	status      watcher.IndexingStatus
	shouldPause bool
	lastErr     error

	// wake interrupts the loop when Start or Pause change the status
	wake chan struct{}
}

// NewWatcher creates a Watcher. Indexing begins when Run is called.
func NewWatcher(r reader.Reader, h handler.Handler, cfg config.WatcherConfig, log *logger.Logger) (*Watcher, error) {
	if r == nil {
		return nil, errors.New("reader is required")
	}

	if h == nil {
		return nil, errors.New("handler is required")
	}

	if log == nil {
		return nil, errors.New("logger is required")
	}

	cfg.ApplyDefaults()

	w := &Watcher{
		reader:       r,
		handler:      h,
		log:          log,
		pollInterval: cfg.PollInterval.Duration,
		replay:       cfg.Replay,
		velocity:     newVelocityWindow(cfg.VelocityWindow),
		status:       watcher.StatusInitial,
		wake:         make(chan struct{}, 1),
	}
	statusLog(w.status)

	return w, nil
}

// Run starts indexing and keeps polling for blocks until ctx is done.
// A fatal error stops indexing but not Run; Start resumes it.
func (w *Watcher) Run(ctx context.Context) error {
	w.Start()

	isReplay := w.replay
	if isReplay {
		w.log.Info("replaying blocks without running effects until the head is reached")
	}

	for {
		if !w.awaitIndexing(ctx) {
			w.setStatus(watcher.StatusStopped)
			return nil
		}

		start := time.Now()
		if err := w.Watch(ctx, isReplay); err == nil && !w.pauseRequested() {
			isReplay = false
		}

		if ctx.Err() != nil {
			w.setStatus(watcher.StatusStopped)
			return nil
		}

		w.sleep(ctx, w.pollInterval-time.Since(start))
	}
}

// Watch runs a single pass over the blocks available up to the head.
// A failure flips the status to stopped and is kept as the last error. A successful pass clears
// the error and marks an initial or stopped watcher as indexing; a requested pause is left alone.
func (w *Watcher) Watch(ctx context.Context, isReplay bool) error {
	err := w.checkForBlocks(ctx, isReplay)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return err
		}

		w.log.Errorw("indexing stopped", "error", err)
		metrics.ErrorsInc(common.ComponentWatcher, "fatal")

		w.lastErr = err
		w.shouldPause = false
		w.setStatusLocked(watcher.StatusStopped)

		return err
	}

	w.lastErr = nil
	if w.status == watcher.StatusInitial || w.status == watcher.StatusStopped {
		w.setStatusLocked(watcher.StatusIndexing)
	}

	return nil
}

// Start resumes indexing. It returns false if the watcher is already indexing.
func (w *Watcher) Start() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.status == watcher.StatusIndexing {
		return false
	}

	w.log.Info("starting indexing")

	w.shouldPause = false
	w.setStatusLocked(watcher.StatusIndexing)
	w.signal()

	return true
}

// Pause stops indexing once the in-flight block is handled. It returns false if the watcher is not indexing.
func (w *Watcher) Pause() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.status != watcher.StatusIndexing {
		return false
	}

	w.log.Info("pausing indexing")

	w.shouldPause = true
	w.setStatusLocked(watcher.StatusPausing)
	w.signal()

	return true
}

// Info returns the aggregated reader, handler and watcher status.
func (w *Watcher) Info() watcher.Info {
	velocity, interval, maxVelocity := w.velocity.current()

	w.mu.Lock()
	status := watcher.Status{
		IndexingStatus:       w.status,
		CurrentBlockVelocity: velocity,
		CurrentBlockInterval: interval,
		MaxBlockVelocity:     maxVelocity,
	}
	if w.lastErr != nil {
		status.Error = w.lastErr.Error()
	}
	w.mu.Unlock()

	return watcher.Info{
		Reader:  w.reader.Info(),
		Handler: w.handler.Info(),
		Watcher: status,
	}
}

func (w *Watcher) checkForBlocks(ctx context.Context, isReplay bool) error {
	var headBlockNumber uint64

	for headBlockNumber == 0 || w.reader.Info().CurrentBlockNumber < headBlockNumber {
		if w.pauseRequested() {
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()

		next, err := w.reader.GetNextBlock(ctx)
		if err != nil {
			return fmt.Errorf("failed to get next block: %w", err)
		}

		if !next.Meta.IsNewBlock {
			return nil
		}

		seekTo, err := w.handler.HandleBlock(ctx, next, isReplay)
		if err != nil {
			return fmt.Errorf("failed to handle block %d: %w", next.Block.Number(), err)
		}

		if seekTo > 0 {
			if err := w.reader.SeekToBlock(ctx, seekTo); err != nil {
				return fmt.Errorf("failed to seek to block %d: %w", seekTo, err)
			}
		}

		velocity := w.velocity.record(time.Since(start))
		metrics.BlockVelocityLog(velocity)

		headBlockNumber = w.reader.Info().HeadBlockNumber
	}

	return nil
}

// awaitIndexing blocks while the watcher is not indexing. It returns false once ctx is done.
func (w *Watcher) awaitIndexing(ctx context.Context) bool {
	for {
		w.mu.Lock()
		if w.shouldPause {
			w.shouldPause = false
			w.setStatusLocked(watcher.StatusPaused)
			w.log.Info("indexing paused")
		}
		indexing := w.status == watcher.StatusIndexing
		w.mu.Unlock()

		if indexing {
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-w.wake:
		}
	}
}

func (w *Watcher) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	case <-w.wake:
	}
}

func (w *Watcher) pauseRequested() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.shouldPause
}

// signal wakes the loop without blocking.
func (w *Watcher) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Watcher) setStatus(status watcher.IndexingStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.setStatusLocked(status)
}

func (w *Watcher) setStatusLocked(status watcher.IndexingStatus) {
	w.status = status
	statusLog(status)
}
