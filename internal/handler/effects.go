package handler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goran-ethernal/ChainDemux/internal/logger"
	"github.com/goran-ethernal/ChainDemux/internal/metrics"
	"github.com/goran-ethernal/ChainDemux/pkg/handler"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

type runningEffect struct {
	blockNumber uint64
	actionType  string
}

// effectTracker runs effects in the background and records their outcome.
// Effects run under the tracker's own context so they outlive the handler loop pass that started them.
type effectTracker struct {
	log *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group

	mu      sync.Mutex
	nextID  uint64
	running map[uint64]*runningEffect
	errors  errorRing
	failed  *multierror.Error
}

func newEffectTracker(maxErrors int, log *logger.Logger) *effectTracker {
	ctx, cancel := context.WithCancel(context.Background())

	return &effectTracker{
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
		running: make(map[uint64]*runningEffect),
		errors:  newErrorRing(maxErrors),
	}
}

// run starts effect in the background.
func (t *effectTracker) run(p pendingEffect) {
	t.mu.Lock()
	t.nextID++
	id := t.nextID
	t.running[id] = &runningEffect{
		blockNumber: p.info.BlockNumber,
		actionType:  p.action.Type,
	}
	metrics.RunningEffectsSet(len(t.running))
	t.mu.Unlock()

	metrics.EffectsInc(metrics.EffectStarted, 1)

	t.group.Go(func() error {
		err := t.execute(p)
		t.finish(id, p, err)

		return nil
	})
}

func (t *effectTracker) execute(p pendingEffect) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("effect panicked: %v", r)
		}
	}()

	return p.effect.Run(t.ctx, p.action.Payload, p.info, p.bctx)
}

func (t *effectTracker) finish(id uint64, p pendingEffect, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.running, id)
	metrics.RunningEffectsSet(len(t.running))

	if err == nil {
		metrics.EffectsInc(metrics.EffectSucceeded, 1)
		return
	}

	metrics.EffectsInc(metrics.EffectFailed, 1)
	t.log.Errorw("effect failed",
		"block", p.info.BlockNumber,
		"action", p.action.Type,
		"version", p.versionName,
		"error", err,
	)

	t.errors.push(handler.EffectError{
		BlockNumber:        p.info.BlockNumber,
		BlockHash:          p.info.BlockHash,
		ActionType:         p.action.Type,
		HandlerVersionName: p.versionName,
		Error:              err.Error(),
		Time:               time.Now().UTC(),
	})
	t.failed = multierror.Append(t.failed,
		fmt.Errorf("effect for %s at block %d: %w", p.action.Type, p.info.BlockNumber, err))
}

// runningCount returns the number of effects that have not settled yet.
func (t *effectTracker) runningCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.running)
}

// errorLog returns the retained effect errors, oldest first.
func (t *effectTracker) errorLog() []handler.EffectError {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.errors.list()
}

// wait blocks until every started effect settled and returns the failures collected since the last wait.
func (t *effectTracker) wait() error {
	_ = t.group.Wait()

	t.mu.Lock()
	defer t.mu.Unlock()

	failed := t.failed
	t.failed = nil

	return failed.ErrorOrNil()
}

// close cancels running effects and waits for them, up to ctx's deadline.
func (t *effectTracker) close(ctx context.Context) error {
	t.cancel()

	done := make(chan error, 1)
	go func() {
		done <- t.wait()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("effects did not stop: %w", ctx.Err())
	}
}

// errorRing keeps the most recent effect errors.
type errorRing struct {
	buf   []handler.EffectError
	start int
	size  int
}

func newErrorRing(capacity int) errorRing {
	return errorRing{buf: make([]handler.EffectError, capacity)}
}

func (r *errorRing) push(e handler.EffectError) {
	if len(r.buf) == 0 {
		return
	}

	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = e
		r.size++
		return
	}

	r.buf[r.start] = e
	r.start = (r.start + 1) % len(r.buf)
}

func (r *errorRing) list() []handler.EffectError {
	out := make([]handler.EffectError, r.size)
	for i := range r.size {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}

	return out
}
