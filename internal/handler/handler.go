package handler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/goran-ethernal/ChainDemux/internal/common"
	"github.com/goran-ethernal/ChainDemux/internal/logger"
	"github.com/goran-ethernal/ChainDemux/internal/metrics"
	"github.com/goran-ethernal/ChainDemux/pkg/block"
	"github.com/goran-ethernal/ChainDemux/pkg/config"
	"github.com/goran-ethernal/ChainDemux/pkg/handler"
)

var _ handler.Handler = (*Handler)(nil)

// Option customizes a Handler.
type Option func(*Handler)

// WithActionMatcher overrides the configured action matcher.
func WithActionMatcher(m handler.ActionMatcher) Option {
	return func(h *Handler) {
		if m != nil {
			h.matcher = m
		}
	}
}

// versionedAction is an action tagged with the handler version active after its updaters ran.
type versionedAction struct {
	action      block.Action
	versionName string
}

// Handler applies blocks to application state through versioned updaters and schedules effects.
// Initialize and HandleBlock must be called from a single goroutine; Info is safe for concurrent use.
type Handler struct {
	store   handler.StateStore
	log     *logger.Logger
	matcher handler.ActionMatcher

	versions        map[string]handler.Version
	startingVersion string
	effectRunMode   handler.EffectRunMode

	lastProcessedBlockNumber uint64
	lastProcessedBlockHash   string
	handlerVersionName       string
	initialized              bool

	deferred deferredEffects
	effects  *effectTracker

	info atomic.Pointer[handler.Info]
}

// NewHandler creates a Handler for the given versions backed by store.
func NewHandler(
	versions []handler.Version,
	store handler.StateStore,
	cfg config.HandlerConfig,
	log *logger.Logger,
	opts ...Option,
) (*Handler, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}

	if log == nil {
		return nil, errors.New("logger is required")
	}

	if len(versions) == 0 {
		return nil, ErrMissingHandlerVersion
	}

	cfg.ApplyDefaults()

	if cfg.MaxEffectErrors < 1 {
		return nil, fmt.Errorf("max effect errors must be positive, got %d", cfg.MaxEffectErrors)
	}

	runMode, err := handler.ParseEffectRunMode(cfg.EffectRunMode)
	if err != nil {
		return nil, err
	}

	matcher, err := handler.ParseActionMatcher(cfg.ActionMatcher)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]handler.Version, len(versions))
	for _, v := range versions {
		if _, exists := byName[v.Name]; exists {
			return nil, &DuplicateHandlerVersionError{VersionName: v.Name}
		}
		byName[v.Name] = v
	}

	startingVersion := cfg.StartingVersion
	if _, ok := byName[startingVersion]; !ok {
		log.Warnf("no handler version named %q was found, starting with first version %q",
			startingVersion, versions[0].Name)
		startingVersion = versions[0].Name
	} else if versions[0].Name != startingVersion {
		log.Warnf("first handler version is %q but %q is present and will be used even though it is not first",
			versions[0].Name, startingVersion)
	}

	h := &Handler{
		store:              store,
		log:                log,
		matcher:            matcher,
		versions:           byName,
		startingVersion:    startingVersion,
		effectRunMode:      runMode,
		handlerVersionName: startingVersion,
		effects:            newEffectTracker(cfg.MaxEffectErrors, log.WithComponent(common.ComponentEffects)),
	}

	for _, opt := range opts {
		opt(h)
	}

	h.publishInfo()

	return h, nil
}

// Initialize prepares the state store and loads the persisted index state.
func (h *Handler) Initialize(ctx context.Context) error {
	if h.initialized {
		return nil
	}

	if err := h.store.Setup(ctx); err != nil {
		return fmt.Errorf("failed to set up state store: %w", err)
	}

	if err := h.refreshIndexState(ctx); err != nil {
		return err
	}

	h.initialized = true
	metrics.ComponentHealthSet(common.ComponentHandler, true)

	return nil
}

// HandleBlock processes next and returns the block number the reader must seek to, or 0.
func (h *Handler) HandleBlock(ctx context.Context, next *block.NextBlock, isReplay bool) (uint64, error) {
	if next == nil || next.Block == nil {
		return 0, errors.New("next block is required")
	}

	if err := h.Initialize(ctx); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrNotInitialized, err)
	}

	start := time.Now()
	b := next.Block

	if next.Meta.IsRollback || (isReplay && next.Meta.IsEarliestBlock) {
		var target uint64
		if b.Number() > 0 {
			target = b.Number() - 1
		}

		if err := h.rollbackTo(ctx, target); err != nil {
			return 0, err
		}
	} else if h.lastProcessedBlockNumber == 0 && h.lastProcessedBlockHash == block.EmptyHash {
		if err := h.refreshIndexState(ctx); err != nil {
			return 0, err
		}
	}

	if b.Number() == h.lastProcessedBlockNumber && b.Hash() == h.lastProcessedBlockHash {
		h.log.Debugf("block %d (%s) was already handled, skipping", b.Number(), b.Hash())
		return 0, nil
	}

	isEarliest := next.Meta.IsEarliestBlock
	nextBlockNeeded := h.lastProcessedBlockNumber + 1

	// an earliest block right after a known position is a plain continuation
	if isEarliest && h.lastProcessedBlockHash != block.EmptyHash {
		if b.Number() != nextBlockNeeded {
			h.log.Infof("starting block %d does not follow last processed block %d, seeking to %d",
				b.Number(), h.lastProcessedBlockNumber, nextBlockNeeded)
			return nextBlockNeeded, nil
		}
		isEarliest = false
	}

	if !isEarliest {
		if b.Number() != nextBlockNeeded {
			h.log.Infof("got block %d but expected %d, seeking", b.Number(), nextBlockNeeded)
			return nextBlockNeeded, nil
		}

		if b.Info.PreviousBlockHash != h.lastProcessedBlockHash {
			return 0, &MismatchedBlockHashError{
				BlockNumber:          b.Number(),
				PreviousBlockHash:    b.Info.PreviousBlockHash,
				LastProcessedBlockNo: h.lastProcessedBlockNumber,
				LastProcessedHash:    h.lastProcessedBlockHash,
			}
		}
	}

	var (
		handled []versionedAction
		bctx    handler.BlockContext
	)

	err := h.store.HandleWithState(ctx, func(state any, blockCtx handler.BlockContext) error {
		if blockCtx == nil {
			blockCtx = handler.BlockContext{}
		}
		bctx = blockCtx

		actions, err := h.applyUpdaters(ctx, state, next, isReplay, bctx)
		if err != nil {
			return err
		}
		handled = actions

		return h.store.UpdateIndexState(ctx, state, next, isReplay, h.handlerVersionName, bctx)
	})
	if err != nil {
		// position and version are reloaded from the store on the next call
		h.lastProcessedBlockNumber = 0
		h.lastProcessedBlockHash = block.EmptyHash
		h.publishInfo()

		return 0, err
	}

	h.lastProcessedBlockNumber = b.Number()
	h.lastProcessedBlockHash = b.Hash()

	if !isReplay {
		h.runEffects(handled, next, bctx)
	}

	h.publishInfo()
	metrics.BlockHandledLog(b.Number(), len(b.Actions), isReplay)
	metrics.BlockProcessingTimeLog(time.Since(start))

	return 0, nil
}

// Info returns a snapshot of the handler state.
func (h *Handler) Info() handler.Info {
	info := *h.info.Load()
	info.NumberOfRunningEffects = h.effects.runningCount()
	info.EffectErrors = h.effects.errorLog()

	return info
}

// WaitForEffects blocks until every started effect settled and returns the failures since the last call.
func (h *Handler) WaitForEffects() error {
	return h.effects.wait()
}

// Close cancels running effects and waits for them to return.
func (h *Handler) Close(ctx context.Context) error {
	metrics.ComponentHealthSet(common.ComponentHandler, false)
	return h.effects.close(ctx)
}

func (h *Handler) applyUpdaters(
	ctx context.Context,
	state any,
	next *block.NextBlock,
	isReplay bool,
	bctx handler.BlockContext,
) ([]versionedAction, error) {
	b := next.Block
	handled := make([]versionedAction, 0, len(b.Actions))

	for _, action := range b.Actions {
		version := h.versions[h.handlerVersionName]

		for i, updater := range version.Updaters {
			if !h.matcher(action.Type, updater.ActionType) {
				continue
			}

			newVersion, err := updater.Apply(ctx, state, action.Payload, b.Info, bctx)
			if err != nil {
				return nil, fmt.Errorf("updater for action %s failed: %w", action.Type, err)
			}

			if newVersion == "" {
				continue
			}

			if _, ok := h.versions[newVersion]; !ok {
				h.log.Warnf("updater for action %s requested unknown handler version %q, continuing as %q",
					action.Type, newVersion, h.handlerVersionName)
				continue
			}

			if err := h.store.UpdateIndexState(ctx, state, next, isReplay, newVersion, bctx); err != nil {
				return nil, fmt.Errorf("failed to persist handler version %s: %w", newVersion, err)
			}

			h.log.Infof("block %d: switched handler version from %q to %q",
				b.Number(), h.handlerVersionName, newVersion)
			h.handlerVersionName = newVersion
			metrics.HandlerVersionSwitchInc(newVersion)

			if skipped := len(version.Updaters) - i - 1; skipped > 0 {
				h.log.Warnf("skipped %d remaining updaters of the previous version for action %s",
					skipped, action.Type)
			}

			break
		}

		handled = append(handled, versionedAction{action: action, versionName: h.handlerVersionName})
	}

	return handled, nil
}

func (h *Handler) runEffects(handled []versionedAction, next *block.NextBlock, bctx handler.BlockContext) {
	lib := next.LastIrreversibleBlockNumber

	if released := h.deferred.releaseUpTo(lib); len(released) > 0 {
		h.log.Debugf("running %d deferred effects up to irreversible block %d", len(released), lib)
		for _, p := range released {
			h.effects.run(p)
		}
	}

	b := next.Block
	for _, va := range handled {
		version := h.versions[va.versionName]

		for _, effect := range version.Effects {
			if !h.matcher(va.action.Type, effect.ActionType) {
				continue
			}

			if !h.effectRunMode.Allows(effect.DeferUntilIrreversible) {
				continue
			}

			p := pendingEffect{
				effect:      effect,
				action:      va.action,
				info:        b.Info,
				versionName: va.versionName,
				bctx:        bctx,
			}

			if effect.DeferUntilIrreversible && b.Number() > lib {
				h.deferred.add(b.Number(), p)
				metrics.EffectsInc(metrics.EffectDeferred, 1)
				continue
			}

			h.effects.run(p)
		}
	}
}

func (h *Handler) rollbackTo(ctx context.Context, blockNumber uint64) error {
	h.log.Infof("rolling back state to block %d", blockNumber)

	if err := h.store.RollbackTo(ctx, blockNumber); err != nil {
		return fmt.Errorf("failed to roll back state to block %d: %w", blockNumber, err)
	}

	if discarded := h.deferred.discardAbove(blockNumber); discarded > 0 {
		h.log.Infof("discarded %d deferred effects above block %d", discarded, blockNumber)
		metrics.EffectsInc(metrics.EffectDiscarded, discarded)
	}

	metrics.RollbackInc()

	return h.refreshIndexState(ctx)
}

func (h *Handler) refreshIndexState(ctx context.Context) error {
	state, err := h.store.LoadIndexState(ctx)
	if err != nil {
		return fmt.Errorf("failed to load index state: %w", err)
	}

	h.lastProcessedBlockNumber = state.BlockNumber
	h.lastProcessedBlockHash = state.BlockHash

	switch _, known := h.versions[state.HandlerVersionName]; {
	case state.HandlerVersionName == "":
		h.handlerVersionName = h.startingVersion
	case known:
		h.handlerVersionName = state.HandlerVersionName
	default:
		h.log.Warnf("persisted handler version %q does not exist, continuing as %q",
			state.HandlerVersionName, h.startingVersion)
		h.handlerVersionName = h.startingVersion
	}

	h.publishInfo()

	return nil
}

func (h *Handler) publishInfo() {
	h.info.Store(&handler.Info{
		LastProcessedBlockNumber: h.lastProcessedBlockNumber,
		LastProcessedBlockHash:   h.lastProcessedBlockHash,
		HandlerVersionName:       h.handlerVersionName,
		EffectRunMode:            h.effectRunMode,
		NumberOfDeferredEffects:  h.deferred.len(),
	})
}
