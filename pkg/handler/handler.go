package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goran-ethernal/ChainDemux/internal/common"
	"github.com/goran-ethernal/ChainDemux/pkg/block"
)

// DefaultVersionName is the handler version the engine starts with by convention.
const DefaultVersionName = "v1"

// BlockContext is scratch space shared by the updaters and effects of a single block.
type BlockContext map[string]any

// ApplyFunc deterministically folds an action payload into the application state.
// Returning a non-empty version name requests a switch to that handler version.
type ApplyFunc func(
	ctx context.Context, state any, payload any, info block.Info, bctx BlockContext,
) (string, error)

// RunFunc performs a non-deterministic side effect for an action. It must not mutate state.
type RunFunc func(ctx context.Context, payload any, info block.Info, bctx BlockContext) error

// Updater binds an ApplyFunc to an action type.
type Updater struct {
	ActionType string
	Apply      ApplyFunc
}

// Effect binds a RunFunc to an action type.
// Effects with DeferUntilIrreversible run only once their block is irreversible.
type Effect struct {
	ActionType             string
	Run                    RunFunc
	DeferUntilIrreversible bool
}

// Version is a named bundle of updaters and effects.
type Version struct {
	Name     string
	Updaters []Updater
	Effects  []Effect
}

// IndexState is the durable checkpoint owned by the state store.
type IndexState struct {
	BlockNumber        uint64 `json:"blockNumber"`
	BlockHash          string `json:"blockHash"`
	HandlerVersionName string `json:"handlerVersionName"`
	IsReplay           bool   `json:"isReplay"`
}

// StateStore hosts the application state and the index state.
type StateStore interface {
	// Setup prepares the store. It must be idempotent.
	Setup(ctx context.Context) error

	// LoadIndexState returns the persisted checkpoint, or a zero IndexState on first run.
	LoadIndexState(ctx context.Context) (IndexState, error)

	// UpdateIndexState persists the checkpoint for next. It is called from within HandleWithState
	// with the same state value.
	UpdateIndexState(
		ctx context.Context, state any, next *block.NextBlock, isReplay bool, versionName string, bctx BlockContext,
	) error

	// HandleWithState acquires the mutable application state for the duration of one block.
	HandleWithState(ctx context.Context, handle func(state any, bctx BlockContext) error) error

	// RollbackTo reverses everything persisted for blocks above blockNumber.
	RollbackTo(ctx context.Context, blockNumber uint64) error
}

// Handler applies blocks to the application state.
type Handler interface {
	// Initialize performs one-time setup and loads the index state. HandleBlock calls it when needed.
	Initialize(ctx context.Context) error

	// HandleBlock processes next. A non-zero return value is the block number the reader must
	// seek to before the next call.
	HandleBlock(ctx context.Context, next *block.NextBlock, isReplay bool) (uint64, error)

	// Info returns a snapshot of the handler state. It is safe to call concurrently.
	Info() Info
}

// EffectRunMode selects which effects are executed.
type EffectRunMode string

const (
	EffectRunModeAll           EffectRunMode = "all"
	EffectRunModeOnlyImmediate EffectRunMode = "only_immediate"
	EffectRunModeOnlyDeferred  EffectRunMode = "only_deferred"
	EffectRunModeNone          EffectRunMode = "none"
)

// String returns the string representation of EffectRunMode.
func (m EffectRunMode) String() string {
	return string(m)
}

// IsValid checks if the EffectRunMode value is valid.
func (m EffectRunMode) IsValid() bool {
	switch m {
	case EffectRunModeAll, EffectRunModeOnlyImmediate, EffectRunModeOnlyDeferred, EffectRunModeNone:
		return true
	default:
		return false
	}
}

// Allows reports whether an effect with the given deferral flag may run in this mode.
func (m EffectRunMode) Allows(deferred bool) bool {
	switch m {
	case EffectRunModeAll:
		return true
	case EffectRunModeOnlyImmediate:
		return !deferred
	case EffectRunModeOnlyDeferred:
		return deferred
	default:
		return false
	}
}

// ParseEffectRunMode parses a string into an EffectRunMode.
func ParseEffectRunMode(s string) (EffectRunMode, error) {
	m := EffectRunMode(common.ToLowerWithTrim(s))
	if !m.IsValid() {
		return "", fmt.Errorf("invalid effect run mode: %s (must be one of: all, only_immediate, only_deferred, none)", s)
	}
	return m, nil
}

// ActionMatcher decides whether an action type triggers an updater or effect subscribed to pattern.
type ActionMatcher func(actionType, pattern string) bool

// ExactMatcher matches identical action types.
func ExactMatcher(actionType, pattern string) bool {
	return actionType == pattern
}

// WildcardMatcher extends ExactMatcher with "*", "namespace::*" and "*::name" patterns.
func WildcardMatcher(actionType, pattern string) bool {
	if pattern == "*" || actionType == pattern {
		return true
	}

	patternNs, patternName, ok := strings.Cut(pattern, "::")
	if !ok {
		return false
	}

	ns, name, ok := strings.Cut(actionType, "::")
	if !ok {
		return false
	}

	return (patternNs == "*" || patternNs == ns) && (patternName == "*" || patternName == name)
}

// ParseActionMatcher returns the matcher registered under name.
func ParseActionMatcher(name string) (ActionMatcher, error) {
	switch common.ToLowerWithTrim(name) {
	case "", "exact":
		return ExactMatcher, nil
	case "wildcard":
		return WildcardMatcher, nil
	default:
		return nil, fmt.Errorf("invalid action matcher: %s (must be one of: exact, wildcard)", name)
	}
}

// EffectError records a failed effect execution.
type EffectError struct {
	BlockNumber        uint64    `json:"blockNumber"`
	BlockHash          string    `json:"blockHash"`
	ActionType         string    `json:"actionType"`
	HandlerVersionName string    `json:"handlerVersionName"`
	Error              string    `json:"error"`
	Time               time.Time `json:"time"`
}

// Info is a read-only snapshot of the handler state.
type Info struct {
	LastProcessedBlockNumber uint64        `json:"lastProcessedBlockNumber"`
	LastProcessedBlockHash   string        `json:"lastProcessedBlockHash"`
	HandlerVersionName       string        `json:"handlerVersionName"`
	EffectRunMode            EffectRunMode `json:"effectRunMode"`
	NumberOfRunningEffects   int           `json:"numberOfRunningEffects"`
	NumberOfDeferredEffects  int           `json:"numberOfDeferredEffects"`
	EffectErrors             []EffectError `json:"effectErrors"`
}
