package handler

import (
	"github.com/goran-ethernal/ChainDemux/pkg/block"
	"github.com/goran-ethernal/ChainDemux/pkg/handler"
)

// pendingEffect is an effect invocation bound to the action that triggered it.
type pendingEffect struct {
	effect      handler.Effect
	action      block.Action
	info        block.Info
	versionName string
	bctx        handler.BlockContext
}

type deferredBlock struct {
	blockNumber uint64
	effects     []pendingEffect
}

// deferredEffects is a map from block number to queued effects, ordered by block number.
// Only the handler loop mutates it.
type deferredEffects struct {
	blocks []deferredBlock
	count  int
}

func (d *deferredEffects) add(blockNumber uint64, effect pendingEffect) {
	d.count++

	i := len(d.blocks)
	for i > 0 && d.blocks[i-1].blockNumber > blockNumber {
		i--
	}

	if i > 0 && d.blocks[i-1].blockNumber == blockNumber {
		d.blocks[i-1].effects = append(d.blocks[i-1].effects, effect)
		return
	}

	d.blocks = append(d.blocks, deferredBlock{})
	copy(d.blocks[i+1:], d.blocks[i:])
	d.blocks[i] = deferredBlock{blockNumber: blockNumber, effects: []pendingEffect{effect}}
}

// releaseUpTo removes and returns the effects queued for blocks up to blockNumber,
// in ascending block order.
func (d *deferredEffects) releaseUpTo(blockNumber uint64) []pendingEffect {
	n := 0
	for n < len(d.blocks) && d.blocks[n].blockNumber <= blockNumber {
		n++
	}

	if n == 0 {
		return nil
	}

	var released []pendingEffect
	for _, b := range d.blocks[:n] {
		released = append(released, b.effects...)
	}

	d.blocks = append(d.blocks[:0], d.blocks[n:]...)
	d.count -= len(released)

	return released
}

// discardAbove drops the effects queued for blocks above blockNumber and returns how many were dropped.
func (d *deferredEffects) discardAbove(blockNumber uint64) int {
	keep := len(d.blocks)
	for keep > 0 && d.blocks[keep-1].blockNumber > blockNumber {
		keep--
	}

	discarded := 0
	for _, b := range d.blocks[keep:] {
		discarded += len(b.effects)
	}

	clear(d.blocks[keep:])
	d.blocks = d.blocks[:keep]
	d.count -= discarded

	return discarded
}

func (d *deferredEffects) len() int {
	return d.count
}
