// Package transitiontest is an in-memory, hook-driven StateTransition
// double for tests: it fabricates deterministic states rather than
// running real state-transition logic, and lets tests inject delays
// or errors to exercise the queue's concurrency and cancellation
// behavior.
package transitiontest

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/lodestone-chain/statecore/beacon-chain/forkchoice"
	"github.com/lodestone-chain/statecore/beacon-chain/state"
	"github.com/lodestone-chain/statecore/consensus/primitives"
)

// Engine is a configurable StateTransition double.
type Engine struct {
	// Delay, if set, is slept at the top of every method before doing
	// any work, to simulate expensive regen.
	Delay time.Duration

	// InFlight counts calls currently executing, so a test can check
	// at-most-one-execution against it.
	InFlight int32
	// MaxObservedInFlight records the high-water mark of InFlight.
	MaxObservedInFlight int32

	Err error
}

func newStateRoot(slot primitives.Slot, seed byte) [32]byte {
	var root [32]byte
	root[0] = seed
	root[31] = byte(slot)
	root[30] = byte(slot >> 8)
	return root
}

func (e *Engine) enter() {
	n := atomic.AddInt32(&e.InFlight, 1)
	for {
		max := atomic.LoadInt32(&e.MaxObservedInFlight)
		if n <= max || atomic.CompareAndSwapInt32(&e.MaxObservedInFlight, max, n) {
			break
		}
	}
}

func (e *Engine) leave() {
	atomic.AddInt32(&e.InFlight, -1)
}

func (e *Engine) wait(ctx context.Context) error {
	if e.Delay == 0 {
		return nil
	}
	select {
	case <-time.After(e.Delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ProcessSlotsTo implements transition.StateTransition.
func (e *Engine) ProcessSlotsTo(ctx context.Context, preState state.State, target primitives.Slot) (state.State, error) {
	e.enter()
	defer e.leave()
	if err := e.wait(ctx); err != nil {
		return nil, err
	}
	if e.Err != nil {
		return nil, e.Err
	}
	return state.New(target, newStateRoot(target, 0xA), preState.Proposers(),
		preState.CurrentShuffling(), preState.NextShuffling(), preState.PreviousShuffling()), nil
}

// ReplayBlock implements transition.StateTransition.
func (e *Engine) ReplayBlock(ctx context.Context, preState state.State, block *forkchoice.BlockSummary) (state.State, error) {
	e.enter()
	defer e.leave()
	if err := e.wait(ctx); err != nil {
		return nil, err
	}
	if e.Err != nil {
		return nil, e.Err
	}
	return state.New(block.Slot, block.StateRoot, preState.Proposers(),
		preState.CurrentShuffling(), preState.NextShuffling(), preState.PreviousShuffling()), nil
}

// ProcessSlotsToNearestCheckpoint implements transition.StateTransition.
func (e *Engine) ProcessSlotsToNearestCheckpoint(ctx context.Context, preState state.State, target primitives.Slot) (state.State, error) {
	return e.ProcessSlotsTo(ctx, preState, target)
}
