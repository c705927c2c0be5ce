package stategen

import (
	"context"
	"sync"

	"github.com/lodestone-chain/statecore/beacon-chain/cache"
	"github.com/lodestone-chain/statecore/beacon-chain/forkchoice"
	"github.com/lodestone-chain/statecore/beacon-chain/state"
	"github.com/lodestone-chain/statecore/beacon-chain/transition"
	"github.com/lodestone-chain/statecore/consensus/primitives"
	"github.com/lodestone-chain/statecore/time/slots"
)

// maxEpoch stands in for "no upper bound" in a checkpoint-cache Latest
// probe.
const maxEpoch = primitives.Epoch(^uint64(0))

// HeadSummary is the head's denormalized view: the three dependant
// roots decide proposer/next, current-attester, and previous-attester
// shuffling respectively.
type HeadSummary struct {
	BlockRoot         [32]byte
	StateRoot         [32]byte
	Slot              primitives.Slot
	Epoch             primitives.Epoch
	TargetRoot        [32]byte
	DependantRootNext [32]byte
	DependantRootCurr [32]byte
	DependantRootPrev [32]byte
}

// RegenHeadFunc regenerates the post-state of block. It is injected
// into the Head Tracker by the owning facade (bound to
// Service.GetBlockSlotState) so the Head Tracker holds no reference
// to the facade, which itself depends on HeadTracker for
// get_head_state_at_*.
type RegenHeadFunc func(ctx context.Context, block forkchoice.BlockSummary, caller string) (state.State, error)

// HeadTracker maintains the current head summary and its cached
// state. Reads are synchronous; a missing head state is recovered in
// the background with a generation-counter compare-and-set so a stale
// completion from a superseded SetHead never installs.
type HeadTracker struct {
	resolver        *Resolver
	stateCache      *cache.StateCache
	checkpointCache *cache.CheckpointStateCache
	transition      transition.StateTransition
	regen           RegenHeadFunc

	mu         sync.Mutex
	head       HeadSummary
	headState  state.State
	generation uint64
}

// NewHeadTracker wires a HeadTracker from its collaborators. regen
// should be set to the owning facade's regeneration path once
// constructed (see SetRegenFunc); it may be left nil in tests that
// never exercise background recovery.
func NewHeadTracker(resolver *Resolver, stateCache *cache.StateCache, checkpointCache *cache.CheckpointStateCache, transitionEngine transition.StateTransition, regen RegenHeadFunc) *HeadTracker {
	return &HeadTracker{
		resolver:        resolver,
		stateCache:      stateCache,
		checkpointCache: checkpointCache,
		transition:      transitionEngine,
		regen:           regen,
	}
}

// SetRegenFunc sets the background-recovery callback post hoc, for
// hosts that must construct the Head Tracker before the facade exists.
func (t *HeadTracker) SetRegenFunc(fn RegenHeadFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.regen = fn
}

// SetHead recomputes the head summary for block and installs or
// recovers its state. candidate, if non-nil and matching block's slot
// and state root, is installed directly; otherwise the checkpoint
// cache, then the state cache, are tried; failing both, the head
// state is nulled out and background recovery is kicked off.
func (t *HeadTracker) SetHead(ctx context.Context, block *forkchoice.BlockSummary, candidate state.State) error {
	epoch := slots.ToEpoch(block.Slot)

	depNext, err := t.resolver.DependantRootAtEpoch(ctx, block.BlockRoot, epoch)
	if err != nil {
		return err
	}
	depCurr, err := t.resolver.DependantRootAtEpoch(ctx, block.BlockRoot, epoch.Sub(1))
	if err != nil {
		return err
	}
	depPrev, err := t.resolver.DependantRootAtEpoch(ctx, block.BlockRoot, epoch.Sub(2))
	if err != nil {
		return err
	}

	newHead := HeadSummary{
		BlockRoot:         block.BlockRoot,
		StateRoot:         block.StateRoot,
		Slot:              block.Slot,
		Epoch:             epoch,
		TargetRoot:        block.TargetRoot,
		DependantRootNext: depNext,
		DependantRootCurr: depCurr,
		DependantRootPrev: depPrev,
	}

	var resolved state.State
	switch {
	case candidate != nil && candidate.Slot() == block.Slot && candidate.StateRoot() == block.StateRoot:
		resolved = candidate
	default:
		if st, ok := t.checkpointCache.Latest(block.BlockRoot, maxEpoch); ok {
			resolved = st
		} else if st, ok := t.stateCache.Get(block.StateRoot); ok {
			resolved = st
		}
	}

	t.mu.Lock()
	t.generation++
	gen := t.generation
	t.head = newHead
	t.headState = resolved
	needsRecovery := resolved == nil
	t.mu.Unlock()

	if needsRecovery {
		t.recoverAsync(ctx, gen, *block)
	}
	return nil
}

// recoverAsync requests the missing head state in the background and
// installs it only if the head has not moved on since (generation
// compare-and-set).
func (t *HeadTracker) recoverAsync(ctx context.Context, gen uint64, block forkchoice.BlockSummary) {
	if t.regen == nil {
		return
	}
	go func() {
		st, err := t.regen(ctx, block, "HeadState")
		if err != nil {
			return
		}
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.generation != gen {
			return
		}
		t.headState = st
	}()
}

// GetHeadState returns the head state synchronously: the installed
// state if present, else a state-cache fallback keyed by the head's
// state root.
func (t *HeadTracker) GetHeadState() (state.State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.headState != nil {
		return t.headState, true
	}
	return t.stateCache.Get(t.head.StateRoot)
}

// Head returns a copy of the current head summary.
func (t *HeadTracker) Head() HeadSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.head
}

// GetHeadStateAtEpoch returns the head state advanced (if necessary)
// to the nearest checkpoint at or before the first slot of epoch E.
// Fails HeadUnavailable if no head state is currently installed.
func (t *HeadTracker) GetHeadStateAtEpoch(ctx context.Context, e primitives.Epoch) (state.State, error) {
	return t.getHeadStateAt(ctx, slots.EpochStart(e), e)
}

// GetHeadStateAtSlot returns the head state advanced (if necessary) to
// the nearest checkpoint at or before s.
func (t *HeadTracker) GetHeadStateAtSlot(ctx context.Context, s primitives.Slot) (state.State, error) {
	return t.getHeadStateAt(ctx, s, slots.ToEpoch(s))
}

func (t *HeadTracker) getHeadStateAt(ctx context.Context, targetSlot primitives.Slot, targetEpoch primitives.Epoch) (state.State, error) {
	t.mu.Lock()
	hs := t.headState
	head := t.head
	t.mu.Unlock()

	if hs == nil {
		return nil, errHeadUnavailable()
	}
	if targetEpoch >= head.Epoch {
		return hs, nil
	}
	st, err := t.transition.ProcessSlotsToNearestCheckpoint(ctx, hs, targetSlot)
	if err != nil {
		return nil, errTransition(err)
	}
	return st, nil
}
