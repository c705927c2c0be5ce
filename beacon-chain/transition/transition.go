// Package transition defines the state-transition surface this core
// treats as an opaque, pure-function collaborator: slot processing,
// epoch transitions, and block processing live outside this module
// (spec §1 — out of scope). The core only ever calls these three
// entry points.
package transition

import (
	"context"

	"github.com/lodestone-chain/statecore/beacon-chain/forkchoice"
	"github.com/lodestone-chain/statecore/beacon-chain/state"
	"github.com/lodestone-chain/statecore/consensus/primitives"
)

// StateTransition is the read/compute surface the Regeneration Engine
// and Head Tracker call into. Every method may be expensive; callers
// are expected to run it off a bounded queue.
type StateTransition interface {
	// ProcessSlotsTo advances preState to target, applying empty-slot
	// (and, if target crosses an epoch boundary, epoch-transition)
	// processing. target must be >= preState.Slot().
	ProcessSlotsTo(ctx context.Context, preState state.State, target primitives.Slot) (state.State, error)
	// ReplayBlock applies a single block on top of preState.
	ReplayBlock(ctx context.Context, preState state.State, block *forkchoice.BlockSummary) (state.State, error)
	// ProcessSlotsToNearestCheckpoint advances preState to the nearest
	// checkpoint at or before target, used by the Head Tracker to
	// answer get_head_state_at_epoch/get_head_state_at_slot without a
	// full regen round-trip.
	ProcessSlotsToNearestCheckpoint(ctx context.Context, preState state.State, target primitives.Slot) (state.State, error)
}
