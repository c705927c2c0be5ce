package stategen

import (
	"context"

	stderrors "errors"

	"github.com/lodestone-chain/statecore/beacon-chain/forkchoice"
	"github.com/lodestone-chain/statecore/consensus/primitives"
	"github.com/lodestone-chain/statecore/time/slots"
)

// Resolver walks the fork-choice ancestor chain to find the dependant
// root for a given epoch. The TargetRoot pointer on each BlockSummary
// lets the walk skip an entire epoch of within-epoch blocks in a
// single hop, giving O(epochs-back) behavior instead of
// O(blocks-back).
type Resolver struct {
	forkChoice forkchoice.ForkChoice
}

// NewResolver returns a Resolver reading from forkChoice.
func NewResolver(forkChoice forkchoice.ForkChoice) *Resolver {
	return &Resolver{forkChoice: forkChoice}
}

// DependantRootAtEpoch returns the root of the last block with
// slot < first_slot_of_epoch(epoch) on fromBlockRoot's ancestor
// chain. For epoch 0 it is the finalized root, provided the finalized
// epoch is itself 0.
func (r *Resolver) DependantRootAtEpoch(ctx context.Context, fromBlockRoot [32]byte, epoch primitives.Epoch) ([32]byte, error) {
	var zero [32]byte

	finalized, err := r.forkChoice.FinalizedCheckpoint(ctx)
	if err != nil {
		return zero, err
	}

	if epoch == 0 {
		if finalized.Epoch == 0 {
			return finalized.Root, nil
		}
		return zero, errBeforeFinalized(epoch)
	}

	targetSlot := slots.EpochStart(epoch)
	root := fromBlockRoot
	for {
		block, err := r.forkChoice.Block(ctx, root)
		if err != nil {
			if stderrors.Is(err, forkchoice.ErrBlockNotFound) {
				if epoch < finalized.Epoch {
					return zero, errBeforeFinalized(epoch)
				}
				return zero, errUnresolvable(fromBlockRoot, targetSlot)
			}
			return zero, err
		}

		switch {
		case block.Slot == targetSlot:
			return block.ParentRoot, nil
		case block.Slot < targetSlot:
			return block.BlockRoot, nil
		default:
			if block.BlockRoot == block.TargetRoot {
				root = block.ParentRoot
			} else {
				root = block.TargetRoot
			}
		}
	}
}
