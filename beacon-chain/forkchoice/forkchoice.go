// Package forkchoice defines the read-only fork-choice DAG surface the
// state regeneration core consumes. The fork-choice implementation
// itself (LMD-GHOST, proto-array, doubly-linked-tree) is an external
// collaborator and out of scope here, per spec. Shape grounded on
// other_examples/64438cd7_Magicking-prysm__beacon-chain-blockchain-forkchoice-service.go.go
// (Checkpoint, ancestor walk, errors.Wrap usage).
package forkchoice

import (
	"context"

	"github.com/pkg/errors"
	"github.com/lodestone-chain/statecore/consensus/primitives"
)

// Checkpoint marks an epoch boundary.
type Checkpoint struct {
	Epoch primitives.Epoch
	Root  [32]byte
}

// BlockSummary is the slice of a block's fields the core needs from
// fork-choice: enough to walk ancestry and resolve dependant roots
// without reconstructing state.
type BlockSummary struct {
	BlockRoot  [32]byte
	ParentRoot [32]byte
	StateRoot  [32]byte
	Slot       primitives.Slot
	// TargetRoot is the root of the first block in this block's epoch
	// along its ancestor chain, or the block's own root if it is that
	// first block. It lets dependant-root resolution skip an entire
	// epoch of blocks in one hop.
	TargetRoot [32]byte
}

// ErrBlockNotFound is returned by ForkChoice.Block for an unknown root.
var ErrBlockNotFound = errors.New("block not found in fork choice")

// ForkChoice is the read-only capability this core consumes.
type ForkChoice interface {
	// Block returns the summary for root, or ErrBlockNotFound if root
	// is not known to fork choice.
	Block(ctx context.Context, root [32]byte) (*BlockSummary, error)
	// FinalizedCheckpoint returns the current finalized checkpoint.
	FinalizedCheckpoint(ctx context.Context) (Checkpoint, error)
}
