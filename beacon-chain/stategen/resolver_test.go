package stategen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodestone-chain/statecore/beacon-chain/forkchoice"
	"github.com/lodestone-chain/statecore/beacon-chain/forkchoice/forkchoicetest"
	stderrors "errors"
)

var (
	genesisRoot = [32]byte{0xFF}
	rootA       = [32]byte{0xA}
	rootB       = [32]byte{0xB}
	rootC       = [32]byte{0xC}
)

// buildChain builds a small fork-choice chain: genesis@0 -> A@5 ->
// B@40 (target_root=A) -> C@45 (target_root=B).
func buildChain(t *testing.T) *forkchoicetest.Store {
	t.Helper()
	store := forkchoicetest.New(genesisRoot)
	store.AddBlock(&forkchoice.BlockSummary{BlockRoot: genesisRoot, ParentRoot: genesisRoot, Slot: 0, TargetRoot: genesisRoot})
	store.AddBlock(&forkchoice.BlockSummary{BlockRoot: rootA, ParentRoot: genesisRoot, Slot: 5, TargetRoot: rootA})
	store.AddBlock(&forkchoice.BlockSummary{BlockRoot: rootB, ParentRoot: rootA, Slot: 40, TargetRoot: rootA})
	store.AddBlock(&forkchoice.BlockSummary{BlockRoot: rootC, ParentRoot: rootB, Slot: 45, TargetRoot: rootB})
	return store
}

func TestResolver_DependantRootAtEpoch_AcrossTargetRootHop(t *testing.T) {
	store := buildChain(t)
	r := NewResolver(store)

	got, err := r.DependantRootAtEpoch(context.Background(), rootC, 1)
	require.NoError(t, err)
	assert.Equal(t, rootA, got)
}

func TestResolver_DependantRootAtEpoch_ExactBoundary(t *testing.T) {
	store := forkchoicetest.New(genesisRoot)
	store.AddBlock(&forkchoice.BlockSummary{BlockRoot: genesisRoot, ParentRoot: genesisRoot, Slot: 0, TargetRoot: genesisRoot})
	store.AddBlock(&forkchoice.BlockSummary{BlockRoot: rootA, ParentRoot: genesisRoot, Slot: 32, TargetRoot: rootA})

	r := NewResolver(store)
	got, err := r.DependantRootAtEpoch(context.Background(), rootA, 1)
	require.NoError(t, err)
	assert.Equal(t, genesisRoot, got, "block.slot == target_slot returns the block's parent_root")
}

func TestResolver_DependantRootAtEpoch_EpochZero(t *testing.T) {
	store := forkchoicetest.New(genesisRoot)
	r := NewResolver(store)

	got, err := r.DependantRootAtEpoch(context.Background(), genesisRoot, 0)
	require.NoError(t, err)
	assert.Equal(t, genesisRoot, got)
}

func TestResolver_DependantRootAtEpoch_EpochZeroBeforeFinalized(t *testing.T) {
	store := forkchoicetest.New(genesisRoot)
	store.SetFinalized(forkchoice.Checkpoint{Epoch: 2, Root: rootA})
	r := NewResolver(store)

	_, err := r.DependantRootAtEpoch(context.Background(), genesisRoot, 0)
	require.Error(t, err)
	var stErr *Error
	require.True(t, stderrors.As(err, &stErr))
	assert.Equal(t, KindBeforeFinalized, stErr.Kind)
}

func TestResolver_DependantRootAtEpoch_Unresolvable(t *testing.T) {
	store := forkchoicetest.New(genesisRoot)
	store.AddBlock(&forkchoice.BlockSummary{BlockRoot: rootA, ParentRoot: rootB, Slot: 40, TargetRoot: rootA})
	r := NewResolver(store)

	_, err := r.DependantRootAtEpoch(context.Background(), rootA, 1)
	require.Error(t, err)
	var stErr *Error
	require.True(t, stderrors.As(err, &stErr))
	assert.Equal(t, KindUnresolvable, stErr.Kind)
}

func TestResolver_DependantRootAtEpoch_Monotonicity(t *testing.T) {
	store := buildChain(t)
	r := NewResolver(store)
	ctx := context.Background()

	// C and its ancestor B are both at epoch >= 1; resolving epoch 1
	// from either must agree.
	fromC, err := r.DependantRootAtEpoch(ctx, rootC, 1)
	require.NoError(t, err)
	fromB, err := r.DependantRootAtEpoch(ctx, rootB, 1)
	require.NoError(t, err)
	assert.Equal(t, fromC, fromB)
}
