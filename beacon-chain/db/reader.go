// Package db defines the persistent-state read surface this core
// consumes. The database itself (hot/cold KV storage, pruning,
// migrations) is an external collaborator and out of scope; shape
// grounded on _examples/prysmaticlabs-prysm/beacon-chain/db's
// Database.State/Database.Block collaborator naming.
package db

import (
	"context"

	"github.com/pkg/errors"
	"github.com/lodestone-chain/statecore/beacon-chain/state"
	"github.com/lodestone-chain/statecore/consensus/primitives"
)

// ErrNotFound is returned when no checkpoint state exists for the
// requested (epoch, dependantRoot) pair.
var ErrNotFound = errors.New("checkpoint state not found")

// PersistentReader is the read-only persisted-state surface.
type PersistentReader interface {
	// ReadCheckpointState returns the state checkpointed at the given
	// epoch whose post-state was produced by dependantRoot's block, or
	// ErrNotFound.
	ReadCheckpointState(ctx context.Context, epoch primitives.Epoch, dependantRoot [32]byte) (state.State, error)
}
