// Package dbtest is an in-memory PersistentReader double for tests.
package dbtest

import (
	"context"
	"sync"

	"github.com/lodestone-chain/statecore/beacon-chain/db"
	"github.com/lodestone-chain/statecore/beacon-chain/state"
	"github.com/lodestone-chain/statecore/consensus/primitives"
)

type key struct {
	epoch primitives.Epoch
	root  [32]byte
}

// Reader is a map-backed PersistentReader.
type Reader struct {
	mu     sync.RWMutex
	states map[key]state.State
}

// New returns an empty Reader.
func New() *Reader {
	return &Reader{states: make(map[key]state.State)}
}

// Put registers the state returned for (epoch, dependantRoot).
func (r *Reader) Put(epoch primitives.Epoch, dependantRoot [32]byte, st state.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[key{epoch, dependantRoot}] = st
}

// ReadCheckpointState implements db.PersistentReader.
func (r *Reader) ReadCheckpointState(_ context.Context, epoch primitives.Epoch, dependantRoot [32]byte) (state.State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.states[key{epoch, dependantRoot}]
	if !ok {
		return nil, db.ErrNotFound
	}
	return st, nil
}
