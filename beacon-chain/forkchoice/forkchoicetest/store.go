// Package forkchoicetest is an in-memory fork-choice double for
// tests, following the same setup-helper pattern (a constructor that
// returns a ready-to-use store) used by the beacon chain's other test
// doubles.
package forkchoicetest

import (
	"context"
	"sync"

	"github.com/lodestone-chain/statecore/beacon-chain/forkchoice"
)

// Store is a minimal, lock-protected in-memory ForkChoice.
type Store struct {
	mu        sync.RWMutex
	blocks    map[[32]byte]*forkchoice.BlockSummary
	finalized forkchoice.Checkpoint
}

// New returns an empty Store with the finalized checkpoint at epoch 0.
func New(genesisRoot [32]byte) *Store {
	return &Store{
		blocks:    make(map[[32]byte]*forkchoice.BlockSummary),
		finalized: forkchoice.Checkpoint{Epoch: 0, Root: genesisRoot},
	}
}

// AddBlock inserts or replaces a block summary.
func (s *Store) AddBlock(b *forkchoice.BlockSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks[b.BlockRoot] = b
}

// SetFinalized sets the store's finalized checkpoint.
func (s *Store) SetFinalized(cp forkchoice.Checkpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalized = cp
}

// Block implements forkchoice.ForkChoice.
func (s *Store) Block(_ context.Context, root [32]byte) (*forkchoice.BlockSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blocks[root]
	if !ok {
		return nil, forkchoice.ErrBlockNotFound
	}
	return b, nil
}

// FinalizedCheckpoint implements forkchoice.ForkChoice.
func (s *Store) FinalizedCheckpoint(_ context.Context) (forkchoice.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finalized, nil
}
