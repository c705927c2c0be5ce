// Package state defines the opaque consensus State this core reads
// from and writes into its caches. The state-transition function that
// produces these values is an external collaborator (see
// beacon-chain/transition); this package only describes the shape the
// core is allowed to look at, modeled on how a beacon state round-trips
// through the regen caches.
package state

import "github.com/lodestone-chain/statecore/consensus/primitives"

// Shuffling is a per-epoch permutation of validator indices.
type Shuffling []primitives.ValidatorIndex

// State is the read surface the regeneration core needs. It is opaque
// otherwise: this core never inspects balances, validators, or any
// other consensus field.
type State interface {
	Slot() primitives.Slot
	StateRoot() [32]byte
	Proposers() []primitives.ValidatorIndex
	CurrentShuffling() Shuffling
	NextShuffling() Shuffling
	PreviousShuffling() Shuffling
}

// ReadOnlyState is a minimal, immutable implementation of State used
// by collaborator doubles and tests. Production hosts supply their
// own State implementation backed by the real beacon state trie.
type ReadOnlyState struct {
	slot              primitives.Slot
	stateRoot         [32]byte
	proposers         []primitives.ValidatorIndex
	currentShuffling  Shuffling
	nextShuffling     Shuffling
	previousShuffling Shuffling
}

// New constructs a ReadOnlyState.
func New(slot primitives.Slot, stateRoot [32]byte, proposers []primitives.ValidatorIndex, current, next, previous Shuffling) *ReadOnlyState {
	return &ReadOnlyState{
		slot:              slot,
		stateRoot:         stateRoot,
		proposers:         proposers,
		currentShuffling:  current,
		nextShuffling:     next,
		previousShuffling: previous,
	}
}

func (s *ReadOnlyState) Slot() primitives.Slot                 { return s.slot }
func (s *ReadOnlyState) StateRoot() [32]byte                   { return s.stateRoot }
func (s *ReadOnlyState) Proposers() []primitives.ValidatorIndex { return s.proposers }
func (s *ReadOnlyState) CurrentShuffling() Shuffling            { return s.currentShuffling }
func (s *ReadOnlyState) NextShuffling() Shuffling               { return s.nextShuffling }
func (s *ReadOnlyState) PreviousShuffling() Shuffling           { return s.previousShuffling }
