package cache

import (
	"sync"

	"github.com/lodestone-chain/statecore/beacon-chain/state"
)

// Handle is a generational weak reference into an Arena. It is cheap
// to copy and safe to hold past the lifetime of the State it points
// to: Resolve reports whether the referent is still alive.
//
// This stands in for a language-level weak pointer, which Go's
// standard library does not offer at the module's target version; see
// DESIGN.md for the generational-index design this is built on.
type Handle struct {
	idx     int
	version uint64
}

type arenaSlot struct {
	state   state.State
	version uint64
	alive   bool
}

// Arena is the single shared slot table backing every weak reference
// this core hands out. The State Cache allocates a slot on Put and
// releases it on eviction. The facade's AddPostState allocates a
// separate slot for each post-state it registers in the Dependant-Root
// Index; that slot is released only by the index's GC, not by State
// Cache eviction.
type Arena struct {
	mu    sync.Mutex
	slots []arenaSlot
	free  []int
}

// NewArena returns an empty Arena.
func NewArena() *Arena {
	return &Arena{}
}

// Alloc stores st in a fresh (or recycled) slot and returns a Handle
// to it.
func (a *Arena) Alloc(st state.State) Handle {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[idx].version++
		a.slots[idx].state = st
		a.slots[idx].alive = true
		return Handle{idx: idx, version: a.slots[idx].version}
	}
	a.slots = append(a.slots, arenaSlot{state: st, version: 1, alive: true})
	return Handle{idx: len(a.slots) - 1, version: 1}
}

// Release drops the slot h refers to, provided h is still current.
// Any other Handle pointing at the same (now recycled) slot will
// observe a version mismatch and report the referent dead, never a
// resurrected value belonging to whatever reuses the slot.
func (a *Arena) Release(h Handle) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if h.idx < 0 || h.idx >= len(a.slots) {
		return
	}
	slot := &a.slots[h.idx]
	if !slot.alive || slot.version != h.version {
		return
	}
	slot.alive = false
	slot.state = nil
	slot.version++
	a.free = append(a.free, h.idx)
}

// Resolve returns the referent and true if h is still live.
func (a *Arena) Resolve(h Handle) (state.State, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if h.idx < 0 || h.idx >= len(a.slots) {
		return nil, false
	}
	slot := a.slots[h.idx]
	if !slot.alive || slot.version != h.version {
		return nil, false
	}
	return slot.state, true
}
