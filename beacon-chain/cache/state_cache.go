// Package cache implements the three caches the state regeneration
// core is built on: a bounded by-root State Cache, a bounded
// by-(root,epoch) Checkpoint State Cache with a "latest at or before"
// query, and the three-tier Dependant-Root Index. Grounded on
// beacon-chain/cache/hot_state_cache_test.go (Put/Get/Has/Delete
// round trip), checkpoint_state_test.go (StateByCheckpoint, MaxSize
// eviction), and private_access_test.go (internal field access from
// _test.go in the same package).
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lodestone-chain/statecore/beacon-chain/state"
)

// DefaultStateCacheSize bounds the number of states the State Cache
// holds strongly. Eviction releases the State Cache's own arena slot
// for the state; slots the Dependant-Root Index holds are separate
// allocations and stay live until the index's GC releases them.
const DefaultStateCacheSize = 128

// StateCache is a bounded, LRU-evicted map from state root to State.
// It is the sole strong owner of every Arena slot it allocates: on
// eviction it releases the slot, so any Handle to that slot observes
// the state as dead rather than resurrecting it. Handles registered in
// the Dependant-Root Index by AddPostState point at slots of their own
// and are not released by State Cache eviction.
type StateCache struct {
	arena *Arena
	lru   *lru.Cache[[32]byte, Handle]
}

// NewStateCache returns a StateCache of the given capacity backed by
// arena.
func NewStateCache(arena *Arena, size int) *StateCache {
	c := &StateCache{arena: arena}
	l, err := lru.NewWithEvict[[32]byte, Handle](size, func(_ [32]byte, h Handle) {
		c.arena.Release(h)
	})
	if err != nil {
		// Only returned by golang-lru for size <= 0; defend with the
		// package default rather than propagate a constructor error
		// for a programmer mistake.
		l, _ = lru.NewWithEvict[[32]byte, Handle](DefaultStateCacheSize, func(_ [32]byte, h Handle) {
			c.arena.Release(h)
		})
	}
	c.lru = l
	return c
}

// Put inserts st under its state root, evicting the least recently
// used entry if the cache is full. Returns the Handle the state was
// allocated under, for callers (the Regeneration Engine) that also
// want to register it in the Dependant-Root Index.
func (c *StateCache) Put(root [32]byte, st state.State) Handle {
	if old, ok := c.lru.Peek(root); ok {
		c.arena.Release(old)
	}
	h := c.arena.Alloc(st)
	c.lru.Add(root, h)
	return h
}

// Get returns the cached state for root, if present and live.
func (c *StateCache) Get(root [32]byte) (state.State, bool) {
	h, ok := c.lru.Get(root)
	if !ok {
		return nil, false
	}
	st, alive := c.arena.Resolve(h)
	if !alive {
		c.lru.Remove(root)
		return nil, false
	}
	return st, true
}

// Has reports whether root is cached, without affecting LRU order.
func (c *StateCache) Has(root [32]byte) bool {
	h, ok := c.lru.Peek(root)
	if !ok {
		return false
	}
	_, alive := c.arena.Resolve(h)
	return alive
}

// Delete evicts root's entry, if any.
func (c *StateCache) Delete(root [32]byte) {
	c.lru.Remove(root)
}

// Len returns the number of live entries.
func (c *StateCache) Len() int {
	return c.lru.Len()
}
