package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lodestone-chain/statecore/beacon-chain/forkchoice"
	"github.com/lodestone-chain/statecore/beacon-chain/state"
	"github.com/lodestone-chain/statecore/consensus/primitives"
)

// maxCheckpointStateSize bounds the Checkpoint State Cache, evicting
// the least-recently-used checkpoint once the bound is reached.
const maxCheckpointStateSize = 64

type checkpointKey struct {
	epoch primitives.Epoch
	root  [32]byte
}

// CheckpointStateCache is a bounded, LRU-evicted map from
// (block_root, epoch) to State, plus a "latest at or before" query
// used by the pre-state fast path, regen source lookup and the Head
// Tracker.
type CheckpointStateCache struct {
	lru *lru.Cache[checkpointKey, state.State]
}

// NewCheckpointStateCache returns an empty CheckpointStateCache.
func NewCheckpointStateCache() *CheckpointStateCache {
	l, _ := lru.New[checkpointKey, state.State](maxCheckpointStateSize)
	return &CheckpointStateCache{lru: l}
}

// Put caches st under cp.
func (c *CheckpointStateCache) Put(cp forkchoice.Checkpoint, st state.State) {
	c.lru.Add(checkpointKey{epoch: cp.Epoch, root: cp.Root}, st)
}

// Get returns the state cached for the exact checkpoint, if present.
func (c *CheckpointStateCache) Get(cp forkchoice.Checkpoint) (state.State, bool) {
	return c.lru.Get(checkpointKey{epoch: cp.Epoch, root: cp.Root})
}

// Latest returns the cached state for blockRoot with the greatest
// epoch <= maxEpoch, or false if none is cached.
func (c *CheckpointStateCache) Latest(blockRoot [32]byte, maxEpoch primitives.Epoch) (state.State, bool) {
	var (
		best   state.State
		bestEp primitives.Epoch
		found  bool
	)
	for _, k := range c.lru.Keys() {
		if k.root != blockRoot || k.epoch > maxEpoch {
			continue
		}
		if !found || k.epoch > bestEp {
			st, ok := c.lru.Peek(k)
			if !ok {
				continue
			}
			best, bestEp, found = st, k.epoch, true
		}
	}
	return best, found
}

// Len returns the number of cached entries.
func (c *CheckpointStateCache) Len() int {
	return c.lru.Len()
}
