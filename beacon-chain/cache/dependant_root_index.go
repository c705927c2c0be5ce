package cache

import (
	"sync"

	"github.com/lodestone-chain/statecore/beacon-chain/state"
	"github.com/lodestone-chain/statecore/consensus/primitives"
)

// Tier names one of the three dependant-root tables, kept distinct and
// never conflated: Next answers proposer/next-shuffling queries at
// epoch E, Curr answers current-attester-shuffling queries (epoch E-1
// relative to the state they were registered at), Prev answers
// previous-attester-shuffling queries (epoch E-2).
type Tier int

const (
	Next Tier = iota
	Curr
	Prev
)

func (t Tier) String() string {
	switch t {
	case Next:
		return "next"
	case Curr:
		return "curr"
	case Prev:
		return "prev"
	default:
		return "unknown"
	}
}

type bucketKey struct {
	epoch         primitives.Epoch
	dependantRoot [32]byte
}

// DependantRootIndex is the three-tier weak-reference index: each
// tier maps epoch -> dependant root -> a multiset of Handles. It never
// owns a state strongly; the State Cache does. Dead handles are
// pruned whenever they are observed on a read, and epoch-bounded GC
// drops whole buckets once the finalized epoch moves past them.
type DependantRootIndex struct {
	arena *Arena

	mu      sync.Mutex
	buckets [3]map[bucketKey][]Handle
}

// NewDependantRootIndex returns an empty index backed by arena (the
// same Arena the State Cache allocates from).
func NewDependantRootIndex(arena *Arena) *DependantRootIndex {
	return &DependantRootIndex{
		arena: arena,
		buckets: [3]map[bucketKey][]Handle{
			make(map[bucketKey][]Handle),
			make(map[bucketKey][]Handle),
			make(map[bucketKey][]Handle),
		},
	}
}

// Register adds h to tier at (epoch, dependantRoot).
func (idx *DependantRootIndex) Register(tier Tier, epoch primitives.Epoch, dependantRoot [32]byte, h Handle) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	k := bucketKey{epoch: epoch, dependantRoot: dependantRoot}
	idx.buckets[tier][k] = append(idx.buckets[tier][k], h)
}

// Probe returns the first live state registered in tier at (epoch,
// dependantRoot), pruning any dead handles encountered along the way.
// The order among live handles in the same bucket is unspecified.
func (idx *DependantRootIndex) Probe(tier Tier, epoch primitives.Epoch, dependantRoot [32]byte) (state.State, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	k := bucketKey{epoch: epoch, dependantRoot: dependantRoot}
	handles := idx.buckets[tier][k]
	if len(handles) == 0 {
		return nil, false
	}

	var (
		live  []Handle
		found state.State
		ok    bool
	)
	for _, h := range handles {
		st, alive := idx.arena.Resolve(h)
		if !alive {
			continue
		}
		live = append(live, h)
		if !ok {
			found, ok = st, true
		}
	}
	if len(live) == 0 {
		delete(idx.buckets[tier], k)
	} else {
		idx.buckets[tier][k] = live
	}
	return found, ok
}

// GC drops every bucket across all tiers whose epoch is more than
// horizon epochs behind finalizedEpoch, releasing their arena handles.
// Called by the facade's SetHead on every head update with the current
// finalized epoch, so buckets drop once the finalized checkpoint
// advances (default horizon: 4 epochs).
//
// Releasing here reclaims handles registered by AddPostState for
// states the index is the only tracker of (those states are never
// promoted into the State Cache). If a released handle is still
// nominally held by the State Cache's LRU, that entry simply becomes
// a miss on its next Get; no invariant requires a cached state to
// outlive an index GC sweep.
func (idx *DependantRootIndex) GC(finalizedEpoch primitives.Epoch, horizon uint64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	cutoff := finalizedEpoch.Sub(horizon)
	for t := range idx.buckets {
		for k, handles := range idx.buckets[t] {
			if k.epoch >= cutoff {
				continue
			}
			for _, h := range handles {
				idx.arena.Release(h)
			}
			delete(idx.buckets[t], k)
		}
	}
}

// Len returns the total number of (tier, bucket) pairs currently
// tracked, for tests.
func (idx *DependantRootIndex) Len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	n := 0
	for t := range idx.buckets {
		n += len(idx.buckets[t])
	}
	return n
}
