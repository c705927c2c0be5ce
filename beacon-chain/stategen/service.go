// Package stategen implements the state regeneration and caching
// core: the facade that answers "give me the consensus state at
// (block, slot) or (checkpoint)" by layering the State Cache,
// Checkpoint State Cache, and Dependant-Root Index in front of a
// bounded single-worker regeneration queue.
package stategen

import (
	"context"
	stderrors "errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.opencensus.io/trace"

	"github.com/lodestone-chain/statecore/beacon-chain/cache"
	"github.com/lodestone-chain/statecore/beacon-chain/db"
	"github.com/lodestone-chain/statecore/beacon-chain/forkchoice"
	"github.com/lodestone-chain/statecore/beacon-chain/state"
	"github.com/lodestone-chain/statecore/beacon-chain/transition"
	"github.com/lodestone-chain/statecore/config/params"
	"github.com/lodestone-chain/statecore/consensus/primitives"
	"github.com/lodestone-chain/statecore/time/slots"
)

// Service is the public facade: it is the only type a host constructs
// and calls directly. Every other type in this package is an internal
// collaborator Service wires together.
type Service struct {
	forkChoice forkchoice.ForkChoice
	persistent db.PersistentReader
	transition transition.StateTransition

	arena           *cache.Arena
	stateCache      *cache.StateCache
	checkpointCache *cache.CheckpointStateCache
	index           *cache.DependantRootIndex

	resolver *Resolver
	queue    *Queue
	head     *HeadTracker
	metrics  *Metrics
}

// New wires a Service from its external collaborators and starts the
// queue's worker goroutine on ctx. Cancel ctx (or call Stop) to drain
// the queue and reject further submissions.
func New(ctx context.Context, forkChoice forkchoice.ForkChoice, persistent db.PersistentReader, transitionEngine transition.StateTransition, reg prometheus.Registerer) *Service {
	arena := cache.NewArena()
	metrics := NewMetrics(reg)
	resolver := NewResolver(forkChoice)

	s := &Service{
		forkChoice:      forkChoice,
		persistent:      persistent,
		transition:      transitionEngine,
		arena:           arena,
		stateCache:      cache.NewStateCache(arena, cache.DefaultStateCacheSize),
		checkpointCache: cache.NewCheckpointStateCache(),
		index:           cache.NewDependantRootIndex(arena),
		resolver:        resolver,
		queue:           NewQueue(ctx, metrics),
		metrics:         metrics,
	}
	s.head = NewHeadTracker(resolver, s.stateCache, s.checkpointCache, transitionEngine, nil)
	s.head.SetRegenFunc(func(ctx context.Context, block forkchoice.BlockSummary, caller string) (state.State, error) {
		return s.GetBlockSlotState(ctx, block.BlockRoot, block.Slot, caller)
	})

	go s.queue.Run()
	return s
}

// Stop cancels the regen queue, draining pending work and rejecting
// new submissions with Cancelled.
func (s *Service) Stop() {
	s.queue.Cancel()
}

// QueueDepth reports the current backlog, for callers asserting the
// cache-hit fast paths never enqueue.
func (s *Service) QueueDepth() int {
	return s.queue.Len()
}

// Metrics returns the process-wide regen queue counters without
// requiring the host to scrape its Prometheus registry.
func (s *Service) Metrics() QueueMetrics {
	return s.metrics.Snapshot()
}

// resolveSourceState finds the best known state at or before block,
// the shared first step of every regen primitive below: an exact
// State Cache hit, else the latest checkpoint at or before the
// block's epoch, else a checkpoint loaded from the persistent reader
// via the dependant-root resolver.
func (s *Service) resolveSourceState(ctx context.Context, block *forkchoice.BlockSummary) (state.State, error) {
	if st, ok := s.stateCache.Get(block.StateRoot); ok {
		return st, nil
	}
	epoch := slots.ToEpoch(block.Slot)
	if st, ok := s.checkpointCache.Latest(block.BlockRoot, epoch); ok {
		return st, nil
	}
	dep, err := s.resolver.DependantRootAtEpoch(ctx, block.BlockRoot, epoch)
	if err != nil {
		return nil, err
	}
	st, err := s.persistent.ReadCheckpointState(ctx, epoch, dep)
	if err != nil {
		return nil, errPersistent(err)
	}
	return st, nil
}

func (s *Service) blockOrNotInForkChoice(ctx context.Context, root [32]byte) (*forkchoice.BlockSummary, error) {
	block, err := s.forkChoice.Block(ctx, root)
	if err != nil {
		if stderrors.Is(err, forkchoice.ErrBlockNotFound) {
			return nil, errBlockNotInForkChoice(root)
		}
		return nil, err
	}
	return block, nil
}

// GetPreState returns the state a block should be validated against:
// its parent's post-state advanced (but not yet applied to block)
// up to block.Slot. Fast path: in-epoch pre-states are reusable
// straight from the State Cache; cross-epoch pre-states must come
// from the Checkpoint Cache since they paid for an epoch transition.
func (s *Service) GetPreState(ctx context.Context, block *forkchoice.BlockSummary, caller string) (state.State, error) {
	ctx, span := trace.StartSpan(ctx, "stategen.GetPreState")
	defer span.End()

	parent, err := s.blockOrNotInForkChoice(ctx, block.ParentRoot)
	if err != nil {
		return nil, err
	}

	blockEpoch := slots.ToEpoch(block.Slot)
	parentEpoch := slots.ToEpoch(parent.Slot)

	switch {
	case parentEpoch < blockEpoch:
		if st, ok := s.checkpointCache.Latest(parent.BlockRoot, blockEpoch); ok {
			return st, nil
		}
	case parentEpoch == blockEpoch:
		if st, ok := s.stateCache.Get(parent.StateRoot); ok {
			return st, nil
		}
	}

	return s.queue.Submit(ctx, RegenRequest{
		Caller:     caller,
		Entrypoint: "GetPreState",
		Fn: func(ctx context.Context) (state.State, error) {
			source, err := s.resolveSourceState(ctx, parent)
			if err != nil {
				return nil, err
			}
			result, err := s.transition.ProcessSlotsTo(ctx, source, block.Slot)
			if err != nil {
				return nil, errTransition(err)
			}
			s.stateCache.Put(result.StateRoot(), result)
			return result, nil
		},
	})
}

// GetCheckpointState returns the state at a checkpoint.
func (s *Service) GetCheckpointState(ctx context.Context, cp forkchoice.Checkpoint, caller string) (state.State, error) {
	ctx, span := trace.StartSpan(ctx, "stategen.GetCheckpointState")
	defer span.End()

	if st, ok := s.checkpointCache.Get(cp); ok {
		return st, nil
	}

	return s.queue.Submit(ctx, RegenRequest{
		Caller:     caller,
		Entrypoint: "GetCheckpointState",
		Fn: func(ctx context.Context) (state.State, error) {
			if st, ok := s.checkpointCache.Get(cp); ok {
				return st, nil
			}
			block, err := s.blockOrNotInForkChoice(ctx, cp.Root)
			if err != nil {
				return nil, err
			}
			source, err := s.resolveSourceState(ctx, block)
			if err != nil {
				return nil, err
			}
			result, err := s.transition.ProcessSlotsTo(ctx, source, slots.EpochStart(cp.Epoch))
			if err != nil {
				return nil, errTransition(err)
			}
			s.checkpointCache.Put(cp, result)
			s.stateCache.Put(result.StateRoot(), result)
			return result, nil
		},
	})
}

// GetBlockSlotState returns the state at root advanced to slot. This
// always enqueues: there is no cache keyed by (root, arbitrary slot).
func (s *Service) GetBlockSlotState(ctx context.Context, root [32]byte, slot primitives.Slot, caller string) (state.State, error) {
	ctx, span := trace.StartSpan(ctx, "stategen.GetBlockSlotState")
	defer span.End()

	return s.queue.Submit(ctx, RegenRequest{
		Caller:     caller,
		Entrypoint: "GetBlockSlotState",
		Fn: func(ctx context.Context) (state.State, error) {
			block, err := s.blockOrNotInForkChoice(ctx, root)
			if err != nil {
				return nil, err
			}
			if block.Slot == slot {
				if st, ok := s.stateCache.Get(block.StateRoot); ok {
					return st, nil
				}
			}
			source, err := s.resolveSourceState(ctx, block)
			if err != nil {
				return nil, err
			}
			result, err := s.transition.ProcessSlotsTo(ctx, source, slot)
			if err != nil {
				return nil, errTransition(err)
			}
			s.stateCache.Put(result.StateRoot(), result)
			return result, nil
		},
	})
}

// GetState returns the state for an exact state root. On a cache miss
// there is no reverse (state_root -> block) index in this core's
// collaborator set, so the enqueued fallback can only re-probe the
// cache and otherwise fail Unresolvable; real misses are expected to
// be rare since every regen primitive above populates the State Cache
// on the way out.
func (s *Service) GetState(ctx context.Context, stateRoot [32]byte, caller string) (state.State, error) {
	ctx, span := trace.StartSpan(ctx, "stategen.GetState")
	defer span.End()

	if st, ok := s.stateCache.Get(stateRoot); ok {
		return st, nil
	}

	return s.queue.Submit(ctx, RegenRequest{
		Caller:     caller,
		Entrypoint: "GetState",
		Fn: func(ctx context.Context) (state.State, error) {
			if st, ok := s.stateCache.Get(stateRoot); ok {
				return st, nil
			}
			return nil, errUnresolvable(stateRoot, 0)
		},
	})
}

// HasState reports whether root is already cached, in either the
// State Cache or the Checkpoint State Cache, without triggering
// regeneration. Lets hosts (e.g. a block-processing pipeline) skip
// redundant work before calling GetState.
func (s *Service) HasState(root [32]byte) bool {
	if s.stateCache.Has(root) {
		return true
	}
	_, ok := s.checkpointCache.Latest(root, maxEpoch)
	return ok
}

// GetProposerShuffling resolves the proposer shuffling for a block
// built on parentBlock at blockSlot.
func (s *Service) GetProposerShuffling(ctx context.Context, parentBlock [32]byte, blockSlot primitives.Slot, caller string) ([]primitives.ValidatorIndex, error) {
	epoch := slots.ToEpoch(blockSlot)
	dep, err := s.resolver.DependantRootAtEpoch(ctx, parentBlock, epoch)
	if err != nil {
		return nil, err
	}

	head := s.head.Head()
	if head.Epoch == epoch && head.DependantRootNext == dep {
		if hs, ok := s.head.GetHeadState(); ok {
			return hs.Proposers(), nil
		}
	}

	if st, ok := s.index.Probe(cache.Next, epoch, dep); ok {
		return st.Proposers(), nil
	}

	st, err := s.persistent.ReadCheckpointState(ctx, epoch, dep)
	if err != nil {
		return nil, errPersistent(err)
	}
	s.checkpointCache.Put(forkchoice.Checkpoint{Epoch: epoch, Root: dep}, st)
	return st.Proposers(), nil
}

// GetAttesterShuffling resolves the attester shuffling at
// targetCheckpoint. Current and previous epoch are each resolved via
// their own dependant-root tier, never conflated into one lookup.
func (s *Service) GetAttesterShuffling(ctx context.Context, targetBlock [32]byte, targetCheckpoint forkchoice.Checkpoint, caller string) (state.Shuffling, error) {
	e := targetCheckpoint.Epoch
	eNext := e.Sub(1)
	ePrev := e.Add(1)

	dep, err := s.resolver.DependantRootAtEpoch(ctx, targetBlock, eNext)
	if err != nil {
		return nil, err
	}

	head := s.head.Head()
	if hs, ok := s.head.GetHeadState(); ok {
		switch {
		case head.Epoch == e && head.DependantRootCurr == dep:
			return hs.CurrentShuffling(), nil
		case head.Epoch == eNext && head.DependantRootNext == dep:
			return hs.NextShuffling(), nil
		case head.Epoch == ePrev && head.DependantRootPrev == dep:
			return hs.PreviousShuffling(), nil
		}
	}

	if st, ok := s.index.Probe(cache.Curr, e, dep); ok {
		return st.CurrentShuffling(), nil
	}
	if st, ok := s.index.Probe(cache.Next, eNext, dep); ok {
		return st.NextShuffling(), nil
	}
	if st, ok := s.index.Probe(cache.Prev, ePrev, dep); ok {
		return st.PreviousShuffling(), nil
	}

	st, err := s.persistent.ReadCheckpointState(ctx, eNext, dep)
	if err != nil {
		return nil, errPersistent(err)
	}
	s.checkpointCache.Put(forkchoice.Checkpoint{Epoch: eNext, Root: dep}, st)
	return st.NextShuffling(), nil
}

// AddPostState registers weak references to st in all three
// Dependant-Root Index tiers at epoch(st), epoch(st)-1, epoch(st)-2
// (clamped at zero), keyed by the dependant roots computed from
// block. It does not promote st into the State Cache.
func (s *Service) AddPostState(ctx context.Context, st state.State, block *forkchoice.BlockSummary) error {
	epoch := slots.ToEpoch(st.Slot())
	h := s.arena.Alloc(st)

	tiers := []struct {
		tier  cache.Tier
		epoch primitives.Epoch
	}{
		{cache.Next, epoch},
		{cache.Curr, epoch.Sub(1)},
		{cache.Prev, epoch.Sub(2)},
	}
	for _, t := range tiers {
		dep, err := s.resolver.DependantRootAtEpoch(ctx, block.BlockRoot, t.epoch)
		if err != nil {
			continue
		}
		s.index.Register(t.tier, t.epoch, dep, h)
	}
	return nil
}

// SetHead updates the current head and sweeps the Dependant-Root
// Index for buckets the finalized checkpoint has left behind: an
// epoch-bounded GC pass runs whenever the finalized epoch advances.
func (s *Service) SetHead(ctx context.Context, block *forkchoice.BlockSummary, candidate state.State) error {
	ctx, span := trace.StartSpan(ctx, "stategen.SetHead")
	defer span.End()

	if err := s.head.SetHead(ctx, block, candidate); err != nil {
		return err
	}
	if finalized, err := s.forkChoice.FinalizedCheckpoint(ctx); err == nil {
		s.index.GC(finalized.Epoch, params.BeaconConfig().GCHorizonEpochs)
	}
	return nil
}

// GetHeadState returns the current head state synchronously.
func (s *Service) GetHeadState() (state.State, bool) {
	return s.head.GetHeadState()
}

// GetHeadStateAtEpoch returns the head state advanced to the nearest
// checkpoint at or before epoch E.
func (s *Service) GetHeadStateAtEpoch(ctx context.Context, e primitives.Epoch) (state.State, error) {
	return s.head.GetHeadStateAtEpoch(ctx, e)
}

// GetHeadStateAtSlot returns the head state advanced to the nearest
// checkpoint at or before slot S.
func (s *Service) GetHeadStateAtSlot(ctx context.Context, slot primitives.Slot) (state.State, error) {
	return s.head.GetHeadStateAtSlot(ctx, slot)
}

// MostRecentAncestor walks fork choice from root back to the first
// ancestor at or before maxSlot. Hosts assembling a
// GetBlockSlotState/GetPreState call need this to find the block
// argument in the first place, so it is exposed directly rather than
// buried inside a single call site.
func (s *Service) MostRecentAncestor(ctx context.Context, root [32]byte, maxSlot primitives.Slot) (*forkchoice.BlockSummary, error) {
	for {
		block, err := s.blockOrNotInForkChoice(ctx, root)
		if err != nil {
			return nil, err
		}
		if block.Slot <= maxSlot {
			return block, nil
		}
		root = block.ParentRoot
	}
}
