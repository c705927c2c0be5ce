package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateCache_PutGet(t *testing.T) {
	c := NewStateCache(NewArena(), DefaultStateCacheSize)
	root := [32]byte{1}
	st := dummyState(5)

	c.Put(root, st)

	got, ok := c.Get(root)
	require.True(t, ok)
	assert.Equal(t, st, got)
	assert.True(t, c.Has(root))
}

func TestStateCache_Miss(t *testing.T) {
	c := NewStateCache(NewArena(), DefaultStateCacheSize)
	_, ok := c.Get([32]byte{9})
	assert.False(t, ok)
	assert.False(t, c.Has([32]byte{9}))
}

func TestStateCache_Delete(t *testing.T) {
	c := NewStateCache(NewArena(), DefaultStateCacheSize)
	root := [32]byte{1}
	c.Put(root, dummyState(5))
	c.Delete(root)
	_, ok := c.Get(root)
	assert.False(t, ok)
}

func TestStateCache_EvictionReleasesArenaHandle(t *testing.T) {
	arena := NewArena()
	c := NewStateCache(arena, 1)

	rootA, rootB := [32]byte{1}, [32]byte{2}
	c.Put(rootA, dummyState(1))
	hA, ok := c.lru.Peek(rootA)
	require.True(t, ok)

	// Second Put exceeds capacity 1, evicting rootA's entry via the
	// golang-lru eviction callback, which must release hA.
	c.Put(rootB, dummyState(2))

	_, ok = c.Get(rootA)
	assert.False(t, ok, "evicted entry should no longer be retrievable")

	_, alive := arena.Resolve(hA)
	assert.False(t, alive, "eviction must release the arena handle")
}

func TestStateCache_PutOverwriteReleasesOldHandle(t *testing.T) {
	arena := NewArena()
	c := NewStateCache(arena, DefaultStateCacheSize)
	root := [32]byte{1}

	c.Put(root, dummyState(1))
	old, ok := c.lru.Peek(root)
	require.True(t, ok)

	c.Put(root, dummyState(2))

	_, alive := arena.Resolve(old)
	assert.False(t, alive)

	got, ok := c.Get(root)
	require.True(t, ok)
	assert.Equal(t, c.lru.Len(), 1)
	assert.NotNil(t, got)
}

func TestStateCache_Len(t *testing.T) {
	c := NewStateCache(NewArena(), DefaultStateCacheSize)
	assert.Equal(t, 0, c.Len())
	c.Put([32]byte{1}, dummyState(1))
	assert.Equal(t, 1, c.Len())
}

func TestNewStateCache_NonPositiveSizeFallsBackToDefault(t *testing.T) {
	c := NewStateCache(NewArena(), 0)
	require.NotNil(t, c.lru)
}
