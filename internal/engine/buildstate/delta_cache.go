package buildstate

import (
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
)

// DeltaCache shares deltas between the units of one invocation. Units that
// diff the same configuration between the same two trees receive the same
// *domain.Delta.
type DeltaCache struct {
	mu      sync.Mutex
	entries map[deltaKey]*deltaEntry
}

type deltaKey struct {
	ref     domain.ConfigRef
	hasBase bool
	base    uint64
	cur     uint64
}

type deltaEntry struct {
	once  sync.Once
	delta *domain.Delta
}

// NewDeltaCache creates an empty cache.
func NewDeltaCache() *DeltaCache {
	return &DeltaCache{entries: make(map[deltaKey]*deltaEntry)}
}

// Get returns the delta of ref from base to cur, computing it on first use.
// A nil base diffs against the empty tree.
func (c *DeltaCache) Get(ref domain.ConfigRef, base, cur *domain.Snapshot) *domain.Delta {
	key := deltaKey{ref: ref}
	if base != nil {
		key.hasBase = true
		key.base = base.Fingerprint
	}
	if cur != nil {
		key.cur = cur.Fingerprint
	}

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &deltaEntry{}
		c.entries[key] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		e.delta = domain.Diff(ref, base, cur)
	})
	return e.delta
}

// Len returns the number of cached deltas.
func (c *DeltaCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
