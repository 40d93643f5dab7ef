package nneval

import (
	"sync/atomic"

	"github.com/hailam/chessplay/internal/core"
)

// cacheEntry is one bucket slot. Grounded on internal/vcf/transposition.go's
// ttEntry/transTable: power-of-two bucket count, single-writer-per-slot via
// atomic.Pointer, key-validated lock-free reads — the same race-tolerant
// discipline as the teacher's internal/engine/transposition.go, generalized
// from a chess search-result payload to a cached NN Output.
type cacheEntry struct {
	key uint64
	out Output
}

// cache is a bucketed, always-overwrite NN-output cache. It never grows and
// never evicts explicitly; a new write to a full bucket simply replaces
// whatever was there, the same "later write wins" policy VCF's
// transposition table uses, which is adequate for a cache whose only job is
// to avoid redundant inference on positions the search keeps revisiting.
type cache struct {
	entries []atomic.Pointer[cacheEntry]
	mask    uint64
}

func newCache(sizeLog2 int) *cache {
	n := uint64(1) << uint(sizeLog2)
	return &cache{entries: make([]atomic.Pointer[cacheEntry], n), mask: n - 1}
}

func (c *cache) get(h core.Hash128) (Output, bool) {
	key := hashKey(h)
	p := c.entries[key&c.mask].Load()
	if p == nil || p.key != key {
		return Output{}, false
	}
	return p.out, true
}

func (c *cache) put(h core.Hash128, out Output) {
	key := hashKey(h)
	c.entries[key&c.mask].Store(&cacheEntry{key: key, out: out})
}

// reset discards every cached entry by replacing the bucket slice rather
// than clearing each atomic.Pointer individually.
func (c *cache) reset(sizeLog2 int) {
	n := uint64(1) << uint(sizeLog2)
	c.entries = make([]atomic.Pointer[cacheEntry], n)
	c.mask = n - 1
}
