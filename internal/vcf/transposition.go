package vcf

import (
	"sync/atomic"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/core"
)

// ttEntry is one slot of the transposition cache (spec.md §4.2: "Keyed by
// Zobrist hash; records {status, winningMove}").
type ttEntry struct {
	key    uint64 // full mixed hash, for validation
	status Status
	move   board.Loc
	depth  int
}

// transTable is a bucketed, power-of-two-sized transposition cache. Single
// writer per slot, race-tolerant reads: "if two threads race, the later
// write wins; readers validate the full key" (spec.md §4.2), the same
// replacement discipline as the teacher's
// internal/engine/transposition.go, generalized from a fixed TTEntry array
// indexed by hash>>shift to this package's Status/Move payload.
type transTable struct {
	entries []atomic.Pointer[ttEntry]
	mask    uint64
}

// ttSizeLog2 is the power-of-two size of the global VCF transposition
// cache. Record granularity is per VCF invocation, not per MCTS evaluation
// (spec.md §4.2).
const ttSizeLog2 = 20 // 1M entries

var globalCache = newTransTable(ttSizeLog2)

func newTransTable(sizeLog2 int) *transTable {
	n := uint64(1) << uint(sizeLog2)
	return &transTable{entries: make([]atomic.Pointer[ttEntry], n), mask: n - 1}
}

// mixKey folds the 128-bit Zobrist hash plus a small discriminator for
// attacker color and ruleset into the 64-bit key this table indexes by —
// two different (attacker, renju) VCF probes of the same stone layout must
// never collide on the same slot.
func mixKey(hash core.Hash128, attacker core.Color, renju bool) uint64 {
	disc := uint64(attacker)
	if renju {
		disc |= 0x100
	}
	return hash.Mix() ^ (disc * 0x9E3779B97F4A7C15)
}

// cacheKey is attached to solver so probe/store can fold in (me, renju)
// without widening the package-level API.
func (s *solver) cacheKey() uint64 {
	return mixKey(s.pos.Hash, s.me, s.renju)
}

func (t *transTable) probeKey(key uint64) (ttEntry, bool) {
	idx := key & t.mask
	p := t.entries[idx].Load()
	if p == nil || p.key != key {
		return ttEntry{}, false
	}
	return *p, true
}

func (t *transTable) storeKey(key uint64, status Status, move board.Loc, depth int) {
	t.entries[key&t.mask].Store(&ttEntry{key: key, status: status, move: move, depth: depth})
}
