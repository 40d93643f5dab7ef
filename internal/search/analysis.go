package search

import (
	"sort"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/core"
)

// ChildInfo is one root child's snapshot row for analysis output
// (spec.md §4.5 "Analysis output": move, visits, winrate, policyPrior, lcb,
// order, principal-variation).
type ChildInfo struct {
	Move        board.Loc
	Visits      int64
	Winrate     float64 // mean value from the root's side-to-move perspective
	PolicyPrior float32
	LCB         float64
	Order       int // 0-based rank by visit count, ties broken by winrate
	PV          []board.Loc
}

// Analyze snapshots the current root children, ranked by visit count (ties
// broken by winrate), each carrying a principal variation extracted by
// repeatedly following the highest-visit child down to pvDepth plies or
// until an unexpanded/terminal node is reached.
func (t *Tree) Analyze(pvDepth int) []ChildInfo {
	t.mu.RLock()
	root := t.root
	t.mu.RUnlock()

	root.mu.Lock()
	edges := append([]*Edge(nil), root.Edges...)
	root.mu.Unlock()

	infos := make([]ChildInfo, 0, len(edges))
	for _, e := range edges {
		e.mu.Lock()
		visits := e.visits
		mean := 0.0
		if visits > 0 {
			mean = e.winLossSum / float64(visits)
		}
		prior := e.Prior
		e.mu.Unlock()

		infos = append(infos, ChildInfo{
			Move:        e.Move,
			Visits:      visits,
			Winrate:     mean,
			PolicyPrior: prior,
			LCB:         core.LCB(mean, visits),
			PV:          principalVariation(e, pvDepth),
		})
	}

	sort.SliceStable(infos, func(i, j int) bool {
		if infos[i].Visits != infos[j].Visits {
			return infos[i].Visits > infos[j].Visits
		}
		return infos[i].Winrate > infos[j].Winrate
	})
	for i := range infos {
		infos[i].Order = i
	}
	return infos
}

// principalVariation follows the most-visited child from e down to depth
// plies, stopping early at an unexpanded or terminal node.
func principalVariation(e *Edge, depth int) []board.Loc {
	pv := []board.Loc{e.Move}
	cur := e
	for i := 1; i < depth; i++ {
		cur.mu.Lock()
		child := cur.child
		cur.mu.Unlock()
		if child == nil {
			break
		}
		child.mu.Lock()
		terminal := child.terminal
		childEdges := append([]*Edge(nil), child.Edges...)
		child.mu.Unlock()
		if terminal || len(childEdges) == 0 {
			break
		}

		var best *Edge
		var bestVisits int64 = -1
		for _, ce := range childEdges {
			ce.mu.Lock()
			v := ce.visits
			ce.mu.Unlock()
			if v > bestVisits {
				best = ce
				bestVisits = v
			}
		}
		if best == nil {
			break
		}
		pv = append(pv, best.Move)
		cur = best
	}
	return pv
}

// ChildInfoByMove finds the entry for move within an Analyze snapshot,
// using internal/core.SearchSorted over a move-sorted copy rather than a
// linear scan (original_source/cpp/core/bsearch.cpp's small-integer binary
// search, applied here to root-child lookup by location instead of
// visit-count ranking).
func ChildInfoByMove(infos []ChildInfo, move board.Loc) (ChildInfo, bool) {
	sorted := append([]ChildInfo(nil), infos...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Move < sorted[j].Move })

	locs := make([]int, len(sorted))
	for i, ci := range sorted {
		locs[i] = int(ci.Move)
	}
	idx := core.SearchSorted(locs, int(move))
	if idx >= len(sorted) || sorted[idx].Move != move {
		return ChildInfo{}, false
	}
	return sorted[idx], true
}

// BestMove picks the root child to play once the search budget expires:
// highest visit count, ties broken by higher mean value (spec.md §4.6
// "Move selection"). Reports ok=false if the root has no expanded children
// (e.g. the budget expired before a single descent completed).
func (t *Tree) BestMove() (move board.Loc, ok bool) {
	t.mu.RLock()
	root := t.root
	t.mu.RUnlock()

	root.mu.Lock()
	edges := append([]*Edge(nil), root.Edges...)
	root.mu.Unlock()

	var best *Edge
	var bestVisits int64 = -1
	var bestMean float64
	for _, e := range edges {
		e.mu.Lock()
		visits := e.visits
		mean := 0.0
		if visits > 0 {
			mean = e.winLossSum / float64(visits)
		}
		e.mu.Unlock()

		if visits > bestVisits || (visits == bestVisits && mean > bestMean) {
			best = e
			bestVisits = visits
			bestMean = mean
		}
	}
	if best == nil {
		return 0, false
	}
	return best.Move, true
}
