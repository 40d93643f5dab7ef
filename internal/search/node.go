// Package search implements the MCTS search tree (spec.md §4.5): PUCT
// selection with virtual loss for multi-threaded descent, policy-masked
// expansion backed by internal/nneval, sign-negated backup, terminal
// handling, and root reuse across genMove calls.
//
// Grounded on the teacher's internal/engine/worker.go for the overall
// shape of "many goroutines descending shared state behind small per-node
// critical sections, coordinated by a shared atomic stop flag" — negamax's
// recursive alpha-beta stack frame becomes a loop of PUCT-select/recurse
// steps down a persistent tree instead of a transient call stack, since
// MCTS (unlike alpha-beta) keeps its tree across iterations.
package search

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/core"
)

// VirtualLossCount is how much each in-flight descent subtracts from a
// child's apparent value, discouraging (without forbidding) other workers
// from re-selecting the same branch (spec.md §4.5 "Virtual loss").
const VirtualLossCount = 3

// CPuct is the exploration constant in the PUCT formula
// (spec.md §4.5 "Selection").
const CPuct = 1.5

// Edge is one parent->child link: the move that produces the child plus
// the statistics PUCT selection reads. Edges exist even before the child
// node itself has been allocated (un-expanded children have child == nil
// and an untried prior), matching the "on first visit to a leaf, the
// worker submits an evaluation request" expansion-on-demand rule.
type Edge struct {
	Move  board.Loc
	Prior float32

	visits       int64
	virtualLoss  int64
	winLossSum   float64 // sum of per-visit values from this edge's child's own side-to-move perspective, already sign-flipped into the parent's frame on backup
	scoreSum     float64
	ownershipSum []float32

	mu    sync.Mutex
	child *Node
}

// Node is one position in the tree. Children are lazily allocated: Edges
// lists every legal move from this node with its prior, but an edge's
// Node is nil until expanded.
type Node struct {
	parent     *Node
	parentEdge *Edge // the edge in parent.Edges that points to this node, nil for root

	pla core.Color // side to move at this node

	terminal     bool
	terminalVal  float64 // exact value from pla's perspective, valid iff terminal

	mu         sync.Mutex
	expanded   bool
	expanding  bool
	expandDone chan struct{}
	Edges      []*Edge

	visits int64
}

// beginExpand reports whether the caller won the right to evaluate and
// expand this node. If another worker already claimed it, the returned
// channel closes once that worker's expansion (or abort) completes,
// matching spec.md §4.5: "if another worker is already evaluating the same
// position, later workers block on the same one-shot."
func (n *Node) beginExpand() (won bool, wait <-chan struct{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.expanded {
		return false, nil
	}
	if n.expanding {
		return false, n.expandDone
	}
	n.expanding = true
	n.expandDone = make(chan struct{})
	return true, nil
}

// finishExpand releases any other workers waiting on this node's
// expansion. Safe to call whether or not the expansion actually installed
// children (an aborted/cancelled expansion still unblocks waiters, who
// will simply retry and find the node still unexpanded).
func (n *Node) finishExpand() {
	n.mu.Lock()
	n.expanding = false
	done := n.expandDone
	n.expandDone = nil
	n.mu.Unlock()
	if done != nil {
		close(done)
	}
}

// newLeaf allocates an unexpanded node for `pla` to move.
func newLeaf(parent *Node, parentEdge *Edge, pla core.Color) *Node {
	return &Node{parent: parent, parentEdge: parentEdge, pla: pla}
}

// Visits returns the node's total visit count. backup changes it only
// through atomic adds, without holding mu, so it is read atomically here;
// callers outside the search loop read it for reporting, where an
// occasional stale read of a live counter is acceptable.
func (n *Node) Visits() int64 {
	return atomic.LoadInt64(&n.visits)
}

// puctScore computes an edge's PUCT selection score from the parent's
// point of view (spec.md §4.5): Q + c_puct * P * sqrt(sum N) / (1+N),
// where Q folds in virtual losses as if they were losses for the side
// choosing this child. visits/winLossSum are read under e.mu, the "per-node
// spinlock" short critical section spec.md §5 calls for; virtualLoss is
// a separate atomic counter since it's bumped optimistically on every
// concurrent descent without needing the full stats lock.
func puctScore(parentVisits int64, e *Edge) float64 {
	vl := atomic.LoadInt64(&e.virtualLoss)

	e.mu.Lock()
	n := e.visits
	winLossSum := e.winLossSum
	e.mu.Unlock()

	effectiveN := n + vl

	var q float64
	if effectiveN > 0 {
		// virtual losses count as losses (-1) for whoever is about to move
		// into this child, pulling Q down so other workers look elsewhere.
		q = (winLossSum - float64(vl)) / float64(effectiveN)
	}

	exploration := CPuct * float64(e.Prior) * math.Sqrt(float64(parentVisits)) / float64(1+effectiveN)
	return q + exploration
}

// selectChild picks the highest-PUCT-score edge under n, breaking ties by
// lower index for stability (spec.md §4.5: "Ties break by lower child
// index"). Applies virtual loss to the chosen edge before returning.
func (n *Node) selectChild() *Edge {
	n.mu.Lock()
	edges := n.Edges
	n.mu.Unlock()

	parentVisits := n.Visits()
	var best *Edge
	var bestScore float64
	for _, e := range edges {
		s := puctScore(parentVisits, e)
		if best == nil || s > bestScore {
			best = e
			bestScore = s
		}
	}
	if best != nil {
		atomic.AddInt64(&best.virtualLoss, VirtualLossCount)
	}
	return best
}

// undoVirtualLoss reverses the virtual loss applied by selectChild, called
// during backup once the real result is known.
func undoVirtualLoss(e *Edge) {
	atomic.AddInt64(&e.virtualLoss, -VirtualLossCount)
}
