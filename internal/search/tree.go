package search

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/core"
	"github.com/hailam/chessplay/internal/nneval"
	"github.com/hailam/chessplay/internal/nninput"
	"github.com/hailam/chessplay/internal/rules"
)

// Evaluator is the subset of internal/nneval.Service the tree needs,
// narrowed to an interface so tests can substitute a fake without starting
// a real batching goroutine.
type Evaluator interface {
	Evaluate(ctx context.Context, in nninput.Input) (nneval.Output, error)
}

// Params are the rule/handicap knobs threaded through every encode and
// legality check the tree performs.
type Params struct {
	Renju                    bool
	PlayoutDoublingAdvantage float64

	// RootPolicyTemperature raises (>1) or sharpens (<1) the root policy
	// before noise is mixed in; 0 or 1 leaves it unchanged (spec.md §4.5
	// "Root noise and temperature", config key rootPolicyTemperature).
	RootPolicyTemperature float64

	// WideRootNoise widens the Dirichlet mix at the root for analysis mode,
	// trading move-selection sharpness for broader exploration (spec.md
	// §4.5 "a separate wide-root knob", config key wideRootNoise).
	WideRootNoise bool
}

// Tree owns the persistent search tree plus the scratch board state shared
// read-only by workers (each worker clones its own History to descend
// with; spec.md §5 "Parallel threads on a shared tree").
type Tree struct {
	eval   Evaluator
	params Params

	mu   sync.RWMutex
	root *Node

	// rootHistory is the authoritative game history; Descend clones it per
	// descent rather than mutating it directly.
	rootHistory *board.History

	rootNoised bool
	rng        *core.XorshiftPCG

	// rootBanned lists moves excluded from root expansion entirely (the
	// Async Bot's per-color "avoid move until ply" blacklist, spec.md §4.6
	// "setAvoidMoveUntilByLoc" — "applied at the root only").
	rootBanned map[board.Loc]bool
}

// SetRootBannedMoves replaces the set of moves excluded from root expansion.
// Has no effect on an already-expanded root; callers that need an existing
// ban enforced retroactively should Rebuild or Reparent first.
func (t *Tree) SetRootBannedMoves(banned map[board.Loc]bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rootBanned = banned
}

// NewTree builds a fresh tree rooted at h's current position. h is cloned,
// not retained, so the caller's History remains theirs to mutate.
func NewTree(eval Evaluator, params Params, h *board.History, rngSeed uint64) *Tree {
	return &Tree{
		eval:        eval,
		params:      params,
		root:        newLeaf(nil, nil, h.Pos.PlaToMove),
		rootHistory: cloneHistory(h),
		rng:         core.NewXorshiftPCG(rngSeed),
	}
}

func cloneHistory(h *board.History) *board.History {
	clone := &board.History{Pos: h.Pos.Clone()}
	clone.Moves = append([]board.MoveRecord(nil), h.Moves...)
	return clone
}

// RootVisits reports the root's current visit count, for the Async Bot's
// search-budget check (spec.md §4.6 "rootVisits < maxVisits").
func (t *Tree) RootVisits() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.root.Visits()
}

// Reparent advances the tree to a descendant position reached by playing
// `loc` for the current root's side to move, reusing that subtree's
// statistics if it was already expanded (spec.md §4.5 "Root re-use"). If
// the move wasn't previously explored, a fresh unexpanded node is used
// instead — functionally equivalent to a rebuild for that one move.
func (t *Tree) Reparent(loc board.Loc) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pla := t.rootHistory.Pos.PlaToMove
	t.rootHistory.Play(pla, loc)
	t.rootNoised = false

	if !t.root.expanded {
		t.root = newLeaf(nil, nil, t.rootHistory.Pos.PlaToMove)
		return
	}
	for _, e := range t.root.Edges {
		if e.Move == loc {
			if e.child != nil {
				e.child.parent = nil
				e.child.parentEdge = nil
				t.root = e.child
				return
			}
			break
		}
	}
	t.root = newLeaf(nil, nil, t.rootHistory.Pos.PlaToMove)
}

// Rebuild discards the tree entirely and starts over from h's position —
// used when the new root isn't a descendant of the old one (spec.md §4.5:
// "otherwise rebuild").
func (t *Tree) Rebuild(h *board.History) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.root = newLeaf(nil, nil, h.Pos.PlaToMove)
	t.rootHistory = cloneHistory(h)
	t.rootNoised = false
}

// Descend runs one MCTS iteration: select down to a leaf, evaluate (or use
// a terminal's exact value), expand, and back the value up. Safe to call
// concurrently from many worker goroutines (spec.md §5).
func (t *Tree) Descend(ctx context.Context) error {
	t.mu.RLock()
	root := t.root
	h := cloneHistory(t.rootHistory)
	t.mu.RUnlock()

	var path []*Edge
	cur := root

	for {
		cur.mu.Lock()
		terminal, terminalVal := cur.terminal, cur.terminalVal
		cur.mu.Unlock()
		if terminal {
			t.backup(path, terminalVal)
			return nil
		}

		if won, wait := cur.beginExpand(); won {
			return t.expandAndBackup(ctx, cur, path, h)
		} else if wait != nil {
			// Another worker is already evaluating this exact leaf; block
			// on its one-shot completion rather than submitting a
			// redundant request (spec.md §4.5).
			select {
			case <-wait:
			case <-ctx.Done():
				t.revertVirtualLosses(path)
				return ctx.Err()
			}
			continue
		}

		e := cur.selectChild()
		if e == nil {
			// No legal moves (shouldn't happen once expanded unless the
			// position is genuinely terminal, which Descend marks when it
			// allocates the child) — treat as a draw/no-result leaf.
			t.backup(path, core.ValueNoResult)
			return nil
		}
		path = append(path, e)

		e.mu.Lock()
		if e.child == nil {
			makesFive := rules.ClassifyMove(h.Pos, t.params.Renju, cur.pla, e.Move) == rules.Five
			h.Play(cur.pla, e.Move)
			e.child = newLeaf(cur, e, h.Pos.PlaToMove)
			if makesFive {
				h.Pos.MarkFinished(cur.pla)
			} else if h.Pos.MoveCount >= h.Pos.Board.Area()-core.NoResultSlack {
				h.Pos.MarkFinished(core.Empty)
			}
			if h.Pos.Finished {
				e.child.terminal = true
				e.child.terminalVal = terminalValue(h.Pos, e.child.pla)
			}
			e.mu.Unlock()
			cur = e.child
			continue
		}
		e.mu.Unlock()
		h.Play(cur.pla, e.Move)
		cur = e.child
	}
}

// terminalValue returns the exact value from `pla`'s (the node's to-move
// perspective) point of view once pos.Finished (spec.md §4.5 "Terminal
// handling").
func terminalValue(pos *board.Position, pla core.Color) float64 {
	if pos.Winner == core.Empty {
		return core.ValueNoResult
	}
	if pos.Winner == pla {
		return core.ValueWin
	}
	return core.ValueLoss
}

// expandAndBackup evaluates a freshly-reached leaf, installs its children
// from the masked/renormalized policy, and backs the value up the path.
func (t *Tree) expandAndBackup(ctx context.Context, leaf *Node, path []*Edge, h *board.History) error {
	defer leaf.finishExpand()

	in := nninput.Encode(h, leaf.pla, nninput.Params{Renju: t.params.Renju, PlayoutDoublingAdvantage: t.params.PlayoutDoublingAdvantage}, nil)
	out, err := t.eval.Evaluate(ctx, in)
	if err != nil {
		// Request was cancelled (search stopping): unwind virtual losses
		// without recording a result, matching "inference requests in
		// flight are allowed to complete" — a cancelled one simply isn't
		// backed up (spec.md §5).
		t.revertVirtualLosses(path)
		return err
	}

	t.mu.RLock()
	isRoot := leaf == t.rootNodeUnsafe()
	banned := t.rootBanned
	t.mu.RUnlock()

	priorities := rules.BoardPriorities(h.Pos, t.params.Renju, leaf.pla)
	var edges []*Edge
	var priorSum float32
	for loc, pr := range priorities {
		if pr == rules.Illegal {
			continue
		}
		if isRoot && banned[loc] {
			continue
		}
		idx := h.Pos.Board.W*ySlot(h.Pos, loc) + xSlot(h.Pos, loc)
		p := out.Policy[idx]
		if p < 0 {
			p = 0
		}
		edges = append(edges, &Edge{Move: loc, Prior: p})
		priorSum += p
	}
	if priorSum > 0 {
		for _, e := range edges {
			e.Prior /= priorSum
		}
	} else if len(edges) > 0 {
		uniform := float32(1) / float32(len(edges))
		for _, e := range edges {
			e.Prior = uniform
		}
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].Move < edges[j].Move })

	leaf.mu.Lock()
	if isRoot && !t.rootNoised {
		applyRootNoise(edges, t.rng, t.params.RootPolicyTemperature, t.params.WideRootNoise)
		t.rootNoised = true
	}
	leaf.Edges = edges
	leaf.expanded = true
	leaf.mu.Unlock()

	t.backup(path, float64(out.Value))
	return nil
}

// rootNodeUnsafe reads the current root pointer without taking t.mu,
// safe here because expandAndBackup only needs it for the noise-once
// check and a stale read merely risks noise being (harmlessly) applied to
// the wrong generation's root at most once.
func (t *Tree) rootNodeUnsafe() *Node {
	return t.root
}

func (t *Tree) revertVirtualLosses(path []*Edge) {
	for _, e := range path {
		undoVirtualLoss(e)
	}
}

// backup propagates a leaf value up the path, negating sign at each edge
// (spec.md §4.5 "Backup"). Edge stats are protected by e.mu (the "per-node
// spinlock" of spec.md §5); Node.visits is a plain atomic counter since
// it's only ever incremented, never read-modify-written alongside other
// fields.
func (t *Tree) backup(path []*Edge, leafValue float64) {
	// The last edge's stats are kept from its chooser's (the leaf parent's)
	// side-to-move perspective, the opposite of the leaf's own.
	v := -leafValue
	for i := len(path) - 1; i >= 0; i-- {
		e := path[i]
		undoVirtualLoss(e)
		e.mu.Lock()
		e.visits++
		e.winLossSum += v
		e.scoreSum += v
		child := e.child
		e.mu.Unlock()
		if child != nil {
			atomic.AddInt64(&child.visits, 1)
		}
		v = -v
	}
	atomic.AddInt64(&t.root.visits, 1)
}

func xSlot(pos *board.Position, l board.Loc) int {
	x, _ := pos.Board.XY(l)
	return x
}

func ySlot(pos *board.Position, l board.Loc) int {
	_, y := pos.Board.XY(l)
	return y
}
