// Package vcf implements the Victory-by-Continuous-Fours threat solver
// (spec.md §4.2): alpha-beta search restricted to four-creating attacker
// moves and four-defending defender moves, backed by a bucketed
// transposition cache. Grounded on the teacher's
// internal/engine/transposition.go (power-of-two bucket table, age-based
// replacement, race-tolerant probe) retargeted from a depth/score TT to a
// status/winning-move TT, and on
// original_source/cpp/vcfsolver/vcfsolver.h for the contract and node-budget
// semantics.
package vcf

import (
	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/core"
	"github.com/hailam/chessplay/internal/rules"
)

// Status is the outcome of a VCF solve (spec.md §4.2 contract).
type Status int

const (
	// Aborted means the node budget ran out before resolution — "not proven
	// either way" (spec.md §7 kind 4: budget exhaustion is not an error).
	Aborted Status = iota
	ProvenWin
	Disproven
)

func (s Status) String() string {
	switch s {
	case ProvenWin:
		return "ProvenWin"
	case Disproven:
		return "Disproven"
	default:
		return "Aborted"
	}
}

// Result is the solver's output.
type Result struct {
	Status Status
	Move   board.Loc // meaningful only when Status == ProvenWin
	Depth  int       // attacker plies to the proven five
	Nodes  int       // nodes consumed by this solve call
}

// DefaultNodeBudget bounds a single Solve call; callers that need a cheaper,
// less-certain probe (e.g. internal/nninput filling VCF feature flags)
// should pass a smaller explicit budget instead of changing this default.
const DefaultNodeBudget = 100000

// Solve proves or disproves a forced win for `attacker` from pos, within
// maxNodes recursion steps. renju gates the Renju forbidden-move filter.
func Solve(pos *board.Position, renju bool, attacker core.Color, maxNodes int) Result {
	s := &solver{
		pos:       pos,
		renju:     renju,
		me:        attacker,
		opp:       attacker.Opponent(),
		nodesLeft: maxNodes,
		cache:     globalCache,
	}
	status, move, depth := s.attackerWins()
	return Result{Status: status, Move: move, Depth: depth, Nodes: maxNodes - s.nodesLeft}
}

type solver struct {
	pos       *board.Position
	renju     bool
	me, opp   core.Color
	nodesLeft int
	cache     *transTable
}

// attackerWins returns whether the attacker forces a win from the current
// position (attacker to move), the move that starts the forced sequence,
// and the number of attacker plies remaining until five is completed.
func (s *solver) attackerWins() (Status, board.Loc, int) {
	if s.nodesLeft <= 0 {
		return Aborted, board.NullLoc, 0
	}
	s.nodesLeft--

	key := s.cacheKey()
	if cached, ok := s.cache.probeKey(key); ok && cached.status != Aborted {
		return cached.status, cached.move, cached.depth
	}

	candidates := rules.FourCandidates(s.pos, s.renju, s.me)
	for _, loc := range candidates {
		if rules.WouldBeFive(s.pos, s.me, loc) {
			s.cache.storeKey(key, ProvenWin, loc, 1)
			return ProvenWin, loc, 1
		}

		undo := s.pos.PlayMove(s.me, loc)
		escapeStatus, _, subPlies := s.defenderEscapes()
		s.pos.Undo(undo)

		if escapeStatus == Aborted {
			return Aborted, board.NullLoc, 0
		}
		if escapeStatus == Disproven { // defender could NOT escape
			s.cache.storeKey(key, ProvenWin, loc, subPlies+1)
			return ProvenWin, loc, subPlies + 1
		}
	}

	s.cache.storeKey(key, Disproven, board.NullLoc, 0)
	return Disproven, board.NullLoc, 0
}

// defenderEscapes reports, from a position where the attacker just made a
// four, whether the defender (opp, to move) has a legal way to survive.
// Its Status is from the attacker's point of view: Disproven means the
// defender found no legal/sufficient reply (the attacker's win is proven
// here); ProvenWin means the defender escaped and the attacker's forcing
// line stops. `plies` is the number of further attacker plies needed once
// the defender has failed to escape.
func (s *solver) defenderEscapes() (status Status, _ board.Loc, plies int) {
	if s.nodesLeft <= 0 {
		return Aborted, board.NullLoc, 0
	}
	s.nodesLeft--

	var winCells []board.Loc
	s.pos.Board.AllLocs(func(l board.Loc) {
		if s.pos.Get(l) == core.Empty && rules.WouldBeFive(s.pos, s.me, l) {
			winCells = append(winCells, l)
		}
	})

	if len(winCells) == 0 {
		// The four just made isn't actually live — nothing forces the
		// defender to do anything in particular. Treat as an escape.
		return ProvenWin, board.NullLoc, 0
	}
	if len(winCells) >= 2 {
		// Double threat: the defender cannot block both cells.
		return Disproven, board.NullLoc, 1
	}

	defenseLoc := winCells[0]
	if !rules.IsLegalDefense(s.pos, s.renju, s.opp, defenseLoc) {
		// The only block is itself illegal (e.g. forbidden for Black).
		return Disproven, board.NullLoc, 1
	}

	undo := s.pos.PlayMove(s.opp, defenseLoc)
	attackStatus, _, subPlies := s.attackerWins()
	s.pos.Undo(undo)

	if attackStatus == Aborted {
		return Aborted, board.NullLoc, 0
	}
	if attackStatus == ProvenWin {
		// The attacker still forces a win after this defense, so it wasn't
		// a real escape.
		return Disproven, board.NullLoc, subPlies
	}
	return ProvenWin, board.NullLoc, 0
}
