package rules

import (
	"testing"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/core"
)

// TestClassifyMoveDetectsFiveInARow covers spec.md §8 scenario 1:
// getMovePriority must tag the move that completes five-in-a-row as Five.
func TestClassifyMoveDetectsFiveInARow(t *testing.T) {
	pos := board.NewPosition(15, 15)
	for x := 2; x <= 5; x++ {
		pos.PlayMove(core.Black, pos.Board.Loc(x, 5))
	}

	completing := pos.Board.Loc(6, 5)
	got := ClassifyMove(pos, false, core.Black, completing)
	if got != Five {
		t.Fatalf("ClassifyMove at the five-completing cell = %v, want Five", got)
	}
}

// TestIsForbiddenFalseWheneverPriorityIsFive covers the spec.md §8
// invariant: isForbidden must never veto a move that completes five, even
// under Renju.
func TestIsForbiddenFalseWheneverPriorityIsFive(t *testing.T) {
	pos := board.NewPosition(15, 15)
	for x := 2; x <= 5; x++ {
		pos.PlayMove(core.Black, pos.Board.Loc(x, 5))
	}

	completing := pos.Board.Loc(6, 5)
	if priority := ClassifyMove(pos, true, core.Black, completing); priority != Five {
		t.Fatalf("expected Five priority at the completing cell, got %v", priority)
	}
	if IsForbidden(pos, completing) {
		t.Fatal("IsForbidden returned true for a move that completes five")
	}
}

// TestIsForbiddenDetectsDoubleThree covers spec.md §8 scenario 2: a Black
// move that simultaneously opens two unblocked three-in-a-rows (one
// horizontal, one vertical, crossing at the candidate cell) is a forbidden
// Renju double-three.
func TestIsForbiddenDetectsDoubleThree(t *testing.T) {
	pos := board.NewPosition(15, 15)

	// Horizontal arm: stones at x=3,4 with the candidate at x=5, y=5.
	pos.PlayMove(core.Black, pos.Board.Loc(3, 5))
	pos.PlayMove(core.Black, pos.Board.Loc(4, 5))

	// Vertical arm: stones at y=3,4 with the candidate at x=5, y=5.
	pos.PlayMove(core.Black, pos.Board.Loc(5, 3))
	pos.PlayMove(core.Black, pos.Board.Loc(5, 4))

	candidate := pos.Board.Loc(5, 5)
	if !IsForbidden(pos, candidate) {
		t.Fatal("expected a double-three to be forbidden, got not forbidden")
	}
}

// TestIsLegalDefenseRejectsForbiddenBlock checks that IsLegalDefense only
// applies the forbidden-move filter to Black under Renju, the defender-side
// use vcf.Solve relies on.
func TestIsLegalDefenseRejectsForbiddenBlock(t *testing.T) {
	pos := board.NewPosition(15, 15)
	if !IsLegalDefense(pos, false, core.Black, pos.Board.Loc(7, 7)) {
		t.Fatal("an empty cell with no Renju rules active should always be a legal defense")
	}
	if !IsLegalDefense(pos, true, core.White, pos.Board.Loc(7, 7)) {
		t.Fatal("Renju forbidden-move rules only constrain Black")
	}

	// The double-three point from TestIsForbiddenDetectsDoubleThree is not a
	// legal defense for Black under Renju.
	pos.PlayMove(core.Black, pos.Board.Loc(3, 5))
	pos.PlayMove(core.Black, pos.Board.Loc(4, 5))
	pos.PlayMove(core.Black, pos.Board.Loc(5, 3))
	pos.PlayMove(core.Black, pos.Board.Loc(5, 4))
	if IsLegalDefense(pos, true, core.Black, pos.Board.Loc(5, 5)) {
		t.Fatal("a forbidden cell should not be a legal defense for Black under Renju")
	}
}

// TestBoardPrioritiesTagsUniqueOppFourDefense checks that BoardPriorities
// tags the one cell that blocks a lone opponent single-four as OppFour, per
// spec.md §4.1.
func TestBoardPrioritiesTagsUniqueOppFourDefense(t *testing.T) {
	pos := board.NewPosition(15, 15)
	// White builds a single four against the left wall: x=0..3 row y=7.
	// The wall blocks the backward extension, leaving x=4 as the only cell
	// that would complete five.
	for x := 0; x <= 3; x++ {
		pos.PlayMove(core.White, pos.Board.Loc(x, 7))
	}

	defense := pos.Board.Loc(4, 7)
	priorities := BoardPriorities(pos, false, core.Black)
	if priorities[defense] != OppFour {
		t.Fatalf("expected the lone escape cell tagged OppFour, got %v", priorities[defense])
	}
}
