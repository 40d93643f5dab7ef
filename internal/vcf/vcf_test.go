package vcf

import (
	"testing"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/core"
	"github.com/hailam/chessplay/internal/rules"
)

// TestSolveProvesWinWithinFivePlies covers spec.md §8 scenario 3: a simple
// forced win (an existing four with both ends open) must resolve as
// ProvenWin with a depth no greater than 5 attacker plies.
func TestSolveProvesWinWithinFivePlies(t *testing.T) {
	pos := board.NewPosition(15, 15)
	for x := 2; x <= 5; x++ {
		pos.PlayMove(core.Black, pos.Board.Loc(x, 5))
	}

	result := Solve(pos, false, core.Black, DefaultNodeBudget)
	if result.Status != ProvenWin {
		t.Fatalf("Solve status = %v, want ProvenWin", result.Status)
	}
	if result.Depth > 5 {
		t.Fatalf("Solve depth = %d, want <= 5", result.Depth)
	}
	if !rules.WouldBeFive(pos, core.Black, result.Move) {
		t.Fatalf("Solve's winning move %v does not actually complete five", result.Move)
	}
}

// TestSolveDisprovesAnEmptyBoard checks that Solve correctly reports no
// forced win when the attacker has nothing built yet.
func TestSolveDisprovesAnEmptyBoard(t *testing.T) {
	pos := board.NewPosition(9, 9)

	result := Solve(pos, false, core.Black, DefaultNodeBudget)
	if result.Status != Disproven {
		t.Fatalf("Solve status on an empty board = %v, want Disproven", result.Status)
	}
}

// TestSolveProvesWinForWhiteUnderRenju checks that Renju's forbidden-move
// filter never blocks White, who is unaffected by it even when renju is
// enabled for the game.
func TestSolveProvesWinForWhiteUnderRenju(t *testing.T) {
	pos := board.NewPosition(15, 15)
	for x := 2; x <= 5; x++ {
		pos.PlayMove(core.White, pos.Board.Loc(x, 5))
	}

	result := Solve(pos, true, core.White, DefaultNodeBudget)
	if result.Status != ProvenWin {
		t.Fatalf("Solve status = %v, want ProvenWin", result.Status)
	}
}
