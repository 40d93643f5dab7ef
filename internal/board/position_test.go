package board

import (
	"testing"

	"github.com/hailam/chessplay/internal/core"
)

// TestPlayMoveUndoRestoresPosition checks spec.md §8's playMove+undo
// round-trip identity: the board and hash must be bit-identical to their
// state before the matching PlayMove call.
func TestPlayMoveUndoRestoresPosition(t *testing.T) {
	pos := NewPosition(9, 9)
	before := pos.Hash
	beforeCells := append([]core.Color(nil), pos.cells...)

	loc := pos.Board.Loc(4, 4)
	undo := pos.PlayMove(core.Black, loc)
	if pos.Get(loc) != core.Black {
		t.Fatalf("expected stone at %v after PlayMove, got %v", loc, pos.Get(loc))
	}

	pos.Undo(undo)
	if pos.Hash != before {
		t.Fatalf("hash after undo = %+v, want %+v", pos.Hash, before)
	}
	for i, c := range pos.cells {
		if c != beforeCells[i] {
			t.Fatalf("cell %d = %v after undo, want %v", i, c, beforeCells[i])
		}
	}
	if pos.PlaToMove != core.Black {
		t.Fatalf("side to move after undo = %v, want Black", pos.PlaToMove)
	}
}

// TestSetStoneUndoRestoresPosition exercises the same round-trip for
// SetStone (used to replay a BOARD command), which doesn't toggle the side
// to move.
func TestSetStoneUndoRestoresPosition(t *testing.T) {
	pos := NewPosition(9, 9)
	before := pos.Hash

	loc := pos.Board.Loc(0, 0)
	undo, err := pos.SetStone(core.White, loc)
	if err != nil {
		t.Fatalf("SetStone: %v", err)
	}

	pos.Undo(undo)
	if pos.Hash != before {
		t.Fatalf("hash after undo = %+v, want %+v", pos.Hash, before)
	}
	if pos.Get(loc) != core.Empty {
		t.Fatalf("cell %v = %v after undo, want Empty", loc, pos.Get(loc))
	}
}

// TestHashMatchesAfterReplay covers spec.md §8's hash(position) ==
// hash(replay(moves)) invariant: undoing a whole game back to the start and
// replaying the exact same moves must land on the same hash as before the
// undo.
func TestHashMatchesAfterReplay(t *testing.T) {
	h := NewHistory(9, 9)
	moves := []MoveRecord{
		{Pla: core.Black, Loc: h.Pos.Board.Loc(4, 4)},
		{Pla: core.White, Loc: h.Pos.Board.Loc(4, 5)},
		{Pla: core.Black, Loc: h.Pos.Board.Loc(5, 4)},
		{Pla: core.White, Loc: h.Pos.Board.Loc(5, 5)},
	}

	for _, m := range moves {
		h.Play(m.Pla, m.Loc)
	}
	finalHash := h.Pos.Hash

	for range moves {
		h.Undo()
	}
	if len(h.Moves) != 0 {
		t.Fatalf("expected empty move list after undoing every move, got %d", len(h.Moves))
	}

	for _, m := range moves {
		h.Play(m.Pla, m.Loc)
	}
	if h.Pos.Hash != finalHash {
		t.Fatalf("hash after replay = %+v, want %+v", h.Pos.Hash, finalHash)
	}
}

// TestDifferentPositionsHashDifferently is a basic sanity check that the
// Zobrist scheme actually distinguishes stone layouts, not a collision proof.
func TestDifferentPositionsHashDifferently(t *testing.T) {
	a := NewPosition(9, 9)
	a.PlayMove(core.Black, a.Board.Loc(3, 3))

	b := NewPosition(9, 9)
	b.PlayMove(core.Black, b.Board.Loc(3, 4))

	if a.Hash == b.Hash {
		t.Fatal("two positions with stones on different cells hashed identically")
	}
}
