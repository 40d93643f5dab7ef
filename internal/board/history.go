package board

import "github.com/hailam/chessplay/internal/core"

// RecentBoardsDepth is K, the number of past boards kept in the ring buffer
// for use as NN input "past-move markers" (spec.md §3 "History",
// §4.3 "optional past-move markers").
const RecentBoardsDepth = 5

// MoveRecord is one played move, kept for replay/undo and PV reporting.
type MoveRecord struct {
	Pla core.Color
	Loc Loc
}

// History is a Position plus everything needed to reconstruct recent
// context for the net and to undo back to any earlier point. Spec.md §3
// "History" — invariants: the ring buffer is consistent with the move list;
// once finished, further moves reset the finished flag only via explicit
// new-game (enforced by NewGame, never by Undo).
type History struct {
	Pos *Position

	Moves []MoveRecord

	// recent is a ring buffer of up to RecentBoardsDepth past cell-array
	// snapshots, most recent last. Index recent[len-1] is always the
	// pre-move board (the one before the most recent move), mirroring the
	// teacher's per-ply undo-stack layout (internal/engine/worker.go's
	// undoStack) generalized to whole-board snapshots instead of per-move
	// diffs, since Gomoku moves never remove stones.
	recent [][]core.Color

	undoStack []UndoInfo
}

// NewHistory wraps a fresh position.
func NewHistory(w, h int) *History {
	return &History{Pos: NewPosition(w, h)}
}

// Play plays a move, pushing it onto the move list and the recent-boards
// ring buffer.
func (h *History) Play(pla core.Color, loc Loc) {
	snap := make([]core.Color, len(h.Pos.cells))
	copy(snap, h.Pos.cells)
	h.recent = append(h.recent, snap)
	if len(h.recent) > RecentBoardsDepth {
		h.recent = h.recent[1:]
	}

	undo := h.Pos.PlayMove(pla, loc)
	h.undoStack = append(h.undoStack, undo)
	h.Moves = append(h.Moves, MoveRecord{Pla: pla, Loc: loc})
}

// Undo reverses the most recent Play call. No-op if there is nothing to undo.
func (h *History) Undo() {
	n := len(h.undoStack)
	if n == 0 {
		return
	}
	h.Pos.Undo(h.undoStack[n-1])
	h.undoStack = h.undoStack[:n-1]
	h.Moves = h.Moves[:len(h.Moves)-1]
	if m := len(h.recent); m > 0 {
		h.recent = h.recent[:m-1]
	}
}

// RecentBoard returns the cell array from `back` plies ago (0 = current),
// or nil if there isn't that much history yet. Used by internal/nninput to
// fill past-move feature planes.
func (h *History) RecentBoard(back int) []core.Color {
	if back == 0 {
		return h.Pos.cells
	}
	idx := len(h.recent) - back
	if idx < 0 || idx >= len(h.recent) {
		return nil
	}
	return h.recent[idx]
}

// NewGame clears the history back to an empty board of the same size,
// explicitly resetting the finished flag (spec.md §3: "once finished,
// further moves reset the finished flag only via explicit new-game").
func (h *History) NewGame() {
	w, hh := h.Pos.Board.W, h.Pos.Board.H
	h.Pos = NewPosition(w, hh)
	h.Moves = nil
	h.recent = nil
	h.undoStack = nil
}

// Resign marks the game finished by resignation in favor of the opponent of
// `who`.
func (h *History) Resign(who core.Color) {
	h.Pos.Resigned = true
	h.Pos.MarkFinished(who.Opponent())
}
