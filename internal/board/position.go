package board

import (
	"fmt"

	"github.com/hailam/chessplay/internal/core"
)

// Position is a single Gomoku/Renju board state: cell contents, Zobrist
// hash, side to move, and move count. Spec.md §3 "Position".
//
// Invariant: hash equals the XOR of every placed cell's Zobrist component,
// the board-size component, and the side-to-move component (verified by
// internal/board's tests and relied on by every transposition cache in the
// engine).
type Position struct {
	Board Board
	cells []core.Color // length Stride*Height, walls pre-filled with core.Wall

	Hash       core.Hash128
	PlaToMove  core.Color // core.Black or core.White
	MoveCount  int
	Finished   bool
	Winner     core.Color // core.Empty means draw/no-result
	Resigned   bool
}

// NewPosition creates an empty w x h board with Black to move.
func NewPosition(w, h int) *Position {
	core.EnsureTablesInitialized()
	b := NewBoard(w, h)
	cells := make([]core.Color, b.Stride*b.Height)
	for i := range cells {
		cells[i] = core.Wall
	}
	b.AllLocs(func(l Loc) { cells[l] = core.Empty })

	p := &Position{
		Board:     b,
		cells:     cells,
		PlaToMove: core.Black,
	}
	p.Hash = core.ZobristSize(b.W, b.H)
	// Black moves first with no side-to-move component XORed in; White's
	// turn XORs in ZobristSideToMove (spec.md §3: "differing only in the
	// side-to-move produce different hashes").
	return p
}

// Get returns the color at a location (including Wall for border cells).
func (p *Position) Get(l Loc) core.Color {
	return p.cells[l]
}

// GetXY returns the color at play coordinates (x, y).
func (p *Position) GetXY(x, y int) core.Color {
	return p.cells[p.Board.Loc(x, y)]
}

// UndoInfo captures everything needed to reverse one playMove/setStone call.
// Mirrors the teacher's board.UndoInfo (internal/board/position.go in
// hailam/chessplay) generalized from piece-capture bookkeeping to the
// simpler "one stone placed, nothing removed" Gomoku move.
type UndoInfo struct {
	Loc       Loc
	Pla       core.Color
	PrevHash  core.Hash128
	PrevCount int
	PrevFinished bool
	PrevWinner   core.Color
	wasSetStone  bool
}

// PlayMove places pla's stone at loc, toggles the side to move, and
// increments the move count (spec.md §4.1 "playMove"). It asserts (panics)
// the cell is empty and the game is not finished — kind 2 "illegal search
// state" per spec.md §7, a programmer bug, never a user-triggered path
// (callers must check legality/forbidden-ness before calling this).
func (p *Position) PlayMove(pla core.Color, loc Loc) UndoInfo {
	if p.Finished {
		panic("board: PlayMove called on a finished game")
	}
	if p.cells[loc] != core.Empty {
		panic("board: PlayMove called on a non-empty cell")
	}
	undo := UndoInfo{Loc: loc, Pla: pla, PrevHash: p.Hash, PrevCount: p.MoveCount, PrevFinished: p.Finished, PrevWinner: p.Winner}

	x, y := p.Board.XY(loc)
	p.cells[loc] = pla
	p.Hash = p.Hash.XOR(core.ZobristCell(pla, x, y))
	p.Hash = p.Hash.XOR(core.ZobristSideToMove())
	p.PlaToMove = pla.Opponent()
	p.MoveCount++
	return undo
}

// SetStone places pla's stone for initial setup (e.g. replaying a BOARD
// command) without toggling the side to move or move count. Rejects
// non-empty cells (spec.md §4.1: "must reject moves onto non-empty cells").
func (p *Position) SetStone(pla core.Color, loc Loc) (UndoInfo, error) {
	if p.cells[loc] != core.Empty {
		return UndoInfo{}, fmt.Errorf("board: SetStone on non-empty cell %v", loc)
	}
	undo := UndoInfo{Loc: loc, Pla: pla, PrevHash: p.Hash, PrevCount: p.MoveCount, wasSetStone: true}
	x, y := p.Board.XY(loc)
	p.cells[loc] = pla
	p.Hash = p.Hash.XOR(core.ZobristCell(pla, x, y))
	return undo, nil
}

// Undo reverses the effect of PlayMove or SetStone described by undo. The
// board and hash are bit-identical to their state before the matching call
// (spec.md §8 invariant).
func (p *Position) Undo(undo UndoInfo) {
	p.cells[undo.Loc] = core.Empty
	p.Hash = undo.PrevHash
	p.MoveCount = undo.PrevCount
	p.Finished = undo.PrevFinished
	p.Winner = undo.PrevWinner
	if !undo.wasSetStone {
		p.PlaToMove = undo.Pla
	}
}

// MarkFinished records a terminal result, XORing in the game-over component
// so that finished and in-progress positions with identical stones never
// collide in a hash table.
func (p *Position) MarkFinished(winner core.Color) {
	if p.Finished {
		return
	}
	p.Finished = true
	p.Winner = winner
	p.Hash = p.Hash.XOR(core.ZobristGameOver())
}

// Clone returns a deep copy of the position, used when a search worker needs
// an independent board to descend with (spec.md §4.6 worker loop applies
// moves on the way down and reverses them on backup; a clone lets workers
// run PlayMove/Undo without racing the shared root).
func (p *Position) Clone() *Position {
	cp := &Position{
		Board:     p.Board,
		cells:     make([]core.Color, len(p.cells)),
		Hash:      p.Hash,
		PlaToMove: p.PlaToMove,
		MoveCount: p.MoveCount,
		Finished:  p.Finished,
		Winner:    p.Winner,
		Resigned:  p.Resigned,
	}
	copy(cp.cells, p.cells)
	return cp
}

// String renders the board for debugging (`d` style commands).
func (p *Position) String() string {
	s := ""
	for y := 0; y < p.Board.H; y++ {
		for x := 0; x < p.Board.W; x++ {
			switch p.GetXY(x, y) {
			case core.Black:
				s += "X"
			case core.White:
				s += "O"
			default:
				s += "."
			}
		}
		s += "\n"
	}
	return s
}
