// Package board implements the Gomoku/Renju position model: a walled flat
// grid addressed by a single Loc integer, 128-bit Zobrist hashing, and the
// move history ring buffer. Generalizes the teacher's 8x8 bitboard
// (internal/board/position.go, square.go in hailam/chessplay) to the spec's
// variable-size (W+2)x(H+2) walled array (spec.md §3, §4.1).
package board

import (
	"fmt"

	"github.com/hailam/chessplay/internal/core"
)

// Loc is a single integer addressing one cell of the walled grid, including
// the wall border. Spec.md §4.1: "indexed by a Loc integer".
type Loc int32

// NullLoc is a sentinel for "no location" (e.g. resignation, no move found).
const NullLoc Loc = -1

// PassLoc is the sentinel for the policy vector's final "pass" slot
// (spec.md §3 "NN output": "policy[boardArea+1], ... a final pass slot").
const PassLoc Loc = -2

// Adjacency offsets, precomputed per board from its stride (spec.md §4.1:
// "eight adjacency offsets (4 orthogonal, 4 diagonal) are precomputed from
// the stride"). Index order matches the four scan directions used by the
// move-priority classifier and the VCF solver: 0=horizontal(-), 1=vertical(|),
// 2=diagonal(/), 3=diagonal(\).
type Offsets struct {
	Dirs [4]Loc // the "positive" step for each of the 4 lines through a cell
}

func newOffsets(stride int) Offsets {
	return Offsets{Dirs: [4]Loc{
		1,                  // -  horizontal
		Loc(stride),        // |  vertical
		Loc(stride) - 1,    // /  diagonal (up-right to down-left in row-major y-down layout)
		Loc(stride) + 1,    // \  diagonal
	}}
}

// Board is the immutable shape/geometry of a position: size and stride.
// Kept separate from Position's mutable cell contents the way the teacher
// keeps square.go's pure-geometry helpers apart from position.go's mutable
// state.
type Board struct {
	W, H   int
	Stride int // W + 2, includes one wall column on each side
	Height int // H + 2, includes one wall row on each side
	Offs   Offsets
}

// NewBoard builds the geometry for a w x h playing area. Panics if the size
// exceeds core.MaxBoardSide, matching the spec's compile-time maximum.
func NewBoard(w, h int) Board {
	if w <= 0 || h <= 0 || w > core.MaxBoardSide || h > core.MaxBoardSide {
		panic(fmt.Sprintf("board: invalid size %dx%d (max %d)", w, h, core.MaxBoardSide))
	}
	stride := w + 2
	return Board{W: w, H: h, Stride: stride, Height: h + 2, Offs: newOffsets(stride)}
}

// Loc returns the Loc for in-bounds play coordinates (0-indexed).
func (b Board) Loc(x, y int) Loc {
	return Loc((y+1)*b.Stride + (x + 1))
}

// XY decodes a Loc back to play coordinates. Only meaningful for locations
// inside the playable area; walls decode to coordinates outside [0,W)x[0,H).
func (b Board) XY(l Loc) (x, y int) {
	x = int(l)%b.Stride - 1
	y = int(l)/b.Stride - 1
	return
}

// InBounds reports whether (x, y) is within the playable W x H area.
func (b Board) InBounds(x, y int) bool {
	return x >= 0 && x < b.W && y >= 0 && y < b.H
}

// Area is the number of playable cells.
func (b Board) Area() int {
	return b.W * b.H
}

// AllLocs calls fn for every in-bounds Loc, in row-major order.
func (b Board) AllLocs(fn func(Loc)) {
	for y := 0; y < b.H; y++ {
		base := (y + 1) * b.Stride
		for x := 0; x < b.W; x++ {
			fn(Loc(base + x + 1))
		}
	}
}
