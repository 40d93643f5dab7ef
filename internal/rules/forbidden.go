package rules

import (
	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/core"
)

// quickFilterRadius and quickFilterMinStones implement spec.md §4.1's
// short-circuit: "A quick local filter (at least two Black stones within a
// small neighborhood) short-circuits empty regions", grounded on
// original_source/cpp/forbiddenPoint/ForbiddenPointFinder.cpp's early-out
// before running the full direction scan.
const (
	quickFilterRadius     = 5
	quickFilterMinStones  = 2
	maxRecursiveCheckDepth = 1
)

// IsForbidden reports whether Black playing at loc (currently Empty) is a
// forbidden Renju move: overline, double-four, or double-three, with an
// immediate five always taking precedence (never forbidden). Spec.md §4.1,
// §8 invariant "isForbidden(loc) is false whenever getMovePriority(Black,
// loc) == Five".
func IsForbidden(pos *board.Position, loc board.Loc) bool {
	return isForbiddenDepth(pos, loc, maxRecursiveCheckDepth)
}

func isForbiddenDepth(pos *board.Position, loc board.Loc, depth int) bool {
	if !hasNearbyStone2(pos, loc, quickFilterRadius, core.Black, quickFilterMinStones) {
		return false
	}

	isFive, isOverline, _, _ := classifyLines(pos, core.Black, loc)
	if isFive {
		return false
	}
	if isOverline {
		return true
	}

	offs := pos.Board.Offs.Dirs
	fourCount := 0
	openThreeCount := 0
	for _, step := range offs {
		run := scanLine(pos, core.Black, loc, step)
		if run.length == 4 && run.fourOpenEnds() >= 1 {
			fourCount++
		}
		if run.length == 3 && run.forwardOpen && run.backwardOpen && depth > 0 {
			if isGenuineOpenThree(pos, loc, step, depth) {
				openThreeCount++
			}
		}
	}

	if fourCount >= 2 {
		return true
	}
	if openThreeCount >= 2 {
		return true
	}
	return false
}

// isGenuineOpenThree implements the recursive clause of spec.md §4.1: "An
// open-three is defined recursively: a move that, if played, would create a
// four that is itself neither a double-four nor a double-three nor an
// overline for the same color." We check both open extension cells; the
// three only counts if at least one extension completes it into a four
// that is not itself forbidden.
func isGenuineOpenThree(pos *board.Position, loc board.Loc, step board.Loc, depth int) bool {
	forwardExt := extensionCell(pos, loc, step)
	backwardExt := extensionCell(pos, loc, -step)

	for _, ext := range []board.Loc{forwardExt, backwardExt} {
		if ext == board.NullLoc {
			continue
		}
		if pos.Get(ext) != core.Empty {
			continue
		}
		undoLoc, err := pos.SetStone(core.Black, loc)
		if err != nil {
			continue
		}
		undoExt, err := pos.SetStone(core.Black, ext)
		if err != nil {
			pos.Undo(undoLoc)
			continue
		}
		// Both stones are on the board now; ask whether the four just
		// completed at ext is itself a forbidden shape.
		forbiddenFour := isForbiddenDepth(pos, ext, depth-1)
		pos.Undo(undoExt)
		pos.Undo(undoLoc)
		if !forbiddenFour {
			return true
		}
	}
	return false
}

// extensionCell walks from loc in direction step through the contiguous
// Black run and returns the first cell past it, if that cell is Empty
// (NullLoc otherwise).
func extensionCell(pos *board.Position, loc board.Loc, step board.Loc) board.Loc {
	cur := loc
	for pos.Get(cur+step) == core.Black {
		cur += step
	}
	candidate := cur + step
	if pos.Get(candidate) == core.Empty {
		return candidate
	}
	return board.NullLoc
}

// hasNearbyStone2 reports whether at least `min` stones of color c lie
// within Chebyshev distance radius of loc.
func hasNearbyStone2(pos *board.Position, loc board.Loc, radius int, c core.Color, min int) bool {
	x, y := pos.Board.XY(loc)
	count := 0
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if !pos.Board.InBounds(nx, ny) {
				continue
			}
			if pos.GetXY(nx, ny) == c {
				count++
				if count >= min {
					return true
				}
			}
		}
	}
	return false
}
