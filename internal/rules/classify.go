package rules

import (
	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/core"
)

// scanLine scans the two opposite directions of offset `step` outward from
// loc, as if pla already occupied loc, and returns the combined run.
// The cell at `loc` itself is never read, so callers can classify a
// hypothetical stone there without mutating the position.
func scanLine(pos *board.Position, pla core.Color, loc board.Loc, step board.Loc) lineRun {
	length := 1
	cur := loc + step
	for pos.Get(cur) == pla {
		length++
		cur += step
	}
	forwardOpen := pos.Get(cur) == core.Empty
	forwardEnd := cur

	cur = loc - step
	for pos.Get(cur) == pla {
		length++
		cur -= step
	}
	backwardOpen := pos.Get(cur) == core.Empty
	_ = forwardEnd

	return lineRun{length: length, forwardOpen: forwardOpen, backwardOpen: backwardOpen}
}

// fourOpenEnds counts a run's open ends; for a length-4 run, 2 = life four (both ends open),
// 1 = single four (exactly one end open), 0 = dead (blocked both ends).
func (r lineRun) fourOpenEnds() int {
	n := 0
	if r.forwardOpen {
		n++
	}
	if r.backwardOpen {
		n++
	}
	return n
}

// classifyLines scans all four lines through loc for a hypothetical pla
// stone, returning whether any line makes a five, an overline (6+), a
// life-four (open four), or a single four.
func classifyLines(pos *board.Position, pla core.Color, loc board.Loc) (isFive, isOverline, isLifeFour, isFour bool) {
	offs := pos.Board.Offs.Dirs
	for _, step := range offs {
		run := scanLine(pos, pla, loc, step)
		switch {
		case run.length == 5:
			isFive = true
		case run.length >= 6:
			isOverline = true
		case run.length == 4:
			switch run.fourOpenEnds() {
			case 2:
				isLifeFour = true
			case 1:
				isFour = true
			}
		}
	}
	return
}

// wouldBeFive reports whether pla playing at loc (currently Empty) would
// complete a five-in-a-row. Equivalent to spec.md §8's
// "getMovePriority(pla, loc) == Five" invariant, exposed standalone because
// the forbidden-point test and the opponent-four scan both need it without
// paying for the rest of classification.
func wouldBeFive(pos *board.Position, pla core.Color, loc board.Loc) bool {
	isFive, _, _, _ := classifyLines(pos, pla, loc)
	return isFive
}

// WouldBeFive is the exported form of wouldBeFive, used by internal/vcf to
// find the attacker's live winning cells without running the rest of move
// classification.
func WouldBeFive(pos *board.Position, pla core.Color, loc board.Loc) bool {
	return wouldBeFive(pos, pla, loc)
}

// IsLegalDefense reports whether pla may legally occupy loc right now: the
// cell must be empty, and if pla is Black under Renju, the move must not be
// forbidden (spec.md §4.2: "Under Renju black must additionally filter out
// forbidden empty cells in the threat list before claiming a win" — this is
// the same filter applied from the defender's side, used by internal/vcf to
// tell a real escape from a move Black isn't allowed to make).
func IsLegalDefense(pos *board.Position, renju bool, pla core.Color, loc board.Loc) bool {
	if pos.Get(loc) != core.Empty {
		return false
	}
	if renju && pla == core.Black && IsForbidden(pos, loc) {
		return false
	}
	return true
}

// FourCandidates returns every empty cell where pla playing there creates at
// least one four (including an outright five), ordered most-severe first:
// Five completions, then life-fours (open, two ways to five), then single
// fours. This is exactly the "only my moves that create at least one four
// are ever tried" restriction from spec.md §4.2.
func FourCandidates(pos *board.Position, renju bool, pla core.Color) []board.Loc {
	var fives, lifeFours, fours []board.Loc
	pos.Board.AllLocs(func(l board.Loc) {
		if pos.Get(l) != core.Empty {
			return
		}
		if renju && pla == core.Black && IsForbidden(pos, l) && !wouldBeFive(pos, pla, l) {
			return
		}
		isFive, isOverline, isLifeFour, isFour := classifyLines(pos, pla, l)
		switch {
		case isFive || (isOverline && !(renju && pla == core.Black)):
			fives = append(fives, l)
		case isLifeFour:
			lifeFours = append(lifeFours, l)
		case isFour:
			fours = append(fours, l)
		}
	})
	out := make([]board.Loc, 0, len(fives)+len(lifeFours)+len(fours))
	out = append(out, fives...)
	out = append(out, lifeFours...)
	out = append(out, fours...)
	return out
}

// BoardPriorities classifies every empty cell on the board for `pla` to
// move, in one pass. Renju forbidden-point rules apply only when renju is
// true and pla is core.Black.
func BoardPriorities(pos *board.Position, renju bool, pla core.Color) map[board.Loc]Priority {
	opp := pla.Opponent()
	result := make(map[board.Loc]Priority)

	// First pass: find every cell where the opponent would complete five if
	// it were their move right now (spec.md §4.1's OppFour tag: "defends
	// opponent's four"). If there's exactly one such cell, it's the unique
	// defensive move; if there are two or more, the position is already
	// lost to an unstoppable double threat and no single cell can be tagged
	// OppFour (nothing blocks both).
	var oppWinCells []board.Loc
	pos.Board.AllLocs(func(l board.Loc) {
		if pos.Get(l) != core.Empty {
			return
		}
		if wouldBeFive(pos, opp, l) {
			oppWinCells = append(oppWinCells, l)
		}
	})
	var oppFourCell board.Loc = board.NullLoc
	if len(oppWinCells) == 1 {
		oppFourCell = oppWinCells[0]
	}

	pos.Board.AllLocs(func(l board.Loc) {
		if pos.Get(l) != core.Empty {
			result[l] = Illegal
			return
		}
		result[l] = classifyOne(pos, renju, pla, l, oppFourCell)
	})
	return result
}

// classifyOne classifies a single empty cell, given the precomputed unique
// opponent-four defense cell (or board.NullLoc if none/ambiguous).
func classifyOne(pos *board.Position, renju bool, pla core.Color, loc board.Loc, oppFourCell board.Loc) Priority {
	isFive, isOverline, isLifeFour, isFour := classifyLines(pos, pla, loc)

	if renju && pla == core.Black {
		forbidden := IsForbidden(pos, loc)
		if forbidden && !isFive {
			return Illegal
		}
	} else if isOverline {
		// Overline is a win for everyone except Renju Black (spec.md
		// §4.1(ii)): treat it exactly like completing five.
		isFive = true
	}

	switch {
	case isFive:
		return Five
	case loc == oppFourCell:
		return OppFour
	case isLifeFour:
		return MyLifeFour
	case isFour:
		return VCF
	}

	if hasNearbyStone(pos, loc, usefulNeighborRadius) {
		return Normal
	}
	return Useless
}

// ClassifyMove classifies a single cell, giving it the same tag
// BoardPriorities would, for callers (and tests) that only need one cell's
// tag.
func ClassifyMove(pos *board.Position, renju bool, pla core.Color, loc board.Loc) Priority {
	if pos.Get(loc) != core.Empty {
		return Illegal
	}
	opp := pla.Opponent()
	var oppFourCell board.Loc = board.NullLoc
	count := 0
	pos.Board.AllLocs(func(l board.Loc) {
		if pos.Get(l) == core.Empty && wouldBeFive(pos, opp, l) {
			count++
			oppFourCell = l
		}
	})
	if count != 1 {
		oppFourCell = board.NullLoc
	}
	return classifyOne(pos, renju, pla, loc, oppFourCell)
}

// hasNearbyStone reports whether any stone (either color) lies within
// Chebyshev distance `radius` of loc. Used to tell Normal from Useless.
func hasNearbyStone(pos *board.Position, loc board.Loc, radius int) bool {
	x, y := pos.Board.XY(loc)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if !pos.Board.InBounds(nx, ny) {
				continue
			}
			c := pos.GetXY(nx, ny)
			if c == core.Black || c == core.White {
				return true
			}
		}
	}
	return false
}
