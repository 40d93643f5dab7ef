// Package timecontrol maps remaining clock time to a (min, recommended,
// max) search-time budget for one move (spec.md §7). Grounded on the
// teacher's internal/engine/timeman.go TimeManager: sudden-death moves-to-go
// estimation, a maximum bounded by a multiple of the recommended time and a
// fraction of what's left, and stability-based shrink/grow adjustments —
// generalized from per-ply chess time control to per-move Gomoku time
// control (no increment-heavy endgame phases to model, a simpler
// moves-to-go curve since games are much shorter).
package timecontrol

import "time"

// Limits are the clock parameters supplied by the protocol layer for one
// side (spec.md §7: "wall clock time remaining, per-move increment,
// optional moves-to-go").
type Limits struct {
	Remaining time.Duration
	Increment time.Duration
	MovesToGo int // 0 means sudden death: estimate from move count
	MoveTime  time.Duration // fixed time per move; overrides everything else
	Infinite  bool
}

// Budget is what a single genmove call should target.
type Budget struct {
	Min         time.Duration
	Recommended time.Duration
	Max         time.Duration
}

// movesToGoFloor/Ceil bound the sudden-death move estimate, mirroring
// timeman.go's 10..50 clamp but scaled down for Gomoku's shorter games
// (a 15x15 board has at most 225 plies total, not chess's effectively
// unbounded game length).
const (
	movesToGoFloor = 6
	movesToGoCeil  = 30
)

// Compute derives a move's time budget from the clock state and the current
// move count: the remaining clock divided by an estimated moves-to-go, so
// less time as the clock runs down. The estimate shrinks as the board
// fills, which raises the share of the remaining clock each move gets.
func Compute(lim Limits, moveCount, boardArea int) Budget {
	if lim.MoveTime > 0 {
		return Budget{Min: lim.MoveTime, Recommended: lim.MoveTime, Max: lim.MoveTime}
	}
	if lim.Infinite || lim.Remaining <= 0 {
		return Budget{Min: 0, Recommended: time.Hour, Max: time.Hour}
	}

	mtg := lim.MovesToGo
	if mtg == 0 {
		remainingPlies := boardArea - moveCount
		mtg = remainingPlies / 2
		if mtg < movesToGoFloor {
			mtg = movesToGoFloor
		}
		if mtg > movesToGoCeil {
			mtg = movesToGoCeil
		}
	}

	base := lim.Remaining / time.Duration(mtg)
	base += lim.Increment * 9 / 10

	recommended := base
	if moveCount < 4 {
		// Book-depth moves: keep a little in reserve, mirroring timeman.go's
		// ply<8 shrink for the opening.
		recommended = base * 85 / 100
	}

	maxFromRecommended := recommended * 5
	maxFromRemaining := lim.Remaining * 8 / 10
	max := maxFromRecommended
	if maxFromRemaining < max {
		max = maxFromRemaining
	}
	if safety := lim.Remaining * 95 / 100; max > safety {
		max = safety
	}

	min := recommended / 4
	if min < 10*time.Millisecond {
		min = 10 * time.Millisecond
	}
	if recommended < min {
		recommended = min
	}
	if max < 50*time.Millisecond {
		max = 50 * time.Millisecond
	}
	if max < recommended {
		max = recommended
	}

	return Budget{Min: min, Recommended: recommended, Max: max}
}

// AdjustForStability shrinks the recommended time when the search's best
// move has stopped changing across iterations — the same early-exit
// discipline as timeman.go's AdjustForStability, ported verbatim since the
// thresholds don't depend on chess specifics.
func (b Budget) AdjustForStability(stableIterations int) Budget {
	switch {
	case stableIterations >= 6:
		b.Recommended = b.Recommended * 40 / 100
	case stableIterations >= 4:
		b.Recommended = b.Recommended * 60 / 100
	case stableIterations >= 2:
		b.Recommended = b.Recommended * 80 / 100
	}
	if b.Recommended < b.Min {
		b.Recommended = b.Min
	}
	return b
}

// AdjustForInstability grows the recommended time, up to Max, when the best
// move keeps flipping between iterations.
func (b Budget) AdjustForInstability(changes int) Budget {
	switch {
	case changes >= 4:
		b.Recommended = b.Recommended * 200 / 100
	case changes >= 2:
		b.Recommended = b.Recommended * 150 / 100
	}
	if b.Recommended > b.Max {
		b.Recommended = b.Max
	}
	return b
}
