// Package rules implements the Gomoku/Renju move-priority classifier and the
// Renju forbidden-point test (spec.md §4.1). It consumes internal/board's
// Position but owns none of its invariants — the way the teacher keeps
// internal/engine's move ordering logic in a package that only reads
// internal/board, never mutates its invariants directly.
package rules

// Priority is the move-priority tag from spec.md §3 "Move-priority tag",
// ordered from most to least urgent. The zero value is the most severe
// (Illegal) only by coincidence of declaration order below; callers should
// always compare against the named constants, never the raw int.
type Priority int

const (
	Illegal Priority = iota
	Five             // completes five-in-a-row
	OppFour          // defends opponent's unanswered four
	MyLifeFour       // creates a four with two ways to make five
	VCF              // creates a single four (a forcing move)
	Normal
	Useless
)

func (p Priority) String() string {
	switch p {
	case Illegal:
		return "Illegal"
	case Five:
		return "Five"
	case OppFour:
		return "OppFour"
	case MyLifeFour:
		return "MyLifeFour"
	case VCF:
		return "VCF"
	case Normal:
		return "Normal"
	default:
		return "Useless"
	}
}

// lineRun describes the result of scanning one of the four lines through a
// candidate cell, as if pla's stone were already placed there (spec.md
// §4.1: "scan outward counting consecutive own stones until a non-own cell
// is hit").
type lineRun struct {
	length      int  // total consecutive own-color run including the candidate cell
	forwardOpen bool // the cell just past the forward end is Empty
	backwardOpen bool // the cell just past the backward end is Empty
}

// usefulNeighborRadius is how far Useless-detection looks for an existing
// stone before giving up on a candidate cell.
const usefulNeighborRadius = 2
