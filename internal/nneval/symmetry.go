package nneval

// Symmetry identifies one of the 8 elements of the board's dihedral
// symmetry group (spec.md §4.4: "the encoder may choose one of 8 board
// symmetries; the evaluator un-symmetrises the policy/ownership before
// storing in the cache under the canonical hash"). Only defined for square
// boards (W == H) — rotations by 90/270 degrees would otherwise swap the
// two distinct dimensions. Callers on a non-square board must stick to
// Identity, Rot180, FlipH, and FlipV, the four symmetries that don't
// require a square.
type Symmetry int

const (
	Identity Symmetry = iota
	Rot90
	Rot180
	Rot270
	FlipH // mirror across the vertical axis (x -> w-1-x)
	FlipV // mirror across the horizontal axis (y -> h-1-y)
	FlipDiag
	FlipAntiDiag
	numSymmetries
)

// AllSymmetries lists every element of the group, for callers (e.g. root
// noise injection) that want to pick one uniformly at random.
var AllSymmetries = [numSymmetries]Symmetry{
	Identity, Rot90, Rot180, Rot270, FlipH, FlipV, FlipDiag, FlipAntiDiag,
}

// Apply maps a canonical (x, y) coordinate to its image under sym, on a
// w x h board.
func (sym Symmetry) Apply(x, y, w, h int) (int, int) {
	switch sym {
	case Identity:
		return x, y
	case Rot90:
		return h - 1 - y, x
	case Rot180:
		return w - 1 - x, h - 1 - y
	case Rot270:
		return y, w - 1 - x
	case FlipH:
		return w - 1 - x, y
	case FlipV:
		return x, h - 1 - y
	case FlipDiag:
		return y, x
	case FlipAntiDiag:
		return h - 1 - y, w - 1 - x
	default:
		return x, y
	}
}

// Inverse returns the symmetry that undoes sym. Every element of this group
// is its own inverse except Rot90/Rot270, which swap.
func (sym Symmetry) Inverse() Symmetry {
	switch sym {
	case Rot90:
		return Rot270
	case Rot270:
		return Rot90
	default:
		return sym
	}
}

// UnsymmetrizePolicy maps a policy vector computed for the symmetry-applied
// board back to canonical-board indexing, so cache entries are always keyed
// and stored in the same (canonical) orientation regardless of which
// symmetry the caller chose to encode (spec.md §4.4, §9 symmetry law).
// policy has length w*h+1, the trailing slot (pass) is symmetry-invariant.
func UnsymmetrizePolicy(policy []float32, sym Symmetry, w, h int) []float32 {
	if sym == Identity {
		out := make([]float32, len(policy))
		copy(out, policy)
		return out
	}
	out := make([]float32, len(policy))
	out[len(out)-1] = policy[len(policy)-1] // pass slot is unaffected
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := sym.Apply(x, y, w, h)
			// policy[sy*w+sx] holds the value for canonical cell (x,y) as
			// seen from the transformed board; read it back into (x,y).
			out[y*w+x] = policy[sy*w+sx]
		}
	}
	return out
}

// UnsymmetrizeOwnership applies the same remapping to an ownership map
// (spec.md §3 "optionalOwnership[boardArea]"), which has no pass slot.
func UnsymmetrizeOwnership(ownership []float32, sym Symmetry, w, h int) []float32 {
	if sym == Identity {
		out := make([]float32, len(ownership))
		copy(out, ownership)
		return out
	}
	out := make([]float32, len(ownership))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := sym.Apply(x, y, w, h)
			out[y*w+x] = ownership[sy*w+sx]
		}
	}
	return out
}
