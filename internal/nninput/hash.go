package nninput

import "github.com/hailam/chessplay/internal/core"

// InputHash combines the position's Zobrist hash with everything else that
// changes the encoded tensor but isn't part of the board itself — side to
// move, ruleset, and the handicap knob — so two different encode calls
// against the same stones never collide in internal/nneval's cache
// (spec.md §4.3: "Hash of inputs ... combines the position hash with the
// encoding parameters").
func InputHash(posHash core.Hash128, pla core.Color, params Params, vcfInfo *VCFInfo) core.Hash128 {
	disc := uint64(pla)
	if params.Renju {
		disc |= 1 << 8
	}
	// Quantize PDA to a coarse bucket of 1/8: two PDA values that round to
	// the same bucket hash identically, even though the encoder writes the
	// exact PDA magnitude into the tensor.
	bucket := int64(params.PlayoutDoublingAdvantage * 8)
	disc ^= uint64(bucket) << 16

	if vcfInfo != nil {
		if vcfInfo.OwnExists {
			disc |= 1 << 32
		}
		if vcfInfo.OppExists {
			disc |= 1 << 33
		}
	}

	mixed := disc*0x9E3779B97F4A7C15 + 0xBF58476D1CE4E5B9
	return core.Hash128{
		Hi: posHash.Hi ^ mixed,
		Lo: posHash.Lo ^ (mixed*0xC2B2AE3D27D4EB4F + 1),
	}
}
