// Package nninput materializes the (spatial, global) feature tensors the
// neural evaluator consumes from a position (spec.md §4.3). Grounded on
// original_source/cpp/neuralnet/nninputs.cpp for channel semantics and on
// the teacher's internal/engine/nnue_bridge.go for the "encoder accepts
// precomputed solver results to avoid redundant work" pattern.
package nninput

import (
	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/core"
	"github.com/hailam/chessplay/internal/rules"
	"github.com/hailam/chessplay/internal/vcf"
)

// NumSpatialChannels and NumGlobalFeatures are this encoder's concrete
// tensor widths — the spec gives "≈22" spatial channels and "≈19" global
// entries as an order of magnitude, not an exact count; these are the sizes
// this encoder actually produces and that internal/nneval's reference
// backend is built against.
const (
	NumSpatialChannels = 14
	NumGlobalFeatures  = 19
)

// Spatial channel indices.
const (
	ChanOnBoard = iota
	ChanOwnStone
	ChanOppStone
	ChanOwnForbidden
	ChanOppForbidden
	ChanOwnVCFWin
	chanPastBase // RecentBoardsDepth-1 timesteps x 2 colors follow
)

// Global feature indices.
const (
	GlobSideToMove = iota
	GlobNoResultUtility
	GlobOwnVCFExists
	GlobOwnVCFDisproven
	GlobOppVCFExists
	GlobOppVCFDisproven
	GlobPDAMagnitude
	GlobPDAFlag
	GlobRenjuFlag
	GlobBlackAttacker
	GlobBoardWNorm
	GlobBoardHNorm
	GlobMoveCountNorm
	GlobKomiFixed       // vestigial, spec.md §9: fixed constant, never exposed
	GlobScoreScaleFixed // vestigial, fixed constant
	// remaining slots up to NumGlobalFeatures are reserved zero padding so
	// the vector width matches whatever the network was trained with.
)

// Tensor is a dense (C, H, W) feature volume, row-major within each
// channel.
type Tensor struct {
	C, H, W int
	Data    []float32
}

// NewTensor allocates a zeroed tensor.
func NewTensor(c, h, w int) Tensor {
	return Tensor{C: c, H: h, W: w, Data: make([]float32, c*h*w)}
}

// At returns a reference-by-copy read; Set mutates in place.
func (t Tensor) At(c, y, x int) float32 {
	return t.Data[(c*t.H+y)*t.W+x]
}

// Set stores a value at (c, y, x).
func (t Tensor) Set(c, y, x int, v float32) {
	t.Data[(c*t.H+y)*t.W+x] = v
}

// Input is everything internal/nneval needs from one encode call.
type Input struct {
	Spatial Tensor
	Global  []float32
	Hash    core.Hash128
}

// Params are the rule/handicap knobs that affect encoding but aren't part
// of the board itself.
type Params struct {
	Renju                    bool
	PlayoutDoublingAdvantage float64
}

// VCFInfo is the subset of a VCF solve the encoder needs; callers that
// already hold a solve result (e.g. the search worker that just ran VCF at
// this node) should pass it in as Encode's vcfInfo argument to avoid a
// second solve
// (spec.md §4.3: "callers that already hold VCF results pass them in to
// avoid redundant work").
type VCFInfo struct {
	OwnExists, OwnDisproven bool
	OwnWinningMove          board.Loc
	OppExists, OppDisproven bool
}

// DefaultVCFProbeBudget is the "fixed small budget" spec.md §4.3 grants the
// encoder's own VCF probe when the caller doesn't supply one.
const DefaultVCFProbeBudget = 2000

// Encode builds the (spatial, global) input for pla to move in h's current
// position. vcfInfo may be nil, in which case Encode runs its own bounded
// VCF probes for both colors.
func Encode(h *board.History, pla core.Color, params Params, vcfInfo *VCFInfo) Input {
	pos := h.Pos
	opp := pla.Opponent()

	if vcfInfo == nil {
		vcfInfo = probeVCF(pos, params.Renju, pla, opp)
	}

	spatial := NewTensor(NumSpatialChannels, pos.Board.Height, pos.Board.Stride)
	fillBoardChannels(spatial, pos, pla, opp, params.Renju)
	if vcfInfo.OwnExists && vcfInfo.OwnWinningMove != board.NullLoc {
		x, y := pos.Board.XY(vcfInfo.OwnWinningMove)
		spatial.Set(ChanOwnVCFWin, y+1, x+1, 1)
	}
	fillPastChannels(spatial, h, pla, opp)

	global := make([]float32, NumGlobalFeatures)
	if pla == core.White {
		global[GlobSideToMove] = 1
	}
	global[GlobNoResultUtility] = 0
	global[GlobOwnVCFExists] = boolF(vcfInfo.OwnExists)
	global[GlobOwnVCFDisproven] = boolF(vcfInfo.OwnDisproven)
	global[GlobOppVCFExists] = boolF(vcfInfo.OppExists)
	global[GlobOppVCFDisproven] = boolF(vcfInfo.OppDisproven)
	global[GlobPDAMagnitude] = float32(absF(params.PlayoutDoublingAdvantage))
	global[GlobPDAFlag] = boolF(params.PlayoutDoublingAdvantage != 0)
	global[GlobRenjuFlag] = boolF(params.Renju)
	global[GlobBlackAttacker] = boolF(pla == core.Black)
	global[GlobBoardWNorm] = float32(pos.Board.W) / float32(core.MaxBoardSide)
	global[GlobBoardHNorm] = float32(pos.Board.H) / float32(core.MaxBoardSide)
	global[GlobMoveCountNorm] = float32(pos.MoveCount) / float32(pos.Board.Area())
	global[GlobKomiFixed] = 0
	global[GlobScoreScaleFixed] = 1

	return Input{
		Spatial: spatial,
		Global:  global,
		Hash:    InputHash(pos.Hash, pla, params, vcfInfo),
	}
}

func probeVCF(pos *board.Position, renju bool, pla, opp core.Color) *VCFInfo {
	info := &VCFInfo{}
	ownResult := vcf.Solve(pos, renju, pla, DefaultVCFProbeBudget)
	switch ownResult.Status {
	case vcf.ProvenWin:
		info.OwnExists = true
		info.OwnWinningMove = ownResult.Move
	case vcf.Disproven:
		info.OwnDisproven = true
	}
	oppResult := vcf.Solve(pos, renju, opp, DefaultVCFProbeBudget)
	switch oppResult.Status {
	case vcf.ProvenWin:
		info.OppExists = true
	case vcf.Disproven:
		info.OppDisproven = true
	}
	return info
}

func fillBoardChannels(t Tensor, pos *board.Position, pla, opp core.Color, renju bool) {
	pos.Board.AllLocs(func(l board.Loc) {
		x, y := pos.Board.XY(l)
		gy, gx := y+1, x+1
		t.Set(ChanOnBoard, gy, gx, 1)
		switch pos.Get(l) {
		case pla:
			t.Set(ChanOwnStone, gy, gx, 1)
		case opp:
			t.Set(ChanOppStone, gy, gx, 1)
		default:
			if renju {
				if pla == core.Black && rules.IsForbidden(pos, l) {
					t.Set(ChanOwnForbidden, gy, gx, 1)
				}
				if opp == core.Black && rules.IsForbidden(pos, l) {
					t.Set(ChanOppForbidden, gy, gx, 1)
				}
			}
		}
	})
}

// fillPastChannels fills the 2*(RecentBoardsDepth-1) past-move planes from
// History's ring buffer, keyed by the same own/opp colors as the current
// position — a cell's owner doesn't change identity across history, only
// its occupancy does.
func fillPastChannels(t Tensor, h *board.History, pla, opp core.Color) {
	for step := 1; step < board.RecentBoardsDepth; step++ {
		snap := h.RecentBoard(step)
		if snap == nil {
			continue
		}
		ownChan := chanPastBase + (step-1)*2
		oppChan := ownChan + 1
		h.Pos.Board.AllLocs(func(l board.Loc) {
			x, y := h.Pos.Board.XY(l)
			gy, gx := y+1, x+1
			switch snap[l] {
			case pla:
				t.Set(ownChan, gy, gx, 1)
			case opp:
				t.Set(oppChan, gy, gx, 1)
			}
		})
	}
}

func boolF(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

func absF(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
