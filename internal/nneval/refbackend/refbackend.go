// Package refbackend is a reference NNBackend (spec.md §4.4) built from the
// teacher's ported Stockfish NNUE layers (sfnnue/layers): a small quantized
// int8 MLP over the flattened (spatial, global) features, topped by a
// policy head and a value head. Training network weights is explicitly out
// of scope (spec.md §1 Non-goals), so this backend initializes its weights
// deterministically from a seed rather than loading a trained file — it
// exists to exercise internal/nneval's batching/caching plumbing and the
// sfnnue layer stack end to end, not to play strong Gomoku.
package refbackend

import (
	"math"

	"github.com/hailam/chessplay/internal/core"
	"github.com/hailam/chessplay/internal/nneval"
	"github.com/hailam/chessplay/internal/nninput"
	"github.com/hailam/chessplay/sfnnue/layers"
)

// Backend is a two-hidden-layer quantized MLP: flattened input -> hidden1
// -> hidden2 -> {policy logits, value logit}. Mirrors the teacher's NNUE
// layer-stacking idiom (AffineTransform, ClippedReLU pairs) rather than a
// convolutional tower, since sfnnue only ships fully-connected int8 layers.
type Backend struct {
	boardW, boardH int
	inputDim       int
	hidden1        int
	hidden2        int

	fc1  *layers.AffineTransform
	act1 *layers.ClippedReLU
	fc2  *layers.AffineTransform
	act2 *layers.ClippedReLU

	policyHead *layers.AffineTransform // hidden2 -> boardArea+1
	valueHead  *layers.AffineTransform // hidden2 -> 1
}

// New builds a Backend sized for a boardW x boardH board with a
// deterministic weight seed (spec.md §1 Non-goals excludes trained
// weights; this lets tests and callers get repeatable outputs).
func New(boardW, boardH int, seed uint64) *Backend {
	inputDim := nninput.NumSpatialChannels*(boardW+2)*(boardH+2) + nninput.NumGlobalFeatures
	const hidden1 = 64
	const hidden2 = 32
	policyDim := boardW*boardH + 1

	rng := core.NewXorshiftPCG(seed)

	b := &Backend{
		boardW: boardW, boardH: boardH,
		inputDim: inputDim, hidden1: hidden1, hidden2: hidden2,
		fc1:        layers.NewAffineTransform(inputDim, hidden1),
		act1:       layers.NewClippedReLU(hidden1),
		fc2:        layers.NewAffineTransform(hidden1, hidden2),
		act2:       layers.NewClippedReLU(hidden2),
		policyHead: layers.NewAffineTransform(hidden2, policyDim),
		valueHead:  layers.NewAffineTransform(hidden2, 1),
	}
	randomizeAffine(b.fc1, rng)
	randomizeAffine(b.fc2, rng)
	randomizeAffine(b.policyHead, rng)
	randomizeAffine(b.valueHead, rng)
	return b
}

// randomizeAffine fills an AffineTransform's weights/biases with small
// deterministic pseudo-random int8/int32 values so the network is a valid,
// reproducible forward pass rather than all zeros.
func randomizeAffine(layer *layers.AffineTransform, rng *core.XorshiftPCG) {
	for i := range layer.Weights {
		layer.Weights[i] = int8(rng.Intn(41) - 20) // [-20, 20]
	}
	for i := range layer.Biases {
		layer.Biases[i] = int32(rng.Intn(21) - 10) // [-10, 10]
	}
}

// EvaluateBatch implements nneval.NNBackend.
func (b *Backend) EvaluateBatch(inputs []nninput.Input) []nneval.Output {
	out := make([]nneval.Output, len(inputs))
	for i, in := range inputs {
		out[i] = b.evaluateOne(in)
	}
	return out
}

func (b *Backend) evaluateOne(in nninput.Input) nneval.Output {
	flat := flatten(in)
	quantized := quantize(flat, b.inputDim)

	h1 := make([]int32, b.hidden1)
	b.fc1.Propagate(quantized, h1)
	a1 := make([]uint8, b.hidden1)
	b.act1.Propagate(h1, a1)

	h2 := make([]int32, b.hidden2)
	b.fc2.Propagate(a1, h2)
	a2 := make([]uint8, b.hidden2)
	b.act2.Propagate(h2, a2)

	policyLogits := make([]int32, b.boardW*b.boardH+1)
	b.policyHead.Propagate(a2, policyLogits)

	valueLogit := make([]int32, 1)
	b.valueHead.Propagate(a2, valueLogit)

	return nneval.Output{
		Policy: softmax(policyLogits),
		Value:  float32(math.Tanh(float64(valueLogit[0]) / 1024.0)),
	}
}

// flatten concatenates the spatial tensor (row-major, channel-major) with
// the global feature vector into one slice matching the AffineTransform's
// expected input ordering.
func flatten(in nninput.Input) []float32 {
	out := make([]float32, 0, len(in.Spatial.Data)+len(in.Global))
	out = append(out, in.Spatial.Data...)
	out = append(out, in.Global...)
	return out
}

// quantize maps float32 features (already mostly in {0, 1} from the
// encoder, plus a handful of normalized [0,1]-ish globals) into the uint8
// range sfnnue's AffineTransform.Propagate expects.
func quantize(flat []float32, want int) []uint8 {
	out := make([]uint8, want)
	for i := 0; i < want && i < len(flat); i++ {
		v := flat[i] * 127
		if v < 0 {
			v = 0
		}
		if v > 127 {
			v = 127
		}
		out[i] = uint8(v)
	}
	return out
}

// softmax converts raw int32 logits into a probability distribution,
// scaling down first since sfnnue's int32 outputs can be large.
func softmax(logits []int32) []float32 {
	scaled := make([]float64, len(logits))
	maxV := math.Inf(-1)
	for i, l := range logits {
		scaled[i] = float64(l) / 4096.0
		if scaled[i] > maxV {
			maxV = scaled[i]
		}
	}
	sum := 0.0
	exps := make([]float64, len(logits))
	for i, v := range scaled {
		e := math.Exp(v - maxV)
		exps[i] = e
		sum += e
	}
	out := make([]float32, len(logits))
	for i, e := range exps {
		out[i] = float32(e / sum)
	}
	return out
}
