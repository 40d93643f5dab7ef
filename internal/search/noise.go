package search

import (
	"math"

	"github.com/hailam/chessplay/internal/core"
)

// dirichletAlpha is the concentration parameter for root noise. AlphaZero
// scales alpha inversely with branching factor; a 15x15 Gomoku board has a
// legal-move count in the same ballpark as 19x19 Go early on, so the
// Go-sized constant is reused rather than invented from scratch.
const dirichletAlpha = 0.03

// rootNoiseWeight is the standard mix weight between the raw policy and the
// Dirichlet sample at the root (spec.md §4.5 "Dirichlet-style additive
// noise"). wideRootNoiseWeight is the analysis-mode ("wide-root knob")
// alternative: more exploration, less exploitation of the raw policy.
const (
	rootNoiseWeight     = 0.25
	wideRootNoiseWeight = 0.5
)

// applyRootNoise mixes Dirichlet noise into edges' priors and, if
// temperature is set and not 1, reshapes the policy by raising it to
// 1/temperature first. Called exactly once per root installation
// (spec.md §4.5: "applied once when the root is installed").
func applyRootNoise(edges []*Edge, rng *core.XorshiftPCG, temperature float64, wide bool) {
	if len(edges) == 0 {
		return
	}
	if temperature > 0 && temperature != 1 {
		applyPolicyTemperature(edges, temperature)
	}

	weight := rootNoiseWeight
	if wide {
		weight = wideRootNoiseWeight
	}

	noise := make([]float64, len(edges))
	rng.DirichletSample(noise, dirichletAlpha)
	for i, e := range edges {
		e.Prior = float32((1-weight)*float64(e.Prior) + weight*noise[i])
	}
}

// applyPolicyTemperature raises each prior to the power 1/temperature and
// renormalizes, sharpening (temperature<1) or flattening (temperature>1)
// the distribution before noise is mixed in.
func applyPolicyTemperature(edges []*Edge, temperature float64) {
	pow := make([]float64, len(edges))
	var sum float64
	for i, e := range edges {
		p := math.Pow(float64(e.Prior), 1/temperature)
		pow[i] = p
		sum += p
	}
	if sum <= 0 {
		return
	}
	for i, e := range edges {
		e.Prior = float32(pow[i] / sum)
	}
}
