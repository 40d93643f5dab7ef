package search

import (
	"testing"

	"github.com/hailam/chessplay/internal/core"
)

func TestApplyRootNoiseRenormalizes(t *testing.T) {
	edges := []*Edge{
		{Move: 1, Prior: 0.5},
		{Move: 2, Prior: 0.3},
		{Move: 3, Prior: 0.2},
	}
	rng := core.NewXorshiftPCG(7)
	applyRootNoise(edges, rng, 0, false)

	var sum float32
	for _, e := range edges {
		if e.Prior < 0 {
			t.Fatalf("noised prior went negative: %v", e.Prior)
		}
		sum += e.Prior
	}
	if sum < 0.99 || sum > 1.01 {
		t.Fatalf("noised priors should still sum to ~1, got %v", sum)
	}
}

func TestApplyRootNoiseWideVsNarrowDiffer(t *testing.T) {
	base := func() []*Edge {
		return []*Edge{
			{Move: 1, Prior: 0.5},
			{Move: 2, Prior: 0.3},
			{Move: 3, Prior: 0.2},
		}
	}

	narrow := base()
	applyRootNoise(narrow, core.NewXorshiftPCG(1), 0, false)

	wide := base()
	applyRootNoise(wide, core.NewXorshiftPCG(1), 0, true)

	same := true
	for i := range narrow {
		if narrow[i].Prior != wide[i].Prior {
			same = false
		}
	}
	if same {
		t.Fatal("wide-root noise should mix in a different weight than the default")
	}
}

func TestApplyPolicyTemperatureFlattensDistribution(t *testing.T) {
	edges := []*Edge{
		{Move: 1, Prior: 0.9},
		{Move: 2, Prior: 0.1},
	}
	applyPolicyTemperature(edges, 2.0)

	if edges[0].Prior <= edges[1].Prior {
		t.Fatalf("higher prior should remain higher after temperature reshaping: %v vs %v", edges[0].Prior, edges[1].Prior)
	}
	gap := edges[0].Prior - edges[1].Prior
	if gap >= 0.8 {
		t.Fatalf("temperature > 1 should narrow the gap between priors, got gap %v", gap)
	}
}

func TestApplyRootNoiseNoEdgesIsNoop(t *testing.T) {
	applyRootNoise(nil, core.NewXorshiftPCG(1), 0, false)
}
