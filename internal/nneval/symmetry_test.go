package nneval

import "testing"

func TestApplyIdentityIsNoop(t *testing.T) {
	x, y := Identity.Apply(3, 5, 9, 9)
	if x != 3 || y != 5 {
		t.Fatalf("identity changed coords: got (%d,%d)", x, y)
	}
}

func TestRot90FourTimesIsIdentity(t *testing.T) {
	w, h := 9, 9
	x, y := 2, 3
	for i := 0; i < 4; i++ {
		x, y = Rot90.Apply(x, y, w, h)
	}
	if x != 2 || y != 3 {
		t.Fatalf("4x Rot90 should return to start, got (%d,%d)", x, y)
	}
}

func TestInverseUndoesApply(t *testing.T) {
	w, h := 9, 9
	for _, sym := range AllSymmetries {
		x0, y0 := 4, 1
		sx, sy := sym.Apply(x0, y0, w, h)
		bx, by := sym.Inverse().Apply(sx, sy, w, h)
		if bx != x0 || by != y0 {
			t.Fatalf("symmetry %v: inverse did not undo apply: (%d,%d) != (%d,%d)", sym, bx, by, x0, y0)
		}
	}
}

func TestUnsymmetrizePolicyPreservesPassSlot(t *testing.T) {
	w, h := 3, 3
	policy := make([]float32, w*h+1)
	policy[w*h] = 0.42
	out := UnsymmetrizePolicy(policy, Rot180, w, h)
	if out[w*h] != 0.42 {
		t.Fatalf("pass slot should be unaffected by symmetry, got %v", out[w*h])
	}
}

func TestUnsymmetrizePolicyIdentityRoundTrip(t *testing.T) {
	w, h := 4, 4
	policy := make([]float32, w*h+1)
	for i := range policy {
		policy[i] = float32(i)
	}
	out := UnsymmetrizePolicy(policy, Identity, w, h)
	for i := range policy {
		if out[i] != policy[i] {
			t.Fatalf("identity should round-trip policy unchanged at %d", i)
		}
	}
}
