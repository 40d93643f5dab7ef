package core

import "testing"

func TestSearchSortedFindsFirstNotLess(t *testing.T) {
	a := []int{1, 3, 3, 5, 9}

	tests := []struct {
		target int
		want   int
	}{
		{0, 0},
		{1, 0},
		{2, 1},
		{3, 1},
		{4, 3},
		{9, 4},
		{10, 5},
	}

	for _, tc := range tests {
		t.Run("", func(t *testing.T) {
			got := SearchSorted(a, tc.target)
			if got != tc.want {
				t.Errorf("SearchSorted(%v, %d) = %d, want %d", a, tc.target, got, tc.want)
			}
		})
	}
}

func TestSearchSortedFloat64FindsFirstNotLess(t *testing.T) {
	a := []float64{0.1, 0.2, 0.2, 0.5}

	tests := []struct {
		target float64
		want   int
	}{
		{0.0, 0},
		{0.1, 0},
		{0.15, 1},
		{0.2, 1},
		{0.6, 4},
	}

	for _, tc := range tests {
		t.Run("", func(t *testing.T) {
			got := SearchSortedFloat64(a, tc.target)
			if got != tc.want {
				t.Errorf("SearchSortedFloat64(%v, %v) = %d, want %d", a, tc.target, got, tc.want)
			}
		})
	}
}

func TestSearchSortedEmptySlice(t *testing.T) {
	if got := SearchSorted(nil, 5); got != 0 {
		t.Fatalf("SearchSorted(nil, 5) = %d, want 0", got)
	}
}
