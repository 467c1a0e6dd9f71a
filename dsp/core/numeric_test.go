package core

import (
	"math"
	"testing"
)

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-3, 1}, {0, 1}, {1, 1}, {2, 2}, {3, 4}, {1024, 1024}, {1025, 2048}, {12987, 16384},
	}
	for _, tt := range tests {
		if got := NextPowerOfTwo(tt.in); got != tt.want {
			t.Fatalf("NextPowerOfTwo(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	for _, n := range []int{1, 2, 64, 256} {
		if !IsPowerOfTwo(n) {
			t.Fatalf("IsPowerOfTwo(%d) = false", n)
		}
	}
	for _, n := range []int{0, -2, 3, 255} {
		if IsPowerOfTwo(n) {
			t.Fatalf("IsPowerOfTwo(%d) = true", n)
		}
	}
}

func TestArange(t *testing.T) {
	got := Arange(0, 1, 0.25)
	want := []float64{0, 0.25, 0.5, 0.75}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-15 {
			t.Fatalf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	// Non-integral span rounds the count up.
	if n := len(Arange(-1, 1, 0.3)); n != 7 {
		t.Fatalf("len(Arange(-1, 1, 0.3)) = %d, want 7", n)
	}

	if Arange(1, 0, 0.1) != nil {
		t.Fatal("expected nil for empty interval")
	}
	if Arange(0, 1, 0) != nil {
		t.Fatal("expected nil for zero step")
	}
}
