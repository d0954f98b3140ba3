package testutil

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-xafs/xafs/core"
)

// RequireSliceNearlyEqual fails t at the first index where got and want
// differ by more than eps, absolute or relative to the larger magnitude.
func RequireSliceNearlyEqual(t testing.TB, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d values, want %d", len(got), len(want))
	}
	for i, g := range got {
		if !core.NearlyEqual(g, want[i], eps) {
			t.Fatalf("[%d] = %g, want %g (|diff| %g, eps %g)", i, g, want[i], math.Abs(g-want[i]), eps)
		}
	}
}

// RequireFinite fails t on the first NaN or infinite value.
func RequireFinite(t testing.TB, data []float64) {
	t.Helper()
	for i, v := range data {
		if !core.IsFinite(v) {
			t.Fatalf("[%d] = %v is not finite", i, v)
		}
	}
}

// RMS returns the root mean square of data[lo:hi], or 0 for an empty range.
func RMS(data []float64, lo, hi int) float64 {
	lo, hi = max(lo, 0), min(hi, len(data))
	if hi <= lo {
		return 0
	}
	var sum float64
	for _, v := range data[lo:hi] {
		sum += v * v
	}
	return math.Sqrt(sum / float64(hi-lo))
}
