package core

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/cwbudde/algo-xafs/xafs/window"
	"github.com/cwbudde/algo-xafs/xafs/xafserr"
)

func ramp(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestValidateInsufficientSamples(t *testing.T) {
	s := Spectrum{Energy: ramp(50, 7000, 1), Mu: make([]float64, 50)}
	err := s.Validate(100)
	if !errors.Is(err, xafserr.ErrInsufficientData) {
		t.Fatalf("err=%v, want insufficient data", err)
	}

	var dataErr *xafserr.DataError
	if !errors.As(err, &dataErr) {
		t.Fatalf("err=%T, want *DataError", err)
	}
	if dataErr.Minimum != 100 || dataErr.Actual != 50 {
		t.Fatalf("minimum=%d actual=%d", dataErr.Minimum, dataErr.Actual)
	}
	if !strings.Contains(err.Error(), "100") || !strings.Contains(err.Error(), "50") {
		t.Fatalf("message %q lacks counts", err.Error())
	}
}

func TestValidateLayout(t *testing.T) {
	tests := []struct {
		name     string
		energy   []float64
		mu       []float64
		sentinel error
		index    int
	}{
		{"length", []float64{1, 2, 3}, []float64{1, 2}, xafserr.ErrLengthMismatch, 0},
		{"repeat", []float64{1, 2, 2, 3}, []float64{0, 0, 0, 0}, xafserr.ErrNonMonotonic, 2},
		{"decreasing", []float64{1, 3, 2, 4}, []float64{0, 0, 0, 0}, xafserr.ErrNonMonotonic, 2},
		{"nan mu", []float64{1, 2, 3, 4}, []float64{0, math.NaN(), 0, 0}, xafserr.ErrNonFinite, 1},
		{"inf energy", []float64{1, 2, math.Inf(1), 4}, []float64{0, 0, 0, 0}, xafserr.ErrNonFinite, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Spectrum{Energy: tt.energy, Mu: tt.mu}
			err := s.Validate(2)
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("err=%v, want %v", err, tt.sentinel)
			}
			var dataErr *xafserr.DataError
			if errors.As(err, &dataErr) && tt.sentinel != xafserr.ErrLengthMismatch && dataErr.Index != tt.index {
				t.Fatalf("index=%d, want %d", dataErr.Index, tt.index)
			}
		})
	}
}

func TestValidateAcceptsGoodSpectrum(t *testing.T) {
	s := Spectrum{Energy: ramp(120, 8000, 0.5), Mu: make([]float64, 120)}
	if err := s.Validate(100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.MinEnergy() != 8000 || s.MaxEnergy() != 8000+119*0.5 {
		t.Fatalf("range [%v, %v]", s.MinEnergy(), s.MaxEnergy())
	}
}

func TestEmptyRangeIsNaN(t *testing.T) {
	var s Spectrum
	if !math.IsNaN(s.MinEnergy()) || !math.IsNaN(s.MaxEnergy()) {
		t.Fatal("expected NaN bounds for empty spectrum")
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := Spectrum{Name: "cu", Energy: []float64{1, 2}, Mu: []float64{3, 4}, E0: 1.5}
	c := s.Clone()
	c.Mu[0] = 99
	if s.Mu[0] != 3 {
		t.Fatal("clone shares mu storage")
	}
}

func TestEnergyKRoundTrip(t *testing.T) {
	const e0 = 8979.0
	for _, k := range []float64{0, 0.5, 3, 12.25, 18} {
		e := KToEnergy(k, e0)
		got := EnergyToK(e, e0)
		if !NearlyEqual(got, k, 1e-12) {
			t.Fatalf("k=%v: round trip %v", k, got)
		}
	}
	if EnergyToK(e0-10, e0) != 0 {
		t.Fatal("k below the edge must clamp to zero")
	}
	// 100 eV above the edge is about 5.123 Å⁻¹.
	if k := EnergyToK(e0+100, e0); math.Abs(k-5.1232) > 1e-3 {
		t.Fatalf("k(100 eV)=%v", k)
	}
}

func TestPowerOfTwo(t *testing.T) {
	tests := map[int]int{0: 1, 1: 1, 3: 4, 1024: 1024, 1025: 2048}
	for in, want := range tests {
		if got := NextPowerOfTwo(in); got != want {
			t.Fatalf("NextPowerOfTwo(%d)=%d, want %d", in, got, want)
		}
	}
	if IsPowerOfTwo(0) || IsPowerOfTwo(12) || !IsPowerOfTwo(2048) {
		t.Fatal("IsPowerOfTwo mismatch")
	}
}

func TestClampAndNearlyEqual(t *testing.T) {
	if Clamp(5, 10, 0) != 5 || Clamp(-1, 0, 1) != 0 || Clamp(3, 0, 1) != 1 || Clamp(2, 1, 1) != 1 {
		t.Fatal("Clamp mismatch")
	}
	if !NearlyEqual(1, 1+1e-13, 0) || NearlyEqual(1, 1.1, 1e-3) {
		t.Fatal("NearlyEqual mismatch")
	}
}

func TestApplyOptions(t *testing.T) {
	cfg := ApplyOptions(
		WithE0(8979),
		WithRBkg(1.2),
		WithKWeight(3),
		WithKRange(2, 14),
		WithNFFT(3000),
		WithWindow(window.TypeKaiserBessel, 1),
		WithKnots(9),
		WithClamps(0, 2, 3),
		WithMaxIterations(40),
		WithConvergenceTolerance(1e-9),
		nil,
	)

	if cfg.E0 != 8979 || cfg.RBkg != 1.2 || cfg.KWeight != 3 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.KMin != 2 || cfg.KMax != 14 || cfg.NFFT != 4096 {
		t.Fatalf("k range / nfft: %+v", cfg)
	}
	if cfg.Window != window.TypeKaiserBessel || cfg.DK != 1 || cfg.Knots != 9 {
		t.Fatalf("window/knots: %+v", cfg)
	}
	if cfg.ClampHi != 2 || cfg.NClamp != 3 || cfg.MaxIterations != 40 || cfg.ConvergenceTolerance != 1e-9 {
		t.Fatalf("fit settings: %+v", cfg)
	}
}

func TestOptionsIgnoreInvalid(t *testing.T) {
	def := DefaultConfig()
	cfg := ApplyOptions(
		WithRBkg(-1),
		WithKStep(0),
		WithNFFT(2),
		WithMinSamples(0),
		WithMaxIterations(-5),
		WithConvergenceTolerance(0),
		WithPreEdge(-10, -50),
	)
	if cfg.RBkg != def.RBkg || cfg.KStep != def.KStep || cfg.NFFT != def.NFFT {
		t.Fatalf("invalid values applied: %+v", cfg)
	}
	if cfg.MinSamples != def.MinSamples || cfg.MaxIterations != def.MaxIterations {
		t.Fatalf("invalid values applied: %+v", cfg)
	}
	if cfg.ConvergenceTolerance != def.ConvergenceTolerance || cfg.Pre1 != def.Pre1 {
		t.Fatalf("invalid values applied: %+v", cfg)
	}
}

func TestWithCopies(t *testing.T) {
	base := DefaultConfig()
	derived := base.With(WithRBkg(2))
	if base.RBkg != 1 || derived.RBkg != 2 {
		t.Fatalf("base=%v derived=%v", base.RBkg, derived.RBkg)
	}
}

func TestVariantString(t *testing.T) {
	if VariantBSpline.String() != "bspline" || VariantChebyshev.String() != "chebyshev" || Variant(42).String() != "unknown" {
		t.Fatal("variant names")
	}
}
