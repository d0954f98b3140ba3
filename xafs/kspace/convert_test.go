package kspace

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-xafs/internal/testutil"
	"github.com/cwbudde/algo-xafs/xafs/core"
	"github.com/cwbudde/algo-xafs/xafs/normalize"
	"github.com/cwbudde/algo-xafs/xafs/xafserr"
)

func normalized(t testing.TB, p testutil.XAFSParams, cfg core.Config) *normalize.Spectrum {
	t.Helper()
	norm, err := normalize.Normalize(testutil.XAFSSpectrum(p), cfg)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return norm
}

// linearSpectrum is a normalized spectrum whose Norm is 0.5 + slope·(E−e0)
// on [e0, e0+span].
func linearSpectrum(e0, span, slope float64) *normalize.Spectrum {
	var energy, norm []float64
	for e := e0; e <= e0+span; e += 2 {
		energy = append(energy, e)
		norm = append(norm, 0.5+slope*(e-e0))
	}
	return &normalize.Spectrum{
		Source:   core.Spectrum{Energy: energy, Mu: norm},
		E0:       e0,
		EdgeStep: 1,
		Norm:     norm,
	}
}

func TestConvertGrid(t *testing.T) {
	p := testutil.DefaultXAFS()
	cfg := core.DefaultConfig()
	norm := normalized(t, p, cfg)

	sig, err := Convert(norm, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if sig.NFFT() != 2048 {
		t.Fatalf("NFFT=%d, want 2048", sig.NFFT())
	}
	for i, k := range sig.K {
		if math.Abs(k-float64(i)*0.05) > 1e-12 {
			t.Fatalf("K[%d]=%v", i, k)
		}
	}
	if math.Abs(sig.DataKMax-core.EnergyToK(norm.Source.MaxEnergy(), norm.E0)) > 1e-12 {
		t.Fatalf("DataKMax=%v", sig.DataKMax)
	}
	if sig.KMax != sig.DataKMax {
		t.Fatalf("KMax=%v, want data maximum %v", sig.KMax, sig.DataKMax)
	}
	if sig.IMin != 0 || sig.IMax >= sig.Len || math.Abs(sig.K[sig.IMax]-sig.KMax) > sig.KStep {
		t.Fatalf("index range [%d, %d]", sig.IMin, sig.IMax)
	}
	for i := sig.Len; i < sig.NFFT(); i++ {
		if sig.Chi[i] != 0 || sig.Weight[i] != 0 {
			t.Fatalf("padding at %d: chi=%v weight=%v", i, sig.Chi[i], sig.Weight[i])
		}
	}
	testutil.RequireFinite(t, sig.Chi)
	testutil.RequireFinite(t, sig.Weight)
}

func TestConvertWindowAndWeight(t *testing.T) {
	cfg := core.ApplyOptions(core.WithKRange(2, 12), core.WithKWeight(2))
	sig, err := Convert(normalized(t, testutil.DefaultXAFS(), cfg), cfg)
	if err != nil {
		t.Fatal(err)
	}

	for i, k := range sig.K[:sig.Len] {
		w := sig.Weight[i]
		switch {
		case k >= 2+cfg.DK/2 && k <= 12-cfg.DK/2:
			if math.Abs(w-k*k) > 1e-9*k*k {
				t.Fatalf("k=%v: weight=%v, want %v", k, w, k*k)
			}
		case k < 2-cfg.DK/2 || k > 12+cfg.DK/2:
			if w != 0 {
				t.Fatalf("k=%v: weight=%v outside window", k, w)
			}
		default:
			if w < 0 || w > k*k {
				t.Fatalf("k=%v: sill weight=%v", k, w)
			}
		}
	}
}

func TestConvertFollowsNormalizedAbsorption(t *testing.T) {
	p := testutil.DefaultXAFS()
	cfg := core.DefaultConfig()
	norm := normalized(t, p, cfg)
	sig, err := Convert(norm, cfg)
	if err != nil {
		t.Fatal(err)
	}

	for i, k := range sig.K[:sig.Len] {
		if k < 3 || k > 15 {
			continue
		}
		e := core.KToEnergy(k, norm.E0)
		want := (p.Background(e) + p.Step*p.Chi(core.EnergyToK(e, p.E0)) - norm.PreEdge.Eval(e)) / norm.EdgeStep
		if math.Abs(sig.Chi[i]-want) > 0.01 {
			t.Fatalf("k=%v: chi=%v, want ≈%v", k, sig.Chi[i], want)
		}
	}
}

func TestConvertExtrapolatesLastSlope(t *testing.T) {
	const e0, slope = 7000.0, 1e-3
	norm := linearSpectrum(e0, 400, slope)
	cfg := core.ApplyOptions(core.WithKRange(0, 14))

	sig, err := Convert(norm, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if sig.DataKMax >= 14 {
		t.Fatalf("test needs data ending below k=14, got %v", sig.DataKMax)
	}
	if sig.K[sig.Len-1] < 14 {
		t.Fatalf("grid ends at %v, want beyond KMax", sig.K[sig.Len-1])
	}
	for i, k := range sig.K[:sig.Len] {
		want := 0.5 + slope*(core.KToEnergy(k, e0)-e0)
		if math.Abs(sig.Chi[i]-want) > 1e-9 {
			t.Fatalf("k=%v: chi=%v, want %v", k, sig.Chi[i], want)
		}
	}
}

func TestConvertNFFTGrowsWithGrid(t *testing.T) {
	norm := linearSpectrum(7000, 900, 0)

	tests := []struct {
		name string
		opts []core.Option
		want int
	}{
		{"default", nil, 2048},
		{"small minimum", []core.Option{core.WithNFFT(64)}, 512},
		{"fine step", []core.Option{core.WithKStep(0.005)}, 4096},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := Convert(norm, core.ApplyOptions(tt.opts...))
			if err != nil {
				t.Fatal(err)
			}
			if sig.NFFT() != tt.want {
				t.Fatalf("NFFT=%d, want %d (len %d)", sig.NFFT(), tt.want, sig.Len)
			}
		})
	}
}

func TestConvertErrors(t *testing.T) {
	norm := linearSpectrum(7000, 400, 0)

	atTop := *norm
	atTop.E0 = norm.Source.MaxEnergy()

	zeroStep := core.DefaultConfig()
	zeroStep.KStep = 0

	negativeKMin := core.DefaultConfig()
	negativeKMin.KMin = -1

	nanKMin := core.DefaultConfig()
	nanKMin.KMin = math.NaN()

	infKMax := core.DefaultConfig()
	infKMax.KMax = math.Inf(1)

	tests := []struct {
		name string
		norm *normalize.Spectrum
		cfg  core.Config
	}{
		{"edge at maximum energy", &atTop, core.DefaultConfig()},
		{"empty k range", norm, core.ApplyOptions(core.WithKRange(10, 5))},
		{"zero k step", norm, zeroStep},
		{"negative k min", norm, negativeKMin},
		{"NaN k min", norm, nanKMin},
		{"infinite k max", norm, infKMax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Convert(tt.norm, tt.cfg)
			var merr *xafserr.MathError
			if !errors.As(err, &merr) || merr.Reason != xafserr.KGrid {
				t.Fatalf("err=%v, want k-grid math error", err)
			}
			if !errors.Is(err, xafserr.ErrKGrid) {
				t.Fatal("must match ErrKGrid")
			}
		})
	}
}

func TestWeighted(t *testing.T) {
	cfg := core.DefaultConfig()
	sig, err := Convert(linearSpectrum(7000, 400, 1e-3), cfg)
	if err != nil {
		t.Fatal(err)
	}

	dst := make([]float64, sig.NFFT())
	if err := sig.Weighted(dst); err != nil {
		t.Fatal(err)
	}
	for i := range dst {
		if math.Abs(dst[i]-sig.Chi[i]*sig.Weight[i]) > 1e-12 {
			t.Fatalf("dst[%d]=%v", i, dst[i])
		}
	}

	if err := sig.Weighted(make([]float64, 3)); !errors.Is(err, xafserr.ErrGridMismatch) {
		t.Fatalf("short dst: err=%v", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	sig, err := Convert(linearSpectrum(7000, 400, 1e-3), core.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	c := sig.Clone()
	c.Chi[10] = 42
	if sig.Chi[10] == 42 {
		t.Fatal("clone shares chi")
	}
	if c.Norm != sig.Norm {
		t.Fatal("clone must keep the source spectrum")
	}
}

func BenchmarkConvert(b *testing.B) {
	cfg := core.DefaultConfig()
	norm := normalized(b, testutil.DefaultXAFS(), cfg)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Convert(norm, cfg); err != nil {
			b.Fatal(err)
		}
	}
}
