package kspace

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/interp"

	"github.com/cwbudde/algo-xafs/internal/linalg"
	"github.com/cwbudde/algo-xafs/xafs/core"
	"github.com/cwbudde/algo-xafs/xafs/normalize"
	"github.com/cwbudde/algo-xafs/xafs/window"
	"github.com/cwbudde/algo-xafs/xafs/xafserr"
)

// tailPoints is the number of trailing samples whose slope continues the
// data beyond the last measured energy.
const tailPoints = 8

// Signal is a normalized spectrum resampled on a uniform, zero-padded k grid.
//
// All slices have length NFFT. Points at and beyond Len are padding: K keeps
// counting, Chi and Weight are zero.
type Signal struct {
	// Norm is the normalized spectrum the signal was derived from.
	Norm *normalize.Spectrum

	K      []float64
	Chi    []float64
	Weight []float64
	// Len is the number of grid points covering [0, max(DataKMax, KMax+DK)].
	Len int

	KStep   float64
	KWeight float64
	KMin    float64
	KMax    float64
	// DataKMax is the wavenumber of the last measured sample.
	DataKMax float64
	// IMin and IMax are the first and last grid indices inside [KMin, KMax].
	IMin, IMax int
}

// NFFT returns the padded grid length.
func (s *Signal) NFFT() int { return len(s.K) }

// E0 returns the edge energy of the underlying spectrum.
func (s *Signal) E0() float64 { return s.Norm.E0 }

// Weighted writes Chi·Weight into dst, which must have length NFFT.
func (s *Signal) Weighted(dst []float64) error {
	if len(dst) != len(s.Chi) {
		return &xafserr.TransformError{
			Reason:   xafserr.GridMismatch,
			Op:       "kspace.Weighted",
			Expected: len(s.Chi),
			Actual:   len(dst),
		}
	}
	vecmath.MulBlock(dst, s.Chi, s.Weight)
	return nil
}

// Clone returns a copy with independent sample slices. Norm is shared; it
// is read-only once produced.
func (s *Signal) Clone() *Signal {
	c := *s
	c.K = append([]float64(nil), s.K...)
	c.Chi = append([]float64(nil), s.Chi...)
	c.Weight = append([]float64(nil), s.Weight...)
	return &c
}

func gridError(detail string, cause error) error {
	return &xafserr.MathError{Reason: xafserr.KGrid, Op: "kspace.Convert", Detail: detail, Cause: cause}
}

// Convert resamples norm.Norm onto the k grid described by cfg and computes
// the k-weighted window.
func Convert(norm *normalize.Spectrum, cfg core.Config) (*Signal, error) {
	energy := norm.Source.Energy
	n := len(energy)
	if n < 2 {
		return nil, xafserr.InsufficientData(2, n)
	}
	emax := energy[n-1]
	if !(norm.E0 < emax) {
		return nil, gridError(fmt.Sprintf("edge energy %v at or above maximum energy %v", norm.E0, emax), nil)
	}
	if !(cfg.KStep > 0) || math.IsInf(cfg.KStep, 0) {
		return nil, gridError(fmt.Sprintf("invalid k step %v", cfg.KStep), nil)
	}

	dataKMax := core.EnergyToK(emax, norm.E0)
	kmin, kmax := cfg.KMin, cfg.KMax
	if kmax == 0 {
		kmax = dataKMax
	}
	if !(kmin >= 0) || math.IsInf(kmin, 0) || !core.IsFinite(kmax) {
		return nil, gridError(fmt.Sprintf("k range [%v, %v] must be finite and non-negative", kmin, kmax), nil)
	}
	if !(kmin < kmax) {
		return nil, gridError(fmt.Sprintf("k range [%v, %v] is empty", kmin, kmax), nil)
	}

	kstep := cfg.KStep
	kend := math.Max(dataKMax, kmax+cfg.DK)
	nk := int(math.Floor(kend/kstep+1e-9)) + 1
	nfft := core.NextPowerOfTwo(max(cfg.NFFT, nk, 4))

	sig := &Signal{
		Norm:     norm,
		K:        make([]float64, nfft),
		Chi:      make([]float64, nfft),
		Weight:   make([]float64, nfft),
		Len:      nk,
		KStep:    kstep,
		KWeight:  cfg.KWeight,
		KMin:     kmin,
		KMax:     kmax,
		DataKMax: dataKMax,
		IMin:     int(math.Ceil(kmin/kstep - 1e-9)),
		IMax:     min(int(math.Floor(kmax/kstep+1e-9)), nk-1),
	}
	for i := range sig.K {
		sig.K[i] = float64(i) * kstep
	}

	var mu interp.PiecewiseLinear
	if err := mu.Fit(energy, norm.Norm); err != nil {
		return nil, gridError("cannot interpolate normalized absorption", err)
	}
	tail, err := tailSlope(energy, norm.Norm)
	if err != nil {
		return nil, gridError("cannot extrapolate beyond the measured range", err)
	}
	for i := 0; i < nk; i++ {
		e := core.KToEnergy(sig.K[i], norm.E0)
		if e > emax {
			sig.Chi[i] = norm.Norm[n-1] + tail*(e-emax)
			continue
		}
		sig.Chi[i] = mu.Predict(e)
	}

	win, err := window.New(cfg.Window, kmin, kmax, window.WithDX(cfg.DK))
	if err != nil {
		return nil, gridError("cannot build k window", err)
	}
	for i := 0; i < nk; i++ {
		sig.Weight[i] = math.Pow(sig.K[i], cfg.KWeight)
	}
	scratch := make([]float64, nk)
	if err := win.Apply(sig.Weight[:nk], sig.K[:nk], scratch); err != nil {
		return nil, gridError("cannot apply k window", err)
	}

	return sig, nil
}

// tailSlope is the least-squares slope of the last few samples.
func tailSlope(xs, ys []float64) (float64, error) {
	m := min(tailPoints, len(xs))
	fit, err := linalg.Polyfit(xs[len(xs)-m:], ys[len(ys)-m:], 1)
	if err != nil {
		return 0, err
	}
	// Coefficients refer to the scaled abscissa (x−Shift)/Scale.
	return fit.Coef[1] / fit.Scale, nil
}
