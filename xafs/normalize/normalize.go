package normalize

import (
	"math"

	"github.com/cwbudde/algo-xafs/internal/linalg"
	"github.com/cwbudde/algo-xafs/xafs/core"
	"github.com/cwbudde/algo-xafs/xafs/xafserr"
)

const (
	defaultPre1     = -200.0
	defaultPre2     = -30.0
	defaultMaxNorm1 = 150.0
	minE0Samples    = 5
)

// Baseline is a fitted pre- or post-edge polynomial in energy.
type Baseline = linalg.Poly

// Spectrum is a spectrum with its edge established: e0, the edge step and
// the baselines it was derived from. It is read-only once returned.
type Spectrum struct {
	Source core.Spectrum

	E0       float64
	EdgeStep float64

	PreEdge  Baseline
	PostEdge Baseline
	// PreRange and NormRange are the fit windows relative to E0 (eV).
	PreRange  [2]float64
	NormRange [2]float64

	// Pre and Post are the baselines evaluated on Source.Energy.
	Pre  []float64
	Post []float64
	// Norm is (mu − pre)/step.
	Norm []float64
	// Flat is Norm with the post-edge curvature removed above E0.
	Flat []float64
}

// Normalize validates spec, establishes e0 and the edge step, and returns
// the normalized absorption.
func Normalize(spec core.Spectrum, cfg core.Config) (*Spectrum, error) {
	if err := spec.Validate(cfg.MinSamples); err != nil {
		return nil, err
	}

	e0, err := edgeEnergy(spec, cfg)
	if err != nil {
		return nil, err
	}

	emin, emax := spec.MinEnergy(), spec.MaxEnergy()

	pre1 := cfg.Pre1
	if pre1 == 0 {
		pre1 = math.Max(defaultPre1, emin-e0)
	}
	pre2 := cfg.Pre2
	if pre2 == 0 {
		pre2 = defaultPre2
	}
	if pre2 <= pre1 {
		pre2 = pre1 / 3
	}

	preFit, err := fitRange(spec, e0+pre1, e0+pre2, 1, xafserr.DegeneratePreEdge)
	if err != nil {
		return nil, err
	}

	norm2 := cfg.Norm2
	if norm2 == 0 {
		norm2 = emax - e0
	}
	norm1 := cfg.Norm1
	if norm1 == 0 {
		norm1 = math.Min(defaultMaxNorm1, norm2/3)
	}

	postFit, err := fitRange(spec, e0+norm1, e0+norm2, cfg.NormOrder, xafserr.DegeneratePostEdge)
	if err != nil {
		return nil, err
	}

	step := cfg.EdgeStep
	if step == 0 {
		step = postFit.Eval(e0) - preFit.Eval(e0)
	}
	if !(step > 0) || math.IsInf(step, 0) {
		return nil, &xafserr.NormalizationError{Reason: xafserr.NonPositiveStep, Value: step}
	}

	n := spec.Len()
	out := &Spectrum{
		Source:    spec,
		E0:        e0,
		EdgeStep:  step,
		PreEdge:   preFit,
		PostEdge:  postFit,
		PreRange:  [2]float64{pre1, pre2},
		NormRange: [2]float64{norm1, norm2},
		Pre:       make([]float64, n),
		Post:      make([]float64, n),
		Norm:      make([]float64, n),
		Flat:      make([]float64, n),
	}

	for i, e := range spec.Energy {
		pre := preFit.Eval(e)
		post := postFit.Eval(e)
		out.Pre[i] = pre
		out.Post[i] = post
		out.Norm[i] = (spec.Mu[i] - pre) / step
		out.Flat[i] = out.Norm[i]
		if e > e0 {
			out.Flat[i] += 1 - (post-pre)/step
		}
	}

	return out, nil
}

// edgeEnergy picks the configured e0, then the spectrum's estimate, then the
// derivative maximum. Explicit values must lie within the data range.
func edgeEnergy(spec core.Spectrum, cfg core.Config) (float64, error) {
	e0 := cfg.E0
	if e0 == 0 {
		e0 = spec.E0
	}
	if e0 == 0 {
		return FindE0(spec.Energy, spec.Mu)
	}

	emin, emax := spec.MinEnergy(), spec.MaxEnergy()
	if !(e0 >= emin && e0 <= emax) {
		return 0, xafserr.EdgeOutside(e0, emin, emax)
	}
	return e0, nil
}

func fitRange(spec core.Spectrum, lo, hi float64, degree int, reason xafserr.NormalizationReason) (Baseline, error) {
	degenerate := func(points int) error {
		return &xafserr.NormalizationError{Reason: reason, Min: lo, Max: hi, Points: points}
	}

	var xs, ys []float64
	for i, e := range spec.Energy {
		if e >= lo && e <= hi {
			xs = append(xs, e)
			ys = append(ys, spec.Mu[i])
		}
	}
	if len(xs) < 2 || !(lo < hi) {
		return Baseline{}, degenerate(len(xs))
	}

	if degree < 0 {
		degree = 0
	}
	if degree > len(xs)-1 {
		degree = len(xs) - 1
	}

	fit, err := linalg.Polyfit(xs, ys, degree)
	if err != nil {
		return Baseline{}, degenerate(len(xs))
	}
	return fit, nil
}

// FindE0 returns the energy of the largest smoothed derivative dmu/dE,
// ignoring the outermost samples where the derivative is unreliable.
func FindE0(energy, mu []float64) (float64, error) {
	n := len(energy)
	if n != len(mu) {
		return 0, &xafserr.DataError{Reason: xafserr.LengthMismatch, Expected: n, Actual: len(mu)}
	}
	if n < minE0Samples {
		return 0, xafserr.InsufficientData(minE0Samples, n)
	}

	deriv := make([]float64, n)
	for i := 1; i < n-1; i++ {
		deriv[i] = (mu[i+1] - mu[i-1]) / (energy[i+1] - energy[i-1])
	}

	skip := max(2, n/50)
	best, bestVal := -1, math.Inf(-1)
	for i := skip; i < n-skip; i++ {
		v := (deriv[i-1] + 2*deriv[i] + deriv[i+1]) / 4
		if v > bestVal {
			best, bestVal = i, v
		}
	}
	if best < 0 {
		return 0, xafserr.InsufficientData(2*skip+1, n)
	}
	return energy[best], nil
}
