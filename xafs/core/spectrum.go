package core

import (
	"math"

	"github.com/cwbudde/algo-xafs/xafs/xafserr"
)

// Spectrum is a measured absorption spectrum: mu(E) sampled at strictly
// increasing energies (eV).
type Spectrum struct {
	Name   string
	Energy []float64
	Mu     []float64
	// E0 is an optional edge energy estimate. Zero means unknown.
	E0 float64
}

// Len returns the sample count.
func (s *Spectrum) Len() int { return len(s.Energy) }

// MinEnergy returns the first energy, or NaN for an empty spectrum.
func (s *Spectrum) MinEnergy() float64 {
	if len(s.Energy) == 0 {
		return math.NaN()
	}
	return s.Energy[0]
}

// MaxEnergy returns the last energy, or NaN for an empty spectrum.
func (s *Spectrum) MaxEnergy() float64 {
	if len(s.Energy) == 0 {
		return math.NaN()
	}
	return s.Energy[len(s.Energy)-1]
}

// Validate checks the sample layout. The sample count is checked first so
// that a short spectrum always reports the count it has.
func (s *Spectrum) Validate(minSamples int) error {
	if len(s.Energy) != len(s.Mu) {
		return &xafserr.DataError{
			Reason:   xafserr.LengthMismatch,
			Expected: len(s.Energy),
			Actual:   len(s.Mu),
		}
	}

	if len(s.Energy) < minSamples {
		return xafserr.InsufficientData(minSamples, len(s.Energy))
	}

	for i := range s.Energy {
		e, mu := s.Energy[i], s.Mu[i]
		if !IsFinite(e) {
			return &xafserr.DataError{Reason: xafserr.NonFiniteSample, Index: i, Value: e}
		}
		if !IsFinite(mu) {
			return &xafserr.DataError{Reason: xafserr.NonFiniteSample, Index: i, Value: mu}
		}
		if i > 0 && e <= s.Energy[i-1] {
			return &xafserr.DataError{Reason: xafserr.NonMonotonicEnergy, Index: i, Value: e}
		}
	}

	return nil
}

// Clone returns a deep copy.
func (s *Spectrum) Clone() Spectrum {
	return Spectrum{
		Name:   s.Name,
		Energy: append([]float64(nil), s.Energy...),
		Mu:     append([]float64(nil), s.Mu...),
		E0:     s.E0,
	}
}
