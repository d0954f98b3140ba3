package core

import "math"

// ETOK converts energy above the edge (eV) to photoelectron wavenumber
// squared (Å⁻²): k² = ETOK·(E − e0), i.e. 2mₑ/ħ².
const ETOK = 0.2624682917

const defaultEpsilon = 1e-12

// EnergyToK returns the photoelectron wavenumber for energy e relative to
// edge e0, clamped to zero below the edge.
func EnergyToK(e, e0 float64) float64 {
	if e <= e0 {
		return 0
	}
	return math.Sqrt(ETOK * (e - e0))
}

// KToEnergy is the inverse of [EnergyToK] for k ≥ 0.
func KToEnergy(k, e0 float64) float64 {
	return e0 + k*k/ETOK
}

// Clamp returns x limited to the closed interval between lo and hi, given
// in either order.
func Clamp(x, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	return math.Min(math.Max(x, lo), hi)
}

// NearlyEqual reports whether a and b are equal within eps.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return diff <= eps
	}

	return diff/largest <= eps
}

// IsFinite reports whether x is neither NaN nor ±Inf.
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// NextPowerOfTwo returns the smallest power of two ≥ n (1 for n ≤ 1).
func NextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
