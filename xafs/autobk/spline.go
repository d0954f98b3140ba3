package autobk

import (
	"math"

	"github.com/cwbudde/algo-xafs/xafs/xafserr"
)

const maxDegree = 3

// Spline is a clamped B-spline over [Knots[0], Knots[len-1]]. The knot
// vector is fixed at construction; only Coef changes during a fit.
//
// Outside its interval the spline is continued by its boundary values.
type Spline struct {
	Knots  []float64
	Degree int
	Coef   []float64
}

// NewSpline builds a clamped B-spline with n coefficients over [lo, hi]
// with evenly spaced interior knots. The degree is min(3, n−1).
func NewSpline(lo, hi float64, n int) (*Spline, error) {
	if n < 2 || !(lo < hi) {
		return nil, &xafserr.BackgroundError{
			Reason:  xafserr.SplineConstruction,
			Variant: "bspline",
			Knots:   n,
			KMin:    lo,
			KMax:    hi,
		}
	}

	p := min(maxDegree, n-1)
	knots := make([]float64, n+p+1)
	for i := 0; i <= p; i++ {
		knots[i] = lo
		knots[n+i] = hi
	}
	intervals := n - p
	for j := 1; j < intervals; j++ {
		knots[p+j] = lo + (hi-lo)*float64(j)/float64(intervals)
	}

	return &Spline{Knots: knots, Degree: p, Coef: make([]float64, n)}, nil
}

// Len returns the number of coefficients.
func (s *Spline) Len() int { return len(s.Coef) }

// Domain returns the interval spanned by the knots.
func (s *Spline) Domain() (lo, hi float64) {
	return s.Knots[0], s.Knots[len(s.Knots)-1]
}

// Clone returns a copy with independent slices.
func (s *Spline) Clone() *Spline {
	return &Spline{
		Knots:  append([]float64(nil), s.Knots...),
		Degree: s.Degree,
		Coef:   append([]float64(nil), s.Coef...),
	}
}

// Greville returns the Greville abscissae, the knot averages at which
// coefficient values best approximate the curve.
func (s *Spline) Greville() []float64 {
	p := s.Degree
	out := make([]float64, len(s.Coef))
	for j := range out {
		sum := 0.0
		for r := 1; r <= p; r++ {
			sum += s.Knots[j+r]
		}
		out[j] = sum / float64(p)
	}
	return out
}

// Eval evaluates the spline at x.
func (s *Spline) Eval(x float64) float64 {
	var vals [maxDegree + 1]float64
	span := s.basis(x, vals[:s.Degree+1])
	sum := 0.0
	for r, v := range vals[:s.Degree+1] {
		sum += v * s.Coef[span-s.Degree+r]
	}
	return sum
}

// span returns the knot interval index containing x, with x already
// clamped to the domain.
func (s *Spline) span(x float64) int {
	n := len(s.Coef) - 1
	p := s.Degree
	u := s.Knots
	if x >= u[n+1] {
		return n
	}
	if x <= u[p] {
		return p
	}
	lo, hi := p, n+1
	mid := (lo + hi) / 2
	for x < u[mid] || x >= u[mid+1] {
		if x < u[mid] {
			hi = mid
		} else {
			lo = mid
		}
		mid = (lo + hi) / 2
	}
	return mid
}

// basis writes the Degree+1 non-zero basis functions at x into out and
// returns the span; out[r] belongs to coefficient span−Degree+r.
func (s *Spline) basis(x float64, out []float64) int {
	lo, hi := s.Domain()
	x = math.Max(lo, math.Min(hi, x))

	p := s.Degree
	u := s.Knots
	span := s.span(x)

	var left, right [maxDegree + 1]float64
	out[0] = 1
	for j := 1; j <= p; j++ {
		left[j] = x - u[span+1-j]
		right[j] = u[span+j] - x
		saved := 0.0
		for r := 0; r < j; r++ {
			tmp := out[r] / (right[r+1] + left[j-r])
			out[r] = saved + right[r+1]*tmp
			saved = left[j-r] * tmp
		}
		out[j] = saved
	}
	return span
}
