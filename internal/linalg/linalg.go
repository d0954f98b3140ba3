// Package linalg collects the dense least-squares kernels shared by the
// normalizer and the background optimizer.
package linalg

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrUnderdetermined is returned when a fit has fewer points than parameters.
	ErrUnderdetermined = errors.New("linalg: fewer points than parameters")
	// ErrSingular is returned when a factorization fails.
	ErrSingular = errors.New("linalg: matrix is singular")
)

// Poly is a polynomial in the scaled variable u = (x − Shift)/Scale.
// Scaling keeps the Vandermonde system well conditioned for energies in eV.
type Poly struct {
	Coef  []float64
	Shift float64
	Scale float64
}

// Eval evaluates the polynomial at x.
func (p Poly) Eval(x float64) float64 {
	u := (x - p.Shift) / p.Scale
	sum := 0.0
	for i := len(p.Coef) - 1; i >= 0; i-- {
		sum = sum*u + p.Coef[i]
	}
	return sum
}

// Degree returns the polynomial degree.
func (p Poly) Degree() int { return len(p.Coef) - 1 }

// Polyfit fits a polynomial of the given degree to (x, y) by least squares
// using a QR factorization.
func Polyfit(x, y []float64, degree int) (Poly, error) {
	if len(x) != len(y) {
		return Poly{}, fmt.Errorf("linalg: polyfit length mismatch: %d vs %d", len(x), len(y))
	}
	if degree < 0 {
		return Poly{}, fmt.Errorf("linalg: negative degree %d", degree)
	}
	n, p := len(x), degree+1
	if n < p {
		return Poly{}, ErrUnderdetermined
	}

	lo, hi := x[0], x[0]
	for _, v := range x {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	shift := (lo + hi) / 2
	scale := (hi - lo) / 2
	if scale == 0 {
		if degree > 0 {
			return Poly{}, ErrSingular
		}
		scale = 1
	}

	a := mat.NewDense(n, p, nil)
	for i, v := range x {
		u := (v - shift) / scale
		pow := 1.0
		for j := 0; j < p; j++ {
			a.Set(i, j, pow)
			pow *= u
		}
	}
	b := mat.NewVecDense(n, append([]float64(nil), y...))

	var qr mat.QR
	qr.Factorize(a)

	coef := mat.NewVecDense(p, nil)
	if err := qr.SolveVecTo(coef, false, b); err != nil {
		return Poly{}, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	out := make([]float64, p)
	for j := range out {
		out[j] = coef.AtVec(j)
	}
	return Poly{Coef: out, Shift: shift, Scale: scale}, nil
}

// NormalEquations stores JᵀJ into a and Jᵀr into g. a must be n×n and g of
// length n for an m×n Jacobian.
func NormalEquations(a *mat.SymDense, g *mat.VecDense, jac *mat.Dense, r *mat.VecDense) {
	a.SymOuterK(1, jac.T())
	g.MulVec(jac.T(), r)
}

// Damped solves (A + λ·D)·δ = −g for δ, where D is diag(A) with entries
// raised to at least floor·max(diag(A)). work and chol are caller-owned
// scratch reused between calls.
func Damped(dst *mat.VecDense, a *mat.SymDense, g *mat.VecDense, lambda, floor float64, work *mat.SymDense, chol *mat.Cholesky) error {
	n := a.SymmetricDim()
	maxDiag := 0.0
	for i := 0; i < n; i++ {
		maxDiag = math.Max(maxDiag, a.At(i, i))
	}
	if maxDiag == 0 || math.IsNaN(maxDiag) {
		return ErrSingular
	}

	work.CopySym(a)
	minDiag := floor * maxDiag
	for i := 0; i < n; i++ {
		d := a.At(i, i)
		work.SetSym(i, i, d+lambda*math.Max(d, minDiag))
	}

	if ok := chol.Factorize(work); !ok {
		return ErrSingular
	}
	if err := chol.SolveVecTo(dst, g); err != nil {
		return fmt.Errorf("%w: %v", ErrSingular, err)
	}
	dst.ScaleVec(-1, dst)
	return nil
}

// Covariance returns the parameter covariance (JᵀJ)⁻¹ scaled by the reduced
// chi-square of the fit, as standard errors per parameter.
func Covariance(a *mat.SymDense, chi2 float64, dof int) ([]float64, error) {
	n := a.SymmetricDim()
	if dof <= 0 {
		return nil, ErrUnderdetermined
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return nil, ErrSingular
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	redchi := chi2 / float64(dof)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sqrt(math.Abs(inv.At(i, i)) * redchi)
	}
	return out, nil
}
