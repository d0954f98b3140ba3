package autobk

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-xafs/internal/linalg"
	"github.com/cwbudde/algo-xafs/xafs/core"
	"github.com/cwbudde/algo-xafs/xafs/fourier"
	"github.com/cwbudde/algo-xafs/xafs/kspace"
	"github.com/cwbudde/algo-xafs/xafs/xafserr"
)

const (
	// dampingFloor bounds every diagonal damping term from below, relative
	// to the largest diagonal entry of JᵀJ.
	dampingFloor = 1e-6
	minDamping   = 1e-12
	maxDamping   = 1e16

	acceptFactor = 3.0
	rejectFactor = 4.0

	clampScale = 100.0
)

// StopReason records why the optimizer stopped.
type StopReason int

const (
	StopNone StopReason = iota
	// StopConverged: the relative objective decrease fell below tolerance.
	StopConverged
	// StopStalled: the retry budget was exhausted by consecutive rejected
	// steps; the fit sits at the attainable minimum.
	StopStalled
	// StopMaxIterations: the iteration budget ran out first.
	StopMaxIterations
)

func (r StopReason) String() string {
	switch r {
	case StopConverged:
		return "converged"
	case StopStalled:
		return "stalled"
	case StopMaxIterations:
		return "max-iterations"
	default:
		return "none"
	}
}

// State is the optimizer state of one fit.
type State struct {
	Iterations  int
	Evaluations int
	// Objective is the sum of squared residuals.
	Objective float64
	Damping   float64
	// Rejected counts consecutive rejected steps.
	Rejected  int
	Converged bool
	Stop      StopReason
}

// Diagnostics summarizes a finished fit.
type Diagnostics struct {
	State

	InitialResidual float64
	FinalResidual   float64
	Knots           int
	IRBkg           int
	// StdErr holds the coefficient standard errors, or nil when the
	// curvature matrix cannot be inverted.
	StdErr []float64
}

// Result is a fitted background.
type Result struct {
	Spline *Spline
	// Signal is the input signal with the background subtracted from Chi.
	Signal *kspace.Signal
	// Bkg is the background on the k grid (zero beyond Signal.Len).
	Bkg []float64

	// BkgEnergy is the background in absorption units on the source
	// energies, ChiEnergy the matching chi(E).
	BkgEnergy []float64
	ChiEnergy []float64

	// R and RMag are the R grid and |chi(R)| of the weighted result.
	R    []float64
	RMag []float64

	E0       float64
	EdgeStep float64

	Diagnostics Diagnostics
}

type gridKey struct {
	nfft  int
	kstep float64
}

// Workspace holds the transforms and scratch memory of the optimizer. A
// Workspace is reused across fits to avoid per-spectrum allocation; it must
// not be used by more than one goroutine at a time.
type Workspace struct {
	transforms map[gridKey]*fourier.Transform

	ft     *fourier.Transform
	sig    *kspace.Signal
	spline *Spline

	irbkg      int
	clampLo    int
	clampHi    int
	nClampLo   int
	nClampHi   int
	weightLo   float64
	weightHi   float64
	rows, cols int

	// Basis tables over the valid grid: spans[i] and the Degree+1 values
	// starting at vals[i*(Degree+1)]; coefficient j touches [supLo, supHi).
	spans        []int
	vals         []float64
	supLo, supHi []int

	bkg   []float64
	diff  []float64
	bins  []complex128
	col   []complex128
	seg   []float64
	jac   []float64
	res   []float64
	tres  []float64
	coef  []float64
	tcoef []float64

	a, work  *mat.SymDense
	g, delta *mat.VecDense
	chol     mat.Cholesky
}

// NewWorkspace returns an empty workspace; buffers grow on first use.
func NewWorkspace() *Workspace {
	return &Workspace{transforms: make(map[gridKey]*fourier.Transform)}
}

// Fit runs AUTOBK on sig with a fresh workspace.
func Fit(sig *kspace.Signal, cfg core.Config) (*Result, error) {
	return NewWorkspace().Fit(sig, cfg)
}

// Fit finds the spline background of sig that minimizes the Fourier
// amplitude below cfg.RBkg.
//
// When the iteration budget runs out before convergence, Fit returns the
// best result found together with a *xafserr.BackgroundError matching
// xafserr.ErrNotConverged.
func (ws *Workspace) Fit(sig *kspace.Signal, cfg core.Config) (*Result, error) {
	if cfg.Variant != core.VariantBSpline {
		return nil, &xafserr.BackgroundError{
			Reason:  xafserr.NotImplemented,
			Variant: cfg.Variant.String(),
			KMin:    sig.KMin,
			KMax:    sig.KMax,
		}
	}
	if err := ws.setup(sig, cfg); err != nil {
		return nil, err
	}

	st, initial, err := ws.optimize(cfg)
	if err != nil {
		return nil, err
	}

	res, err := ws.result(st, initial)
	if err != nil {
		return nil, err
	}

	if !st.Converged {
		return res, &xafserr.BackgroundError{
			Reason:     xafserr.NotConverged,
			Variant:    cfg.Variant.String(),
			Knots:      ws.cols,
			KMin:       sig.KMin,
			KMax:       sig.KMax,
			Iterations: st.Iterations,
			Residual:   res.Diagnostics.FinalResidual,
		}
	}
	return res, nil
}

// Knots returns the default knot count for an R cutoff over [kmin, kmax].
func Knots(rbkg, kmin, kmax float64) int {
	return 1 + int(math.Floor(2*rbkg*(kmax-kmin)/math.Pi))
}

// IRBkg returns the number of R bins at or below rbkg, plus one.
func IRBkg(rbkg, rstep float64) int {
	return int(math.Floor(1.01 + rbkg/rstep))
}

func (ws *Workspace) transform(nfft int, kstep float64) (*fourier.Transform, error) {
	key := gridKey{nfft: nfft, kstep: kstep}
	if ft, ok := ws.transforms[key]; ok {
		return ft, nil
	}
	ft, err := fourier.New(nfft, kstep)
	if err != nil {
		return nil, err
	}
	ws.transforms[key] = ft
	return ft, nil
}

func (ws *Workspace) setup(sig *kspace.Signal, cfg core.Config) error {
	if !(cfg.RBkg > 0) || math.IsInf(cfg.RBkg, 0) {
		return &xafserr.BackgroundError{
			Reason:  xafserr.SplineConstruction,
			Variant: cfg.Variant.String(),
			KMin:    sig.KMin,
			KMax:    sig.KMax,
			Detail:  fmt.Sprintf("R cutoff %v must be positive and finite", cfg.RBkg),
		}
	}
	ft, err := ws.transform(sig.NFFT(), sig.KStep)
	if err != nil {
		return err
	}
	ws.ft = ft
	ws.sig = sig

	nspl := cfg.Knots
	if nspl == 0 {
		nspl = Knots(cfg.RBkg, sig.KMin, sig.KMax)
	}
	points := sig.IMax - sig.IMin + 1
	if points < 2 {
		return &xafserr.BackgroundError{
			Reason:  xafserr.SplineConstruction,
			Variant: cfg.Variant.String(),
			Knots:   nspl,
			KMin:    sig.KMin,
			KMax:    sig.KMax,
		}
	}
	spline, err := NewSpline(sig.KMin, sig.KMax, nspl)
	if err != nil {
		return err
	}
	ws.spline = spline

	ws.irbkg = min(max(IRBkg(cfg.RBkg, ft.RStep()), 1), ft.Bins())

	nc := min(max(cfg.NClamp, 0), points)
	ws.nClampLo, ws.nClampHi = 0, 0
	if cfg.ClampLo != 0 {
		ws.nClampLo = nc
	}
	if cfg.ClampHi != 0 {
		ws.nClampHi = nc
	}
	ws.clampLo = sig.IMin
	ws.clampHi = sig.IMax - nc + 1
	ws.weightLo = math.Abs(cfg.ClampLo)
	ws.weightHi = math.Abs(cfg.ClampHi)

	ws.rows = 2*ws.irbkg + ws.nClampLo + ws.nClampHi
	ws.cols = nspl

	ws.buildBasis()
	ws.allocate()

	return ws.initialCoef()
}

func growFloat(buf []float64, n int) []float64 {
	if cap(buf) < n {
		return make([]float64, n)
	}
	return buf[:n]
}

func growInt(buf []int, n int) []int {
	if cap(buf) < n {
		return make([]int, n)
	}
	return buf[:n]
}

func growComplex(buf []complex128, n int) []complex128 {
	if cap(buf) < n {
		return make([]complex128, n)
	}
	return buf[:n]
}

func (ws *Workspace) buildBasis() {
	s := ws.spline
	p1 := s.Degree + 1
	nk := ws.sig.Len
	n := s.Len()

	ws.spans = growInt(ws.spans, nk)
	ws.vals = growFloat(ws.vals, nk*p1)
	ws.supLo = growInt(ws.supLo, n)
	ws.supHi = growInt(ws.supHi, n)
	for j := 0; j < n; j++ {
		ws.supLo[j], ws.supHi[j] = nk, 0
	}

	for i := 0; i < nk; i++ {
		span := s.basis(ws.sig.K[i], ws.vals[i*p1:(i+1)*p1])
		ws.spans[i] = span
		for r := 0; r < p1; r++ {
			j := span - s.Degree + r
			ws.supLo[j] = min(ws.supLo[j], i)
			ws.supHi[j] = max(ws.supHi[j], i+1)
		}
	}
}

func (ws *Workspace) allocate() {
	nfft := ws.sig.NFFT()
	m, n := ws.rows, ws.cols

	ws.bkg = growFloat(ws.bkg, nfft)
	ws.diff = growFloat(ws.diff, nfft)
	ws.bins = growComplex(ws.bins, ws.ft.Bins())
	ws.col = growComplex(ws.col, ws.irbkg)
	ws.seg = growFloat(ws.seg, ws.sig.Len)
	ws.jac = growFloat(ws.jac, m*n)
	ws.res = growFloat(ws.res, m)
	ws.tres = growFloat(ws.tres, m)
	ws.coef = growFloat(ws.coef, n)
	ws.tcoef = growFloat(ws.tcoef, n)

	if ws.a == nil || ws.a.SymmetricDim() != n {
		ws.a = mat.NewSymDense(n, nil)
		ws.work = mat.NewSymDense(n, nil)
		ws.g = mat.NewVecDense(n, nil)
		ws.delta = mat.NewVecDense(n, nil)
	}
}

// initialCoef seeds the coefficients with a quadratic fit to chi over the
// fit range, sampled at the Greville abscissae.
func (ws *Workspace) initialCoef() error {
	sig := ws.sig
	ks := sig.K[sig.IMin : sig.IMax+1]
	chi := sig.Chi[sig.IMin : sig.IMax+1]
	poly, err := linalg.Polyfit(ks, chi, min(2, len(ks)-1))
	if err != nil {
		return &xafserr.MathError{Reason: xafserr.Singular, Op: "autobk.Fit", Detail: "initial background", Cause: err}
	}
	for j, g := range ws.spline.Greville() {
		ws.coef[j] = poly.Eval(g)
	}
	return nil
}

// optimize runs the damped least-squares loop on ws.coef and returns the
// final state and the initial residual norm.
func (ws *Workspace) optimize(cfg core.Config) (State, float64, error) {
	st := State{Damping: cfg.InitialDamping}
	if !(st.Damping > 0) {
		st.Damping = core.DefaultConfig().InitialDamping
	}
	retries := cfg.RetryBudget
	if retries <= 0 {
		retries = core.DefaultConfig().RetryBudget
	}

	obj, err := ws.residual(ws.coef, ws.res)
	st.Evaluations++
	if err != nil {
		return st, 0, err
	}
	if !core.IsFinite(obj) {
		return st, 0, &xafserr.MathError{Reason: xafserr.NonFiniteResult, Op: "autobk.Fit", Detail: "initial residual is not finite"}
	}
	st.Objective = obj
	initial := math.Sqrt(obj)

	n := ws.cols
	jac := mat.NewDense(ws.rows, n, ws.jac)
	r := mat.NewVecDense(ws.rows, ws.res)

	for st.Iterations < cfg.MaxIterations {
		if err := ws.jacobian(ws.coef); err != nil {
			return st, initial, err
		}
		if isZero(ws.jac) {
			return st, initial, &xafserr.MathError{Reason: xafserr.Singular, Op: "autobk.Fit", Detail: "zero jacobian"}
		}
		if st.Objective == 0 {
			st.Converged, st.Stop = true, StopConverged
			break
		}
		linalg.NormalEquations(ws.a, ws.g, jac, r)
		st.Iterations++

		accepted := false
		for !accepted {
			err := linalg.Damped(ws.delta, ws.a, ws.g, st.Damping, dampingFloor, ws.work, &ws.chol)
			if err == nil {
				for j := 0; j < n; j++ {
					ws.tcoef[j] = ws.coef[j] + ws.delta.AtVec(j)
				}
				var trial float64
				trial, err = ws.residual(ws.tcoef, ws.tres)
				st.Evaluations++
				if err != nil {
					return st, initial, err
				}
				if core.IsFinite(trial) && trial < st.Objective {
					decrease := (st.Objective - trial) / st.Objective
					copy(ws.coef, ws.tcoef)
					copy(ws.res, ws.tres)
					st.Objective = trial
					st.Damping = core.Clamp(st.Damping/acceptFactor, minDamping, maxDamping)
					st.Rejected = 0
					accepted = true
					if decrease < cfg.ConvergenceTolerance {
						st.Converged, st.Stop = true, StopConverged
					}
					continue
				}
			}

			st.Rejected++
			st.Damping *= rejectFactor
			if st.Damping > maxDamping {
				return st, initial, &xafserr.MathError{
					Reason: xafserr.Singular,
					Op:     "autobk.Fit",
					Detail: "damped normal equations cannot be solved",
					Cause:  err,
				}
			}
			if st.Rejected >= retries {
				st.Converged, st.Stop = true, StopStalled
				break
			}
		}
		if st.Converged {
			break
		}
	}

	if !st.Converged {
		st.Stop = StopMaxIterations
	}
	return st, initial, nil
}

func isZero(xs []float64) bool {
	for _, v := range xs {
		if v != 0 {
			return false
		}
	}
	return true
}

// background evaluates the spline with coefficients coef on the valid grid
// into ws.bkg and stores Chi − bkg into ws.diff.
func (ws *Workspace) background(coef []float64) {
	p := ws.spline.Degree
	p1 := p + 1
	chi := ws.sig.Chi
	nk := ws.sig.Len
	for i := 0; i < nk; i++ {
		base := ws.spans[i] - p
		v := ws.vals[i*p1 : (i+1)*p1]
		sum := 0.0
		for r, b := range v {
			sum += b * coef[base+r]
		}
		ws.bkg[i] = sum
		ws.diff[i] = chi[i] - sum
	}
	clear(ws.bkg[nk:])
	clear(ws.diff[nk:])
}

// basisAt returns B_j at grid index i.
func (ws *Workspace) basisAt(i, j int) float64 {
	p := ws.spline.Degree
	r := j - (ws.spans[i] - p)
	if r < 0 || r > p {
		return 0
	}
	return ws.vals[i*(p+1)+r]
}

func clampFactor(out []float64) float64 {
	sum := 0.0
	for _, v := range out {
		sum += v * v
	}
	return 1 + clampScale*sum/float64(len(out))
}

// residual writes the residual vector for coef into dst and returns the
// sum of squares: the real and imaginary parts of the first irbkg bins of
// the weighted transform of Chi − bkg, then the clamp terms.
func (ws *Workspace) residual(coef, dst []float64) (float64, error) {
	ws.background(coef)
	if err := ws.ft.ForwardWeighted(ws.bins, ws.diff, ws.sig.Weight); err != nil {
		return 0, err
	}
	nout := 2 * ws.irbkg
	if err := fourier.Interleave(dst[:nout], ws.bins[:ws.irbkg]); err != nil {
		return 0, err
	}

	row := nout
	if ws.nClampLo+ws.nClampHi > 0 {
		s := clampFactor(dst[:nout])
		for i := 0; i < ws.nClampLo; i++ {
			dst[row] = ws.weightLo * s * ws.diff[ws.clampLo+i]
			row++
		}
		for i := 0; i < ws.nClampHi; i++ {
			dst[row] = ws.weightHi * s * ws.diff[ws.clampHi+i]
			row++
		}
	}

	obj := 0.0
	for _, v := range dst[:row] {
		obj += v * v
	}
	return obj, nil
}

// jacobian fills ws.jac (row-major, rows×cols) at coef. ws.res must hold
// the residual at coef.
//
// A unit change of coefficient j moves the background by B_j on its
// support only, so its effect on the low-R rows is the transform of
// −B_j·Weight over that support. The clamp rows, which depend on the
// low-R rows through the clamp factor, are perturbed by ±h around coef.
func (ws *Workspace) jacobian(coef []float64) error {
	n := ws.cols
	nout := 2 * ws.irbkg
	w := ws.sig.Weight
	clear(ws.jac)

	for j := 0; j < n; j++ {
		lo, hi := ws.supLo[j], ws.supHi[j]
		if lo >= hi {
			continue
		}
		seg := ws.seg[:hi-lo]
		for i := lo; i < hi; i++ {
			seg[i-lo] = -ws.basisAt(i, j) * w[i]
		}
		if err := ws.ft.PartialForward(ws.col, seg, lo); err != nil {
			return err
		}
		for m, c := range ws.col {
			ws.jac[(2*m)*n+j] = real(c)
			ws.jac[(2*m+1)*n+j] = imag(c)
		}
	}

	if ws.nClampLo+ws.nClampHi == 0 {
		return nil
	}

	ws.background(coef)
	out := ws.res[:nout]
	for j := 0; j < n; j++ {
		h := 1e-6 * math.Max(1, math.Abs(coef[j]))
		var sumP, sumM float64
		for m, v := range out {
			d := h * ws.jac[m*n+j]
			sumP += (v + d) * (v + d)
			sumM += (v - d) * (v - d)
		}
		sp := 1 + clampScale*sumP/float64(nout)
		sm := 1 + clampScale*sumM/float64(nout)

		row := nout
		emit := func(idx int, weight float64) {
			chi := ws.diff[idx]
			b := ws.basisAt(idx, j)
			ws.jac[row*n+j] = weight * (sp*(chi-h*b) - sm*(chi+h*b)) / (2 * h)
			row++
		}
		for i := 0; i < ws.nClampLo; i++ {
			emit(ws.clampLo+i, ws.weightLo)
		}
		for i := 0; i < ws.nClampHi; i++ {
			emit(ws.clampHi+i, ws.weightHi)
		}
	}
	return nil
}

// result assembles the Result for the coefficients in ws.coef.
func (ws *Workspace) result(st State, initial float64) (*Result, error) {
	sig := ws.sig
	spline := ws.spline.Clone()
	copy(spline.Coef, ws.coef)

	diag := Diagnostics{
		State:           st,
		InitialResidual: initial,
		FinalResidual:   math.Sqrt(st.Objective),
		Knots:           ws.cols,
		IRBkg:           ws.irbkg,
	}
	if dof := ws.rows - ws.cols; dof > 0 && st.Objective > 0 {
		if err := ws.jacobian(ws.coef); err == nil {
			linalg.NormalEquations(ws.a, ws.g, mat.NewDense(ws.rows, ws.cols, ws.jac), mat.NewVecDense(ws.rows, ws.res))
			if stderr, err := linalg.Covariance(ws.a, st.Objective, dof); err == nil {
				diag.StdErr = stderr
			}
		}
	}

	ws.background(ws.coef)
	out := sig.Clone()
	copy(out.Chi, ws.diff)
	bkg := append([]float64(nil), ws.bkg...)

	if err := ws.ft.ForwardWeighted(ws.bins, out.Chi, out.Weight); err != nil {
		return nil, err
	}
	rmag := make([]float64, len(ws.bins))
	if err := fourier.Magnitude(rmag, ws.bins); err != nil {
		return nil, err
	}

	res := &Result{
		Spline:      spline,
		Signal:      out,
		Bkg:         bkg,
		R:           ws.ft.RGrid(),
		RMag:        rmag,
		Diagnostics: diag,
	}

	if norm := sig.Norm; norm != nil {
		res.E0, res.EdgeStep = sig.E0(), norm.EdgeStep
		energy, mu := norm.Source.Energy, norm.Source.Mu
		res.BkgEnergy = make([]float64, len(energy))
		res.ChiEnergy = make([]float64, len(energy))
		for i, e := range energy {
			b := norm.PreEdge.Eval(e) + norm.EdgeStep*spline.Eval(core.EnergyToK(e, res.E0))
			res.BkgEnergy[i] = b
			res.ChiEnergy[i] = (mu[i] - b) / norm.EdgeStep
		}
	}

	return res, nil
}
