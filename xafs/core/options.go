package core

import "github.com/cwbudde/algo-xafs/xafs/window"

// Variant selects the background model family.
type Variant int

const (
	// VariantBSpline is the clamped cubic B-spline used by AUTOBK.
	VariantBSpline Variant = iota
	// VariantSmoothingSpline is a penalized smoothing spline. Not implemented.
	VariantSmoothingSpline
	// VariantChebyshev is a Chebyshev polynomial background. Not implemented.
	VariantChebyshev
)

func (v Variant) String() string {
	switch v {
	case VariantBSpline:
		return "bspline"
	case VariantSmoothingSpline:
		return "smoothing-spline"
	case VariantChebyshev:
		return "chebyshev"
	default:
		return "unknown"
	}
}

// Config collects the settings of one reduction: normalization, k-space
// conversion and background fit. Zero-valued energies and ranges mean
// "derive from the data".
type Config struct {
	// E0 overrides the edge energy (eV).
	E0 float64
	// EdgeStep overrides the fitted edge step.
	EdgeStep float64
	// MinSamples is the smallest accepted spectrum.
	MinSamples int

	// Pre-edge and post-edge fit ranges relative to e0 (eV).
	Pre1, Pre2   float64
	Norm1, Norm2 float64
	// NormOrder is the post-edge polynomial degree.
	NormOrder int

	// RBkg is the R cutoff (Å) below which Fourier amplitude is minimized.
	RBkg float64
	// KWeight is the exponent of the k-weighting.
	KWeight float64
	// KMin and KMax bound the fit range (Å⁻¹). KMax zero uses the data maximum.
	KMin, KMax float64
	KStep      float64
	// DK is the window sill width (Å⁻¹).
	DK     float64
	Window window.Type
	// NFFT is the minimum transform length; always a power of two.
	NFFT int

	Variant Variant
	// Knots overrides the knot count derived from RBkg.
	Knots int
	// ClampLo and ClampHi weight chi toward zero at the ends of the fit range.
	ClampLo, ClampHi float64
	NClamp           int

	MaxIterations        int
	ConvergenceTolerance float64
	// RetryBudget is the number of consecutive rejected steps before the
	// optimizer stops at the best point found.
	RetryBudget    int
	InitialDamping float64
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the customary AUTOBK settings.
func DefaultConfig() Config {
	return Config{
		MinSamples:           100,
		Pre2:                 -30,
		NormOrder:            2,
		RBkg:                 1,
		KWeight:              2,
		KStep:                0.05,
		DK:                   0.1,
		Window:               window.TypeHanning,
		NFFT:                 2048,
		Variant:              VariantBSpline,
		ClampLo:              0,
		ClampHi:              1,
		NClamp:               5,
		MaxIterations:        100,
		ConvergenceTolerance: 1e-6,
		RetryBudget:          8,
		InitialDamping:       1e-3,
	}
}

// ApplyOptions applies zero or more options to the default config.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// With returns a copy of cfg with opts applied.
func (cfg Config) With(opts ...Option) Config {
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithE0 overrides the edge energy. The value is checked against the data
// range during normalization.
func WithE0(e0 float64) Option {
	return func(cfg *Config) {
		cfg.E0 = e0
	}
}

// WithEdgeStep overrides the fitted edge step.
func WithEdgeStep(step float64) Option {
	return func(cfg *Config) {
		cfg.EdgeStep = step
	}
}

// WithMinSamples sets the minimum accepted sample count.
func WithMinSamples(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.MinSamples = n
		}
	}
}

// WithPreEdge sets the pre-edge fit range relative to e0.
func WithPreEdge(pre1, pre2 float64) Option {
	return func(cfg *Config) {
		if pre1 < pre2 {
			cfg.Pre1, cfg.Pre2 = pre1, pre2
		}
	}
}

// WithPostEdge sets the post-edge fit range relative to e0 and the polynomial
// degree.
func WithPostEdge(norm1, norm2 float64, order int) Option {
	return func(cfg *Config) {
		if norm1 < norm2 {
			cfg.Norm1, cfg.Norm2 = norm1, norm2
		}
		if order >= 0 && order <= 3 {
			cfg.NormOrder = order
		}
	}
}

// WithRBkg sets the R cutoff of the background fit.
func WithRBkg(rbkg float64) Option {
	return func(cfg *Config) {
		if rbkg > 0 {
			cfg.RBkg = rbkg
		}
	}
}

// WithKWeight sets the k-weighting exponent.
func WithKWeight(w float64) Option {
	return func(cfg *Config) {
		if w >= 0 {
			cfg.KWeight = w
		}
	}
}

// WithKRange sets the fit range in k. A zero kmax uses the data maximum.
func WithKRange(kmin, kmax float64) Option {
	return func(cfg *Config) {
		if kmin >= 0 {
			cfg.KMin = kmin
		}
		if kmax >= 0 {
			cfg.KMax = kmax
		}
	}
}

// WithKStep sets the k-grid spacing.
func WithKStep(step float64) Option {
	return func(cfg *Config) {
		if step > 0 {
			cfg.KStep = step
		}
	}
}

// WithWindow sets the k window type and sill width.
func WithWindow(t window.Type, dk float64) Option {
	return func(cfg *Config) {
		cfg.Window = t
		if dk >= 0 {
			cfg.DK = dk
		}
	}
}

// WithNFFT sets the minimum transform length, rounded up to a power of two.
func WithNFFT(n int) Option {
	return func(cfg *Config) {
		if n >= 4 {
			cfg.NFFT = NextPowerOfTwo(n)
		}
	}
}

// WithVariant selects the background model family.
func WithVariant(v Variant) Option {
	return func(cfg *Config) {
		cfg.Variant = v
	}
}

// WithKnots overrides the knot count derived from RBkg.
func WithKnots(n int) Option {
	return func(cfg *Config) {
		if n >= 0 {
			cfg.Knots = n
		}
	}
}

// WithClamps sets the end clamps. Zero weights disable a clamp.
func WithClamps(lo, hi float64, n int) Option {
	return func(cfg *Config) {
		cfg.ClampLo, cfg.ClampHi = lo, hi
		if n >= 0 {
			cfg.NClamp = n
		}
	}
}

// WithMaxIterations sets the optimizer iteration budget.
func WithMaxIterations(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.MaxIterations = n
		}
	}
}

// WithConvergenceTolerance sets the relative objective decrease below which
// the fit is converged.
func WithConvergenceTolerance(tol float64) Option {
	return func(cfg *Config) {
		if tol > 0 {
			cfg.ConvergenceTolerance = tol
		}
	}
}

// WithRetryBudget sets the number of consecutive rejected steps tolerated.
func WithRetryBudget(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.RetryBudget = n
		}
	}
}

// WithInitialDamping sets the starting Levenberg–Marquardt damping.
func WithInitialDamping(lambda float64) Option {
	return func(cfg *Config) {
		if lambda > 0 {
			cfg.InitialDamping = lambda
		}
	}
}
