package window

import (
	"math"
	"strings"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies an XAFS Fourier window.
type Type int

const (
	TypeHanning Type = iota
	TypeParzen
	TypeWelch
	TypeSine
	TypeGaussian
	TypeKaiserBessel
	TypeRectangular
)

// Metadata describes a window type.
type Metadata struct {
	Name string
	// Shaped reports whether DX is a shape parameter (Gaussian width,
	// Kaiser beta) rather than a sill width.
	Shaped bool
}

var metadataByType = map[Type]Metadata{
	TypeHanning:      {Name: "hanning"},
	TypeParzen:       {Name: "parzen"},
	TypeWelch:        {Name: "welch"},
	TypeSine:         {Name: "sine"},
	TypeGaussian:     {Name: "gaussian", Shaped: true},
	TypeKaiserBessel: {Name: "kaiser", Shaped: true},
	TypeRectangular:  {Name: "rectangular"},
}

// Info returns static metadata for a window type.
func Info(t Type) Metadata {
	if m, ok := metadataByType[t]; ok {
		return m
	}

	return Metadata{}
}

func (t Type) String() string {
	if m, ok := metadataByType[t]; ok {
		return m.Name
	}
	return "unknown"
}

// Parse resolves a window name. Matching is case-insensitive and accepts
// the first three letters ("han", "kai", ...).
func Parse(name string) (Type, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if len(name) < 3 {
		return 0, false
	}
	for t, m := range metadataByType {
		if strings.HasPrefix(m.Name, name[:3]) {
			return t, true
		}
	}
	return 0, false
}

// Option configures window construction.
type Option func(*config)

type config struct {
	dx1 float64
	dx2 float64
	// dx2Set distinguishes an explicit zero right sill from "same as left".
	dx2Set bool
}

func defaultConfig() config {
	return config{dx1: 1}
}

// WithDX sets the sill width (or shape parameter for Gaussian and Kaiser).
func WithDX(dx float64) Option {
	return func(c *config) {
		if dx >= 0 {
			c.dx1 = dx
		}
	}
}

// WithDX2 sets a separate right-hand sill width.
func WithDX2(dx float64) Option {
	return func(c *config) {
		if dx >= 0 {
			c.dx2 = dx
			c.dx2Set = true
		}
	}
}

// Window is a window function over [XMin, XMax] that can be evaluated at any
// coordinate. Tapered types rise over [XMin−DX/2, XMin+DX/2] and fall over
// [XMax−DX2/2, XMax+DX2/2].
type Window struct {
	typ            Type
	xmin, xmax     float64
	dx1, dx2       float64
	x1, x2, x3, x4 float64
	i0dx           float64
}

// New builds a window of type t over [xmin, xmax].
func New(t Type, xmin, xmax float64, opts ...Option) (*Window, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if !cfg.dx2Set {
		cfg.dx2 = cfg.dx1
	}

	if err := validateRange(xmin, xmax); err != nil {
		return nil, err
	}
	if _, ok := metadataByType[t]; !ok {
		return nil, errUnknownType
	}

	w := &Window{typ: t, xmin: xmin, xmax: xmax, dx1: cfg.dx1, dx2: cfg.dx2}
	switch t {
	case TypeGaussian, TypeKaiserBessel, TypeRectangular:
		w.x1, w.x2, w.x3, w.x4 = xmin, xmin, xmax, xmax
	default:
		w.x1 = xmin - cfg.dx1/2
		w.x2 = xmin + cfg.dx1/2
		w.x3 = xmax - cfg.dx2/2
		w.x4 = xmax + cfg.dx2/2
		if w.x2 > w.x3 {
			return nil, errSillsOverlap
		}
	}
	if t == TypeGaussian && cfg.dx1 <= 0 {
		return nil, errGaussWidth
	}
	if t == TypeKaiserBessel {
		w.i0dx = besselI0(cfg.dx1)
	}

	return w, nil
}

// Type returns the window type.
func (w *Window) Type() Type { return w.typ }

// Support returns the interval outside which the window is zero.
func (w *Window) Support() (lo, hi float64) { return w.x1, w.x4 }

// At evaluates the window at x.
func (w *Window) At(x float64) float64 {
	if x < w.x1 || x > w.x4 {
		return 0
	}

	switch w.typ {
	case TypeRectangular:
		return 1
	case TypeHanning:
		return w.taper(x, func(f float64) float64 {
			s := math.Sin(math.Pi / 2 * f)
			return s * s
		})
	case TypeParzen:
		return w.taper(x, func(f float64) float64 { return f })
	case TypeWelch:
		return w.taper(x, func(f float64) float64 {
			d := 1 - f
			return 1 - d*d
		})
	case TypeSine:
		if w.x4 == w.x1 {
			return 1
		}
		return math.Sin(math.Pi * (w.x4 - x) / (w.x4 - w.x1))
	case TypeGaussian:
		cen := (w.x1 + w.x4) / 2
		d := x - cen
		return math.Exp(-d * d / (2 * w.dx1 * w.dx1))
	case TypeKaiserBessel:
		cen := (w.x1 + w.x4) / 2
		half := (w.x4 - w.x1) / 2
		if half == 0 {
			return 1
		}
		r := (x - cen) / half
		arg := 1 - r*r
		if arg <= 0 {
			return 0
		}
		return besselI0(w.dx1*math.Sqrt(arg)) / w.i0dx
	default:
		return 1
	}
}

// taper applies a rising shape f∈[0,1]→[0,1] on the left sill and its mirror
// on the right sill.
func (w *Window) taper(x float64, shape func(float64) float64) float64 {
	switch {
	case x < w.x2:
		if w.x2 == w.x1 {
			return 1
		}
		return shape((x - w.x1) / (w.x2 - w.x1))
	case x <= w.x3:
		return 1
	default:
		if w.x4 == w.x3 {
			return 1
		}
		return shape((w.x4 - x) / (w.x4 - w.x3))
	}
}

// Fill writes the window values at xs into dst.
func (w *Window) Fill(dst, xs []float64) error {
	if len(dst) != len(xs) {
		return errMismatchedLength
	}
	for i, x := range xs {
		dst[i] = w.At(x)
	}
	return nil
}

// Apply multiplies samples in place by the window evaluated at xs. scratch
// must have the same length and receives the window values.
func (w *Window) Apply(samples, xs, scratch []float64) error {
	if len(samples) != len(xs) || len(scratch) != len(xs) {
		return errMismatchedLength
	}
	if err := w.Fill(scratch, xs); err != nil {
		return err
	}
	vecmath.MulBlockInPlace(samples, scratch)
	return nil
}

// Weights returns window values at xs.
func Weights(t Type, xs []float64, xmin, xmax float64, opts ...Option) ([]float64, error) {
	w, err := New(t, xmin, xmax, opts...)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(xs))
	if err := w.Fill(out, xs); err != nil {
		return nil, err
	}
	return out, nil
}

// besselI0 returns a numerical approximation of the modified Bessel function I0.
func besselI0(x float64) float64 {
	ax := math.Abs(x)
	if ax < 3.75 {
		y := x / 3.75
		y *= y

		return 1.0 + y*(3.5156229+y*(3.0899424+y*(1.2067492+y*(0.2659732+y*(0.0360768+y*0.0045813)))))
	}

	y := 3.75 / ax

	return (math.Exp(ax) / math.Sqrt(ax)) *
		(0.39894228 + y*(0.01328592+y*(0.00225319+y*(-0.00157565+y*(0.00916281+y*(-0.02057706+y*(0.02635537+y*(-0.01647633+y*0.00392377))))))))
}
