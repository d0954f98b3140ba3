package fourier

import (
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-xafs/xafs/core"
	"github.com/cwbudde/algo-xafs/xafs/xafserr"
)

// Transform maps real k-space signals on an NFFT-point grid to the
// non-negative half of R space and back.
//
// The forward scale is KStep/√π, so a Transform on the customary
// NFFT=2048, KStep=0.05 grid yields R-space amplitudes in the usual XAFS
// units. The plan and all scratch buffers are owned by the Transform and
// reused by every call; a Transform must not be shared between goroutines.
type Transform struct {
	nfft  int
	kstep float64
	scale float64

	plan *algofft.Plan[complex128]
	buf  []complex128
	tmp  []float64

	// twRe[j] + i·twIm[j] is the backend's forward kernel for index j.
	twRe []float64
	twIm []float64
}

// New creates a Transform for an nfft-point grid with spacing kstep.
func New(nfft int, kstep float64) (*Transform, error) {
	if nfft < 4 || !core.IsPowerOfTwo(nfft) {
		return nil, &xafserr.TransformError{Reason: xafserr.InvalidSize, Op: "fourier.New", Actual: nfft}
	}
	if !(kstep > 0) || math.IsInf(kstep, 0) {
		return nil, &xafserr.MathError{
			Reason: xafserr.KGrid,
			Op:     "fourier.New",
			Detail: "k step must be positive and finite",
		}
	}

	plan, err := algofft.NewPlan64(nfft)
	if err != nil {
		return nil, &xafserr.TransformError{Reason: xafserr.Backend, Op: "fourier.New", Cause: err}
	}

	t := &Transform{
		nfft:  nfft,
		kstep: kstep,
		scale: kstep / math.Sqrt(math.Pi),
		plan:  plan,
		buf:   make([]complex128, nfft),
		tmp:   make([]float64, nfft),
		twRe:  make([]float64, nfft),
		twIm:  make([]float64, nfft),
	}

	sign, err := t.kernelSign()
	if err != nil {
		return nil, err
	}
	for j := range t.twRe {
		phase := 2 * math.Pi * float64(j) / float64(nfft)
		t.twRe[j] = math.Cos(phase)
		t.twIm[j] = sign * math.Sin(phase)
	}

	return t, nil
}

// kernelSign probes the backend with a shifted impulse and returns the sign
// of the exponent it uses for the forward direction.
func (t *Transform) kernelSign() (float64, error) {
	clear(t.buf)
	t.buf[1] = 1
	if err := t.plan.Forward(t.buf, t.buf); err != nil {
		return 0, &xafserr.TransformError{Reason: xafserr.Backend, Op: "fourier.New", Cause: err}
	}
	if imag(t.buf[1]) > 0 {
		return 1, nil
	}
	return -1, nil
}

// Size returns NFFT.
func (t *Transform) Size() int { return t.nfft }

// Bins returns the number of non-negative R bins, NFFT/2+1.
func (t *Transform) Bins() int { return t.nfft/2 + 1 }

// KStep returns the k-grid spacing.
func (t *Transform) KStep() float64 { return t.kstep }

// RStep returns the R-grid spacing π/(KStep·NFFT).
func (t *Transform) RStep() float64 { return math.Pi / (t.kstep * float64(t.nfft)) }

// RGrid returns the R value of every bin.
func (t *Transform) RGrid() []float64 {
	out := make([]float64, t.Bins())
	step := t.RStep()
	for i := range out {
		out[i] = float64(i) * step
	}
	return out
}

func (t *Transform) mismatch(op string, expected, actual int) error {
	return &xafserr.TransformError{Reason: xafserr.GridMismatch, Op: op, Expected: expected, Actual: actual}
}

// Forward transforms the real signal src (length NFFT) into dst (length
// Bins()).
func (t *Transform) Forward(dst []complex128, src []float64) error {
	if len(src) != t.nfft {
		return t.mismatch("fourier.Forward", t.nfft, len(src))
	}
	for i, v := range src {
		t.buf[i] = complex(v, 0)
	}
	return t.forwardBuf(dst)
}

// ForwardWeighted transforms src·weight without modifying either input.
func (t *Transform) ForwardWeighted(dst []complex128, src, weight []float64) error {
	if len(src) != t.nfft {
		return t.mismatch("fourier.ForwardWeighted", t.nfft, len(src))
	}
	if len(weight) != t.nfft {
		return t.mismatch("fourier.ForwardWeighted weight", t.nfft, len(weight))
	}
	vecmath.MulBlock(t.tmp, src, weight)
	for i, v := range t.tmp {
		t.buf[i] = complex(v, 0)
	}
	return t.forwardBuf(dst)
}

func (t *Transform) forwardBuf(dst []complex128) error {
	bins := t.Bins()
	if len(dst) != bins {
		return t.mismatch("fourier.Forward output", bins, len(dst))
	}
	if err := t.plan.Forward(t.buf, t.buf); err != nil {
		return &xafserr.TransformError{Reason: xafserr.Backend, Op: "fourier.Forward", Cause: err}
	}
	s := complex(t.scale, 0)
	for i := range dst {
		dst[i] = t.buf[i] * s
	}
	return nil
}

// Inverse reconstructs the real NFFT-point signal whose forward transform is
// src (length Bins()). The negative-R half is taken as the complex
// conjugate of src, so Inverse(Forward(x)) reproduces x.
func (t *Transform) Inverse(dst []float64, src []complex128) error {
	bins := t.Bins()
	if len(src) != bins {
		return t.mismatch("fourier.Inverse", bins, len(src))
	}
	if len(dst) != t.nfft {
		return t.mismatch("fourier.Inverse output", t.nfft, len(dst))
	}

	inv := complex(1/t.scale, 0)
	for i, v := range src {
		t.buf[i] = v * inv
	}
	for j := 1; j < bins-1; j++ {
		v := t.buf[j]
		t.buf[t.nfft-j] = complex(real(v), -imag(v))
	}

	if err := t.plan.Inverse(t.buf, t.buf); err != nil {
		return &xafserr.TransformError{Reason: xafserr.Backend, Op: "fourier.Inverse", Cause: err}
	}
	for i := range dst {
		dst[i] = real(t.buf[i])
	}
	return nil
}

// PartialForward evaluates the first len(dst) bins of the forward transform
// of a signal that is zero everywhere except segment, which starts at grid
// index offset. It costs O(len(dst)·len(segment)) and agrees with Forward on
// those bins, which makes it the cheap path for local signal changes.
func (t *Transform) PartialForward(dst []complex128, segment []float64, offset int) error {
	if offset < 0 || offset+len(segment) > t.nfft {
		return t.mismatch("fourier.PartialForward", t.nfft, offset+len(segment))
	}
	if len(dst) > t.Bins() {
		return t.mismatch("fourier.PartialForward output", t.Bins(), len(dst))
	}

	mask := t.nfft - 1
	for m := range dst {
		var re, im float64
		idx := (m * offset) & mask
		for _, v := range segment {
			if v != 0 {
				re += v * t.twRe[idx]
				im += v * t.twIm[idx]
			}
			idx = (idx + m) & mask
		}
		dst[m] = complex(re*t.scale, im*t.scale)
	}
	return nil
}
