package fourier

import (
	"sync"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-xafs/xafs/xafserr"
)

// scratchBuf holds pooled scratch memory for complex-to-real unpacking.
type scratchBuf struct {
	data []float64
}

var scratchPool = sync.Pool{
	New: func() any { return &scratchBuf{} },
}

func getScratch(n int) (re, im []float64, buf *scratchBuf) {
	buf = scratchPool.Get().(*scratchBuf)
	need := 2 * n
	if cap(buf.data) < need {
		buf.data = make([]float64, need)
	} else {
		buf.data = buf.data[:need]
	}
	return buf.data[:n], buf.data[n:need], buf
}

// Magnitude writes |src[i]| into dst. Both slices must have the same length.
func Magnitude(dst []float64, src []complex128) error {
	if len(dst) != len(src) {
		return &xafserr.TransformError{Reason: xafserr.GridMismatch, Op: "fourier.Magnitude", Expected: len(src), Actual: len(dst)}
	}
	if len(src) == 0 {
		return nil
	}

	re, im, buf := getScratch(len(src))
	for i, c := range src {
		re[i] = real(c)
		im[i] = imag(c)
	}
	vecmath.Magnitude(dst, re, im)
	scratchPool.Put(buf)
	return nil
}

// ApplyWindow multiplies every bin by the matching real weight, e.g. an R
// window before [Transform.Inverse].
func ApplyWindow(bins []complex128, weights []float64) error {
	if len(bins) != len(weights) {
		return &xafserr.TransformError{Reason: xafserr.GridMismatch, Op: "fourier.ApplyWindow", Expected: len(bins), Actual: len(weights)}
	}
	for i, w := range weights {
		bins[i] *= complex(w, 0)
	}
	return nil
}

// Interleave writes the real and imaginary parts of src alternately into
// dst, which must hold 2·len(src) values.
func Interleave(dst []float64, src []complex128) error {
	if len(dst) != 2*len(src) {
		return &xafserr.TransformError{Reason: xafserr.GridMismatch, Op: "fourier.Interleave", Expected: 2 * len(src), Actual: len(dst)}
	}
	for i, c := range src {
		dst[2*i] = real(c)
		dst[2*i+1] = imag(c)
	}
	return nil
}
