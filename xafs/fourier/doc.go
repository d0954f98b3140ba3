// Package fourier is the transform adapter between k space and R space.
//
// A [Transform] wraps a power-of-two FFT plan together with the scratch
// memory every call needs, so the background optimizer can transform its
// residual thousands of times per spectrum without allocating:
//
//	ft, _ := fourier.New(2048, 0.05)
//	chir := make([]complex128, ft.Bins())
//	_ = ft.ForwardWeighted(chir, chi, weight)
//	mag := make([]float64, len(chir))
//	_ = fourier.Magnitude(mag, chir)
//
// Inputs whose length does not match the configured grid fail with an
// *xafserr.TransformError.
package fourier
