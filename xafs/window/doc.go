// Package window provides the Fourier windows used in XAFS analysis.
//
// Unlike sample-count windows used for framing, these windows are defined on
// a coordinate range [xmin, xmax] (k in Å⁻¹ or R in Å) with sills of width dx
// at each end, and can be evaluated on any grid:
//
//	w, _ := window.New(window.TypeHanning, 2, 14, window.WithDX(1))
//	weights := make([]float64, len(k))
//	_ = w.Fill(weights, k)
//
// Hanning, Parzen and Welch taper the sills with sin², linear and parabolic
// shapes. Sine spans the whole support. Gaussian and Kaiser-Bessel use dx as
// a shape parameter (width and beta) over [xmin, xmax].
package window
