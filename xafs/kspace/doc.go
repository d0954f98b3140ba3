// Package kspace converts a normalized spectrum to photoelectron wavenumber.
//
// [Convert] maps energy to k = √(ETOK·(E − e0)), resamples the normalized
// absorption on a uniform grid starting at k = 0, continues the data past the
// last measured point along its trailing slope, and attaches the k-weighted
// Fourier window used by the background fit.
//
// # Usage
//
//	norm, _ := normalize.Normalize(spec, cfg)
//	sig, err := kspace.Convert(norm, cfg)
//	if err != nil {
//		return err
//	}
//	weighted := make([]float64, sig.NFFT())
//	_ = sig.Weighted(weighted)
package kspace
