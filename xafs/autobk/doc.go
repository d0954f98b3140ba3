// Package autobk removes the smooth atomic background from a k-space XAFS
// signal with the AUTOBK method.
//
// The background is a clamped B-spline over [KMin, KMax] whose knot count
// follows from the R cutoff: 1 + ⌊2·RBkg·(KMax−KMin)/π⌋. Its coefficients
// are chosen by damped least squares so that the Fourier transform of
// (chi − background)·weight carries as little amplitude as possible below
// RBkg, where no real scattering shell can sit. Optional clamps pull chi
// toward zero at the ends of the fit range.
//
// Each coefficient only moves the background over its own basis support, so
// the Jacobian is assembled column by column from short partial transforms
// instead of full FFTs.
//
// # Usage
//
//	ws := autobk.NewWorkspace()
//	res, err := ws.Fit(sig, cfg)
//	switch {
//	case xafserr.IsRecoverable(err):
//		// res holds the best fit found within the iteration budget.
//	case err != nil:
//		return err
//	}
//	chi := res.Signal.Chi
//
// A [Workspace] keeps its transforms and scratch buffers between fits and is
// meant to be owned by a single worker goroutine.
package autobk
