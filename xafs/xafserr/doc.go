// Package xafserr defines the error taxonomy shared by every stage of the
// XAFS reduction pipeline.
//
// Each domain has its own structured error type carrying numeric diagnostics
// rather than preformatted strings, so callers can branch on the fields:
//
//   - [DataError]:          sample count, monotonicity, finiteness
//   - [NormalizationError]: edge energy range, pre/post-edge regression, edge step
//   - [BackgroundError]:    spline construction, non-convergence, unimplemented variants
//   - [TransformError]:     grid size mismatch, invalid transform size
//   - [IOError]:            read/parse failures at the boundary
//   - [MathError]:          k-grid construction, singular least-squares systems
//
// [From] is the conversion boundary into the composed [Error], which tags the
// payload with its [Kind] and the pipeline stage that produced it. All error
// values hold owned data only and can be duplicated with Clone, which makes
// them safe to collect from parallel workers. Every domain error also matches
// one of the package sentinels through errors.Is:
//
//	if errors.Is(err, xafserr.ErrInsufficientData) { ... }
//
//	var nerr *xafserr.NormalizationError
//	if errors.As(err, &nerr) {
//	    fmt.Println(nerr.Value, nerr.Min, nerr.Max)
//	}
package xafserr
