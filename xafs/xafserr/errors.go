package xafserr

import (
	"errors"
	"fmt"
)

// Sentinels matched by the domain errors through errors.Is.
var (
	ErrInsufficientData = errors.New("xafs: insufficient data")
	ErrNonMonotonic     = errors.New("xafs: energy not strictly increasing")
	ErrNonFinite        = errors.New("xafs: non-finite value")
	ErrLengthMismatch   = errors.New("xafs: length mismatch")

	ErrEdgeOutOfRange = errors.New("xafs: edge energy outside data range")
	ErrDegenerateFit  = errors.New("xafs: degenerate edge fit")
	ErrEdgeStep       = errors.New("xafs: invalid edge step")

	ErrSplineConstruction = errors.New("xafs: background spline construction failed")
	ErrNotConverged       = errors.New("xafs: background fit did not converge")
	ErrNotImplemented     = errors.New("xafs: not implemented")

	ErrGridMismatch = errors.New("xafs: transform grid mismatch")
	ErrInvalidSize  = errors.New("xafs: invalid transform size")

	ErrIO       = errors.New("xafs: i/o failure")
	ErrKGrid    = errors.New("xafs: k-grid cannot be constructed")
	ErrSingular = errors.New("xafs: singular system")
	ErrInternal = errors.New("xafs: internal failure")
)

// DataReason classifies a [DataError].
type DataReason int

const (
	InsufficientSamples DataReason = iota
	NonMonotonicEnergy
	NonFiniteSample
	LengthMismatch
)

// DataError reports input that cannot be processed at all.
type DataError struct {
	Reason DataReason
	// Minimum is the required sample count for InsufficientSamples.
	Minimum int
	// Actual is the observed sample count (or mu length for LengthMismatch).
	Actual int
	// Expected is the energy length for LengthMismatch.
	Expected int
	// Index locates the offending sample for NonMonotonicEnergy and NonFiniteSample.
	Index int
	Value float64
}

// InsufficientData returns a DataError for a spectrum with too few samples.
func InsufficientData(minimum, actual int) *DataError {
	return &DataError{Reason: InsufficientSamples, Minimum: minimum, Actual: actual}
}

func (e *DataError) Error() string {
	switch e.Reason {
	case InsufficientSamples:
		return fmt.Sprintf("xafs: insufficient data: need at least %d samples, got %d", e.Minimum, e.Actual)
	case NonMonotonicEnergy:
		return fmt.Sprintf("xafs: energy not strictly increasing at index %d (%v)", e.Index, e.Value)
	case NonFiniteSample:
		return fmt.Sprintf("xafs: non-finite sample at index %d (%v)", e.Index, e.Value)
	case LengthMismatch:
		return fmt.Sprintf("xafs: energy and mu lengths differ: %d vs %d", e.Expected, e.Actual)
	default:
		return "xafs: invalid data"
	}
}

// Is maps the reason to its sentinel.
func (e *DataError) Is(target error) bool {
	switch e.Reason {
	case InsufficientSamples:
		return target == ErrInsufficientData
	case NonMonotonicEnergy:
		return target == ErrNonMonotonic
	case NonFiniteSample:
		return target == ErrNonFinite
	case LengthMismatch:
		return target == ErrLengthMismatch
	}
	return false
}

// Clone returns an independent copy.
func (e *DataError) Clone() *DataError {
	c := *e
	return &c
}

// NormalizationReason classifies a [NormalizationError].
type NormalizationReason int

const (
	EdgeOutOfRange NormalizationReason = iota
	DegeneratePreEdge
	DegeneratePostEdge
	NonPositiveStep
)

// NormalizationError reports a failure to establish e0, the baselines or the
// edge step.
type NormalizationError struct {
	Reason NormalizationReason
	// Value is the offending edge energy or edge step.
	Value float64
	// Min and Max bound the valid data range or the fit window.
	Min, Max float64
	// Points is the number of samples found in a degenerate fit window.
	Points int
}

// EdgeOutside returns a NormalizationError for an edge energy outside [lo, hi].
func EdgeOutside(e0, lo, hi float64) *NormalizationError {
	return &NormalizationError{Reason: EdgeOutOfRange, Value: e0, Min: lo, Max: hi}
}

func (e *NormalizationError) Error() string {
	switch e.Reason {
	case EdgeOutOfRange:
		return fmt.Sprintf("xafs: edge energy %v outside data range [%v, %v]", e.Value, e.Min, e.Max)
	case DegeneratePreEdge:
		return fmt.Sprintf("xafs: degenerate pre-edge fit: %d points in [%v, %v]", e.Points, e.Min, e.Max)
	case DegeneratePostEdge:
		return fmt.Sprintf("xafs: degenerate post-edge fit: %d points in [%v, %v]", e.Points, e.Min, e.Max)
	case NonPositiveStep:
		return fmt.Sprintf("xafs: edge step %v is not positive", e.Value)
	default:
		return "xafs: normalization failed"
	}
}

// Is maps the reason to its sentinel.
func (e *NormalizationError) Is(target error) bool {
	switch e.Reason {
	case EdgeOutOfRange:
		return target == ErrEdgeOutOfRange
	case DegeneratePreEdge, DegeneratePostEdge:
		return target == ErrDegenerateFit
	case NonPositiveStep:
		return target == ErrEdgeStep
	}
	return false
}

// Clone returns an independent copy.
func (e *NormalizationError) Clone() *NormalizationError {
	c := *e
	return &c
}

// BackgroundReason classifies a [BackgroundError].
type BackgroundReason int

const (
	SplineConstruction BackgroundReason = iota
	NotConverged
	NotImplemented
)

// BackgroundError reports a failure of the spline background fit.
//
// NotConverged is recoverable: the optimizer returns its best-so-far result
// alongside the error and Residual holds that result's residual norm.
type BackgroundError struct {
	Reason     BackgroundReason
	Variant    string
	Knots      int
	KMin, KMax float64
	Iterations int
	Residual   float64
	// Detail replaces the knot summary of a SplineConstruction message.
	Detail string
}

func (e *BackgroundError) Error() string {
	switch e.Reason {
	case SplineConstruction:
		if e.Detail != "" {
			return "xafs: cannot build background spline: " + e.Detail
		}
		return fmt.Sprintf("xafs: cannot build background spline: %d knots in k range [%v, %v]", e.Knots, e.KMin, e.KMax)
	case NotConverged:
		return fmt.Sprintf("xafs: background fit not converged after %d iterations (residual %v)", e.Iterations, e.Residual)
	case NotImplemented:
		return fmt.Sprintf("xafs: background variant %q not implemented", e.Variant)
	default:
		return "xafs: background fit failed"
	}
}

// Is maps the reason to its sentinel.
func (e *BackgroundError) Is(target error) bool {
	switch e.Reason {
	case SplineConstruction:
		return target == ErrSplineConstruction
	case NotConverged:
		return target == ErrNotConverged
	case NotImplemented:
		return target == ErrNotImplemented
	}
	return false
}

// Clone returns an independent copy.
func (e *BackgroundError) Clone() *BackgroundError {
	c := *e
	return &c
}

// TransformReason classifies a [TransformError].
type TransformReason int

const (
	GridMismatch TransformReason = iota
	InvalidSize
	Backend
)

// TransformError reports a Fourier transform failure.
type TransformError struct {
	Reason   TransformReason
	Op       string
	Expected int
	Actual   int
	Cause    error
}

func (e *TransformError) Error() string {
	switch e.Reason {
	case GridMismatch:
		return fmt.Sprintf("xafs: %s: grid size mismatch: expected %d, got %d", e.Op, e.Expected, e.Actual)
	case InvalidSize:
		return fmt.Sprintf("xafs: %s: invalid transform size %d", e.Op, e.Actual)
	default:
		return fmt.Sprintf("xafs: %s: transform failed: %v", e.Op, e.Cause)
	}
}

func (e *TransformError) Unwrap() error { return e.Cause }

// Is maps the reason to its sentinel.
func (e *TransformError) Is(target error) bool {
	switch e.Reason {
	case GridMismatch:
		return target == ErrGridMismatch
	case InvalidSize:
		return target == ErrInvalidSize
	}
	return false
}

// Clone returns an independent copy sharing the (immutable) cause.
func (e *TransformError) Clone() *TransformError {
	c := *e
	return &c
}

// IOError reports a read or parse failure at the pipeline boundary.
type IOError struct {
	Op    string
	Path  string
	Cause error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("xafs: %s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("xafs: %s %s: %v", e.Op, e.Path, e.Cause)
}

func (e *IOError) Unwrap() error { return e.Cause }

// Is matches ErrIO.
func (e *IOError) Is(target error) bool { return target == ErrIO }

// Clone returns an independent copy sharing the (immutable) cause.
func (e *IOError) Clone() *IOError {
	c := *e
	return &c
}

// MathReason classifies a [MathError].
type MathReason int

const (
	KGrid MathReason = iota
	Singular
	NonFiniteResult
	// Internal marks a runtime panic recovered at a processing boundary.
	Internal
)

// MathError reports a numerical failure.
type MathError struct {
	Reason MathReason
	Op     string
	Detail string
	Cause  error
}

func (e *MathError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("xafs: %s: %s: %v", e.Op, e.Detail, e.Cause)
	}
	return fmt.Sprintf("xafs: %s: %s", e.Op, e.Detail)
}

func (e *MathError) Unwrap() error { return e.Cause }

// Is maps the reason to its sentinel.
func (e *MathError) Is(target error) bool {
	switch e.Reason {
	case KGrid:
		return target == ErrKGrid
	case Singular:
		return target == ErrSingular
	case NonFiniteResult:
		return target == ErrNonFinite
	case Internal:
		return target == ErrInternal
	}
	return false
}

// Clone returns an independent copy sharing the (immutable) cause.
func (e *MathError) Clone() *MathError {
	c := *e
	return &c
}
