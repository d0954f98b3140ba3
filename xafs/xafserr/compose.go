package xafserr

import "errors"

// Kind identifies the domain of a composed [Error].
type Kind int

const (
	KindUnknown Kind = iota
	KindData
	KindNormalization
	KindBackground
	KindTransform
	KindIO
	KindMath
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindNormalization:
		return "normalization"
	case KindBackground:
		return "background"
	case KindTransform:
		return "transform"
	case KindIO:
		return "io"
	case KindMath:
		return "math"
	default:
		return "unknown"
	}
}

// Error is the composed error returned across pipeline boundaries.
//
// Err holds the original error (a domain error or a wrapper around one), so
// errors.Is and errors.As reach the domain payload and its causes.
type Error struct {
	Kind  Kind
	Stage string
	Err   error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "xafs: " + e.Kind.String() + " error"
	}
	if e.Stage == "" {
		return e.Err.Error()
	}
	return e.Stage + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Clone returns a copy whose domain payload is duplicated. Causes below the
// payload are immutable values and are shared.
func (e *Error) Clone() *Error {
	if e == nil {
		return nil
	}
	return &Error{Kind: e.Kind, Stage: e.Stage, Err: cloneErr(e.Err)}
}

// From converts err into the composed type. It returns nil for nil, the
// error itself when err already is an *Error, and otherwise classifies err
// by the first domain error found in its chain.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return &Error{Kind: KindOf(err), Err: err}
}

// FromStage converts err like [From] and records the pipeline stage. An
// existing stage is kept.
func FromStage(stage string, err error) *Error {
	e := From(err)
	if e == nil {
		return nil
	}
	if e.Stage == "" {
		e = &Error{Kind: e.Kind, Stage: stage, Err: e.Err}
	}
	return e
}

// KindOf classifies err without allocating a composed error.
func KindOf(err error) Kind {
	var (
		composed *Error
		dataErr  *DataError
		normErr  *NormalizationError
		bkgErr   *BackgroundError
		ftErr    *TransformError
		ioErr    *IOError
		mathErr  *MathError
	)
	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &composed):
		return composed.Kind
	case errors.As(err, &dataErr):
		return KindData
	case errors.As(err, &normErr):
		return KindNormalization
	case errors.As(err, &bkgErr):
		return KindBackground
	case errors.As(err, &ftErr):
		return KindTransform
	case errors.As(err, &ioErr):
		return KindIO
	case errors.As(err, &mathErr):
		return KindMath
	default:
		return KindUnknown
	}
}

// IsRecoverable reports whether err is a non-convergence outcome that comes
// with a usable best-effort result.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrNotConverged)
}

// Clone duplicates any error produced by this package. Other errors are
// returned unchanged.
func Clone(err error) error {
	return cloneErr(err)
}

func cloneErr(err error) error {
	switch e := err.(type) {
	case *Error:
		return e.Clone()
	case *DataError:
		return e.Clone()
	case *NormalizationError:
		return e.Clone()
	case *BackgroundError:
		return e.Clone()
	case *TransformError:
		return e.Clone()
	case *IOError:
		return e.Clone()
	case *MathError:
		return e.Clone()
	default:
		return err
	}
}
