package window

import (
	"errors"
	"fmt"
)

var (
	errMismatchedLength = errors.New("window: values and coordinates must have same length")
	errUnknownType      = errors.New("window: unknown window type")
	errSillsOverlap     = errors.New("window: sills overlap; range narrower than dx")
	errGaussWidth       = errors.New("window: gaussian width must be > 0")
)

func validateRange(xmin, xmax float64) error {
	if !(xmin < xmax) {
		return fmt.Errorf("window: range must satisfy xmin < xmax: [%f, %f]", xmin, xmax)
	}
	return nil
}
