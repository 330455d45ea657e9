package grouping

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidTolerance is returned by Tolerance.Validate.
var ErrInvalidTolerance = errors.New("grouping: invalid tolerance")

// DefaultTolerance is a relative tolerance of 1e-8, a little looser than the
// ~10 significant digits a double-precision hyperbolic structure solve gives.
var DefaultTolerance = Tolerance{Relative: 1e-8}

// Tolerance decides whether two volumes are considered equal:
//
//	|a-b| <= max(Absolute, Relative*max(|a|,|b|))
type Tolerance struct {
	Absolute float64 `json:"absolute" yaml:"absolute"`
	Relative float64 `json:"relative" yaml:"relative"`
}

// Absolute returns an absolute tolerance.
func Absolute(eps float64) Tolerance {
	return Tolerance{Absolute: eps}
}

// Relative returns a relative tolerance.
func Relative(eps float64) Tolerance {
	return Tolerance{Relative: eps}
}

// Validate rejects negative or non-finite bounds, Relative >= 1 and the
// all-zero tolerance.
func (t Tolerance) Validate() error {
	if math.IsNaN(t.Absolute) || math.IsInf(t.Absolute, 0) || t.Absolute < 0 {
		return fmt.Errorf("%w: absolute %v", ErrInvalidTolerance, t.Absolute)
	}
	if math.IsNaN(t.Relative) || t.Relative < 0 || t.Relative >= 1 {
		return fmt.Errorf("%w: relative %v", ErrInvalidTolerance, t.Relative)
	}
	if t.Absolute == 0 && t.Relative == 0 {
		return fmt.Errorf("%w: zero", ErrInvalidTolerance)
	}
	return nil
}

// Bound returns the admissible difference for two volumes whose larger
// magnitude is m.
func (t Tolerance) Bound(m float64) float64 {
	return max(t.Absolute, t.Relative*math.Abs(m))
}

// Within reports whether a and b are equal up to the tolerance.
func (t Tolerance) Within(a, b float64) bool {
	return math.Abs(a-b) <= t.Bound(max(math.Abs(a), math.Abs(b)))
}

// String formats the tolerance for reports.
func (t Tolerance) String() string {
	switch {
	case t.Absolute == 0:
		return fmt.Sprintf("rel %g", t.Relative)
	case t.Relative == 0:
		return fmt.Sprintf("abs %g", t.Absolute)
	default:
		return fmt.Sprintf("abs %g, rel %g", t.Absolute, t.Relative)
	}
}
