package slope

import (
	"errors"
	"fmt"
)

// ErrInvalidBound is returned for a non-positive coefficient bound.
var ErrInvalidBound = errors.New("slope: bound must be positive")

// Domain describes the admissible slopes of one search: primitive pairs with
// max(|p|,|q|) <= Bound, minus the excluded slopes.
type Domain struct {
	// Bound is the coefficient bound B.
	Bound int
	// Exclude lists slopes known to give degenerate fillings
	// (non-hyperbolic or already identified exceptional ones).
	Exclude Set
}

// Validate checks the bound.
func (d Domain) Validate() error {
	if d.Bound <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBound, d.Bound)
	}
	return nil
}

// Admits reports whether the slope of p is admissible.
// Orientation does not matter: p and p.Neg() are admitted together.
func (d Domain) Admits(p Pair) bool {
	if p.IsZero() || p.Norm() > d.Bound {
		return false
	}
	if !p.Primitive() {
		return false
	}
	return !d.Exclude.Contains(p)
}
