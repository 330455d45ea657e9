package oracle

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/hupe1980/dehnvol/model"
	"github.com/hupe1980/dehnvol/slope"
)

var (
	// ErrNonHyperbolic signals a filling that is not hyperbolic.
	ErrNonHyperbolic = errors.New("oracle: filling is not hyperbolic")
	// ErrNotConverged signals a solve that did not converge.
	ErrNotConverged = errors.New("oracle: solver did not converge")
	// ErrNoEntry is returned by replay oracles for a slope they hold no
	// volume for.
	ErrNoEntry = errors.New("oracle: no volume recorded")
)

// DefaultMinVolume is the volume of the smallest closed hyperbolic
// 3-manifold, rounded down. Fillings reported below it are not hyperbolic.
const DefaultMinVolume = 0.942

// Request is one volume solve.
type Request struct {
	Manifold model.Manifold
	Pair     slope.Pair
	// Attempt counts retries from zero. Engines may vary their starting
	// structure by attempt.
	Attempt int
	// Precision is the requested mantissa size in bits; zero asks for the
	// engine's standard double precision.
	Precision uint
}

// Oracle computes volumes at standard precision.
type Oracle interface {
	Volume(ctx context.Context, req Request) (float64, error)
}

// PreciseOracle computes volumes at req.Precision bits.
type PreciseOracle interface {
	Oracle
	PreciseVolume(ctx context.Context, req Request) (*big.Float, error)
}

// SolveError wraps an engine failure with the request it belongs to.
type SolveError struct {
	Manifold string
	Pair     slope.Pair
	Attempt  int
	Err      error
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("solve %s%v (attempt %d): %v", e.Manifold, e.Pair, e.Attempt, e.Err)
}

func (e *SolveError) Unwrap() error {
	return e.Err
}

// NewSolveError wraps err for req. A nil err stays nil.
func NewSolveError(req Request, err error) error {
	if err == nil {
		return nil
	}
	return &SolveError{Manifold: req.Manifold.Name, Pair: req.Pair, Attempt: req.Attempt, Err: err}
}

// IsNonHyperbolic reports whether err marks a non-hyperbolic filling.
func IsNonHyperbolic(err error) bool {
	return errors.Is(err, ErrNonHyperbolic)
}

// Retryable reports whether a failed solve should be attempted again.
// Everything except a non-hyperbolic verdict is retryable.
func Retryable(err error) bool {
	return err != nil && !IsNonHyperbolic(err)
}

// Func adapts a function to the Oracle interface.
type Func func(ctx context.Context, req Request) (float64, error)

// Volume calls f.
func (f Func) Volume(ctx context.Context, req Request) (float64, error) {
	return f(ctx, req)
}
