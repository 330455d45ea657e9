package dehnvol

import (
	"errors"
	"fmt"

	"github.com/hupe1980/dehnvol/grouping"
	"github.com/hupe1980/dehnvol/internal/pool"
	"github.com/hupe1980/dehnvol/slope"
)

var (
	// ErrNoOracle is returned by New without a volume oracle.
	ErrNoOracle = errors.New("dehnvol: no volume oracle")
	// ErrNoManifolds is returned by Search for an empty manifold list.
	ErrNoManifolds = errors.New("dehnvol: no manifolds to search")
	// ErrNoManifold is returned by Check when neither a manifold nor a
	// default manifold is configured.
	ErrNoManifold = errors.New("dehnvol: no manifold selected")
	// ErrUnknownManifold is returned for a manifold the catalog does not know.
	ErrUnknownManifold = errors.New("dehnvol: unknown manifold")
	// ErrInvalidPair is returned for (0,0) and non-primitive pairs.
	ErrInvalidPair = errors.New("dehnvol: invalid slope")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("dehnvol: searcher closed")
)

// ErrInvalidOption indicates an option value New cannot work with.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidOption struct {
	Option string
	Value  any
	cause  error
}

func (e *ErrInvalidOption) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("dehnvol: invalid %s %v: %v", e.Option, e.Value, e.cause)
	}
	return fmt.Sprintf("dehnvol: invalid %s %v", e.Option, e.Value)
}

func (e *ErrInvalidOption) Unwrap() error { return e.cause }

// ManifoldError ties a pipeline failure to its manifold.
type ManifoldError struct {
	Manifold string
	Err      error
}

func (e *ManifoldError) Error() string {
	return fmt.Sprintf("manifold %s: %v", e.Manifold, e.Err)
}

func (e *ManifoldError) Unwrap() error { return e.Err }

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pool.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	if errors.Is(err, grouping.ErrInvalidTolerance) {
		return &ErrInvalidOption{Option: "tolerance", cause: err}
	}
	if errors.Is(err, grouping.ErrInvalidStage) {
		return &ErrInvalidOption{Option: "refinement stage", cause: err}
	}
	if errors.Is(err, slope.ErrInvalidBound) {
		return &ErrInvalidOption{Option: "bound", cause: err}
	}
	return err
}
