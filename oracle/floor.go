package oracle

import (
	"context"
	"fmt"
	"math/big"
)

// Floor reports volumes below Min as non-hyperbolic. Engines commonly return
// a small positive number for degenerate fillings instead of failing.
type Floor struct {
	Inner Oracle
	Min   float64
}

// WithMinVolume wraps o with a Floor at floor. Use DefaultMinVolume unless the
// search targets orbifolds.
func WithMinVolume(o Oracle, floor float64) *Floor {
	return &Floor{Inner: o, Min: floor}
}

// Volume implements Oracle.
func (f *Floor) Volume(ctx context.Context, req Request) (float64, error) {
	v, err := f.Inner.Volume(ctx, req)
	if err != nil {
		return 0, err
	}
	if v < f.Min {
		return 0, fmt.Errorf("%w: volume %.6f below %.3f", ErrNonHyperbolic, v, f.Min)
	}
	return v, nil
}

// PreciseVolume implements PreciseOracle when the wrapped oracle does.
func (f *Floor) PreciseVolume(ctx context.Context, req Request) (*big.Float, error) {
	p, ok := f.Inner.(PreciseOracle)
	if !ok {
		return nil, fmt.Errorf("%w: %T has no extended precision", ErrNotConverged, f.Inner)
	}
	v, err := p.PreciseVolume(ctx, req)
	if err != nil {
		return nil, err
	}
	if v.Cmp(big.NewFloat(f.Min)) < 0 {
		return nil, fmt.Errorf("%w: volume %s below %.3f", ErrNonHyperbolic, v.Text('g', 10), f.Min)
	}
	return v, nil
}

// Precise reports whether o can solve at extended precision. A Floor is
// precise only when the oracle it wraps is.
func Precise(o Oracle) (PreciseOracle, bool) {
	if f, ok := o.(*Floor); ok {
		if _, ok := f.Inner.(PreciseOracle); !ok {
			return nil, false
		}
		return f, true
	}
	p, ok := o.(PreciseOracle)
	return p, ok
}
