package dehnvol

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/hupe1980/dehnvol/model"
	"github.com/hupe1980/dehnvol/report"
	"github.com/hupe1980/dehnvol/slope"
	"github.com/hupe1980/dehnvol/symmetry"
	"golang.org/x/sync/errgroup"
)

// DefaultCheckBound is the smallest coefficient bound Check searches orbits in.
const DefaultCheckBound = 50

// CheckResult is the outcome of a targeted check.
type CheckResult = report.Check

type checkOptions struct {
	manifold *model.Manifold
	bound    int
	verify   bool
}

// CheckOption configures Check and Verify.
type CheckOption func(*checkOptions)

// ForManifold checks against m instead of the default manifold.
func ForManifold(m model.Manifold) CheckOption {
	return func(o *checkOptions) {
		o.manifold = &m
	}
}

// WithinBound sets the coefficient bound of the orbit search. The default is
// max(DefaultCheckBound, |p|, |q|).
func WithinBound(bound int) CheckOption {
	return func(o *checkOptions) {
		o.bound = bound
	}
}

// WithVerification computes volumes to confirm that every declared transform
// maps the slope to a filling of the same volume.
func WithVerification() CheckOption {
	return func(o *checkOptions) {
		o.verify = true
	}
}

// Check reports the symmetry orbit of the slope p/q and whether it is
// equivalent to any other slope. With WithVerification it also confirms
// each declared transform numerically; a transform that changes the volume
// raises an invariant-violation warning.
func (s *Searcher) Check(ctx context.Context, p, q int, optFns ...CheckOption) (*CheckResult, error) {
	start := time.Now()
	res, err := s.checkPair(ctx, s.newRun(), slope.New(p, q), optFns)
	s.metrics.RecordCheck(time.Since(start), err)
	return res, err
}

// Verify runs Check with verification against every manifold of the
// symmetry table.
func (s *Searcher) Verify(ctx context.Context, p, q int, optFns ...CheckOption) ([]*CheckResult, error) {
	start := time.Now()
	names := s.table.Manifolds()
	results := make([]*CheckResult, len(names))
	r := s.newRun()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.manifoldParallelism)
	for i, name := range names {
		g.Go(func() error {
			m, err := s.resolve(name)
			if err != nil {
				return err
			}
			opts := append(append([]CheckOption{}, optFns...), ForManifold(m), WithVerification())
			res, err := s.checkPair(gctx, r, slope.New(p, q), opts)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	err := g.Wait()
	s.metrics.RecordCheck(time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Searcher) checkPair(ctx context.Context, r *run, pair slope.Pair, optFns []CheckOption) (*CheckResult, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if pair.IsZero() || !pair.Primitive() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPair, pair)
	}
	var o checkOptions
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}

	var m model.Manifold
	switch {
	case o.manifold != nil:
		m = *o.manifold
	case s.opts.defaultManifold != "":
		var err error
		if m, err = s.resolve(s.opts.defaultManifold); err != nil {
			return nil, err
		}
	default:
		return nil, ErrNoManifold
	}

	bound := o.bound
	if bound <= 0 {
		bound = max(DefaultCheckBound, pair.Norm())
	}
	d := slope.Domain{Bound: bound, Exclude: s.opts.exclusions}

	group := s.table.Group(m.Name)
	res := &CheckResult{
		Manifold: m.Name,
		Pair:     pair.Canonical(),
		Bound:    bound,
		Orbit:    group.Orbit(pair, d),
	}
	res.Equivalent = len(res.Orbit) > 1

	if o.verify {
		for _, t := range group.Generators() {
			v := s.verifyTransform(ctx, r, m, res.Pair, t)
			if v.Status == report.VerifyViolated {
				res.Warnings = append(res.Warnings, model.Warning{
					Kind:     model.WarningInvariantViolation,
					Manifold: m.Name,
					Pairs:    []slope.Pair{res.Pair, v.Image},
					Message:  fmt.Sprintf("transform %v does not preserve volume: %s", t, v.Reason),
				})
			}
			res.Verifications = append(res.Verifications, v)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// verifyTransform compares the volume of p with the volume of its image
// under t, first at standard precision and then at every refinement stage.
func (s *Searcher) verifyTransform(ctx context.Context, r *run, m model.Manifold, p slope.Pair, t symmetry.Transform) report.Verification {
	v := report.Verification{Transform: t.String()}
	img, ok := t.Apply(p)
	if !ok {
		v.Status = report.VerifySkipped
		v.Reason = "image is not integral"
		return v
	}
	img = img.Canonical()
	v.Image = img
	if img.IsZero() || !img.Primitive() {
		v.Status = report.VerifySkipped
		v.Reason = "image is not a slope"
		return v
	}

	a, _, err := s.volume(ctx, r, m, p)
	if err != nil {
		return skipped(v, err)
	}
	b, _, err := s.volume(ctx, r, m, img)
	if err != nil {
		return skipped(v, err)
	}
	v.Volume = fmt.Sprintf("%.15g", a)
	v.ImageVolume = fmt.Sprintf("%.15g", b)
	if !s.opts.tolerance.Within(a, b) {
		v.Status = report.VerifyViolated
		v.Reason = fmt.Sprintf("volumes differ by %.3g", b-a)
		return v
	}

	if s.precise != nil {
		for _, st := range s.opts.stages {
			eps, err := st.Epsilon()
			if err != nil {
				break
			}
			pa, _, errA := s.preciseVolume(ctx, r, m, p, st.Bits)
			pb, _, errB := s.preciseVolume(ctx, r, m, img, st.Bits)
			if err := errors.Join(errA, errB); err != nil {
				v.Status = report.VerifyUnconfirmed
				v.Reason = fmt.Sprintf("not confirmed at %d bits: %v", st.Bits, err)
				return v
			}
			diff := new(big.Float).SetPrec(st.Bits + 32).Sub(pa, pb)
			v.Bits = st.Bits
			v.Volume = pa.Text('g', digits(st.Bits))
			v.ImageVolume = pb.Text('g', digits(st.Bits))
			if diff.Abs(diff).Cmp(eps) > 0 {
				v.Status = report.VerifyViolated
				v.Reason = fmt.Sprintf("volumes differ at %d bits by %s", st.Bits, diff.Text('g', 3))
				return v
			}
		}
	}
	v.Status = report.VerifyHolds
	return v
}

func skipped(v report.Verification, err error) report.Verification {
	v.Status = report.VerifySkipped
	v.Reason = err.Error()
	return v
}

// digits returns the decimal digits carried by a mantissa of bits.
func digits(bits uint) int {
	return int(float64(bits) * 0.30103)
}
