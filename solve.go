package dehnvol

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/dehnvol/internal/cache"
	"github.com/hupe1980/dehnvol/model"
	"github.com/hupe1980/dehnvol/oracle"
	"github.com/hupe1980/dehnvol/slope"
)

// solveKey identifies one volume within a run. bits is zero for the
// standard-precision solve.
type solveKey struct {
	manifold string
	pair     slope.Pair
	bits     uint
}

type solved[V any] struct {
	volume   V
	attempts int
}

// run holds the state of one Search, Check or Verify call. Each slope is
// solved at most once per manifold and precision within a run.
type run struct {
	id       string
	logger   *Logger
	standard *cache.Memo[solveKey, solved[float64]]
	precise  *cache.Memo[solveKey, solved[*big.Float]]
}

func (s *Searcher) newRun() *run {
	id := uuid.NewString()
	return &run{
		id:       id,
		logger:   s.logger.WithRunID(id),
		standard: cache.NewMemo[solveKey, solved[float64]](),
		precise:  cache.NewMemo[solveKey, solved[*big.Float]](),
	}
}

// volume returns the standard-precision volume of p, retrying solves that
// did not converge.
func (s *Searcher) volume(ctx context.Context, r *run, m model.Manifold, p slope.Pair) (float64, int, error) {
	p = p.Canonical()
	res, err := r.standard.Do(ctx, solveKey{manifold: m.Name, pair: p}, func() (solved[float64], error) {
		v, n, err := retry(ctx, s, r, oracle.Request{Manifold: m, Pair: p}, s.solveStandard)
		return solved[float64]{volume: v, attempts: n}, err
	})
	return res.volume, res.attempts, err
}

// preciseVolume returns the volume of p at bits of precision.
func (s *Searcher) preciseVolume(ctx context.Context, r *run, m model.Manifold, p slope.Pair, bits uint) (*big.Float, int, error) {
	p = p.Canonical()
	res, err := r.precise.Do(ctx, solveKey{manifold: m.Name, pair: p, bits: bits}, func() (solved[*big.Float], error) {
		v, n, err := retry(ctx, s, r, oracle.Request{Manifold: m, Pair: p, Precision: bits}, s.solvePrecise)
		return solved[*big.Float]{volume: v, attempts: n}, err
	})
	return res.volume, res.attempts, err
}

func (s *Searcher) solveStandard(ctx context.Context, req oracle.Request) (float64, error) {
	v, err := s.oracle.Volume(ctx, req)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("%w: engine returned volume %v", oracle.ErrNotConverged, v)
	}
	return v, nil
}

func (s *Searcher) solvePrecise(ctx context.Context, req oracle.Request) (*big.Float, error) {
	v, err := s.precise.PreciseVolume(ctx, req)
	if err != nil {
		return nil, err
	}
	if v == nil || v.IsInf() || v.Sign() <= 0 {
		return nil, fmt.Errorf("%w: engine returned volume %v", oracle.ErrNotConverged, v)
	}
	return v, nil
}

// retry runs solve until it succeeds, reports a non-hyperbolic filling, or
// the retry budget is spent. It returns the number of attempts made.
func retry[V any](ctx context.Context, s *Searcher, r *run, req oracle.Request, solve func(context.Context, oracle.Request) (V, error)) (V, int, error) {
	for req.Attempt = 0; ; req.Attempt++ {
		v, err := attempt(ctx, s, r, req, solve)
		if err == nil {
			return v, req.Attempt + 1, nil
		}
		if !oracle.Retryable(err) || ctx.Err() != nil || req.Attempt >= s.opts.maxRetries {
			return v, req.Attempt + 1, oracle.NewSolveError(req, err)
		}
	}
}

func attempt[V any](ctx context.Context, s *Searcher, r *run, req oracle.Request, solve func(context.Context, oracle.Request) (V, error)) (V, error) {
	var zero V
	if err := s.rc.AcquireSolve(ctx); err != nil {
		return zero, err
	}
	defer s.rc.ReleaseSolve()

	sctx, cancel := ctx, context.CancelFunc(func() {})
	if s.opts.solveTimeout > 0 {
		sctx, cancel = context.WithTimeout(ctx, s.opts.solveTimeout)
	}
	defer cancel()

	start := time.Now()
	v, err := solve(sctx, req)
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: timed out after %s", oracle.ErrNotConverged, s.opts.solveTimeout)
	}
	d := time.Since(start)
	s.metrics.RecordSolve(req.Precision, d, err)
	r.logger.LogSolve(ctx, req, d, err)
	if err != nil {
		return zero, err
	}
	return v, nil
}

// fanOut runs fn(0..n-1) on the solve pool and waits for all of them.
func (s *Searcher) fanOut(ctx context.Context, n int, fn func(i int)) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return translateError(s.pool.Run(ctx, n, fn))
}

// failure records why p has no usable volume.
func failure(p slope.Pair, attempts int, bits uint, err error) model.Failure {
	kind := model.FailureInconclusive
	if bits == 0 && oracle.IsNonHyperbolic(err) {
		kind = model.FailureNonHyperbolic
	}
	return model.Failure{
		Pair:     p,
		Kind:     kind,
		Attempts: attempts,
		Stage:    bits,
		Err:      err.Error(),
	}
}
