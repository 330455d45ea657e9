package dehnvol

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/hupe1980/dehnvol/classify"
	"github.com/hupe1980/dehnvol/grouping"
	"github.com/hupe1980/dehnvol/model"
	"github.com/hupe1980/dehnvol/report"
	"github.com/hupe1980/dehnvol/slope"
	"github.com/hupe1980/dehnvol/symmetry"
	"golang.org/x/sync/errgroup"
)

// Search looks for volume coincidences among the fillings of each manifold
// with coefficients bounded by bound.
//
// Manifolds are independent: a manifold whose pipeline fails or times out is
// reported with its error and the others complete. Search itself returns an
// error only for invalid arguments or when ctx ends; in the latter case the
// partial batch is returned along with the context error.
func (s *Searcher) Search(ctx context.Context, manifolds []model.Manifold, bound int) (*report.Batch, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if len(manifolds) == 0 {
		return nil, ErrNoManifolds
	}
	d := slope.Domain{Bound: bound, Exclude: s.opts.exclusions}
	if err := d.Validate(); err != nil {
		return nil, translateError(err)
	}

	r := s.newRun()
	batch := &report.Batch{
		RunID:     r.id,
		Started:   time.Now(),
		Bound:     bound,
		Tolerance: s.opts.tolerance.String(),
		Coverage:  string(s.opts.coverage),
		Manifolds: make([]report.Manifold, len(manifolds)),
		Warnings:  s.warnings,
	}
	r.logger.InfoContext(ctx, "search started", "manifolds", len(manifolds), "bound", bound)

	var g errgroup.Group
	g.SetLimit(s.opts.manifoldParallelism)
	for i, m := range manifolds {
		if ctx.Err() != nil {
			batch.Manifolds[i] = report.Manifold{Name: m.Name, Err: ctx.Err().Error()}
			continue
		}
		g.Go(func() error {
			batch.Manifolds[i] = s.searchManifold(ctx, r, m, d)
			return nil
		})
	}
	_ = g.Wait()

	batch.Finished = time.Now()
	r.logger.LogBatch(ctx, len(manifolds), batch.Failed(), batch.Unexplained(), batch.Finished.Sub(batch.Started))
	if err := ctx.Err(); err != nil {
		return batch, err
	}
	return batch, nil
}

// searchManifold runs one manifold's pipeline: solve every admissible slope,
// group, refine and classify. Failures end up in the report, never in the
// caller.
func (s *Searcher) searchManifold(ctx context.Context, r *run, m model.Manifold, d slope.Domain) report.Manifold {
	start := time.Now()
	logger := r.logger.WithManifold(m.Name)

	var cancel context.CancelFunc
	if s.opts.manifoldTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.opts.manifoldTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	group := s.table.Group(m.Name)
	rep := report.Manifold{Name: m.Name}
	for _, t := range group.Generators() {
		rep.Symmetries = append(rep.Symmetries, t.String())
	}

	err := s.runManifold(ctx, r, m, d, group, &rep)
	if err != nil {
		rep.Err = (&ManifoldError{Manifold: m.Name, Err: err}).Error()
	}
	rep.Elapsed = time.Since(start)

	s.metrics.RecordManifold(m.Name, rep.Admissible, len(rep.Unexplained), rep.Elapsed, err)
	logger.LogManifold(ctx, rep.Admissible, len(rep.Unexplained), rep.Elapsed, err)
	return rep
}

func (s *Searcher) runManifold(ctx context.Context, r *run, m model.Manifold, d slope.Domain, group *symmetry.Group, rep *report.Manifold) error {
	pairs := slope.NewEnumerator(d).Collect()
	rep.Admissible = len(pairs)

	type outcome struct {
		volume   float64
		attempts int
		err      error
	}
	outcomes := make([]outcome, len(pairs))
	err := s.fanOut(ctx, len(pairs), func(i int) {
		v, n, err := s.volume(ctx, r, m, pairs[i])
		outcomes[i] = outcome{volume: v, attempts: n, err: err}
	})
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	samples := make([]grouping.Sample, 0, len(pairs))
	for i, o := range outcomes {
		if o.err == nil {
			samples = append(samples, grouping.Sample{Pair: pairs[i], Volume: o.volume})
			continue
		}
		f := failure(pairs[i], o.attempts, 0, o.err)
		if f.Kind == model.FailureNonHyperbolic {
			rep.NonHyperbolic = append(rep.NonHyperbolic, pairs[i])
		} else {
			rep.Inconclusive = append(rep.Inconclusive, f)
		}
	}
	rep.Sampled = len(samples)

	groups, err := grouping.Partition(samples, s.opts.tolerance)
	if err != nil {
		return err
	}
	groups, err = s.refine(ctx, r, m, groups, rep)
	if err != nil {
		return err
	}

	cl := classify.New(group, d,
		classify.WithCoverage(s.opts.coverage),
		classify.WithManifold(m.Name),
	)
	res := cl.Classify(groups)
	rep.Warnings = append(rep.Warnings, res.Warnings...)
	rep.Unexplained = res.Filter(classify.Unexplained)
	rep.Explained = res.Count(classify.Explained)
	rep.Inconsistent = res.Filter(classify.Inconsistent)
	if limit := s.opts.maxUnexplained; limit > 0 && len(rep.Unexplained) > limit {
		rep.Unexplained = rep.Unexplained[:limit]
		rep.Truncated = true
	}
	return nil
}

// refine re-solves the members of every coincidence candidate at each
// precision stage and splits candidates whose precise volumes differ.
// Members whose precise solve fails leave their group and are recorded as
// inconclusive at that stage.
func (s *Searcher) refine(ctx context.Context, r *run, m model.Manifold, groups []grouping.Group, rep *report.Manifold) ([]grouping.Group, error) {
	if s.precise == nil {
		return groups, nil
	}
	out := make([]grouping.Group, 0, len(groups))
	var candidates []grouping.Group
	for _, g := range groups {
		if g.Len() > 1 {
			candidates = append(candidates, g)
		} else {
			out = append(out, g)
		}
	}

	for _, st := range s.opts.stages {
		if len(candidates) == 0 {
			break
		}
		eps, err := st.Epsilon()
		if err != nil {
			return nil, err
		}

		var members []slope.Pair
		for _, g := range candidates {
			members = append(members, g.Members...)
		}
		type outcome struct {
			volume   *big.Float
			attempts int
			err      error
		}
		outcomes := make(map[slope.Pair]outcome, len(members))
		var mu sync.Mutex
		err = s.fanOut(ctx, len(members), func(i int) {
			v, n, err := s.preciseVolume(ctx, r, m, members[i], st.Bits)
			mu.Lock()
			outcomes[members[i]] = outcome{volume: v, attempts: n, err: err}
			mu.Unlock()
		})
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var next []grouping.Group
		survivors := 0
		for _, g := range candidates {
			precise := make([]grouping.PreciseSample, 0, g.Len())
			for _, p := range g.Members {
				o := outcomes[p]
				if o.err != nil {
					rep.Inconclusive = append(rep.Inconclusive, failure(p, o.attempts, st.Bits, o.err))
					rep.Sampled--
					continue
				}
				precise = append(precise, grouping.PreciseSample{Pair: p, Volume: o.volume})
			}
			split, err := grouping.Refine(precise, eps, st.Bits)
			if err != nil {
				return nil, fmt.Errorf("refine at %d bits: %w", st.Bits, err)
			}
			for _, sg := range split {
				if sg.Len() > 1 {
					next = append(next, sg)
					survivors += sg.Len()
				} else {
					out = append(out, sg)
				}
			}
		}
		s.metrics.RecordRefinement(st.Bits, len(members), survivors)
		r.logger.WithManifold(m.Name).LogRefinement(ctx, st.Bits, len(members), survivors)
		candidates = next
	}

	out = append(out, candidates...)
	grouping.Sort(out)
	return out, nil
}
