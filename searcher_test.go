package dehnvol

import (
	"context"
	"errors"
	"math"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hupe1980/dehnvol/classify"
	"github.com/hupe1980/dehnvol/grouping"
	"github.com/hupe1980/dehnvol/model"
	"github.com/hupe1980/dehnvol/oracle"
	"github.com/hupe1980/dehnvol/slope"
	"github.com/hupe1980/dehnvol/symmetry"
	"github.com/hupe1980/dehnvol/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vol31 = "2.02988321281930725004240510854904057188337861506059958403497821"

// linearVolume gives every slope its own volume.
func linearVolume(p slope.Pair) float64 {
	return 3 + float64(p.P)*0.01 + float64(p.Q)*0.0001
}

// mirrorVolume is invariant under (p,q) -> (-p,q) and nothing else.
func mirrorVolume(p slope.Pair) float64 {
	return 3 + math.Abs(float64(p.P))*0.01 + float64(p.Q)*0.0001
}

// coincidence31 is linearVolume except that (-3,1) shares the volume of (3,1).
func coincidence31(p slope.Pair) float64 {
	if p == slope.New(-3, 1) {
		p = slope.New(3, 1)
	}
	return linearVolume(p)
}

func engine(volume func(slope.Pair) float64) oracle.Func {
	return func(_ context.Context, req oracle.Request) (float64, error) {
		if req.Pair == slope.New(1, 0) {
			return 0, oracle.ErrNonHyperbolic
		}
		return volume(req.Pair), nil
	}
}

func mirrorTable(t *testing.T, manifolds ...string) *symmetry.Table {
	t.Helper()
	table := symmetry.NewTable()
	for _, m := range manifolds {
		require.Empty(t, table.Add(m, symmetry.Mirror()))
	}
	return table
}

func newSearcher(t *testing.T, o oracle.Oracle, opts ...Option) *Searcher {
	t.Helper()
	s, err := New(o, append([]Option{WithWorkers(4)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func m004() []model.Manifold {
	return []model.Manifold{model.Named("m004")}
}

func TestNew(t *testing.T) {
	t.Run("NoOracle", func(t *testing.T) {
		_, err := New(nil)
		assert.ErrorIs(t, err, ErrNoOracle)
	})

	t.Run("InvalidTolerance", func(t *testing.T) {
		_, err := New(engine(linearVolume), WithTolerance(grouping.Tolerance{Absolute: -1}))
		var opt *ErrInvalidOption
		require.ErrorAs(t, err, &opt)
		assert.Equal(t, "tolerance", opt.Option)
		assert.ErrorIs(t, err, grouping.ErrInvalidTolerance)
	})

	t.Run("InvalidCoverage", func(t *testing.T) {
		_, err := New(engine(linearVolume), WithCoverage("partial"))
		var opt *ErrInvalidOption
		require.ErrorAs(t, err, &opt)
		assert.Equal(t, "coverage", opt.Option)
	})

	t.Run("InvalidStage", func(t *testing.T) {
		_, err := New(engine(linearVolume), WithRefinement(grouping.Stage{Bits: 64, Tolerance: "-1"}))
		assert.ErrorIs(t, err, grouping.ErrInvalidStage)
	})

	t.Run("CatalogRestrictsTable", func(t *testing.T) {
		catalog := CatalogFunc(func(name string) (model.Manifold, bool) {
			return model.Named(name), name == "m004"
		})
		s := newSearcher(t, engine(linearVolume),
			WithSymmetries(mirrorTable(t, "m004", "m999")),
			WithCatalog(catalog),
		)
		assert.Equal(t, []string{"m004"}, s.Symmetries().Manifolds())
		require.Len(t, s.Warnings(), 1)
		assert.Equal(t, model.WarningUnknownManifold, s.Warnings()[0].Kind)
		assert.Equal(t, "m999", s.Warnings()[0].Manifold)
	})

	t.Run("RefinesOnlyWithPreciseOracle", func(t *testing.T) {
		assert.False(t, newSearcher(t, engine(linearVolume)).Refines())
		assert.True(t, newSearcher(t, oracle.NewTable()).Refines())
		assert.False(t, newSearcher(t, oracle.NewTable(), WithRefinement()).Refines())
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("CoincidenceWithoutSymmetryIsUnexplained", func(t *testing.T) {
		s := newSearcher(t, engine(coincidence31))
		batch, err := s.Search(ctx, m004(), 3)
		require.NoError(t, err)
		require.Len(t, batch.Manifolds, 1)
		assert.NotEmpty(t, batch.RunID)
		assert.Equal(t, 3, batch.Bound)

		rep := batch.Manifolds[0]
		assert.Empty(t, rep.Err)
		assert.Equal(t, 16, rep.Admissible)
		assert.Equal(t, 15, rep.Sampled)
		assert.Equal(t, []slope.Pair{slope.New(1, 0)}, rep.NonHyperbolic)
		assert.Empty(t, rep.Inconclusive)
		assert.True(t, rep.Accounted())

		require.Len(t, rep.Unexplained, 1)
		co := rep.Unexplained[0]
		assert.Equal(t, classify.Unexplained, co.Class)
		assert.Equal(t, []slope.Pair{slope.New(-3, 1), slope.New(3, 1)}, co.Group.Members)
		assert.Equal(t, 0, rep.Explained)
		assert.Equal(t, 1, batch.Unexplained())
	})

	t.Run("CoincidenceWithMirrorIsExplained", func(t *testing.T) {
		s := newSearcher(t, engine(coincidence31), WithSymmetries(mirrorTable(t, "m004")))
		batch, err := s.Search(ctx, m004(), 3)
		require.NoError(t, err)

		rep := batch.Manifolds[0]
		assert.Empty(t, rep.Unexplained)
		assert.Equal(t, 1, rep.Explained)
		assert.Equal(t, []string{"mirror"}, rep.Symmetries)

		// The mirror does not preserve the other volumes, so each of their
		// orbits spans two groups.
		require.Len(t, rep.Warnings, 6)
		for _, w := range rep.Warnings {
			assert.Equal(t, model.WarningInvariantViolation, w.Kind)
			assert.Len(t, w.Pairs, 2)
		}
	})

	t.Run("SymmetricVolumes", func(t *testing.T) {
		s := newSearcher(t, engine(mirrorVolume))
		batch, err := s.Search(ctx, m004(), 3)
		require.NoError(t, err)
		assert.Len(t, batch.Manifolds[0].Unexplained, 7)

		s = newSearcher(t, engine(mirrorVolume), WithSymmetries(mirrorTable(t, "m004")))
		batch, err = s.Search(ctx, m004(), 3)
		require.NoError(t, err)
		rep := batch.Manifolds[0]
		assert.Empty(t, rep.Unexplained)
		assert.Equal(t, 7, rep.Explained)
		assert.Empty(t, rep.Warnings)
	})

	t.Run("InvalidTransformKeepsValidOnes", func(t *testing.T) {
		table := symmetry.NewTable()
		ws := table.Add("m004", symmetry.Mirror(), symmetry.Matrix(1, 1, 0, 1, 2))
		require.Len(t, ws, 1)
		assert.Equal(t, model.WarningMalformedSymmetry, ws[0].Kind)

		s := newSearcher(t, engine(mirrorVolume), WithSymmetries(table))
		batch, err := s.Search(ctx, m004(), 3)
		require.NoError(t, err)
		rep := batch.Manifolds[0]
		assert.Empty(t, rep.Unexplained)
		assert.Equal(t, 7, rep.Explained)
	})

	t.Run("MaxUnexplained", func(t *testing.T) {
		s := newSearcher(t, engine(mirrorVolume), WithMaxUnexplained(2))
		batch, err := s.Search(ctx, m004(), 3)
		require.NoError(t, err)
		rep := batch.Manifolds[0]
		assert.Len(t, rep.Unexplained, 2)
		assert.True(t, rep.Truncated)
	})

	t.Run("Exclusions", func(t *testing.T) {
		s := newSearcher(t, engine(coincidence31), WithExclusions(slope.NewSet(slope.New(-3, 1))))
		batch, err := s.Search(ctx, m004(), 3)
		require.NoError(t, err)
		rep := batch.Manifolds[0]
		assert.Equal(t, 15, rep.Admissible)
		assert.Empty(t, rep.Unexplained)
	})

	t.Run("InvalidArguments", func(t *testing.T) {
		s := newSearcher(t, engine(linearVolume))
		_, err := s.Search(ctx, nil, 3)
		assert.ErrorIs(t, err, ErrNoManifolds)

		_, err = s.Search(ctx, m004(), 0)
		assert.ErrorIs(t, err, slope.ErrInvalidBound)
	})

	t.Run("Closed", func(t *testing.T) {
		s := newSearcher(t, engine(linearVolume))
		require.NoError(t, s.Close())
		_, err := s.Search(ctx, m004(), 3)
		assert.ErrorIs(t, err, ErrClosed)
	})
}

func TestSearchRetries(t *testing.T) {
	var calls sync.Map
	count := func(p slope.Pair) int {
		v, _ := calls.LoadOrStore(p, new(atomic.Int32))
		return int(v.(*atomic.Int32).Add(1))
	}
	flaky := oracle.Func(func(_ context.Context, req oracle.Request) (float64, error) {
		count(req.Pair)
		switch req.Pair {
		case slope.New(1, 0):
			return 0, oracle.ErrNonHyperbolic
		case slope.New(2, 1):
			// Converges on the third attempt.
			if req.Attempt < 2 {
				return 0, oracle.ErrNotConverged
			}
		case slope.New(1, 2):
			return 0, oracle.ErrNotConverged
		case slope.New(-1, 2):
			return math.NaN(), nil
		}
		return linearVolume(req.Pair), nil
	})

	metrics := &BasicMetricsCollector{}
	s := newSearcher(t, flaky, WithMaxRetries(2), WithMetricsCollector(metrics))
	batch, err := s.Search(context.Background(), m004(), 3)
	require.NoError(t, err)

	rep := batch.Manifolds[0]
	assert.True(t, rep.Accounted())
	assert.Equal(t, 13, rep.Sampled)
	require.Len(t, rep.Inconclusive, 2)
	for _, f := range rep.Inconclusive {
		assert.Equal(t, model.FailureInconclusive, f.Kind)
		assert.Equal(t, 3, f.Attempts)
		assert.Zero(t, f.Stage)
	}

	// Non-hyperbolic fillings are never retried.
	assert.Equal(t, 1, count(slope.New(1, 0))-1)
	assert.Equal(t, 3, count(slope.New(2, 1))-1)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.ManifoldCount)
	assert.Equal(t, int64(16+2+2+2), stats.SolveCount)
	assert.Equal(t, int64(1+2+3+3), stats.SolveErrors)
}

func TestSearchSolveTimeout(t *testing.T) {
	slow := oracle.Func(func(ctx context.Context, req oracle.Request) (float64, error) {
		if req.Pair == slope.New(2, 1) {
			<-ctx.Done()
			return 0, ctx.Err()
		}
		return linearVolume(req.Pair), nil
	})
	s := newSearcher(t, slow, WithSolveTimeout(20*time.Millisecond), WithMaxRetries(1))
	batch, err := s.Search(context.Background(), m004(), 2)
	require.NoError(t, err)

	rep := batch.Manifolds[0]
	assert.Empty(t, rep.Err)
	require.Len(t, rep.Inconclusive, 1)
	assert.Equal(t, slope.New(2, 1), rep.Inconclusive[0].Pair)
	assert.Equal(t, 2, rep.Inconclusive[0].Attempts)
	assert.Contains(t, rep.Inconclusive[0].Err, "did not converge")
}

func TestSearchIsolation(t *testing.T) {
	o := oracle.Func(func(ctx context.Context, req oracle.Request) (float64, error) {
		if req.Manifold.Name == "stuck" {
			<-ctx.Done()
			return 0, ctx.Err()
		}
		return coincidence31(req.Pair), nil
	})
	s := newSearcher(t, o, WithManifoldTimeout(100*time.Millisecond), WithManifoldParallelism(1))

	manifolds := []model.Manifold{model.Named("stuck"), model.Named("m004")}
	batch, err := s.Search(context.Background(), manifolds, 3)
	require.NoError(t, err)
	require.Len(t, batch.Manifolds, 2)

	stuck, ok := batch.Manifolds[0], batch.Manifolds[1]
	assert.Equal(t, "stuck", stuck.Name)
	assert.Contains(t, stuck.Err, "deadline exceeded")
	assert.True(t, stuck.Failed())
	assert.True(t, stuck.Accounted())

	assert.Equal(t, "m004", ok.Name)
	assert.Empty(t, ok.Err)
	assert.Len(t, ok.Unexplained, 1)
	assert.Equal(t, 1, batch.Failed())
}

func TestSearchCancelled(t *testing.T) {
	s := newSearcher(t, engine(linearVolume))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch, err := s.Search(ctx, m004(), 3)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, batch)
	assert.True(t, batch.Manifolds[0].Failed())
}

// twoStage adds an extended-precision solve to a Func.
type twoStage struct {
	oracle.Func
	precise func(req oracle.Request) (*big.Float, error)
}

func (o twoStage) PreciseVolume(_ context.Context, req oracle.Request) (*big.Float, error) {
	return o.precise(req)
}

func TestSearchRefinement(t *testing.T) {
	ctx := context.Background()

	table := func(minus31 string) *oracle.Table {
		tb := oracle.NewTable()
		for p := range slope.NewEnumerator(slope.Domain{Bound: 3}).All() {
			tb.SetFloat("m004", p, linearVolume(p))
		}
		tb.SetStatus("m004", slope.New(1, 0), oracle.StatusNonHyperbolic)
		tb.Set("m004", slope.New(3, 1), vol31)
		tb.Set("m004", slope.New(-3, 1), minus31)
		return tb
	}

	t.Run("Survives", func(t *testing.T) {
		metrics := &BasicMetricsCollector{}
		s := newSearcher(t, table(vol31), WithMetricsCollector(metrics))
		batch, err := s.Search(ctx, m004(), 3)
		require.NoError(t, err)

		rep := batch.Manifolds[0]
		require.Len(t, rep.Unexplained, 1)
		assert.Equal(t, uint(212), rep.Unexplained[0].Group.Bits)
		assert.Equal(t, int64(4), metrics.GetStats().RefinementCands)
		assert.Equal(t, int64(4), metrics.GetStats().RefinementSurvived)
	})

	t.Run("SplitsAtHighPrecision", func(t *testing.T) {
		// Differs from vol31 around the 30th decimal.
		near := "2.02988321281930725004240510854904058188337861506059958403497821"
		metrics := &BasicMetricsCollector{}
		s := newSearcher(t, table(near), WithMetricsCollector(metrics))
		batch, err := s.Search(ctx, m004(), 3)
		require.NoError(t, err)

		rep := batch.Manifolds[0]
		assert.Empty(t, rep.Unexplained)
		assert.Equal(t, 15, rep.Sampled)
		assert.True(t, rep.Accounted())
		assert.Equal(t, int64(2), metrics.GetStats().RefinementSurvived)
	})

	t.Run("StandardStageOnly", func(t *testing.T) {
		near := "2.02988321281930725004240510854904058188337861506059958403497821"
		s := newSearcher(t, table(near), WithRefinement())
		batch, err := s.Search(ctx, m004(), 3)
		require.NoError(t, err)
		assert.Len(t, batch.Manifolds[0].Unexplained, 1)
	})

	t.Run("PreciseFailureIsInconclusive", func(t *testing.T) {
		o := twoStage{
			Func: engine(coincidence31),
			precise: func(req oracle.Request) (*big.Float, error) {
				if req.Pair == slope.New(3, 1) {
					return nil, oracle.ErrNotConverged
				}
				return big.NewFloat(coincidence31(req.Pair)).SetPrec(req.Precision), nil
			},
		}
		s := newSearcher(t, o, WithMaxRetries(0))
		require.True(t, s.Refines())
		batch, err := s.Search(ctx, m004(), 3)
		require.NoError(t, err)

		rep := batch.Manifolds[0]
		assert.Empty(t, rep.Unexplained)
		assert.Equal(t, 14, rep.Sampled)
		require.Len(t, rep.Inconclusive, 1)
		assert.Equal(t, slope.New(3, 1), rep.Inconclusive[0].Pair)
		assert.Equal(t, uint(64), rep.Inconclusive[0].Stage)
		assert.True(t, rep.Accounted())
	})
}

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil))
	other := errors.New("other")
	assert.Equal(t, other, translateError(other))

	err := translateError(slope.ErrInvalidBound)
	var opt *ErrInvalidOption
	require.ErrorAs(t, err, &opt)
	assert.Equal(t, "bound", opt.Option)
	assert.ErrorIs(t, err, slope.ErrInvalidBound)
}

func TestSearchMatchesBruteForce(t *testing.T) {
	const bound = 6
	rng := testutil.NewRNG(42)
	table := rng.VolumeTable("m004", bound, 12, 0)
	rng.Reset()
	samples := rng.ClusteredSamples(testutil.Slopes(bound), 12, 0)

	s := newSearcher(t, table)
	batch, err := s.Search(context.Background(), m004(), bound)
	require.NoError(t, err)
	rep := batch.Manifolds[0]
	require.Empty(t, rep.Err)
	assert.Equal(t, len(samples), rep.Sampled)

	got := make([][]slope.Pair, len(rep.Unexplained))
	for i, co := range rep.Unexplained {
		got[i] = co.Group.Members
	}
	want := testutil.Coincidences(testutil.BruteForceGroups(samples, grouping.DefaultTolerance))
	assert.Len(t, got, len(want))
	assert.Equal(t, 1.0, testutil.ComputeAgreement(want, got))
}
