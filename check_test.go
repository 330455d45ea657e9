package dehnvol

import (
	"context"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/hupe1980/dehnvol/model"
	"github.com/hupe1980/dehnvol/oracle"
	"github.com/hupe1980/dehnvol/report"
	"github.com/hupe1980/dehnvol/slope"
	"github.com/hupe1980/dehnvol/symmetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unrefinable answers standard-precision solves but never converges at
// higher precision.
type unrefinable struct {
	*oracle.Table
}

func (unrefinable) PreciseVolume(context.Context, oracle.Request) (*big.Float, error) {
	return nil, oracle.ErrNotConverged
}

func TestCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("NoRelatingTransform", func(t *testing.T) {
		s := newSearcher(t, engine(linearVolume))
		res, err := s.Check(ctx, 7, 11, ForManifold(model.Named("m004")))
		require.NoError(t, err)
		assert.False(t, res.Equivalent)
		assert.Equal(t, []slope.Pair{slope.New(7, 11)}, res.Orbit)
		assert.Equal(t, DefaultCheckBound, res.Bound)
		assert.Empty(t, res.Verifications)
	})

	t.Run("DefaultManifold", func(t *testing.T) {
		s := newSearcher(t, engine(mirrorVolume),
			WithSymmetries(mirrorTable(t, "m004")),
			WithDefaultManifold("m004"),
		)
		res, err := s.Check(ctx, -7, -11)
		require.NoError(t, err)
		assert.Equal(t, "m004", res.Manifold)
		assert.Equal(t, slope.New(7, 11), res.Pair)
		assert.True(t, res.Equivalent)
		assert.Equal(t, []slope.Pair{slope.New(-7, 11), slope.New(7, 11)}, res.Orbit)
	})

	t.Run("Bound", func(t *testing.T) {
		s := newSearcher(t, engine(mirrorVolume), WithSymmetries(mirrorTable(t, "m004")))
		res, err := s.Check(ctx, 70, 1, ForManifold(model.Named("m004")))
		require.NoError(t, err)
		assert.Equal(t, 70, res.Bound)

		// Outside the bound the slope is still reported, alone.
		res, err = s.Check(ctx, 7, 11, ForManifold(model.Named("m004")), WithinBound(5))
		require.NoError(t, err)
		assert.Equal(t, []slope.Pair{slope.New(7, 11)}, res.Orbit)
	})

	t.Run("Errors", func(t *testing.T) {
		s := newSearcher(t, engine(linearVolume))
		_, err := s.Check(ctx, 7, 11)
		assert.ErrorIs(t, err, ErrNoManifold)

		_, err = s.Check(ctx, 0, 0, ForManifold(model.Named("m004")))
		assert.ErrorIs(t, err, ErrInvalidPair)

		_, err = s.Check(ctx, 2, 4, ForManifold(model.Named("m004")))
		assert.ErrorIs(t, err, ErrInvalidPair)

		catalog := CatalogFunc(func(string) (model.Manifold, bool) { return model.Manifold{}, false })
		s = newSearcher(t, engine(linearVolume), WithCatalog(catalog), WithDefaultManifold("m004"))
		_, err = s.Check(ctx, 7, 11)
		assert.ErrorIs(t, err, ErrUnknownManifold)
	})

	t.Run("Verification", func(t *testing.T) {
		table := symmetry.NewTable()
		require.Empty(t, table.Add("m004",
			symmetry.Mirror(),
			symmetry.Exchange(),
			symmetry.Matrix(0, 4, 1, 0, 2),
		))
		s := newSearcher(t, engine(mirrorVolume), WithSymmetries(table), WithRefinement())

		res, err := s.Check(ctx, 3, 1, ForManifold(model.Named("m004")), WithVerification())
		require.NoError(t, err)
		require.Len(t, res.Verifications, 3)

		mirror := res.Verifications[0]
		assert.Equal(t, report.VerifyHolds, mirror.Status)
		assert.Equal(t, slope.New(-3, 1), mirror.Image)
		assert.Equal(t, mirror.Volume, mirror.ImageVolume)

		exchange := res.Verifications[1]
		assert.Equal(t, report.VerifyViolated, exchange.Status)
		assert.Equal(t, slope.New(1, 3), exchange.Image)

		matrix := res.Verifications[2]
		assert.Equal(t, report.VerifySkipped, matrix.Status)
		assert.Equal(t, "image is not integral", matrix.Reason)

		assert.False(t, res.Holds())
		require.Len(t, res.Warnings, 1)
		assert.Equal(t, model.WarningInvariantViolation, res.Warnings[0].Kind)
		assert.Equal(t, []slope.Pair{slope.New(3, 1), slope.New(1, 3)}, res.Warnings[0].Pairs)
	})

	t.Run("VerificationSkipsFailedSolves", func(t *testing.T) {
		s := newSearcher(t, engine(mirrorVolume), WithSymmetries(mirrorTable(t, "m004")))
		res, err := s.Check(ctx, 1, 0, ForManifold(model.Named("m004")), WithVerification())
		require.NoError(t, err)
		require.Len(t, res.Verifications, 1)
		assert.Equal(t, report.VerifySkipped, res.Verifications[0].Status)
		assert.Contains(t, res.Verifications[0].Reason, "not hyperbolic")
		assert.True(t, res.Holds())
	})
}

func TestVerify(t *testing.T) {
	ctx := context.Background()

	t.Run("SolvesEachSlopeOnce", func(t *testing.T) {
		var calls sync.Map
		o := oracle.Func(func(_ context.Context, req oracle.Request) (float64, error) {
			v, _ := calls.LoadOrStore(req.Manifold.Name+req.Pair.String(), new(atomic.Int32))
			v.(*atomic.Int32).Add(1)
			return mirrorVolume(req.Pair), nil
		})
		table := mirrorTable(t, "m003")
		// (p,q) -> (6q-p, q) fixes (3,1).
		require.Empty(t, table.Add("m004", symmetry.Mirror(), symmetry.Matrix(-1, 6, 0, 1, 1)))
		s := newSearcher(t, o, WithSymmetries(table))

		results, err := s.Verify(ctx, 3, 1)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "m003", results[0].Manifold)
		assert.Equal(t, "m004", results[1].Manifold)
		for _, res := range results {
			assert.True(t, res.Holds())
		}
		assert.Len(t, results[1].Verifications, 2)

		n, ok := calls.Load("m004(3,1)")
		require.True(t, ok)
		assert.Equal(t, int32(1), n.(*atomic.Int32).Load())
	})

	t.Run("Precise", func(t *testing.T) {
		near := "2.02988321281930725004240510854904058188337861506059958403497821"
		for _, tc := range []struct {
			name   string
			minus  string
			status report.VerifyStatus
		}{
			{"Holds", vol31, report.VerifyHolds},
			{"DiffersAt212Bits", near, report.VerifyViolated},
		} {
			t.Run(tc.name, func(t *testing.T) {
				tb := oracle.NewTable()
				tb.Set("m004", slope.New(3, 1), vol31)
				tb.Set("m004", slope.New(-3, 1), tc.minus)
				s := newSearcher(t, tb, WithSymmetries(mirrorTable(t, "m004")))

				results, err := s.Verify(ctx, 3, 1)
				require.NoError(t, err)
				require.Len(t, results, 1)
				v := results[0].Verifications[0]
				assert.Equal(t, tc.status, v.Status)
				assert.Equal(t, uint(212), v.Bits)
			})
		}
	})

	t.Run("UnconfirmedWhenRefinementFails", func(t *testing.T) {
		tb := oracle.NewTable()
		tb.Set("m004", slope.New(3, 1), vol31)
		tb.Set("m004", slope.New(-3, 1), vol31)
		s := newSearcher(t, unrefinable{tb}, WithSymmetries(mirrorTable(t, "m004")), WithMaxRetries(0))

		results, err := s.Verify(ctx, 3, 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		res := results[0]
		require.Len(t, res.Verifications, 1)
		v := res.Verifications[0]
		assert.Equal(t, report.VerifyUnconfirmed, v.Status)
		assert.Contains(t, v.Reason, "not confirmed at 64 bits")
		assert.True(t, res.Holds())
		assert.False(t, res.Confirmed())
	})

	t.Run("EmptyTable", func(t *testing.T) {
		s := newSearcher(t, engine(linearVolume))
		results, err := s.Verify(ctx, 3, 1)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}
