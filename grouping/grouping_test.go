package grouping

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/hupe1980/dehnvol/slope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTolerance(t *testing.T) {
	t.Run("Within", func(t *testing.T) {
		rel := Relative(1e-8)
		assert.True(t, rel.Within(2.0298832128, 2.0298832128+1e-9))
		assert.False(t, rel.Within(2.0298832128, 2.0298832128+1e-7))

		abs := Absolute(0.125)
		assert.True(t, abs.Within(1.0, 1.125))
		assert.True(t, abs.Within(1.0, 1.05))
		assert.False(t, abs.Within(1.0, 1.2))
	})

	t.Run("Validate", func(t *testing.T) {
		require.NoError(t, DefaultTolerance.Validate())
		assert.ErrorIs(t, Tolerance{}.Validate(), ErrInvalidTolerance)
		assert.ErrorIs(t, Absolute(-1).Validate(), ErrInvalidTolerance)
		assert.ErrorIs(t, Relative(1).Validate(), ErrInvalidTolerance)
	})
}

func samplesOf(vols map[slope.Pair]float64) []Sample {
	out := make([]Sample, 0, len(vols))
	for p, v := range vols {
		out = append(out, Sample{Pair: p, Volume: v})
	}
	return out
}

func TestPartition(t *testing.T) {
	t.Run("EqualVolumes", func(t *testing.T) {
		groups, err := Partition([]Sample{
			{Pair: slope.New(3, 1), Volume: 2.0298832128},
			{Pair: slope.New(-3, 1), Volume: 2.0298832128 + 1e-10},
			{Pair: slope.New(5, 1), Volume: 2.5},
		}, Relative(1e-8))
		require.NoError(t, err)
		require.Len(t, groups, 2)
		assert.Equal(t, []slope.Pair{slope.New(-3, 1), slope.New(3, 1)}, groups[0].Members)
		assert.Equal(t, []slope.Pair{slope.New(5, 1)}, groups[1].Members)
		assert.InDelta(t, 2.0298832128, groups[0].Volume(), 1e-9)
	})

	t.Run("ChainingIsTransitive", func(t *testing.T) {
		groups, err := Partition([]Sample{
			{Pair: slope.New(1, 1), Volume: 1.0},
			{Pair: slope.New(2, 1), Volume: 1.06},
			{Pair: slope.New(3, 1), Volume: 1.12},
		}, Absolute(0.07))
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Equal(t, 3, groups[0].Len())
		assert.True(t, groups[0].Chained(Absolute(0.07)))
		assert.InDelta(t, 0.12, groups[0].Spread(), 1e-12)
	})

	t.Run("TotalAndDisjoint", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		vols := map[slope.Pair]float64{}
		for p := range slope.NewEnumerator(slope.Domain{Bound: 12}).All() {
			vols[p] = 1 + float64(rng.Intn(40))*0.05 + rng.Float64()*1e-12
		}
		groups, err := Partition(samplesOf(vols), Relative(1e-9))
		require.NoError(t, err)

		seen := map[slope.Pair]int{}
		for _, g := range groups {
			for _, m := range g.Members {
				seen[m]++
			}
		}
		assert.Len(t, seen, len(vols))
		for p, n := range seen {
			assert.Equal(t, 1, n, p.String())
		}
	})

	t.Run("InputOrderIndependent", func(t *testing.T) {
		base := []Sample{
			{Pair: slope.New(1, 2), Volume: 3.0},
			{Pair: slope.New(2, 1), Volume: 3.0},
			{Pair: slope.New(3, 1), Volume: 2.0},
			{Pair: slope.New(-1, 2), Volume: 3.0 + 1e-12},
			{Pair: slope.New(1, 3), Volume: 2.5},
		}
		want, err := Partition(base, Relative(1e-8))
		require.NoError(t, err)

		rng := rand.New(rand.NewSource(1))
		for range 10 {
			shuffled := append([]Sample(nil), base...)
			rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
			got, err := Partition(shuffled, Relative(1e-8))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("Errors", func(t *testing.T) {
		_, err := Partition([]Sample{
			{Pair: slope.New(3, 1), Volume: 2},
			{Pair: slope.New(-3, -1), Volume: 2},
		}, DefaultTolerance)
		assert.ErrorIs(t, err, ErrDuplicatePair)

		_, err = Partition([]Sample{{Pair: slope.New(3, 1), Volume: 0}}, DefaultTolerance)
		assert.ErrorIs(t, err, ErrInvalidVolume)

		_, err = Partition(nil, Tolerance{})
		assert.ErrorIs(t, err, ErrInvalidTolerance)
	})

	t.Run("Singletons", func(t *testing.T) {
		groups, err := Singletons([]Sample{
			{Pair: slope.New(3, 1), Volume: 2},
			{Pair: slope.New(-3, 1), Volume: 2},
		})
		require.NoError(t, err)
		assert.Len(t, groups, 2)
	})
}

func TestRefine(t *testing.T) {
	parse := func(s string) *big.Float {
		f, _, err := big.ParseFloat(s, 10, 256, big.ToNearestEven)
		require.NoError(t, err)
		return f
	}

	eps, err := DefaultStages[1].Epsilon()
	require.NoError(t, err)

	groups, err := Refine([]PreciseSample{
		{Pair: slope.New(3, 1), Volume: parse("2.029883212819307250042405108549040571883378615477")},
		{Pair: slope.New(-3, 1), Volume: parse("2.029883212819307250042405108549040571883378615477")},
		{Pair: slope.New(5, 2), Volume: parse("2.029883212819307250042405108549040571883378615999")},
	}, eps, 212)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, []slope.Pair{slope.New(-3, 1), slope.New(3, 1)}, groups[0].Members)
	assert.Equal(t, uint(212), groups[0].Bits)
	assert.Equal(t, []slope.Pair{slope.New(5, 2)}, groups[1].Members)

	_, err = Stage{Bits: 64, Tolerance: "x"}.Epsilon()
	assert.ErrorIs(t, err, ErrInvalidStage)
	_, err = Refine(nil, nil, 64)
	assert.ErrorIs(t, err, ErrInvalidStage)
}
