package classify

import (
	"math/rand/v2"
	"testing"

	"github.com/hupe1980/dehnvol/grouping"
	"github.com/hupe1980/dehnvol/model"
	"github.com/hupe1980/dehnvol/slope"
	"github.com/hupe1980/dehnvol/symmetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vol31 = 2.0298832128193072

func partition(t *testing.T, samples map[slope.Pair]float64) []grouping.Group {
	t.Helper()
	var ss []grouping.Sample
	for p, v := range samples {
		ss = append(ss, grouping.Sample{Pair: p, Volume: v})
	}
	groups, err := grouping.Partition(ss, grouping.DefaultTolerance)
	require.NoError(t, err)
	return groups
}

func mirror(t *testing.T) *symmetry.Group {
	t.Helper()
	g, err := symmetry.NewGroup(symmetry.Mirror())
	require.NoError(t, err)
	return g
}

var domain = slope.Domain{Bound: 10}

func TestClassify_NoSymmetry(t *testing.T) {
	groups := partition(t, map[slope.Pair]float64{
		slope.New(3, 1):  vol31,
		slope.New(-3, 1): vol31 + 1e-12,
		slope.New(5, 2):  2.5,
	})

	res := New(nil, domain).Classify(groups)
	require.Len(t, res.Coincidences, 1)
	co := res.Coincidences[0]
	assert.Equal(t, Unexplained, co.Class)
	assert.Equal(t, []slope.Pair{slope.New(-3, 1), slope.New(3, 1)}, co.Group.Members)
	assert.Equal(t, []slope.Pair{slope.New(-3, 1), slope.New(3, 1)}, co.Unaccounted)
	assert.Empty(t, co.Blocks)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 1, res.Count(Unexplained))
}

func TestClassify_Mirror(t *testing.T) {
	groups := partition(t, map[slope.Pair]float64{
		slope.New(3, 1):  vol31,
		slope.New(-3, 1): vol31,
	})

	res := New(mirror(t), domain).Classify(groups)
	require.Len(t, res.Coincidences, 1)
	co := res.Coincidences[0]
	assert.Equal(t, Explained, co.Class)
	assert.Equal(t, [][]slope.Pair{{slope.New(-3, 1), slope.New(3, 1)}}, co.Blocks)
	assert.Empty(t, co.Unaccounted)
	assert.Equal(t, 1, res.Count(Explained))
}

func TestClassify_Coverage(t *testing.T) {
	unionOfOrbits := partition(t, map[slope.Pair]float64{
		slope.New(3, 1):  vol31,
		slope.New(-3, 1): vol31,
		slope.New(2, 1):  vol31,
		slope.New(-2, 1): vol31,
	})
	withLeftover := partition(t, map[slope.Pair]float64{
		slope.New(3, 1):  vol31,
		slope.New(-3, 1): vol31,
		slope.New(5, 2):  vol31,
	})

	tests := []struct {
		name     string
		groups   []grouping.Group
		coverage Coverage
		class    Class
	}{
		{"ExactUnion", unionOfOrbits, CoverageExact, Unexplained},
		{"UnionUnion", unionOfOrbits, CoverageUnion, Explained},
		{"ExactLeftover", withLeftover, CoverageExact, Unexplained},
		{"UnionLeftover", withLeftover, CoverageUnion, Unexplained},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := New(mirror(t), domain, WithCoverage(tt.coverage)).Classify(tt.groups)
			require.Len(t, res.Coincidences, 1)
			assert.Equal(t, tt.class, res.Coincidences[0].Class)
			assert.Empty(t, res.Warnings)
		})
	}

	t.Run("Residual", func(t *testing.T) {
		res := New(mirror(t), domain).Classify(withLeftover)
		co := res.Coincidences[0]
		assert.Equal(t, [][]slope.Pair{{slope.New(-3, 1), slope.New(3, 1)}}, co.Blocks)
		assert.Equal(t, []slope.Pair{slope.New(5, 2)}, co.Unaccounted)
	})
}

func TestClassify_InvariantViolation(t *testing.T) {
	groups := partition(t, map[slope.Pair]float64{
		slope.New(3, 1):  vol31,
		slope.New(5, 2):  vol31,
		slope.New(-3, 1): 3.1,
		slope.New(7, 2):  3.1,
		slope.New(1, 1):  4.0,
		slope.New(-1, 1): 4.0,
	})

	res := New(mirror(t), domain, WithManifold("m004")).Classify(groups)
	require.Len(t, res.Warnings, 1)
	w := res.Warnings[0]
	assert.Equal(t, model.WarningInvariantViolation, w.Kind)
	assert.Equal(t, "m004", w.Manifold)
	assert.Equal(t, []slope.Pair{slope.New(-3, 1), slope.New(3, 1)}, w.Pairs)

	assert.Equal(t, 2, res.Count(Inconsistent))
	assert.Equal(t, 1, res.Count(Explained))
	assert.Zero(t, res.Count(Unexplained))
}

func TestClassify_SingletonGroupsSpanning(t *testing.T) {
	// Both members are alone in their groups; the orbit still spans groups.
	groups := partition(t, map[slope.Pair]float64{
		slope.New(3, 1):  vol31,
		slope.New(-3, 1): 3.1,
	})
	res := New(mirror(t), domain).Classify(groups)
	assert.Empty(t, res.Coincidences)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, model.WarningInvariantViolation, res.Warnings[0].Kind)
}

func TestClassify_EmptyTableProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	pairs := slope.NewEnumerator(domain).Collect()
	for trial := 0; trial < 20; trial++ {
		samples := map[slope.Pair]float64{}
		for _, p := range pairs {
			// Few distinct volumes force many coincidences.
			samples[p] = 1 + float64(rng.IntN(8))
		}
		groups := partition(t, samples)

		for _, coverage := range []Coverage{CoverageExact, CoverageUnion} {
			res := New(symmetry.NewTable().Group("m004"), domain, WithCoverage(coverage)).Classify(groups)
			assert.NotEmpty(t, res.Coincidences)
			assert.Empty(t, res.Warnings)
			for _, co := range res.Coincidences {
				assert.Equal(t, Unexplained, co.Class)
				assert.Equal(t, co.Group.Members, co.Unaccounted)
			}
		}
	}
}

func TestParseCoverage(t *testing.T) {
	c, err := ParseCoverage("union")
	require.NoError(t, err)
	assert.Equal(t, CoverageUnion, c)
	_, err = ParseCoverage("partial")
	assert.Error(t, err)
}
