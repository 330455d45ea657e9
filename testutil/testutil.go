package testutil

import (
	"math/rand"
	"slices"
	"strconv"
	"sync"

	"github.com/hupe1980/dehnvol/grouping"
	"github.com/hupe1980/dehnvol/oracle"
	"github.com/hupe1980/dehnvol/slope"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewSource(r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Slopes returns the admissible canonical slopes of bound in enumeration
// order.
func Slopes(bound int) []slope.Pair {
	return slope.NewEnumerator(slope.Domain{Bound: bound}).Collect()
}

// ClusteredSamples assigns every slope a volume near one of clusters
// centers. Centers lie in [1, 1+clusters) at least 0.5 apart, and each volume
// is its center plus a jitter in [0, spread). With spread well under the
// tolerance, the expected groups are exactly the clusters.
func (r *RNG) ClusteredSamples(slopes []slope.Pair, clusters int, spread float64) []grouping.Sample {
	r.mu.Lock()
	defer r.mu.Unlock()

	centers := make([]float64, clusters)
	for i := range centers {
		centers[i] = 1 + float64(i) + r.rand.Float64()*0.5
	}
	samples := make([]grouping.Sample, len(slopes))
	for i, p := range slopes {
		c := centers[r.rand.Intn(clusters)]
		samples[i] = grouping.Sample{Pair: p, Volume: c + r.rand.Float64()*spread}
	}
	return samples
}

// VolumeTable returns a replay table for manifold holding clustered volumes
// for every admissible slope of bound. Volumes are recorded with 17
// significant digits, so precise requests see the same value.
func (r *RNG) VolumeTable(manifold string, bound, clusters int, spread float64) *oracle.Table {
	t := oracle.NewTable()
	for _, s := range r.ClusteredSamples(Slopes(bound), clusters, spread) {
		t.Set(manifold, s.Pair, strconv.FormatFloat(s.Volume, 'g', 17, 64))
	}
	return t
}

// BruteForceGroups computes the volume groups of samples by comparing every
// pair and closing transitively. Members are in enumeration order and groups
// ordered by their first member.
func BruteForceGroups(samples []grouping.Sample, tol grouping.Tolerance) [][]slope.Pair {
	n := len(samples)
	seen := make([]bool, n)
	var groups [][]slope.Pair
	for i := range n {
		if seen[i] {
			continue
		}
		seen[i] = true
		stack := []int{i}
		var members []slope.Pair
		for len(stack) > 0 {
			k := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			members = append(members, samples[k].Pair.Canonical())
			for j := range n {
				if !seen[j] && tol.Within(samples[k].Volume, samples[j].Volume) {
					seen[j] = true
					stack = append(stack, j)
				}
			}
		}
		groups = append(groups, members)
	}
	return normalizeGroups(groups)
}

// Members extracts the member lists of groups, normalized like
// BruteForceGroups.
func Members(groups []grouping.Group) [][]slope.Pair {
	out := make([][]slope.Pair, len(groups))
	for i, g := range groups {
		out[i] = slices.Clone(g.Members)
	}
	return normalizeGroups(out)
}

// Coincidences keeps the groups with at least two members.
func Coincidences(groups [][]slope.Pair) [][]slope.Pair {
	var out [][]slope.Pair
	for _, g := range groups {
		if len(g) > 1 {
			out = append(out, g)
		}
	}
	return out
}

// ComputeAgreement returns the fraction of groundTruth groups that appear
// unchanged in approximate.
func ComputeAgreement(groundTruth, approximate [][]slope.Pair) float64 {
	if len(groundTruth) == 0 {
		return 1
	}
	found := make(map[string]struct{}, len(approximate))
	for _, g := range approximate {
		found[key(g)] = struct{}{}
	}
	hits := 0
	for _, g := range groundTruth {
		if _, ok := found[key(g)]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(groundTruth))
}

func normalizeGroups(groups [][]slope.Pair) [][]slope.Pair {
	for _, g := range groups {
		slices.SortFunc(g, slope.Compare)
	}
	slices.SortFunc(groups, func(a, b []slope.Pair) int {
		return slope.Compare(a[0], b[0])
	})
	return groups
}

func key(g []slope.Pair) string {
	b := make([]byte, 0, len(g)*8)
	for _, p := range g {
		b = strconv.AppendInt(b, int64(p.P), 10)
		b = append(b, ',')
		b = strconv.AppendInt(b, int64(p.Q), 10)
		b = append(b, ';')
	}
	return string(b)
}
