package grouping

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/hupe1980/dehnvol/internal/dsu"
	"github.com/hupe1980/dehnvol/slope"
)

var (
	// ErrDuplicatePair is returned when a slope has more than one sample.
	ErrDuplicatePair = errors.New("grouping: duplicate pair")
	// ErrInvalidVolume is returned for a non-finite or non-positive volume.
	ErrInvalidVolume = errors.New("grouping: invalid volume")
)

// Sample is a successfully computed volume.
type Sample struct {
	Pair   slope.Pair `json:"pair"`
	Volume float64    `json:"volume"`
}

// Group is a volume group: slopes whose volumes are linked by a chain of
// within-tolerance comparisons.
type Group struct {
	// Members are the canonical slopes in enumeration order.
	Members []slope.Pair `json:"members"`
	// Volumes[i] is the volume of Members[i].
	Volumes []float64 `json:"volumes"`
	// Min and Max bound the member volumes.
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	// Bits is the precision the volumes were computed at; zero is the
	// standard first-pass precision.
	Bits uint `json:"bits,omitempty"`
}

// Len returns the number of members.
func (g Group) Len() int {
	return len(g.Members)
}

// Volume returns the mean member volume.
func (g Group) Volume() float64 {
	if len(g.Volumes) == 0 {
		return 0
	}
	var sum float64
	for _, v := range g.Volumes {
		sum += v
	}
	return sum / float64(len(g.Volumes))
}

// Spread returns Max - Min.
func (g Group) Spread() float64 {
	return g.Max - g.Min
}

// Chained reports whether the group holds two members that are not directly
// within tol of each other, i.e. it only exists through chaining.
func (g Group) Chained(tol Tolerance) bool {
	return !tol.Within(g.Min, g.Max)
}

// Contains reports whether the slope of p is a member.
func (g Group) Contains(p slope.Pair) bool {
	c := p.Canonical()
	for _, m := range g.Members {
		if m == c {
			return true
		}
	}
	return false
}

// Partition splits samples into volume groups under tol.
//
// Every sample lands in exactly one group; singleton groups are included.
// Groups are ordered by volume, members by enumeration order.
func Partition(samples []Sample, tol Tolerance) ([]Group, error) {
	if err := tol.Validate(); err != nil {
		return nil, err
	}
	sorted, err := normalize(samples)
	if err != nil {
		return nil, err
	}

	// Sorted ascending, for positive volumes the gap v[j]-v[i] grows faster
	// than tol.Bound(v[j]), so the inner scan can stop at the first miss.
	sets := sweep(len(sorted), func(i, j int) (bool, bool) {
		a, b := sorted[i].Volume, sorted[j].Volume
		if tol.Within(a, b) {
			return true, false
		}
		return false, b-a > tol.Bound(b)
	})

	groups := make([]Group, 0, len(sets))
	for _, set := range sets {
		members := make([]Sample, len(set))
		for k, i := range set {
			members[k] = sorted[i]
		}
		groups = append(groups, newGroup(members, 0))
	}
	sortGroups(groups)
	return groups, nil
}

// Singletons returns every sample as its own group, ordered like Partition.
func Singletons(samples []Sample) ([]Group, error) {
	sorted, err := normalize(samples)
	if err != nil {
		return nil, err
	}
	groups := make([]Group, len(sorted))
	for i, s := range sorted {
		groups[i] = newGroup([]Sample{s}, 0)
	}
	sortGroups(groups)
	return groups, nil
}

func normalize(samples []Sample) ([]Sample, error) {
	seen := make(map[slope.Pair]struct{}, len(samples))
	out := make([]Sample, len(samples))
	for i, s := range samples {
		if math.IsNaN(s.Volume) || math.IsInf(s.Volume, 0) || s.Volume <= 0 {
			return nil, fmt.Errorf("%w: %v at %v", ErrInvalidVolume, s.Volume, s.Pair)
		}
		c := s.Pair.Canonical()
		if _, dup := seen[c]; dup {
			return nil, fmt.Errorf("%w: %v", ErrDuplicatePair, c)
		}
		seen[c] = struct{}{}
		out[i] = Sample{Pair: c, Volume: s.Volume}
	}
	slices.SortFunc(out, func(a, b Sample) int {
		if c := cmp.Compare(a.Volume, b.Volume); c != 0 {
			return c
		}
		return slope.Compare(a.Pair, b.Pair)
	})
	return out, nil
}

// sweep links sorted positions i < j while check reports a link, and stops
// scanning j for the current i once check reports stop.
func sweep(n int, check func(i, j int) (link, stop bool)) [][]int {
	d := dsu.New(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			link, stop := check(i, j)
			if link {
				d.Union(i, j)
				continue
			}
			if stop {
				break
			}
		}
	}
	return d.Sets()
}

func newGroup(members []Sample, bits uint) Group {
	slices.SortFunc(members, func(a, b Sample) int {
		return slope.Compare(a.Pair, b.Pair)
	})
	g := Group{
		Members: make([]slope.Pair, len(members)),
		Volumes: make([]float64, len(members)),
		Min:     math.Inf(1),
		Max:     math.Inf(-1),
		Bits:    bits,
	}
	for i, s := range members {
		g.Members[i] = s.Pair
		g.Volumes[i] = s.Volume
		g.Min = min(g.Min, s.Volume)
		g.Max = max(g.Max, s.Volume)
	}
	return g
}

func sortGroups(groups []Group) {
	slices.SortFunc(groups, func(a, b Group) int {
		if c := cmp.Compare(a.Min, b.Min); c != 0 {
			return c
		}
		return slope.Compare(a.Members[0], b.Members[0])
	})
}

// Sort orders groups like Partition does: by smallest volume, then by first
// member.
func Sort(groups []Group) {
	sortGroups(groups)
}
