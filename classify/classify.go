package classify

import (
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/dehnvol/grouping"
	"github.com/hupe1980/dehnvol/model"
	"github.com/hupe1980/dehnvol/slope"
	"github.com/hupe1980/dehnvol/symmetry"
)

// Class is the verdict on a coincidence.
type Class string

const (
	// Explained coincidences are accounted for by symmetry.
	Explained Class = "explained"
	// Unexplained coincidences are candidates for new phenomena.
	Unexplained Class = "unexplained"
	// Inconsistent coincidences touch an orbit that spans volume groups.
	Inconsistent Class = "inconsistent"
)

// Coverage selects when orbit blocks explain a coincidence.
type Coverage string

const (
	// CoverageExact requires the coincidence to be one orbit.
	CoverageExact Coverage = "exact"
	// CoverageUnion accepts a union of whole orbits with no member left
	// alone in its orbit.
	CoverageUnion Coverage = "union"
)

// ParseCoverage parses "exact" or "union".
func ParseCoverage(s string) (Coverage, error) {
	switch c := Coverage(s); c {
	case CoverageExact, CoverageUnion:
		return c, nil
	default:
		return "", fmt.Errorf("classify: unknown coverage mode %q", s)
	}
}

// Coincidence is a classified volume group with more than one member.
type Coincidence struct {
	Group grouping.Group `json:"group"`
	Class Class          `json:"class"`
	// Blocks are the orbit blocks with at least two members, in enumeration
	// order of their first member.
	Blocks [][]slope.Pair `json:"blocks,omitempty"`
	// Unaccounted are the members that are alone in their orbit block.
	Unaccounted []slope.Pair `json:"unaccounted,omitempty"`
}

// Result is the classification of one manifold's volume groups.
type Result struct {
	// Coincidences in volume order, of every class.
	Coincidences []Coincidence   `json:"coincidences"`
	Warnings     []model.Warning `json:"warnings,omitempty"`
}

// Count returns the number of coincidences of class c.
func (r Result) Count(c Class) int {
	n := 0
	for _, co := range r.Coincidences {
		if co.Class == c {
			n++
		}
	}
	return n
}

// Filter returns the coincidences of class c.
func (r Result) Filter(c Class) []Coincidence {
	var out []Coincidence
	for _, co := range r.Coincidences {
		if co.Class == c {
			out = append(out, co)
		}
	}
	return out
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithCoverage sets the coverage mode. The default is CoverageExact.
func WithCoverage(c Coverage) Option {
	return func(cl *Classifier) {
		cl.coverage = c
	}
}

// WithManifold names the manifold in warnings.
func WithManifold(name string) Option {
	return func(cl *Classifier) {
		cl.manifold = name
	}
}

// Classifier classifies the volume groups of one manifold against its
// symmetry group.
type Classifier struct {
	orbits   *symmetry.Orbits
	coverage Coverage
	manifold string
}

// New builds a classifier. The orbits of g over d are computed once.
func New(g *symmetry.Group, d slope.Domain, opts ...Option) *Classifier {
	if g == nil {
		g = symmetry.Trivial()
	}
	c := &Classifier{
		orbits:   g.Orbits(d),
		coverage: CoverageExact,
	}
	for _, fn := range opts {
		fn(c)
	}
	return c
}

// Orbits returns the orbit partition the classifier works with.
func (c *Classifier) Orbits() *symmetry.Orbits {
	return c.orbits
}

// Classify classifies groups, which must be a partition of the sampled
// slopes.
func (c *Classifier) Classify(groups []grouping.Group) Result {
	idx := c.orbits.Index()

	groupBits := make([]*roaring.Bitmap, len(groups))
	groupOf := make(map[uint32]int)
	orbitBits := make(map[int]*roaring.Bitmap)
	for gi, g := range groups {
		bm := roaring.New()
		for _, m := range g.Members {
			id, ok := idx.ID(m)
			if !ok {
				continue
			}
			bm.Add(id)
			groupOf[id] = gi
			oid, _ := c.orbits.Of(m)
			ob, ok := orbitBits[oid]
			if !ok {
				ob = roaring.New()
				orbitBits[oid] = ob
			}
			ob.Add(id)
		}
		groupBits[gi] = bm
	}

	var res Result

	// An orbit that is not contained in the group of any of its members
	// spans groups.
	inconsistent := make([]bool, len(groups))
	oids := make([]int, 0, len(orbitBits))
	for oid := range orbitBits {
		oids = append(oids, oid)
	}
	slices.Sort(oids)
	for _, oid := range oids {
		ob := orbitBits[oid]
		touched := map[int]struct{}{}
		it := ob.Iterator()
		for it.HasNext() {
			touched[groupOf[it.Next()]] = struct{}{}
		}
		if len(touched) < 2 {
			continue
		}
		for gi := range touched {
			inconsistent[gi] = true
		}
		res.Warnings = append(res.Warnings, model.Warning{
			Kind:     model.WarningInvariantViolation,
			Manifold: c.manifold,
			Pairs:    pairsOf(idx, ob),
			Message:  fmt.Sprintf("symmetry orbit spans %d volume groups", len(touched)),
		})
	}

	for gi, g := range groups {
		if g.Len() < 2 {
			continue
		}
		co := c.blocks(g, groupBits[gi], orbitBits)
		switch {
		case inconsistent[gi]:
			co.Class = Inconsistent
		case c.explains(co, g):
			co.Class = Explained
		default:
			co.Class = Unexplained
		}
		res.Coincidences = append(res.Coincidences, co)
	}
	return res
}

// blocks splits g into its orbit blocks.
func (c *Classifier) blocks(g grouping.Group, gb *roaring.Bitmap, orbitBits map[int]*roaring.Bitmap) Coincidence {
	idx := c.orbits.Index()
	co := Coincidence{Group: g}
	done := map[int]struct{}{}
	for _, m := range g.Members {
		oid, ok := c.orbits.Of(m)
		if !ok {
			// Outside the domain: no symmetry information.
			co.Unaccounted = append(co.Unaccounted, m)
			continue
		}
		if _, seen := done[oid]; seen {
			continue
		}
		done[oid] = struct{}{}

		block := roaring.And(orbitBits[oid], gb)
		if block.GetCardinality() < 2 {
			co.Unaccounted = append(co.Unaccounted, m)
			continue
		}
		co.Blocks = append(co.Blocks, pairsOf(idx, block))
	}
	slices.SortFunc(co.Unaccounted, slope.Compare)
	slices.SortFunc(co.Blocks, func(a, b []slope.Pair) int {
		return slope.Compare(a[0], b[0])
	})
	return co
}

func (c *Classifier) explains(co Coincidence, g grouping.Group) bool {
	if len(co.Unaccounted) > 0 {
		return false
	}
	switch c.coverage {
	case CoverageUnion:
		return len(co.Blocks) > 0
	default:
		return len(co.Blocks) == 1 && len(co.Blocks[0]) == g.Len()
	}
}

// pairsOf maps ids back to slopes. Ids follow enumeration order, so the
// result is sorted.
func pairsOf(idx *slope.Index, bm *roaring.Bitmap) []slope.Pair {
	out := make([]slope.Pair, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, idx.Pair(it.Next()))
	}
	return out
}
