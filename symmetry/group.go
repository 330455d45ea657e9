package symmetry

import (
	"fmt"
	"slices"

	"github.com/bits-and-blooms/bitset"
	"github.com/hupe1980/dehnvol/internal/pool"
	"github.com/hupe1980/dehnvol/slope"
)

// Group is the group generated by a manifold's declared transforms.
// A Group is immutable and safe for concurrent use.
type Group struct {
	gens  []Transform
	moves []Transform // generators followed by their inverses
}

// Trivial returns the group with no generators. Every orbit is a singleton.
func Trivial() *Group {
	return &Group{}
}

// NewGroup returns the group generated by ts. Every transform must validate;
// identities and duplicates are dropped.
func NewGroup(ts ...Transform) (*Group, error) {
	g := &Group{}
	seen := make(map[[5]int]struct{}, len(ts))
	for i, t := range ts {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("transform %d (%v): %w", i, t, err)
		}
		k := key(t)
		if _, dup := seen[k]; dup || t.IsIdentity() {
			continue
		}
		seen[k] = struct{}{}
		g.gens = append(g.gens, t)
	}
	g.moves = make([]Transform, 0, 2*len(g.gens))
	g.moves = append(g.moves, g.gens...)
	for _, t := range g.gens {
		inv := t.Inverse()
		if _, dup := seen[key(inv)]; dup {
			continue
		}
		g.moves = append(g.moves, inv)
	}
	return g, nil
}

// Generators returns the declared generators.
func (g *Group) Generators() []Transform {
	return slices.Clone(g.gens)
}

// IsTrivial reports whether the group has no generators.
func (g *Group) IsTrivial() bool {
	return len(g.gens) == 0
}

// neighbors calls fn with the canonical image of p under every move that
// lands in d.
func (g *Group) neighbors(p slope.Pair, d slope.Domain, fn func(slope.Pair)) {
	for _, t := range g.moves {
		img, ok := t.Apply(p)
		if !ok || !d.Admits(img) {
			continue
		}
		fn(img.Canonical())
	}
}

// Orbit returns the orbit of p's slope inside d, in enumeration order.
// The orbit always contains p's slope, even when d does not admit it.
func (g *Group) Orbit(p slope.Pair, d slope.Domain) []slope.Pair {
	start := p.Canonical()
	seen := map[slope.Pair]struct{}{start: {}}
	queue := []slope.Pair{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		g.neighbors(cur, d, func(img slope.Pair) {
			if _, ok := seen[img]; ok {
				return
			}
			seen[img] = struct{}{}
			queue = append(queue, img)
		})
	}
	out := make([]slope.Pair, 0, len(seen))
	for q := range seen {
		out = append(out, q)
	}
	slices.SortFunc(out, slope.Compare)
	return out
}

// Equivalent reports whether a and b lie in the same orbit inside d.
func (g *Group) Equivalent(a, b slope.Pair, d slope.Domain) bool {
	if a.Canonical() == b.Canonical() {
		return true
	}
	return slices.Contains(g.Orbit(a, d), b.Canonical())
}

// Orbits partitions the admissible slopes of d into orbits.
func (g *Group) Orbits(d slope.Domain) *Orbits {
	idx := slope.IndexDomain(d)
	n := idx.Len()
	o := &Orbits{index: idx, of: make([]int, n)}

	visited := pool.GetVisited(uint(n))
	defer pool.PutVisited(visited)

	for id := 0; id < n; id++ {
		if visited.Test(uint(id)) {
			continue
		}
		o.members = append(o.members, g.closure(idx, d, uint32(id), visited, len(o.members), o.of))
	}
	return o
}

// closure walks the component of start, marking visited ids and recording
// their orbit number.
func (g *Group) closure(idx *slope.Index, d slope.Domain, start uint32, visited *bitset.BitSet, orbit int, of []int) []slope.Pair {
	visited.Set(uint(start))
	of[start] = orbit
	queue := []uint32{start}
	members := []slope.Pair{idx.Pair(start)}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		g.neighbors(idx.Pair(cur), d, func(img slope.Pair) {
			id, ok := idx.ID(img)
			if !ok || visited.Test(uint(id)) {
				return
			}
			visited.Set(uint(id))
			of[id] = orbit
			queue = append(queue, id)
			members = append(members, img)
		})
	}
	slices.SortFunc(members, slope.Compare)
	return members
}

// Elements lists group elements by breadth-first products of the
// generators, up to limit elements. complete is false when the limit cut the
// listing short (the group may be infinite).
func (g *Group) Elements(limit int) (elems []Transform, complete bool) {
	id := Identity()
	seen := map[[5]int]struct{}{key(id): {}}
	elems = []Transform{id}
	queue := []Transform{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, m := range g.moves {
			next := m.Compose(cur)
			k := key(next)
			if _, ok := seen[k]; ok {
				continue
			}
			if len(elems) >= limit {
				return elems, false
			}
			seen[k] = struct{}{}
			elems = append(elems, next)
			queue = append(queue, next)
		}
	}
	return elems, true
}

// key is a canonical form identifying transforms with equal slope action.
func key(t Transform) [5]int {
	n := t.Normalize()
	k := n.Descriptor()
	for i := 0; i < 4; i++ {
		if k[i] == 0 {
			continue
		}
		if k[i] < 0 {
			for j := 0; j < 4; j++ {
				k[j] = -k[j]
			}
		}
		break
	}
	return k
}

// Orbits is a total, disjoint partition of a domain into orbits.
type Orbits struct {
	index   *slope.Index
	of      []int
	members [][]slope.Pair
}

// Len returns the number of orbits.
func (o *Orbits) Len() int {
	return len(o.members)
}

// Of returns the orbit number of p's slope.
func (o *Orbits) Of(p slope.Pair) (int, bool) {
	id, ok := o.index.ID(p)
	if !ok {
		return 0, false
	}
	return o.of[id], true
}

// Members returns orbit i in enumeration order. The slice must not be
// modified.
func (o *Orbits) Members(i int) []slope.Pair {
	return o.members[i]
}

// Index returns the slope index the partition was built over.
func (o *Orbits) Index() *slope.Index {
	return o.index
}

// All returns every orbit, ordered by the enumeration position of its first
// member.
func (o *Orbits) All() [][]slope.Pair {
	return o.members
}
