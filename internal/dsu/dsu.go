// Package dsu implements a disjoint-set forest over dense integer ids, with
// path halving and union by rank.
package dsu

// DSU is a disjoint-set forest over the ids 0..n-1.
type DSU struct {
	parent []int
	rank   []uint8
}

// New creates n singleton sets.
func New(n int) *DSU {
	d := &DSU{
		parent: make([]int, n),
		rank:   make([]uint8, n),
	}
	for i := range d.parent {
		d.parent[i] = i
	}
	return d
}

// Len returns the number of elements.
func (d *DSU) Len() int {
	return len(d.parent)
}

// Find returns the representative of x's set.
func (d *DSU) Find(x int) int {
	for d.parent[x] != x {
		d.parent[x] = d.parent[d.parent[x]]
		x = d.parent[x]
	}
	return x
}

// Union merges the sets of a and b and reports whether they were distinct.
func (d *DSU) Union(a, b int) bool {
	ra, rb := d.Find(a), d.Find(b)
	if ra == rb {
		return false
	}
	switch {
	case d.rank[ra] < d.rank[rb]:
		d.parent[ra] = rb
	case d.rank[ra] > d.rank[rb]:
		d.parent[rb] = ra
	default:
		d.parent[rb] = ra
		d.rank[ra]++
	}
	return true
}

// Same reports whether a and b are in the same set.
func (d *DSU) Same(a, b int) bool {
	return d.Find(a) == d.Find(b)
}

// Sets returns the sets as slices of ids. Sets are ordered by their smallest
// id and ids inside a set ascend, so the result depends only on the
// partition, not on the order of unions.
func (d *DSU) Sets() [][]int {
	index := make(map[int]int, len(d.parent))
	var out [][]int
	for i := range d.parent {
		r := d.Find(i)
		k, ok := index[r]
		if !ok {
			k = len(out)
			index[r] = k
			out = append(out, nil)
		}
		out[k] = append(out[k], i)
	}
	return out
}
