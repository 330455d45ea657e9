package slope

// Index numbers a fixed list of slopes densely, so that sets of slopes can be
// held in bitmaps. IDs follow the order of the list the index was built from.
type Index struct {
	pairs []Pair
	ids   map[Pair]uint32
}

// NewIndex builds an index over pairs. Duplicates (by slope) keep their first
// position.
func NewIndex(pairs []Pair) *Index {
	idx := &Index{
		pairs: make([]Pair, 0, len(pairs)),
		ids:   make(map[Pair]uint32, len(pairs)),
	}
	for _, p := range pairs {
		c := p.Canonical()
		if _, ok := idx.ids[c]; ok {
			continue
		}
		idx.ids[c] = uint32(len(idx.pairs))
		idx.pairs = append(idx.pairs, c)
	}
	return idx
}

// IndexDomain indexes every admissible slope of d in enumeration order.
func IndexDomain(d Domain) *Index {
	return NewIndex(NewEnumerator(d).Collect())
}

// ID returns the dense id of p's slope.
func (idx *Index) ID(p Pair) (uint32, bool) {
	id, ok := idx.ids[p.Canonical()]
	return id, ok
}

// Pair returns the slope with the given id.
func (idx *Index) Pair(id uint32) Pair {
	return idx.pairs[id]
}

// Len returns the number of indexed slopes.
func (idx *Index) Len() int {
	return len(idx.pairs)
}

// Pairs returns the indexed slopes in id order. The slice must not be modified.
func (idx *Index) Pairs() []Pair {
	return idx.pairs
}
