package slope

import "iter"

// Enumerator yields the admissible slopes of a Domain.
//
// The order is (|p|+|q|, p, q) on canonical representatives. Enumerators hold
// no state between calls; All can be ranged over any number of times.
type Enumerator struct {
	domain Domain
}

// NewEnumerator returns an enumerator over d.
func NewEnumerator(d Domain) *Enumerator {
	return &Enumerator{domain: d}
}

// Domain returns the enumerated domain.
func (e *Enumerator) Domain() Domain {
	return e.domain
}

// All returns the lazy sequence of admissible canonical slopes.
func (e *Enumerator) All() iter.Seq[Pair] {
	return func(yield func(Pair) bool) {
		b := e.domain.Bound
		if b <= 0 {
			return
		}
		// Walk shells of constant |p|+|q|; inside a shell p ascends, and for
		// each p only the canonical sign of q is emitted.
		for s := 1; s <= 2*b; s++ {
			for p := -s; p <= s; p++ {
				q := s - abs(p)
				c := Pair{P: p, Q: q}
				if q == 0 && p < 0 {
					continue
				}
				if !e.domain.Admits(c) {
					continue
				}
				if !yield(c) {
					return
				}
			}
		}
	}
}

// Collect materializes the sequence.
func (e *Enumerator) Collect() []Pair {
	var out []Pair
	for p := range e.All() {
		out = append(out, p)
	}
	return out
}

// Count returns the number of admissible slopes without allocating them.
func (e *Enumerator) Count() int {
	n := 0
	for range e.All() {
		n++
	}
	return n
}
