// Package slope models Dehn filling coefficients.
//
// A filling slope on a torus cusp is a primitive pair (p, q) of integers. The
// pairs (p, q) and (-p, -q) describe the same slope; every function in this
// package that yields slopes yields the canonical representative, which has
// q > 0, or q == 0 and p == 1.
//
// # Enumeration
//
// An Enumerator walks the admissible slopes of a Domain lazily and in a fixed
// order, sorted by (|p|+|q|, p, q):
//
//	d := slope.Domain{Bound: 10, Exclude: slope.NewSet(slope.New(1, 0))}
//	for p := range slope.NewEnumerator(d).All() {
//	    fmt.Println(p)
//	}
//
// The sequence is finite and restartable: calling All again starts over.
package slope
