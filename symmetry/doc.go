// Package symmetry models the declared volume symmetries of a manifold.
//
// A Transform is an element of PSL(2,Q) written as an integer matrix over a
// positive denominator n,
//
//	[a/n  b/n]
//	[c/n  d/n]    with ad - bc = ±n²,
//
// acting on filling slopes by (p, q) -> ((ap+bq)/n, (cp+dq)/n). The image is
// a slope only when both coordinates are integral. Named transforms (mirror,
// exchange, negate) compile to unit matrices.
//
// A Group is generated by the declared transforms of one manifold. Orbits are
// computed by fixed-point closure over generators and their inverses,
// restricted to the admissible slopes of a slope.Domain, so the orbits of a
// domain partition it.
//
// A Table maps manifold names to their transforms. Tables are loaded from
// YAML, JSON or the legacy one-record-per-line list format
//
//	['m136', [0, 4, 1, 0, 2], [1, 0, 0, -1, 1], [0, -4, 1, 0, 2]]
//
// and are validated per entry: malformed entries are skipped and reported as
// warnings, never as load errors.
package symmetry
