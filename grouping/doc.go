// Package grouping clusters computed volumes into volume groups.
//
// Two volumes are linked when they lie within a Tolerance of each other.
// Groups are the connected components of that link relation, so grouping is
// transitive by construction:
//
//	a ~ b and b ~ c  =>  a, b, c share a group, even when a and c are not linked.
//
// This chaining is the defined semantics, not an artifact. It can make a group
// wider than the tolerance; Group.Chained reports when that happened so the
// report can say so. The partition is total and disjoint over the samples and
// does not depend on their input order.
//
// Refine re-splits a group using volumes computed at higher precision, with
// the same chaining rule at arbitrary precision.
package grouping
