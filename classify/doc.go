// Package classify separates volume coincidences into those explained by a
// manifold's declared symmetries and those that are not.
//
// A coincidence is a volume group with more than one member. Its members are
// split into orbit blocks: the intersection of the group with each symmetry
// orbit it touches. Under CoverageExact a coincidence is Explained when it is
// a single block; under CoverageUnion when every block holds at least two
// slopes. Otherwise it is Unexplained, and the blocks together with the
// unaccounted slopes (members alone in their block) are the residual
// structure worth studying.
//
// Symmetries preserve volume, so a sampled orbit must lie inside one volume
// group. An orbit whose sampled members fall into several groups means a
// wrong table entry or a tolerance that is too tight. It is reported as an
// invariant-violation warning and every coincidence it touches is classified
// Inconsistent instead of Explained or Unexplained.
package classify
