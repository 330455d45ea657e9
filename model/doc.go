// Package model defines the types shared by every stage of a volume search.
//
// # Identity Types
//
//   - Manifold: opaque census identifier plus the geometric engine's handle
//
// # Accounting Types
//
//   - Failure: a slope excluded from grouping, with the reason
//   - Warning: a non-fatal problem surfaced in the report
//     (malformed symmetry entries, unknown manifolds, invariant violations)
package model
