// Package oracle defines the contract between the search and the external
// geometry engine that computes Dehn filling volumes.
//
// The search treats an Oracle as a pure function of (manifold, slope): it
// may be slow and it may fail, but it has no effects the search can observe.
// Two failures are distinguished:
//
//   - ErrNonHyperbolic: the filled manifold is not hyperbolic. This is an
//     expected outcome; the slope is excluded from grouping.
//   - ErrNotConverged: the solve did not converge. The caller retries with a
//     new Request.Attempt and gives up after its retry budget. Any other
//     error, including a timeout, is treated the same way.
//
// Engines that can solve at extended precision also implement PreciseOracle,
// which the search uses to refine coincidence candidates.
package oracle
