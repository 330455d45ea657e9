// Package report holds the results of a search and renders them.
//
// A Batch aggregates one Manifold report per searched manifold. Every
// enumerated slope is accounted for in exactly one of three places: sampled
// (its volume entered grouping), non-hyperbolic, or inconclusive. Renderers
// are the only code in the module that writes user-visible output.
package report
