// Package pool provides the shared solve worker pool and pooled visited sets
// for orbit closures.
package pool
