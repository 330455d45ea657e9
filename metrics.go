package dehnvol

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// telemetry package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordSolve is called after each solve attempt. precision is zero for
	// standard-precision solves.
	RecordSolve(precision uint, duration time.Duration, err error)

	// RecordManifold is called when one manifold's pipeline ends.
	RecordManifold(manifold string, admissible, unexplained int, duration time.Duration, err error)

	// RecordRefinement is called after each precision stage with the number
	// of coincidence members entering it and the number still coinciding
	// afterwards.
	RecordRefinement(bits uint, candidates, survivors int)

	// RecordCheck is called after each targeted check.
	RecordCheck(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSolve(uint, time.Duration, error)                {}
func (NoopMetricsCollector) RecordManifold(string, int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordRefinement(uint, int, int)                       {}
func (NoopMetricsCollector) RecordCheck(time.Duration, error)                      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SolveCount         atomic.Int64
	SolveErrors        atomic.Int64
	SolveTotalNanos    atomic.Int64
	PreciseSolveCount  atomic.Int64
	ManifoldCount      atomic.Int64
	ManifoldErrors     atomic.Int64
	UnexplainedCount   atomic.Int64
	RefinementCands    atomic.Int64
	RefinementSurvived atomic.Int64
	CheckCount         atomic.Int64
	CheckErrors        atomic.Int64
}

// RecordSolve implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSolve(precision uint, duration time.Duration, err error) {
	b.SolveCount.Add(1)
	b.SolveTotalNanos.Add(duration.Nanoseconds())
	if precision > 0 {
		b.PreciseSolveCount.Add(1)
	}
	if err != nil {
		b.SolveErrors.Add(1)
	}
}

// RecordManifold implements MetricsCollector.
func (b *BasicMetricsCollector) RecordManifold(_ string, _, unexplained int, _ time.Duration, err error) {
	b.ManifoldCount.Add(1)
	b.UnexplainedCount.Add(int64(unexplained))
	if err != nil {
		b.ManifoldErrors.Add(1)
	}
}

// RecordRefinement implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRefinement(_ uint, candidates, survivors int) {
	b.RefinementCands.Add(int64(candidates))
	b.RefinementSurvived.Add(int64(survivors))
}

// RecordCheck implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCheck(_ time.Duration, err error) {
	b.CheckCount.Add(1)
	if err != nil {
		b.CheckErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SolveCount:         b.SolveCount.Load(),
		SolveErrors:        b.SolveErrors.Load(),
		SolveAvgNanos:      b.getAvgSolveNanos(),
		PreciseSolveCount:  b.PreciseSolveCount.Load(),
		ManifoldCount:      b.ManifoldCount.Load(),
		ManifoldErrors:     b.ManifoldErrors.Load(),
		UnexplainedCount:   b.UnexplainedCount.Load(),
		RefinementCands:    b.RefinementCands.Load(),
		RefinementSurvived: b.RefinementSurvived.Load(),
		CheckCount:         b.CheckCount.Load(),
		CheckErrors:        b.CheckErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgSolveNanos() int64 {
	count := b.SolveCount.Load()
	if count == 0 {
		return 0
	}
	return b.SolveTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SolveCount         int64
	SolveErrors        int64
	SolveAvgNanos      int64
	PreciseSolveCount  int64
	ManifoldCount      int64
	ManifoldErrors     int64
	UnexplainedCount   int64
	RefinementCands    int64
	RefinementSurvived int64
	CheckCount         int64
	CheckErrors        int64
}
