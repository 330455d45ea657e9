package dehnvol

import (
	"log/slog"
	"time"

	"github.com/hupe1980/dehnvol/classify"
	"github.com/hupe1980/dehnvol/grouping"
	"github.com/hupe1980/dehnvol/oracle"
	"github.com/hupe1980/dehnvol/slope"
	"github.com/hupe1980/dehnvol/symmetry"
)

type options struct {
	tolerance           grouping.Tolerance
	coverage            classify.Coverage
	stages              []grouping.Stage
	minVolume           float64
	workers             int
	maxRetries          int
	solveTimeout        time.Duration
	manifoldTimeout     time.Duration
	manifoldParallelism int
	maxConcurrentSolves int64
	solvesPerSecond     float64
	burst               int
	symmetries          *symmetry.Table
	catalog             Catalog
	exclusions          slope.Set
	defaultManifold     string
	maxUnexplained      int
	metricsCollector    MetricsCollector
	logger              *Logger
}

// Option configures a Searcher.
type Option func(*options)

// WithTolerance sets the volume equality tolerance of the first pass.
// The default is grouping.DefaultTolerance.
func WithTolerance(t grouping.Tolerance) Option {
	return func(o *options) {
		o.tolerance = t
	}
}

// WithCoverage sets when symmetry orbits explain a coincidence.
func WithCoverage(c classify.Coverage) Option {
	return func(o *options) {
		o.coverage = c
	}
}

// WithRefinement sets the precision stages coincidence candidates are
// re-solved at. Calling it without stages disables refinement. Refinement
// only runs when the oracle implements oracle.PreciseOracle.
//
// Default: grouping.DefaultStages (64 bits at 1e-15, 212 bits at 1e-62).
func WithRefinement(stages ...grouping.Stage) Option {
	return func(o *options) {
		o.stages = stages
	}
}

// WithMinVolume reports volumes below floor as non-hyperbolic. Zero disables
// the floor. Default: oracle.DefaultMinVolume.
func WithMinVolume(floor float64) Option {
	return func(o *options) {
		o.minVolume = floor
	}
}

// WithWorkers sets the number of solve workers shared by every manifold.
// Default: runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithMaxRetries sets how often a solve that did not converge is retried
// before the slope is recorded as inconclusive. Default: 2.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		o.maxRetries = n
	}
}

// WithSolveTimeout bounds one solve attempt. A timed-out attempt counts as
// non-convergence. Zero means no timeout.
func WithSolveTimeout(d time.Duration) Option {
	return func(o *options) {
		o.solveTimeout = d
	}
}

// WithManifoldTimeout bounds one manifold's pipeline. A timed-out manifold is
// reported as aborted; other manifolds are unaffected.
func WithManifoldTimeout(d time.Duration) Option {
	return func(o *options) {
		o.manifoldTimeout = d
	}
}

// WithManifoldParallelism sets how many manifolds run at once. Default: 4.
func WithManifoldParallelism(n int) Option {
	return func(o *options) {
		o.manifoldParallelism = n
	}
}

// WithMaxConcurrentSolves caps solves in flight across the searcher,
// independently of the worker count. Zero means no cap.
func WithMaxConcurrentSolves(n int64) Option {
	return func(o *options) {
		o.maxConcurrentSolves = n
	}
}

// WithRateLimit limits solves per second, for engines that are metered.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(o *options) {
		o.solvesPerSecond = perSecond
		o.burst = burst
	}
}

// WithSymmetries sets the declared symmetry table. Manifolds without an entry
// use the trivial group.
func WithSymmetries(t *symmetry.Table) Option {
	return func(o *options) {
		o.symmetries = t
	}
}

// WithCatalog sets the manifold catalog. Symmetry entries for manifolds the
// catalog does not know are dropped with a warning.
func WithCatalog(c Catalog) Option {
	return func(o *options) {
		o.catalog = c
	}
}

// WithExclusions removes slopes from every search domain.
func WithExclusions(s slope.Set) Option {
	return func(o *options) {
		o.exclusions = s
	}
}

// WithDefaultManifold sets the manifold Check uses when none is given.
func WithDefaultManifold(name string) Option {
	return func(o *options) {
		o.defaultManifold = name
	}
}

// WithMaxUnexplained stops reporting a manifold's unexplained coincidences
// after n of them; the report is marked truncated. Zero means no limit.
func WithMaxUnexplained(n int) Option {
	return func(o *options) {
		o.maxUnexplained = n
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := dehnvol.NewJSONLogger(slog.LevelInfo)
//	s, _ := dehnvol.New(o, dehnvol.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		tolerance:           grouping.DefaultTolerance,
		coverage:            classify.CoverageExact,
		stages:              grouping.DefaultStages,
		minVolume:           oracle.DefaultMinVolume,
		maxRetries:          2,
		manifoldParallelism: 4,
		metricsCollector:    NoopMetricsCollector{},
		logger:              NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}

func (o *options) validate() error {
	if err := o.tolerance.Validate(); err != nil {
		return translateError(err)
	}
	if _, err := classify.ParseCoverage(string(o.coverage)); err != nil {
		return &ErrInvalidOption{Option: "coverage", Value: o.coverage, cause: err}
	}
	for _, st := range o.stages {
		if _, err := st.Epsilon(); err != nil {
			return translateError(err)
		}
	}
	if o.maxRetries < 0 {
		return &ErrInvalidOption{Option: "max retries", Value: o.maxRetries}
	}
	if o.minVolume < 0 {
		return &ErrInvalidOption{Option: "min volume", Value: o.minVolume}
	}
	if o.manifoldParallelism <= 0 {
		o.manifoldParallelism = 1
	}
	return nil
}
