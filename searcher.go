package dehnvol

import (
	"sync"
	"sync/atomic"

	"github.com/hupe1980/dehnvol/internal/pool"
	"github.com/hupe1980/dehnvol/internal/resource"
	"github.com/hupe1980/dehnvol/model"
	"github.com/hupe1980/dehnvol/oracle"
	"github.com/hupe1980/dehnvol/symmetry"
)

// Catalog resolves manifold names to manifolds.
type Catalog interface {
	Lookup(name string) (model.Manifold, bool)
}

// CatalogFunc adapts a function to the Catalog interface.
type CatalogFunc func(name string) (model.Manifold, bool)

// Lookup calls f.
func (f CatalogFunc) Lookup(name string) (model.Manifold, bool) {
	return f(name)
}

// Searcher runs volume coincidence searches. It is safe for concurrent use;
// all searches share one worker pool and one resource controller.
type Searcher struct {
	oracle  oracle.Oracle
	precise oracle.PreciseOracle

	opts     options
	table    *symmetry.Table
	warnings []model.Warning

	pool    *pool.SolvePool
	rc      *resource.Controller
	logger  *Logger
	metrics MetricsCollector

	closeOnce sync.Once
	closed    atomic.Bool
}

// New creates a Searcher around a volume oracle.
//
// The symmetry table is copied; entries for manifolds outside the catalog are
// dropped and reported by Warnings.
func New(o oracle.Oracle, optFns ...Option) (*Searcher, error) {
	if o == nil {
		return nil, ErrNoOracle
	}
	opts := applyOptions(optFns)
	if err := opts.validate(); err != nil {
		return nil, err
	}

	if opts.minVolume > 0 {
		o = oracle.WithMinVolume(o, opts.minVolume)
	}
	s := &Searcher{
		oracle:  o,
		opts:    opts,
		table:   symmetry.NewTable(),
		logger:  opts.logger,
		metrics: opts.metricsCollector,
		pool:    pool.NewSolvePool(opts.workers),
		rc: resource.NewController(resource.Config{
			MaxConcurrentSolves: opts.maxConcurrentSolves,
			SolvesPerSecond:     opts.solvesPerSecond,
			Burst:               opts.burst,
		}),
	}
	if p, ok := oracle.Precise(o); ok && len(opts.stages) > 0 {
		s.precise = p
	}
	if opts.symmetries != nil {
		s.warnings = append(s.warnings, s.table.Merge(opts.symmetries)...)
	}
	if opts.catalog != nil {
		s.warnings = append(s.warnings, s.table.Restrict(func(name string) bool {
			_, ok := opts.catalog.Lookup(name)
			return ok
		})...)
	}
	for _, w := range s.warnings {
		s.logger.Warn("symmetry table", "warning", w.String())
	}
	return s, nil
}

// Symmetries returns the symmetry table in use.
func (s *Searcher) Symmetries() *symmetry.Table {
	return s.table
}

// Warnings returns the warnings raised while preparing the symmetry table.
// They are repeated in every batch report.
func (s *Searcher) Warnings() []model.Warning {
	return s.warnings
}

// Refines reports whether coincidence candidates are re-solved at extended
// precision.
func (s *Searcher) Refines() bool {
	return s.precise != nil
}

// resolve returns the catalog entry for name, or a handle-less manifold when
// no catalog is configured.
func (s *Searcher) resolve(name string) (model.Manifold, error) {
	if s.opts.catalog == nil {
		return model.Named(name), nil
	}
	m, ok := s.opts.catalog.Lookup(name)
	if !ok {
		return model.Manifold{}, &ManifoldError{Manifold: name, Err: ErrUnknownManifold}
	}
	return m, nil
}
