// Package telemetry exports search metrics through Prometheus.
//
// The Collector implements dehnvol.MetricsCollector. Searches are batch jobs,
// so the collected registry is written to a node_exporter textfile rather
// than served over HTTP.
package telemetry

import (
	"errors"
	"strconv"
	"time"

	"github.com/hupe1980/dehnvol/oracle"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector records search metrics into its own registry.
type Collector struct {
	registry *prometheus.Registry

	solveLatency    *prometheus.HistogramVec
	solves          *prometheus.CounterVec
	manifolds       *prometheus.CounterVec
	manifoldLatency prometheus.Histogram
	admissible      *prometheus.GaugeVec
	unexplained     *prometheus.GaugeVec
	refinements     *prometheus.CounterVec
	checks          *prometheus.CounterVec
}

// New returns a collector with metrics under namespace (default "dehnvol").
func New(namespace string) *Collector {
	if namespace == "" {
		namespace = "dehnvol"
	}
	c := &Collector{
		registry: prometheus.NewRegistry(),
		solveLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_latency_seconds",
			Help:      "Latency of volume solves",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"precision"}),
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solves_total",
			Help:      "Volume solves by precision and outcome",
		}, []string{"precision", "outcome"}),
		manifolds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "manifolds_total",
			Help:      "Searched manifolds by status",
		}, []string{"status"}),
		manifoldLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "manifold_duration_seconds",
			Help:      "Wall time of one manifold's pipeline",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 10),
		}),
		admissible: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "admissible_slopes",
			Help:      "Admissible slopes of the last search per manifold",
		}, []string{"manifold"}),
		unexplained: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unexplained_coincidences",
			Help:      "Unexplained coincidences of the last search per manifold",
		}, []string{"manifold"}),
		refinements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refinement_members_total",
			Help:      "Coincidence members entering and surviving a refinement stage",
		}, []string{"bits", "result"}),
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Targeted equivalence checks by status",
		}, []string{"status"}),
	}
	c.registry.MustRegister(
		c.solveLatency,
		c.solves,
		c.manifolds,
		c.manifoldLatency,
		c.admissible,
		c.unexplained,
		c.refinements,
		c.checks,
	)
	return c
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile writes the metrics in the text exposition format to path.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}

// RecordSolve implements dehnvol.MetricsCollector.
func (c *Collector) RecordSolve(precision uint, duration time.Duration, err error) {
	p := strconv.FormatUint(uint64(precision), 10)
	c.solveLatency.WithLabelValues(p).Observe(duration.Seconds())
	c.solves.WithLabelValues(p, outcome(err)).Inc()
}

// RecordManifold implements dehnvol.MetricsCollector.
func (c *Collector) RecordManifold(manifold string, admissible, unexplained int, duration time.Duration, err error) {
	c.manifolds.WithLabelValues(status(err)).Inc()
	c.manifoldLatency.Observe(duration.Seconds())
	c.admissible.WithLabelValues(manifold).Set(float64(admissible))
	c.unexplained.WithLabelValues(manifold).Set(float64(unexplained))
}

// RecordRefinement implements dehnvol.MetricsCollector.
func (c *Collector) RecordRefinement(bits uint, candidates, survivors int) {
	b := strconv.FormatUint(uint64(bits), 10)
	c.refinements.WithLabelValues(b, "candidate").Add(float64(candidates))
	c.refinements.WithLabelValues(b, "survivor").Add(float64(survivors))
}

// RecordCheck implements dehnvol.MetricsCollector.
func (c *Collector) RecordCheck(_ time.Duration, err error) {
	c.checks.WithLabelValues(status(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, oracle.ErrNonHyperbolic):
		return "nonhyperbolic"
	case errors.Is(err, oracle.ErrNotConverged):
		return "noconvergence"
	default:
		return "error"
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
