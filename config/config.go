// Package config loads the YAML configuration of the dehnvol command.
//
// Every field has a command-line flag of the same meaning; flags override the
// file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hupe1980/dehnvol"
	"github.com/hupe1980/dehnvol/classify"
	"github.com/hupe1980/dehnvol/grouping"
	"github.com/hupe1980/dehnvol/oracle"
	"github.com/hupe1980/dehnvol/slope"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned for a configuration that fails validation.
var ErrInvalid = errors.New("config: invalid")

var validate = validator.New()

// Config is the configuration file.
type Config struct {
	// Manifolds are searched when the command line names none.
	Manifolds []string `yaml:"manifolds" validate:"dive,required"`
	Bound     int      `yaml:"bound" validate:"gte=0"`

	// Tolerance is the first-pass volume tolerance; the library default
	// applies when both bounds are zero.
	Tolerance  grouping.Tolerance `yaml:"tolerance"`
	Coverage   string             `yaml:"coverage" validate:"omitempty,oneof=exact union"`
	Refinement []Stage            `yaml:"refinement" validate:"dive"`
	// NoRefinement disables the precision stages.
	NoRefinement bool     `yaml:"no_refinement"`
	MinVolume    *float64 `yaml:"min_volume" validate:"omitempty,gte=0"`
	Exclude      []string `yaml:"exclude"`

	Workers             int           `yaml:"workers" validate:"gte=0"`
	MaxRetries          *int          `yaml:"max_retries" validate:"omitempty,gte=0"`
	SolveTimeout        time.Duration `yaml:"solve_timeout" validate:"gte=0"`
	ManifoldTimeout     time.Duration `yaml:"manifold_timeout" validate:"gte=0"`
	ManifoldParallelism int           `yaml:"manifold_parallelism" validate:"gte=0"`
	MaxConcurrentSolves int64         `yaml:"max_concurrent_solves" validate:"gte=0"`
	SolvesPerSecond     float64       `yaml:"solves_per_second" validate:"gte=0"`
	Burst               int           `yaml:"burst" validate:"gte=0"`

	DefaultManifold string `yaml:"default_manifold"`
	MaxUnexplained  int    `yaml:"max_unexplained" validate:"gte=0"`

	// Symmetries is a table file or, with a trailing slash, a directory of
	// table files. Remote locations use s3:// or minio:// URLs.
	Symmetries string `yaml:"symmetries"`
	// Volumes replays a precomputed volume table instead of running Engine.
	Volumes string `yaml:"volumes"`
	Engine  Engine `yaml:"engine"`

	Format      string `yaml:"format" validate:"omitempty,oneof=text json"`
	Verbose     bool   `yaml:"verbose"`
	MetricsFile string `yaml:"metrics_file"`
	Log         Log    `yaml:"log"`
}

// Stage is a refinement stage.
type Stage struct {
	Bits      uint   `yaml:"bits" validate:"gt=0"`
	Tolerance string `yaml:"tolerance" validate:"required"`
}

// Engine is an external geometry engine process.
type Engine struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// Log configures logging.
type Log struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// Default returns the configuration used without a file.
func Default() Config {
	return Config{
		Coverage:  string(classify.CoverageExact),
		Format:    "text",
		Log:       Log{Level: "warn", Format: "text"},
	}
}

// Load reads and validates the file at path on top of Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML on top of Default.
func Parse(data []byte) (Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks field constraints and the values the library parses.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := c.tolerance().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	for _, st := range c.Refinement {
		if _, err := grouping.Stage(st).Epsilon(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	if _, err := c.Exclusions(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

func (c *Config) tolerance() grouping.Tolerance {
	if c.Tolerance == (grouping.Tolerance{}) {
		return grouping.DefaultTolerance
	}
	return c.Tolerance
}

// Exclusions parses Exclude.
func (c *Config) Exclusions() (slope.Set, error) {
	set := slope.NewSet()
	for _, s := range c.Exclude {
		p, err := slope.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("exclude %q: %w", s, err)
		}
		set.Add(p)
	}
	return set, nil
}

// Stages returns the refinement stages: none when disabled, the library
// defaults when unset.
func (c *Config) Stages() []grouping.Stage {
	if c.NoRefinement {
		return nil
	}
	if len(c.Refinement) == 0 {
		return grouping.DefaultStages
	}
	out := make([]grouping.Stage, len(c.Refinement))
	for i, st := range c.Refinement {
		out[i] = grouping.Stage(st)
	}
	return out
}

// Options translates the search settings into searcher options. Logging,
// metrics, symmetries and the oracle are wired by the caller.
func (c *Config) Options() ([]dehnvol.Option, error) {
	excl, err := c.Exclusions()
	if err != nil {
		return nil, err
	}
	minVolume := oracle.DefaultMinVolume
	if c.MinVolume != nil {
		minVolume = *c.MinVolume
	}
	opts := []dehnvol.Option{
		dehnvol.WithTolerance(c.tolerance()),
		dehnvol.WithCoverage(classify.Coverage(c.Coverage)),
		dehnvol.WithRefinement(c.Stages()...),
		dehnvol.WithMinVolume(minVolume),
		dehnvol.WithExclusions(excl),
		dehnvol.WithWorkers(c.Workers),
		dehnvol.WithSolveTimeout(c.SolveTimeout),
		dehnvol.WithManifoldTimeout(c.ManifoldTimeout),
		dehnvol.WithMaxConcurrentSolves(c.MaxConcurrentSolves),
		dehnvol.WithRateLimit(c.SolvesPerSecond, c.Burst),
		dehnvol.WithDefaultManifold(c.DefaultManifold),
		dehnvol.WithMaxUnexplained(c.MaxUnexplained),
	}
	if c.MaxRetries != nil {
		opts = append(opts, dehnvol.WithMaxRetries(*c.MaxRetries))
	}
	if c.ManifoldParallelism > 0 {
		opts = append(opts, dehnvol.WithManifoldParallelism(c.ManifoldParallelism))
	}
	return opts, nil
}
