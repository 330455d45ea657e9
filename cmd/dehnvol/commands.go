package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/dehnvol"
	"github.com/hupe1980/dehnvol/codec"
	"github.com/hupe1980/dehnvol/config"
	"github.com/hupe1980/dehnvol/model"
	"github.com/hupe1980/dehnvol/report"
	"github.com/hupe1980/dehnvol/slope"
	"github.com/hupe1980/dehnvol/symmetry"
	"github.com/spf13/cobra"
)

// errViolated makes verify exit non-zero when a transform changes volume.
var errViolated = errors.New("a declared symmetry does not preserve volume")

// flags holds the values of the command-line flags. Each one overrides the
// configuration file only when set.
type flags struct {
	configPath string

	symmetries  string
	volumes     string
	engine      string
	engineArgs  []string
	metricsFile string
	format      string
	verbose     bool
	logLevel    string

	bound           int
	relative        float64
	absolute        float64
	coverage        string
	noRefine        bool
	exclude         []string
	workers         int
	retries         int
	solveTimeout    time.Duration
	manifoldTimeout time.Duration
	maxUnexplained  int

	manifold   string
	checkBound int
	verify     bool
	outFormat  string
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "dehnvol",
		Short:         "Search Dehn fillings for unexplained volume coincidences",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "YAML configuration file")
	pf.StringVar(&f.symmetries, "symmetries", "", "symmetry table file or directory (local path, s3:// or minio:// URL)")
	pf.StringVar(&f.volumes, "volumes", "", "replay volumes from a precomputed table instead of running an engine")
	pf.StringVar(&f.engine, "engine", "", "geometry engine command, called as CMD [ARGS] MANIFOLD P Q")
	pf.StringArrayVar(&f.engineArgs, "engine-arg", nil, "argument passed to the engine before the manifold (repeatable)")
	pf.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on exit")
	pf.StringVar(&f.format, "format", "", "output format: text or json")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "include explained details and excluded slopes")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.Float64Var(&f.relative, "rel-tol", 0, "relative volume tolerance")
	pf.Float64Var(&f.absolute, "abs-tol", 0, "absolute volume tolerance")
	pf.StringVar(&f.coverage, "coverage", "", "when orbits explain a coincidence: exact or union")
	pf.BoolVar(&f.noRefine, "no-refine", false, "skip the extended-precision stages")
	pf.StringSliceVar(&f.exclude, "exclude", nil, "slopes to leave out, e.g. 1/0")
	pf.IntVar(&f.workers, "workers", 0, "solve workers")
	pf.IntVar(&f.retries, "retries", 0, "retries for solves that do not converge")
	pf.DurationVar(&f.solveTimeout, "solve-timeout", 0, "timeout of one solve attempt")
	pf.DurationVar(&f.manifoldTimeout, "manifold-timeout", 0, "timeout of one manifold's search")

	root.AddCommand(
		newSearchCmd(f),
		newCheckCmd(f),
		newVerifyCmd(f),
		newSymmetriesCmd(f),
	)
	return root
}

func newSearchCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [MANIFOLD...]",
		Short: "Search the fillings of each manifold up to a coefficient bound",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd, f)
			if err != nil {
				return err
			}
			defer env.close()

			names := args
			if len(names) == 0 {
				names = env.cfg.Manifolds
			}
			if len(names) == 0 {
				return errors.New("no manifolds given")
			}
			manifolds := make([]model.Manifold, 0, len(names))
			for _, name := range names {
				m, ok := env.catalog.Lookup(name)
				if !ok {
					return fmt.Errorf("%w: %s", dehnvol.ErrUnknownManifold, name)
				}
				manifolds = append(manifolds, m)
			}

			batch, err := env.searcher.Search(cmd.Context(), manifolds, env.cfg.Bound)
			if batch != nil {
				if rerr := env.renderer.RenderBatch(cmd.OutOrStdout(), batch); rerr != nil {
					return rerr
				}
			}
			return err
		},
	}
	cmd.Flags().IntVarP(&f.bound, "bound", "b", 0, "coefficient bound (default 10)")
	cmd.Flags().IntVar(&f.maxUnexplained, "max-unexplained", 0, "stop reporting a manifold after this many unexplained coincidences")
	return cmd
}

func newCheckCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check P Q | check P/Q",
		Short: "Show the symmetry orbit of one slope",
		Long:  "Show the symmetry orbit of one slope. Negative coefficients need a\npreceding --, e.g. dehnvol check -- -3 1.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePair(args)
			if err != nil {
				return err
			}
			env, err := setup(cmd, f)
			if err != nil {
				return err
			}
			defer env.close()

			opts := []dehnvol.CheckOption{dehnvol.WithinBound(f.checkBound)}
			if f.manifold != "" {
				m, ok := env.catalog.Lookup(f.manifold)
				if !ok {
					return fmt.Errorf("%w: %s", dehnvol.ErrUnknownManifold, f.manifold)
				}
				opts = append(opts, dehnvol.ForManifold(m))
			}
			if f.verify {
				opts = append(opts, dehnvol.WithVerification())
			}
			res, err := env.searcher.Check(cmd.Context(), p.P, p.Q, opts...)
			if err != nil {
				return err
			}
			return env.renderer.RenderChecks(cmd.OutOrStdout(), []*report.Check{res})
		},
	}
	cmd.Flags().StringVarP(&f.manifold, "manifold", "m", "", "manifold (default from configuration)")
	cmd.Flags().IntVar(&f.checkBound, "check-bound", 0, "coefficient bound of the orbit (default max(50, |p|, |q|))")
	cmd.Flags().BoolVar(&f.verify, "verify", false, "confirm each declared transform numerically")
	return cmd
}

func newVerifyCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify P Q | verify P/Q",
		Short: "Confirm every declared symmetry on one slope, for every manifold of the table",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePair(args)
			if err != nil {
				return err
			}
			env, err := setup(cmd, f)
			if err != nil {
				return err
			}
			defer env.close()

			results, err := env.searcher.Verify(cmd.Context(), p.P, p.Q, dehnvol.WithinBound(f.checkBound))
			if err != nil {
				return err
			}
			if err := env.renderer.RenderChecks(cmd.OutOrStdout(), results); err != nil {
				return err
			}
			for _, res := range results {
				if !res.Holds() {
					return errViolated
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&f.checkBound, "check-bound", 0, "coefficient bound of the orbits")
	return cmd
}

func newSymmetriesCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "symmetries",
		Short: "Load, validate and print the symmetry table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			if cfg.Symmetries == "" {
				return errors.New("no symmetry table given")
			}
			table, warnings, err := loadSymmetries(cmd.Context(), cfg.Symmetries)
			if err != nil {
				return err
			}
			for _, w := range warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}

			var out []byte
			switch f.outFormat {
			case "legacy":
				out = symmetry.EncodeLegacy(table)
			case "json":
				out, err = codec.GoJSON{}.MarshalIndent(symmetry.DocumentOf(table))
				out = append(out, '\n')
			default:
				out, err = codec.YAML{}.Marshal(symmetry.DocumentOf(table))
			}
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVar(&f.outFormat, "out", "yaml", "output format: yaml, json or legacy")
	return cmd
}

func parsePair(args []string) (slope.Pair, error) {
	return slope.Parse(strings.Join(args, ","))
}

// loadConfig reads the configuration file and applies the flags that were
// set on the command line.
func loadConfig(cmd *cobra.Command, f *flags) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return config.Config{}, err
		}
	}
	if cfg.Bound == 0 {
		cfg.Bound = 10
	}

	changed := cmd.Flags().Changed
	if changed("symmetries") {
		cfg.Symmetries = f.symmetries
	}
	if changed("volumes") {
		cfg.Volumes = f.volumes
	}
	if changed("engine") {
		cfg.Engine.Command = f.engine
	}
	if changed("engine-arg") {
		cfg.Engine.Args = f.engineArgs
	}
	if changed("metrics-file") {
		cfg.MetricsFile = f.metricsFile
	}
	if changed("format") {
		cfg.Format = f.format
	}
	if changed("verbose") {
		cfg.Verbose = f.verbose
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if changed("rel-tol") || changed("abs-tol") {
		cfg.Tolerance.Relative = f.relative
		cfg.Tolerance.Absolute = f.absolute
	}
	if changed("coverage") {
		cfg.Coverage = f.coverage
	}
	if changed("no-refine") {
		cfg.NoRefinement = f.noRefine
	}
	if changed("exclude") {
		cfg.Exclude = append(cfg.Exclude, f.exclude...)
	}
	if changed("workers") {
		cfg.Workers = f.workers
	}
	if changed("retries") {
		cfg.MaxRetries = &f.retries
	}
	if changed("solve-timeout") {
		cfg.SolveTimeout = f.solveTimeout
	}
	if changed("manifold-timeout") {
		cfg.ManifoldTimeout = f.manifoldTimeout
	}
	if changed("bound") {
		cfg.Bound = f.bound
	}
	if changed("max-unexplained") {
		cfg.MaxUnexplained = f.maxUnexplained
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
