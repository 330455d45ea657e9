package main

import (
	"errors"
	"log/slog"

	"github.com/hupe1980/dehnvol"
	"github.com/hupe1980/dehnvol/config"
	"github.com/hupe1980/dehnvol/model"
	"github.com/hupe1980/dehnvol/oracle"
	"github.com/hupe1980/dehnvol/oracle/exec"
	"github.com/hupe1980/dehnvol/report"
	"github.com/hupe1980/dehnvol/telemetry"
	"github.com/spf13/cobra"
)

// env is everything a command needs to run searches.
type env struct {
	cfg      config.Config
	searcher *dehnvol.Searcher
	catalog  dehnvol.Catalog
	renderer report.Renderer
	logger   *dehnvol.Logger

	metrics     *telemetry.Collector
	metricsFile string
}

func setup(cmd *cobra.Command, f *flags) (*env, error) {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()

	e := &env{cfg: cfg, metricsFile: cfg.MetricsFile}
	e.logger = newLogger(cmd, cfg.Log)

	var o oracle.Oracle
	switch {
	case cfg.Volumes != "":
		table, err := loadVolumes(ctx, cfg.Volumes)
		if err != nil {
			return nil, err
		}
		o = table
		e.catalog = dehnvol.CatalogFunc(func(name string) (model.Manifold, bool) {
			return model.Named(name), table.Has(name)
		})
	case cfg.Engine.Command != "":
		o = exec.New(cfg.Engine.Command, cfg.Engine.Args...)
		e.catalog = dehnvol.CatalogFunc(func(name string) (model.Manifold, bool) {
			return model.Named(name), name != ""
		})
	default:
		return nil, errors.New("no volume source: set --engine or --volumes")
	}

	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	opts = append(opts, dehnvol.WithLogger(e.logger), dehnvol.WithCatalog(e.catalog))

	if cfg.Symmetries != "" {
		table, warnings, err := loadSymmetries(ctx, cfg.Symmetries)
		if err != nil {
			return nil, err
		}
		for _, w := range warnings {
			e.logger.Warn("symmetry table", "warning", w.String())
		}
		opts = append(opts, dehnvol.WithSymmetries(table))
	}

	if cfg.MetricsFile != "" {
		e.metrics = telemetry.New("")
		opts = append(opts, dehnvol.WithMetricsCollector(e.metrics))
	}

	if cfg.Format == "json" {
		e.renderer = report.JSON{Indent: true}
	} else {
		e.renderer = report.Text{Verbose: cfg.Verbose}
	}

	if e.searcher, err = dehnvol.New(o, opts...); err != nil {
		return nil, err
	}
	return e, nil
}

// close releases the searcher and flushes metrics.
func (e *env) close() {
	if err := e.searcher.Close(); err != nil {
		e.logger.Warn("close searcher", "error", err)
	}
	if e.metrics != nil {
		if err := e.metrics.WriteTextfile(e.metricsFile); err != nil {
			e.logger.Error("write metrics", "path", e.metricsFile, "error", err)
		}
	}
}

func newLogger(cmd *cobra.Command, c config.Log) *dehnvol.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelWarn
	}
	hopts := &slog.HandlerOptions{Level: level}
	w := cmd.ErrOrStderr()
	if c.Format == "json" {
		return dehnvol.NewLogger(slog.NewJSONHandler(w, hopts))
	}
	return dehnvol.NewLogger(slog.NewTextHandler(w, hopts))
}
