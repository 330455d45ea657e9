package dehnvol

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/dehnvol/oracle"
)

// Logger wraps slog.Logger with search-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))
}

// WithRunID adds the run identifier to the logger.
func (l *Logger) WithRunID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run_id", id),
	}
}

// WithManifold adds a manifold field to the logger.
func (l *Logger) WithManifold(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("manifold", name),
	}
}

// LogSolve logs one volume solve attempt.
func (l *Logger) LogSolve(ctx context.Context, req oracle.Request, d time.Duration, err error) {
	switch {
	case err == nil:
		l.DebugContext(ctx, "solve completed",
			"manifold", req.Manifold.Name,
			"pair", req.Pair,
			"bits", req.Precision,
			"duration", d,
		)
	case oracle.IsNonHyperbolic(err):
		l.DebugContext(ctx, "filling not hyperbolic",
			"manifold", req.Manifold.Name,
			"pair", req.Pair,
		)
	default:
		l.WarnContext(ctx, "solve failed",
			"manifold", req.Manifold.Name,
			"pair", req.Pair,
			"bits", req.Precision,
			"attempt", req.Attempt,
			"error", err,
		)
	}
}

// LogRefinement logs one precision stage over the coincidence candidates.
func (l *Logger) LogRefinement(ctx context.Context, bits uint, candidates, survivors int) {
	l.DebugContext(ctx, "refinement stage completed",
		"bits", bits,
		"candidates", candidates,
		"survivors", survivors,
	)
}

// LogManifold logs the end of one manifold's pipeline.
func (l *Logger) LogManifold(ctx context.Context, admissible, unexplained int, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "manifold aborted",
			"admissible", admissible,
			"duration", d,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "manifold completed",
		"admissible", admissible,
		"unexplained", unexplained,
		"duration", d,
	)
}

// LogBatch logs the end of a search.
func (l *Logger) LogBatch(ctx context.Context, manifolds, failed, unexplained int, d time.Duration) {
	if failed > 0 {
		l.WarnContext(ctx, "search completed with failures",
			"manifolds", manifolds,
			"failed", failed,
			"unexplained", unexplained,
			"duration", d,
		)
		return
	}
	l.InfoContext(ctx, "search completed",
		"manifolds", manifolds,
		"unexplained", unexplained,
		"duration", d,
	)
}
