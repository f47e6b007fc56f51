// Package logging provides structured logging configuration using log/slog.
//
// A run logs to two sinks: the console at the configured level, and an
// optional log file that always records debug output. Loggers obtained
// through FromContext carry the run id and, for monitor requests, chi's
// request id.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// Options selects the sinks and their formats.
type Options struct {
	Level  string    // console level: "debug", "info", "warn", "error" (default: "info")
	Format string    // console format: "text" or "json" (default: "text")
	Output io.Writer // console destination (default: os.Stdout)

	File       string // log file path; empty disables the file sink
	FileFormat string // "text" or "json" (default: "json")
}

// Setup installs the default slog logger described by opts. The returned
// closer releases the log file and must be called before exit.
func Setup(opts Options) (io.Closer, error) {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	handlers := []slog.Handler{
		newHandler(out, opts.Format, "text", parseLevel(opts.Level)),
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		handlers = append(handlers, newHandler(f, opts.FileFormat, "json", slog.LevelDebug))
		closer = f
	}

	slog.SetDefault(slog.New(Fanout(handlers...)))
	return closer, nil
}

func newHandler(w io.Writer, format, fallback string, level slog.Level) slog.Handler {
	ho := &slog.HandlerOptions{Level: level}
	if format == "" {
		format = fallback
	}
	if strings.ToLower(format) == "json" {
		return slog.NewJSONHandler(w, ho)
	}
	return slog.NewTextHandler(w, ho)
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type runIDKey struct{}

// WithRunID returns a context whose loggers carry run_id.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the run id stored by WithRunID, or "".
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// FromContext returns a logger enriched with request context.
//
// When ctx carries a chi RequestID or a run id, the returned logger includes
// request_id or run_id in all log entries.
//
// Usage:
//
//	logger := logging.FromContext(ctx)
//	logger.Info("layer printed", "layer", n)
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if runID := RunID(ctx); runID != "" {
		logger = logger.With("run_id", runID)
	}

	// Chi's RequestID middleware stores the ID in context
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}

	return logger
}

// WithFields returns a logger with additional structured fields.
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
