package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"siphon/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// New constructs a slog logger using the provided options. An empty format
// selects console output when stderr is a terminal and JSON otherwise.
func New(opts Options) (*slog.Logger, error) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	handler, err := newHandler(resolveFormat(opts.Format, out), out, parseLevel(opts.Level))
	if err != nil {
		return nil, err
	}
	return slog.New(handler), nil
}

// NewFromConfig creates a logger using application config defaults and binds
// a fresh run_id. The run_id is also returned so callers can surface it.
// Output goes to stderr in the configured format and is duplicated as JSON
// into a per-run file under run_logs; a failure to open the file falls back
// to stderr alone rather than blocking the run.
func NewFromConfig(cfg *config.Config) (*slog.Logger, string, error) {
	runID := uuid.NewString()[:8]
	if cfg == nil {
		logger, err := New(Options{})
		if err != nil {
			return nil, "", err
		}
		return logger.With(String(FieldRunID, runID)), runID, nil
	}

	level := parseLevel(cfg.Logging.Level)
	stderrHandler, err := newHandler(resolveFormat(cfg.Logging.Format, os.Stderr), os.Stderr, level)
	if err != nil {
		return nil, "", err
	}

	handler := stderrHandler
	if err := os.MkdirAll(cfg.RunLogsDir(), 0o755); err == nil {
		path := filepath.Join(cfg.RunLogsDir(), "run-"+runID+".jsonl")
		if file, openErr := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); openErr == nil {
			fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
			handler = teeHandler{stderrHandler, fileHandler}
		}
	}
	return slog.New(handler).With(String(FieldRunID, runID)), runID, nil
}

// teeHandler fans each record out to every underlying handler, so the
// terminal keeps its configured format while the run file stays JSONL.
type teeHandler []slog.Handler

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, h := range t {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make(teeHandler, len(t))
	for i, h := range t {
		next[i] = h.WithAttrs(attrs)
	}
	return next
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	next := make(teeHandler, len(t))
	for i, h := range t {
		next[i] = h.WithGroup(name)
	}
	return next
}

// resolveFormat applies the isatty default when no format is configured.
func resolveFormat(format string, out io.Writer) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "" {
		return format
	}
	if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return "console"
	}
	return "json"
}

func newHandler(format string, out io.Writer, level slog.Level) (slog.Handler, error) {
	handlerOpts := &slog.HandlerOptions{Level: level}
	switch format {
	case "json":
		return slog.NewJSONHandler(out, handlerOpts), nil
	case "console":
		return slog.NewTextHandler(out, handlerOpts), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", format)
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
