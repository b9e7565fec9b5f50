// Package logger provides the structured logging the dump and restore
// commands emit around each pipeline run, grounded on the teacher's
// log/slog-based logger (internal/logger/logger.go) and kept as the
// ambient observability stack per SPEC_FULL.md even though tracing/metrics
// themselves are out of scope. Unlike the teacher, there's no standalone
// null-object type: NewNullLogger just wires the same logger around
// slog.DiscardHandler.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger is the logging surface cmd/* calls around table-level dump and
// restore operations.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Time(msg string, args ...any)

	// StartOperation begins a named, timed unit of work — one table's dump
	// or restore — whose Update/Complete/Fail calls carry the elapsed time
	// automatically.
	StartOperation(name string) OperationLogger
}

// OperationLogger reports progress and the final outcome of one
// StartOperation-scoped unit of work.
type OperationLogger interface {
	Update(msg string, args ...any)
	Complete(msg string, args ...any)
	Fail(msg string, args ...any)
}

type logger struct {
	slog *slog.Logger
}

type operationLogger struct {
	name      string
	startTime time.Time
	parent    *logger
}

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

func newHandler(format string, w io.Writer, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(format) == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// New builds a logger writing to stdout at level ("debug"/"info"/"warn"/
// "error", default "info") in format ("text" or "json").
func New(level, format string) Logger {
	return &logger{slog: slog.New(newHandler(format, os.Stdout, parseLevel(level)))}
}

// FileLogger builds a logger that tees every line to both stdout and
// filename, for runs the operator wants captured to a log file alongside
// the usual terminal output (LOG_FILE in main.go).
func FileLogger(level, format, filename string) (Logger, error) {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", filename, err)
	}
	w := io.MultiWriter(os.Stdout, file)
	return &logger{slog: slog.New(newHandler(format, w, parseLevel(level)))}, nil
}

// NewNullLogger returns a Logger that discards everything, for pipeline
// tests that need a Logger but don't care what it says. It's the same
// slog-backed logger as New, just pointed at slog.DiscardHandler so every
// record is dropped before it's ever formatted — no separate no-op type
// for StartOperation to juggle.
func NewNullLogger() Logger {
	return &logger{slog: slog.New(slog.DiscardHandler)}
}

func (l *logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// Time logs a one-off timing note outside of a StartOperation scope (e.g.
// total wall-clock for a multi-table batch).
func (l *logger) Time(msg string, args ...any) {
	l.slog.Info(msg, append(args, "kind", "timing")...)
}

func (l *logger) StartOperation(name string) OperationLogger {
	return &operationLogger{name: name, startTime: time.Now(), parent: l}
}

func (ol *operationLogger) Update(msg string, args ...any) {
	ol.parent.Info(fmt.Sprintf("[%s] %s", ol.name, msg),
		append(args, "elapsed", formatDuration(time.Since(ol.startTime)))...)
}

func (ol *operationLogger) Complete(msg string, args ...any) {
	ol.parent.Info(fmt.Sprintf("[%s] done: %s", ol.name, msg),
		append(args, "duration", formatDuration(time.Since(ol.startTime)))...)
}

func (ol *operationLogger) Fail(msg string, args ...any) {
	ol.parent.Error(fmt.Sprintf("[%s] failed: %s", ol.name, msg),
		append(args, "duration", formatDuration(time.Since(ol.startTime)))...)
}

// formatDuration renders d the way operation log lines report elapsed time.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh %dm %ds", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
	}
}
