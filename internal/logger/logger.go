// Package logger provides the slog-based logging facade used throughout
// nfsbench. It wraps a single global *slog.Logger behind Debug/Info/Warn/Error
// helpers so call sites never need to import log/slog directly, and supports
// a colorized text handler for interactive terminals plus a plain JSON
// handler for piped/CI output.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

// Format selects the on-disk/terminal representation of log records.
type Format string

const (
	// FormatText renders one colorized line per record, suitable for a TTY.
	FormatText Format = "text"
	// FormatJSON renders structured JSON lines, suitable for log collectors.
	FormatJSON Format = "json"
)

// Config controls how Init constructs the global logger.
type Config struct {
	// Level is the minimum level that will be emitted: "debug", "info",
	// "warn", or "error". Defaults to "info" when empty.
	Level string
	// Format selects the handler. Defaults to FormatText when empty.
	Format Format
	// Output is the destination writer. Defaults to os.Stderr when nil.
	Output io.Writer
	// Color: ColorAlways forces and ColorNever disables color regardless of
	// whether Output is a terminal. ColorAuto leaves the decision to isTerminal.
	Color ColorMode
}

// ColorMode controls whether the text handler emits ANSI color codes.
type ColorMode int

const (
	// ColorAuto enables color only when Output is attached to a terminal.
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

var (
	current   atomic.Pointer[slog.Logger]
	curLevel  atomic.Int32
	curFormat atomic.Value // Format
)

func init() {
	l := slog.New(newColorTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}, isTerminal(os.Stderr.Fd())))
	current.Store(l)
	curLevel.Store(int32(slog.LevelInfo))
	curFormat.Store(FormatText)
}

// Init (re)configures the global logger per cfg. It is safe to call again
// later (e.g. after flags/config are parsed) to raise or lower verbosity.
func Init(cfg Config) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	level := parseLevel(cfg.Level)
	format := cfg.Format
	if format == "" {
		format = FormatText
	}

	useColor := false
	if f, ok := out.(interface{ Fd() uintptr }); ok {
		useColor = isTerminal(f.Fd())
	}
	switch cfg.Color {
	case ColorAlways:
		useColor = true
	case ColorNever:
		useColor = false
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = newColorTextHandler(out, opts, useColor)
	}

	current.Store(slog.New(handler))
	curLevel.Store(int32(level))
	curFormat.Store(format)
}

func parseLevel(s string) slog.Level {
	switch s {
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

// SetLevel adjusts the minimum emitted level at runtime by re-running Init
// with the current format; output and color revert to their defaults.
func SetLevel(level string) {
	Init(Config{Level: level, Format: curFormat.Load().(Format)})
}

// L returns the current global logger, for call sites that want the raw
// *slog.Logger (e.g. to pass into a third-party constructor expecting one).
func L() *slog.Logger {
	return current.Load()
}

func Debug(msg string, args ...any) { current.Load().Debug(msg, args...) }
func Info(msg string, args ...any)  { current.Load().Info(msg, args...) }
func Warn(msg string, args ...any)  { current.Load().Warn(msg, args...) }
func Error(msg string, args ...any) { current.Load().Error(msg, args...) }

func DebugCtx(ctx context.Context, msg string, args ...any) {
	current.Load().DebugContext(ctx, msg, args...)
}
func InfoCtx(ctx context.Context, msg string, args ...any) {
	current.Load().InfoContext(ctx, msg, args...)
}
func WarnCtx(ctx context.Context, msg string, args ...any) {
	current.Load().WarnContext(ctx, msg, args...)
}
func ErrorCtx(ctx context.Context, msg string, args ...any) {
	current.Load().ErrorContext(ctx, msg, args...)
}

// With returns a logger scoped with the given key/value attrs, for call
// sites that want to carry a fixed set of fields (e.g. receiver id) across
// several log lines without repeating them.
func With(args ...any) *slog.Logger {
	return current.Load().With(args...)
}
