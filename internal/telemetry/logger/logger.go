package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options controls how New builds a logger.
type Options struct {
	// Level is one of debug, info, warn (warning) or error. Empty means info.
	Level string
	// Format is json or text (console). Empty means json.
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
	// AddSource includes the caller's file and line.
	AddSource bool
}

var level = new(slog.LevelVar)

// New builds a logger and sets the shared level from o.Level.
func New(o Options) (*slog.Logger, error) {
	lvl, err := ParseLevel(o.Level)
	if err != nil {
		return nil, err
	}

	out := o.Output
	if out == nil {
		out = os.Stderr
	}
	ho := &slog.HandlerOptions{Level: level, AddSource: o.AddSource}

	var inner slog.Handler
	switch strings.ToLower(o.Format) {
	case "", "json":
		inner = slog.NewJSONHandler(out, ho)
	case "text", "console":
		inner = slog.NewTextHandler(out, ho)
	default:
		return nil, fmt.Errorf("unknown log format %q", o.Format)
	}

	level.Set(lvl)
	return slog.New(&redactHandler{inner: inner}), nil
}

// ParseLevel maps a level name to its slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// SetLevel changes the level of every logger built by New.
func SetLevel(s string) error {
	lvl, err := ParseLevel(s)
	if err != nil {
		return err
	}
	level.Set(lvl)
	return nil
}

// Level returns the shared level name.
func Level() string {
	switch l := level.Level(); {
	case l <= slog.LevelDebug:
		return "debug"
	case l <= slog.LevelInfo:
		return "info"
	case l <= slog.LevelWarn:
		return "warn"
	default:
		return "error"
	}
}

// SetDefault installs l as slog's default logger, so package-level
// slog calls and components built without an explicit logger share
// its handler.
func SetDefault(l *slog.Logger) {
	if l != nil {
		slog.SetDefault(l)
	}
}
