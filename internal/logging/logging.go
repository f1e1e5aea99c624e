// Package logging builds the slog loggers shared by every subcommand.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var levels = map[string]slog.Level{
	"":        slog.LevelInfo,
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
	"err":     slog.LevelError,
}

// ParseLevel accepts the usual spellings of debug, info, warn and error,
// ignoring case, spaces, dashes and underscores.
func ParseLevel(s string) (slog.Level, error) {
	key := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	if l, ok := levels[key]; ok {
		return l, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
}

// Options controls logger formatting. Writer defaults to stderr.
type Options struct {
	Level     string
	AddSource bool
	JSON      bool
	Writer    io.Writer
	// DefaultSlog installs the logger with slog.SetDefault.
	DefaultSlog bool
	// Component, when set, is attached to every record as "component".
	Component string
}

// New returns the configured logger and its parsed level. Debug level turns
// on source locations.
func New(opt Options) (*slog.Logger, slog.Level, error) {
	level, err := ParseLevel(opt.Level)
	if err != nil {
		return nil, 0, err
	}
	w := opt.Writer
	if w == nil {
		w = os.Stderr
	}
	ho := &slog.HandlerOptions{Level: level, AddSource: opt.AddSource || level <= slog.LevelDebug}

	lg := slog.New(handler(w, opt.JSON, ho))
	if opt.Component != "" {
		lg = lg.With("component", opt.Component)
	}
	if opt.DefaultSlog {
		slog.SetDefault(lg)
	}
	return lg, level, nil
}

func handler(w io.Writer, json bool, ho *slog.HandlerOptions) slog.Handler {
	if json {
		return slog.NewJSONHandler(w, ho)
	}
	return slog.NewTextHandler(w, ho)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
