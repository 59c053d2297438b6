// Package logger builds the *slog.Logger shared by the commands and services.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
)

const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatPretty = "pretty"
)

type config struct {
	level  slog.Level
	format string
	writer io.Writer
}

// Option configures a logger created with New.
type Option func(*config)

func WithLevel(level slog.Level) Option {
	return func(c *config) { c.level = level }
}

// WithFormat selects text, json or pretty (colorized, for terminals).
func WithFormat(format string) Option {
	return func(c *config) { c.format = format }
}

// WithWriter overrides the output writer. Defaults to os.Stderr.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.writer = w
		}
	}
}

func New(opts ...Option) *slog.Logger {
	c := &config{level: slog.LevelInfo, format: FormatText, writer: os.Stderr}
	for _, opt := range opts {
		opt(c)
	}

	switch c.format {
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(c.writer, &slog.HandlerOptions{Level: c.level}))
	case FormatPretty:
		return slog.New(charmlog.NewWithOptions(c.writer, charmlog.Options{
			Level:           charmlog.Level(c.level),
			ReportTimestamp: true,
			TimeFormat:      time.Kitchen,
		}))
	default:
		return slog.New(slog.NewTextHandler(c.writer, &slog.HandlerOptions{Level: c.level}))
	}
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel accepts debug, info, warn or error (case-insensitive).
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", s, err)
	}
	return level, nil
}
