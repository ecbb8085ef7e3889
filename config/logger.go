package config

import (
	"io"
	"log/slog"
	"strings"
)

// levelSilent is above every standard level.
const levelSilent = slog.Level(100)

// LevelFromString converts a level name to a slog.Level, defaulting to info.
func LevelFromString(s string) slog.Level {
	switch strings.ToLower(s) {
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

// NewLogger builds the process logger. verbose forces debug; quiet drops everything.
func NewLogger(w io.Writer, cfg LoggingConfig, verbose, quiet bool) *slog.Logger {
	level := LevelFromString(cfg.Level)
	if verbose {
		level = slog.LevelDebug
	}
	if quiet {
		level = levelSilent
	}

	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}
