// Package log builds the process-wide slog logger. Every component logs
// through slog with a "component" key; this package only decides handler,
// format and level.
package log

import (
	"log/slog"
	"os"
)

// Config holds logger configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // text or json
}

// New creates a configured *slog.Logger and installs it as the slog
// default so package-level slog calls agree with the injected logger.
func New(config Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(config.Level)}

	var handler slog.Handler
	if config.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a level name to a slog.Level, defaulting to Info.
func ParseLevel(level string) slog.Level {
	switch level {
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
