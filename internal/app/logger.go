package app

import (
	"fmt"
	"io"
	"log/slog"
)

// newLogger builds the run-scoped logger from the already-validated CLI
// settings. The accepted levels and formats are exactly the ones the CLI
// offers; anything else is a configuration error, not a fallback. Empty
// values take the CLI defaults so a zero Config still logs sensibly.
func newLogger(levelStr, formatStr string, outW io.Writer) (*slog.Logger, error) {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "", "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", levelStr)
	}

	opts := &slog.HandlerOptions{Level: level}
	switch formatStr {
	case "text":
		return slog.New(slog.NewTextHandler(outW, opts)), nil
	case "", "json":
		return slog.New(slog.NewJSONHandler(outW, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", formatStr)
	}
}
