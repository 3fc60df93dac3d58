package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/hoppxi/ddclight/internal/manager"
)

// New builds the process logger from the log section of the config.
// Output goes to stderr so command output on stdout stays parseable.
func New(cfg manager.LogConfig, version string, debug bool) *slog.Logger {
	return newWithWriter(os.Stderr, cfg, version, debug)
}

func newWithWriter(w io.Writer, cfg manager.LogConfig, version string, debug bool) *slog.Logger {
	level := parseLevel(cfg.Level)
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: debug}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "ddclight"),
		slog.String("version", version),
	})
	return slog.New(handler)
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
