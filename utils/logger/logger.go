// ABOUTME: Builds the service slog logger: JSON to stdout, lowercase levels, service attribute
// ABOUTME: Optionally fans out to the OpenTelemetry log bridge
package logger

import (
	"io"
	"log/slog"
	"strings"
)

// Config selects the level, service name and OTel export of the logger.
type Config struct {
	Level       string
	ServiceName string
	Version     string
	EnableOTel  bool
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
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

// New returns a JSON logger writing to output.
func New(output io.Writer, cfg Config) *slog.Logger {
	level := ParseLevel(cfg.Level)

	options := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok {
					return slog.String(slog.LevelKey, strings.ToLower(lvl.String()))
				}
			}
			return a
		},
	}

	var handler slog.Handler = NewContextHandler(slog.NewJSONHandler(output, options))
	if cfg.EnableOTel {
		handler = NewMultiHandler(cfg.ServiceName, handler)
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	return slog.New(handler).With("service", cfg.ServiceName, "version", version)
}
