// Package logging wires the process logger: a colorized console handler,
// an optional JSON file, and an optional telemetry mirror for errors.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/phsym/console-slog"
	slogmulti "github.com/samber/slog-multi"

	"github.com/soundprediction/engram/pkg/telemetry"
)

// Config selects the log destinations.
type Config struct {
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level string `mapstructure:"level"`

	// File appends JSON records to the named file when set.
	File string `mapstructure:"file"`

	// TelemetryDir mirrors error records into Parquet files when set.
	TelemetryDir string `mapstructure:"telemetry_dir"`

	// AddSource includes file:line on console records.
	AddSource bool `mapstructure:"add_source"`
}

// Setup builds the logger described by cfg. The returned cleanup flushes
// telemetry and closes the log file; call it on shutdown.
func Setup(cfg Config) (*slog.Logger, func()) {
	level := ParseLevel(cfg.Level)

	handlers := []slog.Handler{
		console.NewHandler(os.Stderr, &console.HandlerOptions{
			Level:     level,
			AddSource: cfg.AddSource,
		}),
	}
	var cleanups []func()

	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file unavailable, console only: %v\n", err)
		} else {
			handlers = append(handlers, slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}))
			cleanups = append(cleanups, func() { file.Close() })
		}
	}

	var handler slog.Handler
	if len(handlers) == 1 {
		handler = handlers[0]
	} else {
		handler = slogmulti.Fanout(handlers...)
	}

	if cfg.TelemetryDir != "" {
		wrapped, err := telemetry.NewParquetHandler(handler, cfg.TelemetryDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "telemetry unavailable: %v\n", err)
		} else {
			handler = wrapped
			cleanups = append(cleanups, func() {
				if err := wrapped.Flush(); err != nil {
					fmt.Fprintf(os.Stderr, "telemetry flush failed: %v\n", err)
				}
			})
		}
	}

	cleanup := func() {
		// Telemetry flush registered last runs first, before the file
		// handle underneath it closes.
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	return slog.New(handler), cleanup
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
