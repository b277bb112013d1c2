// Package logging configures zerolog for pagegen binaries and hands out
// component loggers to the library packages.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output instead of JSON.
	Pretty bool

	// Output is the writer logs go to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns JSON logging at info level on stderr.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(string(cfg.Level)))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// ParseLevel converts a level name to a zerolog.Level. Unknown names fall
// back to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger derives a logger for the named component from the global logger.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: per-attempt detail
//   - Backend attempts and extraction misses
//   - Variety selections and history resets
//   - Admission decisions that allowed a unit
//
// Info: normal progress
//   - Unit completed (success or in-band failure)
//   - Batch started and finished with totals
//   - History loaded or saved
//
// Warn: degraded but continuing
//   - Retry scheduled
//   - Unit skipped by quota
//   - Circuit breaker tripped
//   - Persistence failures (run continues without them)
//
// Error: needs attention
//   - Retries exhausted with a backend error
//   - Recovered panic inside a unit task
//   - Configuration errors
//
// Context Fields:
//   - run_id: batch run identifier
//   - sequence: unit sequence number
//   - category: unit category as given
//   - attempt: zero-based backend attempt
//   - backoff: delay before the next attempt
//   - reason: skip or failure reason
//   - duration: elapsed time
