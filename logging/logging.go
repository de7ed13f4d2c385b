// Package logging builds the zerolog loggers used by the library and the riskreport command.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	Color   bool   `mapstructure:"color"`
	// FilePath enables a rotating JSON log file when set.
	FilePath string `mapstructure:"file"`
	// MaxSize is in megabytes, MaxAge in days.
	MaxSize    int `mapstructure:"max_size"`
	MaxBackups int `mapstructure:"max_backups"`
	MaxAge     int `mapstructure:"max_age"`
}

// DefaultLogConfig returns the default logging configuration: info level on the console only.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:      "info",
		Console:    true,
		Color:      true,
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     30,
	}
}

// New creates a logger writing human-readable lines to console (when enabled)
// and JSON lines to a rotating file (when FilePath is set).
// A nil console defaults to os.Stderr so report output on stdout stays clean.
func New(cfg LogConfig, console io.Writer) zerolog.Logger {
	if console == nil {
		console = os.Stderr
	}

	var writers []io.Writer
	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:         console,
			NoColor:     !cfg.Color,
			TimeFormat:  time.RFC3339,
			FormatLevel: formatLevel(cfg.Color),
		})
	}

	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err == nil {
			writers = append(writers, &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			})
		}
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		return zerolog.Nop()
	case 1:
		writer = writers[0]
	default:
		writer = zerolog.MultiLevelWriter(writers...)
	}

	return zerolog.New(writer).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

func formatLevel(color bool) zerolog.Formatter {
	return func(i interface{}) string {
		ll, ok := i.(string)
		if !ok {
			return "???"
		}
		if !color {
			return strings.ToUpper(ll[:min(3, len(ll))])
		}
		switch ll {
		case "debug":
			return "\033[36mDBG\033[0m"
		case "info":
			return "\033[32mINF\033[0m"
		case "warn":
			return "\033[33mWRN\033[0m"
		case "error":
			return "\033[31mERR\033[0m"
		default:
			return ll
		}
	}
}

// ParseLevel maps debug/info/warn/error (any case) to a zerolog level; anything else is info.
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

// WithSecurity adds a security identifier to the logger context.
func WithSecurity(logger zerolog.Logger, securityID string) zerolog.Logger {
	return logger.With().Str("security_id", securityID).Logger()
}

// WithRun adds a report run identifier to the logger context.
func WithRun(logger zerolog.Logger, runID string) zerolog.Logger {
	return logger.With().Str("run_id", runID).Logger()
}

// WithOperation adds an operation name to the logger context.
func WithOperation(logger zerolog.Logger, operation string) zerolog.Logger {
	return logger.With().Str("operation", operation).Logger()
}
