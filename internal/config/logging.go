package config

import (
	"log/slog"
	"os"
)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

func NormalizeLogLevel(raw string) LogLevel {
	switch raw {
	case string(LogLevelDebug), string(LogLevelWarn), string(LogLevelError):
		return LogLevel(raw)
	default:
		return LogLevelInfo
	}
}

func NormalizeLogFormat(raw string) LogFormat {
	if raw == string(LogFormatJSON) {
		return LogFormatJSON
	}
	return LogFormatText
}

// SetupLogging installs the process-wide slog default according to cfg.
// Verbose forces debug level regardless of the configured level.
func SetupLogging(cfg LoggingConfig, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	switch NormalizeLogLevel(cfg.Level) {
	case LogLevelDebug:
		level = slog.LevelDebug
	case LogLevelWarn:
		level = slog.LevelWarn
	case LogLevelError:
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if NormalizeLogFormat(cfg.Format) == LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
