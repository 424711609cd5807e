package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// LoggerConfig configures logging behavior. Defaults to info-level text
// logs on stderr.
type LoggerConfig struct {
	// Level specifies the log level (debug, info, warn, error).
	// Default: info
	Level string `yaml:"level,omitempty"`

	// File specifies the log file path.
	// If empty, logs go to stderr.
	File string `yaml:"file,omitempty"`

	// Format specifies the log format: "text" or "json".
	// Default: text
	Format string `yaml:"format,omitempty"`
}

// SetDefaults applies default values to LoggerConfig.
func (c *LoggerConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "text"
	}
}

// Validate checks the logger configuration.
func (c *LoggerConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return NewConfigError("logger", fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", c.Level))
	}
	switch c.Format {
	case "", "text", "json":
	default:
		return NewConfigError("logger", fmt.Sprintf("invalid log format %q (valid: text, json)", c.Format))
	}
	return nil
}

// SetupLogger installs a slog default logger according to the config.
// Returns a closer for the log file, which is a no-op when logging to stderr.
func (c *LoggerConfig) SetupLogger() (func() error, error) {
	var out io.Writer = os.Stderr
	closer := func() error { return nil }

	if c.File != "" {
		f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, NewConfigError("logger", fmt.Sprintf("failed to open log file %s: %v", c.File, err))
		}
		out = f
		closer = f.Close
	}

	var level slog.Level
	switch c.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if c.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	slog.SetDefault(slog.New(handler))
	return closer, nil
}
