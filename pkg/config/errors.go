package config

import "fmt"

// ConfigError represents a fatal configuration problem: a missing credential,
// an unknown provider type, an unreadable file. Configuration errors are
// surfaced immediately at startup and never retried.
type ConfigError struct {
	Section string // Config section that failed (llm, vector, corpus, ...)
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config [%s]: %s", e.Section, e.Message)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(section, message string) *ConfigError {
	return &ConfigError{Section: section, Message: message}
}
