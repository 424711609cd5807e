package llms

import "fmt"

// ProviderError represents a failed model API call.
type ProviderError struct {
	Provider  string // Provider name (gemini, openai)
	Operation string // Operation that failed
	Message   string
	Transient bool // True for rate limits and timeouts, after retries ran out
	Err       error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("[%s] %s: %s", e.Provider, e.Operation, e.Message)
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new ProviderError.
func NewProviderError(provider, operation, message string, transient bool, err error) *ProviderError {
	return &ProviderError{
		Provider:  provider,
		Operation: operation,
		Message:   message,
		Transient: transient,
		Err:       err,
	}
}

// MalformedOutputError means the model's output could not be decoded into the
// target schema even after every repair strategy. It is surfaced as a
// request-level error, never coerced into a partial answer.
type MalformedOutputError struct {
	Model string
	Raw   string // Raw model output, truncated for logging
	Err   error
}

// Error implements the error interface.
func (e *MalformedOutputError) Error() string {
	raw := e.Raw
	if len(raw) > 200 {
		raw = raw[:200] + "..."
	}
	return fmt.Sprintf("malformed structured output from %s: %v (raw: %q)", e.Model, e.Err, raw)
}

// Unwrap returns the underlying error.
func (e *MalformedOutputError) Unwrap() error {
	return e.Err
}
