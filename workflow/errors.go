package workflow

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unified error code across the engines.
type ErrorCode string

const (
	// ErrCodeConfiguration marks programmer errors caught before a run starts:
	// duplicate node names, missing entry points, unresolved dependencies.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION"
	// ErrCodeCycle marks a dependency cycle detected before a DAG run starts.
	ErrCodeCycle ErrorCode = "GRAPH_CYCLE"
)

// Error represents a structured pre-run error with code and message.
// Step and compensation failures are never surfaced through this type; they
// are recorded on result/state objects instead.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewConfigurationError creates a configuration error.
func NewConfigurationError(format string, args ...any) *Error {
	return &Error{Code: ErrCodeConfiguration, Message: fmt.Sprintf(format, args...)}
}

// IsConfigurationError reports whether err carries ErrCodeConfiguration.
func IsConfigurationError(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Code == ErrCodeConfiguration
	}
	return false
}

// CycleError reports a dependency cycle found during pre-run validation.
// Path holds the node names along the cycle, first node repeated last.
type CycleError struct {
	Path []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("[%s] dependency cycle detected: %s", ErrCodeCycle, strings.Join(e.Path, " -> "))
}
