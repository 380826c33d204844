package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrorType represents the category of error
type ErrorType int

const (
	// Input errors - bad repository reference, invalid or inverted window
	ErrorTypeInput ErrorType = iota
	// RateLimited errors - upstream throttling outlasted the retry budget
	ErrorTypeRateLimited
	// Upstream errors - non-2xx, non-throttling upstream responses
	ErrorTypeUpstream
	// Validation errors - collected data violates the evidence contract
	ErrorTypeValidation
	// LLM errors - narrative model unavailable or unusable; always recovered locally
	ErrorTypeLLM
	// Configuration errors - missing or invalid configuration
	ErrorTypeConfig
	// Internal errors - unexpected internal state
	ErrorTypeInternal
)

// Severity represents how critical an error is
type Severity int

const (
	// SeverityLow - can continue with degraded functionality
	SeverityLow Severity = iota
	// SeverityMedium - should be addressed but not fatal
	SeverityMedium
	// SeverityHigh - the request cannot be served
	SeverityHigh
	// SeverityCritical - must be addressed, stops execution
	SeverityCritical
)

// Error represents a structured error with context
type Error struct {
	Type       ErrorType
	Severity   Severity
	Message    string
	Cause      error
	StatusCode int // upstream HTTP status, 0 when not applicable
	Context    map[string]interface{}
	StackTrace string
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Is checks if this error matches the target error type
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// DetailedString returns a detailed error message with context
func (e *Error) DetailedString() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] [%s] %s\n",
		severityString(e.Severity),
		e.Type.String(),
		e.Message))

	if e.StatusCode != 0 {
		sb.WriteString(fmt.Sprintf("Status: %d\n", e.StatusCode))
	}

	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf("Caused by: %v\n", e.Cause))
	}

	if len(e.Context) > 0 {
		sb.WriteString("Context:\n")
		for k, v := range e.Context {
			sb.WriteString(fmt.Sprintf("  %s: %v\n", k, v))
		}
	}

	if e.StackTrace != "" {
		sb.WriteString(fmt.Sprintf("Stack trace:\n%s\n", e.StackTrace))
	}

	return sb.String()
}

// String returns the upper-case name of the error type
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeInput:
		return "INPUT"
	case ErrorTypeRateLimited:
		return "UPSTREAM_RATE_LIMITED"
	case ErrorTypeUpstream:
		return "UPSTREAM"
	case ErrorTypeValidation:
		return "VALIDATION"
	case ErrorTypeLLM:
		return "LLM"
	case ErrorTypeConfig:
		return "CONFIG"
	case ErrorTypeInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

func severityString(s Severity) string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// captureStackTrace captures the current stack trace
func captureStackTrace(skip int) string {
	var sb strings.Builder
	for i := skip; i < skip+10; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			break
		}
		sb.WriteString(fmt.Sprintf("  %s:%d %s\n", file, line, fn.Name()))
	}
	return sb.String()
}

// New creates a new error with the given type, severity, and message
func New(errType ErrorType, severity Severity, message string) *Error {
	return &Error{
		Type:       errType,
		Severity:   severity,
		Message:    message,
		StackTrace: captureStackTrace(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, severity Severity, message string) *Error {
	if err == nil {
		return nil
	}

	return &Error{
		Type:       errType,
		Severity:   severity,
		Message:    message,
		Cause:      err,
		StackTrace: captureStackTrace(2),
	}
}

// Convenience constructors for the taxonomy

// InputError creates an input error
func InputError(message string) *Error {
	return New(ErrorTypeInput, SeverityHigh, message)
}

// InputErrorf creates an input error with formatting
func InputErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeInput, SeverityHigh, fmt.Sprintf(format, args...))
}

// RateLimitedError reports an exhausted throttling retry budget
func RateLimitedError(status, attempts int) *Error {
	e := New(ErrorTypeRateLimited, SeverityHigh,
		fmt.Sprintf("upstream rate limit reached after %d retries", attempts))
	e.StatusCode = status
	return e
}

// UpstreamError reports a non-throttling, non-2xx upstream response
func UpstreamError(status int, body string) *Error {
	e := New(ErrorTypeUpstream, SeverityHigh,
		fmt.Sprintf("upstream request failed (%d): %s", status, body))
	e.StatusCode = status
	return e
}

// UpstreamErrorWrap wraps a transport-level upstream failure that has no status
func UpstreamErrorWrap(err error, message string) *Error {
	return Wrap(err, ErrorTypeUpstream, SeverityHigh, message)
}

// ValidationError creates a validation error
func ValidationError(message string) *Error {
	return New(ErrorTypeValidation, SeverityHigh, message)
}

// ValidationErrorf creates a validation error with formatting
func ValidationErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeValidation, SeverityHigh, fmt.Sprintf(format, args...))
}

// LLMError wraps a narrative model failure
func LLMError(err error, message string) *Error {
	if err == nil {
		return New(ErrorTypeLLM, SeverityLow, message)
	}
	return Wrap(err, ErrorTypeLLM, SeverityLow, message)
}

// ConfigError creates a configuration error
func ConfigError(message string) *Error {
	return New(ErrorTypeConfig, SeverityCritical, message)
}

// ConfigErrorf creates a configuration error with formatting
func ConfigErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeConfig, SeverityCritical, fmt.Sprintf(format, args...))
}

// InternalErrorf creates an internal error with formatting
func InternalErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeInternal, SeverityCritical, fmt.Sprintf(format, args...))
}

// As returns the first *Error in err's chain
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsType reports whether any error in err's chain has the given type
func IsType(err error, t ErrorType) bool {
	return stderrors.Is(err, &Error{Type: t})
}

// GetType returns the type of an error
func GetType(err error) ErrorType {
	if e, ok := As(err); ok {
		return e.Type
	}
	return ErrorTypeInternal
}
