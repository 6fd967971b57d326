// Package errors provides unified error handling for the gateway client.
// It implements structured error types with machine-readable codes,
// retryable detection, and detail bags carried through to callers.
package errors

import (
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Gateway Error Constructors ---
//
// Errors returned to gateway callers all carry ErrCodeMCP; the message text
// is part of the client contract and asserted by downstream consumers.

// ServiceNotConfigured creates an error for a request naming an unknown service.
func ServiceNotConfigured(service string) *AppError {
	return &AppError{
		Code: ErrCodeMCP, Message: fmt.Sprintf("Service %s not configured", service),
		Retryable: false,
		Details:   map[string]any{"service": service},
	}
}

// CircuitOpen creates an error for a call refused by an open circuit breaker.
func CircuitOpen(service string) *AppError {
	return &AppError{
		Code: ErrCodeMCP, Message: fmt.Sprintf("Circuit breaker open for service %s", service),
		Retryable: true,
		Details:   map[string]any{"service": service},
	}
}

// RateLimited creates an error for a call refused by the token bucket.
func RateLimited(service string) *AppError {
	return &AppError{
		Code: ErrCodeMCP, Message: fmt.Sprintf("Rate limit exceeded for service %s", service),
		Retryable: true,
		Details:   map[string]any{"service": service},
	}
}

// UnsupportedAuthType creates an error for an unknown auth kind.
func UnsupportedAuthType(kind string) *AppError {
	return &AppError{
		Code: ErrCodeMCP, Message: fmt.Sprintf("Unsupported auth type: %s", kind),
		Retryable: false,
		Details:   map[string]any{"auth_type": kind},
	}
}

// TransportFailure wraps a terminal transport error. HTTP-like diagnostic
// metadata goes into the detail bag when the transport exposes it.
func TransportFailure(message string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeMCP, Message: message,
		Retryable: true,
		Cause:     cause,
	}
}

// --- Supporting Constructors ---

// InvalidInput creates an error for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		Retryable: false, Details: details,
	}
}

// Validation creates an error for validation failures.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		Retryable: false,
	}
}

// MissingField creates an error for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		Retryable: false,
		Details:   map[string]any{"field": field},
	}
}

// Internal creates an error for an unexpected internal failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred",
		Retryable: false, Cause: cause,
	}
}
