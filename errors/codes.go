package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Gateway errors. Every failure surfaced to a caller of the gateway client
// carries ErrCodeMCP; the transport codes classify the underlying cause and
// appear in the detail bag of a normalized transport failure.
const (
	// ErrCodeMCP is the uniform code for all gateway-client failures.
	ErrCodeMCP ErrorCode = "MCP_ERROR"
	// ErrCodeTimeout classifies an attempt that exceeded the service timeout.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeConnectionFailed classifies an exchange that never produced a
	// response.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
)

// Configuration and validation errors.
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Internal errors.
const (
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// retryableCodes lists codes whose operations may be retried by the caller.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeTimeout:          true,
	ErrCodeConnectionFailed: true,
}

// IsRetryableCode reports whether operations failing with the given code
// may be retried.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
