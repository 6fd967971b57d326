package mcp

import (
	"time"

	"github.com/google/uuid"

	"github.com/agentmesh/gatekit/errors"
)

// RequestMetadata carries per-request overrides and tracing context.
type RequestMetadata struct {
	// CorrelationID links this request to a larger workflow.
	CorrelationID string `json:"correlation_id,omitempty"`
	// Timeout overrides the service timeout for this request.
	Timeout time.Duration `json:"timeout,omitempty"`
	// Priority is an advisory scheduling hint. The client records it but
	// does not reorder requests.
	Priority int `json:"priority,omitempty"`
	// AgentID identifies the calling agent.
	AgentID string `json:"agent_id,omitempty"`
}

// Request is one operation invocation against a configured service.
type Request struct {
	// ID uniquely identifies the request. Filled with a UUID when empty.
	ID string `json:"id"`
	// Timestamp is when the request was created. Filled when zero.
	Timestamp time.Time `json:"timestamp"`
	// Service names the configured backend to call.
	Service string `json:"service"`
	// Operation names the backend operation.
	Operation string `json:"operation"`
	// Parameters is the operation payload.
	Parameters map[string]any `json:"parameters,omitempty"`
	// Metadata carries overrides and tracing context.
	Metadata RequestMetadata `json:"metadata,omitempty"`
}

// NewRequest builds a request with a fresh ID and timestamp.
func NewRequest(service, operation string, params map[string]any) *Request {
	return &Request{
		ID:         uuid.NewString(),
		Timestamp:  time.Now(),
		Service:    service,
		Operation:  operation,
		Parameters: params,
	}
}

// ResponseMetadata describes how a response was produced.
type ResponseMetadata struct {
	// RetryCount is the number of retries performed, not counting the
	// first attempt.
	RetryCount int `json:"retry_count"`
	// Duration is the total wall time including retries and backoff.
	Duration time.Duration `json:"duration"`
	// Service echoes the target service.
	Service string `json:"service"`
	// Operation echoes the target operation.
	Operation string `json:"operation"`
}

// Response is the outcome of one request. Exactly one of Data and Error is
// meaningful: Success true carries Data, Success false carries Error.
type Response struct {
	Success   bool             `json:"success"`
	Data      any              `json:"data,omitempty"`
	Error     *errors.AppError `json:"error,omitempty"`
	RequestID string           `json:"request_id"`
	Metadata  ResponseMetadata `json:"metadata"`
}

func successResponse(req *Request, data any, retries int, duration time.Duration) *Response {
	return &Response{
		Success:   true,
		Data:      data,
		RequestID: req.ID,
		Metadata: ResponseMetadata{
			RetryCount: retries,
			Duration:   duration,
			Service:    req.Service,
			Operation:  req.Operation,
		},
	}
}

func failureResponse(req *Request, appErr *errors.AppError, retries int, duration time.Duration) *Response {
	return &Response{
		Success:   false,
		Error:     appErr,
		RequestID: req.ID,
		Metadata: ResponseMetadata{
			RetryCount: retries,
			Duration:   duration,
			Service:    req.Service,
			Operation:  req.Operation,
		},
	}
}
