package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Invoker sends one operation call to a backend endpoint. Implementations
// must be safe for concurrent use; the client calls a single Invoker for
// every configured service.
type Invoker interface {
	Invoke(ctx context.Context, endpoint, operation string, headers map[string]string, params map[string]any) (any, error)
}

// TransportError is a failed backend exchange. Status is zero when the
// exchange never produced an HTTP response.
type TransportError struct {
	Message    string
	Status     int
	StatusText string
	Data       any
	Err        error
}

func (e *TransportError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %d %s", e.Message, e.Status, e.StatusText)
	}
	return e.Message
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPInvoker invokes operations as JSON POSTs against the service
// endpoint, one path segment per operation.
type HTTPInvoker struct {
	httpClient *http.Client
}

// NewHTTPInvoker builds an invoker on the given client. A nil client uses
// http.DefaultClient; per-attempt deadlines come from the request context.
func NewHTTPInvoker(httpClient *http.Client) *HTTPInvoker {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPInvoker{httpClient: httpClient}
}

func (h *HTTPInvoker) Invoke(ctx context.Context, endpoint, operation string, headers map[string]string, params map[string]any) (any, error) {
	httpReq, err := h.buildRequest(ctx, endpoint, operation, headers, params)
	if err != nil {
		return nil, &TransportError{Message: "failed to build request", Err: err}
	}

	resp, err := h.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Message: "failed to read response body", Err: err}
	}

	var data any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &data); err != nil {
			// Non-JSON bodies are passed through as raw text.
			data = string(body)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{
			Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Data:       data,
		}
	}

	return data, nil
}

func (h *HTTPInvoker) buildRequest(ctx context.Context, endpoint, operation string, headers map[string]string, params map[string]any) (*http.Request, error) {
	url := strings.TrimSuffix(endpoint, "/") + "/" + strings.TrimPrefix(operation, "/")

	var body io.Reader
	if params != nil {
		payload, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal parameters: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}
