package validation

import (
	"strings"
	"testing"

	"github.com/agentmesh/gatekit/errors"
)

type endpointConfig struct {
	Endpoint string `validate:"required,url"`
	Retries  int    `validate:"min=0"`
	Strategy string `validate:"omitempty,oneof=exponential linear fixed"`
}

func TestStructValidateValid(t *testing.T) {
	cfg := endpointConfig{Endpoint: "http://search.internal:8080", Retries: 3, Strategy: "linear"}
	if err := Validate(&cfg); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestStructValidateMissingRequired(t *testing.T) {
	cfg := endpointConfig{Retries: 1}
	err := Validate(&cfg)
	if err == nil {
		t.Fatal("expected error for missing endpoint")
	}
	if !strings.Contains(err.Error(), "endpoint: is required") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestStructValidateBadURL(t *testing.T) {
	cfg := endpointConfig{Endpoint: "not a url"}
	err := Validate(&cfg)
	if err == nil {
		t.Fatal("expected error for malformed endpoint")
	}
	if !strings.Contains(err.Error(), "must be a valid URL") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestStructValidateOneOf(t *testing.T) {
	cfg := endpointConfig{Endpoint: "http://s.local", Strategy: "random"}
	err := Validate(&cfg)
	if err == nil {
		t.Fatal("expected error for unknown strategy")
	}
	if !strings.Contains(err.Error(), "must be one of: exponential linear fixed") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestStructValidateCollectsAllFields(t *testing.T) {
	cfg := endpointConfig{Retries: -1}
	err := Validate(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("error = %T, want AppError", err)
	}
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok {
		t.Fatalf("details = %v", appErr.Details)
	}
	if len(fields) != 2 {
		t.Errorf("fields = %v, want endpoint and retries", fields)
	}
}

func TestValidatorRequired(t *testing.T) {
	v := New()
	v.Required("service", "search").Required("operation", "")

	if !v.HasErrors() {
		t.Fatal("expected a collected error")
	}
	appErr := v.Validate()
	if appErr == nil {
		t.Fatal("Validate() = nil with collected errors")
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("code = %s", appErr.Code)
	}
	if !strings.Contains(appErr.Message, "operation: is required") {
		t.Errorf("message = %q", appErr.Message)
	}
	if strings.Contains(appErr.Message, "service") {
		t.Errorf("message mentions the valid field: %q", appErr.Message)
	}
}

func TestValidatorBlankIsMissing(t *testing.T) {
	v := New()
	v.Required("operation", "   ")
	if !v.HasErrors() {
		t.Error("whitespace-only value should fail Required")
	}
}

func TestValidatorMaxLength(t *testing.T) {
	v := New()
	v.MaxLength("operation", strings.Repeat("q", 300), 255)
	appErr := v.Validate()
	if appErr == nil {
		t.Fatal("expected error for oversized value")
	}
	if !strings.Contains(appErr.Message, "must be 255 characters or less") {
		t.Errorf("message = %q", appErr.Message)
	}
}

func TestValidatorCleanPass(t *testing.T) {
	v := New()
	v.Required("service", "search").Required("operation", "query").MaxLength("operation", "query", 255)
	if v.HasErrors() {
		t.Errorf("unexpected errors: %v", v.Errors())
	}
	if err := v.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}
