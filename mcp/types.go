package mcp

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentmesh/gatekit/auth"
	"github.com/agentmesh/gatekit/resilience"
	"github.com/agentmesh/gatekit/validation"
)

const (
	defaultTimeout          = 30 * time.Second
	defaultFailureThreshold = 5
	defaultRecoveryTimeout  = 30 * time.Second
	defaultHalfOpenMaxCalls = 1
	defaultMaxAttempts      = 3
	defaultInitialDelay     = 100 * time.Millisecond
	defaultMaxDelay         = 10 * time.Second
)

// RateLimitConfig is the per-service token bucket budget.
type RateLimitConfig struct {
	// RequestsPerMinute is the sustained budget and default bucket capacity.
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute" validate:"min=0"`
	// BurstLimit overrides the bucket capacity when set.
	BurstLimit int `yaml:"burst_limit" mapstructure:"burst_limit" validate:"min=0"`
}

// CircuitBreakerConfig is the per-service failure-tracking policy.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of failures before the circuit opens.
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold" validate:"min=0"`
	// RecoveryTimeout is the cooldown before recovery probes are admitted.
	RecoveryTimeout time.Duration `yaml:"recovery_timeout" mapstructure:"recovery_timeout"`
	// HalfOpenMaxCalls bounds the trial calls admitted while probing.
	HalfOpenMaxCalls int `yaml:"half_open_max_calls" mapstructure:"half_open_max_calls" validate:"min=0"`
}

// RetryConfig is the per-service retry budget and backoff shape.
type RetryConfig struct {
	// MaxAttempts is the total attempt budget, including the first try.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts" validate:"min=0"`
	// BackoffStrategy is exponential, linear, or fixed.
	BackoffStrategy resilience.BackoffStrategy `yaml:"backoff_strategy" mapstructure:"backoff_strategy"`
	// InitialDelay is the base delay before the first retry.
	InitialDelay time.Duration `yaml:"initial_delay" mapstructure:"initial_delay"`
	// MaxDelay caps the computed delay.
	MaxDelay time.Duration `yaml:"max_delay" mapstructure:"max_delay"`
	// Jitter applies full jitter to each delay.
	Jitter bool `yaml:"jitter" mapstructure:"jitter"`
}

// ServiceDefinition is the static configuration for one backend service.
// Definitions are read-only after client construction.
type ServiceDefinition struct {
	// Endpoint is the base URL of the backend.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint" validate:"required,url"`
	// Timeout bounds each transport attempt.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// Auth configures the outbound authentication strategy.
	Auth auth.Config `yaml:"auth" mapstructure:"auth"`
	// RateLimit configures the token bucket.
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	// CircuitBreaker configures the failure-tracking state machine.
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	// Retry configures the attempt loop.
	Retry RetryConfig `yaml:"retry" mapstructure:"retry"`
	// MaxConcurrent caps in-flight calls to this service. 0 means unbounded.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent" validate:"min=0"`
}

// ApplyDefaults fills zero-value fields with sensible defaults.
func (d *ServiceDefinition) ApplyDefaults() {
	if d.Timeout <= 0 {
		d.Timeout = defaultTimeout
	}
	if d.CircuitBreaker.FailureThreshold <= 0 {
		d.CircuitBreaker.FailureThreshold = defaultFailureThreshold
	}
	if d.CircuitBreaker.RecoveryTimeout <= 0 {
		d.CircuitBreaker.RecoveryTimeout = defaultRecoveryTimeout
	}
	if d.CircuitBreaker.HalfOpenMaxCalls <= 0 {
		d.CircuitBreaker.HalfOpenMaxCalls = defaultHalfOpenMaxCalls
	}
	if d.Retry.MaxAttempts <= 0 {
		d.Retry.MaxAttempts = defaultMaxAttempts
	}
	if d.Retry.BackoffStrategy == "" {
		d.Retry.BackoffStrategy = resilience.BackoffExponential
	}
	if d.Retry.InitialDelay <= 0 {
		d.Retry.InitialDelay = defaultInitialDelay
	}
	if d.Retry.MaxDelay <= 0 {
		d.Retry.MaxDelay = defaultMaxDelay
	}
	if d.RateLimit.RequestsPerMinute <= 0 {
		d.RateLimit.RequestsPerMinute = 60
	}
}

// Validate checks the definition for a named service.
func (d *ServiceDefinition) Validate(service string) error {
	if err := validation.Validate(d); err != nil {
		return fmt.Errorf("service %s: %w", service, err)
	}
	if problems := d.Auth.Validate(); len(problems) > 0 {
		return fmt.Errorf("service %s auth: %s", service, strings.Join(problems, "; "))
	}
	switch d.Retry.BackoffStrategy {
	case resilience.BackoffExponential, resilience.BackoffLinear, resilience.BackoffFixed:
	default:
		return fmt.Errorf("service %s: unknown backoff strategy %q", service, d.Retry.BackoffStrategy)
	}
	return nil
}

// breakerConfig converts the definition into a circuit breaker config.
func (d *ServiceDefinition) breakerConfig(service string) resilience.CircuitBreakerConfig {
	return resilience.CircuitBreakerConfig{
		Name:             service,
		FailureThreshold: d.CircuitBreaker.FailureThreshold,
		RecoveryTimeout:  d.CircuitBreaker.RecoveryTimeout,
		HalfOpenMaxCalls: d.CircuitBreaker.HalfOpenMaxCalls,
	}
}

// limiterConfig converts the definition into a rate limiter config.
func (d *ServiceDefinition) limiterConfig(service string) resilience.RateLimiterConfig {
	return resilience.RateLimiterConfig{
		Name:              service,
		RequestsPerMinute: d.RateLimit.RequestsPerMinute,
		BurstLimit:        d.RateLimit.BurstLimit,
	}
}

// retryPolicy converts the definition into a retry policy.
func (d *ServiceDefinition) retryPolicy() resilience.RetryPolicy {
	return resilience.RetryPolicy{
		MaxAttempts:  d.Retry.MaxAttempts,
		Strategy:     d.Retry.BackoffStrategy,
		InitialDelay: d.Retry.InitialDelay,
		MaxDelay:     d.Retry.MaxDelay,
		Jitter:       d.Retry.Jitter,
	}
}
