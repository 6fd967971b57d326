package resilience

import (
	"errors"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed allows requests to pass through.
	StateClosed State = iota
	// StateOpen blocks all requests.
	StateOpen
	// StateHalfOpen allows limited trial requests to test recovery.
	StateHalfOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned by Execute when the circuit refuses a call.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies this circuit breaker for metrics/logging.
	Name string
	// FailureThreshold is the number of failures before opening the circuit.
	FailureThreshold int
	// RecoveryTimeout is how long to wait before transitioning from open to half-open.
	RecoveryTimeout time.Duration
	// HalfOpenMaxCalls is the number of trial calls admitted in half-open state.
	HalfOpenMaxCalls int
	// OnStateChange is called when state changes.
	OnStateChange func(name string, from, to State)
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// Snapshot is a read-only view of the breaker state at one instant.
type Snapshot struct {
	State            State
	FailureCount     int
	LastFailureTime  time.Time
	HalfOpenAttempts int
}

// CircuitBreaker tracks failures per backend and fails fast while the
// backend is unhealthy.
//
// States:
//   - Closed: Normal operation, requests pass through
//   - Open: Backend is unhealthy, requests are refused immediately
//   - Half-Open: Recovery probe, a bounded number of trial calls admitted
//
// Admission and outcome reporting are split so that the caller never holds
// the breaker lock during the transport call: gate with Allow, then report
// the terminal result with RecordSuccess or RecordFailure.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu               sync.Mutex
	state            State
	failureCount     int
	lastFailureTime  time.Time
	halfOpenAttempts int
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout <= 0 {
		config.RecoveryTimeout = 30 * time.Second
	}
	if config.HalfOpenMaxCalls <= 0 {
		config.HalfOpenMaxCalls = 1
	}

	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
	}
}

// Allow reports whether a call may proceed right now. Admitting a call in
// half-open state consumes one of the trial slots; the admission check and
// the slot increment are atomic with respect to concurrent callers.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.currentState() {
	case StateClosed:
		return true
	case StateHalfOpen:
		if cb.halfOpenAttempts < cb.config.HalfOpenMaxCalls {
			cb.halfOpenAttempts++
			return true
		}
		return false
	default:
		return false
	}
}

// RecordSuccess reports one successful terminal outcome. A trial success in
// half-open state closes the circuit; in closed state the call is a no-op.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.currentState() == StateHalfOpen {
		cb.toState(StateClosed)
	}
}

// RecordFailure reports one failed terminal outcome. Reaching the failure
// threshold in closed state opens the circuit; a trial failure in half-open
// state re-opens it and restarts the recovery clock.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	cb.lastFailureTime = time.Now()

	switch cb.currentState() {
	case StateClosed:
		if cb.failureCount >= cb.config.FailureThreshold {
			cb.toState(StateOpen)
		}
	case StateHalfOpen:
		cb.toState(StateOpen)
	}
}

// ReleaseTrial returns an admission that never produced a terminal
// outcome, such as a call refused by a later gate before reaching the
// backend. Only half-open trial slots are counted, so releasing in any
// other state is a no-op. Without the release a refused trial would pin
// the breaker in half-open with no admissible calls left.
func (cb *CircuitBreaker) ReleaseTrial() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen && cb.halfOpenAttempts > 0 {
		cb.halfOpenAttempts--
	}
}

// Execute runs the given function through the circuit breaker.
// Returns ErrCircuitOpen if the circuit refuses the call.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.Allow() {
		return ErrCircuitOpen
	}

	err := fn()
	if err != nil {
		cb.RecordFailure()
	} else {
		cb.RecordSuccess()
	}
	return err
}

// State returns the current circuit breaker state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentState()
}

// Snapshot returns a read-only view of the breaker's counters and state.
func (cb *CircuitBreaker) Snapshot() Snapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return Snapshot{
		State:            cb.currentState(),
		FailureCount:     cb.failureCount,
		LastFailureTime:  cb.lastFailureTime,
		HalfOpenAttempts: cb.halfOpenAttempts,
	}
}

// Reset forces the breaker back to closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.toState(StateClosed)
	cb.failureCount = 0
	cb.halfOpenAttempts = 0
}

// currentState returns the current state, applying the open-to-half-open
// transition once the recovery timeout has elapsed. Callers must hold mu.
func (cb *CircuitBreaker) currentState() State {
	if cb.state == StateOpen {
		if time.Since(cb.lastFailureTime) >= cb.config.RecoveryTimeout {
			cb.toState(StateHalfOpen)
		}
	}
	return cb.state
}

// toState transitions to a new state. The failure count resets exactly on
// entry to closed; trial slots reset on entry to half-open. Callers must
// hold mu.
func (cb *CircuitBreaker) toState(to State) {
	if cb.state == to {
		return
	}

	from := cb.state
	cb.state = to

	switch to {
	case StateClosed:
		cb.failureCount = 0
		cb.halfOpenAttempts = 0
	case StateHalfOpen:
		cb.halfOpenAttempts = 0
	}

	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, to)
	}
}
