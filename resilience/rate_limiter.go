package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned by Execute when the bucket refuses a call.
var ErrRateLimited = errors.New("rate limit exceeded")

// millisPerMinute converts a per-minute budget into a per-millisecond
// refill rate.
const millisPerMinute = 60000.0

// RateLimiterConfig configures a rate limiter.
type RateLimiterConfig struct {
	// Name identifies this rate limiter for metrics/logging.
	Name string
	// RequestsPerMinute is the sustained per-minute request budget.
	RequestsPerMinute int
	// BurstLimit overrides the bucket capacity when set.
	BurstLimit int
	// OnLimit is called when a request is refused.
	OnLimit func(name string)
}

// DefaultRateLimiterConfig returns sensible defaults.
func DefaultRateLimiterConfig(name string) RateLimiterConfig {
	return RateLimiterConfig{
		Name:              name,
		RequestsPerMinute: 60,
	}
}

// RateLimitStatus is a read-only view of the bucket at one instant.
type RateLimitStatus struct {
	Tokens   float64
	Capacity float64
}

// RateLimiter is a token bucket keyed to a per-minute request budget.
// The bucket starts full, refills continuously at capacity/60000 tokens per
// millisecond, and each admitted call consumes one token.
type RateLimiter struct {
	config   RateLimiterConfig
	capacity float64

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter creates a new rate limiter with a full bucket.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = 60
	}

	capacity := float64(config.RequestsPerMinute)
	if config.BurstLimit > 0 {
		capacity = float64(config.BurstLimit)
	}

	return &RateLimiter{
		config:     config,
		capacity:   capacity,
		tokens:     capacity,
		lastRefill: time.Now(),
	}
}

// Allow consumes one token if available and reports whether the call may
// proceed.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}

	if rl.config.OnLimit != nil {
		rl.config.OnLimit(rl.config.Name)
	}

	return false
}

// Execute runs a function if the rate limit allows.
func (rl *RateLimiter) Execute(fn func() error) error {
	if !rl.Allow() {
		return ErrRateLimited
	}
	return fn()
}

// Status returns the current token count and bucket capacity.
func (rl *RateLimiter) Status() RateLimitStatus {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()
	return RateLimitStatus{Tokens: rl.tokens, Capacity: rl.capacity}
}

// refill adds tokens for the time elapsed since the last refill, capped at
// capacity. Callers must hold mu.
func (rl *RateLimiter) refill() {
	now := time.Now()
	elapsedMillis := float64(now.Sub(rl.lastRefill)) / float64(time.Millisecond)
	rl.lastRefill = now

	rl.tokens += elapsedMillis * (rl.capacity / millisPerMinute)
	if rl.tokens > rl.capacity {
		rl.tokens = rl.capacity
	}
}
