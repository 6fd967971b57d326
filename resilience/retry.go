package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy selects how the delay grows between attempts.
type BackoffStrategy string

const (
	// BackoffExponential doubles the delay each attempt.
	BackoffExponential BackoffStrategy = "exponential"
	// BackoffLinear grows the delay proportionally to the attempt number.
	BackoffLinear BackoffStrategy = "linear"
	// BackoffFixed uses the initial delay for every attempt.
	BackoffFixed BackoffStrategy = "fixed"
)

// RetryPolicy describes the retry budget and backoff shape for one backend.
// Attempt 1 is the first try, not a retry; MaxAttempts bounds the total
// number of attempts.
type RetryPolicy struct {
	// MaxAttempts is the maximum number of attempts (including the first).
	MaxAttempts int
	// Strategy selects the backoff growth curve.
	Strategy BackoffStrategy
	// InitialDelay is the base delay before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps the computed delay.
	MaxDelay time.Duration
	// Jitter scales each delay by a uniform random factor in [0,1] (full
	// jitter) to avoid synchronized retry storms across callers.
	Jitter bool
}

// DefaultRetryPolicy returns sensible defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		Strategy:     BackoffExponential,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Jitter:       true,
	}
}

// Delay computes the backoff before the retry following the given attempt.
// It is a pure function of the attempt number and the policy, except for
// the random jitter factor when Jitter is set.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	var delay time.Duration
	switch p.Strategy {
	case BackoffLinear:
		delay = p.capped(time.Duration(float64(p.InitialDelay) * float64(attempt)))
	case BackoffFixed:
		delay = p.InitialDelay
	default:
		delay = p.capped(time.Duration(float64(p.InitialDelay) * math.Pow(2, float64(attempt-1))))
	}

	if p.Jitter {
		delay = time.Duration(float64(delay) * rand.Float64())
	}

	return delay
}

// capped bounds a growing delay at MaxDelay. Negative values mean the
// multiplication overflowed, which the cap also absorbs.
func (p RetryPolicy) capped(d time.Duration) time.Duration {
	if p.MaxDelay > 0 && (d > p.MaxDelay || d < 0) {
		return p.MaxDelay
	}
	return d
}

// Sleep waits for the given duration or until the context is done,
// whichever comes first. It never holds any lock while suspended.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
