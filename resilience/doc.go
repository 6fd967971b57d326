// Package resilience provides the failure-handling building blocks used by
// the gateway client.
//
// This package includes:
//   - CircuitBreaker: Stops traffic to a failing backend, then probes recovery
//   - RetryPolicy: Computes backoff delays between attempts
//   - RateLimiter: Token bucket keyed to a per-minute request budget
//   - Bulkhead: Caps concurrent in-flight calls to one backend
//
// Each component is safe for concurrent use and carries its own lock, so
// instances dedicated to different backends never contend with each other.
// The gateway client gates a call (Allow), performs the transport attempt
// outside any lock, then reports the terminal outcome (RecordSuccess or
// RecordFailure).
package resilience
