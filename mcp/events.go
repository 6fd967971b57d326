package mcp

import "time"

// EventSink receives lifecycle notifications from a client. Implementations
// must be fast and non-blocking; the client calls them inline.
type EventSink interface {
	// RequestRecorded fires once per completed request with its terminal
	// outcome.
	RequestRecorded(service, operation string, success bool, retries int, duration time.Duration)
	// CircuitStateChanged fires on every circuit breaker transition.
	CircuitStateChanged(service, from, to string)
	// RateLimited fires when the rate limiter refuses a request.
	RateLimited(service string)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RequestRecorded(string, string, bool, int, time.Duration) {}
func (NopSink) CircuitStateChanged(string, string, string)               {}
func (NopSink) RateLimited(string)                                       {}
