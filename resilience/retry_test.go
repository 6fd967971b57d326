package resilience

import (
	"context"
	"testing"
	"time"
)

func TestRetryPolicy_ExponentialDelay(t *testing.T) {
	p := RetryPolicy{
		Strategy:     BackoffExponential,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
	}

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second}, // capped
		{10, time.Second},
	}
	for _, tc := range cases {
		if got := p.Delay(tc.attempt); got != tc.want {
			t.Errorf("Delay(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestRetryPolicy_LinearDelay(t *testing.T) {
	p := RetryPolicy{
		Strategy:     BackoffLinear,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     350 * time.Millisecond,
	}

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 300 * time.Millisecond},
		{4, 350 * time.Millisecond}, // capped
	}
	for _, tc := range cases {
		if got := p.Delay(tc.attempt); got != tc.want {
			t.Errorf("Delay(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestRetryPolicy_FixedDelay(t *testing.T) {
	p := RetryPolicy{
		Strategy:     BackoffFixed,
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     time.Second,
	}

	for _, attempt := range []int{1, 2, 5, 10} {
		if got := p.Delay(attempt); got != 250*time.Millisecond {
			t.Errorf("Delay(%d) = %v, want 250ms", attempt, got)
		}
	}
}

func TestRetryPolicy_FullJitterBounds(t *testing.T) {
	p := RetryPolicy{
		Strategy:     BackoffExponential,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Jitter:       true,
	}

	base := 400 * time.Millisecond // attempt 3 without jitter
	for i := 0; i < 100; i++ {
		d := p.Delay(3)
		if d < 0 || d > base {
			t.Fatalf("jittered delay %v outside [0, %v]", d, base)
		}
	}
}

func TestRetryPolicy_ClampsInvalidAttempt(t *testing.T) {
	p := RetryPolicy{
		Strategy:     BackoffExponential,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
	}

	if got := p.Delay(0); got != 100*time.Millisecond {
		t.Errorf("Delay(0) = %v, want 100ms", got)
	}
	if got := p.Delay(-3); got != 100*time.Millisecond {
		t.Errorf("Delay(-3) = %v, want 100ms", got)
	}
}

func TestSleep_ExpiresNormally(t *testing.T) {
	start := time.Now()
	if err := Sleep(context.Background(), 20*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("returned after %v, expected at least 20ms", elapsed)
	}
}

func TestSleep_AbortsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := Sleep(ctx, time.Minute)
	if err == nil {
		t.Fatal("expected context error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancel took %v, expected prompt abort", elapsed)
	}
}

func TestSleep_ZeroDuration(t *testing.T) {
	if err := Sleep(context.Background(), 0); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
