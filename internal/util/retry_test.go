// ABOUTME: Tests for retry helpers
// ABOUTME: Verifies backoff bounds and Do's retry/stop behavior
package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCalculateBackoff_ZeroForFirstAttempt(t *testing.T) {
	if d := CalculateBackoff(time.Second, 0); d != 0 {
		t.Errorf("CalculateBackoff(1s, 0) = %v, want 0", d)
	}
	if d := CalculateBackoff(time.Second, -1); d != 0 {
		t.Errorf("CalculateBackoff(1s, -1) = %v, want 0", d)
	}
}

func TestCalculateBackoff_GrowsAndCaps(t *testing.T) {
	base := 100 * time.Millisecond

	// With ±25% jitter, attempt 1 is roughly 2*base
	d1 := CalculateBackoff(base, 1)
	if d1 < 150*time.Millisecond || d1 > 250*time.Millisecond {
		t.Errorf("attempt 1 backoff = %v, want ~200ms", d1)
	}

	// Large attempts cap at 30s (+25% jitter headroom)
	d := CalculateBackoff(base, 30)
	if d > 38*time.Second {
		t.Errorf("capped backoff = %v, want <= 37.5s", d)
	}
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, time.Millisecond, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_ExhaustsRetries(t *testing.T) {
	sentinel := errors.New("persistent")
	calls := 0
	err := Do(context.Background(), 2, time.Millisecond, func(ctx context.Context) error {
		calls++
		return sentinel
	})
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("error %v does not wrap sentinel", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, 5, time.Minute, func(ctx context.Context) error {
		calls++
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retries after cancel)", calls)
	}
}
