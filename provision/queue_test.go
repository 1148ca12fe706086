package provision

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGateRunsWithoutInterval(t *testing.T) {
	g := NewGate(0)
	calls := 0
	err := g.Do(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}

func TestGateNoRetryByDefault(t *testing.T) {
	g := NewGate(0)
	calls := 0
	wantErr := errors.New("transient")
	err := g.Do(context.Background(), func() error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want the fn error", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d; default gate must not retry", calls)
	}
}

func TestGateRetriesWithBackoff(t *testing.T) {
	g := NewGate(0)
	g.MaxAttempts = 3
	g.Backoff = ExponentialBackoff(100 * time.Millisecond)

	var slept []time.Duration
	g.sleep = func(d time.Duration) { slept = append(slept, d) }

	calls := 0
	err := g.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	if len(slept) != 2 || slept[0] != 100*time.Millisecond || slept[1] != 200*time.Millisecond {
		t.Fatalf("backoff sleeps = %v, want [100ms 200ms]", slept)
	}
}

func TestGateExhaustsAttempts(t *testing.T) {
	g := NewGate(0)
	g.MaxAttempts = 2
	g.Backoff = ExponentialBackoff(time.Millisecond)
	g.sleep = func(time.Duration) {}

	calls := 0
	wantErr := errors.New("still down")
	err := g.Do(context.Background(), func() error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) || calls != 2 {
		t.Fatalf("err=%v calls=%d, want fn error after 2 attempts", err, calls)
	}
}

func TestGatePacesSuccessiveCalls(t *testing.T) {
	g := NewGate(50 * time.Millisecond)
	var slept []time.Duration
	g.sleep = func(d time.Duration) { slept = append(slept, d) }

	for i := 0; i < 2; i++ {
		if err := g.Do(context.Background(), func() error { return nil }); err != nil {
			t.Fatalf("Do: %v", err)
		}
	}
	// First call runs immediately; the second waits out the interval.
	if len(slept) != 1 {
		t.Fatalf("sleeps = %v, want exactly one pacing sleep", slept)
	}
	if slept[0] <= 0 || slept[0] > 50*time.Millisecond {
		t.Fatalf("pacing sleep = %v, want within (0, 50ms]", slept[0])
	}
}

func TestGateHonorsContextCancellation(t *testing.T) {
	g := NewGate(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := g.Do(ctx, func() error {
		calls++
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Fatalf("fn ran %d times after cancellation", calls)
	}
}

func TestExponentialBackoffCaps(t *testing.T) {
	policy := ExponentialBackoff(10 * time.Second)
	if d := policy(1); d != 10*time.Second {
		t.Fatalf("attempt 1 = %v", d)
	}
	if d := policy(5); d != 30*time.Second {
		t.Fatalf("attempt 5 = %v, want 30s cap", d)
	}
}
