package provision

import (
	"context"
	"sync"
	"time"
)

// BackoffPolicy returns how long to wait before retry attempt n (1-based).
type BackoffPolicy func(attempt int) time.Duration

// ExponentialBackoff doubles a base delay per attempt, capped at 30s.
func ExponentialBackoff(base time.Duration) BackoffPolicy {
	return func(attempt int) time.Duration {
		d := base * time.Duration(1<<uint(attempt-1))
		if d > 30*time.Second {
			d = 30 * time.Second
		}
		return d
	}
}

// Gate paces calls to the identity provider. The legacy console throttled
// with ad-hoc fixed sleeps scattered through the sync code; the gate makes
// the contract explicit: at most one call per Interval, with an optional
// retry/backoff policy for transient errors. The default MaxAttempts of 1
// keeps the "no automatic retry" error-handling stance.
type Gate struct {
	Interval    time.Duration
	MaxAttempts int
	Backoff     BackoffPolicy

	mu    sync.Mutex
	last  time.Time
	sleep func(time.Duration)
}

func NewGate(interval time.Duration) *Gate {
	return &Gate{
		Interval:    interval,
		MaxAttempts: 1,
		sleep:       time.Sleep,
	}
}

// Do waits out the pacing interval, then runs fn, retrying per the
// backoff policy. Context cancellation is honored between attempts.
func (g *Gate) Do(ctx context.Context, fn func() error) error {
	attempts := g.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := g.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		g.pace(sleep)
		if err = fn(); err == nil {
			return nil
		}
		if attempt < attempts && g.Backoff != nil {
			sleep(g.Backoff(attempt))
		}
	}
	return err
}

func (g *Gate) pace(sleep func(time.Duration)) {
	if g.Interval <= 0 {
		return
	}
	g.mu.Lock()
	wait := g.Interval - time.Since(g.last)
	g.mu.Unlock()
	if wait > 0 {
		sleep(wait)
	}
	g.mu.Lock()
	g.last = time.Now()
	g.mu.Unlock()
}
