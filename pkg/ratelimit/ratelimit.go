package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// WaitFunc blocks for d or until ctx is done, whichever comes first.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Pause blocks the calling goroutine for d, returning early with ctx.Err()
// if the context is canceled. A non-positive d returns immediately.
func Pause(ctx context.Context, d time.Duration) error {
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

// Limiter spaces out operations so that at most rps of them start per second,
// with optional jitter added on top of the interval.
// It is safe for concurrent use by multiple goroutines.
type Limiter struct {
	mu       sync.Mutex
	next     time.Time
	interval time.Duration
	jitter   float64 // 0.0 to 1.0
	wait     WaitFunc
}

// NewLimiter creates a new limiter with the given requests per second (rps)
// and jitter factor. Jitter is clamped to [0, 1].
// If rps is <= 0, the limiter does not block.
func NewLimiter(rps float64, jitter float64) *Limiter {
	if jitter < 0 {
		jitter = 0
	} else if jitter > 1 {
		jitter = 1
	}

	l := &Limiter{jitter: jitter, wait: Pause}
	if rps > 0 {
		l.interval = time.Duration(float64(time.Second) / rps)
	}
	return l
}

// Wait blocks until it is time to perform the next operation, or until the
// context is canceled. The first call never blocks.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.interval <= 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	now := time.Now()
	slot := l.next
	if slot.Before(now) {
		slot = now
	}
	step := l.interval
	if l.jitter > 0 {
		// only positive jitter is applied so the interval is a floor
		step += time.Duration(float64(l.interval) * l.jitter * rand.Float64())
	}
	l.next = slot.Add(step)
	l.mu.Unlock()

	return l.wait(ctx, slot.Sub(now))
}
