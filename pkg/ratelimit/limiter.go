// Package ratelimit spaces out calls to remote APIs.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Wait blocks until a call may proceed or ctx is done
	Wait(ctx context.Context) error
}

// Interval enforces a minimum gap between consecutive calls.
// The first call always proceeds immediately.
type Interval struct {
	gap  time.Duration
	last time.Time
	mu   sync.Mutex
}

// NewInterval creates a limiter allowing one call per gap.
// A zero or negative gap disables limiting.
func NewInterval(gap time.Duration) *Interval {
	return &Interval{gap: gap}
}

// Wait blocks until the gap since the previous call has elapsed
func (l *Interval) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := time.Now()
		delay := l.remaining(now)
		if delay <= 0 {
			l.last = now
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *Interval) remaining(now time.Time) time.Duration {
	if l.gap <= 0 || l.last.IsZero() {
		return 0
	}
	return l.gap - now.Sub(l.last)
}
