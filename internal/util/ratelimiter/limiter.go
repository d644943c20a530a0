package ratelimiter

import (
	"sync"
	"time"
)

// Limiter lets an action through at most once per interval.
// It is safe for concurrent use.
type Limiter struct {
	mu          sync.Mutex
	interval    time.Duration
	lastAllowed time.Time
	now         func() time.Time
}

// New creates a limiter allowing one action per interval.
func New(interval time.Duration) *Limiter {
	return &Limiter{
		interval: interval,
		now:      time.Now,
	}
}

// Allow reports whether an action may happen now. An allowed action
// starts a new interval.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.lastAllowed.IsZero() || now.Sub(l.lastAllowed) >= l.interval {
		l.lastAllowed = now
		return true
	}
	return false
}

// Force records an action that happened regardless of the limit, such as
// a final progress line. The next Allow waits a full interval.
func (l *Limiter) Force() {
	l.mu.Lock()
	l.lastAllowed = l.now()
	l.mu.Unlock()
}

// Remaining returns how long until the next action is allowed.
func (l *Limiter) Remaining() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lastAllowed.IsZero() {
		return 0
	}
	if left := l.interval - l.now().Sub(l.lastAllowed); left > 0 {
		return left
	}
	return 0
}

// Interval returns the configured interval.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}
