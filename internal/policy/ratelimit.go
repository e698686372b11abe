package policy

import (
	"sync"
	"time"
)

// Limiter is a per-session sliding-window rate limiter. State is process
// local and ephemeral on purpose: old timestamps fall out of the window
// naturally and nothing survives a restart.
type Limiter struct {
	mu   sync.Mutex
	hits map[string][]time.Time
	now  func() time.Time
}

func NewLimiter() *Limiter {
	return &Limiter{
		hits: make(map[string][]time.Time),
		now:  time.Now,
	}
}

// NewLimiterWithClock injects the clock, for tests.
func NewLimiterWithClock(now func() time.Time) *Limiter {
	return &Limiter{
		hits: make(map[string][]time.Time),
		now:  now,
	}
}

// Allow records one request for sessionID and reports whether it stays within
// n requests per window. The current request counts toward the window, so the
// (n+1)-th request inside the window is denied. An empty session id is never
// limited.
func (l *Limiter) Allow(sessionID string, n int, window time.Duration) bool {
	if sessionID == "" {
		return true
	}
	if n <= 0 {
		n = 3
	}
	if window <= 0 {
		window = 10 * time.Second
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-window)
	recent := l.hits[sessionID][:0]
	for _, t := range l.hits[sessionID] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	recent = append(recent, now)
	l.hits[sessionID] = recent
	return len(recent) <= n
}
