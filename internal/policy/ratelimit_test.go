package policy

import (
	"sync"
	"testing"
	"time"
)

func TestLimiterSlidingWindow(t *testing.T) {
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	limiter := NewLimiterWithClock(func() time.Time { return now })

	// 3 per 10s: the first three pass, the fourth is denied.
	for i := 0; i < 3; i++ {
		if !limiter.Allow("session-1", 3, 10*time.Second) {
			t.Fatalf("request %d denied, want allowed", i+1)
		}
		now = now.Add(time.Second)
	}
	if limiter.Allow("session-1", 3, 10*time.Second) {
		t.Fatal("4th request within window allowed, want denied")
	}

	// Once the early hits fall outside the window, requests pass again.
	now = now.Add(11 * time.Second)
	if !limiter.Allow("session-1", 3, 10*time.Second) {
		t.Fatal("request after window denied, want allowed")
	}
}

func TestLimiterIsPerSession(t *testing.T) {
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	limiter := NewLimiterWithClock(func() time.Time { return now })

	for i := 0; i < 3; i++ {
		limiter.Allow("session-1", 3, 10*time.Second)
	}
	if limiter.Allow("session-1", 3, 10*time.Second) {
		t.Fatal("session-1 should be limited")
	}
	if !limiter.Allow("session-2", 3, 10*time.Second) {
		t.Fatal("session-2 should not be affected by session-1 traffic")
	}
}

func TestLimiterDefaultsAndEmptyID(t *testing.T) {
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	limiter := NewLimiterWithClock(func() time.Time { return now })

	// Empty session ids are never limited.
	for i := 0; i < 10; i++ {
		if !limiter.Allow("", 1, time.Second) {
			t.Fatal("empty session id should never be limited")
		}
	}

	// Zero config falls back to 3 per 10s.
	for i := 0; i < 3; i++ {
		if !limiter.Allow("session-1", 0, 0) {
			t.Fatalf("request %d denied under default config", i+1)
		}
	}
	if limiter.Allow("session-1", 0, 0) {
		t.Fatal("4th request allowed under default config, want denied")
	}
}

func TestLimiterConcurrentAccess(t *testing.T) {
	limiter := NewLimiter()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				limiter.Allow("shared", 1000, time.Minute)
				limiter.Allow("other", 1000, time.Minute)
			}
		}(i)
	}
	wg.Wait()

	// All 1600 hits fit the budget, so the next one trips it.
	if limiter.Allow("shared", 1600, time.Minute) {
		t.Fatal("1601st request allowed, want denied")
	}
}
