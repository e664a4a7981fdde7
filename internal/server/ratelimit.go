package server

import (
	"sync"
	"time"
)

// rateLimiter is a fixed-window in-process limiter. Good enough for a
// single replica guarding abusive webhook retries; a shared store would be
// needed before horizontal scaling of the webhook path.
type rateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string]*rateWindow
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string]*rateWindow),
	}
}

func (l *rateLimiter) Allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.buckets[key]
	if !ok || now.After(w.resetAt) {
		l.buckets[key] = &rateWindow{count: 1, resetAt: now.Add(l.window)}
		l.pruneLocked(now)
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

func (l *rateLimiter) pruneLocked(now time.Time) {
	if len(l.buckets) < 1024 {
		return
	}
	for key, w := range l.buckets {
		if now.After(w.resetAt) {
			delete(l.buckets, key)
		}
	}
}
