package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const localIdleTTL = 10 * time.Minute

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter keeps one token bucket per key in process memory. It is used
// when no redis is configured, so limits are per instance.
type LocalLimiter struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	now     func() time.Time
}

func NewLocalLimiter() *LocalLimiter {
	return &LocalLimiter{
		entries: make(map[string]*localEntry),
		now:     time.Now,
	}
}

func (l *LocalLimiter) Allow(key string, limit float64, burst int) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.entries[key]
	if !ok {
		l.evictIdle(now)
		entry = &localEntry{limiter: rate.NewLimiter(rate.Limit(limit), burst)}
		l.entries[key] = entry
	}
	entry.lastSeen = now

	reservation := entry.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return Result{Allowed: false, Limit: burst}
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return Result{Allowed: false, Limit: burst, RetryAfter: delay}
	}
	return Result{
		Allowed:   true,
		Limit:     burst,
		Remaining: int(entry.limiter.TokensAt(now)),
	}
}

func (l *LocalLimiter) evictIdle(now time.Time) {
	for key, entry := range l.entries {
		if now.Sub(entry.lastSeen) > localIdleTTL {
			delete(l.entries, key)
		}
	}
}
