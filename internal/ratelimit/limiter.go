// Package ratelimit provides a keyed token-bucket limiter.
//
// Each key (client IP, user id) gets its own golang.org/x/time/rate bucket
// refilled at a per-minute rate. Idle keys are evicted by a background
// sweeper so the map does not grow without bound.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a set of token buckets keyed by caller identity.
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a limiter allowing perMinute events per key, with a burst of
// the same size. It starts a sweeper that runs every minute until Close.
func New(perMinute int) *Limiter {
	l := newLimiter(perMinute, time.Now)
	go l.sweep(time.Minute)
	return l
}

func newLimiter(perMinute int, now func() time.Time) *Limiter {
	if perMinute < 1 {
		perMinute = 1
	}
	return &Limiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		idleTTL:  2 * time.Minute,
		now:      now,
		stop:     make(chan struct{}),
	}
}

// Allow reports whether key may proceed now, consuming a token if so.
func (l *Limiter) Allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	l.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// Close stops the sweeper. Allow keeps working afterwards.
func (l *Limiter) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Limiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.evictIdle()
		}
	}
}

// evictIdle drops keys not seen within idleTTL. A dropped key starts again
// with a full bucket, which is no more than it would have refilled to.
func (l *Limiter) evictIdle() {
	cutoff := l.now().Add(-l.idleTTL)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, key)
		}
	}
}

// Unlimited allows every call. Used when rate limiting is disabled.
type Unlimited struct{}

// Allow always returns true.
func (Unlimited) Allow(string) bool { return true }
