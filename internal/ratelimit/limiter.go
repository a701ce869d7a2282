package ratelimit

import (
	"sync"
	"time"
)

// Limiter bounds the number of requests admitted per source IP. Implementations
// must be safe for concurrent use. The in-memory implementation below is the
// default; a distributed backend (shared cache) can be swapped in without
// touching handler logic.
type Limiter interface {
	// Admit reports whether a request from ip may proceed, consuming one
	// slot from the IP's window when it does.
	Admit(ip string) bool
}

// counter tracks requests from one IP within the current fixed window.
type counter struct {
	count       int
	windowStart time.Time
}

// FixedWindow is an in-memory fixed-window per-IP limiter. Counters whose
// window has elapsed are purged on each call, so the map stays bounded by the
// number of distinct IPs seen per window. State is process-local and lost on
// restart; this is a coarse abuse guard, not a billing-grade limiter.
type FixedWindow struct {
	mu       sync.Mutex
	max      int
	window   time.Duration
	counters map[string]*counter
	now      func() time.Time
}

// NewFixedWindow creates a limiter admitting at most max requests per IP per window.
func NewFixedWindow(max int, window time.Duration) *FixedWindow {
	return &FixedWindow{
		max:      max,
		window:   window,
		counters: make(map[string]*counter),
		now:      time.Now,
	}
}

// Admit implements Limiter.
func (l *FixedWindow) Admit(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	// Purge counters whose window has expired.
	for key, c := range l.counters {
		if now.Sub(c.windowStart) > l.window {
			delete(l.counters, key)
		}
	}

	c, ok := l.counters[ip]
	if !ok {
		l.counters[ip] = &counter{count: 1, windowStart: now}
		return true
	}

	if c.count >= l.max {
		return false
	}
	c.count++
	return true
}

// Len returns the number of tracked IPs. Used by tests and diagnostics.
func (l *FixedWindow) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.counters)
}
