// Package ratelimit provides fixed-window request counters keyed by client
// identity, used to gate sensitive endpoints. Counters are abuse mitigation,
// not a security boundary: the Redis-backed limiter fails open so a limiter
// outage never takes the API down with it.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Rule is a fixed-window ceiling: at most Max requests per Window.
type Rule struct {
	Max    int
	Window time.Duration
}

// Limiter gates requests per key. Allow atomically counts the request
// against the rule's current window and reports whether it may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string, rule Rule) bool
}

// Disabled is a Limiter that always allows. Installed when
// RATE_LIMIT_ENABLED=false so call sites do not change in test mode.
type Disabled struct{}

func (Disabled) Allow(ctx context.Context, key string, rule Rule) bool { return true }

type window struct {
	count int
	start time.Time
}

// MemoryLimiter keeps process-local counters. Counters do not survive a
// restart, which is acceptable for abuse mitigation.
type MemoryLimiter struct {
	mu   sync.Mutex
	m    map[string]*window
	nowF func() time.Time
}

// NewMemoryLimiter returns an in-memory fixed-window limiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		m:    make(map[string]*window),
		nowF: func() time.Time { return time.Now().UTC() },
	}
}

// Allow increments the counter for key and reports whether the increment
// stays within rule.Max for the still-open window. The check and the
// increment happen under one lock, so concurrent requests cannot both pass
// on the last remaining slot.
func (l *MemoryLimiter) Allow(ctx context.Context, key string, rule Rule) bool {
	if rule.Max <= 0 || rule.Window <= 0 {
		return true
	}
	now := l.nowF()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.m[key]
	if !ok || now.Sub(w.start) >= rule.Window {
		l.m[key] = &window{count: 1, start: now}
		return true
	}
	if w.count >= rule.Max {
		return false
	}
	w.count++
	return true
}
