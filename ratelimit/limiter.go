// Package ratelimit bounds bursts on the public endpoints. State is held in
// process memory: counters are lost on restart and are not shared between
// instances, so a horizontally scaled deployment needs a shared counter store.
package ratelimit

import (
	"sync"
	"time"
)

// Rule configures one limited scope.
type Rule struct {
	Window time.Duration
	Max    int
	MinGap time.Duration
}

var (
	ContributeRule     = Rule{Window: time.Minute, Max: 30, MinGap: 3 * time.Second}
	WalletInitiateRule = Rule{Window: time.Minute, Max: 20, MinGap: 3 * time.Second}
)

const (
	ReasonMinGap         = "min_gap"
	ReasonWindowExceeded = "window_exceeded"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed bool
	Reason  string
}

type record struct {
	windowStart time.Time
	count       int
	lastAt      time.Time
}

// Limiter is a sliding-window counter with a minimum gap between accepted
// calls, keyed by caller-supplied strings.
type Limiter struct {
	mu        sync.Mutex
	records   map[string]*record
	now       func() time.Time
	lastSweep time.Time
}

func New() *Limiter {
	return NewWithClock(time.Now)
}

func NewWithClock(now func() time.Time) *Limiter {
	return &Limiter{records: make(map[string]*record), now: now}
}

// Allow records an attempt for key and reports whether it may proceed. A call
// inside the minimum gap is rejected without being counted.
func (l *Limiter) Allow(key string, rule Rule) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now, rule.Window)

	rec, ok := l.records[key]
	if !ok {
		rec = &record{windowStart: now}
		l.records[key] = rec
	}
	if !rec.lastAt.IsZero() && now.Sub(rec.lastAt) < rule.MinGap {
		return Decision{Reason: ReasonMinGap}
	}
	if now.Sub(rec.windowStart) > rule.Window {
		rec.windowStart = now
		rec.count = 0
	}
	rec.count++
	rec.lastAt = now
	if rec.count > rule.Max {
		return Decision{Reason: ReasonWindowExceeded}
	}
	return Decision{Allowed: true}
}

// Len reports the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// sweep drops keys idle for two windows. Runs at most once per window.
func (l *Limiter) sweep(now time.Time, window time.Duration) {
	if now.Sub(l.lastSweep) < window {
		return
	}
	l.lastSweep = now
	for key, rec := range l.records {
		if now.Sub(rec.lastAt) > 2*window {
			delete(l.records, key)
		}
	}
}
