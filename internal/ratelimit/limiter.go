package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter throttles outbound API calls. BingX budgets its spot, swap, and
// contract namespaces independently, so each named group gets its own token
// bucket on top of a shared global one.
type Limiter struct {
	global   *rate.Limiter
	mu       sync.Mutex
	groups   map[string]*rate.Limiter
	requests int
	period   time.Duration
}

// New creates a Limiter allowing requests per period, globally and per group.
func New(requests int, period time.Duration) *Limiter {
	return &Limiter{
		global:   newBucket(requests, period),
		groups:   make(map[string]*rate.Limiter),
		requests: requests,
		period:   period,
	}
}

func newBucket(requests int, period time.Duration) *rate.Limiter {
	rps := float64(requests) / period.Seconds()
	return rate.NewLimiter(rate.Limit(rps), requests)
}

// Wait blocks until the global budget and the named group's budget both allow
// a request of the given weight, or the context is cancelled. Weights below
// one count as one.
func (l *Limiter) Wait(ctx context.Context, group string, weight int) error {
	if weight < 1 {
		weight = 1
	}
	if err := l.global.WaitN(ctx, weight); err != nil {
		return err
	}
	return l.group(group).WaitN(ctx, weight)
}

// Allow reports whether the global budget permits one request right now.
func (l *Limiter) Allow() bool {
	return l.global.Allow()
}

// SetGroupLimit overrides the budget of a single group.
func (l *Limiter) SetGroupLimit(group string, requests int, period time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.groups[group] = newBucket(requests, period)
}

func (l *Limiter) group(name string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.groups[name]; ok {
		return lim
	}
	lim := newBucket(l.requests, l.period)
	l.groups[name] = lim
	return lim
}
