// Package ratelimit implements fixed-window request counting against a shared
// counter store so concurrent instances see the same per-identity windows.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Window is the counter record for one (identity, window) pair. WindowStart
// is the unix second the window opened at.
type Window struct {
	Count       int   `json:"count"`
	WindowStart int64 `json:"timestamp"`
}

// CounterStore is a shared key-value store with per-key expiry. Get returns
// nil with no error when the key is absent or expired; expiry is the store's
// responsibility, not the limiter's.
type CounterStore interface {
	Get(ctx context.Context, key string) (*Window, error)
	Put(ctx context.Context, key string, w Window, ttl time.Duration) error
}

// Decision is the admission outcome plus the backoff metadata every API
// response carries.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     int // seconds until the window resets
}

// Limiter admits or rejects requests per identity over a fixed window.
type Limiter struct {
	store  CounterStore
	limit  int
	window time.Duration

	now func() time.Time // overridable for tests
}

func New(store CounterStore, limit int, window time.Duration) *Limiter {
	return &Limiter{
		store:  store,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Admit counts one request for identity and decides whether it is allowed.
//
// The counter update is a read followed by a write with no compare-and-swap:
// concurrent requests from the same identity can both observe a stale count
// and over-admit slightly. That approximation is intentional and must not be
// silently strengthened.
func (l *Limiter) Admit(ctx context.Context, identity string) (Decision, error) {
	key := fmt.Sprintf("rate_limit:%s", identity)
	windowSec := int(l.window.Seconds())
	now := l.now().Unix()

	current, err := l.store.Get(ctx, key)
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit read failed: %w", err)
	}

	// Fresh window: no record, or the previous one has run out.
	if current == nil || now-current.WindowStart >= int64(windowSec) {
		err = l.store.Put(ctx, key, Window{Count: 1, WindowStart: now}, l.window)
		if err != nil {
			return Decision{}, fmt.Errorf("rate limit write failed: %w", err)
		}
		return Decision{Allowed: true, Limit: l.limit, Remaining: l.limit - 1, Reset: windowSec}, nil
	}

	elapsed := now - current.WindowStart
	reset := windowSec - int(elapsed)

	if current.Count >= l.limit {
		return Decision{Allowed: false, Limit: l.limit, Remaining: 0, Reset: reset}, nil
	}

	// Re-write with the TTL shortened to the remainder of the window.
	err = l.store.Put(ctx, key, Window{Count: current.Count + 1, WindowStart: current.WindowStart}, time.Duration(reset)*time.Second)
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit write failed: %w", err)
	}

	return Decision{Allowed: true, Limit: l.limit, Remaining: l.limit - (current.Count + 1), Reset: reset}, nil
}
