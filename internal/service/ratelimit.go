package service

import (
	"sync"
	"time"
)

// rateLimiter is a fixed-window counter. High-frequency client messages
// (position syncs, trickled ICE) are capped per connection so one
// misbehaving client cannot flood a session.
type rateLimiter struct {
	mu          sync.Mutex
	limit       int
	window      time.Duration
	count       int
	windowStart time.Time
	now         func() time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{limit: limit, window: window, now: time.Now}
}

// allow consumes one slot, reporting whether the caller is under the limit.
func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Sub(r.windowStart) >= r.window {
		r.windowStart = now
		r.count = 0
	}
	if r.count >= r.limit {
		return false
	}
	r.count++
	return true
}

// clientLimits bundles the per-connection limiters.
type clientLimits struct {
	positionSync *rateLimiter
	ice          *rateLimiter
}

func newClientLimits() *clientLimits {
	return &clientLimits{
		positionSync: newRateLimiter(10, 10*time.Second),
		ice:          newRateLimiter(50, 5*time.Second),
	}
}
