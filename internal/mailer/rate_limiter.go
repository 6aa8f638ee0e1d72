package mailer

import (
	"sync"
	"time"
)

// RateLimiter paces outbound SMTP so batch notification runs stay under
// provider sending limits.
type RateLimiter struct {
	mu            sync.Mutex
	nextAllowedAt time.Time
	interval      time.Duration
}

func NewRateLimiter(messagesPerSecond int) *RateLimiter {
	if messagesPerSecond <= 0 {
		messagesPerSecond = 1
	}
	return &RateLimiter{interval: time.Second / time.Duration(messagesPerSecond)}
}

func (r *RateLimiter) WaitTurn() {
	r.mu.Lock()
	now := time.Now()
	scheduled := now
	if r.nextAllowedAt.After(now) {
		scheduled = r.nextAllowedAt
	}
	r.nextAllowedAt = scheduled.Add(r.interval)
	r.mu.Unlock()

	if sleep := time.Until(scheduled); sleep > 0 {
		time.Sleep(sleep)
	}
}
