// Package ratelimit provides a per-backend token bucket so that throttling
// on one provider never stalls the others.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Bucket is a token bucket: capacity tokens, refilled at rate per second.
type Bucket struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	rate     float64 // tokens per second
	last     time.Time
}

// NewBucket creates a full bucket. rate <= 0 disables limiting (Allow always
// succeeds); capacity < 1 is raised to 1.
func NewBucket(rate float64, capacity int) *Bucket {
	if capacity < 1 {
		capacity = 1
	}
	return &Bucket{
		tokens:   float64(capacity),
		capacity: float64(capacity),
		rate:     rate,
		last:     time.Now(),
	}
}

// Allow consumes a token if one is available.
func (b *Bucket) Allow() bool {
	if b.rate <= 0 {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(time.Now())
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Wait blocks until a token is available or ctx is done.
func (b *Bucket) Wait(ctx context.Context) error {
	for {
		if b.Allow() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.retryInterval()):
		}
	}
}

// retryInterval is the time to accrue one token at the configured rate.
func (b *Bucket) retryInterval() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.rate <= 0 {
		return time.Millisecond
	}
	return time.Duration(float64(time.Second) / b.rate)
}

// refill credits tokens accrued since the last update. Caller holds mu.
func (b *Bucket) refill(now time.Time) {
	elapsed := now.Sub(b.last).Seconds()
	if elapsed <= 0 {
		return
	}
	b.last = now
	b.tokens += elapsed * b.rate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
}
