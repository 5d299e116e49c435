package policy

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Throttle enforces a minimum delay between consecutive network operations,
// static or browser alike. It is a token bucket with burst 1, so a future
// parallel pipeline gets correct shared limiting for free.
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle builds a throttle with the given minimum inter-request delay.
// A non-positive delay disables throttling.
func NewThrottle(minDelay time.Duration) *Throttle {
	limit := rate.Inf
	if minDelay > 0 {
		limit = rate.Every(minDelay)
	}
	return &Throttle{limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the next network operation may proceed.
func (t *Throttle) Wait(ctx context.Context) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}
