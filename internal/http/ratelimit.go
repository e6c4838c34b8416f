package http

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/komorebi-io/pixiv-client/internal/constants"
	"github.com/komorebi-io/pixiv-client/pkg/pixiv"
)

// waitReportThreshold is the minimum admission delay worth reporting as a
// rate limit event.
const waitReportThreshold = 50 * time.Millisecond

// RateLimiter gates outbound requests through a token bucket. It is
// shared by every request a client instance issues; independent clients
// have independent limiters. Waiters are admitted in arrival order and a
// cancelled wait returns its reservation to the bucket.
type RateLimiter struct {
	limiter *rate.Limiter
	enabled atomic.Bool
	events  pixiv.EventSink
}

// NewRateLimiter creates a limiter admitting rps requests/second with the
// given burst capacity. Non-positive values fall back to the defaults.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		rps = constants.DefaultRateLimit
	}

	if burst <= 0 {
		burst = constants.DefaultRateBurst
	}

	rl := &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
	rl.enabled.Store(true)

	return rl
}

// Wait blocks until a slot is available or the context is cancelled. It
// never rejects; it only delays.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if !rl.enabled.Load() {
		return nil
	}

	start := time.Now()

	if err := rl.limiter.Wait(ctx); err != nil {
		return err
	}

	if waited := time.Since(start); waited >= waitReportThreshold && rl.events != nil {
		rl.events.Publish(pixiv.Event{
			Kind: pixiv.EventRateLimitWait,
			Time: time.Now(),
			Wait: waited,
		})
	}

	return nil
}

// SetEnabled toggles the limiter.
func (rl *RateLimiter) SetEnabled(enabled bool) {
	rl.enabled.Store(enabled)
}

// setEventSink attaches an event sink for wait reporting.
func (rl *RateLimiter) setEventSink(events pixiv.EventSink) {
	rl.events = events
}
