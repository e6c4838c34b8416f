package http

import (
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

// calculateBackoff computes the wait before retry attempt n using
// exponential growth with full jitter, so concurrently retrying callers
// spread out instead of resending in lockstep.
func calculateBackoff(attempt int, base, maxWait time.Duration) time.Duration {
	if base <= 0 {
		base = time.Second
	}

	if maxWait <= 0 {
		maxWait = 30 * time.Second
	}

	backoff := float64(base) * math.Pow(2, float64(attempt))
	if backoff > float64(maxWait) {
		backoff = float64(maxWait)
	}

	return time.Duration(rand.Float64() * backoff) //nolint:gosec // jitter, not crypto
}

// retryAfter extracts the Retry-After delay from a 429 response, either
// as a second count or an HTTP date. Zero means the header was absent or
// unusable.
func retryAfter(header http.Header) time.Duration {
	value := header.Get("Retry-After")
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}

	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}

	return 0
}
