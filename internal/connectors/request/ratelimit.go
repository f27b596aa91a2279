package request

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// HeaderRetryAfter is the retry-after header (seconds or HTTP date).
const HeaderRetryAfter = "Retry-After"

// RateLimitConfig holds proactive throttling configuration.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit. Zero disables throttling.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size. Defaults to 1.
	BurstSize int
}

// RateLimiter throttles requests with a token bucket.
// A nil *RateLimiter never blocks.
type RateLimiter struct {
	bucket *rate.Limiter
}

// NewRateLimiter returns a limiter for cfg, or nil when cfg disables throttling.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		return nil
	}
	burst := cfg.BurstSize
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		bucket: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
	}
}

// Wait blocks until a request can be made without exceeding the rate limit.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil {
		return nil
	}
	return r.bucket.Wait(ctx)
}

// MaxRetryWait caps any single backoff, including a server supplied
// Retry-After.
const MaxRetryWait = time.Hour

// parseRetryAfter extracts the Retry-After header value.
// Returns the wait and true when the header is present and parseable.
// Waits longer than MaxRetryWait are capped.
func parseRetryAfter(header http.Header) (time.Duration, bool) {
	retryAfter := header.Get(HeaderRetryAfter)
	if retryAfter == "" {
		return 0, false
	}

	if seconds, err := strconv.ParseFloat(retryAfter, 64); err == nil && seconds >= 0 {
		if seconds >= MaxRetryWait.Seconds() {
			return MaxRetryWait, true
		}
		return time.Duration(seconds * float64(time.Second)), true
	}

	if t, err := http.ParseTime(retryAfter); err == nil {
		return min(max(time.Until(t), 0), MaxRetryWait), true
	}

	return 0, false
}

// scaleBackoff returns base times attempt, saturating at MaxRetryWait.
func scaleBackoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 || attempt <= 0 {
		return 0
	}
	if base >= MaxRetryWait/time.Duration(attempt) {
		return MaxRetryWait
	}
	return base * time.Duration(attempt)
}
