// Package retry implements the apply-failure backoff loop used by the
// restore pipeline: retry_backoff ** attempt seconds between attempts, up to
// max_retries attempts, grounded on the teacher's rate limiter backoff math
// (internal/security/ratelimit.go, calculateDelay) but driven off attempt
// count rather than request rate.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Policy configures the backoff loop.
type Policy struct {
	MaxRetries int // total attempts allowed, including the first
	BaseDelay  int // base seconds; Delay(n) = BaseDelay ** n
}

// Delay returns the sleep duration before attempt n (1-indexed: the sleep
// preceding the second attempt is Delay(1)).
func (p Policy) Delay(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	seconds := math.Pow(float64(p.BaseDelay), float64(attempt))
	return time.Duration(seconds * float64(time.Second))
}

// Do runs fn, retrying with exponential backoff on error until it succeeds,
// MaxRetries is exhausted, or ctx is cancelled. The last error is wrapped and
// returned if every attempt fails.
func Do(ctx context.Context, p Policy, fn func(attempt int) error) error {
	var lastErr error
	attempts := p.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		delay := p.Delay(attempt)
		if delay <= 0 {
			continue
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("exhausted %d attempt(s): %w", attempts, lastErr)
}
