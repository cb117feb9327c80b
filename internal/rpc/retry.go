package rpc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/goran-ethernal/ChainDemux/pkg/config"
)

const backoffJitter = 0.25

// transientMessages are fragments of node or proxy error messages worth another attempt:
// timeouts, rate limiting, gateway failures and exhausted connection pools.
var transientMessages = []string{
	"timeout",
	"deadline exceeded",
	"429",
	"too many requests",
	"rate limit",
	"502",
	"503",
	"504",
	"bad gateway",
	"service unavailable",
	"connection pool",
	"no available connection",
}

// retryableError reports whether err is transient. Anything else, such as a missing header or an
// invalid request, fails the block source call immediately.
func retryableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	for _, errno := range []syscall.Errno{syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.EPIPE} {
		if errors.Is(err, errno) {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, fragment := range transientMessages {
		if strings.Contains(msg, fragment) {
			return true
		}
	}

	return false
}

// calculateBackoff returns the wait before the given attempt: nothing before the first one, then
// InitialBackoff growing by BackoffMultiplier, capped at MaxBackoff, with ±25% jitter.
func calculateBackoff(attempt int, cfg *config.RetryConfig) time.Duration {
	if attempt <= 1 {
		return 0
	}

	base := float64(cfg.InitialBackoff.Duration) * math.Pow(cfg.BackoffMultiplier, float64(attempt-2))
	base = math.Min(base, float64(cfg.MaxBackoff.Duration))

	jittered := base * (1 - backoffJitter + rand.Float64()*2*backoffJitter)

	return time.Duration(math.Max(jittered, 0))
}

// retryWithBackoff runs fn until it succeeds, fails with a non-transient error, runs out of
// attempts or ctx is done. A nil cfg runs fn once.
func retryWithBackoff(ctx context.Context, cfg *config.RetryConfig, operation string, fn func() error) error {
	if cfg == nil {
		return fn()
	}

	started := time.Now()

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if wait := calculateBackoff(attempt, cfg); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("context cancelled during backoff (attempt %d/%d): %w",
					attempt-1, cfg.MaxAttempts, ctx.Err())
			}
		}

		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context cancelled before attempt %d: %w", attempt, err)
		}

		if attempt > 1 {
			RPCRetryInc(operation)
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !retryableError(lastErr) {
			return fmt.Errorf("non-retryable error on attempt %d/%d: %w", attempt, cfg.MaxAttempts, lastErr)
		}
	}

	return fmt.Errorf("all %d attempts failed after %v (last error: %w)",
		cfg.MaxAttempts, time.Since(started), lastErr)
}
