package providers

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/avast/retry-go/v4"
)

// RetryPolicy controls how a capability retries failed calls. Every error is
// retried; there is no retryable/non-retryable split.
//
// The wait before the retry that follows failed attempt k (0-based) is
// BaseDelay*2^k plus a jitter in [0, MaxJitter). Nothing waits after the
// final attempt.
type RetryPolicy struct {
	// Attempts is the total number of calls, including the first. Values
	// below 1 are treated as 1.
	Attempts  int
	BaseDelay time.Duration
	MaxJitter time.Duration

	// Timer and Jitter are swapped out in tests.
	Timer  retry.Timer
	Jitter func(max time.Duration) time.Duration

	Logger *slog.Logger
}

// DefaultRetryPolicy waits 2^attempt seconds plus sub-second jitter, three
// attempts in total.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:  3,
		BaseDelay: time.Second,
		MaxJitter: time.Second,
	}
}

// NoRetry makes a single attempt.
func NoRetry() RetryPolicy {
	return RetryPolicy{Attempts: 1}
}

// WithAttempts returns a copy of p with a different attempt count.
func (p RetryPolicy) WithAttempts(n int) RetryPolicy {
	p.Attempts = n
	return p
}

// WithLogger returns a copy of p that logs retries to logger.
func (p RetryPolicy) WithLogger(logger *slog.Logger) RetryPolicy {
	p.Logger = logger
	return p
}

func (p RetryPolicy) attempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

// Backoff returns the wait after failed attempt k (0-based), before jitter.
func (p RetryPolicy) Backoff(k int) time.Duration {
	if k < 0 {
		k = 0
	}
	if k > 30 {
		k = 30
	}
	return p.BaseDelay * time.Duration(1<<uint(k))
}

func (p RetryPolicy) jitter() time.Duration {
	if p.MaxJitter <= 0 {
		return 0
	}
	if p.Jitter != nil {
		return p.Jitter(p.MaxJitter)
	}
	return time.Duration(rand.Int64N(int64(p.MaxJitter)))
}

// Retry runs fn under policy p. fn receives the 0-based attempt index. On
// exhaustion the error is an *ExhaustedError carrying the last cause. A
// cancelled context ends the loop early with the same error type.
// logAttrs are appended to retry log lines.
func Retry[T any](ctx context.Context, p RetryPolicy, fn func(ctx context.Context, attempt int) (T, error), logAttrs ...any) (T, error) {
	limit := p.attempts()
	made := 0
	var lastErr error

	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(uint(limit)),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			// n is 1 for the wait after attempt 0.
			return p.Backoff(int(n)-1) + p.jitter()
		}),
		retry.OnRetry(func(n uint, err error) {
			if p.Logger == nil || int(n) >= limit-1 {
				return
			}
			attrs := append([]any{
				"attempt", int(n) + 1,
				"max_attempts", limit,
				"error", err,
			}, logAttrs...)
			p.Logger.Warn("attempt failed, retrying", attrs...)
		}),
	}
	if p.Timer != nil {
		opts = append(opts, retry.WithTimer(p.Timer))
	}

	out, err := retry.DoWithData(func() (T, error) {
		attempt := made
		made++
		v, err := fn(ctx, attempt)
		if err != nil {
			lastErr = err
		}
		return v, err
	}, opts...)
	if err == nil {
		return out, nil
	}

	var zero T
	cause := lastErr
	if cause == nil {
		cause = err
	}
	return zero, &ExhaustedError{Attempts: made, Err: cause}
}
