package providers

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter paces outgoing provider requests.
type RateLimiter struct {
	limiter *rate.Limiter

	totalConsumed atomic.Int64
	totalWaited   atomic.Int64 // nanoseconds
}

// RateLimiterStatus reports current limiter state.
type RateLimiterStatus struct {
	RequestsPerSecond float64       `json:"requests_per_second"`
	Burst             int           `json:"burst"`
	TokensAvailable   float64       `json:"tokens_available"`
	TotalConsumed     int64         `json:"total_consumed"`
	TotalWaited       time.Duration `json:"total_waited"`
}

// NewRateLimiter allows rps requests per second with a burst of at least
// one. rps <= 0 disables limiting.
func NewRateLimiter(rps float64) *RateLimiter {
	if rps <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until a request may proceed or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	start := time.Now()
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	r.totalConsumed.Add(1)
	r.totalWaited.Add(int64(time.Since(start)))
	return nil
}

// Status returns a snapshot of the limiter.
func (r *RateLimiter) Status() RateLimiterStatus {
	s := RateLimiterStatus{
		Burst:         r.limiter.Burst(),
		TotalConsumed: r.totalConsumed.Load(),
		TotalWaited:   time.Duration(r.totalWaited.Load()),
	}
	// Unlimited reports zeros; +Inf does not encode as JSON.
	if r.limiter.Limit() != rate.Inf {
		s.RequestsPerSecond = float64(r.limiter.Limit())
		s.TokensAvailable = r.limiter.Tokens()
	}
	return s
}
