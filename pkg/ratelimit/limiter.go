package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var zyteLimiterWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "zyte_rate_limit_wait_seconds",
	Help:    "Time spent waiting for the outbound request limiter",
	Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10},
})

// Limiter paces outbound requests with a token bucket.
// A nil Limiter, or one created with rps <= 0, never waits.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter creates a limiter allowing rps requests per second with the given burst.
func NewLimiter(rps float64, burst int) *Limiter {
	if rps <= 0 {
		return &Limiter{}
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until a request may be sent.
// Returns an error if the context is canceled before the wait completes.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.limiter == nil {
		return nil
	}

	start := time.Now()
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	zyteLimiterWaitSeconds.Observe(time.Since(start).Seconds())
	return nil
}

// Unlimited reports whether the limiter never waits.
func (l *Limiter) Unlimited() bool {
	return l == nil || l.limiter == nil
}
