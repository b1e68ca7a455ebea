package client

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
)

// BackoffStrategy selects how the delay grows between attempts.
type BackoffStrategy string

const (
	// BackoffExponential waits InitialBackoff * Multiplier^(attempt-1).
	BackoffExponential BackoffStrategy = "exponential"

	// BackoffLinear waits InitialBackoff * Multiplier * attempt.
	BackoffLinear BackoffStrategy = "linear"
)

// RetryPolicy holds the configuration for retry logic.
type RetryPolicy struct {
	// MaxAttempts is the maximum number of attempts (including the initial request).
	MaxAttempts int

	// InitialBackoff is the base delay.
	InitialBackoff time.Duration

	// MaxBackoff caps every delay. Zero means no cap.
	MaxBackoff time.Duration

	// BackoffMultiplier scales the delay per attempt.
	BackoffMultiplier float64

	// Strategy defaults to BackoffExponential.
	Strategy BackoffStrategy
}

// DefaultRetryPolicy returns the default retry configuration.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       5,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		Strategy:          BackoffExponential,
	}
}

// Backoff returns the delay to wait after the given failed attempt (1-based).
// The result never decreases as attempt grows.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	multiplier := p.BackoffMultiplier
	if multiplier < 1 {
		multiplier = 1
	}

	var delay float64
	switch p.Strategy {
	case BackoffLinear:
		delay = float64(p.InitialBackoff) * multiplier * float64(attempt)
	default:
		delay = float64(p.InitialBackoff) * math.Pow(multiplier, float64(attempt-1))
	}

	if p.MaxBackoff > 0 && delay > float64(p.MaxBackoff) {
		return p.MaxBackoff
	}
	if delay > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(delay)
}

// ShouldRetry decides whether a failure of the given class on the given
// attempt (1-based) is retried, and how long to wait first.
func (p RetryPolicy) ShouldRetry(attempt int, class ErrorClass) (bool, time.Duration) {
	if !class.IsTransient() {
		return false, 0
	}
	if attempt >= p.maxAttempts() {
		return false, 0
	}
	return true, p.Backoff(attempt)
}

func (p RetryPolicy) maxAttempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Retry runs fn until it succeeds, fails terminally, or the policy
// gives up. Attempts are strictly sequential. It returns the number of
// attempts made.
func Retry(ctx context.Context, policy RetryPolicy, logger zerolog.Logger, fn func(attempt int) error) (int, error) {
	var lastErr error

	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return attempt, nil
		}
		lastErr = err
		errClass := ClassOf(err)

		retry, backoff := policy.ShouldRetry(attempt, errClass)
		if !retry {
			if errClass.IsTransient() {
				zyteRetryExhaustedTotal.WithLabelValues(string(errClass)).Inc()
				logger.Error().
					Err(lastErr).
					Str("error_class", string(errClass)).
					Int("max_attempts", policy.maxAttempts()).
					Msg("Retry attempts exhausted")
				return attempt, fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, attempt, lastErr)
			}
			return attempt, lastErr
		}

		zyteRetriesTotal.WithLabelValues(string(errClass)).Inc()
		zyteRetryBackoffSeconds.WithLabelValues(string(errClass)).Observe(backoff.Seconds())

		logger.Warn().
			Err(err).
			Str("error_class", string(errClass)).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("Retrying request after backoff")

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Warn().
				Str("error_class", string(errClass)).
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return attempt, fmt.Errorf("%w: %w (last error: %v)", ErrContextCancelled, ctx.Err(), lastErr)
		case <-timer.C:
		}
	}
}
