package fetch

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	fetchRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hydrator_fetch_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"class"})

	fetchRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hydrator_fetch_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"class"})

	fetchRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hydrator_fetch_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"class"})
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the
	// initial one).
	MaxAttempts int

	// InitialBackoff is the backoff after the first failed attempt.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential growth.
	MaxBackoff time.Duration

	// BackoffMultiplier is the exponential growth factor.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// BackoffFor returns the backoff to wait after the given 1-based attempt,
// before jitter. Growth is exponential and capped at MaxBackoff.
func (c RetryConfig) BackoffFor(attempt int) time.Duration {
	backoff := float64(c.InitialBackoff)
	for i := 1; i < attempt; i++ {
		backoff *= c.BackoffMultiplier
		if backoff >= float64(c.MaxBackoff) {
			return c.MaxBackoff
		}
	}
	if backoff > float64(c.MaxBackoff) {
		return c.MaxBackoff
	}
	return time.Duration(backoff)
}

// withJitter spreads a backoff by ±20% to prevent thundering herds.
func withJitter(d time.Duration) time.Duration {
	return time.Duration(float64(d) * (0.8 + rand.Float64()*0.4))
}

// retryWithBackoff executes fn until it succeeds, fails permanently, or
// exhausts the attempt budget. Each error is classified fresh; only
// transient and rate-limit errors are retried.
func retryWithBackoff(ctx context.Context, cfg RetryConfig, logger zerolog.Logger, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Int("attempt", attempt).
					Msg("fetch succeeded after retry")
			}
			return nil
		}

		lastErr = err
		class := Classify(err)

		if !shouldRetry(class) {
			return err
		}

		if attempt >= cfg.MaxAttempts {
			break
		}

		fetchRetriesTotal.WithLabelValues(string(class)).Inc()

		backoff := withJitter(cfg.BackoffFor(attempt))
		fetchRetryBackoffSeconds.WithLabelValues(string(class)).Observe(backoff.Seconds())

		logger.Debug().
			Str("class", string(class)).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("retrying fetch after backoff")

		select {
		case <-ctx.Done():
			logger.Warn().
				Str("class", string(class)).
				Int("attempt", attempt).
				Msg("context cancelled during retry backoff")
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-time.After(backoff):
		}
	}

	class := Classify(lastErr)
	fetchRetryExhaustedTotal.WithLabelValues(string(class)).Inc()
	logger.Warn().
		Str("class", string(class)).
		Int("max_attempts", cfg.MaxAttempts).
		Msg("retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, cfg.MaxAttempts, lastErr)
}
