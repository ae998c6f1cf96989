// Package fetch executes batched metadata lookups with classified errors
// and exponential backoff. The executor owns the retry loop around a
// Source; callers get back one record per requested ID or a single error
// for the whole batch.
package fetch

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/plexutils/youtube-hydrator/pkg/metadata"
)

// Prometheus metrics for fetch execution.
var (
	fetchBatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hydrator_fetch_batches_total",
		Help: "Total batch fetches by source and outcome",
	}, []string{"source", "status"})

	fetchDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hydrator_fetch_duration_seconds",
		Help:    "Batch fetch duration in seconds by source, retries included",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"source"})

	fetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hydrator_fetch_errors_total",
		Help: "Total fetch attempt errors by source and class",
	}, []string{"source", "class"})

	fetchNotFoundTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hydrator_fetch_not_found_total",
		Help: "Total IDs absent from otherwise successful responses",
	}, []string{"source"})
)

// Executor runs batch fetches against a Source with retry and backoff.
type Executor struct {
	source Source
	retry  RetryConfig
	logger zerolog.Logger

	// OnRateLimit, if set, is called with the upstream's suggested pause
	// whenever a fetch attempt is denied for rate or quota reasons. The
	// pipeline points this at the quota limiter.
	OnRateLimit func(retryAfter time.Duration)
}

// NewExecutor creates an executor. Zero-valued retry fields fall back to
// the defaults.
func NewExecutor(source Source, retry RetryConfig, logger zerolog.Logger) *Executor {
	if source == nil {
		panic("fetch: source cannot be nil")
	}

	defaults := DefaultRetryConfig()
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = defaults.MaxAttempts
	}
	if retry.InitialBackoff <= 0 {
		retry.InitialBackoff = defaults.InitialBackoff
	}
	if retry.MaxBackoff <= 0 {
		retry.MaxBackoff = defaults.MaxBackoff
	}
	if retry.BackoffMultiplier <= 1 {
		retry.BackoffMultiplier = defaults.BackoffMultiplier
	}

	return &Executor{
		source: source,
		retry:  retry,
		logger: logger.With().Str("source", source.Name()).Logger(),
	}
}

// FetchBatch resolves ids through the source and returns one record per
// ID, in input order. IDs the upstream does not return become not_found
// records; partial success is not an error. A non-nil error means the
// whole batch failed after retries.
func (e *Executor) FetchBatch(ctx context.Context, ids []string) ([]metadata.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var fetched map[string]metadata.Record
	start := time.Now()

	err := retryWithBackoff(ctx, e.retry, e.logger, func() error {
		m, err := e.source.FetchBatch(ctx, ids)
		if err != nil {
			class := Classify(err)
			fetchErrorsTotal.WithLabelValues(e.source.Name(), string(class)).Inc()
			if class == ClassRateLimit && e.OnRateLimit != nil {
				e.OnRateLimit(RetryAfter(err))
			}
			return err
		}
		fetched = m
		return nil
	})

	fetchDurationSeconds.WithLabelValues(e.source.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		fetchBatchesTotal.WithLabelValues(e.source.Name(), "error").Inc()
		return nil, err
	}
	fetchBatchesTotal.WithLabelValues(e.source.Name(), "ok").Inc()

	records := make([]metadata.Record, len(ids))
	for i, id := range ids {
		if rec, ok := fetched[id]; ok {
			records[i] = rec
			continue
		}
		records[i] = metadata.NotFound(e.source.Kind(), id)
		fetchNotFoundTotal.WithLabelValues(e.source.Name()).Inc()
	}
	return records, nil
}

// Source returns the executor's source.
func (e *Executor) Source() Source {
	return e.source
}
