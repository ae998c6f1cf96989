package hydrate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/plexutils/youtube-hydrator/pkg/cache"
	"github.com/plexutils/youtube-hydrator/pkg/fetch"
	"github.com/plexutils/youtube-hydrator/pkg/metadata"
	"github.com/plexutils/youtube-hydrator/pkg/ratelimit"
)

// Defaults applied by New when Config leaves them zero.
const (
	DefaultTTL         = 24 * time.Hour
	DefaultConcurrency = 4
)

// Config holds pipeline dependencies and tuning.
type Config struct {
	// Source resolves metadata batches. Required.
	Source fetch.Source

	// Cache stores hydrated records between runs. Nil defaults to an
	// in-process memory store.
	Cache cache.Store

	// Limiter gates every batch before it reaches the network. Required.
	Limiter *ratelimit.Limiter

	// TTL bounds how long cached records are served.
	TTL time.Duration

	// Concurrency is the number of batch workers.
	Concurrency int

	// Retry tunes the fetch executor's backoff.
	Retry fetch.RetryConfig

	// Logger receives run and batch events.
	Logger zerolog.Logger
}

// Pipeline turns sequences of ids into metadata records: dedup, cache
// partition, batched rate-limited fetching, write-through caching, and
// order reconstruction.
type Pipeline struct {
	source   fetch.Source
	cache    cache.Store
	limiter  *ratelimit.Limiter
	executor *fetch.Executor
	ttl      time.Duration
	workers  int
	logger   zerolog.Logger
}

// Result carries the output records, aligned 1:1 with the input ids, and
// the run statistics.
type Result struct {
	Records []metadata.Record
	Stats   Stats
}

// New creates a pipeline from cfg.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Source == nil {
		return nil, errors.New("hydrate: source is required")
	}
	if cfg.Limiter == nil {
		return nil, errors.New("hydrate: limiter is required")
	}

	store := cfg.Cache
	if store == nil {
		store = cache.NewMemory()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	workers := cfg.Concurrency
	if workers <= 0 {
		workers = DefaultConcurrency
	}

	executor := fetch.NewExecutor(cfg.Source, cfg.Retry, cfg.Logger)
	executor.OnRateLimit = cfg.Limiter.RecordRemoteDenial

	return &Pipeline{
		source:   cfg.Source,
		cache:    store,
		limiter:  cfg.Limiter,
		executor: executor,
		ttl:      ttl,
		workers:  workers,
		logger:   cfg.Logger.With().Str("component", "hydrate").Logger(),
	}, nil
}

// Hydrate resolves ids into one record per input position. Duplicate ids
// are resolved once and their record reused at every occurrence. The
// Result is non-nil even when err is non-nil: on an aborted run every
// position that never resolved carries an error record naming the abort
// reason.
func (p *Pipeline) Hydrate(ctx context.Context, ids []string) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := p.logger.With().Str("run_id", runID).Logger()

	stats := Stats{RunID: runID, Inputs: len(ids)}
	records := make([]metadata.Record, len(ids))

	// Dedup, keeping every occurrence position in first-seen order.
	positions := make(map[string][]int, len(ids))
	unique := make([]string, 0, len(ids))
	for i, id := range ids {
		if _, seen := positions[id]; !seen {
			unique = append(unique, id)
		}
		positions[id] = append(positions[id], i)
	}
	stats.Unique = len(unique)

	// Partition: invalid ids fail without touching cache or network,
	// cache hits fill straight into the arena, the rest are fetched.
	misses := make([]string, 0, len(unique))
	for _, id := range unique {
		if err := p.source.Validate(id); err != nil {
			fill(records, positions[id], metadata.Failed(p.source.Kind(), id, err))
			stats.Invalid++
			continue
		}

		entry, err := p.cache.Get(ctx, cache.Key{Kind: p.source.Kind(), ID: id})
		if err == nil {
			fill(records, positions[id], entry.Record)
			stats.CacheHits++
			continue
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Warn().Err(err).Str("id", id).Msg("cache read failed, treating as miss")
		}
		stats.CacheMisses++
		misses = append(misses, id)
	}

	batches := Batches(misses, p.source.MaxBatchSize())
	stats.Batches = len(batches)

	logger.Debug().
		Int("inputs", stats.Inputs).
		Int("unique", stats.Unique).
		Int("cache_hits", stats.CacheHits).
		Int("batches", stats.Batches).
		Msg("starting hydration run")

	runErr := p.fetchAll(ctx, logger, batches, positions, records, &stats)

	// On an aborted run, account for every id that never resolved.
	if runErr != nil {
		for _, id := range misses {
			if records[positions[id][0]].Status != "" {
				continue
			}
			fill(records, positions[id], metadata.Failed(p.source.Kind(), id, runErr))
			stats.Failed++
		}
	}

	stats.Elapsed = time.Since(start)
	observeRun(records, stats, runErr)
	logSummary(logger, stats, runErr)

	return &Result{Records: records, Stats: stats}, runErr
}

// fetchAll drives batches through a bounded worker pool. Batch failures
// are isolated to their own ids; quota impossibility and cancellation
// abort the run and the first such error is returned.
func (p *Pipeline) fetchAll(ctx context.Context, logger zerolog.Logger, batches [][]string, positions map[string][]int, records []metadata.Record, stats *Stats) error {
	if len(batches) == 0 {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan []string, len(batches))
	for _, batch := range batches {
		jobs <- batch
	}
	close(jobs)

	var (
		mu       sync.Mutex // guards records and stats
		abortMu  sync.Mutex
		abortErr error
	)
	abort := func(err error) {
		abortMu.Lock()
		if abortErr == nil {
			abortErr = err
			cancel()
		}
		abortMu.Unlock()
	}

	workers := p.workers
	if workers > len(batches) {
		workers = len(batches)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range jobs {
				if runCtx.Err() != nil {
					return
				}
				if err := p.processBatch(runCtx, logger, batch, positions, records, stats, &mu); err != nil {
					abort(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	abortMu.Lock()
	defer abortMu.Unlock()
	return abortErr
}

// processBatch admits, fetches, merges, and write-through-caches one
// batch. A returned error is run-fatal; batch-level failures are
// recorded against the batch's own ids and swallowed.
func (p *Pipeline) processBatch(ctx context.Context, logger zerolog.Logger, batch []string, positions map[string][]int, records []metadata.Record, stats *Stats, mu *sync.Mutex) error {
	cost := p.source.BatchCost(len(batch))

	if err := p.limiter.Admit(ctx, cost); err != nil {
		if errors.Is(err, ratelimit.ErrQuotaExceeded) || isCancelled(err) {
			return err
		}
		p.failBatch(logger, batch, err, positions, records, stats, mu)
		return nil
	}

	mu.Lock()
	stats.APICalls++
	stats.QuotaUsed += cost
	mu.Unlock()
	pipelineBatchesTotal.Inc()

	recs, err := p.executor.FetchBatch(ctx, batch)
	if err != nil {
		if isCancelled(err) {
			return err
		}
		p.failBatch(logger, batch, err, positions, records, stats, mu)
		return nil
	}

	for i, id := range batch {
		rec := recs[i]

		mu.Lock()
		fill(records, positions[id], rec)
		switch rec.Status {
		case metadata.StatusOK:
			stats.Fetched++
		case metadata.StatusNotFound:
			stats.NotFound++
		default:
			stats.Failed++
		}
		mu.Unlock()

		// Error records are never cached so a later run retries them.
		if rec.Status == metadata.StatusError {
			continue
		}
		key := cache.Key{Kind: p.source.Kind(), ID: id}
		if err := p.cache.Set(ctx, key, cache.NewEntry(rec, p.ttl)); err != nil {
			logger.Warn().Err(err).Str("id", id).Msg("cache write failed")
		}
	}
	return nil
}

func (p *Pipeline) failBatch(logger zerolog.Logger, batch []string, err error, positions map[string][]int, records []metadata.Record, stats *Stats, mu *sync.Mutex) {
	logger.Warn().Err(err).Int("batch_size", len(batch)).Msg("batch failed")

	mu.Lock()
	defer mu.Unlock()
	for _, id := range batch {
		fill(records, positions[id], metadata.Failed(p.source.Kind(), id, err))
		stats.Failed++
	}
}

// fill writes rec into every position one id occupies.
func fill(records []metadata.Record, at []int, rec metadata.Record) {
	for _, i := range at {
		records[i] = rec
	}
}

func isCancelled(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, fetch.ErrContextCancelled)
}

func observeRun(records []metadata.Record, stats Stats, runErr error) {
	outcome := "ok"
	if runErr != nil {
		outcome = "error"
	}
	pipelineRunsTotal.WithLabelValues(outcome).Inc()
	pipelineDurationSeconds.Observe(stats.Elapsed.Seconds())
	for _, rec := range records {
		pipelineRecordsTotal.WithLabelValues(string(rec.Status)).Inc()
	}
}

func logSummary(logger zerolog.Logger, stats Stats, runErr error) {
	event := logger.Info()
	if runErr != nil {
		event = logger.Error().Err(runErr)
	}
	event.
		Int("inputs", stats.Inputs).
		Int("unique", stats.Unique).
		Int("invalid", stats.Invalid).
		Int("cache_hits", stats.CacheHits).
		Int("cache_misses", stats.CacheMisses).
		Int("fetched", stats.Fetched).
		Int("not_found", stats.NotFound).
		Int("failed", stats.Failed).
		Int("batches", stats.Batches).
		Int("api_calls", stats.APICalls).
		Int64("quota_used", stats.QuotaUsed).
		Dur("elapsed", stats.Elapsed).
		Msg("hydration run complete")
}
