package hydrate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/plexutils/youtube-hydrator/pkg/cache"
	"github.com/plexutils/youtube-hydrator/pkg/fetch"
	"github.com/plexutils/youtube-hydrator/pkg/metadata"
	"github.com/plexutils/youtube-hydrator/pkg/ratelimit"
)

// fakeSource resolves any id that does not start with "!" and records
// every batch it receives.
type fakeSource struct {
	mu      sync.Mutex
	batches [][]string

	batchSize int
	cost      int64
	fetch     func(ids []string) (map[string]metadata.Record, error)
}

func newFakeSource() *fakeSource {
	return &fakeSource{batchSize: 2, cost: 1}
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Kind() string { return metadata.KindVideo }

func (f *fakeSource) MaxBatchSize() int { return f.batchSize }

func (f *fakeSource) BatchCost(n int) int64 { return f.cost }

func (f *fakeSource) Validate(id string) error {
	if id == "" || strings.HasPrefix(id, "!") {
		return fmt.Errorf("invalid id %q", id)
	}
	return nil
}

func (f *fakeSource) FetchBatch(ctx context.Context, ids []string) (map[string]metadata.Record, error) {
	f.mu.Lock()
	f.batches = append(f.batches, append([]string(nil), ids...))
	f.mu.Unlock()

	if f.fetch != nil {
		return f.fetch(ids)
	}
	out := make(map[string]metadata.Record, len(ids))
	for _, id := range ids {
		out[id] = metadata.NewRecord(metadata.KindVideo, id, map[string]string{"title": "Title " + id})
	}
	return out, nil
}

func (f *fakeSource) calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.batches))
	for i, b := range f.batches {
		out[i] = append([]string(nil), b...)
	}
	return out
}

func newTestLimiter(t *testing.T, budget int64) *ratelimit.Limiter {
	t.Helper()
	return ratelimit.New(ratelimit.Config{Budget: budget, Window: time.Hour}, zerolog.Nop())
}

func newTestPipeline(t *testing.T, cfg Config) *Pipeline {
	t.Helper()
	if cfg.Limiter == nil {
		cfg.Limiter = newTestLimiter(t, 1000)
	}
	if cfg.TTL == 0 {
		cfg.TTL = time.Hour
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = fetch.RetryConfig{
			MaxAttempts:       1,
			InitialBackoff:    time.Millisecond,
			MaxBackoff:        5 * time.Millisecond,
			BackoffMultiplier: 2.0,
		}
	}
	cfg.Logger = zerolog.Nop()

	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func TestNewValidation(t *testing.T) {
	src := newFakeSource()

	if _, err := New(Config{Limiter: newTestLimiter(t, 10)}); err == nil {
		t.Error("expected error for missing source")
	}
	if _, err := New(Config{Source: src}); err == nil {
		t.Error("expected error for missing limiter")
	}
	if _, err := New(Config{Source: src, Limiter: newTestLimiter(t, 10)}); err != nil {
		t.Errorf("New() with nil cache error = %v, want default store", err)
	}
}

func TestHydrateOrderWithDuplicates(t *testing.T) {
	src := newFakeSource()
	p := newTestPipeline(t, Config{Source: src, Concurrency: 1})

	result, err := p.Hydrate(context.Background(), []string{"a", "b", "a", "c"})
	if err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}

	wantIDs := []string{"a", "b", "a", "c"}
	if len(result.Records) != len(wantIDs) {
		t.Fatalf("got %d records, want %d", len(result.Records), len(wantIDs))
	}
	for i, id := range wantIDs {
		rec := result.Records[i]
		if rec.ID != id {
			t.Errorf("records[%d].ID = %q, want %q", i, rec.ID, id)
		}
		if rec.Status != metadata.StatusOK {
			t.Errorf("records[%d].Status = %q, want %q", i, rec.Status, metadata.StatusOK)
		}
		if got := rec.Field("title"); got != "Title "+id {
			t.Errorf("records[%d] title = %q, want %q", i, got, "Title "+id)
		}
	}

	// Both occurrences of "a" resolve to the same fetch.
	if !result.Records[0].FetchedAt.Equal(result.Records[2].FetchedAt) {
		t.Error("duplicate positions should share one fetched record")
	}

	calls := src.calls()
	if len(calls) != 2 {
		t.Fatalf("got %d batches, want 2: %v", len(calls), calls)
	}
	if !equalBatch(calls[0], []string{"a", "b"}) || !equalBatch(calls[1], []string{"c"}) {
		t.Errorf("batches = %v, want [[a b] [c]]", calls)
	}

	stats := result.Stats
	if stats.Inputs != 4 || stats.Unique != 3 {
		t.Errorf("Inputs/Unique = %d/%d, want 4/3", stats.Inputs, stats.Unique)
	}
	if stats.CacheMisses != 3 || stats.Fetched != 3 {
		t.Errorf("CacheMisses/Fetched = %d/%d, want 3/3", stats.CacheMisses, stats.Fetched)
	}
	if stats.Batches != 2 || stats.APICalls != 2 || stats.QuotaUsed != 2 {
		t.Errorf("Batches/APICalls/QuotaUsed = %d/%d/%d, want 2/2/2",
			stats.Batches, stats.APICalls, stats.QuotaUsed)
	}
}

func TestHydrateIdempotentWithinTTL(t *testing.T) {
	src := newFakeSource()
	store := cache.NewMemory()
	defer store.Close()
	p := newTestPipeline(t, Config{Source: src, Cache: store, Concurrency: 1})

	ids := []string{"a", "b", "c"}
	if _, err := p.Hydrate(context.Background(), ids); err != nil {
		t.Fatalf("first Hydrate() error = %v", err)
	}
	firstCalls := len(src.calls())

	result, err := p.Hydrate(context.Background(), ids)
	if err != nil {
		t.Fatalf("second Hydrate() error = %v", err)
	}

	if got := len(src.calls()); got != firstCalls {
		t.Errorf("second run made %d new fetches, want 0", got-firstCalls)
	}
	if result.Stats.CacheHits != 3 {
		t.Errorf("CacheHits = %d, want 3", result.Stats.CacheHits)
	}
	for i, rec := range result.Records {
		if rec.Status != metadata.StatusOK {
			t.Errorf("records[%d].Status = %q, want ok", i, rec.Status)
		}
	}
}

func TestHydrateExpiredEntryRefetched(t *testing.T) {
	src := newFakeSource()
	store := cache.NewMemory()
	defer store.Close()
	p := newTestPipeline(t, Config{Source: src, Cache: store, TTL: 30 * time.Millisecond, Concurrency: 1})

	if _, err := p.Hydrate(context.Background(), []string{"a"}); err != nil {
		t.Fatalf("first Hydrate() error = %v", err)
	}

	time.Sleep(80 * time.Millisecond)

	result, err := p.Hydrate(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("second Hydrate() error = %v", err)
	}

	if got := len(src.calls()); got != 2 {
		t.Errorf("got %d fetches, want 2 (expired entry must be refetched)", got)
	}
	if result.Stats.CacheMisses != 1 {
		t.Errorf("CacheMisses = %d, want 1", result.Stats.CacheMisses)
	}
}

func TestHydrateQuotaImpossibleFailsFast(t *testing.T) {
	src := newFakeSource()
	src.cost = 2
	p := newTestPipeline(t, Config{
		Source:      src,
		Limiter:     newTestLimiter(t, 1),
		Concurrency: 1,
	})

	result, err := p.Hydrate(context.Background(), []string{"a", "b", "a", "c"})
	if !errors.Is(err, ratelimit.ErrQuotaExceeded) {
		t.Fatalf("Hydrate() error = %v, want ErrQuotaExceeded", err)
	}

	if got := len(src.calls()); got != 0 {
		t.Errorf("made %d network calls, want 0", got)
	}
	if result == nil {
		t.Fatal("result should be returned alongside the error")
	}
	if len(result.Records) != 4 {
		t.Fatalf("got %d records, want 4", len(result.Records))
	}
	for i, rec := range result.Records {
		if rec.Status != metadata.StatusError {
			t.Errorf("records[%d].Status = %q, want error", i, rec.Status)
		}
		if rec.Err == "" {
			t.Errorf("records[%d].Err is empty", i)
		}
	}
	if result.Stats.APICalls != 0 || result.Stats.QuotaUsed != 0 {
		t.Errorf("APICalls/QuotaUsed = %d/%d, want 0/0",
			result.Stats.APICalls, result.Stats.QuotaUsed)
	}
}

func TestHydratePartialBatchFailureIsolation(t *testing.T) {
	src := newFakeSource()
	src.fetch = func(ids []string) (map[string]metadata.Record, error) {
		for _, id := range ids {
			if id == "c" {
				return nil, &fetch.APIError{
					StatusCode: 400,
					Class:      fetch.ClassPermanent,
					Message:    "bad request",
				}
			}
		}
		out := make(map[string]metadata.Record, len(ids))
		for _, id := range ids {
			out[id] = metadata.NewRecord(metadata.KindVideo, id, nil)
		}
		return out, nil
	}
	p := newTestPipeline(t, Config{Source: src, Concurrency: 3})

	result, err := p.Hydrate(context.Background(), []string{"a", "b", "c", "d"})
	if err != nil {
		t.Fatalf("Hydrate() error = %v, batch failure must not abort the run", err)
	}

	wantStatus := map[string]metadata.Status{
		"a": metadata.StatusOK,
		"b": metadata.StatusOK,
		"c": metadata.StatusError,
		"d": metadata.StatusError,
	}
	for i, rec := range result.Records {
		if rec.Status != wantStatus[rec.ID] {
			t.Errorf("records[%d] (%s) status = %q, want %q", i, rec.ID, rec.Status, wantStatus[rec.ID])
		}
	}
	if result.Stats.Fetched != 2 || result.Stats.Failed != 2 {
		t.Errorf("Fetched/Failed = %d/%d, want 2/2", result.Stats.Fetched, result.Stats.Failed)
	}
}

func TestHydrateFailedBatchNotCached(t *testing.T) {
	src := newFakeSource()
	failing := true
	src.fetch = func(ids []string) (map[string]metadata.Record, error) {
		if failing {
			return nil, &fetch.APIError{StatusCode: 400, Class: fetch.ClassPermanent, Message: "bad request"}
		}
		out := make(map[string]metadata.Record, len(ids))
		for _, id := range ids {
			out[id] = metadata.NewRecord(metadata.KindVideo, id, nil)
		}
		return out, nil
	}
	store := cache.NewMemory()
	defer store.Close()
	p := newTestPipeline(t, Config{Source: src, Cache: store, Concurrency: 1})

	if _, err := p.Hydrate(context.Background(), []string{"a"}); err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}

	// Error records are not cached, so the next run fetches again.
	failing = false
	result, err := p.Hydrate(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("second Hydrate() error = %v", err)
	}
	if result.Records[0].Status != metadata.StatusOK {
		t.Errorf("Status = %q, want ok after retry run", result.Records[0].Status)
	}
	if got := len(src.calls()); got != 2 {
		t.Errorf("got %d fetches, want 2", got)
	}
}

func TestHydrateNotFoundCached(t *testing.T) {
	src := newFakeSource()
	src.fetch = func(ids []string) (map[string]metadata.Record, error) {
		out := make(map[string]metadata.Record, len(ids))
		for _, id := range ids {
			if id == "x" {
				continue // upstream has no record for x
			}
			out[id] = metadata.NewRecord(metadata.KindVideo, id, nil)
		}
		return out, nil
	}
	store := cache.NewMemory()
	defer store.Close()
	p := newTestPipeline(t, Config{Source: src, Cache: store, Concurrency: 1})

	result, err := p.Hydrate(context.Background(), []string{"a", "x"})
	if err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}
	if result.Records[1].Status != metadata.StatusNotFound {
		t.Fatalf("Status = %q, want not_found", result.Records[1].Status)
	}
	if result.Stats.NotFound != 1 {
		t.Errorf("NotFound = %d, want 1", result.Stats.NotFound)
	}

	// The not_found outcome is cached like any other.
	fetches := len(src.calls())
	second, err := p.Hydrate(context.Background(), []string{"x"})
	if err != nil {
		t.Fatalf("second Hydrate() error = %v", err)
	}
	if second.Records[0].Status != metadata.StatusNotFound {
		t.Errorf("Status = %q, want not_found from cache", second.Records[0].Status)
	}
	if got := len(src.calls()); got != fetches {
		t.Errorf("second run made %d new fetches, want 0", got-fetches)
	}
}

func TestHydrateAdmitPerBatch(t *testing.T) {
	src := newFakeSource()
	limiter := newTestLimiter(t, 1000)
	p := newTestPipeline(t, Config{Source: src, Limiter: limiter, Concurrency: 3})

	ids := []string{"a", "b", "c", "d", "e"}
	result, err := p.Hydrate(context.Background(), ids)
	if err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}

	wantBatches := BatchCount(len(ids), src.batchSize)
	if result.Stats.Batches != wantBatches {
		t.Errorf("Batches = %d, want %d", result.Stats.Batches, wantBatches)
	}
	if result.Stats.APICalls != wantBatches {
		t.Errorf("APICalls = %d, want %d", result.Stats.APICalls, wantBatches)
	}
	if got := limiter.State().Used; got != int64(wantBatches) {
		t.Errorf("limiter Used = %d, want %d (one admit per batch)", got, wantBatches)
	}
}

func TestHydrateInvalidIDs(t *testing.T) {
	src := newFakeSource()
	p := newTestPipeline(t, Config{Source: src, Concurrency: 1})

	result, err := p.Hydrate(context.Background(), []string{"a", "", "!bad", "a"})
	if err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}

	if result.Records[1].Status != metadata.StatusError {
		t.Errorf("empty id status = %q, want error", result.Records[1].Status)
	}
	if result.Records[2].Status != metadata.StatusError {
		t.Errorf("invalid id status = %q, want error", result.Records[2].Status)
	}
	if result.Stats.Invalid != 2 {
		t.Errorf("Invalid = %d, want 2", result.Stats.Invalid)
	}

	calls := src.calls()
	if len(calls) != 1 || !equalBatch(calls[0], []string{"a"}) {
		t.Errorf("batches = %v, want [[a]] (invalid ids never reach the network)", calls)
	}
}

func TestHydrateCancelledBeforeFetch(t *testing.T) {
	src := newFakeSource()
	p := newTestPipeline(t, Config{Source: src, Concurrency: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := p.Hydrate(ctx, []string{"a", "b"})
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	for i, rec := range result.Records {
		if rec.Status != metadata.StatusError {
			t.Errorf("records[%d].Status = %q, want error", i, rec.Status)
		}
	}
}

func TestHydrateCancelledAllCached(t *testing.T) {
	src := newFakeSource()
	store := cache.NewMemory()
	defer store.Close()
	p := newTestPipeline(t, Config{Source: src, Cache: store, Concurrency: 1})

	if _, err := p.Hydrate(context.Background(), []string{"a"}); err != nil {
		t.Fatalf("warm-up Hydrate() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// No suspension point is reached when everything is cached.
	result, err := p.Hydrate(ctx, []string{"a"})
	if err != nil {
		t.Fatalf("Hydrate() error = %v, want nil for all-cached run", err)
	}
	if result.Records[0].Status != metadata.StatusOK {
		t.Errorf("Status = %q, want ok", result.Records[0].Status)
	}
}

// flakyStore fails reads but passes writes through.
type flakyStore struct {
	cache.Store
	getErr error
}

func (s *flakyStore) Get(ctx context.Context, key cache.Key) (*cache.Entry, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.Store.Get(ctx, key)
}

func TestHydrateCacheReadErrorDegradesToMiss(t *testing.T) {
	src := newFakeSource()
	store := &flakyStore{Store: cache.NewMemory(), getErr: errors.New("backend down")}
	p := newTestPipeline(t, Config{Source: src, Cache: store, Concurrency: 1})

	result, err := p.Hydrate(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("Hydrate() error = %v, cache read failure must not abort", err)
	}
	if result.Records[0].Status != metadata.StatusOK {
		t.Errorf("Status = %q, want ok via network", result.Records[0].Status)
	}
	if got := len(src.calls()); got != 1 {
		t.Errorf("got %d fetches, want 1", got)
	}
}

func TestHydrateEmptyInput(t *testing.T) {
	src := newFakeSource()
	p := newTestPipeline(t, Config{Source: src})

	result, err := p.Hydrate(context.Background(), nil)
	if err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}
	if len(result.Records) != 0 {
		t.Errorf("got %d records, want 0", len(result.Records))
	}
	if got := len(src.calls()); got != 0 {
		t.Errorf("made %d fetches, want 0", got)
	}
}

func equalBatch(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
