// Package cache provides metadata record caching with pluggable backends.
//
// The cache sits between the hydration pipeline and the YouTube Data API:
// a hit within TTL is served without any network traffic or quota spend.
//
// Features:
//
// - Store interface with memory, Redis, and SQLite backends
// - Lazy expiry: expired entries read as misses and are evicted on access
// - Deterministic cache key generation (kind + ID)
// - Records are cloned on read so callers never alias store internals
// - Prometheus metrics for observability
//
// # Basic Usage
//
//	// In-memory store (default for single runs)
//	store := cache.NewMemory()
//	defer store.Close()
//
//	key := cache.Key{Kind: metadata.KindVideo, ID: "dQw4w9WgXcQ"}
//
//	entry, err := store.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// miss - fetch upstream, then write through
//	}
//
//	rec := metadata.NewRecord(metadata.KindVideo, "dQw4w9WgXcQ", fields)
//	if err := store.Set(ctx, key, cache.NewEntry(rec, 24*time.Hour)); err != nil {
//		return err
//	}
//
// # Persistent Backends
//
//	// SQLite survives across CLI runs
//	store, err := cache.NewSQLite("~/.youtube-hydrator/cache.db")
//
//	// Redis shares records between processes
//	store := cache.NewRedis(redisClient)
//
// # Metrics
//
// The package exports Prometheus metrics:
//
//   - hydrator_cache_hits_total{backend} - hits within TTL
//   - hydrator_cache_misses_total{backend} - misses (absent keys)
//   - hydrator_cache_expired_total{backend} - reads that found an expired entry
//   - hydrator_cache_errors_total{backend,operation} - backend failures
package cache
