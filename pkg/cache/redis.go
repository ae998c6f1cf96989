package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const backendRedis = "redis"

// keyPattern matches every key this store writes; Len scans with it.
const keyPattern = "yth:*"

// Redis is a Store backed by a Redis server. Expiry rides on Redis TTLs,
// with the embedded Expires field as the lazy check for clock drift
// between writer and reader.
type Redis struct {
	redis *redis.Client
}

// NewRedis creates a Redis-backed store.
func NewRedis(redisClient *redis.Client) *Redis {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Redis{
		redis: redisClient,
	}
}

// Get retrieves an entry by key.
// Returns ErrCacheMiss if the key doesn't exist or the entry is expired.
func (r *Redis) Get(ctx context.Context, key Key) (*Entry, error) {
	data, err := r.redis.Get(ctx, key.String()).Bytes()
	if err != nil {
		if err == redis.Nil {
			CacheMisses.WithLabelValues(backendRedis).Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues(backendRedis, "get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues(backendRedis, "get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	if entry.IsExpired() {
		_ = r.Delete(ctx, key)
		CacheExpired.WithLabelValues(backendRedis).Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues(backendRedis).Inc()
	return &entry, nil
}

// Set stores an entry with a Redis TTL derived from its Expires field.
// The entry is automatically removed by Redis when it expires.
func (r *Redis) Set(ctx context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}
	if !key.Valid() {
		return ErrInvalidKey
	}

	ttl := entry.TTL()
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues(backendRedis, "set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := r.redis.Set(ctx, key.String(), data, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues(backendRedis, "set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes an entry.
func (r *Redis) Delete(ctx context.Context, key Key) error {
	if err := r.redis.Del(ctx, key.String()).Err(); err != nil {
		CacheErrors.WithLabelValues(backendRedis, "delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Len reports the number of live entries by scanning the key space.
// Redis evicts expired keys itself, so every match counts as live.
func (r *Redis) Len(ctx context.Context) (int, error) {
	var count int
	iter := r.redis.Scan(ctx, 0, keyPattern, 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		CacheErrors.WithLabelValues(backendRedis, "len").Inc()
		return 0, fmt.Errorf("redis scan: %w", err)
	}
	return count, nil
}

// Close releases the underlying Redis connection.
func (r *Redis) Close() error {
	return r.redis.Close()
}
