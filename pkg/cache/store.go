package cache

import (
	"context"
	"errors"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	// or the stored entry had expired.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted.
	ErrInvalidEntry = errors.New("invalid cache entry")

	// ErrInvalidKey indicates a key with an empty kind or ID.
	ErrInvalidKey = errors.New("invalid cache key")
)

// Store is the cache backend contract. Implementations apply lazy expiry:
// an expired entry reads as ErrCacheMiss and may be evicted on access.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get retrieves an entry. Returns ErrCacheMiss if the key is absent
	// or the entry has expired.
	Get(ctx context.Context, key Key) (*Entry, error)

	// Set stores an entry. Entries that are already expired are silently
	// skipped; there is nothing useful to serve from them.
	Set(ctx context.Context, key Key, entry *Entry) error

	// Delete removes an entry. Deleting an absent key is not an error.
	Delete(ctx context.Context, key Key) error

	// Len reports the number of live (unexpired) entries.
	Len(ctx context.Context) (int, error)

	// Close releases backend resources.
	Close() error
}
