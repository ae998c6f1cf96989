package cache

import (
	"time"

	"github.com/plexutils/youtube-hydrator/pkg/metadata"
)

// Entry is a cached metadata record with its expiry deadline.
type Entry struct {
	// Record is the hydrated metadata.
	Record metadata.Record `json:"record"`

	// StoredAt is when the entry was written.
	StoredAt time.Time `json:"stored_at"`

	// Expires is when the entry becomes stale.
	Expires time.Time `json:"expires"`
}

// NewEntry wraps a record with a TTL measured from now.
func NewEntry(rec metadata.Record, ttl time.Duration) *Entry {
	now := time.Now().UTC()
	return &Entry{
		Record:   rec,
		StoredAt: now,
		Expires:  now.Add(ttl),
	}
}

// IsExpired returns true if the entry has passed its deadline.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
