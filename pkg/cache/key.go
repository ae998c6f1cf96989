package cache

import "strings"

// Key identifies a cached record: one entity of one kind.
type Key struct {
	// Kind is the entity type (metadata.KindVideo or metadata.KindChannel).
	Kind string

	// ID is the upstream entity ID.
	ID string
}

// String generates a deterministic cache key string.
// Format: yth:kind:id
//
// Example:
//
//	yth:video:dQw4w9WgXcQ
func (k Key) String() string {
	return strings.Join([]string{"yth", k.Kind, k.ID}, ":")
}

// Valid reports whether both kind and ID are present. Backends reject
// writes for invalid keys so a stray empty ID cannot shadow real entries.
func (k Key) Valid() bool {
	return k.Kind != "" && k.ID != ""
}
