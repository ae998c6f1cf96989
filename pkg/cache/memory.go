package cache

import (
	"context"
	"fmt"
	"sync"
)

const backendMemory = "memory"

// Memory is an in-process Store backed by a mutex-guarded map. It is the
// default backend for single-shot runs where persistence is not needed.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]*Entry),
	}
}

// Get retrieves an entry by key.
// Returns ErrCacheMiss if the key doesn't exist or the entry is expired.
func (m *Memory) Get(_ context.Context, key Key) (*Entry, error) {
	m.mu.RLock()
	entry, ok := m.entries[key.String()]
	m.mu.RUnlock()

	if !ok {
		CacheMisses.WithLabelValues(backendMemory).Inc()
		return nil, ErrCacheMiss
	}

	if entry.IsExpired() {
		m.mu.Lock()
		delete(m.entries, key.String())
		m.mu.Unlock()
		CacheExpired.WithLabelValues(backendMemory).Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues(backendMemory).Inc()
	return copyEntry(entry), nil
}

// Set stores an entry. Expired entries are silently skipped.
func (m *Memory) Set(_ context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}
	if !key.Valid() {
		return ErrInvalidKey
	}
	if entry.TTL() <= 0 {
		return nil
	}

	m.mu.Lock()
	m.entries[key.String()] = copyEntry(entry)
	m.mu.Unlock()
	return nil
}

// Delete removes an entry.
func (m *Memory) Delete(_ context.Context, key Key) error {
	m.mu.Lock()
	delete(m.entries, key.String())
	m.mu.Unlock()
	return nil
}

// Len reports the number of live entries, sweeping out expired ones.
func (m *Memory) Len(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, e := range m.entries {
		if e.IsExpired() {
			delete(m.entries, k)
		}
	}
	return len(m.entries), nil
}

// Close is a no-op for the in-memory backend.
func (m *Memory) Close() error {
	return nil
}

// copyEntry detaches an entry from store internals. The record's field map
// is cloned so neither side can mutate the other.
func copyEntry(e *Entry) *Entry {
	out := *e
	out.Record = e.Record.Clone()
	return &out
}
