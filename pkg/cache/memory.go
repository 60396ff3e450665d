package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

// DefaultMaxEntries caps the in-memory map.
const DefaultMaxEntries = 10000

// evictFraction is the share of entries dropped, soonest expiry first, when
// the map is still full after purging expired entries.
const evictFraction = 0.2

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryBackend is a bounded map with per-entry expiry.
//
// It is safe for concurrent use.
type MemoryBackend struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	maxEntries int
	now        func() time.Time
}

// MemoryBackendConfig configures the in-memory backend.
type MemoryBackendConfig struct {
	// MaxEntries bounds the map. Default: 10,000
	MaxEntries int

	// Now overrides the clock. Default: time.Now
	Now func() time.Time
}

// NewMemoryBackend creates an in-memory backend with default settings.
func NewMemoryBackend() *MemoryBackend {
	return NewMemoryBackendWithConfig(MemoryBackendConfig{})
}

// NewMemoryBackendWithConfig creates an in-memory backend.
func NewMemoryBackendWithConfig(cfg MemoryBackendConfig) *MemoryBackend {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &MemoryBackend{
		entries:    make(map[string]memoryEntry),
		maxEntries: cfg.MaxEntries,
		now:        cfg.Now,
	}
}

// Get returns the value for key if present and unexpired.
func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

// SetEX stores value under key for ttl, evicting if the map is full.
func (m *MemoryBackend) SetEX(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.evictLocked(now)
	}
	m.entries[key] = memoryEntry{value: value, expiresAt: now.Add(ttl)}
	return nil
}

// evictLocked drops expired entries, then the soonest-expiring 20% if the
// map is still full.
func (m *MemoryBackend) evictLocked(now time.Time) {
	m.purgeLocked(now)
	if len(m.entries) < m.maxEntries {
		return
	}

	type keyed struct {
		key       string
		expiresAt time.Time
	}
	all := make([]keyed, 0, len(m.entries))
	for k, e := range m.entries {
		all = append(all, keyed{k, e.expiresAt})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].expiresAt.Before(all[j].expiresAt) })

	n := int(float64(len(all))*evictFraction + 0.999999)
	if n < 1 {
		n = 1
	}
	for _, k := range all[:n] {
		delete(m.entries, k.key)
	}
}

func (m *MemoryBackend) purgeLocked(now time.Time) int {
	removed := 0
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
			removed++
		}
	}
	return removed
}

// PurgeExpired removes every expired entry and returns how many were dropped.
func (m *MemoryBackend) PurgeExpired(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.purgeLocked(m.now()), nil
}

// Len returns the number of stored entries, including expired ones not yet
// purged.
func (m *MemoryBackend) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Close drops all entries.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]memoryEntry)
	return nil
}
