package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"
)

// pingTimeout bounds the startup reachability check.
const pingTimeout = 5 * time.Second

// Config configures a Cache.
type Config struct {
	// TTL resolves feature lifetimes. Zero value uses DefaultTTLPolicy(0).
	TTL TTLPolicy

	// MaxEntries bounds the in-memory fallback map. Default: 10,000
	MaxEntries int

	// BackendName labels the external backend in stats and logs.
	BackendName string

	// Now overrides the clock used by the in-memory map.
	Now func() time.Time

	Logger *slog.Logger
}

// Stats is a point-in-time view of cache counters.
type Stats struct {
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	Sets     int64   `json:"sets"`
	Errors   int64   `json:"errors"`
	HitRate  float64 `json:"hit_rate"`
	Degraded bool    `json:"degraded"`
	Backend  string  `json:"backend"`
	Entries  int     `json:"memory_entries"`
}

// Cache maps (prompt, feature) to a serialized response.
//
// It never returns backend errors. When the external backend fails the cache
// flips to the in-memory map and stays there until Recover succeeds. Errors
// caused by the caller's own context being done do not count as failures.
type Cache struct {
	external    Backend
	backendName string
	memory      *MemoryBackend
	degraded    atomic.Bool
	ttl         TTLPolicy
	logger      *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
	errors atomic.Int64
}

// New creates a cache over external. A nil external selects the in-memory
// map without marking the cache degraded. If external implements Pinger and
// the ping fails, the cache starts degraded.
func New(ctx context.Context, cfg Config, external Backend) *Cache {
	if cfg.TTL.Default <= 0 && cfg.TTL.Exact == nil && cfg.TTL.Prefix == nil {
		cfg.TTL = DefaultTTLPolicy(0)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.BackendName == "" {
		cfg.BackendName = "external"
	}

	c := &Cache{
		external:    external,
		backendName: cfg.BackendName,
		memory:      NewMemoryBackendWithConfig(MemoryBackendConfig{MaxEntries: cfg.MaxEntries, Now: cfg.Now}),
		ttl:         cfg.TTL,
		logger:      cfg.Logger.With("component", "cache"),
	}

	if external == nil {
		c.backendName = "memory"
		return c
	}

	if p, ok := external.(Pinger); ok {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := p.Ping(pctx); err != nil {
			c.degrade("ping", err)
		}
	}
	return c
}

// TTL returns the lifetime used for entries under feature.
func (c *Cache) TTL(feature string) time.Duration {
	return c.ttl.TTL(feature)
}

// Degraded reports whether the cache has fallen back from its external
// backend to the in-memory map.
func (c *Cache) Degraded() bool {
	return c.degraded.Load()
}

func (c *Cache) degrade(op string, err error) {
	c.errors.Add(1)
	berr := &BackendError{Backend: c.backendName, Op: op, Err: err}
	if c.degraded.CompareAndSwap(false, true) {
		c.logger.Warn("cache backend unavailable, using in-memory map", "error", berr)
		return
	}
	c.logger.Debug("cache backend error while degraded", "error", berr)
}

// active returns the backend to use for the next call.
func (c *Cache) active() (Backend, bool) {
	if c.external == nil || c.degraded.Load() {
		return c.memory, false
	}
	return c.external, true
}

// Get looks up the serialized value for (prompt, feature).
func (c *Cache) Get(ctx context.Context, prompt, feature string) ([]byte, bool) {
	key := Key(prompt, feature)

	b, external := c.active()
	value, found, err := b.Get(ctx, key)
	if err != nil && external {
		if ctx.Err() != nil {
			// The caller gave up; the backend is not at fault.
			c.misses.Add(1)
			return nil, false
		}
		c.degrade("get", err)
		value, found, _ = c.memory.Get(ctx, key)
	}

	if found {
		c.hits.Add(1)
		return value, true
	}
	c.misses.Add(1)
	return nil, false
}

// Set stores value for (prompt, feature) with the feature's TTL.
func (c *Cache) Set(ctx context.Context, prompt, feature string, value []byte) {
	key := Key(prompt, feature)
	ttl := c.TTL(feature)

	b, external := c.active()
	if err := b.SetEX(ctx, key, value, ttl); err != nil {
		if !external {
			c.errors.Add(1)
			c.logger.Warn("cache set failed", "error", err)
			return
		}
		if ctx.Err() != nil {
			c.logger.Debug("cache set abandoned", "feature", feature, "error", err)
			return
		}
		c.degrade("set", err)
		_ = c.memory.SetEX(ctx, key, value, ttl)
	}
	c.sets.Add(1)
}

// GetJSON decodes a cached value into v. A value that fails to decode is
// treated as a miss.
func (c *Cache) GetJSON(ctx context.Context, prompt, feature string, v any) bool {
	raw, ok := c.Get(ctx, prompt, feature)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		c.errors.Add(1)
		c.logger.Warn("discarding undecodable cache entry", "feature", feature, "error", err)
		return false
	}
	return true
}

// SetJSON encodes v and stores it.
func (c *Cache) SetJSON(ctx context.Context, prompt, feature string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.errors.Add(1)
		c.logger.Warn("cache value not serializable", "feature", feature, "error", err)
		return
	}
	c.Set(ctx, prompt, feature, raw)
}

// Recover pings the external backend and, on success, leaves degraded mode.
// Entries written to the in-memory map while degraded are not migrated.
func (c *Cache) Recover(ctx context.Context) bool {
	if c.external == nil || !c.degraded.Load() {
		return !c.degraded.Load()
	}
	p, ok := c.external.(Pinger)
	if !ok {
		return false
	}
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := p.Ping(pctx); err != nil {
		c.logger.Debug("cache backend still unavailable", "error", err)
		return false
	}
	c.degraded.Store(false)
	c.logger.Info("cache backend recovered", "backend", c.backendName)
	return true
}

// Purge drops expired entries from the in-memory map and, when supported,
// the external backend.
func (c *Cache) Purge(ctx context.Context) (int, error) {
	n, _ := c.memory.PurgeExpired(ctx)

	b, external := c.active()
	if !external {
		return n, nil
	}
	p, ok := b.(Purger)
	if !ok {
		return n, nil
	}
	m, err := p.PurgeExpired(ctx)
	if err != nil {
		return n, &BackendError{Backend: c.backendName, Op: "purge", Err: err}
	}
	return n + m, nil
}

// Stats returns the current counters.
func (c *Cache) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{
		Hits:     hits,
		Misses:   misses,
		Sets:     c.sets.Load(),
		Errors:   c.errors.Load(),
		HitRate:  rate,
		Degraded: c.degraded.Load(),
		Backend:  c.backendName,
		Entries:  c.memory.Len(),
	}
}

// Close releases the external backend.
func (c *Cache) Close() error {
	var errs []error
	if c.external != nil {
		errs = append(errs, c.external.Close())
	}
	errs = append(errs, c.memory.Close())
	return errors.Join(errs...)
}
