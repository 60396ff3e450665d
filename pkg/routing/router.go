package routing

import (
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// Selection is the outcome of a routing decision.
type Selection struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Tier     Tier   `json:"tier"`
}

type healthRecord struct {
	healthy        bool
	unhealthyUntil time.Time
}

// Router performs health-aware weighted provider selection.
//
// Router is safe for concurrent use. The health map and the random source
// are guarded by one mutex, so a MarkUnhealthy that happens-before a Select
// is always observed by it.
type Router struct {
	cfg Config

	mu     sync.Mutex
	rng    *rand.Rand
	health map[string]*healthRecord

	now    func() time.Time
	stats  *AtomicRoutingStats
	logger *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithRand injects the random source used for weighted draws.
func WithRand(rng *rand.Rand) Option {
	return func(r *Router) { r.rng = rng }
}

// WithSeed seeds a deterministic PCG random source.
func WithSeed(seed uint64) Option {
	return func(r *Router) { r.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithClock injects the time source used for health expiry.
func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

// WithLogger sets the router logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) { r.logger = logger }
}

// New validates cfg and creates a Router.
func New(cfg Config, opts ...Option) (*Router, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Router{
		cfg:    cfg,
		health: make(map[string]*healthRecord),
		now:    time.Now,
		stats:  NewAtomicRoutingStats(),
		logger: slog.Default().With("component", "router"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		seed := uint64(time.Now().UnixNano())
		r.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}

	return r, nil
}

// Config returns the routing tables.
func (r *Router) Config() Config {
	return r.cfg
}

// Select chooses a provider and model for tier.
func (r *Router) Select(tier Tier) (Selection, error) {
	candidates := r.candidates(tier)
	if len(candidates) == 0 {
		r.stats.IncrementErrors()
		return Selection{}, fmt.Errorf("%w: tier %s", ErrNoCandidates, tier)
	}

	r.mu.Lock()
	now := r.now()
	healthy := make([]Weighted, 0, len(candidates))
	for _, c := range candidates {
		if r.isHealthyLocked(c.Provider, now, true) {
			healthy = append(healthy, c)
		}
	}
	if len(healthy) < len(candidates) {
		r.stats.IncrementHealthFiltered()
	}
	allUnhealthy := len(healthy) == 0
	if allUnhealthy {
		healthy = candidates
		r.stats.IncrementUnfiltered()
	}
	u := r.rng.Float64()
	r.mu.Unlock()

	if allUnhealthy {
		r.logger.Warn("all candidates unhealthy, using unfiltered list", "tier", tier.String())
	}

	provider := drawWeighted(healthy, u)
	sel := Selection{Provider: provider, Model: r.modelFor(provider, tier), Tier: tier}

	r.stats.IncrementTotal()
	r.stats.IncrementProvider(provider)

	r.logger.Debug("provider selected",
		"tier", tier.String(),
		"provider", sel.Provider,
		"model", sel.Model,
		"candidates", len(candidates),
		"healthy", len(healthy),
	)

	return sel, nil
}

// Peek returns the selection a draw keyed by key would make, without
// touching health records, the random source or statistics. The same key
// always yields the same provider while health is unchanged.
func (r *Router) Peek(tier Tier, key string) (Selection, error) {
	candidates := r.candidates(tier)
	if len(candidates) == 0 {
		return Selection{}, fmt.Errorf("%w: tier %s", ErrNoCandidates, tier)
	}

	r.mu.Lock()
	now := r.now()
	healthy := make([]Weighted, 0, len(candidates))
	for _, c := range candidates {
		if r.isHealthyLocked(c.Provider, now, false) {
			healthy = append(healthy, c)
		}
	}
	r.mu.Unlock()

	if len(healthy) == 0 {
		healthy = candidates
	}

	provider := drawWeighted(healthy, unitHash(key))
	return Selection{Provider: provider, Model: r.modelFor(provider, tier), Tier: tier}, nil
}

// MarkUnhealthy excludes provider from selection until now+d. Repeated calls
// overwrite the expiry.
func (r *Router) MarkUnhealthy(provider string, d time.Duration) {
	r.mu.Lock()
	until := r.now().Add(d)
	rec, ok := r.health[provider]
	if !ok {
		rec = &healthRecord{}
		r.health[provider] = rec
	}
	rec.healthy = false
	rec.unhealthyUntil = until
	r.mu.Unlock()

	r.stats.IncrementMarkedUnhealthy()
	r.logger.Warn("provider marked unhealthy",
		"provider", provider,
		"cooldown", d,
		"until", until,
	)
}

// IsHealthy reports whether provider is selectable. An expired exclusion is
// cleared as a side effect.
func (r *Router) IsHealthy(provider string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isHealthyLocked(provider, r.now(), true)
}

// UnhealthyProviders returns providers with an active exclusion and its expiry.
func (r *Router) UnhealthyProviders() map[string]time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	out := make(map[string]time.Time)
	for name, rec := range r.health {
		if !rec.healthy && !now.After(rec.unhealthyUntil) {
			out[name] = rec.unhealthyUntil
		}
	}
	return out
}

func (r *Router) isHealthyLocked(provider string, now time.Time, heal bool) bool {
	rec, ok := r.health[provider]
	if !ok || rec.healthy {
		return true
	}
	if now.After(rec.unhealthyUntil) {
		if heal {
			delete(r.health, provider)
		}
		return true
	}
	return false
}

// GetFallback returns the single static fallback hop for failed. Unknown
// providers fall back to the default provider. The boolean is false when
// the chain ends at failed.
func (r *Router) GetFallback(failed string, tier Tier) (Selection, bool) {
	next, ok := r.cfg.Fallbacks[failed]
	if !ok {
		if _, known := r.cfg.Models[failed]; known {
			return Selection{}, false
		}
		next = r.cfg.DefaultProvider
	}
	if next == "" || next == failed {
		return Selection{}, false
	}

	r.stats.IncrementFallback()
	return Selection{Provider: next, Model: r.modelFor(next, tier), Tier: tier}, true
}

// FallbackChain follows GetFallback from start for at most maxHops hops and
// returns the visited providers, start included.
func (r *Router) FallbackChain(start string, maxHops int) []string {
	chain := []string{start}
	cur := start
	for i := 0; i < maxHops; i++ {
		next, ok := r.cfg.Fallbacks[cur]
		if !ok {
			if _, known := r.cfg.Models[cur]; known {
				break
			}
			next = r.cfg.DefaultProvider
		}
		if next == "" || next == cur {
			break
		}
		chain = append(chain, next)
		cur = next
	}
	return chain
}

// Stats returns a snapshot of routing counters.
func (r *Router) Stats() *RoutingStats {
	return r.stats.Snapshot()
}

func (r *Router) candidates(tier Tier) []Weighted {
	if c := r.cfg.Distribution[tier]; len(c) > 0 {
		return c
	}
	return r.cfg.Distribution[Medium]
}

func (r *Router) modelFor(provider string, tier Tier) string {
	if overrides, ok := r.cfg.TierModels[tier]; ok {
		if m, ok := overrides[provider]; ok {
			return m
		}
	}
	return r.cfg.Models[provider]
}

// drawWeighted picks from candidates using u in [0,1) against the
// re-normalized cumulative distribution.
func drawWeighted(candidates []Weighted, u float64) string {
	total := 0.0
	for _, c := range candidates {
		total += c.Probability
	}
	if total <= 0 {
		return candidates[int(u*float64(len(candidates)))%len(candidates)].Provider
	}

	target := u * total
	cumulative := 0.0
	for _, c := range candidates {
		cumulative += c.Probability
		if target < cumulative {
			return c.Provider
		}
	}
	return candidates[len(candidates)-1].Provider
}

// unitHash maps key to a uniform value in [0,1).
func unitHash(key string) float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return float64(h.Sum64()>>11) / math.Exp2(53)
}
