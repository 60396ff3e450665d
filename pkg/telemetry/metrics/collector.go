package metrics

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"tickerwire/llmgateway/pkg/gateway"
)

// Request status label values.
const (
	StatusSuccess  = "success"
	StatusCached   = "cached"
	StatusError    = "error"
	StatusBlocked  = "blocked"
	StatusDisabled = "disabled"
)

// overflowLabel replaces label values beyond the cardinality limit.
const overflowLabel = "other"

// Config controls metric naming and bucket layout.
type Config struct {
	Enabled   bool
	Namespace string
	Subsystem string

	// DurationBuckets are request latency buckets in seconds.
	DurationBuckets []float64

	// TokenBuckets are per-request token count buckets.
	TokenBuckets []float64

	// MaxFeatures caps distinct feature label values.
	MaxFeatures int
}

// Collector records gateway outcomes into a Prometheus registry.
type Collector struct {
	config   Config
	registry *prometheus.Registry

	requests *RequestMetrics
	provider *ProviderMetrics
	cost     *CostMetrics

	features *CardinalityLimiter

	statsOnce sync.Once
}

var _ gateway.Observer = (*Collector)(nil)

// NewCollector creates a collector. A nil registry gets a fresh private
// registry so tests and multiple gateways never collide on the global one.
func NewCollector(cfg Config, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "llmgw"
	}
	if len(cfg.DurationBuckets) == 0 {
		// LLM calls run from tens of milliseconds (cache) to a minute.
		cfg.DurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60}
	}
	if len(cfg.TokenBuckets) == 0 {
		cfg.TokenBuckets = []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000}
	}
	if cfg.MaxFeatures <= 0 {
		cfg.MaxFeatures = 200
	}

	return &Collector{
		config:   cfg,
		registry: registry,
		requests: NewRequestMetrics(cfg, registry),
		provider: NewProviderMetrics(cfg, registry),
		cost:     NewCostMetrics(cfg, registry),
		features: NewCardinalityLimiter(cfg.MaxFeatures),
	}
}

// ObserveResponse implements gateway.Observer.
func (c *Collector) ObserveResponse(_ context.Context, req gateway.Request, resp gateway.Response) error {
	if !c.config.Enabled {
		return nil
	}

	provider := resp.Provider
	if provider == "" {
		provider = "none"
	}
	status := Status(resp)

	c.requests.RecordRequest(provider, resp.Tier, status, resp.LatencyMS)
	if status == StatusDisabled {
		return nil
	}

	c.requests.RecordTokens(provider, resp.TokensIn, resp.TokensOut)
	if resp.Retries > 0 {
		c.provider.RecordRetries(provider, resp.Retries)
	}
	if resp.ErrorKind != "" {
		c.provider.RecordError(provider, resp.ErrorKind)
	}
	if resp.CostUSD > 0 {
		c.cost.RecordCost(provider, c.featureLabel(req.Feature), resp.CostUSD)
	}
	return nil
}

// Status maps a response to its status label.
func Status(resp gateway.Response) string {
	switch {
	case resp.ErrorKind == "disabled":
		return StatusDisabled
	case resp.SafetyBlocked:
		return StatusBlocked
	case !resp.OK():
		return StatusError
	case resp.Cached:
		return StatusCached
	default:
		return StatusSuccess
	}
}

func (c *Collector) featureLabel(feature string) string {
	if feature == "" {
		feature = "default"
	}
	if !c.features.Allow(feature) {
		return overflowLabel
	}
	return feature
}

// Registry returns the registry backing this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents label explosion by admitting at most
// maxCardinality distinct values.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether value is already tracked or there is room for it.
func (cl *CardinalityLimiter) Allow(value string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[value]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[value]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[value] = struct{}{}
	return true
}

// Count returns the number of tracked values.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
