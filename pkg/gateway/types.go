package gateway

import (
	"time"

	"tickerwire/llmgateway/pkg/cache"
	"tickerwire/llmgateway/pkg/monitor"
	"tickerwire/llmgateway/pkg/providers"
	"tickerwire/llmgateway/pkg/routing"
)

// OutputFormat hints how the caller wants the result shaped.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// DefaultFeature is used when a request names no feature.
const DefaultFeature = "default"

// Request is one LLM call. Nil pointer fields fall back to the gateway's
// options.
type Request struct {
	Prompt       string `json:"prompt"`
	SystemPrompt string `json:"system_prompt,omitempty"`

	// Tier forces a complexity tier. Nil means detect from the prompt.
	Tier *routing.Tier `json:"tier,omitempty"`

	OutputFormat OutputFormat `json:"output_format,omitempty"`

	// Feature is the cost-tracking namespace and selects the cache TTL.
	Feature string `json:"feature,omitempty"`

	// CacheEnabled and CompressionEnabled can only narrow the gateway
	// options: false opts this request out.
	CacheEnabled       *bool `json:"cache_enabled,omitempty"`
	CompressionEnabled *bool `json:"compression_enabled,omitempty"`

	MaxTokens int `json:"max_tokens,omitempty"`
	// Temperature is nil for the provider default. Zero is sent as zero.
	Temperature *float64 `json:"temperature,omitempty"`

	// Timeout bounds each provider attempt. Zero uses the default.
	Timeout time.Duration `json:"-"`

	MaxRetries *int              `json:"max_retries,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Response is the outcome of a Request. It is always returned; a failure
// sets Error and leaves Text empty.
type Response struct {
	Text       string   `json:"text"`
	Parsed     any      `json:"parsed,omitempty"`
	Provider   string   `json:"provider,omitempty"`
	Model      string   `json:"model,omitempty"`
	Cached     bool     `json:"cached"`
	LatencyMS  int64    `json:"latency_ms"`
	TokensIn   int      `json:"tokens_in"`
	TokensOut  int      `json:"tokens_out"`
	CostUSD    float64  `json:"cost_usd"`
	Confidence *float64 `json:"confidence,omitempty"`

	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`

	SafetyBlocked bool   `json:"safety_blocked,omitempty"`
	Retries       int    `json:"retries"`
	CacheKey      string `json:"cache_key,omitempty"`
	Compressed    bool   `json:"compressed,omitempty"`
	Tier          string `json:"tier,omitempty"`
	RequestID     string `json:"request_id,omitempty"`
}

// OK reports whether the request succeeded.
func (r Response) OK() bool { return r.Error == "" }

// Estimate is the result of a dry run.
type Estimate struct {
	Tier      string  `json:"tier"`
	Provider  string  `json:"provider"`
	Model     string  `json:"model"`
	TokensIn  int     `json:"tokens_in"`
	TokensOut int     `json:"tokens_out"`
	CostUSD   float64 `json:"cost_usd"`
}

// StatsReport is a read-only snapshot of gateway state.
type StatsReport struct {
	Enabled   bool                  `json:"enabled"`
	Monitor   monitor.Stats         `json:"monitor"`
	Cache     *cache.Stats          `json:"cache,omitempty"`
	Routing   *routing.RoutingStats `json:"routing"`
	Unhealthy map[string]time.Time  `json:"unhealthy"`
	Providers []string              `json:"providers"`
	Options   Options               `json:"options"`

	// ProviderHealth holds transport counters for adapters that keep them.
	ProviderHealth map[string]providers.ProviderHealth `json:"provider_health,omitempty"`
}
