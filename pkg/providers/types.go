package providers

import "time"

// QueryRequest is the provider-agnostic input to Adapter.Query.
type QueryRequest struct {
	// Prompt is the user prompt text.
	Prompt string

	// SystemPrompt is optional system instruction text.
	SystemPrompt string

	// Model is the backend model identifier chosen by the router.
	Model string

	// MaxTokens caps the generated output.
	MaxTokens int

	// Temperature controls sampling randomness. Nil leaves the provider default.
	Temperature *float64

	// Timeout bounds this call. Zero means the caller's context alone.
	Timeout time.Duration

	// ParseJSON requests structured parsing of the response text.
	ParseJSON bool
}

// QueryResult is the provider-agnostic output of Adapter.Query.
type QueryResult struct {
	// Text is the generated text (code fences preserved).
	Text string

	// TokensIn is the input token count, reported or estimated.
	TokensIn int

	// TokensOut is the output token count, reported or estimated.
	TokensOut int

	// CostUSD is the priced cost of this call.
	CostUSD float64

	// Parsed is the decoded JSON payload when ParseJSON was requested and
	// decoding succeeded.
	Parsed any

	// Confidence is read from a top-level "confidence" field of Parsed.
	Confidence *float64

	// SafetyBlocked is set when the backend refused to generate.
	SafetyBlocked bool
}

// ProviderConfig contains configuration for one provider adapter.
type ProviderConfig struct {
	// Name is the unique provider identifier (e.g., "openai", "gemini").
	Name string

	// Type selects the adapter implementation ("openai", "anthropic", "gemini").
	Type string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// APIKey is the credential. A missing key is reported on first Query.
	APIKey string

	// Timeout is the HTTP client timeout ceiling.
	Timeout time.Duration

	// MaxRetries is the number of transport-level retries per Query.
	// The gateway does its own failover, so this is normally zero.
	MaxRetries int

	// MaxIdleConns is the maximum number of idle connections.
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host.
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long idle connections are kept.
	IdleConnTimeout time.Duration

	// RequestsPerSecond limits outbound calls. Zero disables the limiter.
	RequestsPerSecond float64

	// Burst is the limiter burst size (default 1).
	Burst int

	// DefaultModel prices unknown models and is used when a request omits one.
	DefaultModel string

	// Pricing maps model names (or prefixes) to per-1K token prices.
	Pricing map[string]ModelPricing
}

// ProviderHealth is a snapshot of transport-level request counters.
type ProviderHealth struct {
	TotalRequests       int64     `json:"total_requests"`
	FailedRequests      int64     `json:"failed_requests"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastError           string    `json:"last_error,omitempty"`
	LastSuccess         time.Time `json:"last_success,omitzero"`
}
