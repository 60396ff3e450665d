package providers

import "context"

// Adapter is the contract every backend LLM integration implements.
//
// Implementations must be safe for concurrent use. Query may block on network
// I/O and must honour ctx and req.Timeout by aborting the in-flight call.
type Adapter interface {
	// Name returns the provider identifier used by the router and registry.
	Name() string

	// Query performs one logical completion call.
	//
	// A safety refusal returns an empty result with SafetyBlocked set and a
	// nil error. Any returned error is a failed attempt from the caller's
	// point of view.
	Query(ctx context.Context, req *QueryRequest) (*QueryResult, error)

	// EstimateCost prices the given token counts for model. Unknown models
	// are priced as the adapter's default model.
	EstimateCost(model string, tokensIn, tokensOut int) float64

	// Close releases idle connections and other resources.
	Close() error
}

// HealthReporter is implemented by adapters that count their outbound calls.
type HealthReporter interface {
	GetHealth() ProviderHealth
}
