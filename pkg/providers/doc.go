// Package providers implements the uniform adapter layer between the gateway
// and backend LLM APIs.
//
// # Overview
//
// Every backend is reached through the Adapter interface, which performs one
// logical Query call and prices tokens from a per-adapter pricing table.
// Adapters are constructed once from configuration and kept in a Registry
// keyed by provider name, so the gateway never dispatches on name prefixes.
//
// # Query semantics
//
//   - Token usage reported by the backend is preferred; otherwise tokens are
//     estimated at roughly four characters per token, system prompt included.
//   - A content-safety refusal is not an error. The adapter returns an empty
//     result with SafetyBlocked set.
//   - Markdown code fences are stripped before JSON parsing. A parse failure
//     leaves Parsed nil and keeps the raw text.
//   - The per-call timeout is applied to the request context, so exceeding it
//     aborts the in-flight HTTP call and surfaces a *TimeoutError.
//
// # Errors
//
// ConfigError is returned from Query (not from construction) when a required
// credential is missing. ProviderError, RateLimitError and TimeoutError match
// ErrTransient with errors.Is. ParseError is informational and never fails a
// call.
//
// # Basic Usage
//
//	reg := providers.NewRegistry()
//	reg.Register(adapter)
//	a, err := reg.Get("openai")
//	res, err := a.Query(ctx, &providers.QueryRequest{
//	    Prompt:    "Summarize the filing",
//	    Model:     "gpt-4o-mini",
//	    MaxTokens: 512,
//	    Timeout:   30 * time.Second,
//	})
package providers
