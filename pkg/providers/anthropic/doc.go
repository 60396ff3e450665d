// Package anthropic implements the Anthropic Messages API adapter.
//
// The adapter maps a stop_reason of "refusal" to an empty, safety-blocked
// result and reads token usage from the response when present.
package anthropic
