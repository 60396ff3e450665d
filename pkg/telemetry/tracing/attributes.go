package tracing

import (
	"go.opentelemetry.io/otel/attribute"
)

// Span attribute keys used by the gateway.
const (
	AttrRequestID  = attribute.Key("llmgw.request_id")
	AttrFeature    = attribute.Key("llmgw.feature")
	AttrTier       = attribute.Key("llmgw.tier")
	AttrProvider   = attribute.Key("llmgw.provider")
	AttrModel      = attribute.Key("llmgw.model")
	AttrAttempt    = attribute.Key("llmgw.attempt")
	AttrCached     = attribute.Key("llmgw.cached")
	AttrCompressed = attribute.Key("llmgw.compressed")
	AttrRetries    = attribute.Key("llmgw.retries")
	AttrTokensIn   = attribute.Key("llmgw.tokens_in")
	AttrTokensOut  = attribute.Key("llmgw.tokens_out")
	AttrCostUSD    = attribute.Key("llmgw.cost_usd")
	AttrErrorKind  = attribute.Key("llmgw.error_kind")
)

// RequestAttributes returns the attributes set when a request span starts.
func RequestAttributes(requestID, feature, tier string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrRequestID.String(requestID),
		AttrFeature.String(feature),
		AttrTier.String(tier),
	}
}

// AttemptAttributes returns the attributes for one provider attempt.
func AttemptAttributes(provider, model string, attempt int) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrProvider.String(provider),
		AttrModel.String(model),
		AttrAttempt.Int(attempt),
	}
}

// UsageAttributes returns token and cost attributes for a finished call.
func UsageAttributes(tokensIn, tokensOut int, costUSD float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrTokensIn.Int(tokensIn),
		AttrTokensOut.Int(tokensOut),
		AttrCostUSD.Float64(costUSD),
	}
}
