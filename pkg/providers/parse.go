package providers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"regexp"
	"strings"
)

var (
	codeFencePattern     = regexp.MustCompile("(?s)^\\s*```[\\w-]*[ \\t]*\\n?(.*?)\\n?```\\s*$")
	embeddedFencePattern = regexp.MustCompile("(?s)```[\\w-]*[ \\t]*\\n(.*?)\\n?```")
)

// StripCodeFence removes a surrounding markdown code fence such as
// "```json ... ```". When the text only embeds a fenced block, the first
// block's body is returned. Text without a fence is returned trimmed.
func StripCodeFence(text string) string {
	if m := codeFencePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := embeddedFencePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}

// ParseStructured decodes text as JSON after stripping any code fence.
// It returns a *ParseError when the payload is not valid JSON.
func ParseStructured(provider, text string) (any, error) {
	body := StripCodeFence(text)
	if body == "" {
		return nil, &ParseError{Provider: provider, RawResponse: text, Cause: errEmptyPayload}
	}

	var out any
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, &ParseError{Provider: provider, RawResponse: text, Cause: err}
	}
	return out, nil
}

var errEmptyPayload = errors.New("empty payload")

// confidenceOf reads a numeric top-level "confidence" field clamped to [0,1].
func confidenceOf(parsed any) *float64 {
	obj, ok := parsed.(map[string]any)
	if !ok {
		return nil
	}
	v, ok := obj["confidence"].(float64)
	if !ok {
		return nil
	}
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return &v
}

// Usage is backend-reported token usage. Zero values mean "not reported".
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// BuildResult assembles a QueryResult from backend text and optional usage.
// Missing usage is estimated, the cost is priced, and structured output is
// parsed when requested. Parse failures are logged and leave Parsed nil.
func BuildResult(provider string, pricing *Pricing, req *QueryRequest, text string, usage Usage, logger *slog.Logger) *QueryResult {
	tokensIn := usage.InputTokens
	if tokensIn <= 0 {
		tokensIn = EstimateInputTokens(req.SystemPrompt, req.Prompt)
	}
	tokensOut := usage.OutputTokens
	if tokensOut <= 0 {
		tokensOut = EstimateTokens(text)
	}

	res := &QueryResult{
		Text:      text,
		TokensIn:  tokensIn,
		TokensOut: tokensOut,
		CostUSD:   pricing.Cost(req.Model, tokensIn, tokensOut),
	}

	if req.ParseJSON {
		parsed, err := ParseStructured(provider, text)
		if err != nil {
			if logger == nil {
				logger = slog.Default()
			}
			logger.Warn("structured output parse failed",
				"provider", provider,
				"model", req.Model,
				"error", err,
			)
		} else {
			res.Parsed = parsed
			res.Confidence = confidenceOf(parsed)
		}
	}

	return res
}

// SafetyBlockedResult is the well-formed empty result for a refused generation.
func SafetyBlockedResult() *QueryResult {
	return &QueryResult{SafetyBlocked: true}
}
