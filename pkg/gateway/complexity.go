package gateway

import (
	"strings"

	"tickerwire/llmgateway/pkg/routing"
)

// DefaultComplexityThreshold is the prompt length, in characters, from which
// a prompt without trigger keywords counts as MEDIUM.
const DefaultComplexityThreshold = 2000

// criticalKeywords mark prompts whose answers feed trading or disclosure
// decisions.
var criticalKeywords = []string{
	"trading decision",
	"trade signal",
	"buy or sell",
	"position size",
	"position sizing",
	"risk assessment",
	"material adverse",
	"going concern",
	"bankruptcy",
	"delisting",
	"fraud",
	"restatement",
	"critical",
}

// complexKeywords mark prompts that need multi-step reasoning.
var complexKeywords = []string{
	"analyze",
	"analyse",
	"analysis",
	"compare",
	"comparison",
	"evaluate",
	"assess",
	"implications",
	"reasoning",
	"explain why",
	"forecast",
	"valuation",
	"guidance change",
	"step by step",
	"multi-step",
}

// DetectComplexity classifies prompt. CRITICAL keywords are checked first,
// then COMPLEX keywords; otherwise prompts of at least threshold characters
// are MEDIUM and shorter ones SIMPLE. A non-positive threshold selects
// DefaultComplexityThreshold.
func DetectComplexity(prompt string, threshold int) routing.Tier {
	if threshold <= 0 {
		threshold = DefaultComplexityThreshold
	}
	lower := strings.ToLower(prompt)

	if containsAny(lower, criticalKeywords) {
		return routing.Critical
	}
	if containsAny(lower, complexKeywords) {
		return routing.Complex
	}
	if len([]rune(prompt)) >= threshold {
		return routing.Medium
	}
	return routing.Simple
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
