package providers

import "math"

// CharsPerToken is the fixed heuristic used when a backend reports no usage.
const CharsPerToken = 4.0

// EstimateTokens approximates the token count of text at four characters per
// token. Non-empty text is at least one token.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	tokens := int(math.Round(float64(len(text)) / CharsPerToken))
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// EstimateInputTokens counts the system prompt together with the prompt.
func EstimateInputTokens(systemPrompt, prompt string) int {
	return EstimateTokens(systemPrompt + prompt)
}
