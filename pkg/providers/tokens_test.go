package providers

import (
	"strings"
	"testing"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"single char is one token", "a", 1},
		{"four chars", "abcd", 1},
		{"4000 chars", strings.Repeat("x", 4000), 1000},
		{"rounds to nearest", strings.Repeat("x", 10), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateTokens(tt.text); got != tt.want {
				t.Errorf("EstimateTokens() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEstimateInputTokens_IncludesSystemPrompt(t *testing.T) {
	withoutSystem := EstimateInputTokens("", strings.Repeat("p", 400))
	withSystem := EstimateInputTokens(strings.Repeat("s", 400), strings.Repeat("p", 400))

	if withoutSystem != 100 {
		t.Errorf("without system = %d, want 100", withoutSystem)
	}
	if withSystem != 200 {
		t.Errorf("with system = %d, want 200", withSystem)
	}
}
