package providers

import (
	"errors"
	"testing"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n[1,2]\n```", `[1,2]`},
		{"fence with surrounding whitespace", "  \n```json\n{\"a\":1}\n```\n ", `{"a":1}`},
		{"embedded fence", "Here you go:\n```json\n{\"b\":2}\n```\nThanks", `{"b":2}`},
		{"plain text trimmed", "  hello  ", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFence(tt.in); got != tt.want {
				t.Errorf("StripCodeFence() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseStructured(t *testing.T) {
	parsed, err := ParseStructured("p", "```json\n{\"sentiment\":\"bullish\"}\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	obj, ok := parsed.(map[string]any)
	if !ok || obj["sentiment"] != "bullish" {
		t.Errorf("parsed = %#v", parsed)
	}

	_, err = ParseStructured("p", "```json\n{\"truncated\": \n```")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.RawResponse == "" {
		t.Error("raw response should be preserved")
	}
}

func TestBuildResult(t *testing.T) {
	pricing := NewPricing(map[string]ModelPricing{"m": {InputPer1K: 1, OutputPer1K: 2}}, "m")

	t.Run("reported usage is preferred", func(t *testing.T) {
		req := &QueryRequest{Prompt: "hello world", Model: "m"}
		res := BuildResult("p", pricing, req, "out", Usage{InputTokens: 100, OutputTokens: 50}, nil)
		if res.TokensIn != 100 || res.TokensOut != 50 {
			t.Errorf("tokens = %d/%d, want 100/50", res.TokensIn, res.TokensOut)
		}
		if res.CostUSD != 0.2 {
			t.Errorf("CostUSD = %v, want 0.2", res.CostUSD)
		}
	})

	t.Run("missing usage is estimated with system prompt", func(t *testing.T) {
		req := &QueryRequest{SystemPrompt: "ssss", Prompt: "pppp", Model: "m"}
		res := BuildResult("p", pricing, req, "oooooooo", Usage{}, nil)
		if res.TokensIn != 2 {
			t.Errorf("TokensIn = %d, want 2", res.TokensIn)
		}
		if res.TokensOut != 2 {
			t.Errorf("TokensOut = %d, want 2", res.TokensOut)
		}
	})

	t.Run("parse failure keeps raw text", func(t *testing.T) {
		req := &QueryRequest{Prompt: "x", Model: "m", ParseJSON: true}
		res := BuildResult("p", pricing, req, "not json", Usage{}, nil)
		if res.Parsed != nil {
			t.Errorf("Parsed = %v, want nil", res.Parsed)
		}
		if res.Text != "not json" {
			t.Errorf("Text = %q", res.Text)
		}
	})

	t.Run("confidence is read and clamped", func(t *testing.T) {
		req := &QueryRequest{Prompt: "x", Model: "m", ParseJSON: true}
		res := BuildResult("p", pricing, req, "```json\n{\"confidence\": 1.7}\n```", Usage{}, nil)
		if res.Confidence == nil || *res.Confidence != 1 {
			t.Errorf("Confidence = %v, want 1", res.Confidence)
		}
	})
}

func TestSafetyBlockedResult(t *testing.T) {
	res := SafetyBlockedResult()
	if !res.SafetyBlocked || res.Text != "" || res.TokensIn != 0 || res.CostUSD != 0 || res.Parsed != nil {
		t.Errorf("unexpected safety result: %+v", res)
	}
}
