package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"tickerwire/llmgateway/internal/providertest"
	"tickerwire/llmgateway/pkg/providers"
)

const generatePath = "/models/gemini-2.0-flash:generateContent"

func newTestProvider(t *testing.T, ms *providertest.MockServer) *Provider {
	t.Helper()
	p, err := NewProvider(providertest.TestConfig("gemini", "gemini", ms.URL()))
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	return p
}

func TestProvider_Query(t *testing.T) {
	ms := providertest.NewMockServer()
	defer ms.Close()
	ms.SetResponse(generatePath, providertest.MockResponse{
		Body: providertest.MockGeminiResponse("```json\n{\"label\":\"8-K\",\"confidence\":0.8}\n```", true),
	})

	p := newTestProvider(t, ms)
	defer p.Close()

	res, err := p.Query(context.Background(), &providers.QueryRequest{
		Prompt:       "classify",
		SystemPrompt: "you are a classifier",
		Model:        "gemini-2.0-flash",
		MaxTokens:    64,
		ParseJSON:    true,
	})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if res.TokensIn != 12 || res.TokensOut != 34 {
		t.Errorf("tokens = %d/%d, want 12/34", res.TokensIn, res.TokensOut)
	}
	if res.CostUSD <= 0 {
		t.Errorf("CostUSD = %v, want > 0", res.CostUSD)
	}
	obj, ok := res.Parsed.(map[string]any)
	if !ok || obj["label"] != "8-K" {
		t.Errorf("Parsed = %#v", res.Parsed)
	}
	if res.Confidence == nil || *res.Confidence != 0.8 {
		t.Errorf("Confidence = %v", res.Confidence)
	}

	var sent map[string]any
	if err := json.Unmarshal(ms.LastRequestBody(), &sent); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if _, ok := sent["systemInstruction"]; !ok {
		t.Error("system prompt was not sent as systemInstruction")
	}
}

func TestProvider_Query_EstimatesWithoutUsage(t *testing.T) {
	ms := providertest.NewMockServer()
	defer ms.Close()
	ms.SetResponse(generatePath, providertest.MockResponse{
		Body: providertest.MockGeminiResponse(strings.Repeat("o", 40), false),
	})

	p := newTestProvider(t, ms)
	defer p.Close()

	res, err := p.Query(context.Background(), &providers.QueryRequest{
		Prompt:       strings.Repeat("p", 80),
		SystemPrompt: strings.Repeat("s", 40),
		Model:        "gemini-2.0-flash",
	})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if res.TokensIn != 30 {
		t.Errorf("TokensIn = %d, want 30", res.TokensIn)
	}
	if res.TokensOut != 10 {
		t.Errorf("TokensOut = %d, want 10", res.TokensOut)
	}
}

func TestProvider_Query_SafetyBlock(t *testing.T) {
	ms := providertest.NewMockServer()
	defer ms.Close()
	ms.SetResponse(generatePath, providertest.MockResponse{Body: providertest.MockGeminiBlocked()})

	p := newTestProvider(t, ms)
	defer p.Close()

	res, err := p.Query(context.Background(), &providers.QueryRequest{Prompt: "x", Model: "gemini-2.0-flash", ParseJSON: true})
	if err != nil {
		t.Fatalf("safety block must not be an error: %v", err)
	}
	if !res.SafetyBlocked || res.Text != "" || res.TokensIn != 0 || res.CostUSD != 0 || res.Parsed != nil {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestProvider_Query_Timeout(t *testing.T) {
	ms := providertest.NewMockServer()
	defer ms.Close()
	ms.SetResponse(generatePath, providertest.MockResponse{
		Body:  providertest.MockGeminiResponse("late", true),
		Delay: 2 * time.Second,
	})

	p := newTestProvider(t, ms)
	defer p.Close()

	start := time.Now()
	_, err := p.Query(context.Background(), &providers.QueryRequest{
		Prompt:  "x",
		Model:   "gemini-2.0-flash",
		Timeout: 50 * time.Millisecond,
	})
	var toErr *providers.TimeoutError
	if !errors.As(err, &toErr) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("timeout did not abort the call")
	}
}

func TestProvider_Query_MissingKey(t *testing.T) {
	ms := providertest.NewMockServer()
	defer ms.Close()

	cfg := providertest.TestConfig("gemini", "gemini", ms.URL())
	cfg.APIKey = ""
	p, err := NewProvider(cfg)
	if err != nil {
		t.Fatalf("construction must not fail on a missing key: %v", err)
	}

	_, err = p.Query(context.Background(), &providers.QueryRequest{Prompt: "x"})
	var cfgErr *providers.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if ms.GetRequestCount() != 0 {
		t.Error("no request should reach the backend without a key")
	}
}

func TestProvider_EstimateCost_UnknownModel(t *testing.T) {
	p, _ := NewProvider(providers.ProviderConfig{APIKey: "k"})
	known := p.EstimateCost(DefaultModel, 1000, 1000)
	unknown := p.EstimateCost("gemini-9-ultra", 1000, 1000)
	if known != unknown {
		t.Errorf("unknown model should price as default: %v vs %v", unknown, known)
	}
}
