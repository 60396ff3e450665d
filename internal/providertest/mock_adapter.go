package providertest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"tickerwire/llmgateway/pkg/providers"
)

// MockAdapter is a scripted providers.Adapter for orchestration tests.
type MockAdapter struct {
	name    string
	pricing *providers.Pricing

	mu          sync.Mutex
	fail        bool
	failPrompts []string
	delay       time.Duration
	text        string
	echo        bool
	blocked     bool
	panics      bool

	calls atomic.Int64
}

// NewMockAdapter creates a mock adapter that answers every prompt with text.
// Pricing is 1 USD per 1K input tokens and 2 USD per 1K output tokens for
// every model.
func NewMockAdapter(name string) *MockAdapter {
	return &MockAdapter{
		name: name,
		pricing: providers.NewPricing(map[string]providers.ModelPricing{
			"mock-default": {InputPer1K: 1, OutputPer1K: 2},
		}, "mock-default"),
		text: `{"answer":"ok","confidence":0.9}`,
	}
}

// Name returns the provider identifier.
func (m *MockAdapter) Name() string { return m.name }

// SetFail makes every subsequent call fail.
func (m *MockAdapter) SetFail(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
}

// FailWhenPromptContains makes calls fail whose prompt contains marker.
func (m *MockAdapter) FailWhenPromptContains(marker string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPrompts = append(m.failPrompts, marker)
}

// SetDelay delays every call, honouring context cancellation.
func (m *MockAdapter) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// SetText sets the response text.
func (m *MockAdapter) SetText(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
}

// SetEcho makes the response text equal the prompt.
func (m *MockAdapter) SetEcho(echo bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.echo = echo
}

// SetPanic makes every call panic.
func (m *MockAdapter) SetPanic(panics bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panics = panics
}

// SetSafetyBlocked makes every call return a safety-blocked result.
func (m *MockAdapter) SetSafetyBlocked(blocked bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocked = blocked
}

// Calls returns the number of Query invocations.
func (m *MockAdapter) Calls() int {
	return int(m.calls.Load())
}

// Query implements providers.Adapter.
func (m *MockAdapter) Query(ctx context.Context, req *providers.QueryRequest) (*providers.QueryResult, error) {
	m.calls.Add(1)

	m.mu.Lock()
	fail, delay, text, blocked, panics := m.fail, m.delay, m.text, m.blocked, m.panics
	if m.echo {
		text = req.Prompt
	}
	for _, marker := range m.failPrompts {
		if strings.Contains(req.Prompt, marker) {
			fail = true
		}
	}
	m.mu.Unlock()

	ctx, cancel := providers.WithAttemptTimeout(ctx, req.Timeout)
	defer cancel()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, providers.ContextError(ctx, m.name, req.Timeout)
		}
	}

	if panics {
		panic("mock adapter panic")
	}
	if fail {
		return nil, &providers.ProviderError{Provider: m.name, StatusCode: 503, Message: "mock failure", Cause: errors.New("scripted")}
	}
	if blocked {
		return providers.SafetyBlockedResult(), nil
	}

	return providers.BuildResult(m.name, m.pricing, req, text, providers.Usage{}, nil), nil
}

// EstimateCost implements providers.Adapter.
func (m *MockAdapter) EstimateCost(model string, tokensIn, tokensOut int) float64 {
	return m.pricing.Cost(model, tokensIn, tokensOut)
}

// Close implements providers.Adapter.
func (m *MockAdapter) Close() error { return nil }
