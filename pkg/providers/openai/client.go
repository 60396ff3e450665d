// Package openai implements the OpenAI chat completions adapter on top of the
// go-openai SDK.
package openai

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"tickerwire/llmgateway/pkg/providers"
)

// DefaultModel prices unknown models and fills requests without a model.
const DefaultModel = "gpt-4o-mini"

// DefaultPricing is the built-in per-1K token price table.
var DefaultPricing = map[string]providers.ModelPricing{
	"gpt-4o-mini": {InputPer1K: 0.00015, OutputPer1K: 0.0006},
	"gpt-4o":      {InputPer1K: 0.0025, OutputPer1K: 0.01},
	"gpt-4.1":     {InputPer1K: 0.002, OutputPer1K: 0.008},
	"o3-mini":     {InputPer1K: 0.0011, OutputPer1K: 0.0044},
}

// Provider is the OpenAI adapter.
type Provider struct {
	name    string
	client  *goopenai.Client
	httpc   *http.Client
	limiter *rate.Limiter
	pricing *providers.Pricing
	cfgErr  error
	logger  *slog.Logger
	health  providers.HealthCounter
}

// NewProvider creates an OpenAI adapter. A missing API key is not an error
// here; it is reported by the first Query.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		config.Name = "openai"
	}
	if config.DefaultModel == "" {
		config.DefaultModel = DefaultModel
	}
	if len(config.Pricing) == 0 {
		config.Pricing = DefaultPricing
	}

	httpc := &http.Client{Timeout: config.Timeout}

	clientConfig := goopenai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = httpc

	p := &Provider{
		name:    config.Name,
		client:  goopenai.NewClientWithConfig(clientConfig),
		httpc:   httpc,
		limiter: providers.NewLimiter(config.RequestsPerSecond, config.Burst),
		pricing: providers.NewPricing(config.Pricing, config.DefaultModel),
		logger:  slog.Default().With("component", "provider", "provider", config.Name),
	}

	if config.APIKey == "" {
		p.cfgErr = &providers.ConfigError{
			Provider: config.Name,
			Field:    "api_key",
			Message:  "API key is required for OpenAI",
		}
	}

	return p, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// EstimateCost prices token counts from the pricing table.
func (p *Provider) EstimateCost(model string, tokensIn, tokensOut int) float64 {
	return p.pricing.Cost(model, tokensIn, tokensOut)
}

// Query sends one chat completion request.
func (p *Provider) Query(ctx context.Context, req *providers.QueryRequest) (*providers.QueryResult, error) {
	if p.cfgErr != nil {
		return nil, p.cfgErr
	}

	ctx, cancel := providers.WithAttemptTimeout(ctx, req.Timeout)
	defer cancel()

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, &providers.RateLimitError{Provider: p.name, Message: err.Error()}
		}
	}

	model := req.Model
	if model == "" {
		model = p.pricing.DefaultModel
	}

	messages := make([]goopenai.ChatCompletionMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := goopenai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: chatTemperature(req.Temperature),
	}
	if req.ParseJSON {
		chatReq.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		err = p.wrapError(ctx, req.Timeout, err)
		p.health.Record(err)
		return nil, err
	}
	p.health.Record(nil)

	if len(resp.Choices) == 0 {
		return nil, &providers.ProviderError{Provider: p.name, Message: "empty choices in response"}
	}

	choice := resp.Choices[0]
	if choice.FinishReason == goopenai.FinishReasonContentFilter {
		p.logger.Warn("generation blocked by content filter", "model", model)
		return providers.SafetyBlockedResult(), nil
	}

	usage := providers.Usage{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}
	withModel := *req
	withModel.Model = model

	return providers.BuildResult(p.name, p.pricing, &withModel, choice.Message.Content, usage, p.logger), nil
}

// GetHealth returns the outbound call counters.
func (p *Provider) GetHealth() providers.ProviderHealth {
	return p.health.Snapshot()
}

// wrapError maps SDK errors onto the provider error taxonomy.
func (p *Provider) wrapError(ctx context.Context, timeout time.Duration, err error) error {
	if ctxErr := providers.ContextError(ctx, p.name, timeout); ctxErr != nil {
		return ctxErr
	}

	status := 0
	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &providers.AuthError{Provider: p.name, Message: err.Error()}
	case http.StatusTooManyRequests:
		return &providers.RateLimitError{Provider: p.name, Message: err.Error()}
	}

	return &providers.ProviderError{
		Provider:   p.name,
		StatusCode: status,
		Message:    "chat completion failed",
		Cause:      err,
	}
}

// Close releases idle connections.
func (p *Provider) Close() error {
	p.httpc.CloseIdleConnections()
	return nil
}

// chatTemperature converts t for go-openai, which omits a zero temperature
// from the request. An explicit zero is sent as the smallest positive float32.
func chatTemperature(t *float64) float32 {
	if t == nil {
		return 0
	}
	if *t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(*t)
}
