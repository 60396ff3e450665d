package anthropic

import (
	"context"
	"fmt"
	"strings"

	"tickerwire/llmgateway/pkg/providers"
)

const (
	// DefaultAnthropicVersion is the API version to use
	DefaultAnthropicVersion = "2023-06-01"

	// DefaultBaseURL is the public Messages API endpoint.
	DefaultBaseURL = "https://api.anthropic.com"

	// DefaultModel prices unknown models and fills requests without a model.
	DefaultModel = "claude-3-5-haiku-latest"

	defaultMaxTokens = 1024
)

// DefaultPricing is the built-in per-1K token price table.
var DefaultPricing = map[string]providers.ModelPricing{
	"claude-3-5-haiku":  {InputPer1K: 0.0008, OutputPer1K: 0.004},
	"claude-3-5-sonnet": {InputPer1K: 0.003, OutputPer1K: 0.015},
	"claude-sonnet-4":   {InputPer1K: 0.003, OutputPer1K: 0.015},
	"claude-opus-4":     {InputPer1K: 0.015, OutputPer1K: 0.075},
}

// Provider is the Anthropic provider adapter.
type Provider struct {
	*providers.HTTPProvider
}

// NewProvider creates a new Anthropic provider instance.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		config.Name = "anthropic"
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.DefaultModel == "" {
		config.DefaultModel = DefaultModel
	}
	if len(config.Pricing) == 0 {
		config.Pricing = DefaultPricing
	}

	return &Provider{HTTPProvider: providers.NewHTTPProvider(config)}, nil
}

// Query sends a Messages API request.
func (p *Provider) Query(ctx context.Context, req *providers.QueryRequest) (*providers.QueryResult, error) {
	if err := p.RequireAPIKey(); err != nil {
		return nil, err
	}

	ctx, cancel := providers.WithAttemptTimeout(ctx, req.Timeout)
	defer cancel()

	model := req.Model
	if model == "" {
		model = p.Pricing().DefaultModel
	}

	body := messagesRequest{
		Model:       model,
		System:      req.SystemPrompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Messages:    []message{{Role: "user", Content: req.Prompt}},
	}
	if body.MaxTokens <= 0 {
		body.MaxTokens = defaultMaxTokens
	}

	cfg := p.GetConfig()
	url := fmt.Sprintf("%s/v1/messages", strings.TrimRight(cfg.BaseURL, "/"))
	headers := map[string]string{
		"x-api-key":         cfg.APIKey,
		"anthropic-version": DefaultAnthropicVersion,
		"Content-Type":      "application/json",
	}

	var resp messagesResponse
	if err := p.DoJSONRequest(ctx, "POST", url, body, &resp, headers); err != nil {
		if ctxErr := providers.ContextError(ctx, p.Name(), req.Timeout); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	if resp.StopReason == "refusal" {
		p.Logger().Warn("generation refused", "model", model)
		return providers.SafetyBlockedResult(), nil
	}

	withModel := *req
	withModel.Model = model
	usage := providers.Usage{
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}

	return providers.BuildResult(p.Name(), p.Pricing(), &withModel, resp.text(), usage, p.Logger()), nil
}
