// Package gemini implements the Google Gemini generateContent adapter.
//
// Gemini reports content-safety refusals either as a prompt-level block
// reason or as a candidate finish reason. Both are returned as an empty,
// safety-blocked result rather than an error.
package gemini

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"tickerwire/llmgateway/pkg/providers"
)

const (
	// DefaultBaseURL is the public Generative Language API endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultModel is the cheapest general-purpose model.
	DefaultModel = "gemini-2.0-flash"
)

// DefaultPricing is the built-in per-1K token price table.
var DefaultPricing = map[string]providers.ModelPricing{
	"gemini-2.0-flash":      {InputPer1K: 0.0001, OutputPer1K: 0.0004},
	"gemini-2.0-flash-lite": {InputPer1K: 0.000075, OutputPer1K: 0.0003},
	"gemini-2.5-flash":      {InputPer1K: 0.0003, OutputPer1K: 0.0025},
	"gemini-2.5-pro":        {InputPer1K: 0.00125, OutputPer1K: 0.01},
}

var blockedFinishReasons = map[string]bool{
	"SAFETY":             true,
	"PROHIBITED_CONTENT": true,
	"BLOCKLIST":          true,
	"SPII":               true,
	"RECITATION":         true,
}

// Provider is the Gemini adapter.
type Provider struct {
	*providers.HTTPProvider
}

// NewProvider creates a Gemini adapter.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		config.Name = "gemini"
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

// Query sends one generateContent request.
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

	body := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: req.Prompt}}}},
		GenerationConfig: generationConfig{
			MaxOutputTokens: req.MaxTokens,
			Temperature:     req.Temperature,
		},
	}
	if req.SystemPrompt != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: req.SystemPrompt}}}
	}
	if req.ParseJSON {
		body.GenerationConfig.ResponseMIMEType = "application/json"
	}

	cfg := p.GetConfig()
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimRight(cfg.BaseURL, "/"), url.PathEscape(model), url.QueryEscape(cfg.APIKey))

	var resp generateResponse
	if err := p.DoJSONRequest(ctx, "POST", endpoint, body, &resp, nil); err != nil {
		if ctxErr := providers.ContextError(ctx, p.Name(), req.Timeout); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	if resp.blocked() {
		p.Logger().Warn("generation blocked by safety filter",
			"model", model,
			"block_reason", resp.PromptFeedback.BlockReason,
		)
		return providers.SafetyBlockedResult(), nil
	}

	withModel := *req
	withModel.Model = model
	usage := providers.Usage{
		InputTokens:  resp.UsageMetadata.PromptTokenCount,
		OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
	}

	return providers.BuildResult(p.Name(), p.Pricing(), &withModel, resp.text(), usage, p.Logger()), nil
}
