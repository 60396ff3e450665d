// Package providerfactory constructs provider adapters from configuration and
// assembles them into a registry.
package providerfactory

import (
	"fmt"
	"log/slog"

	"tickerwire/llmgateway/pkg/providers"
	"tickerwire/llmgateway/pkg/providers/anthropic"
	"tickerwire/llmgateway/pkg/providers/gemini"
	"tickerwire/llmgateway/pkg/providers/openai"
)

// NewAdapter creates an adapter based on the configuration.
//
// Supported provider types:
//   - "openai": OpenAI chat completions (go-openai SDK)
//   - "anthropic": Anthropic Messages API
//   - "gemini": Google generateContent API
//
// When Type is empty it is inferred from Name. Unknown types are a
// *providers.ConfigError.
func NewAdapter(config providers.ProviderConfig) (providers.Adapter, error) {
	providerType := config.Type
	if providerType == "" {
		providerType = inferProviderType(config.Name)
		config.Type = providerType
	}

	slog.Debug("creating provider",
		"name", config.Name,
		"type", providerType,
		"base_url", config.BaseURL,
	)

	var (
		adapter providers.Adapter
		err     error
	)

	switch providerType {
	case "openai":
		adapter, err = openai.NewProvider(config)
	case "anthropic":
		adapter, err = anthropic.NewProvider(config)
	case "gemini":
		adapter, err = gemini.NewProvider(config)
	default:
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "type",
			Message:  fmt.Sprintf("unsupported provider type: %q (supported: openai, anthropic, gemini)", providerType),
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create provider %q: %w", config.Name, err)
	}

	if config.APIKey == "" {
		slog.Warn("provider has no API key; calls will fail over", "name", config.Name)
	}

	return adapter, nil
}

// BuildRegistry creates one adapter per configuration entry.
func BuildRegistry(configs []providers.ProviderConfig) (*providers.Registry, error) {
	reg := providers.NewRegistry()
	for _, cfg := range configs {
		adapter, err := NewAdapter(cfg)
		if err != nil {
			_ = reg.Close()
			return nil, err
		}
		reg.Register(adapter)
	}

	slog.Info("provider registry built", "providers", reg.Names())
	return reg, nil
}

// inferProviderType infers the provider type from the provider name.
func inferProviderType(name string) string {
	switch name {
	case "anthropic", "claude":
		return "anthropic"
	case "gemini", "google":
		return "gemini"
	default:
		// OpenAI-compatible endpoints are the common denominator.
		return "openai"
	}
}
