package providertest

import (
	"time"

	"tickerwire/llmgateway/pkg/providers"
)

// TestConfig returns a provider configuration pointing at baseURL.
func TestConfig(name, providerType, baseURL string) providers.ProviderConfig {
	return providers.ProviderConfig{
		Name:                name,
		Type:                providerType,
		BaseURL:             baseURL,
		APIKey:              "test-key",
		Timeout:             5 * time.Second,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     30 * time.Second,
	}
}
