package provider

import (
	"context"
	"fmt"
)

// DefaultFactory is the default provider factory
type DefaultFactory struct{}

// NewFactory creates a new provider factory
func NewFactory() *DefaultFactory {
	return &DefaultFactory{}
}

// CreateProvider creates a provider instance by name. Recognised keys are
// api_key, base_url, region, voice and language.
func (f *DefaultFactory) CreateProvider(ctx context.Context, providerName string, config map[string]interface{}) (Provider, error) {
	if config == nil {
		config = map[string]interface{}{}
	}
	switch providerName {
	case "elevenlabs", "":
		return ElevenLabsProviderFromConfig(config)
	case "openai":
		return OpenAIProviderFromConfig(config)
	case "polly":
		return PollyProviderFromConfig(ctx, config)
	case "gcp":
		return GCPProviderFromConfig(ctx, config)
	default:
		return nil, fmt.Errorf("unknown provider: %s", providerName)
	}
}

// ListProviders returns available provider names
func (f *DefaultFactory) ListProviders() []string {
	return []string{"elevenlabs", "openai", "polly", "gcp"}
}
