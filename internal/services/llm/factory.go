package llm

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/outing/internal/common"
)

// NewFromConfig creates the provider factory used for itinerary generation and
// warns about generation models whose provider has no API key
func NewFromConfig(cfg *common.Config, logger arbor.ILogger, opts ...FactoryOption) *ProviderFactory {
	factory := NewProviderFactory(&cfg.Gemini, &cfg.Claude, &cfg.OpenAI, &cfg.LLM, logger, opts...)

	for _, model := range []string{cfg.Generation.StructuredModel, cfg.Generation.LegacyModel} {
		provider := factory.DetectProvider(model)
		if !factory.IsConfigured(provider) {
			logger.Warn().
				Str("model", model).
				Str("provider", string(provider)).
				Msg("No API key configured for generation model, requests will use the degraded response")
			continue
		}
		logger.Debug().
			Str("model", model).
			Str("provider", string(provider)).
			Msg("Generation model configured")
	}

	return factory
}
