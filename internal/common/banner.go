package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and the resolved runtime settings
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.Print("Outing", GetVersion())

	logger.Info().
		Str("version", GetVersion()).
		Str("environment", config.Environment).
		Str("storage", config.Storage.Type).
		Str("llm_provider", string(config.LLM.DefaultProvider)).
		Str("structured_model", config.Generation.StructuredModel).
		Str("legacy_model", config.Generation.LegacyModel).
		Bool("places_key_configured", config.Places.APIKey != "").
		Msg("Outing planner starting")
}
