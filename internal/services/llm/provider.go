package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/sashabaranov/go-openai"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/outing/internal/common"
	"github.com/ternarybob/outing/internal/interfaces"
	"google.golang.org/genai"
)

// ProviderType represents the AI provider type
type ProviderType string

const (
	// ProviderGemini uses Google Gemini API
	ProviderGemini ProviderType = "gemini"
	// ProviderClaude uses Anthropic Claude API
	ProviderClaude ProviderType = "claude"
	// ProviderOpenAI uses the OpenAI chat completions API
	ProviderOpenAI ProviderType = "openai"
)

var _ interfaces.CompletionProvider = (*ProviderFactory)(nil)

// ProviderFactory routes completion requests to the provider implied by the
// model name and owns the lazily created provider clients
type ProviderFactory struct {
	geminiConfig *common.GeminiConfig
	claudeConfig *common.ClaudeConfig
	openaiConfig *common.OpenAIConfig
	llmConfig    *common.LLMConfig
	retryConfig  *RetryConfig
	logger       arbor.ILogger

	mu           sync.Mutex
	geminiClient *genai.Client
	claudeClient *anthropic.Client
	openaiClient *openai.Client
}

// FactoryOption configures the ProviderFactory
type FactoryOption func(*ProviderFactory)

// WithRetryConfig overrides the rate-limit retry policy
func WithRetryConfig(retryConfig *RetryConfig) FactoryOption {
	return func(f *ProviderFactory) {
		f.retryConfig = retryConfig
	}
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(
	geminiConfig *common.GeminiConfig,
	claudeConfig *common.ClaudeConfig,
	openaiConfig *common.OpenAIConfig,
	llmConfig *common.LLMConfig,
	logger arbor.ILogger,
	opts ...FactoryOption,
) *ProviderFactory {
	f := &ProviderFactory{
		geminiConfig: geminiConfig,
		claudeConfig: claudeConfig,
		openaiConfig: openaiConfig,
		llmConfig:    llmConfig,
		retryConfig:  NewDefaultRetryConfig(),
		logger:       logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// DetectProvider determines the provider type from a model string.
// Model strings can be:
// - "claude-sonnet-4-20250514" or "claude/claude-sonnet-4-20250514" -> Claude
// - "gemini-2.5-flash" or "gemini/gemini-2.5-flash" -> Gemini
// - "gpt-4o-mini", "o3-mini" or "openai/gpt-4o-mini" -> OpenAI
// - Empty string -> uses default provider from config
func (f *ProviderFactory) DetectProvider(model string) ProviderType {
	if model == "" {
		return ProviderType(f.llmConfig.DefaultProvider)
	}

	model = strings.ToLower(model)

	// Check for explicit provider prefix
	switch {
	case strings.HasPrefix(model, "claude/"), strings.HasPrefix(model, "anthropic/"):
		return ProviderClaude
	case strings.HasPrefix(model, "gemini/"), strings.HasPrefix(model, "google/"):
		return ProviderGemini
	case strings.HasPrefix(model, "openai/"):
		return ProviderOpenAI
	}

	// Check for model name patterns
	switch {
	case strings.HasPrefix(model, "claude-"):
		return ProviderClaude
	case strings.HasPrefix(model, "gemini-"):
		return ProviderGemini
	case strings.HasPrefix(model, "gpt-"), strings.HasPrefix(model, "o1"), strings.HasPrefix(model, "o3"), strings.HasPrefix(model, "o4"):
		return ProviderOpenAI
	}

	// Default to configured provider
	return ProviderType(f.llmConfig.DefaultProvider)
}

// NormalizeModel removes provider prefix from model name if present
func (f *ProviderFactory) NormalizeModel(model string) string {
	prefixes := []string{"claude/", "anthropic/", "gemini/", "google/", "openai/"}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToLower(model), prefix) {
			return model[len(prefix):]
		}
	}
	return model
}

// GetDefaultModel returns the default model for a provider
func (f *ProviderFactory) GetDefaultModel(provider ProviderType) string {
	switch provider {
	case ProviderClaude:
		return f.claudeConfig.Model
	case ProviderOpenAI:
		return f.openaiConfig.Model
	default:
		return f.geminiConfig.Model
	}
}

// IsConfigured reports whether an API key is available for provider
func (f *ProviderFactory) IsConfigured(provider ProviderType) bool {
	switch provider {
	case ProviderClaude:
		return f.claudeConfig.APIKey != ""
	case ProviderOpenAI:
		return f.openaiConfig.APIKey != ""
	case ProviderGemini:
		return f.geminiConfig.APIKey != ""
	default:
		return false
	}
}

// GenerateContent generates content using the appropriate provider based on model
func (f *ProviderFactory) GenerateContent(ctx context.Context, request *interfaces.ContentRequest) (*interfaces.ContentResponse, error) {
	if request == nil || len(request.Messages) == 0 {
		return nil, fmt.Errorf("messages cannot be empty")
	}

	provider := f.DetectProvider(request.Model)
	model := f.NormalizeModel(request.Model)
	if model == "" {
		model = f.GetDefaultModel(provider)
	}

	f.logger.Debug().
		Str("provider", string(provider)).
		Str("model", model).
		Str("mode", string(request.Mode)).
		Int("message_count", len(request.Messages)).
		Msg("Generating content with provider")

	switch provider {
	case ProviderClaude:
		return f.generateWithClaude(ctx, request, model)
	case ProviderOpenAI:
		return f.generateWithOpenAI(ctx, request, model)
	case ProviderGemini:
		return f.generateWithGemini(ctx, request, model)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// Close drops all provider clients; they are recreated on next use
func (f *ProviderFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.geminiClient = nil
	f.claudeClient = nil
	f.openaiClient = nil
	return nil
}

// wantsSchema reports whether the request asks for schema-constrained output
func wantsSchema(request *interfaces.ContentRequest) bool {
	return request.Mode == interfaces.ResponseModeJSONSchema && len(request.OutputSchema) > 0
}

// splitSystem separates the first system message from the conversation and
// lets an explicit SystemInstruction take precedence
func splitSystem(request *interfaces.ContentRequest) (string, []interfaces.Message, error) {
	var systemText string
	conversation := make([]interfaces.Message, 0, len(request.Messages))
	hasUserMessage := false

	for _, msg := range request.Messages {
		if msg.Role == "system" {
			if systemText == "" {
				systemText = msg.Content
			}
			continue
		}
		if msg.Role == "user" {
			hasUserMessage = true
		}
		conversation = append(conversation, msg)
	}

	if !hasUserMessage {
		return "", nil, fmt.Errorf("at least one message must have role 'user'")
	}
	if request.SystemInstruction != "" {
		systemText = request.SystemInstruction
	}
	return systemText, conversation, nil
}

func temperatureOr(requested, fallback float32) float32 {
	if requested > 0 {
		return requested
	}
	return fallback
}

func maxTokensOr(requested, fallback int) int {
	if requested > 0 {
		return requested
	}
	return fallback
}
