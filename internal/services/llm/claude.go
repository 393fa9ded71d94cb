package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/outing/internal/interfaces"
)

// getClaudeClient returns a Claude client, creating one if necessary
func (f *ProviderFactory) getClaudeClient() (*anthropic.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.claudeClient != nil {
		return f.claudeClient, nil
	}
	if f.claudeConfig.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key not configured")
	}

	client := anthropic.NewClient(
		option.WithAPIKey(f.claudeConfig.APIKey),
	)
	f.claudeClient = &client
	return f.claudeClient, nil
}

// generateWithClaude generates content using Claude API. Claude has no
// schema-constrained mode here, so the schema is appended to the system prompt.
func (f *ProviderFactory) generateWithClaude(ctx context.Context, request *interfaces.ContentRequest, model string) (*interfaces.ContentResponse, error) {
	client, err := f.getClaudeClient()
	if err != nil {
		return nil, err
	}

	systemText, conversation, err := splitSystem(request)
	if err != nil {
		return nil, fmt.Errorf("failed to convert messages: %w", err)
	}

	if wantsSchema(request) {
		schemaJSON, err := json.Marshal(request.OutputSchema)
		if err != nil {
			return nil, fmt.Errorf("failed to encode output schema: %w", err)
		}
		systemText = strings.TrimSpace(systemText + "\n\nRespond with a single JSON object that conforms to this JSON schema and nothing else:\n" + string(schemaJSON))
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokensOr(request.MaxTokens, f.claudeConfig.MaxTokens)),
		Messages:  convertMessagesToClaude(conversation),
	}

	if temp := temperatureOr(request.Temperature, f.claudeConfig.Temperature); temp > 0 {
		params.Temperature = anthropic.Float(float64(temp))
	}

	if systemText != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemText},
		}
	}

	resp, err := withRetry(ctx, f.retryConfig, f.logger, ProviderClaude, func() (*anthropic.Message, error) {
		return client.Messages.New(ctx, params)
	})
	if err != nil {
		return nil, fmt.Errorf("claude API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	if text.Len() == 0 {
		return nil, fmt.Errorf("empty response from Claude API")
	}

	return &interfaces.ContentResponse{
		Text:     text.String(),
		Provider: string(ProviderClaude),
		Model:    model,
	}, nil
}

// convertMessagesToClaude converts conversation messages; unknown roles are sent as user
func convertMessagesToClaude(messages []interfaces.Message) []anthropic.MessageParam {
	claudeMessages := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == "assistant" {
			claudeMessages = append(claudeMessages, anthropic.NewAssistantMessage(block))
			continue
		}
		claudeMessages = append(claudeMessages, anthropic.NewUserMessage(block))
	}
	return claudeMessages
}
