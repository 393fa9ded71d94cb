package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/ternarybob/outing/internal/interfaces"
)

// defaultSchemaName is sent when a schema request does not name its schema
const defaultSchemaName = "response"

// jsonSchema adapts a schema map to the json.Marshaler the client expects
type jsonSchema map[string]interface{}

func (s jsonSchema) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}(s))
}

// getOpenAIClient returns an OpenAI client, creating one if necessary
func (f *ProviderFactory) getOpenAIClient() (*openai.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.openaiClient != nil {
		return f.openaiClient, nil
	}
	if f.openaiConfig.APIKey == "" {
		return nil, fmt.Errorf("openai API key not configured")
	}

	clientConfig := openai.DefaultConfig(f.openaiConfig.APIKey)
	if f.openaiConfig.BaseURL != "" {
		clientConfig.BaseURL = f.openaiConfig.BaseURL
	}

	f.openaiClient = openai.NewClientWithConfig(clientConfig)
	return f.openaiClient, nil
}

// generateWithOpenAI generates content using the chat completions API.
// Schema requests use the strict json_schema response format.
func (f *ProviderFactory) generateWithOpenAI(ctx context.Context, request *interfaces.ContentRequest, model string) (*interfaces.ContentResponse, error) {
	client, err := f.getOpenAIClient()
	if err != nil {
		return nil, err
	}

	systemText, conversation, err := splitSystem(request)
	if err != nil {
		return nil, fmt.Errorf("failed to convert messages: %w", err)
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(conversation)+1)
	if systemText != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemText,
		})
	}
	for _, msg := range conversation {
		role := openai.ChatMessageRoleUser
		if msg.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}

	chatRequest := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperatureOr(request.Temperature, f.openaiConfig.Temperature),
		MaxTokens:   maxTokensOr(request.MaxTokens, f.openaiConfig.MaxTokens),
	}

	if wantsSchema(request) {
		name := request.SchemaName
		if name == "" {
			name = defaultSchemaName
		}
		chatRequest.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   name,
				Schema: jsonSchema(request.OutputSchema),
				Strict: true,
			},
		}
	}

	resp, err := withRetry(ctx, f.retryConfig, f.logger, ProviderOpenAI, func() (openai.ChatCompletionResponse, error) {
		return client.CreateChatCompletion(ctx, chatRequest)
	})
	if err != nil {
		return nil, fmt.Errorf("openai API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response choices from OpenAI")
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return nil, fmt.Errorf("empty text in OpenAI response")
	}

	f.logger.Debug().
		Str("model", resp.Model).
		Int("total_tokens", resp.Usage.TotalTokens).
		Str("finish_reason", string(resp.Choices[0].FinishReason)).
		Msg("OpenAI completion received")

	return &interfaces.ContentResponse{
		Text:     content,
		Provider: string(ProviderOpenAI),
		Model:    model,
	}, nil
}
