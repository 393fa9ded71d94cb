package interfaces

import (
	"context"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// ResponseMode selects how a completion is constrained
type ResponseMode string

const (
	// ResponseModeText asks for free text
	ResponseModeText ResponseMode = "text"

	// ResponseModeJSONSchema asks for output conforming to ContentRequest.OutputSchema
	ResponseModeJSONSchema ResponseMode = "json_schema"
)

// ContentRequest represents a provider-agnostic content generation request
type ContentRequest struct {
	Messages          []Message
	Model             string
	Temperature       float32
	MaxTokens         int
	SystemInstruction string
	Mode              ResponseMode
	SchemaName        string
	OutputSchema      map[string]interface{} // JSON schema, used when Mode is json_schema
}

// ContentResponse represents a provider-agnostic content generation response
type ContentResponse struct {
	Text     string
	Provider string
	Model    string
}

// CompletionProvider is the completion API consumed by itinerary generation
type CompletionProvider interface {
	GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error)
}
