package llm

import (
	"fmt"
	"strings"
)

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ContentType identifies what kind of content a block holds.
type ContentType string

const (
	ContentTypeText ContentType = "text"
)

// ContentBlock is one element in a message's content array.
type ContentBlock struct {
	Type ContentType `json:"type"`
	Text string      `json:"text,omitempty"`
}

// Message is one turn in a conversation.
type Message struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// TextMessage is a convenience constructor for a plain-text message.
func TextMessage(role Role, text string) Message {
	return Message{
		Role:    role,
		Content: []ContentBlock{{Type: ContentTypeText, Text: text}},
	}
}

// ResponseFormat asks the provider to constrain the shape of its reply.
// Providers without native support ignore it and rely on the prompt.
type ResponseFormat string

const (
	FormatText ResponseFormat = ""
	FormatJSON ResponseFormat = "json"
)

// GenerateRequest is the unified input to the LLM client.
type GenerateRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	System    string    `json:"system,omitempty"`
	MaxTokens int       `json:"max_tokens,omitempty"`
	// Temperature is left to the provider default when nil.
	Temperature *float64       `json:"temperature,omitempty"`
	Format      ResponseFormat `json:"format,omitempty"`
}

// Temperature returns a pointer suitable for GenerateRequest.Temperature.
func Temperature(t float64) *float64 { return &t }

// StopReason explains why generation stopped.
type StopReason string

const (
	StopReasonEndTurn   StopReason = "end_turn"
	StopReasonMaxTokens StopReason = "max_tokens"
)

// Usage reports token counts.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// GenerateResponse is the unified output from the LLM client.
type GenerateResponse struct {
	Content    []ContentBlock `json:"content"`
	StopReason StopReason     `json:"stop_reason"`
	Usage      Usage          `json:"usage"`
}

// Text concatenates all text blocks of the response.
func (r GenerateResponse) Text() string {
	var sb strings.Builder
	for _, b := range r.Content {
		if b.Type == ContentTypeText {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

// ParseModelID splits "provider:model-name" into (provider, modelName, nil).
// Both parts must be non-empty and the colon separator is required.
// Model names may themselves contain colons (e.g. "openai:ft:gpt-4o:acme").
func ParseModelID(id string) (provider, modelName string, err error) {
	p, m, ok := strings.Cut(id, ":")
	if !ok {
		return "", "", fmt.Errorf("model ID %q: missing 'provider:model-name' format", id)
	}
	if p == "" {
		return "", "", fmt.Errorf("model ID %q: empty provider name", id)
	}
	if m == "" {
		return "", "", fmt.Errorf("model ID %q: empty model name", id)
	}
	return p, m, nil
}
