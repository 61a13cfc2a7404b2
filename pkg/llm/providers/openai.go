package providers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ravi-parthasarathy/causalagent/pkg/llm"
)

func init() {
	llm.RegisterProvider("openai", func(modelName string) (llm.Client, error) {
		return newOpenAIClient(modelName)
	})
}

type openaiClient struct {
	sdk       *openai.Client
	modelName string
}

// newOpenAIClient reads OPENAI_API_KEY and, when set, OPENAI_BASE_URL so the
// adapter can target Azure deployments or OpenAI-compatible gateways.
func newOpenAIClient(modelName string) (*openaiClient, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("openai: OPENAI_API_KEY environment variable not set")
	}
	cfg := openai.DefaultConfig(key)
	if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
		cfg.BaseURL = base
	}
	return &openaiClient{
		sdk:       openai.NewClientWithConfig(cfg),
		modelName: modelName,
	}, nil
}

// Complete performs a single blocking chat completion.
func (c *openaiClient) Complete(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error) {
	resp, err := c.sdk.CreateChatCompletion(ctx, buildOpenAIRequest(c.modelName, req))
	if err != nil {
		return llm.GenerateResponse{}, mapOpenAIError(err)
	}
	return convertOpenAIResponse(resp), nil
}

func buildOpenAIRequest(modelName string, req llm.GenerateRequest) openai.ChatCompletionRequest {
	maxTokens := defaultMaxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	params := openai.ChatCompletionRequest{
		Model:     modelName,
		MaxTokens: maxTokens,
		Messages:  buildMessages(req.Messages, req.System),
	}
	if req.Temperature != nil {
		t := float32(*req.Temperature)
		if t == 0 {
			// go-openai tags Temperature omitempty and has no way to send an
			// explicit 0, which the server would read as its default of 1.
			// The smallest float32 (1e-45) is greedy decoding in practice.
			t = math.SmallestNonzeroFloat32
		}
		params.Temperature = t
	}
	if req.Format == llm.FormatJSON {
		params.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return params
}

// ─── message conversion ───────────────────────────────────────────────────────

// buildMessages converts unified messages to OpenAI's chat completion format.
// The system prompt, when present, always goes first.
func buildMessages(msgs []llm.Message, system string) []openai.ChatCompletionMessage {
	var out []openai.ChatCompletionMessage
	if system != "" {
		out = append(out, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, m := range msgs {
		switch m.Role {
		case llm.RoleUser:
			out = append(out, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: concatText(m.Content),
			})
		case llm.RoleAssistant:
			out = append(out, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: concatText(m.Content),
			})
		}
	}
	return out
}

// convertOpenAIResponse maps an OpenAI response to the unified GenerateResponse.
func convertOpenAIResponse(resp openai.ChatCompletionResponse) llm.GenerateResponse {
	var blocks []llm.ContentBlock
	stop := llm.StopReasonEndTurn
	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		if choice.Message.Content != "" {
			blocks = append(blocks, llm.ContentBlock{
				Type: llm.ContentTypeText,
				Text: choice.Message.Content,
			})
		}
		if choice.FinishReason == openai.FinishReasonLength {
			stop = llm.StopReasonMaxTokens
		}
	}
	return llm.GenerateResponse{
		Content:    blocks,
		StopReason: stop,
		Usage: llm.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}
}

// ─── error mapping ────────────────────────────────────────────────────────────

func mapOpenAIError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == "content_filter" {
			return &llm.ContentFilterError{LLMError: llm.LLMError{
				Code: apiErr.HTTPStatusCode, Message: apiErr.Message, Cause: err,
			}}
		}
		return llm.FromStatus(apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return llm.FromStatus(reqErr.HTTPStatusCode, reqErr.Error(), err)
	}
	return fmt.Errorf("openai: %w", err)
}

func concatText(blocks []llm.ContentBlock) string {
	var s string
	for _, b := range blocks {
		if b.Type == llm.ContentTypeText {
			s += b.Text
		}
	}
	return s
}
