package providers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/ravi-parthasarathy/causalagent/pkg/llm"
)

func init() {
	llm.RegisterProvider("gemini", func(modelName string) (llm.Client, error) {
		return newGeminiClient(modelName)
	})
}

type geminiClient struct {
	sdk       *genai.Client
	modelName string
}

func newGeminiClient(modelName string) (*geminiClient, error) {
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("gemini: GEMINI_API_KEY environment variable not set")
	}
	// genai.NewClient requires a context; use Background for construction.
	sdk, err := genai.NewClient(context.Background(), option.WithAPIKey(key))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &geminiClient{sdk: sdk, modelName: modelName}, nil
}

// Complete performs a single blocking generation.
func (c *geminiClient) Complete(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error) {
	// GenerativeModel carries per-request settings, so build a fresh one
	// per call to keep the client safe for concurrent use.
	model := c.sdk.GenerativeModel(c.modelName)
	configureModel(model, req)

	history, last := buildContents(req.Messages)
	if last == nil {
		return llm.GenerateResponse{}, fmt.Errorf("gemini: no user message to send")
	}

	cs := model.StartChat()
	cs.History = history
	apiResp, err := cs.SendMessage(ctx, last.Parts...)
	if err != nil {
		return llm.GenerateResponse{}, mapGeminiError(err)
	}
	return convertGeminiResponse(apiResp), nil
}

// configureModel applies generation settings from req to model.
func configureModel(model *genai.GenerativeModel, req llm.GenerateRequest) {
	maxTokens := int32(defaultMaxTokens)
	if req.MaxTokens > 0 {
		maxTokens = int32(req.MaxTokens)
	}
	model.SetMaxOutputTokens(maxTokens)
	if req.Temperature != nil {
		model.SetTemperature(float32(*req.Temperature))
	}
	if req.Format == llm.FormatJSON {
		model.ResponseMIMEType = "application/json"
	}
	// System prompt goes to SystemInstruction, not the message history.
	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}
}

// ─── message translation ─────────────────────────────────────────────────────

// buildContents translates unified messages into Gemini's format. The last
// content is returned separately for cs.SendMessage; everything before it is
// chat history. System messages are skipped.
func buildContents(msgs []llm.Message) ([]*genai.Content, *genai.Content) {
	var contents []*genai.Content
	for _, m := range msgs {
		var role string
		switch m.Role {
		case llm.RoleUser:
			role = "user"
		case llm.RoleAssistant:
			role = "model"
		default:
			continue
		}
		text := concatText(m.Content)
		if text == "" {
			continue
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(text)},
		})
	}
	if len(contents) == 0 {
		return nil, nil
	}
	return contents[:len(contents)-1], contents[len(contents)-1]
}

// ─── response conversion ─────────────────────────────────────────────────────

func convertGeminiResponse(resp *genai.GenerateContentResponse) llm.GenerateResponse {
	var blocks []llm.ContentBlock
	stopReason := llm.StopReasonEndTurn

	if len(resp.Candidates) > 0 {
		cand := resp.Candidates[0]
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if v, ok := part.(genai.Text); ok && string(v) != "" {
					blocks = append(blocks, llm.ContentBlock{
						Type: llm.ContentTypeText,
						Text: string(v),
					})
				}
			}
		}
		if cand.FinishReason == genai.FinishReasonMaxTokens {
			stopReason = llm.StopReasonMaxTokens
		}
	}

	var usage llm.Usage
	if resp.UsageMetadata != nil {
		usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return llm.GenerateResponse{
		Content:    blocks,
		StopReason: stopReason,
		Usage:      usage,
	}
}

// ─── error mapping ────────────────────────────────────────────────────────────

func mapGeminiError(err error) error {
	if err == nil {
		return nil
	}
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &llm.ContentFilterError{LLMError: llm.LLMError{Message: blocked.Error(), Cause: err}}
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return llm.FromStatus(apiErr.Code, apiErr.Message, err)
	}
	return fmt.Errorf("gemini: %w", err)
}
