package providers

import (
	"errors"
	"math"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ravi-parthasarathy/causalagent/pkg/llm"
)

// ─── TestBuildMessages ────────────────────────────────────────────────────────

func TestBuildMessages_UserText(t *testing.T) {
	msgs := []llm.Message{
		llm.TextMessage(llm.RoleUser, "hello"),
	}
	out := buildMessages(msgs, "")
	if len(out) != 1 {
		t.Fatalf("want 1 message, got %d", len(out))
	}
	if out[0].Role != openai.ChatMessageRoleUser {
		t.Errorf("role: want %q, got %q", openai.ChatMessageRoleUser, out[0].Role)
	}
	if out[0].Content != "hello" {
		t.Errorf("content: want %q, got %q", "hello", out[0].Content)
	}
}

func TestBuildMessages_SystemPrepend(t *testing.T) {
	msgs := []llm.Message{
		llm.TextMessage(llm.RoleSystem, "inline system is dropped"),
		llm.TextMessage(llm.RoleUser, "hi"),
	}
	out := buildMessages(msgs, "you are helpful")
	if len(out) != 2 {
		t.Fatalf("want 2 messages, got %d", len(out))
	}
	if out[0].Role != openai.ChatMessageRoleSystem || out[0].Content != "you are helpful" {
		t.Errorf("first message = %+v, want system prompt", out[0])
	}
	if out[1].Role != openai.ChatMessageRoleUser {
		t.Errorf("second role: want user, got %q", out[1].Role)
	}
}

func TestBuildMessages_Assistant(t *testing.T) {
	msgs := []llm.Message{
		llm.TextMessage(llm.RoleUser, "q"),
		llm.TextMessage(llm.RoleAssistant, "a"),
	}
	out := buildMessages(msgs, "")
	if len(out) != 2 || out[1].Role != openai.ChatMessageRoleAssistant || out[1].Content != "a" {
		t.Errorf("unexpected messages: %+v", out)
	}
}

// ─── TestBuildOpenAIRequest ───────────────────────────────────────────────────

func TestBuildOpenAIRequest_ZeroTemperatureIsSent(t *testing.T) {
	req := buildOpenAIRequest("gpt-4o", llm.GenerateRequest{
		Messages:    []llm.Message{llm.TextMessage(llm.RoleUser, "x")},
		Temperature: llm.Temperature(0),
	})
	if req.Temperature != math.SmallestNonzeroFloat32 {
		t.Errorf("temperature = %v, want smallest non-zero float32", req.Temperature)
	}
	if req.MaxTokens != defaultMaxTokens {
		t.Errorf("max_tokens = %d, want %d", req.MaxTokens, defaultMaxTokens)
	}
	if req.ResponseFormat != nil {
		t.Errorf("response format = %+v, want nil for text", req.ResponseFormat)
	}
}

func TestBuildOpenAIRequest_JSONFormat(t *testing.T) {
	req := buildOpenAIRequest("gpt-4o", llm.GenerateRequest{
		Messages:  []llm.Message{llm.TextMessage(llm.RoleUser, "x")},
		Format:    llm.FormatJSON,
		MaxTokens: 77,
	})
	if req.ResponseFormat == nil || req.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
		t.Errorf("response format = %+v, want json_object", req.ResponseFormat)
	}
	if req.MaxTokens != 77 {
		t.Errorf("max_tokens = %d, want 77", req.MaxTokens)
	}
	if req.Temperature != 0 {
		t.Errorf("temperature = %v, want unset", req.Temperature)
	}
}

// ─── TestConvertOpenAIResponse ────────────────────────────────────────────────

func makeTextResponse(text string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: text},
				FinishReason: openai.FinishReasonStop,
			},
		},
		Usage: openai.Usage{PromptTokens: 10, CompletionTokens: 5},
	}
}

func TestConvertOpenAIResponse_TextOnly(t *testing.T) {
	got := convertOpenAIResponse(makeTextResponse("extract"))
	if got.Text() != "extract" {
		t.Errorf("text = %q, want extract", got.Text())
	}
	if got.StopReason != llm.StopReasonEndTurn {
		t.Errorf("stop_reason = %v, want end_turn", got.StopReason)
	}
	if got.Usage.InputTokens != 10 || got.Usage.OutputTokens != 5 {
		t.Errorf("usage = %+v", got.Usage)
	}
}

func TestConvertOpenAIResponse_NoChoices(t *testing.T) {
	got := convertOpenAIResponse(openai.ChatCompletionResponse{})
	if len(got.Content) != 0 {
		t.Errorf("content = %+v, want empty", got.Content)
	}
}

func TestConvertOpenAIResponse_FinishReasonLength(t *testing.T) {
	resp := makeTextResponse("truncated")
	resp.Choices[0].FinishReason = openai.FinishReasonLength
	if got := convertOpenAIResponse(resp); got.StopReason != llm.StopReasonMaxTokens {
		t.Errorf("stop_reason = %v, want max_tokens", got.StopReason)
	}
}

// ─── TestMapOpenAIError ───────────────────────────────────────────────────────

func makeAPIError(code int) error {
	return &openai.APIError{HTTPStatusCode: code, Message: "api error"}
}

func TestMapOpenAIError_RateLimit(t *testing.T) {
	var rl *llm.RateLimitError
	if !errors.As(mapOpenAIError(makeAPIError(429)), &rl) {
		t.Error("expected RateLimitError")
	}
}

func TestMapOpenAIError_Auth(t *testing.T) {
	for _, code := range []int{401, 403} {
		var ae *llm.AuthError
		if !errors.As(mapOpenAIError(makeAPIError(code)), &ae) {
			t.Errorf("code %d: expected AuthError", code)
		}
	}
}

func TestMapOpenAIError_Server(t *testing.T) {
	var se *llm.ServerError
	if !errors.As(mapOpenAIError(makeAPIError(502)), &se) {
		t.Error("expected ServerError")
	}
}

func TestMapOpenAIError_ContentFilter(t *testing.T) {
	err := mapOpenAIError(&openai.APIError{HTTPStatusCode: 400, Code: "content_filter", Message: "blocked"})
	var cf *llm.ContentFilterError
	if !errors.As(err, &cf) {
		t.Errorf("expected ContentFilterError, got %T", err)
	}
}

func TestMapOpenAIError_Transport(t *testing.T) {
	cause := errors.New("connection reset")
	err := mapOpenAIError(cause)
	if !errors.Is(err, cause) {
		t.Errorf("transport error should wrap cause, got %v", err)
	}
}

func TestMapOpenAIError_Nil(t *testing.T) {
	if got := mapOpenAIError(nil); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestNewOpenAIClient_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := newOpenAIClient("gpt-4o"); err == nil {
		t.Fatal("expected error without OPENAI_API_KEY")
	}
}

func TestNewOpenAIClient_BaseURL(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", "https://gateway.example.com/v1")
	c, err := newOpenAIClient("gpt-4o")
	if err != nil {
		t.Fatalf("newOpenAIClient: %v", err)
	}
	if c.modelName != "gpt-4o" {
		t.Errorf("model = %q, want gpt-4o", c.modelName)
	}
}
