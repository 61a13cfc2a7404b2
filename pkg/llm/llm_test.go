package llm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ravi-parthasarathy/causalagent/pkg/llm"
)

func TestParseModelID(t *testing.T) {
	tests := []struct {
		input        string
		wantProvider string
		wantModel    string
		wantErr      bool
	}{
		{"anthropic:claude-sonnet-4-6", "anthropic", "claude-sonnet-4-6", false},
		{"openai:gpt-4o", "openai", "gpt-4o", false},
		{"openai:ft:gpt-4o:acme", "openai", "ft:gpt-4o:acme", false},
		{"invalid", "", "", true},
		{":", "", "", true},
		{":model", "", "", true},
		{"provider:", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			prov, model, err := llm.ParseModelID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseModelID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if prov != tt.wantProvider {
				t.Errorf("provider = %q, want %q", prov, tt.wantProvider)
			}
			if model != tt.wantModel {
				t.Errorf("model = %q, want %q", model, tt.wantModel)
			}
		})
	}
}

func TestNewClient_UnknownProvider(t *testing.T) {
	_, err := llm.NewClient("unknown_provider:some-model")
	if err == nil {
		t.Fatal("expected error for unknown provider, got nil")
	}
}

func TestNewClient_RegisteredProvider(t *testing.T) {
	llm.RegisterProvider("test-echo", func(modelName string) (llm.Client, error) {
		return &flakyClient{}, nil
	})
	c, err := llm.NewClient("test-echo:m1")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c == nil {
		t.Fatal("NewClient returned nil client")
	}
	found := false
	for _, p := range llm.Providers() {
		if p == "test-echo" {
			found = true
		}
	}
	if !found {
		t.Errorf("Providers() = %v, want it to include test-echo", llm.Providers())
	}
}

func TestRetryable(t *testing.T) {
	base := func(msg string) llm.LLMError { return llm.LLMError{Message: msg} }
	tests := []struct {
		err      error
		wantTrue bool
	}{
		{&llm.RateLimitError{LLMError: base("rate limit")}, true},
		{&llm.ServerError{LLMError: base("5xx")}, true},
		{&llm.AuthError{LLMError: base("auth")}, false},
		{&llm.ContextLengthError{LLMError: base("ctx")}, false},
		{&llm.ContentFilterError{LLMError: base("filter")}, false},
	}
	for _, tt := range tests {
		got := llm.Retryable(tt.err)
		if got != tt.wantTrue {
			t.Errorf("Retryable(%T) = %v, want %v", tt.err, got, tt.wantTrue)
		}
	}
}

func TestFromStatus(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		code int
		want any
	}{
		{429, &llm.RateLimitError{}},
		{401, &llm.AuthError{}},
		{403, &llm.AuthError{}},
		{400, &llm.ContextLengthError{}},
		{503, &llm.ServerError{}},
		{529, &llm.ServerError{}},
		{418, &llm.LLMError{}},
	}
	for _, tt := range tests {
		err := llm.FromStatus(tt.code, "msg", cause)
		if !errors.Is(err, cause) {
			t.Errorf("FromStatus(%d) does not wrap cause", tt.code)
		}
		switch tt.want.(type) {
		case *llm.RateLimitError:
			var target *llm.RateLimitError
			if !errors.As(err, &target) {
				t.Errorf("FromStatus(%d) = %T, want RateLimitError", tt.code, err)
			}
		case *llm.AuthError:
			var target *llm.AuthError
			if !errors.As(err, &target) {
				t.Errorf("FromStatus(%d) = %T, want AuthError", tt.code, err)
			}
		case *llm.ContextLengthError:
			var target *llm.ContextLengthError
			if !errors.As(err, &target) {
				t.Errorf("FromStatus(%d) = %T, want ContextLengthError", tt.code, err)
			}
		case *llm.ServerError:
			var target *llm.ServerError
			if !errors.As(err, &target) {
				t.Errorf("FromStatus(%d) = %T, want ServerError", tt.code, err)
			}
		case *llm.LLMError:
			if llm.Retryable(err) {
				t.Errorf("FromStatus(%d) should not be retryable", tt.code)
			}
		}
	}
}

// flakyClient fails with the queued errors before succeeding.
type flakyClient struct {
	errs  []error
	calls int
}

func (f *flakyClient) Complete(_ context.Context, _ llm.GenerateRequest) (llm.GenerateResponse, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return llm.GenerateResponse{}, err
	}
	return llm.GenerateResponse{Content: []llm.ContentBlock{{Type: llm.ContentTypeText, Text: "ok"}}}, nil
}

func TestRetrying_RecoversFromTransientErrors(t *testing.T) {
	defer llm.SetBackoffBase(time.Millisecond)()
	inner := &flakyClient{errs: []error{
		&llm.ServerError{LLMError: llm.LLMError{Code: 503}},
		&llm.RateLimitError{LLMError: llm.LLMError{Code: 429}},
	}}
	c := llm.Retrying(inner, 3)
	resp, err := c.Complete(t.Context(), llm.GenerateRequest{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Text() != "ok" {
		t.Errorf("text = %q, want ok", resp.Text())
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}

func TestRetrying_StopsOnPermanentError(t *testing.T) {
	defer llm.SetBackoffBase(time.Millisecond)()
	inner := &flakyClient{errs: []error{&llm.AuthError{LLMError: llm.LLMError{Code: 401}}}}
	c := llm.Retrying(inner, 3)
	if _, err := c.Complete(t.Context(), llm.GenerateRequest{}); err == nil {
		t.Fatal("expected auth error")
	}
	if inner.calls != 1 {
		t.Errorf("calls = %d, want 1", inner.calls)
	}
}

func TestRetrying_SingleAttemptIsPassthrough(t *testing.T) {
	inner := &flakyClient{}
	if c := llm.Retrying(inner, 1); c != llm.Client(inner) {
		t.Error("Retrying with 1 attempt should return the client unchanged")
	}
}

func TestWithRetry_SingleAttemptKeepsError(t *testing.T) {
	want := &llm.ServerError{LLMError: llm.LLMError{Code: 500}}
	err := llm.WithRetry(t.Context(), 1, func() error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}

func TestGenerateResponse_Text(t *testing.T) {
	resp := llm.GenerateResponse{Content: []llm.ContentBlock{
		{Type: llm.ContentTypeText, Text: "hello "},
		{Type: llm.ContentTypeText, Text: "world"},
	}}
	if got := resp.Text(); got != "hello world" {
		t.Errorf("Text() = %q, want %q", got, "hello world")
	}
}
