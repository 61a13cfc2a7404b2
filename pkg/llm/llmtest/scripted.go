// Package llmtest provides an in-memory llm.Client for tests.
package llmtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/ravi-parthasarathy/causalagent/pkg/llm"
)

// Reply is one scripted outcome: either Text or Err.
type Reply struct {
	Text string
	Err  error
	// Block makes Complete wait for ctx to be done before returning.
	Block bool
}

// Scripted replays queued replies in order and records every request.
// It is safe for concurrent use.
type Scripted struct {
	mu       sync.Mutex
	replies  []Reply
	requests []llm.GenerateRequest
}

// New returns a Scripted client that answers with texts in order.
func New(texts ...string) *Scripted {
	s := &Scripted{}
	for _, t := range texts {
		s.replies = append(s.replies, Reply{Text: t})
	}
	return s
}

// Push queues additional replies.
func (s *Scripted) Push(replies ...Reply) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, replies...)
	return s
}

// Complete pops the next reply. An exhausted script is an error.
func (s *Scripted) Complete(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	if len(s.replies) == 0 {
		n := len(s.requests)
		s.mu.Unlock()
		return llm.GenerateResponse{}, fmt.Errorf("llmtest: no scripted reply for request %d", n)
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	s.mu.Unlock()

	if r.Block {
		<-ctx.Done()
		return llm.GenerateResponse{}, ctx.Err()
	}
	if r.Err != nil {
		return llm.GenerateResponse{}, r.Err
	}
	return llm.GenerateResponse{
		Content:    []llm.ContentBlock{{Type: llm.ContentTypeText, Text: r.Text}},
		StopReason: llm.StopReasonEndTurn,
	}, nil
}

// Requests returns a copy of the requests seen so far.
func (s *Scripted) Requests() []llm.GenerateRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llm.GenerateRequest(nil), s.requests...)
}

// Remaining reports how many scripted replies are still queued.
func (s *Scripted) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.replies)
}

// Func adapts a function to llm.Client, for tests that route on the prompt.
type Func func(ctx context.Context, req llm.GenerateRequest) (string, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error) {
	text, err := f(ctx, req)
	if err != nil {
		return llm.GenerateResponse{}, err
	}
	return llm.GenerateResponse{Content: []llm.ContentBlock{{Type: llm.ContentTypeText, Text: text}}}, nil
}
