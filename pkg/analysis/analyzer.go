// Package analysis is the orchestration core: it classifies input text,
// routes it to extraction, summarization or rejection, and returns the
// final State.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ravi-parthasarathy/causalagent/pkg/llm"
)

const (
	DefaultTimeout   = 60 * time.Second
	DefaultMaxTokens = 1024
)

var (
	// ErrEmptyInput is returned by Run for blank input text.
	ErrEmptyInput = errors.New("input text is empty")
	// ErrModel marks a fatal failure of a language-model call, including
	// timeouts. No partial state accompanies it.
	ErrModel = errors.New("language model call failed")
	// ErrAlreadyClassified is returned when Classify sees a state whose task is set.
	ErrAlreadyClassified = errors.New("task already classified")
)

// Step is one node of the pipeline. Run receives the current state and
// returns the next one.
type Step struct {
	Name string
	Run  func(ctx context.Context, s State) (State, error)
}

// pure lifts a side-effect-free transformation into a Step.
func pure(name string, f func(State) State) Step {
	return Step{Name: name, Run: func(_ context.Context, s State) (State, error) {
		return f(s), nil
	}}
}

// Options configures an Analyzer. Client is the fallback for any per-step
// client left nil.
type Options struct {
	Client     llm.Client
	Classifier llm.Client
	Extractor  llm.Client
	Summarizer llm.Client

	// Timeout bounds each model call. Zero means DefaultTimeout.
	Timeout time.Duration
	// MaxTokens caps each model reply. Zero means DefaultMaxTokens.
	MaxTokens int
	Logger    *slog.Logger
}

// Analyzer runs pipeline invocations. It keeps no per-invocation state, so
// concurrent Run calls are safe when the configured clients are.
type Analyzer struct {
	classifier llm.Client
	extractor  llm.Client
	summarizer llm.Client
	timeout    time.Duration
	maxTokens  int
	log        *slog.Logger

	branches map[Branch][]Step
}

// New builds an Analyzer. Every step must end up with a client.
func New(opts Options) (*Analyzer, error) {
	pick := func(c llm.Client) llm.Client {
		if c != nil {
			return c
		}
		return opts.Client
	}
	a := &Analyzer{
		classifier: pick(opts.Classifier),
		extractor:  pick(opts.Extractor),
		summarizer: pick(opts.Summarizer),
		timeout:    opts.Timeout,
		maxTokens:  opts.MaxTokens,
		log:        opts.Logger,
	}
	if a.classifier == nil || a.extractor == nil || a.summarizer == nil {
		return nil, fmt.Errorf("analysis: a language-model client is required for every step")
	}
	if a.timeout <= 0 {
		a.timeout = DefaultTimeout
	}
	if a.maxTokens <= 0 {
		a.maxTokens = DefaultMaxTokens
	}
	if a.log == nil {
		a.log = slog.Default()
	}

	a.branches = map[Branch][]Step{
		BranchExtract: {
			{Name: string(BranchExtract), Run: a.Extract},
			pure(NodeFormatter, FormatDiagram),
		},
		BranchSummarize: {
			{Name: string(BranchSummarize), Run: a.Summarize},
		},
		BranchReject: {
			pure(string(BranchReject), Reject),
		},
	}
	return a, nil
}

// Run executes one pipeline invocation over text: classify, route, then
// exactly one branch. On error the returned State is the zero value.
func (a *Analyzer) Run(ctx context.Context, text string) (State, error) {
	if strings.TrimSpace(text) == "" {
		return State{}, ErrEmptyInput
	}
	start := time.Now()

	s, err := a.Classify(ctx, NewState(text))
	if err != nil {
		return State{}, err
	}
	branch := Route(s.Task)
	a.log.Info("routed", "task", s.Task, "branch", branch)

	for _, step := range a.branches[branch] {
		a.log.Info("running step", "step", step.Name, "task", s.Task)
		s, err = step.Run(ctx, s)
		if err != nil {
			return State{}, err
		}
	}
	a.log.Info("pipeline complete", "task", s.Task, "relationships", len(s.Relationships),
		"partial", s.Partial, "duration", time.Since(start))
	return s, nil
}

// complete performs one bounded model call and returns the reply text.
func (a *Analyzer) complete(ctx context.Context, step string, c llm.Client, req llm.GenerateRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if req.MaxTokens == 0 {
		req.MaxTokens = a.maxTokens
	}
	start := time.Now()
	resp, err := c.Complete(ctx, req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%s: %w: timed out after %s: %w", step, ErrModel, a.timeout, err)
		}
		return "", fmt.Errorf("%s: %w: %w", step, ErrModel, err)
	}
	a.log.Debug("model call", "step", step, "duration", time.Since(start),
		"input_tokens", resp.Usage.InputTokens, "output_tokens", resp.Usage.OutputTokens,
		"stop_reason", resp.StopReason)
	return resp.Text(), nil
}

// request builds a deterministic single-turn request for text.
func request(system, text string, format llm.ResponseFormat) (llm.GenerateRequest, error) {
	user, err := renderUserPrompt(text)
	if err != nil {
		return llm.GenerateRequest{}, fmt.Errorf("render prompt: %w", err)
	}
	return llm.GenerateRequest{
		System:      system,
		Messages:    []llm.Message{llm.TextMessage(llm.RoleUser, user)},
		Temperature: llm.Temperature(0),
		Format:      format,
	}, nil
}
