package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/ravi-parthasarathy/causalagent/pkg/causal"
	"github.com/ravi-parthasarathy/causalagent/pkg/diagram"
	"github.com/ravi-parthasarathy/causalagent/pkg/llm"
)

// RejectionMessage is shown for rejected and unclassifiable input.
const RejectionMessage = "Sorry, this input doesn't contain anything we can work with."

// Classify asks the model which task fits s.InputText and stores the
// trimmed, lowercased answer in Task.
func (a *Analyzer) Classify(ctx context.Context, s State) (State, error) {
	if s.Task != "" {
		return s, ErrAlreadyClassified
	}
	req, err := request(classifySystem, s.InputText, llm.FormatText)
	if err != nil {
		return s, err
	}
	reply, err := a.complete(ctx, NodeClassifier, a.classifier, req)
	if err != nil {
		return s, err
	}
	task := Task(strings.ToLower(strings.TrimSpace(reply)))
	if task == "" {
		task = TaskUnknown
	}
	return s.WithTask(task), nil
}

// Extract asks the model for causal triples. Unparseable output is not an
// error: relationships become empty and the state is marked Partial.
func (a *Analyzer) Extract(ctx context.Context, s State) (State, error) {
	req, err := request(extractSystem, s.InputText, llm.FormatJSON)
	if err != nil {
		return s, err
	}
	reply, err := a.complete(ctx, string(BranchExtract), a.extractor, req)
	if err != nil {
		return s, err
	}
	rels, err := causal.ParseRelationships(reply)
	if err != nil {
		a.log.Warn("extraction output rejected", "error", err, "bytes", len(reply))
		return s.WithExtractionFailure(err), nil
	}
	return s.WithRelationships(rels), nil
}

// FormatDiagram renders s.Relationships as a Mermaid diagram.
func FormatDiagram(s State) State {
	return s.WithDiagram(diagram.Mermaid(s.Relationships))
}

// Summarize asks the model for a 2-3 sentence summary. A blank reply is
// an ErrModel failure.
func (a *Analyzer) Summarize(ctx context.Context, s State) (State, error) {
	req, err := request(summarizeSystem, s.InputText, llm.FormatText)
	if err != nil {
		return s, err
	}
	reply, err := a.complete(ctx, string(BranchSummarize), a.summarizer, req)
	if err != nil {
		return s, err
	}
	summary := strings.TrimSpace(reply)
	if summary == "" {
		return s, fmt.Errorf("%s: %w: empty reply", BranchSummarize, ErrModel)
	}
	return s.WithSummary(summary), nil
}

// Reject sets the fixed rejection message.
func Reject(s State) State {
	return s.WithMessage(RejectionMessage)
}
