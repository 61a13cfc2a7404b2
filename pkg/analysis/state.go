package analysis

import (
	"errors"
	"fmt"

	"github.com/ravi-parthasarathy/causalagent/pkg/causal"
)

// Task is the classifier's decision. Tokens outside the known set are
// stored verbatim and routed to the reject branch.
type Task string

const (
	TaskExtract   Task = "extract"
	TaskSummarize Task = "summarize"
	TaskReject    Task = "reject"
	// TaskUnknown is stored when the classifier returns an empty answer.
	TaskUnknown Task = "unknown"
)

// State is threaded through one pipeline invocation. Steps never mutate a
// State in place: the With* methods return updated copies.
type State struct {
	InputText     string                `json:"input_text" yaml:"input_text"`
	Task          Task                  `json:"task,omitempty" yaml:"task,omitempty"`
	Relationships []causal.Relationship `json:"relationships" yaml:"relationships"`
	Diagram       string                `json:"diagram" yaml:"diagram"`
	Summary       string                `json:"summary" yaml:"summary"`
	Message       string                `json:"message" yaml:"message"`

	// Partial is set when the extractor's model output could not be parsed
	// and Relationships were defaulted to empty.
	Partial         bool   `json:"partial,omitempty" yaml:"partial,omitempty"`
	ExtractionError string `json:"extraction_error,omitempty" yaml:"extraction_error,omitempty"`
}

// NewState returns the initial state for one invocation.
func NewState(text string) State {
	return State{InputText: text, Relationships: []causal.Relationship{}}
}

// WithTask returns a copy of s classified as t.
func (s State) WithTask(t Task) State {
	s.Task = t
	return s
}

// WithRelationships returns a copy of s holding its own copy of rels.
func (s State) WithRelationships(rels []causal.Relationship) State {
	s.Relationships = append(make([]causal.Relationship, 0, len(rels)), rels...)
	return s
}

// WithExtractionFailure returns a copy of s with empty relationships and the
// partial marker set.
func (s State) WithExtractionFailure(err error) State {
	s = s.WithRelationships(nil)
	s.Partial = true
	s.ExtractionError = err.Error()
	return s
}

// WithDiagram returns a copy of s with the diagram set.
func (s State) WithDiagram(d string) State {
	s.Diagram = d
	return s
}

// WithSummary returns a copy of s with the summary set.
func (s State) WithSummary(summary string) State {
	s.Summary = summary
	return s
}

// WithMessage returns a copy of s with the user-facing message set.
func (s State) WithMessage(m string) State {
	s.Message = m
	return s
}

// ErrInconsistent is returned by Check.
var ErrInconsistent = errors.New("inconsistent pipeline state")

// Check verifies that a finished state populated exactly the outputs of
// the branch its Task routes to.
func (s State) Check() error {
	if s.Task == "" {
		return fmt.Errorf("%w: task not set", ErrInconsistent)
	}
	hasExtract := len(s.Relationships) > 0 || s.Diagram != ""
	hasSummary := s.Summary != ""
	hasMessage := s.Message != ""

	switch Route(s.Task) {
	case BranchExtract:
		if s.Diagram == "" || hasSummary || hasMessage {
			return fmt.Errorf("%w: extract branch must set only relationships and diagram", ErrInconsistent)
		}
	case BranchSummarize:
		if !hasSummary || hasExtract || hasMessage {
			return fmt.Errorf("%w: summarize branch must set only summary", ErrInconsistent)
		}
	default:
		if !hasMessage || hasExtract || hasSummary {
			return fmt.Errorf("%w: reject branch must set only message", ErrInconsistent)
		}
	}
	return nil
}
