package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.yaml.in/yaml/v3"

	"github.com/ravi-parthasarathy/causalagent/pkg/analysis"
	"github.com/ravi-parthasarathy/causalagent/pkg/diagram"
)

// Output formats.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"

	diagramMermaid = "mermaid"
	diagramDOT     = "dot"
)

func checkFormats(format, diagramFormat string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
	default:
		return fmt.Errorf("unknown format %q: use text, json or yaml", format)
	}
	switch diagramFormat {
	case diagramMermaid, diagramDOT:
	default:
		return fmt.Errorf("unknown diagram format %q: use mermaid or dot", diagramFormat)
	}
	return nil
}

// withDiagramFormat re-renders the diagram of an extract result as DOT
// when asked. Other results are returned unchanged.
func withDiagramFormat(s analysis.State, diagramFormat string) (analysis.State, error) {
	if diagramFormat != diagramDOT || analysis.Route(s.Task) != analysis.BranchExtract {
		return s, nil
	}
	dot, err := diagram.DOT("causal", s.Relationships)
	if err != nil {
		return s, err
	}
	return s.WithDiagram(dot), nil
}

// render writes s to w in the given format.
func render(w io.Writer, s analysis.State, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := io.WriteString(w, renderText(s))
		return err
	}
}

// renderText lays out the result the way a reader sees it: a relationship
// table and diagram, a summary, or the rejection message.
func renderText(s analysis.State) string {
	var sb strings.Builder
	switch analysis.Route(s.Task) {
	case analysis.BranchExtract:
		sb.WriteString("Causal relationships\n")
		if len(s.Relationships) == 0 {
			sb.WriteString("(none found)\n")
		} else {
			sb.WriteString(relationshipTable(s))
			sb.WriteString("\n")
		}
		sb.WriteString("\nDiagram\n")
		sb.WriteString(s.Diagram)
		sb.WriteString("\n")
	case analysis.BranchSummarize:
		sb.WriteString("Summary\n")
		sb.WriteString(s.Summary)
		sb.WriteString("\n")
	default:
		sb.WriteString("Rejected\n")
		sb.WriteString(s.Message)
		sb.WriteString("\n")
	}
	return sb.String()
}

func relationshipTable(s analysis.State) string {
	w := table.NewWriter()
	w.SetStyle(table.StyleLight)
	w.AppendHeader(table.Row{"Cause", "Effect", "Polarity"})
	for _, r := range s.Relationships {
		w.AppendRow(table.Row{r.Cause, r.Effect, string(r.Polarity)})
	}
	return w.Render()
}

// writeOutput writes s as indented JSON to path. An empty path is a no-op.
func writeOutput(path string, s analysis.State) error {
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}
	return nil
}
