// Package diagram renders causal relationships as graph text for external
// renderers: Mermaid flowcharts (the primary format) and Graphviz DOT.
package diagram

import (
	"strings"

	"github.com/ravi-parthasarathy/causalagent/pkg/causal"
)

const (
	// MermaidHeader is the first line of every Mermaid diagram.
	MermaidHeader = "graph TD"
	// PositiveGlyph labels edges whose cause increases the effect.
	PositiveGlyph = "+"
	// NegativeGlyph labels every other edge (U+2212 MINUS SIGN).
	NegativeGlyph = "−"
)

// Glyph returns the edge label for p.
func Glyph(p causal.Polarity) string {
	if p.IsPositive() {
		return PositiveGlyph
	}
	return NegativeGlyph
}

// Mermaid renders rels as a Mermaid flowchart, one edge line per
// relationship in input order. Node text is emitted verbatim: a cause or
// effect containing Mermaid syntax ("|", "-->", brackets) will corrupt the
// diagram. Use DOT when labels are untrusted.
func Mermaid(rels []causal.Relationship) string {
	lines := make([]string, 0, len(rels)+1)
	lines = append(lines, MermaidHeader)
	for _, r := range rels {
		lines = append(lines, r.Cause+" -->|"+Glyph(r.Polarity)+"| "+r.Effect)
	}
	return strings.Join(lines, "\n")
}
