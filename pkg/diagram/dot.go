package diagram

import (
	"fmt"
	"strings"

	gographviz "github.com/awalterschulze/gographviz"

	"github.com/ravi-parthasarathy/causalagent/pkg/causal"
)

// DOT renders rels as a Graphviz digraph named name. Unlike Mermaid, every
// node ID and label is quoted, so arbitrary text is safe.
func DOT(name string, rels []causal.Relationship) (string, error) {
	if name == "" {
		name = "causal"
	}
	g := gographviz.NewGraph()
	if err := g.SetName(Quote(name)); err != nil {
		return "", fmt.Errorf("dot: set name: %w", err)
	}
	if err := g.SetDir(true); err != nil {
		return "", fmt.Errorf("dot: set dir: %w", err)
	}
	if err := g.AddAttr(g.Name, "rankdir", "TB"); err != nil {
		return "", fmt.Errorf("dot: graph attr: %w", err)
	}

	for _, r := range rels {
		for _, n := range []string{r.Cause, r.Effect} {
			if err := g.AddNode(g.Name, Quote(n), map[string]string{"shape": "box"}); err != nil {
				return "", fmt.Errorf("dot: node %q: %w", n, err)
			}
		}
		attrs := map[string]string{
			"label": Quote(Glyph(r.Polarity)),
			"color": "darkgreen",
		}
		if !r.Polarity.IsPositive() {
			attrs["color"] = "red"
			attrs["style"] = "dashed"
		}
		if err := g.AddEdge(Quote(r.Cause), Quote(r.Effect), true, attrs); err != nil {
			return "", fmt.Errorf("dot: edge %q -> %q: %w", r.Cause, r.Effect, err)
		}
	}
	return g.String(), nil
}

// Quote returns s as a double-quoted DOT ID.
func Quote(s string) string {
	escaped := strings.ReplaceAll(s, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}
