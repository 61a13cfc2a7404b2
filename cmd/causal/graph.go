package main

import (
	"fmt"
	"strings"

	gographviz "github.com/awalterschulze/gographviz"
	"github.com/spf13/cobra"

	"github.com/ravi-parthasarathy/causalagent/pkg/analysis"
	"github.com/ravi-parthasarathy/causalagent/pkg/diagram"
)

func graphCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the analysis state machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch strings.ToLower(format) {
			case "dot":
				out, err := renderRoutesDOT(analysis.Routes())
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), out)
			case "text", "":
				fmt.Fprint(cmd.OutOrStdout(), renderRoutesText(analysis.Routes()))
			default:
				return fmt.Errorf("unknown format %q: use text or dot", format)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "dot", "output format: text or dot")
	return cmd
}

// renderRoutesText lists transitions one per line, aligned on the source.
func renderRoutesText(routes []analysis.Transition) string {
	var sb strings.Builder
	maxFromLen := 4
	for _, r := range routes {
		if len(r.From) > maxFromLen {
			maxFromLen = len(r.From)
		}
	}
	for _, r := range routes {
		if r.Label != "" {
			fmt.Fprintf(&sb, "  %-*s  →  %s  [%s]\n", maxFromLen, r.From, r.To, r.Label)
		} else {
			fmt.Fprintf(&sb, "  %-*s  →  %s\n", maxFromLen, r.From, r.To)
		}
	}
	return sb.String()
}

// renderRoutesDOT renders the transitions as a Graphviz digraph. The
// classifier is the entry node and end is drawn as a terminal.
func renderRoutesDOT(routes []analysis.Transition) (string, error) {
	g := gographviz.NewGraph()
	if err := g.SetName("analysis"); err != nil {
		return "", err
	}
	if err := g.SetDir(true); err != nil {
		return "", err
	}
	seen := map[string]bool{}
	addNode := func(id string) error {
		if seen[id] {
			return nil
		}
		seen[id] = true
		attrs := map[string]string{"shape": "box"}
		switch id {
		case analysis.NodeClassifier:
			attrs["shape"] = "diamond"
		case analysis.NodeEnd:
			attrs["shape"] = "doublecircle"
		}
		return g.AddNode(g.Name, id, attrs)
	}
	for _, r := range routes {
		if err := addNode(r.From); err != nil {
			return "", err
		}
		if err := addNode(r.To); err != nil {
			return "", err
		}
		var attrs map[string]string
		if r.Label != "" {
			attrs = map[string]string{"label": diagram.Quote(r.Label)}
		}
		if err := g.AddEdge(r.From, r.To, true, attrs); err != nil {
			return "", fmt.Errorf("edge %s -> %s: %w", r.From, r.To, err)
		}
	}
	return g.String(), nil
}
