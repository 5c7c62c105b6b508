// Package render visualizes dataflow graphs and compiled pass chains as
// Graphviz diagrams. ToDOT and PassesToDOT emit plain DOT text; RenderSVG
// rasterizes it with the embedded Graphviz engine.
package render

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/shaderflow/shaderflow/pkg/compile"
	"github.com/shaderflow/shaderflow/pkg/graph"
)

// Options configures graph rendering.
type Options struct {
	// Detailed includes port names and types in node labels. When false,
	// only the node title is shown.
	Detailed bool
}

// ToDOT converts a dataflow graph to Graphviz DOT format. Group nodes are
// rendered as a single box; their subgraphs are not expanded.
func ToDOT(g *graph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		label := nodeLabel(n, opts.Detailed)
		attrs := nodeAttrs(n, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		label := e.ToPort
		if e.FromPort != "" {
			label = e.FromPort + " → " + e.ToPort
		}
		fmt.Fprintf(&buf, "  %q -> %q [label=%q, fontsize=11];\n", e.From, e.To, label)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeLabel(n *graph.Node, detailed bool) string {
	title := nodeTitle(n)
	if !detailed {
		return title
	}

	var parts []string
	for _, p := range n.Inputs {
		parts = append(parts, fmt.Sprintf("in %s: %s", p.Name, p.Type))
	}
	for _, p := range n.Outputs {
		parts = append(parts, fmt.Sprintf("out %s: %s", p.Name, p.Type))
	}
	if len(parts) == 0 {
		return title
	}
	return title + "\n" + strings.Join(parts, "\n")
}

func nodeTitle(n *graph.Node) string {
	if n.Meta != nil {
		if l, ok := n.Meta["label"].(string); ok && l != "" {
			return l
		}
	}
	switch n.Kind {
	case graph.KindGlobal:
		return "global " + n.Name
	case graph.KindInput:
		return "input " + n.PortID
	case graph.KindOutput:
		return "output " + n.PortID
	case graph.KindGroup:
		return fmt.Sprintf("group (%d nodes)", n.Sub.NodeCount())
	case graph.KindStaged:
		return fmt.Sprintf("staged (%d stages)", len(n.Stages))
	}
	return shortID(n.ID)
}

func nodeAttrs(n *graph.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch n.Kind {
	case graph.KindGlobal:
		attrs = append(attrs, "shape=ellipse")
	case graph.KindInput, graph.KindOutput:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	case graph.KindGroup:
		attrs = append(attrs, "shape=box3d")
	case graph.KindStaged:
		attrs = append(attrs, "peripheries=2")
	}
	return attrs
}

// shortID truncates a UUID-sized id for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// PassesToDOT converts a compiled pass chain to Graphviz DOT format. Each
// pass is one node; texture bindings become edges from the producing pass,
// and feedback reads become dashed self-loops.
func PassesToDOT(passes []*compile.RenderPass) string {
	var buf bytes.Buffer
	buf.WriteString("digraph Passes {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	for _, p := range passes {
		label := p.ID
		if p.Loop > 1 {
			label = fmt.Sprintf("%s ×%d", p.ID, p.Loop)
		}
		attrs := []string{fmt.Sprintf("label=%q", label)}
		if p.Feedback != nil && p.Feedback.Persistent {
			attrs = append(attrs, "fillcolor=lightyellow")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", p.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, p := range passes {
		for _, name := range slices.Sorted(maps.Keys(p.Inputs)) {
			switch ref := p.Inputs[name]; ref {
			case compile.RefEmpty:
				// Reads an intentionally empty buffer; nothing to draw.
			case compile.RefFeedback:
				fmt.Fprintf(&buf, "  %q -> %q [label=%q, style=dashed, fontsize=11];\n", p.ID, p.ID, name)
			default:
				fmt.Fprintf(&buf, "  %q -> %q [label=%q, fontsize=11];\n", ref, p.ID, name)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}
