package graphviz

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/fsmflow/pkg/graph"
	"github.com/matzehuels/fsmflow/pkg/layout"
)

// pointsPerInch converts between Graphviz inches and screen pixels.
const pointsPerInch = 72.0

// layoutDOT builds the document the engine lays out: topology only,
// every node a fixed box of opts.Size.
func layoutDOT(nodes []string, edges []layout.EdgePair, opts layout.EngineOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir(opts.Direction))
	fmt.Fprintf(&buf, "  nodesep=%s;\n", inches(opts.Spacing.NodeSep))
	fmt.Fprintf(&buf, "  ranksep=%s;\n", inches(opts.Spacing.RankSep))
	fmt.Fprintf(&buf, "  node [shape=box, fixedsize=true, label=\"\", width=%s, height=%s];\n",
		inches(opts.Size.Width), inches(opts.Size.Height))
	buf.WriteString("\n")

	for _, id := range nodes {
		fmt.Fprintf(&buf, "  %q;\n", id)
	}

	buf.WriteString("\n")
	for _, e := range edges {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ToDOT converts a flow into a DOT document for export. Node labels and
// edge labels are kept; positions are left to Graphviz.
func ToDOT(f graph.Flow) string {
	dir, err := layout.ParseDirection(f.Direction)
	if err != nil {
		dir = layout.DefaultDirection
	}

	var buf bytes.Buffer
	name := f.Machine
	if name == "" {
		name = "G"
	}
	fmt.Fprintf(&buf, "digraph %q {\n", name)
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir(dir))
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, color=\"#1f2937\", penwidth=2, fontname=\"Helvetica\", fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n")
	fmt.Fprintf(&buf, "  nodesep=%s;\n", inches(layout.DefaultSpacing.NodeSep))
	fmt.Fprintf(&buf, "  ranksep=%s;\n", inches(layout.DefaultSpacing.RankSep))
	buf.WriteString("\n")

	for _, n := range f.Nodes {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", n.ID, n.Data.Label)
	}

	buf.WriteString("\n")
	for _, e := range f.Edges {
		attrs := []string{fmt.Sprintf("id=%q", e.ID)}
		if e.Label != "" {
			attrs = append(attrs, fmt.Sprintf("label=%q", e.Label))
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func rankdir(d layout.Direction) string {
	if d.Valid() {
		return d.String()
	}
	return layout.DefaultDirection.String()
}

func inches(px float64) string {
	return strconv.FormatFloat(px/pointsPerInch, 'f', -1, 64)
}
