package svg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"unicode/utf8"

	"github.com/matzehuels/fsmflow/pkg/graph"
)

const (
	DefaultMargin = 24.0
	cornerRadius  = 8.0
	loopRadius    = 18.0

	fontSizeMin   = 10.0
	fontSizeMax   = 16.0
	fontCharWidth = 0.6
	labelFontSize = 11.0
)

const defs = `  <defs>
    <marker id="arrow" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="8" markerHeight="8" orient="auto-start-reverse">
      <path d="M 0 0 L 10 5 L 0 10 z" fill="#1f2937"/>
    </marker>
  </defs>
  <style>
    .node rect { fill: #ffffff; stroke: #1f2937; stroke-width: 2; }
    .node text { font-family: sans-serif; font-weight: 500; fill: #111827; }
    .edge line, .edge path { stroke: #1f2937; stroke-width: 1.5; fill: none; }
    .edge text { font-family: sans-serif; fill: #374151; }
  </style>
`

// Option configures Render.
type Option func(*renderer)

type renderer struct {
	margin float64
	title  string
}

// WithMargin sets the empty border around the drawing.
func WithMargin(m float64) Option { return func(r *renderer) { r.margin = m } }

// WithTitle adds a <title> element.
func WithTitle(t string) Option { return func(r *renderer) { r.title = t } }

// Render draws f. Edges naming unknown nodes are skipped.
func Render(f graph.Flow, opts ...Option) []byte {
	r := renderer{margin: DefaultMargin}
	for _, opt := range opts {
		opt(&r)
	}

	minX, minY, maxX, maxY := f.Bounds()
	vx, vy := minX-r.margin, minY-r.margin
	vw, vh := maxX-minX+2*r.margin, maxY-minY+2*r.margin

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		vx, vy, vw, vh, vw, vh)
	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", escapeXML(r.title))
	}
	buf.WriteString(defs)

	for _, e := range f.Edges {
		from, ok1 := f.Node(e.Source)
		to, ok2 := f.Node(e.Target)
		if !ok1 || !ok2 {
			continue
		}
		renderEdge(&buf, f, e, from, to)
	}
	for _, n := range f.Nodes {
		renderNode(&buf, f, n)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderNode(buf *bytes.Buffer, f graph.Flow, n graph.FlowNode) {
	label := n.Data.Label
	if label == "" {
		label = n.ID
	}
	size := fontSize(f.Width, f.Height, utf8.RuneCountInString(label))
	cx, cy := n.Position.X+f.Width/2, n.Position.Y+f.Height/2

	fmt.Fprintf(buf, `  <g class="node" id="node-%s">`+"\n", escapeXML(n.ID))
	fmt.Fprintf(buf, `    <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" rx="%.1f" ry="%.1f"/>`+"\n",
		n.Position.X, n.Position.Y, f.Width, f.Height, cornerRadius, cornerRadius)
	fmt.Fprintf(buf, `    <text x="%.2f" y="%.2f" font-size="%.1f" text-anchor="middle" dominant-baseline="middle">%s</text>`+"\n",
		cx, cy, size, escapeXML(truncate(label, f.Width, size)))
	buf.WriteString("  </g>\n")
}

func renderEdge(buf *bytes.Buffer, f graph.Flow, e graph.FlowEdge, from, to graph.FlowNode) {
	fmt.Fprintf(buf, `  <g class="edge" id="edge-%s">`+"\n", escapeXML(e.ID))

	var lx, ly float64
	if e.Source == e.Target {
		x, y := anchorPoint(f, from, from.SourcePosition)
		dx, dy := outward(from.SourcePosition)
		// Arc leaves and re-enters the same side, offset along it.
		px, py := dy*loopRadius, dx*loopRadius
		x1, y1 := x-px/2, y-py/2
		x2, y2 := x+px/2, y+py/2
		c1x, c1y := x1+dx*2*loopRadius-px, y1+dy*2*loopRadius-py
		c2x, c2y := x2+dx*2*loopRadius+px, y2+dy*2*loopRadius+py
		fmt.Fprintf(buf, `    <path d="M %.2f %.2f C %.2f %.2f %.2f %.2f %.2f %.2f" marker-end="url(#arrow)"/>`+"\n",
			x1, y1, c1x, c1y, c2x, c2y, x2, y2)
		lx, ly = x+dx*2*loopRadius, y+dy*2*loopRadius
	} else {
		x1, y1 := anchorPoint(f, from, from.SourcePosition)
		x2, y2 := anchorPoint(f, to, to.TargetPosition)
		fmt.Fprintf(buf, `    <line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" marker-end="url(#arrow)"/>`+"\n",
			x1, y1, x2, y2)
		lx, ly = (x1+x2)/2, (y1+y2)/2
	}

	if e.Label != "" {
		fmt.Fprintf(buf, `    <text x="%.2f" y="%.2f" font-size="%.1f" text-anchor="middle">%s</text>`+"\n",
			lx, ly-4, labelFontSize, escapeXML(e.Label))
	}
	buf.WriteString("  </g>\n")
}

// anchorPoint returns the midpoint of the given side of n's box.
func anchorPoint(f graph.Flow, n graph.FlowNode, side graph.Anchor) (float64, float64) {
	x, y := n.Position.X, n.Position.Y
	switch side {
	case graph.AnchorTop:
		return x + f.Width/2, y
	case graph.AnchorBottom:
		return x + f.Width/2, y + f.Height
	case graph.AnchorLeft:
		return x, y + f.Height/2
	case graph.AnchorRight:
		return x + f.Width, y + f.Height/2
	}
	return x + f.Width/2, y + f.Height/2
}

func outward(side graph.Anchor) (float64, float64) {
	switch side {
	case graph.AnchorTop:
		return 0, -1
	case graph.AnchorLeft:
		return -1, 0
	case graph.AnchorRight:
		return 1, 0
	}
	return 0, 1
}

func fontSize(width, height float64, textLen int) float64 {
	n := max(1, textLen)
	byHeight := height * 0.4
	byWidth := (width * 0.85) / (float64(n) * fontCharWidth)
	return max(fontSizeMin, min(fontSizeMax, min(byHeight, byWidth)))
}

func truncate(label string, width, size float64) string {
	maxChars := max(3, int(width*0.85/(size*fontCharWidth)))
	r := []rune(label)
	if len(r) <= maxChars {
		return label
	}
	return string(r[:maxChars-2]) + ".."
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
