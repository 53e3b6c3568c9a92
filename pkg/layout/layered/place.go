package layered

import (
	"github.com/matzehuels/fsmflow/pkg/dag"
	"github.com/matzehuels/fsmflow/pkg/layout"
)

// virtualBreadth is the slot width of a virtual node relative to a real
// node's breadth.
const virtualBreadth = 0.25

// place assigns centre coordinates to the real nodes. Ranks are laid out
// along the direction's primary axis; within a rank nodes are packed with
// NodeSep gaps and centred on the widest rank.
func place(g *dag.DAG, orders map[int][]string, opts layout.EngineOptions) map[string]layout.Point {
	breadth, depth := opts.Size.Width, opts.Size.Height
	if opts.Direction.Horizontal() {
		breadth, depth = opts.Size.Height, opts.Size.Width
	}

	slot := func(id string) float64 {
		if n, ok := g.Node(id); ok && n.IsVirtual() {
			return breadth * virtualBreadth
		}
		return breadth
	}
	rowWidth := func(ids []string) float64 {
		w := 0.0
		for i, id := range ids {
			if i > 0 {
				w += opts.Spacing.NodeSep
			}
			w += slot(id)
		}
		return w
	}

	rows := g.RowIDs()
	widest := 0.0
	for _, r := range rows {
		widest = max(widest, rowWidth(orders[r]))
	}
	maxRow := g.MaxRow()

	out := make(map[string]layout.Point, g.NodeCount())
	for _, r := range rows {
		ids := orders[r]
		cursor := (widest - rowWidth(ids)) / 2

		rank := r
		if opts.Direction == layout.BottomToTop || opts.Direction == layout.RightToLeft {
			rank = maxRow - r
		}
		along := float64(rank)*(depth+opts.Spacing.RankSep) + depth/2

		for _, id := range ids {
			w := slot(id)
			across := cursor + w/2
			cursor += w + opts.Spacing.NodeSep

			if n, _ := g.Node(id); n.IsVirtual() {
				continue
			}
			if opts.Direction.Horizontal() {
				out[id] = layout.Point{X: along, Y: across}
			} else {
				out[id] = layout.Point{X: across, Y: along}
			}
		}
	}
	return out
}
