// Package svg draws a positioned [graph.Flow] as a standalone SVG document.
//
// Nodes are rounded boxes at their top-left positions with centred labels.
// Edges are straight lines from the source node's out-anchor to the target
// node's in-anchor, ending in an arrow marker and carrying the trigger
// label at their midpoint. Self-loops are drawn as a small arc on the
// out-anchor side.
//
//	data := svg.Render(flow, svg.WithMargin(32), svg.WithTitle("traffic"))
package svg
