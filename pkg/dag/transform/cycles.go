package transform

import "github.com/matzehuels/fsmflow/pkg/dag"

// BreakCycles removes every edge that closes a directed cycle, including
// self-loops, and returns the removed from→to pairs in discovery order.
// Parallel copies of a back edge are removed together and reported once.
//
// The search starts from source nodes, then from any node left unvisited,
// both in insertion order, so the same graph always loses the same edges.
func BreakCycles(g *dag.DAG) []dag.Edge {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, g.NodeCount())
	seen := make(map[[2]string]bool)
	var backEdges []dag.Edge

	var dfs func(node string)
	dfs = func(node string) {
		color[node] = gray
		for _, child := range g.Children(node) {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				key := [2]string{node, child}
				if !seen[key] {
					seen[key] = true
					backEdges = append(backEdges, dag.Edge{From: node, To: child})
				}
			}
		}
		color[node] = black
	}

	for _, n := range g.Sources() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}
	for _, n := range g.Nodes() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}

	for _, e := range backEdges {
		g.RemoveEdge(e.From, e.To)
	}
	return backEdges
}

// ReverseEdges re-inserts edges with their direction flipped and the
// Reversed flag set. Self-loops are dropped.
func ReverseEdges(g *dag.DAG, edges []dag.Edge) {
	for _, e := range edges {
		if e.From == e.To {
			continue
		}
		// Both endpoints exist because the edges came out of g.
		_ = g.AddEdge(dag.Edge{From: e.To, To: e.From, Reversed: true})
	}
}
