package fsm

import (
	"fmt"

	"github.com/matzehuels/fsmflow/pkg/graph"
)

// Graph builds the backend description of the machine.
//
// Edges are emitted per expanded (source, dest) pair in declaration order.
// Only states that take part in at least one edge become nodes, in state
// declaration order.
func (d Definition) Graph() graph.Description {
	all := d.StateNames()
	seen := make(map[[2]string]int)
	used := make(map[string]bool)

	edges := make([]graph.EdgeRecord, 0, len(d.Transitions))
	for _, t := range d.Transitions {
		for _, src := range expand(t.Sources, all) {
			dst := t.Dest
			if dst == "" {
				dst = src
			}
			if src == "" || dst == "" {
				continue
			}

			pair := [2]string{src, dst}
			id := fmt.Sprintf("e-%s-%s", src, dst)
			if n := seen[pair]; n > 0 {
				id = fmt.Sprintf("%s-%d", id, n)
			}
			seen[pair]++

			edges = append(edges, graph.EdgeRecord{
				ID:     id,
				Source: src,
				Target: dst,
				Label:  t.Trigger,
			})
			used[src] = true
			used[dst] = true
		}
	}

	nodes := make([]graph.NodeRecord, 0, len(used))
	for _, s := range d.States {
		if s.Name == "" || !used[s.Name] {
			continue
		}
		nodes = append(nodes, graph.NodeRecord{
			ID:       s.Name,
			Data:     &graph.NodeData{Label: s.DisplayLabel()},
			Position: &graph.Position{},
		})
	}
	return graph.Description{Nodes: nodes, Edges: edges}
}

func expand(sources []string, all []string) []string {
	out := make([]string, 0, len(sources))
	for _, s := range sources {
		if s == Wildcard {
			out = append(out, all...)
			continue
		}
		out = append(out, s)
	}
	return out
}
