package transform

import (
	"fmt"

	"github.com/matzehuels/fsmflow/pkg/dag"
)

// Subdivide replaces every edge spanning more than one row by a chain of
// virtual nodes, one per intermediate row:
//
//	Before: idle (row 0) → deployed (row 3)
//	After:  idle → idle->deployed#1 → idle->deployed#2 → deployed
//
// Virtual node IDs get a numeric suffix when they would collide with an
// existing ID. Parallel long edges get one chain each. It returns the
// number of virtual nodes added.
func Subdivide(g *dag.DAG) int {
	gen := newIDGen(g.Nodes())
	added := 0

	for _, e := range g.Edges() {
		src, _ := g.Node(e.From)
		dst, _ := g.Node(e.To)
		if dst.Row <= src.Row+1 {
			continue
		}

		// RemoveEdge drops every parallel copy, so each copy is rebuilt
		// from this loop's snapshot of the edge list.
		g.RemoveEdge(e.From, e.To)
		origin := e.From + "->" + e.To
		prev := src.ID
		for row := src.Row + 1; row < dst.Row; row++ {
			id := gen.next(origin, row)
			if err := g.AddNode(dag.Node{ID: id, Row: row, Kind: dag.NodeKindVirtual, Origin: origin}); err != nil {
				panic(err)
			}
			if err := g.AddEdge(dag.Edge{From: prev, To: id, Reversed: e.Reversed}); err != nil {
				panic(err)
			}
			prev = id
			added++
		}
		if err := g.AddEdge(dag.Edge{From: prev, To: dst.ID, Reversed: e.Reversed}); err != nil {
			panic(err)
		}
	}
	return added
}

type idGen struct {
	used map[string]struct{}
}

func newIDGen(nodes []*dag.Node) *idGen {
	m := make(map[string]struct{}, len(nodes)*2)
	for _, n := range nodes {
		m[n.ID] = struct{}{}
	}
	return &idGen{used: m}
}

func (gen *idGen) next(base string, row int) string {
	prefix := fmt.Sprintf("%s#%d", base, row)
	id := prefix
	for i := 1; ; i++ {
		if _, exists := gen.used[id]; !exists {
			gen.used[id] = struct{}{}
			return id
		}
		id = fmt.Sprintf("%s__%d", prefix, i)
	}
}
