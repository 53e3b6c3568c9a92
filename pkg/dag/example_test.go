package dag_test

import (
	"fmt"

	"github.com/matzehuels/fsmflow/pkg/dag"
)

func ExampleDAG_basic() {
	g := dag.New()
	_ = g.AddNode(dag.Node{ID: "idle", Row: 0})
	_ = g.AddNode(dag.Node{ID: "building", Row: 1})
	_ = g.AddNode(dag.Node{ID: "testing", Row: 2})
	_ = g.AddEdge(dag.Edge{From: "idle", To: "building"})
	_ = g.AddEdge(dag.Edge{From: "building", To: "testing"})

	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("Rows:", g.RowCount())
	// Output:
	// Nodes: 3
	// Edges: 2
	// Rows: 3
}

func ExampleCountLayerCrossings() {
	g := dag.New()
	for _, id := range []string{"a", "b"} {
		_ = g.AddNode(dag.Node{ID: id, Row: 0})
	}
	for _, id := range []string{"x", "y"} {
		_ = g.AddNode(dag.Node{ID: id, Row: 1})
	}
	_ = g.AddEdge(dag.Edge{From: "a", To: "y"})
	_ = g.AddEdge(dag.Edge{From: "b", To: "x"})

	fmt.Println(dag.CountLayerCrossings(g, []string{"a", "b"}, []string{"x", "y"}))
	fmt.Println(dag.CountLayerCrossings(g, []string{"a", "b"}, []string{"y", "x"}))
	// Output:
	// 1
	// 0
}
