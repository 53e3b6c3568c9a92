package transform

import (
	"slices"
	"testing"

	"github.com/matzehuels/fsmflow/pkg/dag"
)

func build(t *testing.T, nodes []string, edges [][2]string) *dag.DAG {
	t.Helper()
	g := dag.New()
	for _, id := range nodes {
		if err := g.AddNode(dag.Node{ID: id}); err != nil {
			t.Fatalf("AddNode(%s): %v", id, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(dag.Edge{From: e[0], To: e[1]}); err != nil {
			t.Fatalf("AddEdge(%v): %v", e, err)
		}
	}
	return g
}

func TestBreakCycles(t *testing.T) {
	tests := []struct {
		name      string
		nodes     []string
		edges     [][2]string
		wantBack  []dag.Edge
		wantEdges int
	}{
		{
			name:      "no cycles",
			nodes:     []string{"a", "b", "c"},
			edges:     [][2]string{{"a", "b"}, {"b", "c"}},
			wantEdges: 2,
		},
		{
			name:      "two cycle",
			nodes:     []string{"a", "b"},
			edges:     [][2]string{{"a", "b"}, {"b", "a"}},
			wantBack:  []dag.Edge{{From: "b", To: "a"}},
			wantEdges: 1,
		},
		{
			name:      "traffic light",
			nodes:     []string{"red", "green", "yellow"},
			edges:     [][2]string{{"red", "green"}, {"green", "yellow"}, {"yellow", "red"}},
			wantBack:  []dag.Edge{{From: "yellow", To: "red"}},
			wantEdges: 2,
		},
		{
			name:      "self loop",
			nodes:     []string{"idle"},
			edges:     [][2]string{{"idle", "idle"}},
			wantBack:  []dag.Edge{{From: "idle", To: "idle"}},
			wantEdges: 0,
		},
		{
			name:      "parallel back edges reported once",
			nodes:     []string{"a", "b"},
			edges:     [][2]string{{"a", "b"}, {"b", "a"}, {"b", "a"}},
			wantBack:  []dag.Edge{{From: "b", To: "a"}},
			wantEdges: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, tt.nodes, tt.edges)
			back := BreakCycles(g)
			if !slices.Equal(back, tt.wantBack) {
				t.Errorf("BreakCycles() = %v, want %v", back, tt.wantBack)
			}
			if g.EdgeCount() != tt.wantEdges {
				t.Errorf("EdgeCount() = %d, want %d", g.EdgeCount(), tt.wantEdges)
			}
		})
	}
}

func TestReverseEdges(t *testing.T) {
	g := build(t, []string{"red", "green", "yellow"},
		[][2]string{{"red", "green"}, {"green", "yellow"}, {"yellow", "red"}, {"red", "red"}})

	ReverseEdges(g, BreakCycles(g))

	if !g.HasEdge("red", "yellow") {
		t.Error("back edge yellow→red should be re-added as red→yellow")
	}
	if g.HasEdge("red", "red") {
		t.Error("self loop should be dropped")
	}
	for _, e := range g.Edges() {
		if e.From == "red" && e.To == "yellow" && !e.Reversed {
			t.Error("re-added edge should be marked reversed")
		}
	}
}

func TestAssignLayers(t *testing.T) {
	g := build(t, []string{"pending", "checking", "approved", "done"},
		[][2]string{{"pending", "checking"}, {"checking", "approved"}, {"pending", "done"}, {"approved", "done"}})

	AssignLayers(g)

	want := map[string]int{"pending": 0, "checking": 1, "approved": 2, "done": 3}
	for id, row := range want {
		n, _ := g.Node(id)
		if n.Row != row {
			t.Errorf("%s row = %d, want %d", id, n.Row, row)
		}
	}
}

func TestSubdivide(t *testing.T) {
	g := build(t, []string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}, {"a", "d"}, {"a", "d"}})
	AssignLayers(g)

	added := Subdivide(g)

	if added != 4 {
		t.Errorf("Subdivide() added %d virtual nodes, want 4", added)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() after Subdivide = %v", err)
	}
	if g.HasEdge("a", "d") {
		t.Error("long edge a→d should be replaced")
	}
	virtual := 0
	for _, n := range g.Nodes() {
		if n.IsVirtual() {
			virtual++
			if n.Origin != "a->d" {
				t.Errorf("virtual node %s origin = %q", n.ID, n.Origin)
			}
		}
	}
	if virtual != 4 {
		t.Errorf("virtual nodes = %d, want 4", virtual)
	}
}

func TestSubdivideAvoidsIDCollision(t *testing.T) {
	g := build(t, []string{"a", "a->c#1", "c"}, [][2]string{{"a", "a->c#1"}, {"a->c#1", "c"}, {"a", "c"}})
	AssignLayers(g)
	Subdivide(g)

	if _, ok := g.Node("a->c#1__1"); !ok {
		t.Errorf("expected suffixed virtual id, nodes = %v", dag.NodeIDs(g.Nodes()))
	}
}
