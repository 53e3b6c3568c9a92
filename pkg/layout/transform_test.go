package layout

import (
	"errors"
	"slices"
	"testing"

	"github.com/matzehuels/fsmflow/pkg/graph"
)

// gridEngine places node i at (i*100, i*10) and records its inputs.
type gridEngine struct {
	calls int
	nodes []string
	edges []EdgePair
	opts  EngineOptions
}

func (e *gridEngine) Positions(nodes []string, edges []EdgePair, opts EngineOptions) (map[string]Point, error) {
	e.calls++
	e.nodes, e.edges, e.opts = nodes, edges, opts
	out := make(map[string]Point, len(nodes))
	for i, id := range nodes {
		out[id] = Point{X: float64(i) * 100, Y: float64(i) * 10}
	}
	return out, nil
}

func trafficDescription() graph.Description {
	return graph.Description{
		Nodes: []graph.NodeRecord{{ID: "red"}, {ID: "green"}, {ID: "yellow"}},
		Edges: []graph.EdgeRecord{
			{Source: "red", Target: "green"},
			{Source: "green", Target: "yellow"},
			{Source: "yellow", Target: "red"},
		},
	}
}

func nodeIDs(f graph.Flow) []string {
	ids := make([]string, len(f.Nodes))
	for i, n := range f.Nodes {
		ids[i] = n.ID
	}
	return ids
}

func TestTransformTrafficScenario(t *testing.T) {
	tr := New(&gridEngine{})
	flow, err := tr.Transform(trafficDescription(), TopToBottom)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	if len(flow.Nodes) != 3 {
		t.Fatalf("got %d nodes, want 3", len(flow.Nodes))
	}
	for _, n := range flow.Nodes {
		if n.SourcePosition != graph.AnchorBottom || n.TargetPosition != graph.AnchorTop {
			t.Errorf("node %s anchors = %s/%s, want bottom/top", n.ID, n.SourcePosition, n.TargetPosition)
		}
	}

	var ids []string
	for _, e := range flow.Edges {
		ids = append(ids, e.ID)
	}
	if want := []string{"red-green", "green-yellow", "yellow-red"}; !slices.Equal(ids, want) {
		t.Errorf("edge ids = %v, want %v", ids, want)
	}
}

func TestTransformPreservesCardinalityAndOrder(t *testing.T) {
	descs := map[string]graph.Description{
		"traffic": trafficDescription(),
		"disconnected": {
			Nodes: []graph.NodeRecord{{ID: "z"}, {ID: "a"}, {ID: "m"}},
		},
		"parallel": {
			Nodes: []graph.NodeRecord{{ID: "a"}, {ID: "b"}},
			Edges: []graph.EdgeRecord{{Source: "a", Target: "b"}, {Source: "a", Target: "b"}, {Source: "b", Target: "b"}},
		},
		"dangling": {
			Nodes: []graph.NodeRecord{{ID: "a"}},
			Edges: []graph.EdgeRecord{{Source: "a", Target: "ghost"}},
		},
	}

	for name, desc := range descs {
		for _, dir := range AllDirections {
			t.Run(name+"/"+dir.String(), func(t *testing.T) {
				flow, err := New(&gridEngine{}).Transform(desc, dir)
				if err != nil {
					t.Fatalf("Transform: %v", err)
				}
				if len(flow.Nodes) != len(desc.Nodes) || len(flow.Edges) != len(desc.Edges) {
					t.Fatalf("got %d/%d, want %d/%d", len(flow.Nodes), len(flow.Edges), len(desc.Nodes), len(desc.Edges))
				}
				for i, n := range flow.Nodes {
					if n.ID != desc.Nodes[i].ID {
						t.Errorf("node %d = %s, want %s", i, n.ID, desc.Nodes[i].ID)
					}
				}
			})
		}
	}
}

func TestTransformAnchors(t *testing.T) {
	tests := []struct {
		dir     Direction
		out, in graph.Anchor
	}{
		{TopToBottom, graph.AnchorBottom, graph.AnchorTop},
		{LeftToRight, graph.AnchorRight, graph.AnchorLeft},
		{BottomToTop, graph.AnchorTop, graph.AnchorBottom},
		{RightToLeft, graph.AnchorLeft, graph.AnchorRight},
	}

	for _, tt := range tests {
		t.Run(tt.dir.String(), func(t *testing.T) {
			flow, err := New(&gridEngine{}).Transform(trafficDescription(), tt.dir)
			if err != nil {
				t.Fatalf("Transform: %v", err)
			}
			if flow.Direction != tt.dir.String() {
				t.Errorf("Direction = %s, want %s", flow.Direction, tt.dir)
			}
			for _, n := range flow.Nodes {
				if n.SourcePosition != tt.out || n.TargetPosition != tt.in {
					t.Errorf("node %s anchors = %s/%s, want %s/%s", n.ID, n.SourcePosition, n.TargetPosition, tt.out, tt.in)
				}
			}
		})
	}
}

func TestTransformLabelDefaulting(t *testing.T) {
	desc := graph.Description{Nodes: []graph.NodeRecord{
		{ID: "A"},
		{ID: "B", Data: &graph.NodeData{Label: "Start"}},
		{ID: "C", Data: &graph.NodeData{}},
	}}
	flow, err := New(&gridEngine{}).Transform(desc, TopToBottom)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	want := []string{"A", "Start", "C"}
	for i, n := range flow.Nodes {
		if n.Data.Label != want[i] {
			t.Errorf("node %s label = %q, want %q", n.ID, n.Data.Label, want[i])
		}
		if n.ClassName != graph.NodeClassName {
			t.Errorf("node %s className = %q", n.ID, n.ClassName)
		}
	}
}

func TestNormalizeEdges(t *testing.T) {
	tests := []struct {
		name    string
		records []graph.EdgeRecord
		wantIDs []string
	}{
		{
			name:    "default id",
			records: []graph.EdgeRecord{{Source: "A", Target: "B"}},
			wantIDs: []string{"A-B"},
		},
		{
			name:    "explicit id kept",
			records: []graph.EdgeRecord{{ID: "e-A-B", Source: "A", Target: "B"}},
			wantIDs: []string{"e-A-B"},
		},
		{
			name:    "parallel edges disambiguated",
			records: []graph.EdgeRecord{{Source: "A", Target: "B"}, {Source: "A", Target: "B"}, {Source: "A", Target: "B"}},
			wantIDs: []string{"A-B", "A-B-1", "A-B-2"},
		},
		{
			name:    "synthesized id avoids explicit id",
			records: []graph.EdgeRecord{{Source: "A", Target: "B"}, {ID: "A-B", Source: "B", Target: "A"}},
			wantIDs: []string{"A-B-1", "A-B"},
		},
		{
			name:    "explicit duplicates untouched",
			records: []graph.EdgeRecord{{ID: "x", Source: "A", Target: "B"}, {ID: "x", Source: "B", Target: "A"}},
			wantIDs: []string{"x", "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edges := NormalizeEdges(tt.records)
			var ids []string
			for _, e := range edges {
				ids = append(ids, e.ID)
				if e.Type != graph.EdgeTypeSmooth {
					t.Errorf("edge %s type = %q", e.ID, e.Type)
				}
			}
			if !slices.Equal(ids, tt.wantIDs) {
				t.Errorf("ids = %v, want %v", ids, tt.wantIDs)
			}
		})
	}
}

func TestTransformEdgeLabelDefaultsEmpty(t *testing.T) {
	flow, err := New(&gridEngine{}).Transform(trafficDescription(), TopToBottom)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	for _, e := range flow.Edges {
		if e.Label != "" {
			t.Errorf("edge %s label = %q, want empty", e.ID, e.Label)
		}
	}
}

func TestTransformCenterToTopLeft(t *testing.T) {
	eng := &gridEngine{}
	tr := &Transformer{Engine: eng, Size: Size{Width: 150, Height: 60}}
	flow, err := tr.Transform(trafficDescription(), LeftToRight)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	want := []graph.Position{{X: -75, Y: -30}, {X: 25, Y: -20}, {X: 125, Y: -10}}
	for i, n := range flow.Nodes {
		if n.Position != want[i] {
			t.Errorf("node %s position = %+v, want %+v", n.ID, n.Position, want[i])
		}
	}
	if eng.opts.Spacing != DefaultSpacing {
		t.Errorf("spacing = %+v, want defaults", eng.opts.Spacing)
	}
	if eng.opts.Direction != LeftToRight {
		t.Errorf("direction = %s, want LR", eng.opts.Direction)
	}
}

func TestTransformSized(t *testing.T) {
	eng := &gridEngine{}
	flow, err := New(eng).TransformSized(trafficDescription(), TopToBottom, Size{Width: 200, Height: 40})
	if err != nil {
		t.Fatalf("TransformSized: %v", err)
	}
	if eng.opts.Size != (Size{Width: 200, Height: 40}) {
		t.Errorf("engine size = %+v", eng.opts.Size)
	}
	if flow.Nodes[0].Position != (graph.Position{X: -100, Y: -20}) {
		t.Errorf("position = %+v", flow.Nodes[0].Position)
	}
	if flow.Width != 200 || flow.Height != 40 {
		t.Errorf("flow size = %vx%v", flow.Width, flow.Height)
	}
}

func TestTransformPassesTopologyOnly(t *testing.T) {
	eng := &gridEngine{}
	desc := trafficDescription()
	desc.Edges[0].ID = "custom"
	desc.Edges[0].Label = "timer"

	if _, err := New(eng).Transform(desc, TopToBottom); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	want := []EdgePair{{"red", "green"}, {"green", "yellow"}, {"yellow", "red"}}
	if !slices.Equal(eng.edges, want) {
		t.Errorf("engine edges = %v, want %v", eng.edges, want)
	}
	if !slices.Equal(eng.nodes, []string{"red", "green", "yellow"}) {
		t.Errorf("engine nodes = %v", eng.nodes)
	}
}

func TestTransformDeterministic(t *testing.T) {
	tr := New(&gridEngine{})
	a, err := tr.Transform(trafficDescription(), TopToBottom)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	b, err := tr.Transform(trafficDescription(), TopToBottom)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	for i := range a.Nodes {
		if a.Nodes[i].Position != b.Nodes[i].Position {
			t.Errorf("node %s moved: %+v vs %+v", a.Nodes[i].ID, a.Nodes[i].Position, b.Nodes[i].Position)
		}
	}
}

func TestTransformEmptyGraph(t *testing.T) {
	eng := &gridEngine{}
	flow, err := New(eng).Transform(graph.Description{}, TopToBottom)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if len(flow.Nodes) != 0 || len(flow.Edges) != 0 {
		t.Errorf("got %d nodes %d edges, want none", len(flow.Nodes), len(flow.Edges))
	}
	if eng.calls != 0 {
		t.Errorf("engine called %d times for empty graph", eng.calls)
	}

	if _, err := (&Transformer{}).Transform(graph.Description{}, TopToBottom); err != nil {
		t.Errorf("empty graph without engine: %v", err)
	}
}

func TestTransformEngineError(t *testing.T) {
	boom := errors.New("dot crashed")
	tr := New(EngineFunc(func([]string, []EdgePair, EngineOptions) (map[string]Point, error) {
		return nil, boom
	}))
	if _, err := tr.Transform(trafficDescription(), TopToBottom); !errors.Is(err, boom) {
		t.Errorf("Transform error = %v, want to wrap %v", err, boom)
	}
}

func TestTransformUnpositionedNodeKeepsPlaceholder(t *testing.T) {
	tr := New(EngineFunc(func(nodes []string, _ []EdgePair, _ EngineOptions) (map[string]Point, error) {
		return map[string]Point{"red": {X: 100, Y: 100}}, nil
	}))
	flow, err := tr.Transform(trafficDescription(), TopToBottom)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if got := flow.Nodes[1].Position; got != (graph.Position{}) {
		t.Errorf("unpositioned node = %+v, want placeholder", got)
	}
	if got := nodeIDs(flow); !slices.Equal(got, []string{"red", "green", "yellow"}) {
		t.Errorf("nodes = %v", got)
	}
}

func TestTransformNoEngine(t *testing.T) {
	if _, err := (&Transformer{}).Transform(trafficDescription(), TopToBottom); err == nil {
		t.Error("expected error without engine")
	}
}
