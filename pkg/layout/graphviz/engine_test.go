package graphviz

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/fsmflow/pkg/graph"
	"github.com/matzehuels/fsmflow/pkg/layout"
)

func trafficEdges() []layout.EdgePair {
	return []layout.EdgePair{{Source: "red", Target: "green"}, {Source: "green", Target: "yellow"}, {Source: "yellow", Target: "red"}}
}

func TestEnginePositions(t *testing.T) {
	e := New()
	defer e.Close()

	opts := layout.EngineOptions{Direction: layout.TopToBottom, Size: layout.DefaultSize, Spacing: layout.DefaultSpacing}
	got, err := e.Positions([]string{"red", "green", "yellow"}, trafficEdges(), opts)
	if err != nil {
		t.Fatalf("Positions: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d positions, want 3", len(got))
	}
	if !(got["red"].Y < got["green"].Y && got["green"].Y < got["yellow"].Y) {
		t.Errorf("TB ranks not top to bottom: %+v", got)
	}

	again, err := e.Positions([]string{"red", "green", "yellow"}, trafficEdges(), opts)
	if err != nil {
		t.Fatalf("Positions: %v", err)
	}
	for id, p := range got {
		if again[id] != p {
			t.Errorf("%s moved between runs: %+v vs %+v", id, p, again[id])
		}
	}
}

func TestEnginePositionsLeftToRight(t *testing.T) {
	e := New()
	defer e.Close()

	got, err := e.Positions([]string{"red", "green", "yellow"}, trafficEdges(), layout.EngineOptions{
		Direction: layout.LeftToRight, Size: layout.DefaultSize, Spacing: layout.DefaultSpacing,
	})
	if err != nil {
		t.Fatalf("Positions: %v", err)
	}
	if !(got["red"].X < got["green"].X && got["green"].X < got["yellow"].X) {
		t.Errorf("LR ranks not left to right: %+v", got)
	}
}

func TestEngineDropsDanglingNodes(t *testing.T) {
	e := New()
	defer e.Close()

	got, err := e.Positions([]string{"a"}, []layout.EdgePair{{Source: "a", Target: "ghost"}}, layout.EngineOptions{
		Direction: layout.TopToBottom, Size: layout.DefaultSize, Spacing: layout.DefaultSpacing,
	})
	if err != nil {
		t.Fatalf("Positions: %v", err)
	}
	if _, ok := got["ghost"]; ok || len(got) != 1 {
		t.Errorf("positions = %+v, want only a", got)
	}
}

func TestToDOTAndRenderSVG(t *testing.T) {
	flow := graph.Flow{
		Machine:   "traffic",
		Direction: "TB",
		Nodes: []graph.FlowNode{
			{ID: "red", Data: graph.NodeData{Label: "Red"}},
			{ID: "green", Data: graph.NodeData{Label: "Green"}},
		},
		Edges: []graph.FlowEdge{{ID: "e-red-green", Source: "red", Target: "green", Label: "next"}},
	}

	dot := ToDOT(flow)
	for _, want := range []string{`digraph "traffic"`, `"red" [label="Red"]`, `label="next"`, "rankdir=TB;"} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}

	svg, err := RenderSVG(context.Background(), dot)
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") || !strings.Contains(string(svg), "Green") {
		t.Errorf("unexpected SVG output: %.200s", svg)
	}
}
