package graph

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

const trafficJSON = `{
  "nodes": [
    {"id": "red", "data": {"label": "Red"}, "position": {"x": 0, "y": 0}, "type": "default"},
    {"id": "green"}
  ],
  "edges": [
    {"id": "e-red-green", "source": "red", "target": "green", "label": "next", "animated": true},
    {"source": "green", "target": "red"}
  ]
}`

func TestReadDescription(t *testing.T) {
	d, err := ReadDescription(strings.NewReader(trafficJSON))
	if err != nil {
		t.Fatalf("ReadDescription: %v", err)
	}
	if len(d.Nodes) != 2 || len(d.Edges) != 2 {
		t.Fatalf("got %d nodes %d edges, want 2 and 2", len(d.Nodes), len(d.Edges))
	}
	if got := d.Nodes[0].Label(); got != "Red" {
		t.Errorf("Nodes[0].Label() = %q, want Red", got)
	}
	if got := d.Nodes[1].Label(); got != "" {
		t.Errorf("Nodes[1].Label() = %q, want empty", got)
	}
	if d.Edges[1].ID != "" || d.Edges[1].Label != "" {
		t.Errorf("Edges[1] = %+v, want empty id and label", d.Edges[1])
	}
}

func TestReadDescriptionInvalid(t *testing.T) {
	if _, err := ReadDescription(strings.NewReader(`{"nodes": 3}`)); err == nil {
		t.Error("expected error for malformed description")
	}
}

func TestCatalogKeepsOrder(t *testing.T) {
	doc := `{"traffic": ` + trafficJSON + `, "auth": {"nodes": [], "edges": []}, "cicd": {"nodes": [], "edges": []}}`

	c, err := ReadCatalog(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ReadCatalog: %v", err)
	}
	want := []string{"traffic", "auth", "cicd"}
	if got := c.IDs(); !slices.Equal(got, want) {
		t.Errorf("IDs() = %v, want %v", got, want)
	}

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(data)
	if !(strings.Index(s, `"traffic"`) < strings.Index(s, `"auth"`) && strings.Index(s, `"auth"`) < strings.Index(s, `"cicd"`)) {
		t.Errorf("encoded catalog lost key order: %s", s)
	}
}

func TestCatalogSet(t *testing.T) {
	var c Catalog
	c.Set("b", Description{})
	c.Set("a", Description{Nodes: []NodeRecord{{ID: "x"}}})
	c.Set("b", Description{Nodes: []NodeRecord{{ID: "y"}}})

	if got := c.IDs(); !slices.Equal(got, []string{"b", "a"}) {
		t.Errorf("IDs() = %v, want [b a]", got)
	}
	d, ok := c.Get("b")
	if !ok || len(d.Nodes) != 1 || d.Nodes[0].ID != "y" {
		t.Errorf("Get(b) = %+v, %v", d, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) should report false")
	}
}

func TestCatalogRejectsNonObject(t *testing.T) {
	if _, err := ReadCatalog(strings.NewReader(`[1, 2]`)); err == nil {
		t.Error("expected error for array catalog")
	}
}

func TestFlowFileRoundTrip(t *testing.T) {
	f := Flow{
		Machine:   "traffic",
		Direction: "TB",
		Width:     150,
		Height:    60,
		Nodes: []FlowNode{{
			ID:             "red",
			Data:           NodeData{Label: "Red"},
			Position:       Position{X: 10, Y: 20},
			SourcePosition: AnchorBottom,
			TargetPosition: AnchorTop,
			ClassName:      NodeClassName,
		}},
		Edges: []FlowEdge{{ID: "red-red", Source: "red", Target: "red", Type: EdgeTypeSmooth}},
	}

	path := filepath.Join(t.TempDir(), "flow.json")
	if err := WriteFlowFile(f, path); err != nil {
		t.Fatalf("WriteFlowFile: %v", err)
	}
	got, err := ReadFlowFile(path)
	if err != nil {
		t.Fatalf("ReadFlowFile: %v", err)
	}
	if got.Machine != "traffic" || len(got.Nodes) != 1 || got.Nodes[0].SourcePosition != AnchorBottom {
		t.Errorf("round trip = %+v", got)
	}
}

func TestWriteFlowEmptyCollections(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFlow(Flow{Direction: "TB"}, &buf); err != nil {
		t.Fatalf("WriteFlow: %v", err)
	}
	if !strings.Contains(buf.String(), `"nodes": []`) || !strings.Contains(buf.String(), `"edges": []`) {
		t.Errorf("empty flow should encode empty arrays:\n%s", buf.String())
	}
}

func TestFlowBounds(t *testing.T) {
	f := Flow{Width: 150, Height: 60, Nodes: []FlowNode{
		{ID: "a", Position: Position{X: -10, Y: 0}},
		{ID: "b", Position: Position{X: 100, Y: 200}},
	}}
	minX, minY, maxX, maxY := f.Bounds()
	if minX != -10 || minY != 0 || maxX != 250 || maxY != 260 {
		t.Errorf("Bounds() = %v %v %v %v", minX, minY, maxX, maxY)
	}
	if _, ok := f.Node("b"); !ok {
		t.Error("Node(b) not found")
	}
}

func TestDescriptionInfo(t *testing.T) {
	d, _ := ReadDescription(strings.NewReader(trafficJSON))
	info := d.Info("traffic", "Machine")
	if info != (MachineInfo{ID: "traffic", Type: "Machine", Nodes: 2, Edges: 2}) {
		t.Errorf("Info() = %+v", info)
	}
}
