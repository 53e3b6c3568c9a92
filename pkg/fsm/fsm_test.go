package fsm

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/fsmflow/pkg/errors"
	"github.com/matzehuels/fsmflow/pkg/graph"
)

func edgeIDs(d graph.Description) []string {
	ids := make([]string, len(d.Edges))
	for i, e := range d.Edges {
		ids[i] = e.ID
	}
	return ids
}

func nodeIDs(d graph.Description) []string {
	ids := make([]string, len(d.Nodes))
	for i, n := range d.Nodes {
		ids[i] = n.ID
	}
	return ids
}

func TestGraphTraffic(t *testing.T) {
	g := traffic().Graph()

	wantEdges := []string{"e-red-green", "e-green-yellow", "e-yellow-red", "e-green-red", "e-yellow-red-1"}
	if got := edgeIDs(g); !reflect.DeepEqual(got, wantEdges) {
		t.Errorf("edges = %v, want %v", got, wantEdges)
	}
	if got := nodeIDs(g); !reflect.DeepEqual(got, []string{"red", "yellow", "green"}) {
		t.Errorf("nodes = %v", got)
	}
	if g.Edges[3].Label != "emergency" {
		t.Errorf("label = %q, want emergency", g.Edges[3].Label)
	}
	for _, n := range g.Nodes {
		if n.Position == nil || *n.Position != (graph.Position{}) {
			t.Errorf("node %s position = %v, want origin", n.ID, n.Position)
		}
		if n.Label() != n.ID {
			t.Errorf("node %s label = %q", n.ID, n.Label())
		}
	}
}

func TestGraphWildcardAndInternal(t *testing.T) {
	d := Definition{
		Name:   "m",
		States: []State{{Name: "a", Label: "Alpha"}, {Name: "b"}, {Name: "unused"}},
		Transitions: []Transition{
			{Trigger: "go", Sources: Names{"a"}, Dest: "b"},
			{Trigger: "stay", Sources: Names{"b"}},
		},
	}
	g := d.Graph()
	if got := edgeIDs(g); !reflect.DeepEqual(got, []string{"e-a-b", "e-b-b"}) {
		t.Errorf("edges = %v", got)
	}
	if got := nodeIDs(g); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("nodes = %v, want unused state skipped", got)
	}
	if g.Nodes[0].Label() != "Alpha" {
		t.Errorf("label = %q, want Alpha", g.Nodes[0].Label())
	}

	dev := device().Graph()
	want := []string{
		"e-disconnected-connected", "e-connected-disconnected",
		"e-disconnected-error", "e-connected-error", "e-error-error",
		"e-error-disconnected",
	}
	if got := edgeIDs(dev); !reflect.DeepEqual(got, want) {
		t.Errorf("device edges = %v, want %v", got, want)
	}
}

func TestGraphSkipsEmptyEndpoints(t *testing.T) {
	d := Definition{
		Name:        "m",
		States:      []State{{Name: "a"}},
		Transitions: []Transition{{Trigger: "x", Sources: Names{""}, Dest: "a"}},
	}
	if g := d.Graph(); len(g.Edges) != 0 || len(g.Nodes) != 0 {
		t.Errorf("graph = %+v, want empty", g)
	}
}

func TestDemo(t *testing.T) {
	r := NewRegistry(Demo()...)
	want := []graph.MachineInfo{
		{ID: "traffic", Type: "ReactFlowMachine", Nodes: 3, Edges: 5},
		{ID: "device", Type: "HierarchicalReactFlowMachine", Nodes: 3, Edges: 6},
		{ID: "auth", Type: "LockedReactFlowMachine", Nodes: 6, Edges: 10},
		{ID: "cicd", Type: "AsyncReactFlowMachine", Nodes: 10, Edges: 14},
	}
	if got := r.Machines(); !reflect.DeepEqual(got, want) {
		t.Errorf("Machines() = %+v, want %+v", got, want)
	}
	if got := r.Catalog().IDs(); !reflect.DeepEqual(got, []string{"traffic", "device", "auth", "cicd"}) {
		t.Errorf("catalog ids = %v", got)
	}
	for _, d := range Demo() {
		if err := d.Validate(); err != nil {
			t.Errorf("demo %s: %v", d.Name, err)
		}
	}
}

func TestValidate(t *testing.T) {
	base := func() Definition {
		return Definition{
			Name:        "m",
			Initial:     "a",
			States:      []State{{Name: "a"}, {Name: "b"}},
			Transitions: []Transition{{Trigger: "go", Sources: Names{"a"}, Dest: "b"}},
		}
	}
	tests := []struct {
		name   string
		mutate func(*Definition)
		msg    string
	}{
		{"empty name", func(d *Definition) { d.Name = "" }, "machine name"},
		{"unnamed state", func(d *Definition) { d.States = append(d.States, State{}) }, "has no name"},
		{"duplicate state", func(d *Definition) { d.States = append(d.States, State{Name: "a"}) }, "duplicate state"},
		{"unknown source", func(d *Definition) { d.Transitions[0].Sources = Names{"z"} }, "unknown source"},
		{"unknown dest", func(d *Definition) { d.Transitions[0].Dest = "z" }, "unknown dest"},
		{"no trigger", func(d *Definition) { d.Transitions[0].Trigger = "" }, "no trigger"},
		{"no source", func(d *Definition) { d.Transitions[0].Sources = nil }, "no source"},
		{"bad initial", func(d *Definition) { d.Initial = "z" }, "initial state"},
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("valid definition: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := base()
			tt.mutate(&d)
			err := d.Validate()
			if !errors.Is(err, errors.ErrCodeInvalidDefinition) {
				t.Fatalf("Validate() = %v, want INVALID_DEFINITION", err)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error %q does not mention %q", err, tt.msg)
			}
		})
	}

	wild := base()
	wild.Transitions[0].Sources = Names{Wildcard}
	if err := wild.Validate(); err != nil {
		t.Errorf("wildcard source: %v", err)
	}
}

func TestLoadFileYAML(t *testing.T) {
	defs, err := LoadFile(filepath.Join("testdata", "traffic.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(defs) != 1 {
		t.Fatalf("got %d definitions, want 1", len(defs))
	}
	d := defs[0]
	if d.States[1] != (State{Name: "yellow", Label: "Yellow light"}) {
		t.Errorf("state = %+v", d.States[1])
	}
	if !reflect.DeepEqual(d.Transitions[3].Sources, Names{"green", "yellow"}) {
		t.Errorf("sources = %v", d.Transitions[3].Sources)
	}
	if !reflect.DeepEqual(d.Graph(), withLabel(traffic().Graph(), "yellow", "Yellow light")) {
		t.Errorf("graph differs from demo traffic")
	}
}

func TestLoadFileTOML(t *testing.T) {
	defs, err := LoadFile(filepath.Join("testdata", "door.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(defs) != 1 || defs[0].Name != "door" {
		t.Fatalf("defs = %+v", defs)
	}
	d := defs[0]
	if d.States[2].DisplayLabel() != "Locked" {
		t.Errorf("label = %q", d.States[2].DisplayLabel())
	}
	want := []string{"e-closed-open", "e-open-closed", "e-closed-locked", "e-closed-closed", "e-open-open", "e-locked-locked"}
	if got := edgeIDs(d.Graph()); !reflect.DeepEqual(got, want) {
		t.Errorf("edges = %v, want %v", got, want)
	}
}

func TestLoadFileJSON(t *testing.T) {
	defs, err := LoadFile(filepath.Join("testdata", "device.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(defs[0].Graph(), device().Graph()) {
		t.Errorf("graph differs from demo device")
	}
	if defs[0].KindOrDefault() != KindHierarchical {
		t.Errorf("kind = %q", defs[0].Kind)
	}
}

func TestParseJSONSchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing states", `{"name": "m"}`},
		{"unknown field", `{"name": "m", "states": [], "colour": "red"}`},
		{"numeric source", `{"name": "m", "states": ["a"], "transitions": [{"trigger": "t", "source": 3}]}`},
		{"scalar", `42`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), FormatJSON)
			if !errors.Is(err, errors.ErrCodeInvalidDefinition) {
				t.Errorf("Parse() = %v, want INVALID_DEFINITION", err)
			}
		})
	}
}

func TestParseLists(t *testing.T) {
	yamlDoc := `
machines:
  - name: a
    states: [x, y]
    transitions: [{trigger: t, source: x, dest: y}]
  - name: b
    states: [x]
`
	defs, err := Parse([]byte(yamlDoc), FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	if len(defs) != 2 || defs[1].Name != "b" {
		t.Errorf("yaml defs = %+v", defs)
	}

	jsonDoc := `[{"name": "a", "states": ["x"]}, {"name": "b", "states": [{"name": "y"}]}]`
	defs, err = Parse([]byte(jsonDoc), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if len(defs) != 2 || defs[1].States[0].Name != "y" {
		t.Errorf("json defs = %+v", defs)
	}
}

func TestLoadDir(t *testing.T) {
	defs, err := LoadDir("testdata")
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, d := range defs {
		names = append(names, d.Name)
	}
	// device.json, door.toml, traffic.yaml
	if want := []string{"device", "door", "traffic"}; !reflect.DeepEqual(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
}

func TestLoadDirDuplicate(t *testing.T) {
	dir := t.TempDir()
	doc := []byte(`{"name": "m", "states": ["a"]}`)
	for _, f := range []string{"a.json", "b.json"} {
		if err := os.WriteFile(filepath.Join(dir, f), doc, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := LoadDir(dir); !errors.Is(err, errors.ErrCodeInvalidDefinition) {
		t.Errorf("LoadDir() = %v, want INVALID_DEFINITION", err)
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file: %v", err)
	}
	if _, err := LoadFile(filepath.Join("testdata", "README.txt")); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("unsupported extension: %v", err)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(traffic())
	if err := r.Put(Definition{Name: "bad name"}); err == nil {
		t.Error("Put accepted an invalid definition")
	}
	if err := r.Put(device()); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Graph("nope"); !errors.Is(err, errors.ErrCodeMachineNotFound) {
		t.Errorf("Graph(nope) = %v", err)
	}
	if !r.Remove("traffic") || r.Remove("traffic") {
		t.Error("Remove should report presence once")
	}
	if got := r.Names(); !reflect.DeepEqual(got, []string{"device"}) {
		t.Errorf("names = %v", got)
	}
}

// withLabel returns a copy of d with the label of node id replaced.
func withLabel(d graph.Description, id, label string) graph.Description {
	nodes := make([]graph.NodeRecord, len(d.Nodes))
	copy(nodes, d.Nodes)
	for i, n := range nodes {
		if n.ID == id {
			nodes[i].Data = &graph.NodeData{Label: label}
		}
	}
	return graph.Description{Nodes: nodes, Edges: d.Edges}
}
