package graph

// =============================================================================
// Description - Backend Graph Format
// =============================================================================

// Description is the backend-supplied form of one state machine graph.
// It is immutable input to the layout pipeline.
type Description struct {
	Nodes []NodeRecord `json:"nodes" bson:"nodes"`
	Edges []EdgeRecord `json:"edges" bson:"edges"`
}

// NodeRecord is one state of a Description.
type NodeRecord struct {
	ID       string    `json:"id" bson:"id"`
	Data     *NodeData `json:"data,omitempty" bson:"data,omitempty"`
	Position *Position `json:"position,omitempty" bson:"position,omitempty"` // Ignored by the layout pipeline
}

// Label returns the record's label, or the empty string when it has none.
func (n NodeRecord) Label() string {
	if n.Data == nil {
		return ""
	}
	return n.Data.Label
}

// NodeData is the display payload of a node.
type NodeData struct {
	Label string `json:"label" bson:"label"`
}

// EdgeRecord is one transition of a Description. ID and Label are optional.
type EdgeRecord struct {
	ID     string `json:"id,omitempty" bson:"id,omitempty"`
	Source string `json:"source" bson:"source"`
	Target string `json:"target" bson:"target"`
	Label  string `json:"label,omitempty" bson:"label,omitempty"`
}

// Position is a 2D coordinate in screen pixels.
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// =============================================================================
// MachineInfo - Catalog Metadata
// =============================================================================

// MachineInfo is the metadata entry served by /machines.
type MachineInfo struct {
	ID    string `json:"id" bson:"id"`
	Type  string `json:"type" bson:"type"`
	Nodes int    `json:"nodes" bson:"nodes"`
	Edges int    `json:"edges" bson:"edges"`
}

// Info summarizes a description under the given machine id and type.
func (d Description) Info(id, kind string) MachineInfo {
	return MachineInfo{ID: id, Type: kind, Nodes: len(d.Nodes), Edges: len(d.Edges)}
}
