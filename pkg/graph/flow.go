package graph

// Anchor is the side of a node box where edges attach.
type Anchor string

// Anchor sides.
const (
	AnchorTop    Anchor = "top"
	AnchorBottom Anchor = "bottom"
	AnchorLeft   Anchor = "left"
	AnchorRight  Anchor = "right"
)

// EdgeTypeSmooth is the rendering type tag put on every laid out edge.
const EdgeTypeSmooth = "smooth"

// NodeClassName is the style hint put on every laid out node.
const NodeClassName = "rounded px-4 py-3 min-w-max text-center font-medium border-2 border-gray-800 text-sm bg-white"

// FlowNode is a positioned node ready for a drawing surface.
type FlowNode struct {
	ID             string   `json:"id" bson:"id"`
	Data           NodeData `json:"data" bson:"data"`
	Position       Position `json:"position" bson:"position"` // Top-left corner
	SourcePosition Anchor   `json:"sourcePosition" bson:"source_position"`
	TargetPosition Anchor   `json:"targetPosition" bson:"target_position"`
	ClassName      string   `json:"className,omitempty" bson:"class_name,omitempty"`
}

// FlowEdge is a normalized edge ready for a drawing surface.
type FlowEdge struct {
	ID     string `json:"id" bson:"id"`
	Source string `json:"source" bson:"source"`
	Target string `json:"target" bson:"target"`
	Label  string `json:"label" bson:"label"`
	Type   string `json:"type,omitempty" bson:"type,omitempty"`
}

// Flow is the positioned form of one machine's graph.
type Flow struct {
	Machine   string     `json:"machine,omitempty" bson:"machine,omitempty"`
	Direction string     `json:"direction" bson:"direction"`
	Width     float64    `json:"width" bson:"width"`   // Uniform node width used for layout
	Height    float64    `json:"height" bson:"height"` // Uniform node height used for layout
	Nodes     []FlowNode `json:"nodes" bson:"nodes"`
	Edges     []FlowEdge `json:"edges" bson:"edges"`
}

// Node returns the node with the given id.
func (f *Flow) Node(id string) (FlowNode, bool) {
	for _, n := range f.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return FlowNode{}, false
}

// Bounds returns the bounding box of all node boxes.
// An empty flow has zero bounds.
func (f *Flow) Bounds() (minX, minY, maxX, maxY float64) {
	for i, n := range f.Nodes {
		x0, y0 := n.Position.X, n.Position.Y
		x1, y1 := x0+f.Width, y0+f.Height
		if i == 0 {
			minX, minY, maxX, maxY = x0, y0, x1, y1
			continue
		}
		minX, minY = min(minX, x0), min(minY, y0)
		maxX, maxY = max(maxX, x1), max(maxY, y1)
	}
	return minX, minY, maxX, maxY
}
