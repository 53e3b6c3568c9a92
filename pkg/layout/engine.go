package layout

// Point is a 2D coordinate in screen pixels.
type Point struct {
	X, Y float64
}

// Size is a node box size in screen pixels.
type Size struct {
	Width  float64 `json:"width" toml:"width"`
	Height float64 `json:"height" toml:"height"`
}

// Spacing holds the gaps between boxes in screen pixels.
type Spacing struct {
	NodeSep float64 `json:"nodesep" toml:"nodesep"` // Between nodes of the same rank
	RankSep float64 `json:"ranksep" toml:"ranksep"` // Between consecutive ranks
}

// Defaults for the uniform node box and spacing.
var (
	DefaultSize    = Size{Width: 150, Height: 60}
	DefaultSpacing = Spacing{NodeSep: 80, RankSep: 120}
)

// EdgePair is the topology of one edge.
type EdgePair struct {
	Source, Target string
}

// EngineOptions is everything an engine needs besides the topology.
type EngineOptions struct {
	Direction Direction
	Size      Size
	Spacing   Spacing
}

// Engine assigns centre coordinates to nodes.
//
// Implementations must be deterministic for identical input. Nodes missing
// from the returned map keep a placeholder position. Engines are free to
// reject or tolerate edges naming unknown nodes.
type Engine interface {
	Positions(nodes []string, edges []EdgePair, opts EngineOptions) (map[string]Point, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(nodes []string, edges []EdgePair, opts EngineOptions) (map[string]Point, error)

// Positions calls f.
func (f EngineFunc) Positions(nodes []string, edges []EdgePair, opts EngineOptions) (map[string]Point, error) {
	return f(nodes, edges, opts)
}
