package layout

import (
	"fmt"
	"strconv"

	"github.com/matzehuels/fsmflow/pkg/errors"
	"github.com/matzehuels/fsmflow/pkg/graph"
)

// Transformer shapes descriptions into positioned flows with an Engine.
// Zero Size and Spacing fields fall back to DefaultSize and
// DefaultSpacing. A Transformer holds no per-call state and is safe for
// concurrent use if its Engine is.
type Transformer struct {
	Engine  Engine
	Size    Size
	Spacing Spacing
}

// New returns a Transformer using engine with the default size and spacing.
func New(engine Engine) *Transformer {
	return &Transformer{Engine: engine, Size: DefaultSize, Spacing: DefaultSpacing}
}

// Transform lays out desc in direction dir with the transformer's node size.
func (t *Transformer) Transform(desc graph.Description, dir Direction) (graph.Flow, error) {
	return t.TransformSized(desc, dir, t.size())
}

// TransformSized lays out desc in direction dir, treating every node as a
// box of the given size.
//
// An empty description yields an empty flow without calling the engine.
// Engine errors are returned with context added.
func (t *Transformer) TransformSized(desc graph.Description, dir Direction, size Size) (graph.Flow, error) {
	if size.Width <= 0 || size.Height <= 0 {
		size = t.size()
	}
	out, in := dir.Anchors()

	flow := graph.Flow{
		Direction: dir.String(),
		Width:     size.Width,
		Height:    size.Height,
		Nodes:     NormalizeNodes(desc.Nodes, out, in),
		Edges:     NormalizeEdges(desc.Edges),
	}
	if len(flow.Nodes) == 0 {
		return flow, nil
	}
	if t.Engine == nil {
		return graph.Flow{}, errors.New(errors.ErrCodeLayoutFailed, "no layout engine configured")
	}

	ids := make([]string, len(flow.Nodes))
	for i, n := range flow.Nodes {
		ids[i] = n.ID
	}
	pairs := make([]EdgePair, len(flow.Edges))
	for i, e := range flow.Edges {
		pairs[i] = EdgePair{Source: e.Source, Target: e.Target}
	}

	centres, err := t.Engine.Positions(ids, pairs, EngineOptions{
		Direction: dir,
		Size:      size,
		Spacing:   t.spacing(),
	})
	if err != nil {
		return graph.Flow{}, fmt.Errorf("compute positions: %w", err)
	}

	for i := range flow.Nodes {
		c, ok := centres[flow.Nodes[i].ID]
		if !ok {
			continue
		}
		flow.Nodes[i].Position = graph.Position{
			X: c.X - size.Width/2,
			Y: c.Y - size.Height/2,
		}
	}
	return flow, nil
}

func (t *Transformer) size() Size {
	s := t.Size
	if s.Width <= 0 {
		s.Width = DefaultSize.Width
	}
	if s.Height <= 0 {
		s.Height = DefaultSize.Height
	}
	return s
}

func (t *Transformer) spacing() Spacing {
	s := t.Spacing
	if s.NodeSep <= 0 {
		s.NodeSep = DefaultSpacing.NodeSep
	}
	if s.RankSep <= 0 {
		s.RankSep = DefaultSpacing.RankSep
	}
	return s
}

// NormalizeNodes converts node records into flow nodes at the placeholder
// position (0,0) with the given anchors. Labels default to ids.
func NormalizeNodes(records []graph.NodeRecord, out, in graph.Anchor) []graph.FlowNode {
	nodes := make([]graph.FlowNode, len(records))
	for i, r := range records {
		label := r.Label()
		if label == "" {
			label = r.ID
		}
		nodes[i] = graph.FlowNode{
			ID:             r.ID,
			Data:           graph.NodeData{Label: label},
			SourcePosition: out,
			TargetPosition: in,
			ClassName:      graph.NodeClassName,
		}
	}
	return nodes
}

// NormalizeEdges converts edge records into flow edges. Missing ids become
// "{source}-{target}", with "-{n}" appended when that id is an explicit
// id of another edge or was already synthesized.
func NormalizeEdges(records []graph.EdgeRecord) []graph.FlowEdge {
	edges := make([]graph.FlowEdge, len(records))
	used := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.ID != "" {
			used[r.ID] = struct{}{}
		}
	}

	for i, r := range records {
		id := r.ID
		if id == "" {
			id = uniqueID(r.Source+"-"+r.Target, used)
		}
		edges[i] = graph.FlowEdge{
			ID:     id,
			Source: r.Source,
			Target: r.Target,
			Label:  r.Label,
			Type:   graph.EdgeTypeSmooth,
		}
	}
	return edges
}

func uniqueID(base string, used map[string]struct{}) string {
	id := base
	for n := 1; ; n++ {
		if _, taken := used[id]; !taken {
			used[id] = struct{}{}
			return id
		}
		id = base + "-" + strconv.Itoa(n)
	}
}
