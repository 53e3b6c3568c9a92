package layout_test

import (
	"fmt"

	"github.com/matzehuels/fsmflow/pkg/graph"
	"github.com/matzehuels/fsmflow/pkg/layout"
)

func ExampleTransformer_Transform() {
	// A stand-in engine that stacks nodes vertically.
	engine := layout.EngineFunc(func(nodes []string, _ []layout.EdgePair, opts layout.EngineOptions) (map[string]layout.Point, error) {
		out := make(map[string]layout.Point, len(nodes))
		for i, id := range nodes {
			out[id] = layout.Point{X: opts.Size.Width / 2, Y: opts.Size.Height/2 + float64(i)*(opts.Size.Height+opts.Spacing.RankSep)}
		}
		return out, nil
	})

	desc := graph.Description{
		Nodes: []graph.NodeRecord{{ID: "red"}, {ID: "green", Data: &graph.NodeData{Label: "Go"}}},
		Edges: []graph.EdgeRecord{{Source: "red", Target: "green", Label: "timer"}},
	}

	flow, err := layout.New(engine).Transform(desc, layout.TopToBottom)
	if err != nil {
		panic(err)
	}
	for _, n := range flow.Nodes {
		fmt.Printf("%s %q at (%.0f,%.0f) out=%s in=%s\n", n.ID, n.Data.Label, n.Position.X, n.Position.Y, n.SourcePosition, n.TargetPosition)
	}
	for _, e := range flow.Edges {
		fmt.Printf("%s: %s -> %s %q\n", e.ID, e.Source, e.Target, e.Label)
	}
	// Output:
	// red "red" at (0,0) out=bottom in=top
	// green "Go" at (0,180) out=bottom in=top
	// red-green: red -> green "timer"
}
