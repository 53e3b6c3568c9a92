package layered

import (
	"fmt"
	"slices"

	"github.com/matzehuels/fsmflow/pkg/dag"
	"github.com/matzehuels/fsmflow/pkg/dag/transform"
	"github.com/matzehuels/fsmflow/pkg/layout"
)

// DefaultPasses is the number of down/up sweep pairs.
const DefaultPasses = 8

// Engine is a deterministic layered layout engine.
// The zero value uses DefaultPasses.
type Engine struct {
	// Passes bounds the down/up barycenter sweep pairs.
	Passes int
}

// New returns an engine with default settings.
func New() *Engine { return &Engine{Passes: DefaultPasses} }

// Name identifies the engine in cache keys and logs.
func (*Engine) Name() string { return "layered" }

// Positions implements layout.Engine. Edges naming unknown nodes are an
// error.
func (e *Engine) Positions(nodes []string, edges []layout.EdgePair, opts layout.EngineOptions) (map[string]layout.Point, error) {
	g := dag.New()
	for _, id := range nodes {
		if err := g.AddNode(dag.Node{ID: id}); err != nil {
			return nil, fmt.Errorf("node %q: %w", id, err)
		}
	}
	for _, ep := range edges {
		if ep.Source == ep.Target {
			if _, ok := g.Node(ep.Source); !ok {
				return nil, fmt.Errorf("edge %s->%s: %w", ep.Source, ep.Target, dag.ErrUnknownSourceNode)
			}
			continue
		}
		if err := g.AddEdge(dag.Edge{From: ep.Source, To: ep.Target}); err != nil {
			return nil, fmt.Errorf("edge %s->%s: %w", ep.Source, ep.Target, err)
		}
	}

	transform.ReverseEdges(g, transform.BreakCycles(g))
	transform.AssignLayers(g)
	transform.Subdivide(g)

	passes := e.Passes
	if passes <= 0 {
		passes = DefaultPasses
	}
	orders := orderRows(g, passes)
	return place(g, orders, opts), nil
}

// orderRows reduces crossings and returns the left-to-right order per row.
func orderRows(g *dag.DAG, passes int) map[int][]string {
	rows := g.RowIDs()
	orders := make(map[int][]string, len(rows))
	for _, r := range rows {
		orders[r] = dag.NodeIDs(g.NodesInRow(r))
	}

	best := cloneOrders(orders)
	bestCrossings := dag.CountCrossings(g, best)

	for pass := 0; pass < passes && bestCrossings > 0; pass++ {
		for i := 1; i < len(rows); i++ {
			orders[rows[i]] = byBarycenter(orders[rows[i]], dag.PosMap(orders[rows[i-1]]), g.Parents)
		}
		for i := len(rows) - 2; i >= 0; i-- {
			orders[rows[i]] = byBarycenter(orders[rows[i]], dag.PosMap(orders[rows[i+1]]), g.Children)
		}
		refine(g, rows, orders)

		if c := dag.CountCrossings(g, orders); c < bestCrossings {
			best, bestCrossings = cloneOrders(orders), c
		}
	}
	return best
}

// byBarycenter sorts a row by the mean position of each node's neighbours
// in the adjacent row. Nodes without neighbours keep their slot relative
// to the others.
func byBarycenter(row []string, adjPos map[string]int, neighbours func(string) []string) []string {
	type entry struct {
		id     string
		weight float64
		index  int
	}
	entries := make([]entry, len(row))
	for i, id := range row {
		weight, n := 0.0, 0
		for _, nb := range neighbours(id) {
			if p, ok := adjPos[nb]; ok {
				weight += float64(p)
				n++
			}
		}
		if n > 0 {
			weight /= float64(n)
		} else {
			weight = float64(i)
		}
		entries[i] = entry{id, weight, i}
	}

	slices.SortStableFunc(entries, func(a, b entry) int {
		switch {
		case a.weight < b.weight:
			return -1
		case a.weight > b.weight:
			return 1
		}
		return a.index - b.index
	})

	out := make([]string, len(entries))
	for i, en := range entries {
		out[i] = en.id
	}
	return out
}

// refine swaps adjacent nodes while that strictly reduces crossings with
// both neighbouring rows.
func refine(g *dag.DAG, rows []int, orders map[int][]string) {
	for improved := true; improved; {
		improved = false
		for i, r := range rows {
			var above, below map[string]int
			if i > 0 {
				above = dag.PosMap(orders[rows[i-1]])
			}
			if i < len(rows)-1 {
				below = dag.PosMap(orders[rows[i+1]])
			}

			row := orders[r]
			for j := 0; j+1 < len(row); j++ {
				a, b := row[j], row[j+1]
				if pairCrossings(g, b, a, above, below) < pairCrossings(g, a, b, above, below) {
					row[j], row[j+1] = b, a
					improved = true
				}
			}
		}
	}
}

func pairCrossings(g *dag.DAG, left, right string, above, below map[string]int) int {
	c := 0
	if above != nil {
		c += dag.CountPairCrossingsWithPos(g, left, right, above, true)
	}
	if below != nil {
		c += dag.CountPairCrossingsWithPos(g, left, right, below, false)
	}
	return c
}

func cloneOrders(orders map[int][]string) map[int][]string {
	out := make(map[int][]string, len(orders))
	for r, ids := range orders {
		out[r] = slices.Clone(ids)
	}
	return out
}
