// Package layout turns a backend [graph.Description] into a positioned
// [graph.Flow] ready for a drawing surface.
//
// # Pipeline
//
// [Transformer.Transform] runs three steps:
//
//  1. Normalize: node labels default to the node id, edge ids default to
//     "{source}-{target}", edge labels default to the empty string.
//  2. Layout: the injected [Engine] receives the node ids, the edge
//     topology (ids and labels are not passed), the uniform node size and
//     the direction-derived spacing, and returns node centres.
//  3. Annotate: centres become top-left positions by subtracting half the
//     node size, and every node receives the anchor sides of the direction.
//
// Output preserves node order and node and edge counts exactly. The
// transformer validates nothing: an edge that names a missing node is
// handed to the engine as is, and whatever the engine does with it is the
// result.
//
// # Engines
//
// Engines live in subpackages: [graphviz] drives the Graphviz dot
// algorithm in process, [layered] is a pure-Go layered layout.
//
// # Duplicate Edge Ids
//
// Parallel edges without explicit ids would all default to the same id.
// The transformer appends "-1", "-2", ... to a synthesized id that is
// already taken by an explicit id or an earlier synthesized one. Explicit
// ids are never rewritten, even when they repeat.
//
// [graphviz]: github.com/matzehuels/fsmflow/pkg/layout/graphviz
// [layered]: github.com/matzehuels/fsmflow/pkg/layout/layered
package layout
