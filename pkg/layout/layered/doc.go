// Package layered implements [layout.Engine] as a pure-Go layered
// (Sugiyama-style) layout on top of [dag] and [transform].
//
// # Algorithm
//
//  1. Self-loops are ignored and back edges found by depth-first search are
//     reversed, making the graph acyclic.
//  2. Nodes get longest-path ranks; long edges are split by virtual nodes.
//  3. Rows are reordered by alternating downward and upward barycenter
//     sweeps followed by adjacent-swap refinement. The ordering with the
//     fewest crossings wins; ties keep the earlier one.
//  4. Every row is centred on the widest row. Virtual nodes take a
//     narrow slot so long edges do not push real nodes apart.
//
// The direction only rotates or mirrors the result. Everything iterates
// in input order, so identical input yields identical positions.
//
// [dag]: github.com/matzehuels/fsmflow/pkg/dag
// [transform]: github.com/matzehuels/fsmflow/pkg/dag/transform
package layered
