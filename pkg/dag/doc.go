// Package dag provides the layered graph used by the pure-Go layout engine.
//
// # Overview
//
// Layered (Sugiyama-style) drawing places every node in a horizontal row
// (rank) such that edges point from lower to higher rows. This package
// holds the nodes, their row assignment and the adjacency lists, and counts
// edge crossings between consecutive rows. The [transform] subpackage turns
// an arbitrary directed graph into this form.
//
// # Basic Usage
//
//	g := dag.New()
//	g.AddNode(dag.Node{ID: "red"})
//	g.AddNode(dag.Node{ID: "green", Row: 1})
//	g.AddEdge(dag.Edge{From: "red", To: "green"})
//
// # Determinism
//
// Every accessor that returns a collection returns it in insertion order.
// Layout output must be identical for identical input, so nothing in this
// package iterates a map to produce results.
//
// # Node Kinds
//
//   - [NodeKindRegular]: a state of the machine being drawn
//   - [NodeKindVirtual]: a bend point inserted on an edge spanning rows
//
// # Edge Crossings
//
// [CountLayerCrossings] counts inversions with a Fenwick tree in
// O(E log V) per pair of rows. [CountPairCrossingsWithPos] evaluates
// a single adjacent swap.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use.
//
// [transform]: github.com/matzehuels/fsmflow/pkg/dag/transform
package dag
