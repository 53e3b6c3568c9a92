// Package transform prepares an arbitrary directed graph for layered layout.
//
// The steps run in this order:
//
//  1. [BreakCycles] removes back edges found by depth-first search so the
//     graph becomes acyclic. The caller decides whether to re-insert them
//     reversed; state machines are full of cycles, so the layout engine does.
//  2. [AssignLayers] assigns longest-path ranks: sources at row 0, every
//     node one row below its deepest parent.
//  3. [Subdivide] replaces edges spanning several rows by chains of
//     virtual nodes so every edge connects consecutive rows.
//
// All functions visit nodes in insertion order and are deterministic.
package transform
