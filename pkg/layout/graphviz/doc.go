// Package graphviz implements [layout.Engine] with the Graphviz dot
// algorithm, run in process through github.com/goccy/go-graphviz.
//
// # Positions
//
// [Engine.Positions] writes a DOT document with fixed-size box nodes and
// the requested rankdir, nodesep and ranksep, renders it to Graphviz's
// "plain" text format and reads back every node centre. Plain output
// measures in inches with the origin at the bottom left; the engine
// converts to pixels (72 per inch) with y growing downwards.
//
// # Export
//
// [ToDOT] converts a positioned flow into a DOT document that keeps labels
// and edge triggers, for saving or for [RenderSVG].
package graphviz
