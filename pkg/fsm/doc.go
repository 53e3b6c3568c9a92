// Package fsm describes finite state machines and turns them into graph
// descriptions.
//
// A [Definition] lists states and transitions the way a machine library
// would be configured. [Definition.Graph] expands wildcard sources,
// defaults missing destinations to the source state and emits a
// [graph.Description] with stable edge ids:
//
//	e-{source}-{dest}       first transition between the pair
//	e-{source}-{dest}-{n}   n-th repeat of the same pair
//
// Definitions are loaded from YAML, TOML or JSON files with [LoadFile] and
// [LoadDir], or taken from [Demo]. A [Registry] holds an ordered set of
// definitions and produces the /graph-data and /machines payloads.
package fsm
