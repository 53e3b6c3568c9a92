// Package graph provides the wire types shared by the fsmflow backend, the
// layout pipeline and the rendering surfaces.
//
// # Backend Contract
//
// A backend serves one [Description] per named state machine. Nodes are
// states and edges are transitions:
//
//	{
//	  "nodes": [{"id": "red", "data": {"label": "Red"}, "position": {"x": 0, "y": 0}}],
//	  "edges": [{"id": "e-red-green", "source": "red", "target": "green", "label": "next"}]
//	}
//
// Only nodes[].id, nodes[].data.label, edges[].id, edges[].source,
// edges[].target and edges[].label are interpreted. Additional fields are
// ignored on decode.
//
// A [Catalog] is the JSON object served by /graph-data, mapping machine ids
// to descriptions. Key order is significant: it decides the default
// selection and the order machines are listed in, so Catalog keeps the
// order of the document it was decoded from.
//
// # Rendering Contract
//
// A [Flow] is a positioned graph ready for a drawing surface: every
// [FlowNode] carries a top-left position in screen pixels plus the anchor
// sides its outgoing and incoming edges attach to, and every [FlowEdge]
// carries a rendering type tag.
//
// # Serialization
//
//	cat, _ := graph.ReadCatalog(resp.Body)
//	desc, ok := cat.Get("traffic")
//	graph.WriteFlowFile(flow, "traffic.json")
package graph
