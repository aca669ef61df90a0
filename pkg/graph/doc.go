// Package graph provides the data model for mind maps and logic diagrams.
//
// This package defines the canonical wire format exchanged with the AI
// service, written by the CLI, and read back by the render command:
//
//	{"root": {"name": "Water Cycle", "children": [{"name": "Evaporation"}]}}
//
//	{
//	  "nodes": [{"id": "a", "label": "Start", "shape": "ellipse"}],
//	  "links": [{"source": "a", "target": "b", "label": "Yes"}]
//	}
//
// # Core Types
//
//   - [MindMap], [MindMapNode]: the hierarchical mind map tree
//   - [LogicDiagram], [LogicNode], [LogicLink]: the flowchart graph
//   - [Shape]: node shape of a logic diagram node
//
// # Validation
//
// Values received from the AI service are untrusted. [MindMap.Validate]
// checks the required fields with go-playground/validator and
// [MindMap.Normalize] truncates trees deeper than [MaxDepth].
// [LogicDiagram.Sanitize] removes duplicate nodes and dangling links so the
// layout engine only ever sees a well-formed graph.
//
// # Immutability
//
// Both structures are treated as immutable once received. Renderers keep
// their per-session state (collapse flags, positions) in separate shadow
// structures; nothing in this module writes back into a tree or diagram.
package graph
