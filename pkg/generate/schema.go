package generate

import (
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/matzehuels/mindgraph/pkg/genai"
	"github.com/matzehuels/mindgraph/pkg/graph"
)

// MindMapSchema constrains the mind map reply to {root:{name, children}}
// nested [graph.MaxDepth] levels below the root.
var MindMapSchema = genai.Schema{
	Name: "mind_map",
	Definition: jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"root": mindMapNode(graph.MaxDepth),
		},
		Required:             []string{"root"},
		AdditionalProperties: false,
	},
}

// mindMapNode describes a node with up to depth levels of children.
func mindMapNode(depth int) jsonschema.Definition {
	d := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"name": {Type: jsonschema.String, Description: "Short name of the idea"},
		},
		Required:             []string{"name"},
		AdditionalProperties: false,
	}
	if depth > 0 {
		child := mindMapNode(depth - 1)
		d.Properties["children"] = jsonschema.Definition{Type: jsonschema.Array, Items: &child}
	}
	return d
}

// LogicDiagramSchema constrains the diagram reply to nodes and links.
var LogicDiagramSchema = genai.Schema{
	Name: "logic_diagram",
	Definition: jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"nodes": {
				Type: jsonschema.Array,
				Items: &jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"id":    {Type: jsonschema.String, Description: "Unique node id"},
						"label": {Type: jsonschema.String, Description: "Text shown in the node"},
						"shape": {
							Type: jsonschema.String,
							Enum: []string{string(graph.ShapeRect), string(graph.ShapeDiamond), string(graph.ShapeEllipse)},
						},
					},
					Required:             []string{"id", "label"},
					AdditionalProperties: false,
				},
			},
			"links": {
				Type: jsonschema.Array,
				Items: &jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"source": {Type: jsonschema.String},
						"target": {Type: jsonschema.String},
						"label":  {Type: jsonschema.String, Description: "Branch label such as Yes or No"},
					},
					Required:             []string{"source", "target"},
					AdditionalProperties: false,
				},
			},
		},
		Required:             []string{"nodes", "links"},
		AdditionalProperties: false,
	},
}
