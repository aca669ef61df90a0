package graph

// MaxDepth is the number of levels below the root a mind map may carry.
const MaxDepth = 3

// Shape is the outline drawn for a logic diagram node.
type Shape string

// Supported node shapes.
const (
	ShapeRect    Shape = "rect"
	ShapeDiamond Shape = "diamond"
	ShapeEllipse Shape = "ellipse"
)

// Shapes lists every supported shape in schema order.
var Shapes = []Shape{ShapeRect, ShapeDiamond, ShapeEllipse}

// Valid reports whether s is one of the supported shapes.
func (s Shape) Valid() bool {
	switch s {
	case ShapeRect, ShapeDiamond, ShapeEllipse:
		return true
	}
	return false
}

// OrDefault returns s, or [ShapeRect] when s is empty or unsupported.
func (s Shape) OrDefault() Shape {
	if s.Valid() {
		return s
	}
	return ShapeRect
}

// =============================================================================
// Mind map
// =============================================================================

// MindMap is the structured response of a mind map request.
type MindMap struct {
	Root *MindMapNode `json:"root" bson:"root" validate:"required"`
}

// MindMapNode is one named idea with an ordered list of sub-ideas.
type MindMapNode struct {
	Name     string         `json:"name" bson:"name" validate:"notblank"`
	Children []*MindMapNode `json:"children,omitempty" bson:"children,omitempty" validate:"omitempty,dive,required"`
}

// Depth returns the number of levels below n (0 for a leaf).
func (n *MindMapNode) Depth() int {
	if n == nil {
		return 0
	}
	d := 0
	for _, c := range n.Children {
		if cd := c.Depth() + 1; cd > d {
			d = cd
		}
	}
	return d
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *MindMapNode) Count() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

// Clone returns a deep copy of the subtree rooted at n.
func (n *MindMapNode) Clone() *MindMapNode {
	return n.truncate(-1)
}

// truncate copies n, keeping at most limit levels below it.
// A negative limit copies everything.
func (n *MindMapNode) truncate(limit int) *MindMapNode {
	if n == nil {
		return nil
	}
	out := &MindMapNode{Name: n.Name}
	if limit == 0 || len(n.Children) == 0 {
		return out
	}
	out.Children = make([]*MindMapNode, 0, len(n.Children))
	for _, c := range n.Children {
		out.Children = append(out.Children, c.truncate(limit-1))
	}
	return out
}

// =============================================================================
// Logic diagram
// =============================================================================

// LogicDiagram is the structured response of a logic diagram request.
// An empty Nodes slice means no procedure was found.
type LogicDiagram struct {
	Nodes []LogicNode `json:"nodes" bson:"nodes"`
	Links []LogicLink `json:"links" bson:"links"`
}

// LogicNode is one step or decision of a logic diagram.
type LogicNode struct {
	ID    string `json:"id" bson:"id"`
	Label string `json:"label" bson:"label"`
	Shape Shape  `json:"shape,omitempty" bson:"shape,omitempty"`
}

// DisplayLabel returns the label, falling back to the id.
func (n LogicNode) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// LogicLink is a directed edge between two nodes, optionally labelled
// (for example "Yes" or "No" out of a decision).
type LogicLink struct {
	Source string `json:"source" bson:"source"`
	Target string `json:"target" bson:"target"`
	Label  string `json:"label,omitempty" bson:"label,omitempty"`
}

// IsEmpty reports whether d is nil or has no nodes.
func (d *LogicDiagram) IsEmpty() bool {
	return d == nil || len(d.Nodes) == 0
}
