package mindmap

import (
	"github.com/matzehuels/mindgraph/pkg/layout/tree"
)

// Point is a screen position inside the margins.
type Point struct {
	X, Y float64
}

// Margin is the space around the laid-out tree.
type Margin struct {
	Top, Right, Bottom, Left float64
}

// DefaultMargin leaves room for labels left of the root and right of the
// leaves.
var DefaultMargin = Margin{Top: 20, Right: 120, Bottom: 20, Left: 120}

// layoutVisible lays out the visible part of s inside an inner area of
// width x height. Depth runs along x, breadth along y.
func layoutVisible(s *State, width, height float64) map[NodeID]Point {
	root := s.Root()
	if root == NoNode {
		return nil
	}
	var build func(id NodeID) *tree.Node
	build = func(id NodeID) *tree.Node {
		n := &tree.Node{ID: int(id)}
		for _, c := range s.Children(id) {
			n.Children = append(n.Children, build(c))
		}
		return n
	}
	t := build(root)
	tree.Layout(t, tree.Size{Breadth: height, Depth: width}, nil)

	pos := make(map[NodeID]Point, s.Len())
	var collect func(n *tree.Node)
	collect = func(n *tree.Node) {
		pos[NodeID(n.ID)] = Point{X: n.Y, Y: n.X}
		for _, c := range n.Children {
			collect(c)
		}
	}
	collect(t)
	return pos
}
