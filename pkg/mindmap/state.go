package mindmap

import (
	"errors"
	"fmt"

	"github.com/matzehuels/mindgraph/pkg/graph"
)

// NodeID identifies a node for the lifetime of a [State]. Ids are the
// pre-order position of the node in the input tree, starting at 0 for the
// root.
type NodeID int

// NoNode is the parent of the root.
const NoNode NodeID = -1

// ErrUnknownNode is returned when toggling an id the state does not know.
var ErrUnknownNode = errors.New("mindmap: unknown node")

// InitialExpandedDepth is the deepest level that starts expanded.
const InitialExpandedDepth = 1

// State is the expand/collapse overlay for one input tree.
type State struct {
	nodes []stateNode
}

type stateNode struct {
	name   string
	depth  int
	parent NodeID
	all    []NodeID // original children, never modified

	expanded bool
	children []NodeID // visible children; nil while collapsed
	cached   []NodeID // hidden children; nil while expanded
}

// NewState builds the overlay for root. Nodes at depth 0 and 1 start
// expanded; deeper nodes start collapsed with their children cached.
func NewState(root *graph.MindMapNode) *State {
	s := &State{}
	if root == nil {
		return s
	}
	var visit func(n *graph.MindMapNode, parent NodeID, depth int) NodeID
	visit = func(n *graph.MindMapNode, parent NodeID, depth int) NodeID {
		id := NodeID(len(s.nodes))
		s.nodes = append(s.nodes, stateNode{name: n.Name, depth: depth, parent: parent})
		var kids []NodeID
		for _, c := range n.Children {
			if c == nil {
				continue
			}
			kids = append(kids, visit(c, id, depth+1))
		}
		sn := &s.nodes[id]
		sn.all = kids
		sn.expanded = depth <= InitialExpandedDepth
		if sn.expanded {
			sn.children = kids
		} else {
			sn.cached = kids
		}
		return id
	}
	visit(root, NoNode, 0)
	return s
}

// Len returns the number of nodes, visible or not.
func (s *State) Len() int { return len(s.nodes) }

// Root returns the root id, or NoNode for an empty state.
func (s *State) Root() NodeID {
	if len(s.nodes) == 0 {
		return NoNode
	}
	return 0
}

// Valid reports whether id names a node.
func (s *State) Valid(id NodeID) bool {
	return id >= 0 && int(id) < len(s.nodes)
}

// Name returns the node's label.
func (s *State) Name(id NodeID) string { return s.nodes[id].name }

// Depth returns the node's depth (0 for the root).
func (s *State) Depth(id NodeID) int { return s.nodes[id].depth }

// Parent returns the node's parent, or NoNode for the root.
func (s *State) Parent(id NodeID) NodeID { return s.nodes[id].parent }

// Expanded reports whether the node is expanded.
func (s *State) Expanded(id NodeID) bool { return s.nodes[id].expanded }

// Children returns the visible children of id. The slice must not be
// modified.
func (s *State) Children(id NodeID) []NodeID { return s.nodes[id].children }

// Cached returns the hidden children of a collapsed node.
func (s *State) Cached(id NodeID) []NodeID { return s.nodes[id].cached }

// HasHidden reports whether id currently hides children.
func (s *State) HasHidden(id NodeID) bool { return len(s.nodes[id].cached) > 0 }

// HasChildren reports whether id has children at all.
func (s *State) HasChildren(id NodeID) bool { return len(s.nodes[id].all) > 0 }

// Toggle flips id between expanded and collapsed. Collapsing moves the
// child list into the cache; expanding restores it unchanged. Toggling a
// leaf flips the flag and changes nothing visible.
func (s *State) Toggle(id NodeID) error {
	if !s.Valid(id) {
		return fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	n := &s.nodes[id]
	if n.expanded {
		n.cached, n.children = n.children, nil
	} else {
		n.children, n.cached = n.cached, nil
	}
	n.expanded = !n.expanded
	return nil
}

// Visible returns the ids reachable from the root through expanded nodes,
// in pre-order.
func (s *State) Visible() []NodeID {
	if len(s.nodes) == 0 {
		return nil
	}
	var out []NodeID
	var walk func(id NodeID)
	walk = func(id NodeID) {
		out = append(out, id)
		for _, c := range s.nodes[id].children {
			walk(c)
		}
	}
	walk(0)
	return out
}
