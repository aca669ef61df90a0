package mindmap

import (
	"maps"
	"slices"
)

// Phase classifies an element of a frame.
type Phase int

const (
	// Enter marks an element that was not drawn in the previous frame.
	Enter Phase = iota
	// Update marks an element that stays and may move.
	Update
	// Exit marks an element that fades out and is then removed.
	Exit
)

func (p Phase) String() string {
	switch p {
	case Enter:
		return "enter"
	case Update:
		return "update"
	case Exit:
		return "exit"
	}
	return "unknown"
}

// Segment is a link drawn from a parent to a child.
type Segment struct {
	From, To Point
}

// NodeTransition animates one node between two positions and opacities.
type NodeTransition struct {
	ID          NodeID
	Phase       Phase
	From, To    Point
	FromOpacity float64
	ToOpacity   float64
}

// LinkTransition animates the link that ends at Target.
type LinkTransition struct {
	Target   NodeID
	Source   NodeID
	Phase    Phase
	From, To Segment
}

// Transitions is the result of one reconciliation. Elements are sorted by
// id so output is deterministic.
type Transitions struct {
	Nodes []NodeTransition
	Links []LinkTransition
}

// Count returns how many nodes are in phase p.
func (t Transitions) Count(p Phase) int {
	n := 0
	for _, nt := range t.Nodes {
		if nt.Phase == p {
			n++
		}
	}
	return n
}

// Reconciler remembers what the previous frame drew, keyed by NodeID
// (links are keyed by their target), and diffs each new layout against it.
type Reconciler struct {
	nodes map[NodeID]Point
	links map[NodeID]retainedLink
}

type retainedLink struct {
	source NodeID
	seg    Segment
}

// NewReconciler returns a reconciler with nothing drawn.
func NewReconciler() *Reconciler {
	return &Reconciler{
		nodes: make(map[NodeID]Point),
		links: make(map[NodeID]retainedLink),
	}
}

// Previous returns where id was drawn by the last frame.
func (r *Reconciler) Previous(id NodeID) (Point, bool) {
	p, ok := r.nodes[id]
	return p, ok
}

// Reconcile diffs the new layout against the retained frame.
//
// pos holds the new position of every visible node and parent gives each
// node's parent (NoNode for the root). source is the node whose change
// caused the frame; origin is where source was drawn before, used when it
// has no retained position (the first frame).
//
// Entering elements start at the source's previous position with opacity
// 0; exiting elements move to the source's new position and fade to 0.
// Afterwards the new positions are retained and exited elements dropped.
func (r *Reconciler) Reconcile(pos map[NodeID]Point, parent func(NodeID) NodeID, source NodeID, origin Point) Transitions {
	srcPrev, ok := r.nodes[source]
	if !ok {
		srcPrev = origin
	}
	srcNew, ok := pos[source]
	if !ok {
		srcNew = srcPrev
	}

	var out Transitions
	for _, id := range slices.Sorted(maps.Keys(pos)) {
		to := pos[id]
		if from, seen := r.nodes[id]; seen {
			out.Nodes = append(out.Nodes, NodeTransition{ID: id, Phase: Update, From: from, To: to, FromOpacity: 1, ToOpacity: 1})
		} else {
			out.Nodes = append(out.Nodes, NodeTransition{ID: id, Phase: Enter, From: srcPrev, To: to, FromOpacity: 0, ToOpacity: 1})
		}

		p := parent(id)
		if p == NoNode {
			continue
		}
		seg := Segment{From: pos[p], To: to}
		if prev, seen := r.links[id]; seen {
			out.Links = append(out.Links, LinkTransition{Target: id, Source: p, Phase: Update, From: prev.seg, To: seg})
		} else {
			out.Links = append(out.Links, LinkTransition{Target: id, Source: p, Phase: Enter, From: Segment{srcPrev, srcPrev}, To: seg})
		}
	}

	for _, id := range slices.Sorted(maps.Keys(r.nodes)) {
		if _, visible := pos[id]; visible {
			continue
		}
		out.Nodes = append(out.Nodes, NodeTransition{ID: id, Phase: Exit, From: r.nodes[id], To: srcNew, FromOpacity: 1, ToOpacity: 0})
	}
	for _, id := range slices.Sorted(maps.Keys(r.links)) {
		if _, visible := pos[id]; visible && parent(id) != NoNode {
			continue
		}
		prev := r.links[id]
		out.Links = append(out.Links, LinkTransition{Target: id, Source: prev.source, Phase: Exit, From: prev.seg, To: Segment{srcNew, srcNew}})
	}

	r.commit(pos, parent)
	return out
}

// Reset forgets the retained frame.
func (r *Reconciler) Reset() {
	clear(r.nodes)
	clear(r.links)
}

func (r *Reconciler) commit(pos map[NodeID]Point, parent func(NodeID) NodeID) {
	clear(r.nodes)
	clear(r.links)
	for id, p := range pos {
		r.nodes[id] = p
		if par := parent(id); par != NoNode {
			r.links[id] = retainedLink{source: par, seg: Segment{From: pos[par], To: p}}
		}
	}
}
