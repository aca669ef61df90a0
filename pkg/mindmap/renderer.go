package mindmap

import (
	"time"

	"github.com/matzehuels/mindgraph/pkg/graph"
	"github.com/matzehuels/mindgraph/pkg/svg"
)

// Defaults for a Renderer.
const (
	DefaultWidth    = 960.0
	DefaultHeight   = 600.0
	DefaultDuration = 500 * time.Millisecond
)

// DefaultZoom is the wheel zoom range of mind map documents.
var DefaultZoom = svg.ZoomRange{Min: 0.1, Max: 4}

// Option configures a Renderer.
type Option func(*Renderer)

// WithSize sets the viewport in pixels.
func WithSize(width, height float64) Option {
	return func(r *Renderer) { r.width, r.height = width, height }
}

// WithMargin sets the space around the tree.
func WithMargin(m Margin) Option { return func(r *Renderer) { r.margin = m } }

// WithDuration sets the transition duration; zero disables animation.
func WithDuration(d time.Duration) Option { return func(r *Renderer) { r.duration = d } }

// WithZoom sets the wheel zoom range.
func WithZoom(z svg.ZoomRange) Option { return func(r *Renderer) { r.zoom = z } }

// Renderer draws one mind map across any number of toggles.
type Renderer struct {
	width, height float64
	margin        Margin
	duration      time.Duration
	zoom          svg.ZoomRange

	root  *graph.MindMapNode
	state *State
	rec   *Reconciler
}

// New returns a renderer for root. Nothing is drawn until Render.
func New(root *graph.MindMapNode, opts ...Option) *Renderer {
	r := &Renderer{
		width:    DefaultWidth,
		height:   DefaultHeight,
		margin:   DefaultMargin,
		duration: DefaultDuration,
		zoom:     DefaultZoom,
		root:     root,
		state:    NewState(root),
		rec:      NewReconciler(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Frame is one render: every node and link with its transition.
type Frame struct {
	Width, Height float64
	Margin        Margin
	Duration      time.Duration
	Zoom          svg.ZoomRange
	Source        NodeID

	Nodes []FrameNode
	Links []LinkTransition
}

// FrameNode is a node transition plus what is needed to draw the node.
type FrameNode struct {
	NodeTransition
	Name        string
	Depth       int
	HasChildren bool // has children, visible or hidden
	HasHidden   bool // currently hides children
}

// Count returns how many nodes of the frame are in phase p.
func (f Frame) Count(p Phase) int {
	n := 0
	for _, fn := range f.Nodes {
		if fn.Phase == p {
			n++
		}
	}
	return n
}

// VisibleNode is a node drawn by the last frame.
type VisibleNode struct {
	ID          NodeID
	Parent      NodeID
	Name        string
	Depth       int
	Position    Point
	Expanded    bool
	HasHidden   bool
	HasChildren bool
}

// Root returns the tree being rendered.
func (r *Renderer) Root() *graph.MindMapNode { return r.root }

// State returns the collapse overlay.
func (r *Renderer) State() *State { return r.state }

// Render lays out the visible nodes and reconciles them against the
// previous frame, with the root as the transition source.
func (r *Renderer) Render() Frame {
	return r.frame(r.state.Root())
}

// Toggle expands or collapses id and renders with id as the source.
func (r *Renderer) Toggle(id NodeID) (Frame, error) {
	if err := r.state.Toggle(id); err != nil {
		return Frame{}, err
	}
	return r.frame(id), nil
}

// SetData replaces the input tree. A different tree resets the collapse
// state and the retained frame, so every node enters again; the same tree
// just renders.
func (r *Renderer) SetData(root *graph.MindMapNode) Frame {
	if root != r.root {
		r.root = root
		r.state = NewState(root)
		r.rec.Reset()
	}
	return r.Render()
}

// Visible lists the nodes drawn by the last frame in pre-order.
func (r *Renderer) Visible() []VisibleNode {
	ids := r.state.Visible()
	out := make([]VisibleNode, 0, len(ids))
	for _, id := range ids {
		p, ok := r.rec.Previous(id)
		if !ok {
			continue
		}
		out = append(out, VisibleNode{
			ID:          id,
			Parent:      r.state.Parent(id),
			Name:        r.state.Name(id),
			Depth:       r.state.Depth(id),
			Position:    p,
			Expanded:    r.state.Expanded(id),
			HasHidden:   r.state.HasHidden(id),
			HasChildren: r.state.HasChildren(id),
		})
	}
	return out
}

func (r *Renderer) inner() (w, h float64) {
	w = max(1, r.width-r.margin.Left-r.margin.Right)
	h = max(1, r.height-r.margin.Top-r.margin.Bottom)
	return w, h
}

func (r *Renderer) frame(source NodeID) Frame {
	f := Frame{
		Width:    r.width,
		Height:   r.height,
		Margin:   r.margin,
		Duration: r.duration,
		Zoom:     r.zoom,
		Source:   source,
	}
	if r.state.Len() == 0 {
		return f
	}

	w, h := r.inner()
	pos := layoutVisible(r.state, w, h)
	origin := Point{X: 0, Y: h / 2}
	tr := r.rec.Reconcile(pos, r.state.Parent, source, origin)

	f.Links = tr.Links
	f.Nodes = make([]FrameNode, len(tr.Nodes))
	for i, nt := range tr.Nodes {
		f.Nodes[i] = FrameNode{
			NodeTransition: nt,
			Name:           r.state.Name(nt.ID),
			Depth:          r.state.Depth(nt.ID),
			HasChildren:    r.state.HasChildren(nt.ID),
			HasHidden:      r.state.HasHidden(nt.ID),
		}
	}
	return f
}
