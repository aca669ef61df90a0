// Package mindmap renders a collapsible, animated mind map.
//
// A [Renderer] owns three pieces of per-session state, none of which ever
// touch the input tree:
//
//   - [State], the collapse overlay: a [NodeID] per input node, assigned in
//     pre-order, and for each id whether it is expanded plus the cached
//     child list while it is collapsed.
//   - the tidy tree layout of the currently visible nodes, grown left to
//     right (screen x is depth, screen y is breadth).
//   - a [Reconciler] that remembers where every node was drawn last and
//     classifies the next frame into entering, updating and exiting
//     elements keyed by NodeID.
//
// Each call to [Renderer.Render] or [Renderer.Toggle] returns a [Frame]
// describing the transition, and [Frame.SVG] turns a frame into a
// standalone SVG document animated with SMIL.
//
// # Usage
//
//	r := mindmap.New(m.Root, mindmap.WithSize(960, 600))
//	frame := r.Render()              // everything enters from the root
//	frame, err := r.Toggle(2)        // collapse or expand node 2
//	os.WriteFile("mindmap.svg", frame.SVG(), 0o644)
//
// A Renderer is not safe for concurrent use.
package mindmap
