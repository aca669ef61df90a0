// Package logic renders a logic diagram (a flowchart of one procedure) as
// a pannable, zoomable SVG document.
//
// [Render] sanitizes the diagram, lays it out top to bottom with a
// [layered.Layouter], draws each node with its shape and a wrapped label,
// routes every link as a curve ending in an arrowhead and finally fits the
// drawing into the viewport:
//
//	out, err := logic.Render(ctx, diagram, logic.WithSize(960, 600))
//	if err != nil {
//	    return err
//	}
//	if out == nil {
//	    // no procedure: nothing to draw
//	}
//	os.WriteFile("logic.svg", out.SVG, 0o644)
//
// The default layouter runs Graphviz dot in-process and falls back to
// [layered.Sugiyama] when dot fails.
package logic
