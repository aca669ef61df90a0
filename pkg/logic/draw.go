package logic

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/mindgraph/pkg/fonts"
	"github.com/matzehuels/mindgraph/pkg/graph"
	"github.com/matzehuels/mindgraph/pkg/layout/layered"
	"github.com/matzehuels/mindgraph/pkg/svg"
	"github.com/matzehuels/mindgraph/pkg/textwrap"
)

const logicCSS = `
    .logic-diagram .node-shape { fill: #eef4fb; stroke: steelblue; stroke-width: 1.5px; }
    .logic-diagram .node.diamond .node-shape { fill: #fdf6e3; stroke: #b58900; }
    .logic-diagram .node.ellipse .node-shape { fill: #eefbf0; stroke: #2e8b57; }
    .logic-diagram .node-label { font: %spx %s; fill: #222; }
    .logic-diagram .link { fill: none; stroke: #888; stroke-width: 1.5px; }
    .logic-diagram .link-label { font: 12px %s; fill: #555; paint-order: stroke; stroke: #fff; stroke-width: 3px; }`

const arrowDefs = `  <defs>
    <marker id="arrow" viewBox="0 -5 10 10" refX="10" refY="0" markerWidth="6" markerHeight="6" orient="auto">
      <path d="M0,-5L10,0L0,5" fill="#888"/>
    </marker>
  </defs>
`

func (r *renderer) draw(d *graph.LogicDiagram, g layered.Graph, res *layered.Result, fit svg.Transform) []byte {
	var buf bytes.Buffer
	svg.OpenDocument(&buf, r.width, r.height, "logic-diagram", r.zoom)
	buf.WriteString(arrowDefs)
	fmt.Fprintf(&buf, "  <style>"+logicCSS+"\n  </style>\n",
		svg.Num(fonts.DefaultSize), fonts.FontFamily, fonts.FontFamily)
	svg.OpenViewport(&buf, fit)

	buf.WriteString("  <g class=\"links\">\n")
	for i, e := range res.Edges {
		fmt.Fprintf(&buf, `    <path class="link" data-source="%s" data-target="%s" d="%s" marker-end="url(#arrow)"/>`+"\n",
			svg.Escape(e.Source), svg.Escape(e.Target), routePath(e))
		if label := d.Links[i].Label; label != "" {
			m := e.Mid()
			fmt.Fprintf(&buf, `    <text class="link-label" x="%s" y="%s" text-anchor="middle">%s</text>`+"\n",
				svg.Num(m.X), svg.Num(m.Y-LinkLabelLift), svg.Escape(label))
		}
	}
	buf.WriteString("  </g>\n")

	buf.WriteString("  <g class=\"nodes\">\n")
	for i, p := range res.Nodes {
		r.drawNode(&buf, d.Nodes[i], p.Center, g.NodeWidth, g.NodeHeight)
	}
	buf.WriteString("  </g>\n")

	svg.CloseDocument(&buf)
	return buf.Bytes()
}

func (r *renderer) drawNode(buf *bytes.Buffer, n graph.LogicNode, c layered.Point, w, h float64) {
	fmt.Fprintf(buf, `    <g class="node %s" data-id="%s" transform="translate(%s,%s)">`+"\n",
		n.Shape, svg.Escape(n.ID), svg.Num(c.X), svg.Num(c.Y))

	hw, hh := w/2, h/2
	switch n.Shape {
	case graph.ShapeDiamond:
		fmt.Fprintf(buf, `      <polygon class="node-shape" points="0,%s %s,0 0,%s %s,0"/>`+"\n",
			svg.Num(-hh), svg.Num(hw), svg.Num(hh), svg.Num(-hw))
	case graph.ShapeEllipse:
		fmt.Fprintf(buf, `      <ellipse class="node-shape" rx="%s" ry="%s"/>`+"\n", svg.Num(hw), svg.Num(hh))
	default:
		fmt.Fprintf(buf, `      <rect class="node-shape" x="%s" y="%s" width="%s" height="%s" rx="%s"/>`+"\n",
			svg.Num(-hw), svg.Num(-hh), svg.Num(w), svg.Num(h), svg.Num(CornerRadius))
	}

	lines := textwrap.Wrap(n.DisplayLabel(), w-LabelPadding, r.measurer)
	buf.WriteString(`      <text class="node-label" text-anchor="middle">`)
	for i, dy := range lines.Offsets(LineHeight) {
		if i == 0 {
			// Shift the block to center on the node, then drop to the baseline.
			dy += 0.35
		}
		fmt.Fprintf(buf, `<tspan x="0" dy="%sem">%s</tspan>`, svg.Num(dy), svg.Escape(lines.Lines[i]))
	}
	buf.WriteString("</text>\n")
	buf.WriteString("    </g>\n")
}
