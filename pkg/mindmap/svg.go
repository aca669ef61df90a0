package mindmap

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/mindgraph/pkg/fonts"
	"github.com/matzehuels/mindgraph/pkg/svg"
)

const (
	nodeRadius   = 4.5
	labelOffset  = 13.0
	fillHidden   = "lightsteelblue"
	fillExpanded = "#fff"
)

const mindmapCSS = `
    .mindmap .link { fill: none; stroke: #ccc; stroke-width: 1.5px; }
    .mindmap .node circle { stroke: steelblue; stroke-width: 1.5px; cursor: pointer; }
    .mindmap .node text { font: 12px %s; fill: #222; }
    .mindmap .node.exiting { pointer-events: none; }
    .mindmap .node.has-children { cursor: pointer; }`

// SVG renders f as a standalone, animated SVG document. A frame carries its
// own size, margin, duration and zoom range, so it renders without the
// Renderer that produced it.
func (f Frame) SVG() []byte {
	var buf bytes.Buffer
	svg.OpenDocument(&buf, f.Width, f.Height, "mindmap", f.Zoom)
	fmt.Fprintf(&buf, "  <style>"+mindmapCSS+"\n  </style>\n", fonts.FontFamily)
	svg.OpenViewport(&buf, svg.Transform{X: f.Margin.Left, Y: f.Margin.Top, K: 1})

	dur := f.Duration.Seconds()

	buf.WriteString("  <g class=\"links\">\n")
	for _, l := range f.Links {
		writeLink(&buf, l, dur)
	}
	buf.WriteString("  </g>\n")

	buf.WriteString("  <g class=\"nodes\">\n")
	for _, n := range f.Nodes {
		writeNode(&buf, n, dur)
	}
	buf.WriteString("  </g>\n")

	svg.CloseDocument(&buf)
	return buf.Bytes()
}

// diagonal is a horizontal cubic curve from parent to child.
func diagonal(s Segment) string {
	mx := (s.From.X + s.To.X) / 2
	return fmt.Sprintf("M%s,%s C%s,%s %s,%s %s,%s",
		svg.Num(s.From.X), svg.Num(s.From.Y),
		svg.Num(mx), svg.Num(s.From.Y),
		svg.Num(mx), svg.Num(s.To.Y),
		svg.Num(s.To.X), svg.Num(s.To.Y))
}

func writeLink(buf *bytes.Buffer, l LinkTransition, dur float64) {
	class := "link"
	opacity := "1"
	if l.Phase == Exit {
		class += " exiting"
		opacity = "0"
	}
	from, to := diagonal(l.From), diagonal(l.To)
	fmt.Fprintf(buf, `    <path class="%s" data-source="%d" data-target="%d" d="%s" stroke-opacity="%s">`,
		class, l.Source, l.Target, to, opacity)
	if dur > 0 && from != to {
		fmt.Fprintf(buf, `<animate attributeName="d" from="%s" to="%s" dur="%ss" fill="freeze"/>`,
			from, to, svg.Num(dur))
	}
	if dur > 0 && l.Phase == Exit {
		fmt.Fprintf(buf, `<animate attributeName="stroke-opacity" from="1" to="0" dur="%ss" fill="freeze"/>`, svg.Num(dur))
	}
	buf.WriteString("</path>\n")
}

func writeNode(buf *bytes.Buffer, n FrameNode, dur float64) {
	class := "node"
	if n.HasChildren {
		class += " has-children"
	}
	if n.HasHidden {
		class += " collapsed"
	}
	if n.Phase == Exit {
		class += " exiting"
	}
	fill := fillExpanded
	if n.HasHidden {
		fill = fillHidden
	}

	fmt.Fprintf(buf, `    <g class="%s" data-id="%d" data-phase="%s" transform="translate(%s,%s)" opacity="%s">`,
		class, n.ID, n.Phase, svg.Num(n.To.X), svg.Num(n.To.Y), svg.Num(n.ToOpacity))
	if dur > 0 && n.From != n.To {
		fmt.Fprintf(buf, `<animateTransform attributeName="transform" type="translate" from="%s %s" to="%s %s" dur="%ss" fill="freeze"/>`,
			svg.Num(n.From.X), svg.Num(n.From.Y), svg.Num(n.To.X), svg.Num(n.To.Y), svg.Num(dur))
	}
	if dur > 0 && n.FromOpacity != n.ToOpacity {
		fmt.Fprintf(buf, `<animate attributeName="opacity" from="%s" to="%s" dur="%ss" fill="freeze"/>`,
			svg.Num(n.FromOpacity), svg.Num(n.ToOpacity), svg.Num(dur))
	}
	buf.WriteString("\n")

	r := nodeRadius
	if n.Phase == Exit {
		r = 1e-6
	}
	fmt.Fprintf(buf, `      <circle r="%s" fill="%s">`, svg.Num(r), fill)
	if dur > 0 && n.Phase != Update {
		from, to := 1e-6, nodeRadius
		if n.Phase == Exit {
			from, to = nodeRadius, 1e-6
		}
		fmt.Fprintf(buf, `<animate attributeName="r" from="%g" to="%g" dur="%ss" fill="freeze"/>`, from, to, svg.Num(dur))
	}
	buf.WriteString("</circle>\n")

	x, anchor := labelOffset, "start"
	if n.HasChildren {
		x, anchor = -labelOffset, "end"
	}
	fmt.Fprintf(buf, `      <text x="%s" dy=".35em" text-anchor="%s">%s</text>`+"\n",
		svg.Num(x), anchor, svg.Escape(n.Name))
	buf.WriteString("    </g>\n")
}
