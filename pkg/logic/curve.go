package logic

import (
	"strings"

	"github.com/matzehuels/mindgraph/pkg/layout/layered"
	"github.com/matzehuels/mindgraph/pkg/svg"
)

// routePath returns the SVG path data of an edge route. Spline routes are
// drawn as their cubic Bézier segments; polylines are smoothed with a
// uniform B-spline that starts and ends on the first and last waypoint.
func routePath(e layered.EdgeRoute) string {
	if e.Spline && len(e.Points) >= 4 && (len(e.Points)-1)%3 == 0 {
		return bezierPath(e.Points)
	}
	return basisPath(e.Points)
}

func bezierPath(pts []layered.Point) string {
	var b strings.Builder
	b.WriteString("M" + pt(pts[0]))
	for i := 1; i+2 < len(pts); i += 3 {
		b.WriteString(" C" + pt(pts[i]) + " " + pt(pts[i+1]) + " " + pt(pts[i+2]))
	}
	return b.String()
}

func basisPath(pts []layered.Point) string {
	switch len(pts) {
	case 0:
		return ""
	case 1:
		return "M" + pt(pts[0])
	case 2:
		return "M" + pt(pts[0]) + " L" + pt(pts[1])
	}

	var b strings.Builder
	b.WriteString("M" + pt(pts[0]))
	p0, p1 := pts[0], pts[1]
	b.WriteString(" L" + pt(layered.Point{X: (5*p0.X + p1.X) / 6, Y: (5*p0.Y + p1.Y) / 6}))
	for _, p := range pts[2:] {
		basisSegment(&b, p0, p1, p)
		p0, p1 = p1, p
	}
	basisSegment(&b, p0, p1, p1)
	b.WriteString(" L" + pt(p1))
	return b.String()
}

func basisSegment(b *strings.Builder, p0, p1, p layered.Point) {
	c1 := layered.Point{X: (2*p0.X + p1.X) / 3, Y: (2*p0.Y + p1.Y) / 3}
	c2 := layered.Point{X: (p0.X + 2*p1.X) / 3, Y: (p0.Y + 2*p1.Y) / 3}
	end := layered.Point{X: (p0.X + 4*p1.X + p.X) / 6, Y: (p0.Y + 4*p1.Y + p.Y) / 6}
	b.WriteString(" C" + pt(c1) + " " + pt(c2) + " " + pt(end))
}

func pt(p layered.Point) string {
	return svg.Num(p.X) + "," + svg.Num(p.Y)
}
