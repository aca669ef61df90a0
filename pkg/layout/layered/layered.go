package layered

import (
	"context"
	"errors"
)

// Default geometry for logic diagrams.
const (
	DefaultNodeWidth  = 160.0
	DefaultNodeHeight = 60.0
	DefaultNodeSep    = 40.0
	DefaultRankSep    = 60.0
)

// ErrEmptyGraph is returned when a graph has no nodes.
var ErrEmptyGraph = errors.New("layered: graph has no nodes")

// Layouter computes a layered layout.
type Layouter interface {
	Layout(ctx context.Context, g Graph) (*Result, error)
}

// Graph is the input to a [Layouter]. Every node shares one footprint.
// Edge endpoints must name nodes of the graph.
type Graph struct {
	Nodes []Node
	Edges []Edge

	NodeWidth  float64 // zero means DefaultNodeWidth
	NodeHeight float64 // zero means DefaultNodeHeight
	NodeSep    float64 // horizontal gap between nodes of a rank
	RankSep    float64 // vertical gap between ranks
}

// Node is a graph node. Shape is a Graphviz shape name used to clip edge
// ends ("box", "diamond", "ellipse"); empty means "box".
type Node struct {
	ID    string
	Shape string
}

// Edge is a directed edge.
type Edge struct {
	Source string
	Target string
}

// Point is a position in pixels.
type Point struct {
	X, Y float64
}

// Result is a computed layout. Nodes and Edges are in input order.
type Result struct {
	Width, Height float64
	Nodes         []NodePlacement
	Edges         []EdgeRoute
}

// NodePlacement is the position of one node.
type NodePlacement struct {
	ID     string
	Center Point
	Rank   int
}

// EdgeRoute is the path of one edge from source to target. When Spline is
// true the points are cubic Bézier control points (3k+1 of them);
// otherwise they are polyline waypoints.
type EdgeRoute struct {
	Source, Target string
	Points         []Point
	Spline         bool
}

// Mid returns a point halfway along the drawn curve. For a spline that is
// the middle segment at t=0.5, or the joint between the two middle
// segments. For a polyline it is the B-spline point of the middle waypoint.
func (e EdgeRoute) Mid() Point {
	pts := e.Points
	n := len(pts)
	switch {
	case n == 0:
		return Point{}
	case n == 1:
		return pts[0]
	case n == 2:
		return lerp(pts[0], pts[1], 0.5)
	}
	if e.Spline && n >= 4 && (n-1)%3 == 0 {
		segs := (n - 1) / 3
		if segs%2 == 0 {
			return pts[3*segs/2]
		}
		i := 3 * (segs / 2)
		return cubicAt(pts[i], pts[i+1], pts[i+2], pts[i+3], 0.5)
	}
	i := n / 2
	a, b, c := pts[i-1], pts[i], pts[i+1]
	return Point{X: (a.X + 4*b.X + c.X) / 6, Y: (a.Y + 4*b.Y + c.Y) / 6}
}

func lerp(a, b Point, t float64) Point {
	return Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
}

// cubicAt evaluates a cubic Bézier curve at t.
func cubicAt(p0, p1, p2, p3 Point, t float64) Point {
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return Point{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}

// Lookup indexes node placements by id.
func (r *Result) Lookup() map[string]NodePlacement {
	m := make(map[string]NodePlacement, len(r.Nodes))
	for _, n := range r.Nodes {
		m[n.ID] = n
	}
	return m
}

// withDefaults fills zero geometry with the package defaults.
func (g Graph) withDefaults() Graph {
	if g.NodeWidth <= 0 {
		g.NodeWidth = DefaultNodeWidth
	}
	if g.NodeHeight <= 0 {
		g.NodeHeight = DefaultNodeHeight
	}
	if g.NodeSep <= 0 {
		g.NodeSep = DefaultNodeSep
	}
	if g.RankSep <= 0 {
		g.RankSep = DefaultRankSep
	}
	return g
}

// index maps node ids to their position in g.Nodes and checks edges.
func (g Graph) index() (map[string]int, error) {
	if len(g.Nodes) == 0 {
		return nil, ErrEmptyGraph
	}
	idx := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		if _, dup := idx[n.ID]; dup {
			return nil, &GraphError{Reason: "duplicate node", ID: n.ID}
		}
		idx[n.ID] = i
	}
	for _, e := range g.Edges {
		if _, ok := idx[e.Source]; !ok {
			return nil, &GraphError{Reason: "unknown edge source", ID: e.Source}
		}
		if _, ok := idx[e.Target]; !ok {
			return nil, &GraphError{Reason: "unknown edge target", ID: e.Target}
		}
	}
	return idx, nil
}

// GraphError reports a malformed input graph.
type GraphError struct {
	Reason string
	ID     string
}

func (e *GraphError) Error() string {
	return "layered: " + e.Reason + " " + e.ID
}

// Fallback runs Primary and, if it fails, Secondary. OnFallback, when set,
// is told about the primary error.
type Fallback struct {
	Primary    Layouter
	Secondary  Layouter
	OnFallback func(err error)
}

// Layout implements [Layouter].
func (f Fallback) Layout(ctx context.Context, g Graph) (*Result, error) {
	res, err := f.Primary.Layout(ctx, g)
	if err == nil {
		return res, nil
	}
	var ge *GraphError
	if errors.Is(err, ErrEmptyGraph) || errors.As(err, &ge) || ctx.Err() != nil {
		return nil, err
	}
	if f.OnFallback != nil {
		f.OnFallback(err)
	}
	return f.Secondary.Layout(ctx, g)
}

// Ranks groups node ids by rank, in input order within a rank.
func (r *Result) Ranks() [][]string {
	var out [][]string
	for _, n := range r.Nodes {
		for len(out) <= n.Rank {
			out = append(out, nil)
		}
		out[n.Rank] = append(out[n.Rank], n.ID)
	}
	return out
}
