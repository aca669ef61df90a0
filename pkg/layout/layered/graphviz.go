package layered

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/goccy/go-graphviz"
)

const pointsPerInch = 72.0

// plainFormat is Graphviz's line-oriented layout dump.
const plainFormat graphviz.Format = "plain"

// Graphviz lays out graphs with the dot engine. The engine is started on
// first use and reused; Layout calls are serialised. Call Close to release
// it.
type Graphviz struct {
	mu sync.Mutex
	gv *graphviz.Graphviz
}

// NewGraphviz returns a layouter backed by an in-process dot engine.
func NewGraphviz() *Graphviz {
	return &Graphviz{}
}

// Close releases the engine.
func (l *Graphviz) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gv == nil {
		return nil
	}
	err := l.gv.Close()
	l.gv = nil
	return err
}

// Layout implements [Layouter].
func (l *Graphviz) Layout(ctx context.Context, g Graph) (*Result, error) {
	idx, err := g.index()
	if err != nil {
		return nil, err
	}
	g = g.withDefaults()

	out, err := l.render(ctx, ToDOT(g))
	if err != nil {
		return nil, err
	}
	p, err := parsePlain(out)
	if err != nil {
		return nil, fmt.Errorf("parse plain output: %w", err)
	}
	return p.result(g, idx)
}

func (l *Graphviz) render(ctx context.Context, dot []byte) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.gv == nil {
		gv, err := graphviz.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("init graphviz: %w", err)
		}
		l.gv = gv
	}

	graph, err := graphviz.ParseBytes(dot)
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer graph.Close()

	var buf bytes.Buffer
	if err := l.gv.Render(ctx, graph, plainFormat, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

// ToDOT converts g to Graphviz DOT source. Nodes are named n0, n1, ... in
// input order so ids never need quoting; edge arrowheads are disabled so
// routes end on the node outline.
func ToDOT(g Graph) []byte {
	g = g.withDefaults()
	idx := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		idx[n.ID] = i
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  splines=spline;\n")
	fmt.Fprintf(&buf, "  nodesep=%.4f;\n", g.NodeSep/pointsPerInch)
	fmt.Fprintf(&buf, "  ranksep=%.4f;\n", g.RankSep/pointsPerInch)
	fmt.Fprintf(&buf, "  node [fixedsize=true, width=%.4f, height=%.4f];\n",
		g.NodeWidth/pointsPerInch, g.NodeHeight/pointsPerInch)
	buf.WriteString("  edge [arrowhead=none];\n")
	buf.WriteString("\n")

	for i, n := range g.Nodes {
		fmt.Fprintf(&buf, "  n%d [shape=%s];\n", i, dotShape(n.Shape))
	}
	buf.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  n%d -> n%d;\n", idx[e.Source], idx[e.Target])
	}
	buf.WriteString("}\n")
	return buf.Bytes()
}

func dotShape(s string) string {
	switch s {
	case "diamond", "ellipse", "box":
		return s
	default:
		return "box"
	}
}

// result converts a parsed plain dump (inches, y up) to a Result
// (pixels, y down) in input order.
func (p *plain) result(g Graph, idx map[string]int) (*Result, error) {
	width := p.width * pointsPerInch
	height := p.height * pointsPerInch
	flip := func(x, y float64) Point {
		return Point{X: x * pointsPerInch, Y: height - y*pointsPerInch}
	}

	res := &Result{
		Width:  width,
		Height: height,
		Nodes:  make([]NodePlacement, len(g.Nodes)),
		Edges:  make([]EdgeRoute, len(g.Edges)),
	}

	centers := make([]Point, len(g.Nodes))
	seen := make([]bool, len(g.Nodes))
	for _, n := range p.nodes {
		i, ok := syntheticIndex(n.name)
		if !ok || i >= len(g.Nodes) {
			return nil, fmt.Errorf("unexpected node %q in layout", n.name)
		}
		centers[i] = flip(n.x, n.y)
		seen[i] = true
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("node %q missing from layout", g.Nodes[i].ID)
		}
	}

	ranks := rankRows(centers)
	for i, n := range g.Nodes {
		res.Nodes[i] = NodePlacement{ID: n.ID, Center: centers[i], Rank: ranks[i]}
	}

	// Dot emits edges in input order for a plain digraph, but match by
	// endpoints so parallel edges and reordering are both handled.
	routes := make(map[[2]int][][]Point)
	for _, e := range p.edges {
		t, ok1 := syntheticIndex(e.tail)
		h, ok2 := syntheticIndex(e.head)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("unexpected edge %s -> %s in layout", e.tail, e.head)
		}
		pts := make([]Point, len(e.points))
		for j, q := range e.points {
			pts[j] = flip(q[0], q[1])
		}
		key := [2]int{t, h}
		routes[key] = append(routes[key], pts)
	}
	for i, e := range g.Edges {
		key := [2]int{idx[e.Source], idx[e.Target]}
		route := EdgeRoute{Source: e.Source, Target: e.Target}
		if queue := routes[key]; len(queue) > 0 {
			route.Points, route.Spline = queue[0], true
			routes[key] = queue[1:]
		} else {
			route.Points = []Point{centers[key[0]], centers[key[1]]}
		}
		res.Edges[i] = route
	}
	return res, nil
}

// rankRows numbers the distinct center rows from the top.
func rankRows(centers []Point) []int {
	rows := make([]float64, 0, len(centers))
	for _, c := range centers {
		rows = append(rows, math.Round(c.Y*2)/2)
	}
	distinct := append([]float64(nil), rows...)
	sort.Float64s(distinct)
	n := 0
	for i, y := range distinct {
		if i == 0 || y != distinct[n-1] {
			distinct[n] = y
			n++
		}
	}
	distinct = distinct[:n]

	out := make([]int, len(rows))
	for i, y := range rows {
		out[i] = sort.SearchFloat64s(distinct, y)
	}
	return out
}
