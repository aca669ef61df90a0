package layered

import (
	"context"
	"math"
	"slices"
	"sort"
)

// Sugiyama is a pure-Go layered layout. It needs no external engine and is
// deterministic, which makes it the fallback for [Graphviz].
type Sugiyama struct {
	// Sweeps is the number of down/up barycenter passes (default 8).
	Sweeps int
}

// Layout implements [Layouter].
func (s Sugiyama) Layout(ctx context.Context, g Graph) (*Result, error) {
	idx, err := g.index()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g = g.withDefaults()
	sweeps := s.Sweeps
	if sweeps <= 0 {
		sweeps = 8
	}

	n := len(g.Nodes)
	edges := make([][2]int, len(g.Edges))
	for i, e := range g.Edges {
		edges[i] = [2]int{idx[e.Source], idx[e.Target]}
	}

	reversed := breakCycles(n, edges)
	oriented := make([][2]int, len(edges))
	for i, e := range edges {
		if reversed[i] {
			e[0], e[1] = e[1], e[0]
		}
		oriented[i] = e
	}
	rank := assignLayers(n, oriented)

	lg := subdivide(rank, oriented)
	order := lg.initialOrder()
	best := cloneOrder(order)
	bestCross := lg.crossings(order)
	for i := 0; i < sweeps && bestCross > 0; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lg.sweep(order, true)
		lg.sweep(order, false)
		if c := lg.crossings(order); c < bestCross {
			bestCross = c
			best = cloneOrder(order)
		}
	}

	xs := lg.place(best, g)
	return lg.result(g, xs, rank, reversed), nil
}

// breakCycles marks the edges that close a cycle in a DFS from the sources
// (then from any unvisited node). Self loops are marked too.
func breakCycles(n int, edges [][2]int) []bool {
	const (
		white = iota
		gray
		black
	)
	out := make([][]int, n) // edge indices by source
	in := make([]int, n)
	for i, e := range edges {
		out[e[0]] = append(out[e[0]], i)
		in[e[1]]++
	}

	color := make([]int, n)
	back := make([]bool, len(edges))
	var dfs func(u int)
	dfs = func(u int) {
		color[u] = gray
		for _, ei := range out[u] {
			v := edges[ei][1]
			switch color[v] {
			case white:
				dfs(v)
			case gray:
				back[ei] = true
			}
		}
		color[u] = black
	}
	for u := 0; u < n; u++ {
		if in[u] == 0 && color[u] == white {
			dfs(u)
		}
	}
	for u := 0; u < n; u++ {
		if color[u] == white {
			dfs(u)
		}
	}
	return back
}

// assignLayers puts each node one rank below its deepest parent
// (longest path from the sources). Self loops are ignored.
func assignLayers(n int, edges [][2]int) []int {
	children := make([][]int, n)
	inDegree := make([]int, n)
	for _, e := range edges {
		if e[0] == e[1] {
			continue
		}
		children[e[0]] = append(children[e[0]], e[1])
		inDegree[e[1]]++
	}
	rank := make([]int, n)
	queue := make([]int, 0, n)
	for u := 0; u < n; u++ {
		if inDegree[u] == 0 {
			queue = append(queue, u)
		}
	}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range children[u] {
			if r := rank[u] + 1; r > rank[v] {
				rank[v] = r
			}
			inDegree[v]--
			if inDegree[v] == 0 {
				queue = append(queue, v)
			}
		}
	}
	return rank
}

// layerGraph is the proper layered graph: every edge spans exactly one
// rank. Ids 0..real-1 are real nodes; the rest are virtual waypoints.
type layerGraph struct {
	real   int
	rank   []int
	up     [][]int // neighbours one rank above
	down   [][]int // neighbours one rank below
	chains [][]int // per input edge: node ids from source to target
	ranks  int
}

// subdivide replaces each edge spanning k>1 ranks with a chain through k-1
// virtual nodes.
func subdivide(rank []int, edges [][2]int) *layerGraph {
	lg := &layerGraph{real: len(rank), rank: append([]int(nil), rank...)}
	for _, r := range rank {
		if r+1 > lg.ranks {
			lg.ranks = r + 1
		}
	}
	lg.up = make([][]int, len(rank))
	lg.down = make([][]int, len(rank))
	addNode := func(r int) int {
		lg.rank = append(lg.rank, r)
		lg.up = append(lg.up, nil)
		lg.down = append(lg.down, nil)
		return len(lg.rank) - 1
	}
	link := func(a, b int) {
		lg.down[a] = append(lg.down[a], b)
		lg.up[b] = append(lg.up[b], a)
	}

	lg.chains = make([][]int, len(edges))
	for i, e := range edges {
		u, v := e[0], e[1]
		chain := []int{u}
		if u != v {
			prev := u
			for r := rank[u] + 1; r < rank[v]; r++ {
				w := addNode(r)
				link(prev, w)
				chain = append(chain, w)
				prev = w
			}
			link(prev, v)
		}
		chain = append(chain, v)
		lg.chains[i] = chain
	}
	return lg
}

func (lg *layerGraph) initialOrder() [][]int {
	order := make([][]int, lg.ranks)
	for id, r := range lg.rank {
		order[r] = append(order[r], id)
	}
	return order
}

// sweep reorders every rank by the barycenter of its neighbours in the
// previous rank (down) or the next one (up). Nodes without neighbours keep
// their current position as their weight.
func (lg *layerGraph) sweep(order [][]int, down bool) {
	pos := make([]float64, len(lg.rank))
	for _, row := range order {
		for i, id := range row {
			pos[id] = float64(i)
		}
	}
	start, end, step := 1, len(order), 1
	if !down {
		start, end, step = len(order)-2, -1, -1
	}
	for r := start; r != end; r += step {
		row := order[r]
		weight := make(map[int]float64, len(row))
		for i, id := range row {
			nbrs := lg.up[id]
			if !down {
				nbrs = lg.down[id]
			}
			if len(nbrs) == 0 {
				weight[id] = float64(i)
				continue
			}
			sum := 0.0
			for _, nb := range nbrs {
				sum += pos[nb]
			}
			weight[id] = sum / float64(len(nbrs))
		}
		sort.SliceStable(row, func(a, b int) bool { return weight[row[a]] < weight[row[b]] })
		for i, id := range row {
			pos[id] = float64(i)
		}
	}
}

// crossings counts edge crossings between consecutive ranks by counting
// inversions with a Fenwick tree.
func (lg *layerGraph) crossings(order [][]int) int {
	pos := make([]int, len(lg.rank))
	for _, row := range order {
		for i, id := range row {
			pos[id] = i
		}
	}
	total := 0
	for r := 0; r+1 < len(order); r++ {
		type edge struct{ upper, lower int }
		var edges []edge
		for _, u := range order[r] {
			for _, v := range lg.down[u] {
				edges = append(edges, edge{pos[u], pos[v]})
			}
		}
		if len(edges) < 2 {
			continue
		}
		slices.SortFunc(edges, func(a, b edge) int {
			if a.upper != b.upper {
				return a.upper - b.upper
			}
			return a.lower - b.lower
		})
		fenwick := make([]int, len(order[r+1])+1)
		seen := 0
		for _, e := range edges {
			lessOrEqual := 0
			for q := e.lower + 1; q > 0; q -= q & (-q) {
				lessOrEqual += fenwick[q]
			}
			total += seen - lessOrEqual
			seen++
			for q := e.lower + 1; q < len(fenwick); q += q & (-q) {
				fenwick[q]++
			}
		}
	}
	return total
}

// place assigns x centers. Each rank is first packed left to right, then
// nodes are pulled toward the mean x of their upper neighbours while
// keeping order and minimum spacing. Virtual nodes are narrow.
func (lg *layerGraph) place(order [][]int, g Graph) []float64 {
	xs := make([]float64, len(lg.rank))
	width := func(id int) float64 {
		if id < lg.real {
			return g.NodeWidth
		}
		return g.NodeSep
	}
	gap := func(a, b int) float64 { return (width(a)+width(b))/2 + g.NodeSep }

	rowWidth := func(row []int) float64 {
		w := 0.0
		for i, id := range row {
			w += width(id)
			if i > 0 {
				w += g.NodeSep
			}
		}
		return w
	}
	maxW := 0.0
	for _, row := range order {
		maxW = math.Max(maxW, rowWidth(row))
	}
	for _, row := range order {
		x := (maxW-rowWidth(row))/2 + width(row[0])/2
		for i, id := range row {
			if i > 0 {
				x += gap(row[i-1], id)
			}
			xs[id] = x
		}
	}

	for r := 1; r < len(order); r++ {
		row := order[r]
		desired := make([]float64, len(row))
		for i, id := range row {
			desired[i] = xs[id]
			if nb := lg.up[id]; len(nb) > 0 {
				sum := 0.0
				for _, u := range nb {
					sum += xs[u]
				}
				desired[i] = sum / float64(len(nb))
			}
		}
		// Resolve overlaps once pushing right and once pushing left, then
		// average; both passes keep the spacing, so the mean does too.
		right := make([]float64, len(row))
		for i := range row {
			right[i] = desired[i]
			if i > 0 {
				right[i] = math.Max(right[i], right[i-1]+gap(row[i-1], row[i]))
			}
		}
		left := make([]float64, len(row))
		for i := len(row) - 1; i >= 0; i-- {
			left[i] = desired[i]
			if i < len(row)-1 {
				left[i] = math.Min(left[i], left[i+1]-gap(row[i], row[i+1]))
			}
		}
		for i, id := range row {
			xs[id] = (left[i] + right[i]) / 2
		}
	}

	minLeft := math.Inf(1)
	for id, x := range xs {
		minLeft = math.Min(minLeft, x-width(id)/2)
	}
	for id := range xs {
		xs[id] -= minLeft
	}
	return xs
}

func (lg *layerGraph) result(g Graph, xs []float64, rank []int, reversed []bool) *Result {
	rowY := func(r int) float64 { return float64(r)*(g.NodeHeight+g.RankSep) + g.NodeHeight/2 }

	res := &Result{
		Nodes: make([]NodePlacement, len(g.Nodes)),
		Edges: make([]EdgeRoute, len(g.Edges)),
	}
	for i, n := range g.Nodes {
		c := Point{X: xs[i], Y: rowY(rank[i])}
		res.Nodes[i] = NodePlacement{ID: n.ID, Center: c, Rank: rank[i]}
		res.Width = math.Max(res.Width, c.X+g.NodeWidth/2)
		res.Height = math.Max(res.Height, c.Y+g.NodeHeight/2)
	}
	for id := lg.real; id < len(xs); id++ {
		res.Width = math.Max(res.Width, xs[id]+g.NodeSep/2)
	}

	for i, e := range g.Edges {
		chain := lg.chains[i]
		var pts []Point
		if chain[0] == chain[len(chain)-1] {
			pts = selfLoop(res.Nodes[chain[0]].Center, g)
		} else {
			for j, id := range chain {
				p := Point{X: xs[id], Y: rowY(lg.rank[id])}
				switch j {
				case 0:
					p.Y += g.NodeHeight / 2
				case len(chain) - 1:
					p.Y -= g.NodeHeight / 2
				}
				pts = append(pts, p)
			}
		}
		if reversed[i] && chain[0] != chain[len(chain)-1] {
			slices.Reverse(pts)
		}
		for _, p := range pts {
			res.Width = math.Max(res.Width, p.X)
		}
		res.Edges[i] = EdgeRoute{Source: e.Source, Target: e.Target, Points: pts}
	}
	return res
}

// selfLoop routes an edge out of the right side of a node and back in.
func selfLoop(c Point, g Graph) []Point {
	x := c.X + g.NodeWidth/2
	return []Point{
		{X: x, Y: c.Y - g.NodeHeight/4},
		{X: x + g.NodeSep/2, Y: c.Y - g.NodeHeight/4},
		{X: x + g.NodeSep/2, Y: c.Y + g.NodeHeight/4},
		{X: x, Y: c.Y + g.NodeHeight/4},
	}
}

func cloneOrder(order [][]int) [][]int {
	out := make([][]int, len(order))
	for i, row := range order {
		out[i] = append([]int(nil), row...)
	}
	return out
}
