package tree

import (
	"math"
	"math/rand"
	"testing"
)

func leaf(id int) *Node { return &Node{ID: id} }

func node(id int, children ...*Node) *Node { return &Node{ID: id, Children: children} }

func TestLayoutKnownPositions(t *testing.T) {
	tests := []struct {
		name string
		root *Node
		size Size
		want map[int][2]float64 // id -> (X, Y)
	}{
		{
			name: "Single",
			root: leaf(0),
			size: Size{Breadth: 400, Depth: 600},
			want: map[int][2]float64{0: {200, 0}},
		},
		{
			name: "Chain",
			root: node(0, node(1, leaf(2))),
			size: Size{Breadth: 400, Depth: 600},
			want: map[int][2]float64{0: {200, 0}, 1: {200, 300}, 2: {200, 600}},
		},
		{
			name: "TwoChildren",
			root: node(0, leaf(1), leaf(2)),
			size: Size{Breadth: 400, Depth: 600},
			want: map[int][2]float64{0: {200, 0}, 1: {100, 600}, 2: {300, 600}},
		},
		{
			name: "Unbalanced",
			root: node(0, node(1, leaf(2), leaf(3)), leaf(4)),
			size: Size{Breadth: 350, Depth: 600},
			want: map[int][2]float64{
				0: {200, 0},
				1: {150, 300}, 4: {250, 300},
				2: {100, 600}, 3: {200, 600},
			},
		},
		{
			name: "CousinsSeparatedByTwo",
			root: node(0,
				node(1, leaf(2), leaf(3), leaf(4)),
				node(5, leaf(6), leaf(7), leaf(8)),
			),
			size: Size{Breadth: 800, Depth: 200},
			want: map[int][2]float64{
				0: {400, 0},
				1: {200, 100}, 5: {600, 100},
				2: {100, 200}, 3: {200, 200}, 4: {300, 200},
				6: {500, 200}, 7: {600, 200}, 8: {700, 200},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Layout(tt.root, tt.size, nil)
			got := positions(tt.root)
			for id, want := range tt.want {
				p, ok := got[id]
				if !ok {
					t.Fatalf("node %d missing", id)
				}
				if !near(p[0], want[0]) || !near(p[1], want[1]) {
					t.Errorf("node %d at (%v, %v), want (%v, %v)", id, p[0], p[1], want[0], want[1])
				}
			}
		})
	}
}

// Small subtrees between large ones are spaced evenly.
func TestLayoutCentersSmallSubtreeBetweenLargeOnes(t *testing.T) {
	a := node(1, leaf(2), leaf(3), leaf(4))
	m := leaf(5)
	b := node(6, leaf(7), leaf(8), leaf(9))
	root := node(0, a, m, b)
	Layout(root, Size{Breadth: 800, Depth: 200}, nil)

	if !near(m.X-a.X, b.X-m.X) {
		t.Errorf("middle subtree not centered: A=%v M=%v B=%v", a.X, m.X, b.X)
	}
}

func TestLayoutDepthAndParent(t *testing.T) {
	c := leaf(2)
	b := node(1, c)
	root := node(0, b)
	Layout(root, Size{Breadth: 100, Depth: 90}, nil)

	if root.Depth != 0 || b.Depth != 1 || c.Depth != 2 {
		t.Errorf("depths = %d %d %d, want 0 1 2", root.Depth, b.Depth, c.Depth)
	}
	if c.Parent() != b || b.Parent() != root || root.Parent() != nil {
		t.Error("parent links not set")
	}
	if !near(c.Y, 90) || !near(b.Y, 45) {
		t.Errorf("Y = %v %v, want 45 90", b.Y, c.Y)
	}
}

func TestLayoutCustomSeparation(t *testing.T) {
	root := node(0, node(1, leaf(2)), node(3, leaf(4)))
	Layout(root, Size{Breadth: 100, Depth: 100}, func(a, b *Node) float64 { return 1 })
	a, b := root.Children[0], root.Children[1]
	ca, cb := a.Children[0], b.Children[0]
	// With uniform separation cousins are as close as siblings.
	if !near(cb.X-ca.X, b.X-a.X) {
		t.Errorf("cousin gap %v, sibling gap %v", cb.X-ca.X, b.X-a.X)
	}
}

// Layout resets all walker state, so a second pass gives the same result.
func TestLayoutRerun(t *testing.T) {
	root := node(0, node(1, leaf(2), leaf(3)), leaf(4))
	size := Size{Breadth: 350, Depth: 600}
	Layout(root, size, nil)
	first := positions(root)
	Layout(root, size, nil)
	for id, p := range positions(root) {
		if q := first[id]; !near(p[0], q[0]) || !near(p[1], q[1]) {
			t.Errorf("node %d moved from %v to %v", id, q, p)
		}
	}
}

func TestLayoutNil(t *testing.T) {
	Layout(nil, Size{Breadth: 1, Depth: 1}, nil) // must not panic
}

// Random trees: nodes on a level are ordered and non-overlapping, parents
// sit over the midpoint of their outer children, and everything fits.
func TestLayoutProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 200; iter++ {
		next := 0
		root := randomTree(rng, &next, 0, 4)
		size := Size{Breadth: 1000, Depth: 300}
		Layout(root, size, nil)

		levels := map[int][]*Node{}
		var walk func(n *Node)
		walk = func(n *Node) {
			levels[n.Depth] = append(levels[n.Depth], n)
			if n.X < -1e-9 || n.X > size.Breadth+1e-9 {
				t.Fatalf("iter %d: node %d X=%v outside [0, %v]", iter, n.ID, n.X, size.Breadth)
			}
			if k := len(n.Children); k > 0 {
				mid := (n.Children[0].X + n.Children[k-1].X) / 2
				if !near(n.X, mid) {
					t.Fatalf("iter %d: node %d X=%v, children midpoint %v", iter, n.ID, n.X, mid)
				}
			}
			for _, c := range n.Children {
				walk(c)
			}
		}
		walk(root)

		for depth, row := range levels {
			for i := 1; i < len(row); i++ {
				if row[i].X-row[i-1].X < 1e-6 {
					t.Fatalf("iter %d: depth %d nodes %d and %d overlap (%v, %v)",
						iter, depth, row[i-1].ID, row[i].ID, row[i-1].X, row[i].X)
				}
			}
		}
	}
}

func TestLayoutDoesNotReorderChildren(t *testing.T) {
	root := node(0, leaf(1), leaf(2), leaf(3))
	Layout(root, Size{Breadth: 300, Depth: 100}, nil)
	for i, c := range root.Children {
		if c.ID != i+1 {
			t.Fatalf("children reordered: %v", ids(root.Children))
		}
	}
}

func randomTree(rng *rand.Rand, next *int, depth, maxDepth int) *Node {
	n := &Node{ID: *next}
	*next++
	if depth == maxDepth {
		return n
	}
	k := rng.Intn(4)
	if depth == 0 {
		k++
	}
	for i := 0; i < k; i++ {
		n.Children = append(n.Children, randomTree(rng, next, depth+1, maxDepth))
	}
	return n
}

func positions(root *Node) map[int][2]float64 {
	out := map[int][2]float64{}
	eachNode(root, func(n *Node) { out[n.ID] = [2]float64{n.X, n.Y} })
	return out
}

func ids(nodes []*Node) []int {
	out := make([]int, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }
