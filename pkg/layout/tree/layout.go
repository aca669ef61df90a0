package tree

// Node is a tree node to be laid out. Layout writes X, Y and Depth.
type Node struct {
	ID       int
	Children []*Node

	X     float64 // breadth coordinate
	Y     float64 // depth coordinate
	Depth int

	parent *Node
}

// Parent returns the parent assigned by the last Layout, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Size is the extent the layout is scaled to.
type Size struct {
	Breadth float64
	Depth   float64
}

// Separation returns the desired distance between two adjacent nodes,
// in units of one sibling gap.
type Separation func(a, b *Node) float64

// DefaultSeparation keeps siblings one unit apart and cousins two.
func DefaultSeparation(a, b *Node) float64 {
	if a.parent == b.parent {
		return 1
	}
	return 2
}

// Layout assigns X and Y to every node of the tree rooted at root.
//
// Breadth is scaled so that the outermost nodes, padded by half their
// separation, span size.Breadth. Depth is depth*size.Depth/maxDepth, so the
// deepest level sits at size.Depth; a single node sits at the breadth
// center with Y = 0. A nil sep uses [DefaultSeparation].
func Layout(root *Node, size Size, sep Separation) {
	if root == nil {
		return
	}
	if sep == nil {
		sep = DefaultSeparation
	}

	root.parent = nil
	w := buildWalkers(root)
	l := &layouter{sep: sep}
	eachAfter(w, l.firstWalk)
	w.parent.mod = -w.prelim
	eachBefore(w, secondWalk)

	left, right, bottom := root, root, root
	eachNode(root, func(n *Node) {
		if n.X < left.X {
			left = n
		}
		if n.X > right.X {
			right = n
		}
		if n.Depth > bottom.Depth {
			bottom = n
		}
	})

	s := 1.0
	if left != right {
		s = sep(left, right) / 2
	}
	tx := s - left.X
	kx := size.Breadth / (right.X + s + tx)
	ky := size.Depth
	if bottom.Depth > 0 {
		ky = size.Depth / float64(bottom.Depth)
	}
	eachNode(root, func(n *Node) {
		n.X = (n.X + tx) * kx
		n.Y = float64(n.Depth) * ky
	})
}

// walker carries the per-node bookkeeping of the algorithm.
type walker struct {
	node     *Node
	parent   *walker
	children []*walker
	index    int // position among siblings

	ancestor        *walker // a
	defaultAncestor *walker // A, set on parents during apportion
	prelim          float64 // z
	mod             float64 // m
	change          float64 // c
	shift           float64 // s
	thread          *walker // t
}

// buildWalkers mirrors the tree and hangs it under a virtual parent so the
// root can be treated like any other first child.
func buildWalkers(root *Node) *walker {
	var build func(n *Node, parent *walker, i, depth int) *walker
	build = func(n *Node, parent *walker, i, depth int) *walker {
		w := &walker{node: n, parent: parent, index: i}
		w.ancestor = w
		n.Depth = depth
		if len(n.Children) > 0 {
			w.children = make([]*walker, len(n.Children))
			for j, c := range n.Children {
				c.parent = n
				w.children[j] = build(c, w, j, depth+1)
			}
		}
		return w
	}
	virtual := &walker{}
	virtual.ancestor = virtual
	w := build(root, virtual, 0, 0)
	virtual.children = []*walker{w}
	return w
}

type layouter struct {
	sep Separation
}

func (l *layouter) separation(a, b *walker) float64 {
	return l.sep(a.node, b.node)
}

// firstWalk computes a preliminary x for v from its children and its left
// sibling, then resolves conflicts with the subtrees to its left.
func (l *layouter) firstWalk(v *walker) {
	siblings := v.parent.children
	var w *walker
	if v.index > 0 {
		w = siblings[v.index-1]
	}
	if len(v.children) > 0 {
		executeShifts(v)
		first, last := v.children[0], v.children[len(v.children)-1]
		midpoint := (first.prelim + last.prelim) / 2
		if w != nil {
			v.prelim = w.prelim + l.separation(v, w)
			v.mod = v.prelim - midpoint
		} else {
			v.prelim = midpoint
		}
	} else if w != nil {
		v.prelim = w.prelim + l.separation(v, w)
	}
	anc := v.parent.defaultAncestor
	if anc == nil {
		anc = siblings[0]
	}
	v.parent.defaultAncestor = l.apportion(v, w, anc)
}

// apportion walks the right contour of the left subtrees and the left
// contour of v's subtree, shifting v right wherever they come too close.
func (l *layouter) apportion(v, w, ancestor *walker) *walker {
	if w == nil {
		return ancestor
	}
	vip, vop := v, v
	vim := w
	vom := v.parent.children[0]
	sip, sop := vip.mod, vop.mod
	sim, som := vim.mod, vom.mod

	for {
		vim = nextRight(vim)
		vip = nextLeft(vip)
		if vim == nil || vip == nil {
			break
		}
		vom = nextLeft(vom)
		vop = nextRight(vop)
		vop.ancestor = v
		shift := vim.prelim + sim - vip.prelim - sip + l.separation(vim, vip)
		if shift > 0 {
			moveSubtree(nextAncestor(vim, v, ancestor), v, shift)
			sip += shift
			sop += shift
		}
		sim += vim.mod
		sip += vip.mod
		som += vom.mod
		sop += vop.mod
	}
	if vim != nil && nextRight(vop) == nil {
		vop.thread = vim
		vop.mod += sim - sop
	}
	if vip != nil && nextLeft(vom) == nil {
		vom.thread = vip
		vom.mod += sip - som
		ancestor = v
	}
	return ancestor
}

// secondWalk turns preliminary positions into final ones by summing the
// modifiers along the path from the root.
func secondWalk(v *walker) {
	v.node.X = v.prelim + v.parent.mod
	v.mod += v.parent.mod
}

func nextLeft(v *walker) *walker {
	if len(v.children) > 0 {
		return v.children[0]
	}
	return v.thread
}

func nextRight(v *walker) *walker {
	if len(v.children) > 0 {
		return v.children[len(v.children)-1]
	}
	return v.thread
}

func moveSubtree(wm, wp *walker, shift float64) {
	change := shift / float64(wp.index-wm.index)
	wp.change -= change
	wp.shift += shift
	wm.change += change
	wp.prelim += shift
	wp.mod += shift
}

func executeShifts(v *walker) {
	var shift, change float64
	for i := len(v.children) - 1; i >= 0; i-- {
		w := v.children[i]
		w.prelim += shift
		w.mod += shift
		change += w.change
		shift += w.shift + change
	}
}

func nextAncestor(vim, v, ancestor *walker) *walker {
	if vim.ancestor.parent == v.parent {
		return vim.ancestor
	}
	return ancestor
}

func eachAfter(w *walker, fn func(*walker)) {
	for _, c := range w.children {
		eachAfter(c, fn)
	}
	fn(w)
}

func eachBefore(w *walker, fn func(*walker)) {
	fn(w)
	for _, c := range w.children {
		eachBefore(c, fn)
	}
}

func eachNode(n *Node, fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		eachNode(c, fn)
	}
}
