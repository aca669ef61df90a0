// Package tree computes tidy layouts for rooted ordered trees.
//
// [Layout] implements the linear-time Reingold-Tilford algorithm as refined
// by Walker and by Buchheim, Jünger and Leipert. Parents are centered over
// their children, siblings are evenly spaced, subtrees never overlap, and
// isomorphic subtrees are drawn identically regardless of position.
//
// Coordinates are abstract: X is the breadth axis and Y the depth axis.
// Callers choose the orientation; the mind map swaps them to grow left to
// right.
//
//	root := &tree.Node{ID: 0, Children: []*tree.Node{{ID: 1}, {ID: 2}}}
//	tree.Layout(root, tree.Size{Breadth: 400, Depth: 600}, nil)
//	// root.X == 200, root.Y == 0; children at Y == 600
package tree
