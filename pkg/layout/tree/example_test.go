package tree_test

import (
	"fmt"

	"github.com/matzehuels/mindgraph/pkg/layout/tree"
)

func ExampleLayout() {
	root := &tree.Node{ID: 0, Children: []*tree.Node{
		{ID: 1},
		{ID: 2},
	}}
	tree.Layout(root, tree.Size{Breadth: 400, Depth: 600}, nil)

	fmt.Printf("root: (%.0f, %.0f)\n", root.X, root.Y)
	for _, c := range root.Children {
		fmt.Printf("child %d: (%.0f, %.0f)\n", c.ID, c.X, c.Y)
	}
	// Output:
	// root: (200, 0)
	// child 1: (100, 600)
	// child 2: (300, 600)
}
