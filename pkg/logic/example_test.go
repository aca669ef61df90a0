package logic_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/matzehuels/mindgraph/pkg/graph"
	"github.com/matzehuels/mindgraph/pkg/layout/layered"
	"github.com/matzehuels/mindgraph/pkg/logic"
)

func ExampleRender() {
	d := &graph.LogicDiagram{
		Nodes: []graph.LogicNode{
			{ID: "a", Label: "Boil water"},
			{ID: "b", Label: "Hot enough?", Shape: graph.ShapeDiamond},
			{ID: "c", Label: "Pour"},
		},
		Links: []graph.LogicLink{
			{Source: "a", Target: "b"},
			{Source: "b", Target: "c", Label: "Yes"},
			{Source: "b", Target: "a", Label: "No"},
		},
	}
	out, err := logic.Render(context.Background(), d, logic.WithLayouter(layered.Sugiyama{}))
	if err != nil {
		panic(err)
	}
	fmt.Println("link labels:", strings.Count(string(out.SVG), `class="link-label"`))
	for _, ids := range out.Layout.Ranks() {
		fmt.Println(ids)
	}
	// Output:
	// link labels: 2
	// [a]
	// [b]
	// [c]
}
