// Package pkg provides the core libraries of mindgraph.
//
// # Overview
//
// mindgraph turns a topic or a document into an interactive mind map and,
// when the input describes a process, a logic diagram. The pkg directory is
// organized into four areas:
//
//  1. Model - [graph] data types and their validation
//  2. Layout and drawing - [layout/tree], [layout/layered], [textwrap],
//     [mindmap], [logic], [svg], [fonts]
//  3. Generation - [genai] providers, the [generate] orchestrator and
//     [document] ingestion
//  4. Infrastructure - [cache], [config], [session], [observability],
//     [httputil], [errors], [buildinfo]
//
// # Architecture
//
// The data flow through mindgraph:
//
//	topic and/or uploaded document
//	         ↓
//	    [document] package (detect type, extract text)
//	         ↓
//	    [generate] package (two concurrent AI requests, validation, cache)
//	         ↓
//	    *graph.MindMap + *graph.LogicDiagram (nil when absent)
//	         ↓
//	    [mindmap] renderer (collapse state, transitions) / [logic] renderer
//	         ↓
//	    interactive SVG
//
// # Quick Start
//
// Generate and draw a mind map:
//
//	provider, _ := genai.NewProvider(genai.Config{Provider: genai.ProviderOpenAI})
//	gen := generate.New(provider, nil, nil, nil)
//	res, _ := gen.Generate(ctx, generate.Request{Topic: "The water cycle"})
//
//	r := mindmap.New(res.Tree.Root)
//	first := r.Render().SVG()
//	frame, _ := r.Toggle(2) // expand or collapse the node with id 2
//	next := frame.SVG()
//
// Draw the logic diagram when one came back:
//
//	if res.Diagram != nil {
//	    out, _ := logic.Render(ctx, res.Diagram)
//	    os.WriteFile("logic.svg", out.SVG, 0o644)
//	}
//
// # Testing
//
// Run tests:
//
//	go test ./...                       # All tests
//	go test ./pkg/mindmap/...           # Specific package
//	go test -run Example ./pkg/...      # Examples only
//
// Tests that draw logic diagrams run Graphviz in-process through its
// WebAssembly build; no system install is needed.
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/mindgraph/pkg/graph
// [layout/tree]: https://pkg.go.dev/github.com/matzehuels/mindgraph/pkg/layout/tree
// [layout/layered]: https://pkg.go.dev/github.com/matzehuels/mindgraph/pkg/layout/layered
// [textwrap]: https://pkg.go.dev/github.com/matzehuels/mindgraph/pkg/textwrap
// [mindmap]: https://pkg.go.dev/github.com/matzehuels/mindgraph/pkg/mindmap
// [logic]: https://pkg.go.dev/github.com/matzehuels/mindgraph/pkg/logic
// [svg]: https://pkg.go.dev/github.com/matzehuels/mindgraph/pkg/svg
// [fonts]: https://pkg.go.dev/github.com/matzehuels/mindgraph/pkg/fonts
// [genai]: https://pkg.go.dev/github.com/matzehuels/mindgraph/pkg/genai
// [generate]: https://pkg.go.dev/github.com/matzehuels/mindgraph/pkg/generate
// [document]: https://pkg.go.dev/github.com/matzehuels/mindgraph/pkg/document
// [cache]: https://pkg.go.dev/github.com/matzehuels/mindgraph/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/mindgraph/pkg/config
// [session]: https://pkg.go.dev/github.com/matzehuels/mindgraph/pkg/session
// [observability]: https://pkg.go.dev/github.com/matzehuels/mindgraph/pkg/observability
// [httputil]: https://pkg.go.dev/github.com/matzehuels/mindgraph/pkg/httputil
// [errors]: https://pkg.go.dev/github.com/matzehuels/mindgraph/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/mindgraph/pkg/buildinfo
package pkg
