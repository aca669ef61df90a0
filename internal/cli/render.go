package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/mindgraph/pkg/errors"
	"github.com/matzehuels/mindgraph/pkg/graph"
	"github.com/matzehuels/mindgraph/pkg/logic"
	"github.com/matzehuels/mindgraph/pkg/mindmap"
)

// Output file names written by generate and read by render and explore.
const (
	mindMapJSON = "mindmap.json"
	mindMapSVG  = "mindmap.svg"
	logicJSON   = "logic.json"
	logicSVG    = "logic.svg"
)

type renderOpts struct {
	out    string
	width  float64
	height float64
	watch  bool
}

// renderCommand creates the render command, which redraws saved JSON
// without calling the AI provider.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [dir]",
		Short: "Re-render a saved mind map and logic diagram",
		Long: `Render reads mindmap.json and, if present, logic.json from dir (default:
the current directory) and writes mindmap.svg and logic.svg next to them, or
into --out.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			if opts.out == "" {
				opts.out = dir
			}
			ctx := cmd.Context()
			if err := c.runRender(ctx, dir, opts); err != nil {
				return err
			}
			if !opts.watch {
				return nil
			}
			return c.watchInputs(ctx, dir, func(ctx context.Context) error {
				return c.runRender(ctx, dir, opts)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output directory (default: the input directory)")
	cmd.Flags().Float64Var(&opts.width, "width", 0, "viewport width (default from config)")
	cmd.Flags().Float64Var(&opts.height, "height", 0, "viewport height (default from config)")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "re-render when the JSON inputs change")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, dir string, opts renderOpts) error {
	if opts.width > 0 {
		c.Config.Viewport.Width = int(opts.width)
	}
	if opts.height > 0 {
		c.Config.Viewport.Height = int(opts.height)
	}

	tree, err := graph.ReadMindMapFile(filepath.Join(dir, mindMapJSON))
	if err != nil {
		return err
	}
	diagram, err := graph.ReadLogicDiagramFile(filepath.Join(dir, logicJSON))
	if errors.Is(err, fs.ErrNotExist) {
		diagram = nil
	} else if err != nil {
		return err
	}

	files, err := c.writeOutputs(ctx, opts.out, tree, diagram)
	if err != nil {
		return err
	}
	printSuccess("Rendered %s", StyleHighlight.Render(tree.Root.Name))
	printDetail("Logic diagram: %s", describeDiagram(diagram))
	for _, f := range files {
		printFile(f)
	}
	return nil
}

// writeOutputs writes the mind map, and the diagram when it is non-empty,
// as SVG and JSON into dir. A diagram that fails to render is logged and
// skipped. It returns the written paths.
func (c *CLI) writeOutputs(ctx context.Context, dir string, tree *graph.MindMap, diagram *graph.LogicDiagram) ([]string, error) {
	logger := loggerFromContext(ctx)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "creating %s", dir)
	}

	var files []string
	write := func(name string, data []byte) error {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return errs.Wrap(errs.ErrCodeInternal, err, "writing %s", path)
		}
		files = append(files, path)
		return nil
	}

	prog := newProgress(logger)
	if err := write(mindMapSVG, c.mindMapSVG(tree)); err != nil {
		return nil, err
	}
	if err := graph.WriteMindMapFile(tree, filepath.Join(dir, mindMapJSON)); err != nil {
		return nil, err
	}
	files = append(files, filepath.Join(dir, mindMapJSON))
	prog.done("rendered mind map", "nodes", tree.Root.Count())

	if diagram == nil || diagram.IsEmpty() {
		return files, nil
	}
	prog = newProgress(logger)
	out, err := logic.Render(ctx, diagram,
		logic.WithSize(float64(c.Config.Viewport.Width), float64(c.Config.Viewport.Height)),
		logic.WithLogger(logger),
	)
	if err != nil {
		logger.Warn("logic diagram not rendered", "error", err)
		return files, nil
	}
	if out == nil {
		return files, nil
	}
	if err := write(logicSVG, out.SVG); err != nil {
		return nil, err
	}
	if err := graph.WriteLogicDiagramFile(out.Diagram, filepath.Join(dir, logicJSON)); err != nil {
		return nil, err
	}
	files = append(files, filepath.Join(dir, logicJSON))
	prog.done("rendered logic diagram", "nodes", len(out.Diagram.Nodes), "links", len(out.Diagram.Links))
	return files, nil
}

// mindMapSVG draws the initial frame of tree.
func (c *CLI) mindMapSVG(tree *graph.MindMap) []byte {
	r := mindmap.New(tree.Root, c.mindMapOptions()...)
	return r.Render().SVG()
}

func (c *CLI) mindMapOptions() []mindmap.Option {
	return []mindmap.Option{
		mindmap.WithSize(float64(c.Config.Viewport.Width), float64(c.Config.Viewport.Height)),
	}
}

func describeDiagram(d *graph.LogicDiagram) string {
	if d == nil || d.IsEmpty() {
		return "none"
	}
	return fmt.Sprintf("%d steps, %d links", len(d.Nodes), len(d.Links))
}
