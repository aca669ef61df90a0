package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/mindgraph/pkg/errors"
	"github.com/matzehuels/mindgraph/pkg/generate"
)

type generateOpts struct {
	topic   string
	doc     string
	out     string
	refresh bool
	noCache bool
}

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOpts

	cmd := &cobra.Command{
		Use:   "generate [topic]",
		Short: "Generate a mind map and logic diagram from a topic or document",
		Long: `Generate asks the configured AI provider for a mind map and, when the
input describes a process, a logic diagram. It writes mindmap.svg and
mindmap.json, plus logic.svg and logic.json when a diagram came back.`,
		Example: `  mindgraph generate "The water cycle"
  mindgraph generate --doc notes.pdf --out ./out
  mindgraph generate --doc paper.pdf --topic "methodology"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if opts.topic != "" {
					return errs.New(errs.ErrCodeInvalidInput, "give the topic either as an argument or with --topic")
				}
				opts.topic = args[0]
			}
			return c.runGenerate(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.topic, "topic", "t", "", "topic to map")
	cmd.Flags().StringVarP(&opts.doc, "doc", "d", "", "PDF or text document to summarize")
	cmd.Flags().StringVarP(&opts.out, "out", "o", ".", "output directory")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached replies")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the response cache")

	return cmd
}

func (c *CLI) runGenerate(cmd *cobra.Command, opts generateOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	p, err := c.newPipeline(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer p.Close()

	req := generate.Request{Topic: opts.topic, Refresh: opts.refresh}

	spinner := newSpinnerWithContext(ctx, "Preparing...")
	spinner.Start()
	defer spinner.Stop()

	if opts.doc != "" {
		spinner.Update("Reading " + filepath.Base(opts.doc) + "...")
		data, err := os.ReadFile(opts.doc)
		if err != nil {
			spinner.StopWithError("Could not read document")
			return errs.Wrap(errs.ErrCodeInvalidInput, err, "reading %s", opts.doc)
		}
		text, err := p.docs.Extract(ctx, opts.doc, data)
		if err != nil {
			spinner.StopWithError(errs.UserMessage(err))
			return err
		}
		logger.Debug("document extracted", "file", opts.doc, "chars", len(text))
		req.Document = text
	}

	spinner.Update(fmt.Sprintf("Generating with %s...", c.Config.Provider))
	res, err := p.gen.Generate(ctx, req)
	if err != nil {
		if spinner.Cancelled() {
			return ctx.Err()
		}
		spinner.StopWithError(errs.UserMessage(err))
		if errs.IsRetryable(err) {
			printNextStep("The service may recover, try again", "mindgraph generate "+retryArgs(opts))
		}
		return err
	}
	spinner.Stop()

	printSuccess("Generated %s", StyleHighlight.Render(res.Tree.Root.Name))
	printStats(res.Stats)
	if res.DiagramErr != nil {
		printWarning("No logic diagram: %s", errs.UserMessage(res.DiagramErr))
	}
	if res.Sanitized.Changed() {
		r := res.Sanitized
		printDetail("Diagram cleaned: dropped %d duplicate and %d blank nodes, %d dangling links; %d shapes coerced",
			r.DuplicateNodes, r.BlankNodes, r.DanglingLinks, r.CoercedShapes)
	}

	files, err := c.writeOutputs(ctx, opts.out, res.Tree, res.Diagram)
	if err != nil {
		return err
	}
	for _, f := range files {
		printFile(f)
	}
	printNextStep("Explore it", "mindgraph explore "+filepath.Join(opts.out, mindMapJSON))
	return nil
}

// retryArgs renders opts back as command-line arguments.
func retryArgs(opts generateOpts) string {
	var parts []string
	if opts.topic != "" {
		parts = append(parts, strconv.Quote(opts.topic))
	}
	if opts.doc != "" {
		parts = append(parts, "--doc "+strconv.Quote(opts.doc))
	}
	return strings.Join(parts, " ")
}
