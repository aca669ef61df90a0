package logic

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/mindgraph/pkg/errors"
	"github.com/matzehuels/mindgraph/pkg/fonts"
	"github.com/matzehuels/mindgraph/pkg/graph"
	"github.com/matzehuels/mindgraph/pkg/layout/layered"
	"github.com/matzehuels/mindgraph/pkg/observability"
	"github.com/matzehuels/mindgraph/pkg/svg"
	"github.com/matzehuels/mindgraph/pkg/textwrap"
)

// Geometry of a rendered diagram.
const (
	DefaultWidth  = 960.0
	DefaultHeight = 600.0

	// Padding is kept free on every side when fitting the drawing.
	Padding = 40.0
	// LabelPadding is subtracted from the node width to get the wrap width.
	LabelPadding = 20.0
	// LineHeight is the distance between wrapped lines, in em.
	LineHeight = 1.1
	// CornerRadius rounds rect nodes.
	CornerRadius = 10.0
	// LinkLabelLift raises link labels above the middle of their edge.
	LinkLabelLift = 8.0
)

// DefaultZoom is the wheel zoom range of logic diagram documents.
var DefaultZoom = svg.ZoomRange{Min: 0.1, Max: 2}

// Option configures Render.
type Option func(*renderer)

type renderer struct {
	width, height float64
	zoom          svg.ZoomRange
	layouter      layered.Layouter
	measurer      textwrap.Measurer
	logger        *log.Logger
}

// WithSize sets the viewport the drawing is fitted into.
func WithSize(width, height float64) Option {
	return func(r *renderer) { r.width, r.height = width, height }
}

// WithZoom sets the wheel zoom range.
func WithZoom(z svg.ZoomRange) Option { return func(r *renderer) { r.zoom = z } }

// WithLayouter replaces the default Graphviz layouter.
func WithLayouter(l layered.Layouter) Option { return func(r *renderer) { r.layouter = l } }

// WithMeasurer replaces the Go Regular measurer used for wrapping labels.
func WithMeasurer(m textwrap.Measurer) Option { return func(r *renderer) { r.measurer = m } }

// WithLogger sets the logger. The default discards.
func WithLogger(l *log.Logger) Option { return func(r *renderer) { r.logger = l } }

// Output is a rendered diagram.
type Output struct {
	SVG []byte

	// Diagram is the sanitized input that was drawn.
	Diagram *graph.LogicDiagram
	Report  graph.SanitizeReport

	Layout *layered.Result
	// Fit is the initial viewport transform.
	Fit svg.Transform
}

// Render draws d. A nil or empty diagram, including one that is empty
// after sanitizing, renders nothing and returns (nil, nil).
func Render(ctx context.Context, d *graph.LogicDiagram, opts ...Option) (*Output, error) {
	r := renderer{
		width:  DefaultWidth,
		height: DefaultHeight,
		zoom:   DefaultZoom,
	}
	for _, opt := range opts {
		opt(&r)
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}

	clean, rep := d.Sanitize()
	if clean.IsEmpty() {
		return nil, nil
	}
	if rep.Changed() {
		r.logger.Debug("sanitized logic diagram",
			"duplicates", rep.DuplicateNodes, "blank", rep.BlankNodes,
			"dangling", rep.DanglingLinks, "shapes", rep.CoercedShapes)
	}

	if r.layouter == nil {
		gv := layered.NewGraphviz()
		defer gv.Close()
		r.layouter = layered.Fallback{
			Primary:   gv,
			Secondary: layered.Sugiyama{},
			OnFallback: func(err error) {
				r.logger.Warn("graphviz layout failed, using built-in layout", "error", err)
				observability.Render().OnLayoutFallback(ctx, err)
			},
		}
	}
	if r.measurer == nil {
		fm, err := textwrap.NewFontMeasurer(fonts.DefaultSize)
		if err != nil {
			r.logger.Warn("font unavailable, estimating label widths", "error", err)
			r.measurer = textwrap.FixedMeasurer(fonts.DefaultSize * 0.6)
		} else {
			defer fm.Close()
			r.measurer = fm
		}
	}

	start := time.Now()
	g := toLayered(clean)
	res, err := r.layouter.Layout(ctx, g)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errs.Wrap(errs.ErrCodeTimeout, err, "logic diagram layout")
		}
		return nil, errs.Wrap(errs.ErrCodeLayout, err, "logic diagram layout")
	}

	fit := Fit(res.Width, res.Height, r.width, r.height, Padding)
	out := &Output{
		SVG:     r.draw(clean, g, res, fit),
		Diagram: clean,
		Report:  rep,
		Layout:  res,
		Fit:     fit,
	}
	observability.Render().OnRender(ctx, "logic", len(clean.Nodes), time.Since(start))
	return out, nil
}

// Fit returns the transform that scales a gw x gh drawing down (never up)
// to fit a w x h viewport with padding on every side, and centers it.
func Fit(gw, gh, w, h, padding float64) svg.Transform {
	k := 1.0
	if gw > 0 {
		k = math.Min(k, (w-2*padding)/gw)
	}
	if gh > 0 {
		k = math.Min(k, (h-2*padding)/gh)
	}
	if k <= 0 {
		k = 1
	}
	return svg.Transform{
		X: (w - gw*k) / 2,
		Y: (h - gh*k) / 2,
		K: k,
	}
}

func toLayered(d *graph.LogicDiagram) layered.Graph {
	g := layered.Graph{
		Nodes:      make([]layered.Node, len(d.Nodes)),
		Edges:      make([]layered.Edge, len(d.Links)),
		NodeWidth:  layered.DefaultNodeWidth,
		NodeHeight: layered.DefaultNodeHeight,
		NodeSep:    layered.DefaultNodeSep,
		RankSep:    layered.DefaultRankSep,
	}
	for i, n := range d.Nodes {
		g.Nodes[i] = layered.Node{ID: n.ID, Shape: dotShape(n.Shape)}
	}
	for i, l := range d.Links {
		g.Edges[i] = layered.Edge{Source: l.Source, Target: l.Target}
	}
	return g
}

func dotShape(s graph.Shape) string {
	switch s {
	case graph.ShapeDiamond:
		return "diamond"
	case graph.ShapeEllipse:
		return "ellipse"
	default:
		return "box"
	}
}
