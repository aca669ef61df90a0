// Package generate turns a topic or document text into a mind map and a
// logic diagram by asking an AI provider for both at once.
//
// The two requests run concurrently. The mind map is required: its failure
// fails the whole generation. The logic diagram is optional: its failure is
// logged and reported in [Result.DiagramErr], and the result simply carries
// no diagram. A diagram without nodes also means "no diagram".
//
// Replies are validated before use. A mind map without a root or any reply
// that is not the requested JSON fails with CONTRACT_VIOLATION. Valid
// replies are cached under a key derived from the provider, model,
// temperature and prompt, so repeating a request costs nothing.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/mindgraph/pkg/cache"
	errs "github.com/matzehuels/mindgraph/pkg/errors"
	"github.com/matzehuels/mindgraph/pkg/genai"
	"github.com/matzehuels/mindgraph/pkg/graph"
	"github.com/matzehuels/mindgraph/pkg/observability"
)

// Sampling temperatures. The diagram is kept close to deterministic.
const (
	MindMapTemperature = 0.2
	LogicTemperature   = 0.1
)

// DefaultTTL is how long a validated reply stays cached.
const DefaultTTL = 7 * 24 * time.Hour

// Request kinds, used in cache keys and metrics.
const (
	KindMindMap = "mindmap"
	KindLogic   = "logic"
)

// Request is one generation. At least one of Topic and Document must be
// non-blank; Document is already extracted text.
type Request struct {
	Topic    string
	Document string
	Refresh  bool // bypass cached replies
}

// Result is the outcome of a generation.
type Result struct {
	Tree       *graph.MindMap
	Diagram    *graph.LogicDiagram // nil when absent or empty
	DiagramErr error               // why Diagram is nil, if it failed
	RequestID  string
	Sanitized  graph.SanitizeReport
	Stats      Stats
}

// Stats describes how a generation went.
type Stats struct {
	Duration     time.Duration
	TreeNodes    int
	DiagramNodes int
	CacheHits    int
	InputTokens  int
	OutputTokens int
}

// Generator issues generation requests. It holds no per-request state and
// is safe for concurrent use.
type Generator struct {
	Provider genai.Provider
	Cache    cache.Cache
	Keyer    cache.Keyer
	TTL      time.Duration
	Logger   *log.Logger
}

// New creates a generator. A nil cache disables caching, a nil keyer uses
// the default and a nil logger discards output.
func New(p genai.Provider, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Generator {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Generator{Provider: p, Cache: c, Keyer: keyer, TTL: DefaultTTL, Logger: logger}
}

// Generate produces a mind map and, when the input describes a procedure,
// a logic diagram.
func (g *Generator) Generate(ctx context.Context, req Request) (res *Result, err error) {
	start := time.Now()
	defer func() {
		observability.Generation().OnGenerateComplete(ctx, time.Since(start), res != nil && res.Diagram != nil, err)
	}()

	if err := errs.ValidateRequest(req.Topic, req.Document); err != nil {
		return nil, err
	}

	res = &Result{RequestID: uuid.NewString()}
	logger := g.Logger.With("request_id", res.RequestID)
	logger.Debug("generating", "provider", g.Provider.Name(), "model", g.Provider.Model(),
		"topic_chars", len(req.Topic), "document_chars", len(req.Document))

	var treeCall, diagramCall call
	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		tree, c, err := g.mindMap(egctx, req)
		treeCall = c
		if err != nil {
			return err
		}
		res.Tree = tree
		return nil
	})
	eg.Go(func() error {
		d, c, err := g.logicDiagram(egctx, req)
		diagramCall = c
		if err != nil {
			res.DiagramErr = err
			logger.Warn("logic diagram failed", "error", err)
			return nil
		}
		res.Diagram = d
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if res.Diagram != nil {
		var rep graph.SanitizeReport
		res.Diagram, rep = res.Diagram.Sanitize()
		res.Sanitized = rep
		if rep.Changed() {
			logger.Debug("sanitized logic diagram", "duplicates", rep.DuplicateNodes,
				"blank", rep.BlankNodes, "dangling", rep.DanglingLinks, "shapes", rep.CoercedShapes)
		}
		if res.Diagram.IsEmpty() {
			res.Diagram = nil
		}
	}

	res.Stats = Stats{
		Duration:     time.Since(start),
		TreeNodes:    res.Tree.Root.Count(),
		CacheHits:    treeCall.hits() + diagramCall.hits(),
		InputTokens:  treeCall.inputTokens + diagramCall.inputTokens,
		OutputTokens: treeCall.outputTokens + diagramCall.outputTokens,
	}
	if res.Diagram != nil {
		res.Stats.DiagramNodes = len(res.Diagram.Nodes)
	}
	logger.Info("generated", "nodes", res.Stats.TreeNodes, "diagram_nodes", res.Stats.DiagramNodes,
		"cache_hits", res.Stats.CacheHits, "duration", res.Stats.Duration)
	return res, nil
}

// call records one provider round trip.
type call struct {
	cached       bool
	inputTokens  int
	outputTokens int
}

func (c call) hits() int {
	if c.cached {
		return 1
	}
	return 0
}

func (g *Generator) mindMap(ctx context.Context, req Request) (*graph.MindMap, call, error) {
	var m graph.MindMap
	greq := genai.Request{
		Messages:    mindMapMessages(req.Topic, req.Document),
		Temperature: MindMapTemperature,
		Schema:      &MindMapSchema,
	}
	c, err := g.complete(ctx, KindMindMap, greq, req.Refresh, &m, func() error {
		if err := m.Validate(); err != nil {
			return errs.Wrap(errs.ErrCodeContractViolation, err, "the AI service returned an invalid mind map")
		}
		return nil
	})
	if err != nil {
		return nil, c, err
	}
	out, truncated := m.Normalize()
	if truncated {
		g.Logger.Debug("truncated mind map", "max_depth", graph.MaxDepth)
	}
	return out, c, nil
}

func (g *Generator) logicDiagram(ctx context.Context, req Request) (*graph.LogicDiagram, call, error) {
	var d graph.LogicDiagram
	greq := genai.Request{
		Messages:    logicMessages(req.Topic, req.Document),
		Temperature: LogicTemperature,
		Schema:      &LogicDiagramSchema,
	}
	c, err := g.complete(ctx, KindLogic, greq, req.Refresh, &d, nil)
	if err != nil {
		return nil, c, err
	}
	return &d, c, nil
}

// complete answers greq from the cache or the provider, decoding the reply
// into v. check runs on freshly decoded replies; only replies that pass it
// are cached.
func (g *Generator) complete(ctx context.Context, kind string, greq genai.Request, refresh bool, v any, check func() error) (call, error) {
	key := g.Keyer.CompletionKey(cache.CompletionKeyOpts{
		Kind:        kind,
		Provider:    g.Provider.Name(),
		Model:       g.Provider.Model(),
		Temperature: greq.Temperature,
		Prompt:      promptText(greq.Messages),
		Schema:      greq.Schema.Name,
	})
	if !refresh {
		err := cache.GetJSON(ctx, g.Cache, key, v)
		switch {
		case err == nil && (check == nil || check() == nil):
			return call{cached: true}, nil
		case err != nil && !errors.Is(err, cache.ErrCacheMiss):
			g.Logger.Debug("cache read failed", "kind", kind, "error", err)
		}
	}

	start := time.Now()
	resp, err := g.Provider.Complete(ctx, greq)
	observability.Generation().OnRequestComplete(ctx, kind, g.Provider.Name(), time.Since(start), err)
	if err != nil {
		return call{}, requestError(ctx, kind, err)
	}
	c := call{inputTokens: resp.InputTokens, outputTokens: resp.OutputTokens}

	if err := decodeReply(resp.Content, v); err != nil {
		return c, errs.Wrap(errs.ErrCodeContractViolation, err, "the AI service returned malformed %s data", kindName(kind))
	}
	if check != nil {
		if err := check(); err != nil {
			return c, err
		}
	}
	if err := cache.SetJSON(ctx, g.Cache, key, v, g.TTL); err != nil {
		g.Logger.Debug("cache write failed", "kind", kind, "error", err)
	}
	return c, nil
}

// requestError gives a provider failure a code. Errors that already carry
// one keep it.
func requestError(ctx context.Context, kind string, err error) error {
	if errs.GetCode(err) != "" {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errs.Wrap(errs.ErrCodeTimeout, err, "the AI service took too long")
	}
	return errs.Wrap(errs.ErrCodeGenerationFailed, err, "could not generate the %s", kindName(kind))
}

func kindName(kind string) string {
	if kind == KindLogic {
		return "logic diagram"
	}
	return "mind map"
}

// decodeReply decodes a JSON object, tolerating a markdown code fence or
// prose around it.
func decodeReply(content string, v any) error {
	s := strings.TrimSpace(content)
	start, end := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return errors.New("reply contains no JSON object")
	}
	return json.Unmarshal([]byte(s[start:end+1]), v)
}
