package generate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/mindgraph/pkg/cache"
	errs "github.com/matzehuels/mindgraph/pkg/errors"
	"github.com/matzehuels/mindgraph/pkg/genai"
	"github.com/matzehuels/mindgraph/pkg/graph"
)

const waterCycle = `{"root":{"name":"Water Cycle","children":[
	{"name":"Evaporation","children":[{"name":"Heat"}]},
	{"name":"Condensation"},
	{"name":"Precipitation"}]}}`

const decision = `{"nodes":[
	{"id":"start","label":"Start","shape":"ellipse"},
	{"id":"check","label":"Is it raining?","shape":"diamond"},
	{"id":"umbrella","label":"Take umbrella"}],
	"links":[
	{"source":"start","target":"check"},
	{"source":"check","target":"umbrella","label":"Yes"}]}`

// fakeProvider answers by schema name.
type fakeProvider struct {
	mu       sync.Mutex
	replies  map[string]string
	failures map[string]error
	requests []genai.Request
}

func newFake(tree, diagram string) *fakeProvider {
	return &fakeProvider{
		replies: map[string]string{
			MindMapSchema.Name:      tree,
			LogicDiagramSchema.Name: diagram,
		},
		failures: map[string]error{},
	}
}

func (f *fakeProvider) Complete(ctx context.Context, req genai.Request) (*genai.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if err := f.failures[req.Schema.Name]; err != nil {
		return nil, err
	}
	return &genai.Response{Content: f.replies[req.Schema.Name], InputTokens: 10, OutputTokens: 5}, nil
}

func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) Model() string { return "fake-1" }

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeProvider) request(schema string) genai.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.Schema.Name == schema {
			return r
		}
	}
	return genai.Request{}
}

func TestGenerate(t *testing.T) {
	p := newFake(waterCycle, decision)
	g := New(p, nil, nil, nil)

	res, err := g.Generate(context.Background(), Request{Topic: "Water Cycle"})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if _, err := uuid.Parse(res.RequestID); err != nil {
		t.Errorf("RequestID %q is not a uuid", res.RequestID)
	}
	if res.Tree.Root.Name != "Water Cycle" || len(res.Tree.Root.Children) != 3 {
		t.Errorf("Tree = %+v", res.Tree.Root)
	}
	if res.Diagram == nil || len(res.Diagram.Nodes) != 3 || len(res.Diagram.Links) != 2 {
		t.Fatalf("Diagram = %+v", res.Diagram)
	}
	if res.Diagram.Nodes[2].Shape != graph.ShapeRect {
		t.Errorf("missing shape not defaulted: %q", res.Diagram.Nodes[2].Shape)
	}
	if res.Stats.TreeNodes != 5 || res.Stats.DiagramNodes != 3 {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if res.Stats.InputTokens != 20 || res.Stats.OutputTokens != 10 {
		t.Errorf("token stats = %+v", res.Stats)
	}
	if p.calls() != 2 {
		t.Errorf("provider calls = %d, want 2", p.calls())
	}
}

func TestGenerateRequestParameters(t *testing.T) {
	p := newFake(waterCycle, decision)
	if _, err := New(p, nil, nil, nil).Generate(context.Background(), Request{Topic: "Water Cycle"}); err != nil {
		t.Fatal(err)
	}
	tree := p.request(MindMapSchema.Name)
	if tree.Temperature != MindMapTemperature {
		t.Errorf("mind map temperature = %v", tree.Temperature)
	}
	logic := p.request(LogicDiagramSchema.Name)
	if logic.Temperature != LogicTemperature {
		t.Errorf("logic temperature = %v", logic.Temperature)
	}
	if !strings.Contains(logic.Messages[0].Content, `{"nodes":[],"links":[]}`) {
		t.Error("logic prompt does not ask for empty arrays")
	}
}

func TestGenerateBlankInput(t *testing.T) {
	p := newFake(waterCycle, decision)
	_, err := New(p, nil, nil, nil).Generate(context.Background(), Request{Topic: "  ", Document: "\n"})
	if !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Fatalf("Generate() error = %v, want INVALID_INPUT", err)
	}
	if p.calls() != 0 {
		t.Errorf("provider called %d times for blank input", p.calls())
	}
}

func TestGenerateDiagramAbsent(t *testing.T) {
	tests := []struct {
		name    string
		diagram string
		failure error
		wantErr bool
	}{
		{"no process", `{"nodes":[],"links":[]}`, nil, false},
		{"only dangling ids", `{"nodes":[{"id":" ","label":"x"}],"links":[{"source":"a","target":"b"}]}`, nil, false},
		{"malformed", `not json`, nil, true},
		{"provider failure", "", errors.New("boom"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newFake(waterCycle, tt.diagram)
			if tt.failure != nil {
				p.failures[LogicDiagramSchema.Name] = tt.failure
			}
			res, err := New(p, nil, nil, nil).Generate(context.Background(), Request{Topic: "Water Cycle"})
			if err != nil {
				t.Fatalf("Generate() error: %v", err)
			}
			if res.Diagram != nil {
				t.Errorf("Diagram = %+v, want nil", res.Diagram)
			}
			if (res.DiagramErr != nil) != tt.wantErr {
				t.Errorf("DiagramErr = %v, wantErr %v", res.DiagramErr, tt.wantErr)
			}
			if res.Tree == nil {
				t.Error("Tree missing")
			}
		})
	}
}

func TestGenerateMindMapFailure(t *testing.T) {
	rateLimited := errs.New(errs.ErrCodeRateLimited, "slow down")
	tests := []struct {
		name    string
		reply   string
		failure error
		code    errs.Code
	}{
		{"missing root", `{"title":"Water"}`, nil, errs.ErrCodeContractViolation},
		{"blank name", `{"root":{"name":" "}}`, nil, errs.ErrCodeContractViolation},
		{"not json", `Sure! Here is a mind map.`, nil, errs.ErrCodeContractViolation},
		{"provider failure", "", errors.New("boom"), errs.ErrCodeGenerationFailed},
		{"coded failure", "", rateLimited, errs.ErrCodeRateLimited},
		{"deadline", "", context.DeadlineExceeded, errs.ErrCodeTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newFake(tt.reply, decision)
			if tt.failure != nil {
				p.failures[MindMapSchema.Name] = tt.failure
			}
			res, err := New(p, nil, nil, nil).Generate(context.Background(), Request{Topic: "Water Cycle"})
			if res != nil {
				t.Errorf("Generate() result = %+v, want nil", res)
			}
			if got := errs.GetCode(err); got != tt.code {
				t.Fatalf("Generate() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestGenerateFencedReply(t *testing.T) {
	p := newFake("```json\n"+waterCycle+"\n```", "Here you go:\n"+decision)
	res, err := New(p, nil, nil, nil).Generate(context.Background(), Request{Topic: "Water Cycle"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Tree.Root.Name != "Water Cycle" || res.Diagram == nil {
		t.Errorf("fenced replies not decoded: %+v", res)
	}
}

func TestGenerateTruncatesDeepTree(t *testing.T) {
	deep := `{"root":{"name":"a","children":[{"name":"b","children":[{"name":"c","children":[{"name":"d","children":[{"name":"e"}]}]}]}]}}`
	res, err := New(newFake(deep, decision), nil, nil, nil).Generate(context.Background(), Request{Topic: "a"})
	if err != nil {
		t.Fatal(err)
	}
	if d := res.Tree.Root.Depth(); d != graph.MaxDepth {
		t.Errorf("depth = %d, want %d", d, graph.MaxDepth)
	}
}

func TestGenerateSanitizesDiagram(t *testing.T) {
	d := `{"nodes":[{"id":"a","label":"A"},{"id":"a","label":"again"},{"id":"b","label":"B","shape":"hexagon"}],
		"links":[{"source":"a","target":"b"},{"source":"a","target":"ghost"}]}`
	res, err := New(newFake(waterCycle, d), nil, nil, nil).Generate(context.Background(), Request{Topic: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Diagram.Nodes) != 2 || len(res.Diagram.Links) != 1 {
		t.Errorf("Diagram = %+v", res.Diagram)
	}
	want := graph.SanitizeReport{DuplicateNodes: 1, DanglingLinks: 1, CoercedShapes: 1}
	if res.Sanitized != want {
		t.Errorf("Sanitized = %+v, want %+v", res.Sanitized, want)
	}
}

func TestGenerateCachesReplies(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	p := newFake(waterCycle, decision)
	g := New(p, fc, nil, nil)
	ctx := context.Background()
	req := Request{Topic: "Water Cycle"}

	if _, err := g.Generate(ctx, req); err != nil {
		t.Fatal(err)
	}
	res, err := g.Generate(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if p.calls() != 2 {
		t.Errorf("provider calls = %d, want 2 (second run cached)", p.calls())
	}
	if res.Stats.CacheHits != 2 || res.Diagram == nil {
		t.Errorf("cached result = %+v", res)
	}

	req.Refresh = true
	if _, err := g.Generate(ctx, req); err != nil {
		t.Fatal(err)
	}
	if p.calls() != 4 {
		t.Errorf("provider calls = %d, want 4 after refresh", p.calls())
	}
}

func TestGenerateDoesNotCacheInvalidReplies(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	p := newFake(`{"root":null}`, decision)
	g := New(p, fc, nil, nil)
	g.TTL = time.Hour
	for i := 0; i < 2; i++ {
		if _, err := g.Generate(context.Background(), Request{Topic: "x"}); !errs.Is(err, errs.ErrCodeContractViolation) {
			t.Fatalf("run %d: error = %v", i, err)
		}
	}
	if n := len(p.requestsFor(MindMapSchema.Name)); n != 2 {
		t.Errorf("mind map requests = %d, want 2", n)
	}
}

func (f *fakeProvider) requestsFor(schema string) []genai.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []genai.Request
	for _, r := range f.requests {
		if r.Schema.Name == schema {
			out = append(out, r)
		}
	}
	return out
}

func TestMindMapMessages(t *testing.T) {
	long := strings.Repeat("rivers lakes oceans ", 10)
	tests := []struct {
		name     string
		topic    string
		document string
		want     string
	}{
		{"topic", "Water Cycle", "", `mind map of the topic "Water Cycle"`},
		{"long topic", long, "", "concise summary"},
		{"document", "", "Clouds form.", "Summarize the main ideas"},
		{"document with focus", "rain", "Clouds form.", `focused on "rain"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := mindMapMessages(tt.topic, tt.document)
			if len(msgs) != 2 || msgs[0].Role != genai.RoleSystem {
				t.Fatalf("messages = %+v", msgs)
			}
			if !strings.Contains(msgs[1].Content, tt.want) {
				t.Errorf("user prompt %q does not contain %q", msgs[1].Content, tt.want)
			}
		})
	}
}

func TestPromptTruncatesDocument(t *testing.T) {
	doc := strings.Repeat("é", MaxDocumentChars+50)
	msgs := logicMessages("", doc)
	if n := strings.Count(msgs[1].Content, "é"); n != MaxDocumentChars {
		t.Errorf("document runes in prompt = %d, want %d", n, MaxDocumentChars)
	}
}

func TestMindMapSchemaDepth(t *testing.T) {
	levels := 0
	d := MindMapSchema.Definition.Properties["root"]
	for {
		children, ok := d.Properties["children"]
		if !ok {
			break
		}
		levels++
		d = *children.Items
	}
	if levels != graph.MaxDepth {
		t.Errorf("schema nests %d levels, want %d", levels, graph.MaxDepth)
	}
}
