package server

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/matzehuels/mindgraph/pkg/document"
	errs "github.com/matzehuels/mindgraph/pkg/errors"
	"github.com/matzehuels/mindgraph/pkg/genai"
	"github.com/matzehuels/mindgraph/pkg/generate"
	"github.com/matzehuels/mindgraph/pkg/layout/layered"
	"github.com/matzehuels/mindgraph/pkg/logic"
	"github.com/matzehuels/mindgraph/pkg/observability"
	"github.com/matzehuels/mindgraph/pkg/textwrap"
)

const waterCycle = `{"root":{"name":"Water Cycle","children":[
	{"name":"Evaporation","children":[{"name":"Heat","children":[{"name":"Sunlight"}]}]},
	{"name":"Condensation"},
	{"name":"Precipitation"}]}}`

const decision = `{"nodes":[
	{"id":"start","label":"Start","shape":"ellipse"},
	{"id":"check","label":"Is it raining?","shape":"diamond"},
	{"id":"umbrella","label":"Take umbrella"}],
	"links":[
	{"source":"start","target":"check"},
	{"source":"check","target":"umbrella","label":"Yes"}]}`

const noProcess = `{"nodes":[],"links":[]}`

type fakeProvider struct {
	mu      sync.Mutex
	tree    string
	diagram string
	err     error
	prompts []string
}

func (f *fakeProvider) Complete(_ context.Context, req genai.Request) (*genai.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, req.Messages[len(req.Messages)-1].Content)
	if f.err != nil {
		return nil, f.err
	}
	if req.Schema.Name == generate.MindMapSchema.Name {
		return &genai.Response{Content: f.tree}, nil
	}
	return &genai.Response{Content: f.diagram}, nil
}

func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) Model() string { return "fake-1" }

func newTestServer(t *testing.T, p *fakeProvider) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.LogicOptions = []logic.Option{
		logic.WithLayouter(layered.Sugiyama{}),
		logic.WithMeasurer(textwrap.FixedMeasurer(8)),
	}
	return New(cfg, generate.New(p, nil, nil, nil), document.NewExtractor(nil, nil, 0, nil), nil)
}

// form builds a multipart body with a topic and an optional file.
func form(t *testing.T, topic, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField(fieldTopic, topic); err != nil {
		t.Fatal(err)
	}
	if filename != "" {
		fw, err := mw.CreateFormFile(fieldDocument, filename)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = fw.Write(data)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func do(s *Server, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

// generateView posts the form and returns the view URL it redirects to.
func generateView(t *testing.T, s *Server, topic string) string {
	t.Helper()
	body, ct := form(t, topic, "", nil)
	w := do(s, http.MethodPost, "/generate", body, ct)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("POST /generate = %d: %s", w.Code, w.Body.String())
	}
	loc := w.Header().Get("Location")
	if !strings.HasPrefix(loc, "/view/") {
		t.Fatalf("Location = %q", loc)
	}
	return loc
}

func TestIndex(t *testing.T) {
	s := newTestServer(t, &fakeProvider{})
	w := do(s, http.MethodGet, "/", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET / = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`<form method="post" action="/generate"`,
		`accept=".txt,.pdf,text/plain,application/pdf"`,
		`window.mindgraphZoom`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(body, `role="alert"`) {
		t.Error("fresh page shows an error banner")
	}
}

func TestGenerateWithDiagram(t *testing.T) {
	s := newTestServer(t, &fakeProvider{tree: waterCycle, diagram: decision})
	loc := generateView(t, s, "Water Cycle")

	w := do(s, http.MethodGet, loc, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET %s = %d", loc, w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Mind map</a>") || !strings.Contains(body, "Logic diagram</a>") {
		t.Error("tabs missing")
	}
	if !strings.Contains(body, ">Water Cycle</text>") {
		t.Error("mind map not embedded")
	}
	if n := strings.Count(body, `class="link-label"`); n != 1 {
		t.Errorf("link labels = %d, want 1", n)
	}

	w = do(s, http.MethodGet, loc+"?tab=logic", nil, "")
	if !strings.Contains(w.Body.String(), `<section class="panel" id="mindmap" data-view=`) {
		t.Fatal("mind map panel missing on logic tab")
	}

	w = do(s, http.MethodGet, loc+"/logic.svg", nil, "")
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/svg+xml" {
		t.Errorf("logic.svg = %d %s", w.Code, w.Header().Get("Content-Type"))
	}
}

func TestGenerateWithoutDiagram(t *testing.T) {
	s := newTestServer(t, &fakeProvider{tree: waterCycle, diagram: noProcess})
	loc := generateView(t, s, "Water Cycle")

	body := do(s, http.MethodGet, loc, nil, "").Body.String()
	if strings.Contains(body, "Logic diagram</a>") {
		t.Error("logic tab shown for an empty diagram")
	}
	if w := do(s, http.MethodGet, loc+"/logic.svg", nil, ""); w.Code != http.StatusNotFound {
		t.Errorf("logic.svg = %d, want 404", w.Code)
	}
	// ?tab=logic falls back to the mind map.
	id := strings.TrimPrefix(loc, "/view/")
	body = do(s, http.MethodGet, loc+"?tab=logic", nil, "").Body.String()
	if strings.Contains(body, `data-view="`+id+`" hidden`) {
		t.Error("mind map hidden without a logic tab")
	}
}

func TestGenerateUploadsDocument(t *testing.T) {
	p := &fakeProvider{tree: waterCycle, diagram: noProcess}
	s := newTestServer(t, p)
	body, ct := form(t, "", "notes.txt", []byte("Clouds form when vapour cools."))
	w := do(s, http.MethodPost, "/generate", body, ct)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("POST /generate = %d: %s", w.Code, w.Body.String())
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.prompts) != 2 || !strings.Contains(p.prompts[0], "Clouds form when vapour cools.") {
		t.Errorf("prompts = %q", p.prompts)
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name     string
		topic    string
		filename string
		data     []byte
		provErr  error
		status   int
		banner   string
	}{
		{"blank input", "   ", "", nil, nil, http.StatusBadRequest, "enter a topic or upload a document"},
		{"unsupported file", "", "report.docx", []byte("PK"), nil, http.StatusUnsupportedMediaType, "Could not read the document"},
		{"unreadable pdf", "", "broken.pdf", []byte("%PDF-1.4 nonsense"), nil, http.StatusUnprocessableEntity, "Could not read the document"},
		{"rate limited", "Water", "", nil, errs.New(errs.ErrCodeRateLimited, "the AI service is busy"), http.StatusTooManyRequests, "the AI service is busy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{tree: waterCycle, diagram: noProcess, err: tt.provErr}
			s := newTestServer(t, p)
			body, ct := form(t, tt.topic, tt.filename, tt.data)
			w := do(s, http.MethodPost, "/generate", body, ct)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			page := w.Body.String()
			if !strings.Contains(page, `role="alert"`) || !strings.Contains(page, tt.banner) {
				t.Errorf("banner missing %q", tt.banner)
			}
			if strings.Contains(page, `class="tabs"`) {
				t.Error("error page still shows results")
			}
		})
	}
}

func TestToggle(t *testing.T) {
	s := newTestServer(t, &fakeProvider{tree: waterCycle, diagram: noProcess})
	loc := generateView(t, s, "Water Cycle")

	w := do(s, http.MethodPost, loc+"/toggle/2", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("toggle = %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), ">Sunlight</text>") {
		t.Error("expanded frame missing Sunlight")
	}
	if got := do(s, http.MethodGet, loc+"/mindmap.svg", nil, "").Body.String(); got != w.Body.String() {
		t.Error("mindmap.svg does not serve the latest frame")
	}

	tests := []struct {
		target string
		status int
	}{
		{loc + "/toggle/99", http.StatusNotFound},
		{loc + "/toggle/abc", http.StatusBadRequest},
		{"/view/unknown/toggle/1", http.StatusNotFound},
	}
	for _, tt := range tests {
		if w := do(s, http.MethodPost, tt.target, nil, ""); w.Code != tt.status {
			t.Errorf("POST %s = %d, want %d", tt.target, w.Code, tt.status)
		}
	}
}

func TestHealthAndMetrics(t *testing.T) {
	cfg := DefaultConfig()
	prom := observability.NewPrometheus("mindgraph_server_test")
	cfg.Metrics = prom.Handler()
	s := New(cfg, generate.New(&fakeProvider{}, nil, nil, nil), document.NewExtractor(nil, nil, 0, nil), nil)

	if w := do(s, http.MethodGet, "/healthz", nil, ""); w.Code != http.StatusOK {
		t.Errorf("/healthz = %d", w.Code)
	}
	if w := do(s, http.MethodGet, "/metrics", nil, ""); w.Code != http.StatusOK {
		t.Errorf("/metrics = %d", w.Code)
	}

	plain := newTestServer(t, &fakeProvider{})
	if w := do(plain, http.MethodGet, "/metrics", nil, ""); w.Code != http.StatusNotFound {
		t.Errorf("/metrics without handler = %d, want 404", w.Code)
	}
}

func TestAllowedOrigins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllowedOrigins = []string{"http://localhost:*"}
	s := New(cfg, generate.New(&fakeProvider{}, nil, nil, nil), document.NewExtractor(nil, nil, 0, nil), nil)

	tests := []struct {
		origin string
		want   string
	}{
		{"http://localhost:3000", "http://localhost:3000"},
		{"http://evil.example", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("Origin", tt.origin)
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("origin %s: Access-Control-Allow-Origin = %q, want %q", tt.origin, got, tt.want)
		}
	}

	plain := newTestServer(t, &fakeProvider{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	plain.Handler().ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("cross-origin allowed without configuration: %q", got)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code errs.Code
		want int
	}{
		{errs.ErrCodeInvalidInput, http.StatusBadRequest},
		{errs.ErrCodeUnsupportedFile, http.StatusUnsupportedMediaType},
		{errs.ErrCodeDocumentParse, http.StatusUnprocessableEntity},
		{errs.ErrCodeRateLimited, http.StatusTooManyRequests},
		{errs.ErrCodeTimeout, http.StatusGatewayTimeout},
		{errs.ErrCodeContractViolation, http.StatusBadGateway},
		{errs.ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(errs.New(tt.code, "x")); got != tt.want {
			t.Errorf("statusFor(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestErrorTitle(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{errs.New(errs.ErrCodeDocumentParse, "x"), "Could not read the document"},
		{errs.New(errs.ErrCodeInvalidInput, "x"), "Nothing to generate"},
		{errs.New(errs.ErrCodeTimeout, "x"), "The AI service is busy, try again"},
		{errs.New(errs.ErrCodeContractViolation, "x"), "Generation failed"},
	}
	for _, tt := range tests {
		if got := errorTitle(tt.err); got != tt.want {
			t.Errorf("errorTitle(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
