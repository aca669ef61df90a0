package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/mindgraph/pkg/cache"
	errs "github.com/matzehuels/mindgraph/pkg/errors"
	"github.com/matzehuels/mindgraph/pkg/generate"
	"github.com/matzehuels/mindgraph/pkg/graph"
	"github.com/matzehuels/mindgraph/pkg/mindmap"
)

func waterCycle() *graph.MindMap {
	return &graph.MindMap{Root: &graph.MindMapNode{
		Name: "Water Cycle",
		Children: []*graph.MindMapNode{
			{Name: "Evaporation", Children: []*graph.MindMapNode{
				{Name: "Heat", Children: []*graph.MindMapNode{{Name: "Sunlight"}}},
			}},
			{Name: "Condensation"},
			{Name: "Precipitation"},
		},
	}}
}

// isolate keeps config discovery away from the developer's own files.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	captureStdout(t)
	return dir
}

// captureStdout redirects status output for the rest of the test.
func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })
	return &buf
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	for _, name := range []string{"generate", "render", "explore", "serve", "cache", "config", "completion"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("--config flag missing")
	}
}

func TestRenderCommand(t *testing.T) {
	dir := isolate(t)
	if err := graph.WriteMindMapFile(waterCycle(), filepath.Join(dir, mindMapJSON)); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out")

	printed := captureStdout(t)
	if err := execute(t, "render", dir, "--out", out); err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"Rendered", "Water Cycle", "Logic diagram: none", filepath.Join(out, mindMapSVG)} {
		if !strings.Contains(printed.String(), want) {
			t.Errorf("output missing %q:\n%s", want, printed)
		}
	}

	data, err := os.ReadFile(filepath.Join(out, mindMapSVG))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), ">Water Cycle</text>") {
		t.Error("mindmap.svg missing root label")
	}
	if _, err := os.Stat(filepath.Join(out, mindMapJSON)); err != nil {
		t.Errorf("mindmap.json not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, logicSVG)); !os.IsNotExist(err) {
		t.Error("logic.svg written without a diagram")
	}
}

func TestRenderCommandMissingInput(t *testing.T) {
	isolate(t)
	if err := execute(t, "render"); err == nil {
		t.Error("render without mindmap.json should fail")
	}
}

func TestRenderCommandRejectsInvalidConfig(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, "mindgraph.yaml"), []byte("provider: claude\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	err := execute(t, "render")
	if !errs.Is(err, errs.ErrCodeInvalidConfig) {
		t.Errorf("error = %v, want INVALID_CONFIG", err)
	}
}

func TestGenerateRejectsTwoTopics(t *testing.T) {
	isolate(t)
	err := execute(t, "generate", "Water", "--topic", "Fire")
	if !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "mindgraph.yaml")
	if err := execute(t, "config", "init", path); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if err := execute(t, "--config", path, "config", "show"); err != nil {
		t.Errorf("config show: %v", err)
	}
}

func TestCacheClearFileBackend(t *testing.T) {
	dir := isolate(t)
	cacheDir := filepath.Join(dir, "replies")
	t.Setenv("MINDGRAPH_CACHE__DIR", cacheDir)

	fc, err := cache.NewFileCache(cacheDir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := fc.Set(ctx, "completion:abc", []byte(`{}`), 0); err != nil {
		t.Fatal(err)
	}

	if err := execute(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if _, ok, _ := fc.Get(ctx, "completion:abc"); ok {
		t.Error("entry survived cache clear")
	}
}

func TestCacheLocation(t *testing.T) {
	tests := []struct {
		name string
		opts cache.Options
		want string
	}{
		{"file dir", cache.Options{Backend: cache.BackendFile, Dir: "/tmp/mg"}, "/tmp/mg"},
		{"redis", cache.Options{Backend: cache.BackendRedis, RedisAddr: "localhost:6379", RedisDB: 2}, "redis://localhost:6379/2"},
		{"mongo hides password", cache.Options{
			Backend: cache.BackendMongo, MongoURI: "mongodb://app:secret@db:27017",
			MongoDatabase: "mindgraph", MongoCollection: "cache",
		}, "mongodb://app:xxxxx@db:27017 (mindgraph.cache)"},
		{"none", cache.Options{Backend: cache.BackendNone}, "none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cacheLocation(tt.opts); got != tt.want {
				t.Errorf("cacheLocation() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatsLine(t *testing.T) {
	fresh := statsLine(generate.Stats{TreeNodes: 12, DiagramNodes: 5, InputTokens: 800, OutputTokens: 40})
	for _, want := range []string{"12 ideas", "5 steps", "840 tokens", "fresh"} {
		if !strings.Contains(fresh, want) {
			t.Errorf("statsLine() = %q, missing %q", fresh, want)
		}
	}
	cached := statsLine(generate.Stats{TreeNodes: 3, CacheHits: 1})
	if !strings.Contains(cached, "cached") || strings.Contains(cached, "steps") {
		t.Errorf("statsLine() = %q", cached)
	}
}

// =============================================================================
// explore model
// =============================================================================

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m exploreModel, keys ...string) exploreModel {
	for _, k := range keys {
		next, _ := m.Update(keyMsg(k))
		m = next.(exploreModel)
	}
	return m
}

func names(m exploreModel) []string {
	out := make([]string, len(m.nodes))
	for i, n := range m.nodes {
		out[i] = n.Name
	}
	return out
}

func TestExploreToggle(t *testing.T) {
	m := newExploreModel(mindmap.New(waterCycle().Root), filepath.Join(t.TempDir(), "view.svg"))
	if got := strings.Join(names(m), ","); got != "Water Cycle,Evaporation,Heat,Condensation,Precipitation" {
		t.Fatalf("initial outline = %s", got)
	}

	m = press(m, "j", "j", "enter")
	if got := strings.Join(names(m), ","); got != "Water Cycle,Evaporation,Heat,Sunlight,Condensation,Precipitation" {
		t.Errorf("after expanding Heat = %s", got)
	}
	if m.nodes[m.cursor].Name != "Heat" {
		t.Errorf("cursor on %q, want Heat", m.nodes[m.cursor].Name)
	}

	m = press(m, "up", "enter")
	if got := strings.Join(names(m), ","); got != "Water Cycle,Evaporation,Condensation,Precipitation" {
		t.Errorf("after collapsing Evaporation = %s", got)
	}
	if !strings.Contains(m.status, "2 left") {
		t.Errorf("status = %q, want two exiting nodes", m.status)
	}

	m = press(m, "enter")
	if got := strings.Join(names(m), ","); got != "Water Cycle,Evaporation,Heat,Sunlight,Condensation,Precipitation" {
		t.Errorf("re-expanding Evaporation should restore Heat expanded, got %s", got)
	}
}

func TestExploreLeafAndBounds(t *testing.T) {
	m := newExploreModel(mindmap.New(waterCycle().Root), filepath.Join(t.TempDir(), "view.svg"))
	m = press(m, "up", "up")
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
	m = press(m, "j", "j", "j", "j", "j", "j", "j")
	if m.cursor != len(m.nodes)-1 {
		t.Errorf("cursor = %d, want last", m.cursor)
	}

	before := len(m.nodes)
	m = press(m, "enter")
	if len(m.nodes) != before || !strings.Contains(m.status, "no sub-ideas") {
		t.Errorf("toggling a leaf changed the outline: %v %q", names(m), m.status)
	}
}

func TestExploreWrite(t *testing.T) {
	out := filepath.Join(t.TempDir(), "view.svg")
	m := newExploreModel(mindmap.New(waterCycle().Root), out)
	m = press(m, "j", "j", "enter", "w")

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if m.written != 1 || !strings.Contains(string(data), ">Sunlight</text>") {
		t.Errorf("written = %d, snapshot missing the expanded node", m.written)
	}
	if view := m.View(); !strings.Contains(view, "Sunlight") || !strings.Contains(view, "visible of 6") {
		t.Errorf("View() = %q", view)
	}
}

func TestRetryArgs(t *testing.T) {
	tests := []struct {
		opts generateOpts
		want string
	}{
		{generateOpts{topic: "The water cycle"}, `"The water cycle"`},
		{generateOpts{doc: "notes.pdf"}, `--doc "notes.pdf"`},
		{generateOpts{topic: "Rain", doc: "a b.txt"}, `"Rain" --doc "a b.txt"`},
	}
	for _, tt := range tests {
		if got := retryArgs(tt.opts); got != tt.want {
			t.Errorf("retryArgs(%+v) = %s, want %s", tt.opts, got, tt.want)
		}
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{context.Canceled, ExitInterrupted},
		{errs.New(errs.ErrCodeInvalidConfig, "provider"), ExitUsage},
		{errs.New(errs.ErrCodeUnsupportedFile, "docx"), ExitUsage},
		{errs.New(errs.ErrCodeRateLimited, "busy"), ExitUnavailable},
		{context.DeadlineExceeded, ExitUnavailable},
		{errs.New(errs.ErrCodeContractViolation, "shape"), ExitFailure},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestVerboseFlag(t *testing.T) {
	isolate(t)
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs([]string{"--verbose", "cache", "path"})
	root.SetOut(io.Discard)
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.Logger.GetLevel() != LogDebug {
		t.Errorf("level = %v, want debug", c.Logger.GetLevel())
	}
}

func TestRenderExample(t *testing.T) {
	src, err := filepath.Abs(filepath.Join("..", "..", "examples", "water-cycle"))
	if err != nil {
		t.Fatal(err)
	}
	dir := isolate(t)
	out := filepath.Join(dir, "out")
	if err := execute(t, "--config", filepath.Join(src, "mindgraph.yaml"), "render", src, "--out", out); err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, name := range []string{mindMapSVG, mindMapJSON, logicSVG, logicJSON} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
	svg, _ := os.ReadFile(filepath.Join(out, logicSVG))
	if !strings.Contains(string(svg), "Yes") || !strings.Contains(string(svg), "No") {
		t.Error("logic.svg missing the branch labels")
	}
}

func TestWatchInputs(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, mindMapJSON)
	if err := graph.WriteMindMapFile(waterCycle(), path); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rendered := make(chan struct{}, 4)
	done := make(chan error, 1)
	c := New(io.Discard, LogInfo)
	go func() {
		done <- c.watchInputs(ctx, dir, func(context.Context) error {
			rendered <- struct{}{}
			return nil
		})
	}()

	// Give the watcher time to register, then rewrite the same content:
	// nothing changed, so nothing renders.
	time.Sleep(100 * time.Millisecond)
	if err := graph.WriteMindMapFile(waterCycle(), path); err != nil {
		t.Fatal(err)
	}
	select {
	case <-rendered:
		t.Fatal("rendered although the input did not change")
	case <-time.After(3 * watchDebounce):
	}

	changed := waterCycle()
	changed.Root.Children = append(changed.Root.Children, &graph.MindMapNode{Name: "Collection"})
	if err := graph.WriteMindMapFile(changed, path); err != nil {
		t.Fatal(err)
	}
	select {
	case <-rendered:
	case <-time.After(5 * time.Second):
		t.Fatal("no render after the input changed")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("watchInputs = %v", err)
	}
}
