package genai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai/jsonschema"

	errs "github.com/matzehuels/mindgraph/pkg/errors"
)

var testSchema = &Schema{
	Name: "mind_map",
	Definition: jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"root": {
				Type:                 jsonschema.Object,
				Properties:           map[string]jsonschema.Definition{"name": {Type: jsonschema.String}},
				Required:             []string{"name"},
				AdditionalProperties: false,
			},
		},
		Required: []string{"root"},
	},
}

func testRequest() Request {
	return Request{
		Messages:    []Message{System("You draw mind maps."), User("Water cycle")},
		Temperature: 0.2,
		Schema:      testSchema,
	}
}

const chatReply = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "model": "gpt-4o-mini-2024-07-18",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"root\":{\"name\":\"Water Cycle\"}}"}, "finish_reason": "stop"}],
  "usage": {"prompt_tokens": 12, "completion_tokens": 9, "total_tokens": 21}
}`

func TestOpenAIComplete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Error(err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, chatReply)
	}))
	defer srv.Close()

	p := NewOpenAI("sk-test", "", srv.URL+"/v1")
	resp, err := p.Complete(context.Background(), testRequest())
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != `{"root":{"name":"Water Cycle"}}` || resp.InputTokens != 12 || resp.FinishReason != "stop" {
		t.Errorf("resp = %+v", resp)
	}

	if got["model"] != DefaultOpenAIModel {
		t.Errorf("model = %v", got["model"])
	}
	format, _ := got["response_format"].(map[string]any)
	if format["type"] != "json_schema" {
		t.Errorf("response_format = %v", format)
	}
	schema, _ := format["json_schema"].(map[string]any)
	if schema["name"] != "mind_map" || schema["strict"] == true {
		t.Errorf("json_schema = %v", schema)
	}
	if msgs, _ := got["messages"].([]any); len(msgs) != 2 {
		t.Errorf("messages = %v", got["messages"])
	}
}

func TestOpenAIErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   errs.Code
	}{
		{"RateLimited", http.StatusTooManyRequests, errs.ErrCodeRateLimited},
		{"ServerError", http.StatusBadGateway, errs.ErrCodeNetwork},
		{"BadRequest", http.StatusBadRequest, errs.ErrCodeGenerationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				io.WriteString(w, `{"error": {"message": "nope", "type": "invalid_request_error"}}`)
			}))
			defer srv.Close()

			_, err := NewOpenAI("sk-test", "gpt-test", srv.URL+"/v1").Complete(context.Background(), testRequest())
			if got := errs.GetCode(err); got != tt.want {
				t.Errorf("code = %q (%v), want %q", got, err, tt.want)
			}
		})
	}
}

const geminiReply = `{
  "candidates": [{"content": {"role": "model", "parts": [{"text": "{\"root\":"}, {"text": "{\"name\":\"Water Cycle\"}}"}]}, "finishReason": "STOP"}],
  "usageMetadata": {"promptTokenCount": 7, "candidatesTokenCount": 11},
  "modelVersion": "gemini-test-001"
}`

func TestGeminiComplete(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	var body geminiRequest
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if r.URL.Path != "/models/gemini-test:generateContent" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "g-key" {
			t.Errorf("api key header = %q", r.Header.Get("x-goog-api-key"))
		}
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &body)
		json.Unmarshal(data, &raw)
		io.WriteString(w, geminiReply)
	}))
	defer srv.Close()

	p := NewGemini("g-key", "gemini-test", srv.URL, WithRetry(3, time.Millisecond))
	resp, err := p.Complete(context.Background(), testRequest())
	if err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (one retry)", calls)
	}
	if resp.Content != `{"root":{"name":"Water Cycle"}}` || resp.Model != "gemini-test-001" || resp.OutputTokens != 11 {
		t.Errorf("resp = %+v", resp)
	}

	if body.SystemInstruction == nil || body.SystemInstruction.Parts[0].Text != "You draw mind maps." {
		t.Errorf("systemInstruction = %+v", body.SystemInstruction)
	}
	if len(body.Contents) != 1 || body.Contents[0].Role != "user" {
		t.Errorf("contents = %+v", body.Contents)
	}
	cfg := raw["generationConfig"].(map[string]any)
	if cfg["responseMimeType"] != "application/json" {
		t.Errorf("generationConfig = %v", cfg)
	}
	schema := cfg["responseSchema"].(map[string]any)
	root := schema["properties"].(map[string]any)["root"].(map[string]any)
	if schema["type"] != "OBJECT" || root["type"] != "OBJECT" {
		t.Errorf("responseSchema = %v", schema)
	}
	if _, ok := root["additionalProperties"]; ok {
		t.Error("additionalProperties sent to gemini")
	}
}

func TestGeminiErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   errs.Code
	}{
		{"RateLimited", http.StatusTooManyRequests, `{}`, errs.ErrCodeRateLimited},
		{"Unavailable", http.StatusServiceUnavailable, `{}`, errs.ErrCodeNetwork},
		{"BadRequest", http.StatusBadRequest, `{"error": {"code": 400, "message": "bad", "status": "INVALID_ARGUMENT"}}`, errs.ErrCodeGenerationFailed},
		{"NoCandidates", http.StatusOK, `{"candidates": []}`, errs.ErrCodeGenerationFailed},
		{"Garbage", http.StatusOK, `not json`, errs.ErrCodeGenerationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			p := NewGemini("g-key", "gemini-test", srv.URL, WithRetry(2, time.Millisecond))
			_, err := p.Complete(context.Background(), testRequest())
			if got := errs.GetCode(err); got != tt.want {
				t.Errorf("code = %q (%v), want %q", got, err, tt.want)
			}
		})
	}
}

func TestGeminiCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	p := NewGemini("g-key", "gemini-test", srv.URL, WithRetry(5, time.Second))
	_, err := p.Complete(ctx, testRequest())
	if !errs.Is(err, errs.ErrCodeTimeout) {
		t.Errorf("err = %v, want TIMEOUT", err)
	}
}

type countingProvider struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingProvider) Name() string  { return "fake" }
func (c *countingProvider) Model() string { return "fake-1" }
func (c *countingProvider) Complete(context.Context, Request) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &Response{Content: "{}"}, nil
}

func TestBreakerOpens(t *testing.T) {
	fake := &countingProvider{err: errs.New(errs.ErrCodeNetwork, "down")}
	cfg := BreakerConfig{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, MinRequests: 2, FailureThreshold: 0.5}
	p := WithBreaker(fake, cfg, nil)

	for range 2 {
		if _, err := p.Complete(context.Background(), Request{}); !errs.Is(err, errs.ErrCodeNetwork) {
			t.Fatalf("err = %v", err)
		}
	}
	_, err := p.Complete(context.Background(), Request{})
	if !errs.Is(err, errs.ErrCodeNetwork) || fake.calls != 2 {
		t.Errorf("open breaker: err = %v, calls = %d; want fast failure after 2 calls", err, fake.calls)
	}
	if p.Name() != "fake" || p.Model() != "fake-1" {
		t.Error("breaker hides the provider identity")
	}
}

func TestBreakerIgnoresRejectedRequests(t *testing.T) {
	fake := &countingProvider{err: errs.New(errs.ErrCodeGenerationFailed, "bad prompt")}
	cfg := BreakerConfig{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, MinRequests: 1, FailureThreshold: 0.1}
	p := WithBreaker(fake, cfg, nil)

	for range 5 {
		p.Complete(context.Background(), Request{})
	}
	if fake.calls != 5 {
		t.Errorf("calls = %d, want 5: rejected requests must not open the breaker", fake.calls)
	}
}

func TestNewProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	if _, err := NewProvider(Config{Provider: "anthropic"}); !errs.Is(err, errs.ErrCodeInvalidConfig) {
		t.Errorf("unknown provider err = %v", err)
	}
	if _, err := NewProvider(Config{Provider: ProviderOpenAI}); !errs.Is(err, errs.ErrCodeInvalidConfig) {
		t.Errorf("missing key err = %v", err)
	}

	t.Setenv("GEMINI_API_KEY", "from-env")
	p, err := NewProvider(Config{Provider: ProviderGemini, Timeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	if g := p.(*Gemini); g.apiKey != "from-env" || g.Model() != DefaultGeminiModel {
		t.Errorf("gemini = %+v", g)
	}

	p, err = NewProvider(Config{Provider: ProviderOpenAI, APIKey: "explicit", Model: "gpt-x"})
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != "openai" || p.Model() != "gpt-x" {
		t.Errorf("provider = %s/%s", p.Name(), p.Model())
	}
}

func TestClassifyStatus(t *testing.T) {
	base := errors.New("upstream")
	if got := errs.GetCode(classifyStatus(http.StatusGatewayTimeout, base)); got != errs.ErrCodeTimeout {
		t.Errorf("504 = %q", got)
	}
	if err := classifyStatus(http.StatusTooManyRequests, base); !errors.Is(err, base) {
		t.Error("cause lost")
	}
}
