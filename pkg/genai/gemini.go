package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/matzehuels/mindgraph/pkg/buildinfo"
	errs "github.com/matzehuels/mindgraph/pkg/errors"
	"github.com/matzehuels/mindgraph/pkg/httputil"
	"github.com/matzehuels/mindgraph/pkg/observability"
)

// Gemini defaults.
const (
	DefaultGeminiModel   = "gemini-2.0-flash"
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// Gemini implements Provider with the generateContent REST endpoint.
// Rate limits and 5xx replies are retried with backoff.
type Gemini struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client

	backoff httputil.Backoff
}

// GeminiOption configures a Gemini provider.
type GeminiOption func(*Gemini)

// WithRetry sets the attempts and the initial backoff delay.
func WithRetry(attempts int, delay time.Duration) GeminiOption {
	return func(g *Gemini) {
		g.backoff.Attempts, g.backoff.Delay = attempts, delay
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) GeminiOption {
	return func(g *Gemini) { g.client = c }
}

// NewGemini returns a provider for model. An empty baseURL means the public
// endpoint.
func NewGemini(apiKey, model, baseURL string, opts ...GeminiOption) *Gemini {
	if model == "" {
		model = DefaultGeminiModel
	}
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	g := &Gemini{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		backoff: httputil.DefaultBackoff,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gemini) Name() string  { return "gemini" }
func (g *Gemini) Model() string { return g.model }

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature      float64        `json:"temperature"`
	MaxOutputTokens  int            `json:"maxOutputTokens,omitempty"`
	ResponseMIMEType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      *geminiContent `json:"content"`
		FinishReason string         `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	ModelVersion string `json:"modelVersion"`
	Error        *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Complete implements Provider.
func (g *Gemini) Complete(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(g.buildRequest(req))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "encode gemini request")
	}
	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)

	var resp *Response
	err = g.backoff.Do(ctx, func(ctx context.Context) error {
		r, err := g.do(ctx, url, body)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, errs.Wrap(errs.ErrCodeTimeout, err, "the AI service did not answer in time")
		}
		var se *httputil.StatusError
		if errors.As(err, &se) {
			return nil, classifyStatus(se.StatusCode, err)
		}
		if errs.GetCode(err) != "" {
			return nil, err
		}
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "could not reach the AI service")
	}
	return resp, nil
}

func (g *Gemini) buildRequest(req Request) geminiRequest {
	var system []geminiPart
	var contents []geminiContent
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			system = append(system, geminiPart{Text: m.Content})
			continue
		}
		contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: m.Content}}})
	}
	if len(contents) == 0 {
		contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: ""}}})
	}

	out := geminiRequest{
		Contents: contents,
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}
	if len(system) > 0 {
		out.SystemInstruction = &geminiContent{Parts: system}
	}
	if req.Schema != nil {
		out.GenerationConfig.ResponseMIMEType = "application/json"
		out.GenerationConfig.ResponseSchema = geminiSchema(req.Schema.Definition)
	}
	return out
}

func (g *Gemini) do(ctx context.Context, url string, body []byte) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)
	httpReq.Header.Set("User-Agent", buildinfo.UserAgent())

	start := time.Now()
	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		observability.HTTP().OnError(ctx, http.MethodPost, httpReq.URL.Host, err)
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "could not reach the AI service")
	}
	defer httpResp.Body.Close()
	observability.HTTP().OnResponse(ctx, http.MethodPost, httpReq.URL.Host, httpResp.StatusCode, time.Since(start))

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "reading the AI service reply")
	}
	if err := httputil.CheckStatus(httpResp, data); err != nil {
		return nil, err
	}

	var apiResp geminiResponse
	if err := json.Unmarshal(data, &apiResp); err != nil {
		return nil, errs.Wrap(errs.ErrCodeGenerationFailed, err, "the AI service sent an unreadable reply")
	}
	if apiResp.Error != nil {
		return nil, errs.New(errs.ErrCodeGenerationFailed, "gemini: %s: %s", apiResp.Error.Status, apiResp.Error.Message)
	}
	if len(apiResp.Candidates) == 0 || apiResp.Candidates[0].Content == nil {
		return nil, errs.New(errs.ErrCodeGenerationFailed, "gemini returned no candidates")
	}

	var text strings.Builder
	for _, part := range apiResp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	out := &Response{
		Content:      text.String(),
		Model:        g.model,
		FinishReason: apiResp.Candidates[0].FinishReason,
	}
	if apiResp.ModelVersion != "" {
		out.Model = apiResp.ModelVersion
	}
	if u := apiResp.UsageMetadata; u != nil {
		out.InputTokens, out.OutputTokens = u.PromptTokenCount, u.CandidatesTokenCount
	}
	return out, nil
}

// geminiSchema converts d to the OpenAPI subset accepted as a response
// schema: upper-case types and no additionalProperties.
func geminiSchema(d jsonschema.Definition) map[string]any {
	m := map[string]any{}
	if d.Type != "" {
		m["type"] = strings.ToUpper(string(d.Type))
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if len(d.Enum) > 0 {
		m["enum"] = d.Enum
	}
	if len(d.Properties) > 0 {
		props := make(map[string]any, len(d.Properties))
		for k, v := range d.Properties {
			props[k] = geminiSchema(v)
		}
		m["properties"] = props
	}
	if len(d.Required) > 0 {
		m["required"] = d.Required
	}
	if d.Items != nil {
		m["items"] = geminiSchema(*d.Items)
	}
	return m
}
