package genai

import (
	"context"
	"errors"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	errs "github.com/matzehuels/mindgraph/pkg/errors"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAI implements Provider with the Chat Completions API.
type OpenAI struct {
	client *openai.Client
	model  string
}

// OpenAIOption adjusts the go-openai client configuration.
type OpenAIOption func(*openai.ClientConfig)

// WithOpenAITimeout bounds each request.
func WithOpenAITimeout(d time.Duration) OpenAIOption {
	return func(c *openai.ClientConfig) { c.HTTPClient = &http.Client{Timeout: d} }
}

// NewOpenAI returns a provider for model. A non-empty baseURL replaces the
// public endpoint (for proxies and tests).
func NewOpenAI(apiKey, model, baseURL string, opts ...OpenAIOption) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}
}

func (p *OpenAI) Name() string  { return "openai" }
func (p *OpenAI) Model() string { return p.model }

// Complete implements Provider. A schema is sent as a non-strict
// json_schema response format; replies are validated by the caller.
func (p *OpenAI) Complete(ctx context.Context, req Request) (*Response, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	apiReq := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	}
	if req.Schema != nil {
		apiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.Schema.Name,
				Schema: &req.Schema.Definition,
				Strict: false,
			},
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return nil, classifyOpenAI(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return nil, errs.New(errs.ErrCodeGenerationFailed, "openai returned no choices")
	}
	return &Response{
		Content:      resp.Choices[0].Message.Content,
		Model:        resp.Model,
		FinishReason: string(resp.Choices[0].FinishReason),
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

func classifyOpenAI(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return errs.Wrap(errs.ErrCodeTimeout, err, "the AI service did not answer in time")
	}
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	default:
		return errs.Wrap(errs.ErrCodeNetwork, err, "could not reach the AI service")
	}
	return classifyStatus(status, err)
}

// classifyStatus maps an upstream HTTP status to an error code.
func classifyStatus(status int, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return errs.Wrap(errs.ErrCodeRateLimited, err, "the AI service is rate limiting requests, try again shortly")
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return errs.Wrap(errs.ErrCodeTimeout, err, "the AI service did not answer in time")
	case status >= 500:
		return errs.Wrap(errs.ErrCodeNetwork, err, "the AI service is unavailable")
	default:
		return errs.Wrap(errs.ErrCodeGenerationFailed, err, "the AI service rejected the request")
	}
}
