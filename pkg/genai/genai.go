package genai

import (
	"context"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// Role is the author of a message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one turn of the prompt.
type Message struct {
	Role    Role
	Content string
}

// Schema constrains the reply to one JSON document.
type Schema struct {
	Name       string
	Definition jsonschema.Definition
}

// Request is a single completion request.
type Request struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int     // zero means provider default
	Schema      *Schema // nil means free text
}

// Response is the reply to a Request.
type Response struct {
	Content      string
	Model        string
	FinishReason string
	InputTokens  int
	OutputTokens int
}

// Provider is a hosted model.
type Provider interface {
	// Complete sends req and returns the reply.
	Complete(ctx context.Context, req Request) (*Response, error)
	// Name identifies the service ("openai", "gemini").
	Name() string
	// Model is the model every request is sent to.
	Model() string
}

// System and User build messages.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }
func User(content string) Message   { return Message{Role: RoleUser, Content: content} }
