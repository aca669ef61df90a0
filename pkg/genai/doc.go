// Package genai talks to the hosted language models that produce mind maps
// and logic diagrams.
//
// A [Provider] turns a [Request] (system and user messages, a sampling
// temperature and an optional JSON schema the reply must follow) into a
// [Response] carrying the raw reply text. Two providers exist:
//
//   - [OpenAI]: the Chat Completions API through github.com/sashabaranov/go-openai,
//     with structured outputs when a schema is given
//   - [Gemini]: the generateContent REST endpoint, with response schemas
//
// [NewProvider] selects one from a [Config]; [WithBreaker] wraps any provider
// in a circuit breaker so a failing upstream is not hammered.
//
// Errors are classified with pkg/errors codes: RATE_LIMITED, TIMEOUT,
// NETWORK_ERROR or GENERATION_FAILED.
package genai
