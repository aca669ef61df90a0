package genai

import (
	"net/http"
	"os"
	"time"

	errs "github.com/matzehuels/mindgraph/pkg/errors"
)

// Provider names accepted by NewProvider.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config selects and configures a provider.
type Config struct {
	Provider string
	Model    string
	APIKey   string // empty means read the provider's environment variable
	BaseURL  string
	Timeout  time.Duration // per request; zero means no client timeout
}

// APIKeyEnv returns the environment variable holding the key for provider.
func APIKeyEnv(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	}
	return ""
}

// NewProvider creates the provider named by cfg.Provider.
func NewProvider(cfg Config) (Provider, error) {
	env := APIKeyEnv(cfg.Provider)
	if env == "" {
		return nil, errs.New(errs.ErrCodeInvalidConfig, "unsupported AI provider %q (want %s or %s)",
			cfg.Provider, ProviderOpenAI, ProviderGemini)
	}
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv(env)
	}
	if key == "" {
		return nil, errs.New(errs.ErrCodeInvalidConfig, "%s is not set", env)
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		var opts []OpenAIOption
		if cfg.Timeout > 0 {
			opts = append(opts, WithOpenAITimeout(cfg.Timeout))
		}
		return NewOpenAI(key, cfg.Model, cfg.BaseURL, opts...), nil
	default:
		var opts []GeminiOption
		if cfg.Timeout > 0 {
			opts = append(opts, WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
		}
		return NewGemini(key, cfg.Model, cfg.BaseURL, opts...), nil
	}
}
