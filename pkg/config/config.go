// Package config loads mindgraph settings.
//
// Values are layered: [DefaultConfig], then an optional file
// (mindgraph.yaml, mindgraph.yml or mindgraph.toml), then MINDGRAPH_*
// environment variables. A double underscore in a variable name separates
// sections, so MINDGRAPH_CACHE__BACKEND sets cache.backend.
package config

import (
	"net/url"
	"time"

	"github.com/matzehuels/mindgraph/pkg/cache"
	"github.com/matzehuels/mindgraph/pkg/genai"
)

// Config is the complete configuration.
type Config struct {
	Provider string   `koanf:"provider" yaml:"provider" validate:"oneof=openai gemini"`
	Model    string   `koanf:"model" yaml:"model,omitempty"`
	APIKey   string   `koanf:"api_key" yaml:"api_key,omitempty"`
	BaseURL  string   `koanf:"base_url" yaml:"base_url,omitempty" validate:"omitempty,url"`
	Timeout  Duration `koanf:"timeout" yaml:"timeout" validate:"gte=0"`
	Breaker  bool     `koanf:"breaker" yaml:"breaker"`

	Cache    CacheConfig    `koanf:"cache" yaml:"cache"`
	Server   ServerConfig   `koanf:"server" yaml:"server"`
	Viewport ViewportConfig `koanf:"viewport" yaml:"viewport"`
}

// CacheConfig selects the reply cache.
type CacheConfig struct {
	Backend string   `koanf:"backend" yaml:"backend" validate:"oneof=file redis mongo none"`
	Dir     string   `koanf:"dir" yaml:"dir,omitempty"`
	TTL     Duration `koanf:"ttl" yaml:"ttl" validate:"gte=0"`
	// Prefix scopes every key, so deployments can share one server.
	Prefix string `koanf:"prefix" yaml:"prefix,omitempty"`

	Redis RedisConfig `koanf:"redis" yaml:"redis"`
	Mongo MongoConfig `koanf:"mongo" yaml:"mongo"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr" yaml:"addr"`
	Password string `koanf:"password" yaml:"password,omitempty"`
	DB       int    `koanf:"db" yaml:"db" validate:"gte=0"`
}

type MongoConfig struct {
	URI        string `koanf:"uri" yaml:"uri"`
	Database   string `koanf:"database" yaml:"database"`
	Collection string `koanf:"collection" yaml:"collection"`
}

// ServerConfig configures `mindgraph serve`.
type ServerConfig struct {
	Addr    string `koanf:"addr" yaml:"addr" validate:"hostname_port"`
	Metrics bool   `koanf:"metrics" yaml:"metrics"`

	// AllowedOrigins are extra origins allowed to fetch from the viewer,
	// with "*" port wildcards, e.g. http://localhost:*.
	AllowedOrigins []string `koanf:"allowed_origins" yaml:"allowed_origins,omitempty" validate:"dive,startswith=http"`
}

// ViewportConfig is the size of the rendered diagrams.
type ViewportConfig struct {
	Width  int `koanf:"width" yaml:"width" validate:"gt=0"`
	Height int `koanf:"height" yaml:"height" validate:"gt=0"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Provider: genai.ProviderOpenAI,
		Timeout:  Duration(90 * time.Second),
		Breaker:  true,
		Cache: CacheConfig{
			Backend: cache.BackendFile,
			TTL:     Duration(7 * 24 * time.Hour),
			Redis:   RedisConfig{Addr: "localhost:6379"},
			Mongo: MongoConfig{
				URI:        "mongodb://localhost:27017",
				Database:   "mindgraph",
				Collection: "cache",
			},
		},
		Server:   ServerConfig{Addr: "127.0.0.1:8080", Metrics: true},
		Viewport: ViewportConfig{Width: 960, Height: 600},
	}
}

// GenAI returns the provider settings.
func (c *Config) GenAI() genai.Config {
	return genai.Config{
		Provider: c.Provider,
		Model:    c.Model,
		APIKey:   c.APIKey,
		BaseURL:  c.BaseURL,
		Timeout:  c.Timeout.Std(),
	}
}

// CacheOptions returns the options for [cache.Open].
func (c *Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:         c.Cache.Backend,
		Dir:             c.Cache.Dir,
		RedisAddr:       c.Cache.Redis.Addr,
		RedisPassword:   c.Cache.Redis.Password,
		RedisDB:         c.Cache.Redis.DB,
		MongoURI:        c.Cache.Mongo.URI,
		MongoDatabase:   c.Cache.Mongo.Database,
		MongoCollection: c.Cache.Mongo.Collection,
	}
}

// Keyer returns the cache keyer, scoped by Cache.Prefix when one is set.
func (c *Config) Keyer() cache.Keyer {
	if c.Cache.Prefix == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(nil, c.Cache.Prefix)
}

// Redacted returns a copy with secrets masked, for display.
func (c *Config) Redacted() *Config {
	out := *c
	if out.APIKey != "" {
		out.APIKey = "********"
	}
	if out.Cache.Redis.Password != "" {
		out.Cache.Redis.Password = "********"
	}
	out.Cache.Mongo.URI = RedactURI(out.Cache.Mongo.URI)
	return &out
}

// RedactURI masks the password of a connection URI. Strings that do not
// parse are returned unchanged.
func RedactURI(s string) string {
	u, err := url.Parse(s)
	if err != nil {
		return s
	}
	return u.Redacted()
}

// Duration is a time.Duration written as "90s" in files and variables.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}
