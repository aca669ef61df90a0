package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/matzehuels/mindgraph/pkg/cache"
	errs "github.com/matzehuels/mindgraph/pkg/errors"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "MINDGRAPH_"

// DotEnvFile is read from the working directory, if present, before the
// environment overlay. Variables already set in the process win, so a .env
// file can hold OPENAI_API_KEY without shadowing an exported key.
var DotEnvFile = ".env"

// FileNames are searched, in order, when no file is given.
var FileNames = []string{"mindgraph.yaml", "mindgraph.yml", "mindgraph.toml"}

// Load builds the configuration from defaults, the file at path and the
// environment. An empty path searches the working directory and then the
// user config directory for [FileNames]; finding none is not an error. A
// path that is given must exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if path == "" {
		path = Find()
	} else if _, err := os.Stat(path); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "config file %s", path)
	}
	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "reading config %s", path)
		}
	}

	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}

	// MINDGRAPH_CACHE__REDIS__ADDR -> cache.redis.addr
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "loading environment overrides")
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "decoding config")
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "reading %s", path)
	}
	return nil
}

// Find returns the first config file found, or "".
func Find() string {
	dirs := []string{"."}
	if d, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(d, "mindgraph"))
	}
	for _, dir := range dirs {
		for _, name := range FileNames {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return ""
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".toml":
		return tomlParser{}, nil
	}
	return nil, errs.New(errs.ErrCodeInvalidConfig, "unsupported config format %s (use .yaml or .toml)", filepath.Ext(path))
}

// tomlParser adapts BurntSushi/toml to koanf.
type tomlParser struct{}

func (tomlParser) Unmarshal(b []byte) (map[string]interface{}, error) {
	var out map[string]interface{}
	if _, err := toml.Decode(string(b), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (tomlParser) Marshal(m map[string]interface{}) ([]byte, error) {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(m); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

var validate = validator.New()

// Validate checks field values and backend requirements.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			e := ve[0]
			return errs.New(errs.ErrCodeInvalidConfig, "invalid %s: %q fails %s", e.Namespace(), fmt.Sprint(e.Value()), e.Tag())
		}
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "invalid config")
	}
	switch c.Cache.Backend {
	case cache.BackendRedis:
		if c.Cache.Redis.Addr == "" {
			return errs.New(errs.ErrCodeInvalidConfig, "cache.redis.addr is required for the redis backend")
		}
	case cache.BackendMongo:
		m := c.Cache.Mongo
		if m.URI == "" || m.Database == "" || m.Collection == "" {
			return errs.New(errs.ErrCodeInvalidConfig, "cache.mongo needs uri, database and collection")
		}
	}
	return nil
}

// YAML renders c as YAML with secrets masked.
func (c *Config) YAML() ([]byte, error) {
	return yamlv3.Marshal(c.Redacted())
}

// Save writes c to path as YAML, secrets included.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}
