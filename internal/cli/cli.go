package cli

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mindgraph/pkg/buildinfo"
	"github.com/matzehuels/mindgraph/pkg/cache"
	"github.com/matzehuels/mindgraph/pkg/config"
	"github.com/matzehuels/mindgraph/pkg/document"
	errs "github.com/matzehuels/mindgraph/pkg/errors"
	"github.com/matzehuels/mindgraph/pkg/genai"
	"github.com/matzehuels/mindgraph/pkg/generate"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "mindgraph"

	// documentTTL is how long extracted document text stays cached.
	documentTTL = 24 * time.Hour
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath is the --config flag; empty searches the default locations.
	ConfigPath string
	// Verbose is the --verbose flag.
	Verbose bool
	// Config is loaded before any subcommand runs.
	Config *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.DefaultConfig(),
	}
}

// SetLogLevel updates the logger's level. Debug also reports callers.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	c.Logger.SetReportCaller(level <= log.DebugLevel)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "mindgraph turns a topic or a document into an interactive mind map",
		Long:         `mindgraph asks an AI provider for a mind map and an optional logic diagram of a topic or document, and renders both as interactive SVG.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.Verbose {
				c.SetLogLevel(LogDebug)
			}
			if err := c.loadConfig(); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default: ./mindgraph.yaml or the user config dir)")
	root.PersistentFlags().BoolVarP(&c.Verbose, "verbose", "v", false, "log debug output")

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// Process exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2   // bad input, flags or configuration
	ExitUnavailable = 69  // the AI service could not be reached; worth retrying
	ExitInterrupted = 130 // SIGINT
)

// ExitCode maps the error returned by the root command to an exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errs.IsRetryable(err):
		return ExitUnavailable
	}
	switch errs.GetCode(err) {
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidConfig, errs.ErrCodeUnsupportedFile:
		return ExitUsage
	}
	return ExitFailure
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.Config = cfg
	return nil
}

// =============================================================================
// Generator Factory
// =============================================================================

// pipeline bundles what a generating command needs.
type pipeline struct {
	gen   *generate.Generator
	docs  *document.Extractor
	cache cache.Cache
}

func (p *pipeline) Close() error { return p.cache.Close() }

// newPipeline wires provider, cache and extractor from the loaded config.
func (c *CLI) newPipeline(ctx context.Context, noCache bool) (*pipeline, error) {
	provider, err := genai.NewProvider(c.Config.GenAI())
	if err != nil {
		return nil, err
	}
	if c.Config.Breaker {
		provider = genai.WithBreaker(provider, genai.DefaultBreakerConfig(), c.Logger)
	}

	store, err := c.openCache(ctx, noCache)
	if err != nil {
		return nil, err
	}

	keyer := c.Config.Keyer()
	gen := generate.New(provider, store, keyer, c.Logger)
	gen.TTL = c.Config.Cache.TTL.Std()
	return &pipeline{
		gen:   gen,
		docs:  document.NewExtractor(store, keyer, documentTTL, c.Logger),
		cache: store,
	}, nil
}

// openCache opens the configured backend. An unreachable backend degrades
// to no caching rather than failing the command.
func (c *CLI) openCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	store, err := cache.Open(ctx, c.Config.CacheOptions())
	if err != nil {
		var unknown *cache.UnknownBackendError
		if errors.As(err, &unknown) {
			return nil, err
		}
		c.Logger.Warn("cache unavailable, continuing without it", "backend", c.Config.Cache.Backend, "error", err)
		return cache.NewNullCache(), nil
	}
	return cache.Observe(store), nil
}
