package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mindgraph/internal/server"
	"github.com/matzehuels/mindgraph/pkg/observability"
	"github.com/matzehuels/mindgraph/pkg/session"
)

const metricsNamespace = "mindgraph"

// serveCommand creates the serve command, which runs the local viewer.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local browser viewer",
		Long: `Serve starts the viewer on a loopback address. Views live in memory and are
gone when the process exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			p, err := c.newPipeline(ctx, noCache)
			if err != nil {
				return err
			}
			defer p.Close()

			cfg := server.DefaultConfig()
			cfg.Addr = c.Config.Server.Addr
			if addr != "" {
				cfg.Addr = addr
			}
			cfg.Width, cfg.Height = c.Config.Viewport.Width, c.Config.Viewport.Height
			cfg.MaxViews = session.DefaultMaxViews
			cfg.AllowedOrigins = c.Config.Server.AllowedOrigins
			if t := c.Config.Timeout.Std(); t > 0 {
				cfg.RequestTimeout = t + 30*time.Second
			}

			if c.Config.Server.Metrics {
				prom := observability.NewPrometheus(metricsNamespace)
				defer observability.Install(prom)()
				cfg.Metrics = prom.Handler()
			}

			srv := server.New(cfg, p.gen, p.docs, logger)
			printInfo("Viewer at %s", StyleHighlight.Render("http://"+cfg.Addr))
			printDetail("Provider: %s  Cache: %s", c.Config.Provider, c.Config.Cache.Backend)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the response cache")
	return cmd
}
