package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mindgraph/pkg/cache"
	"github.com/matzehuels/mindgraph/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the AI response cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached replies and documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if c.Config.Cache.Backend == cache.BackendNone {
				printInfo("Cache is disabled")
				return nil
			}

			store, err := cache.Open(ctx, c.Config.CacheOptions())
			if err != nil {
				return fmt.Errorf("open %s cache: %w", c.Config.Cache.Backend, err)
			}
			defer store.Close()

			clearer, ok := store.(cache.Clearer)
			if !ok {
				return fmt.Errorf("the %s cache cannot be cleared", c.Config.Cache.Backend)
			}
			if err := clearer.Clear(ctx); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			printSuccess("Cleared the %s cache", c.Config.Cache.Backend)
			printDetail("%s", cacheLocation(c.Config.CacheOptions()))
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the cache lives",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), cacheLocation(c.Config.CacheOptions()))
			return nil
		},
	}
}

// cacheLocation describes where opts points: a directory for the file
// backend, an address or URI otherwise.
func cacheLocation(opts cache.Options) string {
	switch opts.Backend {
	case "", cache.BackendFile:
		if opts.Dir != "" {
			return opts.Dir
		}
		dir, err := cache.DefaultDir()
		if err != nil {
			return "(no user cache directory)"
		}
		return dir
	case cache.BackendRedis:
		return fmt.Sprintf("redis://%s/%d", opts.RedisAddr, opts.RedisDB)
	case cache.BackendMongo:
		return fmt.Sprintf("%s (%s.%s)", config.RedactURI(opts.MongoURI), opts.MongoDatabase, opts.MongoCollection)
	}
	return opts.Backend
}
