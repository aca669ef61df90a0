package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mindgraph/pkg/config"
	"github.com/matzehuels/mindgraph/pkg/genai"
)

// configCommand creates the config command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}
	cmd.AddCommand(c.configShowCommand())
	cmd.AddCommand(c.configInitCommand())
	return cmd
}

// configShowCommand prints the effective configuration with secrets masked.
func (c *CLI) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := c.Config.YAML()
			if err != nil {
				return err
			}
			source := c.ConfigPath
			if source == "" {
				source = config.Find()
			}
			if source == "" {
				source = "defaults and environment"
			}
			printKeyValue("source", source)
			if c.Config.APIKey == "" {
				env := genai.APIKeyEnv(c.Config.Provider)
				if os.Getenv(env) == "" {
					printWarning("No API key: set %s or api_key", env)
				} else {
					printKeyValue("api key", "from "+env)
				}
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

// configInitCommand writes the defaults to a new file.
func (c *CLI) configInitCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default mindgraph.yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.FileNames[0]
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				printWarning("%s exists; use --force to overwrite", path)
				return nil
			}
			if err := config.DefaultConfig().Save(path); err != nil {
				return err
			}
			printSuccess("Wrote default configuration")
			printFile(path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
