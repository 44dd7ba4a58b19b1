// Package commands defines all Cobra CLI commands for the faqbot binary.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/faqops/faqbot-go/internal/audit"
	"github.com/faqops/faqbot-go/internal/config"
	"github.com/faqops/faqbot-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "faqbot",
		Short: "faqbot — FAQ question answering over a vector-indexed knowledge base",
		Long: `faqbot answers natural language questions against an indexed FAQ dataset.

Questions are embedded, matched against the closest FAQ entries in a Qdrant
collection, and answered by a chat model grounded in the retrieved entries.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.faqbot/config.yaml).
See 'faqbot --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// .env is optional; absence is not an error.
			_ = godotenv.Load()

			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.faqbot/config.yaml)")

	root.AddCommand(
		NewChatCmd(),
		NewIndexCmd(),
		NewServeCmd(),
		NewVersionCmd(),
	)

	return root
}
