// SPDX-License-Identifier: Apache-2.0

// Command torah-mcp answers questions about Jewish texts from primary sources
// retrieved through a Sefaria MCP server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/torahmcp/torah-mcp/internal/config"
	"github.com/torahmcp/torah-mcp/internal/logging"
)

var version = "dev"

var (
	// Global flags
	cfgPath string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "torah-mcp",
	Short: "Source-grounded answers to questions about Jewish texts",
	Long: `torah-mcp resolves citations, plans retrieval steps against a Sefaria MCP
server and composes answers that quote the sources it found.

Configuration comes from --config, TORAH_MCP_* variables and the
SEFARIA_MCP_URL / OPENROUTER_* / GEMINI_API_KEY variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Log.Verbose = true
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		logger, err = logging.New(cfg.Log)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.Version = version

	rootCmd.AddCommand(
		resolveCmd,
		explainCmd,
		chavrutaCmd,
		evalCmd,
		serveCmd,
		httpCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
