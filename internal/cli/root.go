// Package cli provides the command-line interface for rulebench.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rulebench/rulebench/internal/cli/commands"
	"github.com/rulebench/rulebench/internal/cli/config"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rulebench",
		Short: "rulebench - fixture harness for SQL lint rules",
		Long: `rulebench runs declarative YAML fixtures against an external SQL rule
engine. Each fixture names a test case and declares either SQL that must
pass a rule, or SQL that must fail it - optionally with the exact
auto-fixed SQL the engine is expected to produce.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			config.SetCurrentConfig(cfg)

			logger := config.NewLogger(cfg.Verbose)
			cmd.SetContext(config.WithLogger(cmd.Context(), logger))

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Changed persistent flags override file and env values in the
	// config loader.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./rulebench.yaml)")
	rootCmd.PersistentFlags().String("fixtures-dir", "", "Path to fixtures directory")
	rootCmd.PersistentFlags().String("state", "", "Path to the run-history database")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format: auto, text, json, markdown")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(
		commands.NewRunCommand(),
		commands.NewValidateCommand(),
		commands.NewListCommand(),
		commands.NewHistoryCommand(),
		commands.NewVersionCommand(Version),
	)

	return rootCmd
}

// Execute runs the root command with the given context.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
