package commands

import (
	"github.com/spf13/cobra"

	"github.com/rulebench/rulebench/internal/cli/output"
	"github.com/rulebench/rulebench/pkg/fixture"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "list [path]",
		Short: "List test cases in fixture files",
		Example: `  # List cases from the fixtures directory
  rulebench list

  # List one suite as JSON
  rulebench list fixtures/L048.yml --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			return runList(cmd, path, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: text, json, markdown")
	return cmd
}

func runList(cmd *cobra.Command, path, format string) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer
	if format != "" {
		mode, err := output.ParseMode(format)
		if err != nil {
			return err
		}
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)
	}

	files, err := collectFixtureFiles(path, cmdCtx.Cfg)
	if err != nil {
		return err
	}

	for _, f := range files {
		suite, err := fixture.Load(f)
		if err != nil {
			return err
		}
		if err := r.Cases(suite); err != nil {
			return err
		}
	}
	return nil
}
