package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rulebench/rulebench/pkg/fixture"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Check fixture files against the schema",
		Long: `Load fixture files and report every schema problem: ambiguous cases
that declare both pass_str and fail_str, cases declaring neither, fix_str
on a pass case, empty SQL, duplicate names and unknown keys.

No rule engine is needed; nothing is evaluated.`,
		Example: `  # Validate everything in the fixtures directory
  rulebench validate

  # Validate one file
  rulebench validate fixtures/L048.yml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			return runValidate(cmd, path)
		},
	}
	return cmd
}

func runValidate(cmd *cobra.Command, path string) error {
	cmdCtx := NewCommandContext(cmd)

	files, err := collectFixtureFiles(path, cmdCtx.Cfg)
	if err != nil {
		return err
	}

	total := 0
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("failed to read fixture file: %w", err)
		}
		problems := fixture.Check(data, f)
		cmdCtx.Renderer.Problems(f, problems)
		total += len(problems)
	}

	if total > 0 {
		return fmt.Errorf("%d fixture problem(s) found", total)
	}
	return nil
}
