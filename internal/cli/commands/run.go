package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/rulebench/rulebench/internal/cli/output"
	"github.com/rulebench/rulebench/internal/state"
	"github.com/rulebench/rulebench/pkg/fixture"
	"github.com/rulebench/rulebench/pkg/harness"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Path      string // Fixture file or directory
	Rule      string // Rule ID to evaluate
	Format    string // Output format override
	Timeout   time.Duration
	Jobs      int
	FailFast  bool
	NoHistory bool
	Watch     bool
	EngineCmd string
	EngineURL string
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}
	cmd := &cobra.Command{
		Use:   "run [path]",
		Short: "Run fixture suites against the rule engine",
		Long: `Evaluate every case of the given fixture file (or every fixture file
in a directory) against the configured rule engine, and check each case's
declared outcome: pass cases must be clean, fail cases must violate, and
a declared fix must match the engine's auto-fixed SQL exactly.

Results are reported in declaration order. The command exits non-zero
when any case fails.`,
		Example: `  # Run every suite in the fixtures directory
  rulebench run --rule L048

  # Run a single suite against a local engine binary
  rulebench run fixtures/L048.yml --rule L048 --engine-cmd sqlfluff-shim

  # Re-run automatically when fixtures change
  rulebench run fixtures/L048.yml --rule L048 --watch

  # Machine-readable output
  rulebench run --rule L048 --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.Path = args[0]
			}
			return runFixtures(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Rule, "rule", "", "Rule ID to evaluate, e.g. L048")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json, markdown")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "Per-case evaluation timeout")
	cmd.Flags().IntVar(&opts.Jobs, "jobs", 0, "Number of cases to evaluate concurrently")
	cmd.Flags().BoolVar(&opts.FailFast, "fail-fast", false, "Stop after the first failing case")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "Do not record this run in the state store")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Watch fixtures and re-run on changes")
	cmd.Flags().StringVar(&opts.EngineCmd, "engine-cmd", "", "Rule engine binary (overrides config)")
	cmd.Flags().StringVar(&opts.EngineURL, "engine-url", "", "Rule engine HTTP endpoint (overrides config)")

	return cmd
}

func runFixtures(cmd *cobra.Command, opts *RunOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer
	if opts.Format != "" {
		mode, err := output.ParseMode(opts.Format)
		if err != nil {
			return err
		}
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)
	}

	rule := opts.Rule
	if rule == "" {
		rule = cfg.Rule
	}
	if rule == "" {
		return fmt.Errorf("no rule specified: set rule in rulebench.yaml or pass --rule")
	}

	files, err := collectFixtureFiles(opts.Path, cfg)
	if err != nil {
		return err
	}

	eng, err := buildEngine(cfg, opts.EngineCmd, opts.EngineURL)
	if err != nil {
		return err
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = cfg.Timeout
	}
	jobs := opts.Jobs
	if jobs == 0 {
		jobs = cfg.Jobs
	}

	runner := harness.New(eng,
		harness.WithWorkers(jobs),
		harness.WithCaseTimeout(timeout),
		harness.WithDefaults(cfg.Defaults),
		harness.WithFailFast(opts.FailFast),
		harness.WithLogger(cmdCtx.Logger),
	)

	var store *state.Store
	if !opts.NoHistory && !cfg.NoHistory {
		store, err = openStore(cfg)
		if err != nil {
			// History is a convenience; a broken store must not block runs.
			cmdCtx.Logger.Warn("run history disabled", "error", err)
		} else {
			defer store.Close()
		}
	}

	runAll := func(ctx context.Context) (bool, error) {
		anyFailed := false
		for _, f := range files {
			suite, err := fixture.Load(f)
			if err != nil {
				return true, err
			}

			report, err := runner.Run(ctx, suite, rule)
			if report != nil {
				if renderErr := r.Report(report); renderErr != nil {
					return true, renderErr
				}
				if store != nil {
					recordRun(cmdCtx.Logger, store, report, eng.Name())
				}
			}
			if err != nil {
				return true, err
			}
			if report.Failed() {
				anyFailed = true
			}
		}
		return anyFailed, nil
	}

	ctx := cmd.Context()
	if opts.Watch {
		return watchAndRun(ctx, cmdCtx.Logger, r, files, runAll)
	}

	failed, err := runAll(ctx)
	if err != nil {
		return err
	}
	if failed {
		return fmt.Errorf("fixture failures found")
	}
	return nil
}

// recordRun persists a report, logging rather than failing on error.
func recordRun(logger *slog.Logger, store *state.Store, report *harness.Report, engineName string) {
	rows := make([]state.CaseRow, len(report.Results))
	for i, res := range report.Results {
		rows[i] = state.CaseRow{
			Name:    res.Name,
			Mode:    res.Mode,
			Status:  res.Status.String(),
			Detail:  res.Detail,
			Elapsed: res.Elapsed,
		}
	}

	_, err := store.RecordRun(state.RunRecord{
		Source:    report.Source,
		Rule:      report.Rule,
		Engine:    engineName,
		StartedAt: report.Started,
		Duration:  report.Duration,
		Cases:     rows,
	})
	if err != nil {
		logger.Warn("failed to record run history", "error", err)
	}
}
