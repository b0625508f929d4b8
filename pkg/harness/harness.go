package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rulebench/rulebench/pkg/engine"
	"github.com/rulebench/rulebench/pkg/fixture"
)

// Defaults applied when options are not set.
const (
	DefaultWorkers     = 4
	DefaultCaseTimeout = 30 * time.Second
)

// errStopRun cancels the group after a mismatch when fail-fast is on.
// It is stripped before Run returns.
var errStopRun = errors.New("stopping after first failure")

// Runner evaluates fixture suites against a rule engine. Cases run
// independently on a bounded worker pool; reported results always follow
// declaration order.
type Runner struct {
	engine      engine.Engine
	workers     int
	caseTimeout time.Duration
	defaults    map[string]any
	failFast    bool
	logger      *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers bounds how many cases evaluate concurrently.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithCaseTimeout bounds each single evaluation.
func WithCaseTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.caseTimeout = d
		}
	}
}

// WithDefaults sets harness-wide configuration sent with every
// evaluation. Per-case overrides win key by key.
func WithDefaults(cfg map[string]any) Option {
	return func(r *Runner) { r.defaults = cfg }
}

// WithFailFast stops scheduling new cases after the first mismatch.
func WithFailFast(on bool) Option {
	return func(r *Runner) { r.failFast = on }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Runner for the given engine.
func New(eng engine.Engine, opts ...Option) *Runner {
	r := &Runner{
		engine:      eng,
		workers:     DefaultWorkers,
		caseTimeout: DefaultCaseTimeout,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run evaluates every case of the suite against rule. The returned
// report is complete (one result per case, declaration order) even when
// the run stops early; cases that never ran are marked skipped.
//
// A non-nil error means the run itself broke down: the engine became
// unavailable, or ctx was cancelled. Per-case mismatches and timeouts
// are recorded in the report, not returned as errors.
func (r *Runner) Run(ctx context.Context, suite *fixture.Suite, rule string) (*Report, error) {
	report := &Report{
		Source:  suite.Source,
		Rule:    rule,
		Results: make([]CaseResult, suite.Len()),
		Started: time.Now().UTC(),
	}

	r.logger.Debug("starting run",
		slog.String("source", suite.Source),
		slog.String("rule", rule),
		slog.String("engine", r.engine.Name()),
		slog.Int("cases", suite.Len()))

	done := make([]bool, suite.Len())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, c := range suite.Cases {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := r.evaluate(gctx, c, rule)
			report.Results[i] = res
			done[i] = true
			if err != nil {
				return err
			}
			if r.failFast && res.Status == StatusFailed {
				return errStopRun
			}
			return nil
		})
	}

	err := g.Wait()
	report.Duration = time.Since(report.Started)

	// Cases that never started (cancelled or fail-fast) are skipped.
	for i := range report.Results {
		if !done[i] {
			report.Results[i] = newResult(suite.Cases[i], StatusSkipped, "run stopped before this case", 0)
		}
	}

	switch {
	case errors.Is(err, errStopRun):
		err = nil
	case errors.Is(err, engine.ErrUnavailable):
		r.logger.Error("rule engine unavailable", slog.Any("error", err))
	}

	passed, failed, timedOut, skipped := report.Counts()
	r.logger.Info("run finished",
		slog.Int("passed", passed),
		slog.Int("failed", failed),
		slog.Int("timeout", timedOut),
		slog.Int("skipped", skipped),
		slog.Duration("duration", report.Duration))

	return report, err
}

// evaluate runs one case. The returned error is non-nil only for
// conditions fatal to the whole run.
func (r *Runner) evaluate(ctx context.Context, c fixture.Case, rule string) (CaseResult, error) {
	cctx, cancel := context.WithTimeout(ctx, r.caseTimeout)
	defer cancel()

	start := time.Now()
	verdict, err := r.engine.Evaluate(cctx, engine.Request{
		SQL:    c.Expect.SQL(),
		Rule:   rule,
		Config: mergeConfig(r.defaults, c.Overrides),
	})
	elapsed := time.Since(start)

	switch {
	case err == nil:
	case errors.Is(err, engine.ErrUnavailable):
		return newResult(c, StatusSkipped, "rule engine unavailable", elapsed), err
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		r.logger.Warn("case timed out", slog.String("case", c.Name), slog.Duration("limit", r.caseTimeout))
		return newResult(c, StatusTimeout, fmt.Sprintf("evaluation exceeded %s", r.caseTimeout), elapsed), nil
	case ctx.Err() != nil:
		return newResult(c, StatusSkipped, "run cancelled", elapsed), context.Cause(ctx)
	default:
		// Engines report transport problems as ErrUnavailable; anything
		// else is unexpected and treated the same way.
		return newResult(c, StatusSkipped, err.Error(), elapsed), fmt.Errorf("%w: %v", engine.ErrUnavailable, err)
	}

	if detail, ok := checkVerdict(c.Expect, verdict); !ok {
		r.logger.Debug("case mismatch", slog.String("case", c.Name), slog.String("detail", detail))
		return newResult(c, StatusFailed, detail, elapsed), nil
	}
	return newResult(c, StatusPassed, "", elapsed), nil
}

// checkVerdict compares a verdict with the declared expectation. It
// returns a human-readable mismatch description and false when they
// disagree.
func checkVerdict(expect fixture.Expectation, v engine.Verdict) (string, bool) {
	switch expect.Mode() {
	case fixture.ModePass:
		if v.Violated {
			return "expected no violation, but the rule reported one", false
		}
	case fixture.ModeFail:
		if !v.Violated {
			return "expected a violation, but the rule reported none", false
		}
		want, declared := expect.Fix()
		if !declared {
			break
		}
		if !v.Fixed {
			return "expected an auto-fix, but the rule produced none", false
		}
		if v.FixedSQL != want {
			return fmt.Sprintf("fixed SQL mismatch\nexpected: %q\nactual:   %q", want, v.FixedSQL), false
		}
	}
	return "", true
}

// mergeConfig layers per-case overrides on top of harness defaults.
// Specified keys override; unspecified keys inherit.
func mergeConfig(defaults, overrides map[string]any) map[string]any {
	if len(defaults) == 0 && len(overrides) == 0 {
		return nil
	}
	merged := make(map[string]any, len(defaults)+len(overrides))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}
