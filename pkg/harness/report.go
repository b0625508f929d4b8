package harness

import (
	"time"

	"github.com/rulebench/rulebench/pkg/fixture"
)

// Status classifies the outcome of one evaluated case.
type Status int

const (
	// StatusPassed means the engine's verdict matched the declaration.
	StatusPassed Status = iota
	// StatusFailed means the verdict (or fixed text) did not match.
	StatusFailed
	// StatusTimeout means the evaluation exceeded the per-case bound.
	StatusTimeout
	// StatusSkipped means the case never ran because the run stopped early.
	StatusSkipped
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusTimeout:
		return "timeout"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// CaseResult records the outcome of one case.
type CaseResult struct {
	Name    string
	Mode    string
	Status  Status
	Detail  string
	Elapsed time.Duration
}

// Report is the outcome of one run over a suite. Results are ordered by
// declaration order of the cases, not completion order.
type Report struct {
	Source   string
	Rule     string
	Results  []CaseResult
	Started  time.Time
	Duration time.Duration
}

// Counts tallies results by status.
func (r *Report) Counts() (passed, failed, timedOut, skipped int) {
	for _, res := range r.Results {
		switch res.Status {
		case StatusPassed:
			passed++
		case StatusFailed:
			failed++
		case StatusTimeout:
			timedOut++
		case StatusSkipped:
			skipped++
		}
	}
	return passed, failed, timedOut, skipped
}

// Failed reports whether any case did not pass. Skipped cases count as
// failures for exit-status purposes: the suite was not fully verified.
func (r *Report) Failed() bool {
	for _, res := range r.Results {
		if res.Status != StatusPassed {
			return true
		}
	}
	return false
}

// Failing returns the results that did not pass, in declaration order.
func (r *Report) Failing() []CaseResult {
	var out []CaseResult
	for _, res := range r.Results {
		if res.Status != StatusPassed {
			out = append(out, res)
		}
	}
	return out
}

func newResult(c fixture.Case, status Status, detail string, elapsed time.Duration) CaseResult {
	return CaseResult{
		Name:    c.Name,
		Mode:    c.Expect.Mode().String(),
		Status:  status,
		Detail:  detail,
		Elapsed: elapsed,
	}
}
