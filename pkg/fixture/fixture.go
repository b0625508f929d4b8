package fixture

import "fmt"

// Mode indicates the declared outcome of a test case.
type Mode int

const (
	// ModePass declares that the SQL must produce no violation.
	ModePass Mode = iota
	// ModeFail declares that the SQL must produce a violation.
	ModeFail
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModePass:
		return "pass"
	case ModeFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Expectation is a tagged variant over the two fixture shapes: a passing
// SQL string, or a failing SQL string with an optional expected fix.
// Constructing it through Pass or Fail makes the pass/fail exclusivity
// structural instead of a pair of nullable fields checked at runtime.
type Expectation struct {
	mode   Mode
	sql    string
	fix    string
	hasFix bool
}

// Pass builds an expectation that the SQL produces no violation.
func Pass(sql string) Expectation {
	return Expectation{mode: ModePass, sql: sql}
}

// Fail builds an expectation that the SQL produces a violation,
// without asserting anything about the fixed output.
func Fail(sql string) Expectation {
	return Expectation{mode: ModeFail, sql: sql}
}

// FailWithFix builds an expectation that the SQL produces a violation
// and that the auto-fixer rewrites it to exactly fixed.
func FailWithFix(sql, fixed string) Expectation {
	return Expectation{mode: ModeFail, sql: sql, fix: fixed, hasFix: true}
}

// Mode returns whether the case expects a pass or a fail.
func (e Expectation) Mode() Mode { return e.mode }

// SQL returns the SQL text under test.
func (e Expectation) SQL() string { return e.sql }

// Fix returns the expected auto-fixed SQL and whether one was declared.
// A fix is only ever present on fail expectations.
func (e Expectation) Fix() (string, bool) { return e.fix, e.hasFix }

// Case is a single named test case. Cases are built once at load time
// and never mutated afterwards.
type Case struct {
	Name   string
	Expect Expectation

	// Overrides holds per-case configuration flattened to dotted keys
	// (e.g. "core.dialect" -> "bigquery"). Nil means harness defaults.
	Overrides map[string]any
}

// Dialect returns the per-case dialect override, if any.
func (c Case) Dialect() (string, bool) {
	v, ok := c.Overrides["core.dialect"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Suite is an ordered collection of cases loaded from one fixture file.
// Order matches declaration order in the source.
type Suite struct {
	Source string
	Cases  []Case
}

// Len returns the number of cases in the suite.
func (s *Suite) Len() int { return len(s.Cases) }

// Names returns the case names in declaration order.
func (s *Suite) Names() []string {
	names := make([]string, len(s.Cases))
	for i, c := range s.Cases {
		names[i] = c.Name
	}
	return names
}

// MalformedFixtureError reports a fixture that violates the schema
// invariants. Loading aborts on the first such error.
type MalformedFixtureError struct {
	Source string // fixture file path or source label
	Case   string // offending case name, empty for file-level problems
	Reason string
}

// Error implements the error interface.
func (e *MalformedFixtureError) Error() string {
	if e.Case == "" {
		return fmt.Sprintf("malformed fixture %s: %s", e.Source, e.Reason)
	}
	return fmt.Sprintf("malformed fixture %s: case %q: %s", e.Source, e.Case, e.Reason)
}
