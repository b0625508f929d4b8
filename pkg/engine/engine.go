package engine

import (
	"context"
	"errors"
)

// Request is a single evaluation sent to the rule engine.
type Request struct {
	// SQL is the text under test.
	SQL string `json:"sql"`
	// Rule is the identifier of the rule to evaluate, e.g. "L048".
	Rule string `json:"rule"`
	// Config carries configuration overrides as dotted keys,
	// e.g. "core.dialect" -> "bigquery". May be nil.
	Config map[string]any `json:"config,omitempty"`
}

// Verdict is the rule engine's answer for one evaluation.
type Verdict struct {
	// Violated reports whether the rule found a violation.
	Violated bool `json:"violated"`
	// Fixed reports whether an auto-fixed rewrite is available.
	Fixed bool `json:"fixed"`
	// FixedSQL is the auto-fixed SQL text, valid only when Fixed is true.
	FixedSQL string `json:"fixed_sql,omitempty"`
}

// Engine evaluates SQL against a lint rule. Implementations talk to an
// external rule engine; this package never interprets the SQL itself.
type Engine interface {
	// Name identifies the engine for logs and error messages.
	Name() string

	// Evaluate runs one evaluation. It returns ErrUnavailable (wrapped)
	// when the engine cannot be reached or produces unusable output, and
	// the context error when the caller's deadline or cancellation fires.
	Evaluate(ctx context.Context, req Request) (Verdict, error)
}

// ErrUnavailable indicates the external rule engine could not be invoked.
// Callers treat it as fatal for the whole run rather than a per-case failure.
var ErrUnavailable = errors.New("rule engine unavailable")
