package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulebench/rulebench/internal/state"
	"github.com/rulebench/rulebench/pkg/fixture"
	"github.com/rulebench/rulebench/pkg/harness"
)

func sampleReport() *harness.Report {
	return &harness.Report{
		Source: "fixtures/L048.yml",
		Rule:   "L048",
		Results: []harness.CaseResult{
			{Name: "clean", Mode: "pass", Status: harness.StatusPassed, Elapsed: 12 * time.Millisecond},
			{Name: "broken", Mode: "fail", Status: harness.StatusFailed, Detail: "expected a violation, but the rule reported none"},
		},
		Started:  time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		Duration: 40 * time.Millisecond,
	}
}

func TestReportTextMode(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, ModeText)

	require.NoError(t, r.Report(sampleReport()))

	s := out.String()
	assert.Contains(t, s, "clean")
	assert.Contains(t, s, "broken")
	assert.Contains(t, s, "expected a violation")
	assert.Contains(t, s, "1 passed, 1 failed")
}

func TestReportJSONMode(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, ModeJSON)

	require.NoError(t, r.Report(sampleReport()))

	var decoded jsonReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "L048", decoded.Rule)
	assert.Equal(t, 1, decoded.Passed)
	assert.Equal(t, 1, decoded.Failed)
	require.Len(t, decoded.Cases, 2)
	assert.Equal(t, "passed", decoded.Cases[0].Status)
	assert.Equal(t, "failed", decoded.Cases[1].Status)
}

func TestReportMarkdownMode(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, ModeMarkdown)

	require.NoError(t, r.Report(sampleReport()))
	assert.Contains(t, out.String(), "|", "markdown tables use pipes")
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"":         ModeAuto,
		"auto":     ModeAuto,
		"text":     ModeText,
		"json":     ModeJSON,
		"markdown": ModeMarkdown,
		"md":       ModeMarkdown,
	} {
		mode, err := ParseMode(in)
		require.NoError(t, err, "format %q", in)
		assert.Equal(t, want, mode, "format %q", in)
	}

	_, err := ParseMode("pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid output format "pdf"`)
}

func TestAutoModeFallsBackToMarkdownForBuffers(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, ModeAuto)
	assert.Equal(t, ModeMarkdown, r.resolved())
}

func TestCasesTable(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, ModeText)

	suite := &fixture.Suite{
		Source: "f.yml",
		Cases: []fixture.Case{
			{Name: "plain", Expect: fixture.Pass("SELECT 1")},
			{
				Name:      "bq",
				Expect:    fixture.FailWithFix("SELECT ('a'||'b')", "SELECT ('a' || 'b')"),
				Overrides: map[string]any{"core.dialect": "bigquery"},
			},
		},
	}

	require.NoError(t, r.Cases(suite))
	s := out.String()
	assert.Contains(t, s, "plain")
	assert.Contains(t, s, "bigquery")
	assert.Contains(t, s, "(2 cases from f.yml)")
}

func TestRunsEmpty(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, ModeText)

	require.NoError(t, r.Runs(nil))
	assert.Contains(t, out.String(), "no recorded runs")
}

func TestRunsTable(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, ModeText)

	runs := []state.Run{{
		ID:        "abc",
		Source:    "f.yml",
		Rule:      "L048",
		Status:    "ok",
		StartedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		Passed:    6,
	}}
	require.NoError(t, r.Runs(runs))
	s := out.String()
	assert.Contains(t, s, "L048")
	assert.Contains(t, s, "ok")
}

func TestProblems(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, ModeText)

	r.Problems("f.yml", nil)
	assert.Contains(t, out.String(), "ok")

	r.Problems("f.yml", []error{
		&fixture.MalformedFixtureError{Source: "f.yml", Case: "c", Reason: "both pass_str and fail_str set"},
	})
	assert.Contains(t, errOut.String(), `case "c"`)
}
