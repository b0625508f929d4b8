// Package output renders harness results for terminals, scripts and
// machine consumers. Mode "auto" picks text on a TTY and markdown when
// piped.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/rulebench/rulebench/internal/state"
	"github.com/rulebench/rulebench/pkg/fixture"
	"github.com/rulebench/rulebench/pkg/harness"
)

// Mode selects the output format.
type Mode string

// Supported output modes.
const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeJSON     Mode = "json"
	ModeMarkdown Mode = "markdown"
)

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

// Renderer writes formatted output.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	styled bool
}

// ParseMode validates a user-supplied format name and returns the
// corresponding mode. "md" is accepted as an alias for markdown, and ""
// means auto.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeAuto, nil
	case ModeAuto, ModeText, ModeJSON, ModeMarkdown:
		return Mode(s), nil
	case "md":
		return ModeMarkdown, nil
	default:
		return "", fmt.Errorf("invalid output format %q (expected auto, text, json or markdown)", s)
	}
}

// NewRenderer creates a renderer. Mode "" behaves like auto.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	switch mode {
	case "":
		mode = ModeAuto
	case "md":
		mode = ModeMarkdown
	}
	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		styled: termenv.EnvColorProfile() != termenv.Ascii,
	}
}

// resolved maps auto to a concrete mode based on the output destination.
func (r *Renderer) resolved() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if f, ok := r.out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return ModeText
	}
	return ModeMarkdown
}

// Report renders a harness report.
func (r *Renderer) Report(rep *harness.Report) error {
	switch r.resolved() {
	case ModeJSON:
		return r.reportJSON(rep)
	default:
		return r.reportTable(rep)
	}
}

type jsonCase struct {
	Name    string `json:"name"`
	Mode    string `json:"mode"`
	Status  string `json:"status"`
	Detail  string `json:"detail,omitempty"`
	Elapsed string `json:"elapsed"`
}

type jsonReport struct {
	Source   string     `json:"source"`
	Rule     string     `json:"rule"`
	Started  time.Time  `json:"started"`
	Duration string     `json:"duration"`
	Passed   int        `json:"passed"`
	Failed   int        `json:"failed"`
	Timeout  int        `json:"timeout"`
	Skipped  int        `json:"skipped"`
	Cases    []jsonCase `json:"cases"`
}

func (r *Renderer) reportJSON(rep *harness.Report) error {
	passed, failed, timedOut, skipped := rep.Counts()
	out := jsonReport{
		Source:   rep.Source,
		Rule:     rep.Rule,
		Started:  rep.Started,
		Duration: rep.Duration.Round(time.Millisecond).String(),
		Passed:   passed,
		Failed:   failed,
		Timeout:  timedOut,
		Skipped:  skipped,
	}
	for _, res := range rep.Results {
		out.Cases = append(out.Cases, jsonCase{
			Name:    res.Name,
			Mode:    res.Mode,
			Status:  res.Status.String(),
			Detail:  res.Detail,
			Elapsed: res.Elapsed.Round(time.Millisecond).String(),
		})
	}
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func (r *Renderer) reportTable(rep *harness.Report) error {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"case", "mode", "status", "time"})

	for _, res := range rep.Results {
		t.AppendRow(table.Row{
			res.Name,
			res.Mode,
			r.styleStatus(res.Status),
			res.Elapsed.Round(time.Millisecond),
		})
	}

	if r.resolved() == ModeMarkdown {
		t.RenderMarkdown()
	} else {
		t.Render()
	}

	// Mismatch details below the table, where they have room to breathe.
	for _, res := range rep.Failing() {
		if res.Detail == "" {
			continue
		}
		_, _ = fmt.Fprintf(r.out, "\n%s %s (%s):\n", r.style(failStyle, "FAIL"), res.Name, res.Status)
		for _, line := range strings.Split(res.Detail, "\n") {
			_, _ = fmt.Fprintf(r.out, "  %s\n", line)
		}
	}

	passed, failed, timedOut, skipped := rep.Counts()
	_, _ = fmt.Fprintf(r.out, "\n%s: %d passed, %d failed, %d timeout, %d skipped (%s)\n",
		rep.Rule, passed, failed, timedOut, skipped, rep.Duration.Round(time.Millisecond))
	return nil
}

// Cases renders the case inventory of a suite (for `rulebench list`).
func (r *Renderer) Cases(suite *fixture.Suite) error {
	if r.resolved() == ModeJSON {
		type row struct {
			Name    string `json:"name"`
			Mode    string `json:"mode"`
			Dialect string `json:"dialect,omitempty"`
			HasFix  bool   `json:"has_fix"`
		}
		var rows []row
		for _, c := range suite.Cases {
			dialect, _ := c.Dialect()
			_, hasFix := c.Expect.Fix()
			rows = append(rows, row{Name: c.Name, Mode: c.Expect.Mode().String(), Dialect: dialect, HasFix: hasFix})
		}
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"case", "mode", "dialect", "fix"})
	for _, c := range suite.Cases {
		dialect, _ := c.Dialect()
		if dialect == "" {
			dialect = "-"
		}
		fix := "-"
		if _, ok := c.Expect.Fix(); ok {
			fix = "yes"
		}
		t.AppendRow(table.Row{c.Name, c.Expect.Mode().String(), dialect, fix})
	}
	if r.resolved() == ModeMarkdown {
		t.RenderMarkdown()
	} else {
		t.Render()
	}
	_, _ = fmt.Fprintf(r.out, "(%d cases from %s)\n", suite.Len(), suite.Source)
	return nil
}

// Runs renders recorded run history (for `rulebench history`).
func (r *Renderer) Runs(runs []state.Run) error {
	if r.resolved() == ModeJSON {
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		_, _ = fmt.Fprintln(r.out, "no recorded runs")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"started", "rule", "source", "status", "passed", "failed", "timeout", "skipped"})
	for _, run := range runs {
		status := run.Status
		if r.styled && r.resolved() == ModeText {
			if run.Status == "ok" {
				status = passStyle.Render(status)
			} else {
				status = failStyle.Render(status)
			}
		}
		t.AppendRow(table.Row{
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Rule,
			run.Source,
			status,
			run.Passed, run.Failed, run.TimedOut, run.Skipped,
		})
	}
	if r.resolved() == ModeMarkdown {
		t.RenderMarkdown()
	} else {
		t.Render()
	}
	return nil
}

// Problems renders fixture validation problems (for `rulebench validate`).
func (r *Renderer) Problems(source string, problems []error) {
	if len(problems) == 0 {
		_, _ = fmt.Fprintf(r.out, "%s %s\n", r.style(passStyle, "ok"), source)
		return
	}
	for _, p := range problems {
		_, _ = fmt.Fprintf(r.errOut, "%s %v\n", r.style(failStyle, "error:"), p)
	}
}

// Warnf writes a styled warning line to the error stream.
func (r *Renderer) Warnf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.errOut, "%s %s\n", r.style(warnStyle, "warning:"), fmt.Sprintf(format, args...))
}

// Infof writes a dim informational line to the error stream, keeping
// stdout clean for structured output.
func (r *Renderer) Infof(format string, args ...any) {
	_, _ = fmt.Fprintln(r.errOut, r.style(dimStyle, fmt.Sprintf(format, args...)))
}

func (r *Renderer) styleStatus(s harness.Status) string {
	label := s.String()
	if !r.styled || r.resolved() != ModeText {
		return label
	}
	switch s {
	case harness.StatusPassed:
		return passStyle.Render(label)
	case harness.StatusFailed:
		return failStyle.Render(label)
	case harness.StatusTimeout:
		return warnStyle.Render(label)
	default:
		return dimStyle.Render(label)
	}
}

func (r *Renderer) style(st lipgloss.Style, s string) string {
	if !r.styled {
		return s
	}
	return st.Render(s)
}
