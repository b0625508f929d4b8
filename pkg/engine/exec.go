package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// ExecEngine invokes an external rule engine binary once per evaluation.
// The request is written to the process as JSON on stdin and the verdict
// is read back as JSON from stdout. A non-zero exit or undecodable output
// counts as ErrUnavailable.
type ExecEngine struct {
	Command string
	Args    []string
	// Env holds extra environment variables in KEY=VALUE form,
	// appended to the parent environment. Nil inherits as-is.
	Env []string
}

// NewExecEngine creates an exec-based engine adapter.
func NewExecEngine(command string, args ...string) *ExecEngine {
	return &ExecEngine{Command: command, Args: args}
}

// Name identifies the engine for logs and error messages.
func (e *ExecEngine) Name() string {
	return "exec:" + e.Command
}

// Evaluate runs the external binary with the JSON-encoded request on stdin.
func (e *ExecEngine) Evaluate(ctx context.Context, req Request) (Verdict, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to encode request: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.Command, e.Args...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if len(e.Env) > 0 {
		cmd.Env = append(cmd.Environ(), e.Env...)
	}

	if err := cmd.Run(); err != nil {
		// CommandContext kills the child on deadline or cancellation;
		// surface the context error so callers can tell a timeout from
		// an engine that died on its own.
		if ctx.Err() != nil {
			return Verdict{}, ctx.Err()
		}
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return Verdict{}, fmt.Errorf("%w: %s: %v: %s", ErrUnavailable, e.Command, err, detail)
		}
		return Verdict{}, fmt.Errorf("%w: %s: %v", ErrUnavailable, e.Command, err)
	}

	var v Verdict
	if err := json.Unmarshal(stdout.Bytes(), &v); err != nil {
		return Verdict{}, fmt.Errorf("%w: %s wrote undecodable output: %v", ErrUnavailable, e.Command, err)
	}
	return v, nil
}
