package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// HTTPEngine talks to a remote rule engine over HTTP. Each evaluation is
// a POST of the JSON request; the response body is the JSON verdict.
type HTTPEngine struct {
	URL    string
	Client *http.Client
}

// NewHTTPEngine creates an HTTP engine adapter for the given endpoint.
func NewHTTPEngine(url string) *HTTPEngine {
	return &HTTPEngine{URL: url, Client: http.DefaultClient}
}

// Name identifies the engine for logs and error messages.
func (e *HTTPEngine) Name() string {
	return "http:" + e.URL
}

// Evaluate posts the request to the remote evaluator.
func (e *HTTPEngine) Evaluate(ctx context.Context, req Request) (Verdict, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL, bytes.NewReader(payload))
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		// url.Error wraps the context error on deadline or cancellation.
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return Verdict{}, ctx.Err()
		}
		return Verdict{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Verdict{}, fmt.Errorf("%w: %s returned %s: %s", ErrUnavailable, e.URL, resp.Status, bytes.TrimSpace(body))
	}

	var v Verdict
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return Verdict{}, fmt.Errorf("%w: %s wrote undecodable output: %v", ErrUnavailable, e.URL, err)
	}
	return v, nil
}
