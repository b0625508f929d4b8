package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPEngineEvaluate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "L048", req.Rule)
		assert.Equal(t, "bigquery", req.Config["core.dialect"])

		_ = json.NewEncoder(w).Encode(Verdict{Violated: true})
	}))
	defer srv.Close()

	eng := NewHTTPEngine(srv.URL)
	v, err := eng.Evaluate(context.Background(), Request{
		SQL:    "SELECT ('a'||'b')",
		Rule:   "L048",
		Config: map[string]any{"core.dialect": "bigquery"},
	})
	require.NoError(t, err)
	assert.True(t, v.Violated)
	assert.False(t, v.Fixed)
}

func TestHTTPEngineServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	eng := NewHTTPEngine(srv.URL)
	_, err := eng.Evaluate(context.Background(), Request{SQL: "SELECT 1", Rule: "L048"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "500")
}

func TestHTTPEngineUnreachable(t *testing.T) {
	// Reserve a port and close it so nothing is listening.
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	eng := NewHTTPEngine(url)
	_, err := eng.Evaluate(context.Background(), Request{SQL: "SELECT 1", Rule: "L048"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHTTPEngineTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-block
	}))
	defer func() {
		close(block)
		srv.Close()
	}()

	eng := NewHTTPEngine(srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := eng.Evaluate(ctx, Request{SQL: "SELECT 1", Rule: "L048"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestHTTPEngineUndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	eng := NewHTTPEngine(srv.URL)
	_, err := eng.Evaluate(context.Background(), Request{SQL: "SELECT 1", Rule: "L048"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}
