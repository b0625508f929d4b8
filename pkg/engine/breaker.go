package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

// Breaker wraps an Engine with a circuit breaker so a dead engine fails
// the run fast instead of timing out case after case. Context errors
// (per-case timeouts, cancellation) do not count as engine failures.
type Breaker struct {
	inner Engine
	cb    *gobreaker.CircuitBreaker
}

// NewBreaker wraps eng with a circuit breaker. The circuit opens after
// maxFailures consecutive ErrUnavailable results and stays open for the
// cooldown interval.
func NewBreaker(eng Engine, maxFailures uint32, cooldown time.Duration) *Breaker {
	settings := gobreaker.Settings{
		Name:    eng.Name(),
		Timeout: cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// Per-case timeouts and cancellation are the caller's doing,
		// not evidence that the engine is down.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrUnavailable)
		},
	}
	return &Breaker{
		inner: eng,
		cb:    gobreaker.NewCircuitBreaker(settings),
	}
}

// Name identifies the engine for logs and error messages.
func (b *Breaker) Name() string {
	return b.inner.Name()
}

// Evaluate delegates to the wrapped engine through the breaker.
func (b *Breaker) Evaluate(ctx context.Context, req Request) (Verdict, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.inner.Evaluate(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return Verdict{}, fmt.Errorf("%w: %s: circuit open", ErrUnavailable, b.inner.Name())
	}
	if err != nil {
		return Verdict{}, err
	}
	return v.(Verdict), nil
}
