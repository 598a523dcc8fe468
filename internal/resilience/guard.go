// Package resilience wraps calls to the engine's backing stores with
// bounded retries, exponential backoff and a circuit breaker, so a string
// of dependency failures short-circuits instead of queuing up timeouts.
package resilience

import (
	"context"
	crand "crypto/rand"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"stayalloc/internal/adapters/observability"
	"stayalloc/internal/domain"
)

type Guard struct {
	name        string
	breaker     *gobreaker.CircuitBreaker
	maxAttempts int
	baseDelay   time.Duration
	timeout     time.Duration
}

// New builds a guard named after the dependency it protects. maxAttempts
// counts the first try; baseDelay seeds the backoff; timeout bounds each
// individual attempt.
func New(name string, maxAttempts int, baseDelay, timeout time.Duration) *Guard {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 200 * time.Millisecond
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	br := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: name,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("dependency", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
	return &Guard{name: name, breaker: br, maxAttempts: maxAttempts, baseDelay: baseDelay, timeout: timeout}
}

// Do runs fn under the breaker, retrying transient failures with jittered
// exponential backoff. Domain failures (validation, conflict, availability,
// not-found) pass through untouched; they count as successes for the
// breaker because the dependency answered definitively.
func (g *Guard) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	var lastErr error
	for i := 0; i < g.maxAttempts; i++ {
		start := time.Now()
		var domainErr error
		_, err := g.breaker.Execute(func() (any, error) {
			attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
			defer cancel()
			if err := fn(attemptCtx); err != nil {
				if passthrough(err) {
					domainErr = err
					return nil, nil
				}
				return nil, err
			}
			return nil, nil
		})
		if err == nil {
			err = domainErr
		}
		observability.ObserveExternal(g.name, op, statusLabel(err), time.Since(start))
		if err == nil {
			return nil
		}
		lastErr = err
		if passthrough(err) {
			return err
		}
		if errors.Is(err, gobreaker.ErrOpenState) {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if i < g.maxAttempts-1 && !sleepCtx(ctx, backoff(g.baseDelay, i)) {
			return ctx.Err()
		}
	}
	return domain.NewDependency(g.name+" unavailable", lastErr)
}

// Execute is Do for calls that return a value.
func Execute[T any](ctx context.Context, g *Guard, op string, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := g.Do(ctx, op, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// passthrough errors carry business meaning and must not be retried.
func passthrough(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrHoldConflict) || errors.Is(err, domain.ErrHoldExpired) {
		return true
	}
	var de *domain.Error
	return errors.As(err, &de) && de.Kind != domain.KindDependency
}

func statusLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, gobreaker.ErrOpenState):
		return "open"
	case passthrough(err):
		return "domain"
	default:
		return "error"
	}
}

// sleepCtx waits for d or returns false if ctx is done first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// backoff doubles the base each attempt with up to +50% random jitter to
// avoid thundering herds.
func backoff(base time.Duration, i int) time.Duration {
	d := time.Duration(1<<i) * base
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return d
	}
	f := float64(b[0]) / 255.0
	return d + time.Duration(0.5*f*float64(d))
}
