// Package retry runs an operation with a bounded number of attempts and an
// exponential backoff between them. Every upstream-calling component of a run
// (scope resolution, role assumption, collectors, notification) owns its own
// Policy.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

// DefaultBackoffFactor is used when a Policy has a non-positive factor.
const DefaultBackoffFactor = 1.5

// Policy describes how an operation is retried.
//
// An operation is attempted at most MaxRetries+1 times. Before attempt n+1
// the policy sleeps BackoffFactor^n seconds (n starting at 0), capped at
// MaxWait when MaxWait > 0. After the final failure the last error is
// returned unchanged.
type Policy struct {
	// Name labels retry log records (e.g. "collect EC2").
	Name string

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// BackoffFactor is the exponential base of the wait, in seconds.
	BackoffFactor float64

	// MaxWait caps a single wait. Zero means uncapped.
	MaxWait time.Duration

	// Retryable decides whether a failure may be retried. Errors it rejects
	// are returned immediately. Nil retries every error.
	Retryable func(error) bool

	// Sleep blocks for d. Nil uses a context-aware timer. Tests inject a
	// recorder here.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Waits returns the wait schedule for p: one duration per retry.
func (p Policy) Waits() []time.Duration {
	n := max(p.MaxRetries, 0)
	b := p.backoff()
	out := make([]time.Duration, 0, n)
	for range n {
		out = append(out, b.Step())
	}
	return out
}

func (p Policy) backoff() wait.Backoff {
	factor := p.BackoffFactor
	if factor <= 0 {
		factor = DefaultBackoffFactor
	}
	return wait.Backoff{
		Duration: time.Second,
		Factor:   factor,
		Cap:      p.MaxWait,
		Steps:    max(p.MaxRetries, 0),
	}
}

// Do runs op under the policy and returns nil on the first success.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	_, err := Execute(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Execute runs op under p and returns its first successful result.
func Execute[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	retries := max(p.MaxRetries, 0)
	b := p.backoff()

	var zero T
	for attempt := 0; ; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if attempt == retries {
			return zero, err
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return zero, err
		}

		d := b.Step()
		slog.Warn("attempt failed, retrying",
			"op", p.Name,
			"attempt", attempt+1,
			"wait", d.String(),
			"error", truncate(err.Error(), 100),
		)
		if serr := sleep(ctx, d); serr != nil {
			return zero, errors.Join(err, serr)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
