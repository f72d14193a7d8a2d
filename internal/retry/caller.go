// ABOUTME: Retrying caller that re-invokes an operation on transient network failures
// ABOUTME: Everything else propagates on the first attempt

package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/popcode-gateway/internal/github"
	"github.com/2389/popcode-gateway/internal/telemetry"
)

// Caller applies a Policy to operations.
type Caller struct {
	policy    Policy
	retryable func(error) bool
	sleep     func(context.Context, time.Duration) error
	logger    *slog.Logger
}

// Option customizes a Caller.
type Option func(*Caller)

// WithRetryable replaces the predicate that selects retryable failures.
func WithRetryable(fn func(error) bool) Option {
	return func(c *Caller) { c.retryable = fn }
}

// WithSleep replaces the backoff sleep. Tests use it to avoid real delays.
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(c *Caller) { c.sleep = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Caller) { c.logger = logger }
}

// NewCaller creates a Caller. The default predicate is github.IsTransient.
func NewCaller(policy Policy, opts ...Option) *Caller {
	c := &Caller{
		policy:    policy,
		retryable: github.IsTransient,
		sleep:     sleepContext,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "retry")
	return c
}

// Policy returns the caller's policy.
func (c *Caller) Policy() Policy { return c.policy }

// Do runs op under c's policy. op names the operation for logs and metrics.
// On exhaustion the last failure is returned wrapped, so errors.Is and
// errors.As still reach it.
func Do[T any](ctx context.Context, c *Caller, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !c.retryable(err) {
			return zero, err
		}
		if attempt >= c.policy.Retries {
			return zero, fmt.Errorf("%s: giving up after %d attempts: %w", op, attempt+1, err)
		}

		delay := c.policy.Delay(attempt)
		c.logger.Debug("retrying after transient failure",
			"op", op,
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)
		telemetry.CountRetry(op)

		if err := c.sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
