// Package retry wraps calls to external capabilities (classifier,
// decision model) with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// ErrExhausted wraps the last error once every attempt has failed.
var ErrExhausted = errors.New("capability unavailable: retries exhausted")

// Policy controls how a capability call is retried.
type Policy struct {
	MaxAttempts     int           // total attempts including the first (default 3)
	InitialInterval time.Duration // first backoff delay (default 500ms)
	MaxInterval     time.Duration // backoff ceiling (default 10s)
}

// DefaultPolicy returns the policy used when none is configured.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = d.InitialInterval
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = d.MaxInterval
	}
	return p
}

// Permanent marks err as not worth retrying. Do returns it unwrapped.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do calls fn until it succeeds, returns a permanent error, the context
// ends, or the policy's attempts are used up. Context errors are returned
// as-is; exhaustion is reported as [ErrExhausted] wrapping the last error.
func Do[T any](ctx context.Context, p Policy, logger *slog.Logger, op string, fn func(context.Context) (T, error)) (T, error) {
	p = p.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval

	attempts := 0
	var lastErr error
	result, err := backoff.Retry(ctx, func() (T, error) {
		attempts++
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(p.MaxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn("capability call failed, retrying",
				"op", op,
				"attempt", attempts,
				"max_attempts", p.MaxAttempts,
				"retry_in", next,
				"error", err,
			)
		}),
	)
	if err == nil {
		if attempts > 1 {
			logger.Info("capability call succeeded after retry", "op", op, "attempts", attempts)
		}
		return result, nil
	}

	var zero T
	if ctxErr := ctx.Err(); ctxErr != nil {
		return zero, ctxErr
	}

	if lastErr == nil {
		lastErr = err
	}
	// Retry strips the permanent wrapper from its result; lastErr keeps it.
	var perm *backoff.PermanentError
	if errors.As(lastErr, &perm) {
		return zero, perm.Unwrap()
	}
	if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
		return zero, lastErr
	}
	return zero, fmt.Errorf("%s: %w after %d attempts: %w", op, ErrExhausted, attempts, lastErr)
}
