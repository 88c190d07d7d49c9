// Package retry provides a generic backoff executor for fallible calls
// against rate-limited upstream providers.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Default configuration values.
const (
	DefaultMaxRetries = 2
	DefaultBaseDelay  = 1 * time.Second
	DefaultMaxDelay   = 15 * time.Second
	maxJitter         = 1 * time.Second
)

// Config controls the backoff schedule.
type Config struct {
	MaxRetries int           // additional attempts after the first
	BaseDelay  time.Duration // first backoff step
	MaxDelay   time.Duration // hard cap per sleep, keeps request-scoped callers bounded

	// Test seams. nil means the real implementations.
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() time.Duration
}

// DefaultConfig returns the standard 2 retries / 1s base / 15s cap schedule.
func DefaultConfig() Config {
	return Config{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		MaxDelay:   DefaultMaxDelay,
	}
}

// Result carries a successful value and how many attempts it took.
type Result[T any] struct {
	Value    T
	Attempts int // 1-based
}

// Error is the terminal failure of an exhausted or non-retryable call.
type Error struct {
	Err      error
	Class    ErrorClass
	Attempts int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s after %d attempt(s): %v", e.Class, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// RetryAfterer is implemented by provider errors that suggest how long to
// wait before the next attempt (HTTP Retry-After and friends).
type RetryAfterer interface {
	RetryAfter() time.Duration
}

// Do executes op up to cfg.MaxRetries+1 times. Non-retryable errors
// (auth, validation, malformed responses) fail fast. Between retryable
// failures it sleeps min(MaxDelay, BaseDelay*2^attempt + jitter), where a
// provider-suggested delay replaces the computed one when present. The only
// randomness lives here, in the jitter.
func Do[T any](ctx context.Context, cfg Config, op func(ctx context.Context) (T, error)) (Result[T], error) {
	var zero Result[T]

	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}
	sleep := cfg.sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	jitter := cfg.jitter
	if jitter == nil {
		jitter = randomJitter
	}

	var lastErr error
	var lastClass ErrorClass

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return Result[T]{Value: v, Attempts: attempt + 1}, nil
		}

		lastErr = err
		lastClass = Classify(err)

		if !lastClass.Retryable() || attempt == cfg.MaxRetries {
			return zero, &Error{Err: lastErr, Class: lastClass, Attempts: attempt + 1}
		}

		delay := cfg.BaseDelay<<uint(attempt) + jitter()
		var ra RetryAfterer
		if errors.As(err, &ra) && ra.RetryAfter() > 0 {
			delay = ra.RetryAfter()
		}
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}

		if err := sleep(ctx, delay); err != nil {
			return zero, &Error{Err: err, Class: ClassTransient, Attempts: attempt + 1}
		}
	}

	// Unreachable: the loop always returns.
	return zero, &Error{Err: lastErr, Class: lastClass, Attempts: cfg.MaxRetries + 1}
}

// sleepCtx sleeps for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// randomJitter returns up to maxJitter of random delay.
func randomJitter() time.Duration {
	return time.Duration(rand.Int63n(int64(maxJitter)))
}
