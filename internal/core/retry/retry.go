// Package retry runs an operation under a bounded attempt budget, waiting
// between attempts for as long as the failure's classification asks.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ashwini-1013/org-workspace/internal/core/domain"
)

// Classifier decides whether err is worth another attempt and how long to
// wait first.
type Classifier func(err error) (wait time.Duration, retry bool)

// Policy bounds an operation to MaxAttempts calls.
type Policy struct {
	MaxAttempts int
	Classify    Classifier
	// Sleep defaults to a context-aware timer. Tests replace it.
	Sleep  func(ctx context.Context, d time.Duration) error
	Logger *zerolog.Logger
	// OnRetry is called before each wait, with the attempt that just failed.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// Result describes how an operation finished.
type Result[T any] struct {
	Value    T
	Attempts int
}

// Do calls fn until it succeeds, the classifier refuses, attempts run out or
// ctx is done. The returned error is the last one fn produced, wrapped with
// the attempt count when the budget was exhausted.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (Result[T], error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepWithContext
	}

	var zero T
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result[T]{Value: zero, Attempts: attempt - 1}, fmt.Errorf("retry: canceled: %w", err)
		}

		v, err := fn(ctx)
		if err == nil {
			return Result[T]{Value: v, Attempts: attempt}, nil
		}

		wait, again := classify(p.Classify, err)
		if !again {
			return Result[T]{Value: zero, Attempts: attempt}, err
		}
		if attempt >= maxAttempts {
			return Result[T]{Value: zero, Attempts: attempt}, fmt.Errorf("retry: gave up after %d attempts: %w", attempt, err)
		}

		if p.Logger != nil {
			p.Logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_attempts", maxAttempts).
				Dur("wait", wait).
				Msg("retrying")
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}
		if err := sleep(ctx, wait); err != nil {
			return Result[T]{Value: zero, Attempts: attempt}, err
		}
	}
}

func classify(fn Classifier, err error) (time.Duration, bool) {
	if fn == nil {
		return 0, false
	}
	return fn(err)
}

// ByKind classifies TransientBackendErrors by kind using waits. Kinds absent
// from waits, and any other error, are not retried.
func ByKind(waits map[domain.BackendErrorKind]time.Duration) Classifier {
	return func(err error) (time.Duration, bool) {
		var tErr *domain.TransientBackendError
		if !errors.As(err, &tErr) {
			return 0, false
		}
		wait, ok := waits[tErr.Kind]
		return wait, ok
	}
}

// SleepWithContext waits for delay or until ctx is done.
func SleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("retry: canceled while waiting: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
