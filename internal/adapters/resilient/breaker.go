// Package resilient wraps the retrieval backends with circuit breakers so a
// failing store is skipped quickly instead of timing out on every request.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/ashwini-1013/org-workspace/internal/core/domain"
	"github.com/ashwini-1013/org-workspace/internal/metrics"
)

// Settings configures a breaker. The circuit opens after FailureThreshold
// consecutive failures and admits HalfOpenRequests trial requests once OpenTimeout
// has passed.
type Settings struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
	HalfOpenRequests uint32
}

func DefaultSettings() Settings {
	return Settings{FailureThreshold: 5, OpenTimeout: 30 * time.Second, HalfOpenRequests: 1}
}

type breaker struct {
	cb     *gobreaker.CircuitBreaker[any]
	source domain.Source
	logger zerolog.Logger
}

func newBreaker(name string, source domain.Source, s Settings, logger zerolog.Logger) *breaker {
	def := DefaultSettings()
	if s.FailureThreshold == 0 {
		s.FailureThreshold = def.FailureThreshold
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = def.OpenTimeout
	}
	if s.HalfOpenRequests == 0 {
		s.HalfOpenRequests = def.HalfOpenRequests
	}

	log := logger.With().Str("component", "breaker").Str("breaker", name).Logger()
	metrics.BreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.HalfOpenRequests,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, domain.ErrNotFound) ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.BreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	return &breaker{cb: cb, source: source, logger: log}
}

// State reports the current breaker state.
func (b *breaker) State() gobreaker.State {
	return b.cb.State()
}

func execute[T any](b *breaker, fn func() (T, error)) (T, error) {
	var zero T
	result, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, &domain.RetrievalUnavailableError{Source: b.source, Err: err}
		}
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
