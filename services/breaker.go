package services

import (
	"context"
	"errors"
	"time"

	cb "github.com/sony/gobreaker"

	"tripease/aggregator"
	"tripease/logger"
)

// BreakerSettings controls when a provider is taken out of rotation.
type BreakerSettings struct {
	// Failures is the number of consecutive failures that opens the circuit.
	Failures uint32
	// Cooldown is how long the circuit stays open before a trial request is let through.
	Cooldown time.Duration
}

// breakerAdapter short-circuits a provider that keeps failing so a dead
// upstream costs nothing until the cooldown expires.
type breakerAdapter[T aggregator.Record] struct {
	inner aggregator.Adapter[T]
	cb    *cb.CircuitBreaker
}

// WithBreaker wraps inner in a circuit breaker. Calls rejected by an open
// circuit fail with reason circuit_open.
func WithBreaker[T aggregator.Record](inner aggregator.Adapter[T], s BreakerSettings, log logger.Logger) aggregator.Adapter[T] {
	failures := s.Failures
	if failures == 0 {
		failures = 5
	}
	settings := cb.Settings{
		Name:        inner.Name(),
		MaxRequests: 1,
		Timeout:     s.Cooldown,
		ReadyToTrip: func(counts cb.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// missing credentials say nothing about upstream health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, aggregator.ErrNotConfigured)
		},
		OnStateChange: func(name string, from, to cb.State) {
			log.Warn("Circuit breaker state change", map[string]interface{}{
				"provider": name,
				"from":     from.String(),
				"to":       to.String(),
			})
		},
	}
	return &breakerAdapter[T]{inner: inner, cb: cb.NewCircuitBreaker(settings)}
}

func (b *breakerAdapter[T]) Name() string { return b.inner.Name() }

func (b *breakerAdapter[T]) Fetch(ctx context.Context, q aggregator.Query) ([]T, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Fetch(ctx, q)
	})
	if err != nil {
		if errors.Is(err, cb.ErrOpenState) || errors.Is(err, cb.ErrTooManyRequests) {
			return nil, aggregator.NewAdapterError(b.Name(), aggregator.ReasonCircuitOpen, err)
		}
		return nil, err
	}
	records, _ := result.([]T)
	return records, nil
}

// WrapAll applies WithBreaker to every adapter, keeping order.
func WrapAll[T aggregator.Record](adapters []aggregator.Adapter[T], s BreakerSettings, log logger.Logger) []aggregator.Adapter[T] {
	out := make([]aggregator.Adapter[T], 0, len(adapters))
	for _, a := range adapters {
		out = append(out, WithBreaker(a, s, log))
	}
	return out
}
