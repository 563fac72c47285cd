package aggregator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"tripease/logger"
)

// DefaultAdapterTimeout bounds a single provider call when no option is given.
const DefaultAdapterTimeout = 4 * time.Second

// Observer receives per-invocation signals, typically for metrics.
type Observer interface {
	AdapterDone(kind Kind, provider string, elapsed time.Duration, err *AdapterError)
	FallbackUsed(kind Kind)
}

type nopObserver struct{}

func (nopObserver) AdapterDone(Kind, string, time.Duration, *AdapterError) {}
func (nopObserver) FallbackUsed(Kind) {}

type options struct {
	timeout  time.Duration
	observer Observer
	logger   logger.Logger
}

// Option configures an Aggregator.
type Option func(*options)

// WithAdapterTimeout sets the per-adapter deadline.
func WithAdapterTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithObserver attaches an Observer.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithLogger attaches a logger for provider failures.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Aggregator merges the output of several adapters of the same record type.
// It holds no per-call state and is safe for concurrent use.
type Aggregator[T Record] struct {
	fallback Fallback[T]
	timeout  time.Duration
	observer Observer
	logger   logger.Logger
	tracer   trace.Tracer
}

// New creates an Aggregator backed by fallback.
func New[T Record](fallback Fallback[T], opts ...Option) *Aggregator[T] {
	o := options{
		timeout:  DefaultAdapterTimeout,
		observer: nopObserver{},
		logger:   logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Aggregator[T]{
		fallback: fallback,
		timeout:  o.timeout,
		observer: o.observer,
		logger:   o.logger,
		tracer:   otel.Tracer("tripease/aggregator"),
	}
}

type slot[T Record] struct {
	records []T
	err     *AdapterError
}

// Aggregate runs every adapter concurrently and waits for all of them. Records
// are concatenated in adapter order, not completion order, then truncated to
// q.Limit. When no adapter yields a record the fallback is used instead.
//
// The only whole-call errors are an invalid query and ErrFallbackExhausted.
func (a *Aggregator[T]) Aggregate(ctx context.Context, q Query, adapters []Adapter[T]) (Outcome[T], error) {
	if err := q.Validate(); err != nil {
		return Outcome[T]{}, fmt.Errorf("invalid query: %w", err)
	}

	ctx, span := a.tracer.Start(ctx, "aggregate", trace.WithAttributes(
		attribute.String("kind", string(q.Kind)),
		attribute.Int("adapters", len(adapters)),
		attribute.Int("limit", q.Limit),
	))
	defer span.End()

	slots := make([]slot[T], len(adapters))

	var g errgroup.Group
	for i, ad := range adapters {
		g.Go(func() error {
			records, err := a.call(ctx, ad, q)
			slots[i] = slot[T]{records: records, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var out Outcome[T]
	var merged []T
	seen := make(map[string]bool)
	for _, s := range slots {
		if s.err != nil {
			out.Failures = append(out.Failures, s.err)
			if !seen[s.err.Provider] {
				seen[s.err.Provider] = true
				out.PartialFailures = append(out.PartialFailures, s.err.Provider)
			}
			continue
		}
		merged = append(merged, s.records...)
	}

	if len(merged) == 0 {
		merged = a.fallback.Generate(q)
		if len(merged) == 0 {
			span.SetStatus(codes.Error, ErrFallbackExhausted.Error())
			return out, ErrFallbackExhausted
		}
		out.UsedFallback = true
		a.observer.FallbackUsed(q.Kind)
		a.logger.Warn("no provider data, using fallback", map[string]interface{}{
			"kind":            string(q.Kind),
			"subject":         q.Subject,
			"partialFailures": out.PartialFailures,
		})
	}

	out.Records = truncate(merged, q.Limit)
	span.SetAttributes(
		attribute.Int("records", len(out.Records)),
		attribute.Bool("used_fallback", out.UsedFallback),
		attribute.Int("failures", len(out.Failures)),
	)
	return out, nil
}

type fetchResult[T Record] struct {
	records []T
	err     error
}

// call runs one adapter under its own deadline. The adapter runs in a separate
// goroutine so one that ignores its context still cannot hold up the others.
func (a *Aggregator[T]) call(parent context.Context, ad Adapter[T], q Query) ([]T, *AdapterError) {
	name := ad.Name()
	start := time.Now()

	ctx, cancel := context.WithTimeout(parent, a.timeout)
	defer cancel()
	ctx, span := a.tracer.Start(ctx, "adapter.fetch", trace.WithAttributes(
		attribute.String("provider", name),
	))
	defer span.End()

	done := make(chan fetchResult[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fetchResult[T]{err: NewAdapterError(name, ReasonPanic, fmt.Errorf("%v", r))}
			}
		}()
		records, err := ad.Fetch(ctx, q)
		done <- fetchResult[T]{records: records, err: err}
	}()

	var (
		records []T
		aerr    *AdapterError
	)
	select {
	case res := <-done:
		if res.err != nil {
			aerr = asAdapterError(name, res.err)
			if errors.Is(res.err, context.DeadlineExceeded) {
				aerr = NewAdapterError(name, ReasonTimeout, res.err)
			}
			break
		}
		for _, r := range res.records {
			if strings.TrimSpace(r.Primary()) == "" {
				aerr = NewAdapterError(name, ReasonInvalidRecord, errors.New("record without primary field"))
				break
			}
		}
		if aerr == nil {
			records = res.records
		}
	case <-ctx.Done():
		reason := ReasonTimeout
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			reason = ReasonTransport
		}
		aerr = NewAdapterError(name, reason, ctx.Err())
	}

	elapsed := time.Since(start)
	a.observer.AdapterDone(q.Kind, name, elapsed, aerr)
	if aerr != nil {
		span.RecordError(aerr)
		span.SetStatus(codes.Error, string(aerr.Reason))
		a.logger.Warn("provider failed", map[string]interface{}{
			"kind":     string(q.Kind),
			"provider": name,
			"reason":   string(aerr.Reason),
			"error":    aerr.Error(),
			"elapsed":  elapsed.String(),
		})
		return nil, aerr
	}
	span.SetAttributes(attribute.Int("records", len(records)))
	a.logger.Debug("provider answered", map[string]interface{}{
		"kind":     string(q.Kind),
		"provider": name,
		"records":  len(records),
		"elapsed":  elapsed.String(),
	})
	return records, nil
}

// truncate returns a fresh slice so callers never alias fallback tables or
// provider buffers.
func truncate[T any](in []T, limit int) []T {
	n := len(in)
	if limit < n {
		n = limit
	}
	out := make([]T, n)
	copy(out, in[:n])
	return out
}
