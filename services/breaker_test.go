package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripease/aggregator"
	"tripease/config"
	"tripease/logger"
)

type scriptedAdapter struct {
	err   error
	calls int
}

func (s *scriptedAdapter) Name() string { return "scripted" }

func (s *scriptedAdapter) Fetch(context.Context, aggregator.Query) ([]Image, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []Image{{URL: "https://img/1.jpg", SourceID: "scripted"}}, nil
}

func TestWithBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	inner := &scriptedAdapter{err: aggregator.NewAdapterError("scripted", aggregator.ReasonStatus, errors.New("500"))}
	a := WithBreaker[Image](inner, BreakerSettings{Failures: 3, Cooldown: time.Minute}, logger.NewTestLogger(t))
	q := aggregator.Query{Subject: "bali", Limit: 1}

	for i := 0; i < 3; i++ {
		_, err := a.Fetch(context.Background(), q)
		requireReason(t, err, aggregator.ReasonStatus)
	}

	_, err := a.Fetch(context.Background(), q)
	requireReason(t, err, aggregator.ReasonCircuitOpen)
	assert.Equal(t, 3, inner.calls, "open circuit must not reach the provider")
	assert.Equal(t, "scripted", a.Name())
}

func TestWithBreaker_HalfOpenTrialCloses(t *testing.T) {
	inner := &scriptedAdapter{err: errors.New("boom")}
	a := WithBreaker[Image](inner, BreakerSettings{Failures: 1, Cooldown: 20 * time.Millisecond}, logger.NewNoOpLogger())
	q := aggregator.Query{Subject: "bali", Limit: 1}

	_, err := a.Fetch(context.Background(), q)
	require.Error(t, err)
	_, err = a.Fetch(context.Background(), q)
	requireReason(t, err, aggregator.ReasonCircuitOpen)

	time.Sleep(40 * time.Millisecond)
	inner.err = nil
	records, err := a.Fetch(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestWithBreaker_NotConfiguredDoesNotTrip(t *testing.T) {
	inner := &scriptedAdapter{err: notConfigured("scripted")}
	a := WithBreaker[Image](inner, BreakerSettings{Failures: 1, Cooldown: time.Minute}, logger.NewNoOpLogger())
	q := aggregator.Query{Subject: "bali", Limit: 1}

	for i := 0; i < 3; i++ {
		_, err := a.Fetch(context.Background(), q)
		requireReason(t, err, aggregator.ReasonNotConfigured)
	}
	assert.Equal(t, 3, inner.calls)
}

func TestWrapAll_KeepsOrder(t *testing.T) {
	client := NewHTTPClient(time.Second)
	wrapped := WrapAll([]aggregator.Adapter[Image]{
		NewPexelsAdapter(config.APIKeyConfig{APIKey: "p"}, client),
		NewPixabayAdapter(config.APIKeyConfig{APIKey: "x"}, client),
	}, BreakerSettings{}, logger.NewNoOpLogger())

	require.Len(t, wrapped, 2)
	assert.Equal(t, "pexels", wrapped[0].Name())
	assert.Equal(t, "pixabay", wrapped[1].Name())
}
