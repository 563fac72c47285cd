package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewZapAdapter(zap.New(core)), logs
}

func TestWithError_AttachesError(t *testing.T) {
	log, logs := observed(zapcore.InfoLevel)

	log.WithError(errors.New("db down")).Error("Failed to save itinerary", map[string]interface{}{
		"itinerary_id": "it-1",
	})

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "db down", fields["error"])
	assert.Equal(t, "it-1", fields["itinerary_id"])
}

func TestWith_KeepsFields(t *testing.T) {
	log, logs := observed(zapcore.InfoLevel)

	log.With(map[string]interface{}{"service": "TripEase API"}).Info("started", nil)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "TripEase API", logs.All()[0].ContextMap()["service"])
}

func TestDebug_RespectsLevel(t *testing.T) {
	log, logs := observed(zapcore.InfoLevel)
	log.Debug("provider answered", map[string]interface{}{"records": 3})
	assert.Zero(t, logs.Len())

	log, logs = observed(zapcore.DebugLevel)
	log.Debug("provider answered", map[string]interface{}{"records": 3})
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.DebugLevel, logs.All()[0].Level)
}

func TestErrorValuedField(t *testing.T) {
	log, logs := observed(zapcore.InfoLevel)
	log.Warn("cache read failed", map[string]interface{}{"cause": errors.New("timeout")})

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "timeout", logs.All()[0].ContextMap()["cause"])
}

func TestNew_Levels(t *testing.T) {
	assert.True(t, New("debug", "console").Core().Enabled(zapcore.DebugLevel))
	assert.False(t, New("warn", "json").Core().Enabled(zapcore.InfoLevel))
	assert.True(t, New("", "json").Core().Enabled(zapcore.InfoLevel))
}
