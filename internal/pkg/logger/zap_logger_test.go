package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewFromZap(zap.New(core))

	l.Info("Orchestrator", "Run started", map[string]interface{}{"request_id": "r-1"})
	l.Error("Orchestrator", "Run failed", map[string]interface{}{"error": "boom"})
	l.Debug("Orchestrator", "nil details", nil)

	entries := logs.All()
	require.Len(t, entries, 3)

	first := entries[0].ContextMap()
	assert.Equal(t, "Orchestrator", first["module"])
	assert.Equal(t, map[string]interface{}{"request_id": "r-1"}, first["details"])

	second := entries[1].ContextMap()
	assert.Equal(t, "boom", second["error_ref"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)

	assert.Equal(t, map[string]interface{}{}, entries[2].ContextMap()["details"])
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Warn("x", "y", nil)
	assert.NoError(t, l.Sync())
}
