// internal/common/logger/logger_test.go
package logger

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Options(t *testing.T) {
	out := filepath.Join(t.TempDir(), "service.log")

	l, err := New(Options{Level: "warn", Format: "json", Output: out, Service: "advisor-matching", Version: "1.0.0"})
	require.NoError(t, err)

	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func TestNew_BadOutputFallsBack(t *testing.T) {
	_, err := New(Options{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	require.Error(t, err)

	// NewWithOptions never fails.
	l := NewWithOptions(Options{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	assert.NotNil(t, l)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestWrapper_Fields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := NewZapAdapter(zap.New(core)).
		WithFields(map[string]interface{}{"component": "matching-engine"})

	log.Info("batch run started", map[string]interface{}{
		"runId":       "run-1",
		"concurrency": 4,
		"error":       errors.New("boom"),
	})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "batch run started", entry.Message)

	fields := entry.ContextMap()
	assert.Equal(t, "matching-engine", fields["component"])
	assert.Equal(t, "run-1", fields["runId"])
	assert.Equal(t, "boom", fields["error"])
}

func TestMapToZapFields_SortedKeys(t *testing.T) {
	fields := mapToZapFields(map[string]interface{}{"b": 1, "a": 2, "c": 3})

	require.Len(t, fields, 3)
	assert.Equal(t, "a", fields[0].Key)
	assert.Equal(t, "b", fields[1].Key)
	assert.Equal(t, "c", fields[2].Key)
	assert.Nil(t, mapToZapFields(nil))
}

func TestNewStructured(t *testing.T) {
	log := NewStructured("debug", "console")
	require.NotNil(t, log)
	log.With(map[string]interface{}{"taskType": "calculate-advisor-matches"}).Debug("ready", nil)
}
