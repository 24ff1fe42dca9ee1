package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))
}

func TestSetDefaults(t *testing.T) {
	cfg := Config{}
	setDefaults(&cfg)

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
	assert.Equal(t, 100, cfg.MaxSize)
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.log")

	log, err := New(Config{Output: "file", FilePath: path, Format: "console"})
	require.NoError(t, err)

	log.Info("hello", "key", "value")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, string(data), "value")
}

func TestKeyValuePairs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core)).Named("hub").With("component", "test")

	log.Warn("Send buffer full", "userID", "u1")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "hub", entries[0].LoggerName)
	fields := entries[0].ContextMap()
	assert.Equal(t, "u1", fields["userID"])
	assert.Equal(t, "test", fields["component"])
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNop().Error("ignored", "k", 1)
	})
}
