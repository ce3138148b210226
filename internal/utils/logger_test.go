package utils

import (
	"accounting-admin/internal/config"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("level and json output", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&config.Config{LogLevel: "debug", LogFormat: "json"}, &buf)
		assert.Equal(t, logrus.DebugLevel, l.GetLevel())

		l.WithField("session_id", "abc").Debug("Import session started")

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "Import session started", entry["msg"])
		assert.Equal(t, "abc", entry["session_id"])
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&config.Config{LogLevel: "chatty"}, &buf)
		assert.Equal(t, logrus.InfoLevel, l.GetLevel())

		l.Debug("hidden")
		assert.Empty(t, buf.String())
	})

	t.Run("text format", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&config.Config{LogLevel: "warn", LogFormat: "TEXT"}, &buf)
		l.Warn("Degraded mode")
		assert.Contains(t, buf.String(), `msg="Degraded mode"`)
	})
}

func TestConfigureLogger(t *testing.T) {
	configured := ConfigureLogger(&config.Config{LogLevel: "error"})
	t.Cleanup(func() { ConfigureLogger(&config.Config{LogLevel: "info"}) })

	assert.Same(t, configured, GetLogger())
	assert.Equal(t, logrus.ErrorLevel, GetLogger().GetLevel())
}
