package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetBase(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	base.SetOutput(&buf)
	base.SetLevel(logrus.InfoLevel)
	base.SetReportCaller(false)
	t.Cleanup(func() {
		base.SetOutput(os.Stderr)
		base.SetFormatter(textFormatter(os.Stderr))
		base.SetLevel(logrus.InfoLevel)
	})
	return &buf
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger("test-component")
	require.NotNil(t, logger)
	assert.Equal(t, "test-component", logger.Data["component"])

	// Cached per component
	assert.Same(t, logger, NewLogger("test-component"))
	assert.NotSame(t, logger, NewLogger("other-component"))
}

func TestConfigureJSON(t *testing.T) {
	buf := resetBase(t)
	t.Setenv(LevelEnv, "")

	Configure(Config{Level: "debug", Format: "json"})
	NewLogger("json-test").Debug("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "json-test", entry["component"])
	assert.Equal(t, "debug", entry["level"])
}

func TestConfigureLevel(t *testing.T) {
	buf := resetBase(t)
	t.Setenv(LevelEnv, "")

	Configure(Config{Level: "warn"})
	logger := NewLogger("level-test")
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "component=level-test")
}

func TestConfigureEnvOverride(t *testing.T) {
	buf := resetBase(t)
	t.Setenv(LevelEnv, "trace")

	Configure(Config{Level: "error"})
	NewLogger("env-test").Trace("very verbose")

	assert.Equal(t, logrus.TraceLevel, base.GetLevel())
	assert.Contains(t, buf.String(), "very verbose")
}

func TestConfigureInvalidLevel(t *testing.T) {
	resetBase(t)
	t.Setenv(LevelEnv, "")

	Configure(Config{Level: "loud"})
	assert.Equal(t, logrus.InfoLevel, base.GetLevel())
}
