package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/codegraph-cli/internal/config"
)

func initWithBuffer(cfg config.LoggerConfig) *bytes.Buffer {
	ResetForTest()
	var buf bytes.Buffer
	Initialize(cfg, zapcore.AddSync(&buf))
	return &buf
}

func TestInitializeConsoleLogger(t *testing.T) {
	buf := initWithBuffer(config.LoggerConfig{
		Level:       "debug",
		Format:      "console",
		ServiceName: "TestService",
	})

	GetLogger().Info("This is a test message.")

	output := buf.String()
	assert.Contains(t, output, "INFO")
	assert.Contains(t, output, "This is a test message.")
	assert.Contains(t, output, "TestService.")
}

func TestInitializeJSONLogger(t *testing.T) {
	buf := initWithBuffer(config.LoggerConfig{
		Level:       "info",
		Format:      "json",
		ServiceName: "JSONTest",
	})

	GetLogger().Warn("structured message", zap.String("key", "value"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log output should be valid JSON")
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "JSONTest", entry["logger"])
	assert.Equal(t, "structured message", entry["msg"])
	assert.Equal(t, "value", entry["key"])
}

func TestLevelFiltering(t *testing.T) {
	buf := initWithBuffer(config.LoggerConfig{
		Level:  "warn",
		Format: "json",
	})

	GetLogger().Info("filtered out")
	GetLogger().Warn("kept")

	assert.NotContains(t, buf.String(), "filtered out")
	assert.Contains(t, buf.String(), "kept")
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	buf := initWithBuffer(config.LoggerConfig{
		Level:  "shouting",
		Format: "json",
	})

	GetLogger().Debug("too quiet")
	GetLogger().Info("audible")

	assert.NotContains(t, buf.String(), "too quiet")
	assert.Contains(t, buf.String(), "audible")
}

func TestLogFileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "run.log")
	initWithBuffer(config.LoggerConfig{
		Level:   "debug",
		Format:  "console",
		LogFile: logFile,
		MaxSize: 1,
	})

	GetLogger().Error("this should go to the file")
	Sync()

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "this should go to the file")
}

func TestInitializeOnlyOnce(t *testing.T) {
	buf := initWithBuffer(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "First"})

	var other bytes.Buffer
	Initialize(config.LoggerConfig{Level: "debug", Format: "json", ServiceName: "Second"}, zapcore.AddSync(&other))

	GetLogger().Info("after second init")
	assert.Contains(t, buf.String(), "First")
	assert.Empty(t, other.String())
}

func TestGetLoggerFallback(t *testing.T) {
	ResetForTest()
	logger := GetLogger()
	require.NotNil(t, logger)

	ResetForTest()
	Initialize(config.LoggerConfig{Level: "info"}, zapcore.AddSync(&bytes.Buffer{}))
	assert.Equal(t, globalLogger.Load(), GetLogger())
}
