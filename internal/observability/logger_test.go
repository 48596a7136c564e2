// File: internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/spindle/internal/config"
)

// -- Test Helper Functions --

// initToBuffer resets the global logger and initializes it against an in-memory writer.
func initToBuffer(t *testing.T, cfg config.LoggerConfig) *bytes.Buffer {
	t.Helper()
	ResetForTest()
	t.Cleanup(ResetForTest)
	var buf bytes.Buffer
	Initialize(cfg, zapcore.AddSync(&buf))
	return &buf
}

// -- Test Cases --

func TestInitialize(t *testing.T) {
	t.Run("should initialize console logger with colors", func(t *testing.T) {
		buf := initToBuffer(t, config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "spindle",
			Colors:      config.ColorConfig{Info: "green"},
		})
		GetLogger().Named("controller").Info("Step entered.")
		Sync()

		output := buf.String()
		assert.Contains(t, output, "INFO")
		assert.Contains(t, output, "Step entered.")
		assert.Contains(t, output, "spindle.controller.")
		assert.Contains(t, output, colorGreen, "Info level should be colorized green")
		assert.Contains(t, output, colorReset)
	})

	t.Run("should initialize json logger", func(t *testing.T) {
		buf := initToBuffer(t, config.LoggerConfig{
			Level:       "info",
			Format:      "json",
			ServiceName: "JSONTest",
		})
		GetLogger().Warn("Spin refused.", zap.String("wheel", "location"))
		Sync()

		var logEntry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry), "Log output should be valid JSON")

		assert.Equal(t, "WARN", logEntry["level"])
		assert.Equal(t, "JSONTest", logEntry["logger"])
		assert.Equal(t, "Spin refused.", logEntry["msg"])
		assert.Equal(t, "location", logEntry["wheel"])
	})

	t.Run("should respect the configured level", func(t *testing.T) {
		buf := initToBuffer(t, config.LoggerConfig{Level: "warn", Format: "json"})
		GetLogger().Info("hidden")
		GetLogger().Debug("hidden too")
		Sync()
		assert.Empty(t, buf.String())
	})

	t.Run("should write to a log file if configured", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "spindle.log")
		initToBuffer(t, config.LoggerConfig{
			Level:   "debug",
			Format:  "console",
			LogFile: path,
			MaxSize: 1,
		})
		GetLogger().Error("This should go to the file.")
		Sync()

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "This should go to the file.")
		assert.Contains(t, string(content), `"level":"ERROR"`, "the file is always JSON")
	})

	t.Run("should fall back to info on an unknown level and say so", func(t *testing.T) {
		buf := initToBuffer(t, config.LoggerConfig{Level: "chatty", Format: "json"})
		GetLogger().Debug("hidden")
		GetLogger().Info("shown")
		Sync()

		out := buf.String()
		assert.Contains(t, out, "Unknown log level; using info.")
		assert.Contains(t, out, `"configured_level":"chatty"`)
		assert.Contains(t, out, "shown")
		assert.NotContains(t, out, "hidden")
	})

	t.Run("should leave levels with unknown color names plain", func(t *testing.T) {
		buf := initToBuffer(t, config.LoggerConfig{
			Level:  "debug",
			Format: "console",
			Colors: config.ColorConfig{Warn: "Yellow", Error: "chartreuse"},
		})
		GetLogger().Warn("colored")
		GetLogger().Error("plain")
		Sync()

		out := buf.String()
		assert.Contains(t, out, colorYellow+"WARN"+colorReset, "color names are case-insensitive")
		assert.Contains(t, out, "ERROR")
		assert.NotContains(t, out, "chartreuse")
		assert.NotContains(t, out, colorReset+"ERROR")
	})

	t.Run("should only initialize once", func(t *testing.T) {
		buf := initToBuffer(t, config.LoggerConfig{Level: "info", Format: "json", ServiceName: "First"})
		logger1 := GetLogger()

		Initialize(config.LoggerConfig{Level: "debug", ServiceName: "Second"}, zapcore.AddSync(&bytes.Buffer{}))
		logger2 := GetLogger()

		assert.Same(t, logger1, logger2)
		logger2.Info("test")
		Sync()

		assert.Contains(t, buf.String(), "First")
		assert.NotContains(t, buf.String(), "Second")
	})
}

func TestGetLogger(t *testing.T) {
	t.Run("should return a fallback logger if not initialized", func(t *testing.T) {
		ResetForTest()
		require.NotNil(t, GetLogger())
	})

	t.Run("should return the global logger after initialization", func(t *testing.T) {
		initToBuffer(t, config.LoggerConfig{Level: "info", ServiceName: "GlobalTest"})
		assert.Same(t, globalLogger.Load(), GetLogger())
	})
}

func TestSync(t *testing.T) {
	t.Run("should be a no-op before initialization", func(t *testing.T) {
		ResetForTest()
		assert.NotPanics(t, Sync)
	})

	t.Run("should ignore errors from syncing a terminal", func(t *testing.T) {
		assert.True(t, ignorableSyncError(errors.New("sync /dev/stdout: invalid argument")))
		assert.True(t, ignorableSyncError(errors.New("sync /dev/stderr: inappropriate ioctl for device")))
		assert.False(t, ignorableSyncError(errors.New("write spindle.log: no space left on device")))
	})
}
