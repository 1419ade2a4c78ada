package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"xrayphasemap/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicLogging(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithOutput(&buf))

	l.Info("info message")
	assert.Contains(t, buf.String(), "INFO")
	assert.Contains(t, buf.String(), "info message")
	buf.Reset()

	l.Warn("warn message")
	assert.Contains(t, buf.String(), "WARNING")
	assert.Contains(t, buf.String(), "warn message")
	buf.Reset()

	l.Error("error message")
	assert.Contains(t, buf.String(), "ERROR")
	assert.Contains(t, buf.String(), "error message")
	buf.Reset()

	l.Infof("formatted %s", "message")
	assert.Contains(t, buf.String(), "formatted message")
}

func TestLineFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithOutput(&buf), WithName("pyXRayPhaseMap"))

	l.Named("MainWindow").Info("MainWindow.open")

	line := strings.TrimSpace(buf.String())
	parts := strings.Split(line, " : ")
	require.Len(t, parts, 4, line)
	assert.Equal(t, "pyXRayPhaseMap.MainWindow", parts[1])
	assert.Equal(t, "INFO", parts[2])
	assert.Equal(t, "MainWindow.open", parts[3])
}

func TestDebugLogging(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithOutput(&buf))

	l.Debug("debug message")
	assert.Empty(t, buf.String())

	l = NewLogger(WithOutput(&buf), WithLevel("debug"))
	l.Debug("debug message")
	assert.Contains(t, buf.String(), "DEBUG")
	assert.Contains(t, buf.String(), "debug message")
	buf.Reset()

	l.Debugf("formatted %s", "debug")
	assert.Contains(t, buf.String(), "formatted debug")
}

func TestStructuredLogging(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithOutput(&buf))

	l.With(F("key1", "value1"), F("key2", 123)).Info("structured message")
	output := buf.String()
	assert.Contains(t, output, "structured message")
	assert.Contains(t, output, "key1=value1")
	assert.Contains(t, output, "key2=123")
	buf.Reset()

	l.With(F("key1", "value1")).With(F("key2", 123)).Info("chained fields")
	output = buf.String()
	assert.Contains(t, output, "chained fields")
	assert.Contains(t, output, "key1=value1")
	assert.Contains(t, output, "key2=123")
}

func TestJSONLogging(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithOutput(&buf), WithJSON())

	l.Info("json message")

	var logEntry map[string]interface{}
	err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &logEntry)
	require.NoError(t, err)

	assert.Equal(t, "info", logEntry["level"])
	assert.Equal(t, "json message", logEntry["message"])
	assert.Equal(t, DefaultName, logEntry["logger"])
	assert.Contains(t, logEntry, "timestamp")
	buf.Reset()

	l.With(F("key1", "value1"), F("key2", 123)).Info("structured json")
	err = json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &logEntry)
	require.NoError(t, err)

	assert.Equal(t, "value1", logEntry["key1"])
	assert.Equal(t, float64(123), logEntry["key2"]) // JSON numbers are float64
}

func TestErrorLogging(t *testing.T) {
	var buf bytes.Buffer

	originalLogger := Default()
	Configure(WithOutput(&buf))
	defer func() { logger = originalLogger }()

	stdErr := fmt.Errorf("standard error")
	LogWithFields(F("error", stdErr.Error())).Error("error occurred")
	output := buf.String()
	assert.Contains(t, output, "error occurred")
	assert.Contains(t, output, "standard error")
	buf.Reset()

	appErr := errors.New("application error")
	LogWithError(appErr).Error("app error occurred")
	output = buf.String()
	assert.Contains(t, output, "app error occurred")
	assert.Contains(t, output, "application error")
	assert.Contains(t, output, "error_kind=0")
	buf.Reset()

	fileErr := errors.NewFileError("cannot read file", "/path/to/file", errors.FileNotFound, nil)
	LogWithError(fileErr).Error("file error occurred")
	output = buf.String()
	assert.Contains(t, output, "file error occurred")
	assert.Contains(t, output, "cannot read file: /path/to/file")
	assert.Contains(t, output, "path=/path/to/file")
	assert.Contains(t, output, fmt.Sprintf("error_kind=%d", errors.FileNotFound))
	buf.Reset()

	configErr := errors.NewConfigError("config error", "logging.max_backups", errors.InvalidConfig, nil)
	LogWithError(configErr).Error("config error occurred")
	output = buf.String()
	assert.Contains(t, output, "param=logging.max_backups")
	assert.Contains(t, output, fmt.Sprintf("error_kind=%d", errors.InvalidConfig))
	buf.Reset()

	settingsErr := errors.NewSettingsError("cannot write settings", "size", errors.SettingsWriteFailed, nil)
	LogWithError(settingsErr).Error("settings error occurred")
	output = buf.String()
	assert.Contains(t, output, "key=size")
	buf.Reset()

	LogError(fileErr, "convenient error log")
	output = buf.String()
	assert.Contains(t, output, "convenient error log")
	assert.Contains(t, output, "cannot read file: /path/to/file")
}

func TestFileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "pyXRayPhaseMap.log")
	var buf bytes.Buffer

	originalLogger := Default()
	Configure(WithOutput(&buf), WithRotation(Rotation{MaxSizeMB: 1, MaxBackups: 10}), WithFile(logPath))
	defer func() {
		require.NoError(t, Close())
		logger = originalLogger
	}()

	Info("file test message")

	assert.Empty(t, buf.String(), "file sink replaces a non-stdout writer")
	fileContent, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(fileContent), "file test message")
	assert.Contains(t, string(fileContent), " : pyXRayPhaseMap : INFO : ")
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithOutput(&buf))

	l.WithContext(nil).Info("context message")
	assert.Contains(t, buf.String(), "context message")
}

func TestConfigure(t *testing.T) {
	originalLogger := Default()
	defer func() { logger = originalLogger }()

	var buf bytes.Buffer
	Configure(WithOutput(&buf), WithJSON())

	Info("global config test")

	var logEntry map[string]interface{}
	err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &logEntry)
	require.NoError(t, err)
	assert.Equal(t, "global config test", logEntry["message"])
}

func TestNilErrorHandling(t *testing.T) {
	var buf bytes.Buffer
	originalLogger := Default()
	Configure(WithOutput(&buf))
	defer func() { logger = originalLogger }()

	LogWithError(nil).Error("nil error test")
	output := buf.String()
	assert.Contains(t, output, "nil error test")
	assert.Contains(t, output, "error=<nil>")
}
