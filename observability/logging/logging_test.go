package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerRenamesCoreFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := newLogger(buf, "rewardsd", "test", Options{})
	logger.Info("reward applied", slog.String("slot", "abc"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "reward applied", line["message"])
	require.Equal(t, "INFO", line["severity"])
	require.Equal(t, "rewardsd", line["service"])
	require.Equal(t, "test", line["env"])
	require.Equal(t, "abc", line["slot"])
	require.Contains(t, line, "timestamp")
}

func TestLoggerLevelFilter(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := newLogger(buf, "rewardsd", "", Options{Level: "warn", Format: "text"})
	logger.Info("dropped")
	require.Zero(t, buf.Len())
	logger.Warn("kept")
	require.Contains(t, buf.String(), "kept")
	require.Contains(t, buf.String(), "severity=WARN")
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	require.Equal(t, slog.LevelError, ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestSetupWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rewards.log")
	logger := SetupWithOptions("rewardsd", "", Options{File: path})
	require.NotNil(t, logger)
	logger.Info("hello")
	require.FileExists(t, path)
}

func TestMaskField(t *testing.T) {
	require.Equal(t, RedactedValue, MaskField("token", "secret").Value.String())
	require.Equal(t, "abc", MaskField("slot", "abc").Value.String())
	require.Equal(t, "", MaskField("token", "").Value.String())
	require.Equal(t, RedactedValue, MaskField("owner", "alice").Value.String())
	require.Equal(t, "Check-in", MaskField(" Activity ", "Check-in").Value.String())
}

func TestLoggerMasksIdentityAttrs(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := newLogger(buf, "rewardsd", "", Options{})
	logger.Warn("reward rejected", slog.String("owner", "alice"), slog.String("user", ""), slog.String("slot", "abc"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, RedactedValue, line["owner"])
	require.Equal(t, "", line["user"])
	require.Equal(t, "abc", line["slot"])
	require.NotContains(t, buf.String(), "alice")
}
