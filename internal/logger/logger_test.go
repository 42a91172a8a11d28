package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fertilizer-service/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesDailyFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	log, cleanup, err := New(config.LogConfig{Dir: dir, Level: "info", Format: "json"})
	require.NoError(t, err)

	log.Info("service started")
	log.Debug("hidden at info level")
	cleanup()

	raw, err := os.ReadFile(filepath.Join(dir, LogFileName(time.Now())))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"service started"`)
	assert.NotContains(t, string(raw), "hidden at info level")
}

func TestNew_ConsoleDebug(t *testing.T) {
	dir := t.TempDir()
	log, cleanup, err := New(config.LogConfig{Dir: dir, Level: "debug", Format: "console"})
	require.NoError(t, err)

	log.Debug("verbose")
	cleanup()

	raw, err := os.ReadFile(filepath.Join(dir, LogFileName(time.Now())))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), "verbose"))
}

func TestNew_InvalidSettings(t *testing.T) {
	_, _, err := New(config.LogConfig{Dir: t.TempDir(), Level: "loud"})
	assert.Error(t, err)

	_, _, err = New(config.LogConfig{Dir: t.TempDir(), Format: "xml"})
	assert.Error(t, err)
}

func TestLogFileName(t *testing.T) {
	assert.Equal(t, "log_2026-10-18.log", LogFileName(time.Date(2026, 10, 18, 23, 0, 0, 0, time.UTC)))
}
