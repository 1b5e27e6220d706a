package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metallircd.log")

	logger, err := NewLogger("Debug", path)
	require.NoError(t, err)

	logger.Info("listening on %s", "127.0.0.1:6667")
	logger.Debug("worker round %d", 1)
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "INFO")
	assert.Contains(t, content, "listening on 127.0.0.1:6667")
	assert.Contains(t, content, "DEBUG")
	assert.Contains(t, content, "worker round 1")
}

func TestLoggerLevelThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metallircd.log")

	logger, err := NewLogger("Error", path)
	require.NoError(t, err)

	logger.Info("suppressed line")
	logger.Error("surfaced line")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	assert.NotContains(t, content, "suppressed line")
	assert.Contains(t, content, "surfaced line")
}

func TestLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger("Verbose", "")
	assert.Error(t, err)
}
