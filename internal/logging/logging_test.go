package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, Level(true))
	assert.Equal(t, logrus.WarnLevel, Level(false))
}

func TestNew_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "temp_check.log")
	require.NoError(t, os.WriteFile(path, []byte("previous run\n"), 0o644))

	logger, closer := New(path, false)
	logger.Info("hidden at warning level")
	logger.Warn("CPU temperature not found")
	logger.Error("Subprocess call failed.")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")

	require.Len(t, lines, 3)
	assert.Equal(t, "previous run", lines[0])
	assert.Contains(t, lines[1], "level=warning")
	assert.Contains(t, lines[1], `msg="CPU temperature not found"`)
	assert.Contains(t, lines[1], "time=")
	assert.Contains(t, lines[2], "level=error")
	assert.NotContains(t, string(data), "hidden at warning level")
}

func TestNew_VerboseLogsDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "temp_check.log")

	logger, closer := New(path, true)
	logger.Debug("Launching sensor command...")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "level=debug")
}

func TestNew_FallsBackToStderr(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "temp_check.log")

	logger, closer := New(path, false)
	assert.Equal(t, os.Stderr, logger.Out)
	assert.NoError(t, closer.Close())
}

func TestStackField(t *testing.T) {
	err := errors.Wrap(errors.New("exit status 1"), "run istats")

	field := StackField(err)
	assert.Contains(t, field, "run istats: exit status 1")
	assert.Contains(t, field, "logging.TestStackField")
}
