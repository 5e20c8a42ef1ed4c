package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestConfigure_ConsoleFormats(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := Configure(Options{Level: "debug", Format: "json", Writer: &buf})
	require.NoError(t, err)
	defer closer.Close()

	logger.Debug("hello", "error", errors.New("boom"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "boom", rec["err"])
	assert.NotContains(t, rec, "error")

	_, _, err = Configure(Options{Format: "xml"})
	assert.Error(t, err)
}

func TestConfigure_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := Configure(Options{Level: "warn", Writer: &buf})
	require.NoError(t, err)

	logger.Info("quiet")
	logger.Warn("loud")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestConfigure_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bardic.log")
	var buf bytes.Buffer
	logger, closer, err := Configure(Options{File: path, Writer: &buf})
	require.NoError(t, err)

	logger.With("story", "cave").Info("started")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"started"`)
	assert.Contains(t, string(data), `"story":"cave"`)
	assert.Contains(t, buf.String(), "started")
}
