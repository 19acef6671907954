package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, lvl)

	lvl, err = ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, lvl)

	_, err = ParseLevel("bavard")
	assert.Error(t, err)
}

func TestNew_VerboseForcesDebug(t *testing.T) {
	logger, err := New(Options{Level: "error", Verbose: true, OutputPaths: []string{filepath.Join(t.TempDir(), "log")}})
	require.NoError(t, err)

	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNew_JSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filiere.log")

	logger, err := New(Options{Level: "info", JSON: true, OutputPaths: []string{path}})
	require.NoError(t, err)
	logger.Info("document saved")
	logger.Debug("cache hit")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"document saved"`)
	assert.False(t, strings.Contains(string(data), "cache hit"))
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}
