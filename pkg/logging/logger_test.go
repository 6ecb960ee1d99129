package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]string{
		"":        "info",
		"DEBUG":   "debug",
		"warning": "warn",
		"error":   "error",
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.String(), in)
	}

	_, err := ParseLevel("chatty")
	require.Error(t, err)
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sawyer.log")
	logger, err := New("debug", "json", path)
	require.NoError(t, err)

	logger.Info("episode finished", zap.Int("episode", 3))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"episode finished"`)
	assert.Contains(t, string(data), `"episode":3`)
}

func TestNewRejectsUnknownEncoding(t *testing.T) {
	_, err := New("info", "xml", "")
	require.Error(t, err)
}
