package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Lin-Jiong-HDU/wissen/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "wissen.log")

	logger, err := New(storage.LogConfig{Level: "debug", File: file})
	require.NoError(t, err)

	logger.Info("routed")
	_ = logger.Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"message":"routed"`))
	assert.True(t, strings.Contains(string(data), `"level":"INFO"`))
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(storage.LogConfig{Level: "laut", File: filepath.Join(t.TempDir(), "x.log")})
	assert.Error(t, err)
}

func TestNew_NoFileIsNop(t *testing.T) {
	logger, err := New(storage.LogConfig{})
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
