package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/gautamnaik0719/noormeds/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileOutputWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, closer, err := New(
		config.LoggingConfig{Level: "debug", Format: "json", Output: "file", FilePath: path},
		config.AppConfig{Name: "noormeds", Environment: "test", Version: "1.0.0"},
	)
	require.NoError(t, err)
	require.NotNil(t, closer)

	logger.Info().Str("key", "value").Msg("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "hello", entry["message"])
	assert.Equal(t, "noormeds", entry["app"])
	assert.Equal(t, "test", entry["env"])
	assert.Equal(t, "value", entry["key"])
}

func TestNewFileOutputRequiresPath(t *testing.T) {
	_, _, err := New(config.LoggingConfig{Output: "file"}, config.AppConfig{})
	assert.Error(t, err)
}

func TestNewLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, closer, err := New(
		config.LoggingConfig{Level: "warn", Output: "file", FilePath: path},
		config.AppConfig{Name: "noormeds"},
	)
	require.NoError(t, err)

	logger.Info().Msg("dropped")
	logger.Warn().Msg("kept")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
}

func TestNewUnknownLevelDefaultsToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, closer, err := New(
		config.LoggingConfig{Level: "loud", Output: "file", FilePath: path},
		config.AppConfig{Name: "noormeds"},
	)
	require.NoError(t, err)

	logger.Debug().Msg("dropped")
	logger.Info().Msg("kept")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
}

func TestComponentTagsChildLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, closer, err := New(
		config.LoggingConfig{Output: "file", FilePath: path},
		config.AppConfig{Name: "noormeds"},
	)
	require.NoError(t, err)

	child := Component(logger, "ledger")
	child.Info().Msg("tagged")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"ledger"`)
}
