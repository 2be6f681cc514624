package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30, cfg.Engine.NodeTimeoutSeconds)
	assert.Equal(t, 300, cfg.Engine.RequestTimeoutSeconds)
}

func TestLoadConfigMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"server": {"port": 9090}, "storage": {"type": "postgres"}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Storage.Type)
	// Untouched defaults survive
	assert.Equal(t, 30, cfg.Engine.NodeTimeoutSeconds)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0644))
	t.Setenv("RANTIR_STORAGE_TYPE", "dynamodb")
	t.Setenv("RANTIR_PORT", "7070")

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "dynamodb", cfg.Storage.Type)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestSaveAndReloadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := DefaultConfig()
	cfg.Server.Port = 8888

	require.NoError(t, SaveConfig(cfg, path))
	loaded, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, 8888, loaded.Server.Port)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/does/not/exist.json")

	assert.Error(t, err)
}
