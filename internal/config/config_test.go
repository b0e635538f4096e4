package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreate_WritesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", DefaultConfigFileName)

	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, filepath.Join(dir, "sub", DefaultDBName), cfg.DBPath)
	assert.Equal(t, filepath.Join(dir, "sub", DefaultLogName), cfg.LogPath)
	assert.Equal(t, "date", cfg.DefaultSort)
	assert.Equal(t, "a", cfg.Keys.Add)

	again, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadOrCreate_PartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFileName)
	data := `
db_path = "/var/lib/todo/lists.db"
default_sort = "alpha"

[keys]
add = "n"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/todo/lists.db", cfg.DBPath)
	assert.Equal(t, filepath.Join(dir, DefaultLogName), cfg.LogPath)
	assert.Equal(t, "alpha", cfg.DefaultSort)
	assert.Equal(t, "n", cfg.Keys.Add)
	assert.Equal(t, "q", cfg.Keys.Quit)
	assert.Equal(t, "tab", cfg.Keys.NextField)
}

func TestLoadOrCreate_InvalidToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("db_path = ["), 0o644))

	_, err := LoadOrCreate(path)
	assert.Error(t, err)
}

func TestResolveConfigPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, filepath.Join("/tmp/xdg", AppName, DefaultConfigFileName), ResolveConfigPath())
}
