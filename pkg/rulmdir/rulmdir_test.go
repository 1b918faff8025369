package rulmdir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDir_PathAccessors(t *testing.T) {
	d := New("/home/u/.config/rulm")

	assert.Equal(t, "/home/u/.config/rulm", d.Root())
	assert.Equal(t, "/home/u/.config/rulm/config.yaml", d.ConfigPath())
	assert.Equal(t, "/home/u/.config/rulm/rulm.log", d.LogPath())
	assert.Equal(t, "/home/u/.config/rulm/.env", d.EnvPath())
}

func TestEnsureStructure(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "nested", "rulm"))
	assert.False(t, d.Exists())

	require.NoError(t, EnsureStructure(d))
	assert.True(t, d.Exists())

	// Idempotent.
	require.NoError(t, EnsureStructure(d))
}

func TestResolveConfig(t *testing.T) {
	work := t.TempDir()
	d := New(t.TempDir())

	assert.Empty(t, ResolveConfig("", work, d))
	assert.Equal(t, "/explicit.yaml", ResolveConfig("/explicit.yaml", work, d))

	require.NoError(t, os.WriteFile(d.ConfigPath(), []byte("model: x\n"), 0o600))
	assert.Equal(t, d.ConfigPath(), ResolveConfig("", work, d))

	local := filepath.Join(work, LocalConfigName)
	require.NoError(t, os.WriteFile(local, []byte("model: y\n"), 0o600))
	assert.Equal(t, local, ResolveConfig("", work, d))
}
