package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultHasSaneValues(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "raven-blue", cfg.Theme)
	assert.Equal(t, 10000, cfg.ScrollbackSize)
	assert.Equal(t, ClipboardAsk, cfg.ClipboardRead)
	assert.Equal(t, ClipboardAllow, cfg.ClipboardWrite)
}

func TestXDGConfigHomeEmptyTreatedAsUnset(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")

	dir, err := xdgConfigHome()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config"), dir)
}

func TestXDGConfigHomeHonoredWhenSet(t *testing.T) {
	custom := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", custom)

	dir, err := xdgConfigHome()
	require.NoError(t, err)
	assert.Equal(t, custom, dir)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.Shell = "/bin/zsh"
	cfg.FontSize = 18.5
	cfg.ClipboardRead = ClipboardDeny
	cfg.Aliases = map[string]string{"ll": "ls -la"}

	require.NoError(t, Save(cfg))

	loaded := Load()
	assert.Equal(t, "/bin/zsh", loaded.Shell)
	assert.Equal(t, 18.5, loaded.FontSize)
	assert.Equal(t, ClipboardDeny, loaded.ClipboardRead)
	assert.Equal(t, "ls -la", loaded.Aliases["ll"])
}

func TestLoadFallsBackToDefaultOnMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Load()
	assert.Equal(t, Default().Theme, cfg.Theme)
}

func TestLoadFallsBackToDefaultOnMalformedFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, err := Path()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("not valid = [ toml"), 0o644))

	cfg := Load()
	assert.Equal(t, Default().ScrollbackSize, cfg.ScrollbackSize)
}

func TestCursorBlinkPrefRoundTrips(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	assert.False(t, cfg.HasCursorBlinkPref)

	cfg.HasCursorBlinkPref = true
	cfg.CursorBlinkPref = false
	require.NoError(t, Save(cfg))

	loaded := Load()
	assert.True(t, loaded.HasCursorBlinkPref)
	assert.False(t, loaded.CursorBlinkPref)
}

func TestDeriveCopiesAliasesNotAliased(t *testing.T) {
	f := defaultFileConfig()
	f.Aliases["gs"] = "git status"

	derived := f.derive()
	f.Aliases["gs"] = "mutated"

	assert.Equal(t, "git status", derived.Aliases["gs"])
}
