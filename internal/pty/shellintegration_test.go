package pty

import (
	"os"
	"os/user"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteIntegrationScriptUnsupportedShellReturnsEmpty(t *testing.T) {
	path, err := writeIntegrationScript("tcsh", true)
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestWriteIntegrationScriptZsh(t *testing.T) {
	path, err := writeIntegrationScript("zsh", true)
	require.NoError(t, err)
	require.NotEmpty(t, path)
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "133;A")
	assert.Contains(t, string(data), "add-zsh-hook")
}

func TestWriteIntegrationScriptBashSourceRCIncludesUserRC(t *testing.T) {
	path, err := writeIntegrationScript("bash", true)
	require.NoError(t, err)
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), ".bashrc")
}

func TestWriteIntegrationScriptBashNoSourceRCSkipsUserRC(t *testing.T) {
	path, err := writeIntegrationScript("bash", false)
	require.NoError(t, err)
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), ".bashrc")
}

func TestWriteZshDotDirChainsIntoHomeAndInitScript(t *testing.T) {
	home := t.TempDir()
	init := filepath.Join(t.TempDir(), "init.zsh")
	require.NoError(t, os.WriteFile(init, []byte("# hooks"), 0o600))

	dir, err := writeZshDotDir(home, init)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, ".zshenv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), home)
	assert.Contains(t, string(data), init)
}

func TestBuildShellCommandZshSourceRCHasNoSpecialFlags(t *testing.T) {
	cmd := buildShellCommand("/bin/zsh", "zsh", true, "")
	assert.Equal(t, []string{"/bin/zsh", "-i"}, cmd.Args)
}

func TestBuildShellCommandBashSourceRCWithInitScriptUsesRCFile(t *testing.T) {
	cmd := buildShellCommand("/bin/bash", "bash", true, "/tmp/init.bash")
	assert.Equal(t, []string{"/bin/bash", "--rcfile", "/tmp/init.bash", "-i"}, cmd.Args)
}

func TestBuildShellCommandBashNoSourceRCWithoutInitScriptDisablesRC(t *testing.T) {
	cmd := buildShellCommand("/bin/bash", "bash", false, "")
	assert.Equal(t, []string{"/bin/bash", "--noprofile", "--norc", "-i"}, cmd.Args)
}

func TestBuildEnvSetsZdotdirAndBashEnvOnlyWhenGiven(t *testing.T) {
	u := &user.User{HomeDir: "/home/x", Uid: "1000", Username: "x"}
	env := buildEnv(u, "/bin/zsh", "zsh", "/tmp/init.zsh", "/tmp/zdotdir", ShellConfig{})
	assert.Contains(t, env, "ZDOTDIR=/tmp/zdotdir")

	env = buildEnv(u, "/bin/bash", "bash", "/tmp/init.bash", "", ShellConfig{SourceRC: false})
	assert.Contains(t, env, "BASH_ENV=/tmp/init.bash")
}
