package pty

import (
	"os"
	"path/filepath"
)

// shellIntegrationDir is the fixed temp directory, shared by all
// raventerm processes, that raventerm writes its shell-integration
// scripts into.
var shellIntegrationDir = filepath.Join(os.TempDir(), "raventerm-shell-integration")

// integrationScript is the OSC 133 semantic-prompt / OSC 7 pwd-report
// hook body for one shell, plus the file extension its interpreter
// expects and whether a SourceRC launch must still source the user's
// own rc file itself (the non-SourceRC launch already skips it).
type integrationScript struct {
	ext          string
	body         string
	sourceUserRC string
}

// supportedShellIntegration lists the shells spec.md §4.4 names as
// supported ("fish, zsh; bash and others may follow"); bash is
// included since the teacher's pty.go already special-cases it for
// BASH_ENV/--rcfile.
var supportedShellIntegration = map[string]integrationScript{
	"zsh": {
		ext: ".zsh",
		body: `# raventerm shell integration
raventerm_precmd() {
	print -Pn "\e]133;D;%?\a\e]133;A\a"
	print -Pn "\e]7;file://%M%~\a"
}
raventerm_preexec() {
	print -Pn "\e]133;C\a"
}
autoload -Uz add-zsh-hook
add-zsh-hook precmd raventerm_precmd
add-zsh-hook preexec raventerm_preexec
print -Pn "\e]133;A\a"
`,
	},
	"fish": {
		ext: ".fish",
		body: `# raventerm shell integration
function __raventerm_prompt --on-event fish_prompt
	printf '\e]133;D;%s\a\e]133;A\a' "$status"
	printf '\e]7;file://%s%s\a' (hostname) (pwd)
end
function __raventerm_preexec --on-event fish_preexec
	printf '\e]133;C\a'
end
`,
	},
	"bash": {
		ext: ".bash",
		body: `# raventerm shell integration
raventerm_prompt_command() {
	printf '\e]133;D;%s\a\e]133;A\a' "$?"
	printf '\e]7;file://%s%s\a' "$(hostname)" "$PWD"
}
PROMPT_COMMAND="raventerm_prompt_command${PROMPT_COMMAND:+; $PROMPT_COMMAND}"
trap 'printf "\e]133;C\a"' DEBUG
`,
		sourceUserRC: `[ -f "$HOME/.bashrc" ] && source "$HOME/.bashrc"` + "\n",
	},
}

// writeZshDotDir builds a temporary ZDOTDIR containing a .zshenv that
// restores ZDOTDIR to the user's real one, sources the user's own
// .zshenv if present, then sources initScriptPath — the ZDOTDIR-
// redirect trick shell-integration tools use to inject hooks without
// editing the user's actual rc files or disabling them.
func writeZshDotDir(homeDir, initScriptPath string) (string, error) {
	if err := os.MkdirAll(shellIntegrationDir, 0o700); err != nil {
		return "", err
	}
	dir, err := os.MkdirTemp(shellIntegrationDir, "zdotdir-*")
	if err != nil {
		return "", err
	}
	content := `__raventerm_zdotdir="${ZDOTDIR:-` + homeDir + `}"
ZDOTDIR="$__raventerm_zdotdir"
[ -f "$__raventerm_zdotdir/.zshenv" ] && source "$__raventerm_zdotdir/.zshenv"
source "` + initScriptPath + `"
`
	if err := os.WriteFile(filepath.Join(dir, ".zshenv"), []byte(content), 0o600); err != nil {
		return "", err
	}
	return dir, nil
}

// writeIntegrationScript renders shellBase's integration hooks (plus,
// for a SourceRC launch, a line sourcing the shell's own rc file first)
// into a fresh file under shellIntegrationDir, returning its path. An
// unsupported shellBase returns an empty path and no error so the
// caller falls back to a plain interactive shell.
func writeIntegrationScript(shellBase string, sourceRC bool) (string, error) {
	script, ok := supportedShellIntegration[shellBase]
	if !ok {
		return "", nil
	}
	if err := os.MkdirAll(shellIntegrationDir, 0o700); err != nil {
		return "", err
	}
	f, err := os.CreateTemp(shellIntegrationDir, "init-"+shellBase+"-*"+script.ext)
	if err != nil {
		return "", err
	}
	defer f.Close()

	body := script.body
	if sourceRC && script.sourceUserRC != "" {
		body = script.sourceUserRC + body
	}
	if _, err := f.WriteString(body); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
