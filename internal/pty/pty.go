// Package pty drives a pseudo-terminal-backed shell subprocess: shell
// discovery, environment construction, read/write/resize, and exit
// monitoring.
package pty

import (
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"strings"
	"sync"
	"syscall"

	"github.com/creack/pty"
	"github.com/rs/zerolog/log"
)

// ShellConfig is the subset of config the session needs to build the
// child command; internal/config supplies the concrete values.
type ShellConfig struct {
	Path             string
	SourceRC         bool
	ShellIntegration bool
	AdditionalEnv    map[string]string
}

// Session owns one pty-backed shell subprocess.
type Session struct {
	cmd *exec.Cmd
	pty *os.File

	mu sync.Mutex

	exitedMu sync.Mutex
	exited   bool
	exitErr  error
}

// Start launches the configured shell attached to a new pty of the
// given size.
func Start(cols, rows uint16, cfg ShellConfig) (*Session, error) {
	shell := findShell(cfg)

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("pty: resolve current user: %w", err)
	}

	shellBase := shell
	if idx := strings.LastIndex(shell, "/"); idx >= 0 {
		shellBase = shell[idx+1:]
	}

	var initScriptPath, zdotdir string
	if cfg.ShellIntegration {
		if path, err := writeIntegrationScript(shellBase, cfg.SourceRC); err != nil {
			log.Warn().Err(err).Str("shell", shellBase).Msg("pty: shell integration script failed, continuing without it")
		} else {
			initScriptPath = path
		}
		if shellBase == "zsh" && cfg.SourceRC && initScriptPath != "" {
			if dir, err := writeZshDotDir(currentUser.HomeDir, initScriptPath); err != nil {
				log.Warn().Err(err).Msg("pty: zsh ZDOTDIR redirect failed, continuing without shell integration hooks")
			} else {
				zdotdir = dir
			}
		}
	}

	cmd := buildShellCommand(shell, shellBase, cfg.SourceRC, initScriptPath)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	cmd.Env = buildEnv(currentUser, shell, shellBase, initScriptPath, zdotdir, cfg)
	cmd.Dir = currentUser.HomeDir

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: cols, Rows: rows})
	if err != nil {
		return nil, fmt.Errorf("pty: start %s: %w", shell, err)
	}

	s := &Session{cmd: cmd, pty: ptmx}

	go func() {
		err := cmd.Wait()
		s.exitedMu.Lock()
		s.exited = true
		s.exitErr = err
		s.exitedMu.Unlock()
	}()

	log.Info().Str("shell", shell).Uint16("cols", cols).Uint16("rows", rows).Msg("pty session started")
	return s, nil
}

// buildShellCommand builds the argv for shell. zsh and fish take shell
// integration's rc-augmentation via ZDOTDIR and --init-command
// respectively (set up by buildEnv and here); bash needs the init
// script named explicitly via --rcfile since bash has no rc-lookup
// directory to redirect.
func buildShellCommand(shell, shellBase string, sourceRC bool, initScriptPath string) *exec.Cmd {
	if sourceRC {
		switch shellBase {
		case "bash":
			if initScriptPath != "" {
				return exec.Command(shell, "--rcfile", initScriptPath, "-i")
			}
			return exec.Command(shell, "-i")
		case "fish":
			if initScriptPath != "" {
				return exec.Command(shell, "--init-command", "source "+initScriptPath, "-i")
			}
			return exec.Command(shell, "-i")
		default:
			return exec.Command(shell, "-i")
		}
	}
	switch shellBase {
	case "bash":
		if initScriptPath != "" {
			return exec.Command(shell, "--noprofile", "--rcfile", initScriptPath, "-i")
		}
		return exec.Command(shell, "--noprofile", "--norc", "-i")
	case "zsh":
		return exec.Command(shell, "--no-rcs", "-i")
	case "fish":
		if initScriptPath != "" {
			return exec.Command(shell, "--no-config", "--init-command", "source "+initScriptPath, "-i")
		}
		return exec.Command(shell, "--no-config", "-i")
	default:
		return exec.Command(shell, "-i")
	}
}

// buildEnv builds the child's environment. When shell integration is
// enabled, bash gets BASH_ENV pointed at the helper script for the
// non-SourceRC launch (both bash launches also pass --rcfile),
// and zsh gets ZDOTDIR redirected to a directory that chains into the
// user's own dotfiles before sourcing the helper (spec.md §4.4:
// "prepends helper paths to relevant environment variables and
// augments rc-file lookup").
func buildEnv(u *user.User, shell, shellBase, initScriptPath, zdotdir string, cfg ShellConfig) []string {
	xdgRuntimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if xdgRuntimeDir == "" {
		xdgRuntimeDir = "/run/user/" + u.Uid
	}

	env := []string{
		"PATH=/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin:" + os.Getenv("PATH"),
		"TERM=xterm-256color",
		"COLORTERM=truecolor",
		"TERM_PROGRAM=raventerm",
		"HOME=" + u.HomeDir,
		"USER=" + u.Username,
		"SHELL=" + shell,
		"LANG=en_US.UTF-8",
		"LC_ALL=en_US.UTF-8",
		"XDG_RUNTIME_DIR=" + xdgRuntimeDir,
	}

	if display := os.Getenv("DISPLAY"); display != "" {
		env = append(env, "DISPLAY="+display)
	}
	if wayland := os.Getenv("WAYLAND_DISPLAY"); wayland != "" {
		env = append(env, "WAYLAND_DISPLAY="+wayland, "XDG_SESSION_TYPE=wayland")
	}

	if initScriptPath != "" {
		if shellBase == "bash" && !cfg.SourceRC {
			env = append(env, "BASH_ENV="+initScriptPath)
		}
		if zdotdir != "" {
			env = append(env, "ZDOTDIR="+zdotdir)
		}
	}

	for k, v := range cfg.AdditionalEnv {
		env = append(env, k+"="+v)
	}
	return env
}

func findShell(cfg ShellConfig) string {
	if cfg.Path != "" {
		if _, err := os.Stat(cfg.Path); err == nil {
			return cfg.Path
		}
	}
	if currentUser, err := user.Current(); err == nil {
		if shell := shellFromPasswd(currentUser.Username); shell != "" {
			if _, err := os.Stat(shell); err == nil {
				return shell
			}
		}
	}
	for _, shell := range []string{"/bin/bash", "/usr/bin/bash", "/bin/zsh", "/usr/bin/zsh", "/bin/sh"} {
		if _, err := os.Stat(shell); err == nil {
			return shell
		}
	}
	return "/bin/sh"
}

func shellFromPasswd(username string) string {
	data, err := os.ReadFile("/etc/passwd")
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Split(line, ":")
		if len(fields) >= 7 && fields[0] == username {
			return fields[6]
		}
	}
	return ""
}

// Read reads raw bytes from the pty master. It blocks until data
// arrives, the pty closes, or the process exits.
func (s *Session) Read(buf []byte) (int, error) {
	return s.pty.Read(buf)
}

// Write sends bytes to the child's stdin via the pty master.
func (s *Session) Write(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pty.Write(data)
}

// Resize updates the pty's reported window size (SIGWINCH to the
// foreground process group).
func (s *Session) Resize(cols, rows uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pty.Setsize(s.pty, &pty.Winsize{Cols: cols, Rows: rows})
}

// HasExited reports whether the child process has terminated.
func (s *Session) HasExited() (bool, error) {
	s.exitedMu.Lock()
	defer s.exitedMu.Unlock()
	return s.exited, s.exitErr
}

// Signal delivers a signal to the child process (SIGHUP on close).
func (s *Session) Signal(sig os.Signal) error {
	if s.cmd.Process == nil {
		return nil
	}
	return s.cmd.Process.Signal(sig)
}

// Close terminates the child process and releases the pty master.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Signal(syscall.SIGHUP)
		s.cmd.Process.Kill()
	}
	return s.pty.Close()
}
