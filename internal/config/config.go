// Package config loads the terminal's user-facing configuration from
// a TOML file, following the teacher's XDG-path shape but producing an
// immutable DerivedConfig value instead of a mutable struct saved back
// to disk. Hot reload publishes a brand new DerivedConfig; nothing
// ever mutates one already handed to another goroutine.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"
)

// fileConfig is the on-disk TOML shape.
type fileConfig struct {
	Shell            string            `toml:"shell"`
	SourceRC         bool              `toml:"source_rc"`
	ShellIntegration bool              `toml:"shell_integration"`
	FontSize         float64           `toml:"font_size"`
	Theme            string            `toml:"theme"`
	ScrollbackSize   int               `toml:"scrollback_size"`
	ClipboardRead    string            `toml:"clipboard_read"`
	ClipboardWrite   string            `toml:"clipboard_write"`
	// CursorBlink is "", "on" or "off". "" means the host has no
	// opinion and mode 12 governs; "on"/"off" is an explicit default
	// blink preference that suppresses mode 12 until DECSCUSR overrides
	// it (spec.md §4.2, §9 Design Notes).
	CursorBlink string            `toml:"cursor_blink"`
	Aliases     map[string]string `toml:"aliases"`
}

// DerivedConfig is the immutable, fully-resolved configuration the
// rest of the program consumes. It is never mutated after
// construction; a reload builds and publishes a new one.
type DerivedConfig struct {
	Shell            string
	SourceRC         bool
	ShellIntegration bool
	FontSize         float64
	Theme            string
	ScrollbackSize   int
	ClipboardRead    ClipboardPolicy
	ClipboardWrite   ClipboardPolicy

	// HasCursorBlinkPref and CursorBlinkPref carry the host's explicit
	// default cursor-blink preference, if any; see fileConfig.CursorBlink.
	HasCursorBlinkPref bool
	CursorBlinkPref    bool

	Aliases map[string]string
}

// ClipboardPolicy mirrors streamhandler.ClipboardPolicy without
// importing it, so config has no dependency on the VT layer.
type ClipboardPolicy uint8

const (
	ClipboardAllow ClipboardPolicy = iota
	ClipboardAsk
	ClipboardDeny
)

func parseClipboardPolicy(v string) ClipboardPolicy {
	switch v {
	case "allow":
		return ClipboardAllow
	case "deny":
		return ClipboardDeny
	default:
		return ClipboardAsk
	}
}

func defaultFileConfig() fileConfig {
	return fileConfig{
		ShellIntegration: true,
		FontSize:         16.0,
		Theme:            "raven-blue",
		ScrollbackSize:   10000,
		ClipboardRead:    "ask",
		ClipboardWrite:   "allow",
		Aliases:          map[string]string{},
	}
}

// Derive resolves a fileConfig into the immutable value the rest of
// the program uses.
func (f fileConfig) derive() *DerivedConfig {
	aliases := make(map[string]string, len(f.Aliases))
	for k, v := range f.Aliases {
		aliases[k] = v
	}
	dc := &DerivedConfig{
		Shell:            f.Shell,
		SourceRC:         f.SourceRC,
		ShellIntegration: f.ShellIntegration,
		FontSize:         f.FontSize,
		Theme:            f.Theme,
		ScrollbackSize:   f.ScrollbackSize,
		ClipboardRead:    parseClipboardPolicy(f.ClipboardRead),
		ClipboardWrite:   parseClipboardPolicy(f.ClipboardWrite),
		Aliases:          aliases,
	}
	switch f.CursorBlink {
	case "on":
		dc.HasCursorBlinkPref, dc.CursorBlinkPref = true, true
	case "off":
		dc.HasCursorBlinkPref, dc.CursorBlinkPref = true, false
	}
	return dc
}

// Default returns the built-in configuration, used when no file is
// present or it fails to parse.
func Default() *DerivedConfig {
	return defaultFileConfig().derive()
}

// xdgConfigHome returns $XDG_CONFIG_HOME, or ~/.config if unset or
// empty. Empty and missing are treated identically throughout this
// package, resolving the inconsistency the teacher's lookups had.
func xdgConfigHome() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config"), nil
}

// Path returns the config file's path, creating its parent directory
// if necessary.
func Path() (string, error) {
	base, err := xdgConfigHome()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "raventerm")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads and parses the config file, falling back to Default on a
// missing file. A malformed file is logged and the default is
// returned rather than failing startup.
func Load() *DerivedConfig {
	path, err := Path()
	if err != nil {
		log.Warn().Err(err).Msg("config: resolve path failed, using defaults")
		return Default()
	}

	cfg := defaultFileConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("config: load failed, using defaults")
		}
		return cfg.derive()
	}
	return cfg.derive()
}

// Save writes cfg back to disk in TOML form.
func Save(cfg *DerivedConfig) error {
	path, err := Path()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fc := fileConfig{
		Shell:            cfg.Shell,
		SourceRC:         cfg.SourceRC,
		ShellIntegration: cfg.ShellIntegration,
		FontSize:         cfg.FontSize,
		Theme:            cfg.Theme,
		ScrollbackSize:   cfg.ScrollbackSize,
		Aliases:          cfg.Aliases,
	}
	if cfg.HasCursorBlinkPref {
		if cfg.CursorBlinkPref {
			fc.CursorBlink = "on"
		} else {
			fc.CursorBlink = "off"
		}
	}
	switch cfg.ClipboardRead {
	case ClipboardAllow:
		fc.ClipboardRead = "allow"
	case ClipboardDeny:
		fc.ClipboardRead = "deny"
	default:
		fc.ClipboardRead = "ask"
	}
	switch cfg.ClipboardWrite {
	case ClipboardAllow:
		fc.ClipboardWrite = "allow"
	case ClipboardDeny:
		fc.ClipboardWrite = "deny"
	default:
		fc.ClipboardWrite = "ask"
	}

	return toml.NewEncoder(f).Encode(fc)
}
