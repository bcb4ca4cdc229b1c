// Package config loads the optional promptlint.toml that tunes the lint
// policy for a project. The file is discovered by walking up from the lint
// target, so a repo-level config applies to everything beneath it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"promptlint/internal/scan"

	"github.com/BurntSushi/toml"
)

const FileName = "promptlint.toml"

// Config mirrors the promptlint.toml layout.
type Config struct {
	Lint   Lint   `toml:"lint"`
	Policy Policy `toml:"policy"`
}

// Lint tunes what gets checked.
type Lint struct {
	// Fields restricts linting to string leaves whose key is listed.
	// Empty means every string leaf.
	Fields []string `toml:"fields"`
	// Flow toggles the template flow checks.
	Flow bool `toml:"flow"`
	// MaxDiagnostics caps the number of reported diagnostics.
	MaxDiagnostics int `toml:"max_diagnostics"`
}

// Policy tunes the delimiter scanner. Pairs are two-rune strings such as
// "()"; Quotes is a string of quote runes; Escape is a one-rune string, empty
// to disable escaping.
type Policy struct {
	Pairs  []string `toml:"pairs"`
	Quotes string   `toml:"quotes"`
	Escape string   `toml:"escape"`
}

// Default is the configuration used when no promptlint.toml exists.
func Default() Config {
	return Config{
		Lint: Lint{
			Flow:           true,
			MaxDiagnostics: 256,
		},
		Policy: Policy{
			Pairs:  []string{"()", "[]", "{}"},
			Escape: `\`,
		},
	}
}

// ScanPolicy converts the TOML policy into a scanner policy.
func (p Policy) ScanPolicy() (scan.Policy, error) {
	out := scan.Policy{}
	for _, s := range p.Pairs {
		open, n := utf8.DecodeRuneInString(s)
		closeRune, m := utf8.DecodeRuneInString(s[n:])
		if open == utf8.RuneError || closeRune == utf8.RuneError || n+m != len(s) {
			return scan.Policy{}, fmt.Errorf("policy pair %q must be exactly two runes", s)
		}
		out.Pairs = append(out.Pairs, scan.Pair{Open: open, Close: closeRune})
	}
	for _, q := range p.Quotes {
		out.Quotes = append(out.Quotes, q)
	}
	if p.Escape != "" {
		esc, n := utf8.DecodeRuneInString(p.Escape)
		if esc == utf8.RuneError || n != len(p.Escape) {
			return scan.Policy{}, fmt.Errorf("policy escape %q must be a single rune", p.Escape)
		}
		out.Escape = esc
	}
	return out, nil
}

// Discover walks up from startDir looking for a promptlint.toml.
func Discover(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load reads one promptlint.toml. Settings absent from the file keep their
// defaults; unknown keys are an error so typos do not silently disable
// checks.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	if _, err := cfg.Policy.ScanPolicy(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ForTarget resolves the effective configuration for a lint target: the
// nearest promptlint.toml above it, or the defaults when none exists.
func ForTarget(target string) (Config, string, error) {
	info, err := os.Stat(target)
	startDir := target
	if err == nil && !info.IsDir() {
		startDir = filepath.Dir(target)
	}
	path, ok, err := Discover(startDir)
	if err != nil {
		return Config{}, "", err
	}
	if !ok {
		return Default(), "", nil
	}
	cfg, err := Load(path)
	if err != nil {
		return Config{}, "", err
	}
	return cfg, path, nil
}
