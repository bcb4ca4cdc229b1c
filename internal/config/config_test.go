package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
[lint]
fields = ["text", "summary"]
flow = false
max_diagnostics = 10

[policy]
pairs = ["()"]
quotes = "\"'"
escape = ""
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(cfg.Lint.Fields) != 2 || cfg.Lint.Fields[0] != "text" {
		t.Fatalf("fields = %v", cfg.Lint.Fields)
	}
	if cfg.Lint.Flow {
		t.Fatal("flow should be disabled")
	}
	if cfg.Lint.MaxDiagnostics != 10 {
		t.Fatalf("max_diagnostics = %d", cfg.Lint.MaxDiagnostics)
	}
	policy, err := cfg.Policy.ScanPolicy()
	if err != nil {
		t.Fatalf("ScanPolicy error: %v", err)
	}
	if len(policy.Pairs) != 1 || policy.Pairs[0].Open != '(' {
		t.Fatalf("pairs = %v", policy.Pairs)
	}
	if len(policy.Quotes) != 2 {
		t.Fatalf("quotes = %v", policy.Quotes)
	}
	if policy.Escape != 0 {
		t.Fatalf("escape = %q, want disabled", policy.Escape)
	}
}

func TestLoadKeepsUnsetDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "[lint]\nfields = [\"text\"]\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if !cfg.Lint.Flow {
		t.Fatal("flow default lost")
	}
	if len(cfg.Policy.Pairs) != 3 {
		t.Fatalf("default pairs lost: %v", cfg.Policy.Pairs)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "[lint]\nfeilds = [\"text\"]\n")
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted a misspelled key")
	}
}

func TestLoadRejectsBadPolicy(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "[policy]\npairs = [\"(\"]\n")
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted a one-rune pair")
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	want := writeConfig(t, root, "[lint]\nflow = true\n")

	got, ok, err := Discover(nested)
	if err != nil {
		t.Fatalf("Discover error: %v", err)
	}
	if !ok || got != want {
		t.Fatalf("Discover = %q ok=%v, want %q", got, ok, want)
	}
}

func TestForTargetWithoutConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, path, err := ForTarget(dir)
	if err != nil {
		t.Fatalf("ForTarget error: %v", err)
	}
	if path != "" {
		t.Fatalf("unexpected config path %q", path)
	}
	if !cfg.Lint.Flow || cfg.Lint.MaxDiagnostics != 256 {
		t.Fatalf("defaults not applied: %+v", cfg.Lint)
	}
}
