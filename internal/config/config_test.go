package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"jss.toml", "verbose = true\nno_color = true\nfrontend = \"starlark\"\nmax_steps = 500\ndisassemble = true\n"},
		{"jss.yaml", "verbose: true\nno_color: true\nfrontend: starlark\nmax_steps: 500\ndisassemble: true\n"},
		{"jss.yml", "verbose: true\nno_color: true\nfrontend: starlark\nmax_steps: 500\ndisassemble: true\n"},
	}

	want := Config{Verbose: true, NoColor: true, Frontend: FrontendStarlark, MaxSteps: 500, Disassemble: true}

	for _, tt := range tests {
		cfg, err := Load(writeFile(t, dir, tt.name, tt.content))
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if cfg != want {
			t.Errorf("%s: expected %+v, got %+v", tt.name, want, cfg)
		}
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeFile(t, t.TempDir(), "jss.toml", "max_steps = 10\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Frontend != FrontendJSS || cfg.MaxSteps != 10 {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(writeFile(t, dir, "jss.json", "{}")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
	if _, err := Load(writeFile(t, dir, "bad.toml", "frontend = \"python\"\n")); !errors.Is(err, ErrUnknownFrontend) {
		t.Errorf("expected ErrUnknownFrontend, got %v", err)
	}
	if _, err := Load(writeFile(t, dir, "broken.toml", "verbose = \n")); err == nil {
		t.Errorf("expected a decode error")
	}
	if _, err := Load(writeFile(t, dir, "neg.yaml", "max_steps: -1\n")); err == nil {
		t.Errorf("expected negative max_steps to be rejected")
	}
	if _, err := Load(filepath.Join(dir, "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	if got := Find(dir); got != "" {
		t.Errorf("expected no config file, got %s", got)
	}

	path := writeFile(t, dir, "jss.yaml", "verbose: true\n")
	if got := Find(dir); got != path {
		t.Errorf("expected %s, got %s", path, got)
	}

	path = writeFile(t, dir, "jss.toml", "verbose = true\n")
	if got := Find(dir); got != path {
		t.Errorf("expected toml to win, got %s", got)
	}
}
