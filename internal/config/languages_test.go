package config

import (
	"path/filepath"
	"testing"
)

func TestLanguagesMatch(t *testing.T) {
	cfg := Languages{
		Languages: []Language{
			{Name: "go", FileTypes: []string{"go", "go.mod", ".go"}},
			{Name: "bash", FileTypes: []string{".bashrc", "Makefile"}},
		},
	}

	if got := cfg.Match("main.go"); got == nil || got.Name != "go" {
		t.Fatalf("Match main.go = %#v, want go", got)
	}
	if got := cfg.Match("go.mod"); got == nil || got.Name != "go" {
		t.Fatalf("Match go.mod = %#v, want go", got)
	}
	if got := cfg.Match(".bashrc"); got == nil || got.Name != "bash" {
		t.Fatalf("Match .bashrc = %#v, want bash", got)
	}
	if got := cfg.Match("Makefile"); got == nil || got.Name != "bash" {
		t.Fatalf("Match Makefile = %#v, want bash", got)
	}
	if got := cfg.Match("unknown.txt"); got != nil {
		t.Fatalf("Match unknown.txt = %#v, want nil", got)
	}
}

func TestLoadLanguagesOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("QPREVIEW_CONFIG_HOME", dir)

	writeFile(t, filepath.Join(dir, "languages.toml"), `
[[language]]
name = "go"
file-types = ["go", "gotmpl"]

[[language]]
name = "bash"
file-types = ["sh", "zsh"]

[[language]]
name = "toml"
file-types = ["toml", "lock"]
`)

	cfg, err := LoadLanguages()
	if err != nil {
		t.Fatalf("LoadLanguages error: %v", err)
	}
	if len(cfg.Languages) != len(DefaultLanguages().Languages) {
		t.Fatalf("Languages len = %d, want %d", len(cfg.Languages), len(DefaultLanguages().Languages))
	}
	if got := cfg.Match("page.gotmpl"); got == nil || got.Name != "go" {
		t.Fatalf("Match page.gotmpl = %#v, want go", got)
	}
	if got := cfg.Match("Cargo.lock"); got == nil || got.Name != "toml" {
		t.Fatalf("Match Cargo.lock = %#v, want toml", got)
	}
	if got := cfg.Match("notes.md"); got == nil || got.Name != "markdown" {
		t.Fatalf("Match notes.md = %#v, want markdown", got)
	}
}

func TestLoadLanguagesAddsNew(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("QPREVIEW_CONFIG_HOME", dir)

	writeFile(t, filepath.Join(dir, "languages.toml"), `
[[language]]
name = "python"
file-types = ["py"]
`)

	cfg, err := LoadLanguages()
	if err != nil {
		t.Fatalf("LoadLanguages error: %v", err)
	}
	if got := cfg.Match("x.py"); got == nil || got.Name != "python" {
		t.Fatalf("Match x.py = %#v, want python", got)
	}
}

func TestLoadLanguagesMissing(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("QPREVIEW_CONFIG_HOME", dir)

	cfg, err := LoadLanguages()
	if err != nil {
		t.Fatalf("LoadLanguages error: %v", err)
	}
	if len(cfg.Languages) != len(DefaultLanguages().Languages) {
		t.Fatalf("Languages len = %d, want defaults", len(cfg.Languages))
	}
}

func TestLoadLanguagesInvalid(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("QPREVIEW_CONFIG_HOME", dir)
	writeFile(t, filepath.Join(dir, "languages.toml"), "[[language]\nname = ")

	if _, err := LoadLanguages(); err == nil {
		t.Fatalf("LoadLanguages error = nil, want parse error")
	}
}
