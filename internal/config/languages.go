package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Language maps file types to a tree-sitter grammar name.
type Language struct {
	Name      string   `toml:"name"`
	FileTypes []string `toml:"file-types"`
}

type Languages struct {
	Languages []Language `toml:"language"`
}

// DefaultLanguages covers the grammars the syntax checker ships with.
func DefaultLanguages() Languages {
	return Languages{
		Languages: []Language{
			{Name: "go", FileTypes: []string{"go"}},
			{Name: "bash", FileTypes: []string{"sh", "bash", ".bashrc", ".zshrc"}},
			{Name: "yaml", FileTypes: []string{"yaml", "yml"}},
			{Name: "toml", FileTypes: []string{"toml"}},
			{Name: "markdown", FileTypes: []string{"md", "markdown"}},
		},
	}
}

func (l Languages) Match(path string) *Language {
	base := filepath.Base(path)
	baseLower := strings.ToLower(base)
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(base), "."))
	for i := range l.Languages {
		lang := &l.Languages[i]
		for _, ft := range lang.FileTypes {
			ftLower := strings.ToLower(ft)
			if ftLower == ext || ftLower == baseLower {
				return lang
			}
			if strings.HasPrefix(ftLower, ".") && strings.TrimPrefix(ftLower, ".") == ext {
				return lang
			}
		}
	}
	return nil
}

// LoadLanguages reads languages.toml. Without the file the defaults apply; entries in
// the file replace a default language of the same name or add a new one.
func LoadLanguages() (Languages, error) {
	cfg := DefaultLanguages()
	path, err := LanguagesPath()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read languages: %w", err)
	}

	var user Languages
	if _, err := toml.Decode(string(data), &user); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	for _, lang := range user.Languages {
		replaced := false
		for i := range cfg.Languages {
			if cfg.Languages[i].Name == lang.Name {
				cfg.Languages[i] = lang
				replaced = true
				break
			}
		}
		if !replaced {
			cfg.Languages = append(cfg.Languages, lang)
		}
	}
	return cfg, nil
}

func LanguagesPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "languages.toml"), nil
}
