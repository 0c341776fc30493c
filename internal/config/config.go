package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Keymap struct {
	Preview map[string]string `toml:"preview"`
}

type PreviewOptions struct {
	TabWidth        int    `toml:"tab-width"`
	LineNumbers     string `toml:"line-numbers"`
	CharHighlights  string `toml:"char-highlights"`
	ShowGaps        bool   `toml:"show-gaps"`
	GapFormat       string `toml:"gap-format"`
	Context         int    `toml:"context"`
	SyntaxCheck     string `toml:"syntax-check"`
	GitBranchSymbol string `toml:"git-branch-symbol"`
	Debug           bool   `toml:"debug"`
}

// CharHighlightsEnabled reports whether changed characters inside modified lines
// get their own highlight.
func (o PreviewOptions) CharHighlightsEnabled() bool { return o.CharHighlights != "off" }

func (o PreviewOptions) SyntaxCheckEnabled() bool { return o.SyntaxCheck != "off" }

type Theme struct {
	Theme                      string `toml:"theme"`
	Foreground                 string `toml:"foreground"`
	Background                 string `toml:"background"`
	StatuslineForeground       string `toml:"statusline-foreground"`
	StatuslineBackground       string `toml:"statusline-background"`
	LineNumberForeground       string `toml:"line-number-foreground"`
	LineNumberActiveForeground string `toml:"line-number-active-foreground"`
	AddedBackground            string `toml:"added-background"`
	AddedCharsBackground       string `toml:"added-chars-background"`
	RemovedForeground          string `toml:"removed-foreground"`
	RemovedBackground          string `toml:"removed-background"`
	RemovedCharsBackground     string `toml:"removed-chars-background"`
	GapForeground              string `toml:"gap-foreground"`
	GutterAdded                string `toml:"gutter-added"`
	GutterRemoved              string `toml:"gutter-removed"`
	ErrorForeground            string `toml:"error-foreground"`
}

type Config struct {
	Preview PreviewOptions `toml:"preview"`
	Theme   Theme          `toml:"theme"`
	Keymap  Keymap         `toml:"keymap"`
}

func Default() Config {
	return Config{
		Preview: PreviewOptions{
			TabWidth:        4,
			LineNumbers:     "absolute",
			CharHighlights:  "on",
			ShowGaps:        false,
			GapFormat:       "··· %d unchanged lines ···",
			Context:         3,
			SyntaxCheck:     "on",
			GitBranchSymbol: "git:",
		},
		Theme: Theme{
			Theme:                      "",
			Foreground:                 "#B3B1AD",
			Background:                 "#0A0E14",
			StatuslineForeground:       "#B3B1AD",
			StatuslineBackground:       "#0F1419",
			LineNumberForeground:       "#3E4B59",
			LineNumberActiveForeground: "#E6B450",
			AddedBackground:            "#1B2A1B",
			AddedCharsBackground:       "#2F4F2F",
			RemovedForeground:          "#8A6A6A",
			RemovedBackground:          "#2A1717",
			RemovedCharsBackground:     "#5A2A2A",
			GapForeground:              "#5C6773",
			GutterAdded:                "#91B362",
			GutterRemoved:              "#D96C75",
			ErrorForeground:            "#FF3333",
		},
		Keymap: Keymap{
			Preview: map[string]string{
				"j":      "move_down",
				"k":      "move_up",
				"down":   "move_down",
				"up":     "move_up",
				"ctrl+e": "scroll_down",
				"ctrl+y": "scroll_up",
				"pgdn":   "page_down",
				"pgup":   "page_up",
				"g":      "file_start",
				"G":      "file_end",
				"n":      "next_hunk",
				"N":      "prev_hunk",
				"]":      "next_hunk",
				"[":      "prev_hunk",
				"a":      "accept_hunk",
				"r":      "reject_hunk",
				"A":      "accept_all",
				"R":      "reject_all",
				"D":      "discard",
				"s":      "commit",
				"ctrl+s": "commit",
				"q":      "quit",
				"ctrl+c": "quit",
			},
		},
	}
}

func Load() (Config, error) {
	cfg := Default()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	var userCfg Config
	if _, err := toml.Decode(string(data), &userCfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	if userCfg.Preview.TabWidth > 0 {
		cfg.Preview.TabWidth = userCfg.Preview.TabWidth
	}
	if userCfg.Preview.LineNumbers != "" {
		cfg.Preview.LineNumbers = userCfg.Preview.LineNumbers
	}
	if userCfg.Preview.CharHighlights != "" {
		cfg.Preview.CharHighlights = userCfg.Preview.CharHighlights
	}
	if userCfg.Preview.ShowGaps {
		cfg.Preview.ShowGaps = userCfg.Preview.ShowGaps
	}
	if userCfg.Preview.GapFormat != "" {
		cfg.Preview.GapFormat = userCfg.Preview.GapFormat
	}
	if userCfg.Preview.Context > 0 {
		cfg.Preview.Context = userCfg.Preview.Context
	}
	if userCfg.Preview.SyntaxCheck != "" {
		cfg.Preview.SyntaxCheck = userCfg.Preview.SyntaxCheck
	}
	if userCfg.Preview.GitBranchSymbol != "" {
		cfg.Preview.GitBranchSymbol = userCfg.Preview.GitBranchSymbol
	}
	if userCfg.Preview.Debug {
		cfg.Preview.Debug = userCfg.Preview.Debug
	}
	if userCfg.Theme.Theme != "" {
		cfg.Theme.Theme = userCfg.Theme.Theme
	}
	if cfg.Theme.Theme != "" {
		theme, err := LoadTheme(cfg.Theme.Theme)
		if err != nil {
			return cfg, fmt.Errorf("load theme %q: %w", cfg.Theme.Theme, err)
		}
		mergeTheme(&cfg.Theme, theme)
	}
	mergeTheme(&cfg.Theme, userCfg.Theme)
	if userCfg.Keymap.Preview != nil {
		for k, v := range userCfg.Keymap.Preview {
			cfg.Keymap.Preview[k] = v
		}
	}

	return cfg, nil
}

func mergeTheme(dst *Theme, src Theme) {
	if src.Foreground != "" {
		dst.Foreground = src.Foreground
	}
	if src.Background != "" {
		dst.Background = src.Background
	}
	if src.StatuslineForeground != "" {
		dst.StatuslineForeground = src.StatuslineForeground
	}
	if src.StatuslineBackground != "" {
		dst.StatuslineBackground = src.StatuslineBackground
	}
	if src.LineNumberForeground != "" {
		dst.LineNumberForeground = src.LineNumberForeground
	}
	if src.LineNumberActiveForeground != "" {
		dst.LineNumberActiveForeground = src.LineNumberActiveForeground
	}
	if src.AddedBackground != "" {
		dst.AddedBackground = src.AddedBackground
	}
	if src.AddedCharsBackground != "" {
		dst.AddedCharsBackground = src.AddedCharsBackground
	}
	if src.RemovedForeground != "" {
		dst.RemovedForeground = src.RemovedForeground
	}
	if src.RemovedBackground != "" {
		dst.RemovedBackground = src.RemovedBackground
	}
	if src.RemovedCharsBackground != "" {
		dst.RemovedCharsBackground = src.RemovedCharsBackground
	}
	if src.GapForeground != "" {
		dst.GapForeground = src.GapForeground
	}
	if src.GutterAdded != "" {
		dst.GutterAdded = src.GutterAdded
	}
	if src.GutterRemoved != "" {
		dst.GutterRemoved = src.GutterRemoved
	}
	if src.ErrorForeground != "" {
		dst.ErrorForeground = src.ErrorForeground
	}
}

func ThemePath(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "theme", name+".toml"), nil
}

func LoadTheme(name string) (Theme, error) {
	path, err := ThemePath(name)
	if err != nil {
		return Theme{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, err
	}
	var t Theme
	if _, err := toml.Decode(string(data), &t); err == nil && t != (Theme{}) {
		return t, nil
	}
	var wrap struct {
		Theme Theme `toml:"theme"`
	}
	if _, err := toml.Decode(string(data), &wrap); err != nil {
		return Theme{}, err
	}
	return wrap.Theme, nil
}

func ConfigDir() (string, error) {
	if v := os.Getenv("QPREVIEW_CONFIG_HOME"); v != "" {
		return filepath.Join(v), nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "qpreview"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "qpreview"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}
