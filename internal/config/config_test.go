package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// configHome points the config directory at a fresh temp dir holding files,
// keyed by path relative to it.
func configHome(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("QVIM_CONFIG_HOME", dir)
	for rel, body := range files {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestConfigDirResolution(t *testing.T) {
	tests := []struct {
		name, qvim, xdg, want string
	}{
		{name: "qvim home wins", qvim: "/tmp/qvim-config/", xdg: "/tmp/xdg", want: "/tmp/qvim-config"},
		{name: "xdg", xdg: "/tmp/xdg", want: "/tmp/xdg/qvim"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("QVIM_CONFIG_HOME", tt.qvim)
			t.Setenv("XDG_CONFIG_HOME", tt.xdg)
			got, err := ConfigDir()
			if err != nil || got != tt.want {
				t.Fatalf("ConfigDir() = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	configHome(t, nil)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Editor != DefaultOptions() {
		t.Fatalf("Editor = %+v, want defaults", cfg.Editor)
	}
}

func TestLoadMergesFileThemeAndDefaults(t *testing.T) {
	configHome(t, map[string]string{
		"theme/dusk.toml": `
foreground = "#101010"
background = "#202020"
`,
		"config.toml": `
[editor]
tab-width = 4
line-numbers = "relative"
wrap-scan = false

[theme]
theme = "dusk"
background = "#123456"

[keymap.normal]
Y = "y$"
`,
	})
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	got := map[string]any{
		"tab-width":    cfg.Editor.TabWidth,
		"shift-width":  cfg.Editor.ShiftWidth,
		"line-numbers": cfg.Editor.LineNumbers,
		"wrap-scan":    cfg.Editor.WrapScan,
		"auto-indent":  cfg.Editor.AutoIndent,
		"foreground":   cfg.Theme.Foreground,
		"background":   cfg.Theme.Background,
		"selection-bg": cfg.Theme.SelectionBackground,
		"normal.Y":     cfg.Keymap.Normal["Y"],
	}
	want := map[string]any{
		"tab-width":    4,
		"shift-width":  8,
		"line-numbers": "relative",
		"wrap-scan":    false,
		"auto-indent":  true,
		"foreground":   "#101010",
		"background":   "#123456",
		"selection-bg": "#27425A",
		"normal.Y":     "y$",
	}
	for k, w := range want {
		if got[k] != w {
			t.Errorf("%s = %v, want %v", k, got[k], w)
		}
	}
}

func TestLoadThemeFileLayouts(t *testing.T) {
	configHome(t, map[string]string{
		"theme/flat.toml":    "foreground = \"#aaaaaa\"\nbackground = \"#bbbbbb\"\n",
		"theme/wrapped.toml": "[theme]\nforeground = \"#aaaaaa\"\nbackground = \"#bbbbbb\"\n",
	})
	for _, name := range []string{"flat", "wrapped"} {
		th, err := LoadTheme(name)
		if err != nil {
			t.Fatalf("LoadTheme(%s): %v", name, err)
		}
		if th.Foreground != "#aaaaaa" || th.Background != "#bbbbbb" {
			t.Fatalf("LoadTheme(%s) = fg %q bg %q", name, th.Foreground, th.Background)
		}
	}
	if _, err := LoadTheme("absent"); err == nil {
		t.Fatalf("LoadTheme(absent) succeeded")
	}
}

func TestParseUnknownKeyKeepsRest(t *testing.T) {
	cfg, err := Parse("[editor]\ntab-width = 2\nbogus = 1\n")
	if !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("err = %v, want ErrUnknownKey", err)
	}
	if cfg.Editor.TabWidth != 2 {
		t.Fatalf("TabWidth = %d, want 2", cfg.Editor.TabWidth)
	}
}

func TestParseNormalizes(t *testing.T) {
	cfg, err := Parse("[editor]\ntab-width = -3\nline-numbers = \"sideways\"\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Editor.TabWidth != DefaultOptions().TabWidth || cfg.Editor.LineNumbers != "absolute" {
		t.Fatalf("Editor = %+v, want tab-width and line-numbers reset", cfg.Editor)
	}
}

func TestParseSyntaxError(t *testing.T) {
	if _, err := Parse("[editor\n"); err == nil {
		t.Fatalf("Parse accepted a broken table header")
	}
}
