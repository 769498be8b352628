package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

var ErrUnknownKey = errors.New("unknown config key")

type Keymap struct {
	Normal map[string]string `toml:"normal"`
	Visual map[string]string `toml:"visual"`
}

// Options are the editor settings the engine reads. :set edits a live copy.
type Options struct {
	LineNumbers   string `toml:"line-numbers"`
	TabWidth      int    `toml:"tab-width"`
	ShiftWidth    int    `toml:"shift-width"`
	ExpandTab     bool   `toml:"expand-tab"`
	AutoIndent    bool   `toml:"auto-indent"`
	IncSearch     bool   `toml:"inc-search"`
	IgnoreCase    bool   `toml:"ignore-case"`
	SmartCase     bool   `toml:"smart-case"`
	WrapScan      bool   `toml:"wrap-scan"`
	ScrollOff     int    `toml:"scroll-off"`
	HistorySize   int    `toml:"history-size"`
	MacroDepth    int    `toml:"macro-depth"`
	MacroKeyLimit int    `toml:"macro-key-limit"`
	UndoLevels    int    `toml:"undo-levels"`
}

type Theme struct {
	Theme                      string `toml:"theme"`
	Foreground                 string `toml:"foreground"`
	Background                 string `toml:"background"`
	StatuslineForeground       string `toml:"statusline-foreground"`
	StatuslineBackground       string `toml:"statusline-background"`
	CommandlineForeground      string `toml:"commandline-foreground"`
	CommandlineBackground      string `toml:"commandline-background"`
	LineNumberForeground       string `toml:"line-number-foreground"`
	LineNumberActiveForeground string `toml:"line-number-active-foreground"`
	SelectionForeground        string `toml:"selection-foreground"`
	SelectionBackground        string `toml:"selection-background"`
	SearchMatchForeground      string `toml:"search-foreground"`
	SearchMatchBackground      string `toml:"search-background"`
	ErrorForeground            string `toml:"error-foreground"`
	SeparatorForeground        string `toml:"separator-foreground"`
}

type Config struct {
	Editor Options `toml:"editor"`
	Theme  Theme   `toml:"theme"`
	Keymap Keymap  `toml:"keymap"`
}

func DefaultOptions() Options {
	return Options{
		LineNumbers:   "absolute",
		TabWidth:      8,
		ShiftWidth:    8,
		AutoIndent:    true,
		IncSearch:     true,
		SmartCase:     false,
		WrapScan:      true,
		ScrollOff:     0,
		HistorySize:   50,
		MacroDepth:    100,
		MacroKeyLimit: 100000,
		UndoLevels:    1000,
	}
}

func Default() Config {
	return Config{
		Editor: DefaultOptions(),
		Theme: Theme{
			Foreground:                 "#B3B1AD",
			Background:                 "#0A0E14",
			StatuslineForeground:       "#B3B1AD",
			StatuslineBackground:       "#0F1419",
			CommandlineForeground:      "#B3B1AD",
			CommandlineBackground:      "#0A0E14",
			LineNumberForeground:       "#3E4B59",
			LineNumberActiveForeground: "#B3B1AD",
			SelectionForeground:        "#B3B1AD",
			SelectionBackground:        "#27425A",
			SearchMatchForeground:      "#000000",
			SearchMatchBackground:      "#FFD700",
			ErrorForeground:            "#FF3333",
			SeparatorForeground:        "#3E4B59",
		},
		Keymap: Keymap{
			Normal: map[string]string{},
			Visual: map[string]string{},
		},
	}
}

func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Default(), err
	}
	return LoadFile(path)
}

// LoadFile reads path over the defaults. A missing file is not an error.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Default(), err
	}
	cfg, err := Parse(string(data))
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data over the defaults. Keys absent from data keep their
// default value; a named theme file is applied before the inline colors.
// Unknown keys are reported with ErrUnknownKey, the rest of the file still
// applies.
func Parse(data string) (Config, error) {
	cfg := Default()

	var probe struct {
		Theme struct {
			Theme string `toml:"theme"`
		} `toml:"theme"`
	}
	md, err := toml.Decode(data, &probe)
	if err != nil {
		return cfg, err
	}
	if md.IsDefined("theme", "theme") && probe.Theme.Theme != "" {
		if err := decodeTheme(probe.Theme.Theme, &cfg.Theme); err != nil {
			return cfg, err
		}
	}

	md, err = toml.Decode(data, &cfg)
	if err != nil {
		return Default(), err
	}
	cfg.Editor.normalize()
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("%w: %s", ErrUnknownKey, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// normalize replaces out-of-range values with defaults.
func (o *Options) normalize() {
	def := DefaultOptions()
	switch o.LineNumbers {
	case "off", "absolute", "relative":
	default:
		o.LineNumbers = def.LineNumbers
	}
	if o.TabWidth <= 0 {
		o.TabWidth = def.TabWidth
	}
	if o.ShiftWidth <= 0 {
		o.ShiftWidth = o.TabWidth
	}
	o.ScrollOff = max(o.ScrollOff, 0)
	if o.HistorySize <= 0 {
		o.HistorySize = def.HistorySize
	}
	if o.MacroDepth <= 0 {
		o.MacroDepth = def.MacroDepth
	}
	if o.MacroKeyLimit <= 0 {
		o.MacroKeyLimit = def.MacroKeyLimit
	}
	if o.UndoLevels < 0 {
		o.UndoLevels = def.UndoLevels
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
	var t Theme
	err := decodeTheme(name, &t)
	return t, err
}

// decodeTheme reads a theme file onto t. The colors may sit at the top
// level or under a [theme] table.
func decodeTheme(name string, t *Theme) error {
	path, err := ThemePath(name)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	flat := *t
	if _, err := toml.Decode(string(data), &flat); err == nil {
		*t = flat
		return nil
	}
	wrap := struct {
		Theme Theme `toml:"theme"`
	}{Theme: *t}
	if _, err := toml.Decode(string(data), &wrap); err != nil {
		return fmt.Errorf("theme %s: %w", name, err)
	}
	*t = wrap.Theme
	return nil
}

func ConfigDir() (string, error) {
	if v := os.Getenv("QVIM_CONFIG_HOME"); v != "" {
		return filepath.Clean(v), nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "qvim"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "qvim"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}
