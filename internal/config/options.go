package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnknownOption  = errors.New("unknown option")
	ErrNumberRequired = errors.New("number required after =")
	ErrInvalidValue   = errors.New("invalid argument")
)

// aliases maps :set names to the canonical long name.
var aliases = map[string]string{
	"nu": "number", "number": "number",
	"rnu": "relativenumber", "relativenumber": "relativenumber",
	"ts": "tabstop", "tabstop": "tabstop", "tab-width": "tabstop",
	"sw": "shiftwidth", "shiftwidth": "shiftwidth", "shift-width": "shiftwidth",
	"et": "expandtab", "expandtab": "expandtab", "expand-tab": "expandtab",
	"ai": "autoindent", "autoindent": "autoindent", "auto-indent": "autoindent",
	"is": "incsearch", "incsearch": "incsearch", "inc-search": "incsearch",
	"ic": "ignorecase", "ignorecase": "ignorecase", "ignore-case": "ignorecase",
	"scs": "smartcase", "smartcase": "smartcase", "smart-case": "smartcase",
	"ws": "wrapscan", "wrapscan": "wrapscan", "wrap-scan": "wrapscan",
	"so": "scrolloff", "scrolloff": "scrolloff", "scroll-off": "scrolloff",
	"hi": "history", "history": "history", "history-size": "history",
	"ul": "undolevels", "undolevels": "undolevels", "undo-levels": "undolevels",
	"mmd": "maxmapdepth", "maxmapdepth": "maxmapdepth", "macro-depth": "maxmapdepth",
}

func (o *Options) flag(name string) *bool {
	switch name {
	case "expandtab":
		return &o.ExpandTab
	case "autoindent":
		return &o.AutoIndent
	case "incsearch":
		return &o.IncSearch
	case "ignorecase":
		return &o.IgnoreCase
	case "smartcase":
		return &o.SmartCase
	case "wrapscan":
		return &o.WrapScan
	}
	return nil
}

func (o *Options) number(name string) *int {
	switch name {
	case "tabstop":
		return &o.TabWidth
	case "shiftwidth":
		return &o.ShiftWidth
	case "scrolloff":
		return &o.ScrollOff
	case "history":
		return &o.HistorySize
	case "undolevels":
		return &o.UndoLevels
	case "maxmapdepth":
		return &o.MacroDepth
	}
	return nil
}

func (o *Options) lineFlag(name string) bool {
	if name == "number" {
		return o.LineNumbers != "off"
	}
	return o.LineNumbers == "relative"
}

func (o *Options) setLineFlag(name string, on bool) {
	switch {
	case name == "number" && on:
		if o.LineNumbers == "off" {
			o.LineNumbers = "absolute"
		}
	case name == "number":
		o.LineNumbers = "off"
	case on:
		o.LineNumbers = "relative"
	case o.LineNumbers == "relative":
		o.LineNumbers = "absolute"
	}
}

func isLineFlag(name string) bool {
	return name == "number" || name == "relativenumber"
}

// Show formats one option the way :set name? prints it.
func (o *Options) Show(name string) (string, error) {
	canon, ok := aliases[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownOption, name)
	}
	var on bool
	switch {
	case isLineFlag(canon):
		on = o.lineFlag(canon)
	case o.flag(canon) != nil:
		on = *o.flag(canon)
	default:
		return fmt.Sprintf("  %s=%d", canon, *o.number(canon)), nil
	}
	if on {
		return "  " + canon, nil
	}
	return "  no" + canon, nil
}

// Set applies one :set argument: name, noname, name!, invname, name?,
// name=value, name+=value, name-=value. The returned text is non-empty for
// queries.
func (o *Options) Set(arg string) (string, error) {
	if strings.HasSuffix(arg, "?") {
		return o.Show(strings.TrimSuffix(arg, "?"))
	}
	if i := strings.IndexAny(arg, "=:"); i > 0 {
		name, value := arg[:i], arg[i+1:]
		op := byte(0)
		if c := name[len(name)-1]; c == '+' || c == '-' || c == '^' {
			op, name = c, name[:len(name)-1]
		}
		canon, ok := aliases[name]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownOption, name)
		}
		p := o.number(canon)
		if p == nil {
			return "", fmt.Errorf("%w: %s", ErrInvalidValue, arg)
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrNumberRequired, arg)
		}
		switch op {
		case '+':
			n = *p + n
		case '-':
			n = *p - n
		case '^':
			n = *p * n
		}
		if n < 0 || (n == 0 && (canon == "tabstop" || canon == "shiftwidth")) {
			return "", fmt.Errorf("%w: %s", ErrInvalidValue, arg)
		}
		*p = n
		return "", nil
	}

	name, value, toggle := arg, true, false
	switch {
	case strings.HasSuffix(name, "!"):
		name, toggle = strings.TrimSuffix(name, "!"), true
	case strings.HasPrefix(name, "inv"):
		if _, ok := aliases[name]; !ok {
			name, toggle = name[3:], true
		}
	case strings.HasPrefix(name, "no"):
		if _, ok := aliases[name]; !ok {
			name, value = name[2:], false
		}
	}
	canon, ok := aliases[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownOption, name)
	}
	if isLineFlag(canon) {
		if toggle {
			value = !o.lineFlag(canon)
		}
		o.setLineFlag(canon, value)
		return "", nil
	}
	if p := o.flag(canon); p != nil {
		if toggle {
			value = !*p
		}
		*p = value
		return "", nil
	}
	if toggle || !value {
		return "", fmt.Errorf("%w: %s", ErrInvalidValue, arg)
	}
	// A bare number option prints its value.
	return o.Show(canon)
}

// Names lists the canonical option names in display order.
func Names() []string {
	return []string{
		"number", "relativenumber", "tabstop", "shiftwidth", "expandtab",
		"autoindent", "incsearch", "ignorecase", "smartcase", "wrapscan",
		"scrolloff", "history", "undolevels", "maxmapdepth",
	}
}
