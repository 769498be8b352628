package keys

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/gdamore/tcell/v2"
)

var ErrInvalidNotation = errors.New("invalid key notation")

var specialNames = map[tcell.Key]string{
	tcell.KeyEscape:     "Esc",
	tcell.KeyEnter:      "CR",
	tcell.KeyTab:        "Tab",
	tcell.KeyBacktab:    "S-Tab",
	tcell.KeyBackspace2: "BS",
	tcell.KeyDelete:     "Del",
	tcell.KeyInsert:     "Insert",
	tcell.KeyUp:         "Up",
	tcell.KeyDown:       "Down",
	tcell.KeyLeft:       "Left",
	tcell.KeyRight:      "Right",
	tcell.KeyHome:       "Home",
	tcell.KeyEnd:        "End",
	tcell.KeyPgUp:       "PageUp",
	tcell.KeyPgDn:       "PageDown",
	tcell.KeyF1:         "F1",
	tcell.KeyF2:         "F2",
	tcell.KeyF3:         "F3",
	tcell.KeyF4:         "F4",
	tcell.KeyF5:         "F5",
	tcell.KeyF6:         "F6",
	tcell.KeyF7:         "F7",
	tcell.KeyF8:         "F8",
	tcell.KeyF9:         "F9",
	tcell.KeyF10:        "F10",
	tcell.KeyF11:        "F11",
	tcell.KeyF12:        "F12",
}

var namedKeys = map[string]Key{
	"esc":       Esc,
	"escape":    Esc,
	"cr":        Enter,
	"enter":     Enter,
	"return":    Enter,
	"nl":        {Code: tcell.KeyLF},
	"tab":       Tab,
	"bs":        Backspace,
	"backspace": Backspace,
	"del":       Delete,
	"delete":    Delete,
	"insert":    {Code: tcell.KeyInsert},
	"ins":       {Code: tcell.KeyInsert},
	"up":        Up,
	"down":      Down,
	"left":      Left,
	"right":     Right,
	"home":      Home,
	"end":       End,
	"pageup":    PageUp,
	"pgup":      PageUp,
	"pagedown":  PageDown,
	"pgdn":      PageDown,
	"space":     Rune(' '),
	"lt":        Rune('<'),
	"bar":       Rune('|'),
	"bslash":    Rune('\\'),
}

func init() {
	for code, name := range specialNames {
		if strings.HasPrefix(name, "F") {
			namedKeys[strings.ToLower(name)] = Key{Code: code}
		}
	}
}

// String renders k the way it is stored in a macro register.
func (k Key) String() string {
	if k.Code == tcell.KeyRune {
		if k.Mod&(tcell.ModCtrl|tcell.ModAlt|tcell.ModMeta) != 0 {
			return "<" + modPrefix(k.Mod) + string(k.Rune) + ">"
		}
		if k.Rune == '<' {
			return "<lt>"
		}
		return string(k.Rune)
	}
	if name, ok := specialNames[k.Code]; ok {
		return "<" + modPrefix(k.Mod) + name + ">"
	}
	if k.Code >= tcell.KeyCtrlA && k.Code <= tcell.KeyCtrlZ {
		return "<" + modPrefix(k.Mod) + "C-" + string(rune('a'+k.Code-tcell.KeyCtrlA)) + ">"
	}
	return fmt.Sprintf("<%sKey%d>", modPrefix(k.Mod), int(k.Code))
}

func modPrefix(mod tcell.ModMask) string {
	var sb strings.Builder
	if mod&tcell.ModCtrl != 0 {
		sb.WriteString("C-")
	}
	if mod&tcell.ModAlt != 0 {
		sb.WriteString("A-")
	}
	if mod&tcell.ModMeta != 0 {
		sb.WriteString("M-")
	}
	if mod&tcell.ModShift != 0 {
		sb.WriteString("S-")
	}
	return sb.String()
}

// Format renders a key sequence.
func Format(ks []Key) string {
	var sb strings.Builder
	for _, k := range ks {
		sb.WriteString(k.String())
	}
	return sb.String()
}

// Parse reads a key sequence. Bracketed text that is not a known key name is
// taken literally, character by character.
func Parse(s string) []Key {
	runes := []rune(s)
	out := make([]Key, 0, len(runes))
	for i := 0; i < len(runes); i++ {
		if runes[i] == '<' {
			if end := closing(runes, i); end > i+1 {
				if k, err := ParseOne(string(runes[i : end+1])); err == nil {
					out = append(out, k)
					i = end
					continue
				}
			}
		}
		out = append(out, Rune(runes[i]))
	}
	return out
}

func closing(runes []rune, open int) int {
	for j := open + 1; j < len(runes) && j-open < 24; j++ {
		switch runes[j] {
		case '>':
			return j
		case '<', ' ':
			return -1
		}
	}
	return -1
}

// ParseOne reads a single key: a plain character or a bracketed name such as
// <Esc>, <C-v>, <A-x> or <S-Left>.
func ParseOne(text string) (Key, error) {
	runes := []rune(text)
	if len(runes) == 1 {
		return Rune(runes[0]), nil
	}
	if len(runes) < 3 || runes[0] != '<' || runes[len(runes)-1] != '>' {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidNotation, text)
	}
	inner := string(runes[1 : len(runes)-1])

	var mod tcell.ModMask
	for len(inner) > 2 && inner[1] == '-' {
		switch unicode.ToLower(rune(inner[0])) {
		case 'c':
			mod |= tcell.ModCtrl
		case 'a':
			mod |= tcell.ModAlt
		case 'm', 'd':
			mod |= tcell.ModMeta
		case 's':
			mod |= tcell.ModShift
		default:
			return Key{}, fmt.Errorf("%w: modifier in %q", ErrInvalidNotation, text)
		}
		inner = inner[2:]
	}
	return withMods(inner, mod, text)
}

func withMods(name string, mod tcell.ModMask, text string) (Key, error) {
	if r := []rune(name); len(r) == 1 {
		ch := r[0]
		switch {
		case mod&tcell.ModCtrl != 0:
			rest := mod &^ tcell.ModCtrl &^ tcell.ModShift
			if lr := unicode.ToLower(ch); lr >= 'a' && lr <= 'z' {
				k := Ctrl(lr)
				k.Mod = rest
				return k, nil
			}
			if ch == '[' {
				return Esc, nil
			}
			return Key{Code: tcell.KeyRune, Rune: ch, Mod: mod}, nil
		case mod&tcell.ModShift != 0:
			return Key{Code: tcell.KeyRune, Rune: unicode.ToUpper(ch), Mod: mod &^ tcell.ModShift}, nil
		default:
			return Key{Code: tcell.KeyRune, Rune: ch, Mod: mod}, nil
		}
	}
	k, ok := namedKeys[strings.ToLower(name)]
	if !ok {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidNotation, text)
	}
	if k.Code == tcell.KeyTab && mod == tcell.ModShift {
		return Special(tcell.KeyBacktab, tcell.ModNone), nil
	}
	if k.Code == tcell.KeyRune {
		k.Mod = mod &^ tcell.ModShift
		return k, nil
	}
	return Special(k.Code, mod), nil
}
