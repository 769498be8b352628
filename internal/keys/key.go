// Package keys models a single key press on top of tcell's key codes and
// renders key sequences in the bracketed notation stored in macro registers.
package keys

import (
	"unicode"

	"github.com/gdamore/tcell/v2"
)

// Key is a normalized key press. Printable characters use tcell.KeyRune with
// shift folded into the rune. Control letters use tcell.KeyCtrlA..KeyCtrlZ
// without a ModCtrl bit.
type Key struct {
	Code tcell.Key
	Rune rune
	Mod  tcell.ModMask
}

var (
	Esc       = Key{Code: tcell.KeyEscape}
	Enter     = Key{Code: tcell.KeyEnter}
	Tab       = Key{Code: tcell.KeyTab}
	Backspace = Key{Code: tcell.KeyBackspace2}
	Delete    = Key{Code: tcell.KeyDelete}
	Up        = Key{Code: tcell.KeyUp}
	Down      = Key{Code: tcell.KeyDown}
	Left      = Key{Code: tcell.KeyLeft}
	Right     = Key{Code: tcell.KeyRight}
	Home      = Key{Code: tcell.KeyHome}
	End       = Key{Code: tcell.KeyEnd}
	PageUp    = Key{Code: tcell.KeyPgUp}
	PageDown  = Key{Code: tcell.KeyPgDn}
)

func Rune(r rune) Key {
	return Key{Code: tcell.KeyRune, Rune: r}
}

func Special(code tcell.Key, mod tcell.ModMask) Key {
	return Key{Code: code, Mod: mod}
}

// Ctrl returns the control chord for a letter, e.g. Ctrl('v') for <C-v>.
func Ctrl(letter rune) Key {
	letter = unicode.ToLower(letter)
	if letter < 'a' || letter > 'z' {
		return Key{Code: tcell.KeyRune, Rune: letter, Mod: tcell.ModCtrl}
	}
	return Key{Code: tcell.KeyCtrlA + tcell.Key(letter-'a')}
}

// FromEvent converts a terminal event into a Key.
func FromEvent(ev *tcell.EventKey) Key {
	code, r, mod := ev.Key(), ev.Rune(), ev.Modifiers()
	switch {
	case code == tcell.KeyRune:
		if mod&tcell.ModCtrl != 0 {
			if lr := unicode.ToLower(r); lr >= 'a' && lr <= 'z' {
				k := Ctrl(lr)
				k.Mod = mod &^ (tcell.ModCtrl | tcell.ModShift)
				return k
			}
		}
		return Key{Code: tcell.KeyRune, Rune: r, Mod: mod &^ tcell.ModShift}
	case code >= tcell.KeyCtrlA && code <= tcell.KeyCtrlZ:
		// tcell numbers these 'A'..'Z' and sets ModCtrl on them.
		return Key{Code: code, Mod: mod &^ (tcell.ModCtrl | tcell.ModShift)}
	case code == tcell.KeyBackspace, code == tcell.KeyBackspace2:
		return Backspace
	case code < tcell.Key(' '):
		return Key{Code: code, Mod: mod &^ (tcell.ModCtrl | tcell.ModShift)}
	default:
		return Key{Code: code, Mod: mod}
	}
}

// IsRune reports whether k types a character without ctrl/alt/meta.
func (k Key) IsRune() bool {
	return k.Code == tcell.KeyRune && k.Mod&(tcell.ModCtrl|tcell.ModAlt|tcell.ModMeta) == 0
}

// Is reports whether k is the plain character r.
func (k Key) Is(r rune) bool {
	return k.IsRune() && k.Rune == r
}

// IsCtrl reports whether k is the control chord for letter.
func (k Key) IsCtrl(letter rune) bool {
	return k == Ctrl(letter)
}

func (k Key) IsEscape() bool {
	return k.Code == tcell.KeyEscape && k.Mod == 0
}

func (k Key) IsEnter() bool {
	return (k.Code == tcell.KeyEnter || k.Code == tcell.KeyLF) && k.Mod == 0
}

// IsBackspace accepts both DEL and ^H, terminals send either.
func (k Key) IsBackspace() bool {
	return k.Code == tcell.KeyBackspace2 || k.Code == tcell.KeyBackspace
}

// Digit returns the value of a plain digit key.
func (k Key) Digit() (int, bool) {
	if k.IsRune() && k.Rune >= '0' && k.Rune <= '9' {
		return int(k.Rune - '0'), true
	}
	return 0, false
}
