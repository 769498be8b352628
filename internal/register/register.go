// Package register holds yanked and deleted text in Vim's register set.
package register

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	ErrInvalidRegister = errors.New("invalid register")
	ErrReadOnly        = errors.New("register is read-only")
)

// Kind tells paste how to reinsert a register.
type Kind uint8

const (
	Charwise Kind = iota
	Linewise
	Blockwise
)

func (k Kind) String() string {
	switch k {
	case Linewise:
		return "l"
	case Blockwise:
		return "b"
	default:
		return "c"
	}
}

// Register is the content of one slot. Linewise text ends every line with a
// newline; blockwise text holds one row per line without a trailing newline.
type Register struct {
	Text string
	Kind Kind
}

func (r Register) Empty() bool {
	return r.Text == ""
}

// Lines splits the content into rows.
func (r Register) Lines() []string {
	text := r.Text
	if r.Kind == Linewise {
		text = strings.TrimSuffix(text, "\n")
	}
	return strings.Split(text, "\n")
}

// NewLines builds a linewise register from whole lines.
func NewLines(lines []string) Register {
	return Register{Text: strings.Join(lines, "\n") + "\n", Kind: Linewise}
}

// NewBlock builds a blockwise register from rectangle rows.
func NewBlock(rows []string) Register {
	return Register{Text: strings.Join(rows, "\n"), Kind: Blockwise}
}

// Clipboard backs the + and * registers.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

const (
	Unnamed    = '"'
	LastYank   = '0'
	SmallDel   = '-'
	BlackHole  = '_'
	LastInsert = '.'
	LastCmd    = ':'
	LastSearch = '/'
	FileName   = '%'
	Clip       = '+'
	Selection  = '*'
)

// Bank is the full register set of one engine.
type Bank struct {
	regs map[rune]Register
	clip Clipboard
}

// NewBank returns an empty bank. A nil clipboard keeps + and * in memory.
func NewBank(clip Clipboard) *Bank {
	return &Bank{regs: make(map[rune]Register), clip: clip}
}

// Valid reports whether name addresses any register.
func Valid(name rune) bool {
	switch {
	case name == Unnamed:
		return true
	case name >= 'a' && name <= 'z', name >= 'A' && name <= 'Z':
		return true
	case name >= '0' && name <= '9':
		return true
	}
	switch name {
	case SmallDel, BlackHole, LastInsert, LastCmd, LastSearch, FileName, Clip, Selection:
		return true
	}
	return false
}

// Writable reports whether yank, delete or Set may store into name.
func Writable(name rune) bool {
	if !Valid(name) {
		return false
	}
	switch name {
	case LastInsert, LastCmd, LastSearch, FileName:
		return false
	}
	return true
}

// Get returns the content of name. Uppercase names read their lowercase slot.
func (b *Bank) Get(name rune) (Register, error) {
	if !Valid(name) {
		return Register{}, fmt.Errorf("%w: %q", ErrInvalidRegister, name)
	}
	name = unicode.ToLower(name)
	switch name {
	case BlackHole:
		return Register{}, nil
	case Clip, Selection:
		if b.clip != nil {
			text, err := b.clip.ReadAll()
			if err != nil {
				return Register{}, fmt.Errorf("read clipboard: %w", err)
			}
			return fromClipboard(text, b.regs[name]), nil
		}
	}
	return b.regs[name], nil
}

// fromClipboard keeps the kind of the last write when the clipboard still
// holds that text, and otherwise guesses linewise from a trailing newline.
func fromClipboard(text string, last Register) Register {
	if last.Text == text || (last.Kind == Linewise && last.Text == text+"\n") {
		return last
	}
	if strings.HasSuffix(text, "\n") {
		return Register{Text: text, Kind: Linewise}
	}
	return Register{Text: text}
}

// Set stores reg into name. Uppercase names append to the lowercase slot.
func (b *Bank) Set(name rune, reg Register) error {
	if !Valid(name) {
		return fmt.Errorf("%w: %q", ErrInvalidRegister, name)
	}
	if !Writable(name) {
		return fmt.Errorf("%w: %q", ErrReadOnly, name)
	}
	_, err := b.store(name, reg)
	return err
}

func (b *Bank) store(name rune, reg Register) (Register, error) {
	if name == BlackHole {
		return reg, nil
	}
	if unicode.IsUpper(name) {
		name = unicode.ToLower(name)
		reg = appendTo(b.regs[name], reg)
	}
	b.regs[name] = reg
	if (name == Clip || name == Selection) && b.clip != nil {
		if err := b.clip.WriteAll(reg.Text); err != nil {
			return reg, fmt.Errorf("write clipboard: %w", err)
		}
	}
	return reg, nil
}

func appendTo(prev, next Register) Register {
	if prev.Empty() {
		return next
	}
	switch {
	case prev.Kind == Linewise && next.Kind == Linewise:
		return Register{Text: prev.Text + next.Text, Kind: Linewise}
	case prev.Kind == Linewise:
		return Register{Text: prev.Text + next.Text + "\n", Kind: Linewise}
	case next.Kind == Linewise:
		return Register{Text: prev.Text + "\n" + next.Text, Kind: Linewise}
	case prev.Kind == Blockwise || next.Kind == Blockwise:
		return Register{Text: prev.Text + "\n" + next.Text, Kind: Blockwise}
	default:
		return Register{Text: prev.Text + next.Text, Kind: Charwise}
	}
}

// Yank stores a yank. name 0 means no register was given: the text goes to
// register 0. The unnamed register always follows.
func (b *Bank) Yank(name rune, reg Register) error {
	if name == 0 || name == Unnamed {
		b.regs[LastYank] = reg
		b.regs[Unnamed] = reg
		return nil
	}
	if !Writable(name) {
		return b.writeErr(name)
	}
	if name == BlackHole {
		return nil
	}
	stored, err := b.store(name, reg)
	b.regs[Unnamed] = stored
	return err
}

// Delete stores deleted text. Without a register, deletes that span lines
// shift the numbered history 1-9 and smaller ones land in -.
func (b *Bank) Delete(name rune, reg Register) error {
	if name == 0 || name == Unnamed {
		if reg.Kind == Linewise || strings.Contains(reg.Text, "\n") {
			b.shift(reg)
		} else {
			b.regs[SmallDel] = reg
		}
		b.regs[Unnamed] = reg
		return nil
	}
	if !Writable(name) {
		return b.writeErr(name)
	}
	if name == BlackHole {
		return nil
	}
	stored, err := b.store(name, reg)
	b.regs[Unnamed] = stored
	return err
}

func (b *Bank) shift(reg Register) {
	for i := '9'; i > '1'; i-- {
		b.regs[i] = b.regs[i-1]
	}
	b.regs['1'] = reg
}

func (b *Bank) writeErr(name rune) error {
	if !Valid(name) {
		return fmt.Errorf("%w: %q", ErrInvalidRegister, name)
	}
	return fmt.Errorf("%w: %q", ErrReadOnly, name)
}

// SetReadOnly updates one of the registers the engine maintains itself.
func (b *Bank) SetReadOnly(name rune, text string) {
	switch name {
	case LastInsert, LastCmd, LastSearch, FileName:
		b.regs[name] = Register{Text: text}
	}
}

var listOrder = []rune(`"0123456789abcdefghijklmnopqrstuvwxyz-.:%/+*`)

// Names lists the registers that currently hold text, in :registers order.
func (b *Bank) Names() []rune {
	out := make([]rune, 0, len(b.regs))
	for _, name := range listOrder {
		if reg, ok := b.regs[name]; ok && !reg.Empty() {
			out = append(out, name)
		}
	}
	return out
}
