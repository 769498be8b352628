package textbuf

import (
	"errors"
	"fmt"
	"strings"
)

var ErrOutOfRange = errors.New("position out of range")

// Position addresses a rune inside a buffer. Columns count runes, not bytes.
type Position struct {
	Line int
	Col  int
}

func (p Position) Less(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Col < o.Col
}

// Order returns a and b sorted.
func Order(a, b Position) (Position, Position) {
	if b.Less(a) {
		return b, a
	}
	return a, b
}

// Range is a half-open characterwise span. A newline is addressed as the
// column one past the last rune of its line.
type Range struct {
	Start Position
	End   Position
}

func (r Range) Empty() bool {
	return r.Start == r.End
}

// Edit replaces [Start, End) with Text. Insertions have Start == End,
// deletions have an empty Text.
type Edit struct {
	Start Position
	End   Position
	Text  string
}

// Buffer is an ordered list of lines. It always holds at least one line.
type Buffer struct {
	lines [][]rune
}

func New(lines ...string) *Buffer {
	b := &Buffer{}
	if len(lines) == 0 {
		b.lines = [][]rune{{}}
		return b
	}
	b.lines = make([][]rune, len(lines))
	for i, line := range lines {
		b.lines[i] = []rune(line)
	}
	return b
}

// FromString splits text on newlines. A single trailing newline is treated as
// the file terminator and does not produce an extra empty line.
func FromString(text string) *Buffer {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	return New(strings.Split(text, "\n")...)
}

func (b *Buffer) LineCount() int {
	return len(b.lines)
}

func (b *Buffer) Line(i int) string {
	if i < 0 || i >= len(b.lines) {
		return ""
	}
	return string(b.lines[i])
}

// LineRunes returns the runes of line i. The slice must not be modified.
func (b *Buffer) LineRunes(i int) []rune {
	if i < 0 || i >= len(b.lines) {
		return nil
	}
	return b.lines[i]
}

func (b *Buffer) LineLen(i int) int {
	if i < 0 || i >= len(b.lines) {
		return 0
	}
	return len(b.lines[i])
}

func (b *Buffer) Lines() []string {
	out := make([]string, len(b.lines))
	for i, line := range b.lines {
		out[i] = string(line)
	}
	return out
}

// String joins all lines with newlines, without a trailing terminator.
func (b *Buffer) String() string {
	return strings.Join(b.Lines(), "\n")
}

func (b *Buffer) RuneAt(p Position) (rune, bool) {
	if p.Line < 0 || p.Line >= len(b.lines) {
		return 0, false
	}
	line := b.lines[p.Line]
	if p.Col < 0 || p.Col >= len(line) {
		return 0, false
	}
	return line[p.Col], true
}

// Clamp forces p inside the buffer. The column may sit one past the last rune.
func (b *Buffer) Clamp(p Position) Position {
	if p.Line < 0 {
		p.Line = 0
	}
	if p.Line >= len(b.lines) {
		p.Line = len(b.lines) - 1
	}
	if p.Col < 0 {
		p.Col = 0
	}
	if n := len(b.lines[p.Line]); p.Col > n {
		p.Col = n
	}
	return p
}

// EndOfBuffer is the position after the last rune of the last line.
func (b *Buffer) EndOfBuffer() Position {
	last := len(b.lines) - 1
	return Position{Line: last, Col: len(b.lines[last])}
}

// Offset converts p into a rune offset counting one rune per newline.
func (b *Buffer) Offset(p Position) int {
	p = b.Clamp(p)
	off := 0
	for i := 0; i < p.Line; i++ {
		off += len(b.lines[i]) + 1
	}
	return off + p.Col
}

// PositionAt is the inverse of Offset.
func (b *Buffer) PositionAt(off int) Position {
	if off < 0 {
		return Position{}
	}
	for i, line := range b.lines {
		if off <= len(line) {
			return Position{Line: i, Col: off}
		}
		off -= len(line) + 1
	}
	return b.EndOfBuffer()
}

// Slice returns the text covered by r.
func (b *Buffer) Slice(r Range) string {
	start, end := Order(b.Clamp(r.Start), b.Clamp(r.End))
	if start.Line == end.Line {
		return string(b.lines[start.Line][start.Col:end.Col])
	}
	var sb strings.Builder
	sb.WriteString(string(b.lines[start.Line][start.Col:]))
	for i := start.Line + 1; i < end.Line; i++ {
		sb.WriteByte('\n')
		sb.WriteString(string(b.lines[i]))
	}
	sb.WriteByte('\n')
	sb.WriteString(string(b.lines[end.Line][:end.Col]))
	return sb.String()
}

// Apply performs e and returns the edit that reverts it.
func (b *Buffer) Apply(e Edit) Edit {
	start, end := Order(b.Clamp(e.Start), b.Clamp(e.End))
	removed := b.Slice(Range{Start: start, End: end})

	head := b.lines[start.Line][:start.Col]
	tail := b.lines[end.Line][end.Col:]
	parts := strings.Split(e.Text, "\n")

	repl := make([][]rune, len(parts))
	for i, part := range parts {
		repl[i] = []rune(part)
	}
	newEnd := Position{Line: start.Line + len(parts) - 1, Col: len(repl[len(repl)-1])}
	if len(parts) == 1 {
		newEnd.Col += len(head)
	}

	first := make([]rune, 0, len(head)+len(repl[0]))
	first = append(first, head...)
	first = append(first, repl[0]...)
	repl[0] = first
	last := repl[len(repl)-1]
	joined := make([]rune, 0, len(last)+len(tail))
	joined = append(joined, last...)
	joined = append(joined, tail...)
	repl[len(repl)-1] = joined

	lines := make([][]rune, 0, len(b.lines)-(end.Line-start.Line)+len(repl)-1)
	lines = append(lines, b.lines[:start.Line]...)
	lines = append(lines, repl...)
	lines = append(lines, b.lines[end.Line+1:]...)
	b.lines = lines

	return Edit{Start: start, End: newEnd, Text: removed}
}

func (b *Buffer) Insert(p Position, text string) Edit {
	return b.Apply(Edit{Start: p, End: p, Text: text})
}

func (b *Buffer) Delete(r Range) Edit {
	return b.Apply(Edit{Start: r.Start, End: r.End})
}

func (b *Buffer) Replace(r Range, text string) Edit {
	return b.Apply(Edit{Start: r.Start, End: r.End, Text: text})
}

// ReplaceAll swaps the whole content in one edit.
func (b *Buffer) ReplaceAll(text string) Edit {
	return b.Apply(Edit{Start: Position{}, End: b.EndOfBuffer(), Text: text})
}

// Valid reports whether p addresses a rune or a line end inside the buffer.
func (b *Buffer) Valid(p Position) bool {
	return p.Line >= 0 && p.Line < len(b.lines) && p.Col >= 0 && p.Col <= len(b.lines[p.Line])
}

// Check is Valid with an error for callers that surface it.
func (b *Buffer) Check(p Position) error {
	if !b.Valid(p) {
		return fmt.Errorf("%w: %d:%d", ErrOutOfRange, p.Line+1, p.Col+1)
	}
	return nil
}
