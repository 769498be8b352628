// Package view keeps the per-window cursor, scroll offsets and folds over
// one buffer.
package view

import (
	"github.com/rivo/uniseg"

	"github.com/kobzarvs/qvim/internal/buffers"
	"github.com/kobzarvs/qvim/internal/textbuf"
)

// WantEnd pins the desired column to the end of every line, as after $.
const WantEnd = 1 << 30

type View struct {
	Buffer buffers.ID
	Cursor textbuf.Position
	// Want is the display column j and k try to keep.
	Want  int
	Top   int
	Left  int
	Folds []Fold
}

func New(id buffers.ID) *View {
	return &View{Buffer: id}
}

// Clone copies v for a split window looking at the same buffer.
func (v *View) Clone() *View {
	c := *v
	c.Folds = append([]Fold(nil), v.Folds...)
	return &c
}

// Clamp keeps the cursor inside buf. In Normal mode the column stays on the
// last character; Insert mode may sit one past it.
func (v *View) Clamp(buf *textbuf.Buffer, insert bool) {
	v.Cursor = ClampPosition(buf, v.Cursor, insert)
}

// ClampPosition is Clamp for a bare position.
func ClampPosition(buf *textbuf.Buffer, p textbuf.Position, insert bool) textbuf.Position {
	p = buf.Clamp(p)
	if !insert {
		if n := buf.LineLen(p.Line); p.Col >= n {
			p.Col = max(n-1, 0)
		}
	}
	return p
}

// SetCursor moves the cursor and resets the desired column to it.
func (v *View) SetCursor(buf *textbuf.Buffer, p textbuf.Position, insert bool, tabWidth int) {
	v.Cursor = ClampPosition(buf, p, insert)
	v.Want = DisplayColumn(buf.LineRunes(v.Cursor.Line), v.Cursor.Col, tabWidth)
}

// MoveToLine puts the cursor on line at the desired column.
func (v *View) MoveToLine(buf *textbuf.Buffer, line int, insert bool, tabWidth int) {
	line = min(max(line, 0), buf.LineCount()-1)
	runes := buf.LineRunes(line)
	col := len(runes)
	if v.Want < WantEnd {
		col = ColumnForDisplay(runes, v.Want, tabWidth)
	}
	v.Cursor = ClampPosition(buf, textbuf.Position{Line: line, Col: col}, insert)
}

// EnsureVisible scrolls so the cursor has scrollOff rows of context and its
// display column fits in width.
func (v *View) EnsureVisible(buf *textbuf.Buffer, height, width, scrollOff, tabWidth int) {
	if height <= 0 {
		return
	}
	v.Top = min(max(v.Top, 0), buf.LineCount()-1)
	v.Top = v.VisibleStart(v.Top)
	off := min(scrollOff, (height-1)/2)

	cur := v.VisibleStart(v.Cursor.Line)
	if cur < v.Top {
		v.Top = cur
	}
	for v.Top > 0 && v.rowsBetween(v.Top, cur) < off {
		v.Top = v.VisibleStart(v.Top - 1)
	}
	for v.rowsBetween(v.Top, cur) > height-1-off {
		next := v.NextVisible(v.Top, buf.LineCount())
		if next < 0 || next > cur {
			break
		}
		v.Top = next
	}

	if width <= 0 {
		return
	}
	col := DisplayColumn(buf.LineRunes(v.Cursor.Line), v.Cursor.Col, tabWidth)
	if col < v.Left {
		v.Left = col
	}
	if col >= v.Left+width {
		v.Left = col - width + 1
	}
}

// rowsBetween counts screen rows from line a to line b, a closed fold taking
// one row.
func (v *View) rowsBetween(a, b int) int {
	if b <= a {
		return 0
	}
	rows := 0
	for l := a; l < b; {
		if f, ok := v.ClosedFoldAt(l); ok {
			l = f.End + 1
		} else {
			l++
		}
		if l <= b {
			rows++
		}
	}
	return rows
}

// Row is one screen line of a window.
type Row struct {
	Line   int
	Text   string
	Folded int
}

// Rows lists up to height screen rows starting at Top.
func (v *View) Rows(buf *textbuf.Buffer, height int) []Row {
	out := make([]Row, 0, height)
	for l := v.Top; l >= 0 && l < buf.LineCount() && len(out) < height; {
		if f, ok := v.ClosedFoldAt(l); ok {
			out = append(out, Row{Line: f.Start, Text: buf.Line(f.Start), Folded: f.End - f.Start + 1})
			l = f.End + 1
			continue
		}
		out = append(out, Row{Line: l, Text: buf.Line(l)})
		l++
	}
	return out
}

// DisplayColumn is the screen column of rune col in line. Wide graphemes take
// two cells and tabs advance to the next tab stop.
func DisplayColumn(line []rune, col, tabWidth int) int {
	if tabWidth <= 0 {
		tabWidth = 8
	}
	col = min(max(col, 0), len(line))
	width := 0
	g := uniseg.NewGraphemes(string(line[:col]))
	for g.Next() {
		if g.Str() == "\t" {
			width += tabWidth - width%tabWidth
			continue
		}
		width += g.Width()
	}
	return width
}

// ColumnForDisplay returns the rune column covering display column disp.
func ColumnForDisplay(line []rune, disp, tabWidth int) int {
	if tabWidth <= 0 {
		tabWidth = 8
	}
	width, col := 0, 0
	g := uniseg.NewGraphemes(string(line))
	for g.Next() {
		w := g.Width()
		if g.Str() == "\t" {
			w = tabWidth - width%tabWidth
		}
		runes := len(g.Runes())
		if width+w > disp {
			return col
		}
		width += w
		col += runes
	}
	return col
}

// StringWidth is the cell width of s with tabs expanded from column 0.
func StringWidth(s string, tabWidth int) int {
	r := []rune(s)
	return DisplayColumn(r, len(r), tabWidth)
}
