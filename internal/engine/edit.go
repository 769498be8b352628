package engine

import (
	"strings"

	"github.com/kobzarvs/qvim/internal/buffers"
	"github.com/kobzarvs/qvim/internal/textbuf"
)

// edit applies one change to st. The undo group opens lazily with the
// cursor as it was before the command. Folds, marks and the cursors of
// other windows on the buffer follow the edit.
func (e *Engine) edit(st *buffers.State, ed textbuf.Edit) textbuf.Edit {
	start, end := textbuf.Order(st.Text.Clamp(ed.Start), st.Text.Clamp(ed.End))
	added := strings.Count(ed.Text, "\n")
	if start.Line == end.Line && added == 0 {
		st.LineUndo.Track(start.Line, st.Text.Line(start.Line))
	} else {
		st.LineUndo.Invalidate()
	}
	cursor := e.cursorIn(st.ID)
	if !st.History.InGroup() {
		st.History.Begin(cursor)
	}
	inv := st.Apply(ed, cursor)

	if end.Line-start.Line != added {
		active := e.view()
		for _, v := range e.views {
			if v.Buffer != st.ID {
				continue
			}
			v.AdjustFolds(start.Line, end.Line, added)
			if v != active {
				v.Cursor = shiftPosition(v.Cursor, start.Line, end.Line, added)
				v.Clamp(st.Text, false)
			}
		}
	}
	st.Marks['.'] = start
	st.Marks['['] = start
	st.Marks[']'] = inv.End
	e.cur.changed = true
	e.touched[st.ID] = true
	return inv
}

// shiftPosition keeps p on its line after lines startLine+1..endLine were
// replaced by added new ones.
func shiftPosition(p textbuf.Position, startLine, endLine, added int) textbuf.Position {
	delta := added - (endLine - startLine)
	switch {
	case p.Line > endLine:
		p.Line += delta
	case p.Line > startLine+added:
		p.Line = startLine + added
	}
	return p
}

func (e *Engine) insertText(p textbuf.Position, text string) textbuf.Edit {
	return e.edit(e.buf(), textbuf.Edit{Start: p, End: p, Text: text})
}

func (e *Engine) deleteRange(a, b textbuf.Position) textbuf.Edit {
	return e.edit(e.buf(), textbuf.Edit{Start: a, End: b})
}

func (e *Engine) replaceRange(a, b textbuf.Position, text string) textbuf.Edit {
	return e.edit(e.buf(), textbuf.Edit{Start: a, End: b, Text: text})
}

// setLine replaces the whole text of line.
func (e *Engine) setLine(line int, text string) {
	t := e.text()
	if t.Line(line) == text {
		return
	}
	e.replaceRange(textbuf.Position{Line: line}, textbuf.Position{Line: line, Col: t.LineLen(line)}, text)
}

// deleteLines removes lines a..b, keeping at least one line in the buffer.
func (e *Engine) deleteLines(a, b int) {
	t := e.text()
	last := t.LineCount() - 1
	b = min(b, last)
	switch {
	case a == 0 && b == last:
		e.deleteRange(textbuf.Position{}, t.EndOfBuffer())
	case b == last:
		e.deleteRange(textbuf.Position{Line: a - 1, Col: t.LineLen(a - 1)}, t.EndOfBuffer())
	default:
		e.deleteRange(textbuf.Position{Line: a}, textbuf.Position{Line: b + 1})
	}
}

// insertLines puts lines before line at, or after the last line when at is
// the line count.
func (e *Engine) insertLines(at int, lines []string) {
	t := e.text()
	text := strings.Join(lines, "\n")
	if at >= t.LineCount() {
		last := t.LineCount() - 1
		e.insertText(textbuf.Position{Line: last, Col: t.LineLen(last)}, "\n"+text)
		return
	}
	e.insertText(textbuf.Position{Line: at}, text+"\n")
}

func (e *Engine) undo(count int) {
	st := e.buf()
	e.cur.noDot = true
	st.LineUndo.Invalidate()
	for i := 0; i < count; i++ {
		p, ok := st.History.Undo(st.Text)
		if !ok {
			if i == 0 {
				e.message("Already at oldest change")
				e.fail()
			}
			return
		}
		e.setCursor(p)
	}
}

func (e *Engine) redo(count int) {
	st := e.buf()
	e.cur.noDot = true
	st.LineUndo.Invalidate()
	for i := 0; i < count; i++ {
		p, ok := st.History.Redo(st.Text)
		if !ok {
			if i == 0 {
				e.message("Already at newest change")
				e.fail()
			}
			return
		}
		e.setCursor(p)
	}
}

// undoLine is U: the line goes back to its text from before the changes made
// since the cursor moved onto it, as a new undoable change.
func (e *Engine) undoLine() {
	st := e.buf()
	line := e.cursor().Line
	e.cur.noDot = true
	if !st.LineUndo.Valid || st.LineUndo.Line != line {
		e.fail()
		return
	}
	prev := st.LineUndo.Swap(st.Text.Line(line))
	e.setLine(line, prev)
	e.setCursor(textbuf.Position{Line: line, Col: e.cursor().Col})
}
