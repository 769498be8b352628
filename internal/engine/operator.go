package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	mo "github.com/kobzarvs/qvim/internal/motion"
	"github.com/kobzarvs/qvim/internal/register"
	"github.com/kobzarvs/qvim/internal/textbuf"
	"github.com/kobzarvs/qvim/internal/view"
)

// applyOperator runs op over sp. count only matters for shifts in Visual
// mode, where 3> shifts three times.
func (e *Engine) applyOperator(op operator, sp span, reg rune, count int, visual bool) {
	switch op {
	case opYank:
		e.yank(sp, reg)
	case opDelete:
		e.deleteSpan(sp, reg, false)
	case opChange:
		e.changeSpan(sp, reg)
	case opIndent, opDedent:
		times := 1
		if visual {
			times = count
		}
		e.shiftLines(sp.start.Line, sp.end.Line, op == opIndent, times)
	case opToggleCase, opLower, opUpper, opRot13:
		e.caseSpan(sp, op)
	case opFold:
		e.view().CreateFold(sp.start.Line, sp.end.Line)
		e.setCursor(textbuf.Position{Line: sp.start.Line, Col: e.cursor().Col})
	}
}

// linewiseOp is the doubled form: dd, cc, >>, g~~ and the rest act on count
// lines from the cursor.
func (e *Engine) linewiseOp(op operator) {
	reg, count, _ := e.endPending()
	line := e.cursor().Line
	last := e.text().LineCount() - 1
	end := min(line+count-1, last)
	a, b := e.foldLines(line, end)
	sp := span{start: textbuf.Position{Line: a}, end: textbuf.Position{Line: b}, kind: register.Linewise}
	if op == opIndent || op == opDedent {
		e.shiftLines(a, b, op == opIndent, 1)
		return
	}
	e.applyOperator(op, sp, reg, count, false)
}

func (e *Engine) spanRegister(sp span) register.Register {
	t := e.text()
	switch sp.kind {
	case register.Linewise:
		lines := make([]string, 0, sp.lines())
		for l := sp.start.Line; l <= sp.end.Line; l++ {
			lines = append(lines, t.Line(l))
		}
		return register.NewLines(lines)
	case register.Blockwise:
		rows := make([]string, 0, sp.lines())
		for l := sp.start.Line; l <= sp.end.Line; l++ {
			runes := t.LineRunes(l)
			s, en := blockCols(len(runes), sp)
			rows = append(rows, string(runes[s:en]))
		}
		return register.NewBlock(rows)
	}
	return register.Register{Text: t.Slice(textbuf.Range{Start: sp.start, End: sp.end})}
}

// blockCols clips a block span to a line of n runes.
func blockCols(n int, sp span) (int, int) {
	s := min(sp.start.Col, n)
	en := min(sp.end.Col+1, n)
	if sp.toEnd {
		en = n
	}
	return s, max(en, s)
}

func (e *Engine) registerError(err error, name rune) {
	switch {
	case errors.Is(err, register.ErrInvalidRegister), errors.Is(err, register.ErrReadOnly):
		e.errorf("E354: Invalid register name: '%c'", name)
	default:
		e.errorf("%v", err)
	}
}

func (e *Engine) yank(sp span, reg rune) {
	if err := e.regs.Yank(reg, e.spanRegister(sp)); err != nil {
		e.registerError(err, reg)
		return
	}
	st := e.buf()
	st.Marks['['] = sp.start
	st.Marks[']'] = sp.end
	if sp.kind == register.Linewise {
		if e.cursor().Line != sp.start.Line {
			e.moveToLine(sp.start.Line)
		}
	} else {
		e.setCursor(sp.start)
	}
	if n := sp.lines(); n > 2 {
		if sp.kind == register.Blockwise {
			e.message("block of %d lines yanked", n)
		} else {
			e.message("%d lines yanked", n)
		}
	}
}

// deleteSpan removes sp into reg. It reports whether anything happened.
func (e *Engine) deleteSpan(sp span, reg rune, forChange bool) bool {
	if err := e.regs.Delete(reg, e.spanRegister(sp)); err != nil {
		e.registerError(err, reg)
		return false
	}
	t := e.text()
	switch sp.kind {
	case register.Linewise:
		e.deleteLines(sp.start.Line, sp.end.Line)
		if !forChange {
			e.firstNonBlank(sp.start.Line)
		}
		if n := sp.lines(); n > 2 {
			e.message("%d fewer lines", n)
		}
	case register.Blockwise:
		for l := sp.end.Line; l >= sp.start.Line; l-- {
			s, en := blockCols(t.LineLen(l), sp)
			if en > s {
				e.deleteRange(textbuf.Position{Line: l, Col: s}, textbuf.Position{Line: l, Col: en})
			}
		}
		e.setCursor(sp.start)
	default:
		if sp.start != sp.end {
			e.deleteRange(sp.start, sp.end)
		}
		e.setCursor(sp.start)
	}
	return true
}

func (e *Engine) changeSpan(sp span, reg rune) {
	st := e.buf()
	switch sp.kind {
	case register.Linewise:
		if err := e.regs.Delete(reg, e.spanRegister(sp)); err != nil {
			e.registerError(err, reg)
			return
		}
		indent := ""
		if st.Options.AutoIndent {
			indent = mo.Indent(st.Text.LineRunes(sp.start.Line))
		}
		e.replaceRange(textbuf.Position{Line: sp.start.Line},
			textbuf.Position{Line: sp.end.Line, Col: st.Text.LineLen(sp.end.Line)}, indent)
		e.startInsert('c', 1)
		e.setCursor(textbuf.Position{Line: sp.start.Line, Col: len([]rune(indent))})
		if indent != "" {
			e.ins.aiLine = sp.start.Line
		}
	case register.Blockwise:
		if !e.deleteSpan(sp, reg, true) {
			return
		}
		sp.toEnd = false
		e.startBlockInsert(sp, false)
	default:
		if !e.deleteSpan(sp, reg, true) {
			return
		}
		e.startInsert('c', 1)
		e.setCursor(sp.start)
	}
}

// shiftLines is > and <. Empty lines are left alone; a dedent never removes
// more than the existing indent.
func (e *Engine) shiftLines(a, b int, right bool, times int) {
	st := e.buf()
	sw := st.Options.ShiftWidth
	if sw <= 0 {
		sw = st.Options.TabWidth
	}
	for l := a; l <= b; l++ {
		runes := st.Text.LineRunes(l)
		if len(runes) == 0 {
			continue
		}
		indent := mo.Indent(runes)
		width := view.StringWidth(indent, st.Options.TabWidth)
		if right {
			width += sw * times
		} else {
			width = max(width-sw*times, 0)
		}
		next := e.makeIndent(width)
		if next != indent {
			e.replaceRange(textbuf.Position{Line: l}, textbuf.Position{Line: l, Col: len([]rune(indent))}, next)
		}
	}
	e.firstNonBlank(a)
	if n := b - a + 1; n > 2 {
		dir := ">"
		if !right {
			dir = "<"
		}
		e.message("%d lines %sed %s", n, dir, plural(times, "time"))
	}
}

// makeIndent builds whitespace of the given display width, with tabs unless
// expandtab is set.
func (e *Engine) makeIndent(width int) string {
	o := e.buf().Options
	if o.ExpandTab || o.TabWidth <= 0 {
		return strings.Repeat(" ", width)
	}
	return strings.Repeat("\t", width/o.TabWidth) + strings.Repeat(" ", width%o.TabWidth)
}

func caseFunc(op operator) func(rune) rune {
	switch op {
	case opLower:
		return unicode.ToLower
	case opUpper:
		return unicode.ToUpper
	case opRot13:
		return rot13
	}
	return toggleCase
}

func toggleCase(r rune) rune {
	if unicode.IsUpper(r) {
		return unicode.ToLower(r)
	}
	return unicode.ToUpper(r)
}

func rot13(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z':
		return 'a' + (r-'a'+13)%26
	case r >= 'A' && r <= 'Z':
		return 'A' + (r-'A'+13)%26
	}
	return r
}

// mapRunes rewrites columns s..en of line with f.
func (e *Engine) mapRunes(line, s, en int, f func(rune) rune) {
	runes := e.text().LineRunes(line)
	en = min(en, len(runes))
	if s >= en {
		return
	}
	out := make([]rune, en-s)
	for i, r := range runes[s:en] {
		out[i] = f(r)
	}
	if string(out) != string(runes[s:en]) {
		e.replaceRange(textbuf.Position{Line: line, Col: s}, textbuf.Position{Line: line, Col: en}, string(out))
	}
}

func (e *Engine) caseSpan(sp span, op operator) {
	f := caseFunc(op)
	t := e.text()
	for l := sp.start.Line; l <= sp.end.Line; l++ {
		n := t.LineLen(l)
		s, en := 0, n
		switch sp.kind {
		case register.Blockwise:
			s, en = blockCols(n, sp)
		case register.Charwise:
			if l == sp.start.Line {
				s = sp.start.Col
			}
			if l == sp.end.Line {
				en = sp.end.Col
			}
		}
		e.mapRunes(l, s, en, f)
	}
	if sp.kind == register.Linewise {
		if e.cursor().Line != sp.start.Line {
			e.moveToLine(sp.start.Line)
		}
		return
	}
	e.setCursor(sp.start)
}

// tilde is ~ without tildeop: flip count characters and step past them.
func (e *Engine) tilde(count int) {
	p := e.cursor()
	n := e.text().LineLen(p.Line)
	if n == 0 {
		e.fail()
		return
	}
	end := min(p.Col+count, n)
	e.mapRunes(p.Line, p.Col, end, toggleCase)
	e.setCursor(textbuf.Position{Line: p.Line, Col: min(end, n-1)})
}

// join merges count lines (at least two) starting at line. With spaces the
// next line loses its indent and one space separates the parts.
func (e *Engine) join(line, count int, spaces bool) bool {
	t := e.text()
	last := t.LineCount() - 1
	n := max(count, 2) - 1
	if line >= last {
		return false
	}
	n = min(n, last-line)
	col := 0
	for i := 0; i < n; i++ {
		cur := t.LineRunes(line)
		next := t.LineRunes(line + 1)
		if !spaces {
			e.deleteRange(textbuf.Position{Line: line, Col: len(cur)}, textbuf.Position{Line: line + 1})
			col = len(cur)
			continue
		}
		lead := len([]rune(mo.Indent(next)))
		rest := next[lead:]
		sep := " "
		switch {
		case len(rest) == 0, len(cur) == 0:
			sep = ""
		case cur[len(cur)-1] == ' ' || cur[len(cur)-1] == '\t':
			sep = ""
		case rest[0] == ')':
			sep = ""
		}
		e.replaceRange(textbuf.Position{Line: line, Col: len(cur)}, textbuf.Position{Line: line + 1, Col: lead}, sep)
		col = len(cur)
	}
	e.setCursor(textbuf.Position{Line: line, Col: col})
	return true
}

// replaceChars is r. A count larger than the rest of the line fails.
func (e *Engine) replaceChars(ch rune, count int) {
	p := e.cursor()
	n := e.text().LineLen(p.Line)
	if p.Col+count > n {
		e.fail()
		return
	}
	end := textbuf.Position{Line: p.Line, Col: p.Col + count}
	if ch == '\r' {
		e.replaceRange(p, end, "\n")
		e.setCursor(textbuf.Position{Line: p.Line + 1})
		return
	}
	e.replaceRange(p, end, strings.Repeat(string(ch), count))
	e.setCursor(textbuf.Position{Line: p.Line, Col: p.Col + count - 1})
}

// increment is <C-a> and <C-x> on the number at or after the cursor.
func (e *Engine) increment(delta int) {
	p := e.cursor()
	runes := e.text().LineRunes(p.Line)
	s, en, hex, ok := mo.NumberUnder(runes, p.Col)
	if !ok {
		e.fail()
		return
	}
	text := string(runes[s:en])
	var out string
	if hex {
		digits := text[2:]
		v, err := strconv.ParseUint(digits, 16, 64)
		if err != nil {
			e.fail()
			return
		}
		v += uint64(int64(delta))
		out = fmt.Sprintf("%0*x", len(digits), v)
		if strings.ToLower(digits) != digits {
			out = strings.ToUpper(out)
		}
		out = text[:2] + out
	} else {
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			e.fail()
			return
		}
		out = strconv.FormatInt(v+int64(delta), 10)
	}
	e.replaceRange(textbuf.Position{Line: p.Line, Col: s}, textbuf.Position{Line: p.Line, Col: en}, out)
	e.setCursor(textbuf.Position{Line: p.Line, Col: s + len([]rune(out)) - 1})
}

// put is p, P, gp and gP.
func (e *Engine) put(name rune, count int, after, cursorAfter bool) {
	if name == 0 {
		name = register.Unnamed
	}
	reg, err := e.regs.Get(name)
	if err != nil {
		e.registerError(err, name)
		return
	}
	if reg.Empty() {
		e.errorf("E353: Nothing in register %c", name)
		return
	}
	e.putContent(reg, count, after, cursorAfter)
}

func (e *Engine) putContent(reg register.Register, count int, after, cursorAfter bool) {
	count = max(count, 1)
	t := e.text()
	p := e.cursor()
	switch reg.Kind {
	case register.Linewise:
		var lines []string
		for i := 0; i < count; i++ {
			lines = append(lines, reg.Lines()...)
		}
		at := p.Line
		if after {
			at = e.foldEnd(p.Line) + 1
		}
		e.insertLines(at, lines)
		if cursorAfter {
			e.setCursor(textbuf.Position{Line: at + len(lines)})
		} else {
			e.firstNonBlank(at)
		}
	case register.Blockwise:
		e.putBlock(reg.Lines(), count, after, cursorAfter)
	default:
		text := strings.Repeat(reg.Text, count)
		at := p
		if after && t.LineLen(p.Line) > 0 {
			at.Col++
		}
		inv := e.insertText(at, text)
		switch {
		case cursorAfter:
			e.setCursor(inv.End)
		case strings.Contains(text, "\n"):
			e.setCursor(at)
		default:
			e.setCursor(textbuf.Position{Line: inv.End.Line, Col: inv.End.Col - 1})
		}
	}
}

func (e *Engine) foldEnd(line int) int {
	if f, ok := e.view().ClosedFoldAt(line); ok {
		return f.End
	}
	return line
}

// putBlock pastes a rectangle at the cursor column, padding short lines
// with spaces and adding lines at the end of the buffer as needed.
func (e *Engine) putBlock(rows []string, count int, after, cursorAfter bool) {
	t := e.text()
	p := e.cursor()
	col := p.Col
	if after && t.LineLen(p.Line) > 0 {
		col++
	}
	width := 0
	for _, r := range rows {
		width = max(width, len([]rune(r)))
	}
	for i, row := range rows {
		line := p.Line + i
		if line >= t.LineCount() {
			last := t.LineCount() - 1
			e.insertText(textbuf.Position{Line: last, Col: t.LineLen(last)}, "\n")
		}
		n := t.LineLen(line)
		piece := row
		if col < n {
			piece += strings.Repeat(" ", width-len([]rune(row)))
		}
		piece = strings.Repeat(piece, count)
		at := textbuf.Position{Line: line, Col: col}
		if n < col {
			piece = strings.Repeat(" ", col-n) + piece
			at.Col = n
		}
		e.insertText(at, piece)
	}
	if cursorAfter {
		e.setCursor(textbuf.Position{Line: p.Line + len(rows) - 1, Col: col + width*count})
		return
	}
	e.setCursor(textbuf.Position{Line: p.Line, Col: col})
}
