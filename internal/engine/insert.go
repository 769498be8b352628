package engine

import (
	"strings"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/kobzarvs/qvim/internal/keys"
	mo "github.com/kobzarvs/qvim/internal/motion"
	"github.com/kobzarvs/qvim/internal/register"
	"github.com/kobzarvs/qvim/internal/textbuf"
	"github.com/kobzarvs/qvim/internal/view"
)

// insertState is one Insert or Replace mode session.
type insertState struct {
	// kind is the command that started the session: i a I A o O R, c for
	// change, g for gi, 0 for gI and b for a block insert.
	kind  rune
	count int
	// aiLine is the line holding nothing but autoindent the session added,
	// -1 when there is none.
	aiLine int
	typed  []keys.Key
	text   []rune
	// replaced backs <BS> in Replace mode.
	replaced  []replacedRune
	block     *blockInsert
	literal   bool
	regWait   bool
	replaying bool
}

type replacedRune struct {
	r       rune
	had     bool
	newline bool
}

// blockInsert is a Visual-block I, A or c: the text typed on the top line
// is copied to the other lines on <Esc>.
type blockInsert struct {
	top, bottom int
	col         int
	// before is the length of the top line when typing started.
	before     int
	appendMode bool
	toEnd      bool
}

func (e *Engine) startInsert(kind rune, count int) {
	e.mode = ModeInsert
	if kind == 'R' {
		e.mode = ModeReplace
	}
	e.ins = insertState{kind: kind, count: max(count, 1), aiLine: -1}
	st := e.buf()
	if !st.History.InGroup() {
		st.History.Begin(e.cursor())
	}
}

// insertCommand is i a I A o O R gi gI from Normal mode.
func (e *Engine) insertCommand(kind rune) {
	_, count, _ := e.endPending()
	p := e.cursor()
	t := e.text()
	e.startInsert(kind, count)
	switch kind {
	case 'a':
		if t.LineLen(p.Line) > 0 {
			p.Col++
		}
		e.setCursor(p)
	case 'I':
		e.setCursor(textbuf.Position{Line: p.Line, Col: mo.FirstNonBlank(t.LineRunes(p.Line))})
	case 'A':
		e.setCursor(textbuf.Position{Line: p.Line, Col: t.LineLen(p.Line)})
	case '0':
		e.setCursor(textbuf.Position{Line: p.Line})
	case 'g':
		if m, ok := e.buf().Marks['^']; ok {
			e.setCursor(m)
		}
	case 'o':
		e.openLine(true)
	case 'O':
		e.openLine(false)
	}
}

// openLine adds an empty line below or above the cursor, indented like the
// cursor line when autoindent is on.
func (e *Engine) openLine(below bool) {
	st := e.buf()
	line := e.cursor().Line
	indent := ""
	if st.Options.AutoIndent {
		indent = mo.Indent(st.Text.LineRunes(line))
	}
	if below {
		end := e.foldEnd(line)
		e.insertText(textbuf.Position{Line: end, Col: st.Text.LineLen(end)}, "\n"+indent)
		line = end + 1
	} else {
		line = e.view().VisibleStart(line)
		e.insertText(textbuf.Position{Line: line}, indent+"\n")
	}
	e.setCursor(textbuf.Position{Line: line, Col: len([]rune(indent))})
	e.ins.aiLine = -1
	if indent != "" {
		e.ins.aiLine = line
	}
}

// startBlockInsert begins I or A (appendMode) on the block sp. Short lines
// are padded for A and skipped for I.
func (e *Engine) startBlockInsert(sp span, appendMode bool) {
	t := e.text()
	top := sp.start.Line
	col := sp.start.Col
	if appendMode {
		col = sp.end.Col + 1
	}
	e.startInsert('b', 1)
	if sp.toEnd {
		col = t.LineLen(top)
	}
	if n := t.LineLen(top); appendMode && n < col {
		e.insertText(textbuf.Position{Line: top, Col: n}, strings.Repeat(" ", col-n))
	}
	col = min(col, t.LineLen(top))
	e.ins.block = &blockInsert{
		top:        top,
		bottom:     sp.end.Line,
		col:        col,
		before:     t.LineLen(top),
		appendMode: appendMode,
		toEnd:      sp.toEnd,
	}
	e.setCursor(textbuf.Position{Line: top, Col: col})
}

func (e *Engine) insertKey(k keys.Key) {
	switch {
	case e.ins.literal:
		e.ins.literal = false
		e.recordInsert(k)
		if r, ok := literalRune(k); ok {
			e.typeRune(r)
		}
		return
	case e.ins.regWait:
		e.ins.regWait = false
		e.recordInsert(k)
		if k.IsRune() {
			e.insertRegister(k.Rune)
		}
		return
	}
	switch {
	case k.IsEscape(), k.IsCtrl('c'):
		e.finishInsert()
		return
	case k == keys.Left, k == keys.Right, k == keys.Up, k == keys.Down, k == keys.Home, k == keys.End:
		e.insertMove(k)
		return
	}
	e.recordInsert(k)
	switch {
	case k.IsCtrl('v'):
		e.ins.literal = true
	case k.IsCtrl('r'):
		e.ins.regWait = true
	case k.IsEnter():
		e.newline()
	case k.IsBackspace():
		e.backspace()
	case k == keys.Delete:
		e.deleteForward()
	case k == keys.Tab:
		e.insertTab()
	case k.IsCtrl('w'):
		e.deleteWordBack()
	case k.IsCtrl('u'):
		e.deleteLineBack()
	case k.IsCtrl('t'), k.IsCtrl('d'):
		e.insertShift(k.IsCtrl('t'))
	case k.IsRune():
		e.typeRune(k.Rune)
	}
}

func (e *Engine) recordInsert(k keys.Key) {
	if !e.ins.replaying {
		e.ins.typed = append(e.ins.typed, k)
	}
}

// literalRune is the character <C-v> inserts for k.
func literalRune(k keys.Key) (rune, bool) {
	switch {
	case k.IsRune():
		return k.Rune, true
	case k == keys.Tab:
		return '\t', true
	case k.Code == tcell.KeyEnter:
		return '\r', true
	case k.Code == tcell.KeyEscape:
		return 0x1b, true
	case k.Code == tcell.KeyBackspace2:
		return 0x7f, true
	case k.Code >= tcell.KeyCtrlA && k.Code <= tcell.KeyCtrlZ:
		return rune(k.Code-tcell.KeyCtrlA) + 1, true
	}
	return 0, false
}

// typeRune inserts r at the cursor, or overwrites the character under it in
// Replace mode.
func (e *Engine) typeRune(r rune) {
	p := e.cursor()
	if e.ins.aiLine == p.Line {
		e.ins.aiLine = -1
	}
	e.ins.text = append(e.ins.text, r)
	if e.mode == ModeReplace {
		old, had := e.text().RuneAt(p)
		if had {
			e.replaceRange(p, textbuf.Position{Line: p.Line, Col: p.Col + 1}, string(r))
		} else {
			e.insertText(p, string(r))
		}
		e.ins.replaced = append(e.ins.replaced, replacedRune{r: old, had: had})
	} else {
		e.insertText(p, string(r))
	}
	e.setCursor(textbuf.Position{Line: p.Line, Col: p.Col + 1})
}

// typeText inserts s as typed text without Replace mode overwriting.
func (e *Engine) typeText(s string) {
	if s == "" {
		return
	}
	inv := e.insertText(e.cursor(), s)
	e.ins.text = append(e.ins.text, []rune(s)...)
	e.ins.aiLine = -1
	e.setCursor(inv.End)
}

func (e *Engine) newline() {
	st := e.buf()
	p := e.cursor()
	runes := st.Text.LineRunes(p.Line)
	var ind []rune
	if st.Options.AutoIndent {
		ind = []rune(mo.Indent(runes))
		if len(ind) > p.Col {
			ind = ind[:p.Col]
		}
	}
	if e.ins.aiLine == p.Line && strings.TrimSpace(string(runes)) == "" {
		e.setLine(p.Line, "")
		p.Col = 0
	}
	e.insertText(p, "\n"+string(ind))
	e.ins.text = append(e.ins.text, '\n')
	if e.mode == ModeReplace {
		e.ins.replaced = append(e.ins.replaced, replacedRune{newline: true})
	}
	e.setCursor(textbuf.Position{Line: p.Line + 1, Col: len(ind)})
	e.ins.aiLine = -1
	if len(ind) > 0 {
		e.ins.aiLine = p.Line + 1
	}
}

func (e *Engine) popText(n int) {
	e.ins.text = e.ins.text[:max(len(e.ins.text)-n, 0)]
}

func (e *Engine) backspace() {
	p := e.cursor()
	if e.mode == ModeReplace {
		e.replaceBackspace(p)
		return
	}
	e.popText(1)
	if p.Col > 0 {
		e.deleteRange(textbuf.Position{Line: p.Line, Col: p.Col - 1}, p)
		e.setCursor(textbuf.Position{Line: p.Line, Col: p.Col - 1})
		return
	}
	e.joinBack(p)
}

// joinBack deletes the line break before p.
func (e *Engine) joinBack(p textbuf.Position) {
	if p.Line == 0 {
		return
	}
	if e.ins.aiLine == p.Line {
		e.ins.aiLine = -1
	}
	end := textbuf.Position{Line: p.Line - 1, Col: e.text().LineLen(p.Line - 1)}
	e.deleteRange(end, p)
	e.setCursor(end)
}

// replaceBackspace undoes the last overwrite of this Replace session, and
// only moves left over text that was there before.
func (e *Engine) replaceBackspace(p textbuf.Position) {
	n := len(e.ins.replaced)
	if n == 0 {
		if p.Col > 0 {
			e.setCursor(textbuf.Position{Line: p.Line, Col: p.Col - 1})
		}
		return
	}
	last := e.ins.replaced[n-1]
	e.ins.replaced = e.ins.replaced[:n-1]
	e.popText(1)
	if last.newline {
		e.joinBack(p)
		return
	}
	if p.Col == 0 {
		return
	}
	prev := textbuf.Position{Line: p.Line, Col: p.Col - 1}
	if last.had {
		e.replaceRange(prev, p, string(last.r))
	} else {
		e.deleteRange(prev, p)
	}
	e.setCursor(prev)
}

func (e *Engine) deleteForward() {
	p := e.cursor()
	t := e.text()
	switch {
	case p.Col < t.LineLen(p.Line):
		e.deleteRange(p, textbuf.Position{Line: p.Line, Col: p.Col + 1})
	case p.Line < t.LineCount()-1:
		e.deleteRange(p, textbuf.Position{Line: p.Line + 1})
	}
	e.setCursor(p)
}

func (e *Engine) insertTab() {
	st := e.buf()
	if !st.Options.ExpandTab || st.Options.TabWidth <= 0 {
		e.typeRune('\t')
		return
	}
	p := e.cursor()
	tw := st.Options.TabWidth
	col := view.DisplayColumn(st.Text.LineRunes(p.Line), p.Col, tw)
	n := tw - col%tw
	if e.mode == ModeReplace {
		for i := 0; i < n; i++ {
			e.typeRune(' ')
		}
		return
	}
	e.typeText(strings.Repeat(" ", n))
}

// deleteWordBack is <C-w>: the blanks before the cursor and then one word
// or one run of punctuation.
func (e *Engine) deleteWordBack() {
	p := e.cursor()
	if p.Col == 0 {
		e.backspace()
		return
	}
	runes := e.text().LineRunes(p.Line)
	c := min(p.Col, len(runes))
	for c > 0 && unicode.IsSpace(runes[c-1]) {
		c--
	}
	if c > 0 {
		word := mo.IsWordRune(runes[c-1])
		for c > 0 && !unicode.IsSpace(runes[c-1]) && mo.IsWordRune(runes[c-1]) == word {
			c--
		}
	}
	start := textbuf.Position{Line: p.Line, Col: c}
	e.deleteRange(start, p)
	e.popText(p.Col - c)
	e.setCursor(start)
}

// deleteLineBack is <C-u>: back to the indent, or to column 0 when the
// cursor is already inside it.
func (e *Engine) deleteLineBack() {
	p := e.cursor()
	if p.Col == 0 {
		e.backspace()
		return
	}
	indent := len([]rune(mo.Indent(e.text().LineRunes(p.Line))))
	c := 0
	if p.Col > indent {
		c = indent
	}
	start := textbuf.Position{Line: p.Line, Col: c}
	e.deleteRange(start, p)
	e.popText(p.Col - c)
	e.setCursor(start)
}

// insertShift is <C-t> and <C-d>; the cursor stays on the same character.
func (e *Engine) insertShift(right bool) {
	p := e.cursor()
	before := e.text().LineLen(p.Line)
	e.shiftLines(p.Line, p.Line, right, 1)
	delta := e.text().LineLen(p.Line) - before
	e.setCursor(textbuf.Position{Line: p.Line, Col: max(p.Col+delta, 0)})
}

// insertRegister is <C-r>{reg}: the content goes in as typed text.
func (e *Engine) insertRegister(name rune) {
	reg, err := e.regs.Get(name)
	if err != nil {
		e.registerError(err, name)
		return
	}
	e.typeText(reg.Text)
}

// insertMove handles the cursor keys. Moving ends the current undo group
// and restarts dot repeat at the new position.
func (e *Engine) insertMove(k keys.Key) {
	e.commitTouched()
	e.ins.typed = nil
	e.ins.text = nil
	e.ins.replaced = nil
	e.ins.block = nil
	e.ins.count = 1
	e.ins.aiLine = -1
	e.cur = change{keys: []keys.Key{keys.Rune('i')}}
	if e.mode == ModeReplace {
		e.cur.keys[0] = keys.Rune('R')
	}
	p := e.cursor()
	t := e.text()
	switch k {
	case keys.Left:
		if p.Col > 0 {
			e.setCursor(textbuf.Position{Line: p.Line, Col: p.Col - 1})
		}
	case keys.Right:
		if p.Col < t.LineLen(p.Line) {
			e.setCursor(textbuf.Position{Line: p.Line, Col: p.Col + 1})
		}
	case keys.Up:
		if p.Line > 0 {
			e.moveToLine(p.Line - 1)
		}
	case keys.Down:
		if p.Line < t.LineCount()-1 {
			e.moveToLine(p.Line + 1)
		}
	case keys.Home:
		e.setCursor(textbuf.Position{Line: p.Line})
	case keys.End:
		e.setCursor(textbuf.Position{Line: p.Line, Col: t.LineLen(p.Line)})
	}
}

// finishInsert is <Esc>: the count repeats the typed keys, a block insert is
// copied down, a line left holding only autoindent is cleared, and the
// cursor steps back onto the last typed character.
func (e *Engine) finishInsert() {
	st := e.buf()
	text := string(e.ins.text)
	if e.ins.count > 1 && e.ins.block == nil {
		typed := e.ins.typed
		e.ins.replaying = true
		for i := 1; i < e.ins.count; i++ {
			if e.ins.kind == 'o' || e.ins.kind == 'O' {
				e.openLine(true)
			}
			for _, k := range typed {
				e.insertKey(k)
			}
		}
		e.ins.replaying = false
	}
	p := e.cursor()
	if b := e.ins.block; b != nil && p.Line == b.top {
		e.finishBlock(b)
		p = textbuf.Position{Line: b.top, Col: b.col + 1}
	}
	if line := st.Text.Line(p.Line); e.ins.aiLine == p.Line && line != "" && strings.TrimSpace(line) == "" {
		e.setLine(p.Line, "")
		p.Col = 0
	}
	e.regs.SetReadOnly(register.LastInsert, text)
	st.Marks['^'] = p
	e.touched[st.ID] = true
	e.mode = ModeNormal
	e.ins = insertState{aiLine: -1}
	e.setCursor(textbuf.Position{Line: p.Line, Col: max(p.Col-1, 0)})
}

func (e *Engine) finishBlock(b *blockInsert) {
	t := e.text()
	added := t.LineLen(b.top) - b.before
	if added <= 0 || b.bottom == b.top {
		return
	}
	runes := t.LineRunes(b.top)
	if b.col+added > len(runes) {
		return
	}
	piece := string(runes[b.col : b.col+added])
	for l := b.top + 1; l <= b.bottom; l++ {
		n := t.LineLen(l)
		switch {
		case b.toEnd:
			e.insertText(textbuf.Position{Line: l, Col: n}, piece)
		case n < b.col:
			if b.appendMode {
				e.insertText(textbuf.Position{Line: l, Col: n}, strings.Repeat(" ", b.col-n)+piece)
			}
		default:
			e.insertText(textbuf.Position{Line: l, Col: b.col}, piece)
		}
	}
}
