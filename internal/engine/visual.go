package engine

import (
	"github.com/kobzarvs/qvim/internal/buffers"
	"github.com/kobzarvs/qvim/internal/keys"
	mo "github.com/kobzarvs/qvim/internal/motion"
	"github.com/kobzarvs/qvim/internal/register"
	"github.com/kobzarvs/qvim/internal/textbuf"
	"github.com/kobzarvs/qvim/internal/view"
)

type visualState struct {
	anchor textbuf.Position
	last   map[buffers.ID]lastVisual
}

// lastVisual backs gv and the '< '> marks.
type lastVisual struct {
	mode   Mode
	anchor textbuf.Position
	cursor textbuf.Position
}

func (e *Engine) enterVisual(m Mode) {
	switch {
	case e.mode == m:
		e.exitVisual()
		return
	case !e.mode.IsVisual():
		e.vis.anchor = e.cursor()
	}
	e.mode = m
}

func (e *Engine) exitVisual() {
	e.saveVisual()
	e.mode = ModeNormal
	e.setCursor(e.cursor())
}

// saveVisual remembers the selection for gv and sets the '< and '> marks.
func (e *Engine) saveVisual() {
	st := e.buf()
	a, b := textbuf.Order(e.vis.anchor, e.cursor())
	st.Marks['<'] = a
	st.Marks['>'] = b
	if e.vis.last == nil {
		e.vis.last = make(map[buffers.ID]lastVisual)
	}
	e.vis.last[st.ID] = lastVisual{mode: e.mode, anchor: e.vis.anchor, cursor: e.cursor()}
}

// reselect is gv.
func (e *Engine) reselect() {
	lv, ok := e.vis.last[e.buf().ID]
	if !ok {
		e.fail()
		return
	}
	t := e.text()
	e.vis.anchor = t.Clamp(lv.anchor)
	e.mode = lv.mode
	e.setCursor(t.Clamp(lv.cursor))
}

// visualSpan is the selection as an operator range.
func (e *Engine) visualSpan() span {
	t := e.text()
	cur := e.cursor()
	a, b := textbuf.Order(e.vis.anchor, cur)
	switch e.mode {
	case ModeVisualLine:
		return span{start: textbuf.Position{Line: a.Line}, end: textbuf.Position{Line: b.Line}, kind: register.Linewise}
	case ModeVisualBlock:
		l, r := min(e.vis.anchor.Col, cur.Col), max(e.vis.anchor.Col, cur.Col)
		return span{
			start: textbuf.Position{Line: a.Line, Col: l},
			end:   textbuf.Position{Line: b.Line, Col: r},
			kind:  register.Blockwise,
			toEnd: e.view().Want == view.WantEnd,
		}
	}
	n := t.LineLen(b.Line)
	if n == 0 || (b == cur && e.view().Want == view.WantEnd) {
		if b.Line < t.LineCount()-1 {
			b = textbuf.Position{Line: b.Line + 1}
		} else {
			b.Col = n
		}
	} else {
		b.Col = min(b.Col+1, n)
	}
	return span{start: a, end: b, kind: register.Charwise}
}

// visualKey handles the keys that mean something else in Visual mode. It
// reports whether k was consumed.
func (e *Engine) visualKey(k keys.Key) bool {
	switch {
	case k.Is('v'):
		e.enterVisual(ModeVisual)
	case k.Is('V'):
		e.enterVisual(ModeVisualLine)
	case k.IsCtrl('v'):
		e.enterVisual(ModeVisualBlock)
	case k.Is('o'):
		cur := e.cursor()
		e.setCursor(e.vis.anchor)
		e.vis.anchor = cur
	case k.Is('O'):
		if e.mode != ModeVisualBlock {
			cur := e.cursor()
			e.setCursor(e.vis.anchor)
			e.vis.anchor = cur
			break
		}
		cur := e.cursor()
		e.setCursor(textbuf.Position{Line: cur.Line, Col: e.vis.anchor.Col})
		e.vis.anchor.Col = cur.Col
	case k.Is('i'), k.Is('a'):
		e.pend.prefix, e.pend.arg = prefixObject, k.Rune
	case k.Is('x'), k == keys.Delete:
		e.visualOperator(opDelete)
	case k.Is('X'), k.Is('D'):
		e.visualLinewise(opDelete)
	case k.Is('s'):
		e.visualOperator(opChange)
	case k.Is('S'), k.Is('R'), k.Is('C'):
		e.visualLinewise(opChange)
	case k.Is('Y'):
		e.visualLinewise(opYank)
	case k.Is('~'):
		e.visualOperator(opToggleCase)
	case k.Is('u'):
		e.visualOperator(opLower)
	case k.Is('U'):
		e.visualOperator(opUpper)
	case k.Is('J'):
		e.visualJoin(true)
	case k.Is('r'):
		e.pend.prefix = prefixReplace
	case k.Is('p'), k.Is('P'):
		e.visualPut(k.Rune == 'P')
	case k.Is('I'), k.Is('A'):
		e.visualInsert(k.Rune == 'A')
	case k.Is(':'):
		e.endPending()
		e.exitVisual()
		e.cur.noDot = true
		e.startCmdline(':', "'<,'>")
	default:
		return false
	}
	return true
}

// visualOperator applies op to the selection and leaves Visual mode.
func (e *Engine) visualOperator(op operator) {
	sp := e.visualSpan()
	reg, count, _ := e.endPending()
	e.saveVisual()
	e.mode = ModeNormal
	e.applyOperator(op, sp, reg, count, true)
}

// visualLinewise is X D S R C Y: whole lines, except that D and C on a block
// run to the end of each line.
func (e *Engine) visualLinewise(op operator) {
	if e.mode == ModeVisualBlock && op != opYank {
		e.view().Want = view.WantEnd
		e.visualOperator(op)
		return
	}
	e.mode = ModeVisualLine
	e.visualOperator(op)
}

func (e *Engine) visualReplace(ch rune) {
	sp := e.visualSpan()
	e.saveVisual()
	e.mode = ModeNormal
	if ch == '\r' {
		e.fail()
		return
	}
	t := e.text()
	f := func(rune) rune { return ch }
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
				en = min(sp.end.Col, n)
			}
		}
		e.mapRunes(l, s, en, f)
	}
	e.setCursor(sp.start)
}

// visualObject extends the selection with a text object.
func (e *Engine) visualObject(r rune, inner bool, count int) {
	t := e.text()
	cur := e.cursor()
	obj, ok := mo.Select(t, cur, r, inner, count)
	if !ok {
		e.fail()
		return
	}
	end := obj.End
	if !obj.Linewise {
		end = before(t, obj.End)
	}
	start := obj.Start
	if e.vis.anchor != cur {
		start, _ = textbuf.Order(e.vis.anchor, obj.Start)
	}
	e.vis.anchor = start
	if obj.Linewise && e.mode == ModeVisual {
		e.mode = ModeVisualLine
	}
	e.setCursor(end)
}

// before is the character position just ahead of the exclusive end p.
func before(t *textbuf.Buffer, p textbuf.Position) textbuf.Position {
	if p.Col > 0 {
		return textbuf.Position{Line: p.Line, Col: p.Col - 1}
	}
	if p.Line == 0 {
		return p
	}
	return textbuf.Position{Line: p.Line - 1, Col: max(t.LineLen(p.Line-1)-1, 0)}
}

func (e *Engine) visualJoin(spaces bool) {
	sp := e.visualSpan()
	e.endPending()
	e.saveVisual()
	e.mode = ModeNormal
	if !e.join(sp.start.Line, sp.end.Line-sp.start.Line+1, spaces) {
		e.fail()
	}
}

// visualPut replaces the selection with a register. P keeps the replaced
// text out of the unnamed register.
func (e *Engine) visualPut(keep bool) {
	name := e.pend.reg
	if name == 0 {
		name = register.Unnamed
	}
	_, count, _ := e.endPending()
	reg, err := e.regs.Get(name)
	if err != nil {
		e.registerError(err, name)
		return
	}
	if reg.Empty() {
		e.errorf("E353: Nothing in register %c", name)
		return
	}
	sp := e.visualSpan()
	e.saveVisual()
	e.mode = ModeNormal
	into := rune(register.Unnamed)
	if keep {
		into = register.BlackHole
	}
	t := e.text()
	whole := sp.kind == register.Linewise && sp.start.Line == 0 && sp.end.Line >= t.LineCount()-1
	if !e.deleteSpan(sp, into, false) {
		return
	}
	after := false
	switch {
	case sp.kind == register.Linewise && reg.Kind != register.Linewise:
		at := min(sp.start.Line, t.LineCount())
		if !whole {
			e.insertLines(at, []string{""})
		}
		e.setCursor(textbuf.Position{Line: min(at, t.LineCount()-1)})
	case sp.kind == register.Linewise:
		if sp.start.Line > t.LineCount()-1 {
			e.setCursor(textbuf.Position{Line: t.LineCount() - 1})
			after = true
		} else {
			e.setCursor(textbuf.Position{Line: sp.start.Line})
		}
	case reg.Kind == register.Linewise:
		after = true
	default:
		if n := t.LineLen(sp.start.Line); n > 0 && sp.start.Col >= n {
			after = true
		}
	}
	e.putContent(reg, count, after, false)
	if whole && reg.Kind == register.Linewise {
		last := t.LineCount() - 1
		e.deleteLines(last, last)
		e.firstNonBlank(0)
	}
}

// visualInsert is I and A. On a block the text goes on every line; on a
// character or line selection it is a plain insert at the start or end.
func (e *Engine) visualInsert(appendMode bool) {
	sp := e.visualSpan()
	e.endPending()
	e.saveVisual()
	mode := e.mode
	e.mode = ModeNormal
	if mode == ModeVisualBlock {
		e.startBlockInsert(sp, appendMode)
		return
	}
	if !appendMode {
		e.startInsert('i', 1)
		if mode == ModeVisualLine {
			e.setCursor(textbuf.Position{Line: sp.start.Line, Col: mo.FirstNonBlank(e.text().LineRunes(sp.start.Line))})
			return
		}
		e.setCursor(sp.start)
		return
	}
	e.startInsert('a', 1)
	t := e.text()
	if mode == ModeVisualLine {
		e.setCursor(textbuf.Position{Line: sp.end.Line, Col: t.LineLen(sp.end.Line)})
		return
	}
	end := sp.end
	if end.Col == 0 && end.Line > sp.start.Line {
		end = textbuf.Position{Line: end.Line - 1, Col: t.LineLen(end.Line - 1)}
	}
	e.setCursor(end)
}

// selection is the active selection for snapshots.
func (e *Engine) selection() view.Selection {
	if !e.mode.IsVisual() {
		return view.Selection{}
	}
	a, b := textbuf.Order(e.vis.anchor, e.cursor())
	switch e.mode {
	case ModeVisualLine:
		return view.Selection{Kind: view.SelectLine, Start: a, End: b}
	case ModeVisualBlock:
		cur := e.cursor()
		l, r := min(e.vis.anchor.Col, cur.Col), max(e.vis.anchor.Col, cur.Col)
		return view.Selection{
			Kind:  view.SelectBlock,
			Start: textbuf.Position{Line: a.Line, Col: l},
			End:   textbuf.Position{Line: b.Line, Col: r},
		}
	}
	return view.Selection{Kind: view.SelectChar, Start: a, End: b}
}
