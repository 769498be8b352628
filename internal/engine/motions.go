package engine

import (
	"github.com/kobzarvs/qvim/internal/buffers"
	"github.com/kobzarvs/qvim/internal/keys"
	mo "github.com/kobzarvs/qvim/internal/motion"
	"github.com/kobzarvs/qvim/internal/register"
	"github.com/kobzarvs/qvim/internal/textbuf"
	"github.com/kobzarvs/qvim/internal/view"
)

type motionKind uint8

const (
	mLeft motionKind = iota + 1
	mRight
	mDown
	mUp
	mLineStart
	mFirstNonBlank
	mLineEnd
	mWordForward
	mWordBackward
	mWordEnd
	mWordEndBackward
	mParagraphForward
	mParagraphBackward
	mSentenceForward
	mSentenceBackward
	mFind
	mFindRepeat
	mFindReverse
	mGotoLine
	mGotoFirst
	mPercent
	mUnmatched
	mSection
	mMark
	mSearchNext
	mSearchPrev
	mStar
	mScreenTop
	mScreenMiddle
	mScreenBottom
	mDownFirst
	mUpFirst
	mCurrentLine
	mColumn
	mLastNonBlank
)

type motion struct {
	kind motionKind
	big  bool
	// arg is the searched character, mark name or bracket.
	arg rune
	// sub is the f/F/t/T key, or ` versus ' for marks.
	sub     rune
	forward bool
	whole   bool
}

// target is where a motion lands and how an operator treats the text up
// to it.
type target struct {
	pos       textbuf.Position
	linewise  bool
	inclusive bool
	// vertical motions keep the desired column.
	vertical bool
	toEnd    bool
	jump     bool
	// buffer is set when a file mark points into another buffer.
	buffer buffers.ID
}

type findState struct {
	ch      rune
	forward bool
	till    bool
	set     bool
}

// simpleMotion maps the single-key motions.
func simpleMotion(k keys.Key) (motion, bool) {
	switch {
	case k.Is('h'), k == keys.Left, k.IsBackspace():
		return motion{kind: mLeft}, true
	case k.Is('l'), k == keys.Right, k.Is(' '):
		return motion{kind: mRight}, true
	case k.Is('j'), k == keys.Down, k.IsCtrl('j'), k.IsCtrl('n'):
		return motion{kind: mDown}, true
	case k.Is('k'), k == keys.Up, k.IsCtrl('p'):
		return motion{kind: mUp}, true
	case k.Is('0'), k == keys.Home:
		return motion{kind: mLineStart}, true
	case k.Is('^'):
		return motion{kind: mFirstNonBlank}, true
	case k.Is('$'), k == keys.End:
		return motion{kind: mLineEnd}, true
	case k.Is('w'), k.Is('W'):
		return motion{kind: mWordForward, big: k.Rune == 'W'}, true
	case k.Is('b'), k.Is('B'):
		return motion{kind: mWordBackward, big: k.Rune == 'B'}, true
	case k.Is('e'), k.Is('E'):
		return motion{kind: mWordEnd, big: k.Rune == 'E'}, true
	case k.Is('}'):
		return motion{kind: mParagraphForward}, true
	case k.Is('{'):
		return motion{kind: mParagraphBackward}, true
	case k.Is(')'):
		return motion{kind: mSentenceForward}, true
	case k.Is('('):
		return motion{kind: mSentenceBackward}, true
	case k.Is('G'):
		return motion{kind: mGotoLine}, true
	case k.Is('%'):
		return motion{kind: mPercent}, true
	case k.Is(';'):
		return motion{kind: mFindRepeat}, true
	case k.Is(','):
		return motion{kind: mFindReverse}, true
	case k.Is('n'):
		return motion{kind: mSearchNext}, true
	case k.Is('N'):
		return motion{kind: mSearchPrev}, true
	case k.Is('*'), k.Is('#'):
		return motion{kind: mStar, forward: k.Rune == '*', whole: true}, true
	case k.Is('H'):
		return motion{kind: mScreenTop}, true
	case k.Is('M'):
		return motion{kind: mScreenMiddle}, true
	case k.Is('L'):
		return motion{kind: mScreenBottom}, true
	case k.Is('+'), k.IsEnter():
		return motion{kind: mDownFirst}, true
	case k.Is('-'):
		return motion{kind: mUpFirst}, true
	case k.Is('_'):
		return motion{kind: mCurrentLine}, true
	case k.Is('|'):
		return motion{kind: mColumn}, true
	}
	return motion{}, false
}

// motionKey handles a key that is, or starts, a motion.
func (e *Engine) motionKey(k keys.Key) bool {
	if m, ok := simpleMotion(k); ok {
		e.doMotion(m)
		return true
	}
	switch {
	case k.Is('f'), k.Is('F'), k.Is('t'), k.Is('T'):
		e.pend.prefix, e.pend.arg = prefixFind, k.Rune
	case k.Is('`'), k.Is('\''):
		e.pend.prefix, e.pend.arg = prefixJump, k.Rune
	case k.Is('g'):
		e.pend.prefix = prefixG
	case k.Is('['):
		e.pend.prefix = prefixOpenBracket
	case k.Is(']'):
		e.pend.prefix = prefixCloseBracket
	case k.Is('/'), k.Is('?'):
		e.startSearch(k.Rune == '/')
	default:
		return false
	}
	return true
}

// doMotion resolves m against the pending count and moves the cursor,
// extends the selection or runs the pending operator.
func (e *Engine) doMotion(m motion) {
	tg, ok := e.resolve(m, e.pend.n(), e.pend.total() > 0, e.pend.op)
	e.applyTarget(tg, ok)
}

func (e *Engine) applyTarget(tg target, ok bool) {
	if op := e.pend.op; op != opNone {
		reg, count, _ := e.endPending()
		if !ok || (tg.buffer != 0 && tg.buffer != e.view().Buffer) {
			e.fail()
			return
		}
		e.applyOperator(op, e.spanTo(tg), reg, count, false)
		return
	}
	e.endPending()
	if !ok {
		e.fail()
		return
	}
	e.moveTo(tg)
}

func (e *Engine) moveTo(tg target) {
	if tg.buffer != 0 && tg.buffer != e.view().Buffer {
		e.setPCMark()
		e.showBuffer(tg.buffer)
	} else if tg.jump {
		e.setPCMark()
	}
	v := e.view()
	if tg.vertical {
		e.moveToLine(tg.pos.Line)
	} else {
		e.setCursor(tg.pos)
	}
	if tg.toEnd {
		v.Want = view.WantEnd
	}
}

func (e *Engine) setPCMark() {
	e.buf().Marks['\''] = e.cursor()
}

func (e *Engine) resolve(m motion, count int, has bool, op operator) (target, bool) {
	t := e.text()
	p := e.cursor()
	opPending := op != opNone
	switch m.kind {
	case mLeft:
		q, ok := mo.Left(p, count)
		return target{pos: q}, ok
	case mRight:
		q, ok := mo.Right(t, p, count, opPending || e.insertLike())
		return target{pos: q}, ok
	case mDown:
		line, ok := e.linesDown(p.Line, count)
		return target{pos: textbuf.Position{Line: line, Col: p.Col}, linewise: true, vertical: true}, ok
	case mUp:
		line, ok := e.linesUp(p.Line, count)
		return target{pos: textbuf.Position{Line: line, Col: p.Col}, linewise: true, vertical: true}, ok
	case mLineStart:
		return target{pos: textbuf.Position{Line: p.Line}}, true
	case mFirstNonBlank:
		return target{pos: textbuf.Position{Line: p.Line, Col: mo.FirstNonBlank(t.LineRunes(p.Line))}}, true
	case mLineEnd:
		q, ok := mo.LineEnd(t, p, count)
		return target{pos: q, inclusive: true, toEnd: true}, ok
	case mWordForward:
		if op == opChange && !blankAt(t, p) {
			q, ok := mo.WordEnd(t, p, count, m.big, true)
			if !ok {
				q, ok = p, true
			}
			return target{pos: q, inclusive: true}, ok
		}
		q, ok := mo.WordForward(t, p, count, m.big, opPending)
		return target{pos: q}, ok
	case mWordBackward:
		q, ok := mo.WordBackward(t, p, count, m.big)
		return target{pos: q}, ok
	case mWordEnd:
		q, ok := mo.WordEnd(t, p, count, m.big, false)
		return target{pos: q, inclusive: true}, ok
	case mWordEndBackward:
		q, ok := mo.WordEndBackward(t, p, count, m.big)
		return target{pos: q, inclusive: true}, ok
	case mParagraphForward:
		q, ok := mo.ParagraphForward(t, p, count)
		return target{pos: q, jump: true}, ok
	case mParagraphBackward:
		q, ok := mo.ParagraphBackward(t, p, count)
		return target{pos: q, jump: true}, ok
	case mSentenceForward:
		q, ok := mo.SentenceForward(t, p, count)
		return target{pos: q, jump: true}, ok
	case mSentenceBackward:
		q, ok := mo.SentenceBackward(t, p, count)
		return target{pos: q, jump: true}, ok
	case mFind:
		forward := m.sub == 'f' || m.sub == 't'
		till := m.sub == 't' || m.sub == 'T'
		e.find = findState{ch: m.arg, forward: forward, till: till, set: true}
		col, ok := mo.FindChar(t.LineRunes(p.Line), p.Col, m.arg, forward, till, false, count)
		return target{pos: textbuf.Position{Line: p.Line, Col: col}, inclusive: forward}, ok
	case mFindRepeat, mFindReverse:
		if !e.find.set {
			return target{}, false
		}
		forward := e.find.forward == (m.kind == mFindRepeat)
		col, ok := mo.FindChar(t.LineRunes(p.Line), p.Col, e.find.ch, forward, e.find.till, true, count)
		return target{pos: textbuf.Position{Line: p.Line, Col: col}, inclusive: forward}, ok
	case mGotoLine, mGotoFirst:
		line := 0
		if m.kind == mGotoLine {
			line = t.LineCount() - 1
		}
		if has {
			line = min(count-1, t.LineCount()-1)
		}
		return e.lineTarget(line, true), true
	case mPercent:
		if has {
			if count > 100 {
				return target{}, false
			}
			line := (count*t.LineCount()+99)/100 - 1
			return e.lineTarget(line, true), true
		}
		q, ok := mo.MatchBracket(t, p)
		return target{pos: q, inclusive: true, jump: true}, ok
	case mUnmatched:
		q, ok := mo.Unmatched(t, p, m.arg, count)
		return target{pos: q, jump: true}, ok
	case mSection:
		q, ok := mo.Section(t, p, m.forward, m.arg, count)
		return target{pos: q, jump: true}, ok
	case mMark:
		return e.markTarget(m.arg, m.sub == '`')
	case mSearchNext, mSearchPrev:
		return e.searchTarget(m.kind == mSearchNext, count)
	case mStar:
		return e.starTarget(m.forward, m.whole, count)
	case mScreenTop, mScreenMiddle, mScreenBottom:
		return e.screenTarget(m.kind, count)
	case mDownFirst:
		line, ok := mo.Down(t, p.Line, count)
		return e.lineTarget(line, false), ok
	case mUpFirst:
		line, ok := mo.Up(p.Line, count)
		return e.lineTarget(line, false), ok
	case mCurrentLine:
		line := p.Line + count - 1
		if line >= t.LineCount() {
			return target{}, false
		}
		return e.lineTarget(line, false), true
	case mColumn:
		runes := t.LineRunes(p.Line)
		col := view.ColumnForDisplay(runes, count-1, e.tabWidth())
		return target{pos: textbuf.Position{Line: p.Line, Col: min(col, max(len(runes)-1, 0))}}, true
	case mLastNonBlank:
		line := p.Line + count - 1
		if line >= t.LineCount() {
			return target{}, false
		}
		return target{pos: textbuf.Position{Line: line, Col: mo.LastNonBlank(t.LineRunes(line))}, inclusive: true}, true
	}
	return target{}, false
}

// lineTarget is a linewise target on the first non-blank of line.
func (e *Engine) lineTarget(line int, jump bool) target {
	t := e.text()
	line = min(max(line, 0), t.LineCount()-1)
	return target{
		pos:      textbuf.Position{Line: line, Col: mo.FirstNonBlank(t.LineRunes(line))},
		linewise: true,
		jump:     jump,
	}
}

func blankAt(t *textbuf.Buffer, p textbuf.Position) bool {
	r, ok := t.RuneAt(p)
	return !ok || r == ' ' || r == '\t'
}

// linesDown moves over closed folds as single lines.
func (e *Engine) linesDown(line, count int) (int, bool) {
	v, n := e.view(), e.text().LineCount()
	start := line
	for i := 0; i < count; i++ {
		next := v.NextVisible(line, n)
		if next < 0 {
			break
		}
		line = next
	}
	return line, line != start
}

func (e *Engine) linesUp(line, count int) (int, bool) {
	v := e.view()
	start := v.VisibleStart(line)
	line = start
	for i := 0; i < count; i++ {
		prev := v.PrevVisible(line)
		if prev < 0 {
			break
		}
		line = prev
	}
	return line, line != start
}

// markTarget resolves ` and ' jumps.
func (e *Engine) markTarget(name rune, exact bool) (target, bool) {
	id, pos, ok := e.markPos(name)
	if !ok {
		return target{}, false
	}
	st, _ := e.bufs.Get(id)
	pos = st.Text.Clamp(pos)
	tg := target{pos: pos, jump: true}
	if id != e.view().Buffer {
		tg.buffer = id
	}
	if !exact {
		tg.linewise = true
		tg.pos.Col = mo.FirstNonBlank(st.Text.LineRunes(pos.Line))
	}
	return tg, true
}

// markPos looks a mark up. It reports errors itself.
func (e *Engine) markPos(name rune) (buffers.ID, textbuf.Position, bool) {
	st := e.buf()
	switch {
	case name >= 'A' && name <= 'Z':
		gm, ok := e.marks[name]
		if _, live := e.bufs.Get(gm.buffer); !ok || !live {
			e.errorf("E20: Mark not set")
			return 0, textbuf.Position{}, false
		}
		return gm.buffer, gm.pos, true
	case name == '`' || name == '\'':
		return st.ID, st.Marks['\''], true
	case name >= 'a' && name <= 'z', isSpecialMark(name):
		p, ok := st.Marks[name]
		if !ok {
			e.errorf("E20: Mark not set")
			return 0, textbuf.Position{}, false
		}
		return st.ID, p, true
	}
	e.errorf("E78: Unknown mark")
	return 0, textbuf.Position{}, false
}

func isSpecialMark(name rune) bool {
	switch name {
	case '"', '.', '^', '[', ']', '<', '>':
		return true
	}
	return false
}

func (e *Engine) setMark(name rune) bool {
	st := e.buf()
	p := e.cursor()
	switch {
	case name >= 'a' && name <= 'z':
		st.Marks[name] = p
	case name >= 'A' && name <= 'Z':
		e.marks[name] = globalMark{buffer: st.ID, pos: p}
	case name == '`' || name == '\'':
		st.Marks['\''] = p
	case name == '[' || name == ']' || name == '<' || name == '>':
		st.Marks[name] = p
	default:
		return false
	}
	return true
}

func (e *Engine) screenTarget(kind motionKind, count int) (target, bool) {
	r := e.Geometry()[e.win()]
	rows := e.view().Rows(e.text(), max(r.H-1, 1))
	if len(rows) == 0 {
		return target{}, false
	}
	var idx int
	switch kind {
	case mScreenTop:
		idx = min(count-1, len(rows)-1)
	case mScreenBottom:
		idx = max(len(rows)-count, 0)
	default:
		idx = (len(rows) - 1) / 2
	}
	return e.lineTarget(rows[idx].Line, true), true
}

// span is the text an operator works on. Charwise spans are [start, end);
// linewise spans cover start.Line..end.Line; block spans cover rune columns
// start.Col..end.Col inclusive on every line, or up to the line end with
// toEnd.
type span struct {
	start textbuf.Position
	end   textbuf.Position
	kind  register.Kind
	toEnd bool
}

func (s span) lines() int {
	return s.end.Line - s.start.Line + 1
}

// spanTo builds the operator span from the cursor to tg, turning an
// exclusive motion that ends in column 0 into an inclusive or linewise one.
func (e *Engine) spanTo(tg target) span {
	t := e.text()
	c := e.cursor()
	if tg.linewise {
		a, b := c.Line, tg.pos.Line
		if a > b {
			a, b = b, a
		}
		a, b = e.foldLines(a, b)
		return span{start: textbuf.Position{Line: a}, end: textbuf.Position{Line: b}, kind: register.Linewise}
	}
	a, b := textbuf.Order(c, tg.pos)
	switch {
	case tg.inclusive:
		b.Col = min(b.Col+1, t.LineLen(b.Line))
	case b.Line > a.Line && b.Col == 0:
		if a.Col <= mo.FirstNonBlank(t.LineRunes(a.Line)) {
			return span{start: textbuf.Position{Line: a.Line}, end: textbuf.Position{Line: b.Line - 1}, kind: register.Linewise}
		}
		b = textbuf.Position{Line: b.Line - 1, Col: t.LineLen(b.Line - 1)}
	}
	return span{start: a, end: b, kind: register.Charwise}
}

// foldLines widens a line range to cover the closed folds at its ends.
func (e *Engine) foldLines(a, b int) (int, int) {
	v := e.view()
	if f, ok := v.ClosedFoldAt(a); ok {
		a = f.Start
	}
	if f, ok := v.ClosedFoldAt(b); ok {
		b = f.End
	}
	return a, b
}
