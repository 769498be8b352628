package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kobzarvs/qvim/internal/keys"
	"github.com/kobzarvs/qvim/internal/macro"
	mo "github.com/kobzarvs/qvim/internal/motion"
	"github.com/kobzarvs/qvim/internal/register"
	"github.com/kobzarvs/qvim/internal/textbuf"
)

// normalKey handles Normal and Visual mode keys.
func (e *Engine) normalKey(k keys.Key) {
	if k.IsEscape() || k.IsCtrl('c') {
		if !e.pend.idle() {
			e.pend = pending{}
			return
		}
		if e.mode.IsVisual() {
			e.exitVisual()
		}
		return
	}
	if e.pend.prefix != prefixNone {
		p := e.pend.prefix
		e.pend.prefix = prefixNone
		e.prefixKey(p, k)
		return
	}
	if d, ok := k.Digit(); ok && (d > 0 || e.pend.counting()) {
		e.addDigit(d)
		return
	}
	if k.Is('"') {
		e.pend.prefix = prefixRegister
		if e.mode == ModeNormal {
			e.dropKey()
		}
		return
	}
	if e.pend.op != opNone {
		e.operatorPending(k)
		return
	}
	if e.mode.IsVisual() && e.visualKey(k) {
		return
	}
	if e.motionKey(k) {
		return
	}
	e.commandKey(k)
}

// operatorPending takes the key after an operator: the doubled form, a
// text object or a motion.
func (e *Engine) operatorPending(k keys.Key) {
	op := e.pend.op
	switch {
	case k.IsRune() && op.doubles(k.Rune):
		e.linewiseOp(op)
	case k.Is('i'), k.Is('a'):
		e.pend.prefix, e.pend.arg = prefixObject, k.Rune
	case e.motionKey(k):
	default:
		e.pend = pending{}
		e.fail()
	}
}

// startOperator sets op pending, or in Visual mode applies it to the
// selection at once.
func (e *Engine) startOperator(op operator) {
	if e.mode.IsVisual() {
		e.visualOperator(op)
		return
	}
	e.pend.op = op
}

// operatorCommand runs op over a motion, as x runs dl and D runs d$.
func (e *Engine) operatorCommand(op operator, m motion) {
	e.pend.op = op
	e.doMotion(m)
}

func (e *Engine) commandKey(k keys.Key) {
	reg := e.pend.reg
	if k.IsRune() {
		if op, ok := opKeys[k.Rune]; ok {
			e.startOperator(op)
			return
		}
	}
	switch {
	case k.Is('x'), k == keys.Delete:
		if e.text().LineLen(e.cursor().Line) == 0 {
			e.endPending()
			return
		}
		e.operatorCommand(opDelete, motion{kind: mRight})
	case k.Is('X'):
		e.operatorCommand(opDelete, motion{kind: mLeft})
	case k.Is('s'):
		if e.text().LineLen(e.cursor().Line) == 0 {
			e.endPending()
			e.startInsert('s', 1)
			return
		}
		e.operatorCommand(opChange, motion{kind: mRight})
	case k.Is('S'):
		e.pend.op = opChange
		e.linewiseOp(opChange)
	case k.Is('C'):
		e.operatorCommand(opChange, motion{kind: mLineEnd})
	case k.Is('D'):
		e.operatorCommand(opDelete, motion{kind: mLineEnd})
	case k.Is('Y'):
		e.pend.op = opYank
		e.linewiseOp(opYank)
	case k.Is('r'):
		e.pend.prefix = prefixReplace
	case k.Is('~'):
		_, count, _ := e.endPending()
		e.tilde(count)
	case k.Is('J'):
		_, count, _ := e.endPending()
		if !e.join(e.cursor().Line, count, true) {
			e.fail()
		}
	case k.Is('p'), k.Is('P'):
		_, count, _ := e.endPending()
		e.put(reg, count, k.Rune == 'p', false)
	case k.Is('u'):
		_, count, _ := e.endPending()
		e.undo(count)
	case k.IsCtrl('r'):
		_, count, _ := e.endPending()
		e.redo(count)
	case k.Is('U'):
		e.endPending()
		e.undoLine()
	case k.Is('.'):
		e.repeatLast()
	case k.Is('i'), k.Is('a'), k.Is('I'), k.Is('A'), k.Is('o'), k.Is('O'), k.Is('R'):
		e.insertCommand(k.Rune)
	case k.Is('v'):
		e.endPending()
		e.enterVisual(ModeVisual)
	case k.Is('V'):
		e.endPending()
		e.enterVisual(ModeVisualLine)
	case k.IsCtrl('v'):
		e.endPending()
		e.enterVisual(ModeVisualBlock)
	case k.Is(':'):
		_, count, has := e.endPending()
		e.cur.noDot = true
		e.startCommandLine(count, has)
	case k.Is('m'):
		e.pend.prefix = prefixMark
	case k.Is('q'):
		if _, on := e.rec.Recording(); on {
			e.endPending()
			e.stopRecording()
			return
		}
		e.pend.prefix = prefixRecord
	case k.Is('@'):
		e.pend.prefix = prefixPlay
	case k.IsCtrl('a'), k.IsCtrl('x'):
		_, count, _ := e.endPending()
		if k.IsCtrl('x') {
			count = -count
		}
		e.increment(count)
	case k.Is('z'):
		e.pend.prefix = prefixZ
	case k.Is('Z'):
		e.pend.prefix = prefixBigZ
	case k.IsCtrl('w'):
		e.pend.prefix = prefixWindow
	case k.IsCtrl('e'), k.IsCtrl('y'), k.IsCtrl('d'), k.IsCtrl('u'), k.IsCtrl('f'), k.IsCtrl('b'),
		k == keys.PageDown, k == keys.PageUp:
		_, count, has := e.endPending()
		e.scroll(k, count, has)
	case k.IsCtrl('g'):
		e.endPending()
		e.fileInfo()
	case k.Is('&'):
		e.endPending()
		e.execEx("s")
	case k.IsCtrl('l'):
		e.endPending()
	default:
		e.pend = pending{}
		e.fail()
	}
}

func (e *Engine) prefixKey(p prefix, k keys.Key) {
	switch p {
	case prefixRegister:
		if !k.IsRune() || !register.Valid(k.Rune) {
			e.pend = pending{}
			if k.IsRune() {
				e.errorf("E354: Invalid register name: '%c'", k.Rune)
			} else {
				e.fail()
			}
			return
		}
		e.pend.reg = k.Rune
		if e.mode == ModeNormal {
			e.dropKey()
		}
	case prefixFind:
		ch, ok := charOf(k)
		if !ok {
			e.pend = pending{}
			return
		}
		e.doMotion(motion{kind: mFind, arg: ch, sub: e.pend.arg})
	case prefixJump:
		if !k.IsRune() {
			e.pend = pending{}
			return
		}
		e.doMotion(motion{kind: mMark, arg: k.Rune, sub: e.pend.arg})
	case prefixObject:
		e.textObject(k)
	case prefixReplace:
		ch, ok := charOf(k)
		if !ok {
			e.pend = pending{}
			return
		}
		if e.mode.IsVisual() {
			e.endPending()
			e.visualReplace(ch)
			return
		}
		_, count, _ := e.endPending()
		e.replaceChars(ch, count)
	case prefixMark:
		e.endPending()
		if !k.IsRune() || !e.setMark(k.Rune) {
			e.errorf("E191: Argument must be a letter or forward/backward quote")
		}
	case prefixRecord:
		e.endPending()
		e.cur.noDot = true
		if !k.IsRune() {
			return
		}
		e.startRecording(k.Rune)
	case prefixPlay:
		_, count, _ := e.endPending()
		e.cur.noDot = true
		if !k.IsRune() {
			return
		}
		e.playRegister(k.Rune, count)
	case prefixG:
		e.gKey(k)
	case prefixZ:
		e.zKey(k)
	case prefixBigZ:
		e.endPending()
		switch {
		case k.Is('Z'):
			e.execEx("x")
		case k.Is('Q'):
			e.execEx("q!")
		}
	case prefixOpenBracket, prefixCloseBracket:
		e.bracketKey(p == prefixOpenBracket, k)
	case prefixWindow:
		e.windowKey(k)
	}
}

// textObject resolves the key after i or a.
func (e *Engine) textObject(k keys.Key) {
	inner := e.pend.arg == 'i'
	if !k.IsRune() {
		e.pend = pending{}
		return
	}
	if e.mode.IsVisual() {
		_, count, _ := e.endPending()
		e.visualObject(k.Rune, inner, count)
		return
	}
	op := e.pend.op
	reg, count, _ := e.endPending()
	obj, ok := mo.Select(e.text(), e.cursor(), k.Rune, inner, count)
	if !ok {
		e.fail()
		return
	}
	sp := span{start: obj.Start, end: obj.End, kind: register.Charwise}
	if obj.Linewise {
		sp = span{start: textbuf.Position{Line: obj.Start.Line}, end: textbuf.Position{Line: obj.End.Line}, kind: register.Linewise}
	}
	e.applyOperator(op, sp, reg, count, false)
}

func (e *Engine) gKey(k keys.Key) {
	count, has := e.pend.n(), e.pend.total() > 0
	if k.IsRune() {
		if op, ok := gOpKeys[k.Rune]; ok {
			switch {
			case e.pend.op == op:
				e.linewiseOp(op)
			case e.pend.op != opNone:
				e.pend = pending{}
				e.fail()
			default:
				e.startOperator(op)
			}
			return
		}
	}
	switch {
	case k.Is('g'):
		e.doMotion(motion{kind: mGotoFirst})
	case k.Is('e'), k.Is('E'):
		e.doMotion(motion{kind: mWordEndBackward, big: k.Rune == 'E'})
	case k.Is('_'):
		e.doMotion(motion{kind: mLastNonBlank})
	case k.Is('j'), k == keys.Down:
		e.doMotion(motion{kind: mDown})
	case k.Is('k'), k == keys.Up:
		e.doMotion(motion{kind: mUp})
	case k.Is('0'), k == keys.Home:
		e.doMotion(motion{kind: mLineStart})
	case k.Is('$'), k == keys.End:
		e.doMotion(motion{kind: mLineEnd})
	case k.Is('*'), k.Is('#'):
		e.doMotion(motion{kind: mStar, forward: k.Rune == '*'})
	case e.pend.op != opNone:
		e.pend = pending{}
		e.fail()
	case k.Is('J'):
		if e.mode.IsVisual() {
			e.visualJoin(false)
			return
		}
		e.endPending()
		if !e.join(e.cursor().Line, count, false) {
			e.fail()
		}
	case k.Is('v'):
		e.endPending()
		e.reselect()
	case k.Is('i'):
		e.endPending()
		e.insertCommand('g')
	case k.Is('I'):
		e.endPending()
		e.insertCommand('0')
	case k.Is('p'), k.Is('P'):
		reg, count, _ := e.endPending()
		e.put(reg, count, k.Rune == 'p', true)
	case k.Is('t'):
		e.endPending()
		e.cur.noDot = true
		if has {
			if err := e.tabs.SetActive(count - 1); err != nil {
				e.fail()
			}
			return
		}
		e.tabs.Next(1)
	case k.Is('T'):
		e.endPending()
		e.tabs.Prev(count)
	case k.Is('f'):
		e.endPending()
		e.gotoFile(false)
	case k.Is('F'):
		e.endPending()
		e.gotoFile(true)
	case k.Is('a'):
		e.endPending()
		e.charInfo()
	case k.Is('&'):
		e.endPending()
		e.execEx("%s//~/&")
	default:
		e.pend = pending{}
		e.fail()
	}
}

func (e *Engine) zKey(k keys.Key) {
	if k.Is('f') {
		if e.pend.op != opNone {
			e.pend = pending{}
			e.fail()
			return
		}
		e.startOperator(opFold)
		return
	}
	count, has := e.pend.n(), e.pend.total() > 0
	e.endPending()
	v := e.view()
	line := e.cursor().Line
	if has && (k.Is('t') || k.IsEnter() || k.Is('z') || k.Is('.') || k.Is('b') || k.Is('-')) {
		line = min(count-1, e.text().LineCount()-1)
		e.moveToLine(line)
	}
	switch {
	case k.Is('t'), k.IsEnter():
		v.Top = v.VisibleStart(line)
		if k.IsEnter() {
			e.firstNonBlank(line)
		}
	case k.Is('z'), k.Is('.'):
		e.scrollTo(line, 2)
		if k.Is('.') {
			e.firstNonBlank(line)
		}
	case k.Is('b'), k.Is('-'):
		e.scrollTo(line, 1)
		if k.Is('-') {
			e.firstNonBlank(line)
		}
	case k.Is('o'):
		v.OpenFold(line)
	case k.Is('O'):
		for v.OpenFold(line) {
		}
	case k.Is('c'):
		v.CloseFold(line)
	case k.Is('C'):
		for v.CloseFold(line) {
		}
	case k.Is('a'), k.Is('A'):
		v.ToggleFold(line)
	case k.Is('d'):
		v.DeleteFold(line)
	case k.Is('D'):
		for v.DeleteFold(line) {
		}
	case k.Is('E'):
		v.EraseAll()
	case k.Is('R'):
		v.OpenAll()
	case k.Is('M'):
		v.CloseAll()
	case k.Is('F'):
		end := min(line+count-1, e.text().LineCount()-1)
		v.CreateFold(line, end)
	case k.Is('h'), k == keys.Left:
		v.Left = max(v.Left-count, 0)
	case k.Is('l'), k == keys.Right:
		v.Left += count
	default:
		e.fail()
	}
}

// scrollTo places line in the middle (where 2) or at the bottom (where 1)
// of the window.
func (e *Engine) scrollTo(line, where int) {
	v := e.view()
	h := max(e.Geometry()[e.win()].H-1, 1)
	back := h - 1
	if where == 2 {
		back = (h - 1) / 2
	}
	top := v.VisibleStart(line)
	for i := 0; i < back; i++ {
		prev := v.PrevVisible(top)
		if prev < 0 {
			break
		}
		top = prev
	}
	v.Top = top
}

func (e *Engine) bracketKey(open bool, k keys.Key) {
	switch {
	case open && (k.Is('(') || k.Is('{')), !open && (k.Is(')') || k.Is('}')):
		e.doMotion(motion{kind: mUnmatched, arg: k.Rune})
	case k.Is('['):
		e.doMotion(motion{kind: mSection, forward: !open, arg: sectionBrace(open, true)})
	case k.Is(']'):
		e.doMotion(motion{kind: mSection, forward: !open, arg: sectionBrace(open, false)})
	default:
		e.pend = pending{}
		e.fail()
	}
}

// sectionBrace picks the brace a section motion looks for: [[ and ]] stop
// at '{', [] and ][ at '}'.
func sectionBrace(open, second bool) rune {
	if open == second {
		return '{'
	}
	return '}'
}

func (e *Engine) scroll(k keys.Key, count int, has bool) {
	v := e.view()
	t := e.text()
	h := max(e.Geometry()[e.win()].H-1, 1)
	last := t.LineCount() - 1
	cur := e.cursor()
	switch {
	case k.IsCtrl('e'):
		v.Top = min(v.Top+count, last)
		if cur.Line < v.Top {
			e.moveToLine(v.Top)
		}
	case k.IsCtrl('y'):
		v.Top = max(v.Top-count, 0)
		if cur.Line > v.Top+h-1 {
			e.moveToLine(v.Top + h - 1)
		}
	case k.IsCtrl('d'), k.IsCtrl('u'):
		n := max(h/2, 1)
		if has {
			n = count
		}
		if k.IsCtrl('d') {
			if cur.Line == last {
				e.fail()
				return
			}
			v.Top = min(v.Top+n, last)
			e.firstNonBlank(min(cur.Line+n, last))
		} else {
			if cur.Line == 0 {
				e.fail()
				return
			}
			v.Top = max(v.Top-n, 0)
			e.firstNonBlank(max(cur.Line-n, 0))
		}
	case k.IsCtrl('f'), k == keys.PageDown:
		if v.Top >= last {
			e.fail()
			return
		}
		v.Top = min(v.Top+max(h-2, 1)*count, last)
		e.firstNonBlank(v.Top)
	case k.IsCtrl('b'), k == keys.PageUp:
		if v.Top == 0 {
			e.fail()
			return
		}
		v.Top = max(v.Top-max(h-2, 1)*count, 0)
		e.firstNonBlank(min(v.Top+h-1, last))
	}
}

func (e *Engine) fileInfo() {
	st := e.buf()
	n := st.Text.LineCount()
	line := e.cursor().Line + 1
	mod := ""
	if st.Dirty() {
		mod = " [Modified]"
	}
	e.message("%q%s %s --%d%%--", st.Name(), mod, plural(n, "line"), line*100/n)
}

func (e *Engine) charInfo() {
	r, ok := e.text().RuneAt(e.cursor())
	if !ok {
		e.message("NUL")
		return
	}
	e.message("<%c> %d, Hex %02x, Oct %03o", r, r, r, r)
}

// gotoFile is gf and gF on the file name under the cursor. gF also reads a
// :line[:col] suffix.
func (e *Engine) gotoFile(withLine bool) {
	runes := e.text().LineRunes(e.cursor().Line)
	col := e.cursor().Col
	isName := func(r rune) bool {
		return r != ' ' && r != '\t' && !strings.ContainsRune(`"'<>()[]{},;`, r)
	}
	if col >= len(runes) || !isName(runes[col]) {
		e.errorf("E446: No file name under cursor")
		return
	}
	s, en := col, col
	for s > 0 && isName(runes[s-1]) {
		s--
	}
	for en < len(runes) && isName(runes[en]) {
		en++
	}
	name := string(runes[s:en])
	line, c := 0, 0
	if parts := strings.Split(name, ":"); len(parts) > 1 && withLine {
		name = parts[0]
		fmt.Sscanf(parts[1], "%d", &line)
		if len(parts) > 2 {
			fmt.Sscanf(parts[2], "%d", &c)
		}
	} else {
		name = strings.TrimSuffix(name, ":")
	}
	if withLine {
		e.emit(JumpExternal{Path: name, Line: line, Col: c})
		return
	}
	e.editFile(name)
}

// startRecording is q{reg}.
func (e *Engine) startRecording(name rune) {
	if err := e.rec.Start(name); err != nil {
		e.fail()
		return
	}
	e.message("recording @%c", name)
}

func (e *Engine) stopRecording() {
	name, ks := e.rec.Stop()
	e.cur.noDot = true
	if name == 0 {
		return
	}
	text := keys.Format(ks)
	if err := e.regs.Set(name, register.Register{Text: text}); err != nil {
		e.registerError(err, name)
		return
	}
	e.msg = ""
}

// playRegister is @{reg}: the register is parsed as key notation and queued
// count times through the normal dispatch path.
func (e *Engine) playRegister(name rune, count int) {
	switch name {
	case '@':
		name = e.rec.LastPlayed()
		if name == 0 {
			e.errorf("E748: No previously used register")
			return
		}
	case ':':
		if e.lastEx == "" {
			e.errorf("E30: No previous command line")
			return
		}
		e.rec.SetLastPlayed(':')
		for i := 0; i < count; i++ {
			e.execEx(e.lastEx)
		}
		return
	}
	if !macro.IsValidRegister(name) && name != register.Clip && name != register.Selection && name != register.LastInsert {
		e.errorf("E354: Invalid register name: '%c'", name)
		return
	}
	if err := e.rec.Guard(name); err != nil {
		e.errorf("E748: Register %c is being recorded", name)
		return
	}
	reg, err := e.regs.Get(name)
	if err != nil {
		e.registerError(err, name)
		return
	}
	e.rec.SetLastPlayed(name)
	ks := keys.Parse(strings.ReplaceAll(reg.Text, "\n", "<CR>"))
	switch err := e.queue.Push(ks, count, e.depth+1); {
	case errors.Is(err, macro.ErrTooDeep):
		e.errorf("E169: Command too recursive")
	case errors.Is(err, macro.ErrTooMany):
		e.message("macro replay truncated after %d keys", e.queue.MaxKeys)
	}
}

// repeatLast is the dot command. A count replaces the recorded one, and a
// numbered register steps to the next one as in "1p... .
func (e *Engine) repeatLast() {
	_, count, has := e.endPending()
	e.cur.noDot = true
	d := e.dot
	if len(d.keys) == 0 {
		e.fail()
		return
	}
	var ks []keys.Key
	if d.reg != 0 {
		reg := d.reg
		if reg >= '1' && reg < '9' {
			reg++
		}
		ks = append(ks, keys.Rune('"'), keys.Rune(reg))
	}
	n := d.count
	if has {
		n = count
	}
	if n > 0 {
		ks = append(ks, countDigits(n)...)
	}
	ks = append(ks, d.keys...)
	outer := e.cur
	for _, k := range ks {
		e.step(k)
		if e.failed {
			break
		}
	}
	if e.mode != ModeNormal {
		e.step(keys.Esc)
	}
	e.cur = outer
}
