// Package motion computes cursor targets and text-object ranges. Nothing in
// here mutates a buffer.
package motion

import (
	"unicode"

	"github.com/kobzarvs/qvim/internal/textbuf"
)

// Text is the read side of a buffer.
type Text interface {
	LineCount() int
	LineRunes(i int) []rune
}

type Pos = textbuf.Position

// Character classes used by word motions.
const (
	blank = iota
	punct
	word
)

func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isBlank(r rune) bool {
	return r == ' ' || r == '\t' || r == 0
}

func class(r rune, big bool) int {
	switch {
	case isBlank(r) || unicode.IsSpace(r):
		return blank
	case big:
		return punct
	case IsWordRune(r):
		return word
	default:
		return punct
	}
}

// walker steps over a buffer one rune at a time. Every line has one extra
// position past its last rune standing for the line break.
type walker struct {
	t   Text
	p   Pos
	big bool
}

func (w *walker) char() rune {
	line := w.t.LineRunes(w.p.Line)
	if w.p.Col < len(line) {
		return line[w.p.Col]
	}
	return 0
}

func (w *walker) cls() int {
	return class(w.char(), w.big)
}

func (w *walker) onEmptyLine() bool {
	return w.p.Col == 0 && len(w.t.LineRunes(w.p.Line)) == 0
}

// inc returns 0 for a step inside the line, 2 for a step onto the line
// break, 1 for a step onto the next line and -1 at the end of the buffer.
func (w *walker) inc() int {
	n := len(w.t.LineRunes(w.p.Line))
	if w.p.Col < n {
		w.p.Col++
		if w.p.Col == n {
			return 2
		}
		return 0
	}
	if w.p.Line+1 < w.t.LineCount() {
		w.p.Line++
		w.p.Col = 0
		return 1
	}
	return -1
}

// dec mirrors inc. Stepping back onto the previous line lands on its
// line break and returns 1.
func (w *walker) dec() int {
	if w.p.Col > 0 {
		w.p.Col--
		return 0
	}
	if w.p.Line > 0 {
		w.p.Line--
		w.p.Col = len(w.t.LineRunes(w.p.Line))
		return 1
	}
	return -1
}

// skip moves while the class stays c. It reports hitting a buffer edge.
func (w *walker) skip(c int, forward bool) bool {
	for w.cls() == c {
		var r int
		if forward {
			r = w.inc()
		} else {
			r = w.dec()
		}
		if r == -1 {
			return true
		}
	}
	return false
}

// WordForward is w / W. With stopAtEOL the last step does not cross a line
// break, which is how an operator sees w.
func WordForward(t Text, p Pos, count int, big, stopAtEOL bool) (Pos, bool) {
	w := &walker{t: t, p: p, big: big}
	for count = max(count, 1); count > 0; count-- {
		last := count == 1
		sclass := w.cls()
		lastLine := w.p.Line == t.LineCount()-1
		i := w.inc()
		if i == -1 || (i >= 1 && lastLine) {
			return w.p, w.p != p
		}
		if i >= 1 && stopAtEOL && last {
			return w.p, true
		}
		done := false
		if sclass != blank {
			for w.cls() == sclass {
				i = w.inc()
				if i == -1 || (i >= 1 && stopAtEOL && last) {
					done = true
					break
				}
			}
		}
		for !done && w.cls() == blank {
			if w.onEmptyLine() {
				break
			}
			i = w.inc()
			if i == -1 || (i >= 1 && stopAtEOL && last) {
				done = true
			}
		}
		if done {
			return w.p, true
		}
	}
	return w.p, true
}

// WordBackward is b / B.
func WordBackward(t Text, p Pos, count int, big bool) (Pos, bool) {
	w := &walker{t: t, p: p, big: big}
	for count = max(count, 1); count > 0; count-- {
		if w.dec() == -1 {
			return w.p, w.p != p
		}
		empty := false
		for w.cls() == blank {
			if w.onEmptyLine() {
				empty = true
				break
			}
			if w.dec() == -1 {
				return w.p, w.p != p
			}
		}
		if empty {
			continue
		}
		if w.skip(w.cls(), false) {
			continue
		}
		w.inc()
	}
	return w.p, w.p != p
}

// WordEnd is e / E. With stop set a cursor already inside a word only moves
// to the end of that word, as cw needs.
func WordEnd(t Text, p Pos, count int, big, stop bool) (Pos, bool) {
	w := &walker{t: t, p: p, big: big}
	for count = max(count, 1); count > 0; count-- {
		sclass := w.cls()
		if w.inc() == -1 {
			return p, false
		}
		switch {
		case w.cls() == sclass && sclass != blank:
			if w.skip(sclass, true) {
				return w.endClamp(), true
			}
		case !stop || sclass == blank:
			for w.cls() == blank {
				if w.inc() == -1 {
					return p, false
				}
			}
			if w.skip(w.cls(), true) {
				return w.endClamp(), true
			}
		}
		w.dec()
		stop = false
	}
	return w.p, true
}

// endClamp backs off the final line break after a skip hit the buffer end.
func (w *walker) endClamp() Pos {
	if n := len(w.t.LineRunes(w.p.Line)); w.p.Col >= n && n > 0 {
		w.p.Col = n - 1
	}
	return w.p
}

// WordEndBackward is ge / gE.
func WordEndBackward(t Text, p Pos, count int, big bool) (Pos, bool) {
	w := &walker{t: t, p: p, big: big}
	for count = max(count, 1); count > 0; count-- {
		sclass := w.cls()
		if w.dec() == -1 {
			return p, false
		}
		if sclass != blank {
			for w.cls() == sclass {
				if w.dec() == -1 {
					return w.p, true
				}
			}
		}
		for w.cls() == blank {
			if w.onEmptyLine() {
				break
			}
			if w.dec() == -1 {
				return w.p, true
			}
		}
	}
	return w.p, true
}
