package motion

import "sort"

// Object is a resolved text object. Charwise objects cover [Start, End);
// linewise ones cover lines Start.Line through End.Line.
type Object struct {
	Start    Pos
	End      Pos
	Linewise bool
}

// Select resolves the text object named by kind (the key after i or a).
func Select(t Text, p Pos, kind rune, inner bool, count int) (Object, bool) {
	count = max(count, 1)
	switch kind {
	case 'w':
		return Word(t, p, inner, false, count)
	case 'W':
		return Word(t, p, inner, true, count)
	case 's':
		return Sentence(t, p, inner)
	case 'p':
		return Paragraph(t, p, inner, count)
	case '"', '\'', '`':
		return Quote(t, p, kind, inner, count)
	case '(', ')', 'b':
		return Bracket(t, p, '(', ')', inner, count)
	case '[', ']':
		return Bracket(t, p, '[', ']', inner, count)
	case '{', '}', 'B':
		return Bracket(t, p, '{', '}', inner, count)
	case '<', '>':
		return Bracket(t, p, '<', '>', inner, count)
	case 't':
		return Tag(t, p, inner, count)
	}
	return Object{}, false
}

// runEnd returns the end of the class run that starts at i.
func runEnd(line []rune, i int, big bool) int {
	c := class(line[i], big)
	for i < len(line) && class(line[i], big) == c {
		i++
	}
	return i
}

// Word is iw aw iW aW on the cursor line.
func Word(t Text, p Pos, inner, big bool, count int) (Object, bool) {
	line := t.LineRunes(p.Line)
	if len(line) == 0 {
		return Object{}, false
	}
	col := min(p.Col, len(line)-1)
	c := class(line[col], big)
	s := col
	for s > 0 && class(line[s-1], big) == c {
		s--
	}
	e := runEnd(line, col, big)

	if inner {
		for n := 1; n < count && e < len(line); n++ {
			e = runEnd(line, e, big)
		}
		return charObject(p.Line, s, e), true
	}

	if c == blank {
		if e < len(line) {
			e = runEnd(line, e, big)
		}
	} else {
		switch {
		case e < len(line) && class(line[e], big) == blank:
			e = runEnd(line, e, big)
		case s > 0 && class(line[s-1], big) == blank:
			for s > 0 && class(line[s-1], big) == blank {
				s--
			}
		}
	}
	for n := 1; n < count && e < len(line); n++ {
		e = runEnd(line, e, big)
		if e < len(line) && class(line[e], big) == blank {
			e = runEnd(line, e, big)
		}
	}
	return charObject(p.Line, s, e), true
}

func charObject(line, s, e int) Object {
	return Object{Start: Pos{Line: line, Col: s}, End: Pos{Line: line, Col: e}}
}

// Sentence is is / as.
func Sentence(t Text, p Pos, inner bool) (Object, bool) {
	f := flatten(t)
	if len(f.text) == 0 {
		return Object{}, false
	}
	off := f.offset(p)
	start, textEnd, next := f.sentenceAt(off)
	if off >= textEnd && off < next {
		// On the white space between sentences.
		if inner {
			return Object{Start: f.pos(textEnd), End: f.pos(next)}, true
		}
		_, nextEnd, _ := f.sentenceAt(next)
		return Object{Start: f.pos(textEnd), End: f.pos(nextEnd)}, true
	}
	if inner {
		return Object{Start: f.pos(start), End: f.pos(textEnd)}, true
	}
	return Object{Start: f.pos(start), End: f.pos(next)}, true
}

// Paragraph is ip / ap. Both are linewise.
func Paragraph(t Text, p Pos, inner bool, count int) (Object, bool) {
	last := t.LineCount() - 1
	runOf := func(line int) (int, int) {
		empty := lineEmpty(t, line)
		a, b := line, line
		for a > 0 && lineEmpty(t, a-1) == empty {
			a--
		}
		for b < last && lineEmpty(t, b+1) == empty {
			b++
		}
		return a, b
	}
	a, b := runOf(p.Line)
	startBlank := lineEmpty(t, p.Line)
	if inner {
		for n := 1; n < count && b < last; n++ {
			_, b = runOf(b + 1)
		}
		return Object{Start: Pos{Line: a}, End: Pos{Line: b}, Linewise: true}, true
	}
	for n := 0; n < count; n++ {
		if n > 0 {
			if b >= last {
				break
			}
			_, b = runOf(b + 1)
		}
		if b < last {
			_, b = runOf(b + 1)
		} else if n == 0 && !startBlank && a > 0 {
			a, _ = runOf(a - 1)
		}
	}
	return Object{Start: Pos{Line: a}, End: Pos{Line: b}, Linewise: true}, true
}

// quotesOn lists the unescaped positions of q on line.
func quotesOn(line []rune, q rune) []int {
	var out []int
	for i := 0; i < len(line); i++ {
		if line[i] == '\\' {
			i++
			continue
		}
		if line[i] == q {
			out = append(out, i)
		}
	}
	return out
}

// Quote is i" a" and the ' and ` variants. Quotes never span lines.
func Quote(t Text, p Pos, q rune, inner bool, count int) (Object, bool) {
	line := t.LineRunes(p.Line)
	qs := quotesOn(line, q)
	if len(qs) < 2 {
		return Object{}, false
	}
	col := p.Col
	open, close := -1, -1
	idx := sort.SearchInts(qs, col)
	switch {
	case idx < len(qs) && qs[idx] == col:
		if idx%2 == 0 {
			if idx+1 >= len(qs) {
				return Object{}, false
			}
			open, close = qs[idx], qs[idx+1]
		} else {
			open, close = qs[idx-1], qs[idx]
		}
	case idx == 0:
		open, close = qs[0], qs[1]
	case idx < len(qs):
		open, close = qs[idx-1], qs[idx]
	default:
		return Object{}, false
	}

	if inner && count < 2 {
		return charObject(p.Line, open+1, close), true
	}
	s, e := open, close+1
	if !inner {
		switch {
		case e < len(line) && isBlank(line[e]):
			for e < len(line) && isBlank(line[e]) {
				e++
			}
		default:
			for s > 0 && isBlank(line[s-1]) {
				s--
			}
		}
	}
	return charObject(p.Line, s, e), true
}

// Bracket is i( a( and the other bracket pairs. The cursor may sit on
// either delimiter; a count selects outer pairs.
func Bracket(t Text, p Pos, open, close rune, inner bool, count int) (Object, bool) {
	w := &walker{t: t, p: p}
	var openPos Pos
	var ok bool
	switch w.char() {
	case open:
		openPos, ok = p, true
		if count > 1 {
			openPos, ok = unmatched(t, p, open, close, false, count-1)
		}
	case close:
		openPos, ok = findPartner(t, p, close, open, false)
		if ok && count > 1 {
			openPos, ok = unmatched(t, openPos, open, close, false, count-1)
		}
	default:
		openPos, ok = unmatched(t, p, open, close, false, count)
	}
	if !ok {
		return Object{}, false
	}
	closePos, ok := findPartner(t, openPos, open, close, true)
	if !ok {
		return Object{}, false
	}
	if !inner {
		return Object{Start: openPos, End: Pos{Line: closePos.Line, Col: closePos.Col + 1}}, true
	}

	start := Pos{Line: openPos.Line, Col: openPos.Col + 1}
	end := closePos
	startsLine := start.Col >= len(t.LineRunes(start.Line)) && start.Line < closePos.Line
	if startsLine {
		start = Pos{Line: start.Line + 1}
	}
	closeLine := t.LineRunes(closePos.Line)
	endsLine := closePos.Line > start.Line && onlyBlank(closeLine[:closePos.Col])
	if startsLine && endsLine {
		return Object{Start: start, End: Pos{Line: closePos.Line - 1}, Linewise: true}, true
	}
	if endsLine {
		end = Pos{Line: closePos.Line - 1, Col: len(t.LineRunes(closePos.Line - 1))}
	}
	return Object{Start: start, End: end}, true
}

func onlyBlank(r []rune) bool {
	for _, c := range r {
		if !isBlank(c) {
			return false
		}
	}
	return true
}
