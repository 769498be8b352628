package motion

import "unicode"

func lineEmpty(t Text, line int) bool {
	return len(t.LineRunes(line)) == 0
}

// Left is h. It never leaves the line.
func Left(p Pos, count int) (Pos, bool) {
	if p.Col == 0 {
		return p, false
	}
	p.Col = max(p.Col-max(count, 1), 0)
	return p, true
}

// Right is l. The cursor stops on the last rune unless pastEnd allows the
// line end, as an operator or Insert mode does.
func Right(t Text, p Pos, count int, pastEnd bool) (Pos, bool) {
	n := len(t.LineRunes(p.Line))
	limit := n - 1
	if pastEnd {
		limit = n
	}
	if p.Col >= limit {
		return p, false
	}
	p.Col = min(p.Col+max(count, 1), limit)
	return p, true
}

// Down moves count lines, clamped to the buffer.
func Down(t Text, line, count int) (int, bool) {
	last := t.LineCount() - 1
	if line >= last {
		return line, false
	}
	return min(line+max(count, 1), last), true
}

func Up(line, count int) (int, bool) {
	if line <= 0 {
		return line, false
	}
	return max(line-max(count, 1), 0), true
}

// FirstNonBlank is the column of ^.
func FirstNonBlank(line []rune) int {
	for i, r := range line {
		if r != ' ' && r != '\t' {
			return i
		}
	}
	return max(len(line)-1, 0)
}

// LastNonBlank is the column of g_.
func LastNonBlank(line []rune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i] != ' ' && line[i] != '\t' {
			return i
		}
	}
	return 0
}

// Indent returns the leading whitespace of line.
func Indent(line []rune) string {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return string(line[:i])
}

// FindChar is f, F, t and T within one line. With repeat set, a t or T that
// would stay put skips the adjacent match, as ; and , do.
func FindChar(line []rune, col int, ch rune, forward, till, repeat bool, count int) (int, bool) {
	pos := col
	for n := max(count, 1); n > 0; n-- {
		first := n == max(count, 1)
		if forward {
			start := pos + 1
			if till && repeat && first && start < len(line) && line[start] == ch {
				start++
			}
			i := indexFrom(line, ch, start)
			if i < 0 {
				return col, false
			}
			pos = i
		} else {
			start := pos - 1
			if till && repeat && first && start >= 0 && line[start] == ch {
				start--
			}
			i := lastIndexBefore(line, ch, start)
			if i < 0 {
				return col, false
			}
			pos = i
		}
	}
	if till {
		if forward {
			pos--
		} else {
			pos++
		}
	}
	return pos, true
}

func indexFrom(line []rune, ch rune, from int) int {
	for i := max(from, 0); i < len(line); i++ {
		if line[i] == ch {
			return i
		}
	}
	return -1
}

func lastIndexBefore(line []rune, ch rune, from int) int {
	for i := min(from, len(line)-1); i >= 0; i-- {
		if line[i] == ch {
			return i
		}
	}
	return -1
}

// ParagraphForward is }. It lands on the next blank line after text, or at
// the end of the last line.
func ParagraphForward(t Text, p Pos, count int) (Pos, bool) {
	last := t.LineCount() - 1
	line := p.Line
	for n := max(count, 1); n > 0; n-- {
		if line >= last {
			break
		}
		for line < last && lineEmpty(t, line) {
			line++
		}
		for line < last && !lineEmpty(t, line) {
			line++
		}
	}
	out := Pos{Line: line}
	if line == last && !lineEmpty(t, line) {
		out.Col = len(t.LineRunes(line))
	}
	return out, out != p
}

// ParagraphBackward is {.
func ParagraphBackward(t Text, p Pos, count int) (Pos, bool) {
	line := p.Line
	for n := max(count, 1); n > 0; n-- {
		if line <= 0 {
			break
		}
		for line > 0 && lineEmpty(t, line) {
			line--
		}
		for line > 0 && !lineEmpty(t, line) {
			line--
		}
	}
	out := Pos{Line: line}
	return out, out != p
}

// LineEnd is $ with a count moving down count-1 lines first. The column is
// the last rune of the line.
func LineEnd(t Text, p Pos, count int) (Pos, bool) {
	line := p.Line + max(count, 1) - 1
	if line >= t.LineCount() {
		return p, false
	}
	return Pos{Line: line, Col: max(len(t.LineRunes(line))-1, 0)}, true
}

var pairs = map[rune]rune{
	'(': ')', '[': ']', '{': '}',
	')': '(', ']': '[', '}': '{',
}

func isOpen(r rune) bool {
	return r == '(' || r == '[' || r == '{'
}

// MatchBracket is %. It scans forward on the cursor line for the first
// bracket and jumps to its partner, counting nesting.
func MatchBracket(t Text, p Pos) (Pos, bool) {
	line := t.LineRunes(p.Line)
	col := -1
	for i := p.Col; i < len(line); i++ {
		if _, ok := pairs[line[i]]; ok {
			col = i
			break
		}
	}
	if col < 0 {
		return p, false
	}
	ch := line[col]
	return findPartner(t, Pos{Line: p.Line, Col: col}, ch, pairs[ch], isOpen(ch))
}

// findPartner searches from start (exclusive) for the partner bracket.
func findPartner(t Text, start Pos, ch, match rune, forward bool) (Pos, bool) {
	depth := 1
	w := &walker{t: t, p: start}
	for {
		var r int
		if forward {
			r = w.inc()
		} else {
			r = w.dec()
		}
		if r == -1 {
			return start, false
		}
		switch w.char() {
		case ch:
			depth++
		case match:
			depth--
			if depth == 0 {
				return w.p, true
			}
		}
	}
}

// Unmatched is [( [{ ]) ]}: the count-th enclosing bracket of the given
// kind that is not closed before (or opened after) the cursor.
func Unmatched(t Text, p Pos, bracket rune, count int) (Pos, bool) {
	return unmatched(t, p, bracket, pairs[bracket], !isOpen(bracket), count)
}

func unmatched(t Text, p Pos, bracket, match rune, forward bool, count int) (Pos, bool) {
	w := &walker{t: t, p: p}
	depth := 0
	need := max(count, 1)
	for {
		var r int
		if forward {
			r = w.inc()
		} else {
			r = w.dec()
		}
		if r == -1 {
			return p, false
		}
		switch w.char() {
		case match:
			depth++
		case bracket:
			if depth > 0 {
				depth--
				continue
			}
			need--
			if need == 0 {
				return w.p, true
			}
		}
	}
}

// Section is ]] [[ ][ []: the next line starting with open (or close) in
// the first column, else the buffer edge.
func Section(t Text, p Pos, forward bool, brace rune, count int) (Pos, bool) {
	line := p.Line
	last := t.LineCount() - 1
	for n := max(count, 1); n > 0; n-- {
		for {
			if forward {
				if line >= last {
					break
				}
				line++
			} else {
				if line <= 0 {
					break
				}
				line--
			}
			if r := t.LineRunes(line); len(r) > 0 && r[0] == brace {
				break
			}
		}
	}
	out := Pos{Line: line}
	return out, out != p
}

// WordUnder returns the keyword under or after the cursor on its line, as *
// and # use it.
func WordUnder(line []rune, col int) (start, end int, ok bool) {
	i := col
	for i < len(line) && !IsWordRune(line[i]) {
		i++
	}
	if i >= len(line) {
		return 0, 0, false
	}
	start, end = i, i
	for start > 0 && IsWordRune(line[start-1]) {
		start--
	}
	for end < len(line) && IsWordRune(line[end]) {
		end++
	}
	return start, end, true
}

// NumberUnder finds the number at or after col for <C-a> and <C-x>. Hex
// literals start with 0x; a minus directly before a decimal belongs to it.
func NumberUnder(line []rune, col int) (start, end int, hex, ok bool) {
	for i := 0; i < len(line); {
		if !unicode.IsDigit(line[i]) {
			i++
			continue
		}
		s, e, isHex := i, i, false
		if line[i] == '0' && i+2 < len(line) && (line[i+1] == 'x' || line[i+1] == 'X') && isHexDigit(line[i+2]) {
			isHex = true
			e = i + 2
			for e < len(line) && isHexDigit(line[e]) {
				e++
			}
		} else {
			for e < len(line) && unicode.IsDigit(line[e]) {
				e++
			}
			if s > 0 && line[s-1] == '-' {
				s--
			}
		}
		if e > col {
			return s, e, isHex, true
		}
		i = e
	}
	return 0, 0, false, false
}

func isHexDigit(r rune) bool {
	return unicode.IsDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
