package motion

import "sort"

// flat is a buffer joined with newlines, for searches that ignore lines.
type flat struct {
	text  []rune
	start []int
}

func flatten(t Text) flat {
	f := flat{start: make([]int, t.LineCount())}
	for i := 0; i < t.LineCount(); i++ {
		f.start[i] = len(f.text)
		f.text = append(f.text, t.LineRunes(i)...)
		if i+1 < t.LineCount() {
			f.text = append(f.text, '\n')
		}
	}
	return f
}

func (f flat) offset(p Pos) int {
	if p.Line >= len(f.start) {
		return len(f.text)
	}
	return min(f.start[p.Line]+p.Col, len(f.text))
}

func (f flat) pos(off int) Pos {
	line := sort.Search(len(f.start), func(i int) bool { return f.start[i] > off }) - 1
	line = max(line, 0)
	return Pos{Line: line, Col: off - f.start[line]}
}

func (f flat) lineEmpty(line int) bool {
	end := len(f.text)
	if line+1 < len(f.start) {
		end = f.start[line+1] - 1
	}
	return end == f.start[line]
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isCloser(r rune) bool {
	return r == ')' || r == ']' || r == '"' || r == '\''
}

func isWhite(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n'
}

// sentenceStarts lists the offsets where sentences begin. Empty lines are
// sentences of their own.
func (f flat) sentenceStarts() []int {
	var starts []int
	expect := true
	line := 0
	for i := 0; i < len(f.text); i++ {
		for line+1 < len(f.start) && f.start[line+1] <= i {
			line++
		}
		if f.start[line] == i && f.lineEmpty(line) {
			starts = append(starts, i)
			expect = true
			continue
		}
		c := f.text[i]
		if expect {
			if isWhite(c) {
				continue
			}
			starts = append(starts, i)
			expect = false
		}
		if isSentenceEnd(c) {
			j := i + 1
			for j < len(f.text) && isCloser(f.text[j]) {
				j++
			}
			if j == len(f.text) || isWhite(f.text[j]) {
				expect = true
				i = j - 1
			}
		}
	}
	if last := len(f.start) - 1; f.lineEmpty(last) {
		starts = append(starts, f.start[last])
	}
	return dedupe(starts)
}

func dedupe(in []int) []int {
	out := in[:0]
	for _, v := range in {
		if len(out) == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// SentenceForward is ).
func SentenceForward(t Text, p Pos, count int) (Pos, bool) {
	f := flatten(t)
	off := f.offset(p)
	starts := f.sentenceStarts()
	for n := max(count, 1); n > 0; n-- {
		i := sort.SearchInts(starts, off+1)
		if i >= len(starts) {
			off = len(f.text)
			break
		}
		off = starts[i]
	}
	out := f.pos(off)
	return out, out != p
}

// SentenceBackward is (.
func SentenceBackward(t Text, p Pos, count int) (Pos, bool) {
	f := flatten(t)
	off := f.offset(p)
	starts := f.sentenceStarts()
	for n := max(count, 1); n > 0; n-- {
		i := sort.SearchInts(starts, off) - 1
		if i < 0 {
			off = 0
			break
		}
		off = starts[i]
	}
	out := f.pos(off)
	return out, out != p
}

// sentenceAt returns the sentence covering off: its start, the end of its
// text and the start of the next sentence.
func (f flat) sentenceAt(off int) (start, textEnd, next int) {
	starts := f.sentenceStarts()
	i := sort.SearchInts(starts, off+1) - 1
	start = 0
	if i >= 0 {
		start = starts[i]
	}
	next = len(f.text)
	if i+1 < len(starts) {
		next = starts[i+1]
	}
	textEnd = next
	for textEnd > start && isWhite(f.text[textEnd-1]) {
		textEnd--
	}
	return start, textEnd, next
}
