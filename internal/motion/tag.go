package motion

import (
	"sort"
	"strings"
)

type tagSpan struct {
	name       string
	start, end int // offsets of '<' and one past '>'
	closing    bool
}

// scanTags lists the open and close tags of f in order. Comments,
// processing instructions and self-closing tags are skipped.
func scanTags(f flat) []tagSpan {
	var out []tagSpan
	text := f.text
	for i := 0; i < len(text); i++ {
		if text[i] != '<' || i+1 >= len(text) {
			continue
		}
		j := i + 1
		closing := false
		switch text[j] {
		case '!', '?':
			continue
		case '/':
			closing = true
			j++
		}
		n := j
		for n < len(text) && (IsWordRune(text[n]) || text[n] == '-' || text[n] == ':' || text[n] == '.') {
			n++
		}
		if n == j {
			continue
		}
		name := strings.ToLower(string(text[j:n]))
		e := n
		for e < len(text) && text[e] != '>' && text[e] != '<' {
			e++
		}
		if e >= len(text) || text[e] != '>' {
			continue
		}
		if text[e-1] == '/' {
			i = e
			continue
		}
		out = append(out, tagSpan{name: name, start: i, end: e + 1, closing: closing})
		i = e
	}
	return out
}

type tagPair struct{ open, close tagSpan }

// matchTags pairs tags with a stack. Unmatched open tags are dropped.
func matchTags(tags []tagSpan) []tagPair {
	var stack []tagSpan
	var pairs []tagPair
	for _, tg := range tags {
		if !tg.closing {
			stack = append(stack, tg)
			continue
		}
		for k := len(stack) - 1; k >= 0; k-- {
			if stack[k].name == tg.name {
				pairs = append(pairs, tagPair{open: stack[k], close: tg})
				stack = stack[:k]
				break
			}
		}
	}
	return pairs
}

// Tag is it / at. The count picks the count-th enclosing pair.
func Tag(t Text, p Pos, inner bool, count int) (Object, bool) {
	f := flatten(t)
	off := f.offset(p)
	var enclosing []tagPair
	for _, pr := range matchTags(scanTags(f)) {
		if pr.open.start <= off && off < pr.close.end {
			enclosing = append(enclosing, pr)
		}
	}
	if len(enclosing) < count {
		return Object{}, false
	}
	// Innermost first.
	sort.Slice(enclosing, func(i, j int) bool {
		return enclosing[i].open.start > enclosing[j].open.start
	})
	pr := enclosing[count-1]
	if inner {
		return Object{Start: f.pos(pr.open.end), End: f.pos(pr.close.start)}, true
	}
	return Object{Start: f.pos(pr.open.start), End: f.pos(pr.close.end)}, true
}
