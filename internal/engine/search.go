package engine

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	mo "github.com/kobzarvs/qvim/internal/motion"
	"github.com/kobzarvs/qvim/internal/register"
	"github.com/kobzarvs/qvim/internal/textbuf"
)

type searchState struct {
	pattern   string
	forward   bool
	highlight bool

	// Saved while the / or ? line is open.
	origin     textbuf.Position
	top        int
	left       int
	pend       pending
	preview    textbuf.Range
	previewing bool
}

// startSearch opens the / or ? line. The pending operator and count are set
// aside until the pattern is entered.
func (e *Engine) startSearch(forward bool) {
	v := e.view()
	e.srch.origin = v.Cursor
	e.srch.top = v.Top
	e.srch.left = v.Left
	e.srch.pend = e.pend
	e.srch.pend.shown = nil
	e.srch.previewing = false
	e.pend = pending{}
	kind := '/'
	if !forward {
		kind = '?'
	}
	e.startCmdline(kind, "")
}

func (e *Engine) restoreOrigin() {
	v := e.view()
	v.Cursor = e.srch.origin
	v.Top = e.srch.top
	v.Left = e.srch.left
	e.srch.previewing = false
}

func (e *Engine) cancelSearch() {
	e.restoreOrigin()
	e.srch.pend = pending{}
}

// previewSearch moves the cursor to the first match while the pattern is
// typed, when incsearch is on.
func (e *Engine) previewSearch() {
	if !e.opts.IncSearch {
		return
	}
	e.restoreOrigin()
	pat := string(e.cmd.text)
	if pat == "" {
		return
	}
	re, err := e.compileSearch(searchPattern(pat, e.cmd.kind))
	if err != nil {
		return
	}
	m, _, ok := e.findMatch(re, e.srch.origin, e.cmd.kind == '/')
	if !ok {
		return
	}
	e.srch.preview = m
	e.srch.previewing = true
	e.view().Cursor = m.Start
}

// finishSearch runs the entered pattern as a motion, with the operator that
// was pending when / or ? was typed.
func (e *Engine) finishSearch(text string, forward bool) {
	e.restoreOrigin()
	pend := e.srch.pend
	e.srch.pend = pending{}
	delim := '/'
	if !forward {
		delim = '?'
	}
	pat := searchPattern(text, delim)
	if pat == "" {
		pat = e.srch.pattern
	}
	if pat == "" {
		e.errorf("E35: No previous regular expression")
		return
	}
	e.setSearch(pat, forward)
	e.pend = pend
	tg, ok := e.searchTarget(true, e.pend.n())
	e.applyTarget(tg, ok)
}

// searchPattern cuts a pattern at its first unescaped delimiter, dropping
// any offset after it.
func searchPattern(text string, delim rune) string {
	escaped := false
	for i, r := range text {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == delim:
			return text[:i]
		}
	}
	return text
}

func (e *Engine) setSearch(pat string, forward bool) {
	e.srch.pattern = pat
	e.srch.forward = forward
	e.srch.highlight = true
	e.regs.SetReadOnly(register.LastSearch, pat)
}

// searchTarget is n (same) and N. The direction is relative to the last
// search.
func (e *Engine) searchTarget(same bool, count int) (target, bool) {
	return e.searchFrom(e.cursor(), same, count)
}

func (e *Engine) searchFrom(p textbuf.Position, same bool, count int) (target, bool) {
	pat := e.srch.pattern
	if pat == "" {
		e.errorf("E35: No previous regular expression")
		return target{}, false
	}
	re, err := e.compileSearch(pat)
	if err != nil {
		e.errorf("E383: Invalid search string: %s", pat)
		return target{}, false
	}
	forward := e.srch.forward == same
	wrapped := false
	for i := 0; i < count; i++ {
		m, w, ok := e.findMatch(re, p, forward)
		if !ok {
			switch {
			case e.opts.WrapScan:
				e.errorf("E486: Pattern not found: %s", pat)
			case forward:
				e.errorf("E385: Search hit BOTTOM without match for: %s", pat)
			default:
				e.errorf("E384: Search hit TOP without match for: %s", pat)
			}
			return target{}, false
		}
		wrapped = wrapped || w
		p = m.Start
	}
	e.srch.highlight = true
	if wrapped {
		if forward {
			e.message("search hit BOTTOM, continuing at TOP")
		} else {
			e.message("search hit TOP, continuing at BOTTOM")
		}
	}
	return target{pos: p, jump: true}, true
}

// starTarget is * # g* g#: search for the word under the cursor.
func (e *Engine) starTarget(forward, whole bool, count int) (target, bool) {
	runes := e.text().LineRunes(e.cursor().Line)
	s, en, ok := mo.WordUnder(runes, e.cursor().Col)
	if !ok {
		e.errorf("E348: No string under cursor")
		return target{}, false
	}
	pat := escapeMagic(string(runes[s:en]))
	if whole {
		pat = `\<` + pat + `\>`
	}
	e.setSearch(pat, forward)
	e.addHistory('/', pat)
	return e.searchFrom(textbuf.Position{Line: e.cursor().Line, Col: s}, true, count)
}

func escapeMagic(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\/.*$^~[]`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// compileSearch turns a Vim pattern into an RE2 expression, applying
// ignorecase and smartcase.
func (e *Engine) compileSearch(pat string) (*regexp.Regexp, error) {
	expr, ignore := translatePattern(pat)
	fold := e.opts.IgnoreCase
	if fold && e.opts.SmartCase && hasUpper(pat) {
		fold = false
	}
	switch ignore {
	case 1:
		fold = true
	case -1:
		fold = false
	}
	if fold {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", pat, err)
	}
	return re, nil
}

func hasUpper(s string) bool {
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case unicode.IsUpper(r):
			return true
		}
	}
	return false
}

// translatePattern maps magic and \v very-magic syntax to RE2. ignore is 1
// for \c, -1 for \C and 0 when the pattern does not say.
func translatePattern(pat string) (expr string, ignore int) {
	var b strings.Builder
	very, brace := false, false
	runes := []rune(pat)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '\\' || i+1 == len(runes) {
			switch {
			case very && (r == '<' || r == '>'):
				b.WriteString(`\b`)
			case very && r == '=':
				b.WriteByte('?')
			case brace && r == '}':
				brace = false
				b.WriteRune(r)
			case !very && strings.ContainsRune("(){}+?|", r):
				b.WriteByte('\\')
				b.WriteRune(r)
			case r == '\\':
				b.WriteString(`\\`)
			default:
				b.WriteRune(r)
			}
			continue
		}
		i++
		n := runes[i]
		switch n {
		case 'v':
			very = true
		case 'm', 'M':
			very = false
		case 'c':
			ignore = 1
		case 'C':
			ignore = -1
		case '<', '>':
			if very {
				b.WriteRune('\\')
				b.WriteRune(n)
			} else {
				b.WriteString(`\b`)
			}
		case '(', ')', '{', '}', '+', '?', '|':
			if very {
				b.WriteRune('\\')
			}
			b.WriteRune(n)
			brace = n == '{' && !very
		case '=':
			if very {
				b.WriteString(`\=`)
			} else {
				b.WriteByte('?')
			}
		case '/':
			b.WriteByte('/')
		case 'a':
			b.WriteString(`[A-Za-z]`)
		case 'x':
			b.WriteString(`[0-9A-Fa-f]`)
		case 'u':
			b.WriteString(`[A-Z]`)
		case 'l':
			b.WriteString(`[a-z]`)
		case 'n', 't', 's', 'S', 'd', 'D', 'w', 'W', 'b', 'B', '.', '*', '[', ']', '^', '$', '\\':
			b.WriteRune('\\')
			b.WriteRune(n)
		case 'e':
			b.WriteString(`\x1b`)
		default:
			b.WriteString(regexp.QuoteMeta(string(n)))
		}
	}
	return b.String(), ignore
}

// lineMatches returns the rune ranges of every match in line.
func lineMatches(re *regexp.Regexp, line int, text string) []textbuf.Range {
	idx := re.FindAllStringIndex(text, -1)
	out := make([]textbuf.Range, 0, len(idx))
	for _, m := range idx {
		s := utf8.RuneCountInString(text[:m[0]])
		n := utf8.RuneCountInString(text[m[0]:m[1]])
		out = append(out, textbuf.Range{
			Start: textbuf.Position{Line: line, Col: s},
			End:   textbuf.Position{Line: line, Col: s + n},
		})
	}
	return out
}

// findMatch finds the next match after from, or the previous one before
// it, wrapping around the buffer when wrapscan is on.
func (e *Engine) findMatch(re *regexp.Regexp, from textbuf.Position, forward bool) (m textbuf.Range, wrapped, ok bool) {
	t := e.text()
	n := t.LineCount()
	for i := 0; i <= n; i++ {
		line := from.Line + i
		if !forward {
			line = from.Line - i
		}
		if line >= n || line < 0 {
			if !e.opts.WrapScan {
				return textbuf.Range{}, false, false
			}
			wrapped = true
			line = (line%n + n) % n
		}
		ms := lineMatches(re, line, t.Line(line))
		if forward {
			for _, r := range ms {
				if i == 0 && r.Start.Col <= from.Col {
					continue
				}
				if i == n && r.Start.Col > from.Col {
					break
				}
				return r, wrapped, true
			}
			continue
		}
		for j := len(ms) - 1; j >= 0; j-- {
			r := ms[j]
			if i == 0 && r.Start.Col >= from.Col {
				continue
			}
			if i == n && r.Start.Col < from.Col {
				break
			}
			return r, wrapped, true
		}
	}
	return textbuf.Range{}, false, false
}

// visibleMatches lists the highlighted matches on lines first..last.
func (e *Engine) visibleMatches(t *textbuf.Buffer, first, last int) []textbuf.Range {
	if e.mode == ModeSearch {
		if e.srch.previewing {
			return []textbuf.Range{e.srch.preview}
		}
		return nil
	}
	if !e.srch.highlight || e.srch.pattern == "" {
		return nil
	}
	re, err := e.compileSearch(e.srch.pattern)
	if err != nil {
		return nil
	}
	var out []textbuf.Range
	for l := max(first, 0); l <= last && l < t.LineCount(); l++ {
		out = append(out, lineMatches(re, l, t.Line(l))...)
	}
	return out
}
