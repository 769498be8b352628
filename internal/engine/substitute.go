package engine

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// substitution is the last :s, for :s without a pattern, :& and &.
type substitution struct {
	pattern string
	replace string
	flags   string
	valid   bool
}

// exSubstitute is :s/pat/rep/[flags] [count]. With no pattern it repeats
// the last one; a leading & in the flags keeps the old flags.
func (e *Engine) exSubstitute(c exCall) {
	arg := c.arg
	var pat, rep, flags string
	r, size := utf8.DecodeRuneInString(arg)
	if c.name == "&" || arg == "" || !isDelimiter(r) {
		if !e.sub.valid {
			e.errorf("E35: No previous regular expression")
			return
		}
		pat, rep = e.sub.pattern, e.sub.replace
	} else {
		rest := arg[size:]
		pat = searchPattern(rest, r)
		rest = rest[len(pat):]
		if rest != "" {
			rest = rest[size:]
			rep = searchPattern(rest, r)
			rest = rest[len(rep):]
			if rest != "" {
				rest = rest[size:]
			}
		}
		rep = unescapeDelimiter(rep, r)
		if pat == "" {
			pat = e.srch.pattern
		}
		if pat == "" {
			e.errorf("E35: No previous regular expression")
			return
		}
		rep = expandTilde(rep, e.sub.replace)
		arg = rest
	}
	if strings.HasPrefix(arg, "&") {
		flags = e.sub.flags
		arg = arg[1:]
	}
	i := 0
	for i < len(arg) && strings.ContainsRune("cegiIn", rune(arg[i])) {
		i++
	}
	flags += arg[:i]
	if !e.countArg(&c, arg[i:]) {
		return
	}
	e.sub = substitution{pattern: pat, replace: rep, flags: flags, valid: true}
	e.setSearch(pat, e.srch.forward)

	expr := pat
	switch {
	case strings.ContainsRune(flags, 'i'):
		expr = `\c` + pat
	case strings.ContainsRune(flags, 'I'):
		expr = `\C` + pat
	}
	re, err := e.compileSearch(expr)
	if err != nil {
		e.errorf("E383: Invalid search string: %s", pat)
		return
	}
	limit := 1
	if strings.ContainsRune(flags, 'g') {
		limit = -1
	}
	countOnly := strings.ContainsRune(flags, 'n')

	t := e.text()
	subs, lines, lastLine := 0, 0, -1
	for l := c.line1; l <= c.line2 && l < t.LineCount(); l++ {
		text := t.Line(l)
		ms := re.FindAllStringSubmatchIndex(text, limit)
		if len(ms) == 0 {
			continue
		}
		subs += len(ms)
		lines++
		lastLine = l
		if countOnly {
			continue
		}
		var b strings.Builder
		prev := 0
		for _, m := range ms {
			b.WriteString(text[prev:m[0]])
			b.WriteString(expandReplacement(text, m, rep))
			prev = m[1]
		}
		b.WriteString(text[prev:])
		out := b.String()
		e.setLine(l, out)
		added := strings.Count(out, "\n")
		l += added
		c.line2 += added
		lastLine = l
	}
	if subs == 0 {
		if !strings.ContainsRune(flags, 'e') {
			e.errorf("E486: Pattern not found: %s", pat)
		}
		return
	}
	if countOnly {
		matches := "1 match"
		if subs != 1 {
			matches = fmt.Sprintf("%d matches", subs)
		}
		e.message("%s on %s", matches, plural(lines, "line"))
		return
	}
	e.firstNonBlank(lastLine)
	if subs > 2 {
		e.message("%s on %s", plural(subs, "substitution"), plural(lines, "line"))
	}
}

func isDelimiter(r rune) bool {
	return r != '\\' && r != '"' && r != '|' && !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r)
}

// unescapeDelimiter turns \{delim} in a replacement back into the bare
// delimiter.
func unescapeDelimiter(rep string, delim rune) string {
	if delim == '/' {
		return strings.ReplaceAll(rep, `\/`, "/")
	}
	return strings.ReplaceAll(rep, `\`+string(delim), string(delim))
}

// expandTilde replaces each unescaped ~ with the previous replacement.
func expandTilde(rep, prev string) string {
	if !strings.Contains(rep, "~") {
		return rep
	}
	var b strings.Builder
	rs := []rune(rep)
	for i := 0; i < len(rs); i++ {
		switch {
		case rs[i] == '\\' && i+1 < len(rs):
			b.WriteRune(rs[i])
			b.WriteRune(rs[i+1])
			i++
		case rs[i] == '~':
			b.WriteString(prev)
		default:
			b.WriteRune(rs[i])
		}
	}
	return b.String()
}

// expandReplacement builds the text for one match m of the submatch index
// form: & and \0 are the match, \1..\9 the groups, \r a line break, and \u
// \l \U \L \E change case.
func expandReplacement(text string, m []int, rep string) string {
	var b strings.Builder
	var once, all rune
	write := func(s string) {
		for _, r := range s {
			switch {
			case once == 'u':
				r, once = unicode.ToUpper(r), 0
			case once == 'l':
				r, once = unicode.ToLower(r), 0
			case all == 'U':
				r = unicode.ToUpper(r)
			case all == 'L':
				r = unicode.ToLower(r)
			}
			b.WriteRune(r)
		}
	}
	group := func(n int) string {
		if 2*n+1 < len(m) && m[2*n] >= 0 {
			return text[m[2*n]:m[2*n+1]]
		}
		return ""
	}
	rs := []rune(rep)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		if r == '&' {
			write(group(0))
			continue
		}
		if r != '\\' || i+1 == len(rs) {
			write(string(r))
			continue
		}
		i++
		switch n := rs[i]; {
		case n >= '0' && n <= '9':
			write(group(int(n - '0')))
		case n == 'r', n == 'n':
			b.WriteByte('\n')
		case n == 't':
			b.WriteByte('\t')
		case n == 'u', n == 'l':
			once = n
		case n == 'U', n == 'L':
			all = n
		case n == 'E', n == 'e':
			once, all = 0, 0
		default:
			write(string(n))
		}
	}
	return b.String()
}
