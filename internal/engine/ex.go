package engine

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kobzarvs/qvim/internal/buffers"
	"github.com/kobzarvs/qvim/internal/config"
	"github.com/kobzarvs/qvim/internal/keys"
	"github.com/kobzarvs/qvim/internal/layout"
	"github.com/kobzarvs/qvim/internal/logger"
	"github.com/kobzarvs/qvim/internal/register"
	"github.com/kobzarvs/qvim/internal/textbuf"
	"github.com/kobzarvs/qvim/internal/view"
)

// exCall is one parsed command line. Lines are 0-based; the address 0 is
// line -1.
type exCall struct {
	name  string
	bang  bool
	arg   string
	line1 int
	line2 int
	addrs int
}

type exCommand struct {
	name string
	// min is the length of the shortest accepted abbreviation.
	min    int
	ranged bool
	run    func(*Engine, exCall)
}

var exCommands []exCommand

func init() {
	exCommands = []exCommand{
		{"write", 1, true, (*Engine).exWrite},
		{"wq", 2, true, (*Engine).exWriteQuit},
		{"wall", 2, false, (*Engine).exWriteAll},
		{"wqall", 3, false, (*Engine).exWriteQuitAll},
		{"xit", 1, true, (*Engine).exXit},
		{"xall", 2, false, (*Engine).exWriteQuitAll},
		{"quit", 1, false, (*Engine).exQuit},
		{"qall", 2, false, (*Engine).exQuitAll},
		{"quitall", 5, false, (*Engine).exQuitAll},
		{"edit", 1, false, (*Engine).exEdit},
		{"enew", 3, false, (*Engine).exEnew},
		{"new", 3, false, (*Engine).exNew},
		{"vnew", 3, false, (*Engine).exNew},
		{"split", 2, false, (*Engine).exSplit},
		{"vsplit", 2, false, (*Engine).exSplit},
		{"close", 3, false, (*Engine).exClose},
		{"only", 2, false, (*Engine).exOnly},
		{"bnext", 2, false, (*Engine).exBufferCycle},
		{"bNext", 2, false, (*Engine).exBufferCycle},
		{"bprevious", 2, false, (*Engine).exBufferCycle},
		{"buffer", 1, false, (*Engine).exBuffer},
		{"bdelete", 2, false, (*Engine).exBdelete},
		{"buffers", 7, false, (*Engine).exLs},
		{"files", 5, false, (*Engine).exLs},
		{"ls", 2, false, (*Engine).exLs},
		{"tabnew", 6, false, (*Engine).exTabnew},
		{"tabedit", 4, false, (*Engine).exTabnew},
		{"tabnext", 4, false, (*Engine).exTabnext},
		{"tabprevious", 4, false, (*Engine).exTabprev},
		{"tabNext", 4, false, (*Engine).exTabprev},
		{"tabclose", 4, false, (*Engine).exTabclose},
		{"tabonly", 4, false, (*Engine).exTabonly},
		{"set", 2, false, (*Engine).exSet},
		{"nohlsearch", 3, false, (*Engine).exNohlsearch},
		{"registers", 3, false, (*Engine).exRegisters},
		{"display", 2, false, (*Engine).exRegisters},
		{"marks", 5, false, (*Engine).exMarks},
		{"delmarks", 4, false, (*Engine).exDelmarks},
		{"mark", 2, true, (*Engine).exMark},
		{"k", 1, true, (*Engine).exMark},
		{"undo", 1, false, (*Engine).exUndo},
		{"redo", 3, false, (*Engine).exRedo},
		{"delete", 1, true, (*Engine).exDelete},
		{"yank", 1, true, (*Engine).exYank},
		{"put", 2, true, (*Engine).exPut},
		{">", 1, true, (*Engine).exShift},
		{"<", 1, true, (*Engine).exShift},
		{"join", 1, true, (*Engine).exJoin},
		{"move", 1, true, (*Engine).exMove},
		{"copy", 2, true, (*Engine).exCopy},
		{"t", 1, true, (*Engine).exCopy},
		{"substitute", 1, true, (*Engine).exSubstitute},
		{"&", 1, true, (*Engine).exSubstitute},
		{"normal", 4, true, (*Engine).exNormal},
		{"saveas", 3, false, (*Engine).exSaveas},
		{"file", 1, false, (*Engine).exFile},
		{"=", 1, true, (*Engine).exLineNumber},
	}
}

func lookupEx(name string) (exCommand, bool) {
	for _, c := range exCommands {
		if c.name == name {
			return c, true
		}
	}
	for _, c := range exCommands {
		if len(name) >= c.min && strings.HasPrefix(c.name, name) {
			return c, true
		}
	}
	return exCommand{}, false
}

// execEx runs one : command line.
func (e *Engine) execEx(line string) {
	line = strings.TrimLeft(line, ": \t")
	if line == "" {
		return
	}
	e.cur.noDot = true
	var c exCall
	rest, ok := e.parseRange(line, &c)
	if !ok {
		return
	}
	last := e.text().LineCount() - 1
	name, rest := splitExName(rest)
	if name == "" {
		if strings.TrimSpace(rest) != "" {
			e.errorf("E492: Not an editor command: %s", line)
			return
		}
		if c.addrs > 0 {
			if c.line2 > last || c.line2 < -1 {
				e.errorf("E16: Invalid range")
				return
			}
			e.setPCMark()
			e.firstNonBlank(c.line2)
		}
		return
	}
	cmd, ok := lookupEx(name)
	if !ok && len(name) == 2 && name[0] == 'k' {
		cmd, _ = lookupEx("k")
		name, rest, ok = "k", name[1:]+rest, true
	}
	if !ok {
		logger.Debug("unknown ex command", "command", line)
		e.errorf("E492: Not an editor command: %s", line)
		return
	}
	if strings.HasPrefix(rest, "!") && name != "<" && name != ">" && name != "=" {
		c.bang = true
		rest = rest[1:]
	}
	c.name = name
	c.arg = strings.TrimLeft(rest, " \t")
	if c.addrs > 0 && !cmd.ranged {
		e.errorf("E481: No range allowed")
		return
	}
	if c.addrs == 0 {
		c.line1 = e.cursor().Line
		c.line2 = c.line1
	}
	if c.line1 > c.line2 {
		c.line1, c.line2 = c.line2, c.line1
	}
	if c.line1 < -1 || c.line2 > last {
		e.errorf("E16: Invalid range")
		return
	}
	if cmd.name != "put" {
		c.line1 = max(c.line1, 0)
		c.line2 = max(c.line2, 0)
	}
	cmd.run(e, c)
}

// parseRange reads the addresses in front of a command name into c.
func (e *Engine) parseRange(s string, c *exCall) (string, bool) {
	cur := e.cursor().Line
	s = strings.TrimLeft(s, " \t")
	if strings.HasPrefix(s, "%") {
		c.line1, c.line2, c.addrs = 0, e.text().LineCount()-1, 2
		return s[1:], true
	}
	afterSep := false
	for {
		line, rest, found, ok := e.parseAddress(s, cur)
		if !ok {
			return "", false
		}
		s = strings.TrimLeft(rest, " \t")
		sep := s != "" && (s[0] == ',' || s[0] == ';')
		if !found && !sep && !afterSep {
			break
		}
		if !found {
			line = cur
		}
		c.line1, c.line2 = c.line2, line
		c.addrs++
		if !sep {
			break
		}
		if s[0] == ';' {
			cur = line
		}
		s = s[1:]
		afterSep = true
	}
	if c.addrs == 1 {
		c.line1 = c.line2
	}
	return s, true
}

// parseAddress reads one address with its +N and -N offsets. found is false
// when s does not start with one.
func (e *Engine) parseAddress(s string, cur int) (line int, rest string, found, ok bool) {
	line = cur
	switch {
	case s == "":
		return cur, s, false, true
	case isDigit(s[0]):
		n, r := leadingNumber(s)
		line, s, found = n-1, r, true
	case s[0] == '.':
		s, found = s[1:], true
	case s[0] == '$':
		line, s, found = e.text().LineCount()-1, s[1:], true
	case s[0] == '\'':
		if len(s) < 2 {
			e.errorf("E20: Mark not set")
			return 0, "", false, false
		}
		name, size := utf8.DecodeRuneInString(s[1:])
		id, p, ok := e.markPos(name)
		if !ok {
			return 0, "", false, false
		}
		if id != e.view().Buffer {
			e.errorf("E20: Mark not set")
			return 0, "", false, false
		}
		line, s, found = p.Line, s[1+size:], true
	case s[0] == '/' || s[0] == '?':
		l, r, ok := e.patternAddress(s, cur)
		if !ok {
			return 0, "", false, false
		}
		line, s, found = l, r, true
	}
	for s != "" && (s[0] == '+' || s[0] == '-') {
		sign := 1
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
		n := 1
		if s != "" && isDigit(s[0]) {
			n, s = leadingNumber(s)
		}
		line += sign * n
		found = true
	}
	return line, s, found, true
}

// patternAddress is /pat/ and ?pat?: the next or previous line matching.
func (e *Engine) patternAddress(s string, cur int) (int, string, bool) {
	delim := rune(s[0])
	forward := delim == '/'
	pat := searchPattern(s[1:], delim)
	rest := s[1+len(pat):]
	if rest != "" {
		rest = rest[1:]
	}
	if pat == "" {
		pat = e.srch.pattern
	} else {
		e.setSearch(pat, forward)
	}
	if pat == "" {
		e.errorf("E35: No previous regular expression")
		return 0, "", false
	}
	re, err := e.compileSearch(pat)
	if err != nil {
		e.errorf("E383: Invalid search string: %s", pat)
		return 0, "", false
	}
	from := textbuf.Position{Line: cur}
	if forward {
		from.Col = e.text().LineLen(cur)
	}
	m, _, ok := e.findMatch(re, from, forward)
	if !ok {
		e.errorf("E486: Pattern not found: %s", pat)
		return 0, "", false
	}
	return m.Start.Line, rest, true
}

func splitExName(s string) (string, string) {
	if s == "" {
		return "", ""
	}
	switch r := s[0]; {
	case isLetter(r):
		i := 0
		for i < len(s) && isLetter(s[i]) {
			i++
		}
		return s[:i], s[i:]
	case r == '<' || r == '>':
		i := 0
		for i < len(s) && s[i] == r {
			i++
		}
		return s[:i], s[i:]
	case r == '&' || r == '=':
		return s[:1], s[1:]
	}
	return "", s
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// leadingNumber parses the digits at the start of s, which must have one.
func leadingNumber(s string) (int, string) {
	n, i := 0, 0
	for i < len(s) && isDigit(s[i]) {
		if n < 1<<30 {
			n = n*10 + int(s[i]-'0')
		}
		i++
	}
	return n, s[i:]
}

// countArg reads a trailing [count]: the range becomes count lines from its
// last line.
func (e *Engine) countArg(c *exCall, arg string) bool {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return true
	}
	n, err := strconv.Atoi(arg)
	switch {
	case err != nil:
		e.errorf("E488: Trailing characters: %s", arg)
		return false
	case n <= 0:
		e.errorf("E939: Positive count required")
		return false
	}
	c.line1 = c.line2
	c.line2 = min(c.line1+n-1, e.text().LineCount()-1)
	return true
}

// registerArg reads the optional [x] of :d :y and :put.
func registerArg(arg string) (rune, string) {
	arg = strings.TrimSpace(arg)
	if arg == "" || isDigit(arg[0]) {
		return 0, arg
	}
	r, size := utf8.DecodeRuneInString(arg)
	return r, arg[size:]
}

func (e *Engine) exWrite(c exCall) {
	e.writeBuffer(c)
}

// writeBuffer saves the range, the whole buffer by default, to the argument
// or to the buffer's own file. It reports whether a save was requested.
func (e *Engine) writeBuffer(c exCall) bool {
	st := e.buf()
	path := strings.TrimSpace(c.arg)
	last := st.Text.LineCount() - 1
	whole := c.addrs == 0 || (c.line1 == 0 && c.line2 == last)
	if path == "" {
		if st.Path == "" {
			e.errorf("E32: No file name")
			return false
		}
		if !whole && !c.bang {
			e.errorf("E140: Use ! to write partial buffer")
			return false
		}
		path = st.Path
	}
	copyTo := !whole
	switch {
	case st.Path == "":
		st.Path = path
		e.regs.SetReadOnly(register.FileName, path)
	case filepath.Clean(path) != filepath.Clean(st.Path):
		copyTo = true
	}
	content := fileContent(st.Text)
	if !whole {
		content = strings.Join(st.Text.Lines()[c.line1:c.line2+1], "\n") + "\n"
	}
	e.emit(SaveBuffer{Buffer: st.ID, Path: path, Content: content, Copy: copyTo})
	return true
}

func (e *Engine) exWriteQuit(c exCall) {
	if e.writeBuffer(c) {
		e.quitWindow(true)
	}
}

// exXit writes only when there are changes.
func (e *Engine) exXit(c exCall) {
	if e.buf().Dirty() || c.arg != "" {
		if !e.writeBuffer(c) {
			return
		}
	}
	e.quitWindow(true)
}

func (e *Engine) exWriteAll(exCall) {
	e.writeAll()
}

func (e *Engine) writeAll() bool {
	for _, st := range e.bufs.List() {
		if !st.Dirty() {
			continue
		}
		if st.Path == "" {
			e.errorf("E141: No file name for buffer %d", st.ID)
			return false
		}
		e.emit(SaveBuffer{Buffer: st.ID, Path: st.Path, Content: fileContent(st.Text)})
	}
	return true
}

func fileContent(t *textbuf.Buffer) string {
	if t.LineCount() == 1 && t.LineLen(0) == 0 {
		return ""
	}
	return t.String() + "\n"
}

func (e *Engine) exWriteQuitAll(exCall) {
	if e.writeAll() {
		e.emit(QuitAll{})
	}
}

func (e *Engine) exQuit(c exCall) {
	e.quitWindow(c.bang)
}

// quitWindow is :q. A buffer with changes that no other window shows keeps
// its window open unless forced.
func (e *Engine) quitWindow(force bool) {
	st := e.buf()
	if !force && st.Dirty() && e.windowsShowing(st.ID) == 1 {
		e.errorf("E37: No write since last change (add ! to override)")
		return
	}
	if !force && len(e.views) == 1 {
		for _, other := range e.bufs.List() {
			if other.Dirty() {
				e.errorf("E162: No write since last change for buffer %q", other.Name())
				return
			}
		}
	}
	e.closeWindow(e.win())
}

func (e *Engine) exQuitAll(c exCall) {
	if !c.bang {
		for _, st := range e.bufs.List() {
			if st.Dirty() {
				e.errorf("E162: No write since last change for buffer %q", st.Name())
				return
			}
		}
	}
	e.emit(QuitAll{})
}

// exEdit is :e. Without a file name it rereads the current one.
func (e *Engine) exEdit(c exCall) {
	name := strings.TrimSpace(c.arg)
	if name != "" {
		e.editFile(name)
		return
	}
	st := e.buf()
	if st.Path == "" {
		e.errorf("E32: No file name")
		return
	}
	if st.Dirty() && !c.bang {
		e.errorf("E37: No write since last change (add ! to override)")
		return
	}
	e.reload[st.ID] = true
	e.emit(OpenFile{Path: st.Path})
}

func (e *Engine) exEnew(exCall) {
	st := e.bufs.Create("", "")
	e.showBuffer(st.ID)
}

// exNew is :new and :vnew: a split on a new empty buffer.
func (e *Engine) exNew(c exCall) {
	orient := layout.Stacked
	if c.name[0] == 'v' {
		orient = layout.SideBySide
	}
	st := e.bufs.Create("", "")
	if !e.split(orient, view.New(st.ID)) {
		return
	}
	if name := strings.TrimSpace(c.arg); name != "" {
		e.editFile(name)
	}
}

func (e *Engine) exSplit(c exCall) {
	orient := layout.Stacked
	if c.name[0] == 'v' {
		orient = layout.SideBySide
	}
	if !e.split(orient, e.view().Clone()) {
		return
	}
	if name := strings.TrimSpace(c.arg); name != "" {
		e.editFile(name)
	}
}

func (e *Engine) exClose(exCall) {
	if len(e.views) == 1 {
		e.errorf("E444: Cannot close last window")
		return
	}
	e.closeWindow(e.win())
}

func (e *Engine) exOnly(exCall) {
	e.onlyWindow()
}

// exBufferCycle is :bnext, :bprevious and :bNext with an optional count.
func (e *Engine) exBufferCycle(c exCall) {
	n := 1
	if arg := strings.TrimSpace(c.arg); arg != "" {
		v, err := strconv.Atoi(arg)
		if err != nil || v <= 0 {
			e.errorf("E488: Trailing characters: %s", arg)
			return
		}
		n = v
	}
	if c.name[1] != 'n' {
		n = -n
	}
	if id, ok := e.bufs.Cycle(e.view().Buffer, n); ok {
		e.showBuffer(id)
	}
}

// exBuffer is :b N or :b name, where name may be any unique part of a
// buffer name.
func (e *Engine) exBuffer(c exCall) {
	arg := strings.TrimSpace(c.arg)
	if arg == "" {
		return
	}
	if n, err := strconv.Atoi(arg); err == nil {
		if _, ok := e.bufs.Get(buffers.ID(n)); !ok {
			e.errorf("E86: Buffer %d does not exist", n)
			return
		}
		e.showBuffer(buffers.ID(n))
		return
	}
	var found []buffers.ID
	for _, st := range e.bufs.List() {
		if st.Path == arg {
			found = []buffers.ID{st.ID}
			break
		}
		if strings.Contains(st.Name(), arg) {
			found = append(found, st.ID)
		}
	}
	switch len(found) {
	case 0:
		e.errorf("E94: No matching buffer for %s", arg)
	case 1:
		e.showBuffer(found[0])
	default:
		e.errorf("E93: More than one match for %s", arg)
	}
}

func (e *Engine) exBdelete(c exCall) {
	id := e.view().Buffer
	if arg := strings.TrimSpace(c.arg); arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil {
			e.errorf("E94: No matching buffer for %s", arg)
			return
		}
		id = buffers.ID(n)
	}
	st, ok := e.bufs.Get(id)
	if !ok {
		e.errorf("E516: No buffers were deleted")
		return
	}
	if st.Dirty() && !c.bang {
		e.errorf("E89: No write since last change for buffer %d (add ! to override)", id)
		return
	}
	e.deleteBuffer(id)
}

// exLs lists the buffers: % is the current one, a one shown in a window,
// h a hidden one and + one with changes.
func (e *Engine) exLs(exCall) {
	cur := e.view().Buffer
	var out []string
	for _, st := range e.bufs.List() {
		flag := " "
		if st.ID == cur {
			flag = "%"
		}
		state := "h"
		if e.windowsShowing(st.ID) > 0 {
			state = "a"
		}
		mod := " "
		if st.Dirty() {
			mod = "+"
		}
		line := e.cursorIn(st.ID).Line + 1
		out = append(out, fmt.Sprintf("%3d %s%s %s %-30q line %d", st.ID, flag, state, mod, st.Name(), line))
	}
	e.message("%s", strings.Join(out, "\n"))
}

func (e *Engine) exTabnew(c exCall) {
	st := e.bufs.Create("", "")
	e.newTab(st.ID)
	if name := strings.TrimSpace(c.arg); name != "" {
		e.editFile(name)
	}
}

// exTabnext is :tabn, or :tabn N for tab N.
func (e *Engine) exTabnext(c exCall) {
	arg := strings.TrimSpace(c.arg)
	if arg == "" {
		e.tabs.Next(1)
		return
	}
	n, err := strconv.Atoi(arg)
	if err == nil {
		err = e.tabs.SetActive(n - 1)
	}
	if err != nil {
		e.errorf("E475: Invalid argument: %s", arg)
	}
}

func (e *Engine) exTabprev(c exCall) {
	n := 1
	if arg := strings.TrimSpace(c.arg); arg != "" {
		v, err := strconv.Atoi(arg)
		if err != nil || v <= 0 {
			e.errorf("E475: Invalid argument: %s", arg)
			return
		}
		n = v
	}
	e.tabs.Prev(n)
}

func (e *Engine) exTabclose(exCall) {
	if e.tabs.Len() == 1 {
		e.errorf("E784: Cannot close last tab page")
		return
	}
	e.closeTab(e.tabs.Index())
}

func (e *Engine) exTabonly(exCall) {
	keep := e.tabs.Active()
	for i := e.tabs.Len() - 1; i >= 0; i-- {
		if e.tabs.All()[i] != keep {
			e.closeTab(i)
		}
	}
}

// exSet applies each :set argument in turn and stops at the first error.
func (e *Engine) exSet(c exCall) {
	args := strings.Fields(c.arg)
	if len(args) == 0 || (len(args) == 1 && args[0] == "all") {
		var out []string
		for _, name := range config.Names() {
			if s, err := e.opts.Show(name); err == nil {
				out = append(out, s)
			}
		}
		e.message("%s", strings.Join(out, "\n"))
		return
	}
	var out []string
	defer func() {
		e.applyOptions()
		if len(out) > 0 {
			e.message("%s", strings.Join(out, " "))
		}
	}()
	for _, a := range args {
		s, err := e.opts.Set(a)
		switch {
		case errors.Is(err, config.ErrUnknownOption):
			e.errorf("E518: Unknown option: %s", a)
			return
		case errors.Is(err, config.ErrNumberRequired):
			e.errorf("E521: Number required after =: %s", a)
			return
		case err != nil:
			e.errorf("E474: Invalid argument: %s", a)
			return
		}
		if s != "" {
			out = append(out, s)
		}
	}
}

// applyOptions copies the live options into the buffers and the macro
// limits.
func (e *Engine) applyOptions() {
	bo := bufferOptions(e.opts)
	e.bufs.Defaults = bo
	for _, st := range e.bufs.List() {
		st.Options = bo
	}
	e.queue.MaxDepth = e.opts.MacroDepth
	e.queue.MaxKeys = e.opts.MacroKeyLimit
}

func (e *Engine) exNohlsearch(exCall) {
	e.srch.highlight = false
}

func (e *Engine) exRegisters(c exCall) {
	filter := strings.ReplaceAll(c.arg, " ", "")
	out := []string{"Type Name Content"}
	for _, name := range e.regs.Names() {
		if filter != "" && !strings.ContainsRune(filter, name) {
			continue
		}
		reg, err := e.regs.Get(name)
		if err != nil || reg.Empty() {
			continue
		}
		kind := "c"
		switch reg.Kind {
		case register.Linewise:
			kind = "l"
		case register.Blockwise:
			kind = "b"
		}
		out = append(out, fmt.Sprintf("  %s  \"%c   %s", kind, name, oneLine(reg.Text)))
	}
	e.message("%s", strings.Join(out, "\n"))
}

func (e *Engine) exMarks(c exCall) {
	filter := strings.ReplaceAll(c.arg, " ", "")
	st := e.buf()
	out := []string{"mark line  col file/text"}
	row := func(name rune, p textbuf.Position, text string) {
		if filter != "" && !strings.ContainsRune(filter, name) {
			return
		}
		out = append(out, fmt.Sprintf(" %c %6d %4d %s", name, p.Line+1, p.Col, text))
	}
	lineText := func(t *textbuf.Buffer, line int) string {
		if line >= t.LineCount() {
			return ""
		}
		return strings.TrimSpace(t.Line(line))
	}
	for _, name := range slices.Sorted(maps.Keys(st.Marks)) {
		if name >= 'a' && name <= 'z' || name == '\'' {
			row(name, st.Marks[name], lineText(st.Text, st.Marks[name].Line))
		}
	}
	for _, name := range slices.Sorted(maps.Keys(e.marks)) {
		gm := e.marks[name]
		other, ok := e.bufs.Get(gm.buffer)
		if !ok {
			continue
		}
		text := other.Name()
		if other.ID == st.ID {
			text = lineText(st.Text, gm.pos.Line)
		}
		row(name, gm.pos, text)
	}
	for _, name := range `"[]^.<>` {
		if p, ok := st.Marks[name]; ok {
			row(name, p, lineText(st.Text, p.Line))
		}
	}
	e.message("%s", strings.Join(out, "\n"))
}

// exDelmarks is :delm {marks}, where a-d stands for a range, and :delm! for
// every lowercase mark.
func (e *Engine) exDelmarks(c exCall) {
	st := e.buf()
	if c.bang {
		for name := range st.Marks {
			if name >= 'a' && name <= 'z' {
				delete(st.Marks, name)
			}
		}
		return
	}
	arg := []rune(strings.ReplaceAll(c.arg, " ", ""))
	if len(arg) == 0 {
		e.errorf("E471: Argument required")
		return
	}
	del := func(name rune) {
		if name >= 'A' && name <= 'Z' {
			delete(e.marks, name)
			return
		}
		delete(st.Marks, name)
	}
	for i := 0; i < len(arg); i++ {
		if i+2 < len(arg) && arg[i+1] == '-' {
			from, to := arg[i], arg[i+2]
			if to < from || unicode.IsLower(from) != unicode.IsLower(to) {
				e.errorf("E475: Invalid argument: %s", string(arg[i:i+3]))
				return
			}
			for r := from; r <= to; r++ {
				del(r)
			}
			i += 2
			continue
		}
		del(arg[i])
	}
}

// exMark is :mark x and :k x, at column 0 of the last line of the range.
func (e *Engine) exMark(c exCall) {
	arg := []rune(strings.TrimSpace(c.arg))
	if len(arg) == 0 {
		e.errorf("E471: Argument required")
		return
	}
	if len(arg) > 1 {
		e.errorf("E488: Trailing characters: %s", string(arg[1:]))
		return
	}
	st := e.buf()
	p := textbuf.Position{Line: c.line2}
	switch name := arg[0]; {
	case name >= 'a' && name <= 'z', name == '<', name == '>', name == '[', name == ']':
		st.Marks[name] = p
	case name == '\'' || name == '`':
		st.Marks['\''] = p
	case name >= 'A' && name <= 'Z':
		e.marks[name] = globalMark{buffer: st.ID, pos: p}
	default:
		e.errorf("E191: Argument must be a letter or forward/backward quote")
	}
}

func (e *Engine) exUndo(exCall) {
	e.undo(1)
}

func (e *Engine) exRedo(exCall) {
	e.redo(1)
}

func lineSpan(c exCall) span {
	return span{start: textbuf.Position{Line: c.line1}, end: textbuf.Position{Line: c.line2}, kind: register.Linewise}
}

func (e *Engine) exDelete(c exCall) {
	reg, rest := registerArg(c.arg)
	if !e.countArg(&c, rest) {
		return
	}
	e.deleteSpan(lineSpan(c), reg, false)
}

// exYank leaves the cursor where it is.
func (e *Engine) exYank(c exCall) {
	reg, rest := registerArg(c.arg)
	if !e.countArg(&c, rest) {
		return
	}
	v := e.view()
	cursor, want := v.Cursor, v.Want
	e.yank(lineSpan(c), reg)
	v.Cursor, v.Want = cursor, want
}

// exPut always puts whole lines, below the addressed line or above it with
// the bang.
func (e *Engine) exPut(c exCall) {
	name, rest := registerArg(c.arg)
	if strings.TrimSpace(rest) != "" {
		e.errorf("E488: Trailing characters: %s", rest)
		return
	}
	if name == 0 {
		name = register.Unnamed
	}
	reg, err := e.regs.Get(name)
	if err != nil {
		e.registerError(err, name)
		return
	}
	if reg.Empty() {
		e.errorf("E353: Nothing in register %c", name)
		return
	}
	at := c.line2 + 1
	if c.bang {
		at = max(c.line2, 0)
	}
	lines := reg.Lines()
	e.insertLines(at, lines)
	e.firstNonBlank(at + len(lines) - 1)
}

// exShift is :> and :<; each repeated character shifts one more time.
func (e *Engine) exShift(c exCall) {
	if !e.countArg(&c, c.arg) {
		return
	}
	e.shiftLines(c.line1, c.line2, c.name[0] == '>', len(c.name))
	e.firstNonBlank(c.line2)
}

func (e *Engine) exJoin(c exCall) {
	arg := strings.TrimSpace(c.arg)
	switch {
	case arg != "":
		if !e.countArg(&c, arg) {
			return
		}
	case c.addrs < 2 || c.line1 == c.line2:
		if c.addrs == 2 {
			return
		}
		c.line2 = c.line1 + 1
	}
	e.join(c.line1, c.line2-c.line1+1, !c.bang)
}

// destination parses the target address of :m and :t.
func (e *Engine) destination(arg string) (int, bool) {
	dest, rest, found, ok := e.parseAddress(strings.TrimSpace(arg), e.cursor().Line)
	if !ok {
		return 0, false
	}
	if !found || strings.TrimSpace(rest) != "" {
		e.errorf("E14: Invalid address")
		return 0, false
	}
	if dest < -1 || dest > e.text().LineCount()-1 {
		e.errorf("E16: Invalid range")
		return 0, false
	}
	return dest, true
}

// exMove is :m {address}: the lines go below the address.
func (e *Engine) exMove(c exCall) {
	dest, ok := e.destination(c.arg)
	if !ok {
		return
	}
	if dest >= c.line1 && dest < c.line2 {
		e.errorf("E134: Cannot move a range of lines into itself")
		return
	}
	lines := e.text().Lines()[c.line1 : c.line2+1]
	n := len(lines)
	switch {
	case dest == c.line2 || dest == c.line1-1:
		e.firstNonBlank(c.line2)
		return
	case dest > c.line2:
		e.insertLines(dest+1, lines)
		e.deleteLines(c.line1, c.line2)
		e.firstNonBlank(dest)
	default:
		e.deleteLines(c.line1, c.line2)
		e.insertLines(dest+1, lines)
		e.firstNonBlank(dest + n)
	}
	if n > 2 {
		e.message("%d lines moved", n)
	}
}

func (e *Engine) exCopy(c exCall) {
	dest, ok := e.destination(c.arg)
	if !ok {
		return
	}
	lines := e.text().Lines()[c.line1 : c.line2+1]
	e.insertLines(dest+1, lines)
	e.firstNonBlank(dest + len(lines))
}

func (e *Engine) exLineNumber(c exCall) {
	line := e.text().LineCount()
	if c.addrs > 0 {
		line = c.line2 + 1
	}
	e.message("%d", line)
}

func (e *Engine) exSaveas(c exCall) {
	name := strings.TrimSpace(c.arg)
	if name == "" {
		e.errorf("E471: Argument required")
		return
	}
	st := e.buf()
	st.Path = name
	e.regs.SetReadOnly(register.FileName, name)
	e.writeBuffer(exCall{})
}

// exFile shows the file info, or renames the buffer.
func (e *Engine) exFile(c exCall) {
	if name := strings.TrimSpace(c.arg); name != "" {
		st := e.buf()
		st.Path = name
		e.regs.SetReadOnly(register.FileName, name)
	}
	e.fileInfo()
}

// exNormal runs its argument as Normal-mode keys, once per line of the range
// when one is given. The keys are taken literally.
func (e *Engine) exNormal(c exCall) {
	if c.arg == "" {
		e.errorf("E471: Argument required")
		return
	}
	if e.depth >= e.queue.MaxDepth {
		e.errorf("E169: Command too recursive")
		return
	}
	var ks []keys.Key
	for _, r := range c.arg {
		ks = append(ks, keys.Rune(r))
	}
	if c.addrs == 0 {
		e.runNormal(ks, !c.bang)
		return
	}
	for l := c.line1; l <= c.line2 && l < e.text().LineCount(); l++ {
		e.setCursor(textbuf.Position{Line: l})
		e.runNormal(ks, !c.bang)
	}
}

// runNormal executes ks as typed keys. A command left unfinished is ended as
// if <Esc> were typed.
func (e *Engine) runNormal(ks []keys.Key, remap bool) {
	outer, depth, failed := e.cur, e.depth, e.failed
	e.cur = change{}
	keep := e.queue.Len()
	for _, k := range ks {
		if remap {
			e.feed(k, depth+1, false)
		} else {
			e.depth = depth + 1
			e.step(k)
		}
		e.drain(keep)
		if e.failed {
			break
		}
	}
	for i := 0; i < 3 && (e.mode != ModeNormal || !e.pend.idle()); i++ {
		e.step(keys.Esc)
	}
	e.cur, e.depth, e.failed = outer, depth, failed
}
