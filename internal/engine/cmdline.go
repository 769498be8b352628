package engine

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kobzarvs/qvim/internal/keys"
	mo "github.com/kobzarvs/qvim/internal/motion"
	"github.com/kobzarvs/qvim/internal/register"
	"github.com/kobzarvs/qvim/internal/view"
)

// cmdline is the : / ? input line.
type cmdline struct {
	kind     rune
	text     []rune
	pos      int
	prevMode Mode
	regWait  bool
	// histIndex is -1 until Up or Down starts walking the history.
	histIndex  int
	histPrefix string
	history    map[rune][]string
}

// CommandLine is what the bottom line shows while : / or ? is open.
type CommandLine struct {
	Active bool
	Prefix rune
	Text   string
	// Cursor is the display column of the cursor within Text.
	Cursor int
}

func (e *Engine) CommandLine() CommandLine {
	if e.mode != ModeCommand && e.mode != ModeSearch {
		return CommandLine{}
	}
	return CommandLine{
		Active: true,
		Prefix: e.cmd.kind,
		Text:   string(e.cmd.text),
		Cursor: view.DisplayColumn(e.cmd.text, e.cmd.pos, e.opts.TabWidth),
	}
}

// startCommandLine is : from Normal mode. A count becomes a range over that
// many lines.
func (e *Engine) startCommandLine(count int, has bool) {
	initial := ""
	switch {
	case has && count == 1:
		initial = "."
	case has:
		initial = fmt.Sprintf(".,.+%d", count-1)
	}
	e.startCmdline(':', initial)
}

func (e *Engine) startCmdline(kind rune, initial string) {
	e.cmd.prevMode = e.mode
	e.cmd.kind = kind
	e.cmd.text = []rune(initial)
	e.cmd.pos = len(e.cmd.text)
	e.cmd.histIndex = -1
	e.cmd.regWait = false
	if kind == ':' {
		e.mode = ModeCommand
	} else {
		e.mode = ModeSearch
	}
}

func histKey(kind rune) rune {
	if kind == ':' {
		return ':'
	}
	return '/'
}

// addHistory moves line to the newest history slot, dropping older copies
// and the oldest entries past history-size.
func (e *Engine) addHistory(kind rune, line string) {
	if line == "" {
		return
	}
	if e.cmd.history == nil {
		e.cmd.history = make(map[rune][]string)
	}
	k := histKey(kind)
	h := slices.DeleteFunc(e.cmd.history[k], func(s string) bool { return s == line })
	h = append(h, line)
	if limit := e.opts.HistorySize; limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	e.cmd.history[k] = h
}

func (e *Engine) cmdlineKey(k keys.Key) {
	c := &e.cmd
	if c.regWait {
		c.regWait = false
		switch {
		case k.IsCtrl('w'):
			e.cmdlineInsert(e.cmdlineWord())
		case k.IsRune():
			e.cmdlineRegister(k.Rune)
		}
		e.cmdlineChanged()
		return
	}
	switch {
	case k.IsEscape(), k.IsCtrl('c'):
		e.cancelCmdline()
		return
	case k.IsEnter():
		e.submitCmdline()
		return
	case k.IsBackspace():
		if len(c.text) == 0 {
			e.cancelCmdline()
			return
		}
		if c.pos > 0 {
			c.text = slices.Delete(c.text, c.pos-1, c.pos)
			c.pos--
		}
		c.histIndex = -1
	case k == keys.Delete:
		if c.pos < len(c.text) {
			c.text = slices.Delete(c.text, c.pos, c.pos+1)
		}
		c.histIndex = -1
	case k == keys.Left, k.IsCtrl('b'):
		c.pos = max(c.pos-1, 0)
		return
	case k == keys.Right, k.IsCtrl('f'):
		c.pos = min(c.pos+1, len(c.text))
		return
	case k == keys.Home, k.IsCtrl('a'):
		c.pos = 0
		return
	case k == keys.End, k.IsCtrl('e'):
		c.pos = len(c.text)
		return
	case k == keys.Up, k.IsCtrl('p'):
		e.historyUp()
	case k == keys.Down, k.IsCtrl('n'):
		e.historyDown()
	case k.IsCtrl('u'):
		c.text = slices.Delete(c.text, 0, c.pos)
		c.pos = 0
		c.histIndex = -1
	case k.IsCtrl('k'):
		c.text = c.text[:c.pos]
		c.histIndex = -1
	case k.IsCtrl('w'):
		i := c.pos
		for i > 0 && c.text[i-1] == ' ' {
			i--
		}
		if i > 0 {
			word := mo.IsWordRune(c.text[i-1])
			for i > 0 && c.text[i-1] != ' ' && mo.IsWordRune(c.text[i-1]) == word {
				i--
			}
		}
		c.text = slices.Delete(c.text, i, c.pos)
		c.pos = i
		c.histIndex = -1
	case k.IsCtrl('r'):
		c.regWait = true
		return
	case k == keys.Tab:
		e.cmdlineInsert("\t")
	case k.IsRune():
		e.cmdlineInsert(string(k.Rune))
	default:
		return
	}
	e.cmdlineChanged()
}

func (e *Engine) cmdlineInsert(s string) {
	c := &e.cmd
	rs := []rune(s)
	c.text = slices.Insert(c.text, c.pos, rs...)
	c.pos += len(rs)
	c.histIndex = -1
}

// cmdlineRegister is <C-r>{reg}; line breaks show as ^M.
func (e *Engine) cmdlineRegister(name rune) {
	reg, err := e.regs.Get(name)
	if err != nil {
		return
	}
	text := strings.TrimSuffix(reg.Text, "\n")
	e.cmdlineInsert(strings.ReplaceAll(text, "\n", "\r"))
}

func (e *Engine) cmdlineWord() string {
	runes := e.text().LineRunes(e.cursor().Line)
	s, en, ok := mo.WordUnder(runes, e.cursor().Col)
	if !ok {
		return ""
	}
	return string(runes[s:en])
}

func (e *Engine) historyUp() {
	c := &e.cmd
	h := c.history[histKey(c.kind)]
	if len(h) == 0 {
		return
	}
	if c.histIndex == -1 {
		c.histPrefix = string(c.text)
		c.histIndex = len(h)
	}
	for i := c.histIndex - 1; i >= 0; i-- {
		if strings.HasPrefix(h[i], c.histPrefix) {
			c.histIndex = i
			c.text = []rune(h[i])
			c.pos = len(c.text)
			return
		}
	}
}

func (e *Engine) historyDown() {
	c := &e.cmd
	if c.histIndex == -1 {
		return
	}
	h := c.history[histKey(c.kind)]
	for i := c.histIndex + 1; i < len(h); i++ {
		if strings.HasPrefix(h[i], c.histPrefix) {
			c.histIndex = i
			c.text = []rune(h[i])
			c.pos = len(c.text)
			return
		}
	}
	c.histIndex = -1
	c.text = []rune(c.histPrefix)
	c.pos = len(c.text)
}

// cmdlineChanged refreshes the incremental search preview.
func (e *Engine) cmdlineChanged() {
	if e.mode == ModeSearch {
		e.previewSearch()
	}
}

func (e *Engine) cancelCmdline() {
	kind := e.cmd.kind
	e.mode = e.cmd.prevMode
	e.cmd.text = nil
	e.cmd.pos = 0
	if kind != ':' {
		e.cancelSearch()
	}
}

func (e *Engine) submitCmdline() {
	c := &e.cmd
	line := string(c.text)
	kind := c.kind
	e.addHistory(kind, line)
	e.mode = c.prevMode
	c.text = nil
	c.pos = 0
	if kind == ':' {
		if strings.TrimSpace(line) != "" {
			e.regs.SetReadOnly(register.LastCmd, line)
			e.lastEx = line
		}
		e.execEx(line)
		return
	}
	e.finishSearch(line, kind == '/')
}
