// Package engine is the modal key dispatcher. It turns key presses into
// buffer edits, cursor motion and mode changes, and reports what the front
// end has to do (write files, open files, quit) as Actions.
package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kobzarvs/qvim/internal/buffers"
	"github.com/kobzarvs/qvim/internal/clipboard"
	"github.com/kobzarvs/qvim/internal/config"
	"github.com/kobzarvs/qvim/internal/keys"
	"github.com/kobzarvs/qvim/internal/layout"
	"github.com/kobzarvs/qvim/internal/logger"
	"github.com/kobzarvs/qvim/internal/macro"
	mo "github.com/kobzarvs/qvim/internal/motion"
	"github.com/kobzarvs/qvim/internal/register"
	"github.com/kobzarvs/qvim/internal/session"
	"github.com/kobzarvs/qvim/internal/textbuf"
	"github.com/kobzarvs/qvim/internal/view"
)

type Mode int

const (
	ModeNormal Mode = iota
	ModeInsert
	ModeReplace
	ModeVisual
	ModeVisualLine
	ModeVisualBlock
	ModeCommand
	ModeSearch
)

func (m Mode) String() string {
	switch m {
	case ModeInsert:
		return "INSERT"
	case ModeReplace:
		return "REPLACE"
	case ModeVisual:
		return "VISUAL"
	case ModeVisualLine:
		return "VISUAL LINE"
	case ModeVisualBlock:
		return "VISUAL BLOCK"
	case ModeCommand:
		return "COMMAND"
	case ModeSearch:
		return "SEARCH"
	default:
		return "NORMAL"
	}
}

func (m Mode) IsVisual() bool {
	return m == ModeVisual || m == ModeVisualLine || m == ModeVisualBlock
}

// maxCount caps numeric prefixes.
const maxCount = 10000

type Option func(*Engine)

// WithClipboard backs the + and * registers. The default keeps them in
// memory.
func WithClipboard(c register.Clipboard) Option {
	return func(e *Engine) { e.clip = c }
}

// WithSize sets the screen size in cells, command line included.
func WithSize(width, height int) Option {
	return func(e *Engine) {
		e.width, e.height = width, height
	}
}

type globalMark struct {
	buffer buffers.ID
	pos    textbuf.Position
}

// change is the key sequence of one Normal-mode command, kept for dot
// repeat. Counts and the register prefix are stored apart so a new count
// can replace them.
type change struct {
	keys    []keys.Key
	count   int
	reg     rune
	changed bool
	noDot   bool
}

// Engine is one editor instance. It is not safe for concurrent use; the
// front end feeds it from a single goroutine.
type Engine struct {
	opts      config.Options
	bufs      *buffers.Registry
	views     map[layout.WindowID]*view.View
	nextWin   layout.WindowID
	tabs      layout.Tabs
	regs      *register.Bank
	clip      register.Clipboard
	rec       *macro.Recorder
	queue     *macro.Queue
	normalMap map[keys.Key][]keys.Key
	visualMap map[keys.Key][]keys.Key

	mode Mode
	pend pending
	ins  insertState
	vis  visualState
	cmd  cmdline
	srch searchState
	find findState
	sub  substitution

	marks   map[rune]globalMark
	cur     change
	dot     change
	lastEx  string
	depth   int
	failed  bool
	actions []Action
	msg     string
	msgErr  bool

	width, height int
	touched       map[buffers.ID]bool
	restore       map[string]session.FileState
	jump          *JumpExternal
	scratch       buffers.ID
	reload        map[buffers.ID]bool
}

func New(cfg config.Config, opts ...Option) *Engine {
	e := &Engine{
		views:   make(map[layout.WindowID]*view.View),
		marks:   make(map[rune]globalMark),
		touched: make(map[buffers.ID]bool),
		restore: make(map[string]session.FileState),
		reload:  make(map[buffers.ID]bool),
		width:   80,
		height:  24,
		clip:    &clipboard.Memory{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.opts = cfg.Editor
	e.bufs = buffers.NewRegistry(bufferOptions(cfg.Editor), cfg.Editor.UndoLevels)
	e.regs = register.NewBank(e.clip)
	e.rec = macro.NewRecorder()
	e.queue = macro.NewQueue(cfg.Editor.MacroDepth, cfg.Editor.MacroKeyLimit)
	e.setKeymaps(cfg.Keymap)
	e.srch.forward = true

	st := e.bufs.Create("", "")
	e.scratch = st.ID
	win := e.newWindow(view.New(st.ID))
	e.tabs.Add(layout.NewTab(win))
	return e
}

func bufferOptions(o config.Options) buffers.Options {
	return buffers.Options{
		TabWidth:   o.TabWidth,
		ShiftWidth: o.ShiftWidth,
		ExpandTab:  o.ExpandTab,
		AutoIndent: o.AutoIndent,
	}
}

// setKeymaps parses the configured mappings. Entries whose left-hand side is
// not a single key are skipped and logged.
func (e *Engine) setKeymaps(km config.Keymap) {
	parse := func(m map[string]string) map[keys.Key][]keys.Key {
		out := make(map[keys.Key][]keys.Key, len(m))
		for lhs, rhs := range m {
			k, err := keys.ParseOne(lhs)
			if err != nil {
				logger.Warn("skipping keymap", "lhs", lhs, "error", err)
				continue
			}
			out[k] = keys.Parse(rhs)
		}
		return out
	}
	e.normalMap = parse(km.Normal)
	e.visualMap = parse(km.Visual)
}

// HandleKey processes one live key, including any macro playback it
// triggers, and returns the actions the front end must perform.
func (e *Engine) HandleKey(k keys.Key) []Action {
	e.queue.Reset()
	e.failed = false
	e.feed(k, 0, true)
	e.drain(0)
	out := e.flush()
	for _, a := range out {
		logger.Debug("engine action", "action", fmt.Sprintf("%T", a))
	}
	return out
}

// HandleKeys feeds every key of a key-notation string as live input.
func (e *Engine) HandleKeys(notation string) []Action {
	var out []Action
	for _, k := range keys.Parse(notation) {
		out = append(out, e.HandleKey(k)...)
	}
	return out
}

// feed applies the keymap to an idle Normal or Visual mode key and
// dispatches the result. Right-hand sides are not remapped.
func (e *Engine) feed(k keys.Key, depth int, live bool) {
	if live {
		e.rec.Record(k)
	}
	e.depth = depth
	if rhs, ok := e.mapped(k); ok {
		for _, mk := range rhs {
			e.step(mk)
			if e.failed {
				return
			}
		}
		return
	}
	e.step(k)
}

func (e *Engine) mapped(k keys.Key) ([]keys.Key, bool) {
	if !e.pend.idle() {
		return nil, false
	}
	switch {
	case e.mode == ModeNormal:
		rhs, ok := e.normalMap[k]
		return rhs, ok
	case e.mode.IsVisual():
		rhs, ok := e.visualMap[k]
		return rhs, ok
	}
	return nil, false
}

// step dispatches one key and closes the command once the engine is back
// in Normal mode with nothing pending.
func (e *Engine) step(k keys.Key) {
	e.cur.keys = append(e.cur.keys, k)
	before := e.mode
	e.dispatch(k)
	if e.mode != before {
		logger.Debug("mode change", "from", before.String(), "to", e.mode.String())
	}
	if !e.pend.idle() {
		e.pend.shown = append(e.pend.shown, k)
	}
	if e.mode == ModeNormal && e.pend.idle() {
		e.finishCommand()
	}
}

func (e *Engine) dispatch(k keys.Key) {
	switch e.mode {
	case ModeInsert, ModeReplace:
		e.insertKey(k)
	case ModeCommand, ModeSearch:
		e.cmdlineKey(k)
	default:
		e.normalKey(k)
	}
}

// drain dispatches queued keys until only keep are left. A failing command
// throws away the rest of the replay.
func (e *Engine) drain(keep int) {
	for e.queue.Len() > keep {
		if e.failed {
			for e.queue.Len() > keep {
				e.queue.Pop()
			}
			return
		}
		k, depth, _ := e.queue.Pop()
		e.feed(k, depth, false)
	}
}

func (e *Engine) finishCommand() {
	if e.cur.changed && !e.cur.noDot && len(e.cur.keys) > 0 {
		e.dot = e.cur
	}
	e.cur = change{}
}

// dropKey removes the last key from the command being recorded, for count
// digits and register prefixes that dot repeat stores separately.
func (e *Engine) dropKey() {
	if n := len(e.cur.keys); n > 0 {
		e.cur.keys = e.cur.keys[:n-1]
	}
}

// settle runs after every live key: cursors are clamped, the active window
// scrolls to its cursor, and edit groups close unless an insert is open.
func (e *Engine) settle() {
	insert := e.mode == ModeInsert || e.mode == ModeReplace
	active := e.win()
	for id, v := range e.views {
		st, ok := e.bufs.Get(v.Buffer)
		if !ok {
			continue
		}
		v.Clamp(st.Text, insert && id == active)
	}
	geo := e.Geometry()
	for id, r := range geo {
		v := e.views[id]
		st, ok := e.bufs.Get(v.Buffer)
		if !ok {
			continue
		}
		v.EnsureVisible(st.Text, r.H-1, r.W-e.gutter(st), e.opts.ScrollOff, st.Options.TabWidth)
	}
	st := e.buf()
	st.LineUndo.Leave(e.cursor().Line)
	if !insert {
		e.commitTouched()
	}
}

func (e *Engine) commitTouched() {
	for id := range e.touched {
		if st, ok := e.bufs.Get(id); ok {
			st.History.Commit(e.cursorIn(id))
		}
		delete(e.touched, id)
	}
}

// cursorIn is the cursor of the first window showing id, preferring the
// active one.
func (e *Engine) cursorIn(id buffers.ID) textbuf.Position {
	if v := e.view(); v.Buffer == id {
		return v.Cursor
	}
	for _, v := range e.views {
		if v.Buffer == id {
			return v.Cursor
		}
	}
	return textbuf.Position{}
}

// gutter is the width of the line number column.
func (e *Engine) gutter(st *buffers.State) int {
	if e.opts.LineNumbers == "off" || e.opts.LineNumbers == "" {
		return 0
	}
	return max(3, len(strconv.Itoa(st.Text.LineCount()))) + 1
}

func (e *Engine) win() layout.WindowID {
	return e.tabs.Active().Active
}

func (e *Engine) view() *view.View {
	return e.views[e.win()]
}

func (e *Engine) buf() *buffers.State {
	st, _ := e.bufs.Get(e.view().Buffer)
	return st
}

func (e *Engine) text() *textbuf.Buffer {
	return e.buf().Text
}

func (e *Engine) cursor() textbuf.Position {
	return e.view().Cursor
}

func (e *Engine) tabWidth() int {
	return e.buf().Options.TabWidth
}

func (e *Engine) insertLike() bool {
	return e.mode == ModeInsert || e.mode == ModeReplace
}

// setCursor moves the cursor and resets the desired column.
func (e *Engine) setCursor(p textbuf.Position) {
	e.view().SetCursor(e.text(), p, e.insertLike(), e.tabWidth())
}

// moveToLine keeps the desired column, as j and k do.
func (e *Engine) moveToLine(line int) {
	e.view().MoveToLine(e.text(), line, e.insertLike(), e.tabWidth())
}

// firstNonBlank puts the cursor on the first non-blank of line.
func (e *Engine) firstNonBlank(line int) {
	line = min(max(line, 0), e.text().LineCount()-1)
	e.setCursor(textbuf.Position{Line: line, Col: mo.FirstNonBlank(e.text().LineRunes(line))})
}

func (e *Engine) message(format string, args ...any) {
	e.msg = fmt.Sprintf(format, args...)
	e.msgErr = false
	e.actions = append(e.actions, ShowMessage{Text: e.msg})
}

// errorf reports a user error. Like every failure it aborts macro replay.
func (e *Engine) errorf(format string, args ...any) {
	e.msg = fmt.Sprintf(format, args...)
	e.msgErr = true
	e.failed = true
	e.actions = append(e.actions, ShowMessage{Text: e.msg, Error: true})
	logger.Debug("engine error", "message", e.msg)
}

// fail marks a silent failure, such as a motion that cannot move.
func (e *Engine) fail() {
	e.failed = true
}

func (e *Engine) emit(a Action) {
	e.actions = append(e.actions, a)
}

// Mode is the current mode.
func (e *Engine) Mode() Mode {
	return e.mode
}

// Message is the last status message.
func (e *Engine) Message() (string, bool) {
	return e.msg, e.msgErr
}

// PendingKeys renders the partial command typed so far.
func (e *Engine) PendingKeys() string {
	return keys.Format(e.pend.shown)
}

// Recording returns the register a macro is being recorded into.
func (e *Engine) Recording() (rune, bool) {
	return e.rec.Recording()
}

func (e *Engine) ActiveWindow() layout.WindowID {
	return e.win()
}

func (e *Engine) ActiveBuffer() buffers.ID {
	return e.view().Buffer
}

// Cursor is the active window's cursor.
func (e *Engine) Cursor() textbuf.Position {
	return e.cursor()
}

// BufferText returns the content of a buffer, lines joined by newlines.
func (e *Engine) BufferText(id buffers.ID) (string, bool) {
	st, ok := e.bufs.Get(id)
	if !ok {
		return "", false
	}
	return st.Text.String(), true
}

// BufferInfo describes one open buffer.
type BufferInfo struct {
	ID    buffers.ID
	Path  string
	Name  string
	Dirty bool
	Lines int
}

func (e *Engine) Buffers() []BufferInfo {
	var out []BufferInfo
	for _, st := range e.bufs.List() {
		out = append(out, BufferInfo{ID: st.ID, Path: st.Path, Name: st.Name(), Dirty: st.Dirty(), Lines: st.Text.LineCount()})
	}
	return out
}

// Options is the live option set, including :set changes.
func (e *Engine) Options() config.Options {
	return e.opts
}

// Tabs reports the tab count and the active tab index.
func (e *Engine) Tabs() (count, active int) {
	return e.tabs.Len(), e.tabs.Index()
}

// Register returns the content of a register for display.
func (e *Engine) Register(name rune) (register.Register, error) {
	return e.regs.Get(name)
}

// Dirty reports whether any buffer has unsaved changes.
func (e *Engine) Dirty() bool {
	for _, st := range e.bufs.List() {
		if st.Dirty() {
			return true
		}
	}
	return false
}

// countDigits renders n as the keys that type it.
func countDigits(n int) []keys.Key {
	var out []keys.Key
	for _, r := range strconv.Itoa(n) {
		out = append(out, keys.Rune(r))
	}
	return out
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\n", "^J")
	return strings.ReplaceAll(s, "\t", "^I")
}
