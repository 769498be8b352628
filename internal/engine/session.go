package engine

import (
	"fmt"

	"github.com/kobzarvs/qvim/internal/buffers"
	"github.com/kobzarvs/qvim/internal/config"
	"github.com/kobzarvs/qvim/internal/logger"
	"github.com/kobzarvs/qvim/internal/session"
	"github.com/kobzarvs/qvim/internal/textbuf"
	"github.com/kobzarvs/qvim/internal/view"
)

// flush settles the views and hands over the actions collected so far.
func (e *Engine) flush() []Action {
	e.settle()
	out := e.actions
	e.actions = nil
	return out
}

// Session reports the named buffers and the histories for persistence.
func (e *Engine) Session() session.Session {
	s := session.Session{Active: -1}
	active := e.view().Buffer
	for _, st := range e.bufs.List() {
		if st.Path == "" {
			continue
		}
		fs := session.FileState{Path: st.Path}
		if v := e.viewOf(st.ID); v != nil {
			fs.CursorLine, fs.CursorCol = v.Cursor.Line, v.Cursor.Col
			fs.TopLine, fs.LeftCol = v.Top, v.Left
		} else if p, ok := st.Marks['"']; ok {
			fs.CursorLine, fs.CursorCol = p.Line, p.Col
		}
		if st.ID == active {
			s.Active = len(s.Files)
		}
		s.Files = append(s.Files, fs)
	}
	s.CommandHistory = append([]string(nil), e.cmd.history[':']...)
	s.SearchHistory = append([]string(nil), e.cmd.history['/']...)
	return s
}

// viewOf is the active window's view if it shows id, else any view that
// does.
func (e *Engine) viewOf(id buffers.ID) *view.View {
	if v := e.view(); v.Buffer == id {
		return v
	}
	for _, w := range e.tabs.Active().Layout.Windows() {
		if v := e.views[w]; v.Buffer == id {
			return v
		}
	}
	for _, v := range e.views {
		if v.Buffer == id {
			return v
		}
	}
	return nil
}

// RestoreSession takes back the histories and asks for the files to be
// opened again. Their cursor and scroll positions apply as each one loads,
// and the active file is opened last so it ends up in the window.
func (e *Engine) RestoreSession(s session.Session) []Action {
	for _, line := range s.CommandHistory {
		e.addHistory(':', line)
	}
	for _, line := range s.SearchHistory {
		e.addHistory('/', line)
	}
	for i, f := range s.Files {
		if i == s.Active || f.Path == "" {
			continue
		}
		e.restore[f.Path] = f
		e.emit(OpenFile{Path: f.Path})
	}
	if s.Active >= 0 && s.Active < len(s.Files) {
		f := s.Files[s.Active]
		e.restore[f.Path] = f
		e.emit(OpenFile{Path: f.Path})
	}
	logger.Debug("session restore", "files", len(s.Files))
	return e.flush()
}

// LoadFile takes the content the front end read for an OpenFile and shows
// it in the active window. An untouched [No Name] buffer is replaced.
func (e *Engine) LoadFile(path, content string) []Action {
	if st, ok := e.bufs.FindByPath(path); ok {
		if e.reload[st.ID] || !st.Dirty() {
			delete(e.reload, st.ID)
			e.replaceContent(st, content)
		}
		e.showBuffer(st.ID)
		e.fileLoaded(st, content)
		return e.flush()
	}
	old, _ := e.bufs.Get(e.view().Buffer)
	st := e.bufs.Create(path, content)
	e.showBuffer(st.ID)
	if old != nil && old.ID == e.scratch && pristine(old) && e.windowsShowing(old.ID) == 0 {
		e.bufs.Delete(old.ID)
		e.scratch = 0
	}
	if fs, ok := e.restore[path]; ok {
		delete(e.restore, path)
		v := e.view()
		v.SetCursor(st.Text, textbuf.Position{Line: fs.CursorLine, Col: fs.CursorCol}, false, st.Options.TabWidth)
		v.Top = min(max(fs.TopLine, 0), st.Text.LineCount()-1)
		v.Left = max(fs.LeftCol, 0)
	}
	e.fileLoaded(st, content)
	return e.flush()
}

func pristine(st *buffers.State) bool {
	return st.Path == "" && !st.Dirty() && !st.History.CanUndo() &&
		st.Text.LineCount() == 1 && st.Text.LineLen(0) == 0
}

// fileLoaded reports the file and runs a jump that was waiting for it.
func (e *Engine) fileLoaded(st *buffers.State, content string) {
	e.message("%q %dL, %dB", st.Path, st.Text.LineCount(), len(content))
	if e.jump != nil && e.jump.Path == st.Path {
		j := *e.jump
		e.jump = nil
		e.jumpIn(st, j.Line, j.Col)
	}
}

func (e *Engine) replaceContent(st *buffers.State, content string) {
	if err := e.bufs.ReplaceContent(st.ID, content, e.cursorIn(st.ID)); err != nil {
		e.errorf("%v", err)
		return
	}
	for _, v := range e.views {
		if v.Buffer == st.ID {
			v.Clamp(st.Text, false)
		}
	}
}

// ReloadBuffer swaps in new file content, as one undoable change, when the
// file changed on disk.
func (e *Engine) ReloadBuffer(id buffers.ID, content string) []Action {
	st, ok := e.bufs.Get(id)
	if !ok {
		return nil
	}
	delete(e.reload, id)
	e.replaceContent(st, content)
	e.message("%q %dL, %dB", st.Name(), st.Text.LineCount(), len(content))
	return e.flush()
}

// MarkSaved is the front end's report that a SaveBuffer succeeded.
func (e *Engine) MarkSaved(id buffers.ID) {
	st, ok := e.bufs.Get(id)
	if !ok {
		return
	}
	st.MarkSaved()
	e.msg = formatWritten(st)
	e.msgErr = false
}

func formatWritten(st *buffers.State) string {
	return fmt.Sprintf("%q %dL, %dB written", st.Name(), st.Text.LineCount(), len(fileContent(st.Text)))
}

// Notify shows a message from the front end, such as an I/O error.
func (e *Engine) Notify(text string, isError bool) {
	e.msg = text
	e.msgErr = isError
}

// JumpTo shows path at a 1-based line and column; zero leaves that part of
// the position alone. A file that is not open yet is asked for first.
func (e *Engine) JumpTo(path string, line, col int) []Action {
	st, ok := e.bufs.FindByPath(path)
	if !ok {
		e.jump = &JumpExternal{Path: path, Line: line, Col: col}
		e.emit(OpenFile{Path: path})
		return e.flush()
	}
	e.setPCMark()
	e.showBuffer(st.ID)
	e.jumpIn(st, line, col)
	return e.flush()
}

func (e *Engine) jumpIn(st *buffers.State, line, col int) {
	if line <= 0 {
		return
	}
	if e.view().Buffer != st.ID {
		e.showBuffer(st.ID)
	}
	p := textbuf.Position{Line: line - 1}
	if col > 0 {
		p.Col = col - 1
		e.setCursor(p)
		return
	}
	e.firstNonBlank(p.Line)
}

// ApplyConfig replaces the options and keymaps, as after a config reload.
// Changes made with :set are lost.
func (e *Engine) ApplyConfig(cfg config.Config) {
	e.opts = cfg.Editor
	e.applyOptions()
	e.setKeymaps(cfg.Keymap)
	e.settle()
}

// Resize sets the screen size in cells, command line included.
func (e *Engine) Resize(width, height int) {
	e.width, e.height = width, height
	e.settle()
}
