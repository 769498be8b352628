package engine

import (
	"github.com/kobzarvs/qvim/internal/buffers"
	"github.com/kobzarvs/qvim/internal/keys"
	"github.com/kobzarvs/qvim/internal/layout"
	"github.com/kobzarvs/qvim/internal/register"
	"github.com/kobzarvs/qvim/internal/view"
)

func (e *Engine) newWindow(v *view.View) layout.WindowID {
	e.nextWin++
	e.views[e.nextWin] = v
	return e.nextWin
}

// area is the screen without the command line, and without the tab line
// while more than one tab is open.
func (e *Engine) area() layout.Rect {
	r := layout.Rect{W: max(e.width, 1), H: max(e.height-1, 1)}
	if e.tabs.Len() > 1 {
		r.Y = 1
		r.H = max(r.H-1, 1)
	}
	return r
}

// Geometry places the windows of the active tab on the screen. The last row
// of each rectangle is the window's status line.
func (e *Engine) Geometry() map[layout.WindowID]layout.Rect {
	return e.tabs.Active().Layout.Geometry(e.area())
}

func (e *Engine) windowsShowing(id buffers.ID) int {
	n := 0
	for _, v := range e.views {
		if v.Buffer == id {
			n++
		}
	}
	return n
}

// split opens v in a new window above or left of the active one and
// focuses it.
func (e *Engine) split(orient layout.Orientation, v *view.View) bool {
	tab := e.tabs.Active()
	r := e.Geometry()[tab.Active]
	if (orient == layout.Stacked && r.H < 4) || (orient == layout.SideBySide && r.W < 3) {
		e.errorf("E36: Not enough room")
		return false
	}
	id := e.newWindow(v)
	if err := tab.Layout.Split(tab.Active, id, orient); err != nil {
		delete(e.views, id)
		e.errorf("%v", err)
		return false
	}
	tab.Focus(id)
	return true
}

// closeWindow removes a window. Closing the last window of a tab closes the
// tab, and closing the last tab quits.
func (e *Engine) closeWindow(id layout.WindowID) {
	ti, ok := e.tabs.Find(id)
	if !ok {
		return
	}
	tab := e.tabs.All()[ti]
	if tab.Layout.Len() == 1 {
		if e.tabs.Len() == 1 {
			e.emit(Quit{})
			return
		}
		e.closeTab(ti)
		return
	}
	e.leaveBuffer(e.views[id])
	if err := tab.Layout.Remove(id); err != nil {
		e.errorf("%v", err)
		return
	}
	delete(e.views, id)
	if tab.Active == id {
		next := tab.Previous
		if next == id || !tab.Layout.Contains(next) {
			next = tab.Layout.Windows()[0]
		}
		tab.Active = next
	}
	if tab.Previous == id {
		tab.Previous = 0
	}
}

func (e *Engine) closeTab(i int) {
	tab := e.tabs.All()[i]
	for _, w := range tab.Layout.Windows() {
		e.leaveBuffer(e.views[w])
		delete(e.views, w)
	}
	if left, _ := e.tabs.Close(i); !left {
		e.emit(Quit{})
	}
}

func (e *Engine) onlyWindow() {
	tab := e.tabs.Active()
	for _, w := range tab.Layout.Windows() {
		if w != tab.Active {
			e.leaveBuffer(e.views[w])
			delete(e.views, w)
		}
	}
	if err := tab.Layout.Only(tab.Active); err != nil {
		e.errorf("%v", err)
	}
	tab.Previous = 0
}

func (e *Engine) newTab(id buffers.ID) {
	win := e.newWindow(view.New(id))
	e.tabs.Add(layout.NewTab(win))
}

// leaveBuffer remembers the cursor for the '" mark.
func (e *Engine) leaveBuffer(v *view.View) {
	if v == nil {
		return
	}
	if st, ok := e.bufs.Get(v.Buffer); ok {
		st.Marks['"'] = v.Cursor
	}
}

// showBuffer puts buffer id in the active window, back at its '" mark.
func (e *Engine) showBuffer(id buffers.ID) {
	v := e.view()
	if v.Buffer == id {
		return
	}
	e.leaveBuffer(v)
	e.resetView(v, id)
}

func (e *Engine) resetView(v *view.View, id buffers.ID) {
	*v = *view.New(id)
	st, ok := e.bufs.Get(id)
	if !ok {
		return
	}
	if p, ok := st.Marks['"']; ok {
		v.SetCursor(st.Text, p, false, st.Options.TabWidth)
	}
	if v == e.view() {
		e.regs.SetReadOnly(register.FileName, st.Path)
	}
}

// editFile shows the buffer already open on name, or asks for the file.
func (e *Engine) editFile(name string) {
	if st, ok := e.bufs.FindByPath(name); ok {
		e.showBuffer(st.ID)
		return
	}
	e.emit(OpenFile{Path: name})
}

// deleteBuffer drops a buffer. Windows showing it switch to another buffer,
// or to a new empty one when it was the last.
func (e *Engine) deleteBuffer(id buffers.ID) {
	repl, ok := e.bufs.Cycle(id, 1)
	if !ok || repl == id {
		repl = e.bufs.Create("", "").ID
		e.scratch = repl
	}
	for _, v := range e.views {
		if v.Buffer == id {
			e.resetView(v, repl)
		}
	}
	if err := e.bufs.Delete(id); err != nil {
		e.errorf("%v", err)
		return
	}
	for name, gm := range e.marks {
		if gm.buffer == id {
			delete(e.marks, name)
		}
	}
	delete(e.vis.last, id)
	delete(e.touched, id)
	delete(e.reload, id)
	if e.scratch == id {
		e.scratch = 0
	}
}

var windowDirs = map[rune]layout.Direction{
	'h': layout.Left, 'j': layout.Down, 'k': layout.Up, 'l': layout.Right,
}

// windowChar maps the key after <C-w> to its letter; <C-w><C-s> is <C-w>s.
func windowChar(k keys.Key) (rune, bool) {
	if k.IsRune() {
		return k.Rune, true
	}
	for _, l := range "svnwpcqohjkltb" {
		if k.IsCtrl(l) {
			return l, true
		}
	}
	switch k {
	case keys.Left:
		return 'h', true
	case keys.Down:
		return 'j', true
	case keys.Up:
		return 'k', true
	case keys.Right:
		return 'l', true
	}
	return 0, false
}

// windowKey is the key after <C-w>.
func (e *Engine) windowKey(k keys.Key) {
	_, count, has := e.endPending()
	e.cur.noDot = true
	ch, ok := windowChar(k)
	if !ok {
		e.fail()
		return
	}
	tab := e.tabs.Active()
	wins := tab.Layout.Windows()
	index := func(w layout.WindowID) int {
		for i, id := range wins {
			if id == w {
				return i
			}
		}
		return 0
	}
	switch ch {
	case 's', 'S':
		e.split(layout.Stacked, e.view().Clone())
	case 'v':
		e.split(layout.SideBySide, e.view().Clone())
	case 'n':
		st := e.bufs.Create("", "")
		e.split(layout.Stacked, view.New(st.ID))
	case 'w', 'W':
		switch {
		case has:
			tab.Focus(wins[min(count, len(wins))-1])
		case ch == 'w':
			tab.Focus(wins[(index(tab.Active)+1)%len(wins)])
		default:
			tab.Focus(wins[(index(tab.Active)+len(wins)-1)%len(wins)])
		}
	case 'p':
		if tab.Previous == 0 || !tab.Layout.Contains(tab.Previous) {
			e.fail()
			return
		}
		tab.Focus(tab.Previous)
	case 't':
		tab.Focus(wins[0])
	case 'b':
		tab.Focus(wins[len(wins)-1])
	case 'c':
		e.exClose(exCall{})
	case 'q':
		e.quitWindow(false)
	case 'o':
		e.onlyWindow()
	case 'h', 'j', 'k', 'l':
		for i := 0; i < count; i++ {
			next, ok := tab.Layout.Neighbor(tab.Active, windowDirs[ch], e.area())
			if !ok {
				break
			}
			tab.Focus(next)
		}
	case '+', '-':
		delta := count
		if ch == '-' {
			delta = -count
		}
		tab.Layout.Resize(tab.Active, layout.Stacked, delta, e.area())
	case '>', '<':
		delta := count
		if ch == '<' {
			delta = -count
		}
		tab.Layout.Resize(tab.Active, layout.SideBySide, delta, e.area())
	case '_':
		r := e.Geometry()[tab.Active]
		delta := e.area().H
		if has {
			delta = count + 1 - r.H
		}
		tab.Layout.Resize(tab.Active, layout.Stacked, delta, e.area())
	case '|':
		r := e.Geometry()[tab.Active]
		delta := e.area().W
		if has {
			delta = count - r.W
		}
		tab.Layout.Resize(tab.Active, layout.SideBySide, delta, e.area())
	case '=':
		tab.Layout.Equalize()
	case 'T':
		if len(wins) == 1 {
			e.fail()
			return
		}
		win := tab.Active
		e.leaveBuffer(e.views[win])
		v := e.views[win].Clone()
		e.closeWindow(win)
		id := e.newWindow(v)
		e.tabs.Add(layout.NewTab(id))
	default:
		e.fail()
	}
}
