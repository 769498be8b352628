package layout

import (
	"errors"
	"fmt"
)

var ErrNoTab = errors.New("no such tab")

// Tab is one layout plus its focused window.
type Tab struct {
	Layout   *Layout
	Active   WindowID
	Previous WindowID
}

func NewTab(win WindowID) *Tab {
	return &Tab{Layout: New(win), Active: win}
}

// Focus makes win active and remembers the old one for <C-w>p.
func (t *Tab) Focus(win WindowID) {
	if win == t.Active {
		return
	}
	t.Previous = t.Active
	t.Active = win
}

// Tabs is the ordered tab list.
type Tabs struct {
	tabs   []*Tab
	active int
}

// Add inserts t after the active tab and activates it.
func (ts *Tabs) Add(t *Tab) {
	if len(ts.tabs) == 0 {
		ts.tabs = []*Tab{t}
		ts.active = 0
		return
	}
	at := ts.active + 1
	ts.tabs = append(ts.tabs, nil)
	copy(ts.tabs[at+1:], ts.tabs[at:])
	ts.tabs[at] = t
	ts.active = at
}

// Close removes tab i. It reports whether any tab is left.
func (ts *Tabs) Close(i int) (bool, error) {
	if i < 0 || i >= len(ts.tabs) {
		return len(ts.tabs) > 0, fmt.Errorf("%w: %d", ErrNoTab, i+1)
	}
	ts.tabs = append(ts.tabs[:i], ts.tabs[i+1:]...)
	if ts.active > i || ts.active >= len(ts.tabs) {
		ts.active = max(ts.active-1, 0)
	}
	return len(ts.tabs) > 0, nil
}

func (ts *Tabs) Active() *Tab {
	if len(ts.tabs) == 0 {
		return nil
	}
	return ts.tabs[ts.active]
}

func (ts *Tabs) Index() int {
	return ts.active
}

func (ts *Tabs) Len() int {
	return len(ts.tabs)
}

func (ts *Tabs) All() []*Tab {
	return ts.tabs
}

func (ts *Tabs) Next(count int) {
	if n := len(ts.tabs); n > 0 {
		ts.active = ((ts.active+count)%n + n) % n
	}
}

func (ts *Tabs) Prev(count int) {
	ts.Next(-count)
}

func (ts *Tabs) SetActive(i int) error {
	if i < 0 || i >= len(ts.tabs) {
		return fmt.Errorf("%w: %d", ErrNoTab, i+1)
	}
	ts.active = i
	return nil
}

// Find returns the index of the tab holding win.
func (ts *Tabs) Find(win WindowID) (int, bool) {
	for i, t := range ts.tabs {
		if t.Layout.Contains(win) {
			return i, true
		}
	}
	return 0, false
}
