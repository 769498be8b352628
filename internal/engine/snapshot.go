package engine

import (
	"github.com/kobzarvs/qvim/internal/layout"
	"github.com/kobzarvs/qvim/internal/view"
)

// Snapshot pictures one window of the active tab for rendering.
func (e *Engine) Snapshot(win layout.WindowID) (view.Snapshot, bool) {
	r, ok := e.Geometry()[win]
	if !ok {
		return view.Snapshot{}, false
	}
	v := e.views[win]
	st, ok := e.bufs.Get(v.Buffer)
	if !ok {
		return view.Snapshot{}, false
	}
	rows := v.Rows(st.Text, max(r.H-1, 1))
	snap := view.Snapshot{
		Window:       int(win),
		Buffer:       st.ID,
		Name:         st.Name(),
		Rows:         rows,
		LineCount:    st.Text.LineCount(),
		Top:          v.Top,
		Left:         v.Left,
		Cursor:       v.Cursor,
		CursorColumn: view.DisplayColumn(st.Text.LineRunes(v.Cursor.Line), v.Cursor.Col, st.Options.TabWidth),
		Folds:        append([]view.Fold(nil), v.Folds...),
		Gutter:       e.gutter(st),
		Relative:     e.opts.LineNumbers == "relative",
		TabWidth:     st.Options.TabWidth,
		Dirty:        st.Dirty(),
		Active:       win == e.win(),
	}
	if snap.Active {
		snap.Selection = e.selection()
	}
	if len(rows) > 0 && (snap.Active || e.mode != ModeSearch) {
		last := rows[len(rows)-1]
		snap.Matches = e.visibleMatches(st.Text, rows[0].Line, last.Line+max(last.Folded-1, 0))
	}
	return snap, true
}

// Snapshots pictures every window of the active tab in layout order.
func (e *Engine) Snapshots() []view.Snapshot {
	var out []view.Snapshot
	for _, w := range e.tabs.Active().Layout.Windows() {
		if s, ok := e.Snapshot(w); ok {
			out = append(out, s)
		}
	}
	return out
}
