package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/kobzarvs/qvim/internal/config"
	"github.com/kobzarvs/qvim/internal/engine"
	"github.com/kobzarvs/qvim/internal/layout"
	"github.com/kobzarvs/qvim/internal/textbuf"
	"github.com/kobzarvs/qvim/internal/view"
)

type styles struct {
	main             tcell.Style
	status           tcell.Style
	statusInactive   tcell.Style
	cmdline          tcell.Style
	lineNumber       tcell.Style
	lineNumberActive tcell.Style
	selection        tcell.Style
	search           tcell.Style
	errorText        tcell.Style
	separator        tcell.Style
}

func newStyles(t config.Theme) styles {
	bg := parseColor(t.Background, tcell.ColorDefault)
	fg := parseColor(t.Foreground, tcell.ColorDefault)
	main := tcell.StyleDefault.Foreground(fg).Background(bg)
	status := tcell.StyleDefault.
		Foreground(parseColor(t.StatuslineForeground, fg)).
		Background(parseColor(t.StatuslineBackground, bg))
	cmd := tcell.StyleDefault.
		Foreground(parseColor(t.CommandlineForeground, fg)).
		Background(parseColor(t.CommandlineBackground, bg))
	return styles{
		main:             main,
		status:           status.Bold(true),
		statusInactive:   status,
		cmdline:          cmd,
		lineNumber:       main.Foreground(parseColor(t.LineNumberForeground, fg)),
		lineNumberActive: main.Foreground(parseColor(t.LineNumberActiveForeground, fg)),
		selection: tcell.StyleDefault.
			Foreground(parseColor(t.SelectionForeground, fg)).
			Background(parseColor(t.SelectionBackground, tcell.ColorGray)),
		search: tcell.StyleDefault.
			Foreground(parseColor(t.SearchMatchForeground, tcell.ColorBlack)).
			Background(parseColor(t.SearchMatchBackground, tcell.ColorYellow)),
		errorText: cmd.Foreground(parseColor(t.ErrorForeground, tcell.ColorRed)),
		separator: main.Foreground(parseColor(t.SeparatorForeground, fg)),
	}
}

func parseColor(name string, fallback tcell.Color) tcell.Color {
	name = strings.ToLower(strings.TrimSpace(name))
	switch {
	case name == "":
		return fallback
	case name == "default":
		return tcell.ColorDefault
	case strings.HasPrefix(name, "#") && len(name) == 7:
		v, err := strconv.ParseInt(name[1:], 16, 32)
		if err != nil {
			return fallback
		}
		return tcell.NewHexColor(int32(v))
	}
	if c := tcell.GetColor(name); c != tcell.ColorDefault {
		return c
	}
	return fallback
}

// Render draws the active tab: the tab line when there are several tabs,
// each window with its status line, and the command line.
func (a *App) Render(s tcell.Screen) {
	w, h := s.Size()
	if w <= 0 || h <= 0 {
		return
	}
	s.SetStyle(a.styles.main)
	s.Clear()

	if count, active := a.eng.Tabs(); count > 1 {
		a.drawTabLine(s, w, count, active)
	}
	geo := a.eng.Geometry()
	cx, cy := -1, -1
	for _, snap := range a.eng.Snapshots() {
		r := geo[layout.WindowID(snap.Window)]
		x, y, ok := a.drawWindow(s, snap, r)
		if snap.Active && ok {
			cx, cy = x, y
		}
		if r.X+r.W < w {
			for y := r.Y; y < r.Y+r.H; y++ {
				s.SetContent(r.X+r.W, y, tcell.RuneVLine, nil, a.styles.separator)
			}
		}
	}

	if x, ok := a.drawCommandLine(s, w, h); ok {
		cx, cy = x, h-1
	}
	if cx < 0 || cy < 0 {
		s.HideCursor()
		s.Show()
		return
	}
	switch a.eng.Mode() {
	case engine.ModeInsert, engine.ModeCommand, engine.ModeSearch:
		s.SetCursorStyle(tcell.CursorStyleSteadyBar)
	case engine.ModeReplace:
		s.SetCursorStyle(tcell.CursorStyleSteadyUnderline)
	default:
		s.SetCursorStyle(tcell.CursorStyleSteadyBlock)
	}
	s.ShowCursor(min(cx, w-1), cy)
	s.Show()
}

func (a *App) drawTabLine(s tcell.Screen, w, count, active int) {
	x := 0
	for i := 0; i < count && x < w; i++ {
		style := a.styles.statusInactive
		if i == active {
			style = a.styles.status
		}
		x = drawString(s, x, 0, w, fmt.Sprintf(" %d ", i+1), style)
	}
	for ; x < w; x++ {
		s.SetContent(x, 0, ' ', nil, a.styles.statusInactive)
	}
}

// drawWindow draws one window and reports where its cursor is on screen.
func (a *App) drawWindow(s tcell.Screen, snap view.Snapshot, r layout.Rect) (int, int, bool) {
	textRows := max(r.H-1, 0)
	cx, cy, found := 0, 0, false
	for i := 0; i < textRows; i++ {
		y := r.Y + i
		if i >= len(snap.Rows) {
			s.SetContent(r.X, y, '~', nil, a.styles.lineNumber)
			continue
		}
		row := snap.Rows[i]
		a.drawGutter(s, snap, row, r, y)
		a.drawRow(s, snap, row, r, y)
		if row.Line == snap.Cursor.Line || (row.Folded > 0 && snap.Cursor.Line >= row.Line && snap.Cursor.Line < row.Line+row.Folded) {
			cx, cy, found = r.X+snap.Gutter+snap.CursorColumn-snap.Left, y, true
		}
	}
	if r.H > 0 {
		a.drawStatus(s, snap, r)
	}
	if found && (cx < r.X+snap.Gutter || cx >= r.X+r.W) {
		found = false
	}
	return cx, cy, found
}

func (a *App) drawGutter(s tcell.Screen, snap view.Snapshot, row view.Row, r layout.Rect, y int) {
	if snap.Gutter == 0 || snap.Gutter >= r.W {
		return
	}
	num := row.Line + 1
	style := a.styles.lineNumberActive
	if row.Line != snap.Cursor.Line {
		style = a.styles.lineNumber
		if snap.Relative {
			num = max(row.Line-snap.Cursor.Line, snap.Cursor.Line-row.Line)
		}
	}
	drawString(s, r.X, y, r.X+snap.Gutter, fmt.Sprintf("%*d ", snap.Gutter-1, num), style)
}

// drawRow draws the text of one row from the window's left column. Columns
// in selections and matches count runes; screen cells count display width.
func (a *App) drawRow(s tcell.Screen, snap view.Snapshot, row view.Row, r layout.Rect, y int) {
	left := r.X + snap.Gutter
	right := r.X + r.W
	if row.Folded > 0 {
		label := fmt.Sprintf("+--%3d lines: %s", row.Folded, strings.TrimSpace(row.Text))
		x := drawString(s, left, y, right, label, a.styles.lineNumber)
		for ; x < right; x++ {
			s.SetContent(x, y, '-', nil, a.styles.lineNumber)
		}
		return
	}
	tabWidth := max(snap.TabWidth, 1)
	col, dc := 0, 0
	g := uniseg.NewGraphemes(row.Text)
	for g.Next() {
		x := left + dc - snap.Left
		if x >= right {
			break
		}
		style := a.cellStyle(snap, row.Line, col)
		runes := g.Runes()
		width := g.Width()
		tab := g.Str() == "\t"
		if tab {
			width = tabWidth - dc%tabWidth
		}
		switch {
		case !tab && x >= left && x+width <= right:
			s.SetContent(x, y, runes[0], runes[1:], style)
		case x+width > left:
			// A tab, or a wide grapheme cut by the window edge.
			for cx := max(x, left); cx < min(x+width, right); cx++ {
				s.SetContent(cx, y, ' ', nil, style)
			}
		}
		dc += width
		col += len(runes)
	}
	if snap.Selection.Kind == view.SelectLine && row.Line >= snap.Selection.Start.Line && row.Line <= snap.Selection.End.Line {
		x := max(left+dc-snap.Left, left)
		if x < right {
			s.SetContent(x, y, ' ', nil, a.styles.selection)
		}
	}
}

func (a *App) cellStyle(snap view.Snapshot, line, col int) tcell.Style {
	p := textbuf.Position{Line: line, Col: col}
	if inSelection(snap.Selection, p) {
		return a.styles.selection
	}
	for _, m := range snap.Matches {
		if !p.Less(m.Start) && p.Less(m.End) {
			return a.styles.search
		}
	}
	return a.styles.main
}

func inSelection(sel view.Selection, p textbuf.Position) bool {
	if sel.Kind == view.SelectNone || p.Line < sel.Start.Line || p.Line > sel.End.Line {
		return false
	}
	switch sel.Kind {
	case view.SelectLine:
		return true
	case view.SelectBlock:
		return p.Col >= sel.Start.Col && p.Col <= sel.End.Col
	}
	return !p.Less(sel.Start) && !sel.End.Less(p)
}

func (a *App) drawStatus(s tcell.Screen, snap view.Snapshot, r layout.Rect) {
	y := r.Y + r.H - 1
	style := a.styles.statusInactive
	left := " " + snap.Name
	if snap.Dirty {
		left += " [+]"
	}
	if snap.Active {
		style = a.styles.status
		left = fmt.Sprintf(" %s | %s", a.eng.Mode(), strings.TrimPrefix(left, " "))
		if reg, ok := a.eng.Recording(); ok {
			left += fmt.Sprintf(" | recording @%c", reg)
		}
	}
	right := fmt.Sprintf(" Ln %d, Col %d ", snap.Cursor.Line+1, snap.CursorColumn+1)
	line := composeStatusLine(left+" ", right, r.W)
	for i, ch := range line {
		s.SetContent(r.X+i, y, ch, nil, style)
	}
}

// drawCommandLine draws the open command line, or the last message with
// the lines of a long one stacked above the bottom row. It reports the
// cursor column when the command line is open.
func (a *App) drawCommandLine(s tcell.Screen, w, h int) (int, bool) {
	y := h - 1
	if cl := a.eng.CommandLine(); cl.Active {
		x := drawString(s, 0, y, w, string(cl.Prefix)+cl.Text, a.styles.cmdline)
		for ; x < w; x++ {
			s.SetContent(x, y, ' ', nil, a.styles.cmdline)
		}
		return 1 + cl.Cursor, true
	}
	msg, isErr := a.eng.Message()
	style := a.styles.cmdline
	if isErr {
		style = a.styles.errorText
	}
	lines := strings.Split(msg, "\n")
	if len(lines) > h {
		lines = lines[len(lines)-h:]
	}
	for i, line := range lines {
		row := h - len(lines) + i
		x := drawString(s, 0, row, w, line, style)
		for ; x < w; x++ {
			s.SetContent(x, row, ' ', nil, a.styles.cmdline)
		}
	}
	if pending := a.eng.PendingKeys(); pending != "" {
		drawString(s, max(w-12, 0), y, w, pending, a.styles.cmdline)
	}
	return 0, false
}

// drawString draws text from x up to limit and returns the next column.
func drawString(s tcell.Screen, x, y, limit int, text string, style tcell.Style) int {
	g := uniseg.NewGraphemes(text)
	for g.Next() && x < limit {
		runes := g.Runes()
		s.SetContent(x, y, runes[0], runes[1:], style)
		x += max(g.Width(), 1)
	}
	return x
}

func composeStatusLine(left, right string, width int) []rune {
	if width <= 0 {
		return nil
	}
	l, r := []rune(left), []rune(right)
	if len(l)+len(r) > width {
		if len(r) >= width {
			r = r[len(r)-width:]
			l = nil
		} else {
			l = l[:width-len(r)]
		}
	}
	line := make([]rune, 0, width)
	line = append(line, l...)
	for len(line) < width-len(r) {
		line = append(line, ' ')
	}
	return append(line, r...)
}
