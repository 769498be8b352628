package view

import "sort"

// Fold hides lines Start..End (inclusive) behind one row when Closed.
type Fold struct {
	Start  int
	End    int
	Closed bool
}

func (f Fold) contains(line int) bool {
	return line >= f.Start && line <= f.End
}

// CreateFold adds a closed fold. Folds may nest.
func (v *View) CreateFold(start, end int) {
	if end < start {
		start, end = end, start
	}
	v.Folds = append(v.Folds, Fold{Start: start, End: end, Closed: true})
	sort.SliceStable(v.Folds, func(i, j int) bool {
		if v.Folds[i].Start != v.Folds[j].Start {
			return v.Folds[i].Start < v.Folds[j].Start
		}
		return v.Folds[i].End > v.Folds[j].End
	})
}

// ClosedFoldAt returns the outermost closed fold covering line.
func (v *View) ClosedFoldAt(line int) (Fold, bool) {
	best, found := Fold{}, false
	for _, f := range v.Folds {
		if f.Closed && f.contains(line) && (!found || f.End-f.Start > best.End-best.Start) {
			best, found = f, true
		}
	}
	return best, found
}

// innermost returns the index of the smallest fold covering line matching
// the filter.
func (v *View) innermost(line int, match func(Fold) bool) int {
	idx := -1
	for i, f := range v.Folds {
		if !f.contains(line) || !match(f) {
			continue
		}
		if idx < 0 || f.End-f.Start < v.Folds[idx].End-v.Folds[idx].Start {
			idx = i
		}
	}
	return idx
}

func (v *View) outermost(line int, match func(Fold) bool) int {
	idx := -1
	for i, f := range v.Folds {
		if !f.contains(line) || !match(f) {
			continue
		}
		if idx < 0 || f.End-f.Start > v.Folds[idx].End-v.Folds[idx].Start {
			idx = i
		}
	}
	return idx
}

func isClosed(f Fold) bool { return f.Closed }
func isOpen(f Fold) bool   { return !f.Closed }
func anyFold(Fold) bool    { return true }

// OpenFold opens one level at line. It reports whether a fold was opened.
func (v *View) OpenFold(line int) bool {
	if i := v.outermost(line, isClosed); i >= 0 {
		v.Folds[i].Closed = false
		return true
	}
	return false
}

// CloseFold closes the innermost open fold at line.
func (v *View) CloseFold(line int) bool {
	if i := v.innermost(line, isOpen); i >= 0 {
		v.Folds[i].Closed = true
		return true
	}
	return false
}

func (v *View) ToggleFold(line int) bool {
	if _, ok := v.ClosedFoldAt(line); ok {
		return v.OpenFold(line)
	}
	return v.CloseFold(line)
}

// DeleteFold removes the innermost fold at line.
func (v *View) DeleteFold(line int) bool {
	i := v.innermost(line, anyFold)
	if i < 0 {
		return false
	}
	v.Folds = append(v.Folds[:i], v.Folds[i+1:]...)
	return true
}

func (v *View) OpenAll() {
	for i := range v.Folds {
		v.Folds[i].Closed = false
	}
}

func (v *View) CloseAll() {
	for i := range v.Folds {
		v.Folds[i].Closed = true
	}
}

func (v *View) EraseAll() {
	v.Folds = nil
}

// VisibleStart maps line to the first line of the closed fold hiding it.
func (v *View) VisibleStart(line int) int {
	if f, ok := v.ClosedFoldAt(line); ok {
		return f.Start
	}
	return line
}

// NextVisible returns the first line shown after line, or -1 at the end.
func (v *View) NextVisible(line, count int) int {
	if f, ok := v.ClosedFoldAt(line); ok {
		line = f.End
	}
	if line+1 >= count {
		return -1
	}
	return line + 1
}

// PrevVisible returns the shown line before line, or -1 at the top.
func (v *View) PrevVisible(line int) int {
	line = v.VisibleStart(line)
	if line == 0 {
		return -1
	}
	return v.VisibleStart(line - 1)
}

// AdjustFolds keeps folds on their lines after an edit removed the lines
// after startLine up to endLine and inserted added new ones.
func (v *View) AdjustFolds(startLine, endLine, added int) {
	delta := added - (endLine - startLine)
	if delta == 0 {
		return
	}
	out := v.Folds[:0]
	for _, f := range v.Folds {
		switch {
		case f.Start > endLine:
			f.Start += delta
			f.End += delta
		case f.End > endLine:
			f.End += delta
		case f.End > startLine+added && f.Start > startLine:
			continue
		case f.End > startLine+added:
			f.End = startLine + added
		}
		if f.End >= f.Start {
			out = append(out, f)
		}
	}
	v.Folds = out
}
