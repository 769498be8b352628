// Package layout arranges windows in a binary split tree per tab.
package layout

import (
	"errors"
	"fmt"
)

var (
	ErrNoWindow   = errors.New("no such window")
	ErrLastWindow = errors.New("cannot remove the last window")
)

type WindowID int

// Orientation of a split node.
type Orientation uint8

const (
	// Stacked puts the children above each other, as :split does.
	Stacked Orientation = iota
	// SideBySide puts the children next to each other, as :vsplit does.
	SideBySide
)

type Rect struct {
	X, Y, W, H int
}

// node is either a leaf holding a window or a split with two children.
// ratio is the share of the first child.
type node struct {
	win      WindowID
	orient   Orientation
	ratio    float64
	children [2]*node
	parent   *node
}

func (n *node) leaf() bool {
	return n.children[0] == nil
}

// Layout is the split tree of one tab.
type Layout struct {
	root *node
}

func New(win WindowID) *Layout {
	return &Layout{root: &node{win: win}}
}

func (l *Layout) find(n *node, win WindowID) *node {
	if n.leaf() {
		if n.win == win {
			return n
		}
		return nil
	}
	if found := l.find(n.children[0], win); found != nil {
		return found
	}
	return l.find(n.children[1], win)
}

func (l *Layout) Contains(win WindowID) bool {
	return l.find(l.root, win) != nil
}

// Windows lists windows top-left first.
func (l *Layout) Windows() []WindowID {
	var out []WindowID
	var walk func(n *node)
	walk = func(n *node) {
		if n.leaf() {
			out = append(out, n.win)
			return
		}
		walk(n.children[0])
		walk(n.children[1])
	}
	walk(l.root)
	return out
}

func (l *Layout) Len() int {
	return len(l.Windows())
}

// Split turns target into a split holding target and win. The new window
// takes the first slot, above or left of target, as Vim does by default.
func (l *Layout) Split(target, win WindowID, orient Orientation) error {
	n := l.find(l.root, target)
	if n == nil {
		return fmt.Errorf("%w: %d", ErrNoWindow, target)
	}
	first := &node{win: win, parent: n}
	second := &node{win: target, parent: n}
	n.win = 0
	n.orient = orient
	n.ratio = 0.5
	n.children = [2]*node{first, second}
	return nil
}

// Remove deletes win and promotes its sibling into the parent's slot.
func (l *Layout) Remove(win WindowID) error {
	n := l.find(l.root, win)
	if n == nil {
		return fmt.Errorf("%w: %d", ErrNoWindow, win)
	}
	p := n.parent
	if p == nil {
		return ErrLastWindow
	}
	sibling := p.children[0]
	if sibling == n {
		sibling = p.children[1]
	}
	sibling.parent = p.parent
	if p.parent == nil {
		l.root = sibling
		return nil
	}
	if p.parent.children[0] == p {
		p.parent.children[0] = sibling
	} else {
		p.parent.children[1] = sibling
	}
	return nil
}

// Only drops every window but win.
func (l *Layout) Only(win WindowID) error {
	if !l.Contains(win) {
		return fmt.Errorf("%w: %d", ErrNoWindow, win)
	}
	l.root = &node{win: win}
	return nil
}

// Geometry partitions area among the windows. Side-by-side splits leave one
// column between the children for a separator.
func (l *Layout) Geometry(area Rect) map[WindowID]Rect {
	out := make(map[WindowID]Rect)
	var walk func(n *node, r Rect)
	walk = func(n *node, r Rect) {
		if n.leaf() {
			out[n.win] = r
			return
		}
		a, b := divide(n, r)
		walk(n.children[0], a)
		walk(n.children[1], b)
	}
	walk(l.root, area)
	return out
}

// divide splits r between the children of n.
func divide(n *node, r Rect) (Rect, Rect) {
	a, b := r, r
	if n.orient == SideBySide {
		avail := max(r.W-1, 0)
		a.W = share(avail, n.ratio)
		b.X = r.X + a.W + 1
		b.W = max(avail-a.W, 0)
		return a, b
	}
	a.H = share(r.H, n.ratio)
	b.Y = r.Y + a.H
	b.H = max(r.H-a.H, 0)
	return a, b
}

func share(total int, ratio float64) int {
	if total <= 1 {
		return total
	}
	n := int(float64(total)*ratio + 0.5)
	return min(max(n, 1), total-1)
}

// Direction for neighbor lookup.
type Direction uint8

const (
	Left Direction = iota
	Down
	Up
	Right
)

// Neighbor finds the window next to win in dir, preferring the one that
// overlaps the top-left corner of win.
func (l *Layout) Neighbor(win WindowID, dir Direction, area Rect) (WindowID, bool) {
	geo := l.Geometry(area)
	from, ok := geo[win]
	if !ok {
		return 0, false
	}
	best, bestDist, bestOverlap := WindowID(0), -1, false
	for id, r := range geo {
		if id == win {
			continue
		}
		var dist int
		var overlap bool
		switch dir {
		case Left:
			if r.X+r.W > from.X || !spans(r.Y, r.H, from.Y, from.H) {
				continue
			}
			dist, overlap = from.X-(r.X+r.W), inside(from.Y, r.Y, r.H)
		case Right:
			if r.X < from.X+from.W || !spans(r.Y, r.H, from.Y, from.H) {
				continue
			}
			dist, overlap = r.X-(from.X+from.W), inside(from.Y, r.Y, r.H)
		case Up:
			if r.Y+r.H > from.Y || !spans(r.X, r.W, from.X, from.W) {
				continue
			}
			dist, overlap = from.Y-(r.Y+r.H), inside(from.X, r.X, r.W)
		case Down:
			if r.Y < from.Y+from.H || !spans(r.X, r.W, from.X, from.W) {
				continue
			}
			dist, overlap = r.Y-(from.Y+from.H), inside(from.X, r.X, r.W)
		}
		if bestDist < 0 || dist < bestDist || (dist == bestDist && overlap && !bestOverlap) ||
			(dist == bestDist && overlap == bestOverlap && id < best) {
			best, bestDist, bestOverlap = id, dist, overlap
		}
	}
	return best, bestDist >= 0
}

func spans(start, length, otherStart, otherLength int) bool {
	return start < otherStart+otherLength && otherStart < start+length
}

func inside(p, start, length int) bool {
	return p >= start && p < start+length
}

// Resize grows win by delta cells along the nearest split of orientation
// orient, measured against area.
func (l *Layout) Resize(win WindowID, orient Orientation, delta int, area Rect) error {
	n := l.find(l.root, win)
	if n == nil {
		return fmt.Errorf("%w: %d", ErrNoWindow, win)
	}
	for child, p := n, n.parent; p != nil; child, p = p, p.parent {
		if p.orient != orient {
			continue
		}
		r := l.rectOf(p, area)
		total := r.H
		if orient == SideBySide {
			total = r.W - 1
		}
		if total <= 1 {
			return nil
		}
		first := share(total, p.ratio)
		if p.children[0] == child {
			first += delta
		} else {
			first -= delta
		}
		first = min(max(first, 1), total-1)
		p.ratio = float64(first) / float64(total)
		return nil
	}
	return nil
}

func (l *Layout) rectOf(target *node, area Rect) Rect {
	var found Rect
	var walk func(n *node, r Rect)
	walk = func(n *node, r Rect) {
		if n == target {
			found = r
			return
		}
		if n.leaf() {
			return
		}
		a, b := divide(n, r)
		walk(n.children[0], a)
		walk(n.children[1], b)
	}
	walk(l.root, area)
	return found
}

// Equalize gives every window in a run of same-orientation splits the same
// share.
func (l *Layout) Equalize() {
	var walk func(n *node)
	walk = func(n *node) {
		if n.leaf() {
			return
		}
		a := span(n.children[0], n.orient)
		b := span(n.children[1], n.orient)
		n.ratio = float64(a) / float64(a+b)
		walk(n.children[0])
		walk(n.children[1])
	}
	walk(l.root)
}

func span(n *node, orient Orientation) int {
	if n.leaf() || n.orient != orient {
		return 1
	}
	return span(n.children[0], orient) + span(n.children[1], orient)
}
