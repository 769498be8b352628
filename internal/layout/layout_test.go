package layout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitAndGeometry(t *testing.T) {
	l := New(1)
	require.NoError(t, l.Split(1, 2, SideBySide))
	require.NoError(t, l.Split(1, 3, Stacked))
	assert.Equal(t, []WindowID{2, 3, 1}, l.Windows())

	geo := l.Geometry(Rect{W: 81, H: 20})
	assert.Equal(t, Rect{X: 0, Y: 0, W: 40, H: 20}, geo[2])
	assert.Equal(t, Rect{X: 41, Y: 0, W: 40, H: 10}, geo[3])
	assert.Equal(t, Rect{X: 41, Y: 10, W: 40, H: 10}, geo[1])
}

func TestRemovePromotesSibling(t *testing.T) {
	l := New(1)
	require.NoError(t, l.Split(1, 2, SideBySide))
	require.NoError(t, l.Split(1, 3, Stacked))
	require.NoError(t, l.Remove(3))
	assert.Equal(t, []WindowID{2, 1}, l.Windows())
	geo := l.Geometry(Rect{W: 81, H: 20})
	assert.Equal(t, 20, geo[1].H)

	require.NoError(t, l.Remove(2))
	assert.True(t, errors.Is(l.Remove(1), ErrLastWindow))
	assert.True(t, errors.Is(l.Remove(7), ErrNoWindow))
}

func TestNeighbor(t *testing.T) {
	l := New(1)
	require.NoError(t, l.Split(1, 2, SideBySide))
	require.NoError(t, l.Split(1, 3, Stacked))
	area := Rect{W: 81, H: 20}

	got, ok := l.Neighbor(2, Right, area)
	require.True(t, ok)
	assert.Equal(t, WindowID(3), got, "top-aligned window wins")

	got, ok = l.Neighbor(3, Down, area)
	require.True(t, ok)
	assert.Equal(t, WindowID(1), got)

	got, ok = l.Neighbor(1, Left, area)
	require.True(t, ok)
	assert.Equal(t, WindowID(2), got)

	_, ok = l.Neighbor(2, Up, area)
	assert.False(t, ok)
}

func TestResizeAndEqualize(t *testing.T) {
	l := New(1)
	require.NoError(t, l.Split(1, 2, Stacked))
	area := Rect{W: 80, H: 20}
	require.NoError(t, l.Resize(2, Stacked, 4, area))
	geo := l.Geometry(area)
	assert.Equal(t, 14, geo[2].H)
	assert.Equal(t, 6, geo[1].H)

	require.NoError(t, l.Split(1, 3, Stacked))
	l.Equalize()
	geo = l.Geometry(Rect{W: 80, H: 30})
	assert.Equal(t, 10, geo[2].H)
	assert.Equal(t, 10, geo[3].H)
	assert.Equal(t, 10, geo[1].H)
}

func TestTabs(t *testing.T) {
	var ts Tabs
	ts.Add(NewTab(1))
	ts.Add(NewTab(2))
	ts.Add(NewTab(3))
	assert.Equal(t, 3, ts.Len())
	assert.Equal(t, WindowID(3), ts.Active().Active)

	ts.Next(1)
	assert.Equal(t, 0, ts.Index())
	ts.Prev(1)
	assert.Equal(t, 2, ts.Index())

	left, err := ts.Close(2)
	require.NoError(t, err)
	assert.True(t, left)
	assert.Equal(t, 1, ts.Index())

	i, ok := ts.Find(1)
	assert.True(t, ok)
	assert.Equal(t, 0, i)

	_, err = ts.Close(5)
	assert.True(t, errors.Is(err, ErrNoTab))
	ts.Close(0)
	left, _ = ts.Close(0)
	assert.False(t, left)
	assert.Nil(t, ts.Active())
}

func TestFocusRemembersPrevious(t *testing.T) {
	tab := NewTab(1)
	tab.Focus(2)
	assert.Equal(t, WindowID(1), tab.Previous)
	tab.Focus(2)
	assert.Equal(t, WindowID(1), tab.Previous)
}
