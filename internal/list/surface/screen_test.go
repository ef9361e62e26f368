package surface

import (
	"errors"
	"testing"

	"github.com/charmbracelet/x/exp/golden"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPainted(t *testing.T, gammaLeft int) *Screen {
	t.Helper()
	s := NewScreen(12, 4)
	nodes, err := s.InsertNodes(0, []string{"alpha\nbeta", "gamma", "delta-long-line-here"})
	require.NoError(t, err)
	require.NoError(t, s.SetBounds(nodes[0], Rect{Top: 0, Width: 12, Height: 2}))
	require.NoError(t, s.SetBounds(nodes[1], Rect{Top: 2, Left: gammaLeft, Width: 12, Height: 1}))
	require.NoError(t, s.SetBounds(nodes[2], Rect{Top: 3, Width: 12, Height: 1}))
	return s
}

func TestScreenRenderGolden(t *testing.T) {
	s := newPainted(t, 0)
	golden.RequireEqual(t, []byte(s.Render()))
}

func TestScreenRenderScrolledGolden(t *testing.T) {
	s := newPainted(t, 4)
	s.SetScrollTop(1)
	golden.RequireEqual(t, []byte(s.Render()))
}

func TestScreenInsertOrder(t *testing.T) {
	t.Parallel()

	s := NewScreen(10, 10)
	tail, err := s.InsertNodes(0, []string{"c", "d"})
	require.NoError(t, err)
	head, err := s.InsertNodes(tail[0], []string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, []Node{head[0], head[1], tail[0], tail[1]}, s.Nodes())
	assert.Equal(t, 2, s.Stats().Inserts)
	assert.Equal(t, 4, s.Stats().Inserted)

	_, err = s.InsertNodes(Node(999), []string{"x"})
	assert.True(t, errors.Is(err, ErrNodeNotFound))
}

func TestScreenMissingNodes(t *testing.T) {
	t.Parallel()

	s := NewScreen(10, 10)
	nodes, err := s.InsertNodes(0, []string{"a"})
	require.NoError(t, err)
	require.NoError(t, s.Remove(nodes[0]))

	assert.ErrorIs(t, s.Remove(nodes[0]), ErrNodeNotFound)
	assert.ErrorIs(t, s.SetBounds(nodes[0], Rect{}), ErrNodeNotFound)
	assert.ErrorIs(t, s.SetAttr(nodes[0], "k", "v"), ErrNodeNotFound)
	assert.ErrorIs(t, s.ReplaceContent(nodes, []string{"b"}), ErrNodeNotFound)
	assert.Zero(t, s.Len())
}

func TestScreenReplaceSkipsIdenticalContent(t *testing.T) {
	t.Parallel()

	s := NewScreen(10, 2)
	nodes, err := s.InsertNodes(0, []string{"same", "old"})
	require.NoError(t, err)
	require.NoError(t, s.SetBounds(nodes[0], Rect{Top: 0, Width: 10, Height: 1}))
	require.NoError(t, s.SetBounds(nodes[1], Rect{Top: 1, Width: 10, Height: 1}))
	s.Render()

	require.NoError(t, s.ReplaceContent(nodes, []string{"same", "new"}))
	assert.Equal(t, 1, s.Stats().Unchanged)
	assert.Equal(t, 1, s.Stats().Replaced)
	assert.Equal(t, "same\nnew", s.Render())

	paints := s.Stats().Paints
	require.NoError(t, s.ReplaceContent(nodes, []string{"same", "new"}))
	s.Render()
	assert.Equal(t, paints, s.Stats().Paints)
}

func TestScreenHidesRetainedNodes(t *testing.T) {
	t.Parallel()

	s := NewScreen(10, 1)
	nodes, err := s.InsertNodes(0, []string{"ghost"})
	require.NoError(t, err)
	require.NoError(t, s.SetBounds(nodes[0], Rect{Width: 10, Height: 1}))
	assert.Equal(t, "ghost", s.Render())

	require.NoError(t, s.SetAttr(nodes[0], AttrRetained, "true"))
	assert.Equal(t, "", s.Render())
	v, ok := s.Attr(nodes[0], AttrRetained)
	assert.True(t, ok)
	assert.Equal(t, "true", v)
}

func TestScreenSignals(t *testing.T) {
	t.Parallel()

	s := NewScreen(10, 5)
	var scrolls []int
	var sizes [][2]int
	cancelScroll := s.OnScroll(func(top int) { scrolls = append(scrolls, top) })
	s.OnResize(func(w, h int) { sizes = append(sizes, [2]int{w, h}) })

	s.SetContentSize(10, 20)
	s.SetScrollTop(4)
	s.SetScrollTop(4)
	s.ScrollBy(100)
	s.SetScrollTop(-3)
	cancelScroll()
	s.SetScrollTop(2)

	s.SetViewportSize(10, 5)
	s.SetViewportSize(20, 6)

	assert.Equal(t, []int{4, 15, 0}, scrolls)
	assert.Equal(t, [][2]int{{20, 6}}, sizes)
	assert.Equal(t, 14, s.MaxScroll())
}
