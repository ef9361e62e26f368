package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tujuhre12/vlist/internal/list/event"
	"github.com/tujuhre12/vlist/internal/list/model"
	"github.com/tujuhre12/vlist/internal/list/offset"
)

type fakeViewport struct {
	top           int
	contentWidth  int
	contentHeight int
}

func (v *fakeViewport) ScrollTop() int          { return v.top }
func (v *fakeViewport) SetScrollTop(top int)    { v.top = top }
func (v *fakeViewport) SetContentSize(w, h int) { v.contentWidth, v.contentHeight = w, h }

func alternating(n int) []int {
	values := make([]int, n)
	for i := range values {
		values[i] = 20
		if i%2 == 1 {
			values[i] = 30
		}
	}
	return values
}

func TestVisibleWindow(t *testing.T) {
	t.Parallel()

	t.Run("from the top", func(t *testing.T) {
		t.Parallel()
		vp := &fakeViewport{}
		e := New(offset.NewTree(alternating(1000)), vp, WithSize(80, 500))

		w := e.VisibleWindow()
		assert.Equal(t, 0, w.Start)
		require.Equal(t, 20, w.Len())
		assert.Equal(t, []int{0, 20, 50, 70}, w.Tops[:4])
		assert.Equal(t, []int{20, 30, 20, 30}, w.Heights[:4])
		assert.Equal(t, 20, w.End())
	})

	t.Run("straddling offset", func(t *testing.T) {
		t.Parallel()
		vp := &fakeViewport{top: 245}
		e := New(offset.NewTree(alternating(1000)), vp, WithSize(80, 500))

		idx, rem := e.Index().IndexOfOffset(245)
		assert.Equal(t, 9, idx)
		assert.Equal(t, 25, rem)

		w := e.VisibleWindow()
		assert.Equal(t, 9, w.Start)
		assert.Equal(t, 220, w.Tops[0])
		assert.Equal(t, 21, w.Len())
		assert.Equal(t, 720, w.Tops[w.Len()-1])
	})

	t.Run("scroll past the end clamps to the last item", func(t *testing.T) {
		t.Parallel()
		vp := &fakeViewport{top: 10_000}
		e := New(offset.NewTree([]int{10, 10, 10}), vp, WithSize(80, 5))
		w := e.VisibleWindow()
		assert.Equal(t, 2, w.Start)
		assert.Equal(t, 1, w.Len())
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		e := New(offset.NewTree(nil), &fakeViewport{}, WithSize(80, 5))
		assert.Zero(t, e.VisibleWindow().Len())

		e = New(offset.NewTree([]int{1}), &fakeViewport{}, WithSize(80, 0))
		assert.Zero(t, e.VisibleWindow().Len())
	})
}

func TestItemsChanged(t *testing.T) {
	t.Parallel()

	heights := []int{1, 2, 3, 4, 5}
	tree := offset.NewTree(heights)
	e := New(tree, &fakeViewport{}, WithSize(10, 3))

	// splice(1, 3, [7]) on [1 2 3 4 5] gives [1 7 5].
	e.ItemsChanged(model.Decompose(model.ChangeEvent{Version: 2, Start: 1, DeleteCount: 3, InsertedHeights: []int{7}}))
	assert.Equal(t, []int{1, 7, 5}, tree.Values())

	// splice(0, 1, [2 2 2]) gives [2 2 2 7 5].
	e.ItemsChanged(model.Decompose(model.ChangeEvent{Version: 3, Start: 0, DeleteCount: 1, InsertedHeights: []int{2, 2, 2}}))
	assert.Equal(t, []int{2, 2, 2, 7, 5}, tree.Values())
}

func TestAfterDispatch(t *testing.T) {
	t.Parallel()

	t.Run("writes the content size and clamps scroll", func(t *testing.T) {
		t.Parallel()
		vp := &fakeViewport{top: 90}
		length := 10
		e := New(offset.NewTree(make10(10)), vp, WithSize(40, 20), WithLength(func() int { return length }))

		e.AfterDispatch()
		assert.Equal(t, 100, vp.contentHeight)
		assert.Equal(t, 40, vp.contentWidth)
		assert.Equal(t, 80, vp.top)

		e.DimensionChanged(event.Dimension{Width: 50, Height: 200})
		e.AfterDispatch()
		assert.Equal(t, 50, vp.contentWidth)
		assert.Equal(t, 0, vp.top)
	})

	t.Run("aborts on desynchronization", func(t *testing.T) {
		t.Parallel()
		e := New(offset.NewTree(make10(3)), &fakeViewport{}, WithLength(func() int { return 4 }))
		assert.Panics(t, e.AfterDispatch)
	})
}

func TestScrollHelpers(t *testing.T) {
	t.Parallel()

	vp := &fakeViewport{}
	e := New(offset.NewTree(make10(10)), vp, WithSize(40, 25))

	e.ScrollToIndex(3)
	assert.Equal(t, 30, e.ScrollTop())
	e.ScrollBy(100)
	assert.Equal(t, 75, e.ScrollTop())
	e.ScrollTo(-5)
	assert.Equal(t, 0, e.ScrollTop())

	assert.Equal(t, 2, e.ItemAt(24))
	assert.Equal(t, -1, e.ItemAt(25))
	assert.Equal(t, 100, e.ContentHeight())
	w, h := e.Size()
	assert.Equal(t, 40, w)
	assert.Equal(t, 25, h)
}

func make10(n int) []int {
	values := make([]int, n)
	for i := range values {
		values[i] = 10
	}
	return values
}
