// Package layout keeps the offset index in step with the item model and
// answers which items are visible.
package layout

import (
	"fmt"

	"github.com/tujuhre12/vlist/internal/list/event"
	"github.com/tujuhre12/vlist/internal/list/model"
	"github.com/tujuhre12/vlist/internal/list/offset"
)

// Viewport is the scrollable part of the surface the engine writes to.
type Viewport interface {
	ScrollTop() int
	SetScrollTop(top int)
	SetContentSize(width, height int)
}

// Window is the set of visible items: Start is the first visible index and
// Tops[i], Heights[i] describe item Start+i in content coordinates.
type Window struct {
	Start   int
	Tops    []int
	Heights []int
}

// Len returns the number of visible items.
func (w Window) Len() int {
	return len(w.Tops)
}

// End returns the index after the last visible item.
func (w Window) End() int {
	return w.Start + len(w.Tops)
}

// Engine owns the offset index. It must be registered on the dispatcher
// before anything that reads VisibleWindow during AfterDispatch.
type Engine struct {
	index  offset.Index
	vp     Viewport
	width  int
	height int
	length func() int
}

var _ event.Listener = (*Engine)(nil)

type Option func(*Engine)

// WithSize sets the initial viewport size.
func WithSize(width, height int) Option {
	return func(e *Engine) {
		e.width = width
		e.height = height
	}
}

// WithLength sets the function reporting the model length. When set, the
// engine aborts if the index and the model ever disagree.
func WithLength(length func() int) Option {
	return func(e *Engine) {
		e.length = length
	}
}

// New creates an engine over index, writing to vp.
func New(index offset.Index, vp Viewport, opts ...Option) *Engine {
	e := &Engine{index: index, vp: vp}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Index returns the offset index.
func (e *Engine) Index() offset.Index {
	return e.index
}

// BeforeDispatch implements event.Listener.
func (e *Engine) BeforeDispatch() {}

// DimensionChanged implements event.Listener.
func (e *Engine) DimensionChanged(d event.Dimension) {
	e.width = max(0, d.Width)
	e.height = max(0, d.Height)
}

// ItemsChanged implements event.Listener. The in-place run goes first so
// the delete and insert positions, computed against the index as it is
// before each step, do not drift.
func (e *Engine) ItemsChanged(d model.Decomposed) {
	e.index.ReplaceRange(d.ChangedStart, d.ChangedHeights)
	e.index.RemoveRange(d.DeleteStart, d.DeleteCount)
	e.index.InsertRange(d.InsertStart, d.InsertedHeights)
}

// AfterDispatch implements event.Listener.
func (e *Engine) AfterDispatch() {
	if e.length != nil {
		if n := e.length(); n != e.index.Count() {
			panic(fmt.Sprintf("layout: offset index holds %d entries but the model holds %d", e.index.Count(), n))
		}
	}
	e.vp.SetContentSize(e.width, e.index.Total())
	if limit := e.MaxScroll(); e.vp.ScrollTop() > limit {
		e.vp.SetScrollTop(limit)
	}
}

// Size returns the viewport size.
func (e *Engine) Size() (int, int) {
	return e.width, e.height
}

// ContentHeight returns the sum of all item heights.
func (e *Engine) ContentHeight() int {
	return e.index.Total()
}

// MaxScroll returns the largest scroll position that still fills the
// viewport.
func (e *Engine) MaxScroll() int {
	return max(0, e.index.Total()-e.height)
}

// ScrollTop returns the current scroll position.
func (e *Engine) ScrollTop() int {
	return e.vp.ScrollTop()
}

// ScrollTo moves the scroll position to top, clamped to the content.
func (e *Engine) ScrollTo(top int) {
	e.vp.SetScrollTop(min(max(0, top), e.MaxScroll()))
}

// ScrollBy moves the scroll position by delta rows.
func (e *Engine) ScrollBy(delta int) {
	e.ScrollTo(e.vp.ScrollTop() + delta)
}

// ScrollToIndex scrolls so item i starts at the top of the viewport, or
// as close to it as the content allows.
func (e *Engine) ScrollToIndex(i int) {
	e.ScrollTo(e.index.AccumulatedUpTo(i))
}

// ItemAt returns the index of the item at viewport row y, or -1.
func (e *Engine) ItemAt(y int) int {
	if y < 0 || y >= e.height {
		return -1
	}
	idx, _ := e.index.IndexOfOffset(e.vp.ScrollTop() + y)
	return idx
}

// VisibleWindow returns the items overlapping the viewport at the current
// scroll position.
func (e *Engine) VisibleWindow() Window {
	count := e.index.Count()
	if count == 0 || e.height <= 0 {
		return Window{}
	}
	top := max(0, e.vp.ScrollTop())
	idx, rem := e.index.IndexOfOffset(top)
	w := Window{Start: idx}
	y, bottom := top-rem, top+e.height
	for i := idx; i < count && y < bottom; i++ {
		h := e.index.ValueAt(i)
		w.Tops = append(w.Tops, y)
		w.Heights = append(w.Heights, h)
		y += h
	}
	return w
}
