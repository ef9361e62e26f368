package window

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tujuhre12/vlist/internal/list/event"
	"github.com/tujuhre12/vlist/internal/list/layout"
	"github.com/tujuhre12/vlist/internal/list/model"
	"github.com/tujuhre12/vlist/internal/list/offset"
	"github.com/tujuhre12/vlist/internal/list/surface"
)

type line struct {
	text   string
	height int
}

func (l line) Size() int                     { return l.height }
func (l line) RenderInto(b *strings.Builder) { b.WriteString(l.text) }

func lines(n int) []line {
	items := make([]line, n)
	for i := range items {
		items[i] = line{text: fmt.Sprintf("item %d", i), height: 1}
	}
	return items
}

type harness struct {
	screen *surface.Screen
	model  *model.Model[line]
	engine *layout.Engine
	rec    *Reconciler
	disp   *event.Dispatcher
}

func newHarness(t *testing.T, n, width, height int, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		screen: surface.NewScreen(width, height),
		model:  model.New(lines(n)),
		disp:   event.NewDispatcher(nil),
	}
	h.engine = layout.New(offset.NewTree(h.model.Heights()), h.screen,
		layout.WithSize(width, height), layout.WithLength(h.model.Len))
	h.rec = New(h.screen, h.engine, h.model, opts...)
	h.disp.Register(h.engine)
	h.disp.Register(h.rec)
	h.model.Subscribe(func(ev model.ChangeEvent) {
		h.disp.Emit(event.ItemsChanged(model.Decompose(ev)))
	})
	h.disp.Flush()
	return h
}

func (h *harness) scroll(top int) {
	h.screen.SetScrollTop(top)
	h.disp.Flush()
}

// check asserts that the rendered window is exactly the visible window,
// one node per item, with current content and bounds.
func (h *harness) check(t *testing.T) {
	t.Helper()
	win := h.engine.VisibleWindow()
	start, end := h.rec.Range()
	require.Equal(t, win.Start, start, "window start")
	require.Equal(t, win.End(), end, "window end")

	width, _ := h.engine.Size()
	for i, n := range h.rec.Nodes() {
		require.NotZero(t, n, "slot %d has no node", i)
		content, ok := h.screen.Content(n)
		require.True(t, ok, "slot %d node %d not on the surface", i, n)
		assert.Equal(t, h.model.At(start+i).Item.text, content)
		bounds, _ := h.screen.Bounds(n)
		assert.Equal(t, surface.Rect{Top: win.Tops[i], Width: width, Height: win.Heights[i]}, bounds)
	}
	assert.Empty(t, h.rec.Dirty())

	live := h.rec.Len()
	if _, ok := h.rec.RetainedUntil(); ok {
		live++
	}
	assert.Equal(t, live, h.screen.Len())
}

// want paints the first line of every visible item, the way the screen
// should.
func (h *harness) want() string {
	_, height := h.engine.Size()
	rows := make([]string, height)
	win := h.engine.VisibleWindow()
	for i := range win.Len() {
		y := win.Tops[i] - h.engine.ScrollTop()
		if y >= 0 && y < height {
			rows[y] = h.model.At(win.Start + i).Item.text
		}
	}
	return strings.Join(rows, "\n")
}

func TestInitialRender(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 1000, 10, 5)
	h.check(t)
	assert.Equal(t, "item 0\nitem 1\nitem 2\nitem 3\nitem 4", h.screen.Render())

	stats := h.rec.Stats()
	assert.Equal(t, 5, stats.Created)
	assert.Equal(t, 1, stats.InsertBatches)
	assert.Zero(t, stats.ReplaceBatches)
}

func TestReconcileIsIdempotent(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	h := newHarness(t, 1000, 10, 5, WithClock(func() time.Time { return now }))
	h.scroll(3)
	before, screenBefore := h.rec.Stats(), h.screen.Stats()

	h.rec.Reconcile()
	h.rec.Reconcile()

	after, screenAfter := h.rec.Stats(), h.screen.Stats()
	assert.Equal(t, screenBefore, screenAfter)
	assert.Equal(t, before.Created, after.Created)
	assert.Equal(t, before.Destroyed, after.Destroyed)
	assert.Equal(t, before.Rendered, after.Rendered)
	assert.Equal(t, before.Repositioned, after.Repositioned)
	h.check(t)
}

func TestScrollOverlapping(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 1000, 10, 5)
	first := h.rec.Nodes()

	h.scroll(2)
	h.check(t)
	assert.Equal(t, "item 2\nitem 3\nitem 4\nitem 5\nitem 6", h.screen.Render())

	// Items 2..4 keep their nodes.
	assert.Equal(t, first[2:], h.rec.Nodes()[:3])

	stats := h.rec.Stats()
	assert.Equal(t, 7, stats.Created)
	assert.Equal(t, 1, stats.Destroyed)
	assert.Equal(t, 1, stats.Retained)
	assert.Equal(t, 2, stats.InsertBatches)

	v, ok := h.screen.Attr(first[1], surface.AttrRetained)
	require.True(t, ok)
	assert.Equal(t, "true", v)
	_, ok = h.screen.Content(first[0])
	assert.False(t, ok)
}

func TestScrollDisjointJump(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 1000, 10, 20)
	start, end := h.rec.Range()
	require.Equal(t, 0, start)
	require.Equal(t, 20, end)
	before := h.rec.Stats()

	h.scroll(500)
	h.check(t)

	start, end = h.rec.Range()
	assert.Equal(t, 500, start)
	assert.Equal(t, 520, end)

	after := h.rec.Stats()
	assert.Equal(t, before.Reused, after.Reused)
	assert.Equal(t, 1, after.Teardowns-before.Teardowns)
	assert.Equal(t, 20, after.Destroyed-before.Destroyed)
	assert.Equal(t, 20, after.Created-before.Created)
	assert.Equal(t, 20, h.screen.Len())
}

func TestRetentionExpires(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }
	h := newHarness(t, 100, 10, 5, WithClock(clock), WithGrace(time.Second))
	first := h.rec.Nodes()

	h.scroll(1)
	until, ok := h.rec.RetainedUntil()
	require.True(t, ok)
	assert.Equal(t, now.Add(time.Second), until)
	assert.Equal(t, 6, h.screen.Len())
	assert.Equal(t, h.want(), h.screen.Render())

	now = now.Add(500 * time.Millisecond)
	h.disp.Flush()
	assert.Equal(t, 6, h.screen.Len())

	// A newer eviction replaces the retained node.
	h.scroll(2)
	assert.Equal(t, 6, h.screen.Len())
	_, ok = h.screen.Content(first[0])
	assert.False(t, ok)

	now = now.Add(1100 * time.Millisecond)
	h.disp.Flush()
	_, ok = h.rec.RetainedUntil()
	assert.False(t, ok)
	assert.Equal(t, 5, h.screen.Len())
	assert.Equal(t, 1, h.rec.Stats().Expired)
	h.check(t)
}

// attrFailing is a surface that rejects every attribute.
type attrFailing struct {
	*surface.Screen
}

func (attrFailing) SetAttr(surface.Node, string, string) error {
	return errors.New("attribute rejected")
}

func TestRetainFailureReleasesNode(t *testing.T) {
	t.Parallel()

	screen := surface.NewScreen(10, 5)
	m := model.New(lines(100))
	engine := layout.New(offset.NewTree(m.Heights()), screen,
		layout.WithSize(10, 5), layout.WithLength(m.Len))
	rec := New(attrFailing{screen}, engine, m)
	disp := event.NewDispatcher(nil)
	disp.Register(engine)
	disp.Register(rec)
	disp.Flush()
	first := rec.Nodes()

	screen.SetScrollTop(1)
	disp.Flush()

	_, ok := rec.RetainedUntil()
	assert.False(t, ok)
	assert.Equal(t, 5, rec.Len())
	assert.Equal(t, 5, screen.Len())
	_, ok = screen.Content(first[0])
	assert.False(t, ok)
	assert.Equal(t, 1, rec.Stats().Destroyed)
}

func TestReplaceTouchesOnlyDirtyNodes(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 100, 10, 5)
	screenBefore, before := h.screen.Stats(), h.rec.Stats()

	require.NoError(t, h.model.Replace(3, line{text: "changed", height: 1}))
	h.disp.Flush()
	h.check(t)

	screenAfter, after := h.screen.Stats(), h.rec.Stats()
	assert.Equal(t, 1, screenAfter.Replaced-screenBefore.Replaced)
	assert.Equal(t, screenBefore.Inserts, screenAfter.Inserts)
	assert.Equal(t, screenBefore.Bounds, screenAfter.Bounds)
	assert.Equal(t, 1, after.ReplaceBatches-before.ReplaceBatches)
	assert.Equal(t, 1, after.Rendered-before.Rendered)
	assert.Equal(t, "item 0\nitem 1\nitem 2\nchanged\nitem 4", h.screen.Render())
}

func TestReplaceWithDifferentHeight(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 100, 10, 5)
	require.NoError(t, h.model.Replace(1, line{text: "tall", height: 3}))
	h.disp.Flush()
	h.check(t)
	assert.Equal(t, "item 0\ntall\n\n\nitem 2", h.screen.Render())
	assert.Equal(t, h.want(), h.screen.Render())
}

func TestInsertInsideWindow(t *testing.T) {
	t.Parallel()

	t.Run("adds placeholders", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, 100, 10, 5)
		kept := h.rec.Nodes()

		require.NoError(t, h.model.Insert(2, line{text: "new a", height: 1}, line{text: "new b", height: 1}))
		h.disp.Flush()
		h.check(t)

		assert.Equal(t, "item 0\nitem 1\nnew a\nnew b\nitem 2", h.screen.Render())
		nodes := h.rec.Nodes()
		assert.Equal(t, kept[:2], nodes[:2])
		assert.Equal(t, kept[2], nodes[4])
	})

	t.Run("longer than the window truncates", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, 100, 10, 5)

		inserted := make([]line, 10)
		for i := range inserted {
			inserted[i] = line{text: fmt.Sprintf("new %d", i), height: 1}
		}
		require.NoError(t, h.model.Insert(2, inserted...))
		before := h.rec.Stats()
		h.disp.Flush()
		h.check(t)
		assert.Equal(t, "item 0\nitem 1\nnew 0\nnew 1\nnew 2", h.screen.Render())
		assert.Equal(t, 3, h.rec.Stats().Destroyed-before.Destroyed)
		assert.Zero(t, h.rec.Stats().Retained-before.Retained)
	})

	t.Run("before the window shifts it", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, 100, 10, 5)
		h.scroll(10)
		kept := h.rec.Nodes()

		require.NoError(t, h.model.Prepend(line{text: "head", height: 1}))
		h.disp.Flush()
		h.check(t)
		assert.Equal(t, kept[:4], h.rec.Nodes()[1:])
	})
}

func TestDelete(t *testing.T) {
	t.Parallel()

	t.Run("inside the window", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, 100, 10, 5)
		require.NoError(t, h.model.Remove(1, 2))
		h.disp.Flush()
		h.check(t)
		assert.Equal(t, "item 0\nitem 3\nitem 4\nitem 5\nitem 6", h.screen.Render())
	})

	t.Run("before the window", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, 100, 10, 5)
		h.scroll(10)
		kept := h.rec.Nodes()
		require.NoError(t, h.model.Remove(0, 3))
		h.disp.Flush()
		h.check(t)
		assert.Equal(t, h.want(), h.screen.Render())
		// Items 13 and 14 moved to the top of the window.
		assert.Equal(t, kept[3:], h.rec.Nodes()[:2])
	})

	t.Run("everything", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, 100, 10, 5)
		require.NoError(t, h.model.Reset(nil))
		h.disp.Flush()
		h.check(t)
		assert.Zero(t, h.screen.Len())
		assert.Equal(t, "\n\n\n\n", h.screen.Render())

		require.NoError(t, h.model.Append(lines(3)...))
		h.disp.Flush()
		h.check(t)
		assert.Equal(t, 3, h.rec.Len())
	})
}

func TestToleratesMissingNodes(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 100, 10, 5)
	gone := h.rec.Nodes()[2]
	require.NoError(t, h.screen.Remove(gone))

	require.NoError(t, h.model.Splice(1, 3,
		line{text: "one", height: 1}, line{text: "two", height: 1}, line{text: "three", height: 1}))
	h.disp.Flush()
	h.check(t)
	assert.NotEqual(t, gone, h.rec.Nodes()[2])
	assert.Equal(t, "item 0\none\ntwo\nthree\nitem 4", h.screen.Render())
}

func TestWidthChangeOnlyRepositions(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 100, 10, 5)
	kept := h.rec.Nodes()
	before := h.rec.Stats()

	h.screen.SetViewportSize(20, 5)
	h.disp.Emit(event.DimensionChanged(event.Dimension{Width: 20, Height: 5}))
	h.disp.Flush()
	h.check(t)

	after := h.rec.Stats()
	assert.Equal(t, kept, h.rec.Nodes())
	assert.Equal(t, before.Created, after.Created)
	assert.Equal(t, before.Rendered, after.Rendered)
	assert.Equal(t, 5, after.Repositioned-before.Repositioned)
}

func TestClose(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 100, 10, 5)
	h.scroll(1)
	require.Equal(t, 6, h.screen.Len())

	h.rec.Close()
	assert.Zero(t, h.screen.Len())
	assert.Zero(t, h.rec.Len())
	_, ok := h.rec.RetainedUntil()
	assert.False(t, ok)
}

func TestRandomOperationsKeepWindowConsistent(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 11))
	h := newHarness(t, 50, 16, 8)
	next := 0

	fresh := func(n int) []line {
		items := make([]line, n)
		for i := range items {
			next++
			items[i] = line{text: fmt.Sprintf("r%d", next), height: 1 + rng.IntN(3)}
		}
		return items
	}

	for step := range 400 {
		switch rng.IntN(4) {
		case 0:
			h.scroll(rng.IntN(h.engine.ContentHeight() + 10))
		default:
			n := h.model.Len()
			start := rng.IntN(n + 1)
			del := rng.IntN(min(n-start, 6) + 1)
			require.NoError(t, h.model.Splice(start, del, fresh(rng.IntN(6))...), "step %d", step)
			h.disp.Flush()
		}
		h.check(t)
		assert.Equal(t, h.model.TotalHeight(), h.engine.ContentHeight())
	}
}
