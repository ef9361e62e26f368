// Package window keeps the set of rendered surface nodes aligned with the
// visible part of the list, touching the surface as little as possible.
package window

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/tujuhre12/vlist/internal/list/event"
	"github.com/tujuhre12/vlist/internal/list/layout"
	"github.com/tujuhre12/vlist/internal/list/model"
	"github.com/tujuhre12/vlist/internal/list/surface"
)

// DefaultGrace is how long an evicted boundary node stays on the surface.
const DefaultGrace = time.Second

// Layout answers which items are visible and how wide the viewport is.
type Layout interface {
	VisibleWindow() layout.Window
	Size() (width, height int)
}

// Source gives access to the items being rendered.
type Source interface {
	ItemAt(i int) model.Item
}

// Stats are cumulative reconciliation counters.
type Stats struct {
	Reconciles     int `json:"reconciles" yaml:"reconciles"`
	Created        int `json:"created" yaml:"created"`
	Destroyed      int `json:"destroyed" yaml:"destroyed"`
	Reused         int `json:"reused" yaml:"reused"`
	Rendered       int `json:"rendered" yaml:"rendered"`
	Repositioned   int `json:"repositioned" yaml:"repositioned"`
	Retained       int `json:"retained" yaml:"retained"`
	Expired        int `json:"expired" yaml:"expired"`
	InsertBatches  int `json:"insert_batches" yaml:"insert_batches"`
	ReplaceBatches int `json:"replace_batches" yaml:"replace_batches"`
	Teardowns      int `json:"teardowns" yaml:"teardowns"`
}

// slot is one rendered item. A slot without a node is a placeholder that
// the next materialization fills.
type slot struct {
	node   surface.Node
	dirty  bool
	placed bool
	bounds surface.Rect
}

// retained is the most recently evicted boundary node, kept for a grace
// period so a node under interaction is not yanked from the surface.
type retained struct {
	node      surface.Node
	above     bool
	evictedAt time.Time
}

// Reconciler owns the rendered window: slots[i] always renders item
// start+i.
type Reconciler struct {
	surface surface.Surface
	layout  Layout
	source  Source
	clock   func() time.Time
	grace   time.Duration

	start    int
	slots    []slot
	retained *retained
	stats    Stats
}

var _ event.Listener = (*Reconciler)(nil)

type Option func(*Reconciler)

// WithClock sets the clock used for node retention.
func WithClock(clock func() time.Time) Option {
	return func(r *Reconciler) {
		r.clock = clock
	}
}

// WithGrace sets how long an evicted boundary node is retained.
func WithGrace(d time.Duration) Option {
	return func(r *Reconciler) {
		r.grace = d
	}
}

// New creates a reconciler with an empty window.
func New(s surface.Surface, l Layout, src Source, opts ...Option) *Reconciler {
	r := &Reconciler{
		surface: s,
		layout:  l,
		source:  src,
		clock:   time.Now,
		grace:   DefaultGrace,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BeforeDispatch implements event.Listener.
func (r *Reconciler) BeforeDispatch() {}

// DimensionChanged implements event.Listener. The new size is read from
// the layout when reconciling.
func (r *Reconciler) DimensionChanged(event.Dimension) {}

// ItemsChanged implements event.Listener. It moves the window into the
// index space after the mutation so that every slot keeps rendering the
// item it rendered before, and flags replaced items dirty.
func (r *Reconciler) ItemsChanged(d model.Decomposed) {
	if len(r.slots) == 0 {
		return
	}
	r.markDirty(d.ChangedStart, d.ChangedEnd())
	if d.DeleteCount > 0 {
		r.deleteRange(d.DeleteStart, d.DeleteCount)
	}
	if n := len(d.InsertedHeights); n > 0 {
		r.insertRange(d.InsertStart, n)
	}
}

// AfterDispatch implements event.Listener.
func (r *Reconciler) AfterDispatch() {
	r.Reconcile()
}

func (r *Reconciler) end() int {
	return r.start + len(r.slots)
}

func (r *Reconciler) markDirty(from, to int) {
	for i := max(from, r.start); i < min(to, r.end()); i++ {
		r.slots[i-r.start].dirty = true
	}
}

func (r *Reconciler) deleteRange(from, count int) {
	s, e := r.start, r.end()
	lo, hi := max(s, from), min(e, from+count)
	if lo < hi {
		for _, sl := range r.slots[lo-s : hi-s] {
			r.destroy(sl.node)
		}
		r.slots = slices.Delete(r.slots, lo-s, hi-s)
	}
	r.start = s - min(max(s-from, 0), count)
}

func (r *Reconciler) insertRange(at, count int) {
	s, e := r.start, r.end()
	switch {
	case at <= s:
		r.start += count
	case at < e:
		i := at - s
		if count > len(r.slots) {
			// The inserted run would push everything after it out of
			// view anyway.
			for _, sl := range r.slots[i:] {
				r.destroy(sl.node)
			}
			r.slots = r.slots[:i]
			return
		}
		r.slots = slices.Insert(r.slots, i, placeholders(count)...)
	}
}

func placeholders(n int) []slot {
	slots := make([]slot, n)
	for i := range slots {
		slots[i].dirty = true
	}
	return slots
}

// Reconcile aligns the rendered window with the visible window, then
// writes bounds and content where they are stale. Running it twice in a
// row does nothing the second time.
func (r *Reconciler) Reconcile() {
	r.stats.Reconciles++
	r.expireRetained()

	win := r.layout.VisibleWindow()
	width, _ := r.layout.Size()

	if win.Len() == 0 {
		r.releaseAll()
		r.start = win.Start
		return
	}

	if len(r.slots) == 0 || win.End() <= r.start || r.end() <= win.Start {
		if len(r.slots) > 0 {
			r.stats.Teardowns++
			slog.Debug("Window jumped, rebuilding",
				"from", r.start, "to", r.end(), "new_from", win.Start, "new_to", win.End())
		}
		r.releaseAll()
		r.start = win.Start
		r.slots = placeholders(win.Len())
	} else {
		r.align(win)
	}

	if len(r.slots) != win.Len() || r.start != win.Start {
		panic(fmt.Sprintf("window: rendered [%d,%d) does not match visible [%d,%d)",
			r.start, r.end(), win.Start, win.End()))
	}

	r.place(win, width)
	r.rewriteDirty()
	r.insertMissing()
}

// align edits both edges of an overlapping window.
func (r *Reconciler) align(win layout.Window) {
	switch {
	case win.Start > r.start:
		r.evict(0, win.Start-r.start, true)
	case win.Start < r.start:
		r.slots = slices.Insert(r.slots, 0, placeholders(r.start-win.Start)...)
	}
	r.start = win.Start

	switch end := r.end(); {
	case win.End() < end:
		r.evict(win.End()-r.start, len(r.slots), false)
	case win.End() > end:
		r.slots = append(r.slots, placeholders(win.End()-end)...)
	}

	for _, sl := range r.slots {
		if sl.node != 0 {
			r.stats.Reused++
		}
	}
}

// evict drops slots [lo,hi). The node adjacent to what stays in the window
// is retained; the others are destroyed.
func (r *Reconciler) evict(lo, hi int, above bool) {
	boundary := lo
	if above {
		boundary = hi - 1
	}
	for i := lo; i < hi; i++ {
		if i == boundary {
			r.retain(r.slots[i].node, above)
			continue
		}
		r.destroy(r.slots[i].node)
	}
	r.slots = slices.Delete(r.slots, lo, hi)
}

func (r *Reconciler) retain(n surface.Node, above bool) {
	if n == 0 {
		return
	}
	if err := r.surface.SetAttr(n, surface.AttrRetained, "true"); err != nil {
		r.surfaceError("retain", n, err)
		if !errors.Is(err, surface.ErrNodeNotFound) {
			// A node that cannot be hidden is not kept either.
			r.destroy(n)
		}
		return
	}
	if r.retained != nil {
		r.destroy(r.retained.node)
	}
	r.retained = &retained{node: n, above: above, evictedAt: r.clock()}
	r.stats.Retained++
}

func (r *Reconciler) expireRetained() {
	if r.retained == nil || r.clock().Sub(r.retained.evictedAt) < r.grace {
		return
	}
	r.destroy(r.retained.node)
	r.retained = nil
	r.stats.Expired++
}

// RetainedUntil reports when the retained node, if any, expires.
func (r *Reconciler) RetainedUntil() (time.Time, bool) {
	if r.retained == nil {
		return time.Time{}, false
	}
	return r.retained.evictedAt.Add(r.grace), true
}

// place writes the bounds of every live slot whose bounds changed.
func (r *Reconciler) place(win layout.Window, width int) {
	for i := range r.slots {
		sl := &r.slots[i]
		want := surface.Rect{Top: win.Tops[i], Width: width, Height: win.Heights[i]}
		if sl.node == 0 {
			sl.bounds = want
			continue
		}
		if sl.placed && sl.bounds == want {
			continue
		}
		sl.bounds = want
		if err := r.surface.SetBounds(sl.node, want); err != nil {
			r.lost(sl, "set bounds", err)
			continue
		}
		sl.placed = true
		r.stats.Repositioned++
	}
}

// rewriteDirty regenerates the content of every dirty slot that owns a
// node, in one surface call.
func (r *Reconciler) rewriteDirty() {
	var (
		idx       []int
		nodes     []surface.Node
		fragments []string
	)
	for i, sl := range r.slots {
		if sl.node == 0 || !sl.dirty {
			continue
		}
		idx = append(idx, i)
		nodes = append(nodes, sl.node)
		fragments = append(fragments, r.render(i))
	}
	if len(nodes) == 0 {
		return
	}
	r.stats.ReplaceBatches++
	if err := r.surface.ReplaceContent(nodes, fragments); err != nil {
		if !errors.Is(err, surface.ErrNodeNotFound) {
			slog.Error("Failed to replace node content", "count", len(nodes), "error", err)
			return
		}
		// Find out which nodes went away; the survivors are rewritten one
		// by one and the lost ones become placeholders.
		for k, i := range idx {
			sl := &r.slots[i]
			if err := r.surface.ReplaceContent(nodes[k:k+1], fragments[k:k+1]); err != nil {
				r.lost(sl, "replace content", err)
				continue
			}
			sl.dirty = false
			r.stats.Rendered++
		}
		return
	}
	for _, i := range idx {
		r.slots[i].dirty = false
	}
	r.stats.Rendered += len(idx)
}

// insertMissing materializes every maximal run of placeholder slots with a
// single insertion, placed before the next live slot.
func (r *Reconciler) insertMissing() {
	for i := 0; i < len(r.slots); {
		if r.slots[i].node != 0 {
			i++
			continue
		}
		j := i
		for j < len(r.slots) && r.slots[j].node == 0 {
			j++
		}
		r.insertRun(i, j)
		i = j
	}
}

func (r *Reconciler) insertRun(lo, hi int) {
	fragments := make([]string, 0, hi-lo)
	for i := lo; i < hi; i++ {
		fragments = append(fragments, r.render(i))
	}
	var before surface.Node
	if hi < len(r.slots) {
		before = r.slots[hi].node
	}
	nodes, err := r.surface.InsertNodes(before, fragments)
	if err != nil && before != 0 && errors.Is(err, surface.ErrNodeNotFound) {
		r.surfaceError("insert", before, err)
		nodes, err = r.surface.InsertNodes(0, fragments)
	}
	if err != nil {
		slog.Error("Failed to insert nodes", "count", len(fragments), "error", err)
		return
	}
	r.stats.InsertBatches++
	r.stats.Created += len(nodes)
	r.stats.Rendered += len(nodes)
	for k, n := range nodes {
		sl := &r.slots[lo+k]
		sl.node = n
		sl.dirty = false
		if err := r.surface.SetBounds(n, sl.bounds); err != nil {
			r.surfaceError("set bounds", n, err)
			continue
		}
		sl.placed = true
	}
}

func (r *Reconciler) render(i int) string {
	var b strings.Builder
	r.source.ItemAt(r.start + i).RenderInto(&b)
	return b.String()
}

// lost turns a slot whose node disappeared into a placeholder.
func (r *Reconciler) lost(sl *slot, op string, err error) {
	r.surfaceError(op, sl.node, err)
	sl.node = 0
	sl.placed = false
	sl.dirty = true
}

func (r *Reconciler) destroy(n surface.Node) {
	if n == 0 {
		return
	}
	if err := r.surface.Remove(n); err != nil {
		r.surfaceError("remove", n, err)
		return
	}
	r.stats.Destroyed++
}

func (r *Reconciler) surfaceError(op string, n surface.Node, err error) {
	if errors.Is(err, surface.ErrNodeNotFound) {
		slog.Warn("Surface node already gone", "op", op, "node", n)
		return
	}
	slog.Error("Surface operation failed", "op", op, "node", n, "error", err)
}

func (r *Reconciler) releaseAll() {
	for _, sl := range r.slots {
		r.destroy(sl.node)
	}
	r.slots = nil
}

// Close destroys every node, including the retained one.
func (r *Reconciler) Close() {
	r.releaseAll()
	if r.retained != nil {
		r.destroy(r.retained.node)
		r.retained = nil
	}
}

// Range returns the rendered logical range [start, end).
func (r *Reconciler) Range() (start, end int) {
	return r.start, r.end()
}

// Len returns the number of rendered slots.
func (r *Reconciler) Len() int {
	return len(r.slots)
}

// Nodes returns the node of every slot, in window order.
func (r *Reconciler) Nodes() []surface.Node {
	nodes := make([]surface.Node, len(r.slots))
	for i, sl := range r.slots {
		nodes[i] = sl.node
	}
	return nodes
}

// Dirty returns the window-relative indexes of slots waiting for content.
func (r *Reconciler) Dirty() []int {
	var dirty []int
	for i, sl := range r.slots {
		if sl.dirty {
			dirty = append(dirty, i)
		}
	}
	return dirty
}

// Stats returns the cumulative counters.
func (r *Reconciler) Stats() Stats {
	return r.stats
}
