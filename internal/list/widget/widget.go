// Package widget binds an item model to a surface and drives the list
// machinery one frame at a time.
package widget

import (
	"log/slog"
	"time"

	"github.com/tujuhre12/vlist/internal/list/event"
	"github.com/tujuhre12/vlist/internal/list/layout"
	"github.com/tujuhre12/vlist/internal/list/model"
	"github.com/tujuhre12/vlist/internal/list/offset"
	"github.com/tujuhre12/vlist/internal/list/surface"
	"github.com/tujuhre12/vlist/internal/list/window"
)

// Source is a model the widget can display.
type Source interface {
	window.Source
	Len() int
	Heights() []int
	Subscribe(fn func(model.ChangeEvent)) func()
}

// Widget is a virtualized list drawn on a surface. It is not safe for
// concurrent use; mutations of the bound model must happen on the same
// goroutine that runs frames.
type Widget struct {
	surface    surface.Surface
	dispatcher *event.Dispatcher
	frame      *event.Frame
	newIndex   func(heights []int) offset.Index
	windowOpts []window.Option

	source   Source
	engine   *layout.Engine
	rec      *window.Reconciler
	detach   []func()
	signals  []func()
	closed   bool
	flushing bool
	again    bool
}

type Option func(*Widget)

// WithClock sets the clock used for node retention.
func WithClock(clock func() time.Time) Option {
	return func(w *Widget) {
		w.windowOpts = append(w.windowOpts, window.WithClock(clock))
	}
}

// WithGrace sets how long an evicted boundary node is retained.
func WithGrace(d time.Duration) Option {
	return func(w *Widget) {
		w.windowOpts = append(w.windowOpts, window.WithGrace(d))
	}
}

// WithIndex sets the offset index constructor.
func WithIndex(fn func(heights []int) offset.Index) Option {
	return func(w *Widget) {
		w.newIndex = fn
	}
}

// New creates a widget drawing on s. Frames are requested from sched.
func New(s surface.Surface, sched event.Scheduler, opts ...Option) *Widget {
	w := &Widget{
		surface: s,
		newIndex: func(heights []int) offset.Index {
			return offset.NewTree(heights)
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	w.frame = event.NewFrame(sched, w.onFrame)
	w.dispatcher = event.NewDispatcher(w.frame.Request)
	w.signals = []func(){
		s.OnScroll(func(top int) {
			// Clamps made during a flush are already reconciled.
			if w.flushing {
				return
			}
			w.dispatcher.Emit(event.Scrolled(top))
		}),
		s.OnResize(func(width, height int) {
			w.Resize(event.Dimension{Width: width, Height: height})
		}),
	}
	return w
}

// Bind displays src, replacing whatever model was bound before. The first
// frame is rendered before Bind returns.
func (w *Widget) Bind(src Source) {
	if w.closed {
		return
	}
	w.unbind()

	width, height := w.surface.ViewportSize()
	w.source = src
	w.engine = layout.New(w.newIndex(src.Heights()), w.surface,
		layout.WithSize(width, height),
		layout.WithLength(src.Len),
	)
	w.rec = window.New(w.surface, w.engine, src, w.windowOpts...)
	// The engine must see every event before the reconciler reads the
	// window it computes.
	w.detach = []func(){
		w.dispatcher.Register(w.engine),
		w.dispatcher.Register(w.rec),
		src.Subscribe(func(ev model.ChangeEvent) {
			w.dispatcher.Emit(event.ItemsChanged(model.Decompose(ev)))
		}),
	}
	slog.Debug("Bound list model", "items", src.Len(), "width", width, "height", height)
	w.Flush()
}

func (w *Widget) unbind() {
	for _, fn := range w.detach {
		fn()
	}
	w.detach = nil
	if w.rec != nil {
		w.rec.Close()
	}
	w.frame.Cancel()
	w.dispatcher.Discard()
	w.source, w.engine, w.rec = nil, nil, nil
}

// Resize tells the widget the viewport changed size. The change is
// applied on the next frame.
func (w *Widget) Resize(d event.Dimension) {
	if w.closed {
		return
	}
	w.dispatcher.Emit(event.DimensionChanged(d))
}

func (w *Widget) onFrame() {
	if w.closed {
		return
	}
	w.dispatch()
}

// Flush runs a dispatch cycle now, superseding any requested frame.
func (w *Widget) Flush() {
	if w.closed {
		return
	}
	w.frame.Cancel()
	w.dispatch()
}

func (w *Widget) dispatch() {
	if w.flushing {
		w.again = true
		return
	}
	w.flushing = true
	defer func() { w.flushing = false }()
	for {
		w.again = false
		w.dispatcher.Flush()
		if !w.again {
			return
		}
	}
}

// Close releases every node and stops listening to the model and the
// surface. Calling Close again does nothing.
func (w *Widget) Close() {
	if w.closed {
		return
	}
	w.unbind()
	for _, fn := range w.signals {
		fn()
	}
	w.signals = nil
	w.closed = true
}

// Layout returns the layout engine of the bound model, or nil.
func (w *Widget) Layout() *layout.Engine {
	return w.engine
}

// Window returns the reconciler of the bound model, or nil.
func (w *Widget) Window() *window.Reconciler {
	return w.rec
}

// Bound reports whether a model is bound.
func (w *Widget) Bound() bool {
	return w.source != nil
}

// Pending reports whether a frame has been requested and not yet run.
func (w *Widget) Pending() bool {
	return w.frame.Pending()
}

// Closed reports whether Close was called.
func (w *Widget) Closed() bool {
	return w.closed
}
