package event

import (
	"fmt"
	"log/slog"
	"slices"
)

// Dispatcher queues events and delivers them on Flush.
//
// Emit only queues; the owner is told that work is pending through the
// signal function, at most once until the next Flush.
type Dispatcher struct {
	listeners []Listener
	pending   []Event
	signal    func()
	signaled  bool
}

// NewDispatcher creates a dispatcher. signal may be nil.
func NewDispatcher(signal func()) *Dispatcher {
	return &Dispatcher{signal: signal}
}

// Register adds l after every listener registered so far. Listeners are
// invoked in registration order. The returned function removes l.
func (d *Dispatcher) Register(l Listener) func() {
	// Copy on write: a flush in progress keeps iterating its own snapshot.
	d.listeners = append(slices.Clip(d.listeners), l)
	return func() {
		d.listeners = slices.DeleteFunc(slices.Clone(d.listeners), func(other Listener) bool {
			return other == l
		})
	}
}

// Listeners returns the number of registered listeners.
func (d *Dispatcher) Listeners() int {
	return len(d.listeners)
}

// Emit queues ev.
func (d *Dispatcher) Emit(ev Event) {
	d.pending = append(d.pending, ev)
	if d.signaled {
		return
	}
	d.signaled = true
	if d.signal != nil {
		d.signal()
	}
}

// Pending returns the number of queued events.
func (d *Dispatcher) Pending() int {
	return len(d.pending)
}

// Discard drops every queued event without delivering it.
func (d *Dispatcher) Discard() {
	clear(d.pending)
	d.pending = d.pending[:0]
	d.signaled = false
}

// Flush delivers every queued event, in emission order, to a snapshot of
// the listeners, bracketed by BeforeDispatch and AfterDispatch. Events
// emitted by listeners during the flush are delivered in the same flush.
func (d *Dispatcher) Flush() {
	listeners := d.listeners
	// Emits from inside the flush must not signal again.
	d.signaled = true
	defer func() {
		d.signaled = false
		if len(d.pending) > 0 {
			// Queued by an AfterDispatch hook: ask for another flush.
			d.signaled = true
			if d.signal != nil {
				d.signal()
			}
		}
	}()

	for _, l := range listeners {
		l.BeforeDispatch()
	}
	for i := 0; i < len(d.pending); i++ {
		ev := d.pending[i]
		switch ev.Kind {
		case KindDimension:
			for _, l := range listeners {
				l.DimensionChanged(ev.Dimension)
			}
		case KindItems:
			for _, l := range listeners {
				l.ItemsChanged(ev.Items)
			}
		case KindScroll:
		default:
			panic(fmt.Sprintf("event: unknown kind %s", ev.Kind))
		}
	}
	if n := len(d.pending); n > 0 {
		slog.Debug("Flushed list events", "count", n)
	}
	clear(d.pending)
	d.pending = d.pending[:0]

	for _, l := range listeners {
		l.AfterDispatch()
	}
}
