package event

// Scheduler runs fn at the next rendering opportunity. The returned
// function cancels the request; after it returns fn must not run.
type Scheduler interface {
	Schedule(fn func()) (cancel func())
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(fn func()) func()

// Schedule implements Scheduler.
func (f SchedulerFunc) Schedule(fn func()) func() {
	return f(fn)
}

// Frame keeps at most one outstanding request on a Scheduler.
type Frame struct {
	scheduler Scheduler
	fn        func()
	requested bool
	cancel    func()
	// seq invalidates callbacks of cancelled requests, for schedulers that
	// cannot take a callback back once handed out.
	seq uint64
}

// NewFrame creates a Frame that calls fn when the scheduler fires.
func NewFrame(s Scheduler, fn func()) *Frame {
	return &Frame{scheduler: s, fn: fn}
}

// Request asks for a frame. It does nothing while a request is
// outstanding.
func (f *Frame) Request() {
	if f.requested {
		return
	}
	f.seq++
	seq := f.seq
	f.requested = true
	cancel := f.scheduler.Schedule(func() {
		if seq != f.seq || !f.requested {
			return
		}
		f.requested = false
		f.cancel = nil
		f.fn()
	})
	// The scheduler may have fired synchronously.
	if f.requested && f.seq == seq {
		f.cancel = cancel
	}
}

// Pending reports whether a request is outstanding.
func (f *Frame) Pending() bool {
	return f.requested
}

// Cancel drops the outstanding request, if any.
func (f *Frame) Cancel() {
	if !f.requested {
		return
	}
	f.requested = false
	f.seq++
	cancel := f.cancel
	f.cancel = nil
	if cancel != nil {
		cancel()
	}
}
