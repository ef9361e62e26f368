// Package simulate drives a list widget headlessly with random splices,
// scrolls and resizes, checking the list invariants after every frame.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/tujuhre12/vlist/internal/list/model"
	"github.com/tujuhre12/vlist/internal/list/surface"
	"github.com/tujuhre12/vlist/internal/list/widget"
	"github.com/tujuhre12/vlist/internal/list/window"
	"github.com/tujuhre12/vlist/internal/tui/items"
)

// ErrViolation is returned when an invariant does not hold.
var ErrViolation = errors.New("list invariant violated")

// maxViolations stops a run once this many violations were recorded.
const maxViolations = 20

// Options configure a run.
type Options struct {
	Steps  int
	Items  int
	Width  int
	Height int
	Seed   uint64
	// Tick is how far the simulated clock moves per step.
	Tick  time.Duration
	Grace time.Duration
}

func (o *Options) setDefaults() {
	if o.Steps <= 0 {
		o.Steps = 1000
	}
	if o.Items < 0 {
		o.Items = 0
	}
	if o.Width <= 0 {
		o.Width = 80
	}
	if o.Height <= 0 {
		o.Height = 24
	}
	if o.Tick <= 0 {
		o.Tick = 100 * time.Millisecond
	}
	if o.Grace <= 0 {
		o.Grace = window.DefaultGrace
	}
}

// Report summarizes a run.
type Report struct {
	Seed          uint64        `json:"seed" yaml:"seed"`
	Steps         int           `json:"steps" yaml:"steps"`
	Frames        int           `json:"frames" yaml:"frames"`
	Splices       int           `json:"splices" yaml:"splices"`
	Scrolls       int           `json:"scrolls" yaml:"scrolls"`
	Resizes       int           `json:"resizes" yaml:"resizes"`
	Items         int           `json:"items" yaml:"items"`
	ContentHeight int           `json:"content_height" yaml:"content_height"`
	WindowStart   int           `json:"window_start" yaml:"window_start"`
	WindowEnd     int           `json:"window_end" yaml:"window_end"`
	Window        window.Stats  `json:"window" yaml:"window"`
	Surface       surface.Stats `json:"surface" yaml:"surface"`
	Violations    []string      `json:"violations,omitempty" yaml:"violations,omitempty"`
	Elapsed       string        `json:"elapsed" yaml:"elapsed"`
}

// queue is a scheduler whose frames run when the driver says so.
type queue struct {
	pending []*frame
}

type frame struct {
	fn        func()
	cancelled bool
}

func (q *queue) Schedule(fn func()) func() {
	f := &frame{fn: fn}
	q.pending = append(q.pending, f)
	return func() { f.cancelled = true }
}

func (q *queue) run() int {
	ran := 0
	for len(q.pending) > 0 {
		pending := q.pending
		q.pending = nil
		for _, f := range pending {
			if f.cancelled {
				continue
			}
			f.fn()
			ran++
		}
	}
	return ran
}

type driver struct {
	opts   Options
	rng    *rand.Rand
	now    time.Time
	screen *surface.Screen
	sched  *queue
	widget *widget.Widget
	model  *model.Model[items.Item]
	report *Report
}

// Run performs a simulation. The report is returned even when invariants
// were violated, together with an error wrapping ErrViolation.
func Run(ctx context.Context, opts Options) (*Report, error) {
	opts.setDefaults()
	started := time.Now()

	d := &driver{
		opts:   opts,
		rng:    rand.New(rand.NewPCG(opts.Seed, opts.Seed+1)),
		now:    time.Unix(0, 0),
		screen: surface.NewScreen(opts.Width, opts.Height),
		sched:  &queue{},
		report: &Report{Seed: opts.Seed},
	}
	d.widget = widget.New(d.screen, d.sched,
		widget.WithClock(func() time.Time { return d.now }),
		widget.WithGrace(opts.Grace),
	)
	defer d.widget.Close()

	d.model = model.New(d.fresh(opts.Items))
	d.widget.Bind(d.model)
	d.check("bind")

	for step := range opts.Steps {
		if err := ctx.Err(); err != nil {
			return d.finish(started), fmt.Errorf("simulation interrupted at step %d: %w", step, err)
		}
		d.now = d.now.Add(opts.Tick)
		if err := d.step(); err != nil {
			return d.finish(started), fmt.Errorf("step %d: %w", step, err)
		}
		d.report.Steps++
		d.report.Frames += d.sched.run()
		d.check(fmt.Sprintf("step %d", step))
		if len(d.report.Violations) >= maxViolations {
			break
		}
	}

	report := d.finish(started)
	if n := len(report.Violations); n > 0 {
		return report, fmt.Errorf("%d violations, first: %s: %w", n, report.Violations[0], ErrViolation)
	}
	slog.Info("Simulation finished", "seed", opts.Seed, "steps", report.Steps, "frames", report.Frames)
	return report, nil
}

func (d *driver) fresh(n int) []items.Item {
	out := make([]items.Item, n)
	for i := range out {
		out[i] = items.NewText(items.Sentence(d.rng, 1+d.rng.IntN(40)), d.opts.Width)
	}
	return out
}

// step applies one random action. Several splices in a row end up in the
// same frame.
func (d *driver) step() error {
	switch r := d.rng.IntN(100); {
	case r < 55:
		for range 1 + d.rng.IntN(3) {
			if err := d.splice(); err != nil {
				return err
			}
		}
	case r < 65:
		if err := d.replaceVisible(); err != nil {
			return err
		}
	case r < 90:
		d.scroll()
	default:
		d.resize()
	}
	return nil
}

func (d *driver) splice() error {
	n := d.model.Len()
	start := d.rng.IntN(n + 1)
	del := d.rng.IntN(min(n-start, 20) + 1)
	ins := d.rng.IntN(20)
	// Large jumps now and then.
	if d.rng.IntN(20) == 0 {
		ins += 200
	}
	d.report.Splices++
	return d.model.Splice(start, del, d.fresh(ins)...)
}

func (d *driver) replaceVisible() error {
	start, end := d.widget.Window().Range()
	if start == end {
		return d.splice()
	}
	d.report.Splices++
	return d.model.Replace(start+d.rng.IntN(end-start), d.fresh(1)[0])
}

func (d *driver) scroll() {
	d.report.Scrolls++
	engine := d.widget.Layout()
	switch d.rng.IntN(3) {
	case 0:
		engine.ScrollBy(d.rng.IntN(2*d.opts.Height+1) - d.opts.Height)
	case 1:
		engine.ScrollTo(d.rng.IntN(engine.ContentHeight() + 1))
	default:
		if n := d.model.Len(); n > 0 {
			engine.ScrollToIndex(d.rng.IntN(n))
		}
	}
}

func (d *driver) resize() {
	d.report.Resizes++
	width := max(10, d.opts.Width+d.rng.IntN(21)-10)
	height := max(1, d.opts.Height+d.rng.IntN(11)-5)
	d.screen.SetViewportSize(width, height)
}

func (d *driver) violation(where, format string, args ...any) {
	msg := where + ": " + fmt.Sprintf(format, args...)
	slog.Warn("Invariant violated", "detail", msg)
	d.report.Violations = append(d.report.Violations, msg)
}

// check verifies the list invariants against the current state.
func (d *driver) check(where string) {
	engine, rec := d.widget.Layout(), d.widget.Window()

	if got, want := engine.ContentHeight(), d.model.TotalHeight(); got != want {
		d.violation(where, "index total %d, model total %d", got, want)
	}
	if got, want := engine.Index().Count(), d.model.Len(); got != want {
		d.violation(where, "index count %d, model length %d", got, want)
	}
	if _, h := d.screen.ContentSize(); h != engine.ContentHeight() {
		d.violation(where, "surface content height %d, index total %d", h, engine.ContentHeight())
	}

	win := engine.VisibleWindow()
	start, end := rec.Range()
	if start != win.Start || end != win.End() {
		d.violation(where, "rendered [%d,%d), visible [%d,%d)", start, end, win.Start, win.End())
		return
	}
	if dirty := rec.Dirty(); len(dirty) > 0 {
		d.violation(where, "%d dirty slots after a frame", len(dirty))
	}

	width, _ := engine.Size()
	for i, n := range rec.Nodes() {
		var b strings.Builder
		d.model.ItemAt(start + i).RenderInto(&b)
		content, ok := d.screen.Content(n)
		switch {
		case !ok:
			d.violation(where, "item %d has no node", start+i)
		case content != b.String():
			d.violation(where, "item %d shows stale content", start+i)
		}
		bounds, _ := d.screen.Bounds(n)
		want := surface.Rect{Top: win.Tops[i], Width: width, Height: win.Heights[i]}
		if ok && bounds != want {
			d.violation(where, "item %d bounds %+v, want %+v", start+i, bounds, want)
		}
	}

	live := rec.Len()
	if _, ok := rec.RetainedUntil(); ok {
		live++
	}
	if d.screen.Len() != live {
		d.violation(where, "%d nodes on the surface, %d expected", d.screen.Len(), live)
	}
}

func (d *driver) finish(started time.Time) *Report {
	r := d.report
	r.Items = d.model.Len()
	if engine := d.widget.Layout(); engine != nil {
		r.ContentHeight = engine.ContentHeight()
	}
	if rec := d.widget.Window(); rec != nil {
		r.WindowStart, r.WindowEnd = rec.Range()
		r.Window = rec.Stats()
	}
	r.Surface = d.screen.Stats()
	r.Elapsed = time.Since(started).Round(time.Millisecond).String()
	return r
}
