package listview

import (
	"time"

	tea "charm.land/bubbletea/v2"
)

type frameMsg struct {
	id uint64
}

// scheduler turns frame requests into delayed tea messages. Requests made
// while handling a message are collected and handed to the program as
// commands when Update returns.
type scheduler struct {
	interval time.Duration
	next     uint64
	pending  map[uint64]func()
	queued   []uint64
}

func newScheduler(interval time.Duration) *scheduler {
	return &scheduler{
		interval: interval,
		pending:  make(map[uint64]func()),
	}
}

// Schedule implements event.Scheduler.
func (s *scheduler) Schedule(fn func()) func() {
	s.next++
	id := s.next
	s.pending[id] = fn
	s.queued = append(s.queued, id)
	return func() {
		delete(s.pending, id)
	}
}

// cmd returns the ticks for the requests made since the last call.
func (s *scheduler) cmd() tea.Cmd {
	if len(s.queued) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(s.queued))
	for _, id := range s.queued {
		cmds = append(cmds, tea.Tick(s.interval, func(time.Time) tea.Msg {
			return frameMsg{id: id}
		}))
	}
	s.queued = nil
	return tea.Batch(cmds...)
}

// fire runs the request id. Cancelled requests are ignored.
func (s *scheduler) fire(id uint64) bool {
	fn, ok := s.pending[id]
	if !ok {
		return false
	}
	delete(s.pending, id)
	fn()
	return true
}
