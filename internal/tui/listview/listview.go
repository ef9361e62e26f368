// Package listview is a bubbletea program showing a virtualized list.
package listview

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/sahilm/fuzzy"

	"github.com/tujuhre12/vlist/internal/list/model"
	"github.com/tujuhre12/vlist/internal/list/surface"
	"github.com/tujuhre12/vlist/internal/list/widget"
	"github.com/tujuhre12/vlist/internal/source"
	"github.com/tujuhre12/vlist/internal/tui/items"
)

// Options configure the list view.
type Options struct {
	Title         string
	FrameInterval time.Duration
	Grace         time.Duration
	ScrollStep    int
	FilterPrompt  string
	// Compact hides the status bar.
	Compact bool
	// OnCompact is called when the user toggles the status bar, to persist
	// the choice.
	OnCompact func(enabled bool) error
	// Events feeds file changes into the list.
	Events <-chan source.Event
	// Follow keeps the view at the end as lines arrive.
	Follow bool
	// Convert turns new file lines into items. first is the position of
	// the first line in the file, counting from one.
	Convert func(first int, lines []string) ([]items.Item, error)
}

type sourceMsg struct {
	ev source.Event
	ok bool
}

type expireMsg struct{}

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#DFDBDD")).
			Background(lipgloss.Color("#3A3943")).
			PaddingLeft(1)
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF60FF")).
			Background(lipgloss.Color("#3A3943"))
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EB4268")).
			Background(lipgloss.Color("#3A3943"))
	barStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#3A3943"))
)

// Model is the list view program model.
type Model struct {
	opts   Options
	keyMap KeyMap
	help   help.Model

	screen *surface.Screen
	sched  *scheduler
	widget *widget.Widget
	list   *model.Model[items.Item]

	// all holds every item; list holds the ones passing the filter.
	all       []items.Item
	lines     int
	filter    string
	filtering bool
	showHelp  bool
	follow    bool
	expiry    time.Time
	err       error

	width, height int
}

// New creates a list view over all.
func New(all []items.Item, opts Options) *Model {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = 16 * time.Millisecond
	}
	if opts.ScrollStep <= 0 {
		opts.ScrollStep = 3
	}
	if opts.FilterPrompt == "" {
		opts.FilterPrompt = "/"
	}
	if opts.Convert == nil {
		opts.Convert = func(first int, lines []string) ([]items.Item, error) {
			return items.Lines(first, lines), nil
		}
	}

	m := &Model{
		opts:   opts,
		keyMap: DefaultKeyMap(),
		help:   help.New(),
		screen: surface.NewScreen(0, 0),
		sched:  newScheduler(opts.FrameInterval),
		all:    all,
		list:   model.New(all),
		lines:  len(all),
		follow: opts.Follow,
	}
	var wopts []widget.Option
	if opts.Grace > 0 {
		wopts = append(wopts, widget.WithGrace(opts.Grace))
	}
	m.widget = widget.New(m.screen, m.sched, wopts...)
	m.widget.Bind(m.list)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForSource(), m.sched.cmd())
}

func (m *Model) waitForSource() tea.Cmd {
	if m.opts.Events == nil {
		return nil
	}
	events := m.opts.Events
	return func() tea.Msg {
		ev, ok := <-events
		return sourceMsg{ev: ev, ok: ok}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layoutScreen()
	case frameMsg:
		if m.sched.fire(msg.id) && m.follow {
			engine := m.widget.Layout()
			engine.ScrollTo(engine.MaxScroll())
		}
	case expireMsg:
		m.widget.Flush()
	case sourceMsg:
		if !msg.ok {
			slog.Debug("Source closed")
			break
		}
		m.handleSource(msg.ev)
		cmds = append(cmds, m.waitForSource())
	case tea.MouseWheelMsg:
		switch msg.Button {
		case tea.MouseWheelUp:
			m.scrollBy(-m.opts.ScrollStep)
		case tea.MouseWheelDown:
			m.scrollBy(m.opts.ScrollStep)
		}
	case tea.KeyPressMsg:
		if m.filtering {
			m.handleFilterKey(msg)
			break
		}
		if key.Matches(msg, m.keyMap.Quit) {
			return m, tea.Quit
		}
		m.handleKey(msg)
	}
	cmds = append(cmds, m.sched.cmd(), m.expiryCmd())
	return m, tea.Batch(cmds...)
}

func (m *Model) statusHeight() int {
	if m.opts.Compact {
		return 0
	}
	if m.showHelp {
		return 1 + lipgloss.Height(m.help.FullHelpView(m.keyMap.FullHelp()))
	}
	return 1
}

func (m *Model) layoutScreen() {
	m.screen.SetViewportSize(m.width, max(0, m.height-m.statusHeight()))
}

func (m *Model) viewportHeight() int {
	_, h := m.screen.ViewportSize()
	return h
}

func (m *Model) scrollBy(delta int) {
	engine := m.widget.Layout()
	engine.ScrollBy(delta)
	m.follow = engine.ScrollTop() >= engine.MaxScroll() && m.opts.Events != nil
}

func (m *Model) handleKey(msg tea.KeyPressMsg) {
	engine := m.widget.Layout()
	page := m.viewportHeight()
	switch {
	case key.Matches(msg, m.keyMap.Down):
		m.scrollBy(1)
	case key.Matches(msg, m.keyMap.Up):
		m.scrollBy(-1)
	case key.Matches(msg, m.keyMap.DownOneItem):
		if i := engine.ItemAt(0); i >= 0 && i+1 < m.list.Len() {
			engine.ScrollToIndex(i + 1)
		}
	case key.Matches(msg, m.keyMap.UpOneItem):
		if i := engine.ItemAt(0); i >= 0 {
			// From the middle of an item, go to its start first.
			if engine.Index().AccumulatedUpTo(i) == engine.ScrollTop() && i > 0 {
				i--
			}
			engine.ScrollToIndex(i)
		}
	case key.Matches(msg, m.keyMap.PageDown):
		m.scrollBy(page)
	case key.Matches(msg, m.keyMap.PageUp):
		m.scrollBy(-page)
	case key.Matches(msg, m.keyMap.HalfPageDown):
		m.scrollBy(page / 2)
	case key.Matches(msg, m.keyMap.HalfPageUp):
		m.scrollBy(-page / 2)
	case key.Matches(msg, m.keyMap.Home):
		m.scrollBy(-engine.ScrollTop())
	case key.Matches(msg, m.keyMap.End):
		m.scrollBy(engine.MaxScroll() - engine.ScrollTop())
	case key.Matches(msg, m.keyMap.Filter):
		m.filtering = true
	case key.Matches(msg, m.keyMap.Compact):
		m.opts.Compact = !m.opts.Compact
		m.layoutScreen()
		if m.opts.OnCompact != nil {
			if err := m.opts.OnCompact(m.opts.Compact); err != nil {
				slog.Error("Failed to save compact mode", "error", err)
				m.err = err
			}
		}
	case key.Matches(msg, m.keyMap.Help):
		m.showHelp = !m.showHelp
		m.layoutScreen()
	}
}

func (m *Model) handleFilterKey(msg tea.KeyPressMsg) {
	switch msg.String() {
	case "esc":
		m.filtering = false
		m.setFilter("")
	case "enter":
		m.filtering = false
	case "backspace":
		if r := []rune(m.filter); len(r) > 0 {
			m.setFilter(string(r[:len(r)-1]))
		}
	case "ctrl+c":
		m.filtering = false
		m.setFilter("")
	default:
		if msg.Text != "" {
			m.setFilter(m.filter + msg.Text)
		}
	}
}

type filterSource []items.Item

func (s filterSource) String(i int) string { return s[i].FilterValue() }
func (s filterSource) Len() int            { return len(s) }

func (m *Model) visible() []items.Item {
	if m.filter == "" {
		return m.all
	}
	matches := fuzzy.FindFrom(m.filter, filterSource(m.all))
	// Keep list order rather than score order.
	slices.SortFunc(matches, func(a, b fuzzy.Match) int { return a.Index - b.Index })
	out := make([]items.Item, len(matches))
	for i, match := range matches {
		out[i] = m.all[match.Index]
	}
	return out
}

func (m *Model) setFilter(filter string) {
	if filter == m.filter {
		return
	}
	m.filter = filter
	m.reset()
	m.widget.Layout().ScrollTo(0)
}

func (m *Model) reset() {
	if err := m.list.Reset(m.visible()); err != nil {
		m.err = err
	}
}

func (m *Model) handleSource(ev source.Event) {
	if ev.Err != nil {
		slog.Warn("Source error", "kind", ev.Kind, "error", ev.Err)
		m.err = ev.Err
		return
	}
	switch ev.Kind {
	case source.Append:
		added, err := m.opts.Convert(m.lines+1, ev.Lines)
		if err != nil {
			m.err = err
			return
		}
		m.lines += len(ev.Lines)
		m.all = append(m.all, added...)
		if m.filter != "" {
			m.reset()
			return
		}
		if err := m.list.Append(added...); err != nil {
			m.err = err
		}
	case source.Reload:
		reloaded, err := m.opts.Convert(1, ev.Lines)
		if err != nil {
			m.err = err
			return
		}
		m.lines = len(ev.Lines)
		m.all = reloaded
		m.reset()
	}
	m.err = nil
}

// expiryCmd wakes the program when the retained node should go away.
func (m *Model) expiryCmd() tea.Cmd {
	rec := m.widget.Window()
	if rec == nil {
		return nil
	}
	until, ok := rec.RetainedUntil()
	if !ok || until.Equal(m.expiry) {
		return nil
	}
	m.expiry = until
	return tea.Tick(time.Until(until)+time.Millisecond, func(time.Time) tea.Msg {
		return expireMsg{}
	})
}

func (m *Model) status() string {
	engine := m.widget.Layout()
	if engine == nil {
		return ""
	}
	top := engine.ScrollTop()
	_, h := engine.Size()
	start, end := m.widget.Window().Range()

	var parts []string
	if m.filtering || m.filter != "" {
		cursor := ""
		if m.filtering {
			cursor = "█"
		}
		parts = append(parts, m.opts.FilterPrompt+m.filter+cursor)
	}
	parts = append(parts,
		fmt.Sprintf("%d/%d items", m.list.Len(), len(m.all)),
		fmt.Sprintf("rows %d-%d of %d", top, min(top+h, engine.ContentHeight()), engine.ContentHeight()),
		fmt.Sprintf("window [%d,%d)", start, end),
	)
	line := strings.Join(parts, " · ")
	if m.opts.Title != "" {
		line = titleStyle.Render(m.opts.Title) + statusStyle.Render(" "+line)
	} else {
		line = statusStyle.Render(line)
	}
	if m.err != nil {
		line += errorStyle.Render(" " + m.err.Error())
	}
	line = ansi.Truncate(line, m.width, "…")
	return barStyle.Width(m.width).Render(line)
}

func (m *Model) render() string {
	body := m.screen.Render()
	if m.opts.Compact {
		return body
	}
	out := body + "\n" + m.status()
	if m.showHelp {
		out += "\n" + m.help.FullHelpView(m.keyMap.FullHelp())
	}
	return out
}

// View implements tea.Model.
func (m *Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion
	return v
}

// List returns the model holding the visible items.
func (m *Model) List() *model.Model[items.Item] {
	return m.list
}

// Close releases the widget.
func (m *Model) Close() {
	m.widget.Close()
}
