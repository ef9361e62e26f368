package surface

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/zeebo/xxh3"
)

// Stats counts surface mutations.
type Stats struct {
	Inserted  int `json:"inserted" yaml:"inserted"`
	Inserts   int `json:"inserts" yaml:"inserts"`
	Replaced  int `json:"replaced" yaml:"replaced"`
	Unchanged int `json:"unchanged" yaml:"unchanged"`
	Removed   int `json:"removed" yaml:"removed"`
	Bounds    int `json:"bounds" yaml:"bounds"`
	Attrs     int `json:"attrs" yaml:"attrs"`
	Paints    int `json:"paints" yaml:"paints"`
}

type element struct {
	lines  []string
	hash   uint64
	bounds Rect
	attrs  map[string]string
}

// Screen is a terminal surface kept in memory. Nodes are positioned in
// content coordinates and painted relative to the scroll position into a
// grid of width x height cells.
type Screen struct {
	nodes map[Node]*element
	order []Node
	next  Node

	width, height   int
	contentWidth    int
	contentHeight   int
	scrollTop       int
	scrollListeners map[int]func(int)
	resizeListeners map[int]func(int, int)
	listenerID      int

	stats Stats
	frame string
	stale bool
}

var _ Surface = (*Screen)(nil)

// NewScreen creates a screen with the given viewport size.
func NewScreen(width, height int) *Screen {
	return &Screen{
		nodes:           make(map[Node]*element),
		width:           max(0, width),
		height:          max(0, height),
		scrollListeners: make(map[int]func(int)),
		resizeListeners: make(map[int]func(int, int)),
		stale:           true,
	}
}

// InsertNodes implements Surface.
func (s *Screen) InsertNodes(before Node, fragments []string) ([]Node, error) {
	at := len(s.order)
	if before != 0 {
		at = slices.Index(s.order, before)
		if at < 0 {
			return nil, fmt.Errorf("insert before %d: %w", before, ErrNodeNotFound)
		}
	}
	created := make([]Node, len(fragments))
	for i, fragment := range fragments {
		s.next++
		created[i] = s.next
		s.nodes[s.next] = &element{
			lines: splitLines(fragment),
			hash:  xxh3.HashString(fragment),
		}
	}
	s.order = slices.Insert(s.order, at, created...)
	s.stats.Inserted += len(fragments)
	s.stats.Inserts++
	s.stale = true
	return created, nil
}

// ReplaceContent implements Surface. Nodes whose content is unchanged are
// left alone; the first missing node aborts the batch.
func (s *Screen) ReplaceContent(nodes []Node, fragments []string) error {
	if len(nodes) != len(fragments) {
		return fmt.Errorf("replace content: %d nodes, %d fragments", len(nodes), len(fragments))
	}
	for i, n := range nodes {
		el, ok := s.nodes[n]
		if !ok {
			return fmt.Errorf("replace content of %d: %w", n, ErrNodeNotFound)
		}
		hash := xxh3.HashString(fragments[i])
		if hash == el.hash {
			s.stats.Unchanged++
			continue
		}
		el.lines = splitLines(fragments[i])
		el.hash = hash
		s.stats.Replaced++
		s.stale = true
	}
	return nil
}

// SetBounds implements Surface.
func (s *Screen) SetBounds(n Node, r Rect) error {
	el, ok := s.nodes[n]
	if !ok {
		return fmt.Errorf("set bounds of %d: %w", n, ErrNodeNotFound)
	}
	s.stats.Bounds++
	if el.bounds != r {
		el.bounds = r
		s.stale = true
	}
	return nil
}

// SetAttr implements Surface.
func (s *Screen) SetAttr(n Node, key, value string) error {
	el, ok := s.nodes[n]
	if !ok {
		return fmt.Errorf("set attribute %q of %d: %w", key, n, ErrNodeNotFound)
	}
	if el.attrs == nil {
		el.attrs = make(map[string]string)
	}
	el.attrs[key] = value
	s.stats.Attrs++
	s.stale = true
	return nil
}

// Attr returns the attribute key of node n.
func (s *Screen) Attr(n Node, key string) (string, bool) {
	el, ok := s.nodes[n]
	if !ok {
		return "", false
	}
	v, ok := el.attrs[key]
	return v, ok
}

// Remove implements Surface.
func (s *Screen) Remove(n Node) error {
	if _, ok := s.nodes[n]; !ok {
		return fmt.Errorf("remove %d: %w", n, ErrNodeNotFound)
	}
	delete(s.nodes, n)
	s.order = slices.DeleteFunc(s.order, func(other Node) bool { return other == n })
	s.stats.Removed++
	s.stale = true
	return nil
}

// ScrollTop implements Surface.
func (s *Screen) ScrollTop() int {
	return s.scrollTop
}

// SetScrollTop implements Surface. Scroll listeners are notified when the
// position changes.
func (s *Screen) SetScrollTop(top int) {
	top = max(0, top)
	if top == s.scrollTop {
		return
	}
	s.scrollTop = top
	s.stale = true
	for _, id := range sortedKeys(s.scrollListeners) {
		s.scrollListeners[id](top)
	}
}

// ScrollBy moves the scroll position by delta rows, without going past
// the content.
func (s *Screen) ScrollBy(delta int) {
	s.SetScrollTop(min(s.scrollTop+delta, s.MaxScroll()))
}

// MaxScroll returns the largest useful scroll position.
func (s *Screen) MaxScroll() int {
	return max(0, s.contentHeight-s.height)
}

// ViewportSize implements Surface.
func (s *Screen) ViewportSize() (int, int) {
	return s.width, s.height
}

// SetViewportSize resizes the screen, as a terminal resize would. Resize
// listeners are notified when the size changes.
func (s *Screen) SetViewportSize(width, height int) {
	width, height = max(0, width), max(0, height)
	if width == s.width && height == s.height {
		return
	}
	s.width, s.height = width, height
	s.stale = true
	for _, id := range sortedKeys(s.resizeListeners) {
		s.resizeListeners[id](width, height)
	}
}

// SetContentSize implements Surface.
func (s *Screen) SetContentSize(width, height int) {
	s.contentWidth, s.contentHeight = width, height
}

// ContentSize returns the size of the scrollable content.
func (s *Screen) ContentSize() (int, int) {
	return s.contentWidth, s.contentHeight
}

// OnScroll implements Surface.
func (s *Screen) OnScroll(fn func(top int)) func() {
	s.listenerID++
	id := s.listenerID
	s.scrollListeners[id] = fn
	return func() { delete(s.scrollListeners, id) }
}

// OnResize implements Surface.
func (s *Screen) OnResize(fn func(width, height int)) func() {
	s.listenerID++
	id := s.listenerID
	s.resizeListeners[id] = fn
	return func() { delete(s.resizeListeners, id) }
}

// Len returns the number of live nodes.
func (s *Screen) Len() int {
	return len(s.nodes)
}

// Nodes returns the live nodes in document order.
func (s *Screen) Nodes() []Node {
	return slices.Clone(s.order)
}

// Content returns the content of node n.
func (s *Screen) Content(n Node) (string, bool) {
	el, ok := s.nodes[n]
	if !ok {
		return "", false
	}
	return strings.Join(el.lines, "\n"), true
}

// Bounds returns the bounds of node n.
func (s *Screen) Bounds(n Node) (Rect, bool) {
	el, ok := s.nodes[n]
	if !ok {
		return Rect{}, false
	}
	return el.bounds, true
}

// Stats returns the mutation counters.
func (s *Screen) Stats() Stats {
	return s.stats
}

// Render paints the visible part of the content, one line per viewport
// row. Frames are cached until something changes.
func (s *Screen) Render() string {
	if !s.stale {
		return s.frame
	}
	rows := make([]string, s.height)
	for _, n := range s.order {
		el := s.nodes[n]
		if el.attrs[AttrRetained] == "true" {
			continue
		}
		for k, line := range el.lines {
			if k >= el.bounds.Height {
				break
			}
			y := el.bounds.Top + k - s.scrollTop
			if y < 0 || y >= s.height {
				continue
			}
			rows[y] = ansi.Truncate(line, max(0, s.width-el.bounds.Left), "")
			if el.bounds.Left > 0 {
				rows[y] = strings.Repeat(" ", el.bounds.Left) + rows[y]
			}
		}
	}
	s.frame = strings.Join(rows, "\n")
	s.stale = false
	s.stats.Paints++
	return s.frame
}

func splitLines(s string) []string {
	return strings.Split(s, "\n")
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
