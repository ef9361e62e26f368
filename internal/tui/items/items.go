// Package items provides list items for the terminal list view. Every item
// renders once, at construction, so its height never changes afterwards.
package items

import (
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/google/uuid"

	"github.com/tujuhre12/vlist/internal/list/model"
)

// Item is a list item that can be filtered and identified.
type Item interface {
	model.Item
	ID() string
	// FilterValue is the plain text matched by the filter.
	FilterValue() string
}

// rendered is the part every item shares: an identity, the plain text
// used for filtering and the final rendered block.
type rendered struct {
	id    string
	plain string
	view  string
}

func newRendered(plain, view string) rendered {
	return rendered{
		id:    uuid.NewString(),
		plain: plain,
		view:  strings.TrimRight(view, "\n"),
	}
}

func (r rendered) ID() string {
	return r.id
}

func (r rendered) FilterValue() string {
	return r.plain
}

func (r rendered) Size() int {
	return lipgloss.Height(r.view)
}

func (r rendered) RenderInto(b *strings.Builder) {
	b.WriteString(r.view)
}

// String returns the rendered block.
func (r rendered) String() string {
	return r.view
}

var (
	textStyle = lipgloss.NewStyle().
			PaddingLeft(1)
	lineNumberStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B6B6B")).
			Width(5).
			Align(lipgloss.Right).
			PaddingRight(1)
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF60FF"))
)

// Text is a block of plain text, wrapped to a width.
type Text struct {
	rendered
}

// NewText renders text wrapped to width. A width of zero disables
// wrapping.
func NewText(text string, width int) *Text {
	style := textStyle
	if width > 0 {
		style = style.Width(width)
	}
	return &Text{rendered: newRendered(text, style.Render(text))}
}

// Line is a numbered line of a file.
type Line struct {
	rendered
	number int
}

// NewLine renders a single numbered line.
func NewLine(number int, text string) *Line {
	gutter := lineNumberStyle.Render(strconv.Itoa(number))
	return &Line{
		rendered: newRendered(text, lipgloss.JoinHorizontal(lipgloss.Top, gutter, text)),
		number:   number,
	}
}

// Number returns the line number.
func (l *Line) Number() int {
	return l.number
}

// Title is a bold single line header.
type Title struct {
	rendered
}

func NewTitle(text string) *Title {
	return &Title{rendered: newRendered(text, titleStyle.Render(text))}
}
