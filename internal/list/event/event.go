// Package event buffers list events raised during a tick and delivers them
// to listeners in a single, ordered flush.
package event

import (
	"fmt"

	"github.com/tujuhre12/vlist/internal/list/model"
)

// Kind discriminates the Event union.
type Kind uint8

const (
	KindDimension Kind = iota + 1
	KindItems
	KindScroll
)

func (k Kind) String() string {
	switch k {
	case KindDimension:
		return "dimension"
	case KindItems:
		return "items"
	case KindScroll:
		return "scroll"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Dimension is a viewport size in cells.
type Dimension struct {
	Width, Height int
}

// Event is a tagged union: exactly the field matching Kind is meaningful.
type Event struct {
	Kind      Kind
	Dimension Dimension
	Items     model.Decomposed
	ScrollTop int
}

// DimensionChanged reports a new viewport size.
func DimensionChanged(d Dimension) Event {
	return Event{Kind: KindDimension, Dimension: d}
}

// ItemsChanged reports a decomposed model mutation.
func ItemsChanged(d model.Decomposed) Event {
	return Event{Kind: KindItems, Items: d}
}

// Scrolled reports a scroll position change. Listeners read the scroll
// position from the layout when they need it; this event only asks for a
// flush.
func Scrolled(top int) Event {
	return Event{Kind: KindScroll, ScrollTop: top}
}

// Listener receives flushed events.
type Listener interface {
	BeforeDispatch()
	DimensionChanged(d Dimension)
	ItemsChanged(d model.Decomposed)
	AfterDispatch()
}
