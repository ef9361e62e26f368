// Package surface defines what the list engine needs from a rendering
// surface and provides an in-memory terminal implementation.
package surface

import "errors"

// ErrNodeNotFound is returned when an operation names a node the surface
// does not know, for instance one removed outside the engine's knowledge.
var ErrNodeNotFound = errors.New("node not found")

// Node is a handle to a surface node. The zero Node means "no node".
type Node uint64

// Rect positions a node inside the scrollable content.
type Rect struct {
	Top, Left, Width, Height int
}

// AttrRetained marks a node kept on the surface after leaving the window.
// Surfaces should not paint it.
const AttrRetained = "retained"

// Surface is the set of primitives the engine drives.
type Surface interface {
	// InsertNodes creates one node per fragment, in order, placed before
	// the node before, or appended when before is zero.
	InsertNodes(before Node, fragments []string) ([]Node, error)
	// ReplaceContent rewrites the content of nodes[i] with fragments[i].
	ReplaceContent(nodes []Node, fragments []string) error
	SetBounds(n Node, r Rect) error
	SetAttr(n Node, key, value string) error
	Remove(n Node) error

	ScrollTop() int
	SetScrollTop(top int)
	ViewportSize() (width, height int)
	SetContentSize(width, height int)

	// OnScroll and OnResize subscribe to changes made by the host. The
	// returned functions unsubscribe.
	OnScroll(fn func(top int)) (cancel func())
	OnResize(fn func(width, height int)) (cancel func())
}
