package offset

import (
	"fmt"
	"math/rand/v2"
)

// Tree is an Index backed by an implicit treap. Every node stores the size
// and sum of its subtree, so seeking by position or by offset walks a single
// root-to-leaf path and range updates split out exactly the touched run.
type Tree struct {
	root *node
}

type node struct {
	value       int
	sum         int
	size        int
	priority    uint32
	left, right *node
}

var _ Index = (*Tree)(nil)

// NewTree creates a tree holding values in order.
func NewTree(values []int) *Tree {
	return &Tree{root: build(values)}
}

func newNode(value int) *node {
	return &node{
		value:    value,
		sum:      value,
		size:     1,
		priority: rand.Uint32(),
	}
}

func sizeOf(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func sumOf(n *node) int {
	if n == nil {
		return 0
	}
	return n.sum
}

func (n *node) update() {
	n.size = 1 + sizeOf(n.left) + sizeOf(n.right)
	n.sum = n.value + sumOf(n.left) + sumOf(n.right)
}

// build creates a treap from values in linear time using the right-spine
// stack construction of a Cartesian tree.
func build(values []int) *node {
	if len(values) == 0 {
		return nil
	}
	stack := make([]*node, 0, 32)
	for _, v := range values {
		n := newNode(v)
		var last *node
		for len(stack) > 0 && stack[len(stack)-1].priority < n.priority {
			last = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			last.update()
		}
		n.left = last
		if len(stack) > 0 {
			stack[len(stack)-1].right = n
		}
		stack = append(stack, n)
	}
	for i := len(stack) - 1; i >= 0; i-- {
		stack[i].update()
	}
	return stack[0]
}

// split divides n into the first k entries and the rest.
func split(n *node, k int) (*node, *node) {
	if n == nil {
		return nil, nil
	}
	if sizeOf(n.left) >= k {
		l, r := split(n.left, k)
		n.left = r
		n.update()
		return l, n
	}
	l, r := split(n.right, k-sizeOf(n.left)-1)
	n.right = l
	n.update()
	return n, r
}

func merge(a, b *node) *node {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.priority > b.priority {
		a.right = merge(a.right, b)
		a.update()
		return a
	}
	b.left = merge(a, b.left)
	b.update()
	return b
}

// Total implements Index.
func (t *Tree) Total() int {
	return sumOf(t.root)
}

// Count implements Index.
func (t *Tree) Count() int {
	return sizeOf(t.root)
}

// ValueAt implements Index.
func (t *Tree) ValueAt(i int) int {
	t.checkIndex(i)
	n := t.root
	for n != nil {
		ls := sizeOf(n.left)
		switch {
		case i < ls:
			n = n.left
		case i == ls:
			return n.value
		default:
			i -= ls + 1
			n = n.right
		}
	}
	return 0
}

// AccumulatedUpTo implements Index. i is clamped to [0, Count()].
func (t *Tree) AccumulatedUpTo(i int) int {
	if i <= 0 {
		return 0
	}
	if i >= t.Count() {
		return t.Total()
	}
	acc := 0
	n := t.root
	for n != nil {
		ls := sizeOf(n.left)
		if i <= ls {
			n = n.left
			continue
		}
		acc += sumOf(n.left) + n.value
		i -= ls + 1
		n = n.right
	}
	return acc
}

// IndexOfOffset implements Index.
func (t *Tree) IndexOfOffset(y int) (int, int) {
	count := t.Count()
	if count == 0 {
		return -1, 0
	}
	if y < 0 {
		return 0, y
	}
	if y >= t.Total() {
		last := count - 1
		return last, y - t.AccumulatedUpTo(last)
	}
	idx, rem := 0, y
	n := t.root
	for n != nil {
		ls := sumOf(n.left)
		if rem < ls {
			n = n.left
			continue
		}
		rem -= ls
		if rem < n.value {
			return idx + sizeOf(n.left), rem
		}
		rem -= n.value
		idx += sizeOf(n.left) + 1
		n = n.right
	}
	// Unreachable while y < Total.
	return count - 1, rem
}

// ReplaceRange implements Index.
func (t *Tree) ReplaceRange(start int, values []int) {
	if len(values) == 0 {
		return
	}
	t.checkRange(start, len(values))
	left, rest := split(t.root, start)
	_, right := split(rest, len(values))
	t.root = merge(merge(left, build(values)), right)
}

// RemoveRange implements Index.
func (t *Tree) RemoveRange(start, count int) {
	if count == 0 {
		return
	}
	t.checkRange(start, count)
	left, rest := split(t.root, start)
	_, right := split(rest, count)
	t.root = merge(left, right)
}

// InsertRange implements Index.
func (t *Tree) InsertRange(start int, values []int) {
	if len(values) == 0 {
		return
	}
	if start < 0 || start > t.Count() {
		panic(fmt.Sprintf("offset: insert position %d out of range [0,%d]", start, t.Count()))
	}
	left, right := split(t.root, start)
	t.root = merge(merge(left, build(values)), right)
}

// Values returns a copy of every value in order.
func (t *Tree) Values() []int {
	out := make([]int, 0, t.Count())
	var walk func(n *node)
	walk = func(n *node) {
		if n == nil {
			return
		}
		walk(n.left)
		out = append(out, n.value)
		walk(n.right)
	}
	walk(t.root)
	return out
}

func (t *Tree) checkIndex(i int) {
	if i < 0 || i >= t.Count() {
		panic(fmt.Sprintf("offset: index %d out of range [0,%d)", i, t.Count()))
	}
}

func (t *Tree) checkRange(start, count int) {
	if start < 0 || count < 0 || start+count > t.Count() {
		panic(fmt.Sprintf("offset: range [%d,%d) out of range [0,%d]", start, start+count, t.Count()))
	}
}
