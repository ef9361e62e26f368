// Package model holds the authoritative, versioned sequence of list items.
package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrRange is returned when splice arguments fall outside the model.
var ErrRange = errors.New("splice out of range")

// Item is anything with a fixed height that can render itself.
type Item interface {
	// Size is the item height in rows. It is sampled once, when the item
	// enters a model.
	Size() int
	// RenderInto writes the item content.
	RenderInto(b *strings.Builder)
}

// Entry is an item together with the height sampled when it was inserted.
type Entry[T Item] struct {
	Height int
	Item   T
}

// ChangeEvent describes one successful splice with its raw parameters.
type ChangeEvent struct {
	Version         uint64
	Start           int
	DeleteCount     int
	InsertedHeights []int
}

// Model is an ordered list of entries. Splice is the only write path.
type Model[T Item] struct {
	entries     []Entry[T]
	version     uint64
	subscribers []subscriber
	nextID      int
}

type subscriber struct {
	id int
	fn func(ChangeEvent)
}

// New creates a model holding items, at version 1.
func New[T Item](items []T) *Model[T] {
	m := &Model[T]{
		entries: make([]Entry[T], 0, len(items)),
		version: 1,
	}
	for _, item := range items {
		m.entries = append(m.entries, newEntry(item))
	}
	return m
}

func newEntry[T Item](item T) Entry[T] {
	return Entry[T]{Height: max(0, item.Size()), Item: item}
}

// Splice replaces deleteCount entries at start with items.
func (m *Model[T]) Splice(start, deleteCount int, items ...T) error {
	if start < 0 || deleteCount < 0 || start > len(m.entries) || start+deleteCount > len(m.entries) {
		return fmt.Errorf("%w: start=%d deleteCount=%d len=%d", ErrRange, start, deleteCount, len(m.entries))
	}

	inserted := make([]Entry[T], len(items))
	heights := make([]int, len(items))
	for i, item := range items {
		inserted[i] = newEntry(item)
		heights[i] = inserted[i].Height
	}
	m.entries = slices.Replace(m.entries, start, start+deleteCount, inserted...)
	m.version++

	ev := ChangeEvent{
		Version:         m.version,
		Start:           start,
		DeleteCount:     deleteCount,
		InsertedHeights: heights,
	}
	for _, s := range slices.Clone(m.subscribers) {
		s.fn(ev)
	}
	return nil
}

// Append adds items at the end.
func (m *Model[T]) Append(items ...T) error {
	return m.Splice(len(m.entries), 0, items...)
}

// Prepend adds items at the beginning.
func (m *Model[T]) Prepend(items ...T) error {
	return m.Splice(0, 0, items...)
}

// Insert adds items before index at.
func (m *Model[T]) Insert(at int, items ...T) error {
	return m.Splice(at, 0, items...)
}

// Remove deletes count entries starting at start.
func (m *Model[T]) Remove(start, count int) error {
	return m.Splice(start, count)
}

// Replace swaps the entry at index i for item.
func (m *Model[T]) Replace(i int, item T) error {
	if i >= len(m.entries) {
		return fmt.Errorf("%w: index=%d len=%d", ErrRange, i, len(m.entries))
	}
	return m.Splice(i, 1, item)
}

// Reset replaces the whole content with items.
func (m *Model[T]) Reset(items []T) error {
	return m.Splice(0, len(m.entries), items...)
}

// Subscribe registers fn to receive every change event. The returned
// function removes the subscription.
func (m *Model[T]) Subscribe(fn func(ChangeEvent)) func() {
	m.nextID++
	id := m.nextID
	m.subscribers = append(m.subscribers, subscriber{id: id, fn: fn})
	return func() {
		m.subscribers = slices.DeleteFunc(slices.Clone(m.subscribers), func(s subscriber) bool {
			return s.id == id
		})
	}
}

// Version returns the current version. It starts at 1 and grows by one per
// successful splice.
func (m *Model[T]) Version() uint64 {
	return m.version
}

// Len returns the number of entries.
func (m *Model[T]) Len() int {
	return len(m.entries)
}

// At returns the entry at index i.
func (m *Model[T]) At(i int) Entry[T] {
	return m.entries[i]
}

// ItemAt returns the item at index i.
func (m *Model[T]) ItemAt(i int) Item {
	return m.entries[i].Item
}

// Height returns the cached height of the entry at index i.
func (m *Model[T]) Height(i int) int {
	return m.entries[i].Height
}

// Heights returns the cached heights of all entries.
func (m *Model[T]) Heights() []int {
	heights := make([]int, len(m.entries))
	for i, e := range m.entries {
		heights[i] = e.Height
	}
	return heights
}

// TotalHeight returns the sum of the cached heights.
func (m *Model[T]) TotalHeight() int {
	total := 0
	for _, e := range m.entries {
		total += e.Height
	}
	return total
}

// Items returns a copy of the items in order.
func (m *Model[T]) Items() []T {
	items := make([]T, len(m.entries))
	for i, e := range m.entries {
		items[i] = e.Item
	}
	return items
}
