// Package offset maps item indexes to cumulative vertical offsets.
package offset

// Index is an ordered sequence of non-negative sizes that answers "which
// entry contains offset y" and supports range updates.
type Index interface {
	// Total returns the sum of all values.
	Total() int
	// Count returns the number of entries.
	Count() int
	// ValueAt returns the value at index i.
	ValueAt(i int) int
	// AccumulatedUpTo returns the sum of the values before index i.
	AccumulatedUpTo(i int) int
	// IndexOfOffset returns the entry containing offset y and the distance
	// from the start of that entry to y. Offsets past the end clamp to the
	// last entry and negative offsets to the first. An empty index
	// returns -1.
	IndexOfOffset(y int) (index, remainder int)
	// ReplaceRange overwrites len(values) entries starting at start.
	ReplaceRange(start int, values []int)
	// RemoveRange removes count entries starting at start.
	RemoveRange(start, count int)
	// InsertRange inserts values before index start.
	InsertRange(start int, values []int)
}
