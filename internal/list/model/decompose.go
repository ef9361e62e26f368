package model

import "slices"

// Decomposed splits a ChangeEvent into three disjoint runs: entries
// replaced in place, entries inserted after them and entries deleted after
// them. At most one of the inserted and deleted runs is non-empty.
type Decomposed struct {
	Version uint64

	ChangedStart   int
	ChangedHeights []int

	InsertStart     int
	InsertedHeights []int

	DeleteStart int
	DeleteCount int
}

// Decompose applies the tie-break rule: the first min(deleteCount,
// inserted) positions at Start are changes in place; the rest of the
// inserted heights follow them; the rest of the deleted range is the tail
// of the original delete range. Both remainders are anchored at
// Start+len(ChangedHeights).
func Decompose(ev ChangeEvent) Decomposed {
	changed := min(ev.DeleteCount, len(ev.InsertedHeights))
	anchor := ev.Start + changed
	return Decomposed{
		Version:         ev.Version,
		ChangedStart:    ev.Start,
		ChangedHeights:  slices.Clip(ev.InsertedHeights[:changed]),
		InsertStart:     anchor,
		InsertedHeights: ev.InsertedHeights[changed:],
		DeleteStart:     anchor,
		DeleteCount:     ev.DeleteCount - changed,
	}
}

// Event reassembles the splice this decomposition came from.
func (d Decomposed) Event() ChangeEvent {
	heights := make([]int, 0, len(d.ChangedHeights)+len(d.InsertedHeights))
	heights = append(heights, d.ChangedHeights...)
	heights = append(heights, d.InsertedHeights...)
	return ChangeEvent{
		Version:         d.Version,
		Start:           d.ChangedStart,
		DeleteCount:     len(d.ChangedHeights) + d.DeleteCount,
		InsertedHeights: heights,
	}
}

// ChangedEnd returns the index after the last entry changed in place.
func (d Decomposed) ChangedEnd() int {
	return d.ChangedStart + len(d.ChangedHeights)
}
