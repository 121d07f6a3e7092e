package levels

import (
	"sort"
	"time"

	"rbcal/internal/dates"
)

// Range is the displayed window: an ordered run of slot markers plus the
// exclusive boundary following the last slot. Markers must be strictly
// increasing and contiguous (each slot ends where the next one starts).
type Range struct {
	Slots []time.Time
	End   time.Time
}

// DayRange returns a range of n whole days starting at the day of first.
func DayRange(first time.Time, n int) Range {
	days := dates.Days(first, n)
	if len(days) == 0 {
		return Range{}
	}
	return Range{
		Slots: days,
		End:   dates.Add(days[len(days)-1], 1, dates.Day),
	}
}

// NewRange builds a range from contiguous slot markers and the exclusive
// end boundary.
func NewRange(slots []time.Time, end time.Time) Range {
	return Range{Slots: slots, End: end}
}

// Len returns the number of slots.
func (r Range) Len() int { return len(r.Slots) }

// First returns the first slot marker.
func (r Range) First() time.Time {
	if len(r.Slots) == 0 {
		return time.Time{}
	}
	return r.Slots[0]
}

// Last returns the last slot marker (the start of the final slot).
func (r Range) Last() time.Time {
	if len(r.Slots) == 0 {
		return time.Time{}
	}
	return r.Slots[len(r.Slots)-1]
}

// Contains reports whether t falls inside [First, End).
func (r Range) Contains(t time.Time) bool {
	return len(r.Slots) > 0 && !t.Before(r.First()) && t.Before(r.End)
}

// floorIndex returns the index of the last slot whose marker is <= t, or
// -1 if t precedes the range.
func (r Range) floorIndex(t time.Time) int {
	return sort.Search(len(r.Slots), func(i int) bool { return r.Slots[i].After(t) }) - 1
}

// beforeIndex returns the index of the last slot whose marker is < t, or
// -1 if no marker precedes t.
func (r Range) beforeIndex(t time.Time) int {
	return sort.Search(len(r.Slots), func(i int) bool { return !r.Slots[i].Before(t) }) - 1
}

// IndexOf returns the slot containing t, or false when t is outside the range.
func (r Range) IndexOf(t time.Time) (int, bool) {
	if !r.Contains(t) {
		return -1, false
	}
	return r.floorIndex(t), true
}

func (r Range) clamp(i int) int {
	if i < 0 {
		return 0
	}
	if n := len(r.Slots); i >= n {
		return n - 1
	}
	return i
}
