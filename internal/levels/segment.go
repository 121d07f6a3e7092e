package levels

import (
	"sort"
	"time"

	"rbcal/internal/dates"
	"rbcal/internal/model"
)

// Segment is an event's interval expressed as inclusive slot indices of a
// Range.
type Segment struct {
	Event model.Event

	Left  int
	Right int

	// ContinuesBefore is set when the event starts before the range.
	ContinuesBefore bool
	// ContinuesAfter is set when the event ends after the range.
	ContinuesAfter bool
}

// Span returns the number of slots the segment covers.
func (s Segment) Span() int { return s.Right - s.Left + 1 }

// Covers reports whether slot lies within the segment.
func (s Segment) Covers(slot int) bool { return s.Left <= slot && slot <= s.Right }

// Overlaps reports whether two segments share at least one slot.
func Overlaps(a, b Segment) bool {
	return a.Left <= b.Right && b.Left <= a.Right
}

// SegmentOf converts e into a segment of r. Events outside the range are
// clamped to its edges; callers filter them out if needed. An empty range
// yields the zero segment.
func SegmentOf(e model.Event, r Range) Segment {
	seg := Segment{Event: e}
	if r.Len() == 0 {
		return seg
	}

	start, end := model.Bounds(e)
	seg.ContinuesBefore = start.Before(r.First())
	seg.ContinuesAfter = end.After(r.End)

	s := dates.Max(r.First(), start)
	seg.Left = r.clamp(r.floorIndex(s))

	if end.Equal(start) {
		seg.Right = seg.Left
		return seg
	}

	// The end is exclusive: an event ending exactly on a marker does not
	// spill into the slot starting there.
	x := dates.Min(r.End, end)
	seg.Right = r.clamp(r.beforeIndex(x))
	if seg.Right < seg.Left {
		seg.Right = seg.Left
	}
	return seg
}

// Segments converts every event into a segment of r, keeping input order.
func Segments(events []model.Event, r Range) []Segment {
	segs := make([]Segment, len(events))
	for i, e := range events {
		segs[i] = SegmentOf(e, r)
	}
	return segs
}

// EventsForSlot returns the events whose segments cover slot.
func EventsForSlot(segs []Segment, slot int) []model.Event {
	var out []model.Event
	for _, s := range segs {
		if s.Covers(slot) {
			out = append(out, s.Event)
		}
	}
	return out
}

// InRange reports whether e intersects the window [start, end). Zero
// duration events intersect when they sit inside the window.
func InRange(e model.Event, start, end time.Time) bool {
	es, ee := model.Bounds(e)
	if es.Equal(ee) {
		return !es.Before(start) && es.Before(end)
	}
	return es.Before(end) && ee.After(start)
}

// SortEvents orders events for row layouts: by start day, then longer
// day span first, then all-day first, then exact start. The sort is stable
// so equal events keep the caller's order.
func SortEvents(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return compareEvents(events[i], events[j]) < 0
	})
}

func compareEvents(a, b model.Event) int {
	as, ae := model.Bounds(a)
	bs, be := model.Bounds(b)

	if d := dates.StartOf(as, dates.Day).Compare(dates.StartOf(bs, dates.Day)); d != 0 {
		return d
	}

	durA := max(dayspan(as, ae), 1)
	durB := max(dayspan(bs, be), 1)
	if durA != durB {
		return durB - durA
	}

	if a.AllDay() != b.AllDay() {
		if a.AllDay() {
			return -1
		}
		return 1
	}

	return as.Compare(bs)
}

func dayspan(start, end time.Time) int {
	return dates.Diff(dates.StartOf(start, dates.Day), dates.Ceil(end, dates.Day), dates.Day)
}
