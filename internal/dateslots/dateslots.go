package dateslots

import (
	"time"

	"rbcal/internal/dates"
	"rbcal/internal/levels"
	"rbcal/internal/model"
)

// Options describes one row of day cells (a week row or an all-day row).
type Options struct {
	// Range holds one slot per day.
	Range levels.Range
	// Events are laid out in the given order; see levels.SortEvents.
	Events []model.Event

	// MaxRows caps the rows of the cell, one of which is kept for the
	// "+N more" link. Zero means unlimited.
	MaxRows int
	// MinRows pads the levels with empty rows.
	MinRows int
}

// Metrics is the packed layout of a row of day cells.
type Metrics struct {
	opts     Options
	segments []levels.Segment

	// Levels and Extra are the packed rows and the overflow.
	Levels [][]levels.Segment
	Extra  levels.Overflow
}

// New segments and packs opts.Events over opts.Range.
func New(opts Options) *Metrics {
	segs := levels.Segments(opts.Events, opts.Range)

	limit := 0
	if opts.MaxRows > 0 {
		limit = max(opts.MaxRows-1, 1)
	}
	packed := levels.Pack(segs, limit)
	for len(packed.Levels) < opts.MinRows {
		packed.Levels = append(packed.Levels, []levels.Segment{})
	}

	return &Metrics{
		opts:     opts,
		segments: segs,
		Levels:   packed.Levels,
		Extra:    packed.Overflow,
	}
}

// Clone returns metrics for the same row with the given options applied on
// top. Zero fields of override keep the current value.
func (m *Metrics) Clone(override Options) *Metrics {
	opts := m.opts
	if override.Range.Len() > 0 {
		opts.Range = override.Range
	}
	if override.Events != nil {
		opts.Events = override.Events
	}
	if override.MaxRows != 0 {
		opts.MaxRows = override.MaxRows
	}
	if override.MinRows != 0 {
		opts.MinRows = override.MinRows
	}
	return New(opts)
}

// Range returns the days of the row.
func (m *Metrics) Range() levels.Range { return m.opts.Range }

// First returns the first day of the row.
func (m *Metrics) First() time.Time { return m.opts.Range.First() }

// Last returns the boundary closing the row (midnight after the last day).
func (m *Metrics) Last() time.Time { return m.opts.Range.End }

// Slots returns the number of days in the row.
func (m *Metrics) Slots() int { return m.opts.Range.Len() }

// Segments returns every event's segment in input order.
func (m *Metrics) Segments() []levels.Segment { return m.segments }

// DateForSlot returns the day of the given cell.
func (m *Metrics) DateForSlot(i int) (time.Time, bool) {
	if i < 0 || i >= m.Slots() {
		return time.Time{}, false
	}
	return m.opts.Range.Slots[i], true
}

// SlotForDate returns the cell showing the day of t.
func (m *Metrics) SlotForDate(t time.Time) (int, bool) {
	for i, d := range m.opts.Range.Slots {
		if dates.Eq(d, t, dates.Day) {
			return i, true
		}
	}
	return -1, false
}

// EventsForSlot returns every event covering the cell, including the ones
// hidden in the overflow.
func (m *Metrics) EventsForSlot(i int) []model.Event {
	return levels.EventsForSlot(m.segments, i)
}

// EventSegment segments an event that is not part of the row, such as a
// drag preview.
func (m *Metrics) EventSegment(e model.Event) levels.Segment {
	return levels.SegmentOf(e, m.opts.Range)
}

// StartsBefore reports whether t is on a day before the row.
func (m *Metrics) StartsBefore(t time.Time) bool {
	return dates.Lt(t, m.First(), dates.Day)
}

// EndsAfter reports whether an event ending at t continues past the row.
func (m *Metrics) EndsAfter(t time.Time) bool {
	return t.After(m.Last())
}
