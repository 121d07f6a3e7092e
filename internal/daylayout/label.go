package daylayout

import (
	"rbcal/internal/model"
	"rbcal/internal/timeslots"
)

// LabelFormat tells the renderer which part of an event's time range to
// print in a day column.
type LabelFormat int

const (
	// LabelRange shows "start - end".
	LabelRange LabelFormat = iota
	// LabelEnd shows only the end: the event started on an earlier day.
	LabelEnd
	// LabelStart shows only the start: the event ends on a later day.
	LabelStart
	// LabelAllDay replaces the times: the event covers the whole day.
	LabelAllDay
)

func (f LabelFormat) String() string {
	switch f {
	case LabelEnd:
		return "end"
	case LabelStart:
		return "start"
	case LabelAllDay:
		return "all-day"
	default:
		return "range"
	}
}

// Label describes how an event crossing the column's day or window should
// be labelled and decorated.
type Label struct {
	Format LabelFormat

	// ContinuesEarlier and ContinuesLater flag events cut by the day or
	// by the visible window.
	ContinuesEarlier bool
	ContinuesLater   bool
}

// LabelFor computes the label policy of e in the column described by m.
func LabelFor(e model.Event, m *timeslots.Metrics) Label {
	start, end := model.Bounds(e)

	beforeDay := m.StartsBeforeDay(start)
	afterDay := m.StartsAfterDay(end)

	l := Label{
		ContinuesEarlier: beforeDay || m.StartsBefore(start),
		ContinuesLater:   afterDay || m.StartsAfter(end),
	}
	switch {
	case beforeDay && afterDay:
		l.Format = LabelAllDay
	case beforeDay:
		l.Format = LabelEnd
	case afterDay:
		l.Format = LabelStart
	default:
		l.Format = LabelRange
	}
	return l
}
