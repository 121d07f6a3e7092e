package interact

import (
	"time"

	"rbcal/internal/dates"
	"rbcal/internal/dateslots"
	"rbcal/internal/levels"
	"rbcal/internal/model"
)

// RowDrag moves or resizes an event across the day cells of a week row or
// an all-day row.
type RowDrag struct {
	Metrics    *dateslots.Metrics
	Row        Rect
	RTL        bool
	ResourceID string

	// IsAllDay marks the all-day row of a time view. Resizes there only
	// start while the pointer is inside the row.
	IsAllDay bool

	OnDrop func(DropInfo)

	event     model.Event
	session   string
	action    DragAction
	direction Direction
	segment   *levels.Segment
}

// BeginMove starts moving e.
func (d *RowDrag) BeginMove(e model.Event) {
	d.Reset()
	d.event, d.action = e, DragMove
	d.session = model.NewPreviewID()
}

// BeginResize starts dragging the left or right edge of e.
func (d *RowDrag) BeginResize(e model.Event, dir Direction) {
	d.Reset()
	d.event, d.action, d.direction = e, DragResize, dir
	d.session = model.NewPreviewID()
}

// Reset abandons the drag.
func (d *RowDrag) Reset() {
	d.event = nil
	d.session = ""
	d.action = ""
	d.direction = ""
	d.segment = nil
}

// Dragging returns the event being dragged.
func (d *RowDrag) Dragging() model.Event { return d.event }

// Session returns the key shared by every preview of the current drag.
func (d *RowDrag) Session() string { return d.session }

// Preview returns the segment of the ghost event, if any.
func (d *RowDrag) Preview() (levels.Segment, bool) {
	if d.segment == nil {
		return levels.Segment{}, false
	}
	return *d.segment, true
}

// BeforeSelect reports whether a gesture starting at p may begin.
func (d *RowDrag) BeforeSelect(p Point) bool {
	switch d.action {
	case DragMove:
		return true
	case DragResize:
		return !d.IsAllDay || PointInBox(d.Row, p)
	default:
		return false
	}
}

func (d *RowDrag) SelectStart(p Point) { d.handle(p) }
func (d *RowDrag) Selecting(p Point)   { d.handle(p) }

// Select confirms the drag. A resize only lands when released inside the
// row that shows the preview.
func (d *RowDrag) Select(p Point) {
	if d.event == nil || d.segment == nil {
		return
	}
	if d.action == DragResize && !PointInBox(d.Row, p) {
		return
	}
	info := DropInfo{
		Event:  d.event,
		Action: d.action,
		Start:  d.segment.Event.Start(),
		End:    d.segment.Event.End(),
	}
	if d.action == DragMove {
		info.ResourceID = d.ResourceID
		info.AllDay = true
	}
	d.Reset()
	if d.OnDrop != nil {
		d.OnDrop(info)
	}
}

// Click cancels the drag.
func (d *RowDrag) Click() { d.Reset() }

func (d *RowDrag) handle(p Point) {
	if d.event == nil {
		return
	}
	switch d.action {
	case DragMove:
		d.move(p)
	case DragResize:
		d.resize(p)
	}
}

func (d *RowDrag) dayAt(x float64) (time.Time, bool) {
	return d.Metrics.DateForSlot(SlotAtX(d.Row, x, d.RTL, d.Metrics.Slots()))
}

// move keeps the time of day and the duration of the event.
func (d *RowDrag) move(p Point) {
	if !PointInBox(d.Row, p) {
		d.segment = nil
		return
	}
	day, ok := d.dayAt(p.X)
	if !ok {
		d.segment = nil
		return
	}
	s, e := model.Bounds(d.event)
	start := dates.Merge(day, s)
	d.setPreview(start, start.Add(e.Sub(s)))
}

// resize moves one edge to the hovered day. When the pointer leaves the
// row the edge sticks to the row boundary so the preview keeps showing the
// event continuing into the next or previous row.
func (d *RowDrag) resize(p Point) {
	m := d.Metrics
	inRow := PointInBox(d.Row, p)
	start, end := model.Bounds(d.event)

	switch d.direction {
	case DirectionRight:
		switch {
		case inRow:
			if m.Last().Before(start) {
				d.segment = nil
				return
			}
			day, ok := d.dayAt(p.X)
			if !ok {
				d.segment = nil
				return
			}
			end = dates.Add(day, 1, dates.Day)
		case dates.InRange(start, m.First(), m.Last(), dates.Day) ||
			(d.Row.Bottom < p.Y && m.First().After(start)):
			end = m.Last().Add(time.Millisecond)
		default:
			d.segment = nil
			return
		}
		end = dates.Max(end, start)
	case DirectionLeft:
		switch {
		case inRow:
			if m.First().After(end) {
				d.segment = nil
				return
			}
			day, ok := d.dayAt(p.X)
			if !ok {
				d.segment = nil
				return
			}
			start = day
		case dates.InRange(end, m.First(), m.Last(), dates.Day) ||
			(d.Row.Top > p.Y && m.Last().Before(end)):
			start = m.First().Add(-time.Millisecond)
		default:
			d.segment = nil
			return
		}
		start = dates.Min(start, end)
	default:
		return
	}

	d.setPreview(start, end)
}

func (d *RowDrag) setPreview(start, end time.Time) {
	seg := d.Metrics.EventSegment(model.NewPreview(d.event, d.session, start, end))
	d.segment = &seg
}
