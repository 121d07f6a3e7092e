package interact

import (
	"rbcal/internal/dates"
	"rbcal/internal/daylayout"
	"rbcal/internal/model"
	"rbcal/internal/timeslots"
)

// columnSlack widens the right edge of a column so a drag over the gutter
// still counts as inside.
const columnSlack = 10

// ColumnPreview is the ghost event drawn while dragging in a day column.
type ColumnPreview struct {
	Event *model.Preview
	Style daylayout.Style
	Label daylayout.Label
}

// ColumnDrag moves or resizes an event inside one time column.
type ColumnDrag struct {
	Metrics    *timeslots.Metrics
	Column     Rect
	ResourceID string

	// EventAt returns the box of the rendered event under p.
	EventAt func(p Point) (Rect, bool)
	OnDrop  func(DropInfo)

	event     model.Event
	session   string
	action    DragAction
	direction Direction
	grab      float64
	preview   *ColumnPreview
}

// Begin starts moving e.
func (d *ColumnDrag) Begin(e model.Event) {
	d.Reset()
	d.event, d.action = e, DragMove
	d.session = model.NewPreviewID()
}

// BeginResize starts dragging the top (DirectionUp) or bottom edge of e.
func (d *ColumnDrag) BeginResize(e model.Event, dir Direction) {
	d.Reset()
	d.event, d.action, d.direction = e, DragResize, dir
	d.session = model.NewPreviewID()
}

// Reset abandons the drag.
func (d *ColumnDrag) Reset() {
	d.event = nil
	d.session = ""
	d.action = ""
	d.direction = ""
	d.grab = 0
	d.preview = nil
}

// Dragging returns the event being dragged.
func (d *ColumnDrag) Dragging() model.Event { return d.event }

// Session returns the key shared by every preview of the current drag.
func (d *ColumnDrag) Session() string { return d.session }

// Preview returns the ghost to render, if the pointer is over the column.
func (d *ColumnDrag) Preview() (ColumnPreview, bool) {
	if d.preview == nil {
		return ColumnPreview{}, false
	}
	return *d.preview, true
}

// SelectStart records where inside the event the pointer grabbed it.
func (d *ColumnDrag) SelectStart(p Point) {
	if d.EventAt == nil {
		return
	}
	box, ok := d.EventAt(p)
	if !ok {
		return
	}
	d.grab = p.Y - box.Top
	d.update(p)
}

func (d *ColumnDrag) Selecting(p Point) { d.update(p) }

// Select drops the event at the previewed position.
func (d *ColumnDrag) Select() {
	if d.event == nil || d.preview == nil {
		return
	}
	info := DropInfo{
		Event:      d.event,
		Action:     d.action,
		Start:      d.preview.Event.Start(),
		End:        d.preview.Event.End(),
		ResourceID: d.ResourceID,
	}
	d.Reset()
	if d.OnDrop != nil {
		d.OnDrop(info)
	}
}

// Click cancels the drag.
func (d *ColumnDrag) Click() { d.Reset() }

func (d *ColumnDrag) inColumn(p Point) bool {
	return p.X < d.Column.Right+columnSlack && p.X > d.Column.Left && p.Y > d.Column.Top
}

func (d *ColumnDrag) update(p Point) {
	if d.event == nil {
		return
	}
	if !d.inColumn(p) {
		d.preview = nil
		return
	}

	m := d.Metrics
	start, end := model.Bounds(d.event)
	switch d.action {
	case DragMove:
		frac := 0.0
		if h := d.Column.Height(); h > 0 {
			frac = (p.Y - d.Column.Top - d.grab) / h
		}
		slot := m.ClosestSlotToPosition(frac)
		start, end = slot, slot.Add(end.Sub(start))
	case DragResize:
		slot := m.ClosestSlotFromPoint(p.Y, d.Column.Top, d.Column.Bottom)
		if d.direction == DirectionUp {
			start = dates.Min(slot, end)
		} else {
			end = dates.Max(m.NextSlot(slot), start)
		}
	}

	r := m.GetRange(start, end)
	ev := model.NewPreview(d.event, d.session, r.StartDate, r.EndDate)
	d.preview = &ColumnPreview{
		Event: ev,
		Style: daylayout.Style{Top: r.Top, Height: r.Height, Width: 100},
		Label: daylayout.LabelFor(ev, m),
	}
}
