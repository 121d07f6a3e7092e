package calendar

import (
	"errors"
	"fmt"
	"time"

	"rbcal/internal/dates"
	"rbcal/internal/interact"
	"rbcal/internal/model"
)

// Gesture errors.
var (
	ErrNoPoints  = errors.New("calendar: gesture has no points")
	ErrNoEvent   = errors.New("calendar: gesture has no event")
	ErrBadAction = errors.New("calendar: unsupported drag action")
)

// ColumnGesture is a pointer gesture over one day column, replayed from
// the first point (pointer down) to the last.
type ColumnGesture struct {
	Event     model.Event
	Action    interact.DragAction
	Direction interact.Direction

	Column interact.Rect
	// EventBox is where the dragged event is drawn. Pressing inside it
	// records the grab offset.
	EventBox   *interact.Rect
	Points     []interact.Point
	ResourceID string

	// Drop confirms the drag at the last point.
	Drop bool
}

// PreviewDTO is the ghost of an event being dragged in a day column.
type PreviewDTO struct {
	ID    string            `json:"id"`
	Start time.Time         `json:"start"`
	End   time.Time         `json:"end"`
	Style map[string]string `json:"style"`
	Label string            `json:"label"`

	ContinuesEarlier bool `json:"continues_earlier"`
	ContinuesLater   bool `json:"continues_later"`
}

// DragView is the outcome of a gesture.
type DragView struct {
	Session string             `json:"session"`
	Preview *PreviewDTO        `json:"preview,omitempty"`
	Drop    *interact.DropInfo `json:"drop,omitempty"`
}

// DragColumn replays g over the column of date and returns the preview at
// the last point, plus the drop when g.Drop is set and the pointer ended
// inside the column.
func (c *Calendar) DragColumn(date time.Time, g ColumnGesture) (DragView, error) {
	if g.Event == nil {
		return DragView{}, ErrNoEvent
	}
	if len(g.Points) == 0 {
		return DragView{}, ErrNoPoints
	}

	m, err := c.dayMetrics(dates.StartOf(date.In(c.loc), dates.Day))
	if err != nil {
		return DragView{}, err
	}

	var v DragView
	d := &interact.ColumnDrag{
		Metrics:    m,
		Column:     g.Column,
		ResourceID: g.ResourceID,
		EventAt: func(p interact.Point) (interact.Rect, bool) {
			if g.EventBox == nil {
				return interact.Rect{}, false
			}
			return *g.EventBox, interact.PointInBox(*g.EventBox, p)
		},
		OnDrop: func(info interact.DropInfo) { v.Drop = &info },
	}

	switch g.Action {
	case interact.DragMove, "":
		d.Begin(g.Event)
	case interact.DragResize:
		if g.Direction != interact.DirectionUp && g.Direction != interact.DirectionDown {
			return DragView{}, fmt.Errorf("%w: resize %q in a day column", ErrBadAction, g.Direction)
		}
		d.BeginResize(g.Event, g.Direction)
	default:
		return DragView{}, fmt.Errorf("%w: %q", ErrBadAction, g.Action)
	}
	v.Session = d.Session()

	d.SelectStart(g.Points[0])
	for _, p := range g.Points[1:] {
		d.Selecting(p)
	}

	if p, ok := d.Preview(); ok {
		v.Preview = &PreviewDTO{
			ID:               p.Event.ID,
			Start:            p.Event.Start(),
			End:              p.Event.End(),
			Style:            p.Style.CSS(c.view.RTL),
			Label:            p.Label.Format.String(),
			ContinuesEarlier: p.Label.ContinuesEarlier,
			ContinuesLater:   p.Label.ContinuesLater,
		}
	}
	if g.Drop {
		d.Select()
	}
	return v, nil
}
