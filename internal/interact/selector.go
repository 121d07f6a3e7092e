package interact

import (
	"time"

	"rbcal/internal/dates"
	"rbcal/internal/timeslots"
)

// Action names the gesture that produced a slot selection.
type Action string

const (
	ActionSelect      Action = "select"
	ActionClick       Action = "click"
	ActionDoubleClick Action = "doubleClick"
)

// SlotInfo is reported when the user picks a range of empty slots.
type SlotInfo struct {
	// Slots lists every slot boundary from Start to End inclusive.
	Slots      []time.Time `json:"slots"`
	Start      time.Time   `json:"start"`
	End        time.Time   `json:"end"`
	ResourceID string      `json:"resource_id,omitempty"`
	Action     Action      `json:"action"`

	// Bounds is set for drag selections, Box for clicks.
	Bounds *Rect  `json:"bounds,omitempty"`
	Box    *Point `json:"box,omitempty"`
}

// SlotSelector turns gestures over a day column into slot selections.
type SlotSelector struct {
	Metrics    *timeslots.Metrics
	Column     Rect
	ResourceID string

	// IgnoreEvents makes BeforeSelect refuse gestures starting on an event.
	IgnoreEvents bool
	// IsEvent hit-tests the rendered events of the column.
	IsEvent func(Point) bool

	// OnSelecting may veto an intermediate range by returning false.
	OnSelecting  func(start, end time.Time) bool
	OnSelectSlot func(SlotInfo)

	selecting bool
	initial   time.Time
	current   timeslots.Range
}

// Selection returns the range being dragged, if any.
func (s *SlotSelector) Selection() (timeslots.Range, bool) {
	return s.current, s.selecting
}

// Reset drops the in-progress selection.
func (s *SlotSelector) Reset() {
	s.selecting = false
	s.current = timeslots.Range{}
}

// BeforeSelect reports whether a gesture starting at p may begin.
func (s *SlotSelector) BeforeSelect(p Point) bool {
	if !s.IgnoreEvents {
		return true
	}
	return !s.isEvent(p)
}

func (s *SlotSelector) SelectStart(p Point) { s.update(p) }
func (s *SlotSelector) Selecting(p Point)   { s.update(p) }

// Select completes a drag selection.
func (s *SlotSelector) Select(bounds Rect) {
	if !s.selecting {
		return
	}
	r := s.current
	s.selecting = false
	s.notify(SlotInfo{Start: r.StartDate, End: r.EndDate, Action: ActionSelect, Bounds: &bounds})
}

func (s *SlotSelector) Click(p Point)       { s.click(p, ActionClick) }
func (s *SlotSelector) DoubleClick(p Point) { s.click(p, ActionDoubleClick) }

func (s *SlotSelector) click(p Point, action Action) {
	if !s.isEvent(p) {
		r := s.rangeAt(p)
		s.notify(SlotInfo{Start: r.StartDate, End: r.EndDate, Action: action, Box: &p})
	}
	s.selecting = false
}

func (s *SlotSelector) update(p Point) {
	r := s.rangeAt(p)
	if s.OnSelecting != nil {
		if s.selecting &&
			dates.Eq(s.current.StartDate, r.StartDate, dates.Minute) &&
			dates.Eq(s.current.EndDate, r.EndDate, dates.Minute) {
			return
		}
		if !s.OnSelecting(r.StartDate, r.EndDate) {
			return
		}
	}
	s.current = r
	s.selecting = true
}

// rangeAt anchors the selection on the slot where the gesture started. A
// selection never collapses to nothing: pointing at the anchor selects the
// anchor slot itself.
func (s *SlotSelector) rangeAt(p Point) timeslots.Range {
	slot := s.Metrics.ClosestSlotFromPoint(p.Y, s.Column.Top, s.Column.Bottom)
	if !s.selecting {
		s.initial = slot
	}
	if slot.Equal(s.initial) {
		slot = s.Metrics.NextSlot(s.initial)
	}
	return s.Metrics.GetRange(dates.Min(s.initial, slot), dates.Max(s.initial, slot))
}

func (s *SlotSelector) isEvent(p Point) bool {
	return s.IsEvent != nil && s.IsEvent(p)
}

func (s *SlotSelector) notify(info SlotInfo) {
	if s.OnSelectSlot == nil {
		return
	}
	step := s.Metrics.SlotDuration()
	for cur := info.Start; !cur.After(info.End); cur = cur.Add(step) {
		info.Slots = append(info.Slots, cur)
	}
	info.ResourceID = s.ResourceID
	s.OnSelectSlot(info)
}
