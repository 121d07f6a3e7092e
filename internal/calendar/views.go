package calendar

import (
	"time"

	"rbcal/internal/dates"
	"rbcal/internal/dateslots"
	"rbcal/internal/daylayout"
	"rbcal/internal/levels"
	"rbcal/internal/model"
	"rbcal/internal/timeslots"
)

// EventDTO is a JSON-friendly view of an event.
type EventDTO struct {
	SourceID   string    `json:"source_id,omitempty"`
	UID        string    `json:"uid,omitempty"`
	Title      string    `json:"title"`
	Location   string    `json:"location,omitempty"`
	ResourceID string    `json:"resource_id,omitempty"`
	AllDay     bool      `json:"all_day"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

// NewEventDTO converts any event; occurrence specific fields are filled in
// when available.
func NewEventDTO(e model.Event) EventDTO {
	dto := EventDTO{
		Title:      e.Title(),
		ResourceID: e.ResourceID(),
		AllDay:     e.AllDay(),
		Start:      e.Start(),
		End:        e.End(),
	}
	if o, ok := model.Original(e).(*model.Occurrence); ok {
		dto.SourceID = o.SourceID
		dto.UID = o.UID
		dto.Location = o.Location
	}
	return dto
}

// StyledEventDTO is an event placed in a day column.
type StyledEventDTO struct {
	Event EventDTO          `json:"event"`
	Style map[string]string `json:"style"`
	Label string            `json:"label"`

	ContinuesEarlier bool `json:"continues_earlier"`
	ContinuesLater   bool `json:"continues_later"`
}

// ColumnView is the time column of one day.
type ColumnView struct {
	Date  time.Time `json:"date"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	SlotMinutes int `json:"slot_minutes"`
	// Groups holds the start of every group of slots, one per grid line.
	Groups []time.Time `json:"groups"`

	Events []StyledEventDTO `json:"events"`
}

func newColumnView(m *timeslots.Metrics, styled []daylayout.StyledEvent, rtl bool) ColumnView {
	v := ColumnView{
		Date:        dates.StartOf(m.Start(), dates.Day),
		Start:       m.Start(),
		End:         m.End(),
		SlotMinutes: int(m.SlotDuration() / time.Minute),
		Events:      make([]StyledEventDTO, 0, len(styled)),
	}
	for _, g := range m.Groups() {
		v.Groups = append(v.Groups, g[0])
	}
	for _, s := range styled {
		label := daylayout.LabelFor(s.Event, m)
		v.Events = append(v.Events, StyledEventDTO{
			Event:            NewEventDTO(s.Event),
			Style:            s.Style.CSS(rtl),
			Label:            label.Format.String(),
			ContinuesEarlier: label.ContinuesEarlier,
			ContinuesLater:   label.ContinuesLater,
		})
	}
	return v
}

// SegmentDTO is an event placed in a row of day cells.
type SegmentDTO struct {
	Event EventDTO `json:"event"`
	Left  int      `json:"left"`
	Right int      `json:"right"`
	Span  int      `json:"span"`

	ContinuesBefore bool `json:"continues_before"`
	ContinuesAfter  bool `json:"continues_after"`
}

func newSegmentDTO(s levels.Segment) SegmentDTO {
	return SegmentDTO{
		Event:           NewEventDTO(s.Event),
		Left:            s.Left,
		Right:           s.Right,
		Span:            s.Span(),
		ContinuesBefore: s.ContinuesBefore,
		ContinuesAfter:  s.ContinuesAfter,
	}
}

// MoreDTO is a "+N more" link of a day cell.
type MoreDTO struct {
	Slot  int `json:"slot"`
	Count int `json:"count"`
}

// RowView is a row of day cells with its packed event rows.
type RowView struct {
	Days   []time.Time    `json:"days"`
	Levels [][]SegmentDTO `json:"levels"`
	More   []MoreDTO      `json:"more,omitempty"`
}

func newRowView(m *dateslots.Metrics) RowView {
	v := RowView{
		Days:   m.Range().Slots,
		Levels: make([][]SegmentDTO, 0, len(m.Levels)),
	}
	for _, lvl := range m.Levels {
		out := make([]SegmentDTO, 0, len(lvl))
		for _, s := range lvl {
			out = append(out, newSegmentDTO(s))
		}
		v.Levels = append(v.Levels, out)
	}
	for i := 0; i < m.Slots(); i++ {
		if n := m.Extra.CountAt(i); n > 0 {
			v.More = append(v.More, MoreDTO{Slot: i, Count: n})
		}
	}
	return v
}

// DayView is a single day in a time grid.
type DayView struct {
	Date   time.Time  `json:"date"`
	AllDay RowView    `json:"all_day"`
	Column ColumnView `json:"column"`
}

// WeekView is a week in a time grid.
type WeekView struct {
	Start   time.Time    `json:"start"`
	End     time.Time    `json:"end"`
	AllDay  RowView      `json:"all_day"`
	Columns []ColumnView `json:"columns"`
}

// MonthView is a month grid.
type MonthView struct {
	Month time.Time `json:"month"`
	Weeks []RowView `json:"weeks"`
}
