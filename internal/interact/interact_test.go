package interact

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbcal/internal/dateslots"
	"rbcal/internal/daylayout"
	"rbcal/internal/levels"
	"rbcal/internal/model"
	"rbcal/internal/timeslots"
)

var (
	day    = time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	monday = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	// 96 quarter-hour slots of 10px each.
	column = Rect{Top: 0, Left: 0, Right: 100, Bottom: 960}
	// 7 day cells of 100px each.
	row = Rect{Top: 0, Left: 0, Right: 700, Bottom: 30}
)

func clock(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func weekday(i int) time.Time { return monday.AddDate(0, 0, i) }

func ev(title string, start, end time.Time) *model.Occurrence {
	return &model.Occurrence{Summary: title, StartsAt: start, EndsAt: end}
}

func dayMetrics() *timeslots.Metrics {
	return timeslots.New(timeslots.Options{Date: day, Step: 30, Timeslots: 2})
}

func weekMetrics() *dateslots.Metrics {
	return dateslots.New(dateslots.Options{Range: levels.DayRange(monday, 7)})
}

func TestPointInBox(t *testing.T) {
	assert.True(t, PointInBox(row, Point{X: 0, Y: 0}))
	assert.True(t, PointInBox(row, Point{X: 700, Y: 30}))
	assert.False(t, PointInBox(row, Point{X: 350, Y: 31}))
	assert.False(t, PointInBox(row, Point{X: -1, Y: 10}))
}

func TestSlotAtX(t *testing.T) {
	r := Rect{Left: 100, Right: 800, Bottom: 30}

	tests := []struct {
		name string
		x    float64
		rtl  bool
		want int
	}{
		{"left of row", 99, false, 0},
		{"first cell", 100, false, 0},
		{"middle", 450, false, 3},
		{"last cell", 799, false, 6},
		{"right of row", 900, false, 6},
		{"rtl first cell", 150, true, 6},
		{"rtl last cell", 790, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SlotAtX(r, tt.x, tt.rtl, 7))
		})
	}

	assert.Equal(t, 0, SlotAtX(r, 450, false, 0))
}

func TestSlotSelectorDragDown(t *testing.T) {
	var got []SlotInfo
	s := &SlotSelector{
		Metrics:      dayMetrics(),
		Column:       column,
		ResourceID:   "room-a",
		OnSelectSlot: func(info SlotInfo) { got = append(got, info) },
	}

	s.SelectStart(Point{X: 50, Y: 95})
	r, ok := s.Selection()
	require.True(t, ok)
	assert.Equal(t, clock(2, 15), r.StartDate)
	assert.Equal(t, clock(2, 30), r.EndDate)

	s.Selecting(Point{X: 50, Y: 125})
	r, _ = s.Selection()
	assert.Equal(t, clock(3, 0), r.EndDate)

	s.Select(Rect{Top: 90, Bottom: 125, Left: 0, Right: 100})
	require.Len(t, got, 1)
	info := got[0]
	assert.Equal(t, ActionSelect, info.Action)
	assert.Equal(t, clock(2, 15), info.Start)
	assert.Equal(t, clock(3, 0), info.End)
	assert.Equal(t, "room-a", info.ResourceID)
	assert.Equal(t, []time.Time{clock(2, 15), clock(2, 30), clock(2, 45), clock(3, 0)}, info.Slots)
	assert.NotNil(t, info.Bounds)
	assert.Nil(t, info.Box)

	_, ok = s.Selection()
	assert.False(t, ok)

	// A second select without a drag is ignored.
	s.Select(Rect{})
	assert.Len(t, got, 1)
}

func TestSlotSelectorDragUp(t *testing.T) {
	s := &SlotSelector{Metrics: dayMetrics(), Column: column}

	s.SelectStart(Point{X: 50, Y: 125})
	s.Selecting(Point{X: 50, Y: 95})

	r, ok := s.Selection()
	require.True(t, ok)
	assert.Equal(t, clock(2, 15), r.StartDate)
	assert.Equal(t, clock(3, 0), r.EndDate)
}

func TestSlotSelectorClick(t *testing.T) {
	var got []SlotInfo
	onEvent := false
	s := &SlotSelector{
		Metrics:      dayMetrics(),
		Column:       column,
		IsEvent:      func(Point) bool { return onEvent },
		OnSelectSlot: func(info SlotInfo) { got = append(got, info) },
	}

	s.DoubleClick(Point{X: 50, Y: 95})
	require.Len(t, got, 1)
	assert.Equal(t, ActionDoubleClick, got[0].Action)
	assert.Equal(t, clock(2, 15), got[0].Start)
	assert.Equal(t, clock(2, 30), got[0].End)
	require.NotNil(t, got[0].Box)
	assert.Equal(t, 95.0, got[0].Box.Y)

	onEvent = true
	s.Click(Point{X: 50, Y: 95})
	assert.Len(t, got, 1)
}

func TestSlotSelectorVeto(t *testing.T) {
	calls := 0
	allow := true
	s := &SlotSelector{
		Metrics: dayMetrics(),
		Column:  column,
		OnSelecting: func(start, end time.Time) bool {
			calls++
			return allow
		},
	}

	s.SelectStart(Point{X: 50, Y: 95})
	s.Selecting(Point{X: 50, Y: 96})
	assert.Equal(t, 1, calls, "unchanged ranges are not re-offered")

	allow = false
	s.Selecting(Point{X: 50, Y: 125})
	assert.Equal(t, 2, calls)
	r, ok := s.Selection()
	require.True(t, ok)
	assert.Equal(t, clock(2, 30), r.EndDate, "vetoed range is not applied")

	s.Reset()
	s.SelectStart(Point{X: 50, Y: 95})
	_, ok = s.Selection()
	assert.False(t, ok)
}

func TestSlotSelectorBeforeSelect(t *testing.T) {
	s := &SlotSelector{
		Metrics: dayMetrics(),
		Column:  column,
		IsEvent: func(p Point) bool { return p.Y < 100 },
	}

	assert.True(t, s.BeforeSelect(Point{Y: 50}))

	s.IgnoreEvents = true
	assert.False(t, s.BeforeSelect(Point{Y: 50}))
	assert.True(t, s.BeforeSelect(Point{Y: 500}))
}

func TestColumnDragMove(t *testing.T) {
	e := ev("review", clock(9, 0), clock(10, 0))
	var drops []DropInfo
	d := &ColumnDrag{
		Metrics:    dayMetrics(),
		Column:     column,
		ResourceID: "room-a",
		EventAt: func(p Point) (Rect, bool) {
			return Rect{Top: 360, Bottom: 400, Left: 0, Right: 100}, p.Y >= 360 && p.Y <= 400
		},
		OnDrop: func(info DropInfo) { drops = append(drops, info) },
	}

	d.Begin(e)
	d.SelectStart(Point{X: 50, Y: 365})
	p, ok := d.Preview()
	require.True(t, ok)
	assert.Equal(t, clock(9, 0), p.Event.Start(), "grab offset keeps the event in place")

	d.Selecting(Point{X: 50, Y: 418})
	p, ok = d.Preview()
	require.True(t, ok)
	assert.Equal(t, clock(10, 15), p.Event.Start())
	assert.Equal(t, clock(11, 15), p.Event.End())
	assert.Same(t, e, model.Original(p.Event))
	assert.NotEmpty(t, p.Event.ID)
	assert.InDelta(t, 615.0/1440*100, p.Style.Top, 1e-9)
	assert.InDelta(t, 60.0/1440*100, p.Style.Height, 1e-9)
	assert.Equal(t, 100.0, p.Style.Width)
	assert.Equal(t, daylayout.LabelRange, p.Label.Format)

	d.Select()
	require.Len(t, drops, 1)
	assert.Same(t, e, drops[0].Event)
	assert.Equal(t, DragMove, drops[0].Action)
	assert.Equal(t, clock(10, 15), drops[0].Start)
	assert.Equal(t, clock(11, 15), drops[0].End)
	assert.Equal(t, "room-a", drops[0].ResourceID)

	assert.Nil(t, d.Dragging())
	_, ok = d.Preview()
	assert.False(t, ok)
}

func TestColumnDragLeavingColumn(t *testing.T) {
	e := ev("review", clock(9, 0), clock(10, 0))
	dropped := false
	d := &ColumnDrag{
		Metrics: dayMetrics(),
		Column:  column,
		OnDrop:  func(DropInfo) { dropped = true },
	}

	d.Begin(e)
	d.Selecting(Point{X: 105, Y: 418})
	_, ok := d.Preview()
	assert.True(t, ok, "the gutter right of the column still counts")

	d.Selecting(Point{X: 200, Y: 418})
	_, ok = d.Preview()
	assert.False(t, ok)

	d.Select()
	assert.False(t, dropped)
	assert.Same(t, e, d.Dragging())

	d.Click()
	assert.Nil(t, d.Dragging())
}

func TestColumnDragResize(t *testing.T) {
	e := ev("review", clock(9, 0), clock(10, 0))
	d := &ColumnDrag{Metrics: dayMetrics(), Column: column}

	d.BeginResize(e, DirectionDown)
	d.Selecting(Point{X: 50, Y: 475})
	p, ok := d.Preview()
	require.True(t, ok)
	assert.Equal(t, clock(9, 0), p.Event.Start())
	assert.Equal(t, clock(12, 0), p.Event.End())

	d.BeginResize(e, DirectionUp)
	d.Selecting(Point{X: 50, Y: 305})
	p, ok = d.Preview()
	require.True(t, ok)
	assert.Equal(t, clock(7, 30), p.Event.Start())
	assert.Equal(t, clock(10, 0), p.Event.End())
}

func TestColumnDragIdle(t *testing.T) {
	d := &ColumnDrag{Metrics: dayMetrics(), Column: column}

	d.Selecting(Point{X: 50, Y: 418})
	_, ok := d.Preview()
	assert.False(t, ok)
}

func TestRowDragMove(t *testing.T) {
	e := ev("offsite", weekday(1).Add(9*time.Hour+30*time.Minute), weekday(2).Add(10*time.Hour))
	var drops []DropInfo
	d := &RowDrag{
		Metrics:    weekMetrics(),
		Row:        row,
		ResourceID: "team",
		OnDrop:     func(info DropInfo) { drops = append(drops, info) },
	}

	d.BeginMove(e)
	d.Selecting(Point{X: 450, Y: 10})
	seg, ok := d.Preview()
	require.True(t, ok)
	assert.True(t, model.IsPreview(seg.Event))
	assert.Equal(t, 4, seg.Left)
	assert.Equal(t, 5, seg.Right)

	d.Select(Point{X: 450, Y: 10})
	require.Len(t, drops, 1)
	assert.Same(t, e, drops[0].Event)
	assert.Equal(t, weekday(4).Add(9*time.Hour+30*time.Minute), drops[0].Start)
	assert.Equal(t, weekday(5).Add(10*time.Hour), drops[0].End)
	assert.True(t, drops[0].AllDay)
	assert.Equal(t, "team", drops[0].ResourceID)
	assert.Nil(t, d.Dragging())
}

func TestRowDragMoveRTLAndOutside(t *testing.T) {
	e := ev("offsite", weekday(1), weekday(2))
	d := &RowDrag{Metrics: weekMetrics(), Row: row, RTL: true}

	d.BeginMove(e)
	d.Selecting(Point{X: 450, Y: 10})
	seg, ok := d.Preview()
	require.True(t, ok)
	assert.Equal(t, 2, seg.Left)

	d.Selecting(Point{X: 450, Y: 50})
	_, ok = d.Preview()
	assert.False(t, ok)
}

func TestRowDragResizeRight(t *testing.T) {
	e := ev("trip", weekday(0), weekday(1))
	var drops []DropInfo
	d := &RowDrag{
		Metrics: weekMetrics(),
		Row:     row,
		OnDrop:  func(info DropInfo) { drops = append(drops, info) },
	}

	d.BeginResize(e, DirectionRight)
	d.Selecting(Point{X: 350, Y: 10})
	seg, ok := d.Preview()
	require.True(t, ok)
	assert.Equal(t, 0, seg.Left)
	assert.Equal(t, 3, seg.Right)

	// Below the row the event runs on into the next week.
	d.Selecting(Point{X: 350, Y: 50})
	seg, ok = d.Preview()
	require.True(t, ok)
	assert.Equal(t, 6, seg.Right)
	assert.True(t, seg.ContinuesAfter)

	d.Select(Point{X: 350, Y: 50})
	assert.Empty(t, drops, "resizes land only inside the row")

	d.Selecting(Point{X: 350, Y: 10})
	d.Select(Point{X: 350, Y: 10})
	require.Len(t, drops, 1)
	assert.Equal(t, DragResize, drops[0].Action)
	assert.Equal(t, weekday(0), drops[0].Start)
	assert.Equal(t, weekday(4), drops[0].End)
	assert.False(t, drops[0].AllDay)
}

func TestRowDragResizeLeft(t *testing.T) {
	e := ev("trip", weekday(3), weekday(4))
	d := &RowDrag{Metrics: weekMetrics(), Row: row}

	d.BeginResize(e, DirectionLeft)
	d.Selecting(Point{X: 150, Y: 10})
	seg, ok := d.Preview()
	require.True(t, ok)
	assert.Equal(t, 1, seg.Left)
	assert.Equal(t, 3, seg.Right)

	d.Selecting(Point{X: 150, Y: -20})
	seg, ok = d.Preview()
	require.True(t, ok)
	assert.Equal(t, 0, seg.Left)
	assert.True(t, seg.ContinuesBefore)
}

func TestRowDragResizeOutsideRow(t *testing.T) {
	later := ev("later", weekday(10), weekday(11))
	d := &RowDrag{Metrics: weekMetrics(), Row: row}

	d.BeginResize(later, DirectionRight)
	d.Selecting(Point{X: 350, Y: 10})
	_, ok := d.Preview()
	assert.False(t, ok)

	d.Selecting(Point{X: 350, Y: -20})
	_, ok = d.Preview()
	assert.False(t, ok)
}

func TestRowDragBeforeSelect(t *testing.T) {
	e := ev("trip", weekday(0), weekday(1))
	d := &RowDrag{Metrics: weekMetrics(), Row: row}

	assert.False(t, d.BeforeSelect(Point{X: 10, Y: 10}), "nothing to drag")

	d.BeginMove(e)
	assert.True(t, d.BeforeSelect(Point{X: 10, Y: 100}))

	d.BeginResize(e, DirectionRight)
	assert.True(t, d.BeforeSelect(Point{X: 10, Y: 100}))

	d.IsAllDay = true
	assert.False(t, d.BeforeSelect(Point{X: 10, Y: 100}))
	assert.True(t, d.BeforeSelect(Point{X: 10, Y: 10}))

	d.Click()
	assert.Nil(t, d.Dragging())
}

func TestColumnDragPreviewKeyedBySession(t *testing.T) {
	e := ev("review", clock(9, 0), clock(10, 0))
	d := &ColumnDrag{
		Metrics: dayMetrics(),
		Column:  column,
		EventAt: func(Point) (Rect, bool) { return Rect{Top: 360, Bottom: 400, Right: 100}, true },
	}

	d.Begin(e)
	session := d.Session()
	require.NotEmpty(t, session)

	var ids []string
	d.SelectStart(Point{X: 50, Y: 365})
	for _, y := range []float64{410, 500} {
		d.Selecting(Point{X: 50, Y: y})
		p, ok := d.Preview()
		require.True(t, ok)
		ids = append(ids, p.Event.ID)
	}
	assert.Equal(t, []string{session, session}, ids)

	d.BeginResize(e, DirectionDown)
	d.Selecting(Point{X: 50, Y: 475})
	p, ok := d.Preview()
	require.True(t, ok)
	assert.NotEqual(t, session, p.Event.ID, "a new drag gets a new key")
	assert.Equal(t, d.Session(), p.Event.ID)

	d.Reset()
	assert.Empty(t, d.Session())
}

func TestRowDragPreviewKeyedBySession(t *testing.T) {
	e := ev("offsite", weekday(1), weekday(2))
	d := &RowDrag{Metrics: weekMetrics(), Row: row}

	d.BeginMove(e)
	session := d.Session()
	require.NotEmpty(t, session)

	for _, x := range []float64{250, 450} {
		d.Selecting(Point{X: x, Y: 10})
		seg, ok := d.Preview()
		require.True(t, ok)
		p, ok := seg.Event.(*model.Preview)
		require.True(t, ok)
		assert.Equal(t, session, p.ID)
	}

	d.BeginMove(e)
	assert.NotEqual(t, session, d.Session())
}

func TestSlotSelectorWholeColumn(t *testing.T) {
	s := &SlotSelector{Metrics: dayMetrics(), Column: column}

	s.SelectStart(Point{X: 50, Y: 0})
	s.Selecting(Point{X: 50, Y: column.Bottom})

	r, ok := s.Selection()
	require.True(t, ok)
	assert.Equal(t, clock(0, 0), r.StartDate)
	assert.Equal(t, clock(24, 0), r.EndDate)
	assert.InDelta(t, 100.0, r.Height, 1e-9)
}
