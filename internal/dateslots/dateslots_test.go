package dateslots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbcal/internal/levels"
	"rbcal/internal/model"
)

var monday = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func day(i int) time.Time { return monday.AddDate(0, 0, i) }

func ev(title string, start, end time.Time) *model.Occurrence {
	return &model.Occurrence{Summary: title, StartsAt: start, EndsAt: end}
}

func TestNewReservesOverflowRow(t *testing.T) {
	var events []model.Event
	for i := 0; i < 4; i++ {
		events = append(events, ev("busy", day(2), day(3)))
	}

	m := New(Options{Range: levels.DayRange(monday, 7), Events: events, MaxRows: 3})

	require.Len(t, m.Levels, 2)
	assert.Equal(t, 2, m.Extra.Len())
	assert.Equal(t, 2, m.Extra.CountAt(2))
	assert.Len(t, m.EventsForSlot(2), 4)
	assert.Empty(t, m.EventsForSlot(3))
}

func TestNewSingleRowStillShowsOneLevel(t *testing.T) {
	events := []model.Event{ev("a", day(0), day(1)), ev("b", day(0), day(1))}

	m := New(Options{Range: levels.DayRange(monday, 7), Events: events, MaxRows: 1})

	require.Len(t, m.Levels, 1)
	assert.Equal(t, 1, m.Extra.Len())
}

func TestNewPadsMinRows(t *testing.T) {
	m := New(Options{Range: levels.DayRange(monday, 7), MinRows: 3})

	require.Len(t, m.Levels, 3)
	for _, lvl := range m.Levels {
		assert.Empty(t, lvl)
	}
}

func TestSlotLookups(t *testing.T) {
	m := New(Options{Range: levels.DayRange(monday, 7)})

	assert.Equal(t, 7, m.Slots())
	assert.Equal(t, day(0), m.First())
	assert.Equal(t, day(7), m.Last())

	for i := 0; i < m.Slots(); i++ {
		d, ok := m.DateForSlot(i)
		require.True(t, ok)
		got, ok := m.SlotForDate(d)
		require.True(t, ok)
		assert.Equal(t, i, got)
	}

	i, ok := m.SlotForDate(day(3).Add(15 * time.Hour))
	assert.True(t, ok)
	assert.Equal(t, 3, i)

	_, ok = m.SlotForDate(day(7))
	assert.False(t, ok)
	_, ok = m.DateForSlot(7)
	assert.False(t, ok)
}

func TestContinuation(t *testing.T) {
	m := New(Options{Range: levels.DayRange(monday, 7)})

	assert.True(t, m.StartsBefore(day(-1).Add(23*time.Hour)))
	assert.False(t, m.StartsBefore(day(0)))
	assert.False(t, m.EndsAfter(day(7)))
	assert.True(t, m.EndsAfter(day(7).Add(time.Minute)))
}

func TestEventSegmentForPreview(t *testing.T) {
	orig := ev("orig", day(1), day(2))
	m := New(Options{Range: levels.DayRange(monday, 7), Events: []model.Event{orig}})

	preview := model.NewPreview(orig, "", day(4), day(6))
	seg := m.EventSegment(preview)

	assert.Equal(t, 4, seg.Left)
	assert.Equal(t, 5, seg.Right)
	assert.Same(t, orig, model.Original(seg.Event))
	// The preview is not part of the packed row.
	assert.Len(t, m.Segments(), 1)
}

func TestClone(t *testing.T) {
	events := []model.Event{ev("a", day(0), day(1)), ev("b", day(0), day(1)), ev("c", day(0), day(1))}
	m := New(Options{Range: levels.DayRange(monday, 7), Events: events, MaxRows: 2})
	require.Len(t, m.Levels, 1)

	c := m.Clone(Options{MaxRows: 5})
	assert.NotSame(t, m, c)
	assert.Len(t, c.Levels, 3)
	assert.Equal(t, 0, c.Extra.Len())
	assert.Equal(t, m.Range(), c.Range())
}

func TestCacheIdentity(t *testing.T) {
	r := levels.DayRange(monday, 7)
	events := []model.Event{ev("a", day(0), day(1))}

	var c Cache
	first := c.Get(Options{Range: r, Events: events, MaxRows: 4})
	assert.Same(t, first, c.Get(Options{Range: r, Events: events, MaxRows: 4}))

	// Same content, new slice: recomputed.
	copied := append([]model.Event(nil), events...)
	second := c.Get(Options{Range: r, Events: copied, MaxRows: 4})
	assert.NotSame(t, first, second)

	// Config change: recomputed.
	third := c.Get(Options{Range: r, Events: copied, MaxRows: 5})
	assert.NotSame(t, second, third)

	// New range slice: recomputed.
	fourth := c.Get(Options{Range: levels.DayRange(monday, 7), Events: copied, MaxRows: 5})
	assert.NotSame(t, third, fourth)
}
