package timeslots

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"rbcal/internal/dates"
	"rbcal/internal/levels"
)

const (
	// DefaultStep is the snap step in minutes.
	DefaultStep = 30
	// DefaultTimeslots is the number of slots per step.
	DefaultTimeslots = 2
)

// Options errors.
var (
	ErrInvalidStep      = errors.New("timeslots: step must be positive")
	ErrInvalidTimeslots = errors.New("timeslots: timeslots must be positive")
	ErrInvalidWindow    = errors.New("timeslots: max must be after min")
)

// Options configures the time window of a single day column.
type Options struct {
	// Date is the day shown by the column. Only its calendar date and
	// location are used.
	Date time.Time

	// Min and Max are offsets from the start of Date delimiting the visible
	// window, e.g. 8h and 20h. A zero Max means the end of the day.
	Min time.Duration
	Max time.Duration

	// Step is the group size in minutes; each group is split into
	// Timeslots slots, so Step=30, Timeslots=2 snaps to 15 minutes.
	Step      int
	Timeslots int
}

// Validate reports configuration values the metrics cannot work with.
func (o Options) Validate() error {
	if o.Step <= 0 {
		return ErrInvalidStep
	}
	if o.Timeslots <= 0 {
		return ErrInvalidTimeslots
	}
	if o.Max != 0 && o.Max <= o.Min {
		return fmt.Errorf("%w: min=%s max=%s", ErrInvalidWindow, o.Min, o.Max)
	}
	return nil
}

func (o Options) normalized() Options {
	if o.Step <= 0 {
		o.Step = DefaultStep
	}
	if o.Timeslots <= 0 {
		o.Timeslots = DefaultTimeslots
	}
	if o.Max <= o.Min {
		o.Max = 24 * time.Hour
		if o.Min >= o.Max {
			o.Min = 0
		}
	}
	return o
}

// key identifies a configuration. Two options with equal keys produce
// identical metrics.
type key struct {
	start     time.Time
	end       time.Time
	step      int
	timeslots int
}

// Range is a sub-range of the window with its vertical geometry.
type Range struct {
	StartDate time.Time
	EndDate   time.Time

	// Top and Height are percentages of the column height.
	Top    float64
	Height float64

	// Start and End are offsets from the window start.
	Start time.Duration
	End   time.Duration
}

// Metrics maps between instants in a day window and discrete slots. A
// Metrics value is immutable; Update returns a new one when the
// configuration changes.
type Metrics struct {
	key key

	start time.Time
	end   time.Time
	total time.Duration

	slotDuration time.Duration
	timeslots    int

	// slots holds every slot boundary, including the closing one.
	slots  []time.Time
	groups [][]time.Time
}

// window returns the absolute bounds of the configured window. Wall clock
// arithmetic keeps 08:00 at 08:00 on DST days.
func (o Options) window() (start, end time.Time) {
	y, mo, d := o.Date.Date()
	loc := o.Date.Location()
	start = time.Date(y, mo, d, 0, 0, 0, int(o.Min), loc)
	end = time.Date(y, mo, d, 0, 0, 0, int(o.Max), loc)
	return start, end
}

func (o Options) key() key {
	start, end := o.window()
	return key{start: start, end: end, step: o.Step, timeslots: o.Timeslots}
}

// New computes the metrics for opts. Invalid step or timeslots values fall
// back to the defaults; use Options.Validate to reject them instead.
func New(opts Options) *Metrics {
	opts = opts.normalized()
	start, end := opts.window()

	slotDuration := time.Duration(opts.Step) * time.Minute / time.Duration(opts.Timeslots)
	total := end.Sub(start)

	numSlots := int(math.Round(float64(total) / float64(slotDuration)))
	if numSlots < 1 {
		numSlots = 1
	}

	slots := make([]time.Time, numSlots+1)
	for i := 0; i < numSlots; i++ {
		slots[i] = start.Add(time.Duration(i) * slotDuration)
	}
	slots[numSlots] = end

	numGroups := (numSlots + opts.Timeslots - 1) / opts.Timeslots
	groups := make([][]time.Time, numGroups)
	for g := range groups {
		lo := g * opts.Timeslots
		hi := min(lo+opts.Timeslots, numSlots)
		groups[g] = slots[lo:hi:hi]
	}

	return &Metrics{
		key:          opts.key(),
		start:        start,
		end:          end,
		total:        total,
		slotDuration: slotDuration,
		timeslots:    opts.Timeslots,
		slots:        slots,
		groups:       groups,
	}
}

// Update returns m itself when opts describe the same configuration and
// fresh metrics otherwise.
func (m *Metrics) Update(opts Options) *Metrics {
	if m != nil && opts.normalized().key() == m.key {
		return m
	}
	return New(opts)
}

// Start returns the first instant of the window.
func (m *Metrics) Start() time.Time { return m.start }

// End returns the instant closing the window.
func (m *Metrics) End() time.Time { return m.end }

// SlotDuration returns the snapping granularity.
func (m *Metrics) SlotDuration() time.Duration { return m.slotDuration }

// NumSlots returns the number of slots in the window.
func (m *Metrics) NumSlots() int { return len(m.slots) - 1 }

// Groups returns the slot start instants grouped per step, for rendering
// the time gutter.
func (m *Metrics) Groups() [][]time.Time { return m.groups }

// SlotRange returns the window's slots as a levels.Range.
func (m *Metrics) SlotRange() levels.Range {
	n := m.NumSlots()
	return levels.NewRange(m.slots[:n:n], m.slots[n])
}

// DateIsInGroup reports whether t falls inside the given group.
func (m *Metrics) DateIsInGroup(t time.Time, group int) bool {
	if group < 0 || group >= len(m.groups) {
		return false
	}
	lo := m.groups[group][0]
	hi := m.end
	if group+1 < len(m.groups) {
		hi = m.groups[group+1][0]
	}
	return !t.Before(lo) && t.Before(hi)
}

// position returns the offset of t in the window, clamped to [0, total].
func (m *Metrics) position(t time.Time) time.Duration {
	d := t.Sub(m.start)
	if d < 0 {
		return 0
	}
	if d > m.total {
		return m.total
	}
	return d
}

// ClosestSlotToPosition floors a relative vertical position (0 at the top
// of the window, 1 at the bottom) to a slot boundary. Positions at or past
// the bottom map to the closing boundary.
func (m *Metrics) ClosestSlotToPosition(fraction float64) time.Time {
	n := m.NumSlots()
	i := int(math.Floor(fraction * float64(n)))
	if i < 0 {
		i = 0
	}
	if i > n {
		i = n
	}
	return m.slots[i]
}

// ClosestSlotFromPoint is ClosestSlotToPosition for a pixel y coordinate
// inside a container spanning [top, bottom].
func (m *Metrics) ClosestSlotFromPoint(y, top, bottom float64) time.Time {
	height := math.Abs(bottom - top)
	if height == 0 {
		return m.slots[0]
	}
	return m.ClosestSlotToPosition((y - top) / height)
}

// ClosestSlotFromDate floors t to its slot and shifts by offset slots.
// Instants before the window map to the first slot.
func (m *Metrics) ClosestSlotFromDate(t time.Time, offset int) time.Time {
	if t.Before(m.start) {
		return m.slots[0]
	}
	i := int(t.Sub(m.start)/m.slotDuration) + offset
	if i < 0 {
		i = 0
	}
	if i > m.NumSlots() {
		i = m.NumSlots()
	}
	return m.slots[i]
}

// NextSlot returns the slot boundary one slot after t, never past the
// window end. Off-grid instants advance by one slot duration.
func (m *Metrics) NextSlot(t time.Time) time.Time {
	if i, ok := m.boundaryIndex(t); ok {
		return m.slots[min(i+1, len(m.slots)-1)]
	}
	return dates.Min(t.Add(m.slotDuration), m.end)
}

func (m *Metrics) boundaryIndex(t time.Time) (int, bool) {
	i := sort.Search(len(m.slots), func(i int) bool { return !m.slots[i].Before(t) })
	if i < len(m.slots) && m.slots[i].Equal(t) {
		return i, true
	}
	return -1, false
}

// GetRange clamps [start, end] to the window, swapping the bounds if they
// are reversed, and returns its vertical geometry.
func (m *Metrics) GetRange(start, end time.Time) Range {
	if end.Before(start) {
		start, end = end, start
	}
	start = dates.Min(m.end, dates.Max(m.start, start))
	end = dates.Min(m.end, dates.Max(m.start, end))

	startPos := m.position(start)
	endPos := m.position(end)

	top := m.percent(startPos)
	return Range{
		StartDate: start,
		EndDate:   end,
		Top:       top,
		Height:    m.percent(endPos) - top,
		Start:     startPos,
		End:       endPos,
	}
}

func (m *Metrics) percent(d time.Duration) float64 {
	if m.total <= 0 {
		return 0
	}
	return float64(d) / float64(m.total) * 100
}

// StartsBeforeDay reports whether t is before the column's calendar day.
func (m *Metrics) StartsBeforeDay(t time.Time) bool {
	return t.Before(dates.StartOf(m.start, dates.Day))
}

// StartsAfterDay reports whether t is past the end of the column's
// calendar day.
func (m *Metrics) StartsAfterDay(t time.Time) bool {
	return t.After(dates.Add(dates.StartOf(m.start, dates.Day), 1, dates.Day))
}

// StartsBefore reports whether t is before the visible window.
func (m *Metrics) StartsBefore(t time.Time) bool { return t.Before(m.start) }

// StartsAfter reports whether t is past the visible window.
func (m *Metrics) StartsAfter(t time.Time) bool { return t.After(m.end) }

// DateForSlot returns the start of slot i. The closing boundary is
// addressable as i == NumSlots().
func (m *Metrics) DateForSlot(i int) (time.Time, bool) {
	if i < 0 || i >= len(m.slots) {
		return time.Time{}, false
	}
	return m.slots[i], true
}

// SlotForDate returns the slot containing t, or false when t is outside
// the window.
func (m *Metrics) SlotForDate(t time.Time) (int, bool) {
	if t.Equal(m.slots[len(m.slots)-1]) {
		return len(m.slots) - 1, true
	}
	if t.Before(m.start) || !t.Before(m.slots[len(m.slots)-1]) {
		return -1, false
	}
	i := sort.Search(len(m.slots), func(i int) bool { return m.slots[i].After(t) }) - 1
	return i, true
}
