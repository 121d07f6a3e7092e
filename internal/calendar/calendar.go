// Package calendar holds the current event snapshot and turns it into the
// day, week and month layouts served by the CLI and the HTTP API.
package calendar

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rbcal/internal/config"
	"rbcal/internal/dates"
	"rbcal/internal/dateslots"
	"rbcal/internal/daylayout"
	"rbcal/internal/ics"
	"rbcal/internal/levels"
	appLog "rbcal/internal/log"
	"rbcal/internal/model"
	"rbcal/internal/timeslots"
)

// rowKind separates the all-day row of a time grid from a month row
// covering the same days.
type rowKind int

const (
	allDayRow rowKind = iota
	monthRow
)

const (
	// maxCachedRows bounds the date rows kept per snapshot.
	maxCachedRows = 64
	// rowCacheTTL drops rows nobody asked for recently.
	rowCacheTTL = 10 * time.Minute
)

// rowKey identifies a date row of a snapshot.
type rowKey struct {
	kind  rowKind
	first time.Time
	n     int
}

// row keeps the inputs of a date row stable for the lifetime of a snapshot
// so the metrics cache can match them by identity.
type row struct {
	rng    levels.Range
	events []model.Event
	cache  dateslots.Cache
	usedAt time.Time
}

// Calendar lays out a snapshot of events. It is safe for concurrent use;
// Replace swaps the snapshot atomically.
type Calendar struct {
	view  config.ViewConfig
	loc   *time.Location
	first time.Weekday

	mu      sync.RWMutex
	events  []model.Event
	version uint64
	rows    map[rowKey]*row
	day     *timeslots.Metrics

	now func() time.Time
}

// New creates an empty calendar for cfg.
func New(cfg *config.Config) *Calendar {
	return &Calendar{
		view:  cfg.View,
		loc:   cfg.Location(),
		first: cfg.FirstWeekday(),
		rows:  make(map[rowKey]*row),
		now:   time.Now,
	}
}

// Location returns the zone days are laid out in.
func (c *Calendar) Location() *time.Location { return c.loc }

// Replace installs a new event snapshot. The events are sorted in display
// order; the caller's slice is not modified.
func (c *Calendar) Replace(events []*model.Occurrence) {
	snapshot := make([]model.Event, len(events))
	for i, e := range events {
		snapshot[i] = e
	}
	levels.SortEvents(snapshot)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = snapshot
	c.version++
	c.rows = make(map[rowKey]*row)
}

// Events returns the current snapshot. It must not be modified.
func (c *Calendar) Events() []model.Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.events
}

// Version increments on every Replace.
func (c *Calendar) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// rowMetrics returns the packed metrics of the row of n days starting at
// first. All-day rows only hold events that do not fit a day column and
// are never capped.
func (c *Calendar) rowMetrics(kind rowKind, first time.Time, n int) *dateslots.Metrics {
	key := rowKey{kind: kind, first: first, n: n}
	keep, maxRows := inAllDayRow, 0
	if kind == monthRow {
		keep, maxRows = func(model.Event) bool { return true }, c.view.MaxRows
	}

	c.mu.Lock()
	now := c.now()
	r, ok := c.rows[key]
	if !ok {
		c.evictRowsLocked(now)
		rng := levels.DayRange(first, n)
		var evs []model.Event
		for _, e := range c.events {
			if keep(e) && levels.InRange(e, rng.First(), rng.End) {
				evs = append(evs, e)
			}
		}
		r = &row{rng: rng, events: evs}
		c.rows[key] = r
	}
	r.usedAt = now
	c.mu.Unlock()

	return r.cache.Get(dateslots.Options{
		Range:   r.rng,
		Events:  r.events,
		MaxRows: maxRows,
		MinRows: c.view.MinRows,
	})
}

// evictRowsLocked makes room for one more row: expired rows go first, then
// the least recently used one. c.mu must be held.
func (c *Calendar) evictRowsLocked(now time.Time) {
	if len(c.rows) < maxCachedRows {
		return
	}
	var (
		oldestKey rowKey
		oldest    *row
	)
	for k, r := range c.rows {
		if now.Sub(r.usedAt) >= rowCacheTTL {
			delete(c.rows, k)
			continue
		}
		if oldest == nil || r.usedAt.Before(oldest.usedAt) {
			oldestKey, oldest = k, r
		}
	}
	if len(c.rows) >= maxCachedRows && oldest != nil {
		delete(c.rows, oldestKey)
	}
}

// dayMetrics returns the time slot metrics of date, reusing the previous
// value when the configuration is unchanged.
func (c *Calendar) dayMetrics(date time.Time) (*timeslots.Metrics, error) {
	opts, err := c.view.TimeSlotOptions(date)
	if err != nil {
		return nil, fmt.Errorf("day metrics: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.day = c.day.Update(opts)
	return c.day, nil
}

// inAllDayRow reports whether e belongs in the all-day row of a time grid
// rather than in a day column.
func inAllDayRow(e model.Event) bool {
	start, end := model.Bounds(e)
	return e.AllDay() || end.Sub(start) >= 24*time.Hour
}

func inTimeGrid(e model.Event) bool { return !inAllDayRow(e) }

// Day lays out a single day: its all-day row and its time column.
func (c *Calendar) Day(date time.Time) (DayView, error) {
	day := dates.StartOf(date.In(c.loc), dates.Day)
	column, err := c.column(day)
	if err != nil {
		return DayView{}, err
	}
	return DayView{
		Date:   day,
		AllDay: newRowView(c.rowMetrics(allDayRow, day, 1)),
		Column: column,
	}, nil
}

// Week lays out the week containing date as a time grid.
func (c *Calendar) Week(date time.Time) (WeekView, error) {
	first := dates.StartOfWeek(date.In(c.loc), c.first)
	days := dates.Days(first, 7)

	v := WeekView{
		Start:  first,
		End:    dates.Add(first, 7, dates.Day),
		AllDay: newRowView(c.rowMetrics(allDayRow, first, 7)),
	}
	for _, d := range days {
		column, err := c.column(d)
		if err != nil {
			return WeekView{}, err
		}
		v.Columns = append(v.Columns, column)
	}
	return v, nil
}

// Month lays out the weeks of date's month as rows of day cells.
func (c *Calendar) Month(date time.Time) MonthView {
	local := date.In(c.loc)
	v := MonthView{Month: dates.StartOf(local, dates.Month)}
	for _, week := range dates.MonthWeeks(local, c.first) {
		v.Weeks = append(v.Weeks, newRowView(c.rowMetrics(monthRow, week[0], len(week))))
	}
	return v
}

func (c *Calendar) column(day time.Time) (ColumnView, error) {
	m, err := c.dayMetrics(day)
	if err != nil {
		return ColumnView{}, err
	}
	var timed []model.Event
	for _, e := range c.Events() {
		if inTimeGrid(e) {
			timed = append(timed, e)
		}
	}
	return newColumnView(m, daylayout.Layout(timed, m), c.view.RTL), nil
}

// LayoutColumn lays out events that are not part of the snapshot, such as
// events posted by a client, in the time column of date.
func (c *Calendar) LayoutColumn(date time.Time, events []model.Event) (ColumnView, error) {
	day := dates.StartOf(date.In(c.loc), dates.Day)
	m, err := c.dayMetrics(day)
	if err != nil {
		return ColumnView{}, err
	}
	return newColumnView(m, daylayout.Layout(events, m), c.view.RTL), nil
}

// Reload loads every source and installs the result as the new snapshot.
// Sources that fail are reported and left out; the snapshot is replaced
// even then so removed events disappear.
func (c *Calendar) Reload(ctx context.Context, l *ics.Loader, sources []ics.Source) (int, []error) {
	events, errs := l.LoadAll(ctx, sources, c.loc)
	c.Replace(events)
	appLog.Info("calendar reloaded", "events", len(events), "sources", len(sources), "errors", len(errs))
	return len(events), errs
}

// Sources converts the configured sources.
func Sources(cfg *config.Config) []ics.Source {
	out := make([]ics.Source, 0, len(cfg.Sources))
	for _, s := range cfg.Sources {
		out = append(out, ics.Source{ID: s.ID, Location: s.Location(), Resource: s.Resource})
	}
	return out
}
