package dates

import "time"

// Unit is the granularity used by the comparison and rounding helpers.
type Unit int

const (
	// Exact compares instants without any rounding.
	Exact Unit = iota
	Second
	Minute
	Hour
	Day
	Month
	Year
)

// StartOf floors t to the given unit in t's location.
func StartOf(t time.Time, u Unit) time.Time {
	y, m, d := t.Date()
	loc := t.Location()
	switch u {
	case Second:
		return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, loc)
	case Minute:
		return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc)
	case Hour:
		return time.Date(y, m, d, t.Hour(), 0, 0, 0, loc)
	case Day:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	case Month:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case Year:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return t
	}
}

// Ceil rounds t up to the next unit boundary. Instants already on a
// boundary are returned unchanged.
func Ceil(t time.Time, u Unit) time.Time {
	floor := StartOf(t, u)
	if floor.Equal(t) {
		return floor
	}
	return Add(floor, 1, u)
}

// Add adds n units to t. Day, Month and Year use calendar arithmetic so
// that DST transitions keep the wall clock time.
func Add(t time.Time, n int, u Unit) time.Time {
	switch u {
	case Second:
		return t.Add(time.Duration(n) * time.Second)
	case Minute:
		return t.Add(time.Duration(n) * time.Minute)
	case Hour:
		return t.Add(time.Duration(n) * time.Hour)
	case Day:
		return t.AddDate(0, 0, n)
	case Month:
		return t.AddDate(0, n, 0)
	case Year:
		return t.AddDate(n, 0, 0)
	default:
		return t.Add(time.Duration(n))
	}
}

// Diff returns the number of whole units from a to b (negative when b is
// before a). Day differences are computed on wall clock values so a DST
// day still counts as one day.
func Diff(a, b time.Time, u Unit) int {
	switch u {
	case Second:
		return int(b.Sub(a) / time.Second)
	case Minute:
		return int(b.Sub(a) / time.Minute)
	case Hour:
		return int(b.Sub(a) / time.Hour)
	case Day:
		return int(wall(b).Sub(wall(a)) / (24 * time.Hour))
	case Month:
		months := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
		if months > 0 && Add(a, months, Month).After(b) {
			months--
		} else if months < 0 && Add(a, months, Month).Before(b) {
			months++
		}
		return months
	case Year:
		return Diff(a, b, Month) / 12
	default:
		return int(b.Sub(a))
	}
}

// wall re-expresses t's wall clock reading in UTC.
func wall(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// Eq reports whether a and b fall in the same unit.
func Eq(a, b time.Time, u Unit) bool {
	return StartOf(a, u).Equal(StartOf(b, u))
}

// Lt reports whether a's unit is strictly before b's.
func Lt(a, b time.Time, u Unit) bool {
	return StartOf(a, u).Before(StartOf(b, u))
}

// Lte reports whether a's unit is before or equal to b's.
func Lte(a, b time.Time, u Unit) bool {
	return !Gt(a, b, u)
}

// Gt reports whether a's unit is strictly after b's.
func Gt(a, b time.Time, u Unit) bool {
	return StartOf(a, u).After(StartOf(b, u))
}

// Gte reports whether a's unit is after or equal to b's.
func Gte(a, b time.Time, u Unit) bool {
	return !Lt(a, b, u)
}

// InRange reports whether t lies in [start, end] at unit granularity.
func InRange(t, start, end time.Time, u Unit) bool {
	return Gte(t, start, u) && Lte(t, end, u)
}

// Min returns the earliest of the given instants.
func Min(t time.Time, rest ...time.Time) time.Time {
	for _, r := range rest {
		if r.Before(t) {
			t = r
		}
	}
	return t
}

// Max returns the latest of the given instants.
func Max(t time.Time, rest ...time.Time) time.Time {
	for _, r := range rest {
		if r.After(t) {
			t = r
		}
	}
	return t
}

// Merge combines the calendar date of date with the time of day of clock.
func Merge(date, clock time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), date.Location())
}

// StartOfWeek returns midnight of the first day of t's week.
func StartOfWeek(t time.Time, first time.Weekday) time.Time {
	day := StartOf(t, Day)
	offset := (int(day.Weekday()) - int(first) + 7) % 7
	return Add(day, -offset, Day)
}

// Days returns n consecutive midnights starting at the day of first.
func Days(first time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	out := make([]time.Time, n)
	day := StartOf(first, Day)
	for i := range out {
		out[i] = Add(day, i, Day)
	}
	return out
}

// MonthWeeks returns the visible weeks of a month grid: every week that
// contains a day of t's month, each as seven midnights.
func MonthWeeks(t time.Time, first time.Weekday) [][]time.Time {
	monthStart := StartOf(t, Month)
	monthEnd := Add(monthStart, 1, Month)

	var weeks [][]time.Time
	for start := StartOfWeek(monthStart, first); start.Before(monthEnd); start = Add(start, 7, Day) {
		weeks = append(weeks, Days(start, 7))
	}
	return weeks
}
