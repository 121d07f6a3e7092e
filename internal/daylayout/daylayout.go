package daylayout

import (
	"strconv"

	"rbcal/internal/levels"
	"rbcal/internal/model"
	"rbcal/internal/timeslots"
)

// Style positions an event box inside a day column. All values are
// percentages of the container.
type Style struct {
	Top     float64 `json:"top"`
	Height  float64 `json:"height"`
	Width   float64 `json:"width"`
	XOffset float64 `json:"x_offset"`
}

// CSS returns the style as percentage strings keyed by property. The
// offset property is "right" for right-to-left layouts.
func (s Style) CSS(rtl bool) map[string]string {
	side := "left"
	if rtl {
		side = "right"
	}
	return map[string]string{
		"top":    pct(s.Top),
		"height": pct(s.Height),
		"width":  pct(s.Width),
		side:     pct(max(0, s.XOffset)),
	}
}

func pct(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

// StyledEvent is an event with its computed box.
type StyledEvent struct {
	Event model.Event
	Style Style
}

// Layout places the events that intersect the metrics window side by side.
// Events sharing a cluster of transitively overlapping slots split the
// column width evenly; an event widens to the right until it meets a
// column holding an event it actually overlaps. Results are ordered by
// slot, then longer events first, then input order.
func Layout(events []model.Event, m *timeslots.Metrics) []StyledEvent {
	r := m.SlotRange()

	var segs []levels.Segment
	for _, e := range events {
		if !levels.InRange(e, m.Start(), m.End()) {
			continue
		}
		segs = append(segs, levels.SegmentOf(e, r))
	}
	segs = levels.Sorted(segs)

	out := make([]StyledEvent, 0, len(segs))
	for _, c := range clusters(segs) {
		out = append(out, layoutCluster(c, m)...)
	}
	return out
}

// clusters splits sorted segments into connected components of the
// overlap graph.
func clusters(segs []levels.Segment) [][]levels.Segment {
	var (
		out      [][]levels.Segment
		cur      []levels.Segment
		curRight int
	)
	for _, s := range segs {
		if len(cur) > 0 && s.Left > curRight {
			out = append(out, cur)
			cur = nil
		}
		if len(cur) == 0 || s.Right > curRight {
			curRight = s.Right
		}
		cur = append(cur, s)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

func layoutCluster(segs []levels.Segment, m *timeslots.Metrics) []StyledEvent {
	// First-fit column assignment in packing order, like levels.Pack.
	var columns [][]levels.Segment
	col := make([]int, len(segs))
	for i, s := range segs {
		c := 0
		for ; c < len(columns); c++ {
			last := columns[c][len(columns[c])-1]
			if last.Right < s.Left {
				break
			}
		}
		if c == len(columns) {
			columns = append(columns, nil)
		}
		columns[c] = append(columns[c], s)
		col[i] = c
	}

	width := 100 / float64(len(columns))

	out := make([]StyledEvent, 0, len(segs))
	for i, s := range segs {
		c := col[i]
		span := 1
		for next := c + 1; next < len(columns) && !overlapsAny(s, columns[next]); next++ {
			span++
		}

		start, end := model.Bounds(s.Event)
		r := m.GetRange(start, end)

		out = append(out, StyledEvent{
			Event: s.Event,
			Style: Style{
				Top:     r.Top,
				Height:  r.Height,
				Width:   width * float64(span),
				XOffset: width * float64(c),
			},
		})
	}
	return out
}

func overlapsAny(s levels.Segment, column []levels.Segment) bool {
	for _, o := range column {
		if levels.Overlaps(s, o) {
			return true
		}
	}
	return false
}
