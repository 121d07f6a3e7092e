package levels

import (
	"sort"

	"rbcal/internal/model"
)

// Result is the outcome of packing segments into levels.
type Result struct {
	// Levels holds the segments of each visual row, ordered by Left.
	// Segments within a level never overlap.
	Levels [][]Segment
	// Overflow holds the segments that did not fit in the allowed levels.
	Overflow Overflow
}

// Placed returns the number of segments assigned to a level.
func (r Result) Placed() int {
	n := 0
	for _, lvl := range r.Levels {
		n += len(lvl)
	}
	return n
}

// Overflow collects segments that could not be placed and counts them per
// slot index for "+N more" affordances.
type Overflow struct {
	Segments []Segment
	counts   map[int]int
}

// Len returns the number of overflowing segments.
func (o Overflow) Len() int { return len(o.Segments) }

// CountAt returns how many overflowing segments cover slot.
func (o Overflow) CountAt(slot int) int { return o.counts[slot] }

// Events returns the overflowing events in placement order.
func (o Overflow) Events() []model.Event {
	out := make([]model.Event, len(o.Segments))
	for i, s := range o.Segments {
		out[i] = s.Event
	}
	return out
}

func (o *Overflow) add(s Segment) {
	if o.counts == nil {
		o.counts = make(map[int]int)
	}
	o.Segments = append(o.Segments, s)
	for i := s.Left; i <= s.Right; i++ {
		o.counts[i]++
	}
}

// Sorted returns a copy of segs ordered for packing: by Left, then longer
// span first, then input order.
func Sorted(segs []Segment) []Segment {
	out := make([]Segment, len(segs))
	copy(out, segs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Left != out[j].Left {
			return out[i].Left < out[j].Left
		}
		return out[i].Span() > out[j].Span()
	})
	return out
}

// Pack assigns every segment to the first level where it does not collide
// with the level's last segment. New levels are opened up to maxLevels
// (unlimited when maxLevels <= 0); the rest goes to the overflow.
//
// Ties on Left are broken by span and then by input order, so a host that
// reorders its events between renders may see rows swap even though the
// overlap structure did not change.
func Pack(segs []Segment, maxLevels int) Result {
	var res Result
	for _, seg := range Sorted(segs) {
		placed := false
		for i, lvl := range res.Levels {
			if lvl[len(lvl)-1].Right < seg.Left {
				res.Levels[i] = append(lvl, seg)
				placed = true
				break
			}
		}
		if placed {
			continue
		}
		if maxLevels <= 0 || len(res.Levels) < maxLevels {
			res.Levels = append(res.Levels, []Segment{seg})
			continue
		}
		res.Overflow.add(seg)
	}
	return res
}
