package dateslots

import (
	"sync"
	"time"

	"rbcal/internal/model"
)

// Cache remembers the last computed metrics and returns it again while the
// inputs are unchanged. Range and event slices are compared by identity,
// not content: callers must pass new slices when the content changes.
type Cache struct {
	mu   sync.Mutex
	last *Metrics
}

// Get returns metrics for opts, reusing the previous result when possible.
func (c *Cache) Get(opts Options) *Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.last != nil && sameOptions(c.last.opts, opts) {
		return c.last
	}
	c.last = New(opts)
	return c.last
}

func sameOptions(a, b Options) bool {
	return a.MaxRows == b.MaxRows &&
		a.MinRows == b.MinRows &&
		a.Range.End.Equal(b.Range.End) &&
		sameTimes(a.Range.Slots, b.Range.Slots) &&
		sameEvents(a.Events, b.Events)
}

func sameTimes(a, b []time.Time) bool {
	if len(a) != len(b) || cap(a) != cap(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}

func sameEvents(a, b []model.Event) bool {
	if len(a) != len(b) || cap(a) != cap(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}
