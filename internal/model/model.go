package model

import (
	"time"

	"github.com/google/uuid"
)

// Event is the accessor set the layout engine needs from a calendar event.
// Any event representation can be laid out as long as it implements this
// interface. Implementations are compared by identity, so pointer receivers
// are expected.
type Event interface {
	Start() time.Time
	End() time.Time
	AllDay() bool
	ResourceID() string
	Title() string
}

// Occurrence represents a single concrete instance of a calendar event,
// typically imported from an ICS feed or decoded from an API request.
type Occurrence struct {
	SourceID string `json:"source_id,omitempty"` // calendar source ID
	UID      string `json:"uid,omitempty"`       // iCalendar UID

	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`

	// Resource groups events into per-resource day columns.
	Resource string `json:"resource_id,omitempty"`

	IsAllDay bool `json:"all_day"`

	StartsAt time.Time `json:"start"`
	EndsAt   time.Time `json:"end"`
}

func (o *Occurrence) Start() time.Time   { return o.StartsAt }
func (o *Occurrence) End() time.Time     { return o.EndsAt }
func (o *Occurrence) AllDay() bool       { return o.IsAllDay }
func (o *Occurrence) ResourceID() string { return o.Resource }
func (o *Occurrence) Title() string      { return o.Summary }

// Preview is a synthetic event rendered while an event is being dragged or
// resized. It reports the candidate start/end and forwards everything else
// to the event being moved. Previews are never persisted.
type Preview struct {
	Event

	// ID keys the preview for rendering layers. Every frame of one drag
	// session carries the same ID.
	ID string

	start time.Time
	end   time.Time
}

// NewPreviewID returns a fresh key for a drag session.
func NewPreviewID() string { return uuid.NewString() }

// NewPreview returns a preview of e moved to [start, end) for the drag
// session id. An empty id starts a new session.
func NewPreview(e Event, id string, start, end time.Time) *Preview {
	if p, ok := e.(*Preview); ok {
		e = p.Event
	}
	if id == "" {
		id = NewPreviewID()
	}
	return &Preview{
		Event: e,
		ID:    id,
		start: start,
		end:   end,
	}
}

func (p *Preview) Start() time.Time { return p.start }
func (p *Preview) End() time.Time   { return p.end }

// IsPreview reports whether e is a drag preview.
func IsPreview(e Event) bool {
	_, ok := e.(*Preview)
	return ok
}

// Original unwraps a preview to the event being moved. Other events are
// returned unchanged.
func Original(e Event) Event {
	if p, ok := e.(*Preview); ok {
		return p.Event
	}
	return e
}

// Bounds returns the event's start and end with malformed events
// (end before start) collapsed to zero duration at start.
func Bounds(e Event) (start, end time.Time) {
	start, end = e.Start(), e.End()
	if end.Before(start) {
		end = start
	}
	return start, end
}
